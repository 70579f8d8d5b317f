// Package app wires configuration into concrete components shared by the binaries.
package app

import (
	"context"
	"fmt"

	"myregistry/adapters/mybadger"
	"myregistry/adapters/mymongo"
	"myregistry/adapters/mypostgres"
	"myregistry/adapters/myredis"
	"myregistry/config"
	"myregistry/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// OpenStore opens the configured backend and checks that it answers. The returned store
// owns its connection; Close releases it.
func OpenStore(ctx context.Context, cfg config.StoreConfig, clock interfaces.TimeProvider, logger log.Logger) (interfaces.Store, error) {
	store, err := openStore(ctx, cfg, clock)
	if err != nil {
		return nil, err
	}

	if err := store.Ping(ctx); err != nil {
		_ = store.Close(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("can't reach %s store: %w", cfg.Backend, err)
	}
	level.Info(logger).Log("msg", "Connected to store", "backend", cfg.Backend)
	return store, nil
}

func openStore(ctx context.Context, cfg config.StoreConfig, clock interfaces.TimeProvider) (interfaces.Store, error) {
	switch cfg.Backend {
	case config.BackendRedis:
		client, err := myredis.NewClient(cfg.Redis.Addr)
		if err != nil {
			return nil, fmt.Errorf("can't create redis client: %w", err)
		}
		return myredis.NewStore(client, clock, myredis.WithKeyPrefix(cfg.Redis.KeyPrefix)), nil
	case config.BackendMongo:
		return mymongo.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, clock, mymongo.WithCollectionName(cfg.Mongo.Collection))
	case config.BackendPostgres:
		return mypostgres.Connect(ctx, cfg.Postgres.DSN, clock, mypostgres.WithTableName(cfg.Postgres.Table))
	case config.BackendBadger:
		return mybadger.Open(cfg.Badger.Path, clock)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
