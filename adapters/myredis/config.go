package myredis

import (
	"fmt"

	"github.com/go-redis/redis/v8"
)

// Config is the Redis part of the service configuration.
type Config struct {
	Addr      string `yaml:"addr"`
	KeyPrefix string `yaml:"keyPrefix"`
}

// noRetries is the go-redis value that turns command retries off.
const noRetries = -1

// ConfigOption tweaks the parsed client options before the client is built.
type ConfigOption func(*redis.Options)

// WithMaxRetries lets the client retry failed commands n times.
func WithMaxRetries(n int) ConfigOption {
	return func(o *redis.Options) {
		o.MaxRetries = n
	}
}

// NewClient creates the store's client from a redis:// or rediss:// URL.
// Failed commands are not retried: the registry reports store_unavailable on the first
// error and leaves retrying to the caller. A max_retries URL parameter or WithMaxRetries
// turns retries back on.
func NewClient(redisAddr string, options ...ConfigOption) (redis.UniversalClient, error) {
	redisOptions, err := redis.ParseURL(redisAddr)
	if err != nil {
		return nil, fmt.Errorf("can't parse redis url: %w", err)
	}
	if redisOptions.MaxRetries == 0 {
		redisOptions.MaxRetries = noRetries
	}
	for _, opt := range options {
		opt(redisOptions)
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        []string{redisOptions.Addr},
		DB:           redisOptions.DB,
		Username:     redisOptions.Username,
		Password:     redisOptions.Password,
		TLSConfig:    redisOptions.TLSConfig,
		DialTimeout:  redisOptions.DialTimeout,
		ReadTimeout:  redisOptions.ReadTimeout,
		WriteTimeout: redisOptions.WriteTimeout,
		MaxRetries:   redisOptions.MaxRetries,
		PoolSize:     redisOptions.PoolSize,
		PoolTimeout:  redisOptions.PoolTimeout,
		MinIdleConns: redisOptions.MinIdleConns,
		IdleTimeout:  redisOptions.IdleTimeout,
	}), nil
}
