package mypostgres

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"time"

	"myregistry/domain"
	"myregistry/helpers"
	"myregistry/interfaces"
	"myregistry/service"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultTable = "clients"

// validIdentifier matches safe PostgreSQL identifiers (letters, digits, underscores).
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// StoreOption configures the PostgreSQL store.
type StoreOption func(*Store)

// WithTableName sets the table holding instances. Default: "clients".
func WithTableName(name string) StoreOption {
	return func(s *Store) {
		s.tableName = name
	}
}

// Store is the PostgreSQL implementation of interfaces.Store.
type Store struct {
	pool      *pgxpool.Pool
	tableName string
	clock     interfaces.TimeProvider
	ownsPool  bool
}

var _ interfaces.Store = (*Store)(nil)

// Connect opens a pool on dsn and the store on top of it. Close releases the pool.
func Connect(ctx context.Context, dsn string, clock interfaces.TimeProvider, opts ...StoreOption) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("can't create postgres pool: %w", err)
	}
	s, err := NewStore(ctx, pool, clock, opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	s.ownsPool = true
	return s, nil
}

// NewStore creates the store on pool, creating the table and indexes when missing.
// The caller keeps ownership of pool.
func NewStore(ctx context.Context, pool *pgxpool.Pool, clock interfaces.TimeProvider, opts ...StoreOption) (*Store, error) {
	s := &Store{
		pool:      helpers.NilPanic(pool, "mypostgres.store.go: pool is required"),
		clock:     helpers.NilPanic(clock, "mypostgres.store.go: time provider is required"),
		tableName: defaultTable,
	}
	for _, opt := range opts {
		opt(s)
	}
	if !validIdentifier.MatchString(s.tableName) {
		return nil, fmt.Errorf("invalid table name %q: must match [a-zA-Z_][a-zA-Z0-9_]*", s.tableName)
	}
	if err := s.ensureTable(ctx); err != nil {
		return nil, service.NewStoreUnavailableError("Postgres schema error", fmt.Errorf("can't create table '%s', err: %w", s.tableName, err))
	}
	return s, nil
}

func (s *Store) ensureTable(ctx context.Context) error {
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %[1]s (
			group_name TEXT        NOT NULL,
			id         TEXT        NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL,
			meta       JSONB       NOT NULL DEFAULT '{}'::jsonb,
			seq        BIGSERIAL,
			PRIMARY KEY (group_name, id)
		);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_group_recent
			ON %[1]s (group_name, updated_at DESC, seq DESC);
		CREATE INDEX IF NOT EXISTS idx_%[1]s_updated
			ON %[1]s (updated_at);
	`, s.tableName)
	_, err := s.pool.Exec(ctx, query)
	return err
}

// Upsert takes a fresh seq from the column's sequence on insert and on update alike; it
// orders writes that share an updated_at millisecond.
func (s *Store) Upsert(ctx context.Context, group, id string, meta domain.Meta) error {
	if meta == nil {
		meta = domain.Meta{}
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return service.NewBadParameterError("meta must be a JSON object", fmt.Errorf("can't marshal meta (group='%s', id='%s'), err: %w", group, id, err))
	}

	now := s.clock.Now().UTC().Truncate(time.Millisecond)
	query := fmt.Sprintf(`
		INSERT INTO %s (group_name, id, created_at, updated_at, meta)
		VALUES ($1, $2, $3, $3, $4::jsonb)
		ON CONFLICT (group_name, id) DO UPDATE SET
			updated_at = EXCLUDED.updated_at,
			meta = EXCLUDED.meta,
			seq = EXCLUDED.seq
	`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, group, id, now, string(raw)); err != nil {
		return service.NewStoreUnavailableError("Postgres upsert error", fmt.Errorf("can't upsert instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

func (s *Store) ListByGroup(ctx context.Context, group string) ([]domain.Instance, error) {
	query := fmt.Sprintf(`
		SELECT id, group_name, created_at, updated_at, meta
		FROM %s WHERE group_name = $1 ORDER BY updated_at DESC, seq DESC
	`, s.tableName)
	rows, err := s.pool.Query(ctx, query, group)
	if err != nil {
		return nil, service.NewStoreUnavailableError("Postgres list error", fmt.Errorf("can't list instances (group='%s'), err: %w", group, err))
	}

	instances, err := pgx.CollectRows(rows, scanInstance)
	if err != nil {
		return nil, service.NewStoreUnavailableError("Postgres list error", fmt.Errorf("can't scan instances (group='%s'), err: %w", group, err))
	}
	if instances == nil {
		instances = []domain.Instance{}
	}
	return instances, nil
}

func scanInstance(row pgx.CollectableRow) (domain.Instance, error) {
	var (
		instance domain.Instance
		raw      []byte
	)
	if err := row.Scan(&instance.ID, &instance.Group, &instance.CreatedAt, &instance.UpdatedAt, &raw); err != nil {
		return instance, err
	}
	meta, err := domain.DecodeMeta(raw)
	if err != nil {
		return instance, fmt.Errorf("meta: %w", err)
	}
	instance.Meta = meta
	instance.CreatedAt = instance.CreatedAt.UTC()
	instance.UpdatedAt = instance.UpdatedAt.UTC()
	return instance, nil
}

func (s *Store) Delete(ctx context.Context, group, id string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE group_name = $1 AND id = $2`, s.tableName)
	if _, err := s.pool.Exec(ctx, query, group, id); err != nil {
		return service.NewStoreUnavailableError("Postgres delete error", fmt.Errorf("can't delete instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

func (s *Store) Summarize(ctx context.Context) ([]domain.GroupSummary, error) {
	query := fmt.Sprintf(`
		SELECT group_name, COUNT(*), MIN(created_at), MAX(updated_at)
		FROM %s GROUP BY group_name ORDER BY group_name
	`, s.tableName)
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, service.NewStoreUnavailableError("Postgres summary error", fmt.Errorf("can't aggregate groups, err: %w", err))
	}

	summaries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.GroupSummary, error) {
		var (
			summary domain.GroupSummary
			count   int64
		)
		err := row.Scan(&summary.Group, &count, &summary.EarliestCreated, &summary.LatestUpdated)
		summary.InstanceCount = int(count)
		summary.EarliestCreated = summary.EarliestCreated.UTC()
		summary.LatestUpdated = summary.LatestUpdated.UTC()
		return summary, err
	})
	if err != nil {
		return nil, service.NewStoreUnavailableError("Postgres summary error", fmt.Errorf("can't scan groups, err: %w", err))
	}
	if summaries == nil {
		summaries = []domain.GroupSummary{}
	}
	return summaries, nil
}

// DeleteOlderThan is a single DELETE. A row updated concurrently is re-evaluated against
// the condition after the update commits, so a refreshed instance is kept.
func (s *Store) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE updated_at < $1`, s.tableName)
	tag, err := s.pool.Exec(ctx, query, threshold.UTC())
	if err != nil {
		return 0, service.NewStoreUnavailableError("Postgres sweep error", fmt.Errorf("can't delete instances older than %s, err: %w", threshold.Format(time.RFC3339Nano), err))
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return service.NewStoreUnavailableError("Postgres ping error", fmt.Errorf("can't ping postgres, err: %w", err))
	}
	return nil
}

// Close releases the pool when the store opened it through Connect.
func (s *Store) Close(_ context.Context) error {
	if s.ownsPool {
		s.pool.Close()
	}
	return nil
}
