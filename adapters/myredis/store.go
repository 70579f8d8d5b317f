package myredis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"myregistry/domain"
	"myregistry/helpers"
	"myregistry/interfaces"
	"myregistry/service"

	"github.com/go-redis/redis/v8"
)

const (
	defaultKeyPrefix = "registry"
	defaultBatchSize = 500
)

// Every key shares the {prefix} hash tag, so all of them land in one cluster slot and the
// scripts below may touch keys they derive at runtime.
//
//	{p}:instance:<len(group)>:<group>:<id>  hash   group, id, createdAt, updatedAt (unix ms), seq, meta (JSON)
//	{p}:updated:<group>                     zset   id -> updatedAt
//	{p}:created:<group>                     zset   id -> createdAt
//	{p}:expiry                              zset   instance key -> updatedAt
//	{p}:groups                              set    groups with at least one instance
//	{p}:seq                                 string write counter, orders writes within one millisecond

// KEYS: record, updated, created, expiry, groups, seq. ARGV: group, id, now, meta.
var upsertScript = redis.NewScript(`
local created = redis.call('HGET', KEYS[1], 'createdAt')
if not created then
  created = ARGV[3]
  redis.call('ZADD', KEYS[3], created, ARGV[2])
end
local seq = redis.call('INCR', KEYS[6])
redis.call('HSET', KEYS[1], 'group', ARGV[1], 'id', ARGV[2], 'createdAt', created, 'updatedAt', ARGV[3], 'seq', seq, 'meta', ARGV[4])
redis.call('ZADD', KEYS[2], ARGV[3], ARGV[2])
redis.call('ZADD', KEYS[4], ARGV[3], KEYS[1])
redis.call('SADD', KEYS[5], ARGV[1])
return created
`)

// KEYS: record, updated, created, expiry, groups. ARGV: group, id.
var deleteScript = redis.NewScript(`
local removed = redis.call('DEL', KEYS[1])
redis.call('ZREM', KEYS[2], ARGV[2])
redis.call('ZREM', KEYS[3], ARGV[2])
redis.call('ZREM', KEYS[4], KEYS[1])
if redis.call('ZCARD', KEYS[2]) == 0 then
  redis.call('SREM', KEYS[5], ARGV[1])
end
return removed
`)

// KEYS: expiry, groups. ARGV: threshold, batch size, key prefix.
// Staleness is evaluated inside the script, so a refresh that lands first moves the record
// out of range and a refresh that lands later simply recreates it.
var sweepScript = redis.NewScript(`
local stale = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', '(' .. ARGV[1], 'LIMIT', 0, tonumber(ARGV[2]))
for _, rec in ipairs(stale) do
  local fields = redis.call('HMGET', rec, 'group', 'id')
  local group, id = fields[1], fields[2]
  redis.call('DEL', rec)
  redis.call('ZREM', KEYS[1], rec)
  if group and id then
    local updated = ARGV[3] .. ':updated:' .. group
    redis.call('ZREM', updated, id)
    redis.call('ZREM', ARGV[3] .. ':created:' .. group, id)
    if redis.call('ZCARD', updated) == 0 then
      redis.call('SREM', KEYS[2], group)
    end
  end
end
return #stale
`)

// StoreOption configures the Redis store.
type StoreOption func(*Store)

// WithKeyPrefix sets the namespace all keys live under. Default: "registry".
func WithKeyPrefix(prefix string) StoreOption {
	return func(s *Store) {
		if prefix != "" {
			s.prefix = "{" + prefix + "}"
		}
	}
}

// WithBatchSize sets how many stale instances a single sweep script removes. Default: 500.
func WithBatchSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Store is the Redis implementation of interfaces.Store.
type Store struct {
	client    redis.UniversalClient
	clock     interfaces.TimeProvider
	prefix    string
	batchSize int
}

var _ interfaces.Store = (*Store)(nil)

// NewStore creates a Redis-backed store. Panics on nil client or clock.
func NewStore(client redis.UniversalClient, clock interfaces.TimeProvider, opts ...StoreOption) *Store {
	s := &Store{
		client:    helpers.NilPanic(client, "myredis.store.go: client is required"),
		clock:     helpers.NilPanic(clock, "myredis.store.go: time provider is required"),
		prefix:    "{" + defaultKeyPrefix + "}",
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Upsert(ctx context.Context, group, id string, meta domain.Meta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return service.NewBadParameterError("meta must be a JSON object", fmt.Errorf("can't marshal meta (group='%s', id='%s'), err: %w", group, id, err))
	}

	now := s.clock.Now().UnixMilli()
	keys := append(s.keys(group, id), s.seqKey())
	err = upsertScript.Run(ctx, s.client, keys, group, id, now, raw).Err()
	if err != nil {
		return service.NewStoreUnavailableError("Redis upsert error", fmt.Errorf("can't upsert instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

func (s *Store) ListByGroup(ctx context.Context, group string) ([]domain.Instance, error) {
	ids, err := s.client.ZRevRange(ctx, s.updatedKey(group), 0, -1).Result()
	if err != nil {
		return nil, service.NewStoreUnavailableError("Redis list error", fmt.Errorf("can't read group index (group='%s'), err: %w", group, err))
	}

	if len(ids) == 0 {
		return []domain.Instance{}, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.StringStringMapCmd, 0, len(ids))
	for _, id := range ids {
		cmds = append(cmds, pipe.HGetAll(ctx, s.recordKey(group, id)))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, service.NewStoreUnavailableError("Redis list error", fmt.Errorf("can't read instances (group='%s'), err: %w", group, err))
	}

	records := make([]record, 0, len(ids))
	for _, cmd := range cmds {
		fields := cmd.Val()
		// removed between the index read and the pipeline
		if len(fields) == 0 {
			continue
		}
		rec, err := decodeRecord(fields)
		if err != nil {
			return nil, service.NewInternalServerError("Redis decode error", fmt.Errorf("can't decode instance (group='%s'), err: %w", group, err))
		}
		records = append(records, rec)
	}
	sort.Slice(records, func(i, j int) bool {
		if !records[i].UpdatedAt.Equal(records[j].UpdatedAt) {
			return records[i].UpdatedAt.After(records[j].UpdatedAt)
		}
		return records[i].seq > records[j].seq
	})

	instances := make([]domain.Instance, 0, len(records))
	for _, rec := range records {
		instances = append(instances, rec.Instance)
	}
	return instances, nil
}

func (s *Store) Delete(ctx context.Context, group, id string) error {
	err := deleteScript.Run(ctx, s.client, s.keys(group, id), group, id).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return service.NewStoreUnavailableError("Redis delete error", fmt.Errorf("can't delete instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

func (s *Store) Summarize(ctx context.Context) ([]domain.GroupSummary, error) {
	groups, err := s.client.SMembers(ctx, s.groupsKey()).Result()
	if err != nil {
		return nil, service.NewStoreUnavailableError("Redis summary error", fmt.Errorf("can't read groups, err: %w", err))
	}
	sort.Strings(groups)

	type groupCmds struct {
		count    *redis.IntCmd
		earliest *redis.ZSliceCmd
		latest   *redis.ZSliceCmd
	}
	pipe := s.client.Pipeline()
	cmds := make([]groupCmds, 0, len(groups))
	for _, group := range groups {
		cmds = append(cmds, groupCmds{
			count:    pipe.ZCard(ctx, s.updatedKey(group)),
			earliest: pipe.ZRangeWithScores(ctx, s.createdKey(group), 0, 0),
			latest:   pipe.ZRevRangeWithScores(ctx, s.updatedKey(group), 0, 0),
		})
	}
	if len(groups) > 0 {
		if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
			return nil, service.NewStoreUnavailableError("Redis summary error", fmt.Errorf("can't read group indexes, err: %w", err))
		}
	}

	summaries := make([]domain.GroupSummary, 0, len(groups))
	for i, group := range groups {
		count := cmds[i].count.Val()
		earliest, latest := cmds[i].earliest.Val(), cmds[i].latest.Val()
		if count == 0 || len(earliest) == 0 || len(latest) == 0 {
			continue
		}
		summaries = append(summaries, domain.GroupSummary{
			Group:           group,
			InstanceCount:   int(count),
			EarliestCreated: fromMillis(int64(earliest[0].Score)),
			LatestUpdated:   fromMillis(int64(latest[0].Score)),
		})
	}
	return summaries, nil
}

// DeleteOlderThan runs the sweep script in batches until a batch comes back short.
// On failure the count removed by earlier batches is returned with the error.
func (s *Store) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	keys := []string{s.expiryKey(), s.groupsKey()}
	removed := 0
	for {
		n, err := sweepScript.Run(ctx, s.client, keys, threshold.UnixMilli(), s.batchSize, s.prefix).Int()
		if err != nil {
			return removed, service.NewStoreUnavailableError("Redis sweep error", fmt.Errorf("can't delete instances older than %s, err: %w", threshold.Format(time.RFC3339Nano), err))
		}
		removed += n
		if n < s.batchSize {
			return removed, nil
		}
	}
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return service.NewStoreUnavailableError("Redis ping error", fmt.Errorf("can't ping redis, err: %w", err))
	}
	return nil
}

func (s *Store) Close(_ context.Context) error {
	return s.client.Close()
}

func (s *Store) keys(group, id string) []string {
	return []string{s.recordKey(group, id), s.updatedKey(group), s.createdKey(group), s.expiryKey(), s.groupsKey()}
}

// recordKey length-prefixes the group so that ':' inside group or id cannot collide.
func (s *Store) recordKey(group, id string) string {
	return fmt.Sprintf("%s:instance:%d:%s:%s", s.prefix, len(group), group, id)
}

func (s *Store) updatedKey(group string) string { return s.prefix + ":updated:" + group }
func (s *Store) createdKey(group string) string { return s.prefix + ":created:" + group }
func (s *Store) expiryKey() string              { return s.prefix + ":expiry" }
func (s *Store) groupsKey() string              { return s.prefix + ":groups" }
func (s *Store) seqKey() string                 { return s.prefix + ":seq" }

// record is an instance plus the write sequence that breaks updatedAt ties.
type record struct {
	domain.Instance
	seq int64
}

func decodeRecord(fields map[string]string) (record, error) {
	createdAt, err := strconv.ParseInt(fields["createdAt"], 10, 64)
	if err != nil {
		return record{}, fmt.Errorf("createdAt: %w", err)
	}
	updatedAt, err := strconv.ParseInt(fields["updatedAt"], 10, 64)
	if err != nil {
		return record{}, fmt.Errorf("updatedAt: %w", err)
	}
	var seq int64
	if raw := fields["seq"]; raw != "" {
		if seq, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return record{}, fmt.Errorf("seq: %w", err)
		}
	}
	meta, err := domain.DecodeMeta([]byte(fields["meta"]))
	if err != nil {
		return record{}, fmt.Errorf("meta: %w", err)
	}
	return record{
		Instance: domain.Instance{
			ID:        fields["id"],
			Group:     fields["group"],
			CreatedAt: fromMillis(createdAt),
			UpdatedAt: fromMillis(updatedAt),
			Meta:      meta,
		},
		seq: seq,
	}, nil
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
