// Package storetest holds the behavioural suite every interfaces.Store implementation runs,
// plus a movable clock for driving record timestamps from tests.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"myregistry/domain"
	"myregistry/interfaces"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

// Start is the time every Clock starts at.
var Start = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

// Clock is a concurrency-safe, manually advanced interfaces.TimeProvider.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a Clock set to Start.
func NewClock() *Clock {
	return &Clock{now: Start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Factory opens an empty store whose timestamps come from clock. The store is closed by the suite.
type Factory func(t *testing.T, clock interfaces.TimeProvider) interfaces.Store

// Run executes the full suite. Every subtest gets a fresh store and clock.
func Run(t *testing.T, open Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, store interfaces.Store, clock *Clock)
	}{
		{"UpsertKeepsOneRecordPerKey", testUpsertKeepsOneRecordPerKey},
		{"DeleteIsIdempotent", testDeleteIsIdempotent},
		{"GroupIsolation", testGroupIsolation},
		{"ListOrdersByUpdatedAtDesc", testListOrdersByUpdatedAtDesc},
		{"ListOrdersWritesWithinOneMillisecond", testListOrdersWritesWithinOneMillisecond},
		{"ListUnknownGroupIsEmpty", testListUnknownGroupIsEmpty},
		{"MetaKeepsLargeIntegers", testMetaKeepsLargeIntegers},
		{"SummarizeOmitsEmptyGroups", testSummarizeOmitsEmptyGroups},
		{"DeleteOlderThanIsStrict", testDeleteOlderThanIsStrict},
		{"DeleteOlderThanManyGroups", testDeleteOlderThanManyGroups},
		{"SweepNeverEvictsConcurrentRefresh", testSweepNeverEvictsConcurrentRefresh},
		{"ConcurrentUpsertsSameKey", testConcurrentUpsertsSameKey},
		{"RegisterUnregisterScenario", testRegisterUnregisterScenario},
		{"Ping", testPing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := NewClock()
			store := open(t, clock)
			t.Cleanup(func() { _ = store.Close(context.Background()) })
			tt.fn(t, store, clock)
		})
	}
}

func requireMetaJSON(t *testing.T, want string, got domain.Meta) {
	t.Helper()
	raw, err := json.Marshal(got)
	require.NoError(t, err)
	assert.JSONEq(t, want, string(raw))
}

func ids(instances []domain.Instance) []string {
	out := make([]string, 0, len(instances))
	for _, i := range instances {
		out = append(out, i.ID)
	}
	return out
}

func testUpsertKeepsOneRecordPerKey(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	first := clock.Now()
	require.NoError(t, store.Upsert(ctx, "svc", "i1", domain.Meta{"version": "1"}))

	second := clock.Advance(time.Second)
	require.NoError(t, store.Upsert(ctx, "svc", "i1", domain.Meta{"version": "2"}))

	got, err := store.ListByGroup(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i1", got[0].ID)
	assert.Equal(t, "svc", got[0].Group)
	requireMetaJSON(t, `{"version":"2"}`, got[0].Meta)
	assert.Equal(t, first.UnixMilli(), got[0].CreatedAt.UnixMilli())
	assert.Equal(t, second.UnixMilli(), got[0].UpdatedAt.UnixMilli())
}

func testDeleteIsIdempotent(t *testing.T, store interfaces.Store, _ *Clock) {
	ctx := context.Background()
	require.NoError(t, store.Delete(ctx, "svc", "never-registered"))

	require.NoError(t, store.Upsert(ctx, "svc", "i1", domain.Meta{}))
	require.NoError(t, store.Delete(ctx, "svc", "i1"))
	require.NoError(t, store.Delete(ctx, "svc", "i1"))

	got, err := store.ListByGroup(ctx, "svc")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testGroupIsolation(t *testing.T, store interfaces.Store, _ *Clock) {
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "g1", "a", domain.Meta{"in": "g1"}))
	require.NoError(t, store.Upsert(ctx, "g2", "a", domain.Meta{"in": "g2"}))

	require.NoError(t, store.Delete(ctx, "g1", "a"))

	g1, err := store.ListByGroup(ctx, "g1")
	require.NoError(t, err)
	assert.Empty(t, g1)

	g2, err := store.ListByGroup(ctx, "g2")
	require.NoError(t, err)
	require.Len(t, g2, 1)
	requireMetaJSON(t, `{"in":"g2"}`, g2[0].Meta)
}

func testListOrdersByUpdatedAtDesc(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "g", "id1", domain.Meta{}))
	clock.Advance(time.Second)
	require.NoError(t, store.Upsert(ctx, "g", "id2", domain.Meta{}))
	clock.Advance(time.Second)
	require.NoError(t, store.Upsert(ctx, "g", "id1", domain.Meta{}))

	got, err := store.ListByGroup(ctx, "g")
	require.NoError(t, err)
	assert.Equal(t, []string{"id1", "id2"}, ids(got))
}

// testListOrdersWritesWithinOneMillisecond never moves the clock: every write shares one
// updatedAt, so only the order of the writes can decide the listing.
func testListOrdersWritesWithinOneMillisecond(t *testing.T, store interfaces.Store, _ *Clock) {
	ctx := context.Background()
	steps := []struct {
		upsert string
		want   []string
	}{
		{upsert: "id1", want: []string{"id1"}},
		{upsert: "id2", want: []string{"id2", "id1"}},
		{upsert: "id1", want: []string{"id1", "id2"}},
		{upsert: "id3", want: []string{"id3", "id1", "id2"}},
		{upsert: "id2", want: []string{"id2", "id3", "id1"}},
	}
	for _, step := range steps {
		require.NoError(t, store.Upsert(ctx, "g", step.upsert, domain.Meta{}))

		got, err := store.ListByGroup(ctx, "g")
		require.NoError(t, err)
		require.Equal(t, step.want, ids(got), "after upserting %s", step.upsert)
		for _, instance := range got {
			assert.Equal(t, Start, instance.UpdatedAt)
		}
	}
}

func testMetaKeepsLargeIntegers(t *testing.T, store interfaces.Store, _ *Clock) {
	ctx := context.Background()
	meta := domain.Meta{
		"big":    json.Number("9007199254740993"),
		"nested": map[string]any{"min": json.Number("-9007199254740993")},
	}
	require.NoError(t, store.Upsert(ctx, "g", "id1", meta))

	got, err := store.ListByGroup(ctx, "g")
	require.NoError(t, err)
	require.Len(t, got, 1)
	raw, err := json.Marshal(got[0].Meta)
	require.NoError(t, err)
	// compared as text: float64 decoding would round both numbers
	assert.Equal(t, `{"big":9007199254740993,"nested":{"min":-9007199254740993}}`, string(raw))
}

func testListUnknownGroupIsEmpty(t *testing.T, store interfaces.Store, _ *Clock) {
	got, err := store.ListByGroup(context.Background(), "nobody-here")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func testSummarizeOmitsEmptyGroups(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	t0 := clock.Now()
	require.NoError(t, store.Upsert(ctx, "a", "1", domain.Meta{}))
	clock.Advance(time.Second)
	require.NoError(t, store.Upsert(ctx, "b", "1", domain.Meta{}))
	t2 := clock.Advance(time.Second)
	require.NoError(t, store.Upsert(ctx, "a", "2", domain.Meta{}))

	require.NoError(t, store.Delete(ctx, "b", "1"))

	got, err := store.Summarize(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Group)
	assert.Equal(t, 2, got[0].InstanceCount)
	assert.Equal(t, t0.UnixMilli(), got[0].EarliestCreated.UnixMilli())
	assert.Equal(t, t2.UnixMilli(), got[0].LatestUpdated.UnixMilli())

	require.NoError(t, store.Delete(ctx, "a", "1"))
	require.NoError(t, store.Delete(ctx, "a", "2"))
	got, err = store.Summarize(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func testDeleteOlderThanIsStrict(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	now := Start.Add(2 * time.Hour)

	clock.Set(now.Add(-61 * time.Minute))
	require.NoError(t, store.Upsert(ctx, "svc", "stale", domain.Meta{}))
	clock.Set(now.Add(-60 * time.Minute))
	require.NoError(t, store.Upsert(ctx, "svc", "boundary", domain.Meta{}))
	clock.Set(now.Add(-59 * time.Minute))
	require.NoError(t, store.Upsert(ctx, "svc", "fresh", domain.Meta{}))

	removed, err := store.DeleteOlderThan(ctx, now.Add(-60*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	got, err := store.ListByGroup(ctx, "svc")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"boundary", "fresh"}, ids(got))

	removed, err = store.DeleteOlderThan(ctx, now.Add(-60*time.Minute))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func testDeleteOlderThanManyGroups(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	const groups, perGroup = 6, 120

	for g := 0; g < groups; g++ {
		for i := 0; i < perGroup; i++ {
			require.NoError(t, store.Upsert(ctx, fmt.Sprintf("group-%d", g), fmt.Sprintf("id-%d", i), domain.Meta{"i": i}))
		}
	}
	clock.Advance(time.Minute)
	require.NoError(t, store.Upsert(ctx, "group-0", "survivor", domain.Meta{}))

	removed, err := store.DeleteOlderThan(ctx, clock.Now())
	require.NoError(t, err)
	assert.Equal(t, groups*perGroup, removed)

	summary, err := store.Summarize(ctx)
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "group-0", summary[0].Group)
	assert.Equal(t, 1, summary[0].InstanceCount)
}

// A refresh racing a sweep must leave the record in place whichever runs first.
func testSweepNeverEvictsConcurrentRefresh(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	const rounds = 25

	for round := 0; round < rounds; round++ {
		id := fmt.Sprintf("racer-%d", round)
		require.NoError(t, store.Upsert(ctx, "race", id, domain.Meta{}))
		threshold := clock.Advance(time.Hour)

		var g errgroup.Group
		g.Go(func() error {
			_, err := store.DeleteOlderThan(ctx, threshold)
			return err
		})
		g.Go(func() error {
			return store.Upsert(ctx, "race", id, domain.Meta{"refreshed": true})
		})
		require.NoError(t, g.Wait())

		got, err := store.ListByGroup(ctx, "race")
		require.NoError(t, err)
		require.Contains(t, ids(got), id, "round %d: refreshed record was evicted", round)
	}
}

func testConcurrentUpsertsSameKey(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	created := clock.Now()
	require.NoError(t, store.Upsert(ctx, "svc", "hot", domain.Meta{"writer": -1}))
	clock.Advance(time.Second)

	var g errgroup.Group
	for w := 0; w < 16; w++ {
		g.Go(func() error {
			return store.Upsert(ctx, "svc", "hot", domain.Meta{"writer": w})
		})
	}
	require.NoError(t, g.Wait())

	got, err := store.ListByGroup(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, created.UnixMilli(), got[0].CreatedAt.UnixMilli())
	assert.NotEqual(t, float64(-1), toFloat(got[0].Meta["writer"]))
}

func testRegisterUnregisterScenario(t *testing.T, store interfaces.Store, clock *Clock) {
	ctx := context.Background()
	at := clock.Now()
	require.NoError(t, store.Upsert(ctx, "svc", "i1", domain.Meta{"port": 8080}))

	got, err := store.ListByGroup(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "i1", got[0].ID)
	assert.Equal(t, "svc", got[0].Group)
	requireMetaJSON(t, `{"port":8080}`, got[0].Meta)
	assert.Equal(t, at.UnixMilli(), got[0].CreatedAt.UnixMilli())
	assert.Equal(t, at.UnixMilli(), got[0].UpdatedAt.UnixMilli())

	require.NoError(t, store.Delete(ctx, "svc", "i1"))

	got, err = store.ListByGroup(ctx, "svc")
	require.NoError(t, err)
	assert.Empty(t, got)

	summary, err := store.Summarize(ctx)
	require.NoError(t, err)
	for _, s := range summary {
		assert.NotEqual(t, "svc", s.Group)
	}
}

func testPing(t *testing.T, store interfaces.Store, _ *Clock) {
	require.NoError(t, store.Ping(context.Background()))
}

// toFloat normalises numbers decoded by different backends (float64, int32, int64).
func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int32:
		return float64(n)
	case int64:
		return float64(n)
	case json.Number:
		f, _ := n.Float64()
		return f
	default:
		return 0
	}
}
