package mybadger

import (
	"context"
	"testing"

	"myregistry/adapters/storetest"
	"myregistry/domain"
	"myregistry/interfaces"
	"myregistry/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Suite(t *testing.T) {
	storetest.Run(t, func(t *testing.T, clock interfaces.TimeProvider) interfaces.Store {
		store, err := Open("", clock, WithBatchSize(64))
		require.NoError(t, err)
		return store
	})
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	clock := storetest.NewClock()

	store, err := Open(dir, clock)
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "svc", "i1", domain.Meta{"zone": "eu"}))
	require.NoError(t, store.Close(ctx))

	reopened, err := Open(dir, clock)
	require.NoError(t, err)
	defer reopened.Close(ctx)

	got, err := reopened.ListByGroup(ctx, "svc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "eu", got[0].Meta["zone"])
	assert.Equal(t, storetest.Start, got[0].CreatedAt)
}

func TestStore_GroupPrefixDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	store, err := Open("", storetest.NewClock())
	require.NoError(t, err)
	defer store.Close(ctx)

	require.NoError(t, store.Upsert(ctx, "a:b", "c", domain.Meta{}))
	require.NoError(t, store.Upsert(ctx, "a", "b:c", domain.Meta{}))
	require.NoError(t, store.Upsert(ctx, "ab", "c", domain.Meta{}))

	got, err := store.ListByGroup(ctx, "a")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b:c", got[0].ID)
}

func TestStore_Closed(t *testing.T) {
	ctx := context.Background()
	store, err := Open("", storetest.NewClock())
	require.NoError(t, err)
	require.NoError(t, store.Close(ctx))
	require.NoError(t, store.Close(ctx))

	assert.True(t, service.IsStoreUnavailableError(store.Ping(ctx)))
}

func TestStore_CancelledContext(t *testing.T) {
	store, err := Open("", storetest.NewClock())
	require.NoError(t, err)
	defer store.Close(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = store.Upsert(ctx, "svc", "i1", domain.Meta{})
	assert.True(t, service.IsStoreUnavailableError(err))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewStore_Panics(t *testing.T) {
	assert.PanicsWithValue(t, "mybadger.store.go: db is required", func() {
		_, _ = NewStore(nil, storetest.NewClock())
	})
}
