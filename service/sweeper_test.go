package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"myregistry/interfaces/mock"

	"github.com/go-kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSweeper_Panics(t *testing.T) {
	registry := &mock.RegistryMock{}
	logger := log.NewNopLogger()

	t.Run("registry_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.sweeper.go: registry is required", func() {
			NewSweeper(nil, time.Second, logger)
		})
	})
	t.Run("interval_zero", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.sweeper.go: interval must be positive", func() {
			NewSweeper(registry, 0, logger)
		})
	})
	t.Run("logger_nil", func(t *testing.T) {
		assert.PanicsWithValue(t, "service.sweeper.go: logger is required", func() {
			NewSweeper(registry, time.Second, nil)
		})
	})
}

func TestSweeper_RunsOnEveryTick(t *testing.T) {
	var sweeps atomic.Int32
	registry := &mock.RegistryMock{
		SweepExpiredFunc: func(ctx context.Context) (int, error) {
			sweeps.Add(1)
			return 0, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewSweeper(registry, 5*time.Millisecond, log.NewNopLogger()).Run(ctx) }()

	require.Eventually(t, func() bool { return sweeps.Load() >= 3 }, time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
}

func TestSweeper_NeverOverlaps(t *testing.T) {
	var inFlight, maxInFlight, sweeps atomic.Int32
	registry := &mock.RegistryMock{
		SweepExpiredFunc: func(ctx context.Context) (int, error) {
			n := inFlight.Add(1)
			for {
				m := maxInFlight.Load()
				if n <= m || maxInFlight.CompareAndSwap(m, n) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond) // four intervals
			inFlight.Add(-1)
			sweeps.Add(1)
			return 0, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewSweeper(registry, 5*time.Millisecond, log.NewNopLogger()).Run(ctx) }()

	require.Eventually(t, func() bool { return sweeps.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestSweeper_StopLetsSweepInFlightFinish(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var sweepCtxErr atomic.Value
	var calls atomic.Int32

	registry := &mock.RegistryMock{
		SweepExpiredFunc: func(ctx context.Context) (int, error) {
			if calls.Add(1) > 1 {
				return 0, nil
			}
			close(started)
			<-release
			if err := ctx.Err(); err != nil {
				sweepCtxErr.Store(err)
			}
			return 7, nil
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewSweeper(registry, 5*time.Millisecond, log.NewNopLogger()).Run(ctx) }()

	<-started
	cancel()

	select {
	case <-done:
		t.Fatal("Run returned while a sweep was still running")
	case <-time.After(30 * time.Millisecond):
	}

	close(release)
	require.NoError(t, <-done)
	assert.Nil(t, sweepCtxErr.Load(), "sweep context must not be cancelled by shutdown")
}

func TestSweeper_FailureDoesNotStopTicking(t *testing.T) {
	var sweeps atomic.Int32
	registry := &mock.RegistryMock{
		SweepExpiredFunc: func(ctx context.Context) (int, error) {
			sweeps.Add(1)
			return 0, NewStoreUnavailableError("down", nil)
		},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = NewSweeper(registry, 5*time.Millisecond, log.NewNopLogger()).Run(ctx) }()

	require.Eventually(t, func() bool { return sweeps.Load() >= 2 }, time.Second, time.Millisecond)
}
