package service

import (
	"context"
	"time"

	"myregistry/helpers"
	"myregistry/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// Sweeper drives Registry.SweepExpired on a fixed interval, independent of request traffic.
//
// Sweeps run on the Run goroutine itself, so at most one is in flight; a sweep that outlasts
// the interval makes the ticker drop ticks instead of queueing them.
type Sweeper struct {
	registry interfaces.Registry
	interval time.Duration
	logger   log.Logger
}

// NewSweeper creates a Sweeper. Panics on nil registry or logger and on a non-positive interval.
func NewSweeper(registry interfaces.Registry, interval time.Duration, logger log.Logger) *Sweeper {
	return &Sweeper{
		registry: helpers.NilPanic(registry, "service.sweeper.go: registry is required"),
		interval: helpers.PositivePanic(interval, "service.sweeper.go: interval must be positive"),
		logger:   log.WithPrefix(helpers.NilPanic(logger, "service.sweeper.go: logger is required"), "component", "Sweeper"),
	}
}

// Run sweeps every interval until ctx is done. Cancelling ctx stops the ticker but never
// aborts a sweep in flight: each sweep gets a context detached from ctx, and Run returns
// only after it finishes.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	level.Info(s.logger).Log("msg", "Expiration sweeper started", "interval", s.interval)
	for {
		select {
		case <-ctx.Done():
			level.Info(s.logger).Log("msg", "Expiration sweeper stopped")
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			s.sweep(context.WithoutCancel(ctx))
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	// failures are logged by the registry; the next tick simply tries again
	if _, err := s.registry.SweepExpired(ctx); err != nil {
		level.Warn(s.logger).Log("msg", "Sweep failed, retrying on next tick", "err", err)
	}
}
