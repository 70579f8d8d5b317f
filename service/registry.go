package service

import (
	"context"
	"time"

	"myregistry/domain"
	"myregistry/helpers"
	"myregistry/interfaces"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
)

// DefaultExpiration is how long an instance may stay silent before a sweep removes it.
const DefaultExpiration = 60 * time.Minute

// RegistryOption configures the registry service.
type RegistryOption func(*registry)

// WithExpiration sets the staleness window used by SweepExpired. Default: 60 minutes.
func WithExpiration(d time.Duration) RegistryOption {
	return func(r *registry) {
		r.expiration = d
	}
}

// WithStoreTimeout bounds every store call. A call that runs out of time fails with
// store_unavailable. Zero means no bound.
func WithStoreTimeout(d time.Duration) RegistryOption {
	return func(r *registry) {
		r.storeTimeout = d
	}
}

// WithSweepTimeout bounds a whole SweepExpired call. Zero, the default, means no bound
// beyond the caller's context. The store timeout does not apply to sweeps: a batched sweep
// cut short would leave part of the expired instances in place.
func WithSweepTimeout(d time.Duration) RegistryOption {
	return func(r *registry) {
		r.sweepTimeout = d
	}
}

// WithMetrics records registrations, sweeps and store failures.
func WithMetrics(m *Metrics) RegistryOption {
	return func(r *registry) {
		r.metrics = m
	}
}

// registry implements interfaces.Registry on top of an interfaces.Store.
// It keeps no records of its own; every call goes to the store.
type registry struct {
	store        interfaces.Store
	clock        interfaces.TimeProvider
	logger       log.Logger
	expiration   time.Duration
	storeTimeout time.Duration
	sweepTimeout time.Duration
	metrics      *Metrics
}

// NewRegistry creates the registry service. Panics on nil store, clock or logger, and on a
// non-positive expiration window.
func NewRegistry(store interfaces.Store, clock interfaces.TimeProvider, logger log.Logger, opts ...RegistryOption) interfaces.Registry {
	r := &registry{
		store:      helpers.NilPanic(store, "service.registry.go: store is required"),
		clock:      helpers.NilPanic(clock, "service.registry.go: time provider is required"),
		logger:     log.WithPrefix(helpers.NilPanic(logger, "service.registry.go: logger is required"), "component", "Registry"),
		expiration: DefaultExpiration,
	}
	for _, opt := range opts {
		opt(r)
	}
	helpers.PositivePanic(r.expiration, "service.registry.go: expiration must be positive")
	return r
}

func (r *registry) Register(ctx context.Context, group, id string, meta domain.Meta) ([]domain.Instance, error) {
	if err := validateKey(group, id); err != nil {
		return nil, err
	}
	if meta == nil {
		meta = domain.Meta{}
	}

	err := r.withStore(ctx, "upsert", func(ctx context.Context) error {
		return r.store.Upsert(ctx, group, id, meta)
	})
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to register client", "group", group, "id", id, "err", err)
		return nil, err
	}
	r.metrics.registered()
	level.Info(r.logger).Log("msg", "Client registered or updated", "group", group, "id", id)

	var instances []domain.Instance
	err = r.withStore(ctx, "list_by_group", func(ctx context.Context) (err error) {
		instances, err = r.store.ListByGroup(ctx, group)
		return err
	})
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to list group after registration", "group", group, "id", id, "err", err)
		return nil, err
	}
	return instances, nil
}

func (r *registry) Unregister(ctx context.Context, group, id string) error {
	if err := validateKey(group, id); err != nil {
		return err
	}

	err := r.withStore(ctx, "delete", func(ctx context.Context) error {
		return r.store.Delete(ctx, group, id)
	})
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to unregister client", "group", group, "id", id, "err", err)
		return err
	}
	r.metrics.unregistered()
	level.Info(r.logger).Log("msg", "Client unregistered", "group", group, "id", id)
	return nil
}

func (r *registry) Summary(ctx context.Context) ([]domain.GroupSummary, error) {
	var summaries []domain.GroupSummary
	err := r.withStore(ctx, "summarize", func(ctx context.Context) (err error) {
		summaries, err = r.store.Summarize(ctx)
		return err
	})
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to summarize clients", "err", err)
		return nil, err
	}
	return summaries, nil
}

func (r *registry) Details(ctx context.Context, group string) ([]domain.Instance, error) {
	if group == "" {
		return nil, NewBadParameterError("group is required", nil)
	}

	var instances []domain.Instance
	err := r.withStore(ctx, "list_by_group", func(ctx context.Context) (err error) {
		instances, err = r.store.ListByGroup(ctx, group)
		return err
	})
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to list clients", "group", group, "err", err)
		return nil, err
	}
	return instances, nil
}

// SweepExpired deletes every instance whose updatedAt is older than now minus the expiration window.
// The threshold is fixed when the sweep starts; whether a record is stale is decided by the
// store at the moment it deletes it.
func (r *registry) SweepExpired(ctx context.Context) (int, error) {
	started := time.Now()
	threshold := r.clock.Now().Add(-r.expiration)

	var removed int
	err := r.withTimeout(ctx, "delete_older_than", r.sweepTimeout, func(ctx context.Context) (err error) {
		removed, err = r.store.DeleteOlderThan(ctx, threshold)
		return err
	})
	r.metrics.swept(removed, time.Since(started))
	if err != nil {
		level.Error(r.logger).Log("msg", "Failed to remove expired clients", "threshold", threshold, "removed", removed, "err", err)
		return removed, err
	}

	level.Info(r.logger).Log("msg", "Expired clients removed", "threshold", threshold, "removed", removed)
	return removed, nil
}

// withStore runs one store call under the store timeout and counts its failure.
func (r *registry) withStore(ctx context.Context, operation string, call func(ctx context.Context) error) error {
	return r.withTimeout(ctx, operation, r.storeTimeout, call)
}

// withTimeout runs call bounded by timeout, zero meaning unbounded. A timed-out call that
// the adapter did not classify is reported as store_unavailable.
func (r *registry) withTimeout(ctx context.Context, operation string, timeout time.Duration, call func(ctx context.Context) error) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := call(ctx)
	if err == nil {
		return nil
	}
	r.metrics.storeFailed(operation)
	if ToMyError(err) == nil && ctx.Err() != nil {
		return NewStoreUnavailableError("store operation timed out", err)
	}
	return err
}

func validateKey(group, id string) error {
	if group == "" {
		return NewBadParameterError("group is required", nil)
	}
	if id == "" {
		return NewBadParameterError("id is required", nil)
	}
	return nil
}
