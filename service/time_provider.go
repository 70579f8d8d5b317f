package service

import (
	"time"

	"myregistry/helpers"
	"myregistry/interfaces"
)

// timeProvider implements interfaces.TimeProvider by calling the injected now func.
type timeProvider struct {
	now func() time.Time
}

// NewTimeProvider creates a TimeProvider backed by now. Panics on nil now.
//
// Built in cmd/registry with MillisecondUTC; tests pass a movable clock.
func NewTimeProvider(now func() time.Time) interfaces.TimeProvider {
	return &timeProvider{now: helpers.NilPanic(now, "service.time_provider.go: now is required")}
}

func (t *timeProvider) Now() time.Time {
	return t.now()
}

// MillisecondUTC is the production clock. Every backend keeps at least millisecond
// precision, so timestamps read back equal the ones written.
func MillisecondUTC() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
