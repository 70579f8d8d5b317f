package interfaces

import "time"

// TimeProvider supplies "now" for record timestamps and for the expiration threshold.
// Injected so tests can move the clock instead of sleeping.
//
// Constructed in cmd/registry as service.NewTimeProvider(service.MillisecondUTC).
//
//go:generate moq -stub -out mock/time_provider.go -pkg mock . TimeProvider
type TimeProvider interface {
	// Now returns the current time (UTC, millisecond precision in prod).
	Now() time.Time
}
