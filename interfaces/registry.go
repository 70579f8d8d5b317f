package interfaces

import (
	"context"

	"myregistry/domain"
)

// Registry is the externally visible registry: registration, queries and the expiration sweep.
//
// Implemented by service.registry. Called from handlers.HTTPServer and service.Sweeper.
//
//go:generate moq -stub -out mock/registry.go -pkg mock . Registry
type Registry interface {
	// Register upserts (group, id) and returns the group's instances, most recently updated first.
	Register(ctx context.Context, group, id string, meta domain.Meta) ([]domain.Instance, error)

	// Unregister removes (group, id). Removing an absent instance succeeds.
	Unregister(ctx context.Context, group, id string) error

	// Summary returns one entry per non-empty group.
	Summary(ctx context.Context) ([]domain.GroupSummary, error)

	// Details returns the group's instances, most recently updated first; empty for unknown groups.
	Details(ctx context.Context, group string) ([]domain.Instance, error)

	// SweepExpired removes instances idle longer than the expiration window and returns how many were removed.
	// Safe to call repeatedly and concurrently with itself.
	SweepExpired(ctx context.Context) (int, error)
}
