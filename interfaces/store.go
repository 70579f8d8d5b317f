package interfaces

import (
	"context"
	"time"

	"myregistry/domain"
)

// Store is the durable mapping from (group, id) to domain.Instance.
// It is the single source of truth; nothing above it keeps records between calls.
//
//go:generate moq -stub -out mock/store.go -pkg mock . Store
type Store interface {
	// Upsert sets meta and updatedAt=now for (group, id); createdAt is set only when the record is created.
	// Atomic per key, implemented with the backend's native upsert primitive.
	// Returns:
	// 1) nil on success;
	// 2) store_unavailable when the backend cannot be reached.
	Upsert(ctx context.Context, group, id string, meta domain.Meta) error

	// ListByGroup returns all instances of the group ordered by updatedAt descending.
	// Returns:
	// 1) (items, nil), an empty non-nil slice for an unknown group;
	// 2) (nil, store_unavailable) when the backend cannot be reached.
	ListByGroup(ctx context.Context, group string) ([]domain.Instance, error)

	// Delete removes (group, id). Deleting an absent record is not an error.
	// Returns:
	// 1) nil on success or when nothing was deleted;
	// 2) store_unavailable when the backend cannot be reached.
	Delete(ctx context.Context, group, id string) error

	// Summarize aggregates every group that currently has at least one instance.
	// Returns:
	// 1) (summaries, nil) sorted by group name;
	// 2) (nil, store_unavailable) when the backend cannot be reached.
	Summarize(ctx context.Context) ([]domain.GroupSummary, error)

	// DeleteOlderThan removes every instance whose updatedAt is strictly before threshold.
	// The comparison is made per record at deletion time, so a record refreshed while the
	// sweep runs survives it.
	// Returns:
	// 1) (removed, nil) on success;
	// 2) (removedSoFar, store_unavailable) when the backend fails midway.
	DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases resources owned by the store.
	Close(ctx context.Context) error
}
