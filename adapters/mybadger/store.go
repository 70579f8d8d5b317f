// Package mybadger keeps the registry in an embedded Badger database, on disk or in memory.
// Suited to single-node deployments and local development.
package mybadger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"myregistry/domain"
	"myregistry/helpers"
	"myregistry/interfaces"
	"myregistry/service"

	badger "github.com/dgraph-io/badger/v4"
)

const (
	instancePrefix   = "instance:"
	sequenceKey      = "seq:writes"
	sequenceLease    = 1000
	defaultBatchSize = 500
	maxTxnAttempts   = 64
)

// record is the stored value. Timestamps are unix milliseconds; Seq orders writes that
// share a millisecond.
type record struct {
	Group     string      `json:"group"`
	ID        string      `json:"id"`
	CreatedAt int64       `json:"createdAt"`
	UpdatedAt int64       `json:"updatedAt"`
	Seq       uint64      `json:"seq"`
	Meta      domain.Meta `json:"meta"`
}

func (r record) instance() domain.Instance {
	meta := r.Meta
	if meta == nil {
		meta = domain.Meta{}
	}
	return domain.Instance{
		ID:        r.ID,
		Group:     r.Group,
		CreatedAt: time.UnixMilli(r.CreatedAt).UTC(),
		UpdatedAt: time.UnixMilli(r.UpdatedAt).UTC(),
		Meta:      meta,
	}
}

// StoreOption configures the Badger store.
type StoreOption func(*Store)

// WithBatchSize sets how many deletions DeleteOlderThan commits per transaction. Default: 500.
func WithBatchSize(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// Store is the Badger implementation of interfaces.Store.
type Store struct {
	db        *badger.DB
	seq       *badger.Sequence
	clock     interfaces.TimeProvider
	batchSize int
}

var _ interfaces.Store = (*Store)(nil)

// Open opens (or creates) the database at path. An empty path keeps everything in memory.
func Open(path string, clock interfaces.TimeProvider, opts ...StoreOption) (*Store, error) {
	var dbOpts badger.Options
	if path == "" {
		dbOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dbOpts = badger.DefaultOptions(filepath.Clean(path))
	}
	dbOpts.Logger = nil
	db, err := badger.Open(dbOpts)
	if err != nil {
		return nil, fmt.Errorf("can't open badger database at '%s': %w", path, err)
	}
	s, err := NewStore(db, clock, opts...)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// NewStore wraps an already opened database and leases its write sequence.
// Panics on nil db or clock.
func NewStore(db *badger.DB, clock interfaces.TimeProvider, opts ...StoreOption) (*Store, error) {
	s := &Store{
		db:        helpers.NilPanic(db, "mybadger.store.go: db is required"),
		clock:     helpers.NilPanic(clock, "mybadger.store.go: time provider is required"),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	seq, err := db.GetSequence([]byte(sequenceKey), sequenceLease)
	if err != nil {
		return nil, fmt.Errorf("can't lease write sequence: %w", err)
	}
	s.seq = seq
	return s, nil
}

func (s *Store) Upsert(ctx context.Context, group, id string, meta domain.Meta) error {
	key := instanceKey(group, id)
	err := s.update(ctx, func(txn *badger.Txn) error {
		seq, err := s.seq.Next()
		if err != nil {
			return err
		}
		now := s.clock.Now().UnixMilli()
		rec := record{Group: group, ID: id, CreatedAt: now, UpdatedAt: now, Seq: seq, Meta: meta}

		existing, found, err := getRecord(txn, key)
		if err != nil {
			return err
		}
		if found {
			rec.CreatedAt = existing.CreatedAt
		}

		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if err != nil {
		return service.NewStoreUnavailableError("Badger upsert error", fmt.Errorf("can't upsert instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

func (s *Store) ListByGroup(ctx context.Context, group string) ([]domain.Instance, error) {
	var records []record
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(ctx, txn, groupPrefix(group), func(rec record) {
			records = append(records, rec)
		})
	})
	if err != nil {
		return nil, service.NewStoreUnavailableError("Badger list error", fmt.Errorf("can't list instances (group='%s'), err: %w", group, err))
	}

	sort.Slice(records, func(i, j int) bool {
		if records[i].UpdatedAt != records[j].UpdatedAt {
			return records[i].UpdatedAt > records[j].UpdatedAt
		}
		return records[i].Seq > records[j].Seq
	})
	instances := make([]domain.Instance, 0, len(records))
	for _, rec := range records {
		instances = append(instances, rec.instance())
	}
	return instances, nil
}

func (s *Store) Delete(ctx context.Context, group, id string) error {
	key := instanceKey(group, id)
	err := s.update(ctx, func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
	if err != nil {
		return service.NewStoreUnavailableError("Badger delete error", fmt.Errorf("can't delete instance (group='%s', id='%s'), err: %w", group, id, err))
	}
	return nil
}

func (s *Store) Summarize(ctx context.Context) ([]domain.GroupSummary, error) {
	byGroup := map[string]*domain.GroupSummary{}
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(ctx, txn, []byte(instancePrefix), func(rec record) {
			created, updated := time.UnixMilli(rec.CreatedAt).UTC(), time.UnixMilli(rec.UpdatedAt).UTC()
			summary, ok := byGroup[rec.Group]
			if !ok {
				byGroup[rec.Group] = &domain.GroupSummary{Group: rec.Group, InstanceCount: 1, EarliestCreated: created, LatestUpdated: updated}
				return
			}
			summary.InstanceCount++
			if created.Before(summary.EarliestCreated) {
				summary.EarliestCreated = created
			}
			if updated.After(summary.LatestUpdated) {
				summary.LatestUpdated = updated
			}
		})
	})
	if err != nil {
		return nil, service.NewStoreUnavailableError("Badger summary error", fmt.Errorf("can't summarize instances, err: %w", err))
	}

	summaries := make([]domain.GroupSummary, 0, len(byGroup))
	for _, summary := range byGroup {
		summaries = append(summaries, *summary)
	}
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].Group < summaries[j].Group })
	return summaries, nil
}

// DeleteOlderThan collects candidates in a read transaction, then deletes them in batches.
// Each batch re-reads every candidate inside its write transaction, so an instance refreshed
// after the scan is kept; a refresh committed during the batch makes it conflict and retry.
func (s *Store) DeleteOlderThan(ctx context.Context, threshold time.Time) (int, error) {
	cutoff := threshold.UnixMilli()

	var candidates [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		return scan(ctx, txn, []byte(instancePrefix), func(rec record) {
			if rec.UpdatedAt < cutoff {
				candidates = append(candidates, instanceKey(rec.Group, rec.ID))
			}
		})
	})
	if err != nil {
		return 0, service.NewStoreUnavailableError("Badger sweep error", fmt.Errorf("can't scan for expired instances, err: %w", err))
	}

	removed := 0
	for start := 0; start < len(candidates); start += s.batchSize {
		batch := candidates[start:min(start+s.batchSize, len(candidates))]

		var deleted int
		err := s.update(ctx, func(txn *badger.Txn) error {
			deleted = 0
			for _, key := range batch {
				rec, found, err := getRecord(txn, key)
				if err != nil {
					return err
				}
				if !found || rec.UpdatedAt >= cutoff {
					continue
				}
				if err := txn.Delete(key); err != nil {
					return err
				}
				deleted++
			}
			return nil
		})
		if err != nil {
			return removed, service.NewStoreUnavailableError("Badger sweep error", fmt.Errorf("can't delete expired instances, err: %w", err))
		}
		removed += deleted
	}
	return removed, nil
}

func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return service.NewStoreUnavailableError("Badger ping error", errors.New("database is closed"))
	}
	return nil
}

func (s *Store) Close(_ context.Context) error {
	if s.db.IsClosed() {
		return nil
	}
	// hand the unused part of the lease back
	if err := s.seq.Release(); err != nil {
		_ = s.db.Close()
		return fmt.Errorf("can't release write sequence: %w", err)
	}
	return s.db.Close()
}

// update runs fn in a read-write transaction, retrying while it loses write conflicts.
func (s *Store) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < maxTxnAttempts; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return err
}

func getRecord(txn *badger.Txn, key []byte) (record, bool, error) {
	var rec record
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return rec, false, nil
	}
	if err != nil {
		return rec, false, err
	}
	err = item.Value(func(v []byte) error {
		return json.Unmarshal(v, &rec)
	})
	return rec, err == nil, err
}

func scan(ctx context.Context, txn *badger.Txn, prefix []byte, visit func(rec record)) error {
	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: true, PrefetchSize: 100, Prefix: prefix})
	defer it.Close()

	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		var rec record
		err := it.Item().Value(func(v []byte) error {
			return json.Unmarshal(v, &rec)
		})
		if err != nil {
			return fmt.Errorf("can't decode %q: %w", it.Item().Key(), err)
		}
		visit(rec)
	}
	return nil
}

// instanceKey length-prefixes the group so that group "a:b" with id "c" and group "a"
// with id "b:c" get different keys, and so groupPrefix never matches a longer group.
func instanceKey(group, id string) []byte {
	return append(groupPrefix(group), id...)
}

func groupPrefix(group string) []byte {
	return []byte(instancePrefix + strconv.Itoa(len(group)) + ":" + group + ":")
}
