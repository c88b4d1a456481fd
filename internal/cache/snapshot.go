package cache

import (
	"context"
	"sync"
	"time"

	"chitieu/internal/sheets"

	"golang.org/x/sync/singleflight"
)

const snapshotKey = "transactions"

// sharedReadTimeout bounds a store read shared by several callers. It does
// not depend on any one caller's deadline.
const sharedReadTimeout = 30 * time.Second

// SnapshotCache keeps the last transaction snapshot read from a store for
// a TTL. Concurrent misses share one store read.
type SnapshotCache struct {
	reader sheets.TransactionReader
	lru    *LRUCache[sheets.Snapshot]
	group  singleflight.Group

	// mu orders Invalidate against storing a finished read. gen changes on
	// every Invalidate; reads started before it are not cached.
	mu  sync.Mutex
	gen uint64
}

var _ sheets.TransactionReader = (*SnapshotCache)(nil)

func NewSnapshotCache(reader sheets.TransactionReader, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{reader: reader, lru: NewLRUCache[sheets.Snapshot](1, ttl)}
}

func (s *SnapshotCache) FetchAll(ctx context.Context) (sheets.Snapshot, error) {
	snap, _, err := s.Fetch(ctx)
	return snap, err
}

// Fetch returns the cached snapshot or reads a fresh one. cached reports
// which happened. A caller whose ctx ends stops waiting; the shared read
// carries on for the others.
func (s *SnapshotCache) Fetch(ctx context.Context) (snap sheets.Snapshot, cached bool, err error) {
	if snap, ok := s.lru.Get(snapshotKey); ok {
		return snap, true, nil
	}
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()

	ch := s.group.DoChan(snapshotKey, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		snap, err := s.reader.FetchAll(rctx)
		if err != nil {
			return sheets.Snapshot{}, err
		}
		s.mu.Lock()
		if s.gen == gen {
			s.lru.Set(snapshotKey, snap)
		}
		s.mu.Unlock()
		return snap, nil
	})

	select {
	case <-ctx.Done():
		return sheets.Snapshot{}, false, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return sheets.Snapshot{}, false, res.Err
		}
		return res.Val.(sheets.Snapshot), false, nil
	}
}

// Invalidate drops the cached snapshot so the next read hits the store.
func (s *SnapshotCache) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen++
	s.group.Forget(snapshotKey)
	s.lru.Purge()
}

// CleanExpired lets a Manager clean the snapshot cache.
func (s *SnapshotCache) CleanExpired() int {
	return s.lru.CleanExpired()
}
