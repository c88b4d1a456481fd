package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"chitieu/internal/core"
	"chitieu/internal/sheets"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLRUCacheTTLAndEviction(t *testing.T) {
	clk := &clock{t: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewLRUCache[int](2, time.Minute)
	c.now = clk.now

	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok { // a becomes most recent
		t.Fatal("a missing")
	}
	c.Set("c", 3) // evicts b
	if _, ok := c.Get("b"); ok {
		t.Fatal("b should be evicted")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d", c.Size())
	}

	clk.advance(time.Minute)
	if _, ok := c.Get("a"); ok {
		t.Fatal("a should have expired")
	}
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("cleaned %d, want 1", n)
	}
	if c.Size() != 0 {
		t.Fatalf("size = %d", c.Size())
	}
}

func TestLRUCacheZeroTTLDisables(t *testing.T) {
	c := NewLRUCache[string](4, 0)
	c.Set("k", "v")
	if _, ok := c.Get("k"); ok {
		t.Fatal("zero TTL should not cache")
	}
}

func TestLRUCacheDeleteAndPurge(t *testing.T) {
	c := NewLRUCache[int](4, time.Hour)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Fatal("a not deleted")
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatal("purge left entries")
	}
}

func TestManagerCleansRegistered(t *testing.T) {
	clk := &clock{t: time.Now()}
	c := NewLRUCache[int](4, time.Second)
	c.now = clk.now
	c.Set("a", 1)
	clk.advance(2 * time.Second)

	m := NewManager()
	m.Register(c)
	if n := m.CleanAll(); n != 1 {
		t.Fatalf("cleaned %d", n)
	}
	m.StartCleanup(time.Millisecond)
	m.Stop()
	m.Stop() // idempotent
}

type countingReader struct {
	calls atomic.Int32
	delay time.Duration
	err   error
}

func (r *countingReader) FetchAll(context.Context) (sheets.Snapshot, error) {
	n := r.calls.Add(1)
	time.Sleep(r.delay)
	if r.err != nil {
		return sheets.Snapshot{}, r.err
	}
	return sheets.Snapshot{
		Transactions: []core.Transaction{{Date: core.NewDate(2024, 5, 1), Category: "Food", Amount: core.Money{Units: int64(n)}}},
		FetchedAt:    time.Now(),
	}, nil
}

func TestSnapshotCacheHitAndInvalidate(t *testing.T) {
	r := &countingReader{}
	c := NewSnapshotCache(r, time.Minute)
	ctx := context.Background()

	_, cached, err := c.Fetch(ctx)
	if err != nil || cached {
		t.Fatalf("first fetch cached=%v err=%v", cached, err)
	}
	snap, cached, _ := c.Fetch(ctx)
	if !cached || r.calls.Load() != 1 || snap.Transactions[0].Amount.Units != 1 {
		t.Fatalf("second fetch cached=%v calls=%d", cached, r.calls.Load())
	}

	c.Invalidate()
	snap, err = c.FetchAll(ctx)
	if err != nil || r.calls.Load() != 2 || snap.Transactions[0].Amount.Units != 2 {
		t.Fatalf("after invalidate calls=%d err=%v", r.calls.Load(), err)
	}
}

func TestSnapshotCacheSharesConcurrentMisses(t *testing.T) {
	r := &countingReader{delay: 50 * time.Millisecond}
	c := NewSnapshotCache(r, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := c.FetchAll(context.Background()); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	if n := r.calls.Load(); n != 1 {
		t.Fatalf("store read %d times, want 1", n)
	}
}

// blockingReader holds every read until release is closed or the read's
// context ends.
type blockingReader struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (r *blockingReader) FetchAll(ctx context.Context) (sheets.Snapshot, error) {
	r.once.Do(func() { close(r.started) })
	select {
	case <-r.release:
		return sheets.Snapshot{Transactions: []core.Transaction{{Date: core.NewDate(2024, 5, 1), Category: "Food", Amount: core.Money{Units: 7}}}}, nil
	case <-ctx.Done():
		return sheets.Snapshot{}, ctx.Err()
	}
}

func TestSnapshotCacheCancelledCallerDoesNotFailOthers(t *testing.T) {
	r := &blockingReader{started: make(chan struct{}), release: make(chan struct{})}
	c := NewSnapshotCache(r, time.Minute)

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.FetchAll(ctxA)
		errA <- err
	}()
	<-r.started

	errB := make(chan error, 1)
	go func() {
		snap, err := c.FetchAll(context.Background())
		if err == nil && (len(snap.Transactions) != 1 || snap.Transactions[0].Amount.Units != 7) {
			err = errors.New("unexpected snapshot")
		}
		errB <- err
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("cancelled caller got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(r.release)
	select {
	case err := <-errB:
		if err != nil {
			t.Fatalf("second caller failed: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("second caller never returned")
	}
	if _, cached, _ := c.Fetch(context.Background()); !cached {
		t.Error("shared read should have been cached")
	}
}

func TestSnapshotCacheReadOverlappingInvalidateNotCached(t *testing.T) {
	r := &invalidatingReader{}
	c := NewSnapshotCache(r, time.Minute)
	r.during = c.Invalidate

	if _, err := c.FetchAll(context.Background()); err != nil {
		t.Fatal(err)
	}
	if _, cached, _ := c.Fetch(context.Background()); cached {
		t.Fatal("a read that overlapped Invalidate must not be cached")
	}
}

// invalidatingReader calls during once, in the middle of its first read.
type invalidatingReader struct {
	during func()
	calls  atomic.Int32
}

func (r *invalidatingReader) FetchAll(context.Context) (sheets.Snapshot, error) {
	if r.calls.Add(1) == 1 {
		r.during()
	}
	return sheets.Snapshot{}, nil
}

func TestSnapshotCacheNoStaleHitAfterInvalidate(t *testing.T) {
	r := &countingReader{}
	c := NewSnapshotCache(r, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ctx.Err() == nil {
				_, _ = c.FetchAll(ctx)
			}
		}()
	}
	for i := 0; i < 200; i++ {
		before := int64(r.calls.Load())
		c.Invalidate()
		snap, err := c.FetchAll(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		if got := snap.Transactions[0].Amount.Units; got <= before {
			t.Fatalf("iteration %d: got snapshot from read %d, started before Invalidate (reads so far %d)", i, got, before)
		}
	}
	cancel()
	wg.Wait()
}

func TestSnapshotCacheDoesNotCacheErrors(t *testing.T) {
	r := &countingReader{err: errors.New("sheets down")}
	c := NewSnapshotCache(r, time.Minute)
	for i := 0; i < 2; i++ {
		if _, err := c.FetchAll(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	if r.calls.Load() != 2 {
		t.Fatalf("calls = %d", r.calls.Load())
	}
}
