package doccache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/starford/agentnote/internal/models"
)

type fakeFetcher struct {
	calls   atomic.Int32
	mu      sync.Mutex
	perID   map[int64]int
	missing map[int64]bool
	fail    error
	// release, when set, blocks every fetch until it is closed.
	release chan struct{}
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{perID: map[int64]int{}, missing: map[int64]bool{}}
}

func (f *fakeFetcher) FetchDoc(ctx context.Context, id int64) (*models.Envelope[models.Doc], error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.perID[id]++
	n := f.perID[id]
	f.mu.Unlock()

	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.fail != nil {
		return nil, f.fail
	}
	if f.missing[id] {
		return &models.Envelope[models.Doc]{Success: false, Error: "Document not found"}, nil
	}
	return &models.Envelope[models.Doc]{
		Success: true,
		Data:    models.Doc{ID: id, Title: "doc", Content: "version " + string(rune('0'+n))},
	}, nil
}

func (f *fakeFetcher) count(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.perID[id]
}

func TestGet_CachedCopyIssuesOneRequest(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)
	ctx := context.Background()

	first, err := c.Get(ctx, 1, true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !first.Success || first.FromCache {
		t.Fatalf("first = %+v, want fetched success", first)
	}

	second, err := c.Get(ctx, 1, true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !second.FromCache {
		t.Errorf("second Get should come from cache")
	}
	if second.Data != first.Data {
		t.Errorf("cached Get returned a different document")
	}
	if got := f.count(1); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestGet_BypassCacheRefetches(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)
	ctx := context.Background()

	if _, err := c.Get(ctx, 1, true); err != nil {
		t.Fatal(err)
	}
	res, err := c.Get(ctx, 1, false)
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Errorf("useCache=false must not report a cache hit")
	}
	if res.Data.Content != "version 2" {
		t.Errorf("content = %q, want the refetched version", res.Data.Content)
	}
	if got := f.count(1); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestGet_FailedEnvelopeIsNotCached(t *testing.T) {
	f := newFakeFetcher()
	f.missing[7] = true
	c := New(f)

	res, err := c.Get(context.Background(), 7, true)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if res.Success || res.Error != "Document not found" {
		t.Errorf("res = %+v", res)
	}
	if c.Cached(7) {
		t.Errorf("failed fetch must not populate the cache")
	}
}

func TestGet_TransportErrorIsReturned(t *testing.T) {
	f := newFakeFetcher()
	f.fail = errors.New("connection refused")
	c := New(f)

	if _, err := c.Get(context.Background(), 1, true); err == nil {
		t.Fatal("expected error")
	}
	if c.Len() != 0 {
		t.Errorf("Len = %d, want 0", c.Len())
	}
}

func TestInvalidate_ThenGetRefetches(t *testing.T) {
	f := newFakeFetcher()
	c := New(f)
	ctx := context.Background()

	if _, err := c.Get(ctx, 3, true); err != nil {
		t.Fatal(err)
	}
	c.Invalidate(3)
	if c.Cached(3) {
		t.Fatal("still cached after Invalidate")
	}
	res, err := c.Get(ctx, 3, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Errorf("Get after Invalidate must fetch")
	}
	if got := f.count(3); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestPreload_DeduplicatesInFlight(t *testing.T) {
	f := newFakeFetcher()
	f.release = make(chan struct{})
	c := New(f, WithPreloadDelay(0))
	defer c.Close()

	c.Preload(5)
	c.Preload(5)
	if !c.Preloading(5) {
		t.Errorf("id should be in flight")
	}
	close(f.release)
	c.Wait()

	if got := f.count(5); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
	if !c.Cached(5) {
		t.Errorf("preloaded document not cached")
	}
	if c.Preloading(5) {
		t.Errorf("in-flight marker not cleared")
	}
}

func TestPreload_SkipsCachedDocument(t *testing.T) {
	f := newFakeFetcher()
	c := New(f, WithPreloadDelay(0))
	defer c.Close()

	if _, err := c.Get(context.Background(), 2, true); err != nil {
		t.Fatal(err)
	}
	c.Preload(2)
	c.Wait()
	if got := f.count(2); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

func TestPreload_FailureIsSwallowedAndMarkerCleared(t *testing.T) {
	f := newFakeFetcher()
	f.missing[9] = true

	settled := make(chan error, 2)
	c := New(f, WithPreloadDelay(0), WithPreloadHook(func(id int64, err error) {
		settled <- err
	}))
	defer c.Close()

	c.Preload(9)
	var hookErr error
	select {
	case hookErr = <-settled:
	case <-time.After(2 * time.Second):
		t.Fatal("preload did not settle")
	}
	if hookErr == nil {
		t.Errorf("hook should see the failure")
	}
	if c.Cached(9) || c.Preloading(9) {
		t.Errorf("failed preload left state behind")
	}

	// A later preload is allowed to retry.
	c.Preload(9)
	c.Wait()
	if got := f.count(9); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestPreload_QueuesWhenWorkersBusy(t *testing.T) {
	f := newFakeFetcher()
	f.release = make(chan struct{})
	c := New(f, WithPreloadDelay(0), WithPreloadWorkers(2))
	defer c.Close()

	for id := int64(1); id <= 6; id++ {
		c.Preload(id)
	}
	for id := int64(1); id <= 6; id++ {
		if !c.Preloading(id) {
			t.Errorf("preload %d should be pending", id)
		}
	}
	close(f.release)
	c.Wait()

	for id := int64(1); id <= 6; id++ {
		if got := f.count(id); got != 1 {
			t.Errorf("requests for %d = %d, want 1", id, got)
		}
		if !c.Cached(id) {
			t.Errorf("document %d not cached", id)
		}
	}
}

func TestInvalidate_DuringPreloadDiscardsResult(t *testing.T) {
	f := newFakeFetcher()
	f.release = make(chan struct{})
	c := New(f, WithPreloadDelay(0))
	defer c.Close()

	c.Preload(7)
	for f.count(7) == 0 {
		time.Sleep(time.Millisecond)
	}
	c.Invalidate(7)
	close(f.release)
	c.Wait()

	if c.Cached(7) {
		t.Fatal("preload started before Invalidate repopulated the cache")
	}
	res, err := c.Get(context.Background(), 7, true)
	if err != nil {
		t.Fatal(err)
	}
	if res.FromCache {
		t.Errorf("Get after Invalidate must fetch")
	}
	if got := f.count(7); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestClose_CancelsPendingPreloads(t *testing.T) {
	f := newFakeFetcher()
	c := New(f, WithPreloadDelay(time.Hour))

	c.Preload(4)
	c.Close()

	if got := f.calls.Load(); got != 0 {
		t.Errorf("requests = %d, want 0", got)
	}
	if c.Cached(4) || c.Preloading(4) {
		t.Errorf("cancelled preload left state behind")
	}
}

func TestGet_ConcurrentCallers(t *testing.T) {
	f := newFakeFetcher()
	c := New(f, WithPreloadDelay(0))
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			c.Preload(id % 4)
			if _, err := c.Get(context.Background(), id%4, true); err != nil {
				t.Errorf("Get: %v", err)
			}
		}(int64(i))
	}
	wg.Wait()
	c.Wait()
	if c.Len() != 4 {
		t.Errorf("Len = %d, want 4", c.Len())
	}
}
