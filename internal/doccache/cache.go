// Package doccache keeps fetched documents in memory and preloads documents the
// user is likely to open next.
package doccache

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/agentnote/internal/models"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultPreloadDelay stands in for an idle callback: preloads start after it.
	DefaultPreloadDelay = 50 * time.Millisecond
	// DefaultPreloadWorkers bounds the number of concurrent preload fetches.
	DefaultPreloadWorkers = 4
)

// Fetcher retrieves one document from the backend.
type Fetcher interface {
	FetchDoc(ctx context.Context, id int64) (*models.Envelope[models.Doc], error)
}

// Result is the outcome of Get. Success mirrors the backend envelope.
type Result struct {
	Success   bool
	Data      *models.Doc
	FromCache bool
	Error     string
}

// Cache maps document ids to documents and tracks in-flight preloads.
// It is safe for concurrent use.
type Cache struct {
	fetcher Fetcher
	log     *slog.Logger
	delay   time.Duration

	mu       sync.Mutex
	docs     map[int64]*models.Doc
	inflight map[int64]struct{}
	// gen is bumped by Invalidate; a fetch started under an older
	// generation does not store its result.
	gen map[int64]uint64

	// queued counts preloads waiting for their delay or a worker slot.
	queued sync.WaitGroup

	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
	onDone func(id int64, err error)
}

// Option configures a Cache.
type Option func(*Cache)

// WithPreloadDelay sets how long a preload waits before fetching.
func WithPreloadDelay(d time.Duration) Option {
	return func(c *Cache) {
		if d >= 0 {
			c.delay = d
		}
	}
}

// WithPreloadWorkers sets the number of concurrent preload fetches.
func WithPreloadWorkers(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.group.SetLimit(n)
		}
	}
}

// WithLogger sets the logger used for preload failures.
func WithLogger(log *slog.Logger) Option {
	return func(c *Cache) {
		if log != nil {
			c.log = log
		}
	}
}

// WithPreloadHook registers fn to run after every preload settles.
func WithPreloadHook(fn func(id int64, err error)) Option {
	return func(c *Cache) { c.onDone = fn }
}

// New creates a Cache that fetches through fetcher.
func New(fetcher Fetcher, opts ...Option) *Cache {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Cache{
		fetcher:  fetcher,
		log:      slog.Default(),
		delay:    DefaultPreloadDelay,
		docs:     make(map[int64]*models.Doc),
		inflight: make(map[int64]struct{}),
		gen:      make(map[int64]uint64),
		group:    new(errgroup.Group),
		ctx:      ctx,
		cancel:   cancel,
	}
	c.group.SetLimit(DefaultPreloadWorkers)
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns document id. With useCache a cached copy is returned without a
// request. A backend envelope with success=false is returned as a Result, not an
// error; transport failures are errors.
func (c *Cache) Get(ctx context.Context, id int64, useCache bool) (*Result, error) {
	if useCache {
		if doc, ok := c.lookup(id); ok {
			return &Result{Success: true, Data: doc, FromCache: true}, nil
		}
	}

	gen := c.generation(id)
	env, err := c.fetcher.FetchDoc(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("doccache: get %d: %w", id, err)
	}
	if !env.Success {
		return &Result{Success: false, Error: env.Error}, nil
	}

	doc := env.Data
	c.store(id, gen, &doc)
	return &Result{Success: true, Data: &doc}, nil
}

// Preload fetches id in the background unless it is cached or already being
// fetched. When every worker is busy the preload waits for a free one.
// Failures are logged and otherwise ignored.
func (c *Cache) Preload(id int64) {
	c.mu.Lock()
	if _, ok := c.docs[id]; ok {
		c.mu.Unlock()
		return
	}
	if _, ok := c.inflight[id]; ok {
		c.mu.Unlock()
		return
	}
	c.inflight[id] = struct{}{}
	gen := c.gen[id]
	c.mu.Unlock()

	c.queued.Add(1)
	go func() {
		defer c.queued.Done()
		if err := c.sleep(); err != nil {
			c.settle(id, err)
			return
		}
		c.group.Go(func() error {
			c.settle(id, c.preload(id, gen))
			return nil
		})
	}()
}

// sleep waits out the preload delay outside of a worker slot.
func (c *Cache) sleep() error {
	if c.delay <= 0 {
		return c.ctx.Err()
	}
	t := time.NewTimer(c.delay)
	defer t.Stop()
	select {
	case <-c.ctx.Done():
		return c.ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Cache) preload(id int64, gen uint64) error {
	if err := c.ctx.Err(); err != nil {
		return err
	}
	env, err := c.fetcher.FetchDoc(c.ctx, id)
	if err != nil {
		return err
	}
	if !env.Success {
		return fmt.Errorf("doccache: preload %d: %s", id, env.Error)
	}
	doc := env.Data
	c.store(id, gen, &doc)
	return nil
}

func (c *Cache) settle(id int64, err error) {
	c.mu.Lock()
	delete(c.inflight, id)
	c.mu.Unlock()
	if err != nil {
		c.log.Debug("preload failed", slog.Int64("id", id), slog.String("error", err.Error()))
	}
	if c.onDone != nil {
		c.onDone(id, err)
	}
}

// Invalidate drops id from the cache. Fetches of id already in flight will not
// store their result.
func (c *Cache) Invalidate(id int64) {
	c.mu.Lock()
	delete(c.docs, id)
	c.gen[id]++
	c.mu.Unlock()
}

// Cached reports whether id is cached.
func (c *Cache) Cached(id int64) bool {
	_, ok := c.lookup(id)
	return ok
}

// Preloading reports whether a preload of id is in flight.
func (c *Cache) Preloading(id int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.inflight[id]
	return ok
}

// Len returns the number of cached documents.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.docs)
}

// Wait blocks until every started preload has settled.
func (c *Cache) Wait() {
	c.queued.Wait()
	_ = c.group.Wait()
}

// Close cancels pending preloads and waits for them to return.
func (c *Cache) Close() {
	c.cancel()
	c.Wait()
}

func (c *Cache) lookup(id int64) (*models.Doc, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	doc, ok := c.docs[id]
	return doc, ok
}

func (c *Cache) generation(id int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen[id]
}

// store caches doc unless id was invalidated since gen was read.
func (c *Cache) store(id int64, gen uint64, doc *models.Doc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen[id] != gen {
		return
	}
	c.docs[id] = doc
}
