// Package cache keeps an eventually consistent client-side copy of server
// collections and applies optimistic mutations to it.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// State is where an entry sits in the mutation cycle.
type State int

const (
	Idle State = iota
	OptimisticallyMutated
	Reconciling
	Settled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OptimisticallyMutated:
		return "optimistically-mutated"
	case Reconciling:
		return "reconciling"
	case Settled:
		return "settled"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Fetcher loads the authoritative value for one key.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Persister stores settled snapshots across restarts.
type Persister interface {
	Save(key string, data []byte, at time.Time) error
	Load(key string) ([]byte, time.Time, bool, error)
}

type Options struct {
	// StaleTime is how long fetched data is served without a background refetch.
	StaleTime time.Duration
	Persister Persister
	Logger    *zap.Logger
	Clock     func() time.Time
}

type entry[T any] struct {
	fetch     Fetcher[T]
	data      T
	hasData   bool
	fetchedAt time.Time
	stale     bool
	state     State
	err       error

	inflight bool
	again    bool
}

// QueryCache holds one value per key. Background refetches for a key never overlap; a
// refetch requested while one is running is queued behind it, and a mutation made
// while one is running discards its result.
type QueryCache[T any] struct {
	mu        sync.Mutex
	entries   map[string]*entry[T]
	staleTime time.Duration
	persister Persister
	logger    *zap.Logger
	now       func() time.Time
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
}

func New[T any](opts Options) *QueryCache[T] {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &QueryCache[T]{
		entries:   make(map[string]*entry[T]),
		staleTime: opts.StaleTime,
		persister: opts.Persister,
		logger:    opts.Logger,
		now:       opts.Clock,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Register attaches the fetcher for key. A persisted snapshot, if any, is loaded
// as stale data so the first Get serves it and refetches in the background.
func (c *QueryCache[T]) Register(key string, fetch Fetcher[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{state: Idle}
		c.entries[key] = e
	}
	e.fetch = fetch

	if e.hasData || c.persister == nil {
		return
	}
	raw, at, found, err := c.persister.Load(key)
	if err != nil {
		c.logger.Warn("cache snapshot load failed", zap.String("key", key), zap.Error(err))
		return
	}
	if !found {
		return
	}
	var data T
	if err := json.Unmarshal(raw, &data); err != nil {
		c.logger.Warn("cache snapshot decode failed", zap.String("key", key), zap.Error(err))
		return
	}
	e.data, e.hasData, e.fetchedAt, e.stale = data, true, at, true
}

// Get returns cached data when present, scheduling a background refetch when it is
// stale. Without data it fetches synchronously.
func (c *QueryCache[T]) Get(ctx context.Context, key string) (T, error) {
	c.mu.Lock()
	e, err := c.lookup(key)
	if err != nil {
		c.mu.Unlock()
		var zero T
		return zero, err
	}
	if e.hasData {
		data := e.data
		if c.isStale(e) {
			c.scheduleLocked(key, e)
		}
		c.mu.Unlock()
		return data, nil
	}
	c.mu.Unlock()

	return c.Fetch(ctx, key)
}

// Peek returns the cached value without triggering anything.
func (c *QueryCache[T]) Peek(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || !e.hasData {
		var zero T
		return zero, false
	}
	return e.data, true
}

// Fetch refetches key synchronously and settles the entry on success.
func (c *QueryCache[T]) Fetch(ctx context.Context, key string) (T, error) {
	c.mu.Lock()
	e, err := c.lookup(key)
	if err != nil {
		c.mu.Unlock()
		var zero T
		return zero, err
	}
	if e.state != OptimisticallyMutated {
		e.state = Reconciling
	}
	fetch := e.fetch
	c.mu.Unlock()

	data, err := fetch(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.settleLocked(key, e, data, err)
	if err != nil {
		var zero T
		return zero, err
	}
	return data, nil
}

// SetData applies an optimistic change. current is the zero value when nothing is cached.
func (c *QueryCache[T]) SetData(key string, update func(current T, ok bool) T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		e = &entry[T]{}
		c.entries[key] = e
	}
	e.data = update(e.data, e.hasData)
	e.hasData = true
	e.state = OptimisticallyMutated
	if e.inflight {
		e.again = true
	}
}

// Invalidate marks key stale and refetches it in the background.
func (c *QueryCache[T]) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		return
	}
	e.stale = true
	e.state = Reconciling
	c.scheduleLocked(key, e)
}

// Refocus refetches every stale entry, as a UI would when its window regains focus.
func (c *QueryCache[T]) Refocus() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.fetch != nil && c.isStale(e) {
			c.scheduleLocked(key, e)
		}
	}
}

func (c *QueryCache[T]) State(key string) State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.state
	}
	return Idle
}

// LastError is the error of the most recent failed refetch, cleared on success.
func (c *QueryCache[T]) LastError(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		return e.err
	}
	return nil
}

// Wait blocks until all background refetches have finished.
func (c *QueryCache[T]) Wait() {
	c.wg.Wait()
}

// Close cancels background refetches and waits for them.
func (c *QueryCache[T]) Close() {
	c.cancel()
	c.wg.Wait()
}

func (c *QueryCache[T]) lookup(key string) (*entry[T], error) {
	e, ok := c.entries[key]
	if !ok || e.fetch == nil {
		return nil, fmt.Errorf("cache: no fetcher registered for %q", key)
	}
	return e, nil
}

func (c *QueryCache[T]) isStale(e *entry[T]) bool {
	if !e.hasData || e.stale {
		return true
	}
	return c.now().Sub(e.fetchedAt) >= c.staleTime
}

// scheduleLocked starts a background refetch unless one is running, in which
// case the running one is told to go again.
func (c *QueryCache[T]) scheduleLocked(key string, e *entry[T]) {
	if e.inflight {
		e.again = true
		return
	}
	e.inflight = true
	c.wg.Add(1)
	go c.refetch(key, e)
}

func (c *QueryCache[T]) refetch(key string, e *entry[T]) {
	defer c.wg.Done()
	for {
		c.mu.Lock()
		fetch := e.fetch
		c.mu.Unlock()

		data, err := fetch(c.ctx)

		c.mu.Lock()
		c.settleLocked(key, e, data, err)
		if !e.again || c.ctx.Err() != nil {
			e.inflight, e.again = false, false
			c.mu.Unlock()
			return
		}
		e.again = false
		c.mu.Unlock()
	}
}

// settleLocked records a fetch outcome. Failure keeps the entry Reconciling so
// the next trigger retries; the optimistic data is not rolled back.
func (c *QueryCache[T]) settleLocked(key string, e *entry[T], data T, err error) {
	if err != nil {
		e.err = err
		e.state = Reconciling
		e.stale = true
		c.logger.Warn("cache refetch failed", zap.String("key", key), zap.Error(err))
		return
	}
	if e.again {
		// A mutation landed while this fetch was in flight; its result may predate it.
		e.err = nil
		return
	}

	e.data, e.hasData = data, true
	e.fetchedAt = c.now()
	e.stale = false
	e.state = Settled
	e.err = nil

	if c.persister == nil {
		return
	}
	raw, mErr := json.Marshal(data)
	if mErr != nil {
		c.logger.Warn("cache snapshot encode failed", zap.String("key", key), zap.Error(mErr))
		return
	}
	if sErr := c.persister.Save(key, raw, e.fetchedAt); sErr != nil {
		c.logger.Warn("cache snapshot save failed", zap.String("key", key), zap.Error(sErr))
	}
}
