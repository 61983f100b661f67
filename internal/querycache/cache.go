// Package querycache holds the results of read operations keyed by name,
// shares concurrent fetches of the same key and refetches entries that were
// invalidated or went stale.
package querycache

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"golang.org/x/sync/singleflight"

	"ticketly-client/internal/clock"
	"ticketly-client/internal/logger"
)

const DefaultStaleTime = 30 * time.Second

// Keys shared by the views and the workflows that invalidate them.
const (
	KeyMyTickets         = "my-tickets"
	KeyTickets           = "tickets"
	KeyNotifications     = "notifications/"
	KeyUnreadCount       = "notifications/unread-count"
	KeyEvents            = "events"
	KeyPublishedEvents   = "events/published"
	availableTicketsBase = "available-tickets/"
)

// AvailableTicketsKey is the key of the available entries of one event.
func AvailableTicketsKey(eventID string) string {
	return availableTicketsBase + eventID
}

type FetchFunc func(ctx context.Context) (interface{}, error)

// State describes one entry for views that render loading and error flags.
type State struct {
	Loading   bool
	HasData   bool
	Stale     bool
	Err       error
	UpdatedAt time.Time
}

type entry struct {
	mu          sync.Mutex
	value       interface{}
	hasData     bool
	err         error
	updatedAt   time.Time
	loading     int
	generation  uint64
	invalidated bool
	fetch       FetchFunc
}

type Cache struct {
	staleTime time.Duration
	clock     clock.Clock
	logger    *logger.Logger

	entries *xsync.MapOf[string, *entry]
	group   singleflight.Group
	wg      sync.WaitGroup
}

func New(staleTime time.Duration, clk clock.Clock, log *logger.Logger) *Cache {
	if staleTime <= 0 {
		staleTime = DefaultStaleTime
	}
	if clk == nil {
		clk = clock.Real()
	}
	return &Cache{
		staleTime: staleTime,
		clock:     clk,
		logger:    log,
		entries:   xsync.NewMapOf[string, *entry](),
	}
}

// Get returns the cached value for key. A fresh entry is returned as is; a
// stale one is returned immediately while a single background refetch runs;
// a missing one is fetched, with concurrent callers sharing the request.
// Cancelling ctx only abandons this caller's wait.
func (c *Cache) Get(ctx context.Context, key string, fetch FetchFunc) (interface{}, error) {
	e, _ := c.entries.LoadOrCompute(key, func() *entry { return &entry{} })

	e.mu.Lock()
	e.fetch = fetch
	hasData := e.hasData
	value := e.value
	stale := c.isStale(e)
	e.mu.Unlock()

	if hasData {
		if stale {
			c.logger.LogCache("STALE", key)
			c.refetchInBackground(ctx, key, e)
		} else {
			c.logger.LogCache("HIT", key)
		}
		return value, nil
	}

	c.logger.LogCache("MISS", key)
	return c.fetch(ctx, key, e)
}

// Invalidate marks the keys stale; the next read refetches.
func (c *Cache) Invalidate(keys ...string) {
	for _, key := range keys {
		if e, ok := c.entries.Load(key); ok {
			c.invalidate(key, e)
		}
	}
}

// InvalidatePrefix marks every key starting with prefix stale.
func (c *Cache) InvalidatePrefix(prefix string) {
	c.entries.Range(func(key string, e *entry) bool {
		if strings.HasPrefix(key, prefix) {
			c.invalidate(key, e)
		}
		return true
	})
}

// Reset drops every entry. Used when the session changes hands.
func (c *Cache) Reset() {
	c.entries.Clear()
	c.logger.LogCache("RESET", "*")
}

func (c *Cache) State(key string) State {
	e, ok := c.entries.Load(key)
	if !ok {
		return State{}
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{
		Loading:   e.loading > 0,
		HasData:   e.hasData,
		Stale:     c.isStale(e),
		Err:       e.err,
		UpdatedAt: e.updatedAt,
	}
}

// Keys lists the keys currently held.
func (c *Cache) Keys() []string {
	keys := make([]string, 0, c.entries.Size())
	c.entries.Range(func(key string, _ *entry) bool {
		keys = append(keys, key)
		return true
	})
	return keys
}

// Refresh refetches every registered key each interval until ctx is done.
func (c *Cache) Refresh(ctx context.Context, interval time.Duration) {
	ticker := c.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			c.entries.Range(func(key string, e *entry) bool {
				e.mu.Lock()
				registered := e.fetch != nil
				e.mu.Unlock()
				if registered {
					if _, err := c.fetch(ctx, key, e); err != nil {
						c.logger.Warn("CACHE", fmt.Sprintf("Refresh of %s failed: %v", key, err))
					}
				}
				return ctx.Err() == nil
			})
		}
	}
}

// Wait blocks until background refetches started so far have finished.
func (c *Cache) Wait() {
	c.wg.Wait()
}

func (c *Cache) invalidate(key string, e *entry) {
	e.mu.Lock()
	e.invalidated = true
	e.generation++
	e.mu.Unlock()
	c.logger.LogCache("INVALIDATE", key)
}

func (c *Cache) isStale(e *entry) bool {
	if !e.hasData {
		return false
	}
	return e.invalidated || c.clock.Now().Sub(e.updatedAt) >= c.staleTime
}

func (c *Cache) refetchInBackground(ctx context.Context, key string, e *entry) {
	bg := context.WithoutCancel(ctx)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.fetch(bg, key, e); err != nil {
			c.logger.Warn("CACHE", fmt.Sprintf("Background refetch of %s failed: %v", key, err))
		}
	}()
}

// fetch runs the entry's fetch function once per key and generation. A
// result that finishes after an invalidation is stored but stays stale.
// The shared fetch is detached from the caller that started it; a caller
// whose ctx ends stops waiting without failing the others.
func (c *Cache) fetch(ctx context.Context, key string, e *entry) (interface{}, error) {
	e.mu.Lock()
	gen := e.generation
	fn := e.fetch
	e.mu.Unlock()

	if fn == nil {
		return nil, fmt.Errorf("querycache: no fetch registered for %s", key)
	}

	shared := context.WithoutCancel(ctx)
	flightKey := key + "#" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(flightKey, func() (interface{}, error) {
		e.mu.Lock()
		e.loading++
		e.mu.Unlock()

		value, err := fn(shared)

		e.mu.Lock()
		defer e.mu.Unlock()
		e.loading--
		if err != nil {
			e.err = err
			return nil, err
		}
		e.value = value
		e.hasData = true
		e.err = nil
		e.updatedAt = c.clock.Now()
		e.invalidated = e.generation != gen
		return value, nil
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Query is the typed form of Get.
func Query[T any](ctx context.Context, c *Cache, key string, fetch func(ctx context.Context) (T, error)) (T, error) {
	v, err := c.Get(ctx, key, func(ctx context.Context) (interface{}, error) {
		return fetch(ctx)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	typed, ok := v.(T)
	if !ok {
		var zero T
		return zero, fmt.Errorf("querycache: %s holds %T", key, v)
	}
	return typed, nil
}
