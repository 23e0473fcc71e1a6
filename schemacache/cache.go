// Package schemacache keeps loaded schemas in memory and reloads them on
// demand.
//
// Concurrent requests for a template that is not cached share a single load.
// Failed loads are not cached. Entries are dropped by Invalidate, by a
// directory Watcher, or by messages on a Redis channel.
package schemacache

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/reoring/annoskema"
	"github.com/reoring/annoskema/template"
)

// Loader loads a template by id. *template.Loader implements it.
type Loader interface {
	Load(ctx context.Context, id string) (*annoskema.Schema, template.Diag, error)
}

// Cache is an id -> schema cache safe for concurrent use.
type Cache struct {
	loader Loader
	log    *zap.Logger

	mu       sync.RWMutex
	entries  map[string]*annoskema.Schema
	gens     map[string]uint64
	epoch    uint64
	inflight map[string]int

	group        singleflight.Group
	onInvalidate func(id string)
}

// generation identifies the state of one id; a load only stores its result
// when the generation did not move while it ran. Counters exist only for ids
// with a load in flight.
type generation struct{ epoch, gen uint64 }

// Option configures a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for load and invalidation events.
func WithLogger(l *zap.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// WithOnInvalidate registers fn to run after an entry is invalidated. fn
// receives AllTemplates after InvalidateAll. It must not block.
func WithOnInvalidate(fn func(id string)) Option {
	return func(c *Cache) { c.onInvalidate = fn }
}

// New returns an empty cache backed by loader.
func New(loader Loader, opts ...Option) *Cache {
	c := &Cache{
		loader:   loader,
		log:      zap.NewNop(),
		entries:  make(map[string]*annoskema.Schema),
		gens:     make(map[string]uint64),
		inflight: make(map[string]int),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the schema for id, loading it when needed. A caller whose ctx
// ends while waiting gets ctx.Err(); the load itself keeps running for the
// other callers.
func (c *Cache) Get(ctx context.Context, id string) (*annoskema.Schema, error) {
	if s, ok := c.Peek(id); ok {
		return s, nil
	}
	ch := c.group.DoChan(id, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*annoskema.Schema), nil
	}
}

func (c *Cache) load(ctx context.Context, id string) (*annoskema.Schema, error) {
	c.mu.Lock()
	g := c.generationLocked(id)
	c.inflight[id]++
	c.mu.Unlock()

	s, diag, err := c.loader.Load(ctx, id)

	c.mu.Lock()
	defer c.mu.Unlock()
	current := c.generationLocked(id) == g
	if c.inflight[id]--; c.inflight[id] == 0 {
		delete(c.inflight, id)
		delete(c.gens, id)
	}
	if err != nil {
		c.log.Warn("template load failed", zap.String("template", id), zap.Error(err))
		return nil, err
	}
	if diag != nil {
		for _, w := range diag.Warnings() {
			c.log.Warn("template warning", zap.String("template", id), zap.String("warning", w))
		}
	}
	if current {
		c.entries[id] = s
	} else {
		c.log.Debug("template invalidated during load; not cached", zap.String("template", id))
	}
	return s, nil
}

func (c *Cache) generationLocked(id string) generation {
	return generation{epoch: c.epoch, gen: c.gens[id]}
}

// Peek returns the cached schema for id without loading.
func (c *Cache) Peek(id string) (*annoskema.Schema, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.entries[id]
	return s, ok
}

// Len returns the number of cached schemas.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Invalidate drops id. A load of id already in flight completes for its
// callers but is not cached; later callers start a fresh load.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	delete(c.entries, id)
	if c.inflight[id] > 0 {
		c.gens[id]++
	}
	c.mu.Unlock()
	c.group.Forget(id)
	c.log.Debug("template invalidated", zap.String("template", id))
	if c.onInvalidate != nil {
		c.onInvalidate(id)
	}
}

// InvalidateAll drops every entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]*annoskema.Schema)
	c.epoch++
	ids := make([]string, 0, len(c.inflight))
	for id := range c.inflight {
		ids = append(ids, id)
	}
	c.mu.Unlock()
	for _, id := range ids {
		c.group.Forget(id)
	}
	c.log.Debug("all templates invalidated")
	if c.onInvalidate != nil {
		c.onInvalidate(AllTemplates)
	}
}
