package templates

import (
	"context"
	"strconv"
	"sync"

	"golang.org/x/sync/singleflight"

	"templatecheck/internal/metrics"
	"templatecheck/internal/model"
)

// Loader produces reference structures; *Registry implements it.
type Loader interface {
	LoadReferenceStructure(ctx context.Context, id model.TemplateID) (*model.ParsedWorkbook, error)
}

// CachedLoader read-through cache of parsed reference templates keyed by
// template id, without TTL. Concurrent misses for one id share a single
// load. Failed loads are not cached.
//
// The shared load is detached from any one caller's cancellation; a caller
// whose ctx ends stops waiting without failing the others.
//
// Cached workbooks are shared between callers and must not be modified.
type CachedLoader struct {
	next Loader

	mu    sync.RWMutex
	items map[model.TemplateID]*model.ParsedWorkbook
	gen   uint64 // bumped by Invalidate; loads from older generations are not stored
	group singleflight.Group
}

// NewCachedLoader wraps next with a cache
func NewCachedLoader(next Loader) *CachedLoader {
	return &CachedLoader{
		next:  next,
		items: make(map[model.TemplateID]*model.ParsedWorkbook),
	}
}

// LoadReferenceStructure returns the cached structure or loads it once.
func (c *CachedLoader) LoadReferenceStructure(ctx context.Context, id model.TemplateID) (*model.ParsedWorkbook, error) {
	c.mu.RLock()
	wb, ok := c.items[id]
	gen := c.gen
	c.mu.RUnlock()
	if ok {
		metrics.ReferenceCacheTotal.WithLabelValues("hit").Inc()
		return wb, nil
	}
	metrics.ReferenceCacheTotal.WithLabelValues("miss").Inc()

	key := string(id) + "@" + strconv.FormatUint(gen, 10)
	loadCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		wb, err := c.next.LoadReferenceStructure(loadCtx, id)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.gen == gen {
			c.items[id] = wb
		}
		c.mu.Unlock()
		return wb, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*model.ParsedWorkbook), nil
	}
}

// Invalidate drops every cached structure. Loads already in flight still
// answer their callers but are not stored.
func (c *CachedLoader) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[model.TemplateID]*model.ParsedWorkbook)
	c.gen++
}

// Len number of cached templates
func (c *CachedLoader) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Warm loads every registered template, stopping at the first failure.
func (c *CachedLoader) Warm(ctx context.Context) error {
	for _, d := range List() {
		if _, err := c.LoadReferenceStructure(ctx, d.ID); err != nil {
			return err
		}
	}
	return nil
}
