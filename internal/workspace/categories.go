package workspace

import (
	"context"
	"sync"

	"pfa/internal/models"
)

// CategoryLister fetches categories.
type CategoryLister interface {
	ListCategories(ctx context.Context, query models.CategoryQuery) ([]models.Category, error)
}

// Categories caches the category list used for labels, dropdowns and
// form pre-population.
type Categories struct {
	mu         sync.Mutex
	api        CategoryLister
	index      *models.CategoryIndex
	generation uint64
}

// NewCategories returns an empty cache.
func NewCategories(api CategoryLister) *Categories {
	return &Categories{api: api}
}

// Index returns the cached index, loading it on first use. A load that
// finishes after Invalidate is returned to its caller but not cached.
func (c *Categories) Index(ctx context.Context) (*models.CategoryIndex, error) {
	c.mu.Lock()
	idx, gen := c.index, c.generation
	c.mu.Unlock()
	if idx != nil {
		return idx, nil
	}

	list, err := c.api.ListCategories(ctx, models.CategoryQuery{IncludeGlobal: true})
	if err != nil {
		return nil, err
	}
	idx = models.NewCategoryIndex(list)

	c.mu.Lock()
	if gen == c.generation {
		c.index = idx
	}
	c.mu.Unlock()
	return idx, nil
}

// Cached returns the index if it has been loaded, or nil.
func (c *Categories) Cached() *models.CategoryIndex {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Invalidate drops the cache, e.g. after sign-out.
func (c *Categories) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.index = nil
	c.generation++
}
