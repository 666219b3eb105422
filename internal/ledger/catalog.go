package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"planner/internal/core"
	"planner/internal/log"
	"planner/internal/storage"
)

// CatalogStore is the process-wide category list. It is loaded once and
// persisted on every change.
type CatalogStore struct {
	mu         sync.RWMutex
	store      storage.Store
	logger     *slog.Logger
	categories []core.Category
	newID      func() string
}

// OpenCatalog loads the stored categories, falling back to the default seed
// when nothing usable is stored. The seed is not written until the first Add.
func OpenCatalog(ctx context.Context, store storage.Store, logger *slog.Logger) *CatalogStore {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CatalogStore{
		store:  store,
		logger: logger.With(log.FieldComponent, log.ComponentCatalog),
		newID:  uuid.NewString,
	}
	c.categories = c.load(ctx)
	return c
}

func (c *CatalogStore) load(ctx context.Context) []core.Category {
	raw, err := c.store.Get(ctx, CatalogKey)
	if errors.Is(err, storage.ErrNotFound) {
		return core.DefaultCategories()
	}
	if err != nil {
		c.logger.WarnContext(ctx, "Catalog read failed, using defaults", log.FieldError, err)
		return core.DefaultCategories()
	}

	var cats []core.Category
	if err := json.Unmarshal(raw, &cats); err != nil || cats == nil {
		c.logger.WarnContext(ctx, "Stored catalog is corrupt, using defaults", log.FieldError, err)
		return core.DefaultCategories()
	}
	return cats
}

// Categories returns a copy of the catalog in insertion order.
func (c *CatalogStore) Categories() []core.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]core.Category(nil), c.categories...)
}

func (c *CatalogStore) Lookup(id string) (core.Category, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat, true
		}
	}
	return core.Category{}, false
}

// Add appends a category with a fresh id and persists the whole catalog.
// The category is kept in memory even when the write fails.
func (c *CatalogStore) Add(ctx context.Context, name, color string) (core.Category, SaveStatus) {
	cat := core.Category{
		ID:    c.newID(),
		Name:  strings.TrimSpace(name),
		Color: strings.TrimSpace(color),
	}

	c.mu.Lock()
	c.categories = append(c.categories, cat)
	snapshot := append([]core.Category(nil), c.categories...)
	c.mu.Unlock()

	return cat, c.persist(ctx, snapshot)
}

func (c *CatalogStore) persist(ctx context.Context, cats []core.Category) SaveStatus {
	data, err := json.Marshal(cats)
	if err != nil {
		return SaveStatus{Key: CatalogKey, Err: fmt.Errorf("encode catalog: %w", err)}
	}
	if err := c.store.Put(ctx, CatalogKey, data); err != nil {
		c.logger.ErrorContext(ctx, "Catalog persist failed", log.FieldError, err)
		return SaveStatus{Key: CatalogKey, Err: fmt.Errorf("persist catalog: %w", err)}
	}
	c.logger.InfoContext(ctx, "Catalog saved", log.FieldCount, len(cats))
	return SaveStatus{Key: CatalogKey}
}
