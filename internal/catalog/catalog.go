package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// Catalog is the registry of mapped entities. It is populated at startup
// and then frozen; once frozen it is read-only and safe for concurrent use
// without further coordination from callers.
type Catalog struct {
	mu          sync.RWMutex
	entities    []*core.Entity
	byName      map[string]*core.Entity
	byTableName map[string]*core.Entity
	byTable     map[*core.Table]*core.Entity
	frozen      bool
	hooks       hookManager
}

// New creates an empty catalog. hooks run on every registration.
func New(hooks ...RegistrationHook) *Catalog {
	c := &Catalog{
		byName:      make(map[string]*core.Entity),
		byTableName: make(map[string]*core.Entity),
		byTable:     make(map[*core.Table]*core.Entity),
	}
	c.hooks.add(hooks...)
	return c
}

// AddHook appends registration hooks.
func (c *Catalog) AddHook(hooks ...RegistrationHook) {
	c.hooks.add(hooks...)
}

// Register adds an entity. Entity names and storage tables are unique
// within a catalog.
func (c *Catalog) Register(ctx context.Context, entity *core.Entity) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	if entity.Table == nil {
		return fmt.Errorf("entity %q has no table", entity.Name)
	}

	if err := c.checkRegistrable(entity); err != nil {
		return err
	}

	if err := c.hooks.run(ctx, entity); err != nil {
		return fmt.Errorf("registration hook failed for entity %q: %w", entity.Name, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// re-check: hooks ran without the lock held
	if err := c.checkRegistrableLocked(entity); err != nil {
		return err
	}

	c.entities = append(c.entities, entity)
	c.byName[entity.Name] = entity
	c.byTableName[entity.Table.Name] = entity
	c.byTable[entity.Table] = entity
	return nil
}

func (c *Catalog) checkRegistrable(entity *core.Entity) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.checkRegistrableLocked(entity)
}

func (c *Catalog) checkRegistrableLocked(entity *core.Entity) error {
	if c.frozen {
		return fmt.Errorf("%w: cannot register entity %q", core.ErrCatalogFrozen, entity.Name)
	}
	if _, exists := c.byName[entity.Name]; exists {
		return fmt.Errorf("entity %q is already registered", entity.Name)
	}
	if existing, exists := c.byTableName[entity.Table.Name]; exists {
		return fmt.Errorf("table %q is already mapped by entity %q", entity.Table.Name, existing.Name)
	}
	return nil
}

// Freeze makes the catalog read-only.
func (c *Catalog) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frozen = true
}

// Frozen reports whether Freeze has been called.
func (c *Catalog) Frozen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.frozen
}

// Entity returns the entity registered under the declared name.
func (c *Catalog) Entity(name string) (*core.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byName[name]
	return e, ok
}

// EntityByTableName returns the entity mapping the storage table name.
func (c *Catalog) EntityByTableName(name string) (*core.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byTableName[name]
	return e, ok
}

// EntityForTable returns the entity mapping the given table.
func (c *Catalog) EntityForTable(table *core.Table) (*core.Entity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.byTable[table]
	return e, ok
}

// Table returns the table with the given storage name, if it is mapped.
func (c *Catalog) Table(name string) (*core.Table, bool) {
	e, ok := c.EntityByTableName(name)
	if !ok {
		return nil, false
	}
	return e.Table, true
}

// Entities returns all entities in registration order.
func (c *Catalog) Entities() []*core.Entity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*core.Entity(nil), c.entities...)
}

// List returns the declared names of all entities in registration order.
func (c *Catalog) List() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.entities))
	for _, e := range c.entities {
		names = append(names, e.Name)
	}
	return names
}

// Count returns the number of registered entities.
func (c *Catalog) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entities)
}
