package catalog

import (
	"context"
	"fmt"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/schema"
)

// TableSource describes tables that are not declared inline. core.Database
// implementations satisfy it through schema introspection.
type TableSource interface {
	DescribeTable(ctx context.Context, tableName string) (*core.Table, error)
}

// Build creates a catalog from definitions, validates every entity and
// freezes it. source may be nil when every table is declared inline.
// Each storage table is described at most once so that all entities and
// statements share the same *core.Table.
func Build(ctx context.Context, defs *Definitions, source TableSource, hooks ...RegistrationHook) (*Catalog, error) {
	if defs == nil {
		return nil, fmt.Errorf("definitions cannot be nil")
	}

	tables := make(map[string]*core.Table, len(defs.Tables))
	for _, td := range defs.Tables {
		if td.Name == "" {
			return nil, fmt.Errorf("table definition without a name")
		}
		if _, exists := tables[td.Name]; exists {
			return nil, fmt.Errorf("table %q is declared twice", td.Name)
		}
		tables[td.Name] = td.toTable()
	}

	for _, ed := range defs.Entities {
		if ed.Table == "" {
			return nil, fmt.Errorf("entity %q has no table", ed.Name)
		}
		if _, ok := tables[ed.Table]; ok {
			continue
		}
		if source == nil {
			return nil, fmt.Errorf("table %q of entity %q is not declared and no table source is configured", ed.Table, ed.Name)
		}
		table, err := source.DescribeTable(ctx, ed.Table)
		if err != nil {
			return nil, fmt.Errorf("failed to describe table %q: %w", ed.Table, err)
		}
		tables[ed.Table] = table
	}

	validator := schema.NewEntityValidator(func(name string) (*core.Table, bool) {
		t, ok := tables[name]
		return t, ok
	})

	cat := New(HookFunc(func(_ context.Context, e *core.Entity) error {
		return validator.ValidateEntity(e)
	}))
	cat.AddHook(hooks...)

	for _, ed := range defs.Entities {
		table := tables[ed.Table]
		computed := make([]core.Field, 0, len(ed.Computed))
		for _, cd := range ed.Computed {
			f, err := cd.toField(table)
			if err != nil {
				return nil, fmt.Errorf("entity %q: %w", ed.Name, err)
			}
			computed = append(computed, f)
		}

		entity, err := core.NewEntity(ed.Name, table, computed...)
		if err != nil {
			return nil, err
		}
		if err := cat.Register(ctx, entity); err != nil {
			return nil, err
		}
	}

	cat.Freeze()
	return cat, nil
}

// Introspect builds definitions mapping every table reported by db to an
// entity named after it.
func Introspect(ctx context.Context, db core.Database) (*Definitions, error) {
	names, err := db.GetTables(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defs := &Definitions{Entities: make([]EntityDefinition, 0, len(names))}
	for _, name := range names {
		defs.Entities = append(defs.Entities, EntityDefinition{Name: name, Table: name})
	}
	return defs, nil
}
