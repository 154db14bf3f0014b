// Package models resolves which mapped entities a statement references and
// which entity a load spec applies to.
package models

import (
	"github.com/samber/lo"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

// Registry is the registry scope entities are looked up in.
// *catalog.Catalog implements it.
type Registry interface {
	Entity(name string) (*core.Entity, bool)
	EntityByTableName(name string) (*core.Entity, bool)
	EntityForTable(table *core.Table) (*core.Entity, bool)
}

// DiscoverEntities returns the entities whose tables stmt references, in
// discovery order. Tables reached only through eager-load options are not
// considered, and tables without a mapped entity are skipped.
func DiscoverEntities(reg Registry, stmt query.Statement) []*core.Entity {
	var entities []*core.Entity
	for _, t := range stmt.Tables() {
		if e, ok := reg.EntityForTable(t); ok {
			entities = append(entities, e)
		}
	}
	return lo.Uniq(entities)
}

// EntityByStorageName returns the entity mapped onto the named storage table.
func EntityByStorageName(reg Registry, name string) (*core.Entity, bool) {
	return reg.EntityByTableName(name)
}

// LookupEntity returns the entity with the given declared name.
func LookupEntity(reg Registry, name string) (*core.Entity, bool) {
	return reg.Entity(name)
}

// DefaultEntity returns the sole entity of stmt, or nil when stmt
// references none or several.
func DefaultEntity(reg Registry, stmt query.Statement) *core.Entity {
	entities := DiscoverEntities(reg, stmt)
	if len(entities) != 1 {
		return nil
	}
	return entities[0]
}

func containsEntity(entities []*core.Entity, e *core.Entity) bool {
	return lo.Contains(entities, e)
}
