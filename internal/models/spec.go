package models

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

// SpecRef is the optional entity reference of a spec: a declared entity
// name or a storage table name. Table takes precedence over Model.
type SpecRef struct {
	Model string
	Table string
}

// IsZero reports whether the reference names no entity.
func (r SpecRef) IsZero() bool {
	return r.Model == "" && r.Table == ""
}

// ResolveEntityForSpec determines the entity a spec applies to within stmt.
// An unnamed spec applies to the only entity of stmt, or else to
// defaultEntity when one is given.
func ResolveEntityForSpec(reg Registry, ref SpecRef, stmt query.Statement, defaultEntity *core.Entity) (*core.Entity, error) {
	entities := DiscoverEntities(reg, stmt)
	if len(entities) == 0 {
		return nil, fmt.Errorf("%w: the query does not contain any models", core.ErrBadQuery)
	}

	name := ref.Model
	if ref.Table != "" {
		owner, ok := EntityByStorageName(reg, ref.Table)
		if !ok {
			return nil, fmt.Errorf("%w: no model is mapped to table `%s`", core.ErrBadSpec, ref.Table)
		}
		name = owner.Name
	}

	if name != "" {
		e, ok := lo.Find(entities, func(e *core.Entity) bool { return e.Name == name })
		if !ok {
			return nil, fmt.Errorf("%w: the query does not contain model `%s`", core.ErrBadSpec, name)
		}
		return e, nil
	}

	switch {
	case len(entities) == 1:
		return entities[0], nil
	case defaultEntity != nil:
		return defaultEntity, nil
	default:
		return nil, fmt.Errorf("%w: ambiguous spec, please specify a model", core.ErrBadSpec)
	}
}
