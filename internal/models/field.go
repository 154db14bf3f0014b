package models

import (
	"fmt"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// Field is a field name bound to the entity it is resolved against.
type Field struct {
	Entity *core.Entity
	Name   string
}

// NewField binds name to entity. The name is validated by Expression.
func NewField(entity *core.Entity, name string) Field {
	return Field{Entity: entity, Name: name}
}

// Expression returns the loadable expression of the field. Columns and
// computed properties yield their expression directly, computed methods
// are invoked with no arguments.
func (f Field) Expression() (core.Expression, error) {
	field, ok := f.Entity.Field(f.Name)
	if !ok {
		return nil, fmt.Errorf("%w: model `%s` has no column `%s`", core.ErrFieldNotFound, f.Entity.Name, f.Name)
	}

	switch field.Kind {
	case core.FieldComputedMethod:
		return field.Method(), nil
	default:
		return field.Expr, nil
	}
}
