package schema

import (
	"fmt"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// TableLookup resolves a storage name to a known table.
type TableLookup func(name string) (*core.Table, bool)

// EntityValidator checks that an entity definition is usable for querying:
// its table is well-formed, foreign keys point at columns that exist and
// computed SQL fragments only reference columns of the entity's table.
type EntityValidator struct {
	lookup TableLookup
}

// NewEntityValidator creates a validator. lookup may be nil, in which case
// foreign key targets are not checked.
func NewEntityValidator(lookup TableLookup) *EntityValidator {
	return &EntityValidator{lookup: lookup}
}

// ValidateTable validates a table definition on its own.
func (v *EntityValidator) ValidateTable(table *core.Table) error {
	if table == nil {
		return fmt.Errorf("table cannot be nil")
	}
	if table.Name == "" {
		return fmt.Errorf("table name cannot be empty")
	}
	if len(table.Columns) == 0 {
		return fmt.Errorf("table '%s' has no columns", table.Name)
	}

	seen := make(map[string]bool, len(table.Columns))
	for _, col := range table.Columns {
		if col.Name == "" {
			return fmt.Errorf("table '%s' has a column without a name", table.Name)
		}
		if seen[col.Name] {
			return fmt.Errorf("table '%s' declares column '%s' twice", table.Name, col.Name)
		}
		seen[col.Name] = true
	}

	if table.PrimaryKey == "" {
		return fmt.Errorf("table '%s' has no primary key", table.Name)
	}
	if !seen[table.PrimaryKey] {
		return fmt.Errorf("primary key column '%s' not found in table '%s'", table.PrimaryKey, table.Name)
	}

	for _, fk := range table.ForeignKeys {
		if !seen[fk.Column] {
			return fmt.Errorf("foreign key column '%s' not found in table '%s'", fk.Column, table.Name)
		}
		if fk.RefTable == "" {
			return fmt.Errorf("foreign key '%s.%s' has no referenced table", table.Name, fk.Column)
		}
		if v.lookup == nil {
			continue
		}
		target, ok := v.lookup(fk.RefTable)
		if !ok {
			// the referenced table may simply not be mapped
			continue
		}
		refColumn := fk.RefColumn
		if refColumn == "" {
			refColumn = target.PrimaryKey
		}
		if _, ok := target.Column(refColumn); !ok {
			return fmt.Errorf("foreign key '%s.%s' references missing column '%s.%s'",
				table.Name, fk.Column, target.Name, refColumn)
		}
	}
	return nil
}

// ValidateEntity validates the entity's table and its computed fields.
func (v *EntityValidator) ValidateEntity(entity *core.Entity) error {
	if entity == nil {
		return fmt.Errorf("entity cannot be nil")
	}
	if err := v.ValidateTable(entity.Table); err != nil {
		return fmt.Errorf("entity '%s': %w", entity.Name, err)
	}

	for _, name := range entity.FieldNamesOf(core.FieldComputedProperty) {
		field, _ := entity.Field(name)
		if err := v.validateExpression(entity, name, field.Expr); err != nil {
			return err
		}
	}
	for _, name := range entity.FieldNamesOf(core.FieldComputedMethod) {
		field, _ := entity.Field(name)
		expr := field.Method()
		if expr == nil {
			return fmt.Errorf("entity '%s': method '%s' returned no expression", entity.Name, name)
		}
		if err := v.validateExpression(entity, name, expr); err != nil {
			return err
		}
	}
	return nil
}

func (v *EntityValidator) validateExpression(entity *core.Entity, field string, expr core.Expression) error {
	for _, t := range expr.Tables() {
		if t != entity.Table {
			return fmt.Errorf("entity '%s': field '%s' references foreign table '%s'", entity.Name, field, t.Name)
		}
	}

	sqlExpr, ok := expr.(core.SQLExpr)
	if !ok {
		return nil
	}
	for _, col := range sqlExpr.Columns() {
		if _, ok := entity.Table.Column(col); !ok {
			return fmt.Errorf("entity '%s': field '%s' references unknown column '%s'", entity.Name, field, col)
		}
	}
	return nil
}
