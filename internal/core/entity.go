package core

import (
	"fmt"
)

// FieldKind tells how an entity field yields its expression.
type FieldKind int

const (
	// FieldColumn is a plain table column.
	FieldColumn FieldKind = iota
	// FieldComputedProperty is a derived expression usable as-is.
	FieldComputedProperty
	// FieldComputedMethod is a zero-argument accessor invoked to obtain its expression.
	FieldComputedMethod
)

func (k FieldKind) String() string {
	switch k {
	case FieldColumn:
		return "column"
	case FieldComputedProperty:
		return "property"
	case FieldComputedMethod:
		return "method"
	default:
		return fmt.Sprintf("FieldKind(%d)", int(k))
	}
}

// Field is an attribute of a mapped entity. Its kind is fixed when the
// entity is built and never re-inspected afterwards.
type Field struct {
	Name string
	Kind FieldKind

	// Expr is set for columns and computed properties.
	Expr Expression

	// Method is set for computed methods.
	Method func() Expression
}

// ComputedProperty declares a derived field backed by a ready expression.
func ComputedProperty(name string, expr Expression) Field {
	return Field{Name: name, Kind: FieldComputedProperty, Expr: expr}
}

// ComputedMethod declares a derived field whose expression is produced by fn.
func ComputedMethod(name string, fn func() Expression) Field {
	return Field{Name: name, Kind: FieldComputedMethod, Method: fn}
}

// Entity is a named mapping onto a table, with its columns and computed
// accessors.
type Entity struct {
	Name  string
	Table *Table

	fields map[string]Field
	order  []string
}

// NewEntity builds an entity over table. Every column becomes a FieldColumn;
// computed fields are appended after the columns.
func NewEntity(name string, table *Table, computed ...Field) (*Entity, error) {
	if name == "" {
		return nil, fmt.Errorf("entity name cannot be empty")
	}
	if table == nil {
		return nil, fmt.Errorf("entity %q: table cannot be nil", name)
	}

	e := &Entity{
		Name:   name,
		Table:  table,
		fields: make(map[string]Field, len(table.Columns)+len(computed)),
	}

	for _, col := range table.Columns {
		e.add(Field{Name: col.Name, Kind: FieldColumn, Expr: Col(table, col.Name)})
	}

	for _, f := range computed {
		if f.Name == "" {
			return nil, fmt.Errorf("entity %q: computed field name cannot be empty", name)
		}
		if _, exists := e.fields[f.Name]; exists {
			return nil, fmt.Errorf("entity %q: field %q is declared twice", name, f.Name)
		}
		switch f.Kind {
		case FieldComputedProperty:
			if f.Expr == nil {
				return nil, fmt.Errorf("entity %q: computed property %q has no expression", name, f.Name)
			}
		case FieldComputedMethod:
			if f.Method == nil {
				return nil, fmt.Errorf("entity %q: computed method %q has no function", name, f.Name)
			}
		default:
			return nil, fmt.Errorf("entity %q: field %q must be a computed property or method, got %s", name, f.Name, f.Kind)
		}
		e.add(f)
	}

	return e, nil
}

func (e *Entity) add(f Field) {
	e.fields[f.Name] = f
	e.order = append(e.order, f.Name)
}

// Field returns the field with the given name.
func (e *Entity) Field(name string) (Field, bool) {
	f, ok := e.fields[name]
	return f, ok
}

// FieldNames returns every valid field name: columns, then computed accessors.
func (e *Entity) FieldNames() []string {
	return append([]string(nil), e.order...)
}

// FieldNamesOf returns the field names of the given kind, in declaration order.
func (e *Entity) FieldNamesOf(kind FieldKind) []string {
	var names []string
	for _, name := range e.order {
		if e.fields[name].Kind == kind {
			names = append(names, name)
		}
	}
	return names
}

func (e *Entity) String() string {
	return e.Name
}
