package core

// Table represents the physical structure of a database table.
// Statements reference tables by identity, so a *Table is shared between the
// catalog, the entities that map it and every statement built against it.
type Table struct {
	// Name is the storage name of the table.
	Name string

	// PrimaryKey is the name of the primary key column.
	PrimaryKey string

	// Columns contains all column definitions for the table, in ordinal order.
	Columns []Column

	// ForeignKeys lists the references from this table to other tables.
	ForeignKeys []ForeignKey

	// Indexes contains all index definitions for the table.
	Indexes []Index
}

// Column represents a single column in a database table.
type Column struct {
	// Name is the column name.
	Name string

	// Type is the database type (e.g., "INT", "VARCHAR(255)", "TIMESTAMP").
	Type string

	// Nullable indicates whether the column can contain NULL values.
	Nullable bool

	// Default is the default value for the column, if any.
	Default interface{}
}

// ForeignKey is a single-column reference from one table to another.
type ForeignKey struct {
	// Name is the constraint name, empty when declared without one.
	Name string

	// Column is the referencing column on the owning table.
	Column string

	// RefTable is the storage name of the referenced table.
	RefTable string

	// RefColumn is the referenced column. Empty means the referenced primary key.
	RefColumn string
}

// Index represents a database index.
type Index struct {
	// Name is the index name.
	Name string

	// Columns are the column names that make up this index.
	Columns []string

	// Unique indicates whether this is a unique index.
	Unique bool

	// Primary indicates whether this is the primary key index.
	Primary bool
}

// Column returns the column definition with the given name.
func (t *Table) Column(name string) (Column, bool) {
	for _, col := range t.Columns {
		if col.Name == name {
			return col, true
		}
	}
	return Column{}, false
}

// ColumnNames returns the column names in ordinal order.
func (t *Table) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, col := range t.Columns {
		names = append(names, col.Name)
	}
	return names
}

// ReferencesTo returns the foreign keys of t that point at the given table.
func (t *Table) ReferencesTo(target *Table) []ForeignKey {
	var refs []ForeignKey
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == target.Name {
			if fk.RefColumn == "" {
				fk.RefColumn = target.PrimaryKey
			}
			refs = append(refs, fk)
		}
	}
	return refs
}
