package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// Definitions declares the entities of a catalog and, optionally, the
// tables they map. Tables not declared here are described by a TableSource.
type Definitions struct {
	Tables   []TableDefinition  `yaml:"tables" json:"tables"`
	Entities []EntityDefinition `yaml:"entities" json:"entities"`
}

// TableDefinition declares a table inline.
type TableDefinition struct {
	Name        string                 `yaml:"name" json:"name"`
	PrimaryKey  string                 `yaml:"primary_key" json:"primary_key"`
	Columns     []ColumnDefinition     `yaml:"columns" json:"columns"`
	ForeignKeys []ForeignKeyDefinition `yaml:"foreign_keys" json:"foreign_keys"`
}

// ColumnDefinition declares a table column.
type ColumnDefinition struct {
	Name     string `yaml:"name" json:"name"`
	Type     string `yaml:"type" json:"type"`
	Nullable bool   `yaml:"nullable" json:"nullable"`
}

// ForeignKeyDefinition declares a single-column foreign key.
type ForeignKeyDefinition struct {
	Name      string `yaml:"name" json:"name"`
	Column    string `yaml:"column" json:"column"`
	RefTable  string `yaml:"ref_table" json:"ref_table"`
	RefColumn string `yaml:"ref_column" json:"ref_column"`
}

// EntityDefinition maps an entity name onto a storage table.
type EntityDefinition struct {
	Name     string               `yaml:"name" json:"name"`
	Table    string               `yaml:"table" json:"table"`
	Computed []ComputedDefinition `yaml:"computed" json:"computed"`
}

// ComputedDefinition declares a derived field. SQL references columns of
// the entity's table as {column}. Kind is "property" (default) or "method".
type ComputedDefinition struct {
	Name string `yaml:"name" json:"name"`
	Kind string `yaml:"kind" json:"kind"`
	SQL  string `yaml:"sql" json:"sql"`
}

// LoadDefinitionsFile reads definitions from a .yaml, .yml or .json file.
func LoadDefinitionsFile(path string) (*Definitions, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read definitions file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return ParseYAML(data)
	case ".json":
		return ParseJSON(data)
	default:
		return nil, fmt.Errorf("unsupported definitions file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// ParseYAML parses YAML definitions.
func ParseYAML(data []byte) (*Definitions, error) {
	defs := &Definitions{}
	if err := yaml.Unmarshal(data, defs); err != nil {
		return nil, fmt.Errorf("failed to parse YAML definitions: %w", err)
	}
	return defs, nil
}

// ParseJSON parses JSON definitions.
func ParseJSON(data []byte) (*Definitions, error) {
	defs := &Definitions{}
	if err := json.Unmarshal(data, defs); err != nil {
		return nil, fmt.Errorf("failed to parse JSON definitions: %w", err)
	}
	return defs, nil
}

// toTable builds the core table for an inline definition.
func (d TableDefinition) toTable() *core.Table {
	table := &core.Table{
		Name:       d.Name,
		PrimaryKey: d.PrimaryKey,
		Columns:    make([]core.Column, 0, len(d.Columns)),
	}
	for _, col := range d.Columns {
		table.Columns = append(table.Columns, core.Column{Name: col.Name, Type: col.Type, Nullable: col.Nullable})
	}
	for _, fk := range d.ForeignKeys {
		table.ForeignKeys = append(table.ForeignKeys, core.ForeignKey{
			Name:      fk.Name,
			Column:    fk.Column,
			RefTable:  fk.RefTable,
			RefColumn: fk.RefColumn,
		})
	}
	if table.PrimaryKey != "" {
		table.Indexes = []core.Index{{Name: "PRIMARY", Columns: []string{table.PrimaryKey}, Unique: true, Primary: true}}
	}
	return table
}

// toField builds the computed field over table.
func (d ComputedDefinition) toField(table *core.Table) (core.Field, error) {
	if d.SQL == "" {
		return core.Field{}, fmt.Errorf("computed field %q has no sql", d.Name)
	}
	expr := core.SQLExpr{Table: table, Text: d.SQL, Name: d.Name}

	switch strings.ToLower(d.Kind) {
	case "", "property":
		return core.ComputedProperty(d.Name, expr), nil
	case "method":
		return core.ComputedMethod(d.Name, func() core.Expression { return expr }), nil
	default:
		return core.Field{}, fmt.Errorf("computed field %q: unknown kind %q (supported: property, method)", d.Name, d.Kind)
	}
}
