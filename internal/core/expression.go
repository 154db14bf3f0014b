package core

import (
	"regexp"
	"strings"
)

// Expression is a loadable SQL expression: a plain column or a derived value
// computed from the columns of a single table.
type Expression interface {
	// Tables returns the tables referenced by the expression.
	Tables() []*Table

	// SQL renders the expression. qualify maps a table to the identifier it is
	// visible under in the statement, quote quotes a single identifier.
	SQL(qualify func(*Table) string, quote func(string) string) string

	// Label is the name of the resulting column.
	Label() string
}

// ColumnRef references a column of a table.
type ColumnRef struct {
	Table *Table
	Name  string
}

// Col builds a ColumnRef.
func Col(table *Table, name string) ColumnRef {
	return ColumnRef{Table: table, Name: name}
}

func (c ColumnRef) Tables() []*Table { return []*Table{c.Table} }
func (c ColumnRef) Label() string    { return c.Name }

func (c ColumnRef) SQL(qualify func(*Table) string, quote func(string) string) string {
	return quote(qualify(c.Table)) + "." + quote(c.Name)
}

// placeholderPattern matches {column} references inside an SQLExpr text.
var placeholderPattern = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// SQLExpr is a raw SQL fragment evaluated against one table. Column
// references are written as {column} and get qualified on rendering, e.g.
//
//	CONCAT({first_name}, ' ', {last_name})
type SQLExpr struct {
	Table *Table
	Text  string
	Name  string
}

func (e SQLExpr) Tables() []*Table { return []*Table{e.Table} }
func (e SQLExpr) Label() string    { return e.Name }

func (e SQLExpr) SQL(qualify func(*Table) string, quote func(string) string) string {
	prefix := quote(qualify(e.Table)) + "."
	rendered := placeholderPattern.ReplaceAllStringFunc(e.Text, func(m string) string {
		return prefix + quote(strings.Trim(m, "{}"))
	})
	return "(" + rendered + ")"
}

// Columns returns the column names referenced through {column} placeholders.
func (e SQLExpr) Columns() []string {
	var cols []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(e.Text, -1) {
		cols = append(cols, m[1])
	}
	return cols
}
