package query

import (
	"reflect"
	"strings"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// Render compiles the statement and renders it for the dialect.
func (s Statement) Render(d Dialect) (string, []interface{}, error) {
	c, err := s.Compile()
	if err != nil {
		return "", nil, err
	}
	sql, args := c.SQL(d)
	return sql, args, nil
}

// RenderCount renders a statement counting the rows s would return, ignoring
// its limit, offset and loader options.
func (s Statement) RenderCount(d Dialect) (string, []interface{}, error) {
	inner, args, err := s.withoutPaging().Render(d)
	if err != nil {
		return "", nil, err
	}
	return "SELECT COUNT(*) FROM (" + inner + ") AS count_subquery", args, nil
}

// SQL renders the compiled statement.
func (c *Compiled) SQL(d Dialect) (string, []interface{}) {
	var (
		b    strings.Builder
		args []interface{}
	)
	quote := d.QuoteIdentifier

	b.WriteString("SELECT ")
	for i, p := range c.projections {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(p.expr.SQL(p.qualify, quote))
		b.WriteString(" AS ")
		b.WriteString(quote(p.alias))
	}

	b.WriteString(" FROM ")
	for i, t := range c.from {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(t.Name))
	}

	for _, j := range c.joins {
		b.WriteString(" " + string(j.Type) + " " + quote(j.Target.Name) + " ON ")
		b.WriteString(j.On.Left.SQL(tableName, quote) + " = " + j.On.Right.SQL(tableName, quote))
	}

	for _, ej := range c.eager {
		alias := ej.alias
		aliased := func(*core.Table) string { return alias }
		b.WriteString(" " + string(ej.Type) + " " + quote(ej.Target.Name) + " AS " + quote(alias) + " ON ")
		b.WriteString(ej.On.Left.SQL(tableName, quote) + " = " + ej.On.Right.SQL(aliased, quote))
	}

	if len(c.where) > 0 {
		b.WriteString(" WHERE ")
		for i, cond := range c.where {
			if i > 0 {
				b.WriteString(" AND ")
			}
			if isEmptyIn(cond.op, cond.value) {
				// nothing is IN an empty list
				b.WriteString("1 = 0")
				continue
			}
			b.WriteString(cond.expr.SQL(tableName, quote) + " " + cond.op + " ")
			b.WriteString(renderValue(d, cond.op, cond.value, &args))
		}
	}

	if clause := d.LimitOffset(c.limit, c.offset); clause != "" {
		b.WriteString(" " + clause)
	}

	return b.String(), args
}

func isEmptyIn(op string, value interface{}) bool {
	if op != "IN" {
		return false
	}
	rv := reflect.ValueOf(value)
	return rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 && rv.Len() == 0
}

func renderValue(d Dialect, op string, value interface{}, args *[]interface{}) string {
	if value == nil && (op == "IS" || op == "IS NOT") {
		return "NULL"
	}

	if op == "IN" {
		rv := reflect.ValueOf(value)
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() != reflect.Uint8 {
			placeholders := make([]string, 0, rv.Len())
			for i := 0; i < rv.Len(); i++ {
				*args = append(*args, rv.Index(i).Interface())
				placeholders = append(placeholders, d.Placeholder(len(*args)))
			}
			return "(" + strings.Join(placeholders, ", ") + ")"
		}
	}

	*args = append(*args, value)
	return d.Placeholder(len(*args))
}
