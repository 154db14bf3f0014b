package query

import (
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// JoinType is the SQL join keyword.
type JoinType string

const (
	InnerJoin JoinType = "INNER JOIN"
	LeftJoin  JoinType = "LEFT OUTER JOIN"
)

// JoinCondition is the equality in a JOIN ... ON clause.
type JoinCondition struct {
	Left  core.ColumnRef
	Right core.ColumnRef
}

// Join is a join clause. On is nil for implicit joins until the statement is
// compiled.
type Join struct {
	Type   JoinType
	Target *core.Table
	On     *JoinCondition
}

type condition struct {
	expr  core.Expression
	op    string
	value interface{}
}

var allowedOperators = map[string]bool{
	"=": true, "!=": true, ">": true, "<": true, ">=": true, "<=": true,
	"IN": true, "LIKE": true, "IS": true, "IS NOT": true,
}

// Statement is an immutable SELECT statement. Every method returns a new
// Statement and leaves the receiver untouched, so a Statement can be shared
// freely between goroutines.
type Statement struct {
	from    []*core.Table
	columns []core.Expression
	joins   []Join
	where   []condition
	options []Option
	limit   *int
	offset  *int
	errs    []error
}

// Select starts a statement loading every column of the given tables.
func Select(tables ...*core.Table) Statement {
	return Statement{}.From(tables...)
}

// From adds tables to the FROM clause. Each of them is loaded in full
// unless restricted with a LoadOnly option.
func (s Statement) From(tables ...*core.Table) Statement {
	s.from = append(slices.Clip(s.from), lo.Compact(tables)...)
	return s
}

// Columns adds individual expressions to the select list. Their tables
// become part of the statement.
func (s Statement) Columns(exprs ...core.Expression) Statement {
	s.columns = append(slices.Clip(s.columns), exprs...)
	return s
}

// Where adds a condition; conditions are combined with AND.
func (s Statement) Where(expr core.Expression, op string, value interface{}) Statement {
	if !allowedOperators[op] {
		s.errs = append(slices.Clip(s.errs), fmt.Errorf("unsupported operator %q", op))
		return s
	}
	s.where = append(slices.Clip(s.where), condition{expr: expr, op: op, value: value})
	return s
}

// Join adds an inner join to target. The ON clause is inferred from foreign
// keys when the statement is compiled.
func (s Statement) Join(target *core.Table) Statement {
	s.joins = append(slices.Clip(s.joins), Join{Type: InnerJoin, Target: target})
	return s
}

// OuterJoin adds a left outer join to target with an inferred ON clause.
func (s Statement) OuterJoin(target *core.Table) Statement {
	s.joins = append(slices.Clip(s.joins), Join{Type: LeftJoin, Target: target})
	return s
}

// JoinOn adds an inner join to target with an explicit condition.
func (s Statement) JoinOn(target *core.Table, left, right core.ColumnRef) Statement {
	s.joins = append(slices.Clip(s.joins), Join{Type: InnerJoin, Target: target, On: &JoinCondition{Left: left, Right: right}})
	return s
}

// Options attaches loader options in order.
func (s Statement) Options(opts ...Option) Statement {
	s.options = append(slices.Clip(s.options), opts...)
	return s
}

// Limit sets the maximum number of rows.
func (s Statement) Limit(n int) Statement {
	s.limit = &n
	return s
}

// Offset sets the number of rows to skip.
func (s Statement) Offset(n int) Statement {
	s.offset = &n
	return s
}

// LimitValue returns the limit, if set.
func (s Statement) LimitValue() (int, bool) {
	if s.limit == nil {
		return 0, false
	}
	return *s.limit, true
}

// OffsetValue returns the offset, if set.
func (s Statement) OffsetValue() (int, bool) {
	if s.offset == nil {
		return 0, false
	}
	return *s.offset, true
}

// LoaderOptions returns the attached options in order.
func (s Statement) LoaderOptions() []Option {
	return slices.Clone(s.options)
}

// Joins returns the join clauses as declared.
func (s Statement) Joins() []Join {
	return slices.Clone(s.joins)
}

// Tables returns the tables referenced by the statement: FROM entries,
// selected columns, WHERE columns and joins, in that order and without
// duplicates. Tables reached only through Eager options are not included.
func (s Statement) Tables() []*core.Table {
	tables := s.fromTables()
	for _, j := range s.joins {
		tables = append(tables, j.Target)
		if j.On != nil {
			tables = append(tables, j.On.Left.Table, j.On.Right.Table)
		}
	}
	return lo.Uniq(lo.Compact(tables))
}

// fromTables returns the tables that belong to the FROM list, that is every
// referenced table which is not the target of a join.
func (s Statement) fromTables() []*core.Table {
	tables := slices.Clone(s.from)
	for _, expr := range s.columns {
		tables = append(tables, expr.Tables()...)
	}
	for _, c := range s.where {
		tables = append(tables, c.expr.Tables()...)
	}
	joined := lo.Map(s.joins, func(j Join, _ int) *core.Table { return j.Target })
	return lo.Without(lo.Uniq(lo.Compact(tables)), joined...)
}

// withoutPaging returns the statement without limit, offset and loader options.
func (s Statement) withoutPaging() Statement {
	s.limit = nil
	s.offset = nil
	s.options = nil
	return s
}
