package query

import (
	"github.com/rzpsarthak13/query-filters/internal/core"
)

// OptionKind distinguishes statement loader options.
type OptionKind int

const (
	// OptionLoadOnly restricts the loaded columns of a table; the rest are deferred.
	OptionLoadOnly OptionKind = iota
	// OptionEager loads a related table through an anonymous outer join.
	// Tables reached this way are not visible to Statement.Tables.
	OptionEager
)

// Option is a loader directive attached to a statement.
// It is a sealed value type constructed via LoadOnly and Eager.
type Option struct {
	kind  OptionKind
	table *core.Table
	exprs []core.Expression
}

// LoadOnly loads only exprs (plus the primary key) for table.
func LoadOnly(table *core.Table, exprs ...core.Expression) Option {
	return Option{kind: OptionLoadOnly, table: table, exprs: append([]core.Expression(nil), exprs...)}
}

// Eager loads target alongside the statement through a LEFT OUTER JOIN
// inferred from foreign keys.
func Eager(target *core.Table) Option {
	return Option{kind: OptionEager, table: target}
}

func (o Option) Kind() OptionKind               { return o.kind }
func (o Option) Table() *core.Table             { return o.table }
func (o Option) Expressions() []core.Expression { return append([]core.Expression(nil), o.exprs...) }
