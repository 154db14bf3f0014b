package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// Compiled is a statement whose joins have been resolved and whose select
// list has been computed. It is produced by Statement.Compile.
type Compiled struct {
	from        []*core.Table
	joins       []Join
	eager       []eagerJoin
	projections []projection
	where       []condition
	limit       *int
	offset      *int
}

type eagerJoin struct {
	Join
	alias string
}

type projection struct {
	expr    core.Expression
	qualify func(*core.Table) string
	alias   string
}

func tableName(t *core.Table) string { return t.Name }

// Compile validates the statement and resolves implicit joins against the
// foreign keys of the tables already present. A join without exactly one
// foreign key path fails with core.ErrInvalidRequest.
func (s Statement) Compile() (*Compiled, error) {
	if len(s.errs) > 0 {
		return nil, errors.Join(s.errs...)
	}

	from := s.fromTables()
	if len(from) == 0 {
		return nil, fmt.Errorf("%w: statement has no FROM clause", core.ErrInvalidRequest)
	}

	c := &Compiled{
		from:   from,
		where:  s.where,
		limit:  s.limit,
		offset: s.offset,
	}

	visible := slices.Clone(from)
	for _, j := range s.joins {
		if j.Target == nil {
			return nil, fmt.Errorf("%w: join target cannot be nil", core.ErrInvalidRequest)
		}
		if slices.Contains(visible, j.Target) {
			return nil, fmt.Errorf("%w: table %q is already present in the statement", core.ErrInvalidRequest, j.Target.Name)
		}
		if j.On == nil {
			on, err := inferJoin(visible, j.Target)
			if err != nil {
				return nil, err
			}
			j.On = &on
		}
		c.joins = append(c.joins, j)
		visible = append(visible, j.Target)
	}

	aliases := make(map[string]int)
	for _, opt := range s.options {
		if opt.kind != OptionEager {
			continue
		}
		on, err := inferJoin(visible, opt.table)
		if err != nil {
			return nil, fmt.Errorf("eager load of %q: %w", opt.table.Name, err)
		}
		aliases[opt.table.Name]++
		c.eager = append(c.eager, eagerJoin{
			Join:  Join{Type: LeftJoin, Target: opt.table, On: &on},
			alias: fmt.Sprintf("%s_%d", opt.table.Name, aliases[opt.table.Name]),
		})
	}

	c.projections = s.project(from, c.joins, c.eager)
	return c, nil
}

// inferJoin finds the single foreign key between target and the tables on
// the left side of the join, in either direction.
func inferJoin(left []*core.Table, target *core.Table) (JoinCondition, error) {
	var candidates []JoinCondition
	for _, l := range left {
		if l == target {
			continue
		}
		for _, fk := range target.ReferencesTo(l) {
			candidates = append(candidates, JoinCondition{
				Left:  core.Col(l, fk.RefColumn),
				Right: core.Col(target, fk.Column),
			})
		}
		for _, fk := range l.ReferencesTo(target) {
			candidates = append(candidates, JoinCondition{
				Left:  core.Col(l, fk.Column),
				Right: core.Col(target, fk.RefColumn),
			})
		}
	}

	leftNames := strings.Join(lo.Map(left, func(t *core.Table, _ int) string { return t.Name }), ", ")
	switch len(candidates) {
	case 0:
		return JoinCondition{}, fmt.Errorf("%w: can't find any foreign key relationships between '%s' and '%s'",
			core.ErrInvalidRequest, leftNames, target.Name)
	case 1:
		return candidates[0], nil
	default:
		return JoinCondition{}, fmt.Errorf("%w: can't determine join between '%s' and '%s'; tables have more than one foreign key constraint relationship between them",
			core.ErrInvalidRequest, leftNames, target.Name)
	}
}

// project computes the select list. FROM tables are loaded in full unless
// a LoadOnly option restricts them; joined tables are loaded only when a
// LoadOnly option names them. Restricted tables always load their primary key.
func (s Statement) project(from []*core.Table, joins []Join, eager []eagerJoin) []projection {
	restricted := make(map[*core.Table][]core.Expression)
	for _, opt := range s.options {
		if opt.kind == OptionLoadOnly && opt.table != nil {
			restricted[opt.table] = append(restricted[opt.table], opt.exprs...)
		}
	}

	loaded := slices.Clone(from)
	for _, j := range joins {
		if _, ok := restricted[j.Target]; ok {
			loaded = append(loaded, j.Target)
		}
	}

	var exprs []core.Expression
	for _, t := range loaded {
		only, ok := restricted[t]
		if !ok {
			exprs = append(exprs, allColumns(t)...)
			continue
		}
		var picked []core.Expression
		if t.PrimaryKey != "" {
			picked = append(picked, core.Col(t, t.PrimaryKey))
		}
		picked = append(picked, only...)
		exprs = append(exprs, lo.UniqBy(picked, func(e core.Expression) string { return e.Label() })...)
	}
	exprs = append(exprs, s.columns...)

	multi := len(loaded) > 1 || len(eager) > 0
	projections := make([]projection, 0, len(exprs))
	for _, e := range exprs {
		alias := e.Label()
		if multi {
			alias = e.Tables()[0].Name + "_" + alias
		}
		projections = append(projections, projection{expr: e, qualify: tableName, alias: alias})
	}

	for _, ej := range eager {
		alias := ej.alias
		qualify := func(*core.Table) string { return alias }
		for _, e := range allColumns(ej.Target) {
			projections = append(projections, projection{expr: e, qualify: qualify, alias: alias + "_" + e.Label()})
		}
	}
	return projections
}

func allColumns(t *core.Table) []core.Expression {
	exprs := make([]core.Expression, 0, len(t.Columns))
	for _, col := range t.Columns {
		exprs = append(exprs, core.Col(t, col.Name))
	}
	return exprs
}

// ResultColumn is one entry of the select list.
type ResultColumn struct {
	Alias string
	Expr  core.Expression
}

// Columns returns the select list in output order.
func (c *Compiled) Columns() []ResultColumn {
	return lo.Map(c.projections, func(p projection, _ int) ResultColumn {
		return ResultColumn{Alias: p.alias, Expr: p.expr}
	})
}
