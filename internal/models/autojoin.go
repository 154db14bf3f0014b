package models

import (
	"log"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

// JoinAttempt is the outcome of joining an entity onto a statement.
// Statement is the joined statement when Err is nil and the original
// statement otherwise.
type JoinAttempt struct {
	Statement query.Statement
	Err       error
}

// Joined reports whether the attempt succeeded.
func (a JoinAttempt) Joined() bool {
	return a.Err == nil
}

// TryJoin inner-joins entity's table onto stmt and compiles the result
// right away, so an unresolvable or ambiguous join path is reported here.
func TryJoin(stmt query.Statement, entity *core.Entity) JoinAttempt {
	joined := stmt.Join(entity.Table)
	if _, err := joined.Compile(); err != nil {
		return JoinAttempt{Statement: stmt, Err: err}
	}
	return JoinAttempt{Statement: joined}
}

// AutoJoin joins the named entities onto stmt when they are not already
// part of it and the join can be inferred from foreign keys. Names are
// processed in order; unknown names and failed joins are skipped. Nothing
// happens when stmt references no entity at all.
func AutoJoin(reg Registry, stmt query.Statement, names ...string) query.Statement {
	if len(DiscoverEntities(reg, stmt)) == 0 {
		return stmt
	}

	for _, name := range names {
		entity, ok := LookupEntity(reg, name)
		if !ok || containsEntity(DiscoverEntities(reg, stmt), entity) {
			continue
		}

		attempt := TryJoin(stmt, entity)
		if !attempt.Joined() {
			log.Printf("[AUTOJOIN] Cannot join %s: %v", name, attempt.Err)
			continue
		}
		stmt = attempt.Statement
	}
	return stmt
}
