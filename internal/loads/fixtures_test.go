package loads_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/query-filters/internal/catalog"
	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

type fixture struct {
	catalog                *catalog.Catalog
	users, addresses, tags *core.Table
	payments               *core.Table
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	f := fixture{
		users: &core.Table{
			Name:       "users",
			PrimaryKey: "id",
			Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "name", Type: "VARCHAR(64)"}, {Name: "age", Type: "INT"}},
		},
		addresses: &core.Table{
			Name:        "addresses",
			PrimaryKey:  "id",
			Columns:     []core.Column{{Name: "id", Type: "INT"}, {Name: "user_id", Type: "INT"}, {Name: "city", Type: "VARCHAR(64)"}},
			ForeignKeys: []core.ForeignKey{{Column: "user_id", RefTable: "users"}},
		},
		tags: &core.Table{
			Name:       "tags",
			PrimaryKey: "id",
			Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "label", Type: "VARCHAR(32)"}},
		},
		payments: &core.Table{
			Name:       "payments",
			PrimaryKey: "id",
			Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "payer_id", Type: "INT"}, {Name: "payee_id", Type: "INT"}},
			ForeignKeys: []core.ForeignKey{
				{Column: "payer_id", RefTable: "users"},
				{Column: "payee_id", RefTable: "users"},
			},
		},
	}

	users := f.users
	user, err := core.NewEntity("User", users,
		core.ComputedProperty("shout", core.SQLExpr{Table: users, Name: "shout", Text: "UPPER({name})"}),
		core.ComputedMethod("initial", func() core.Expression {
			return core.SQLExpr{Table: users, Name: "initial", Text: "LEFT({name}, 1)"}
		}),
	)
	require.NoError(t, err)
	address, err := core.NewEntity("Address", f.addresses)
	require.NoError(t, err)
	tag, err := core.NewEntity("Tag", f.tags)
	require.NoError(t, err)
	payment, err := core.NewEntity("Payment", f.payments)
	require.NoError(t, err)

	f.catalog = catalog.New()
	for _, e := range []*core.Entity{user, address, tag, payment} {
		require.NoError(t, f.catalog.Register(context.Background(), e))
	}
	f.catalog.Freeze()
	return f
}

func render(t *testing.T, stmt query.Statement) string {
	t.Helper()
	sql, _, err := stmt.Render(query.MySQLDialect{})
	require.NoError(t, err)
	return sql
}
