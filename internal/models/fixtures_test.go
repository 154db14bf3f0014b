package models_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/query-filters/internal/catalog"
	"github.com/rzpsarthak13/query-filters/internal/core"
)

type fixture struct {
	catalog *catalog.Catalog

	users, addresses, orders, payments, tags *core.Table

	user, address, order, payment, tag *core.Entity
}

// newFixture builds a frozen catalog:
//
//	users <- addresses <- orders -> users
//	users <- payments (payer_id, payee_id)
//	tags (unrelated)
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
		orders: &core.Table{
			Name:       "orders",
			PrimaryKey: "id",
			Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "user_id", Type: "INT"}, {Name: "address_id", Type: "INT"}, {Name: "total", Type: "DECIMAL(10,2)"}},
			ForeignKeys: []core.ForeignKey{
				{Column: "user_id", RefTable: "users"},
				{Column: "address_id", RefTable: "addresses"},
			},
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
		tags: &core.Table{
			Name:       "tags",
			PrimaryKey: "id",
			Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "label", Type: "VARCHAR(32)"}},
		},
	}

	var err error
	users := f.users
	f.user, err = core.NewEntity("User", users,
		core.ComputedProperty("shout", core.SQLExpr{Table: users, Name: "shout", Text: "UPPER({name})"}),
		core.ComputedMethod("initial", func() core.Expression {
			return core.SQLExpr{Table: users, Name: "initial", Text: "LEFT({name}, 1)"}
		}),
	)
	require.NoError(t, err)
	f.address, err = core.NewEntity("Address", f.addresses)
	require.NoError(t, err)
	f.order, err = core.NewEntity("Order", f.orders)
	require.NoError(t, err)
	f.payment, err = core.NewEntity("Payment", f.payments)
	require.NoError(t, err)
	f.tag, err = core.NewEntity("Tag", f.tags)
	require.NoError(t, err)

	f.catalog = catalog.New()
	for _, e := range []*core.Entity{f.user, f.address, f.order, f.payment, f.tag} {
		require.NoError(t, f.catalog.Register(context.Background(), e))
	}
	f.catalog.Freeze()
	return f
}
