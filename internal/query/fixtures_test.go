package query_test

import (
	"github.com/rzpsarthak13/query-filters/internal/core"
)

type fixture struct {
	users, addresses, orders, payments, tags *core.Table
}

func newFixture() fixture {
	users := &core.Table{
		Name:       "users",
		PrimaryKey: "id",
		Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "name", Type: "VARCHAR(64)"}, {Name: "age", Type: "INT"}},
	}
	addresses := &core.Table{
		Name:        "addresses",
		PrimaryKey:  "id",
		Columns:     []core.Column{{Name: "id", Type: "INT"}, {Name: "user_id", Type: "INT"}, {Name: "city", Type: "VARCHAR(64)"}},
		ForeignKeys: []core.ForeignKey{{Column: "user_id", RefTable: "users"}},
	}
	orders := &core.Table{
		Name:       "orders",
		PrimaryKey: "id",
		Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "user_id", Type: "INT"}, {Name: "address_id", Type: "INT"}},
		ForeignKeys: []core.ForeignKey{
			{Column: "user_id", RefTable: "users", RefColumn: "id"},
			{Column: "address_id", RefTable: "addresses", RefColumn: "id"},
		},
	}
	payments := &core.Table{
		Name:       "payments",
		PrimaryKey: "id",
		Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "payer_id", Type: "INT"}, {Name: "payee_id", Type: "INT"}},
		ForeignKeys: []core.ForeignKey{
			{Column: "payer_id", RefTable: "users"},
			{Column: "payee_id", RefTable: "users"},
		},
	}
	tags := &core.Table{
		Name:       "tags",
		PrimaryKey: "id",
		Columns:    []core.Column{{Name: "id", Type: "INT"}, {Name: "label", Type: "VARCHAR(32)"}},
	}
	return fixture{users: users, addresses: addresses, orders: orders, payments: payments, tags: tags}
}
