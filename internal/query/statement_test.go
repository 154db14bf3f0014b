package query_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/query"
)

const usersColumns = "`users`.`id` AS `id`, `users`.`name` AS `name`, `users`.`age` AS `age`"

func TestStatement_Render(t *testing.T) {
	fx := newFixture()
	mysql := query.MySQLDialect{}

	t.Run("select all columns", func(t *testing.T) {
		sql, args, err := query.Select(fx.users).Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT "+usersColumns+" FROM `users`", sql)
		assert.Empty(t, args)
	})

	t.Run("implicit join follows the foreign key", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).Join(fx.addresses).Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT "+usersColumns+" FROM `users` INNER JOIN `addresses` ON `users`.`id` = `addresses`.`user_id`", sql)
	})

	t.Run("implicit join from the referencing side", func(t *testing.T) {
		sql, _, err := query.Select(fx.addresses).Join(fx.users).Render(mysql)
		require.NoError(t, err)
		assert.Contains(t, sql, "INNER JOIN `users` ON `addresses`.`user_id` = `users`.`id`")
	})

	t.Run("outer join infers the condition", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).OuterJoin(fx.addresses).Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT "+usersColumns+" FROM `users` LEFT OUTER JOIN `addresses` ON `users`.`id` = `addresses`.`user_id`", sql)
	})

	t.Run("explicit join", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).
			JoinOn(fx.payments, core.Col(fx.users, "id"), core.Col(fx.payments, "payee_id")).
			Render(mysql)
		require.NoError(t, err)
		assert.Contains(t, sql, "INNER JOIN `payments` ON `users`.`id` = `payments`.`payee_id`")
	})

	t.Run("load only keeps the primary key", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).
			Options(query.LoadOnly(fx.users, core.Col(fx.users, "name"))).
			Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `users`.`id` AS `id`, `users`.`name` AS `name` FROM `users`", sql)
	})

	t.Run("load only on a joined table", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).
			Join(fx.addresses).
			Options(
				query.LoadOnly(fx.users, core.Col(fx.users, "age")),
				query.LoadOnly(fx.addresses, core.Col(fx.addresses, "city")),
			).
			Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `users`.`id` AS `users_id`, `users`.`age` AS `users_age`, "+
			"`addresses`.`id` AS `addresses_id`, `addresses`.`city` AS `addresses_city` "+
			"FROM `users` INNER JOIN `addresses` ON `users`.`id` = `addresses`.`user_id`", sql)
	})

	t.Run("load only with computed expression", func(t *testing.T) {
		expr := core.SQLExpr{Table: fx.users, Name: "is_adult", Text: "{age} >= 18"}
		sql, _, err := query.Select(fx.users).Options(query.LoadOnly(fx.users, expr)).Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `users`.`id` AS `id`, (`users`.`age` >= 18) AS `is_adult` FROM `users`", sql)
	})

	t.Run("eager load uses an anonymous alias", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).Options(query.Eager(fx.addresses)).Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT `users`.`id` AS `users_id`, `users`.`name` AS `users_name`, `users`.`age` AS `users_age`, "+
			"`addresses_1`.`id` AS `addresses_1_id`, `addresses_1`.`user_id` AS `addresses_1_user_id`, `addresses_1`.`city` AS `addresses_1_city` "+
			"FROM `users` LEFT OUTER JOIN `addresses` AS `addresses_1` ON `users`.`id` = `addresses_1`.`user_id`", sql)
	})

	t.Run("where, limit and offset for postgres", func(t *testing.T) {
		sql, args, err := query.Select(fx.users).
			Where(core.Col(fx.users, "age"), ">", 18).
			Where(core.Col(fx.users, "id"), "IN", []int{1, 2}).
			Where(core.Col(fx.users, "name"), "IS NOT", nil).
			Limit(10).
			Offset(20).
			Render(query.PostgresDialect{})
		require.NoError(t, err)
		assert.Equal(t, `SELECT "users"."id" AS "id", "users"."name" AS "name", "users"."age" AS "age" FROM "users" `+
			`WHERE "users"."age" > $1 AND "users"."id" IN ($2, $3) AND "users"."name" IS NOT NULL LIMIT 10 OFFSET 20`, sql)
		assert.Equal(t, []interface{}{18, 1, 2}, args)
	})

	t.Run("in with an empty list matches nothing", func(t *testing.T) {
		sql, args, err := query.Select(fx.users).
			Where(core.Col(fx.users, "id"), "IN", []int{}).
			Where(core.Col(fx.users, "age"), ">", 18).
			Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT "+usersColumns+" FROM `users` WHERE 1 = 0 AND `users`.`age` > ?", sql)
		assert.Equal(t, []interface{}{18}, args)
	})

	t.Run("mysql offset without limit", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).Offset(5).Render(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT "+usersColumns+" FROM `users` LIMIT 18446744073709551615 OFFSET 5", sql)
	})

	t.Run("count ignores paging and options", func(t *testing.T) {
		sql, _, err := query.Select(fx.users).
			Options(query.LoadOnly(fx.users, core.Col(fx.users, "name"))).
			Limit(5).
			Offset(10).
			RenderCount(mysql)
		require.NoError(t, err)
		assert.Equal(t, "SELECT COUNT(*) FROM (SELECT "+usersColumns+" FROM `users`) AS count_subquery", sql)
	})
}

func TestStatement_Compile_Errors(t *testing.T) {
	fx := newFixture()

	cases := map[string]query.Statement{
		"no foreign key path":    query.Select(fx.users).Join(fx.tags),
		"ambiguous path":         query.Select(fx.users).Join(fx.payments),
		"ambiguous across lefts": query.Select(fx.users, fx.addresses).Join(fx.orders),
		"table already present":  query.Select(fx.users).Join(fx.users),
		"empty statement":        query.Statement{},
		"eager without path":     query.Select(fx.users).Options(query.Eager(fx.tags)),
	}

	for name, stmt := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := stmt.Compile()
			assert.ErrorIs(t, err, core.ErrInvalidRequest)
		})
	}

	t.Run("unsupported operator", func(t *testing.T) {
		_, err := query.Select(fx.users).Where(core.Col(fx.users, "age"), "~", 1).Compile()
		assert.ErrorContains(t, err, `unsupported operator "~"`)
	})
}

func TestStatement_Tables(t *testing.T) {
	fx := newFixture()

	t.Run("from, columns, where and joins", func(t *testing.T) {
		stmt := query.Statement{}.
			Columns(core.Col(fx.users, "name")).
			Where(core.Col(fx.tags, "label"), "=", "x").
			Join(fx.addresses)
		assert.Equal(t, []*core.Table{fx.users, fx.tags, fx.addresses}, stmt.Tables())
	})

	t.Run("eager targets are transparent", func(t *testing.T) {
		stmt := query.Select(fx.users).Options(query.Eager(fx.addresses))
		assert.Equal(t, []*core.Table{fx.users}, stmt.Tables())
	})

	t.Run("duplicates are removed", func(t *testing.T) {
		stmt := query.Select(fx.users, fx.users).Columns(core.Col(fx.users, "id"))
		assert.Equal(t, []*core.Table{fx.users}, stmt.Tables())
	})
}

func TestStatement_IsImmutable(t *testing.T) {
	fx := newFixture()
	base := query.Select(fx.users)

	joined := base.Join(fx.addresses).Options(query.LoadOnly(fx.users)).Limit(3).Offset(1)

	assert.Equal(t, []*core.Table{fx.users}, base.Tables())
	assert.Empty(t, base.LoaderOptions())
	_, hasLimit := base.LimitValue()
	assert.False(t, hasLimit)
	_, hasOffset := base.OffsetValue()
	assert.False(t, hasOffset)

	limit, ok := joined.LimitValue()
	require.True(t, ok)
	assert.Equal(t, 3, limit)
	assert.Len(t, joined.Joins(), 1)

	// appending to two branches of the same base must not share storage
	a := base.Join(fx.addresses)
	b := base.Join(fx.orders)
	assert.Equal(t, fx.addresses, a.Joins()[0].Target)
	assert.Equal(t, fx.orders, b.Joins()[0].Target)
}

func TestDialectByName(t *testing.T) {
	d, err := query.DialectByName("postgresql")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = query.DialectByName("")
	require.NoError(t, err)
	assert.Equal(t, "mysql", d.Name())

	_, err = query.DialectByName("oracle")
	assert.Error(t, err)
}
