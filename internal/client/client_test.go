package client

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/database"
	"github.com/rzpsarthak13/query-filters/internal/kvstore"
	"github.com/rzpsarthak13/query-filters/internal/pagination"
	"github.com/rzpsarthak13/query-filters/internal/schema"
)

const definitionsYAML = `
tables:
  - name: users
    primary_key: id
    columns:
      - {name: id, type: INT}
      - {name: name, type: VARCHAR(64)}
  - name: addresses
    primary_key: id
    columns:
      - {name: id, type: INT}
      - {name: user_id, type: INT}
      - {name: city, type: VARCHAR(64)}
    foreign_keys:
      - {column: user_id, ref_table: users}
entities:
  - name: User
    table: users
    computed:
      - {name: shout, sql: "UPPER({name})"}
  - name: Address
    table: addresses
`

type yamlProvider string

func (p yamlProvider) GetYAML() ([]byte, error) { return []byte(p), nil }

func writeDefinitions(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "entities.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func configYAML(definitionsFile string, introspect bool, redisAddr string) string {
	return fmt.Sprintf(`
database:
  host: localhost
  database: app
  username: app
catalog:
  definitions_file: %q
  introspect: %t
count_cache:
  enabled: %t
  ttl: 1m
  namespace: qf
  kvstore:
    type: redis
    redis_config:
      endpoints: [%q]
`, definitionsFile, introspect, redisAddr != "", redisAddr)
}

func newTestClient(t *testing.T) (*ClientImpl, sqlmock.Sqlmock, *miniredis.Miniredis) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	mr := miniredis.RunT(t)

	c, err := NewClientImplWithDependencies(context.Background(),
		yamlProvider(configYAML(writeDefinitions(t, definitionsYAML), false, mr.Addr())),
		Dependencies{
			Database: database.NewMySQLDatabaseFromDB(db),
			KVStore:  kvstore.NewRedisKVStoreFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})),
		})
	require.NoError(t, err)
	return c, mock, mr
}

func TestClient_Catalog(t *testing.T) {
	c, _, _ := newTestClient(t)

	assert.Equal(t, []string{"User", "Address"}, c.Catalog().List())
	assert.True(t, c.Catalog().Frozen())
	assert.Equal(t, "mysql", c.Dialect().Name())
	assert.Equal(t, "qf", c.Config().CountCache.Namespace)
}

func TestClient_EnvironmentOverrides(t *testing.T) {
	t.Setenv("QUERY_FILTERS_COUNT_CACHE_NAMESPACE", "env-qf")
	t.Setenv("QUERY_FILTERS_COUNT_CACHE_QUERY_TIMEOUT", "5s")

	c, _, _ := newTestClient(t)
	assert.Equal(t, "env-qf", c.Config().CountCache.Namespace)
	assert.Equal(t, 5*time.Second, c.Config().CountCache.QueryTimeout)
	assert.Equal(t, "app", c.Config().Database.Database, "YAML values without an override are kept")
}

func TestClient_Select(t *testing.T) {
	c, _, _ := newTestClient(t)

	stmt, err := c.Select("User", "Address")
	require.NoError(t, err)
	assert.Len(t, stmt.Tables(), 2)

	_, err = c.Select("Qux")
	require.ErrorIs(t, err, core.ErrBadQuery)
	assert.EqualError(t, err, "bad query: unknown model `Qux`")

	_, err = c.Select()
	assert.ErrorIs(t, err, core.ErrBadQuery)
}

func TestClient_LoadPaginateFetch(t *testing.T) {
	c, mock, mr := newTestClient(t)
	ctx := context.Background()

	stmt, err := c.Select("User")
	require.NoError(t, err)
	stmt, err = c.ApplyLoads(stmt, []interface{}{
		map[string]interface{}{"fields": []interface{}{"name", "shout"}},
		map[string]interface{}{"model": "Address", "fields": []interface{}{"city"}},
	})
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT(*) FROM (SELECT `users`.`id` AS `id`, `users`.`name` AS `name` " +
		"FROM `users` INNER JOIN `addresses` ON `users`.`id` = `addresses`.`user_id`) AS count_subquery").
		WillReturnRows(sqlmock.NewRows([]string{"COUNT(*)"}).AddRow(3))

	paged, p, err := c.Paginate(ctx, stmt, lo.ToPtr(2), lo.ToPtr(1))
	require.NoError(t, err)
	assert.Equal(t, pagination.Pagination{PageNumber: 2, PageSize: 1, NumPages: 3, TotalResults: 3}, p)

	mock.ExpectQuery("SELECT `users`.`id` AS `users_id`, `users`.`name` AS `users_name`, " +
		"(UPPER(`users`.`name`)) AS `users_shout`, `addresses`.`id` AS `addresses_id`, " +
		"`addresses`.`city` AS `addresses_city` FROM `users` INNER JOIN `addresses` " +
		"ON `users`.`id` = `addresses`.`user_id` LIMIT 1 OFFSET 1").
		WillReturnRows(sqlmock.NewRows([]string{"users_id", "users_name", "users_shout", "addresses_id", "addresses_city"}).
			AddRow(2, "bob", "BOB", 7, "Paris"))

	records, err := c.Fetch(ctx, paged)
	require.NoError(t, err)
	assert.Equal(t, []schema.Record{{
		"users_id":       int64(2),
		"users_name":     "bob",
		"users_shout":    "BOB",
		"addresses_id":   int64(7),
		"addresses_city": "Paris",
	}}, records)

	// the total is served from the count cache the second time
	_, p, err = c.Paginate(ctx, stmt, lo.ToPtr(3), lo.ToPtr(1))
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalResults)
	assert.Equal(t, pagination.CounterStats{CacheHits: 1, CacheMisses: 1, Queries: 1}, c.CounterStats())
	assert.Len(t, mr.Keys(), 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_ApplyPagination(t *testing.T) {
	c, _, _ := newTestClient(t)

	stmt, err := c.Select("Address")
	require.NoError(t, err)

	_, p, err := c.ApplyPagination(stmt, nil, lo.ToPtr(10), 22)
	require.NoError(t, err)
	assert.Equal(t, 3, p.NumPages)

	_, _, err = c.ApplyPagination(stmt, lo.ToPtr(0), nil, 22)
	assert.ErrorIs(t, err, core.ErrInvalidPage)
}

func TestClient_FetchErrors(t *testing.T) {
	c, mock, _ := newTestClient(t)
	ctx := context.Background()

	stmt, err := c.Select("User")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT `users`.`id` AS `id`, `users`.`name` AS `name` FROM `users`").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	_, err = c.Fetch(ctx, stmt)
	assert.ErrorContains(t, err, "result has 1 columns, expected 2")

	users, _ := c.Catalog().Table("users")
	_, err = c.Fetch(ctx, stmt.Join(users))
	assert.ErrorIs(t, err, core.ErrInvalidRequest)
}

func TestClient_Close(t *testing.T) {
	c, mock, _ := newTestClient(t)
	mock.ExpectClose()

	stmt, err := c.Select("User")
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "closing twice is a no-op")

	_, err = c.Select("User")
	assert.EqualError(t, err, "client is closed")
	_, err = c.ApplyLoads(stmt, []string{"name"})
	assert.EqualError(t, err, "client is closed")
	_, _, err = c.ApplyPagination(stmt, nil, nil, 10)
	assert.EqualError(t, err, "client is closed")
	_, err = c.Fetch(context.Background(), stmt)
	assert.EqualError(t, err, "client is closed")
	_, _, err = c.Paginate(context.Background(), stmt, nil, nil)
	assert.EqualError(t, err, "client is closed")
	_, err = c.Count(context.Background(), stmt)
	assert.EqualError(t, err, "client is closed")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClient_IntrospectedCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery("FROM INFORMATION_SCHEMA.TABLES").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).AddRow("addresses").AddRow("users"))
	mock.ExpectQuery("FROM INFORMATION_SCHEMA.COLUMNS").WithArgs("addresses").WillReturnRows(
		sqlmock.NewRows([]string{"COLUMN_NAME", "COLUMN_TYPE", "IS_NULLABLE", "COLUMN_DEFAULT", "COLUMN_KEY"}).
			AddRow("id", "int", "NO", nil, "PRI").
			AddRow("user_id", "int", "NO", nil, "MUL").
			AddRow("city", "varchar(64)", "YES", nil, ""))
	mock.ExpectQuery("FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE").WithArgs("addresses").WillReturnRows(
		sqlmock.NewRows([]string{"CONSTRAINT_NAME", "COLUMN_NAME", "REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME"}).
			AddRow("fk_addresses_user", "user_id", "users", "id"))
	mock.ExpectQuery("FROM INFORMATION_SCHEMA.STATISTICS").WithArgs("addresses").WillReturnRows(
		sqlmock.NewRows([]string{"INDEX_NAME", "COLUMN_NAME", "NON_UNIQUE"}).AddRow("PRIMARY", "id", 0))

	defs := `
tables:
  - name: users
    primary_key: id
    columns:
      - {name: id, type: INT}
      - {name: name, type: VARCHAR(64)}
entities:
  - name: User
    table: users
`
	c, err := NewClientImplWithDependencies(context.Background(),
		yamlProvider(configYAML(writeDefinitions(t, defs), true, "")),
		Dependencies{Database: database.NewMySQLDatabaseFromDB(db)})
	require.NoError(t, err)

	assert.Equal(t, []string{"User", "addresses"}, c.Catalog().List())

	stmt, err := c.Select("User")
	require.NoError(t, err)
	stmt, err = c.ApplyLoads(stmt, []interface{}{
		map[string]interface{}{"model": "addresses", "fields": []interface{}{"city"}},
	})
	require.NoError(t, err)
	assert.Len(t, stmt.Joins(), 1)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewClientImpl_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewClientImplWithDependencies(ctx, nil, Dependencies{})
	assert.ErrorContains(t, err, "config provider cannot be nil")

	_, err = NewClientImplWithDependencies(ctx, yamlProvider("database: {host: localhost}"), Dependencies{})
	assert.ErrorContains(t, err, "failed to load config")

	path := writeDefinitions(t, definitionsYAML)
	_, err = NewClientImplWithDependencies(ctx, yamlProvider(configYAML(path, false, "")), Dependencies{})
	assert.ErrorContains(t, err, "database cannot be nil")

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	_, err = NewClientImplWithDependencies(ctx,
		yamlProvider(configYAML(filepath.Join(t.TempDir(), "missing.yaml"), false, "")),
		Dependencies{Database: database.NewMySQLDatabaseFromDB(db)})
	assert.ErrorContains(t, err, "failed to build catalog")

	_, err = NewClientImpl(ctx, nil)
	assert.Error(t, err)
}
