package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubValidator struct{}

func (stubValidator) Type() string { return "stub" }

func (stubValidator) Validate(config *InternalConfig) error {
	if config.CountCache.Namespace == "forbidden" {
		return errors.New("namespace is forbidden")
	}
	return nil
}

func init() {
	RegisterValidator(stubValidator{})
}

const baseYAML = `
database:
  host: db.internal
  port: 3307
  database: shop
  username: reader
`

func TestConfigManager_LoadFromYAML(t *testing.T) {
	cm := NewConfigManager()
	err := cm.LoadFromYAML([]byte(baseYAML + `
dialect: postgres
catalog:
  definitions_file: entities.yaml
  introspect: false
count_cache:
  enabled: true
  ttl: 2m
  namespace: shop
  max_counts_per_second: 5
  burst: 2
  kvstore:
    type: stub
`))
	require.NoError(t, err)

	cfg := cm.GetConfig()
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 3307, cfg.Database.Port)
	assert.Equal(t, 25, cfg.Database.MaxOpenConns, "defaults survive partial documents")
	assert.Equal(t, "entities.yaml", cfg.Catalog.DefinitionsFile)
	assert.False(t, cfg.Catalog.Introspect)
	assert.True(t, cfg.CountCache.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.CountCache.TTL)
	assert.Equal(t, "stub", cfg.CountCache.KVStore.Type)
	assert.Equal(t, "postgres", cm.DialectName())
}

func TestConfigManager_LoadFromJSON(t *testing.T) {
	cm := NewConfigManager()
	err := cm.LoadFromJSON([]byte(`{"database": {"host": "h", "database": "d", "username": "u"}}`))
	require.NoError(t, err)
	assert.Equal(t, "mysql", cm.DialectName())
	assert.Equal(t, 3306, cm.GetConfig().Database.Port)
}

func TestConfigManager_LoadFromFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(baseYAML), 0o600))
	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromFile(path))
	assert.Equal(t, "shop", cm.GetConfig().Database.Database)

	bad := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(bad, []byte(""), 0o600))
	assert.ErrorContains(t, cm.LoadFromFile(bad), "unsupported config file format")

	assert.ErrorContains(t, cm.LoadFromFile(filepath.Join(dir, "missing.yaml")), "failed to read config file")
}

func TestConfigManager_LoadFromEnv(t *testing.T) {
	t.Setenv("QUERY_FILTERS_DATABASE_HOST", "env-host")
	t.Setenv("QUERY_FILTERS_DATABASE_PORT", "13306")
	t.Setenv("QUERY_FILTERS_DATABASE_DATABASE", "shop")
	t.Setenv("QUERY_FILTERS_DATABASE_USERNAME", "reader")
	t.Setenv("QUERY_FILTERS_CATALOG_INTROSPECT", "1")
	t.Setenv("QUERY_FILTERS_COUNT_CACHE_ENABLED", "true")
	t.Setenv("QUERY_FILTERS_COUNT_CACHE_TTL", "45s")
	t.Setenv("QUERY_FILTERS_COUNT_CACHE_KVSTORE_TYPE", "stub")
	t.Setenv("QUERY_FILTERS_COUNT_CACHE_KVSTORE_ENDPOINTS", "a:6379,b:6379")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromEnv())

	cfg := cm.GetConfig()
	assert.Equal(t, "env-host", cfg.Database.Host)
	assert.Equal(t, 13306, cfg.Database.Port)
	assert.Equal(t, 45*time.Second, cfg.CountCache.TTL)
	assert.Equal(t, []string{"a:6379", "b:6379"}, cfg.CountCache.KVStore.RedisConfig.Endpoints)
}

func TestConfigManager_LoadFromEnv_OverridesLoaded(t *testing.T) {
	t.Setenv("QUERY_FILTERS_DATABASE_PORT", "13306")
	t.Setenv("QUERY_FILTERS_COUNT_CACHE_NAMESPACE", "env-ns")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromYAML([]byte(baseYAML)))
	require.NoError(t, cm.LoadFromEnv())

	cfg := cm.GetConfig()
	assert.Equal(t, "db.internal", cfg.Database.Host, "values from YAML survive")
	assert.Equal(t, "shop", cfg.Database.Database)
	assert.Equal(t, 13306, cfg.Database.Port)
	assert.Equal(t, "env-ns", cfg.CountCache.Namespace)
}

func TestConfigManager_LoadFromEnv_Invalid(t *testing.T) {
	t.Setenv("QUERY_FILTERS_DATABASE_TYPE", "postgresql")

	cm := NewConfigManager()
	require.NoError(t, cm.LoadFromYAML([]byte(baseYAML)))
	assert.ErrorContains(t, cm.LoadFromEnv(), "database.type must be 'mysql'")
	assert.Equal(t, "mysql", cm.GetConfig().Database.Type, "rejected overrides are not applied")
}

func TestConfigManager_Validation(t *testing.T) {
	valid := func() *InternalConfig {
		cfg := DefaultInternalConfig()
		cfg.Database.Database = "shop"
		cfg.Database.Username = "reader"
		cfg.CountCache.Enabled = true
		cfg.CountCache.KVStore.Type = "stub"
		return cfg
	}

	cases := map[string]struct {
		mutate  func(*InternalConfig)
		wantErr string
	}{
		"valid":               {mutate: func(*InternalConfig) {}},
		"postgres database":   {mutate: func(c *InternalConfig) { c.Database.Type = "postgresql" }, wantErr: "database.type must be 'mysql'"},
		"missing host":        {mutate: func(c *InternalConfig) { c.Database.Host = "" }, wantErr: "database.host is required"},
		"bad port":            {mutate: func(c *InternalConfig) { c.Database.Port = 70000 }, wantErr: "database.port"},
		"missing database":    {mutate: func(c *InternalConfig) { c.Database.Database = "" }, wantErr: "database.database is required"},
		"unknown dialect":     {mutate: func(c *InternalConfig) { c.Dialect = "oracle" }, wantErr: "dialect must be"},
		"no catalog source":   {mutate: func(c *InternalConfig) { c.Catalog.Introspect = false }, wantErr: "catalog.definitions_file is required"},
		"zero ttl":            {mutate: func(c *InternalConfig) { c.CountCache.TTL = 0 }, wantErr: "count_cache.ttl"},
		"zero burst":          {mutate: func(c *InternalConfig) { c.CountCache.Burst = 0 }, wantErr: "count_cache.burst"},
		"negative timeout":    {mutate: func(c *InternalConfig) { c.CountCache.QueryTimeout = -time.Second }, wantErr: "count_cache.query_timeout"},
		"unknown kvstore":     {mutate: func(c *InternalConfig) { c.CountCache.KVStore.Type = "memcached" }, wantErr: "unsupported KV store type: memcached (registered: stub)"},
		"validator rejects":   {mutate: func(c *InternalConfig) { c.CountCache.Namespace = "forbidden" }, wantErr: "namespace is forbidden"},
		"cache disabled skip": {mutate: func(c *InternalConfig) { c.CountCache.Enabled = false; c.CountCache.KVStore.Type = "memcached" }},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := valid()
			tc.mutate(cfg)
			err := NewConfigManager().Set(cfg)
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestRegisterValidator_Panics(t *testing.T) {
	assert.Panics(t, func() { RegisterValidator(nil) })
	assert.Panics(t, func() { RegisterValidator(stubValidator{}) }, "duplicate type")
}
