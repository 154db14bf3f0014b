package queryfilters

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/query-filters/internal/config"
)

// Config represents the root configuration for the query-filters client.
type Config struct {
	// Database contains configuration for the MySQL database statements run against.
	Database DatabaseConfig `yaml:"database" json:"database"`

	// Dialect selects the SQL flavor statements are rendered in ("mysql" or
	// "postgres"). Defaults to the database type.
	Dialect string `yaml:"dialect,omitempty" json:"dialect,omitempty"`

	// Catalog controls how the entity catalog is built.
	Catalog CatalogConfig `yaml:"catalog" json:"catalog"`

	// CountCache controls caching of pagination totals.
	CountCache CountCacheConfig `yaml:"count_cache" json:"count_cache"`
}

// LoadConfigFile reads a YAML (.yaml, .yml) or JSON (.json) configuration file
// on top of the defaults. Durations in JSON files are in nanoseconds. The
// result is validated.
func LoadConfigFile(path string) (*Config, error) {
	configMgr := config.NewConfigManager()
	if err := configMgr.LoadFromFile(path); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(configMgr.GetConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to convert config: %w", err)
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to convert config: %w", err)
	}
	return cfg, nil
}

// DatabaseConfig contains configuration for the persistent database.
type DatabaseConfig struct {
	// Type specifies the database type. Currently supports "mysql".
	Type string `yaml:"type" json:"type"`

	// Host is the database host address.
	Host string `yaml:"host" json:"host"`

	// Port is the database port number.
	Port int `yaml:"port" json:"port"`

	// Database is the database name.
	Database string `yaml:"database" json:"database"`

	// Username is the database username.
	Username string `yaml:"username" json:"username"`

	// Password is the database password.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// MaxOpenConns is the maximum number of open connections to the database.
	MaxOpenConns int `yaml:"max_open_conns,omitempty" json:"max_open_conns,omitempty"`

	// MaxIdleConns is the maximum number of idle connections in the pool.
	MaxIdleConns int `yaml:"max_idle_conns,omitempty" json:"max_idle_conns,omitempty"`

	// ConnMaxLifetime is the maximum amount of time a connection may be reused.
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime,omitempty" json:"conn_max_lifetime,omitempty"`

	// ConnMaxIdleTime is the maximum amount of time a connection may be idle.
	ConnMaxIdleTime time.Duration `yaml:"conn_max_idle_time,omitempty" json:"conn_max_idle_time,omitempty"`

	// ConnectionTimeout is the timeout for establishing database connections.
	ConnectionTimeout time.Duration `yaml:"connection_timeout,omitempty" json:"connection_timeout,omitempty"`
}

// CatalogConfig controls where entity definitions come from.
type CatalogConfig struct {
	// DefinitionsFile is a YAML or JSON file declaring entities, their
	// computed fields and optionally their tables.
	DefinitionsFile string `yaml:"definitions_file,omitempty" json:"definitions_file,omitempty"`

	// Introspect maps every database table not covered by DefinitionsFile
	// to an entity named after the table.
	Introspect bool `yaml:"introspect" json:"introspect"`
}

// CountCacheConfig contains configuration for caching total result counts.
type CountCacheConfig struct {
	// Enabled turns on caching of totals in the KV store.
	Enabled bool `yaml:"enabled" json:"enabled"`

	// TTL is how long a cached total stays valid.
	TTL time.Duration `yaml:"ttl" json:"ttl"`

	// Namespace prefixes cache keys: {namespace}:count:{fingerprint}
	Namespace string `yaml:"namespace" json:"namespace"`

	// MaxCountsPerSecond limits COUNT queries sent to the database. Zero disables the limit.
	MaxCountsPerSecond float64 `yaml:"max_counts_per_second" json:"max_counts_per_second"`

	// Burst is the number of COUNT queries allowed at once above the rate.
	Burst int `yaml:"burst" json:"burst"`

	// QueryTimeout bounds a COUNT query shared by concurrent callers. Zero disables the bound.
	QueryTimeout time.Duration `yaml:"query_timeout" json:"query_timeout"`

	// KVStore configures the cache backend.
	KVStore KVStoreConfig `yaml:"kvstore" json:"kvstore"`
}

// KVStoreConfig contains configuration for the key-value store.
type KVStoreConfig struct {
	// Type specifies the KV store type: "redis" or "dynamodb".
	Type string `yaml:"type" json:"type"`

	// RedisConfig is used when Type is "redis".
	RedisConfig RedisConfig `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`

	// DynamoDBConfig is used when Type is "dynamodb".
	DynamoDBConfig DynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`

	// MaxRetries is the maximum number of retries for failed operations.
	MaxRetries int `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`

	// DialTimeout is the timeout for establishing connections.
	DialTimeout time.Duration `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`

	// ReadTimeout is the timeout for read operations.
	ReadTimeout time.Duration `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`

	// WriteTimeout is the timeout for write operations.
	WriteTimeout time.Duration `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// RedisConfig contains Redis connection settings.
type RedisConfig struct {
	// Endpoints is a list of Redis endpoints.
	// For single-node Redis, use a single endpoint.
	// For cluster mode, provide all cluster endpoints.
	Endpoints []string `yaml:"endpoints" json:"endpoints"`

	// ClusterMode indicates whether to use Redis cluster mode.
	ClusterMode bool `yaml:"cluster_mode" json:"cluster_mode"`

	// Password is the authentication password for Redis.
	Password string `yaml:"password,omitempty" json:"password,omitempty"`

	// DB is the Redis database number (0-15). Only used in non-cluster mode.
	DB int `yaml:"db,omitempty" json:"db,omitempty"`

	// PoolSize is the connection pool size per node.
	PoolSize int `yaml:"pool_size,omitempty" json:"pool_size,omitempty"`

	// MinIdleConns is the minimum number of idle connections in the pool.
	MinIdleConns int `yaml:"min_idle_conns,omitempty" json:"min_idle_conns,omitempty"`
}

// DynamoDBConfig contains DynamoDB settings.
type DynamoDBConfig struct {
	Region    string `yaml:"region" json:"region"`
	TableName string `yaml:"table_name" json:"table_name"`

	// Endpoint overrides the service endpoint, e.g. for DynamoDB Local.
	Endpoint string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`

	// Static credentials. When empty the default AWS credential chain is used.
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Type:              "mysql",
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Catalog: CatalogConfig{
			Introspect: true,
		},
		CountCache: CountCacheConfig{
			Enabled:            false,
			TTL:                30 * time.Second,
			Namespace:          "query-filters",
			MaxCountsPerSecond: 50,
			Burst:              10,
			QueryTimeout:       30 * time.Second,
			KVStore: KVStoreConfig{
				Type: "redis",
				RedisConfig: RedisConfig{
					Endpoints:    []string{"localhost:6379"},
					PoolSize:     10,
					MinIdleConns: 5,
				},
				MaxRetries:   3,
				DialTimeout:  5 * time.Second,
				ReadTimeout:  3 * time.Second,
				WriteTimeout: 3 * time.Second,
			},
		},
	}
}
