package config

import (
	"time"
)

// InternalConfig represents the internal configuration structure.
// The public queryfilters.Config is converted into this type so the internal
// packages never import the public API.
type InternalConfig struct {
	Database   InternalDatabaseConfig   `yaml:"database" json:"database"`
	Dialect    string                   `yaml:"dialect" json:"dialect"`
	Catalog    InternalCatalogConfig    `yaml:"catalog" json:"catalog"`
	CountCache InternalCountCacheConfig `yaml:"count_cache" json:"count_cache"`
}

// InternalDatabaseConfig contains configuration for the queried database.
type InternalDatabaseConfig struct {
	Type              string        `yaml:"type" json:"type"`
	Host              string        `yaml:"host" json:"host"`
	Port              int           `yaml:"port" json:"port"`
	Database          string        `yaml:"database" json:"database"`
	Username          string        `yaml:"username" json:"username"`
	Password          string        `yaml:"password" json:"password"`
	MaxOpenConns      int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns      int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime   time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime   time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	ConnectionTimeout time.Duration `yaml:"connection_timeout" json:"connection_timeout"`
}

// InternalCatalogConfig controls how the entity catalog is built.
type InternalCatalogConfig struct {
	// DefinitionsFile is a YAML or JSON file declaring entities and,
	// optionally, their tables.
	DefinitionsFile string `yaml:"definitions_file" json:"definitions_file"`

	// Introspect fills in tables not declared inline from the database.
	Introspect bool `yaml:"introspect" json:"introspect"`
}

// InternalCountCacheConfig configures caching and throttling of the
// COUNT queries issued for pagination.
type InternalCountCacheConfig struct {
	Enabled            bool                  `yaml:"enabled" json:"enabled"`
	TTL                time.Duration         `yaml:"ttl" json:"ttl"`
	Namespace          string                `yaml:"namespace" json:"namespace"`
	MaxCountsPerSecond float64               `yaml:"max_counts_per_second" json:"max_counts_per_second"`
	Burst              int                   `yaml:"burst" json:"burst"`
	QueryTimeout       time.Duration         `yaml:"query_timeout" json:"query_timeout"`
	KVStore            InternalKVStoreConfig `yaml:"kvstore" json:"kvstore"`
}

// InternalKVStoreConfig contains configuration for the key-value store
// backing the count cache.
type InternalKVStoreConfig struct {
	Type           string                 `yaml:"type" json:"type"`
	RedisConfig    InternalRedisConfig    `yaml:"redis_config,omitempty" json:"redis_config,omitempty"`
	DynamoDBConfig InternalDynamoDBConfig `yaml:"dynamodb_config,omitempty" json:"dynamodb_config,omitempty"`
	MaxRetries     int                    `yaml:"max_retries,omitempty" json:"max_retries,omitempty"`
	DialTimeout    time.Duration          `yaml:"dial_timeout,omitempty" json:"dial_timeout,omitempty"`
	ReadTimeout    time.Duration          `yaml:"read_timeout,omitempty" json:"read_timeout,omitempty"`
	WriteTimeout   time.Duration          `yaml:"write_timeout,omitempty" json:"write_timeout,omitempty"`
}

// InternalRedisConfig contains Redis-specific configuration.
type InternalRedisConfig struct {
	Endpoints    []string `yaml:"endpoints" json:"endpoints"`
	ClusterMode  bool     `yaml:"cluster_mode" json:"cluster_mode"`
	Password     string   `yaml:"password" json:"password"`
	DB           int      `yaml:"db" json:"db"`
	PoolSize     int      `yaml:"pool_size" json:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// InternalDynamoDBConfig contains DynamoDB-specific configuration.
type InternalDynamoDBConfig struct {
	Region          string `yaml:"region" json:"region"`
	TableName       string `yaml:"table_name" json:"table_name"`
	Endpoint        string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	AccessKeyID     string `yaml:"access_key_id,omitempty" json:"access_key_id,omitempty"`
	SecretAccessKey string `yaml:"secret_access_key,omitempty" json:"secret_access_key,omitempty"`
}
