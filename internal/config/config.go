package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable read by LoadFromEnv.
const EnvPrefix = "QUERY_FILTERS_"

// ConfigValidator is the Strategy interface for validating KV store settings.
// Each backend (Redis, DynamoDB) registers its own validator from init().
type ConfigValidator interface {
	// Validate checks only the KV store specific part of config.
	Validate(config *InternalConfig) error

	// Type returns the type identifier for this validator (e.g., "redis", "dynamodb").
	Type() string
}

var (
	validatorRegistry      = make(map[string]ConfigValidator)
	validatorRegistryMutex sync.RWMutex
)

// RegisterValidator registers a config validator.
// Panics if validator is nil, its type is empty or already registered.
func RegisterValidator(validator ConfigValidator) {
	if validator == nil {
		panic("validator cannot be nil")
	}
	if validator.Type() == "" {
		panic("validator type cannot be empty")
	}

	validatorRegistryMutex.Lock()
	defer validatorRegistryMutex.Unlock()

	if _, exists := validatorRegistry[validator.Type()]; exists {
		panic(fmt.Sprintf("validator for type %q is already registered", validator.Type()))
	}
	validatorRegistry[validator.Type()] = validator
}

// registeredValidatorTypes returns the types with a registered validator, sorted.
func registeredValidatorTypes() []string {
	validatorRegistryMutex.RLock()
	defer validatorRegistryMutex.RUnlock()

	types := make([]string, 0, len(validatorRegistry))
	for t := range validatorRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// GetValidator retrieves a validator by type.
func GetValidator(validatorType string) (ConfigValidator, bool) {
	validatorRegistryMutex.RLock()
	defer validatorRegistryMutex.RUnlock()

	validator, exists := validatorRegistry[validatorType]
	return validator, exists
}

// ConfigManager handles loading and managing configuration from various sources.
type ConfigManager struct {
	config *InternalConfig
}

// NewConfigManager creates a new configuration manager with default configuration.
func NewConfigManager() *ConfigManager {
	return &ConfigManager{
		config: DefaultInternalConfig(),
	}
}

// DefaultInternalConfig returns a configuration with sensible defaults.
func DefaultInternalConfig() *InternalConfig {
	return &InternalConfig{
		Database: InternalDatabaseConfig{
			Type:              "mysql",
			Host:              "localhost",
			Port:              3306,
			MaxOpenConns:      25,
			MaxIdleConns:      5,
			ConnMaxLifetime:   5 * time.Minute,
			ConnMaxIdleTime:   10 * time.Minute,
			ConnectionTimeout: 10 * time.Second,
		},
		Catalog: InternalCatalogConfig{
			Introspect: true,
		},
		CountCache: InternalCountCacheConfig{
			Enabled:            false,
			TTL:                30 * time.Second,
			Namespace:          "query-filters",
			MaxCountsPerSecond: 50,
			Burst:              10,
			QueryTimeout:       30 * time.Second,
			KVStore: InternalKVStoreConfig{
				Type: "redis",
				RedisConfig: InternalRedisConfig{
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

// LoadFromFile loads configuration from a YAML or JSON file.
// The file format is determined by the file extension (.yaml, .yml, or .json).
func (cm *ConfigManager) LoadFromFile(filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		return cm.LoadFromYAML(data)
	case ".json":
		return cm.LoadFromJSON(data)
	default:
		return fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json)", ext)
	}
}

// LoadFromYAML loads configuration from YAML data on top of the defaults.
func (cm *ConfigManager) LoadFromYAML(data []byte) error {
	config := DefaultInternalConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}
	return cm.Set(config)
}

// LoadFromJSON loads configuration from JSON data on top of the defaults.
// Durations are expressed in nanoseconds.
func (cm *ConfigManager) LoadFromJSON(data []byte) error {
	config := DefaultInternalConfig()
	if len(data) > 0 {
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse JSON config: %w", err)
		}
	}
	return cm.Set(config)
}

// LoadFromEnv overrides the current configuration with environment variables.
// Environment variables follow the pattern: QUERY_FILTERS_<SECTION>_<KEY>
// Examples:
//   - QUERY_FILTERS_DATABASE_HOST=localhost
//   - QUERY_FILTERS_DATABASE_PORT=3306
//   - QUERY_FILTERS_CATALOG_DEFINITIONS_FILE=entities.yaml
//   - QUERY_FILTERS_COUNT_CACHE_ENABLED=true
//   - QUERY_FILTERS_COUNT_CACHE_KVSTORE_ENDPOINTS=localhost:6379,localhost:6380
func (cm *ConfigManager) LoadFromEnv() error {
	current := *cm.config
	config := &current

	envString("DATABASE_TYPE", &config.Database.Type)
	envString("DATABASE_HOST", &config.Database.Host)
	envInt("DATABASE_PORT", &config.Database.Port)
	envString("DATABASE_DATABASE", &config.Database.Database)
	envString("DATABASE_USERNAME", &config.Database.Username)
	envString("DATABASE_PASSWORD", &config.Database.Password)
	envInt("DATABASE_MAX_OPEN_CONNS", &config.Database.MaxOpenConns)
	envInt("DATABASE_MAX_IDLE_CONNS", &config.Database.MaxIdleConns)
	envDuration("DATABASE_CONN_MAX_LIFETIME", &config.Database.ConnMaxLifetime)

	envString("DIALECT", &config.Dialect)

	envString("CATALOG_DEFINITIONS_FILE", &config.Catalog.DefinitionsFile)
	envBool("CATALOG_INTROSPECT", &config.Catalog.Introspect)

	cache := &config.CountCache
	envBool("COUNT_CACHE_ENABLED", &cache.Enabled)
	envDuration("COUNT_CACHE_TTL", &cache.TTL)
	envString("COUNT_CACHE_NAMESPACE", &cache.Namespace)
	envFloat("COUNT_CACHE_MAX_COUNTS_PER_SECOND", &cache.MaxCountsPerSecond)
	envInt("COUNT_CACHE_BURST", &cache.Burst)
	envDuration("COUNT_CACHE_QUERY_TIMEOUT", &cache.QueryTimeout)

	envString("COUNT_CACHE_KVSTORE_TYPE", &cache.KVStore.Type)
	if val := os.Getenv(EnvPrefix + "COUNT_CACHE_KVSTORE_ENDPOINTS"); val != "" {
		cache.KVStore.RedisConfig.Endpoints = strings.Split(val, ",")
	}
	envBool("COUNT_CACHE_KVSTORE_CLUSTER_MODE", &cache.KVStore.RedisConfig.ClusterMode)
	envString("COUNT_CACHE_KVSTORE_PASSWORD", &cache.KVStore.RedisConfig.Password)
	envInt("COUNT_CACHE_KVSTORE_DB", &cache.KVStore.RedisConfig.DB)
	envInt("COUNT_CACHE_KVSTORE_POOL_SIZE", &cache.KVStore.RedisConfig.PoolSize)
	envInt("COUNT_CACHE_KVSTORE_MAX_RETRIES", &cache.KVStore.MaxRetries)
	envString("COUNT_CACHE_KVSTORE_REGION", &cache.KVStore.DynamoDBConfig.Region)
	envString("COUNT_CACHE_KVSTORE_TABLE_NAME", &cache.KVStore.DynamoDBConfig.TableName)
	envString("COUNT_CACHE_KVSTORE_ENDPOINT", &cache.KVStore.DynamoDBConfig.Endpoint)

	return cm.Set(config)
}

// Set validates config and makes it current.
func (cm *ConfigManager) Set(config *InternalConfig) error {
	if err := cm.validateConfig(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	cm.config = config
	return nil
}

// GetConfig returns the current internal configuration.
func (cm *ConfigManager) GetConfig() *InternalConfig {
	return cm.config
}

// DialectName returns the SQL dialect used for rendering, falling back to
// the database type.
func (cm *ConfigManager) DialectName() string {
	if cm.config.Dialect != "" {
		return cm.config.Dialect
	}
	return cm.config.Database.Type
}

func (cm *ConfigManager) validateConfig(config *InternalConfig) error {
	if config.Database.Type == "" {
		return fmt.Errorf("database.type is required")
	}
	if config.Database.Type != "mysql" {
		return fmt.Errorf("database.type must be 'mysql'")
	}
	if config.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if config.Database.Port <= 0 || config.Database.Port > 65535 {
		return fmt.Errorf("database.port must be between 1 and 65535")
	}
	if config.Database.Database == "" {
		return fmt.Errorf("database.database is required")
	}
	if config.Database.Username == "" {
		return fmt.Errorf("database.username is required")
	}
	if config.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be greater than 0")
	}

	switch strings.ToLower(config.Dialect) {
	case "", "mysql", "postgres", "postgresql":
	default:
		return fmt.Errorf("dialect must be 'mysql' or 'postgres'")
	}

	if !config.Catalog.Introspect && config.Catalog.DefinitionsFile == "" {
		return fmt.Errorf("catalog.definitions_file is required when catalog.introspect is false")
	}

	if config.CountCache.QueryTimeout < 0 {
		return fmt.Errorf("count_cache.query_timeout must be non-negative")
	}
	if !config.CountCache.Enabled {
		return nil
	}
	if config.CountCache.TTL <= 0 {
		return fmt.Errorf("count_cache.ttl must be greater than 0")
	}
	if config.CountCache.MaxCountsPerSecond < 0 {
		return fmt.Errorf("count_cache.max_counts_per_second must be non-negative")
	}
	if config.CountCache.MaxCountsPerSecond > 0 && config.CountCache.Burst <= 0 {
		return fmt.Errorf("count_cache.burst must be greater than 0")
	}
	if config.CountCache.KVStore.Type == "" {
		return fmt.Errorf("count_cache.kvstore.type is required")
	}

	validator, exists := GetValidator(config.CountCache.KVStore.Type)
	if !exists {
		return fmt.Errorf("unsupported KV store type: %s (registered: %s)",
			config.CountCache.KVStore.Type, strings.Join(registeredValidatorTypes(), ", "))
	}
	if err := validator.Validate(config); err != nil {
		return fmt.Errorf("kvstore validation failed: %w", err)
	}
	return nil
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val == "true" || val == "1"
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
