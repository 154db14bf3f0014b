package kvstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/rzpsarthak13/query-filters/internal/config"
	"github.com/rzpsarthak13/query-filters/internal/core"
)

// KVStoreFactory is the Strategy interface for creating KV store implementations.
// Each backend (Redis, DynamoDB) implements it and registers itself from init().
type KVStoreFactory interface {
	// Create creates a new KV store instance based on the provided configuration.
	Create(cfg config.InternalKVStoreConfig) (core.KVStore, error)

	// Type returns the type identifier for this factory (e.g., "redis", "dynamodb").
	Type() string

	// Validate validates the configuration specific to this KV store type.
	Validate(cfg config.InternalKVStoreConfig) error
}

var (
	factoryRegistry = make(map[string]KVStoreFactory)
	registryMutex   sync.RWMutex
)

// RegisterFactory registers a KV store factory and a matching config
// validator, so configurations naming the type are validated on load.
func RegisterFactory(factory KVStoreFactory) {
	if factory == nil {
		panic("factory cannot be nil")
	}
	if factory.Type() == "" {
		panic("factory type cannot be empty")
	}

	registryMutex.Lock()
	defer registryMutex.Unlock()

	if _, exists := factoryRegistry[factory.Type()]; exists {
		panic(fmt.Sprintf("factory for type %q is already registered", factory.Type()))
	}
	factoryRegistry[factory.Type()] = factory
	config.RegisterValidator(factoryValidator{factory: factory})
}

// factoryValidator exposes a factory's validation as a config.ConfigValidator.
type factoryValidator struct {
	factory KVStoreFactory
}

func (v factoryValidator) Type() string { return v.factory.Type() }

func (v factoryValidator) Validate(cfg *config.InternalConfig) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	return v.factory.Validate(cfg.CountCache.KVStore)
}

// Create creates a KV store instance using the factory registered for cfg.Type.
func Create(cfg config.InternalKVStoreConfig) (core.KVStore, error) {
	if cfg.Type == "" {
		return nil, fmt.Errorf("kvstore type is required")
	}

	if !IsTypeRegistered(cfg.Type) {
		return nil, fmt.Errorf("unsupported KV store type: %s (registered: %s)", cfg.Type, strings.Join(GetRegisteredTypes(), ", "))
	}

	registryMutex.RLock()
	factory := factoryRegistry[cfg.Type]
	registryMutex.RUnlock()

	if err := factory.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", cfg.Type, err)
	}
	return factory.Create(cfg)
}

// GetRegisteredTypes returns the registered KV store types, sorted.
func GetRegisteredTypes() []string {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	types := make([]string, 0, len(factoryRegistry))
	for t := range factoryRegistry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// IsTypeRegistered checks if a KV store type is registered.
func IsTypeRegistered(storeType string) bool {
	registryMutex.RLock()
	defer registryMutex.RUnlock()

	_, exists := factoryRegistry[storeType]
	return exists
}

func validateTimeouts(cfg config.InternalKVStoreConfig) error {
	if cfg.DialTimeout <= 0 {
		return fmt.Errorf("dial_timeout must be greater than 0, got: %v", cfg.DialTimeout)
	}
	if cfg.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be greater than 0, got: %v", cfg.ReadTimeout)
	}
	if cfg.WriteTimeout <= 0 {
		return fmt.Errorf("write_timeout must be greater than 0, got: %v", cfg.WriteTimeout)
	}
	if cfg.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got: %d", cfg.MaxRetries)
	}
	return nil
}
