package client

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/samber/lo"

	"github.com/rzpsarthak13/query-filters/internal/catalog"
	"github.com/rzpsarthak13/query-filters/internal/config"
	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/database"
	"github.com/rzpsarthak13/query-filters/internal/kvstore"
	"github.com/rzpsarthak13/query-filters/internal/loads"
	"github.com/rzpsarthak13/query-filters/internal/pagination"
	"github.com/rzpsarthak13/query-filters/internal/query"
	"github.com/rzpsarthak13/query-filters/internal/schema"
)

// ConfigProvider is an interface to provide configuration as YAML without importing the public package.
type ConfigProvider interface {
	GetYAML() ([]byte, error)
}

// Dependencies are externally created connections handed to the client.
// Database is required; KVStore is only used when the count cache is enabled.
type Dependencies struct {
	Database core.Database
	KVStore  core.KVStore
}

// ClientImpl is the default implementation of the public client.
type ClientImpl struct {
	mu         sync.RWMutex
	configMgr  *config.ConfigManager
	database   core.Database
	kvStore    core.KVStore
	catalog    *catalog.Catalog
	dialect    query.Dialect
	counter    *pagination.Counter
	translator *schema.Translator
	closed     bool
}

// NewClientImpl loads the configuration, connects to the database and the
// count cache, and builds the entity catalog.
func NewClientImpl(ctx context.Context, configProvider ConfigProvider) (*ClientImpl, error) {
	configMgr, err := loadConfig(configProvider)
	if err != nil {
		return nil, err
	}
	cfg := configMgr.GetConfig()

	db, err := database.NewMySQLDatabase(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}

	var kvStore core.KVStore
	if cfg.CountCache.Enabled {
		kvStore, err = kvstore.Create(cfg.CountCache.KVStore)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create KV store: %w", err)
		}
	}

	c, err := newClient(ctx, configMgr, Dependencies{Database: db, KVStore: kvStore})
	if err != nil {
		db.Close()
		if kvStore != nil {
			kvStore.Close()
		}
		return nil, err
	}
	return c, nil
}

// NewClientImplWithDependencies builds a client over existing connections.
// The client takes ownership of them and closes them on Close.
func NewClientImplWithDependencies(ctx context.Context, configProvider ConfigProvider, deps Dependencies) (*ClientImpl, error) {
	configMgr, err := loadConfig(configProvider)
	if err != nil {
		return nil, err
	}
	return newClient(ctx, configMgr, deps)
}

func loadConfig(configProvider ConfigProvider) (*config.ConfigManager, error) {
	if configProvider == nil {
		return nil, fmt.Errorf("config provider cannot be nil")
	}

	configMgr := config.NewConfigManager()
	yamlData, err := configProvider.GetYAML()
	if err != nil {
		return nil, fmt.Errorf("failed to get config YAML: %w", err)
	}
	if err := configMgr.LoadFromYAML(yamlData); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := configMgr.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load config from environment: %w", err)
	}
	return configMgr, nil
}

func newClient(ctx context.Context, configMgr *config.ConfigManager, deps Dependencies) (*ClientImpl, error) {
	if deps.Database == nil {
		return nil, fmt.Errorf("database cannot be nil")
	}
	cfg := configMgr.GetConfig()

	dialect, err := query.DialectByName(configMgr.DialectName())
	if err != nil {
		return nil, err
	}

	cat, err := buildCatalog(ctx, cfg.Catalog, deps.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	log.Printf("[CLIENT] Catalog ready with %d entities: %v", cat.Count(), cat.List())

	counterCfg := pagination.CounterConfig{
		Namespace:          cfg.CountCache.Namespace,
		MaxCountsPerSecond: cfg.CountCache.MaxCountsPerSecond,
		Burst:              cfg.CountCache.Burst,
		QueryTimeout:       cfg.CountCache.QueryTimeout,
	}
	var cache core.KVStore
	if cfg.CountCache.Enabled {
		cache = deps.KVStore
		counterCfg.TTL = cfg.CountCache.TTL
		if cache == nil {
			log.Printf("[CLIENT] WARNING: Count cache enabled without a KV store, totals will not be cached")
		}
	}

	return &ClientImpl{
		configMgr:  configMgr,
		database:   deps.Database,
		kvStore:    deps.KVStore,
		catalog:    cat,
		dialect:    dialect,
		counter:    pagination.NewCounter(deps.Database, dialect, cache, counterCfg),
		translator: schema.NewTranslator(),
	}, nil
}

// buildCatalog merges the definitions file with introspected tables. Entities
// from the file take precedence; introspected tables get an entity named
// after the table unless the file already maps them.
func buildCatalog(ctx context.Context, cfg config.InternalCatalogConfig, db core.Database) (*catalog.Catalog, error) {
	defs := &catalog.Definitions{}
	if cfg.DefinitionsFile != "" {
		loaded, err := catalog.LoadDefinitionsFile(cfg.DefinitionsFile)
		if err != nil {
			return nil, err
		}
		defs = loaded
	}

	if cfg.Introspect {
		introspected, err := catalog.Introspect(ctx, db)
		if err != nil {
			return nil, err
		}
		mappedTables := lo.Map(defs.Entities, func(e catalog.EntityDefinition, _ int) string { return e.Table })
		names := lo.Map(defs.Entities, func(e catalog.EntityDefinition, _ int) string { return e.Name })
		for _, ed := range introspected.Entities {
			if lo.Contains(mappedTables, ed.Table) || lo.Contains(names, ed.Name) {
				continue
			}
			defs.Entities = append(defs.Entities, ed)
		}
	}

	return catalog.Build(ctx, defs, db)
}

func (c *ClientImpl) checkOpen() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return fmt.Errorf("client is closed")
	}
	return nil
}

// Catalog returns the frozen entity catalog.
func (c *ClientImpl) Catalog() *catalog.Catalog {
	return c.catalog
}

// Dialect returns the dialect statements are rendered with.
func (c *ClientImpl) Dialect() query.Dialect {
	return c.dialect
}

// Config returns the effective configuration.
func (c *ClientImpl) Config() *config.InternalConfig {
	return c.configMgr.GetConfig()
}

// Select starts a statement over the tables of the named entities.
func (c *ClientImpl) Select(entityNames ...string) (query.Statement, error) {
	if err := c.checkOpen(); err != nil {
		return query.Statement{}, err
	}
	if len(entityNames) == 0 {
		return query.Statement{}, fmt.Errorf("%w: at least one model is required", core.ErrBadQuery)
	}

	tables := make([]*core.Table, 0, len(entityNames))
	for _, name := range entityNames {
		entity, ok := c.catalog.Entity(name)
		if !ok {
			return query.Statement{}, fmt.Errorf("%w: unknown model `%s`", core.ErrBadQuery, name)
		}
		tables = append(tables, entity.Table)
	}
	return query.Select(tables...), nil
}

// ApplyLoads restricts the fields stmt loads.
func (c *ClientImpl) ApplyLoads(stmt query.Statement, spec interface{}) (query.Statement, error) {
	if err := c.checkOpen(); err != nil {
		return query.Statement{}, err
	}
	return loads.ApplyLoads(c.catalog, stmt, spec)
}

// ApplyPagination pages stmt given a known total.
func (c *ClientImpl) ApplyPagination(stmt query.Statement, pageNumber, pageSize *int, totalResults int) (query.Statement, pagination.Pagination, error) {
	if err := c.checkOpen(); err != nil {
		return query.Statement{}, pagination.Pagination{}, err
	}
	return pagination.Apply(stmt, pageNumber, pageSize, totalResults)
}

// Count returns the number of rows stmt yields.
func (c *ClientImpl) Count(ctx context.Context, stmt query.Statement) (int, error) {
	if err := c.checkOpen(); err != nil {
		return 0, err
	}
	return c.counter.Count(ctx, stmt)
}

// Paginate counts the results of stmt and pages it.
func (c *ClientImpl) Paginate(ctx context.Context, stmt query.Statement, pageNumber, pageSize *int) (query.Statement, pagination.Pagination, error) {
	if err := c.checkOpen(); err != nil {
		return query.Statement{}, pagination.Pagination{}, err
	}
	return pagination.Paginate(ctx, c.counter, stmt, pageNumber, pageSize)
}

// InvalidateCount drops the cached total of stmt.
func (c *ClientImpl) InvalidateCount(ctx context.Context, stmt query.Statement) (bool, error) {
	if err := c.checkOpen(); err != nil {
		return false, err
	}
	return c.counter.Invalidate(ctx, stmt)
}

// CounterStats reports count cache usage.
func (c *ClientImpl) CounterStats() pagination.CounterStats {
	return c.counter.Stats()
}

// Fetch executes stmt and returns its rows keyed by result column alias.
func (c *ClientImpl) Fetch(ctx context.Context, stmt query.Statement) ([]schema.Record, error) {
	if err := c.checkOpen(); err != nil {
		return nil, err
	}

	compiled, err := stmt.Compile()
	if err != nil {
		return nil, err
	}
	sql, args := compiled.SQL(c.dialect)

	rows, err := c.database.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	records, err := c.translator.FromRows(rows, resultColumns(compiled))
	if err != nil {
		return nil, fmt.Errorf("failed to read results: %w", err)
	}
	return records, nil
}

func resultColumns(compiled *query.Compiled) []schema.ResultColumn {
	return lo.Map(compiled.Columns(), func(rc query.ResultColumn, _ int) schema.ResultColumn {
		col := schema.ResultColumn{Name: rc.Alias}
		if ref, ok := rc.Expr.(core.ColumnRef); ok {
			if def, found := ref.Table.Column(ref.Name); found {
				col.Type = def.Type
			}
		}
		return col
	})
}

// Close closes all connections and releases resources.
func (c *ClientImpl) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if c.kvStore != nil {
		if err := c.kvStore.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close KV store: %w", err))
		}
	}
	if c.database != nil {
		if err := c.database.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during close: %v", errs)
	}
	return nil
}
