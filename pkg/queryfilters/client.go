package queryfilters

import (
	"context"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rzpsarthak13/query-filters/internal/catalog"
	"github.com/rzpsarthak13/query-filters/internal/client"
	"github.com/rzpsarthak13/query-filters/internal/core"
	"github.com/rzpsarthak13/query-filters/internal/loads"
	"github.com/rzpsarthak13/query-filters/internal/pagination"
	"github.com/rzpsarthak13/query-filters/internal/query"
	"github.com/rzpsarthak13/query-filters/internal/schema"
)

type (
	// Statement is an immutable SELECT statement.
	Statement = query.Statement
	// LoadSpec is the typed form of a load spec.
	LoadSpec = loads.Spec
	// Pagination describes a page of results.
	Pagination = pagination.Pagination
	// CounterStats reports how totals were obtained.
	CounterStats = pagination.CounterStats
	// Record is a fetched row keyed by result column.
	Record = schema.Record
	// Catalog is the registry of mapped entities.
	Catalog = catalog.Catalog
	// Entity is a named mapping onto a table.
	Entity = core.Entity
	// Database is the database the client runs statements against.
	Database = core.Database
	// KVStore is the backend of the count cache.
	KVStore = core.KVStore
)

// Client builds, restricts, paginates and runs statements over a catalog of
// mapped entities.
//
// Typical usage:
//
//	client, _ := queryfilters.NewClient(ctx, config)
//	defer client.Close()
//
//	stmt, _ := client.Select("User")
//	stmt, _ = client.ApplyLoads(stmt, []string{"name", "email"})
//	stmt, page, _ := client.Paginate(ctx, stmt, &pageNumber, &pageSize)
//	records, _ := client.Fetch(ctx, stmt)
type Client interface {
	// Catalog returns the frozen entity catalog.
	Catalog() *Catalog

	// Select starts a statement loading every column of the named entities.
	Select(entityNames ...string) (Statement, error)

	// ApplyLoads restricts the fields a statement loads. spec is a list of
	// field names, a mapping with "fields" and optional "model" or "table",
	// a LoadSpec, or a list of mappings or LoadSpecs. Entities named by a
	// spec but missing from the statement are joined when possible.
	ApplyLoads(stmt Statement, spec interface{}) (Statement, error)

	// ApplyPagination limits a statement to one page given a known total.
	ApplyPagination(stmt Statement, pageNumber, pageSize *int, totalResults int) (Statement, Pagination, error)

	// Count returns the number of rows a statement yields, using the
	// count cache when enabled.
	Count(ctx context.Context, stmt Statement) (int, error)

	// Paginate counts the results of a statement and limits it to one page.
	Paginate(ctx context.Context, stmt Statement, pageNumber, pageSize *int) (Statement, Pagination, error)

	// InvalidateCount drops the cached total of a statement. It reports
	// whether a cached total was removed.
	InvalidateCount(ctx context.Context, stmt Statement) (bool, error)

	// Fetch runs a statement and returns its rows.
	Fetch(ctx context.Context, stmt Statement) ([]Record, error)

	// CounterStats reports count cache usage.
	CounterStats() CounterStats

	// Close closes all connections and releases resources.
	Close() error
}

// configProvider implements client.ConfigProvider to provide config as YAML without import cycles.
type configProvider struct {
	config *Config
}

func (cp *configProvider) GetYAML() ([]byte, error) {
	return yaml.Marshal(cp.config)
}

// NewClient connects to the configured database and count cache and builds
// the entity catalog.
func NewClient(ctx context.Context, config *Config) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	impl, err := client.NewClientImpl(ctx, &configProvider{config: config})
	if err != nil {
		return nil, err
	}
	return impl, nil
}

// NewClientWithConnections builds a client over existing connections. kv may
// be nil. The client closes both on Close.
func NewClientWithConnections(ctx context.Context, config *Config, db Database, kv KVStore) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	impl, err := client.NewClientImplWithDependencies(ctx, &configProvider{config: config}, client.Dependencies{
		Database: db,
		KVStore:  kv,
	})
	if err != nil {
		return nil, err
	}
	return impl, nil
}

var _ Client = (*client.ClientImpl)(nil)

// DecodeLoadSpec parses a JSON or YAML load spec for ApplyLoads.
func DecodeLoadSpec(data []byte) (interface{}, error) {
	return loads.Decode(data)
}
