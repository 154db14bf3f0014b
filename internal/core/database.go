package core

import (
	"context"
)

// Database defines the operations this library needs from the persistent
// database: running rendered statements and describing tables for the
// entity catalog.
type Database interface {
	// Query executes a SELECT statement and returns its rows.
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)

	// DescribeTable returns the columns, primary key, foreign keys and
	// indexes of a table.
	DescribeTable(ctx context.Context, tableName string) (*Table, error)

	// GetTables returns the names of all base tables.
	GetTables(ctx context.Context) ([]string, error)

	// Close closes the connection and releases resources.
	Close() error
}

// Row is a single scannable result row.
type Row interface {
	Scan(dest ...interface{}) error
}

// Rows is an iterator over query results.
type Rows interface {
	Row
	Next() bool
	Columns() ([]string, error)
	Close() error
	Err() error
}
