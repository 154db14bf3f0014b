package query

import (
	"fmt"
	"strings"
)

// Dialect defines SQL flavor-specific behavior like placeholder syntax and identifier quoting.
type Dialect interface {
	// Name identifies the dialect in configuration ("mysql", "postgres").
	Name() string
	// Placeholder returns the parameter placeholder for the given index (1-based).
	Placeholder(index int) string
	// QuoteIdentifier wraps a table or column name with the dialect's quotes.
	QuoteIdentifier(name string) string
	// LimitOffset renders the pagination clause; both values are optional.
	LimitOffset(limit, offset *int) string
}

// MySQLDialect uses ? placeholders and backticks.
type MySQLDialect struct{}

func (MySQLDialect) Name() string { return "mysql" }

// Placeholder returns ?.
func (MySQLDialect) Placeholder(int) string { return "?" }

// QuoteIdentifier returns `name`.
func (MySQLDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

// mysqlMaxRows is the documented way to express OFFSET without LIMIT in MySQL.
const mysqlMaxRows = "18446744073709551615"

func (MySQLDialect) LimitOffset(limit, offset *int) string {
	switch {
	case limit != nil && offset != nil:
		return fmt.Sprintf("LIMIT %d OFFSET %d", *limit, *offset)
	case limit != nil:
		return fmt.Sprintf("LIMIT %d", *limit)
	case offset != nil:
		return fmt.Sprintf("LIMIT %s OFFSET %d", mysqlMaxRows, *offset)
	}
	return ""
}

// PostgresDialect uses $1, $2 placeholders and double quotes.
type PostgresDialect struct{}

func (PostgresDialect) Name() string { return "postgres" }

// Placeholder returns $1, $2, etc.
func (PostgresDialect) Placeholder(index int) string {
	return fmt.Sprintf("$%d", index)
}

// QuoteIdentifier returns "name".
func (PostgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (PostgresDialect) LimitOffset(limit, offset *int) string {
	var parts []string
	if limit != nil {
		parts = append(parts, fmt.Sprintf("LIMIT %d", *limit))
	}
	if offset != nil {
		parts = append(parts, fmt.Sprintf("OFFSET %d", *offset))
	}
	return strings.Join(parts, " ")
}

// DialectByName returns the dialect registered under name.
func DialectByName(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "", "mysql":
		return MySQLDialect{}, nil
	case "postgres", "postgresql":
		return PostgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect: %s", name)
	}
}
