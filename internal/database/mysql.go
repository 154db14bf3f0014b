package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync/atomic"

	"github.com/go-sql-driver/mysql"

	"github.com/rzpsarthak13/query-filters/internal/config"
	"github.com/rzpsarthak13/query-filters/internal/core"
)

// MySQLDatabase implements core.Database using MySQL. Besides running
// rendered statements it introspects INFORMATION_SCHEMA to describe tables
// for the entity catalog.
type MySQLDatabase struct {
	db     *sql.DB
	closed atomic.Bool
}

// NewMySQLDatabase opens and pings a MySQL connection pool.
func NewMySQLDatabase(cfg config.InternalDatabaseConfig) (*MySQLDatabase, error) {
	dsn := mysql.NewConfig()
	dsn.Net = "tcp"
	dsn.Addr = fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	dsn.DBName = cfg.Database
	dsn.User = cfg.Username
	dsn.Passwd = cfg.Password
	dsn.ParseTime = true
	dsn.Timeout = cfg.ConnectionTimeout

	db, err := sql.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectionTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Printf("[MYSQL] Connected to %s/%s", dsn.Addr, dsn.DBName)
	return NewMySQLDatabaseFromDB(db), nil
}

// NewMySQLDatabaseFromDB wraps an existing connection pool.
func NewMySQLDatabaseFromDB(db *sql.DB) *MySQLDatabase {
	return &MySQLDatabase{db: db}
}

// Query executes a SELECT query and returns rows.
func (m *MySQLDatabase) Query(ctx context.Context, query string, args ...interface{}) (core.Rows, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("database is closed")
	}
	log.Printf("[MYSQL] Executing query: %s with args: %v", query, args)
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Printf("[MYSQL] ERROR: Query failed: %v", err)
		return nil, fmt.Errorf("failed to execute query: %w", err)
	}
	return rows, nil
}

const columnsQuery = `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`

const foreignKeysQuery = `
		SELECT CONSTRAINT_NAME, COLUMN_NAME, REFERENCED_TABLE_NAME, REFERENCED_COLUMN_NAME
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ? AND REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY CONSTRAINT_NAME, ORDINAL_POSITION
	`

const indexesQuery = `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`

// DescribeTable retrieves columns, primary key, single-column foreign keys
// and indexes of a table.
func (m *MySQLDatabase) DescribeTable(ctx context.Context, tableName string) (*core.Table, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("database is closed")
	}

	table := &core.Table{Name: tableName}
	if err := m.describeColumns(ctx, table); err != nil {
		return nil, err
	}
	if err := m.describeForeignKeys(ctx, table); err != nil {
		return nil, err
	}
	if err := m.describeIndexes(ctx, table); err != nil {
		return nil, err
	}
	return table, nil
}

func (m *MySQLDatabase) describeColumns(ctx context.Context, table *core.Table) error {
	rows, err := m.db.QueryContext(ctx, columnsQuery, table.Name)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	var primaryKeys []string
	for rows.Next() {
		var colName, colType, isNullable, columnKey string
		var colDefault sql.NullString
		if err := rows.Scan(&colName, &colType, &isNullable, &colDefault, &columnKey); err != nil {
			return fmt.Errorf("failed to scan column: %w", err)
		}

		column := core.Column{
			Name:     colName,
			Type:     colType,
			Nullable: isNullable == "YES",
		}
		if colDefault.Valid {
			column.Default = colDefault.String
		}
		if columnKey == "PRI" {
			primaryKeys = append(primaryKeys, colName)
		}
		table.Columns = append(table.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating columns: %w", err)
	}

	if len(table.Columns) == 0 {
		return fmt.Errorf("table %s does not exist", table.Name)
	}
	if len(primaryKeys) == 0 {
		return fmt.Errorf("table %s does not have a primary key", table.Name)
	}
	if len(primaryKeys) > 1 {
		log.Printf("[MYSQL] Table %s has a composite primary key %v, using %s", table.Name, primaryKeys, primaryKeys[0])
	}
	table.PrimaryKey = primaryKeys[0]
	return nil
}

func (m *MySQLDatabase) describeForeignKeys(ctx context.Context, table *core.Table) error {
	rows, err := m.db.QueryContext(ctx, foreignKeysQuery, table.Name)
	if err != nil {
		return fmt.Errorf("failed to query foreign keys: %w", err)
	}
	defer rows.Close()

	var (
		order       []string
		constraints = make(map[string][]core.ForeignKey)
	)
	for rows.Next() {
		var fk core.ForeignKey
		if err := rows.Scan(&fk.Name, &fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return fmt.Errorf("failed to scan foreign key: %w", err)
		}
		if _, seen := constraints[fk.Name]; !seen {
			order = append(order, fk.Name)
		}
		constraints[fk.Name] = append(constraints[fk.Name], fk)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating foreign keys: %w", err)
	}

	for _, name := range order {
		parts := constraints[name]
		if len(parts) > 1 {
			log.Printf("[MYSQL] Skipping composite foreign key %s on table %s", name, table.Name)
			continue
		}
		table.ForeignKeys = append(table.ForeignKeys, parts[0])
	}
	return nil
}

func (m *MySQLDatabase) describeIndexes(ctx context.Context, table *core.Table) error {
	rows, err := m.db.QueryContext(ctx, indexesQuery, table.Name)
	if err != nil {
		return fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	positions := make(map[string]int)
	for rows.Next() {
		var indexName, columnName string
		var nonUnique int
		if err := rows.Scan(&indexName, &columnName, &nonUnique); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}

		if pos, exists := positions[indexName]; exists {
			table.Indexes[pos].Columns = append(table.Indexes[pos].Columns, columnName)
			continue
		}
		positions[indexName] = len(table.Indexes)
		table.Indexes = append(table.Indexes, core.Index{
			Name:    indexName,
			Columns: []string{columnName},
			Unique:  nonUnique == 0,
			Primary: indexName == "PRIMARY",
		})
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating indexes: %w", err)
	}
	return nil
}

// GetTables returns a list of all base table names in the database.
func (m *MySQLDatabase) GetTables(ctx context.Context) ([]string, error) {
	if m.closed.Load() {
		return nil, fmt.Errorf("database is closed")
	}

	query := `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query tables: %w", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var tableName string
		if err := rows.Scan(&tableName); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		tables = append(tables, tableName)
	}

	return tables, rows.Err()
}

// Close closes the database connection.
func (m *MySQLDatabase) Close() error {
	if !m.closed.CompareAndSwap(false, true) {
		return nil
	}
	return m.db.Close()
}
