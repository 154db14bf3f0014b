package schema

import (
	"fmt"

	"github.com/rzpsarthak13/query-filters/internal/core"
)

// ResultColumn describes one column of a statement's result set. Type is
// the database type of the source column and is empty for computed
// expressions.
type ResultColumn struct {
	Name string
	Type string
}

// Record is a fetched row keyed by result column name.
type Record map[string]interface{}

// Translator converts database rows into records.
type Translator struct {
	mapper *TypeMapper
}

// NewTranslator creates a new row translator.
func NewTranslator() *Translator {
	return &Translator{
		mapper: NewTypeMapper(),
	}
}

// FromRows drains rows into records. columns must match the result set
// column for column; rows is closed before returning.
func (t *Translator) FromRows(rows core.Rows, columns []ResultColumn) ([]Record, error) {
	if rows == nil {
		return nil, fmt.Errorf("rows cannot be nil")
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	if len(names) != len(columns) {
		return nil, fmt.Errorf("result has %d columns, expected %d", len(names), len(columns))
	}

	records := make([]Record, 0)
	for rows.Next() {
		record, err := t.FromRow(rows, columns)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}
	return records, nil
}

// FromRow scans a single row into a record.
func (t *Translator) FromRow(row core.Row, columns []ResultColumn) (Record, error) {
	if row == nil {
		return nil, fmt.Errorf("row cannot be nil")
	}

	values := make([]interface{}, len(columns))
	valuePtrs := make([]interface{}, len(columns))
	for i := range values {
		valuePtrs[i] = &values[i]
	}

	if err := row.Scan(valuePtrs...); err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	record := make(Record, len(columns))
	for i, col := range columns {
		converted, err := t.mapper.ConvertFromDBValue(values[i], col.Type)
		if err != nil {
			return nil, fmt.Errorf("failed to convert value for column '%s': %w", col.Name, err)
		}
		record[col.Name] = converted
	}
	return record, nil
}
