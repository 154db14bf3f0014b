package schema

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

// TypeFamily groups database column types that map onto the same Go type.
type TypeFamily int

const (
	FamilyUnknown TypeFamily = iota
	FamilyInt
	FamilyFloat
	FamilyDecimal
	FamilyString
	FamilyBytes
	FamilyTime
	FamilyBool
	FamilyJSON
)

// TypeMapper handles mapping between database types and Go types.
type TypeMapper struct{}

// NewTypeMapper creates a new type mapper.
func NewTypeMapper() *TypeMapper {
	return &TypeMapper{}
}

// Family classifies a database type such as "VARCHAR(255)" or "bigint unsigned".
func (tm *TypeMapper) Family(dbType string) TypeFamily {
	upper := strings.ToUpper(strings.TrimSpace(dbType))
	if upper == "TINYINT(1)" {
		return FamilyBool
	}

	base := upper
	if idx := strings.IndexAny(upper, "( "); idx > 0 {
		base = upper[:idx]
	}

	switch base {
	case "INT", "INTEGER", "MEDIUMINT", "BIGINT", "SMALLINT", "TINYINT", "SERIAL", "BIGSERIAL":
		return FamilyInt
	case "FLOAT", "DOUBLE", "REAL":
		return FamilyFloat
	case "DECIMAL", "NUMERIC":
		return FamilyDecimal
	case "VARCHAR", "CHAR", "TEXT", "LONGTEXT", "MEDIUMTEXT", "TINYTEXT", "ENUM", "SET", "UUID":
		return FamilyString
	case "BINARY", "VARBINARY", "BLOB", "LONGBLOB", "MEDIUMBLOB", "TINYBLOB", "BYTEA":
		return FamilyBytes
	case "DATE", "DATETIME", "TIMESTAMP", "TIME":
		return FamilyTime
	case "BOOLEAN", "BOOL":
		return FamilyBool
	case "JSON", "JSONB":
		return FamilyJSON
	default:
		return FamilyUnknown
	}
}

// ConvertFromDBValue converts a scanned database value to its Go
// representation. The MySQL driver returns most values as []byte unless
// told otherwise, so every family accepts raw bytes. An empty dbType is
// used for computed expressions: bytes become strings, the rest is kept.
func (tm *TypeMapper) ConvertFromDBValue(value interface{}, dbType string) (interface{}, error) {
	if value == nil {
		return nil, nil
	}

	if valuer, ok := value.(driver.Valuer); ok {
		val, err := valuer.Value()
		if err != nil {
			return nil, err
		}
		if val == nil {
			return nil, nil
		}
		value = val
	}

	switch tm.Family(dbType) {
	case FamilyInt:
		return tm.toInt64(value)
	case FamilyFloat:
		return tm.toFloat64(value)
	case FamilyDecimal, FamilyString:
		return tm.toString(value)
	case FamilyBytes:
		return tm.toBytes(value)
	case FamilyTime:
		return tm.toTime(value)
	case FamilyBool:
		return tm.toBool(value)
	case FamilyJSON:
		return tm.toJSON(value)
	default:
		if b, ok := value.([]byte); ok {
			return string(b), nil
		}
		return value, nil
	}
}

func (tm *TypeMapper) toInt64(value interface{}) (int64, error) {
	switch v := value.(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case uint64:
		return int64(v), nil
	case float64:
		return int64(v), nil
	case []byte:
		return tm.toInt64(string(v))
	case string:
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string to int64: %w", err)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to int64", value)
	}
}

func (tm *TypeMapper) toFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case []byte:
		return tm.toFloat64(string(v))
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot convert string to float64: %w", err)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("cannot convert %T to float64", value)
	}
}

func (tm *TypeMapper) toString(value interface{}) (string, error) {
	switch v := value.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case int64, int, int32, uint64:
		return fmt.Sprintf("%d", v), nil
	case float64, float32:
		return strconv.FormatFloat(reflect.ValueOf(v).Float(), 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	case time.Time:
		return v.Format(time.RFC3339), nil
	default:
		return "", fmt.Errorf("cannot convert %T to string", value)
	}
}

func (tm *TypeMapper) toBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return append([]byte(nil), v...), nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("cannot convert %T to []byte", value)
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
}

func (tm *TypeMapper) toTime(value interface{}) (interface{}, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case []byte:
		return tm.toTime(string(v))
	case string:
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		// zero dates and durations beyond 24h are not representable
		return v, nil
	default:
		return nil, fmt.Errorf("cannot convert %T to time.Time", value)
	}
}

func (tm *TypeMapper) toBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case int64:
		return v != 0, nil
	case []byte:
		return tm.toBool(string(v))
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b, nil
		}
		i, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return false, fmt.Errorf("cannot convert string to bool: %w", err)
		}
		return i != 0, nil
	default:
		return false, fmt.Errorf("cannot convert %T to bool", value)
	}
}

func (tm *TypeMapper) toJSON(value interface{}) (interface{}, error) {
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return v, nil
	}

	var decoded interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("cannot parse JSON value: %w", err)
	}
	return decoded, nil
}
