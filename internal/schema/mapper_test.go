package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeMapper_Family(t *testing.T) {
	tm := NewTypeMapper()

	cases := map[string]TypeFamily{
		"int":             FamilyInt,
		"BIGINT UNSIGNED": FamilyInt,
		"tinyint(1)":      FamilyBool,
		"tinyint(4)":      FamilyInt,
		"varchar(255)":    FamilyString,
		"DECIMAL(10,2)":   FamilyDecimal,
		"double":          FamilyFloat,
		"datetime":        FamilyTime,
		"json":            FamilyJSON,
		"blob":            FamilyBytes,
		"geometry":        FamilyUnknown,
		"":                FamilyUnknown,
	}
	for dbType, want := range cases {
		assert.Equal(t, want, tm.Family(dbType), dbType)
	}
}

func TestTypeMapper_ConvertFromDBValue(t *testing.T) {
	tm := NewTypeMapper()

	cases := []struct {
		name   string
		value  interface{}
		dbType string
		want   interface{}
	}{
		{"nil", nil, "INT", nil},
		{"int from bytes", []byte("42"), "INT", int64(42)},
		{"int passthrough", int64(7), "BIGINT", int64(7)},
		{"float from bytes", []byte("2.5"), "DOUBLE", 2.5},
		{"decimal kept as string", []byte("10.10"), "DECIMAL(10,2)", "10.10"},
		{"string from bytes", []byte("ann"), "VARCHAR(64)", "ann"},
		{"bool from tinyint", []byte("1"), "TINYINT(1)", true},
		{"bool from word", "false", "BOOLEAN", false},
		{"json object", []byte(`{"a":1}`), "JSON", map[string]interface{}{"a": float64(1)}},
		{"computed bytes", []byte("x"), "", "x"},
		{"computed int", int64(3), "", int64(3)},
		{"date", []byte("2024-02-29"), "DATE", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{"datetime", "2024-02-29 10:11:12", "DATETIME", time.Date(2024, 2, 29, 10, 11, 12, 0, time.UTC)},
		{"zero date kept", "0000-00-00", "DATE", "0000-00-00"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tm.ConvertFromDBValue(tc.value, tc.dbType)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("invalid int", func(t *testing.T) {
		_, err := tm.ConvertFromDBValue([]byte("abc"), "INT")
		assert.ErrorContains(t, err, "cannot convert string to int64")
	})

	t.Run("invalid json", func(t *testing.T) {
		_, err := tm.ConvertFromDBValue("{", "JSON")
		assert.Error(t, err)
	})
}
