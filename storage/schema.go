package storage

import (
	_ "embed"
	"fmt"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	storageerrors "github.com/i-SAS/isas-base/storage/errors"
)

//go:embed cfg/tables.yml
var tablesYAML []byte

type ColumnType string

const (
	TypeInteger   ColumnType = "integer"
	TypeFloat     ColumnType = "float"
	TypeText      ColumnType = "text"
	TypeBoolean   ColumnType = "boolean"
	TypeTimestamp ColumnType = "timestamp"
)

type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// TableSchema is the declared layout of one metadata table.
type TableSchema struct {
	ConflictKey string   `json:"conflict_key"`
	Columns     []Column `json:"columns"`
}

func (t TableSchema) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

func (t TableSchema) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Schema maps table names to their layouts.
type Schema map[string]TableSchema

// DefaultSchema parses the embedded table layout config.
func DefaultSchema() (Schema, error) {
	var s Schema
	if err := yaml.Unmarshal(tablesYAML, &s); err != nil {
		return nil, errors.Wrap(err, "parse embedded table schema")
	}
	return s, nil
}

func (s Schema) Has(table string) bool {
	_, ok := s[table]
	return ok
}

func (s Schema) Lookup(table string) (TableSchema, error) {
	t, ok := s[table]
	if !ok {
		return TableSchema{}, storageerrors.NewUnknownTable(fmt.Sprintf("no schema for table %q", table))
	}
	return t, nil
}

// NormalizeRows drops columns the schema does not declare and coerces cell
// values to the declared types. Rows for tables without a schema entry pass
// through untouched.
func (s Schema) NormalizeRows(table string, rows []Row) ([]Row, error) {
	ts, ok := s[table]
	if !ok {
		return rows, nil
	}
	out := make([]Row, 0, len(rows))
	for _, row := range rows {
		normalized := make(Row, len(ts.Columns))
		for _, col := range ts.Columns {
			raw, ok := row[col.Name]
			if !ok || raw == nil {
				continue
			}
			v, err := coerce(raw, col.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "table %q column %q", table, col.Name)
			}
			normalized[col.Name] = v
		}
		out = append(out, normalized)
	}
	return out, nil
}

func coerce(v interface{}, t ColumnType) (interface{}, error) {
	switch t {
	case TypeInteger:
		return toInt64(v)
	case TypeFloat:
		return toFloat64(v)
	case TypeText:
		return toString(v)
	case TypeBoolean:
		return toBool(v)
	case TypeTimestamp:
		return toTime(v)
	}
	return nil, fmt.Errorf("unknown column type %q", t)
}

func toInt64(v interface{}) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case int:
		return int64(x), nil
	case int32:
		return int64(x), nil
	case float64:
		return int64(x), nil
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case string:
		return strconv.ParseInt(x, 10, 64)
	}
	return 0, fmt.Errorf("cannot coerce %T to integer", v)
}

func toFloat64(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case int:
		return float64(x), nil
	case []byte:
		return strconv.ParseFloat(string(x), 64)
	case string:
		return strconv.ParseFloat(x, 64)
	}
	return 0, fmt.Errorf("cannot coerce %T to float", v)
}

func toString(v interface{}) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []byte:
		return string(x), nil
	}
	return "", fmt.Errorf("cannot coerce %T to text", v)
}

func toBool(v interface{}) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case int64:
		return x != 0, nil
	case float64:
		return x != 0, nil
	case []byte:
		return strconv.ParseBool(string(x))
	case string:
		return strconv.ParseBool(x)
	}
	return false, fmt.Errorf("cannot coerce %T to boolean", v)
}

func toTime(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), nil
	case []byte:
		return parseTime(string(x))
	case string:
		return parseTime(x)
	}
	return time.Time{}, fmt.Errorf("cannot coerce %T to timestamp", v)
}

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05.999999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("cannot parse timestamp %q", s)
}
