package manager

import (
	"time"

	"github.com/i-SAS/isas-base/storage"
)

// Row cells arrive already coerced by the schema, so the accessors only need
// to unwrap the canonical types.

func rowString(row storage.Row, key string) string {
	v, _ := row[key].(string)
	return v
}

func rowInt64(row storage.Row, key string) int64 {
	switch v := row[key].(type) {
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func rowBool(row storage.Row, key string) bool {
	v, _ := row[key].(bool)
	return v
}

func rowTime(row storage.Row, key string) time.Time {
	v, _ := row[key].(time.Time)
	return v
}

func groupRows(rows []storage.Row, key string) map[string][]storage.Row {
	grouped := map[string][]storage.Row{}
	for _, row := range rows {
		name := rowString(row, key)
		grouped[name] = append(grouped[name], row)
	}
	return grouped
}
