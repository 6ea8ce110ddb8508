package storage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	storageerrors "github.com/i-SAS/isas-base/storage/errors"
)

func Test_DefaultSchema(t *testing.T) {
	schema, err := DefaultSchema()
	require.NoError(t, err)

	assert.True(t, schema.Has("000_service_metadata"))
	assert.False(t, schema.Has("strain"))

	ts, err := schema.Lookup("030_sensor_metadata")
	require.NoError(t, err)
	assert.Equal(t, "sensor_name", ts.ConflictKey)
	assert.Equal(t, []string{"sensor_name", "locational", "directional"}, ts.ColumnNames())

	col, ok := ts.Column("locational")
	require.True(t, ok)
	assert.Equal(t, TypeBoolean, col.Type)

	_, err = schema.Lookup("no_such_table")
	require.Error(t, err)
	assert.True(t, storageerrors.IsUnknownTable(err))
}

func Test_Schema_NormalizeRows(t *testing.T) {
	schema, err := DefaultSchema()
	require.NoError(t, err)

	rows, err := schema.NormalizeRows("001_time_series_batch_metadata", []Row{
		{
			"id":             "7",
			"service_name":   []byte("measurement_service"),
			"batch_datetime": "2023-04-01T00:00:00Z",
			"undeclared":     "dropped",
		},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, int64(7), rows[0]["id"])
	assert.Equal(t, "measurement_service", rows[0]["service_name"])
	assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), rows[0]["batch_datetime"])
	assert.NotContains(t, rows[0], "undeclared")
}

func Test_Schema_NormalizeRows_Coercion(t *testing.T) {
	schema, err := DefaultSchema()
	require.NoError(t, err)

	rows, err := schema.NormalizeRows("030_sensor_metadata", []Row{
		{"sensor_name": "fbg_1", "locational": "true", "directional": int64(0)},
	})
	require.NoError(t, err)
	assert.Equal(t, true, rows[0]["locational"])
	assert.Equal(t, false, rows[0]["directional"])

	_, err = schema.NormalizeRows("030_sensor_metadata", []Row{
		{"sensor_name": "fbg_1", "locational": "not-a-bool"},
	})
	require.Error(t, err)
}

func Test_Schema_NormalizeRows_UnknownTablePassesThrough(t *testing.T) {
	schema, err := DefaultSchema()
	require.NoError(t, err)

	in := []Row{{"anything": "goes"}}
	out, err := schema.NormalizeRows("free_form", in)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func Test_SaveMode_String(t *testing.T) {
	assert.Equal(t, "sync", SaveSync.String())
	assert.Equal(t, "append", SaveAppend.String())
	assert.Equal(t, "replace", SaveReplace.String())
}
