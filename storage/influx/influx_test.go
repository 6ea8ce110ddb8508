package influx

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_SelectQuery(t *testing.T) {
	assert.Equal(t,
		`SELECT * FROM "strain" ORDER BY time ASC`,
		selectQuery("strain", nil, nil))

	first := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	last := first.Add(time.Hour)
	assert.Equal(t,
		`SELECT * FROM "strain" WHERE time >= '2023-04-01T00:00:00Z' AND time < '2023-04-01T01:00:00Z' ORDER BY time ASC`,
		selectQuery("strain", &first, &last))

	assert.Equal(t,
		`SELECT * FROM "strain" WHERE time < '2023-04-01T01:00:00Z' ORDER BY time ASC`,
		selectQuery("strain", nil, &last))
}

func Test_ParseTime(t *testing.T) {
	want := time.Date(2023, 4, 1, 0, 0, 0, 500000000, time.UTC)

	got, err := parseTime("2023-04-01T00:00:00.5Z")
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	got, err = parseTime(json.Number("1680307200500000000"))
	require.NoError(t, err)
	assert.True(t, want.Equal(got))

	_, err = parseTime(42)
	require.Error(t, err)
}
