package memory

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i-SAS/isas-base/types"
)

func newTestSeries(n int) *types.TimeSeriesData {
	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	times := make([]time.Time, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = t0.Add(time.Duration(i) * time.Second)
		values[i] = float64(i)
	}
	data := types.NewTimeSeriesData(times)
	data.Fields["ch1"] = values
	return data
}

func Test_Store_SnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := New(hclog.NewNullLogger())
	require.NoError(t, err)

	data := newTestSeries(3)
	require.NoError(t, store.SaveSeries(ctx, "strain", data))

	loaded, err := store.LoadSeries(ctx, "strain", nil, nil)
	require.NoError(t, err)
	assert.True(t, data.Equal(loaded))
}

func Test_Store_SaveSeries_ReplacesSnapshot(t *testing.T) {
	ctx := context.Background()
	store, err := New(hclog.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, store.SaveSeries(ctx, "strain", newTestSeries(3)))
	latest := newTestSeries(5)
	require.NoError(t, store.SaveSeries(ctx, "strain", latest))

	loaded, err := store.LoadSeries(ctx, "strain", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 5, loaded.Len())
	assert.True(t, latest.Equal(loaded))
}

func Test_Store_LoadSeries_Missing(t *testing.T) {
	store, err := New(hclog.NewNullLogger())
	require.NoError(t, err)

	loaded, err := store.LoadSeries(context.Background(), "missing", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func Test_Store_SaveSeries_EmptyIsNoop(t *testing.T) {
	ctx := context.Background()
	store, err := New(hclog.NewNullLogger())
	require.NoError(t, err)

	require.NoError(t, store.SaveSeries(ctx, "strain", types.NewTimeSeriesData(nil)))

	loaded, err := store.LoadSeries(ctx, "strain", nil, nil)
	require.NoError(t, err)
	assert.Nil(t, loaded)
}
