package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func Test_TagKeys(t *testing.T) {
	assert.Equal(t, []string{"batch_id", "service_name", "batch_datetime"}, TagKeys())

	assert.True(t, IsTagKey(TagBatchID))
	assert.True(t, IsTagKey(TagServiceName))
	assert.True(t, IsTagKey(TagBatchDatetime))
	assert.False(t, IsTagKey("strain"))
}

func newTestSeries() *TimeSeriesData {
	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)
	data := NewTimeSeriesData([]time.Time{t0, t0.Add(time.Second)})
	data.Fields["ch1"] = []float64{1.5, 2.5}
	data.Fields["ch0"] = []float64{0, 1}
	data.Tags[TagBatchID] = []string{"1", "1"}
	return data
}

func Test_TimeSeriesData_FieldNames(t *testing.T) {
	data := newTestSeries()

	assert.Equal(t, []string{"ch0", "ch1"}, data.FieldNames())
	assert.Equal(t, []string{TagBatchID}, data.TagNames())
	assert.Equal(t, 2, data.Len())

	var nilData *TimeSeriesData
	assert.Equal(t, 0, nilData.Len())
}

func Test_TimeSeriesData_Equal(t *testing.T) {
	a := newTestSeries()
	b := newTestSeries()

	assert.True(t, a.Equal(b))

	b.Fields["ch1"][0] = 9
	assert.False(t, a.Equal(b))

	assert.False(t, a.Equal(nil))
}

func Test_DynamicData_Update(t *testing.T) {
	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

	a := NewDynamicData()
	a.TimeSeriesData["strain"] = newTestSeries()
	a.TimeSeriesBatchMetadata[1] = TimeSeriesBatchMetadata{
		ServiceName:   "measurement_service",
		BatchDatetime: t0,
		Dependencies:  map[int64]TimeSeriesBatchDependency{},
	}

	b := NewDynamicData()
	b.TimeSeriesData["displacement"] = newTestSeries()
	b.TimeSeriesBatchMetadata[2] = TimeSeriesBatchMetadata{
		ServiceName:   "analysis_service",
		BatchDatetime: t0.Add(time.Minute),
		Dependencies:  map[int64]TimeSeriesBatchDependency{1: {ID: 10}},
	}

	a.Update(b)

	assert.Len(t, a.TimeSeriesData, 2)
	assert.Len(t, a.TimeSeriesBatchMetadata, 2)
	assert.True(t, a.TimeSeriesBatchMetadata[2].Equal(b.TimeSeriesBatchMetadata[2]))
}
