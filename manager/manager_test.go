package manager

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i-SAS/isas-base/types"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := New(Options{
		Datadrive: t.TempDir(),
		Logger:    hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return m
}

func newTestStaticData(t *testing.T) *types.StaticData {
	t.Helper()

	model, err := types.NewStructuralModel(types.ModelTypePointCloud)
	require.NoError(t, err)
	require.NoError(t, model.SetComponent("point_cloud",
		types.NewTable([]string{"x", "y", "z"}, [][]float64{{0, 0, 0}, {1, 0, 0}})))

	connection := types.NewTable([]string{"data_id", "point_id"}, [][]float64{{0, 1}})

	sd := types.NewStaticData()
	sd.ServiceMetadata["measurement_service"] = types.ServiceMetadata{}
	sd.StructuralModels["girder"] = model
	sd.Sensors["fbg_1"] = types.Sensor{
		Locational:  true,
		Directional: false,
		StructuralModelInfo: map[string]types.StructuralModelInfo{
			"girder": {ID: 3, ComponentName: "point_cloud", Connection: connection},
		},
		Data: types.NewTable([]string{"x", "y", "z"}, [][]float64{{0.5, 0, 0}}),
	}
	sd.TimeSeriesMetadata["strain"] = types.TimeSeriesMetadata{
		CoordSys:   "local",
		SensorInfo: map[string]types.SensorInfo{"fbg_1": {ID: 1}},
		StructuralModelInfo: map[string]types.StructuralModelInfo{
			"girder": {ID: 2, ComponentName: "point_cloud", Connection: connection},
		},
	}
	sd.InstanceMetadata["strain_measurement"] = types.InstanceMetadata{
		ModelName:      "fbg_connector",
		ServiceName:    "measurement_service",
		InputMetadata:  map[string]types.InstanceInputMetadata{"raw_wavelength": {ID: 4}},
		OutputMetadata: map[string]types.InstanceOutputMetadata{"strain": {ID: 5}},
	}
	return sd
}

func Test_Manager_StaticDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	sd := newTestStaticData(t)

	require.NoError(t, m.ExportStaticData(ctx, sd, SystemFile))

	loaded, err := m.ImportStaticData(ctx, SystemFile)
	require.NoError(t, err)
	assert.True(t, sd.Equal(loaded))
}

func Test_Manager_ImportStaticData_Empty(t *testing.T) {
	m := newTestManager(t)

	loaded, err := m.ImportStaticData(context.Background(), SystemFile)
	require.NoError(t, err)
	assert.True(t, types.NewStaticData().Equal(loaded))
}

func newTestDynamicData() *types.DynamicData {
	t0 := time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC)

	series := types.NewTimeSeriesData([]time.Time{t0, t0.Add(time.Second)})
	series.Fields["ch1"] = []float64{1.5, 2.5}
	series.Tags[types.TagBatchID] = []string{"1", "1"}
	series.Tags[types.TagServiceName] = []string{"measurement_service", "measurement_service"}
	series.Tags[types.TagBatchDatetime] = []string{"2023-04-01T00:00:00Z", "2023-04-01T00:00:00Z"}

	dd := types.NewDynamicData()
	dd.TimeSeriesData["strain"] = series
	dd.TimeSeriesBatchMetadata[1] = types.TimeSeriesBatchMetadata{
		ServiceName:   "measurement_service",
		BatchDatetime: t0,
		Dependencies:  map[int64]types.TimeSeriesBatchDependency{},
	}
	dd.TimeSeriesBatchMetadata[2] = types.TimeSeriesBatchMetadata{
		ServiceName:   "analysis_service",
		BatchDatetime: t0.Add(time.Minute),
		Dependencies:  map[int64]types.TimeSeriesBatchDependency{1: {ID: 10}},
	}
	return dd
}

func Test_Manager_DynamicDataRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	dd := newTestDynamicData()
	opts := DynamicDataOptions{TableSystem: SystemFile, SeriesSystem: SystemFile}

	require.NoError(t, m.ExportDynamicData(ctx, dd, nil, opts))

	loaded, err := m.ImportDynamicData(ctx, []string{"strain"}, opts)
	require.NoError(t, err)
	assert.True(t, dd.Equal(loaded))
}

func Test_Manager_ImportDynamicData_Range(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	dd := newTestDynamicData()
	opts := DynamicDataOptions{TableSystem: SystemFile, SeriesSystem: SystemFile}

	require.NoError(t, m.ExportDynamicData(ctx, dd, nil, opts))

	first := time.Date(2023, 4, 1, 0, 0, 1, 0, time.UTC)
	loaded, err := m.ImportDynamicData(ctx, []string{"strain"}, DynamicDataOptions{
		TableSystem:  SystemFile,
		SeriesSystem: SystemFile,
		First:        &first,
		SkipMetadata: true,
	})
	require.NoError(t, err)

	require.Contains(t, loaded.TimeSeriesData, "strain")
	assert.Equal(t, 1, loaded.TimeSeriesData["strain"].Len())
	assert.Empty(t, loaded.TimeSeriesBatchMetadata)
}

func Test_Manager_DataSystemDispatch(t *testing.T) {
	m := newTestManager(t)

	_, err := m.tableStore(SystemInflux)
	require.Error(t, err)

	_, err = m.tableStore(SystemPostgres)
	require.Error(t, err) // not configured

	_, err = m.seriesStore(SystemStreaming)
	require.Error(t, err) // not configured

	_, err = m.seriesStore(SystemFile)
	require.NoError(t, err)
}

func Test_Manager_Targets(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, "030_sensor_metadata", m.tableTarget("030_sensor_metadata", SystemPostgres))
	assert.Equal(t,
		filepath.Join(m.Datadrive(), "static_data/init_rdb/030_sensor_metadata.csv"),
		m.tableTarget("030_sensor_metadata", SystemFile))
	assert.Equal(t,
		filepath.Join(m.Datadrive(), "dynamic_data/init_rdb/001_time_series_batch_metadata.csv"),
		m.tableTarget("001_time_series_batch_metadata", SystemFile))

	assert.Equal(t, "strain", m.seriesTarget("strain", SystemInflux))
	assert.Equal(t, "strain", m.seriesTarget("strain", SystemStreaming))
	assert.Equal(t,
		filepath.Join(m.Datadrive(), "dynamic_data/init_tsdb/strain.csv"),
		m.seriesTarget("strain", SystemFile))
}

func Test_Manager_InitRDB_WrongSystem(t *testing.T) {
	m := newTestManager(t)

	require.Error(t, m.InitRDB(context.Background(), SystemFile))
	require.Error(t, m.InitTSDB(context.Background(), SystemStreaming))
}
