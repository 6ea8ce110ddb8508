package subpackage

import (
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i-SAS/isas-base/types"
)

func newTestCore(t *testing.T) *Core {
	t.Helper()
	core, err := NewCore(CoreOptions{
		Task:                TaskMeasurement,
		ModelName:           "fbg_connector",
		InstanceName:        "strain_measurement",
		ServiceName:         "measurement_service",
		InputDataNames:      []string{"raw_wavelength"},
		OutputDataNames:     []string{"strain"},
		SensorName:          "fbg_1",
		StructuralModelName: "girder",
		DefaultConfig:       map[string]interface{}{"gain": 1.0},
		Logger:              hclog.NewNullLogger(),
	})
	require.NoError(t, err)
	return core
}

func newBoundStaticData(t *testing.T) *types.StaticData {
	t.Helper()
	model, err := types.NewStructuralModel(types.ModelTypePointCloud)
	require.NoError(t, err)

	sd := types.NewStaticData()
	sd.Sensors["fbg_1"] = types.Sensor{
		StructuralModelInfo: map[string]types.StructuralModelInfo{
			"girder": {Connection: types.NewTable([]string{"data_id", "point_id"}, [][]float64{{0, 1}})},
		},
	}
	sd.StructuralModels["girder"] = model
	return sd
}

func Test_NewCore_Defaults(t *testing.T) {
	core := newTestCore(t)

	assert.Equal(t, TaskMeasurement, core.Task())
	assert.Equal(t, "fbg_connector", core.ModelName())
	assert.Equal(t, "strain_measurement", core.InstanceName())
	assert.Equal(t, "measurement_service", core.ServiceName())

	// single names expand to per-output maps
	assert.Equal(t, map[string]string{"strain": "fbg_1"}, core.sensorNames)
	assert.Equal(t, map[string]string{"strain": "girder"}, core.structuralModelNames)

	gain, ok := core.ConfigValue("gain")
	require.True(t, ok)
	assert.Equal(t, 1.0, gain)
}

func Test_NewCore_MissingIdentity(t *testing.T) {
	_, err := NewCore(CoreOptions{Task: TaskMeasurement})
	require.Error(t, err)
}

func Test_NewCore_RequiredConfig(t *testing.T) {
	_, err := NewCore(CoreOptions{
		Task:          TaskMeasurement,
		ModelName:     "fbg_connector",
		InstanceName:  "strain_measurement",
		DefaultConfig: map[string]interface{}{"gain": nil},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "gain")

	_, err = NewCore(CoreOptions{
		Task:          TaskMeasurement,
		ModelName:     "fbg_connector",
		InstanceName:  "strain_measurement",
		DefaultConfig: map[string]interface{}{"gain": nil},
		Params:        map[string]interface{}{"gain": 2.0},
	})
	require.NoError(t, err)
}

func Test_Core_SetModel(t *testing.T) {
	core := newTestCore(t)
	sd := newBoundStaticData(t)

	require.NoError(t, core.SetModel(sd, true))
	assert.True(t, core.Streaming())
	assert.Same(t, sd, core.Model())
}

func Test_Core_SetModel_MissingSensor(t *testing.T) {
	core := newTestCore(t)
	sd := newBoundStaticData(t)
	delete(sd.Sensors, "fbg_1")

	err := core.SetModel(sd, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fbg_1")
}

func Test_Core_SetModel_MissingStructuralModel(t *testing.T) {
	core := newTestCore(t)
	sd := newBoundStaticData(t)
	delete(sd.StructuralModels, "girder")

	err := core.SetModel(sd, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "girder")
}

func Test_Core_StaticData(t *testing.T) {
	core := newTestCore(t)
	require.NoError(t, core.SetModel(newBoundStaticData(t), false))
	core.CoordSys["strain"] = "local"
	core.ComponentNames["strain"] = "point_cloud"

	sd := core.StaticData()

	require.Contains(t, sd.TimeSeriesMetadata, "strain")
	metadata := sd.TimeSeriesMetadata["strain"]
	assert.Equal(t, "local", metadata.CoordSys)
	assert.Contains(t, metadata.SensorInfo, "fbg_1")

	require.Contains(t, metadata.StructuralModelInfo, "girder")
	binding := metadata.StructuralModelInfo["girder"]
	assert.Equal(t, "point_cloud", binding.ComponentName)
	// connection falls back to the bound sensor's
	require.NotNil(t, binding.Connection)
	assert.Equal(t, []string{"data_id", "point_id"}, binding.Connection.Columns)

	require.Contains(t, sd.InstanceMetadata, "strain_measurement")
	instance := sd.InstanceMetadata["strain_measurement"]
	assert.Equal(t, "fbg_connector", instance.ModelName)
	assert.Equal(t, "measurement_service", instance.ServiceName)
	assert.Contains(t, instance.InputMetadata, "raw_wavelength")
	assert.Contains(t, instance.OutputMetadata, "strain")
}
