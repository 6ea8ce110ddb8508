// Package moduletest checks a model against the Module contract. Subpackage
// repositories run it against their models with their own fixtures.
package moduletest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i-SAS/isas-base/subpackage"
	"github.com/i-SAS/isas-base/types"
)

// Params carries the expected identity of the model plus the fixtures to run
// it with.
type Params struct {
	Task            string
	ModelName       string
	InstanceName    string
	ServiceName     string
	InputDataNames  []string
	OutputDataNames []string

	StaticData  *types.StaticData
	DynamicData *types.DynamicData
}

// Run exercises the full Module lifecycle. newModule builds a fresh model per
// subtest; Exit is called on every model it returns.
func Run(t *testing.T, newModule func(t *testing.T) subpackage.Module, p Params) {
	t.Run("attributes", func(t *testing.T) {
		model := start(t, newModule)

		assert.Equal(t, p.Task, model.Task())
		assert.Equal(t, p.ModelName, model.ModelName())
		assert.Equal(t, p.InstanceName, model.InstanceName())
	})

	t.Run("set model", func(t *testing.T) {
		model := start(t, newModule)

		require.NoError(t, model.SetModel(p.StaticData, false))
	})

	t.Run("process", func(t *testing.T) {
		model := start(t, newModule)
		require.NoError(t, model.SetModel(p.StaticData, false))

		results, err := model.Process(context.Background(), p.DynamicData)
		require.NoError(t, err)
		assert.ElementsMatch(t, p.OutputDataNames, keys(results))
	})

	t.Run("static data", func(t *testing.T) {
		model := start(t, newModule)
		require.NoError(t, model.SetModel(p.StaticData, false))

		sd := model.StaticData()
		require.NotNil(t, sd)

		metadataNames := make([]string, 0, len(sd.TimeSeriesMetadata))
		for name := range sd.TimeSeriesMetadata {
			metadataNames = append(metadataNames, name)
		}
		assert.ElementsMatch(t, p.OutputDataNames, metadataNames)

		require.Contains(t, sd.InstanceMetadata, p.InstanceName)
		instance := sd.InstanceMetadata[p.InstanceName]
		assert.Equal(t, p.ModelName, instance.ModelName)
		assert.Equal(t, p.ServiceName, instance.ServiceName)

		inputNames := make([]string, 0, len(instance.InputMetadata))
		for name := range instance.InputMetadata {
			inputNames = append(inputNames, name)
		}
		assert.ElementsMatch(t, p.InputDataNames, inputNames)

		outputNames := make([]string, 0, len(instance.OutputMetadata))
		for name := range instance.OutputMetadata {
			outputNames = append(outputNames, name)
		}
		assert.ElementsMatch(t, p.OutputDataNames, outputNames)
	})
}

func start(t *testing.T, newModule func(t *testing.T) subpackage.Module) subpackage.Module {
	t.Helper()
	model := newModule(t)
	require.NotNil(t, model)
	t.Cleanup(func() {
		require.NoError(t, model.Exit())
	})
	return model
}

func keys(m map[string]*types.TimeSeriesData) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
