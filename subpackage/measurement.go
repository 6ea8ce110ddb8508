package subpackage

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// MeasurementSpec is the per-model contract: its name, default data names,
// expected data counts (0 means unconstrained) and config template.
type MeasurementSpec struct {
	ModelName              string
	DefaultInputDataNames  []string
	DefaultOutputDataNames []string
	InputDataNum           int
	OutputDataNum          int
	DefaultConfig          map[string]interface{}
}

type MeasurementOptions struct {
	InstanceName    string
	ServiceName     string
	InputDataNames  []string
	OutputDataNames []string

	SensorName                 string
	OutputDataNameToSensorName map[string]string

	StructuralModelName                 string
	OutputDataNameToStructuralModelName map[string]string

	// Simulation runs the model against simulated sensors.
	Simulation bool

	Params map[string]interface{}
	Logger hclog.Logger
}

// Measurement is the base of sensor simulator and sensor connector models.
type Measurement struct {
	*Core
	Simulation bool
}

func NewMeasurement(spec MeasurementSpec, opts MeasurementOptions) (*Measurement, error) {
	inputNames, outputNames, err := spec.checkDataNames(opts.InputDataNames, opts.OutputDataNames)
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", spec.ModelName, err)
	}

	core, err := NewCore(CoreOptions{
		Task:                                TaskMeasurement,
		ModelName:                           spec.ModelName,
		InstanceName:                        opts.InstanceName,
		ServiceName:                         opts.ServiceName,
		InputDataNames:                      inputNames,
		OutputDataNames:                     outputNames,
		SensorName:                          opts.SensorName,
		OutputDataNameToSensorName:          opts.OutputDataNameToSensorName,
		StructuralModelName:                 opts.StructuralModelName,
		OutputDataNameToStructuralModelName: opts.OutputDataNameToStructuralModelName,
		DefaultConfig:                       spec.DefaultConfig,
		Params:                              opts.Params,
		Logger:                              opts.Logger,
	})
	if err != nil {
		return nil, err
	}

	return &Measurement{Core: core, Simulation: opts.Simulation}, nil
}

func (s MeasurementSpec) checkDataNames(inputNames, outputNames []string) ([]string, []string, error) {
	if inputNames == nil {
		inputNames = s.DefaultInputDataNames
	} else if s.InputDataNum != 0 && len(inputNames) != s.InputDataNum {
		return nil, nil, fmt.Errorf("the number of input data must be %d", s.InputDataNum)
	}
	if outputNames == nil {
		outputNames = s.DefaultOutputDataNames
	} else if s.OutputDataNum != 0 && len(outputNames) != s.OutputDataNum {
		return nil, nil, fmt.Errorf("the number of output data must be %d", s.OutputDataNum)
	}
	return inputNames, outputNames, nil
}
