package subpackage

import (
	"fmt"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// AnalysisSpec is the per-model contract for analysis solvers. Data names are
// grouped by quantity key; callers may override the names but not invent new
// keys.
type AnalysisSpec struct {
	ModelName                 string
	DefaultInputDataNameDict  map[string][]string
	DefaultOutputDataNameDict map[string][]string
	DefaultConfig             map[string]interface{}
}

type AnalysisOptions struct {
	InstanceName       string
	ServiceName        string
	InputDataNameDict  map[string][]string
	OutputDataNameDict map[string][]string

	SensorName                 string
	OutputDataNameToSensorName map[string]string

	StructuralModelName                 string
	OutputDataNameToStructuralModelName map[string]string

	Params map[string]interface{}
	Logger hclog.Logger
}

// Analysis is the base of analysis solver models.
type Analysis struct {
	*Core
	InputDataNameDict  map[string][]string
	OutputDataNameDict map[string][]string
}

func NewAnalysis(spec AnalysisSpec, opts AnalysisOptions) (*Analysis, error) {
	inputDict, err := checkNameDict(opts.InputDataNameDict, spec.DefaultInputDataNameDict, "input")
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", spec.ModelName, err)
	}
	outputDict, err := checkNameDict(opts.OutputDataNameDict, spec.DefaultOutputDataNameDict, "output")
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", spec.ModelName, err)
	}

	core, err := NewCore(CoreOptions{
		Task:                                TaskAnalysis,
		ModelName:                           spec.ModelName,
		InstanceName:                        opts.InstanceName,
		ServiceName:                         opts.ServiceName,
		InputDataNames:                      flattenNameDict(inputDict),
		OutputDataNames:                     flattenNameDict(outputDict),
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

	return &Analysis{
		Core:               core,
		InputDataNameDict:  inputDict,
		OutputDataNameDict: outputDict,
	}, nil
}

func checkNameDict(given, defaults map[string][]string, kind string) (map[string][]string, error) {
	if given == nil {
		return defaults, nil
	}
	for key := range given {
		if _, ok := defaults[key]; !ok {
			return nil, fmt.Errorf("invalid %s quantity %q, required one of: %v",
				kind, key, nameDictKeys(defaults))
		}
	}
	return given, nil
}

// flattenNameDict chains the grouped names in key order.
func flattenNameDict(dict map[string][]string) []string {
	var names []string
	for _, key := range nameDictKeys(dict) {
		names = append(names, dict[key]...)
	}
	return names
}

func nameDictKeys(dict map[string][]string) []string {
	keys := make([]string, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
