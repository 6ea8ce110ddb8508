package subpackage

import (
	"fmt"

	"github.com/hashicorp/go-hclog"
)

// Config keys shared by visualization models.
const (
	ConfigColorTheme     = "COLOR_THEME"
	ConfigUpdatePriority = "UPDATE_PRIORITY"
)

// ThemeColors maps a color theme to its text color. "default" is replaced by
// the frontend's selected theme via SetColorTheme.
var ThemeColors = map[string]string{
	"default": "#000000",
	"white":   "#000000",
	"dark":    "#ffffff",
}

// VisualizationSpec is the per-model contract for visualization models.
type VisualizationSpec struct {
	ModelName                 string
	DefaultInputDataNameDict  map[string][]string
	DefaultOutputDataNameDict map[string][]string
	DefaultConfig             map[string]interface{}
}

type VisualizationOptions struct {
	InstanceName string
	ServiceName  string

	// SizeRatio is the widget size ratio (width, height), each within [1, 12].
	SizeRatio [2]int

	InputDataNameDict  map[string][]string
	OutputDataNameDict map[string][]string

	SensorName                 string
	OutputDataNameToSensorName map[string]string

	StructuralModelName                 string
	OutputDataNameToStructuralModelName map[string]string

	Params map[string]interface{}
	Logger hclog.Logger
}

// Visualization is the base of visualization models. It carries the layout
// metadata the frontend needs; rendering itself stays in the frontend.
type Visualization struct {
	*Core
	InputDataNameDict  map[string][]string
	OutputDataNameDict map[string][]string
	SizeRatio          [2]int
}

func NewVisualization(spec VisualizationSpec, opts VisualizationOptions) (*Visualization, error) {
	for _, n := range opts.SizeRatio {
		if n < 1 || n > 12 {
			return nil, fmt.Errorf("model %q: size ratio must be within [1, 12], got %v",
				spec.ModelName, opts.SizeRatio)
		}
	}

	inputDict, err := checkNameDict(opts.InputDataNameDict, spec.DefaultInputDataNameDict, "input")
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", spec.ModelName, err)
	}
	outputDict, err := checkNameDict(opts.OutputDataNameDict, spec.DefaultOutputDataNameDict, "output")
	if err != nil {
		return nil, fmt.Errorf("model %q: %w", spec.ModelName, err)
	}

	core, err := NewCore(CoreOptions{
		Task:                                TaskVisualization,
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

	return &Visualization{
		Core:               core,
		InputDataNameDict:  inputDict,
		OutputDataNameDict: outputDict,
		SizeRatio:          opts.SizeRatio,
	}, nil
}

// UpdatePriority orders widget refreshes; higher runs first.
func (v *Visualization) UpdatePriority() int {
	switch p := v.config[ConfigUpdatePriority].(type) {
	case int:
		return p
	case int64:
		return int(p)
	case float64:
		return int(p)
	}
	return 0
}

// ColorTheme returns the configured color theme.
func (v *Visualization) ColorTheme() string {
	theme, _ := v.config[ConfigColorTheme].(string)
	return theme
}

// SetColorTheme applies the frontend's theme when the model left its theme on
// "default".
func (v *Visualization) SetColorTheme(theme string) {
	if v.ColorTheme() == "default" {
		v.config[ConfigColorTheme] = theme
	}
}
