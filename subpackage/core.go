package subpackage

import (
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/i-SAS/isas-base/types"
	"github.com/i-SAS/isas-base/util"
)

// CoreOptions carries everything shared by the task bases. Per-output maps
// default to the single SensorName / StructuralModelName applied to every
// output.
type CoreOptions struct {
	Task         string
	ModelName    string
	InstanceName string
	ServiceName  string

	InputDataNames  []string
	OutputDataNames []string

	SensorName                 string
	OutputDataNameToSensorName map[string]string

	StructuralModelName                 string
	OutputDataNameToStructuralModelName map[string]string

	// DefaultConfig is the model's config template; nil values mark required
	// parameters. Params overlays it.
	DefaultConfig map[string]interface{}
	Params        map[string]interface{}

	Logger hclog.Logger
}

// Core implements the shared half of Module. Models embed it and add Process
// and Exit.
type Core struct {
	task         string
	modelName    string
	instanceName string
	serviceName  string

	inputDataNames  []string
	outputDataNames []string

	sensorNames          map[string]string
	structuralModelNames map[string]string

	config map[string]interface{}
	logger hclog.Logger

	staticData *types.StaticData
	streaming  bool

	// Filled by the model before StaticData is read.
	CoordSys         map[string]string
	ComponentNames   map[string]string
	ModelConnections map[string]*types.Table
}

func NewCore(opts CoreOptions) (*Core, error) {
	if opts.Task == "" || opts.ModelName == "" || opts.InstanceName == "" {
		return nil, fmt.Errorf("task, model name and instance name are required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = hclog.Default()
	}
	logger = logger.Named(opts.Task).With("model", opts.ModelName, "instance", opts.InstanceName)

	sensorNames := opts.OutputDataNameToSensorName
	if sensorNames == nil {
		sensorNames = map[string]string{}
		for _, dataName := range opts.OutputDataNames {
			sensorNames[dataName] = opts.SensorName
		}
	}
	structuralModelNames := opts.OutputDataNameToStructuralModelName
	if structuralModelNames == nil {
		structuralModelNames = map[string]string{}
		for _, dataName := range opts.OutputDataNames {
			structuralModelNames[dataName] = opts.StructuralModelName
		}
	}

	config, err := util.MergeConfig(opts.DefaultConfig, opts.Params)
	if err != nil {
		return nil, fmt.Errorf("model %q config: %w", opts.ModelName, err)
	}

	logger.Info("initialize subpackage",
		"input_data_names", opts.InputDataNames, "output_data_names", opts.OutputDataNames)

	return &Core{
		task:                 opts.Task,
		modelName:            opts.ModelName,
		instanceName:         opts.InstanceName,
		serviceName:          opts.ServiceName,
		inputDataNames:       opts.InputDataNames,
		outputDataNames:      opts.OutputDataNames,
		sensorNames:          sensorNames,
		structuralModelNames: structuralModelNames,
		config:               config,
		logger:               logger,
		CoordSys:             map[string]string{},
		ComponentNames:       map[string]string{},
		ModelConnections:     map[string]*types.Table{},
	}, nil
}

func (c *Core) Task() string              { return c.task }
func (c *Core) ModelName() string         { return c.modelName }
func (c *Core) InstanceName() string      { return c.instanceName }
func (c *Core) ServiceName() string       { return c.serviceName }
func (c *Core) InputDataNames() []string  { return c.inputDataNames }
func (c *Core) OutputDataNames() []string { return c.outputDataNames }
func (c *Core) Streaming() bool           { return c.streaming }
func (c *Core) Logger() hclog.Logger      { return c.logger }

// Config returns the merged model config.
func (c *Core) Config() map[string]interface{} { return c.config }

// ConfigValue returns one config entry; ok is false when the key is absent.
func (c *Core) ConfigValue(key string) (interface{}, bool) {
	v, ok := c.config[key]
	return v, ok
}

// SetConfigValue overwrites one config entry.
func (c *Core) SetConfigValue(key string, value interface{}) {
	c.config[key] = value
}

// SetModel binds the static model, checking that every sensor and structural
// model the outputs reference exists.
func (c *Core) SetModel(sd *types.StaticData, streaming bool) error {
	c.logger.Info("set model", "streaming", streaming)

	for dataName, sensorName := range c.sensorNames {
		if sensorName == "" {
			continue
		}
		if sd == nil {
			return fmt.Errorf("sensor %q for %q does not exist", sensorName, dataName)
		}
		if _, ok := sd.Sensors[sensorName]; !ok {
			return fmt.Errorf("sensor %q for %q does not exist", sensorName, dataName)
		}
	}
	for dataName, modelName := range c.structuralModelNames {
		if modelName == "" {
			continue
		}
		if sd == nil {
			return fmt.Errorf("structural model %q for %q does not exist", modelName, dataName)
		}
		if _, ok := sd.StructuralModels[modelName]; !ok {
			return fmt.Errorf("structural model %q for %q does not exist", modelName, dataName)
		}
	}

	c.staticData = sd
	c.streaming = streaming
	return nil
}

// Model returns the bound static data.
func (c *Core) Model() *types.StaticData { return c.staticData }

// StaticData assembles the metadata this instance contributes.
func (c *Core) StaticData() *types.StaticData {
	sd := types.NewStaticData()

	for _, dataName := range c.outputDataNames {
		sensorInfo := map[string]types.SensorInfo{}
		sensorName := c.sensorNames[dataName]
		if sensorName != "" {
			sensorInfo[sensorName] = types.SensorInfo{}
		}

		modelInfo := map[string]types.StructuralModelInfo{}
		if modelName := c.structuralModelNames[dataName]; modelName != "" {
			connection := c.ModelConnections[dataName]
			if connection == nil && sensorName != "" && c.staticData != nil {
				connection = connectionFromSensor(c.staticData.Sensors[sensorName], modelName)
			}
			modelInfo[modelName] = types.StructuralModelInfo{
				ComponentName: c.ComponentNames[dataName],
				Connection:    connection,
			}
		}

		sd.TimeSeriesMetadata[dataName] = types.TimeSeriesMetadata{
			CoordSys:            c.CoordSys[dataName],
			SensorInfo:          sensorInfo,
			StructuralModelInfo: modelInfo,
		}
	}

	inputs := make(map[string]types.InstanceInputMetadata, len(c.inputDataNames))
	for _, dataName := range c.inputDataNames {
		inputs[dataName] = types.InstanceInputMetadata{}
	}
	outputs := make(map[string]types.InstanceOutputMetadata, len(c.outputDataNames))
	for _, dataName := range c.outputDataNames {
		outputs[dataName] = types.InstanceOutputMetadata{}
	}
	sd.InstanceMetadata[c.instanceName] = types.InstanceMetadata{
		ModelName:      c.modelName,
		ServiceName:    c.serviceName,
		InputMetadata:  inputs,
		OutputMetadata: outputs,
	}
	return sd
}

func connectionFromSensor(sensor types.Sensor, modelName string) *types.Table {
	info, ok := sensor.StructuralModelInfo[modelName]
	if !ok {
		return nil
	}
	return info.Connection
}
