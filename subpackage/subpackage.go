// Package subpackage is the framework every i-SAS model plugs into:
// measurement, analysis and visualization modules share the same lifecycle
// and static-data contract.
package subpackage

import (
	"context"

	"github.com/i-SAS/isas-base/types"
)

// Tasks a module can implement.
const (
	TaskMeasurement   = "measurement"
	TaskAnalysis      = "analysis"
	TaskVisualization = "visualization"
)

// Module is the lifecycle every model implements. Core provides everything
// except Process and Exit.
type Module interface {
	Task() string
	ModelName() string
	InstanceName() string

	// SetModel binds the static model before the first Process call.
	SetModel(sd *types.StaticData, streaming bool) error

	// Process turns one batch of dynamic data into output series, keyed by
	// output data name.
	Process(ctx context.Context, dd *types.DynamicData) (map[string]*types.TimeSeriesData, error)

	Exit() error

	// StaticData returns the metadata this instance contributes: its
	// time-series metadata and instance record.
	StaticData() *types.StaticData
}
