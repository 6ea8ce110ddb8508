package types

// ServiceMetadata describes a registered service. The record currently
// carries no payload beyond its key in StaticData.ServiceMetadata.
type ServiceMetadata struct{}

// SensorInfo binds a sensor to a time-series by its relational ID.
type SensorInfo struct {
	ID int64 `json:"id" db:"id"`
}

// StructuralModelInfo binds a structural model to a time-series or sensor.
// Connection maps data channels onto model components (nodes, elements).
type StructuralModelInfo struct {
	ID            int64  `json:"id" db:"id"`
	ComponentName string `json:"component_name" db:"component_name"`
	Connection    *Table `json:"connection"`
}

func (i StructuralModelInfo) Equal(other StructuralModelInfo) bool {
	return i.ID == other.ID &&
		i.ComponentName == other.ComponentName &&
		i.Connection.Equal(other.Connection)
}

// TimeSeriesMetadata describes one named time-series: its coordinate system
// and the sensors / structural models it is attached to.
type TimeSeriesMetadata struct {
	CoordSys            string
	SensorInfo          map[string]SensorInfo
	StructuralModelInfo map[string]StructuralModelInfo
}

func (m TimeSeriesMetadata) Equal(other TimeSeriesMetadata) bool {
	if m.CoordSys != other.CoordSys {
		return false
	}
	if len(m.SensorInfo) != len(other.SensorInfo) {
		return false
	}
	for name, info := range m.SensorInfo {
		if other.SensorInfo[name] != info {
			return false
		}
	}
	if len(m.StructuralModelInfo) != len(other.StructuralModelInfo) {
		return false
	}
	for name, info := range m.StructuralModelInfo {
		if !info.Equal(other.StructuralModelInfo[name]) {
			return false
		}
	}
	return true
}

type InstanceInputMetadata struct {
	ID int64 `json:"id" db:"id"`
}

type InstanceOutputMetadata struct {
	ID int64 `json:"id" db:"id"`
}

// InstanceMetadata describes one running module instance and the data names
// it consumes and produces.
type InstanceMetadata struct {
	ModelName      string
	ServiceName    string
	InputMetadata  map[string]InstanceInputMetadata
	OutputMetadata map[string]InstanceOutputMetadata
}

func (m InstanceMetadata) Equal(other InstanceMetadata) bool {
	if m.ModelName != other.ModelName || m.ServiceName != other.ServiceName {
		return false
	}
	if len(m.InputMetadata) != len(other.InputMetadata) ||
		len(m.OutputMetadata) != len(other.OutputMetadata) {
		return false
	}
	for name, info := range m.InputMetadata {
		if other.InputMetadata[name] != info {
			return false
		}
	}
	for name, info := range m.OutputMetadata {
		if other.OutputMetadata[name] != info {
			return false
		}
	}
	return true
}

// Sensor is a physical or simulated sensor: placement flags, its free-form
// data table and its bindings to structural models.
type Sensor struct {
	Locational          bool
	Directional         bool
	StructuralModelInfo map[string]StructuralModelInfo
	Data                *Table
}

func (s Sensor) Equal(other Sensor) bool {
	if s.Locational != other.Locational || s.Directional != other.Directional {
		return false
	}
	if !s.Data.Equal(other.Data) {
		return false
	}
	if len(s.StructuralModelInfo) != len(other.StructuralModelInfo) {
		return false
	}
	for name, info := range s.StructuralModelInfo {
		if !info.Equal(other.StructuralModelInfo[name]) {
			return false
		}
	}
	return true
}

// StaticData is the full static model of a deployment: everything that does
// not change batch to batch.
type StaticData struct {
	ServiceMetadata    map[string]ServiceMetadata
	TimeSeriesMetadata map[string]TimeSeriesMetadata
	InstanceMetadata   map[string]InstanceMetadata
	Sensors            map[string]Sensor
	StructuralModels   map[string]StructuralModel
}

func NewStaticData() *StaticData {
	return &StaticData{
		ServiceMetadata:    map[string]ServiceMetadata{},
		TimeSeriesMetadata: map[string]TimeSeriesMetadata{},
		InstanceMetadata:   map[string]InstanceMetadata{},
		Sensors:            map[string]Sensor{},
		StructuralModels:   map[string]StructuralModel{},
	}
}

// Update merges other into s, entry by entry. Entries present in both are
// overwritten by other's.
func (s *StaticData) Update(other *StaticData) {
	if other == nil {
		return
	}
	for name, v := range other.ServiceMetadata {
		s.ServiceMetadata[name] = v
	}
	for name, v := range other.TimeSeriesMetadata {
		s.TimeSeriesMetadata[name] = v
	}
	for name, v := range other.InstanceMetadata {
		s.InstanceMetadata[name] = v
	}
	for name, v := range other.Sensors {
		s.Sensors[name] = v
	}
	for name, v := range other.StructuralModels {
		s.StructuralModels[name] = v
	}
}

func (s *StaticData) Equal(other *StaticData) bool {
	if s == nil || other == nil {
		return s == nil && other == nil
	}
	if len(s.ServiceMetadata) != len(other.ServiceMetadata) ||
		len(s.TimeSeriesMetadata) != len(other.TimeSeriesMetadata) ||
		len(s.InstanceMetadata) != len(other.InstanceMetadata) ||
		len(s.Sensors) != len(other.Sensors) ||
		len(s.StructuralModels) != len(other.StructuralModels) {
		return false
	}
	for name, v := range s.ServiceMetadata {
		if other.ServiceMetadata[name] != v {
			return false
		}
	}
	for name, v := range s.TimeSeriesMetadata {
		o, ok := other.TimeSeriesMetadata[name]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	for name, v := range s.InstanceMetadata {
		o, ok := other.InstanceMetadata[name]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	for name, v := range s.Sensors {
		o, ok := other.Sensors[name]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	for name, v := range s.StructuralModels {
		o, ok := other.StructuralModels[name]
		if !ok || !EqualStructuralModels(v, o) {
			return false
		}
	}
	return true
}
