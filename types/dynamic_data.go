package types

import (
	"sort"
	"time"
)

// Tag keys attached to every exported time-series row.
const (
	TagBatchID       = "batch_id"
	TagServiceName   = "service_name"
	TagBatchDatetime = "batch_datetime"
)

// TagKeys returns the fixed tag keys in their canonical order.
func TagKeys() []string {
	return []string{TagBatchID, TagServiceName, TagBatchDatetime}
}

// IsTagKey reports whether a column name is one of the fixed tag keys.
func IsTagKey(name string) bool {
	for _, k := range TagKeys() {
		if name == k {
			return true
		}
	}
	return false
}

// TimeSeriesData is one named series: row-aligned timestamps, float field
// columns keyed by channel name and string tag columns.
type TimeSeriesData struct {
	Times  []time.Time
	Fields map[string][]float64
	Tags   map[string][]string
}

func NewTimeSeriesData(times []time.Time) *TimeSeriesData {
	return &TimeSeriesData{
		Times:  times,
		Fields: map[string][]float64{},
		Tags:   map[string][]string{},
	}
}

// FieldNames returns the field column names in sorted order.
func (d *TimeSeriesData) FieldNames() []string {
	names := make([]string, 0, len(d.Fields))
	for name := range d.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TagNames returns the present tag column names in sorted order.
func (d *TimeSeriesData) TagNames() []string {
	names := make([]string, 0, len(d.Tags))
	for name := range d.Tags {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *TimeSeriesData) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Times)
}

func (d *TimeSeriesData) Equal(other *TimeSeriesData) bool {
	if d == nil || other == nil {
		return d == nil && other == nil
	}
	if len(d.Times) != len(other.Times) ||
		len(d.Fields) != len(other.Fields) ||
		len(d.Tags) != len(other.Tags) {
		return false
	}
	for i, t := range d.Times {
		if !t.Equal(other.Times[i]) {
			return false
		}
	}
	for name, values := range d.Fields {
		ov, ok := other.Fields[name]
		if !ok || len(ov) != len(values) {
			return false
		}
		for i, v := range values {
			if !floatEqual(v, ov[i]) {
				return false
			}
		}
	}
	for name, values := range d.Tags {
		ov, ok := other.Tags[name]
		if !ok || len(ov) != len(values) {
			return false
		}
		for i, v := range values {
			if v != ov[i] {
				return false
			}
		}
	}
	return true
}

// TimeSeriesBatchDependency records that a batch was computed from another.
type TimeSeriesBatchDependency struct {
	ID int64 `json:"id" db:"id"`
}

// TimeSeriesBatchMetadata describes one export batch. Dependencies is keyed
// by the batch ID the batch depends on.
type TimeSeriesBatchMetadata struct {
	ServiceName   string
	BatchDatetime time.Time
	Dependencies  map[int64]TimeSeriesBatchDependency
}

func (m TimeSeriesBatchMetadata) Equal(other TimeSeriesBatchMetadata) bool {
	if m.ServiceName != other.ServiceName || !m.BatchDatetime.Equal(other.BatchDatetime) {
		return false
	}
	if len(m.Dependencies) != len(other.Dependencies) {
		return false
	}
	for id, dep := range m.Dependencies {
		if other.Dependencies[id] != dep {
			return false
		}
	}
	return true
}

// DynamicData is everything that changes batch to batch: the series
// themselves and the batch bookkeeping.
type DynamicData struct {
	TimeSeriesData          map[string]*TimeSeriesData
	TimeSeriesBatchMetadata map[int64]TimeSeriesBatchMetadata
}

func NewDynamicData() *DynamicData {
	return &DynamicData{
		TimeSeriesData:          map[string]*TimeSeriesData{},
		TimeSeriesBatchMetadata: map[int64]TimeSeriesBatchMetadata{},
	}
}

// Update merges other into d, entry by entry.
func (d *DynamicData) Update(other *DynamicData) {
	if other == nil {
		return
	}
	for name, v := range other.TimeSeriesData {
		d.TimeSeriesData[name] = v
	}
	for id, v := range other.TimeSeriesBatchMetadata {
		d.TimeSeriesBatchMetadata[id] = v
	}
}

func (d *DynamicData) Equal(other *DynamicData) bool {
	if d == nil || other == nil {
		return d == nil && other == nil
	}
	if len(d.TimeSeriesData) != len(other.TimeSeriesData) ||
		len(d.TimeSeriesBatchMetadata) != len(other.TimeSeriesBatchMetadata) {
		return false
	}
	for name, v := range d.TimeSeriesData {
		o, ok := other.TimeSeriesData[name]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	for id, v := range d.TimeSeriesBatchMetadata {
		o, ok := other.TimeSeriesBatchMetadata[id]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}
