package storage

import (
	"context"
	"time"

	"github.com/i-SAS/isas-base/types"
)

// Row is one record of a metadata table. Values are int64, float64, bool,
// string or time.Time after schema normalization.
type Row map[string]interface{}

// SaveMode selects how SaveTable reconciles rows with existing data.
type SaveMode int

const (
	// SaveSync upserts on the table's conflict key.
	SaveSync SaveMode = iota
	// SaveAppend inserts rows as new records.
	SaveAppend
	// SaveReplace rewrites the whole table. Only file-backed stores accept it.
	SaveReplace
)

func (m SaveMode) String() string {
	switch m {
	case SaveSync:
		return "sync"
	case SaveAppend:
		return "append"
	case SaveReplace:
		return "replace"
	}
	return "unknown"
}

// TableStore persists metadata tables. Loading a table that does not exist
// yet yields no rows, not an error.
type TableStore interface {
	Migrate() error
	LoadTable(ctx context.Context, table string) ([]Row, error)
	SaveTable(ctx context.Context, table string, rows []Row, mode SaveMode) error
	Close() error
}

// SeriesStore persists named time-series. first/last bound the loaded range;
// nil means unbounded on that side.
type SeriesStore interface {
	LoadSeries(ctx context.Context, name string, first, last *time.Time) (*types.TimeSeriesData, error)
	SaveSeries(ctx context.Context, name string, data *types.TimeSeriesData) error
	Close() error
}
