// Package manager composes the storage backends into the data-management
// unit every i-SAS service uses.
package manager

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/i-SAS/isas-base/storage"
	"github.com/i-SAS/isas-base/storage/file"
	"github.com/i-SAS/isas-base/util"
)

// Data systems a table or series can live in.
const (
	SystemPostgres  = "postgres"
	SystemInflux    = "influx"
	SystemFile      = "file"
	SystemStreaming = "streaming"
)

// Metadata table names. The numeric prefixes fix the relational layout and
// the datadrive file names.
const (
	tableServiceMetadata            = "000_service_metadata"
	tableBatchMetadata              = "001_time_series_batch_metadata"
	tableBatchDependencies          = "002_time_series_batch_dependencies"
	tableTimeSeriesMetadata         = "010_time_series_metadata"
	tableTimeSeriesStructuralModels = "011_time_series_structural_models"
	tableTimeSeriesSensors          = "013_time_series_sensors"
	tableInstanceMetadata           = "020_instance_metadata"
	tableInstanceInputs             = "021_instance_inputs"
	tableInstanceOutputs            = "022_instance_outputs"
	tableSensorMetadata             = "030_sensor_metadata"
	tableSensorsStructuralModels    = "032_sensors_structural_models"
	tableStructuralModelMetadata    = "040_structural_model_metadata"
)

// Datadrive directories.
const (
	dirStaticInitRDB         = "static_data/init_rdb"
	dirDynamicInitRDB        = "dynamic_data/init_rdb"
	dirDynamicInitTSDB       = "dynamic_data/init_tsdb"
	dirTimeSeriesConnections = "static_data/012_time_series_structural_model_connections"
	dirSensors               = "static_data/031_sensors"
	dirSensorConnections     = "static_data/033_sensor_structural_model_connections"
	dirStructuralModels      = "static_data/041_structural_models"
)

var staticDataTables = []string{
	tableServiceMetadata,
	tableTimeSeriesMetadata,
	tableTimeSeriesStructuralModels,
	tableTimeSeriesSensors,
	tableInstanceMetadata,
	tableInstanceInputs,
	tableInstanceOutputs,
	tableSensorMetadata,
	tableSensorsStructuralModels,
	tableStructuralModelMetadata,
}

var dynamicDataTables = []string{
	tableBatchMetadata,
	tableBatchDependencies,
}

// Manager moves static and dynamic data between the configured backends and
// the datadrive.
type Manager struct {
	datadrive string
	tables    storage.TableStore
	series    storage.SeriesStore
	stream    storage.SeriesStore
	files     *file.Store
	schema    storage.Schema
	logger    hclog.Logger
}

// Options configures a Manager. Tables, Series and Stream are optional;
// operations naming an unconfigured system fail.
type Options struct {
	Datadrive string
	Tables    storage.TableStore
	Series    storage.SeriesStore
	Stream    storage.SeriesStore
	Logger    hclog.Logger
}

func New(opts Options) (*Manager, error) {
	if opts.Datadrive == "" {
		return nil, fmt.Errorf("datadrive path is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.Default()
	}
	logger = logger.Named("data-manager")

	files, err := file.New(logger)
	if err != nil {
		return nil, err
	}
	schema, err := storage.DefaultSchema()
	if err != nil {
		return nil, err
	}

	return &Manager{
		datadrive: opts.Datadrive,
		tables:    opts.Tables,
		series:    opts.Series,
		stream:    opts.Stream,
		files:     files,
		schema:    schema,
		logger:    logger,
	}, nil
}

// Datadrive returns the datadrive root path.
func (m *Manager) Datadrive() string { return m.datadrive }

// InitRDB migrates the relational store and seeds it from the datadrive's
// init_rdb directories.
func (m *Manager) InitRDB(ctx context.Context, system string) error {
	store, err := m.tableStore(system)
	if err != nil {
		return err
	}
	if system != SystemPostgres {
		return fmt.Errorf("data system %q must be one of: %s", system, SystemPostgres)
	}

	if err := store.Migrate(); err != nil {
		return fmt.Errorf("migrate relational store: %w", err)
	}

	var merr *multierror.Error
	for _, dir := range []string{dirStaticInitRDB, dirDynamicInitRDB} {
		entries, err := os.ReadDir(filepath.Join(m.datadrive, dir))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return err
		}
		for _, entry := range entries {
			table := trimExt(entry.Name())
			if !m.schema.Has(table) {
				continue
			}
			path := filepath.Join(m.datadrive, dir, entry.Name())
			rows, err := m.files.LoadTable(ctx, path)
			if err != nil {
				merr = multierror.Append(merr, fmt.Errorf("seed %q: %w", table, err))
				continue
			}
			if len(rows) == 0 {
				continue
			}
			if err := store.SaveTable(ctx, table, rows, storage.SaveAppend); err != nil {
				merr = multierror.Append(merr, fmt.Errorf("seed %q: %w", table, err))
			}
		}
	}
	return merr.ErrorOrNil()
}

// InitTSDB seeds the time-series store from the datadrive's init_tsdb
// directory.
func (m *Manager) InitTSDB(ctx context.Context, system string) error {
	store, err := m.seriesStore(system)
	if err != nil {
		return err
	}
	if system != SystemInflux {
		return fmt.Errorf("data system %q must be one of: %s", system, SystemInflux)
	}

	entries, err := os.ReadDir(filepath.Join(m.datadrive, dirDynamicInitTSDB))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	var merr *multierror.Error
	for _, entry := range entries {
		name := trimExt(entry.Name())
		path := filepath.Join(m.datadrive, dirDynamicInitTSDB, entry.Name())
		data, err := m.files.LoadSeries(ctx, path, nil, nil)
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("seed series %q: %w", name, err))
			continue
		}
		if data.Len() == 0 {
			continue
		}
		if err := store.SaveSeries(ctx, name, data); err != nil {
			merr = multierror.Append(merr, fmt.Errorf("seed series %q: %w", name, err))
		}
	}
	return merr.ErrorOrNil()
}

func (m *Manager) tableStore(system string) (storage.TableStore, error) {
	switch system {
	case SystemPostgres:
		if m.tables == nil {
			return nil, fmt.Errorf("table store %q is not configured", system)
		}
		return m.tables, nil
	case SystemFile:
		return m.files, nil
	}
	return nil, fmt.Errorf("data system %q must be one of: %s",
		system, strings.Join([]string{SystemPostgres, SystemFile}, ", "))
}

func (m *Manager) seriesStore(system string) (storage.SeriesStore, error) {
	switch system {
	case SystemInflux:
		if m.series == nil {
			return nil, fmt.Errorf("series store %q is not configured", system)
		}
		return m.series, nil
	case SystemFile:
		return m.files, nil
	case SystemStreaming:
		if m.stream == nil {
			return nil, fmt.Errorf("series store %q is not configured", system)
		}
		return m.stream, nil
	}
	return nil, fmt.Errorf("data system %q must be one of: %s",
		system, strings.Join([]string{SystemInflux, SystemFile, SystemStreaming}, ", "))
}

// tableTarget resolves a table name to what the chosen store expects: the
// table name itself, or a datadrive path for the file store.
func (m *Manager) tableTarget(table, system string) string {
	if system != SystemFile {
		return table
	}
	if util.HasString(staticDataTables, table) {
		return filepath.Join(m.datadrive, dirStaticInitRDB, table+".csv")
	}
	if util.HasString(dynamicDataTables, table) {
		return filepath.Join(m.datadrive, dirDynamicInitRDB, table+".csv")
	}
	return filepath.Join(m.datadrive, dirDynamicInitTSDB, table+".csv")
}

func (m *Manager) seriesTarget(name, system string) string {
	if system == SystemFile {
		return filepath.Join(m.datadrive, dirDynamicInitTSDB, name+".csv")
	}
	return name
}

func (m *Manager) loadTable(ctx context.Context, table, system string) ([]storage.Row, error) {
	store, err := m.tableStore(system)
	if err != nil {
		return nil, err
	}
	return store.LoadTable(ctx, m.tableTarget(table, system))
}

func (m *Manager) saveTable(ctx context.Context, table string, rows []storage.Row, system string, mode storage.SaveMode) error {
	if len(rows) == 0 {
		return nil
	}
	store, err := m.tableStore(system)
	if err != nil {
		return err
	}
	if system == SystemFile {
		mode = storage.SaveReplace
	}
	return store.SaveTable(ctx, m.tableTarget(table, system), rows, mode)
}

// saveSplitByID syncs rows that carry an ID and appends rows that do not, so
// new records pick up serial IDs while existing ones update in place. The file
// store rewrites whole tables, so it gets all rows in one save.
func (m *Manager) saveSplitByID(ctx context.Context, table string, rows []storage.Row, system string) error {
	if system == SystemFile {
		return m.saveTable(ctx, table, rows, system, storage.SaveReplace)
	}

	var withID, withoutID []storage.Row
	for _, row := range rows {
		if id, ok := row["id"].(int64); ok && id != 0 {
			withID = append(withID, row)
			continue
		}
		delete(row, "id")
		withoutID = append(withoutID, row)
	}
	if err := m.saveTable(ctx, table, withID, system, storage.SaveSync); err != nil {
		return err
	}
	return m.saveTable(ctx, table, withoutID, system, storage.SaveAppend)
}

func trimExt(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name))
}
