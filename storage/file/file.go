// Package file stores tables and time-series as CSV on the datadrive. Table
// names passed to the store are file paths.
package file

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/i-SAS/isas-base/storage"
	storageerrors "github.com/i-SAS/isas-base/storage/errors"
	"github.com/i-SAS/isas-base/types"
)

const timeColumn = "time"

type Store struct {
	schema storage.Schema
	logger hclog.Logger
}

func New(logger hclog.Logger) (*Store, error) {
	schema, err := storage.DefaultSchema()
	if err != nil {
		return nil, err
	}
	return &Store{
		schema: schema,
		logger: logger.Named("file"),
	}, nil
}

func (s *Store) Migrate() error { return nil }

func (s *Store) Close() error { return nil }

// LoadTable reads a metadata CSV. The file's base name (without extension)
// selects the schema used for column filtering and type coercion; a missing
// file loads as no rows.
func (s *Store) LoadTable(ctx context.Context, path string) ([]storage.Row, error) {
	s.logger.Debug("load table", "path", path)
	header, records, err := s.readCSV(path)
	if err != nil || header == nil {
		return nil, err
	}

	rows := make([]storage.Row, 0, len(records))
	for _, record := range records {
		row := make(storage.Row, len(header))
		for i, col := range header {
			if i < len(record) && record[i] != "" {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return s.schema.NormalizeRows(tableName(path), rows)
}

// SaveTable rewrites a metadata CSV. Only replace mode is meaningful for
// whole-file tables.
func (s *Store) SaveTable(ctx context.Context, path string, rows []storage.Row, mode storage.SaveMode) error {
	if mode != storage.SaveReplace {
		return storageerrors.NewInvalidSaveMode(
			fmt.Sprintf("file store does not support save mode %q for tables", mode.String()))
	}
	if len(rows) == 0 {
		return nil
	}

	columns := s.tableColumns(tableName(path), rows)
	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		record := make([]string, len(columns))
		for i, col := range columns {
			record[i] = formatCell(row[col])
		}
		records = append(records, record)
	}

	s.logger.Debug("save table", "path", path, "rows", len(rows))
	return writeCSV(path, columns, records, false)
}

// LoadFrame reads a free-form numeric table (sensor data, structural model
// components, connection maps).
func (s *Store) LoadFrame(path string) (*types.Table, error) {
	s.logger.Debug("load frame", "path", path)
	header, records, err := s.readCSV(path)
	if err != nil || header == nil {
		return nil, err
	}

	rows := make([][]float64, 0, len(records))
	for _, record := range records {
		row := make([]float64, len(header))
		for i := range header {
			row[i] = math.NaN()
			if i < len(record) && record[i] != "" {
				v, err := strconv.ParseFloat(record[i], 64)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
				row[i] = v
			}
		}
		rows = append(rows, row)
	}
	return types.NewTable(header, rows), nil
}

// SaveFrame rewrites a free-form numeric table.
func (s *Store) SaveFrame(path string, table *types.Table) error {
	if table == nil || table.NumRows() == 0 {
		return nil
	}

	records := make([][]string, 0, len(table.Rows))
	for _, row := range table.Rows {
		record := make([]string, len(row))
		for i, v := range row {
			record[i] = formatFloat(v)
		}
		records = append(records, record)
	}

	s.logger.Debug("save frame", "path", path, "rows", len(records))
	return writeCSV(path, table.Columns, records, false)
}

// LoadSeries reads a time-series CSV, keeping rows with first <= t < last.
func (s *Store) LoadSeries(ctx context.Context, path string, first, last *time.Time) (*types.TimeSeriesData, error) {
	s.logger.Debug("load series", "path", path)
	header, records, err := s.readCSV(path)
	if err != nil || header == nil {
		return nil, err
	}
	if len(header) == 0 || header[0] != timeColumn {
		return nil, fmt.Errorf("%s: first column must be %q, got %q", path, timeColumn, strings.Join(header, ","))
	}

	data := types.NewTimeSeriesData(nil)
	for _, name := range header[1:] {
		if types.IsTagKey(name) {
			data.Tags[name] = nil
		} else {
			data.Fields[name] = nil
		}
	}

	for _, record := range records {
		t, err := time.Parse(time.RFC3339Nano, record[0])
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		t = t.UTC()
		if first != nil && t.Before(*first) {
			continue
		}
		if last != nil && !t.Before(*last) {
			continue
		}
		data.Times = append(data.Times, t)
		for i, name := range header[1:] {
			cell := ""
			if i+1 < len(record) {
				cell = record[i+1]
			}
			if types.IsTagKey(name) {
				data.Tags[name] = append(data.Tags[name], cell)
				continue
			}
			v := math.NaN()
			if cell != "" {
				v, err = strconv.ParseFloat(cell, 64)
				if err != nil {
					return nil, fmt.Errorf("%s: %w", path, err)
				}
			}
			data.Fields[name] = append(data.Fields[name], v)
		}
	}
	return data, nil
}

// SaveSeries appends rows to a time-series CSV, writing the header only when
// the file is created.
func (s *Store) SaveSeries(ctx context.Context, path string, data *types.TimeSeriesData) error {
	if data.Len() == 0 {
		return nil
	}

	fieldNames := data.FieldNames()
	var tagNames []string
	for _, key := range types.TagKeys() {
		if _, ok := data.Tags[key]; ok {
			tagNames = append(tagNames, key)
		}
	}

	header := append([]string{timeColumn}, fieldNames...)
	header = append(header, tagNames...)

	records := make([][]string, 0, data.Len())
	for i, t := range data.Times {
		record := make([]string, 0, len(header))
		record = append(record, t.UTC().Format(time.RFC3339Nano))
		for _, name := range fieldNames {
			record = append(record, formatFloat(data.Fields[name][i]))
		}
		for _, name := range tagNames {
			record = append(record, data.Tags[name][i])
		}
		records = append(records, record)
	}

	s.logger.Debug("save series", "path", path, "rows", len(records))
	return writeCSV(path, header, records, true)
}

func (s *Store) readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Info("file not found", "path", path)
			return nil, nil, nil
		}
		return nil, nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	all, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	if len(all) == 0 {
		return nil, nil, nil
	}
	return all[0], all[1:], nil
}

func writeCSV(path string, header []string, records [][]string, appendMode bool) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	flags := os.O_CREATE | os.O_WRONLY
	writeHeader := true
	if appendMode {
		flags |= os.O_APPEND
		if _, err := os.Stat(path); err == nil {
			writeHeader = false
		}
	} else {
		flags |= os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if writeHeader {
		if err := writer.Write(header); err != nil {
			return err
		}
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func (s *Store) tableColumns(table string, rows []storage.Row) []string {
	if tableSchema, err := s.schema.Lookup(table); err == nil {
		var columns []string
		for _, col := range tableSchema.Columns {
			for _, row := range rows {
				if _, ok := row[col.Name]; ok {
					columns = append(columns, col.Name)
					break
				}
			}
		}
		return columns
	}
	seen := map[string]struct{}{}
	var columns []string
	for _, row := range rows {
		for col := range row {
			if _, ok := seen[col]; !ok {
				seen[col] = struct{}{}
				columns = append(columns, col)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

func tableName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func formatCell(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return formatFloat(x)
	case bool:
		return strconv.FormatBool(x)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%v", v)
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
