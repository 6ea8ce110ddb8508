// Package influx is the time-series backend. Every data name is a
// measurement; fields are channel columns and tags are the fixed tag keys.
package influx

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	client "github.com/influxdata/influxdb1-client/v2"

	"github.com/i-SAS/isas-base/types"
)

type Settings struct {
	Addr     string `json:"addr"`
	Database string `json:"database"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type Store struct {
	client   client.Client
	database string
	logger   hclog.Logger
}

func New(settings Settings, logger hclog.Logger) (*Store, error) {
	c, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:     settings.Addr,
		Username: settings.Username,
		Password: settings.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("open influx client: %w", err)
	}

	return &Store{
		client:   c,
		database: settings.Database,
		logger:   logger.Named("influx"),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// LoadSeries queries one measurement, bounded by first <= t < last. A
// measurement with no points loads as nil data.
func (s *Store) LoadSeries(ctx context.Context, name string, first, last *time.Time) (*types.TimeSeriesData, error) {
	query := selectQuery(name, first, last)
	s.logger.Debug("load series", "query", query)

	resp, err := s.client.Query(client.NewQuery(query, s.database, ""))
	if err != nil {
		return nil, fmt.Errorf("query %q: %w", name, err)
	}
	if resp.Error() != nil {
		return nil, fmt.Errorf("query %q: %w", name, resp.Error())
	}
	if len(resp.Results) == 0 || len(resp.Results[0].Series) == 0 {
		s.logger.Info("no points", "name", name)
		return nil, nil
	}

	series := resp.Results[0].Series[0]
	data := types.NewTimeSeriesData(nil)
	for _, col := range series.Columns[1:] {
		if types.IsTagKey(col) {
			data.Tags[col] = nil
		} else {
			data.Fields[col] = nil
		}
	}

	for _, value := range series.Values {
		t, err := parseTime(value[0])
		if err != nil {
			return nil, fmt.Errorf("measurement %q: %w", name, err)
		}
		data.Times = append(data.Times, t)
		for i, col := range series.Columns[1:] {
			cell := value[i+1]
			if types.IsTagKey(col) {
				tag, _ := cell.(string)
				data.Tags[col] = append(data.Tags[col], tag)
				continue
			}
			v := math.NaN()
			if num, ok := cell.(json.Number); ok {
				v, err = num.Float64()
				if err != nil {
					return nil, fmt.Errorf("measurement %q column %q: %w", name, col, err)
				}
			}
			data.Fields[col] = append(data.Fields[col], v)
		}
	}
	return data, nil
}

// SaveSeries writes all rows of a series as points of one measurement. NaN
// cells are skipped per point; InfluxDB has no NaN field value.
func (s *Store) SaveSeries(ctx context.Context, name string, data *types.TimeSeriesData) error {
	if data.Len() == 0 {
		return nil
	}

	batch, err := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  s.database,
		Precision: "ns",
	})
	if err != nil {
		return err
	}

	fieldNames := data.FieldNames()
	for i, t := range data.Times {
		fields := make(map[string]interface{}, len(fieldNames))
		for _, fname := range fieldNames {
			v := data.Fields[fname][i]
			if math.IsNaN(v) {
				continue
			}
			fields[fname] = v
		}
		if len(fields) == 0 {
			continue
		}
		tags := make(map[string]string, len(data.Tags))
		for _, key := range types.TagKeys() {
			if values, ok := data.Tags[key]; ok && i < len(values) {
				tags[key] = values[i]
			}
		}
		point, err := client.NewPoint(name, tags, fields, t)
		if err != nil {
			return fmt.Errorf("measurement %q: %w", name, err)
		}
		batch.AddPoint(point)
	}

	s.logger.Debug("save series", "name", name, "points", len(batch.Points()))
	return s.client.Write(batch)
}

func selectQuery(name string, first, last *time.Time) string {
	var conds []string
	if first != nil {
		conds = append(conds, fmt.Sprintf("time >= '%s'", first.UTC().Format(time.RFC3339Nano)))
	}
	if last != nil {
		conds = append(conds, fmt.Sprintf("time < '%s'", last.UTC().Format(time.RFC3339Nano)))
	}
	query := fmt.Sprintf(`SELECT * FROM "%s"`, name)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	return query + " ORDER BY time ASC"
}

func parseTime(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case string:
		t, err := time.Parse(time.RFC3339Nano, x)
		if err != nil {
			return time.Time{}, err
		}
		return t.UTC(), nil
	case json.Number:
		ns, err := x.Int64()
		if err != nil {
			return time.Time{}, err
		}
		return time.Unix(0, ns).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unexpected time value %T", v)
}
