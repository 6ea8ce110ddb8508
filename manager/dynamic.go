package manager

import (
	"context"
	"sort"
	"time"

	"github.com/i-SAS/isas-base/storage"
	"github.com/i-SAS/isas-base/types"
)

// DynamicDataOptions tunes dynamic-data imports and exports. Zero values mean
// the defaults: postgres tables, influx series, unbounded time range, batch
// metadata included.
type DynamicDataOptions struct {
	TableSystem  string
	SeriesSystem string
	First        *time.Time
	Last         *time.Time
	SkipMetadata bool
}

func (o DynamicDataOptions) withDefaults() DynamicDataOptions {
	if o.TableSystem == "" {
		o.TableSystem = SystemPostgres
	}
	if o.SeriesSystem == "" {
		o.SeriesSystem = SystemInflux
	}
	return o
}

// ImportDynamicData loads the named series, bounded by first <= t < last, plus
// the batch metadata tables. Series with no points in range are left out.
func (m *Manager) ImportDynamicData(ctx context.Context, dataNames []string, opts DynamicDataOptions) (*types.DynamicData, error) {
	opts = opts.withDefaults()
	store, err := m.seriesStore(opts.SeriesSystem)
	if err != nil {
		return nil, err
	}

	dd := types.NewDynamicData()
	for _, name := range dataNames {
		data, err := store.LoadSeries(ctx, m.seriesTarget(name, opts.SeriesSystem), opts.First, opts.Last)
		if err != nil {
			return nil, err
		}
		if data.Len() == 0 {
			continue
		}
		dd.TimeSeriesData[name] = data
	}

	if !opts.SkipMetadata {
		dd.TimeSeriesBatchMetadata, err = m.importBatchMetadata(ctx, opts.TableSystem)
		if err != nil {
			return nil, err
		}
	}
	return dd, nil
}

func (m *Manager) importBatchMetadata(ctx context.Context, system string) (map[int64]types.TimeSeriesBatchMetadata, error) {
	rows, err := m.loadTable(ctx, tableBatchMetadata, system)
	if err != nil {
		return nil, err
	}
	depRows, err := m.loadTable(ctx, tableBatchDependencies, system)
	if err != nil {
		return nil, err
	}

	depsByBatch := map[int64][]storage.Row{}
	for _, row := range depRows {
		batchID := rowInt64(row, "batch_id")
		depsByBatch[batchID] = append(depsByBatch[batchID], row)
	}

	out := make(map[int64]types.TimeSeriesBatchMetadata, len(rows))
	for _, row := range rows {
		batchID := rowInt64(row, "id")
		deps := map[int64]types.TimeSeriesBatchDependency{}
		for _, depRow := range depsByBatch[batchID] {
			deps[rowInt64(depRow, "dependent_batch_id")] = types.TimeSeriesBatchDependency{
				ID: rowInt64(depRow, "id"),
			}
		}
		out[batchID] = types.TimeSeriesBatchMetadata{
			ServiceName:   rowString(row, "service_name"),
			BatchDatetime: rowTime(row, "batch_datetime"),
			Dependencies:  deps,
		}
	}
	return out, nil
}

// ExportDynamicData writes the named series and the batch metadata. A nil
// dataNames exports every series the data carries.
func (m *Manager) ExportDynamicData(ctx context.Context, dd *types.DynamicData, dataNames []string, opts DynamicDataOptions) error {
	if dd == nil {
		return nil
	}
	opts = opts.withDefaults()
	store, err := m.seriesStore(opts.SeriesSystem)
	if err != nil {
		return err
	}

	if dataNames == nil {
		dataNames = make([]string, 0, len(dd.TimeSeriesData))
		for name := range dd.TimeSeriesData {
			dataNames = append(dataNames, name)
		}
		sort.Strings(dataNames)
	}

	for _, name := range dataNames {
		data, ok := dd.TimeSeriesData[name]
		if !ok || data.Len() == 0 {
			m.logger.Debug("no series to export", "name", name)
			continue
		}
		if err := store.SaveSeries(ctx, m.seriesTarget(name, opts.SeriesSystem), data); err != nil {
			return err
		}
	}

	if opts.SkipMetadata {
		return nil
	}
	return m.exportBatchMetadata(ctx, dd.TimeSeriesBatchMetadata, opts.TableSystem)
}

func (m *Manager) exportBatchMetadata(ctx context.Context, batches map[int64]types.TimeSeriesBatchMetadata, system string) error {
	batchIDs := make([]int64, 0, len(batches))
	for id := range batches {
		batchIDs = append(batchIDs, id)
	}
	sort.Slice(batchIDs, func(i, j int) bool { return batchIDs[i] < batchIDs[j] })

	rows := make([]storage.Row, 0, len(batchIDs))
	var depRows []storage.Row
	for _, batchID := range batchIDs {
		batch := batches[batchID]
		rows = append(rows, storage.Row{
			"id":             batchID,
			"service_name":   batch.ServiceName,
			"batch_datetime": batch.BatchDatetime,
		})

		depIDs := make([]int64, 0, len(batch.Dependencies))
		for id := range batch.Dependencies {
			depIDs = append(depIDs, id)
		}
		sort.Slice(depIDs, func(i, j int) bool { return depIDs[i] < depIDs[j] })
		for _, depID := range depIDs {
			depRows = append(depRows, storage.Row{
				"id":                 batch.Dependencies[depID].ID,
				"batch_id":           batchID,
				"dependent_batch_id": depID,
			})
		}
	}

	if err := m.saveTable(ctx, tableBatchMetadata, rows, system, storage.SaveSync); err != nil {
		return err
	}
	return m.saveSplitByID(ctx, tableBatchDependencies, depRows, system)
}
