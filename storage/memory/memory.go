// Package memory is the streaming backend: an in-process snapshot store for
// series handed between services on the same host. Each save replaces the
// previous snapshot; loads return the latest one whole, ignoring range
// bounds.
package memory

import (
	"context"
	"time"

	"github.com/hashicorp/go-hclog"
	memdb "github.com/hashicorp/go-memdb"

	"github.com/i-SAS/isas-base/types"
)

const tableSeries = "series"

type snapshot struct {
	Name string
	Data *types.TimeSeriesData
}

type Store struct {
	db     *memdb.MemDB
	logger hclog.Logger
}

func New(logger hclog.Logger) (*Store, error) {
	schema := &memdb.DBSchema{
		Tables: map[string]*memdb.TableSchema{
			tableSeries: {
				Name: tableSeries,
				Indexes: map[string]*memdb.IndexSchema{
					"id": {
						Name:    "id",
						Unique:  true,
						Indexer: &memdb.StringFieldIndex{Field: "Name"},
					},
				},
			},
		},
	}

	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, err
	}

	return &Store{
		db:     db,
		logger: logger.Named("memory"),
	}, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) LoadSeries(ctx context.Context, name string, first, last *time.Time) (*types.TimeSeriesData, error) {
	txn := s.db.Txn(false)
	defer txn.Abort()

	raw, err := txn.First(tableSeries, "id", name)
	if err != nil {
		return nil, err
	}
	if raw == nil {
		s.logger.Info("no snapshot", "name", name)
		return nil, nil
	}
	return raw.(*snapshot).Data, nil
}

func (s *Store) SaveSeries(ctx context.Context, name string, data *types.TimeSeriesData) error {
	if data.Len() == 0 {
		return nil
	}

	txn := s.db.Txn(true)
	defer txn.Abort()

	s.logger.Debug("save snapshot", "name", name, "rows", data.Len())
	if err := txn.Insert(tableSeries, &snapshot{Name: name, Data: data}); err != nil {
		return err
	}
	txn.Commit()
	return nil
}
