// Package export runs dynamic-data exports on a background worker so
// producers are not blocked on storage round trips.
package export

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"

	"github.com/i-SAS/isas-base/manager"
	"github.com/i-SAS/isas-base/types"
)

const defaultQueueSize = 64

// Sink receives the queued batches. *manager.Manager satisfies it.
type Sink interface {
	ExportDynamicData(ctx context.Context, dd *types.DynamicData, dataNames []string, opts manager.DynamicDataOptions) error
}

// Batch is one queued export. A nil DataNames exports every series the data
// carries.
type Batch struct {
	DataNames []string
	Data      *types.DynamicData
}

// Exporter drains a queue of batches onto a sink. Stop waits for the queue to
// empty before returning, so no accepted batch is dropped.
type Exporter struct {
	sink   Sink
	opts   manager.DynamicDataOptions
	queue  chan Batch
	stopC  chan struct{}
	doneC  chan struct{}
	once   sync.Once
	logger hclog.Logger

	mu   sync.Mutex
	errs *multierror.Error
}

func New(sink Sink, opts manager.DynamicDataOptions, logger hclog.Logger) *Exporter {
	if logger == nil {
		logger = hclog.Default()
	}
	return &Exporter{
		sink:   sink,
		opts:   opts,
		queue:  make(chan Batch, defaultQueueSize),
		stopC:  make(chan struct{}),
		doneC:  make(chan struct{}),
		logger: logger.Named("exporter"),
	}
}

// Start launches the worker. Exports run under ctx; cancelling it fails the
// remaining batches instead of blocking Stop.
func (e *Exporter) Start(ctx context.Context) {
	go e.run(ctx)
}

// Export enqueues a batch. It blocks while the queue is full and fails once
// the exporter is stopped.
func (e *Exporter) Export(batch Batch) error {
	select {
	case <-e.stopC:
		return fmt.Errorf("exporter is stopped")
	default:
	}
	select {
	case e.queue <- batch:
		return nil
	case <-e.stopC:
		return fmt.Errorf("exporter is stopped")
	}
}

// Stop drains the queue, stops the worker and returns every export error seen
// since Start.
func (e *Exporter) Stop() error {
	e.once.Do(func() {
		close(e.stopC)
	})
	<-e.doneC

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.errs.ErrorOrNil()
}

func (e *Exporter) run(ctx context.Context) {
	defer close(e.doneC)

	for {
		select {
		case batch := <-e.queue:
			e.export(ctx, batch)
		case <-e.stopC:
			for {
				select {
				case batch := <-e.queue:
					e.export(ctx, batch)
				default:
					return
				}
			}
		}
	}
}

func (e *Exporter) export(ctx context.Context, batch Batch) {
	err := e.sink.ExportDynamicData(ctx, batch.Data, batch.DataNames, e.opts)
	if err == nil {
		return
	}
	e.logger.Error("export batch", "error", err)
	e.mu.Lock()
	e.errs = multierror.Append(e.errs, err)
	e.mu.Unlock()
}
