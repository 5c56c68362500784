package batch

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"voldecomp/pkg/model"
)

// ErrAlreadyDone is the skip reason for symbols whose output exists
var ErrAlreadyDone = errors.New("output already exists")

// SymbolProcessor handles one symbol end to end
type SymbolProcessor interface {
	Process(ctx context.Context, symbol string) model.SymbolResult
}

// ProgressCallback is called with progress updates
type ProgressCallback func(done, total int)

// Runner fans symbols out over a fixed pool of workers
type Runner struct {
	processor    SymbolProcessor
	workers      int
	progressFunc ProgressCallback
	logger       *slog.Logger
}

// NewRunner creates a runner; workers <= 0 uses one worker per CPU
func NewRunner(p SymbolProcessor, workers int, logger *slog.Logger) *Runner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		processor: p,
		workers:   workers,
		logger:    logger,
	}
}

// SetProgressCallback sets the progress callback function
func (r *Runner) SetProgressCallback(fn ProgressCallback) {
	r.progressFunc = fn
}

// Workers returns the pool size
func (r *Runner) Workers() int {
	return r.workers
}

type job struct {
	index  int
	symbol string
}

// Run processes every symbol and returns one result per symbol, in input
// order. Cancelling ctx lets in-flight symbols finish; symbols still queued
// are reported as skipped.
func (r *Runner) Run(ctx context.Context, symbols []string) model.BatchResult {
	startTime := time.Now()
	batch := model.BatchResult{
		RunID:   uuid.NewString(),
		Total:   len(symbols),
		Results: make([]model.SymbolResult, len(symbols)),
	}
	logger := r.logger.With("run_id", batch.RunID)

	if len(symbols) == 0 {
		batch.Duration = time.Since(startTime)
		return batch
	}

	logger.Info("batch started", "symbols", len(symbols), "workers", r.workers)

	jobChan := make(chan job, len(symbols))
	for i, sym := range symbols {
		jobChan <- job{index: i, symbol: sym}
	}
	close(jobChan)

	// Progress counter
	var doneCount int64

	// in-flight symbols run to completion even after cancellation
	workCtx := context.WithoutCancel(ctx)

	var wg sync.WaitGroup
	for i := 0; i < min(r.workers, len(symbols)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobChan {
				if err := ctx.Err(); err != nil {
					batch.Results[j.index] = model.SymbolResult{Symbol: j.symbol, Status: model.StatusSkipped, Err: err}
				} else {
					batch.Results[j.index] = r.processOne(workCtx, j.symbol)
				}

				count := atomic.AddInt64(&doneCount, 1)
				if r.progressFunc != nil {
					r.progressFunc(int(count), len(symbols))
				}
			}
		}()
	}
	wg.Wait()

	for _, res := range batch.Results {
		switch res.Status {
		case model.StatusSaved:
			batch.Saved++
		case model.StatusSkipped:
			batch.Skipped++
		default:
			batch.Failed++
		}
	}
	batch.Duration = time.Since(startTime)

	logger.Info("batch finished",
		"saved", batch.Saved, "skipped", batch.Skipped, "failed", batch.Failed,
		"duration", batch.Duration.Round(time.Millisecond))
	return batch
}

// processOne isolates a symbol so a panicking processor cannot take the
// worker down with it
func (r *Runner) processOne(ctx context.Context, symbol string) (res model.SymbolResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = model.SymbolResult{Symbol: symbol, Status: model.StatusFailed, Err: &PanicError{Value: rec}}
		}
	}()
	return r.processor.Process(ctx, symbol)
}

// PanicError carries a recovered panic value
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	return "panic: " + toString(e.Value)
}

func toString(v any) string {
	switch t := v.(type) {
	case error:
		return t.Error()
	case string:
		return t
	default:
		return slog.AnyValue(v).String()
	}
}
