package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"voldecomp/internal/analyzer"
	"voldecomp/internal/provider"
	"voldecomp/internal/series"
	"voldecomp/internal/sink"
	"voldecomp/pkg/model"
)

// Options configures a Processor
type Options struct {
	InputDir  string
	OutputDir string
	Saver     sink.Saver
	Force     bool // recompute symbols whose output already exists
	Logger    *slog.Logger
}

// Processor runs the full decomposition for one symbol: shares lookup,
// series load, per-day estimation and output
type Processor struct {
	provider  provider.Provider
	inputDir  string
	outputDir string
	saver     sink.Saver
	force     bool
	logger    *slog.Logger
}

// NewProcessor creates a processor backed by p
func NewProcessor(p provider.Provider, opts Options) *Processor {
	if opts.Saver == nil {
		opts.Saver = sink.CSVSaver{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Processor{
		provider:  p,
		inputDir:  opts.InputDir,
		outputDir: opts.OutputDir,
		saver:     opts.Saver,
		force:     opts.Force,
		logger:    opts.Logger,
	}
}

// OutputPath returns where symbol's table is written
func (p *Processor) OutputPath(symbol string) string {
	return sink.OutputPath(p.outputDir, symbol, p.saver.Extension())
}

// Done reports whether symbol already has an output file
func (p *Processor) Done(symbol string) bool {
	return sink.Exists(p.OutputPath(symbol))
}

// Pending splits symbols into those still to compute and those already
// done. With Force set every symbol is pending.
func (p *Processor) Pending(symbols []string) (pending, done []string) {
	for _, sym := range symbols {
		if !p.force && p.Done(sym) {
			done = append(done, sym)
			continue
		}
		pending = append(pending, sym)
	}
	return pending, done
}

// Compute returns the daily table for symbol without writing it
func (p *Processor) Compute(ctx context.Context, symbol string) ([]model.DailyVolatility, error) {
	shares, err := p.provider.SharesOutstanding(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("shares outstanding: %w", err)
	}

	obs, err := series.Load(series.Path(p.inputDir, symbol))
	if err != nil {
		return nil, err
	}

	p.logger.Debug("decomposing", "symbol", symbol, "observations", len(obs), "shares_outstanding", shares)
	return analyzer.Decompose(obs, shares), nil
}

// Process computes and saves symbol. Failures are reported in the result,
// never returned or propagated, and leave no output file behind.
func (p *Processor) Process(ctx context.Context, symbol string) (res model.SymbolResult) {
	start := time.Now()
	res = model.SymbolResult{Symbol: symbol, OutputPath: p.OutputPath(symbol)}

	defer func() {
		if r := recover(); r != nil {
			res.Status = model.StatusFailed
			res.Err = &PanicError{Value: r}
			res.Rows = 0
		}
		res.Duration = time.Since(start)
		p.report(res)
	}()

	if !p.force && p.Done(symbol) {
		res.Status = model.StatusSkipped
		res.Err = ErrAlreadyDone
		return res
	}

	rows, err := p.Compute(ctx, symbol)
	if err != nil {
		res.Status = model.StatusFailed
		res.Err = err
		return res
	}

	if err := sink.WriteAtomic(p.saver, rows, res.OutputPath); err != nil {
		res.Status = model.StatusFailed
		res.Err = fmt.Errorf("saving: %w", err)
		return res
	}

	res.Status = model.StatusSaved
	res.Rows = len(rows)
	return res
}

func (p *Processor) report(res model.SymbolResult) {
	switch res.Status {
	case model.StatusSaved:
		p.logger.Info(res.Symbol+" saved", "symbol", res.Symbol, "rows", res.Rows, "path", res.OutputPath, "duration", res.Duration)
	case model.StatusSkipped:
		p.logger.Info(res.Symbol+" skipped", "symbol", res.Symbol, "reason", res.Reason())
	default:
		p.logger.Error(res.Symbol+" had error", "symbol", res.Symbol, "error", res.Err)
	}
}
