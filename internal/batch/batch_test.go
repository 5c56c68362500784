package batch

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"voldecomp/internal/logging"
	"voldecomp/internal/provider"
	"voldecomp/internal/series"
	"voldecomp/internal/sink"
	"voldecomp/pkg/model"
)

const minuteCSV = "Date,Time,Open,High,Low,Close,Volume\n" +
	"2024-01-02,930,100,100,100,100,1000\n" +
	"2024-01-02,935,101,101,101,101,1200\n" +
	"2024-01-02,940,102,102,102,102,900\n" +
	"2024-01-02,945,101,101,101,101,1100\n" +
	"2024-01-02,950,100,100,100,100,1000\n" +
	"2024-01-03,930,100,100,100,100,500\n" +
	"2024-01-03,935,102,102,102,102,700\n"

type env struct {
	in, out string
	logs    *bytes.Buffer
	logger  *slog.Logger
}

func newEnv(t *testing.T, symbols ...string) env {
	t.Helper()
	e := env{in: t.TempDir(), out: filepath.Join(t.TempDir(), "Volatility Data"), logs: &bytes.Buffer{}}
	e.logger = slog.New(slog.NewTextHandler(e.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	for _, sym := range symbols {
		require.NoError(t, os.WriteFile(series.Path(e.in, sym), []byte(minuteCSV), 0o644))
	}
	return e
}

func (e env) processor(p provider.Provider, force bool) *Processor {
	return NewProcessor(p, Options{InputDir: e.in, OutputDir: e.out, Force: force, Logger: e.logger})
}

func TestProcessSavesTable(t *testing.T) {
	e := newEnv(t, "AAPL")
	p := e.processor(provider.NewStaticProvider(map[string]float64{"AAPL": 1_000_000}), false)

	res := p.Process(context.Background(), "AAPL")
	require.NoError(t, res.Err)
	assert.Equal(t, model.StatusSaved, res.Status)
	assert.Equal(t, 2, res.Rows)
	assert.Equal(t, filepath.Join(e.out, "AAPL_values.csv"), res.OutputPath)
	assert.True(t, sink.Exists(res.OutputPath))
	assert.Contains(t, e.logs.String(), "AAPL saved")

	data, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[1], "2024-01-02,"))
	assert.True(t, strings.HasSuffix(lines[1], ",100,5200"))
	assert.Equal(t, "2024-01-03,NaN,NaN,NaN,NaN,NaN,NaN,102,1200", lines[2])
}

func TestProcessProviderFailureWritesNothing(t *testing.T) {
	e := newEnv(t, "AAPL")
	p := e.processor(provider.NewStaticProvider(map[string]float64{"MSFT": 1}), false)

	res := p.Process(context.Background(), "AAPL")
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, provider.ErrProvider)
	assert.False(t, sink.Exists(res.OutputPath))
	assert.Contains(t, e.logs.String(), "AAPL had error")
}

func TestProcessInputFailure(t *testing.T) {
	e := newEnv(t)
	require.NoError(t, os.WriteFile(series.Path(e.in, "BAD"), []byte("Date,Close\nx,1\n"), 0o644))
	p := e.processor(provider.NewStaticProvider(map[string]float64{"BAD": 1, "GONE": 1}), false)

	res := p.Process(context.Background(), "BAD")
	assert.Equal(t, model.StatusFailed, res.Status)
	assert.ErrorIs(t, res.Err, series.ErrInput)
	assert.False(t, sink.Exists(res.OutputPath))

	res = p.Process(context.Background(), "GONE")
	assert.ErrorIs(t, res.Err, series.ErrInput)
}

func TestProcessSkipsExistingOutput(t *testing.T) {
	e := newEnv(t, "AAPL")
	shares := provider.NewStaticProvider(map[string]float64{"AAPL": 1_000_000})

	first := e.processor(shares, false).Process(context.Background(), "AAPL")
	require.Equal(t, model.StatusSaved, first.Status)

	again := e.processor(shares, false).Process(context.Background(), "AAPL")
	assert.Equal(t, model.StatusSkipped, again.Status)
	assert.ErrorIs(t, again.Err, ErrAlreadyDone)

	forced := e.processor(shares, true).Process(context.Background(), "AAPL")
	assert.Equal(t, model.StatusSaved, forced.Status)
}

func TestProcessIsIdempotent(t *testing.T) {
	e := newEnv(t, "AAPL")
	p := e.processor(provider.NewStaticProvider(map[string]float64{"AAPL": 1_000_000}), true)

	res := p.Process(context.Background(), "AAPL")
	require.Equal(t, model.StatusSaved, res.Status)
	first, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)

	res = p.Process(context.Background(), "AAPL")
	require.Equal(t, model.StatusSaved, res.Status)
	second, err := os.ReadFile(res.OutputPath)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestRunnerContinuesAfterFailure(t *testing.T) {
	e := newEnv(t, "AAPL", "BAD", "MSFT")
	// BAD has input but no shares outstanding
	p := e.processor(provider.NewStaticProvider(map[string]float64{"AAPL": 1e6, "MSFT": 2e6}), false)

	var progress atomic.Int32
	r := NewRunner(p, 2, e.logger)
	r.SetProgressCallback(func(done, total int) {
		progress.Add(1)
		assert.Equal(t, 3, total)
	})

	batch := r.Run(context.Background(), []string{"AAPL", "BAD", "MSFT"})
	assert.NotEmpty(t, batch.RunID)
	assert.Equal(t, 3, batch.Total)
	assert.Equal(t, 2, batch.Saved)
	assert.Equal(t, 1, batch.Failed)
	assert.Equal(t, int32(3), progress.Load())

	require.Len(t, batch.Results, 3)
	assert.Equal(t, "AAPL", batch.Results[0].Symbol)
	assert.Equal(t, model.StatusFailed, batch.Results[1].Status)
	assert.Equal(t, model.StatusSaved, batch.Results[2].Status)
	assert.False(t, sink.Exists(p.OutputPath("BAD")))
	assert.Contains(t, e.logs.String(), "batch finished")
}

func TestPendingSkipsDoneSymbols(t *testing.T) {
	e := newEnv(t, "AAPL", "IBM", "MSFT")
	shares := provider.NewStaticProvider(map[string]float64{"AAPL": 1e6, "IBM": 1e6, "MSFT": 1e6})
	p := e.processor(shares, false)

	require.Equal(t, model.StatusSaved, p.Process(context.Background(), "IBM").Status)

	pending, done := p.Pending([]string{"AAPL", "IBM", "MSFT"})
	assert.Equal(t, []string{"AAPL", "MSFT"}, pending)
	assert.Equal(t, []string{"IBM"}, done)

	batch := NewRunner(p, 0, e.logger).Run(context.Background(), pending)
	assert.Equal(t, 2, batch.Saved)
	for _, sym := range []string{"AAPL", "IBM", "MSFT"} {
		assert.True(t, p.Done(sym), sym)
	}

	pending, _ = e.processor(shares, true).Pending([]string{"AAPL", "IBM"})
	assert.Equal(t, []string{"AAPL", "IBM"}, pending)
}

type funcProcessor func(ctx context.Context, symbol string) model.SymbolResult

func (f funcProcessor) Process(ctx context.Context, symbol string) model.SymbolResult {
	return f(ctx, symbol)
}

func TestRunnerCancellationBetweenSymbols(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	p := funcProcessor(func(pctx context.Context, symbol string) model.SymbolResult {
		calls.Add(1)
		cancel()
		// the in-flight symbol is not interrupted
		assert.NoError(t, pctx.Err())
		return model.SymbolResult{Symbol: symbol, Status: model.StatusSaved}
	})

	batch := NewRunner(p, 1, logging.Discard()).
		Run(ctx, []string{"A", "B", "C"})

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, 1, batch.Saved)
	assert.Equal(t, 2, batch.Skipped)
	assert.ErrorIs(t, batch.Results[1].Err, context.Canceled)
	assert.ErrorIs(t, batch.Results[2].Err, context.Canceled)
}

func TestRunnerRecoversPanics(t *testing.T) {
	p := funcProcessor(func(ctx context.Context, symbol string) model.SymbolResult {
		if symbol == "BOOM" {
			panic(fmt.Sprintf("bad series for %s", symbol))
		}
		return model.SymbolResult{Symbol: symbol, Status: model.StatusSaved}
	})

	batch := NewRunner(p, 2, logging.Discard()).
		Run(context.Background(), []string{"A", "BOOM", "C"})

	assert.Equal(t, 2, batch.Saved)
	assert.Equal(t, 1, batch.Failed)

	var pe *PanicError
	require.ErrorAs(t, batch.Results[1].Err, &pe)
	assert.Contains(t, pe.Error(), "bad series for BOOM")
}

func TestRunnerEmpty(t *testing.T) {
	batch := NewRunner(funcProcessor(nil), 4, nil).Run(context.Background(), nil)
	assert.Equal(t, 0, batch.Total)
	assert.Empty(t, batch.Results)
}
