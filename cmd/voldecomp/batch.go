package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"

	"voldecomp/internal/batch"
	"voldecomp/pkg/model"
)

// runPending processes every symbol that has no output yet, or all of them
// when force is set
func (a *app) runPending(ctx context.Context, symbols []string) error {
	pending := symbols
	if !a.cfg.Batch.Force {
		var done []string
		pending, done = a.processor.Pending(symbols)
		if len(done) > 0 {
			fmt.Printf("%d of %d symbols already have output in %q\n", len(done), len(symbols), a.cfg.Paths.Output)
		}
	}
	if len(pending) == 0 {
		fmt.Println("Nothing to do.")
		return nil
	}
	return a.runBatch(ctx, pending)
}

func (a *app) runBatch(ctx context.Context, symbols []string) error {
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols to process")
	}
	if err := os.MkdirAll(a.cfg.Paths.Output, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}

	runner := batch.NewRunner(a.processor, a.cfg.Batch.Workers, a.logger)
	fmt.Printf("Processing %d symbols with %d workers...\n\n", len(symbols), min(runner.Workers(), len(symbols)))

	// Setup progress bar
	bar := progressbar.NewOptions(len(symbols),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Decomposing"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	runner.SetProgressCallback(func(done, total int) {
		bar.Set(done)
	})

	result := runner.Run(ctx, symbols)

	bar.Finish()
	fmt.Println()

	if verbose {
		if err := outputJSON(os.Stdout, result); err != nil {
			return err
		}
	}
	outputSummary(os.Stdout, result)

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted: %w", err)
	}
	return nil
}

// outputSummary prints one line per symbol that was not saved, then totals
func outputSummary(w io.Writer, result model.BatchResult) {
	var rows [][]string
	for _, r := range result.Results {
		if r.Status == model.StatusSaved && !verbose {
			continue
		}
		detail := r.OutputPath
		if r.Status != model.StatusSaved {
			detail = truncate(r.Reason(), 60)
		}
		rows = append(rows, []string{
			r.Symbol,
			string(r.Status),
			fmt.Sprintf("%d", r.Rows),
			detail,
		})
	}

	if len(rows) > 0 {
		table := tablewriter.NewTable(w,
			tablewriter.WithHeader([]string{"Symbol", "Status", "Rows", "Detail"}),
		)
		for _, row := range rows {
			table.Append(row)
		}
		table.Render()
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Saved %d, skipped %d, failed %d of %d symbols in %s (run %s)\n",
		result.Saved, result.Skipped, result.Failed, result.Total,
		result.Duration.Round(time.Millisecond), result.RunID)
}

func outputJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
