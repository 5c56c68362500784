package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"voldecomp/internal/batch"
	"voldecomp/internal/config"
	"voldecomp/internal/logging"
	"voldecomp/internal/provider"
	"voldecomp/internal/series"
	"voldecomp/internal/sink"
)

var (
	cfgFile    string
	inputDir   string
	outputDir  string
	symbolList string
	runAll     bool
	workers    int
	format     string
	force      bool
	logLevel   string
	logFile    string
	verbose    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "voldecomp",
		Short: "Daily realized volatility decomposition of minute price and volume series",
		Long: `Voldecomp reads one minute-bar CSV per symbol and writes a daily table of
realized variation (RV), bipower variation (BV) and the jump component (RV - BV)
for both log-returns and shares-outstanding standardized volume changes.

Without --symbols or --all an interactive menu lists the available symbols.

Examples:
  voldecomp --all --workers 8
  voldecomp --symbols AAPL,MSFT --format parquet
  voldecomp show AAPL`,
		SilenceUsage: true,
		RunE:         run,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "config.yaml", "config file path")
	flags.StringVar(&inputDir, "input", "", "directory of per-symbol minute CSV files")
	flags.StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.StringVar(&logFile, "log-file", "", "log file, replaced on every run (empty for stderr)")
	flags.BoolVar(&verbose, "verbose", false, "show detailed output")

	rootCmd.Flags().StringVar(&outputDir, "output", "", "directory for the daily volatility tables")
	rootCmd.Flags().StringVar(&symbolList, "symbols", "", "comma-separated list of symbols to process")
	rootCmd.Flags().BoolVar(&runAll, "all", false, "process every symbol without output yet")
	rootCmd.Flags().IntVar(&workers, "workers", 0, "number of parallel workers (default: one per CPU)")
	rootCmd.Flags().StringVar(&format, "format", "", "output format: "+strings.Join(sink.Formats, ", "))
	rootCmd.Flags().BoolVar(&force, "force", false, "recompute symbols that already have output")

	rootCmd.AddCommand(newShowCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds everything a run needs once flags and config are resolved
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	closeLog  func() error
	provider  provider.Provider
	processor *batch.Processor
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyFlags(cmd, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.Open(cfg.Logging.File, cfg.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("setting up logging: %w", err)
	}

	providers := createProviders(cfg)
	if len(providers) == 0 {
		closeLog()
		return nil, fmt.Errorf("no shares outstanding providers available. Set FINNHUB_API_KEY or ALPHAVANTAGE_API_KEY, enable finviz, or list shares in the config")
	}

	var shares provider.Provider = provider.NewFallbackProvider(providers...)
	if cfg.Cache.Enabled && cfg.Cache.TTL > 0 {
		shares = provider.NewCachingProvider(shares, cfg.Cache.TTL, cfg.Cache.MaxEntries)
	}

	if verbose {
		names := make([]string, len(providers))
		for i, p := range providers {
			names[i] = p.Name()
		}
		fmt.Printf("Using providers: %s\n", strings.Join(names, ", "))
	}

	saver, err := sink.New(cfg.Batch.Format)
	if err != nil {
		closeLog()
		return nil, err
	}

	processor := batch.NewProcessor(shares, batch.Options{
		InputDir:  cfg.Paths.Input,
		OutputDir: cfg.Paths.Output,
		Saver:     saver,
		Force:     cfg.Batch.Force,
		Logger:    logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		closeLog:  closeLog,
		provider:  shares,
		processor: processor,
	}, nil
}

// applyFlags overrides config with CLI flags that were set explicitly
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	if inputDir != "" {
		cfg.Paths.Input = inputDir
	}
	if outputDir != "" {
		cfg.Paths.Output = outputDir
	}
	if cmd.Flags().Changed("workers") {
		cfg.Batch.Workers = workers
	}
	if format != "" {
		cfg.Batch.Format = strings.ToLower(format)
	}
	if force {
		cfg.Batch.Force = true
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	} else if verbose {
		cfg.Logging.Level = "debug"
	}
	if cmd.Flags().Changed("log-file") {
		cfg.Logging.File = logFile
	}
}

func run(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.closeLog()

	// Setup context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	go func() {
		select {
		case <-sigChan:
			fmt.Println("\nInterrupted. Finishing symbols in progress...")
			cancel()
		case <-ctx.Done():
		}
	}()

	available, err := series.Symbols(a.cfg.Paths.Input)
	if err != nil {
		return fmt.Errorf("listing symbols: %w", err)
	}

	switch {
	case symbolList != "":
		syms := resolveSymbols(strings.Split(symbolList, ","), available)
		return a.runBatch(ctx, syms)
	case runAll:
		return a.runPending(ctx, available)
	default:
		if len(available) == 0 {
			return fmt.Errorf("no symbol files found in %q", a.cfg.Paths.Input)
		}
		return runMenu(ctx, os.Stdin, os.Stdout, available, a)
	}
}

// resolveSymbols maps user-typed symbols onto the file names present in the
// input directory, case-insensitively. Unknown symbols pass through so the
// batch reports them as input failures.
func resolveSymbols(requested, available []string) []string {
	byUpper := make(map[string]string, len(available))
	for _, s := range available {
		byUpper[strings.ToUpper(s)] = s
	}

	var out []string
	seen := make(map[string]bool)
	for _, s := range requested {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if known, ok := byUpper[strings.ToUpper(s)]; ok {
			s = known
		}
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
