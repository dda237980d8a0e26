package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	"investcli/internal/files"
	"investcli/internal/infrastructure"
	"investcli/internal/services"
)

// cliOptions are the parsed command-line flags
type cliOptions struct {
	In         string
	Out        string
	SQLite     string
	Casing     string
	Workers    int
	ConfigFile string
}

func parseFlags(args []string, stderr io.Writer) (cliOptions, error) {
	var opts cliOptions

	fs := flag.NewFlagSet("normalizer", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.In, "in", "", "raw dataset file or directory (defaults to data/raw relative to executable)")
	fs.StringVar(&opts.Out, "out", "", "canonical CSV file or directory (defaults to data/processed)")
	fs.StringVar(&opts.SQLite, "sqlite", "", "optional SQLite database written next to the CSV")
	fs.StringVar(&opts.Casing, "casing", "", "market casing rule: title or sentence (overrides config)")
	fs.IntVar(&opts.Workers, "workers", 0, "files normalized concurrently (overrides config)")
	fs.StringVar(&opts.ConfigFile, "config", "", "YAML config file")

	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	cfg, err := loadConfig(opts.ConfigFile)
	if err != nil {
		slog.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	paths, err := config.ResolvePaths(cfg.Paths)
	if err != nil {
		slog.Error("Failed to initialize paths", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := paths.EnsureDirectories(); err != nil {
		slog.Error("Failed to create required directories", slog.String("error", err.Error()))
		os.Exit(1)
	}

	cfg.Logging.FilePath = paths.GetLogPath("normalizer.log")
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := execute(ctx, opts, cfg, paths, logger); err != nil {
		logger.Error("Normalization failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func loadConfig(file string) (*config.Config, error) {
	if file != "" {
		return config.LoadFrom(file)
	}
	return config.Load()
}

// execute resolves the inputs and runs one pipeline job per dataset
func execute(ctx context.Context, opts cliOptions, cfg *config.Config, paths *config.Paths, logger *slog.Logger) error {
	normalize := cfg.Normalize
	if opts.Casing != "" {
		normalize.MarketCasing = opts.Casing
	}
	workers := normalize.Workers
	if opts.Workers > 0 {
		workers = opts.Workers
	}

	normalizeOpts, err := dataprocessing.OptionsFromConfig(normalize)
	if err != nil {
		return err
	}

	in := opts.In
	if in == "" {
		in = paths.RawDir
	}
	out := opts.Out
	if out == "" {
		out = paths.ProcessedDir + string(os.PathSeparator)
	}

	jobs, err := planJobs(in, out, opts.SQLite)
	if err != nil {
		return err
	}

	logger.Info("Starting dataset normalization",
		slog.String("input", in),
		slog.String("output", out),
		slog.Int("files", len(jobs)),
		slog.Int("workers", workers),
		slog.String("market_casing", string(normalizeOpts.MarketCasing)))

	pipeline := services.NewPipelineService(services.PipelineConfig{
		Loader:    dataprocessing.LoaderOptionsFromConfig(normalize),
		Normalize: normalizeOpts,
		Logger:    logger,
	})

	results, err := pipeline.RunAll(ctx, jobs, workers)
	for _, res := range results {
		if res == nil || res.Err != nil {
			continue
		}
		logSummary(logger, res)
	}
	return err
}

// planJobs expands in to one job per dataset. A directory without any
// dataset is the same failure as a missing file.
func planJobs(in, out, sqlitePath string) ([]services.Job, error) {
	inputs, err := files.NewDiscovery("").ResolveInputs(in)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", dataprocessing.ErrSourceNotFound, in)
		}
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no datasets in %s", dataprocessing.ErrSourceNotFound, in)
	}

	multiple := len(inputs) > 1
	jobs := make([]services.Job, 0, len(inputs))
	for _, f := range inputs {
		job := services.Job{
			Input:  f.Path,
			Output: files.OutputPath(f.Path, out, multiple),
		}
		if sqlitePath != "" {
			job.SQLite = sqlitePath
			if multiple {
				name := strings.TrimSuffix(config.CanonicalName(f.Path), ".csv") + ".sqlite"
				job.SQLite = filepath.Join(sqlitePath, name)
			}
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func logSummary(logger *slog.Logger, res *services.RunResult) {
	attrs := []any{
		slog.String("run_id", res.RunID),
		slog.String("input", res.Job.Input),
		slog.String("output", res.Job.Output),
		slog.Int("total_startups", res.Summary.TotalStartups),
		slog.Float64("total_funding_usd", res.Summary.TotalFundingUSD),
		slog.Float64("average_funding_usd", res.Summary.AverageFundingUSD),
	}
	for _, s := range res.Summary.StatusDistribution {
		attrs = append(attrs, slog.Float64("status_"+s.Status+"_pct", s.Percent))
	}
	if res.Report != nil {
		attrs = append(attrs,
			slog.Int("duplicates_dropped", res.Report.DuplicatesDropped),
			slog.Any("defaults_filled", res.Report.DefaultsFilled()))
	}
	logger.Info("Dataset summary", attrs...)
}
