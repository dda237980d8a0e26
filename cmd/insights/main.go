package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	"investcli/internal/exporter"
	"investcli/internal/infrastructure"
	"investcli/pkg/contracts/domain"
)

func main() {
	in := flag.String("in", "", "canonical CSV (defaults to the configured dataset)")
	out := flag.String("out", "", "insights JSON (defaults to data/reports/insights.json)")
	top := flag.Int("top", config.DefaultTopN, "entries per ranked section")
	configFile := flag.String("config", "", "YAML config file")
	flag.Parse()

	var (
		cfg *config.Config
		err error
	)
	if *configFile != "" {
		cfg, err = config.LoadFrom(*configFile)
	} else {
		cfg, err = config.Load()
	}
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

	cfg.Logging.FilePath = paths.GetLogPath("insights.log")
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		slog.Warn("Failed to initialize logger, using default", slog.String("error", err.Error()))
		logger = slog.Default()
	}
	defer infrastructure.CloseLogFile()

	if *in == "" {
		*in = paths.DatasetCSV
	}
	if *out == "" {
		*out = paths.InsightsJSON
	}

	insights, err := generate(context.Background(), cfg.Normalize, *in, *out, *top, logger)
	if err != nil {
		logger.Error("Insights generation failed",
			slog.String("input", *in),
			slog.String("error", err.Error()))
		os.Exit(1)
	}

	printInsights(os.Stdout, insights)
}

// generate reads a canonical dataset and writes its insight report to out
func generate(ctx context.Context, normalize config.NormalizeConfig, in, out string, top int, logger *slog.Logger) (*domain.Insights, error) {
	opts, err := dataprocessing.OptionsFromConfig(normalize)
	if err != nil {
		return nil, err
	}

	table, err := exporter.ReadCanonicalCSV(ctx, in, exporter.ReadOptions{
		Loader:    dataprocessing.LoaderOptionsFromConfig(normalize),
		Normalize: opts,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}

	summarizer := dataprocessing.NewSummarizer(logger, dataprocessing.SummarizerConfig{
		TopMarkets:     top,
		TopCountries:   top,
		AcquisitionTop: top,
	})

	insights, err := summarizer.Insights(ctx, table)
	if err != nil {
		return nil, err
	}
	if err := summarizer.WriteJSON(ctx, out, insights); err != nil {
		return nil, err
	}
	return insights, nil
}

func printInsights(w io.Writer, in *domain.Insights) {
	fmt.Fprintf(w, "Total startups: %d\n", in.Summary.TotalStartups)
	fmt.Fprintf(w, "Average funding: $%.2f\n", in.Summary.AverageFundingUSD)

	fmt.Fprintln(w, "\nTop markets by funding:")
	for _, m := range in.TopMarketsByFunding {
		fmt.Fprintf(w, "  %-30s %18.0f\n", m.Key, m.Value)
	}

	fmt.Fprintln(w, "\nTop countries by startup count:")
	for _, c := range in.TopCountries {
		fmt.Fprintf(w, "  %-30s %8d\n", c.Key, c.Count)
	}

	if in.RoundsCorrelation != nil {
		fmt.Fprintf(w, "\nCorrelation between funding rounds and total funding: %.2f\n", *in.RoundsCorrelation)
	}

	for _, warning := range in.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
}
