package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"investcli/internal/dataprocessing"
	"investcli/internal/exporter"
	"investcli/internal/infrastructure"
	"investcli/internal/validation"
	"investcli/pkg/contracts/domain"
)

// Job is one normalization run: a raw input and its canonical outputs.
// SQLite is optional.
type Job struct {
	Input  string
	Output string
	SQLite string
}

// RunResult describes a finished job.
type RunResult struct {
	RunID   string                 `json:"run_id"`
	Job     Job                    `json:"job"`
	Report  *dataprocessing.Report `json:"report,omitempty"`
	Summary domain.DatasetSummary  `json:"summary"`
	Err     error                  `json:"-"`
}

// PipelineService runs load, normalize and write for raw datasets.
// Jobs share no state, so RunAll may execute them concurrently.
type PipelineService struct {
	loader     *dataprocessing.Loader
	normalizer *dataprocessing.Normalizer
	csv        exporter.TableWriter
	sqlite     exporter.TableWriter
	validator  *validation.FileValidator
	metrics    *infrastructure.BusinessMetrics
	logger     *slog.Logger
}

// PipelineConfig holds the collaborators of a PipelineService. Nil writers
// fall back to the default CSV and SQLite sinks.
type PipelineConfig struct {
	Loader    dataprocessing.LoaderOptions
	Normalize dataprocessing.Options
	CSV       exporter.TableWriter
	SQLite    exporter.TableWriter
	Metrics   *infrastructure.BusinessMetrics
	Logger    *slog.Logger
}

// NewPipelineService wires a pipeline from cfg.
func NewPipelineService(cfg PipelineConfig) *PipelineService {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "pipeline")

	csvWriter := cfg.CSV
	if csvWriter == nil {
		csvWriter = exporter.NewCanonicalCSVWriter(nil, exporter.CSVOptions{}, logger)
	}
	sqliteWriter := cfg.SQLite
	if sqliteWriter == nil {
		sqliteWriter = exporter.NewSQLiteWriter(logger)
	}

	return &PipelineService{
		loader:     dataprocessing.NewLoader(cfg.Loader, logger),
		normalizer: dataprocessing.NewNormalizer(cfg.Normalize, logger),
		csv:        csvWriter,
		sqlite:     sqliteWriter,
		validator:  validation.NewFileValidator(logger),
		metrics:    cfg.Metrics,
		logger:     logger,
	}
}

// Run executes a single job. The returned result is never nil; its Err
// matches the returned error.
func (s *PipelineService) Run(ctx context.Context, job Job) (*RunResult, error) {
	res := &RunResult{RunID: uuid.NewString(), Job: job}
	logger := infrastructure.WithRun(s.logger, res.RunID, job.Input)
	ctx = infrastructure.WithTraceID(ctx, res.RunID)

	ctx, span := infrastructure.StartSpan(ctx, "pipeline.run")
	defer span.End()

	start := time.Now()
	err := s.run(ctx, logger, job, res)
	res.Err = err

	outcome := infrastructure.NormalizationOutcome{
		Source:   filepath.Base(job.Input),
		Duration: time.Since(start),
		Err:      err,
	}
	if res.Report != nil {
		outcome.RowsIn = res.Report.RowsIn
		outcome.RowsOut = res.Report.RowsOut
		outcome.Duplicates = res.Report.DuplicatesDropped
		outcome.Defaults = res.Report.DefaultsFilled()
	}
	infrastructure.RecordNormalization(ctx, s.metrics, outcome)

	if err != nil {
		infrastructure.RecordError(ctx, err)
		logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", outcome.Duration))
		return res, err
	}

	logger.InfoContext(ctx, "pipeline run completed",
		slog.String("output", job.Output),
		slog.Int("rows_in", outcome.RowsIn),
		slog.Int("rows_out", outcome.RowsOut),
		slog.Int("duplicates", outcome.Duplicates),
		slog.Int("total_startups", res.Summary.TotalStartups),
		slog.Float64("average_funding_usd", res.Summary.AverageFundingUSD),
		slog.Duration("duration", outcome.Duration))
	return res, nil
}

func (s *PipelineService) run(ctx context.Context, logger *slog.Logger, job Job, res *RunResult) error {
	if err := s.validator.ValidateInput(job.Input); err != nil {
		return err
	}
	if err := s.validator.ValidateOutputDirectory(filepath.Dir(job.Output)); err != nil {
		return err
	}

	raw, err := s.loader.LoadFile(ctx, job.Input)
	if err != nil {
		return err
	}
	logger.DebugContext(ctx, "raw dataset loaded",
		slog.Int("rows", raw.Len()),
		slog.Int("columns", len(raw.Columns)))

	table, report, err := s.normalizer.Normalize(ctx, raw)
	res.Report = report
	if err != nil {
		return err
	}

	if err := s.csv.Write(ctx, job.Output, table); err != nil {
		return fmt.Errorf("write canonical csv: %w", err)
	}
	if job.SQLite != "" {
		if err := s.sqlite.Write(ctx, job.SQLite, table); err != nil {
			return fmt.Errorf("write sqlite: %w", err)
		}
	}

	res.Summary = dataprocessing.NewAnalytics(table).Summarize()
	return nil
}

// RunAll executes jobs with at most workers in flight. Every job runs to
// completion; the first failure is returned alongside all results, in job
// order.
func (s *PipelineService) RunAll(ctx context.Context, jobs []Job, workers int) ([]*RunResult, error) {
	if workers <= 0 {
		workers = 1
	}
	results := make([]*RunResult, len(jobs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			res, err := s.Run(ctx, job)
			results[i] = res
			return err
		})
	}
	err := g.Wait()

	s.logger.InfoContext(ctx, "pipeline batch finished",
		slog.Int("jobs", len(jobs)),
		slog.Int("workers", workers),
		slog.Bool("failed", err != nil))
	return results, err
}
