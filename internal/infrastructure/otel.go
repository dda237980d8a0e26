package infrastructure

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"investcli/internal/config"
)

const (
	ServiceName    = "investcli"
	ServiceVersion = config.AppVersion
	MeterName      = "investcli"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	EnableMetrics  bool
	EnableTracing  bool
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// DefaultOTelConfig returns a default OpenTelemetry configuration
func DefaultOTelConfig() *OTelConfig {
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: ServiceVersion,
		Environment:    env,
		TraceExporter:  "stdout",
		MetricExporter: "prometheus",
		EnableMetrics:  true,
		EnableTracing:  true,
		SampleRatio:    1.0,
	}
}

// OTelConfigFrom maps the telemetry section of the application config.
func OTelConfigFrom(cfg config.TelemetryConfig) *OTelConfig {
	otelCfg := DefaultOTelConfig()
	otelCfg.EnableTracing = cfg.EnableTracing
	otelCfg.EnableMetrics = cfg.EnableMetrics
	if cfg.TraceExporter != "" {
		otelCfg.TraceExporter = cfg.TraceExporter
	}
	if cfg.MetricExporter != "" {
		otelCfg.MetricExporter = cfg.MetricExporter
	}
	if cfg.SampleRatio > 0 {
		otelCfg.SampleRatio = cfg.SampleRatio
	}
	if cfg.Environment != "" {
		otelCfg.Environment = cfg.Environment
	}
	return otelCfg
}

// InitializeOTel initializes tracing and metrics providers
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = DefaultOTelConfig()
	}
	if logger == nil {
		logger = GetLogger()
	}

	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing OpenTelemetry",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.Bool("tracing_enabled", cfg.EnableTracing),
		slog.Bool("metrics_enabled", cfg.EnableMetrics))

	res := createResource(cfg)

	providers := &OTelProviders{
		Logger: logger,
	}

	if cfg.EnableTracing {
		if err := initializeTracing(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	}

	if cfg.EnableMetrics {
		if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialization complete",
		slog.Bool("tracing_enabled", providers.TracerProvider != nil),
		slog.Bool("metrics_enabled", providers.MeterProvider != nil))

	return providers, nil
}

func createResource(cfg *OTelConfig) *resource.Resource {
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", generateInstanceID()),
	)
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(cfg.SampleRatio)),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "prometheus":
		exporter, err := prometheus.New()
		if err != nil {
			return fmt.Errorf("failed to create prometheus exporter: %w", err)
		}

		providers.PrometheusHTTP = promhttp.Handler()

		mp := sdkmetric.NewMeterProvider(
			sdkmetric.WithResource(res),
			sdkmetric.WithReader(exporter),
		)

		providers.MeterProvider = mp
		providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
		otel.SetMeterProvider(mp)

	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	providers.Logger.InfoContext(ctx, "Metrics initialized",
		slog.String("exporter", cfg.MetricExporter))

	return nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Normalization pipeline metrics
	NormalizeRunsTotal      metric.Int64Counter
	NormalizeRunDuration    metric.Float64Histogram
	NormalizeRowsIn         metric.Int64Counter
	NormalizeRowsOut        metric.Int64Counter
	NormalizeDuplicates     metric.Int64Counter
	NormalizeDefaultsFilled metric.Int64Counter
	NormalizeErrors         metric.Int64Counter

	// Dataset cache metrics
	DatasetCacheHits   metric.Int64Counter
	DatasetCacheMisses metric.Int64Counter
	DatasetLoadSeconds metric.Float64Histogram
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	if meter == nil {
		meter = otel.Meter(MeterName)
	}

	m := &BusinessMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
		{&m.NormalizeRunsTotal, "normalize_runs_total", "Total number of normalization runs"},
		{&m.NormalizeRowsIn, "normalize_rows_in_total", "Rows read by the normalizer"},
		{&m.NormalizeRowsOut, "normalize_rows_out_total", "Rows written by the normalizer"},
		{&m.NormalizeDuplicates, "normalize_duplicates_total", "Rows dropped as duplicate permalinks"},
		{&m.NormalizeDefaultsFilled, "normalize_defaults_filled_total", "Missing cells replaced with a default"},
		{&m.NormalizeErrors, "normalize_errors_total", "Failed normalization runs"},
		{&m.DatasetCacheHits, "dataset_cache_hits_total", "Dataset cache hits"},
		{&m.DatasetCacheMisses, "dataset_cache_misses_total", "Dataset cache misses"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
		{&m.NormalizeRunDuration, "normalize_run_duration_seconds", "Normalization run duration in seconds"},
		{&m.DatasetLoadSeconds, "dataset_load_duration_seconds", "Time spent loading a dataset on cache miss"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, err
		}
	}

	m.HTTPActiveRequests, err = meter.Int64UpDownCounter(
		"http_active_requests",
		metric.WithDescription("Number of active HTTP requests"),
	)
	if err != nil {
		return nil, err
	}

	return m, nil
}

// NormalizationOutcome is the per-run summary fed into the pipeline metrics.
type NormalizationOutcome struct {
	Source     string
	RowsIn     int
	RowsOut    int
	Duplicates int
	Defaults   map[string]int
	Duration   time.Duration
	Err        error
}

// RecordNormalization records metrics and a span event for one normalizer run.
func RecordNormalization(ctx context.Context, metrics *BusinessMetrics, out NormalizationOutcome) {
	if metrics == nil {
		return
	}

	status := "success"
	if out.Err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(attribute.String("source", out.Source))

	metrics.NormalizeRunsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("source", out.Source),
		attribute.String("status", status),
	))
	metrics.NormalizeRunDuration.Record(ctx, out.Duration.Seconds(), metric.WithAttributes(
		attribute.String("status", status),
	))

	if out.Err != nil {
		metrics.NormalizeErrors.Add(ctx, 1, metric.WithAttributes(
			attribute.String("source", out.Source),
			attribute.String("error.type", fmt.Sprintf("%T", out.Err)),
		))
	} else {
		metrics.NormalizeRowsIn.Add(ctx, int64(out.RowsIn), attrs)
		metrics.NormalizeRowsOut.Add(ctx, int64(out.RowsOut), attrs)
		metrics.NormalizeDuplicates.Add(ctx, int64(out.Duplicates), attrs)

		columns := make([]string, 0, len(out.Defaults))
		for col := range out.Defaults {
			columns = append(columns, col)
		}
		sort.Strings(columns)
		for _, col := range columns {
			metrics.NormalizeDefaultsFilled.Add(ctx, int64(out.Defaults[col]), metric.WithAttributes(
				attribute.String("column", col),
			))
		}
	}

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent("normalize.metrics_recorded",
			trace.WithAttributes(
				attribute.String("source", out.Source),
				attribute.Int("rows_in", out.RowsIn),
				attribute.Int("rows_out", out.RowsOut),
				attribute.Bool("success", out.Err == nil),
				attribute.Float64("duration_seconds", out.Duration.Seconds()),
			),
		)
	}
}

// RecordCacheLookup counts a dataset cache hit or miss.
func RecordCacheLookup(ctx context.Context, metrics *BusinessMetrics, hit bool) {
	if metrics == nil {
		return
	}
	if hit {
		metrics.DatasetCacheHits.Add(ctx, 1)
		return
	}
	metrics.DatasetCacheMisses.Add(ctx, 1)
}

// RecordDatasetLoad records how long a cache miss took to load a dataset.
func RecordDatasetLoad(ctx context.Context, metrics *BusinessMetrics, d time.Duration, err error) {
	if metrics == nil {
		return
	}
	metrics.DatasetLoadSeconds.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.Bool("success", err == nil),
	))
}

// Shutdown gracefully shuts down OpenTelemetry providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	if p == nil {
		return nil
	}

	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("opentelemetry shutdown errors: %v", errs)
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func generateInstanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext extracts the OTel trace ID for logging correlation
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// StartSpan starts a span on the global tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(MeterName).Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}
