package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/config"
	"investcli/internal/infrastructure"
	"investcli/internal/shared/testutil"
)

// testConfig returns a configuration rooted in a temp directory with
// exporters disabled so several applications can live in one process.
func testConfig(t *testing.T) *config.Config {
	t.Helper()

	cfg := config.Default()
	cfg.Paths.BaseDir = t.TempDir()
	cfg.Server.Port = 0
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Logging.Output = "console"
	cfg.Telemetry.EnableMetrics = false
	cfg.Telemetry.EnableTracing = false
	cfg.Security.RateLimit.Enabled = false
	return cfg
}

func writeDataset(t *testing.T, cfg *config.Config) string {
	t.Helper()

	paths := config.NewPaths(cfg.Paths.BaseDir)
	require.NoError(t, paths.EnsureDirectories())
	return testutil.WriteCSV(t, paths.ProcessedDir, config.DefaultDatasetFile, testutil.SampleInvestments)
}

func newTestApp(t *testing.T, cfg *config.Config) *Application {
	t.Helper()

	application, err := NewApplication(cfg, infrastructure.NewLogger(io.Discard, "error"))
	require.NoError(t, err)
	return application
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestGenerateBuildID(t *testing.T) {
	id := generateBuildID()
	assert.Len(t, id, 12)
	assert.Equal(t, id, generateBuildID())
}

func TestNewApplication(t *testing.T) {
	cfg := testConfig(t)
	dataset := writeDataset(t, cfg)

	application := newTestApp(t, cfg)

	assert.Equal(t, dataset, application.Paths.DatasetCSV)
	assert.NotNil(t, application.Router)
	assert.NotNil(t, application.Server)
	assert.NotNil(t, application.Cache)
	assert.NotNil(t, application.DataService)
	assert.NotNil(t, application.HealthService)
	assert.Equal(t, ":0", application.Addr())
	assert.DirExists(t, application.Paths.ReportsDir)
}

func TestNewApplication_InvalidCasing(t *testing.T) {
	cfg := testConfig(t)
	cfg.Normalize.MarketCasing = "upper"

	_, err := NewApplication(cfg, infrastructure.NewLogger(io.Discard, "error"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "normalize")
}

func TestApplication_Routes(t *testing.T) {
	cfg := testConfig(t)
	writeDataset(t, cfg)
	router := newTestApp(t, cfg).Router

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"health", "/api/health", http.StatusOK},
		{"liveness", "/api/health/live", http.StatusOK},
		{"readiness", "/api/health/ready", http.StatusOK},
		{"version", "/api/version", http.StatusOK},
		{"summary", "/api/data/summary", http.StatusOK},
		{"overview", "/api/data/overview?limit=2", http.StatusOK},
		{"filters", "/api/data/filters", http.StatusOK},
		{"top markets", "/api/data/markets/top?metric=mean&limit=3", http.StatusOK},
		{"funding by year", "/api/data/funding/by-year", http.StatusOK},
		{"trailing slash", "/api/data/summary/", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"unknown route", "/api/nope", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, router, tt.target)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestApplication_SecurityHeaders(t *testing.T) {
	cfg := testConfig(t)
	writeDataset(t, cfg)
	router := newTestApp(t, cfg).Router

	rec := get(t, router, "/api/health")
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
}

func TestApplication_SummaryContent(t *testing.T) {
	cfg := testConfig(t)
	writeDataset(t, cfg)
	router := newTestApp(t, cfg).Router

	rec := get(t, router, "/api/data/summary")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data struct {
			TotalStartups int `json:"total_startups"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 4, body.Data.TotalStartups)
}

func TestApplication_MissingDataset(t *testing.T) {
	cfg := testConfig(t)
	router := newTestApp(t, cfg).Router

	rec := get(t, router, "/api/data/summary")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "DATASET_NOT_FOUND")

	rec = get(t, router, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestApplication_StartStop(t *testing.T) {
	cfg := testConfig(t)
	writeDataset(t, cfg)
	application := newTestApp(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, application.Start(ctx, cancel))
	assert.NotEqual(t, ":0", application.Addr())

	waitCtx, waitCancel := context.WithTimeout(ctx, 5*time.Second)
	defer waitCancel()
	require.NoError(t, application.WaitReady(waitCtx))

	resp, err := http.Get("http://" + application.Addr() + "/api/data/countries/top")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, application.Stop(context.Background()))

	_, err = http.Get("http://" + application.Addr() + "/api/health")
	assert.Error(t, err)
}

func TestApplication_StartupHealthCheck(t *testing.T) {
	cfg := testConfig(t)
	application := newTestApp(t, cfg)

	err := application.performStartupHealthCheck(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset unavailable")

	writeDataset(t, cfg)
	assert.FileExists(t, filepath.Join(application.Paths.ProcessedDir, config.DefaultDatasetFile))
	assert.NoError(t, application.performStartupHealthCheck(context.Background()))
}
