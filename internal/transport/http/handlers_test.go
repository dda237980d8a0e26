package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	apierrors "investcli/internal/errors"
	"investcli/internal/exporter"
	"investcli/internal/services"
	"investcli/internal/shared/testutil"
	"investcli/pkg/contracts/domain"
)

var dashboardRows = [][]string{
	{"permalink", "market", "funding_total_usd", "status", "country_code", "founded_at", "founded_year", "seed"},
	{"/o/a", "Software", "100", "acquired", "USA", "2010-01-01", "2010", "10"},
	{"/o/b", "Software", "300", "operating", "USA", "2011-01-01", "2011", "20"},
	{"/o/c", "Games", "50", "acquired", "GBR", "2012-01-01", "2012", ""},
	{"/o/d", "Health", "1000", "operating", "DEU", "2012-06-01", "2012", ""},
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Count  int             `json:"count"`
}

func newTestRouter(t *testing.T, datasetPath string) (*chi.Mux, *services.DataService) {
	t.Helper()
	logger := quietLogger()
	load := func(ctx context.Context, path string) (*domain.CanonicalTable, error) {
		return exporter.ReadCanonicalCSV(ctx, path, exporter.ReadOptions{
			Normalize: dataprocessing.DefaultOptions(),
			Logger:    logger,
		})
	}
	cache, err := services.NewDatasetCache(config.CacheConfig{Enabled: true, Size: 2}, load, nil, logger)
	require.NoError(t, err)
	data := services.NewDataService(cache, datasetPath, logger)

	errHandler := apierrors.NewErrorHandler(logger, false)
	r := chi.NewRouter()
	r.NotFound(errHandler.NotFound)
	r.MethodNotAllowed(errHandler.MethodNotAllowed)
	r.Mount("/api/data", NewDataHandler(data, logger, errHandler).Routes())
	return r, data
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	require.Equal(t, "success", env.Status)
	if data != nil {
		require.NoError(t, json.Unmarshal(env.Data, data))
	}
	return env
}

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var problem map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem), rec.Body.String())
	return problem
}

func TestDataHandler_Routes(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "cleaned.csv", dashboardRows)
	router, _ := newTestRouter(t, path)

	t.Run("overview", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/overview?limit=2")
		require.Equal(t, http.StatusOK, rec.Code)
		var ov services.Overview
		env := decodeEnvelope(t, rec, &ov)
		assert.Equal(t, 4, env.Count)
		assert.Equal(t, 4, ov.Total)
		assert.Len(t, ov.Rows, 2)
	})

	t.Run("summary with filter", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/summary?market=Software")
		require.Equal(t, http.StatusOK, rec.Code)
		var s domain.DatasetSummary
		decodeEnvelope(t, rec, &s)
		assert.Equal(t, 2, s.TotalStartups)
		assert.InDelta(t, 400, s.TotalFundingUSD, 1e-9)
	})

	t.Run("top markets by sum", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/markets/top")
		require.Equal(t, http.StatusOK, rec.Code)
		var res services.RankedResult
		decodeEnvelope(t, rec, &res)
		assert.Equal(t, services.MetricSum, res.Metric)
		require.NotEmpty(t, res.Items)
		assert.Equal(t, domain.Ranked{Key: "Health", Value: 1000}, res.Items[0])
	})

	t.Run("top markets by mean", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/markets/top?metric=MEAN&limit=1")
		require.Equal(t, http.StatusOK, rec.Code)
		var res services.RankedResult
		env := decodeEnvelope(t, rec, &res)
		assert.Equal(t, services.MetricMean, res.Metric)
		assert.Equal(t, 1, env.Count)
	})

	t.Run("acquisition rate", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/markets/acquisition-rate")
		require.Equal(t, http.StatusOK, rec.Code)
		var res services.RankedResult
		decodeEnvelope(t, rec, &res)
		assert.Equal(t, domain.Ranked{Key: "Games", Value: 1}, res.Items[0])
	})

	t.Run("market share", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/markets/share")
		require.Equal(t, http.StatusOK, rec.Code)
		var res services.CountResult
		decodeEnvelope(t, rec, &res)
		assert.Equal(t, domain.Count{Key: "Software", Count: 2}, res.Items[0])
	})

	t.Run("top countries", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/countries/top?status=acquired")
		require.Equal(t, http.StatusOK, rec.Code)
		var res services.CountResult
		decodeEnvelope(t, rec, &res)
		assert.Equal(t, 2, res.Records)
	})

	t.Run("funding by year", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/funding/by-year?year_from=2011")
		require.Equal(t, http.StatusOK, rec.Code)
		var res services.YearResult
		decodeEnvelope(t, rec, &res)
		assert.Equal(t, []domain.YearTotal{{Year: 2011, Total: 300}, {Year: 2012, Total: 1050}}, res.Items)
	})

	t.Run("funding by type", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/funding/by-type")
		require.Equal(t, http.StatusOK, rec.Code)
		var res services.RankedResult
		decodeEnvelope(t, rec, &res)
		assert.Contains(t, res.Items, domain.Ranked{Key: "seed", Value: 30})
	})

	t.Run("filters", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/filters")
		require.Equal(t, http.StatusOK, rec.Code)
		var opts domain.FilterOptions
		decodeEnvelope(t, rec, &opts)
		assert.Equal(t, []string{"Games", "Health", "Software"}, opts.Markets)
	})

	t.Run("no matches is empty", func(t *testing.T) {
		rec := serve(t, router, http.MethodGet, "/api/data/markets/share?country=FRA")
		require.Equal(t, http.StatusOK, rec.Code)
		env := decodeEnvelope(t, rec, nil)
		assert.Zero(t, env.Count)
	})
}

func TestDataHandler_Errors(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "cleaned.csv", dashboardRows)
	router, _ := newTestRouter(t, path)

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
		wantType   string
	}{
		{name: "bad metric", method: http.MethodGet, target: "/api/data/markets/top?metric=median", wantStatus: http.StatusBadRequest, wantType: apierrors.TypeValidation},
		{name: "bad year", method: http.MethodGet, target: "/api/data/summary?year_from=soon", wantStatus: http.StatusBadRequest, wantType: apierrors.TypeValidation},
		{name: "inverted years", method: http.MethodGet, target: "/api/data/summary?year_from=2012&year_to=2010", wantStatus: http.StatusBadRequest, wantType: apierrors.TypeValidation},
		{name: "limit too large", method: http.MethodGet, target: "/api/data/overview?limit=100000", wantStatus: http.StatusBadRequest, wantType: apierrors.TypeValidation},
		{name: "unknown route", method: http.MethodGet, target: "/api/data/nothing", wantStatus: http.StatusNotFound, wantType: apierrors.TypeNotFound},
		{name: "wrong method", method: http.MethodGet, target: "/api/data/cache/invalidate", wantStatus: http.StatusMethodNotAllowed, wantType: apierrors.TypeMethod},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, router, tt.method, tt.target)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantType, decodeProblem(t, rec)["type"])
		})
	}
}

func TestDataHandler_MissingDataset(t *testing.T) {
	router, _ := newTestRouter(t, filepath.Join(t.TempDir(), "cleaned.csv"))

	rec := serve(t, router, http.MethodGet, "/api/data/summary")
	require.Equal(t, http.StatusNotFound, rec.Code)
	problem := decodeProblem(t, rec)
	assert.Equal(t, apierrors.TypeDatasetNotFound, problem["type"])
	assert.Equal(t, apierrors.CodeDatasetNotFound, problem["error_code"])
}

func TestDataHandler_MissingColumn(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "cleaned.csv", [][]string{
		{"permalink", "status"},
		{"/o/a", "acquired"},
	})
	router, _ := newTestRouter(t, path)

	rec := serve(t, router, http.MethodGet, "/api/data/markets/top")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, apierrors.TypeDatasetInvalid, decodeProblem(t, rec)["type"])
}

func TestDataHandler_InvalidateCache(t *testing.T) {
	path := testutil.WriteCSV(t, t.TempDir(), "cleaned.csv", dashboardRows)
	router, data := newTestRouter(t, path)

	require.Equal(t, http.StatusOK, serve(t, router, http.MethodGet, "/api/data/summary").Code)

	rec := serve(t, router, http.MethodPost, "/api/data/cache/invalidate")
	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	env := decodeEnvelope(t, rec, &body)
	assert.Equal(t, 1, env.Count)
	assert.Equal(t, data.DatasetPath(), body["dataset"])
}

func TestHealthHandler(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base)
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))

	_, data := newTestRouter(t, paths.DatasetCSV)
	hs := services.NewHealthService(services.HealthOptions{Version: "1.0.0-test"}, paths, data, nil, quietLogger())
	h := NewHealthHandler(hs, quietLogger())

	r := chi.NewRouter()
	r.Get("/api/health", h.HealthCheck)
	r.Get("/api/health/ready", h.ReadinessCheck)
	r.Get("/api/health/live", h.LivenessCheck)
	r.Get("/api/version", h.Version)

	assert.Equal(t, http.StatusOK, serve(t, r, http.MethodGet, "/api/health").Code)
	assert.Equal(t, http.StatusOK, serve(t, r, http.MethodGet, "/api/health/live").Code)

	rec := serve(t, r, http.MethodGet, "/api/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	require.NoError(t, os.MkdirAll(filepath.Dir(paths.DatasetCSV), 0755))
	testutil.WriteCSV(t, filepath.Dir(paths.DatasetCSV), filepath.Base(paths.DatasetCSV), dashboardRows)
	rec = serve(t, r, http.MethodGet, "/api/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, r, http.MethodGet, "/api/version")
	var version map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &version))
	assert.Equal(t, "1.0.0-test", version["version"])
}

func TestMetricsHandler_FallsBackToDefaultRegistry(t *testing.T) {
	rec := serve(t, NewMetricsHandler(nil), http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
