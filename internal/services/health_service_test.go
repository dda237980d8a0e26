package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/config"
)

type readyFunc func() error

func (f readyFunc) Ready() error { return f() }

func TestHealthService_ReadinessCheck(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base)
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))

	tests := []struct {
		name    string
		paths   *config.Paths
		dataset ReadinessChecker
		want    string
	}{
		{name: "all ready", paths: paths, dataset: readyFunc(func() error { return nil }), want: "ready"},
		{name: "dataset missing", paths: paths, dataset: readyFunc(func() error { return ErrDatasetNotFound }), want: "not_ready"},
		{name: "data dir missing", paths: config.NewPaths(filepath.Join(base, "nope")), want: "not_ready"},
		{name: "nothing configured", want: "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hs := NewHealthService(HealthOptions{Version: "test"}, tt.paths, tt.dataset, nil, quietLogger())
			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.want, status.Status)
			assert.Equal(t, "test", status.Version)
			assert.Contains(t, status.Services, "data_directory")
		})
	}
}

func TestHealthService_ReadinessWithDataService(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base)
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))

	cache := newCache(t, config.CacheConfig{Enabled: true, Size: 1}, readCanonical)
	data := NewDataService(cache, paths.DatasetCSV, quietLogger())
	hs := NewHealthService(HealthOptions{Version: "test"}, paths, data, cache, quietLogger())

	status := hs.ReadinessCheck(context.Background())
	require.Equal(t, "not_ready", status.Status)
	dataset := status.Services["dataset"].(ServiceHealth)
	assert.Contains(t, dataset.Message, ErrDatasetNotFound.Error())

	require.NoError(t, os.MkdirAll(filepath.Dir(paths.DatasetCSV), 0755))
	require.NoError(t, os.WriteFile(paths.DatasetCSV, []byte("permalink\n/o/a\n"), 0644))
	status = hs.ReadinessCheck(context.Background())
	assert.Equal(t, "ready", status.Status)
	assert.Contains(t, status.Services, "cache")
}

func TestHealthService_LivenessAndVersion(t *testing.T) {
	hs := NewHealthService(HealthOptions{Version: "1.2.3", RepoURL: "https://example.com/repo", BuildID: "abc"}, nil, nil, nil, quietLogger())

	ctx := context.Background()
	assert.Equal(t, "ok", hs.HealthCheck(ctx).Status)

	live := hs.LivenessCheck(ctx)
	assert.Equal(t, "alive", live.Status)
	assert.Contains(t, live.Runtime, "goroutines")

	v := hs.Version()
	assert.Equal(t, "1.2.3", v["version"])
	assert.Equal(t, "abc", v["build_id"])
	assert.NotContains(t, v, "build_time")
}

func TestHealthService_SystemStats(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base)
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.DataDir, "a.csv"), []byte("12345"), 0644))

	hs := NewHealthService(HealthOptions{}, paths, nil, nil, quietLogger())
	stats, err := hs.SystemStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalFiles)
	assert.Equal(t, int64(5), stats.TotalSizeBytes)

	detailed := hs.GetDetailedHealth(context.Background())
	assert.Contains(t, detailed, "readiness")
	assert.Contains(t, detailed, "stats")
}

func TestHealthService_SystemStatsCancelled(t *testing.T) {
	base := t.TempDir()
	paths := config.NewPaths(base)
	require.NoError(t, os.MkdirAll(paths.DataDir, 0755))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewHealthService(HealthOptions{}, paths, nil, nil, quietLogger()).SystemStats(ctx)
	assert.True(t, errors.Is(err, context.Canceled))
}
