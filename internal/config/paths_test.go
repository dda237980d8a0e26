package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	paths, err := GetPaths()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(paths.BaseDir), "BaseDir should be absolute")
	assert.Equal(t, filepath.Join(paths.BaseDir, "data"), paths.DataDir)
	assert.Equal(t, filepath.Join(paths.BaseDir, "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(paths.ProcessedDir, DefaultDatasetFile), paths.DatasetCSV)
}

func TestResolvePaths(t *testing.T) {
	base := t.TempDir()

	tests := []struct {
		name        string
		cfg         PathsConfig
		wantDataset string
	}{
		{
			name:        "default dataset under processed dir",
			cfg:         PathsConfig{BaseDir: base},
			wantDataset: filepath.Join(base, "data", "processed", DefaultDatasetFile),
		},
		{
			name:        "relative dataset resolves against processed dir",
			cfg:         PathsConfig{BaseDir: base, Dataset: "custom.csv"},
			wantDataset: filepath.Join(base, "data", "processed", "custom.csv"),
		},
		{
			name:        "absolute dataset is kept",
			cfg:         PathsConfig{BaseDir: base, Dataset: filepath.Join(base, "elsewhere.csv")},
			wantDataset: filepath.Join(base, "elsewhere.csv"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			paths, err := ResolvePaths(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.wantDataset, paths.DatasetCSV)
			assert.Equal(t, base, paths.BaseDir)
		})
	}
}

func TestPaths_EnsureDirectories(t *testing.T) {
	paths := NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.RawDir, paths.ProcessedDir, paths.ReportsDir, paths.CacheDir, paths.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err, dir)
		assert.True(t, info.IsDir())
	}
}

func TestPaths_Getters(t *testing.T) {
	paths := NewPaths("/base")

	assert.Equal(t, filepath.Join("/base", "data", "raw", "a.csv"), paths.GetRawPath("a.csv"))
	assert.Equal(t, filepath.Join("/base", "data", "processed", "a.csv"), paths.GetProcessedPath("a.csv"))
	assert.Equal(t, filepath.Join("/base", "data", "reports", "r.json"), paths.GetReportPath("r.json"))
	assert.Equal(t, filepath.Join("/base", "logs", "app.log"), paths.GetLogPath("app.log"))
}

func TestCanonicalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"investments.csv", "investments_cleaned.csv"},
		{"/tmp/investments_VC.xlsx", "investments_VC_cleaned.csv"},
		{"noext", "noext_cleaned.csv"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalName(tt.in))
		})
	}
}

func TestIsSupportedInput(t *testing.T) {
	assert.True(t, IsSupportedInput("a.csv"))
	assert.True(t, IsSupportedInput("A.XLSX"))
	assert.True(t, IsSupportedInput("a.xlsm"))
	assert.False(t, IsSupportedInput("a.xls"))
	assert.False(t, IsSupportedInput("a.json"))
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "x")
	assert.False(t, FileExists(file))
	require.NoError(t, os.WriteFile(file, nil, 0644))
	assert.True(t, FileExists(file))
}
