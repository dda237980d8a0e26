package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains all the application paths
// This is the single source of truth for ALL file paths in the application
type Paths struct {
	BaseDir      string
	DataDir      string
	RawDir       string
	ProcessedDir string
	ReportsDir   string
	CacheDir     string
	LogsDir      string

	// Well-known files
	DatasetCSV    string
	DatasetSQLite string
	InsightsJSON  string
}

// GetPaths returns the application paths relative to the executable location
func GetPaths() (*Paths, error) {
	exeDir, err := executableDir()
	if err != nil {
		return nil, err
	}
	return NewPaths(exeDir), nil
}

// ResolvePaths builds paths from configuration. An empty BaseDir falls back
// to the executable directory.
func ResolvePaths(cfg PathsConfig) (*Paths, error) {
	base := cfg.BaseDir
	if base == "" {
		exeDir, err := executableDir()
		if err != nil {
			return nil, err
		}
		base = exeDir
	}

	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve base directory %s: %w", base, err)
	}

	paths := NewPaths(abs)
	if cfg.Dataset != "" {
		if filepath.IsAbs(cfg.Dataset) {
			paths.DatasetCSV = cfg.Dataset
		} else {
			paths.DatasetCSV = filepath.Join(paths.ProcessedDir, cfg.Dataset)
		}
	}
	return paths, nil
}

// NewPaths lays out the directory tree under baseDir.
//
//	base/
//	  ├── data/
//	  │   ├── raw/         (source datasets)
//	  │   ├── processed/   (canonical CSV and SQLite)
//	  │   ├── reports/     (insight reports)
//	  │   └── cache/
//	  └── logs/
func NewPaths(baseDir string) *Paths {
	processed := filepath.Join(baseDir, DefaultProcessedDir)
	reports := filepath.Join(baseDir, DefaultReportsDir)

	return &Paths{
		BaseDir:       baseDir,
		DataDir:       filepath.Join(baseDir, DefaultDataDir),
		RawDir:        filepath.Join(baseDir, DefaultRawDir),
		ProcessedDir:  processed,
		ReportsDir:    reports,
		CacheDir:      filepath.Join(baseDir, DefaultCacheDir),
		LogsDir:       filepath.Join(baseDir, DefaultLogsDir),
		DatasetCSV:    filepath.Join(processed, DefaultDatasetFile),
		DatasetSQLite: filepath.Join(processed, DefaultSQLiteFile),
		InsightsJSON:  filepath.Join(reports, DefaultInsightsFile),
	}
}

func executableDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to get executable path: %w", err)
	}

	// Resolve symlinks to get the actual executable location
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", fmt.Errorf("failed to resolve executable symlinks: %w", err)
	}

	return filepath.Dir(exe), nil
}

// EnsureDirectories creates all required directories if they don't exist
func (p *Paths) EnsureDirectories() error {
	directories := []string{
		p.DataDir,
		p.RawDir,
		p.ProcessedDir,
		p.ReportsDir,
		p.CacheDir,
		p.LogsDir,
	}

	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		slog.Debug("Ensured directory exists", slog.String("directory", dir))
	}

	return nil
}

// GetRawPath returns the path for a source dataset
func (p *Paths) GetRawPath(filename string) string {
	return filepath.Join(p.RawDir, filename)
}

// GetProcessedPath returns the path for a canonical output file
func (p *Paths) GetProcessedPath(filename string) string {
	return filepath.Join(p.ProcessedDir, filename)
}

// GetReportPath returns the path for a report file
func (p *Paths) GetReportPath(filename string) string {
	return filepath.Join(p.ReportsDir, filename)
}

// GetLogPath returns the path for a log file
func (p *Paths) GetLogPath(filename string) string {
	return filepath.Join(p.LogsDir, filename)
}

// CanonicalName maps a raw dataset file name to its canonical CSV name,
// e.g. "investments_VC.xlsx" -> "investments_VC_cleaned.csv".
func CanonicalName(rawName string) string {
	base := filepath.Base(rawName)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + CanonicalSuffix + ".csv"
}

// IsSupportedInput reports whether the loader can read the file extension.
func IsSupportedInput(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedInputExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// LogPathResolution logs path resolution information for debugging
func (p *Paths) LogPathResolution(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Path resolution summary",
		slog.Group("directories",
			slog.String("base", p.BaseDir),
			slog.String("raw", p.RawDir),
			slog.String("processed", p.ProcessedDir),
			slog.String("reports", p.ReportsDir),
			slog.String("logs", p.LogsDir),
		),
		slog.Group("files",
			slog.String("dataset_csv", p.DatasetCSV),
			slog.String("dataset_sqlite", p.DatasetSQLite),
			slog.String("insights_json", p.InsightsJSON),
		))
}
