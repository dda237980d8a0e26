package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "Startup Investment Normalizer"
	AppVersion = "1.0.0"

	// Directory layout (relative to the base directory)
	DefaultDataDir      = "data"
	DefaultRawDir       = "data/raw"
	DefaultProcessedDir = "data/processed"
	DefaultReportsDir   = "data/reports"
	DefaultCacheDir     = "data/cache"
	DefaultLogsDir      = "logs"

	// Well-known files
	DefaultDatasetFile  = "cleaned_investments.csv"
	DefaultSQLiteFile   = "cleaned_investments.sqlite"
	DefaultInsightsFile = "insights.json"

	// Output naming for batch normalization
	CanonicalSuffix = "_cleaned"

	// Dashboard defaults
	DefaultTopN        = 10
	DefaultOverviewRow = 5
	MaxQueryLimit      = 500

	// Timeouts
	DefaultHTTPTimeout = 30 * time.Second
)

// SupportedInputExtensions lists the raw dataset formats the loader understands.
var SupportedInputExtensions = []string{".csv", ".txt", ".xlsx", ".xlsm"}
