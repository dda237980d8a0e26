// Package config provides centralized configuration management for the
// normalizer, the insights generator and the dashboard API.
//
// # Configuration Sources
//
// Configuration is assembled from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file (config.yaml, or the file named by INVEST_CONFIG)
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern INVEST_<SECTION>_<FIELD>:
//
//	INVEST_SERVER_PORT=8080
//	INVEST_LOGGING_LEVEL=debug
//	INVEST_PATHS_BASE_DIR=/srv/invest
//	INVEST_NORMALIZE_MARKET_CASING=title
//	INVEST_NORMALIZE_COUNTRY_CORRECTIONS=EST:EE,ROM:RO
//
// # Path Management
//
// Paths are resolved relative to a base directory, which defaults to the
// executable location:
//
//	paths, err := config.ResolvePaths(cfg.Paths)
//	out := paths.GetProcessedPath(config.CanonicalName("investments.csv"))
package config
