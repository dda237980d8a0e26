package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadFrom(t *testing.T) {
	tests := []struct {
		name        string
		env         map[string]string
		file        string
		wantErr     bool
		validateCfg func(*testing.T, *Config)
	}{
		{
			name: "defaults without file or env",
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 8080, cfg.Server.Port)
				assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
				assert.Equal(t, "title", cfg.Normalize.MarketCasing)
				assert.Equal(t, map[string]string{"EST": "EE"}, cfg.Normalize.CountryCorrections)
				assert.True(t, cfg.Normalize.ThousandsSeparator)
				assert.Equal(t, ",", cfg.Normalize.Delimiter)
				assert.Equal(t, "json", cfg.Logging.Format)
				assert.Equal(t, "both", cfg.Logging.Output)
				assert.True(t, cfg.Cache.Enabled)
				assert.Equal(t, DefaultDatasetFile, cfg.Paths.Dataset)
			},
		},
		{
			name: "file overrides defaults",
			file: `
server:
  port: 9090
normalize:
  market_casing: sentence
  country_corrections:
    ROM: RO
logging:
  level: debug
`,
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 9090, cfg.Server.Port)
				assert.Equal(t, "sentence", cfg.Normalize.MarketCasing)
				assert.Equal(t, "RO", cfg.Normalize.CountryCorrections["ROM"])
				assert.Equal(t, "EE", cfg.Normalize.CountryCorrections["EST"])
				assert.Equal(t, "debug", cfg.Logging.Level)
			},
		},
		{
			name: "env overrides file",
			file: "server:\n  port: 9090\n",
			env: map[string]string{
				"INVEST_SERVER_PORT":                   "7070",
				"INVEST_NORMALIZE_COUNTRY_CORRECTIONS": "EST:EE,UK:GB",
				"INVEST_NORMALIZE_MARKET_CASING":       "SENTENCE",
			},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, 7070, cfg.Server.Port)
				assert.Equal(t, map[string]string{"EST": "EE", "UK": "GB"}, cfg.Normalize.CountryCorrections)
				assert.Equal(t, "sentence", cfg.Normalize.MarketCasing)
			},
		},
		{
			name:    "unknown casing rule is rejected",
			env:     map[string]string{"INVEST_NORMALIZE_MARKET_CASING": "upper"},
			wantErr: true,
		},
		{
			name:    "invalid port is rejected",
			file:    "server:\n  port: 70000\n",
			wantErr: true,
		},
		{
			name:    "malformed yaml",
			file:    "server: [",
			wantErr: true,
		},
		{
			name: "unsupported log output falls back to both",
			env:  map[string]string{"INVEST_LOGGING_OUTPUT": "syslog"},
			validateCfg: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "both", cfg.Logging.Output)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			path := ""
			if tt.file != "" {
				path = writeConfigFile(t, tt.file)
			}

			cfg, err := LoadFrom(path)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, cfg)
			if tt.validateCfg != nil {
				tt.validateCfg(t, cfg)
			}
		})
	}
}

func TestLoadFrom_MissingFile(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_ExplicitConfigEnv(t *testing.T) {
	path := writeConfigFile(t, "cache:\n  size: 3\n")
	t.Setenv("INVEST_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Cache.Size)
}

func TestDefaultCountryCorrections_ReturnsCopy(t *testing.T) {
	a := DefaultCountryCorrections()
	a["XX"] = "YY"

	b := DefaultCountryCorrections()
	assert.NotContains(t, b, "XX")
}
