package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"investcli/internal/dataprocessing"
	"investcli/internal/errors"
	"investcli/internal/shared/testutil"
)

func TestFileValidator_ValidateInput(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(t *testing.T) string
		sentinel error
		errType  errors.ErrorType
	}{
		{
			name: "csv file",
			setup: func(t *testing.T) string {
				return testutil.WriteCSV(t, t.TempDir(), "investments.csv", testutil.SampleInvestments)
			},
		},
		{
			name:  "directory",
			setup: func(t *testing.T) string { return t.TempDir() },
		},
		{
			name:     "missing path",
			setup:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "missing.csv") },
			sentinel: dataprocessing.ErrSourceNotFound,
			errType:  errors.ErrTypeNotFound,
		},
		{
			name: "unsupported extension",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "data.parquet")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			sentinel: dataprocessing.ErrUnsupportedFormat,
			errType:  errors.ErrTypeInput,
		},
		{
			name: "office lock file",
			setup: func(t *testing.T) string {
				path := filepath.Join(t.TempDir(), "~$investments.xlsx")
				require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
				return path
			},
			sentinel: dataprocessing.ErrUnsupportedFormat,
			errType:  errors.ErrTypeInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateInput(tt.setup(t))
			if tt.sentinel == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			typ, ok := errors.TypeOf(err)
			require.True(t, ok)
			assert.Equal(t, tt.errType, typ)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	logger, handler := testutil.NewTestLogger(t)
	dir := filepath.Join(t.TempDir(), "processed", "nested")

	require.NoError(t, NewFileValidator(logger).ValidateOutputDirectory(dir))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file is removed")
	testutil.AssertNoErrors(t, handler)
}

func TestFileValidator_ValidateOutputDirectory_Blocked(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	err := NewFileValidator(nil).ValidateOutputDirectory(filepath.Join(blocker, "sub"))
	require.Error(t, err)
	typ, _ := errors.TypeOf(err)
	assert.Equal(t, errors.ErrTypeStorage, typ)
}
