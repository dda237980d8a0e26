package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"investcli/internal/config"
	"investcli/internal/dataprocessing"
	"investcli/internal/errors"
)

// FileValidator checks command-line inputs and outputs before a pipeline run
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInput checks that path is a readable dataset file or a directory.
// A missing path wraps dataprocessing.ErrSourceNotFound.
func (v *FileValidator) ValidateInput(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("Input does not exist", slog.String("path", path))
		return errors.NewNotFoundError("input "+path, fmt.Errorf("%w: %s", dataprocessing.ErrSourceNotFound, path))
	}
	if err != nil {
		return errors.NewStorageError("failed to stat input", err).WithContext("path", path)
	}
	if info.IsDir() {
		v.logger.Debug("Input is a directory", slog.String("path", path))
		return nil
	}
	return v.ValidateDataset(path)
}

// ValidateDataset checks that path is a readable file with a supported
// extension that is not an Office lock file.
func (v *FileValidator) ValidateDataset(path string) error {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") {
		v.logger.Warn("Skipping temporary Excel file", slog.String("file", path))
		return errors.NewInputError("temporary Excel file "+base, dataprocessing.ErrUnsupportedFormat)
	}
	if !config.IsSupportedInput(base) {
		v.logger.Error("Unsupported dataset format",
			slog.String("file", path),
			slog.String("extension", filepath.Ext(path)))
		return errors.NewInputError(
			fmt.Sprintf("file %s has unsupported extension %q", base, filepath.Ext(path)),
			dataprocessing.ErrUnsupportedFormat,
		)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return errors.NewAppError(errors.ErrTypePermission, "file "+base+" is not readable", err)
	}
	file.Close()

	v.logger.Debug("Dataset validated", slog.String("file", path))
	return nil
}

// ValidateOutputDirectory ensures dir exists and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewStorageError("failed to create output directory "+dir, err)
	}

	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return errors.NewAppError(errors.ErrTypePermission, "output directory "+dir+" is not writable", err)
	}
	probe.Close()
	os.Remove(probe.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}
