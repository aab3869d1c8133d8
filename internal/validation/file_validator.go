// Package validation checks input and output paths before an analysis run.
package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

// SupportedInputExtensions lists the file extensions accepted as analysis input
var SupportedInputExtensions = []string{".csv", ".txt", ".xlsx"}

// FileValidator provides file validation for the CLI and the web server
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger.With(slog.String("component", "file_validator")),
	}
}

// ValidateFile checks if a specific file exists and is readable.
// Failures are IO errors naming the file.
func (v *FileValidator) ValidateFile(path string) error {
	name := filepath.Base(path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist", slog.String("file", path))
		return apperrors.NewIOError(name, fmt.Errorf("file %s does not exist", path))
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewIOError(name, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file", slog.String("path", path))
		return apperrors.NewIOError(name, fmt.Errorf("%s is a directory, not a file", path))
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewIOError(name, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateInputFile checks that path is a readable file of a supported type
func (v *FileValidator) ValidateInputFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.ValidateInputName(filepath.Base(path))
}

// ValidateInputName checks a file name, e.g. of an upload, for a supported
// extension. Office lock files (~$name.xlsx) are rejected.
func (v *FileValidator) ValidateInputName(name string) error {
	if strings.HasPrefix(name, "~$") {
		v.logger.Warn("Rejected temporary Excel file", slog.String("file", name))
		return apperrors.NewIOError(name, fmt.Errorf("file %s is a temporary Excel file", name))
	}

	if !IsSupportedInput(name) {
		ext := strings.ToLower(filepath.Ext(name))
		v.logger.Error("Unsupported input file type",
			slog.String("file", name),
			slog.String("extension", ext))
		return apperrors.NewIOError(name, fmt.Errorf("unsupported file type %q, expected one of %s",
			ext, strings.Join(SupportedInputExtensions, ", ")))
	}
	return nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
// and is writable
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	file, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(file.Name())

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

// ValidateExportPath checks that an export to path in the given format can
// be written. Failures are ExportFailed errors.
func (v *FileValidator) ValidateExportPath(path string, format domain.ExportFormat) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return apperrors.NewExportError(path, fmt.Errorf("%s is a directory", path))
	}

	if ext := strings.ToLower(filepath.Ext(path)); ext != "" && ext != format.Extension() {
		v.logger.Warn("Export extension does not match format",
			slog.String("path", path),
			slog.String("format", string(format)))
	}

	if err := v.ValidateOutputDirectory(filepath.Dir(path)); err != nil {
		return apperrors.NewExportError(path, err)
	}
	return nil
}

// IsSupportedInput reports whether name has a supported input extension
func IsSupportedInput(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, supported := range SupportedInputExtensions {
		if ext == supported {
			return true
		}
	}
	return false
}
