package validation

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
	"github.com/Anest2009/Enerlytics/pkg/contracts/domain"
)

func newValidator() *FileValidator {
	return NewFileValidator(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestFileValidator_ValidateInputFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte("timestamp,group_id,value\n"), 0644))
		return path
	}

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"csv", write("forecast.csv"), false},
		{"txt", write("forecast.txt"), false},
		{"xlsx upper case", write("FORECAST.XLSX"), false},
		{"unsupported", write("forecast.json"), true},
		{"lock file", write("~$forecast.xlsx"), true},
		{"missing", filepath.Join(dir, "missing.csv"), true},
		{"directory", dir, true},
	}

	v := newValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateInputFile(tt.path)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, apperrors.ErrIO)
			var ae *apperrors.AnalysisError
			require.ErrorAs(t, err, &ae)
			assert.Equal(t, filepath.Base(tt.path), ae.File)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := newValidator()

	nested := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, v.ValidateOutputDirectory(nested))
	assert.DirExists(t, nested)

	entries, err := os.ReadDir(nested)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary write check file must be removed")

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))
	assert.Error(t, v.ValidateOutputDirectory(filepath.Join(blocker, "sub")))
}

func TestFileValidator_ValidateExportPath(t *testing.T) {
	v := newValidator()
	dir := t.TempDir()

	assert.NoError(t, v.ValidateExportPath(filepath.Join(dir, "out", "result.csv"), domain.ExportFormatCSV))
	// A mismatched extension is only logged
	assert.NoError(t, v.ValidateExportPath(filepath.Join(dir, "result.txt"), domain.ExportFormatXLSX))

	err := v.ValidateExportPath(dir, domain.ExportFormatCSV)
	assert.ErrorIs(t, err, apperrors.ErrExportFailed)
}

func TestIsSupportedInput(t *testing.T) {
	assert.True(t, IsSupportedInput("a.csv"))
	assert.True(t, IsSupportedInput("a.Xlsx"))
	assert.False(t, IsSupportedInput("a.xls"))
	assert.False(t, IsSupportedInput("noext"))
}
