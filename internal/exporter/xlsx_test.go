package exporter

import (
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/Anest2009/Enerlytics/internal/accuracy"
	apperrors "github.com/Anest2009/Enerlytics/internal/errors"
)

func TestExportXLSX(t *testing.T) {
	result := accuracy.Analyze(sampleRecords()[:2], 1, 2)
	path := filepath.Join(t.TempDir(), "out", "result.xlsx")

	require.NoError(t, ExportXLSX(result, path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Records", "Summary"}, f.GetSheetList())

	rows, err := f.GetRows("Records")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, Header(), rows[0])
	assert.Equal(t, "2024-01-31 15:45:00", rows[1][0])
	assert.Equal(t, "North", rows[1][1])

	forecast, err := strconv.ParseFloat(rows[1][2], 64)
	require.NoError(t, err)
	assert.Equal(t, 110.0, forecast)

	overall, err := f.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "5", overall)

	total, err := f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	assert.Equal(t, "2", total)

	group, err := f.GetCellValue("Summary", "A7")
	require.NoError(t, err)
	assert.Equal(t, "North", group)
}

func TestExportXLSX_Failures(t *testing.T) {
	dir := t.TempDir()

	err := ExportXLSX(nil, filepath.Join(dir, "x.xlsx"))
	assert.ErrorIs(t, err, apperrors.ErrExportFailed)

	err = ExportXLSX(accuracy.Analyze(nil, 0, 0), dir)
	assert.ErrorIs(t, err, apperrors.ErrExportFailed)
}
