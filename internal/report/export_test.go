package report

import (
	"path/filepath"
	"strings"
	"testing"

	"coworkingbot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "exports")
	rep := models.Report{
		Type:   "weekly",
		Period: "current",
		Summary: models.ReportSummary{
			TotalBookings: 2, PaidBookings: 1, UnpaidBookings: 1, TotalIncome: 500,
		},
		Bookings: []models.Booking{
			{ID: "1", Date: "01.02.2030", Time: "10:00-12:00", Name: "Анна", Status: models.StatusPaid, Price: 500},
			{ID: "2", Date: "02.02.2030", Time: "12:00-14:00", Name: "Олег", Price: 700},
		},
	}

	path, err := Export(rep, dir)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(path), "report_weekly_current_"))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{summarySheet, bookingsSheet}, f.GetSheetList())

	v, err := f.GetCellValue(summarySheet, "A2")
	require.NoError(t, err)
	assert.Equal(t, "Показатель", v)
	v, _ = f.GetCellValue(summarySheet, "B3")
	assert.Equal(t, "2", v)

	rows, err := f.GetRows(bookingsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, bookingHeaders, rows[0])
	assert.Equal(t, "Анна", rows[1][3])
	assert.Equal(t, "Олег", rows[2][3])
}

func TestExportEmptyReport(t *testing.T) {
	path, err := Export(models.Report{}, t.TempDir())
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "report_all_all_")
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "week_2030", safeName("week/2030"))
	assert.Equal(t, "all", safeName(""))
}
