package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"coworkingbot/internal/models"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

const (
	summarySheet  = "Сводка"
	bookingsSheet = "Бронирования"
)

var bookingHeaders = []string{"ID", "Дата", "Время", "Имя", "Телефон", "Статус", "Сумма"}

// Export writes the report as an xlsx workbook into dir and returns the file path.
// The caller removes the file once it has been sent.
func Export(rep models.Report, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(summarySheet)
	if err != nil {
		return "", fmt.Errorf("create summary sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := writeSummary(f, rep); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(bookingsSheet); err != nil {
		return "", fmt.Errorf("create bookings sheet: %w", err)
	}
	if err := writeBookings(f, rep.Bookings); err != nil {
		return "", err
	}

	_ = f.DeleteSheet("Sheet1")

	name := fmt.Sprintf("report_%s_%s_%s.xlsx", safeName(rep.Type), safeName(rep.Period), uuid.NewString()[:8])
	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, rep models.Report) error {
	title := "Отчет"
	if rep.Type != "" {
		title += ": " + rep.Type
	}
	if rep.Period != "" {
		title += " (" + rep.Period + ")"
	}
	_ = f.SetCellValue(summarySheet, "A1", title)
	_ = f.MergeCell(summarySheet, "A1", "B1")

	titleStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err == nil {
		_ = f.SetCellStyle(summarySheet, "A1", "A1", titleStyle)
	}

	s := rep.Summary
	rows := [][]any{
		{"Показатель", "Значение"},
		{"Всего броней", s.TotalBookings},
		{"Оплачено", s.PaidBookings},
		{"Не оплачено", s.UnpaidBookings},
		{"Выручка, ₽", s.TotalIncome},
		{"Конверсия, %", s.ConversionRate},
		{"Средний чек, ₽", s.AvgCheck},
	}
	for i, row := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary row: %w", err)
		}
	}

	if headerStyle, err := headerStyle(f); err == nil {
		_ = f.SetCellStyle(summarySheet, "A2", "B2", headerStyle)
	}
	_ = f.SetColWidth(summarySheet, "A", "A", 25)
	_ = f.SetColWidth(summarySheet, "B", "B", 15)
	return nil
}

func writeBookings(f *excelize.File, bookings []models.Booking) error {
	header := make([]any, len(bookingHeaders))
	for i, h := range bookingHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(bookingsSheet, "A1", &header); err != nil {
		return fmt.Errorf("write bookings header: %w", err)
	}
	lastCol, _ := excelize.ColumnNumberToName(len(bookingHeaders))
	if style, err := headerStyle(f); err == nil {
		_ = f.SetCellStyle(bookingsSheet, "A1", lastCol+"1", style)
	}

	paidStyle, _ := fillStyle(f, "#C6EFCE")
	unpaidStyle, _ := fillStyle(f, "#FFEB9C")

	for i, b := range bookings {
		row := i + 2
		values := []any{b.ID, b.Date, b.Time, b.Name, b.Phone, b.Status, b.Price}
		cell, _ := excelize.CoordinatesToCellName(1, row)
		if err := f.SetSheetRow(bookingsSheet, cell, &values); err != nil {
			return fmt.Errorf("write booking %s: %w", b.ID, err)
		}

		style := unpaidStyle
		if b.IsPaid() {
			style = paidStyle
		}
		if style != 0 {
			_ = f.SetCellStyle(bookingsSheet, cell, fmt.Sprintf("%s%d", lastCol, row), style)
		}
	}

	_ = f.SetColWidth(bookingsSheet, "A", "A", 10)
	_ = f.SetColWidth(bookingsSheet, "B", "C", 14)
	_ = f.SetColWidth(bookingsSheet, "D", "E", 20)
	_ = f.SetColWidth(bookingsSheet, "F", "G", 14)
	return nil
}

func headerStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

func fillStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
}

func safeName(s string) string {
	if s == "" {
		return "all"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}
