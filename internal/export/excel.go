// Package export writes booking reports as Excel workbooks.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/codr1/salonbook/internal/models"
)

const (
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	sheetName   = "Bookings"
)

var columns = []string{
	"ID", "Date", "Start", "End", "Service", "Add-ons", "Duration (min)",
	"Price", "Client", "Phone", "Email", "Language", "Notes",
}

// Filename names a report covering fromDay..toDay.
func Filename(fromDay, toDay string) string {
	return fmt.Sprintf("bookings_%s_%s.xlsx", fromDay, toDay)
}

// WriteBookings writes one row per booking, preceded by a bold header.
func WriteBookings(w io.Writer, bookings []models.BookingDetails, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := writeRow(f, 1, toCells(columns)); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = f.SetCellStyle(sheetName, "A1", endCell, style)
	}

	for i, b := range bookings {
		end := ""
		if endsAt, err := b.EndsAt(loc); err == nil {
			end = endsAt.Format(models.ClockLayout)
		}
		addons := make([]string, 0, len(b.Addons))
		for _, addon := range b.Addons {
			addons = append(addons, addon.Name)
		}
		row := []interface{}{
			b.ID,
			b.Day,
			b.StartTime,
			end,
			b.ServiceName,
			strings.Join(addons, ", "),
			b.TotalDurationMinutes,
			float64(b.TotalPriceCents) / 100,
			b.ClientName,
			b.ClientPhone,
			b.ClientEmail,
			b.Language,
			b.Notes,
		}
		if err := writeRow(f, i+2, row); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheetName, "A", "M", 16); err != nil {
		return fmt.Errorf("set column width: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &values); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

func toCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}
