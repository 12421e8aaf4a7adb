package db

import (
	"context"
	"fmt"

	dbq "github.com/codr1/salonbook/internal/db/queries"
	"github.com/codr1/salonbook/internal/models"
)

// AvailabilityForDay returns every window stored for day, open and blocked.
func (db *DB) AvailabilityForDay(ctx context.Context, day string) ([]models.AvailabilityWindow, error) {
	rows, err := db.Queries.ListAvailabilityByDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("list availability for %s: %w", day, err)
	}
	windows := make([]models.AvailabilityWindow, 0, len(rows))
	for _, row := range rows {
		window, err := models.AvailabilityWindowFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("availability %d: %w", row.ID, err)
		}
		windows = append(windows, window)
	}
	return windows, nil
}

// BookingSpansForDay returns each booking on day with its total duration.
// Add-on durations are included only when the schema has booking_addons.
func (db *DB) BookingSpansForDay(ctx context.Context, day string) ([]models.BookingSpan, error) {
	var (
		rows []dbq.BookingSpanRow
		err  error
	)
	if db.Capabilities.BookingAddons {
		rows, err = db.Queries.ListBookingSpansByDay(ctx, day)
	} else {
		rows, err = db.Queries.ListServiceSpansByDay(ctx, day)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings for %s: %w", day, err)
	}
	spans := make([]models.BookingSpan, 0, len(rows))
	for _, row := range rows {
		start, err := models.ParseClock(row.StartTime)
		if err != nil {
			return nil, fmt.Errorf("booking %d: %w", row.ID, err)
		}
		spans = append(spans, models.BookingSpan{
			BookingID:       row.ID,
			Start:           start,
			DurationMinutes: int(row.DurationMinutes),
		})
	}
	return spans, nil
}

// BookingDetails enriches a joined booking row with its add-ons.
func (db *DB) BookingDetails(ctx context.Context, row dbq.BookingDetailRow) (models.BookingDetails, error) {
	addons := []dbq.Service{}
	if db.Capabilities.BookingAddons {
		var err error
		addons, err = db.Queries.ListBookingAddons(ctx, row.ID)
		if err != nil {
			return models.BookingDetails{}, fmt.Errorf("list addons for booking %d: %w", row.ID, err)
		}
	}
	return models.BookingDetailsFromRow(row, addons), nil
}
