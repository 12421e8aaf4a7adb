package models

import (
	"strings"
	"testing"
	"time"

	dbq "github.com/codr1/salonbook/internal/db/queries"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    ClockTime
		wantErr bool
	}{
		{name: "morning", value: "09:00", want: 540},
		{name: "quarter", value: "10:45", want: 645},
		{name: "trimmed", value: " 11:15 ", want: 675},
		{name: "minutes_out_of_range", value: "10:60", wantErr: true},
		{name: "out_of_range", value: "24:00", wantErr: true},
		{name: "garbage", value: "noon", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseClock(test.value)
			if test.wantErr {
				if err == nil {
					t.Fatalf("ParseClock(%q) expected error", test.value)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseClock(%q) error: %v", test.value, err)
			}
			if got != test.want {
				t.Fatalf("ParseClock(%q) = %d, want %d", test.value, got, test.want)
			}
			if got.String() != strings.TrimSpace(test.value) {
				t.Fatalf("String() = %q, want %q", got.String(), strings.TrimSpace(test.value))
			}
		})
	}
}

func TestParseDayRejectsInvalidDates(t *testing.T) {
	for _, value := range []string{"2025-02-30", "2025/08/10", "10-08-2025", ""} {
		if _, err := ParseDay(value); err == nil {
			t.Fatalf("ParseDay(%q) expected error", value)
		}
	}
	day, err := ParseDay("2025-08-10")
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if FormatDay(day) != "2025-08-10" {
		t.Fatalf("FormatDay = %s", FormatDay(day))
	}
}

func TestAtUsesLocation(t *testing.T) {
	loc := time.FixedZone("salon", -5*60*60)
	got, err := At("2025-08-10", "09:30", loc)
	if err != nil {
		t.Fatalf("At: %v", err)
	}
	want := time.Date(2025, 8, 10, 14, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("At = %s, want %s", got.UTC(), want)
	}
}

func TestBookingDetailsTotals(t *testing.T) {
	row := dbq.BookingDetailRow{
		Booking: dbq.Booking{
			ID:        7,
			ServiceID: 1,
			Day:       "2025-08-10",
			StartTime: "10:00",
			Token:     "secret",
		},
		ServiceName:            "Cut",
		ServiceDurationMinutes: 30,
		ServicePriceCents:      4000,
	}
	addons := []dbq.Service{
		{ID: 3, Name: "Wash", DurationMinutes: 15, PriceCents: 1000, IsAddon: true},
		{ID: 4, Name: "Blow-dry", DurationMinutes: 20, PriceCents: 1500, IsAddon: true},
	}

	details := BookingDetailsFromRow(row, addons)
	if details.TotalDurationMinutes != 65 {
		t.Fatalf("total duration = %d, want 65", details.TotalDurationMinutes)
	}
	if details.TotalPriceCents != 6500 {
		t.Fatalf("total price = %d, want 6500", details.TotalPriceCents)
	}
	if len(details.AddonIDs) != 2 || details.AddonIDs[0] != 3 || details.AddonIDs[1] != 4 {
		t.Fatalf("unexpected addon ids: %v", details.AddonIDs)
	}

	end, err := details.EndsAt(time.UTC)
	if err != nil {
		t.Fatalf("EndsAt: %v", err)
	}
	if end.Format(ClockLayout) != "11:05" {
		t.Fatalf("EndsAt = %s, want 11:05", end.Format(ClockLayout))
	}
	if details.Public().Token != "" {
		t.Fatalf("Public() should hide the token")
	}
}
