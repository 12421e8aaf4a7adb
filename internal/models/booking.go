// internal/models/booking.go
package models

import (
	"time"

	dbq "github.com/codr1/salonbook/internal/db/queries"
)

const (
	LanguageEnglish = "en"
	LanguageSpanish = "es"
)

func IsSupportedLanguage(lang string) bool {
	return lang == LanguageEnglish || lang == LanguageSpanish
}

type Client struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// AvailabilityWindow is an open-hours or blocked window on one day.
type AvailabilityWindow struct {
	ID          int64
	Day         string
	Start       ClockTime
	End         ClockTime
	IsBlocked   bool
	BlockReason string
}

func AvailabilityWindowFromRow(row dbq.Availability) (AvailabilityWindow, error) {
	start, err := ParseClock(row.StartTime)
	if err != nil {
		return AvailabilityWindow{}, err
	}
	end, err := ParseClock(row.EndTime)
	if err != nil {
		return AvailabilityWindow{}, err
	}
	return AvailabilityWindow{
		ID:          row.ID,
		Day:         row.Day,
		Start:       start,
		End:         end,
		IsBlocked:   row.IsBlocked,
		BlockReason: row.BlockReason.String,
	}, nil
}

// BookingSpan is the part of a booking the slot engine cares about.
type BookingSpan struct {
	BookingID       int64
	Start           ClockTime
	DurationMinutes int
}

type Addon struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	DurationMinutes int64  `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
}

// BookingDetails is a booking enriched with its service and add-ons.
type BookingDetails struct {
	ID                     int64     `json:"id"`
	ServiceID              int64     `json:"service_id"`
	ServiceName            string    `json:"service_name"`
	ServiceDurationMinutes int64     `json:"service_duration"`
	ServicePriceCents      int64     `json:"price_cents"`
	AddonIDs               []int64   `json:"addon_ids"`
	Addons                 []Addon   `json:"addons"`
	TotalDurationMinutes   int64     `json:"total_duration"`
	TotalPriceCents        int64     `json:"total_price_cents"`
	Day                    string    `json:"day"`
	StartTime              string    `json:"start_time"`
	ClientName             string    `json:"client_name"`
	ClientPhone            string    `json:"client_phone"`
	ClientEmail            string    `json:"client_email"`
	Language               string    `json:"language"`
	Notes                  string    `json:"notes"`
	Token                  string    `json:"token,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
	UpdatedAt              time.Time `json:"updated_at"`
}

func BookingDetailsFromRow(row dbq.BookingDetailRow, addons []dbq.Service) BookingDetails {
	details := BookingDetails{
		ID:                     row.ID,
		ServiceID:              row.ServiceID,
		ServiceName:            row.ServiceName,
		ServiceDurationMinutes: row.ServiceDurationMinutes,
		ServicePriceCents:      row.ServicePriceCents,
		AddonIDs:               []int64{},
		Addons:                 []Addon{},
		Day:                    row.Day,
		StartTime:              row.StartTime,
		ClientName:             row.ClientName,
		ClientPhone:            row.ClientPhone,
		ClientEmail:            row.ClientEmail,
		Language:               row.Language,
		Notes:                  row.Notes,
		Token:                  row.Token,
		CreatedAt:              row.CreatedAt,
		UpdatedAt:              row.UpdatedAt,
	}
	for _, addon := range addons {
		details.AddonIDs = append(details.AddonIDs, addon.ID)
		details.Addons = append(details.Addons, Addon{
			ID:              addon.ID,
			Name:            addon.Name,
			DurationMinutes: addon.DurationMinutes,
			PriceCents:      addon.PriceCents,
		})
	}
	details.recomputeTotals()
	return details
}

func (b *BookingDetails) recomputeTotals() {
	b.TotalDurationMinutes = b.ServiceDurationMinutes
	b.TotalPriceCents = b.ServicePriceCents
	for _, addon := range b.Addons {
		b.TotalDurationMinutes += addon.DurationMinutes
		b.TotalPriceCents += addon.PriceCents
	}
}

// StartsAt is the appointment start in loc.
func (b BookingDetails) StartsAt(loc *time.Location) (time.Time, error) {
	return At(b.Day, b.StartTime, loc)
}

func (b BookingDetails) EndsAt(loc *time.Location) (time.Time, error) {
	start, err := b.StartsAt(loc)
	if err != nil {
		return time.Time{}, err
	}
	return start.Add(time.Duration(b.TotalDurationMinutes) * time.Minute), nil
}

// Public hides the management token.
func (b BookingDetails) Public() BookingDetails {
	b.Token = ""
	return b
}
