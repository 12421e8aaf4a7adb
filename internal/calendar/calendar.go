// Package calendar mirrors bookings into a Google Calendar.
package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/codr1/salonbook/internal/models"
)

const eventIDPrefix = "salonbooking"

// Syncer keeps one calendar event per booking.
type Syncer interface {
	Upsert(ctx context.Context, booking models.BookingDetails) error
	Remove(ctx context.Context, bookingID int64) error
}

type GoogleCalendar struct {
	service    *gcal.Service
	calendarID string
	loc        *time.Location
}

// NewGoogleCalendar authenticates with a service account key file.
func NewGoogleCalendar(ctx context.Context, credentialsFile, calendarID string, loc *time.Location) (*GoogleCalendar, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read calendar credentials: %w", err)
	}
	jwtConfig, err := google.JWTConfigFromJSON(data, gcal.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse calendar credentials: %w", err)
	}
	return NewGoogleCalendarWithClient(ctx, jwtConfig.Client(ctx), calendarID, loc, nil)
}

// NewGoogleCalendarWithClient uses httpClient as is. A non-empty endpoint
// overrides the API base URL.
func NewGoogleCalendarWithClient(ctx context.Context, httpClient *http.Client, calendarID string, loc *time.Location, endpoint *string) (*GoogleCalendar, error) {
	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if endpoint != nil && *endpoint != "" {
		opts = append(opts, option.WithEndpoint(*endpoint))
	}
	service, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	return &GoogleCalendar{service: service, calendarID: calendarID, loc: loc}, nil
}

func EventID(bookingID int64) string {
	return fmt.Sprintf("%s%d", eventIDPrefix, bookingID)
}

// Upsert updates the booking's event, inserting it when it does not exist.
func (g *GoogleCalendar) Upsert(ctx context.Context, booking models.BookingDetails) error {
	event, err := g.event(booking)
	if err != nil {
		return err
	}

	_, err = g.service.Events.Update(g.calendarID, event.Id, event).Context(ctx).Do()
	if err == nil {
		return nil
	}
	if !isStatus(err, http.StatusNotFound) {
		return fmt.Errorf("update calendar event %s: %w", event.Id, err)
	}

	if _, err := g.service.Events.Insert(g.calendarID, event).Context(ctx).Do(); err != nil {
		return fmt.Errorf("insert calendar event %s: %w", event.Id, err)
	}
	return nil
}

// Remove deletes the booking's event. A missing event is not an error.
func (g *GoogleCalendar) Remove(ctx context.Context, bookingID int64) error {
	eventID := EventID(bookingID)
	err := g.service.Events.Delete(g.calendarID, eventID).Context(ctx).Do()
	if err == nil || isStatus(err, http.StatusNotFound) || isStatus(err, http.StatusGone) {
		return nil
	}
	return fmt.Errorf("delete calendar event %s: %w", eventID, err)
}

func (g *GoogleCalendar) event(booking models.BookingDetails) (*gcal.Event, error) {
	start, err := booking.StartsAt(g.loc)
	if err != nil {
		return nil, fmt.Errorf("booking %d start: %w", booking.ID, err)
	}
	end, err := booking.EndsAt(g.loc)
	if err != nil {
		return nil, fmt.Errorf("booking %d end: %w", booking.ID, err)
	}

	lines := []string{
		"Client: " + booking.ClientName,
		"Phone: " + booking.ClientPhone,
		"Email: " + booking.ClientEmail,
	}
	if len(booking.Addons) > 0 {
		names := make([]string, 0, len(booking.Addons))
		for _, addon := range booking.Addons {
			names = append(names, addon.Name)
		}
		lines = append(lines, "Add-ons: "+strings.Join(names, ", "))
	}
	if booking.Notes != "" {
		lines = append(lines, "Notes: "+booking.Notes)
	}

	return &gcal.Event{
		Id:          EventID(booking.ID),
		Summary:     fmt.Sprintf("%s - %s", booking.ServiceName, booking.ClientName),
		Description: strings.Join(lines, "\n"),
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: g.loc.String(),
		},
	}, nil
}

func isStatus(err error, code int) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == code
}
