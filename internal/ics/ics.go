// Package ics renders a booking as an iCalendar event.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/codr1/salonbook/internal/models"
)

const (
	ContentType = "text/calendar; charset=utf-8"
	Filename    = "appointment.ics"
	productID   = "-//salonbook//booking//EN"
)

type Builder struct {
	// Domain is the right-hand side of every event UID.
	Domain    string
	SalonName string
	BaseURL   string
	Location  *time.Location
}

// UID identifies the booking's event across updates and cancellation.
func (b Builder) UID(bookingID int64) string {
	return fmt.Sprintf("%d@%s", bookingID, b.Domain)
}

// Event renders a single-event calendar with a one hour reminder.
// A cancelled booking yields METHOD:CANCEL and STATUS:CANCELLED.
func (b Builder) Event(booking models.BookingDetails, now time.Time, cancelled bool) ([]byte, error) {
	loc := b.Location
	if loc == nil {
		loc = time.UTC
	}
	start, err := booking.StartsAt(loc)
	if err != nil {
		return nil, fmt.Errorf("booking %d start: %w", booking.ID, err)
	}
	end, err := booking.EndsAt(loc)
	if err != nil {
		return nil, fmt.Errorf("booking %d end: %w", booking.ID, err)
	}

	cal := ical.NewCalendar()
	cal.SetProductId(productID)
	if cancelled {
		cal.SetMethod(ical.MethodCancel)
	} else {
		cal.SetMethod(ical.MethodRequest)
	}

	event := cal.AddEvent(b.UID(booking.ID))
	event.SetDtStampTime(now.UTC())
	event.SetStartAt(start.UTC())
	event.SetEndAt(end.UTC())
	event.SetSummary(b.summary(booking))
	event.SetDescription(description(booking))
	if b.SalonName != "" {
		event.SetLocation(b.SalonName)
	}
	if b.BaseURL != "" && booking.Token != "" {
		event.SetURL(strings.TrimRight(b.BaseURL, "/") + "/booking/" + booking.Token)
	}
	if cancelled {
		event.SetStatus(ical.ObjectStatusCancelled)
	} else {
		event.SetStatus(ical.ObjectStatusConfirmed)
		alarm := event.AddAlarm()
		alarm.SetAction(ical.ActionDisplay)
		alarm.SetTrigger("-PT1H")
		alarm.SetProperty(ical.ComponentPropertyDescription, b.summary(booking))
	}

	return []byte(cal.Serialize()), nil
}

func (b Builder) summary(booking models.BookingDetails) string {
	if b.SalonName == "" {
		return booking.ServiceName
	}
	return fmt.Sprintf("%s - %s", booking.ServiceName, b.SalonName)
}

func description(booking models.BookingDetails) string {
	parts := []string{booking.ServiceName}
	for _, addon := range booking.Addons {
		parts = append(parts, "+ "+addon.Name)
	}
	return strings.Join(parts, "\n")
}
