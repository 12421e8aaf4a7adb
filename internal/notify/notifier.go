package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/calendar"
	"github.com/codr1/salonbook/internal/email"
	"github.com/codr1/salonbook/internal/ics"
)

// Notifier is the Handler that emails the client and mirrors the booking
// into the calendar. Calendar is optional.
type Notifier struct {
	Sender    email.Sender
	Templates email.Templates
	ICS       ics.Builder
	Calendar  calendar.Syncer
	// Cutoff is quoted in the confirmation email.
	Cutoff time.Duration
}

func (n *Notifier) Handle(ctx context.Context, intent Intent) error {
	var errs []error
	if err := n.sendEmail(ctx, intent); err != nil {
		errs = append(errs, fmt.Errorf("email: %w", err))
	}
	if err := n.syncCalendar(ctx, intent); err != nil {
		errs = append(errs, fmt.Errorf("calendar: %w", err))
	}
	return errors.Join(errs...)
}

func (n *Notifier) sendEmail(ctx context.Context, intent Intent) error {
	if n.Sender == nil {
		return nil
	}
	b := intent.Booking
	if strings.TrimSpace(b.ClientEmail) == "" {
		log.Ctx(ctx).Debug().Msg("Skipping email: booking has no client email")
		return nil
	}

	var (
		msg          email.Message
		err          error
		attachICS    bool
		cancelledICS bool
	)
	switch intent.Kind {
	case KindCreated:
		msg, err = n.Templates.Confirmation(b, n.Cutoff)
		attachICS = true
	case KindUpdated:
		msg, err = n.Templates.Rescheduled(b, intent.Previous)
		attachICS = true
	case KindCancelled:
		msg, err = n.Templates.Cancellation(b)
		attachICS, cancelledICS = true, true
	case KindReminder:
		msg, err = n.Templates.Reminder(b)
	default:
		return fmt.Errorf("unknown intent kind %q", intent.Kind)
	}
	if err != nil {
		return err
	}

	if attachICS {
		data, err := n.ICS.Event(b, intent.OccurredAt, cancelledICS)
		if err != nil {
			return fmt.Errorf("build calendar attachment: %w", err)
		}
		msg.Attachments = append(msg.Attachments, email.Attachment{
			Filename:    ics.Filename,
			ContentType: ics.ContentType,
			Data:        data,
		})
	}

	return n.Sender.Send(ctx, msg)
}

func (n *Notifier) syncCalendar(ctx context.Context, intent Intent) error {
	if n.Calendar == nil {
		return nil
	}
	switch intent.Kind {
	case KindCreated, KindUpdated:
		return n.Calendar.Upsert(ctx, intent.Booking)
	case KindCancelled:
		return n.Calendar.Remove(ctx, intent.Booking.ID)
	}
	return nil
}
