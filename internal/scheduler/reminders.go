package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/models"
	"github.com/codr1/salonbook/internal/notify"
)

const (
	reminderJobName            = "booking_reminders"
	DefaultReminderCron        = "*/15 * * * *"
	DefaultReminderHoursBefore = 24
	reminderJobWindow          = 15 * time.Minute
	reminderJobTimeout         = 2 * time.Minute
)

// UpcomingSource lists bookings starting in [from, to). *booking.Manager
// satisfies it.
type UpcomingSource interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]models.BookingDetails, error)
}

type ReminderConfig struct {
	Cron        string
	HoursBefore int
	// Now is the job clock; nil means time.Now.
	Now func() time.Time
}

// Reminders publishes one reminder intent per booking entering the
// reminder window.
type Reminders struct {
	source    UpcomingSource
	publisher notify.Publisher
	lead      time.Duration
	now       func() time.Time
}

func NewReminders(source UpcomingSource, publisher notify.Publisher, cfg ReminderConfig) *Reminders {
	hours := cfg.HoursBefore
	if hours <= 0 {
		hours = DefaultReminderHoursBefore
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Reminders{
		source:    source,
		publisher: publisher,
		lead:      time.Duration(hours) * time.Hour,
		now:       now,
	}
}

// Run publishes reminders for bookings starting within
// [tick+lead, tick+lead+15m) and returns how many were queued. tick is now
// truncated to the 15-minute step, so late runs keep the windows contiguous.
func (r *Reminders) Run(ctx context.Context) (int, error) {
	now := r.now().UTC()
	windowStart := reminderTick(now).Add(r.lead)
	windowEnd := windowStart.Add(reminderJobWindow)

	upcoming, err := r.source.Upcoming(ctx, windowStart, windowEnd)
	if err != nil {
		return 0, fmt.Errorf("load upcoming bookings: %w", err)
	}

	logger := log.Ctx(ctx)
	queued := 0
	for _, b := range upcoming {
		if b.ClientEmail == "" {
			continue
		}
		err := r.publisher.Publish(ctx, notify.Intent{
			Kind:       notify.KindReminder,
			Booking:    b,
			OccurredAt: now,
		})
		if err != nil {
			logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to queue booking reminder")
			continue
		}
		queued++
	}
	return queued, nil
}

func reminderTick(now time.Time) time.Time {
	return now.Truncate(reminderJobWindow)
}

// RegisterReminderJob schedules r on svc with cronExpr.
func RegisterReminderJob(svc *Service, r *Reminders, cronExpr string) error {
	if r == nil {
		return fmt.Errorf("reminder job requires a reminder runner")
	}
	if cronExpr == "" {
		cronExpr = DefaultReminderCron
	}

	jobLogger := log.With().
		Str("component", "booking_reminders_job").
		Str("job_name", reminderJobName).
		Str("cron", cronExpr).
		Logger()

	_, err := svc.AddJob(reminderJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reminderJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		queued, err := r.Run(ctx)
		if err != nil {
			jobLogger.Error().Err(err).Msg("Reminder job failed")
			return
		}
		if queued > 0 {
			jobLogger.Info().Int("queued", queued).Msg("Booking reminders queued")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	if err != nil {
		return fmt.Errorf("add booking reminder job: %w", err)
	}

	jobLogger.Info().Msg("Booking reminder job registered")
	return nil
}
