// Package booking owns the booking lifecycle: create, reschedule, cancel
// and lookup, with a self-service cancellation cutoff.
package booking

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/db"
	dbq "github.com/codr1/salonbook/internal/db/queries"
	"github.com/codr1/salonbook/internal/models"
	"github.com/codr1/salonbook/internal/notify"
)

const (
	DefaultCancellationCutoff = 20 * time.Hour
	tokenBytes                = 32
)

var (
	ErrNotFound        = errors.New("booking not found")
	ErrPolicyViolation = errors.New("must contact support for changes")
	ErrInvalidAddon    = errors.New("invalid add-on")
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// Recorder receives lifecycle counters. *metrics.Metrics satisfies it.
type Recorder interface {
	BookingCreated()
	BookingUpdated()
	BookingCancelled(outcome string)
}

type Config struct {
	CancellationCutoff time.Duration
	// Location interprets stored day and start time. nil means UTC.
	Location *time.Location
	Clock    Clock
	Metrics  Recorder
}

type Manager struct {
	db        *db.DB
	publisher notify.Publisher
	cutoff    time.Duration
	loc       *time.Location
	clock     Clock
	metrics   Recorder
}

func NewManager(database *db.DB, publisher notify.Publisher, cfg Config) *Manager {
	m := &Manager{
		db:        database,
		publisher: publisher,
		cutoff:    cfg.CancellationCutoff,
		loc:       cfg.Location,
		clock:     cfg.Clock,
		metrics:   cfg.Metrics,
	}
	if m.cutoff <= 0 {
		m.cutoff = DefaultCancellationCutoff
	}
	if m.loc == nil {
		m.loc = time.UTC
	}
	if m.clock == nil {
		m.clock = realClock{}
	}
	return m
}

func (m *Manager) Location() *time.Location {
	return m.loc
}

type CreateParams struct {
	ServiceID int64
	AddonIDs  []int64
	Day       string
	StartTime string
	Client    models.Client
	Language  string
	Notes     string
}

// Create inserts the booking and its add-ons in one transaction and emits
// booking.created once committed. Input is assumed validated.
func (m *Manager) Create(ctx context.Context, params CreateParams) (models.BookingDetails, error) {
	token, err := newBookingToken()
	if err != nil {
		return models.BookingDetails{}, fmt.Errorf("generate booking token: %w", err)
	}
	language := params.Language
	if language == "" {
		language = models.LanguageEnglish
	}

	var created models.BookingDetails
	err = m.db.RunInTx(ctx, func(tx *db.DB) error {
		id, err := tx.Queries.CreateBooking(ctx, dbq.CreateBookingParams{
			ServiceID:   params.ServiceID,
			Day:         params.Day,
			StartTime:   params.StartTime,
			ClientName:  params.Client.Name,
			ClientPhone: params.Client.Phone,
			ClientEmail: params.Client.Email,
			Language:    language,
			Notes:       params.Notes,
			Token:       token,
		})
		if err != nil {
			return fmt.Errorf("insert booking: %w", err)
		}
		if err := insertAddons(ctx, tx, id, params.AddonIDs); err != nil {
			return err
		}
		created, err = loadDetails(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.BookingDetails{}, err
	}

	if m.metrics != nil {
		m.metrics.BookingCreated()
	}
	m.emit(ctx, notify.Intent{Kind: notify.KindCreated, Booking: created})
	return created, nil
}

// Cancel deletes the booking behind token unless the cutoff has passed.
// A booking can be cancelled once; later calls return ErrNotFound.
func (m *Manager) Cancel(ctx context.Context, token string) (models.BookingDetails, error) {
	snapshot, err := m.GetByToken(ctx, token)
	if err != nil {
		m.recordCancel("not_found")
		return models.BookingDetails{}, err
	}

	allowed, err := m.CanCancel(snapshot)
	if err != nil {
		return models.BookingDetails{}, err
	}
	if !allowed {
		m.recordCancel("policy_violation")
		return models.BookingDetails{}, ErrPolicyViolation
	}

	if err := m.deleteRow(ctx, snapshot.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			m.recordCancel("not_found")
		}
		return models.BookingDetails{}, err
	}

	m.recordCancel("cancelled")
	m.emit(ctx, notify.Intent{Kind: notify.KindCancelled, Booking: snapshot})
	return snapshot, nil
}

// CanCancel reports whether self-service cancellation is still open:
// now must not be later than the appointment minus the cutoff.
func (m *Manager) CanCancel(b models.BookingDetails) (bool, error) {
	deadline, err := m.CancellationDeadline(b)
	if err != nil {
		return false, err
	}
	return !m.clock.Now().After(deadline), nil
}

// CancellationDeadline is the last instant a client may cancel b themselves.
func (m *Manager) CancellationDeadline(b models.BookingDetails) (time.Time, error) {
	startsAt, err := b.StartsAt(m.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("booking %d start: %w", b.ID, err)
	}
	return startsAt.Add(-m.cutoff), nil
}

// Delete removes a booking regardless of the cutoff. Admin only.
func (m *Manager) Delete(ctx context.Context, id int64) (models.BookingDetails, error) {
	snapshot, err := m.Get(ctx, id)
	if err != nil {
		return models.BookingDetails{}, err
	}
	if err := m.deleteRow(ctx, id); err != nil {
		return models.BookingDetails{}, err
	}
	m.recordCancel("deleted")
	m.emit(ctx, notify.Intent{Kind: notify.KindCancelled, Booking: snapshot})
	return snapshot, nil
}

func (m *Manager) deleteRow(ctx context.Context, id int64) error {
	affected, err := m.db.Queries.DeleteBooking(ctx, id)
	if err != nil {
		return fmt.Errorf("delete booking %d: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateParams holds the fields to change; nil leaves a field as is.
// A non-nil AddonIDs replaces the whole add-on set, so an empty slice
// clears it.
type UpdateParams struct {
	ServiceID   *int64
	AddonIDs    *[]int64
	Day         *string
	StartTime   *string
	ClientName  *string
	ClientPhone *string
	ClientEmail *string
	Language    *string
	Notes       *string
}

func (m *Manager) Update(ctx context.Context, id int64, params UpdateParams) (models.BookingDetails, error) {
	var before, after models.BookingDetails
	err := m.db.RunInTx(ctx, func(tx *db.DB) error {
		var err error
		before, err = loadDetails(ctx, tx, id)
		if err != nil {
			return err
		}

		update := dbq.UpdateBookingParams{
			ID:          id,
			ServiceID:   pick(params.ServiceID, before.ServiceID),
			Day:         pick(params.Day, before.Day),
			StartTime:   pick(params.StartTime, before.StartTime),
			ClientName:  pick(params.ClientName, before.ClientName),
			ClientPhone: pick(params.ClientPhone, before.ClientPhone),
			ClientEmail: pick(params.ClientEmail, before.ClientEmail),
			Language:    pick(params.Language, before.Language),
			Notes:       pick(params.Notes, before.Notes),
		}
		if _, err := tx.Queries.UpdateBooking(ctx, update); err != nil {
			return fmt.Errorf("update booking %d: %w", id, err)
		}

		if params.AddonIDs != nil {
			if !tx.Capabilities.BookingAddons {
				if len(*params.AddonIDs) > 0 {
					return ErrInvalidAddon
				}
			} else {
				if _, err := tx.Queries.DeleteBookingAddons(ctx, id); err != nil {
					return fmt.Errorf("clear add-ons for booking %d: %w", id, err)
				}
				if err := insertAddons(ctx, tx, id, *params.AddonIDs); err != nil {
					return err
				}
			}
		}

		after, err = loadDetails(ctx, tx, id)
		return err
	})
	if err != nil {
		return models.BookingDetails{}, err
	}

	if m.metrics != nil {
		m.metrics.BookingUpdated()
	}
	m.emit(ctx, notify.Intent{Kind: notify.KindUpdated, Booking: after, Previous: &before})
	return after, nil
}

func (m *Manager) GetByToken(ctx context.Context, token string) (models.BookingDetails, error) {
	if token == "" {
		return models.BookingDetails{}, ErrNotFound
	}
	row, err := m.db.Queries.GetBookingDetailByToken(ctx, token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BookingDetails{}, ErrNotFound
		}
		return models.BookingDetails{}, fmt.Errorf("get booking by token: %w", err)
	}
	return m.db.BookingDetails(ctx, row)
}

func (m *Manager) Get(ctx context.Context, id int64) (models.BookingDetails, error) {
	return loadDetails(ctx, m.db, id)
}

// List returns bookings with fromDay <= day <= toDay, ordered by start.
func (m *Manager) List(ctx context.Context, fromDay, toDay string) ([]models.BookingDetails, error) {
	rows, err := m.db.Queries.ListBookingDetailsBetween(ctx, dbq.ListBookingDetailsBetweenParams{
		FromDay: fromDay,
		ToDay:   toDay,
	})
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	bookings := make([]models.BookingDetails, 0, len(rows))
	for _, row := range rows {
		details, err := m.db.BookingDetails(ctx, row)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, details)
	}
	return bookings, nil
}

// Upcoming returns bookings whose appointment starts in [from, to).
func (m *Manager) Upcoming(ctx context.Context, from, to time.Time) ([]models.BookingDetails, error) {
	candidates, err := m.List(ctx, models.FormatDay(from.In(m.loc)), models.FormatDay(to.In(m.loc)))
	if err != nil {
		return nil, err
	}
	upcoming := []models.BookingDetails{}
	for _, b := range candidates {
		startsAt, err := b.StartsAt(m.loc)
		if err != nil {
			log.Ctx(ctx).Warn().Err(err).Int64("booking_id", b.ID).Msg("Skipping booking with unparsable start")
			continue
		}
		if !startsAt.Before(from) && startsAt.Before(to) {
			upcoming = append(upcoming, b)
		}
	}
	return upcoming, nil
}

func (m *Manager) emit(ctx context.Context, intent notify.Intent) {
	if m.publisher == nil {
		return
	}
	intent.OccurredAt = m.clock.Now().UTC()
	if err := m.publisher.Publish(context.WithoutCancel(ctx), intent); err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("kind", string(intent.Kind)).
			Int64("booking_id", intent.Booking.ID).
			Msg("Failed to publish notification intent")
	}
}

func (m *Manager) recordCancel(outcome string) {
	if m.metrics != nil {
		m.metrics.BookingCancelled(outcome)
	}
}

func loadDetails(ctx context.Context, database *db.DB, id int64) (models.BookingDetails, error) {
	row, err := database.Queries.GetBookingDetail(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.BookingDetails{}, ErrNotFound
		}
		return models.BookingDetails{}, fmt.Errorf("get booking %d: %w", id, err)
	}
	return database.BookingDetails(ctx, row)
}

func insertAddons(ctx context.Context, tx *db.DB, bookingID int64, addonIDs []int64) error {
	if len(addonIDs) == 0 {
		return nil
	}
	if !tx.Capabilities.BookingAddons {
		return ErrInvalidAddon
	}
	seen := make(map[int64]struct{}, len(addonIDs))
	for _, addonID := range addonIDs {
		if _, dup := seen[addonID]; dup {
			continue
		}
		seen[addonID] = struct{}{}

		addon, err := tx.Queries.GetService(ctx, addonID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d does not exist", ErrInvalidAddon, addonID)
			}
			return fmt.Errorf("get add-on %d: %w", addonID, err)
		}
		if !addon.IsAddon {
			return fmt.Errorf("%w: %d is not an add-on", ErrInvalidAddon, addonID)
		}
		err = tx.Queries.AddBookingAddon(ctx, dbq.AddBookingAddonParams{BookingID: bookingID, AddonID: addonID})
		if err != nil {
			if db.IsForeignKeyViolation(err) {
				return fmt.Errorf("%w: %d", ErrInvalidAddon, addonID)
			}
			return fmt.Errorf("insert add-on %d: %w", addonID, err)
		}
	}
	return nil
}

func pick[T any](override *T, current T) T {
	if override != nil {
		return *override
	}
	return current
}

func newBookingToken() (string, error) {
	token := make([]byte, tokenBytes)
	if _, err := rand.Read(token); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(token), nil
}
