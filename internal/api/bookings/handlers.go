// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api/apiutil"
	"github.com/codr1/salonbook/internal/booking"
	dbq "github.com/codr1/salonbook/internal/db/queries"
	"github.com/codr1/salonbook/internal/ics"
	"github.com/codr1/salonbook/internal/models"
	"github.com/codr1/salonbook/internal/slots"
)

const bookingsQueryTimeout = 10 * time.Second

type Config struct {
	Queries *dbq.Queries
	Manager *booking.Manager
	Engine  *slots.Engine
	ICS     ics.Builder
	// PhoneRegion reads numbers without a country code. Defaults to US.
	PhoneRegion string
	Now         func() time.Time
}

type Handler struct {
	queries *dbq.Queries
	manager *booking.Manager
	engine  *slots.Engine
	ics     ics.Builder
	region  string
	now     func() time.Time
}

func NewHandler(cfg Config) *Handler {
	h := &Handler{
		queries: cfg.Queries,
		manager: cfg.Manager,
		engine:  cfg.Engine,
		ics:     cfg.ICS,
		region:  cfg.PhoneRegion,
		now:     cfg.Now,
	}
	if h.region == "" {
		h.region = DefaultPhoneRegion
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// bookingView is what the manage-booking page sees.
type bookingView struct {
	models.BookingDetails
	CanCancel      bool      `json:"can_cancel"`
	CancelDeadline time.Time `json:"cancel_deadline"`
}

// POST /api/bookings
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req createRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if err := normalizeCreate(&req, h.region); err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	selection, err := apiutil.ResolveSelection(ctx, h.queries, req.ServiceID, req.AddonIDs)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load services")
		return
	}

	startsAt, err := models.At(req.Day, req.StartTime, h.manager.Location())
	if err != nil {
		apiutil.HandleError(w, r, apiutil.FieldError{Field: "start_time", Reason: "is invalid"}, "")
		return
	}
	if !startsAt.After(h.now()) {
		apiutil.HandleError(w, r, apiutil.FieldError{Field: "start_time", Reason: "must be in the future"}, "")
		return
	}

	available, err := h.engine.IsAvailable(ctx, req.Day, req.StartTime, selection.TotalMinutes())
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to check availability")
		return
	}
	if !available {
		logger.Info().Str("day", req.Day).Str("start_time", req.StartTime).Msg("Requested slot is not available")
		apiutil.WriteError(w, http.StatusConflict, "The selected time is no longer available")
		return
	}

	created, err := h.manager.Create(ctx, booking.CreateParams{
		ServiceID: req.ServiceID,
		AddonIDs:  selection.AddonIDs(),
		Day:       req.Day,
		StartTime: req.StartTime,
		Client: models.Client{
			Name:  req.ClientName,
			Phone: req.ClientPhone,
			Email: req.ClientEmail,
		},
		Language: req.Language,
		Notes:    req.Notes,
	})
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to create booking")
		return
	}

	logger.Info().
		Int64("booking_id", created.ID).
		Int64("service_id", created.ServiceID).
		Str("day", created.Day).
		Str("start_time", created.StartTime).
		Msg("Booking created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("booking_id", created.ID).Msg("Failed to write booking response")
	}
}

// GET /api/bookings/{token}
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	b, err := h.manager.GetByToken(ctx, tokenFromPath(r))
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load booking")
		return
	}
	view, err := h.view(b)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load booking")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, view); err != nil {
		logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to write booking response")
	}
}

// DELETE /api/bookings/{token}
func (h *Handler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	cancelled, err := h.manager.Cancel(ctx, tokenFromPath(r))
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to cancel booking")
		return
	}

	logger.Info().Int64("booking_id", cancelled.ID).Msg("Booking cancelled by client")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"cancelled": true,
		"booking":   cancelled.Public(),
	}); err != nil {
		logger.Error().Err(err).Int64("booking_id", cancelled.ID).Msg("Failed to write cancellation response")
	}
}

// GET /api/bookings/{token}/calendar.ics
func (h *Handler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	b, err := h.manager.GetByToken(ctx, tokenFromPath(r))
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load booking")
		return
	}
	body, err := h.ics.Event(b, h.now(), false)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to build calendar file")
		return
	}

	w.Header().Set("Content-Type", ics.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+ics.Filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		logger.Error().Err(err).Int64("booking_id", b.ID).Msg("Failed to write calendar file")
	}
}

func (h *Handler) view(b models.BookingDetails) (bookingView, error) {
	allowed, err := h.manager.CanCancel(b)
	if err != nil {
		return bookingView{}, err
	}
	deadline, err := h.manager.CancellationDeadline(b)
	if err != nil {
		return bookingView{}, err
	}
	return bookingView{BookingDetails: b.Public(), CanCancel: allowed, CancelDeadline: deadline.UTC()}, nil
}

func tokenFromPath(r *http.Request) string {
	return strings.TrimSpace(r.PathValue("token"))
}
