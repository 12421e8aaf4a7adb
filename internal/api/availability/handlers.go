// internal/api/availability/handlers.go
package availability

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api/apiutil"
	dbq "github.com/codr1/salonbook/internal/db/queries"
	"github.com/codr1/salonbook/internal/slots"
)

const availabilityQueryTimeout = 5 * time.Second

type windowRequest struct {
	Day         string  `json:"day"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	IsBlocked   bool    `json:"is_blocked"`
	BlockReason *string `json:"block_reason"`
}

type windowResponse struct {
	ID          int64   `json:"id"`
	Day         string  `json:"day"`
	StartTime   string  `json:"start_time"`
	EndTime     string  `json:"end_time"`
	IsBlocked   bool    `json:"is_blocked"`
	BlockReason *string `json:"block_reason,omitempty"`
}

type slotsResponse struct {
	Date            string   `json:"date"`
	ServiceID       int64    `json:"service_id"`
	AddonIDs        []int64  `json:"addon_ids"`
	DurationMinutes int      `json:"duration_minutes"`
	Slots           []string `json:"slots"`
}

type Handler struct {
	queries *dbq.Queries
	engine  *slots.Engine
}

func NewHandler(q *dbq.Queries, engine *slots.Engine) *Handler {
	return &Handler{queries: q, engine: engine}
}

// GET /api/availability/slots?date=&service_id=&addon_ids=
func (h *Handler) HandleSlots(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	query := r.URL.Query()

	day, err := apiutil.ParseDayField(query.Get("date"), "date")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}
	serviceID, err := apiutil.ParsePositiveInt64Field(query.Get("service_id"), "service_id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}
	addonIDs, err := apiutil.ParseIDList(query.Get("addon_ids"), "addon_ids")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	selection, err := apiutil.ResolveSelection(ctx, h.queries, serviceID, addonIDs)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load services")
		return
	}

	duration := selection.TotalMinutes()
	available, err := h.engine.AvailableSlots(ctx, day, duration)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to compute available slots")
		return
	}

	logger.Debug().Str("day", day).Int("duration", duration).Int("slots", len(available)).Msg("Computed available slots")
	if err := apiutil.WriteJSON(w, http.StatusOK, slotsResponse{
		Date:            day,
		ServiceID:       serviceID,
		AddonIDs:        selection.AddonIDs(),
		DurationMinutes: duration,
		Slots:           available,
	}); err != nil {
		logger.Error().Err(err).Msg("Failed to write slots response")
	}
}

// GET /api/admin/availability?from=&to=
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	from, to, err := apiutil.DayRangeFromQuery(r)
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	rows, err := h.queries.ListAvailabilityBetween(ctx, dbq.ListAvailabilityBetweenParams{FromDay: from, ToDay: to})
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load availability")
		return
	}
	windows := make([]windowResponse, 0, len(rows))
	for _, row := range rows {
		windows = append(windows, toWindowResponse(row))
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, windows); err != nil {
		logger.Error().Err(err).Msg("Failed to write availability response")
	}
}

// POST /api/admin/availability
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	req, err := decodeWindowRequest(r)
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	created, err := h.queries.CreateAvailability(ctx, dbq.CreateAvailabilityParams{
		Day:         req.Day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsBlocked:   req.IsBlocked,
		BlockReason: blockReason(req),
	})
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to create availability")
		return
	}

	logger.Info().Int64("availability_id", created.ID).Str("day", created.Day).Bool("is_blocked", created.IsBlocked).Msg("Availability created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, toWindowResponse(created)); err != nil {
		logger.Error().Err(err).Int64("availability_id", created.ID).Msg("Failed to write availability response")
	}
}

// PUT /api/admin/availability/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	windowID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}
	req, err := decodeWindowRequest(r)
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	updated, err := h.queries.UpdateAvailability(ctx, dbq.UpdateAvailabilityParams{
		ID:          windowID,
		Day:         req.Day,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		IsBlocked:   req.IsBlocked,
		BlockReason: blockReason(req),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Availability not found")
			return
		}
		apiutil.HandleError(w, r, err, "Failed to update availability")
		return
	}

	logger.Info().Int64("availability_id", windowID).Msg("Availability updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, toWindowResponse(updated)); err != nil {
		logger.Error().Err(err).Int64("availability_id", windowID).Msg("Failed to write availability response")
	}
}

// DELETE /api/admin/availability/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	windowID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), availabilityQueryTimeout)
	defer cancel()

	deleted, err := h.queries.DeleteAvailability(ctx, windowID)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to delete availability")
		return
	}
	if deleted == 0 {
		apiutil.WriteError(w, http.StatusNotFound, "Availability not found")
		return
	}

	logger.Info().Int64("availability_id", windowID).Msg("Availability deleted")
	w.WriteHeader(http.StatusNoContent)
}

func decodeWindowRequest(r *http.Request) (windowRequest, error) {
	var req windowRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		return windowRequest{}, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
	}

	day, err := apiutil.ParseDayField(req.Day, "day")
	if err != nil {
		return windowRequest{}, err
	}
	start, err := apiutil.ParseClockField(req.StartTime, "start_time")
	if err != nil {
		return windowRequest{}, err
	}
	end, err := apiutil.ParseClockField(req.EndTime, "end_time")
	if err != nil {
		return windowRequest{}, err
	}
	if end <= start {
		return windowRequest{}, apiutil.FieldError{Field: "end_time", Reason: "must be after start_time"}
	}

	req.Day = day
	req.StartTime = start.String()
	req.EndTime = end.String()
	return req, nil
}

func blockReason(req windowRequest) sql.NullString {
	if !req.IsBlocked {
		return sql.NullString{}
	}
	return apiutil.ToNullString(req.BlockReason)
}

func toWindowResponse(row dbq.Availability) windowResponse {
	resp := windowResponse{
		ID:        row.ID,
		Day:       row.Day,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		IsBlocked: row.IsBlocked,
	}
	if row.BlockReason.Valid {
		reason := strings.TrimSpace(row.BlockReason.String)
		resp.BlockReason = &reason
	}
	return resp
}
