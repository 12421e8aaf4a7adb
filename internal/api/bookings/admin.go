package bookings

import (
	"bytes"
	"context"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api/apiutil"
	"github.com/codr1/salonbook/internal/booking"
	"github.com/codr1/salonbook/internal/export"
)

// GET /api/admin/bookings?from=&to=
func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	from, to, err := apiutil.DayRangeFromQuery(r)
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	list, err := h.manager.List(ctx, from, to)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load bookings")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, list); err != nil {
		logger.Error().Err(err).Msg("Failed to write bookings response")
	}
}

// GET /api/admin/bookings/{id}
func (h *Handler) HandleAdminGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	bookingID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	b, err := h.manager.Get(ctx, bookingID)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load booking")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, b); err != nil {
		logger.Error().Err(err).Int64("booking_id", bookingID).Msg("Failed to write booking response")
	}
}

// PATCH /api/admin/bookings/{id}
//
// Admin edits are not checked against the slot engine so the owner can
// overbook on purpose.
func (h *Handler) HandleAdminUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	bookingID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	var req patchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if req.empty() {
		apiutil.WriteError(w, http.StatusBadRequest, "No fields to update")
		return
	}
	if err := normalizePatch(&req, h.region); err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	if req.ServiceID != nil {
		if _, err := apiutil.ResolveSelection(ctx, h.queries, *req.ServiceID, nil); err != nil {
			apiutil.HandleError(w, r, err, "Failed to load services")
			return
		}
	}
	if req.AddonIDs != nil {
		serviceID := int64(0)
		if req.ServiceID != nil {
			serviceID = *req.ServiceID
		} else {
			current, err := h.manager.Get(ctx, bookingID)
			if err != nil {
				apiutil.HandleError(w, r, err, "Failed to load booking")
				return
			}
			serviceID = current.ServiceID
		}
		selection, err := apiutil.ResolveSelection(ctx, h.queries, serviceID, *req.AddonIDs)
		if err != nil {
			apiutil.HandleError(w, r, err, "Failed to load services")
			return
		}
		ids := selection.AddonIDs()
		req.AddonIDs = &ids
	}

	updated, err := h.manager.Update(ctx, bookingID, booking.UpdateParams{
		ServiceID:   req.ServiceID,
		AddonIDs:    req.AddonIDs,
		Day:         req.Day,
		StartTime:   req.StartTime,
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		ClientEmail: req.ClientEmail,
		Language:    req.Language,
		Notes:       req.Notes,
	})
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to update booking")
		return
	}

	logger.Info().Int64("booking_id", bookingID).Msg("Booking updated by admin")
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		logger.Error().Err(err).Int64("booking_id", bookingID).Msg("Failed to write booking response")
	}
}

// DELETE /api/admin/bookings/{id}
func (h *Handler) HandleAdminDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	bookingID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	if _, err := h.manager.Delete(ctx, bookingID); err != nil {
		apiutil.HandleError(w, r, err, "Failed to delete booking")
		return
	}

	logger.Info().Int64("booking_id", bookingID).Msg("Booking deleted by admin")
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/admin/bookings/export?from=&to=
func (h *Handler) HandleAdminExport(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	from, to, err := apiutil.DayRangeFromQuery(r)
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingsQueryTimeout)
	defer cancel()

	list, err := h.manager.List(ctx, from, to)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load bookings")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteBookings(&buf, list, h.manager.Location()); err != nil {
		apiutil.HandleError(w, r, err, "Failed to build export")
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename(from, to)+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.Error().Err(err).Msg("Failed to write bookings export")
	}
}
