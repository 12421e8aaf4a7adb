// internal/api/services/handlers.go
package services

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api/apiutil"
	"github.com/codr1/salonbook/internal/db"
	dbq "github.com/codr1/salonbook/internal/db/queries"
)

const (
	servicesQueryTimeout = 5 * time.Second
	minDurationMinutes   = 15
)

type serviceRequest struct {
	Name            string `json:"name"`
	Description     string `json:"description"`
	DurationMinutes int64  `json:"duration_minutes"`
	PriceCents      int64  `json:"price_cents"`
	IsAddon         bool   `json:"is_addon"`
	IsActive        *bool  `json:"is_active"`
}

type Handler struct {
	queries *dbq.Queries
}

func NewHandler(q *dbq.Queries) *Handler {
	return &Handler{queries: q}
}

// GET /api/services
func (h *Handler) HandleListActive(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	addons := false
	if raw := strings.TrimSpace(r.URL.Query().Get("addons")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			apiutil.HandleError(w, r, apiutil.FieldError{Field: "addons", Reason: "must be true or false"}, "")
			return
		}
		addons = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), servicesQueryTimeout)
	defer cancel()

	items, err := h.queries.ListActiveServices(ctx, addons)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load services")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, items); err != nil {
		logger.Error().Err(err).Msg("Failed to write services response")
	}
}

// GET /api/admin/services
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), servicesQueryTimeout)
	defer cancel()

	items, err := h.queries.ListServices(ctx)
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to load services")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, items); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write services response")
	}
}

// POST /api/admin/services
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	req, err := decodeServiceRequest(r)
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), servicesQueryTimeout)
	defer cancel()

	created, err := h.queries.CreateService(ctx, dbq.CreateServiceParams{
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		IsAddon:         req.IsAddon,
		IsActive:        isActive(req),
	})
	if err != nil {
		apiutil.HandleError(w, r, err, "Failed to create service")
		return
	}

	logger.Info().Int64("service_id", created.ID).Bool("is_addon", created.IsAddon).Msg("Service created")
	if err := apiutil.WriteJSON(w, http.StatusCreated, created); err != nil {
		logger.Error().Err(err).Int64("service_id", created.ID).Msg("Failed to write service response")
	}
}

// PUT /api/admin/services/{id}
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	serviceID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}
	req, err := decodeServiceRequest(r)
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), servicesQueryTimeout)
	defer cancel()

	updated, err := h.queries.UpdateService(ctx, dbq.UpdateServiceParams{
		ID:              serviceID,
		Name:            req.Name,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		PriceCents:      req.PriceCents,
		IsAddon:         req.IsAddon,
		IsActive:        isActive(req),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Service not found")
			return
		}
		apiutil.HandleError(w, r, err, "Failed to update service")
		return
	}

	logger.Info().Int64("service_id", serviceID).Msg("Service updated")
	if err := apiutil.WriteJSON(w, http.StatusOK, updated); err != nil {
		logger.Error().Err(err).Int64("service_id", serviceID).Msg("Failed to write service response")
	}
}

// DELETE /api/admin/services/{id}
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())
	if !apiutil.RequireAdmin(w, r) {
		return
	}

	serviceID, err := apiutil.IDFromPath(r, "id")
	if err != nil {
		apiutil.HandleError(w, r, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), servicesQueryTimeout)
	defer cancel()

	deleted, err := h.queries.DeleteService(ctx, serviceID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			apiutil.WriteError(w, http.StatusConflict, "Service is referenced by bookings; deactivate it instead")
			return
		}
		apiutil.HandleError(w, r, err, "Failed to delete service")
		return
	}
	if deleted == 0 {
		apiutil.WriteError(w, http.StatusNotFound, "Service not found")
		return
	}

	logger.Info().Int64("service_id", serviceID).Msg("Service deleted")
	w.WriteHeader(http.StatusNoContent)
}

func decodeServiceRequest(r *http.Request) (serviceRequest, error) {
	var req serviceRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		return serviceRequest{}, apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)
	if req.Name == "" {
		return serviceRequest{}, apiutil.FieldError{Field: "name", Reason: "is required"}
	}
	if req.DurationMinutes < minDurationMinutes {
		return serviceRequest{}, apiutil.FieldError{Field: "duration_minutes", Reason: "must be at least 15"}
	}
	if req.PriceCents < 0 {
		return serviceRequest{}, apiutil.FieldError{Field: "price_cents", Reason: "must be 0 or greater"}
	}
	return req, nil
}

func isActive(req serviceRequest) bool {
	return req.IsActive == nil || *req.IsActive
}
