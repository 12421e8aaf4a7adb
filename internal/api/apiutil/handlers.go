package apiutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api/authz"
	"github.com/codr1/salonbook/internal/booking"
)

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

type HandlerError struct {
	Status  int
	Message string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// WriteError writes {"error": message} with status.
func WriteError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, errorResponse{Error: message})
}

// HandleError maps err onto a JSON error response. Unexpected errors are
// logged with the request logger and reported as fallback.
func HandleError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	logger := log.Ctx(r.Context())

	var ferr FieldError
	var herr HandlerError
	switch {
	case errors.As(err, &ferr):
		_ = WriteJSON(w, http.StatusBadRequest, errorResponse{Error: ferr.Error(), Field: ferr.Field})
	case errors.As(err, &herr):
		if herr.Status >= http.StatusInternalServerError {
			logger.Error().Err(herr.Err).Msg(herr.Message)
		}
		WriteError(w, herr.Status, herr.Message)
	case errors.Is(err, booking.ErrNotFound):
		WriteError(w, http.StatusNotFound, "Booking not found")
	case errors.Is(err, booking.ErrPolicyViolation):
		WriteError(w, http.StatusForbidden, booking.ErrPolicyViolation.Error())
	case errors.Is(err, booking.ErrInvalidAddon):
		WriteError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error().Err(err).Msg(fallback)
		WriteError(w, http.StatusInternalServerError, fallback)
	}
}

// RequireAdmin writes 401/403 and returns false unless an admin is attached
// to the request.
func RequireAdmin(w http.ResponseWriter, r *http.Request) bool {
	logger := log.Ctx(r.Context())
	if err := authz.RequireAdmin(r.Context()); err != nil {
		switch {
		case errors.Is(err, authz.ErrUnauthenticated):
			logger.Warn().Str("path", r.URL.Path).Msg("Admin access denied: unauthenticated")
			WriteError(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, authz.ErrForbidden):
			logger.Warn().Str("path", r.URL.Path).Msg("Admin access denied: forbidden")
			WriteError(w, http.StatusForbidden, "Forbidden")
		default:
			logger.Error().Err(err).Msg("Admin access denied: error")
			WriteError(w, http.StatusInternalServerError, "Failed to authorize request")
		}
		return false
	}
	return true
}
