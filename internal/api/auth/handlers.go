package auth

import (
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api/apiutil"
	"github.com/codr1/salonbook/internal/api/authz"
	dbq "github.com/codr1/salonbook/internal/db/queries"
	"github.com/codr1/salonbook/internal/ratelimit"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type Handler struct {
	queries    *dbq.Queries
	tokens     *TokenIssuer
	limiter    *ratelimit.Limiter
	trustProxy bool
}

// NewHandler wires the login endpoint. limiter may be nil.
func NewHandler(q *dbq.Queries, tokens *TokenIssuer, limiter *ratelimit.Limiter, trustProxy bool) *Handler {
	return &Handler{queries: q, tokens: tokens, limiter: limiter, trustProxy: trustProxy}
}

// POST /api/auth/login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	var req loginRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if h.limiter != nil {
		ip := ratelimit.GetClientIP(r, h.trustProxy)
		result := h.limiter.Allow(ratelimit.ActionLogin, ip)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(ratelimit.ActionLogin, email, ip, result.Reason)
			if result.RetryAfter > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
			}
			apiutil.WriteError(w, http.StatusTooManyRequests, "Too many login attempts")
			return
		}
	}

	admin, err := h.queries.GetAdminUserByEmail(r.Context(), email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Error().Err(err).Msg("Failed to load admin user")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if err != nil || !VerifyPassword(admin.PasswordHash, req.Password) {
		logger.Warn().Str("email", ratelimit.SanitizeIdentifier(email)).Msg("Admin login failed")
		apiutil.WriteError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token, expiresAt, err := h.tokens.Issue(admin.Email)
	if err != nil {
		logger.Error().Err(err).Int64("admin_id", admin.ID).Msg("Failed to issue admin token")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	logger.Info().Int64("admin_id", admin.ID).Msg("Admin logged in")
	if err := apiutil.WriteJSON(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: expiresAt.UTC()}); err != nil {
		logger.Error().Err(err).Msg("Failed to write login response")
	}
}

// GET /api/auth/me
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	admin := authz.AdminFromContext(r.Context())
	if admin == nil {
		apiutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{
		"id":    admin.ID,
		"email": admin.Email,
	}); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write admin response")
	}
}
