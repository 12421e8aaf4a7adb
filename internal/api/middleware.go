// internal/api/middleware.go
package api

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api/apiutil"
	"github.com/codr1/salonbook/internal/api/auth"
	"github.com/codr1/salonbook/internal/api/authz"
	dbq "github.com/codr1/salonbook/internal/db/queries"
	"github.com/codr1/salonbook/internal/ratelimit"
)

type Middleware func(http.Handler) http.Handler

type requestIDKey struct{}

// RequestObserver records one finished request. *metrics.Metrics satisfies it.
type RequestObserver interface {
	ObserveRequest(route string, code string)
}

func ChainMiddleware(h http.Handler, middleware ...Middleware) http.Handler {
	for _, m := range middleware {
		h = m(h)
	}
	return h
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func WithLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create response wrapper to capture status code
		wrapped := wrapResponseWriter(w)

		next.ServeHTTP(wrapped, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Str("request_id", RequestIDFromContext(r.Context())).
			Msg("Request completed")
	})
}

// WithMetrics counts requests by matched route pattern. It must wrap the
// ServeMux directly so the pattern set during routing is visible.
func WithMetrics(observer RequestObserver) Middleware {
	return func(next http.Handler) http.Handler {
		if observer == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrapResponseWriter(w)
			next.ServeHTTP(wrapped, r)

			route := r.Pattern
			if route == "" {
				route = "unmatched"
			}
			observer.ObserveRequest(route, strconv.Itoa(wrapped.status))
		})
	}
}

func WithRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				logger := log.Ctx(r.Context())
				// Log the full stack trace
				stack := debug.Stack()
				logger.Error().
					Interface("error", err).
					Str("stack", string(stack)).
					Msg("Panic recovered")

				apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func WithRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()

		// Create a logger with the request ID
		logger := log.With().Str("request_id", requestID).Logger()

		// Add both the request ID and logger to context
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		ctx = logger.WithContext(ctx)

		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// WithAdminAuth resolves the bearer token to an admin user and rejects the
// request when that fails.
func WithAdminAuth(tokens *auth.TokenIssuer, queries *dbq.Queries) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := log.Ctx(r.Context())

			raw, ok := auth.BearerToken(r.Header.Get("Authorization"))
			if !ok {
				apiutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			email, err := tokens.Parse(raw)
			if err != nil {
				logger.Warn().Err(err).Msg("Admin access denied: invalid token")
				apiutil.WriteError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			admin, err := queries.GetAdminUserByEmail(r.Context(), email)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					logger.Warn().Msg("Admin access denied: admin no longer exists")
					apiutil.WriteError(w, http.StatusForbidden, "Forbidden")
					return
				}
				logger.Error().Err(err).Msg("Failed to load admin user")
				apiutil.WriteError(w, http.StatusInternalServerError, "Failed to authorize request")
				return
			}

			ctx := authz.ContextWithAdmin(r.Context(), &authz.AdminUser{ID: admin.ID, Email: admin.Email})
			ctx = log.Ctx(ctx).With().Int64("admin_id", admin.ID).Logger().WithContext(ctx)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WithRateLimit applies limiter to action keyed by client IP. A nil limiter
// disables limiting.
func WithRateLimit(limiter *ratelimit.Limiter, action string, trustProxy bool) Middleware {
	return func(next http.Handler) http.Handler {
		if limiter == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := ratelimit.GetClientIP(r, trustProxy)
			result := limiter.Allow(action, ip)
			if !result.Allowed {
				ratelimit.LogRateLimitExceeded(action, ip, ip, result.Reason)
				if result.RetryAfter > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(result.RetryAfter.Seconds())+1))
				}
				apiutil.WriteError(w, http.StatusTooManyRequests, "Too many requests, please try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// responseWriter wrapper to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func wrapResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, status: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
