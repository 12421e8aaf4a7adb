// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/handlers"
	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/api"
	"github.com/codr1/salonbook/internal/api/auth"
	"github.com/codr1/salonbook/internal/api/availability"
	"github.com/codr1/salonbook/internal/api/bookings"
	"github.com/codr1/salonbook/internal/api/services"
	"github.com/codr1/salonbook/internal/booking"
	"github.com/codr1/salonbook/internal/config"
	"github.com/codr1/salonbook/internal/db"
	"github.com/codr1/salonbook/internal/ics"
	"github.com/codr1/salonbook/internal/metrics"
	"github.com/codr1/salonbook/internal/ratelimit"
	"github.com/codr1/salonbook/internal/slots"
)

type deps struct {
	db      *db.DB
	manager *booking.Manager
	engine  *slots.Engine
	ics     ics.Builder
	tokens  *auth.TokenIssuer
	limiter *ratelimit.Limiter // nil disables rate limiting
	metrics *metrics.Metrics
}

func newServer(cfg *config.Config, d deps) *http.Server {
	router := http.NewServeMux()

	// Setup middleware chain
	handler := api.ChainMiddleware(
		router,
		api.WithMetrics(d.metrics),
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
	)

	handler = handlers.CORS(
		handlers.AllowedOrigins(cfg.App.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(handler)

	// Register routes
	registerRoutes(router, cfg, d)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config, d deps) {
	q := d.db.Queries
	trustProxy := cfg.App.TrustProxy
	admin := api.WithAdminAuth(d.tokens, q)
	adminFunc := func(fn http.HandlerFunc) http.Handler {
		return admin(fn)
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := d.db.PingContext(r.Context()); err != nil {
			log.Ctx(r.Context()).Error().Err(err).Msg("Health check failed")
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.Features.EnableMetrics {
		mux.Handle("GET /metrics", d.metrics.Handler())
	}

	// Admin auth
	authHandler := auth.NewHandler(q, d.tokens, d.limiter, trustProxy)
	mux.HandleFunc("POST /api/auth/login", authHandler.HandleLogin)
	mux.Handle("GET /api/auth/me", adminFunc(authHandler.HandleMe))

	// Services catalog
	serviceHandler := services.NewHandler(q)
	mux.HandleFunc("GET /api/services", serviceHandler.HandleListActive)
	mux.Handle("GET /api/admin/services", adminFunc(serviceHandler.HandleListAll))
	mux.Handle("POST /api/admin/services", adminFunc(serviceHandler.HandleCreate))
	mux.Handle("PUT /api/admin/services/{id}", adminFunc(serviceHandler.HandleUpdate))
	mux.Handle("DELETE /api/admin/services/{id}", adminFunc(serviceHandler.HandleDelete))

	// Availability
	availabilityHandler := availability.NewHandler(q, d.engine)
	mux.HandleFunc("GET /api/availability/slots", availabilityHandler.HandleSlots)
	mux.Handle("GET /api/admin/availability", adminFunc(availabilityHandler.HandleList))
	mux.Handle("POST /api/admin/availability", adminFunc(availabilityHandler.HandleCreate))
	mux.Handle("PUT /api/admin/availability/{id}", adminFunc(availabilityHandler.HandleUpdate))
	mux.Handle("DELETE /api/admin/availability/{id}", adminFunc(availabilityHandler.HandleDelete))

	// Bookings
	bookingHandler := bookings.NewHandler(bookings.Config{
		Queries: q,
		Manager: d.manager,
		Engine:  d.engine,
		ICS:     d.ics,
	})
	createLimit := api.WithRateLimit(d.limiter, ratelimit.ActionBookingCreate, trustProxy)
	cancelLimit := api.WithRateLimit(d.limiter, ratelimit.ActionBookingCancel, trustProxy)
	mux.Handle("POST /api/bookings", createLimit(http.HandlerFunc(bookingHandler.HandleCreate)))
	mux.HandleFunc("GET /api/bookings/{token}", bookingHandler.HandleGet)
	mux.Handle("DELETE /api/bookings/{token}", cancelLimit(http.HandlerFunc(bookingHandler.HandleCancel)))
	mux.HandleFunc("GET /api/bookings/{token}/calendar.ics", bookingHandler.HandleCalendar)
	mux.Handle("GET /api/admin/bookings", adminFunc(bookingHandler.HandleAdminList))
	mux.Handle("GET /api/admin/bookings/export", adminFunc(bookingHandler.HandleAdminExport))
	mux.Handle("GET /api/admin/bookings/{id}", adminFunc(bookingHandler.HandleAdminGet))
	mux.Handle("PATCH /api/admin/bookings/{id}", adminFunc(bookingHandler.HandleAdminUpdate))
	mux.Handle("DELETE /api/admin/bookings/{id}", adminFunc(bookingHandler.HandleAdminDelete))

	// Static files for the booking and admin front ends, when bundled
	staticDir := os.Getenv("STATIC_DIR")
	if staticDir == "" {
		return
	}
	fs := http.FileServer(http.Dir(staticDir))
	mux.Handle("GET /static/", http.StripPrefix("/static/", fs))
	log.Info().Str("static_dir", staticDir).Msg("Serving static files")
}
