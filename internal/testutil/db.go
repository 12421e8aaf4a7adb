package testutil

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/codr1/salonbook/internal/api/authz"
	"github.com/codr1/salonbook/internal/db"
	dbq "github.com/codr1/salonbook/internal/db/queries"
)

// NewTestDB creates a temporary SQLite database with migrations applied.
func NewTestDB(t *testing.T) *db.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	database, err := db.New(dbPath)
	if err != nil {
		t.Fatalf("create test db: %v", err)
	}
	t.Cleanup(func() {
		_ = database.Close()
	})

	return database
}

// CreateService inserts an active service or add-on.
func CreateService(t *testing.T, database *db.DB, name string, minutes, priceCents int64, isAddon bool) dbq.Service {
	t.Helper()

	svc, err := database.Queries.CreateService(context.Background(), dbq.CreateServiceParams{
		Name:            name,
		DurationMinutes: minutes,
		PriceCents:      priceCents,
		IsAddon:         isAddon,
		IsActive:        true,
	})
	if err != nil {
		t.Fatalf("create service %s: %v", name, err)
	}
	return svc
}

// OpenDay adds an open window on day.
func OpenDay(t *testing.T, database *db.DB, day, start, end string) dbq.Availability {
	t.Helper()

	window, err := database.Queries.CreateAvailability(context.Background(), dbq.CreateAvailabilityParams{
		Day:       day,
		StartTime: start,
		EndTime:   end,
	})
	if err != nil {
		t.Fatalf("create availability %s %s-%s: %v", day, start, end, err)
	}
	return window
}

// WithAdmin attaches an authenticated admin to req.
func WithAdmin(req *http.Request) *http.Request {
	admin := &authz.AdminUser{ID: 1, Email: "owner@example.com"}
	return req.WithContext(authz.ContextWithAdmin(req.Context(), admin))
}
