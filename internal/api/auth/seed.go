package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	dbq "github.com/codr1/salonbook/internal/db/queries"
)

// EnsureAdmin creates the configured admin, or resets its password when it
// already exists. Empty credentials skip seeding.
func EnsureAdmin(ctx context.Context, q *dbq.Queries, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		log.Warn().Msg("Admin credentials not configured; skipping admin seed")
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin, err := q.UpsertAdminUser(ctx, dbq.UpsertAdminUserParams{Email: email, PasswordHash: hash})
	if err != nil {
		return fmt.Errorf("upsert admin %s: %w", email, err)
	}
	log.Info().Int64("admin_id", admin.ID).Msg("Admin user ready")
	return nil
}
