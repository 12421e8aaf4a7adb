// internal/db/db.go
package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"

	"github.com/codr1/salonbook/internal/config"
	dbq "github.com/codr1/salonbook/internal/db/queries"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrDatastoreUnavailable is returned when the datastore cannot be reached
// after every startup attempt.
var ErrDatastoreUnavailable = errors.New("datastore unavailable")

// Capabilities records optional schema features detected at startup.
type Capabilities struct {
	BookingAddons bool
}

type DB struct {
	*sql.DB
	Queries      *dbq.Queries
	Capabilities Capabilities
}

// New opens a SQLite database for the given data source name, ensures SQLite
// foreign keys are enabled in the DSN, applies embedded migrations, and
// returns a DB with queries bound to the connection.
func New(dataSourceName string) (*DB, error) {
	dataSourceName = ensureForeignKeysEnabledDSN(dataSourceName)
	sqlDB, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	return finishOpen(context.Background(), sqlDB)
}

// NewFromConfig opens the configured database, retrying the initial ping
// up to Database.ConnectRetries times, then applies migrations and detects
// schema capabilities. Exhausted retries yield ErrDatastoreUnavailable.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*DB, error) {
	if cfg.Database.Driver != "sqlite" {
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Database.Filename), 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}
	sqlDB, err := sql.Open("sqlite3", ensureForeignKeysEnabledDSN(cfg.Database.Filename))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	if err := pingWithRetry(ctx, sqlDB, cfg.Database.ConnectRetries, cfg.Database.ConnectRetryDelay); err != nil {
		sqlDB.Close()
		return nil, err
	}

	return finishOpen(ctx, sqlDB)
}

func pingWithRetry(ctx context.Context, sqlDB *sql.DB, attempts int, delay time.Duration) error {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if lastErr = sqlDB.PingContext(ctx); lastErr == nil {
			return nil
		}
		log.Warn().
			Err(lastErr).
			Int("attempt", attempt).
			Int("max_attempts", attempts).
			Msg("Datastore not reachable")
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrDatastoreUnavailable, ctx.Err())
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrDatastoreUnavailable, attempts, lastErr)
}

func finishOpen(ctx context.Context, sqlDB *sql.DB) (*DB, error) {
	if err := runMigrations(sqlDB); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error running migrations: %w", err)
	}

	caps, err := DetectCapabilities(ctx, sqlDB)
	if err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("error detecting schema capabilities: %w", err)
	}

	return &DB{
		DB:           sqlDB,
		Queries:      dbq.New(sqlDB),
		Capabilities: caps,
	}, nil
}

// DetectCapabilities inspects sqlite_master for optional tables.
func DetectCapabilities(ctx context.Context, sqlDB *sql.DB) (Capabilities, error) {
	var count int
	err := sqlDB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'booking_addons'`,
	).Scan(&count)
	if err != nil {
		return Capabilities{}, err
	}
	return Capabilities{BookingAddons: count > 0}, nil
}

// ensureForeignKeysEnabledDSN ensures the SQLite DSN enables foreign key enforcement by adding the `_fk=1` query parameter if missing.
func ensureForeignKeysEnabledDSN(dataSourceName string) string {
	if strings.Contains(dataSourceName, "_fk=") {
		return dataSourceName
	}
	if strings.Contains(dataSourceName, "?") {
		return dataSourceName + "&_fk=1"
	}
	return dataSourceName + "?_fk=1"
}

// runMigrations applies the embedded SQL migrations; "no change" is not an error.
func runMigrations(db *sql.DB) error {
	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		return fmt.Errorf("could not create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("could not create source: %w", err)
	}

	m, err := migrate.NewWithInstance(
		"iofs", source,
		"sqlite3", driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("could not run migrations: %w", err)
	}

	return nil
}

// WithTx creates a new DB instance with the given transaction
func (db *DB) WithTx(tx *sql.Tx) *DB {
	return &DB{
		DB:           db.DB,
		Queries:      dbq.New(tx),
		Capabilities: db.Capabilities,
	}
}

// BeginTx starts a transaction
func (db *DB) BeginTx(ctx context.Context) (*sql.Tx, error) {
	tx, err := db.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("error beginning transaction: %w", err)
	}
	return tx, nil
}

// RunInTx runs the given function in a transaction
func (db *DB) RunInTx(ctx context.Context, fn func(*DB) error) error {
	tx, err := db.BeginTx(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	txDB := db.WithTx(tx)
	if err := fn(txDB); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return fmt.Errorf("error rolling back: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("error committing: %w", err)
	}

	return nil
}
