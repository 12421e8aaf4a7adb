package queries

import (
	"database/sql"
	"time"
)

type AdminUser struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

type Availability struct {
	ID          int64          `json:"id"`
	Day         string         `json:"day"`
	StartTime   string         `json:"start_time"`
	EndTime     string         `json:"end_time"`
	IsBlocked   bool           `json:"is_blocked"`
	BlockReason sql.NullString `json:"block_reason"`
	CreatedAt   time.Time      `json:"created_at"`
}

type Booking struct {
	ID          int64     `json:"id"`
	ServiceID   int64     `json:"service_id"`
	Day         string    `json:"day"`
	StartTime   string    `json:"start_time"`
	ClientName  string    `json:"client_name"`
	ClientPhone string    `json:"client_phone"`
	ClientEmail string    `json:"client_email"`
	Language    string    `json:"language"`
	Notes       string    `json:"notes"`
	Token       string    `json:"token"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type Service struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	DurationMinutes int64     `json:"duration_minutes"`
	PriceCents      int64     `json:"price_cents"`
	IsAddon         bool      `json:"is_addon"`
	IsActive        bool      `json:"is_active"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
