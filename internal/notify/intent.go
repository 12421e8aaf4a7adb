// Package notify carries booking notification intents from the lifecycle
// manager to a background worker that sends email and syncs the calendar.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/codr1/salonbook/internal/models"
)

type Kind string

const (
	KindCreated   Kind = "booking.created"
	KindUpdated   Kind = "booking.updated"
	KindCancelled Kind = "booking.cancelled"
	KindReminder  Kind = "booking.reminder"
)

// Intent is emitted after a booking change commits. Booking is a snapshot,
// so a cancelled booking can still be described after its row is gone.
type Intent struct {
	Kind       Kind                   `json:"kind"`
	Booking    models.BookingDetails  `json:"booking"`
	Previous   *models.BookingDetails `json:"previous,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

var (
	ErrQueueClosed = errors.New("notification queue closed")
	ErrQueueFull   = errors.New("notification queue full")
)

type Publisher interface {
	Publish(ctx context.Context, intent Intent) error
}

// Queue is a FIFO of intents. Receive blocks until an intent arrives, the
// context ends or the queue is closed.
type Queue interface {
	Publisher
	Receive(ctx context.Context) (Intent, error)
	Close() error
}
