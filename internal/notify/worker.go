package notify

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Handler performs the side effects of one intent.
type Handler interface {
	Handle(ctx context.Context, intent Intent) error
}

type HandlerFunc func(ctx context.Context, intent Intent) error

func (f HandlerFunc) Handle(ctx context.Context, intent Intent) error {
	return f(ctx, intent)
}

// Recorder counts processed intents. *metrics.Metrics satisfies it.
type Recorder interface {
	NotificationProcessed(kind string, status string)
}

type Worker struct {
	queue   Queue
	handler Handler
	metrics Recorder
	timeout time.Duration
	logger  zerolog.Logger
}

func NewWorker(queue Queue, handler Handler, metrics Recorder, timeout time.Duration) *Worker {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Worker{
		queue:   queue,
		handler: handler,
		metrics: metrics,
		timeout: timeout,
		logger:  log.With().Str("component", "notification_worker").Logger(),
	}
}

// Run consumes intents until ctx ends or the queue closes. A closed
// MemoryQueue is drained before Run returns, so shutdown closes the queue
// and keeps ctx alive to flush pending intents. Handler failures are logged
// and counted; they never stop the loop.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info().Msg("Notification worker started")
	defer w.logger.Info().Msg("Notification worker stopped")

	for {
		intent, err := w.queue.Receive(ctx)
		if err != nil {
			if errors.Is(err, ErrQueueClosed) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			w.logger.Error().Err(err).Msg("Failed to receive notification intent")
			w.record(Kind("unknown"), "receive_error")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}
		w.process(ctx, intent)
	}
}

func (w *Worker) process(ctx context.Context, intent Intent) {
	logger := w.logger.With().
		Str("kind", string(intent.Kind)).
		Int64("booking_id", intent.Booking.ID).
		Logger()

	// In-flight sends finish even when shutdown cancels ctx.
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	sendCtx = logger.WithContext(sendCtx)

	if err := w.handler.Handle(sendCtx, intent); err != nil {
		logger.Error().Err(err).Msg("Notification delivery failed")
		w.record(intent.Kind, "failed")
		return
	}
	logger.Debug().Msg("Notification delivered")
	w.record(intent.Kind, "sent")
}

func (w *Worker) record(kind Kind, status string) {
	if w.metrics != nil {
		w.metrics.NotificationProcessed(string(kind), status)
	}
}
