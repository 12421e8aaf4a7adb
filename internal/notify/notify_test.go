package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/codr1/salonbook/internal/email"
	"github.com/codr1/salonbook/internal/ics"
	"github.com/codr1/salonbook/internal/models"
)

func sampleIntent(kind Kind) Intent {
	return Intent{
		Kind: kind,
		Booking: models.BookingDetails{
			ID:                   5,
			ServiceName:          "Cut",
			TotalDurationMinutes: 30,
			Day:                  "2025-08-10",
			StartTime:            "10:00",
			ClientName:           "Ana",
			ClientEmail:          "ana@example.com",
			Language:             models.LanguageEnglish,
			Token:                "tok",
		},
		OccurredAt: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestMemoryQueueFIFOAndClose(t *testing.T) {
	q := NewMemoryQueue(2)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, sampleIntent(KindCreated)))
	require.NoError(t, q.Publish(ctx, sampleIntent(KindCancelled)))
	require.ErrorIs(t, q.Publish(ctx, sampleIntent(KindUpdated)), ErrQueueFull)

	first, err := q.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, KindCreated, first.Kind)

	require.NoError(t, q.Close())
	require.ErrorIs(t, q.Publish(ctx, sampleIntent(KindUpdated)), ErrQueueClosed)

	second, err := q.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, KindCancelled, second.Kind)

	_, err = q.Receive(ctx)
	require.ErrorIs(t, err, ErrQueueClosed)
}

func TestMemoryQueueReceiveHonoursContext(t *testing.T) {
	q := NewMemoryQueue(1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := q.Receive(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRedisQueueRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	q := NewRedisQueue(RedisOptions{Addr: mr.Addr(), Key: "test:intents", PollTimeout: time.Second})
	defer q.Close()
	ctx := context.Background()

	require.NoError(t, q.Ping(ctx))
	require.NoError(t, q.Publish(ctx, sampleIntent(KindCreated)))
	require.NoError(t, q.Publish(ctx, sampleIntent(KindReminder)))

	first, err := q.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, KindCreated, first.Kind)
	require.Equal(t, "tok", first.Booking.Token)
	require.True(t, first.OccurredAt.Equal(sampleIntent(KindCreated).OccurredAt))

	second, err := q.Receive(ctx)
	require.NoError(t, err)
	require.Equal(t, KindReminder, second.Kind)
}

func TestRedisQueueReceiveStopsOnContext(t *testing.T) {
	mr := miniredis.RunT(t)
	q := NewRedisQueue(RedisOptions{Addr: mr.Addr(), Key: "test:intents", PollTimeout: time.Second})
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := q.Receive(ctx)
	require.Error(t, err)
	require.ErrorIs(t, ctx.Err(), context.DeadlineExceeded)
}

type fakeRecorder struct {
	mu     sync.Mutex
	counts map[string]int
}

func (f *fakeRecorder) NotificationProcessed(kind, status string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.counts == nil {
		f.counts = map[string]int{}
	}
	f.counts[kind+"/"+status]++
}

func (f *fakeRecorder) get(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[key]
}

func TestWorkerProcessesAndSurvivesFailures(t *testing.T) {
	q := NewMemoryQueue(4)
	recorder := &fakeRecorder{}
	handled := make(chan Kind, 4)
	handler := HandlerFunc(func(ctx context.Context, intent Intent) error {
		handled <- intent.Kind
		if intent.Kind == KindCancelled {
			return errors.New("smtp down")
		}
		return nil
	})
	worker := NewWorker(q, handler, recorder, time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	require.NoError(t, q.Publish(ctx, sampleIntent(KindCancelled)))
	require.NoError(t, q.Publish(ctx, sampleIntent(KindCreated)))

	for i := 0; i < 2; i++ {
		select {
		case <-handled:
		case <-time.After(2 * time.Second):
			t.Fatalf("worker did not process intent %d", i)
		}
	}
	require.Eventually(t, func() bool {
		return recorder.get("booking.created/sent") == 1 && recorder.get("booking.cancelled/failed") == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop")
	}
}

func TestWorkerDrainsClosedQueue(t *testing.T) {
	q := NewMemoryQueue(8)
	recorder := &fakeRecorder{}
	var mu sync.Mutex
	var handled []Kind
	handler := HandlerFunc(func(ctx context.Context, intent Intent) error {
		mu.Lock()
		defer mu.Unlock()
		handled = append(handled, intent.Kind)
		return nil
	})
	worker := NewWorker(q, handler, recorder, time.Second)

	ctx := context.Background()
	kinds := []Kind{KindCreated, KindUpdated, KindCancelled, KindReminder}
	for _, kind := range kinds {
		require.NoError(t, q.Publish(ctx, sampleIntent(kind)))
	}
	require.NoError(t, q.Close())

	done := make(chan error, 1)
	go func() { done <- worker.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatalf("worker did not stop after draining")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, kinds, handled)
	require.Zero(t, q.Len())
	require.Equal(t, 1, recorder.get("booking.reminder/sent"))
}

type fakeSender struct {
	mu   sync.Mutex
	sent []email.Message
	err  error
}

func (f *fakeSender) Send(ctx context.Context, msg email.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, msg)
	return f.err
}

type fakeCalendar struct {
	upserts []int64
	removes []int64
	err     error
}

func (f *fakeCalendar) Upsert(ctx context.Context, b models.BookingDetails) error {
	f.upserts = append(f.upserts, b.ID)
	return f.err
}

func (f *fakeCalendar) Remove(ctx context.Context, id int64) error {
	f.removes = append(f.removes, id)
	return f.err
}

func TestNotifierCreatedSendsICSAndUpserts(t *testing.T) {
	sender := &fakeSender{}
	cal := &fakeCalendar{}
	n := &Notifier{Sender: sender, ICS: ics.Builder{Domain: "salon.test"}, Calendar: cal, Cutoff: 20 * time.Hour}

	require.NoError(t, n.Handle(context.Background(), sampleIntent(KindCreated)))
	require.Len(t, sender.sent, 1)
	require.Len(t, sender.sent[0].Attachments, 1)
	require.Equal(t, ics.Filename, sender.sent[0].Attachments[0].Filename)
	require.Contains(t, string(sender.sent[0].Attachments[0].Data), "UID:5@salon.test")
	require.Equal(t, []int64{5}, cal.upserts)
}

func TestNotifierCancelledRemovesEvent(t *testing.T) {
	sender := &fakeSender{}
	cal := &fakeCalendar{}
	n := &Notifier{Sender: sender, ICS: ics.Builder{Domain: "salon.test"}, Calendar: cal}

	require.NoError(t, n.Handle(context.Background(), sampleIntent(KindCancelled)))
	require.Equal(t, []int64{5}, cal.removes)
	require.Contains(t, string(sender.sent[0].Attachments[0].Data), "METHOD:CANCEL")
}

func TestNotifierReminderHasNoAttachmentOrCalendarCall(t *testing.T) {
	sender := &fakeSender{}
	cal := &fakeCalendar{}
	n := &Notifier{Sender: sender, Calendar: cal}

	require.NoError(t, n.Handle(context.Background(), sampleIntent(KindReminder)))
	require.Empty(t, sender.sent[0].Attachments)
	require.Empty(t, cal.upserts)
	require.Empty(t, cal.removes)
}

func TestNotifierJoinsErrors(t *testing.T) {
	sendErr := errors.New("ses throttled")
	calErr := errors.New("calendar 500")
	n := &Notifier{
		Sender:   &fakeSender{err: sendErr},
		ICS:      ics.Builder{Domain: "salon.test"},
		Calendar: &fakeCalendar{err: calErr},
	}

	err := n.Handle(context.Background(), sampleIntent(KindUpdated))
	require.ErrorIs(t, err, sendErr)
	require.ErrorIs(t, err, calErr)
}

func TestNotifierSkipsEmailWithoutAddress(t *testing.T) {
	sender := &fakeSender{}
	n := &Notifier{Sender: sender}
	intent := sampleIntent(KindCreated)
	intent.Booking.ClientEmail = ""

	require.NoError(t, n.Handle(context.Background(), intent))
	require.Empty(t, sender.sent)
}
