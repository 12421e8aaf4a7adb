package slots

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/codr1/salonbook/internal/models"
)

func clock(t *testing.T, value string) models.ClockTime {
	t.Helper()
	c, err := models.ParseClock(value)
	if err != nil {
		t.Fatalf("parse clock %q: %v", value, err)
	}
	return c
}

func window(t *testing.T, start, end string, blocked bool) models.AvailabilityWindow {
	return models.AvailabilityWindow{Day: "2025-08-10", Start: clock(t, start), End: clock(t, end), IsBlocked: blocked}
}

type fakeStore struct {
	windows  []models.AvailabilityWindow
	bookings []models.BookingSpan
	err      error
	calls    int
}

func (f *fakeStore) AvailabilityForDay(ctx context.Context, day string) ([]models.AvailabilityWindow, error) {
	f.calls++
	return f.windows, f.err
}

func (f *fakeStore) BookingSpansForDay(ctx context.Context, day string) ([]models.BookingSpan, error) {
	return f.bookings, nil
}

type recordingObserver struct{ count int }

func (r *recordingObserver) ObserveSlotComputation(time.Duration) { r.count++ }

func TestExampleDay(t *testing.T) {
	store := &fakeStore{
		windows:  []models.AvailabilityWindow{window(t, "09:00", "12:00", false)},
		bookings: []models.BookingSpan{{BookingID: 1, Start: clock(t, "10:00"), DurationMinutes: 30}},
	}
	observer := &recordingObserver{}
	engine := NewEngine(store, DefaultRules(), observer)

	got, err := engine.AvailableSlots(context.Background(), "2025-08-10", 30)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	want := []string{"09:00", "09:15", "10:45", "11:00", "11:15"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
	if observer.count != 1 {
		t.Fatalf("expected one observation, got %d", observer.count)
	}
}

func TestNoOpenWindowsIsEmpty(t *testing.T) {
	store := &fakeStore{windows: []models.AvailabilityWindow{window(t, "09:00", "12:00", true)}}
	engine := NewEngine(store, DefaultRules(), nil)

	got, err := engine.AvailableSlots(context.Background(), "2025-08-10", 30)
	if err != nil {
		t.Fatalf("AvailableSlots: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestStoreErrorPropagates(t *testing.T) {
	boom := errors.New("boom")
	engine := NewEngine(&fakeStore{err: boom}, DefaultRules(), nil)
	if _, err := engine.AvailableSlots(context.Background(), "2025-08-10", 30); !errors.Is(err, boom) {
		t.Fatalf("expected wrapped store error, got %v", err)
	}
}

func TestBlockedWindowIsOccupied(t *testing.T) {
	windows := []models.AvailabilityWindow{
		window(t, "09:00", "11:00", false),
		window(t, "09:30", "10:00", true),
	}
	got := Compute(windows, Occupied(windows, nil, DefaultRules()), 15, DefaultRules())
	want := []string{"09:00", "10:00", "10:15", "10:30"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestOverlappingWindowsAreDeduplicated(t *testing.T) {
	windows := []models.AvailabilityWindow{
		window(t, "09:00", "10:00", false),
		window(t, "09:00", "10:30", false),
	}
	got := Compute(windows, nil, 30, DefaultRules())
	want := []string{"09:00", "09:15", "09:30", "09:45"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("slots = %v, want %v", got, want)
	}
}

func TestWindowTooShort(t *testing.T) {
	windows := []models.AvailabilityWindow{window(t, "09:00", "09:30", false)}
	if got := Compute(windows, nil, 30, DefaultRules()); len(got) != 0 {
		t.Fatalf("expected no slots, got %v", got)
	}
}

func TestReturnedSlotsSatisfyInvariants(t *testing.T) {
	rules := DefaultRules()
	windows := []models.AvailabilityWindow{
		window(t, "08:00", "12:30", false),
		window(t, "13:30", "18:00", false),
		window(t, "15:00", "15:45", true),
	}
	bookings := []models.BookingSpan{
		{Start: clock(t, "09:15"), DurationMinutes: 45},
		{Start: clock(t, "11:00"), DurationMinutes: 60},
		{Start: clock(t, "14:00"), DurationMinutes: 30},
	}
	occupied := Occupied(windows, bookings, rules)

	for _, duration := range []int{15, 30, 45, 60, 90} {
		first := Compute(windows, occupied, duration, rules)
		second := Compute(windows, occupied, duration, rules)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("duration %d: output not stable: %v vs %v", duration, first, second)
		}
		for i, slot := range first {
			if i > 0 && first[i-1] >= slot {
				t.Fatalf("duration %d: slots not strictly ascending: %v", duration, first)
			}
			start := clock(t, slot)
			candidate := Interval{Start: start, End: start.Add(duration + rules.BufferMinutes)}
			inside := false
			for _, w := range windows {
				if !w.IsBlocked && candidate.Start >= w.Start && candidate.End <= w.End {
					inside = true
				}
			}
			if !inside {
				t.Fatalf("duration %d: slot %s outside open windows", duration, slot)
			}
			for _, occ := range occupied {
				if candidate.Overlaps(occ) {
					t.Fatalf("duration %d: slot %s overlaps %v", duration, slot, occ)
				}
			}
		}
	}
}

func TestIsAvailable(t *testing.T) {
	store := &fakeStore{
		windows:  []models.AvailabilityWindow{window(t, "09:00", "12:00", false)},
		bookings: []models.BookingSpan{{Start: clock(t, "10:00"), DurationMinutes: 30}},
	}
	engine := NewEngine(store, DefaultRules(), nil)

	ok, err := engine.IsAvailable(context.Background(), "2025-08-10", "10:00", 30)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if ok {
		t.Fatalf("10:00 should be taken")
	}
	ok, err = engine.IsAvailable(context.Background(), "2025-08-10", "11:15", 30)
	if err != nil {
		t.Fatalf("IsAvailable: %v", err)
	}
	if !ok {
		t.Fatalf("11:15 should be free")
	}
}
