// Package slots computes bookable start times for a day from its open
// windows, blocked windows and existing bookings.
package slots

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codr1/salonbook/internal/models"
)

const (
	DefaultStepMinutes   = 15
	DefaultBufferMinutes = 15
)

// Rules are the knobs of the slot computation.
type Rules struct {
	StepMinutes   int
	BufferMinutes int
}

func DefaultRules() Rules {
	return Rules{StepMinutes: DefaultStepMinutes, BufferMinutes: DefaultBufferMinutes}
}

func (r Rules) normalized() Rules {
	if r.StepMinutes <= 0 {
		r.StepMinutes = DefaultStepMinutes
	}
	if r.BufferMinutes < 0 {
		r.BufferMinutes = 0
	}
	return r
}

// Interval is a half-open range [Start, End) of clock time.
type Interval struct {
	Start models.ClockTime
	End   models.ClockTime
}

func (i Interval) Overlaps(other Interval) bool {
	return i.Start < other.End && i.End > other.Start
}

// Occupied turns bookings and blocked windows into intervals a candidate
// must not touch. Bookings carry the trailing buffer; blocked windows do not.
func Occupied(windows []models.AvailabilityWindow, bookings []models.BookingSpan, rules Rules) []Interval {
	rules = rules.normalized()
	occupied := make([]Interval, 0, len(bookings)+len(windows))
	for _, b := range bookings {
		occupied = append(occupied, Interval{
			Start: b.Start,
			End:   b.Start.Add(b.DurationMinutes + rules.BufferMinutes),
		})
	}
	for _, w := range windows {
		if w.IsBlocked {
			occupied = append(occupied, Interval{Start: w.Start, End: w.End})
		}
	}
	return occupied
}

// Compute returns the sorted, de-duplicated start times (HH:MM) at which a
// service of durationMinutes plus the buffer fits inside an open window
// without overlapping anything occupied. Blocked windows in windows are
// ignored as candidates; pass them to Occupied instead.
func Compute(windows []models.AvailabilityWindow, occupied []Interval, durationMinutes int, rules Rules) []string {
	rules = rules.normalized()
	result := []string{}
	if durationMinutes <= 0 {
		return result
	}

	seen := make(map[models.ClockTime]struct{})
	starts := []models.ClockTime{}
	span := durationMinutes + rules.BufferMinutes

	for _, w := range windows {
		if w.IsBlocked {
			continue
		}
		for cursor := w.Start; cursor.Add(span) <= w.End; cursor = cursor.Add(rules.StepMinutes) {
			candidate := Interval{Start: cursor, End: cursor.Add(span)}
			if overlapsAny(candidate, occupied) {
				continue
			}
			if _, ok := seen[cursor]; ok {
				continue
			}
			seen[cursor] = struct{}{}
			starts = append(starts, cursor)
		}
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	for _, s := range starts {
		result = append(result, s.String())
	}
	return result
}

func overlapsAny(candidate Interval, occupied []Interval) bool {
	for _, occ := range occupied {
		if candidate.Overlaps(occ) {
			return true
		}
	}
	return false
}

// Store is the read side the engine needs.
type Store interface {
	AvailabilityForDay(ctx context.Context, day string) ([]models.AvailabilityWindow, error)
	BookingSpansForDay(ctx context.Context, day string) ([]models.BookingSpan, error)
}

// Observer receives the latency of each computation. Optional.
type Observer interface {
	ObserveSlotComputation(d time.Duration)
}

type Engine struct {
	store    Store
	rules    Rules
	observer Observer
}

func NewEngine(store Store, rules Rules, observer Observer) *Engine {
	return &Engine{store: store, rules: rules.normalized(), observer: observer}
}

func (e *Engine) Rules() Rules {
	return e.rules
}

// AvailableSlots loads day from the store and runs Compute. A day with no
// open windows yields an empty, non-nil slice.
func (e *Engine) AvailableSlots(ctx context.Context, day string, durationMinutes int) ([]string, error) {
	started := time.Now()
	defer func() {
		if e.observer != nil {
			e.observer.ObserveSlotComputation(time.Since(started))
		}
	}()

	windows, err := e.store.AvailabilityForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if !hasOpenWindow(windows) {
		return []string{}, nil
	}

	bookings, err := e.store.BookingSpansForDay(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	return Compute(windows, Occupied(windows, bookings, e.rules), durationMinutes, e.rules), nil
}

// IsAvailable reports whether start is one of the bookable slots on day.
func (e *Engine) IsAvailable(ctx context.Context, day string, start string, durationMinutes int) (bool, error) {
	available, err := e.AvailableSlots(ctx, day, durationMinutes)
	if err != nil {
		return false, err
	}
	for _, slot := range available {
		if slot == start {
			return true, nil
		}
	}
	return false, nil
}

func hasOpenWindow(windows []models.AvailabilityWindow) bool {
	for _, w := range windows {
		if !w.IsBlocked {
			return true
		}
	}
	return false
}
