package agenda

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidDuration is returned when a service duration is zero or
	// negative.
	ErrInvalidDuration = errors.New("invalid service duration")
	// ErrInvalidDate is returned when a date input cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// SlotReason explains why a slot is not bookable.
type SlotReason string

const (
	// ReasonBusy marks a slot overlapping an active appointment.
	ReasonBusy SlotReason = "busy"
	// ReasonBlocked marks a slot overlapping a blocked range.
	ReasonBlocked SlotReason = "blocked"
	// ReasonOutOfGrid marks a slot whose service run would spill past the
	// end of its window.
	ReasonOutOfGrid SlotReason = "out-of-grid"
)

// Slot is one candidate start time on a professional's day.
type Slot struct {
	Start     time.Time
	Time      string // "HH:MM" in the day's location
	Available bool
	Reason    SlotReason // empty when Available
}

// Booking is the appointment snapshot the generator needs: when it starts,
// how long its own service runs, and whether it still occupies the calendar.
type Booking struct {
	StartAt         time.Time
	DurationMinutes int
	Cancelled       bool
}

func (b Booking) interval() Interval {
	return Interval{Start: b.StartAt, End: b.StartAt.Add(time.Duration(b.DurationMinutes) * time.Minute)}
}

// DayGrid builds the full discretized grid for one calendar day. Candidate
// starts are generated from each open window's start at the given step, and
// every candidate carries an availability flag plus a reason when excluded.
// A slot is available when its service run [start, start+duration) fits
// entirely inside an open window, clear of blocked ranges and of every
// non-cancelled booking. A run ending exactly at a window end stays
// available.
//
// A step of zero defaults to the service duration; a step larger than the
// duration is clamped down to it so adjacent available slots never hide
// bookable time.
func DayGrid(day time.Time, rules []Rule, bookings []Booking, duration, step time.Duration) ([]Slot, error) {
	if duration <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDuration, duration)
	}
	if step <= 0 || step > duration {
		step = duration
	}

	open, err := dayOpen(day, rules)
	if err != nil {
		return nil, err
	}
	blocked := dayBlocked(day, rules)

	var busy []Interval
	for _, b := range bookings {
		if b.Cancelled || b.DurationMinutes <= 0 {
			continue
		}
		busy = append(busy, b.interval())
	}
	busy = mergeIntervals(busy)

	var slots []Slot
	for _, win := range open {
		for start := win.Start; start.Before(win.End); start = start.Add(step) {
			run := Interval{Start: start, End: start.Add(duration)}
			slot := Slot{Start: start, Time: start.Format("15:04")}
			switch {
			case !win.Contains(run):
				slot.Reason = ReasonOutOfGrid
			case overlapsAny(run, blocked):
				slot.Reason = ReasonBlocked
			case overlapsAny(run, busy):
				slot.Reason = ReasonBusy
			default:
				slot.Available = true
			}
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

// Fits reports whether a service run [start, start+duration) lands inside a
// bookable window on start's day, clear of blocked ranges and of every
// non-cancelled booking.
func Fits(rules []Rule, bookings []Booking, start time.Time, duration time.Duration) (bool, error) {
	if duration <= 0 {
		return false, fmt.Errorf("%w: %s", ErrInvalidDuration, duration)
	}
	windows, err := DayWindows(start, rules)
	if err != nil {
		return false, err
	}
	run := Interval{Start: start, End: start.Add(duration)}
	inWindow := false
	for _, win := range windows {
		if win.Contains(run) {
			inWindow = true
			break
		}
	}
	if !inWindow {
		return false, nil
	}
	for _, b := range bookings {
		if b.Cancelled || b.DurationMinutes <= 0 {
			continue
		}
		if run.Overlaps(b.interval()) {
			return false, nil
		}
	}
	return true, nil
}

// AvailableSlots narrows a grid to its bookable entries.
func AvailableSlots(grid []Slot) []Slot {
	var out []Slot
	for _, s := range grid {
		if s.Available {
			out = append(out, s)
		}
	}
	return out
}

// ParseDay interprets a "YYYY-MM-DD" value as midnight in loc.
func ParseDay(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return day, nil
}
