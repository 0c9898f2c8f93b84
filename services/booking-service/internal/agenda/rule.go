package agenda

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidRule is returned when an availability rule fails validation.
var ErrInvalidRule = errors.New("invalid availability rule")

// RuleKind selects how an availability rule contributes to the day window set.
type RuleKind string

const (
	// RuleGrid is a recurring weekly window: the professional works
	// StartMinute..EndMinute on every weekday set in the mask.
	RuleGrid RuleKind = "grid"
	// RuleReleased opens a one-off extra window [StartAt, EndAt).
	RuleReleased RuleKind = "released"
	// RuleBlocked closes the one-off range [StartAt, EndAt), overriding
	// anything grid or released rules opened there.
	RuleBlocked RuleKind = "blocked"
)

// Weekdays is a bitmask of week days, bit 0 = Sunday through bit 6 = Saturday.
type Weekdays uint8

func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<uint(d)) != 0
}

func (w Weekdays) With(d time.Weekday) Weekdays {
	return w | 1<<uint(d)
}

const minutesPerDay = 24 * 60

// Rule is one availability entry for a professional. Grid rules use the
// weekday mask and minute offsets; released and blocked rules use the
// absolute StartAt/EndAt pair.
type Rule struct {
	ID          string
	Kind        RuleKind
	Weekdays    Weekdays
	StartMinute int
	EndMinute   int
	StartAt     time.Time
	EndAt       time.Time
	Note        string
}

// Validate checks internal consistency. All failures wrap ErrInvalidRule.
func (r Rule) Validate() error {
	switch r.Kind {
	case RuleGrid:
		if r.Weekdays == 0 {
			return fmt.Errorf("%w: grid rule has empty weekday mask", ErrInvalidRule)
		}
		if r.StartMinute < 0 || r.EndMinute > minutesPerDay || r.StartMinute >= r.EndMinute {
			return fmt.Errorf("%w: grid rule minutes %d..%d out of order", ErrInvalidRule, r.StartMinute, r.EndMinute)
		}
	case RuleReleased, RuleBlocked:
		if r.StartAt.IsZero() || r.EndAt.IsZero() || !r.EndAt.After(r.StartAt) {
			return fmt.Errorf("%w: %s rule range is empty", ErrInvalidRule, r.Kind)
		}
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidRule, r.Kind)
	}
	return nil
}

// dayBounds returns the half-open interval covering the calendar day that
// contains day midnight, in day's location.
func dayBounds(day time.Time) Interval {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return Interval{Start: start, End: start.AddDate(0, 0, 1)}
}

// dayOpen resolves the open intervals for one calendar day before blocked
// ranges apply: grid windows for the day's weekday united with released
// ranges, clipped to the day, merged disjoint and ascending.
func dayOpen(day time.Time, rules []Rule) ([]Interval, error) {
	bounds := dayBounds(day)
	weekday := bounds.Start.Weekday()

	var open []Interval
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		switch r.Kind {
		case RuleGrid:
			if !r.Weekdays.Has(weekday) {
				continue
			}
			open = append(open, Interval{
				Start: bounds.Start.Add(time.Duration(r.StartMinute) * time.Minute),
				End:   bounds.Start.Add(time.Duration(r.EndMinute) * time.Minute),
			})
		case RuleReleased:
			if iv := (Interval{Start: r.StartAt, End: r.EndAt}).Clip(bounds); !iv.IsZero() {
				open = append(open, iv)
			}
		}
	}
	return mergeIntervals(open), nil
}

// DayWindows resolves the bookable intervals for one calendar day: grid
// windows for the day's weekday united with released ranges, minus blocked
// ranges. All intervals are clipped to the day, disjoint and ascending.
func DayWindows(day time.Time, rules []Rule) ([]Interval, error) {
	open, err := dayOpen(day, rules)
	if err != nil {
		return nil, err
	}
	return subtractIntervals(open, dayBlocked(day, rules)), nil
}

// dayBlocked collects the blocked ranges that touch the given day, merged and
// clipped to the day. Rules are assumed pre-validated by DayWindows.
func dayBlocked(day time.Time, rules []Rule) []Interval {
	bounds := dayBounds(day)
	var closed []Interval
	for _, r := range rules {
		if r.Kind != RuleBlocked {
			continue
		}
		if iv := (Interval{Start: r.StartAt, End: r.EndAt}).Clip(bounds); !iv.IsZero() {
			closed = append(closed, iv)
		}
	}
	return mergeIntervals(closed)
}
