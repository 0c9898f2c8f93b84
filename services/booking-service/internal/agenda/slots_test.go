package agenda

import (
	"errors"
	"testing"
	"time"
)

// monday is 2025-06-02, a Monday.
var monday = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return time.Date(2025, 6, 2, h, m, 0, 0, time.UTC)
}

func gridRule(days Weekdays, startMin, endMin int) Rule {
	return Rule{Kind: RuleGrid, Weekdays: days, StartMinute: startMin, EndMinute: endMin}
}

func times(slots []Slot) []string {
	out := make([]string, 0, len(slots))
	for _, s := range slots {
		out = append(out, s.Time)
	}
	return out
}

func TestDayGridWholeHourService(t *testing.T) {
	rules := []Rule{gridRule(1 << time.Monday, 9*60, 11*60)} // Monday 09:00-11:00

	grid, err := DayGrid(monday, rules, nil, 60*time.Minute, 0)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	got := times(AvailableSlots(grid))
	want := []string{"09:00", "10:00"}
	if len(got) != len(want) {
		t.Fatalf("available slots = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDayGridBlockedRangeExcludesOverlaps(t *testing.T) {
	rules := []Rule{
		gridRule(1 << time.Monday, 9*60, 12*60),
		{Kind: RuleBlocked, StartAt: at(10, 0), EndAt: at(10, 30)},
	}

	grid, err := DayGrid(monday, rules, nil, 30*time.Minute, 0)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}

	byTime := map[string]Slot{}
	for _, s := range grid {
		byTime[s.Time] = s
	}
	if s := byTime["10:00"]; s.Available || s.Reason != ReasonBlocked {
		t.Fatalf("10:00 = %+v, want blocked", s)
	}
	for _, tm := range []string{"09:00", "09:30", "10:30", "11:00", "11:30"} {
		if !byTime[tm].Available {
			t.Fatalf("%s unavailable (%s), want available", tm, byTime[tm].Reason)
		}
	}
}

func TestDayGridBoundarySlotEndsAtWindowEnd(t *testing.T) {
	rules := []Rule{gridRule(1 << time.Monday, 9*60, 10*60)}

	grid, err := DayGrid(monday, rules, nil, 60*time.Minute, 0)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	if len(grid) != 1 || !grid[0].Available || grid[0].Time != "09:00" {
		t.Fatalf("grid = %+v, want single available 09:00", grid)
	}
}

func TestDayGridOutOfGridTail(t *testing.T) {
	rules := []Rule{gridRule(1 << time.Monday, 9*60, 11*60)}

	// 60-minute service on a 30-minute company step: 10:30 cannot fit.
	grid, err := DayGrid(monday, rules, nil, 60*time.Minute, 30*time.Minute)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	last := grid[len(grid)-1]
	if last.Time != "10:30" || last.Available || last.Reason != ReasonOutOfGrid {
		t.Fatalf("last slot = %+v, want 10:30 out-of-grid", last)
	}
	if got := times(AvailableSlots(grid)); len(got) != 4 {
		t.Fatalf("available = %v, want 4 slots 09:00..10:00", got)
	}
}

func TestDayGridBusyUsesBookingDuration(t *testing.T) {
	rules := []Rule{gridRule(1 << time.Monday, 9*60, 12*60)}
	bookings := []Booking{
		{StartAt: at(9, 0), DurationMinutes: 90},          // occupies 09:00-10:30
		{StartAt: at(11, 0), DurationMinutes: 60, Cancelled: true}, // freed
	}

	grid, err := DayGrid(monday, rules, bookings, 30*time.Minute, 0)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	byTime := map[string]Slot{}
	for _, s := range grid {
		byTime[s.Time] = s
	}
	for _, tm := range []string{"09:00", "09:30", "10:00"} {
		if s := byTime[tm]; s.Available || s.Reason != ReasonBusy {
			t.Fatalf("%s = %+v, want busy", tm, s)
		}
	}
	for _, tm := range []string{"10:30", "11:00", "11:30"} {
		if !byTime[tm].Available {
			t.Fatalf("%s unavailable (%s), want available", tm, byTime[tm].Reason)
		}
	}
}

func TestDayGridReleasedAndBlockedCombine(t *testing.T) {
	rules := []Rule{
		gridRule(1 << time.Monday, 9*60, 10*60),
		{Kind: RuleReleased, StartAt: at(14, 0), EndAt: at(15, 0)},
		{Kind: RuleBlocked, StartAt: at(14, 30), EndAt: at(15, 0)},
	}

	grid, err := DayGrid(monday, rules, nil, 30*time.Minute, 0)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	got := times(AvailableSlots(grid))
	want := []string{"09:00", "09:30", "14:00"}
	if len(got) != len(want) {
		t.Fatalf("available = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("slot %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDayGridOffDayIsEmpty(t *testing.T) {
	rules := []Rule{gridRule(1 << time.Monday, 9*60, 17*60)} // Mondays only
	tuesday := monday.AddDate(0, 0, 1)

	grid, err := DayGrid(tuesday, rules, nil, 30*time.Minute, 0)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	if len(grid) != 0 {
		t.Fatalf("grid = %v, want empty", times(grid))
	}
}

func TestDayGridDeterministic(t *testing.T) {
	rules := []Rule{
		gridRule(0b00111110, 8*60, 18*60),
		{Kind: RuleBlocked, StartAt: at(12, 0), EndAt: at(13, 0)},
	}
	bookings := []Booking{{StartAt: at(9, 0), DurationMinutes: 45}}

	first, err := DayGrid(monday, rules, bookings, 45*time.Minute, 15*time.Minute)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	second, err := DayGrid(monday, rules, bookings, 45*time.Minute, 15*time.Minute)
	if err != nil {
		t.Fatalf("DayGrid: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("slot %d differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestDayGridInvalidDuration(t *testing.T) {
	rules := []Rule{gridRule(1 << time.Monday, 9*60, 17*60)}
	for _, d := range []time.Duration{0, -30 * time.Minute} {
		if _, err := DayGrid(monday, rules, nil, d, 0); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("duration %s: err = %v, want ErrInvalidDuration", d, err)
		}
	}
}

func TestDayGridInvalidRule(t *testing.T) {
	bad := []Rule{
		{Kind: RuleGrid, Weekdays: 0, StartMinute: 9 * 60, EndMinute: 17 * 60},
		{Kind: RuleGrid, Weekdays: 1 << time.Monday, StartMinute: 17 * 60, EndMinute: 9 * 60},
		{Kind: RuleReleased, StartAt: at(15, 0), EndAt: at(14, 0)},
		{Kind: "holiday"},
	}
	for i, r := range bad {
		if _, err := DayGrid(monday, []Rule{r}, nil, 30*time.Minute, 0); !errors.Is(err, ErrInvalidRule) {
			t.Fatalf("rule %d: err = %v, want ErrInvalidRule", i, err)
		}
	}
}

func TestParseDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		t.Fatalf("LoadLocation: %v", err)
	}
	day, err := ParseDay("2025-06-02", loc)
	if err != nil {
		t.Fatalf("ParseDay: %v", err)
	}
	if day.Hour() != 0 || day.Location() != loc || day.Day() != 2 {
		t.Fatalf("day = %v, want midnight June 2 in %v", day, loc)
	}
	if _, err := ParseDay("02/06/2025", loc); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("err = %v, want ErrInvalidDate", err)
	}
}

func TestDayWindowsMergesAndSubtracts(t *testing.T) {
	rules := []Rule{
		gridRule(1 << time.Monday, 9*60, 12*60),
		{Kind: RuleReleased, StartAt: at(11, 0), EndAt: at(13, 0)}, // touches grid window
		{Kind: RuleBlocked, StartAt: at(10, 0), EndAt: at(10, 30)},
	}
	windows, err := DayWindows(monday, rules)
	if err != nil {
		t.Fatalf("DayWindows: %v", err)
	}
	want := []Interval{
		{Start: at(9, 0), End: at(10, 0)},
		{Start: at(10, 30), End: at(13, 0)},
	}
	if len(windows) != len(want) {
		t.Fatalf("windows = %v, want %v", windows, want)
	}
	for i := range want {
		if !windows[i].Start.Equal(want[i].Start) || !windows[i].End.Equal(want[i].End) {
			t.Fatalf("window %d = %v, want %v", i, windows[i], want[i])
		}
	}
}
