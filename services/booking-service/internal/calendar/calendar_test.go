package calendar

import (
	"testing"
	"time"
)

func TestMonthGridShape(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	cells := MonthGrid(2025, time.June, now)
	if len(cells) != MonthCells {
		t.Fatalf("len = %d, want %d", len(cells), MonthCells)
	}
	if cells[0].Date.Weekday() != time.Sunday {
		t.Fatalf("first cell weekday = %v, want Sunday", cells[0].Date.Weekday())
	}
	if cells[len(cells)-1].Date.Weekday() != time.Saturday {
		t.Fatalf("last cell weekday = %v, want Saturday", cells[len(cells)-1].Date.Weekday())
	}

	// June 2025 starts on a Sunday, so the grid opens on June 1.
	if !cells[0].InMonth || cells[0].Date.Day() != 1 {
		t.Fatalf("first cell = %+v, want June 1 in month", cells[0])
	}
	inMonth := 0
	todays := 0
	for _, c := range cells {
		if c.InMonth {
			inMonth++
		}
		if c.Today {
			todays++
		}
	}
	if inMonth != 30 {
		t.Fatalf("in-month cells = %d, want 30", inMonth)
	}
	if todays != 1 {
		t.Fatalf("today cells = %d, want 1", todays)
	}
}

func TestMonthGridLeadingTrailingCells(t *testing.T) {
	now := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	cells := MonthGrid(2025, time.August, now)
	if len(cells) != MonthCells {
		t.Fatalf("len = %d, want %d", len(cells), MonthCells)
	}
	// August 2025 starts on a Friday: five July cells lead the grid.
	for i := 0; i < 5; i++ {
		if cells[i].InMonth || cells[i].Date.Month() != time.July {
			t.Fatalf("cell %d = %+v, want trailing July day", i, cells[i])
		}
	}
	if !cells[5].InMonth || cells[5].Date.Day() != 1 {
		t.Fatalf("cell 5 = %+v, want August 1", cells[5])
	}
	last := cells[len(cells)-1]
	if last.InMonth || last.Date.Month() != time.September {
		t.Fatalf("last cell = %+v, want leading September day", last)
	}
}

func TestMonthGridNormalizesOverflow(t *testing.T) {
	now := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	rolled := MonthGrid(2025, time.Month(13), now)
	direct := MonthGrid(2026, time.January, now)
	for i := range direct {
		if !rolled[i].Date.Equal(direct[i].Date) || rolled[i].InMonth != direct[i].InMonth {
			t.Fatalf("cell %d: rolled %+v, direct %+v", i, rolled[i], direct[i])
		}
	}
}

func TestWeekGrid(t *testing.T) {
	ref := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC) // a Wednesday
	cells := WeekGrid(ref, ref)
	if len(cells) != 7 {
		t.Fatalf("len = %d, want 7", len(cells))
	}
	if cells[0].Date.Weekday() != time.Sunday || cells[0].Date.Day() != 1 {
		t.Fatalf("first cell = %+v, want Sunday June 1", cells[0])
	}
	if cells[6].Date.Weekday() != time.Saturday || cells[6].Date.Day() != 7 {
		t.Fatalf("last cell = %+v, want Saturday June 7", cells[6])
	}
	if !cells[3].Today {
		t.Fatalf("cell 3 = %+v, want today", cells[3])
	}
	for i, c := range cells {
		if !c.InMonth {
			t.Fatalf("cell %d not in month", i)
		}
		if c.Date.Hour() != 0 {
			t.Fatalf("cell %d not at midnight: %v", i, c.Date)
		}
	}
}

func TestStartOfWeekKeepsTimeOfDay(t *testing.T) {
	d := time.Date(2025, 6, 4, 15, 30, 0, 0, time.UTC)
	got := StartOfWeek(d)
	if got.Weekday() != time.Sunday || got.Day() != 1 {
		t.Fatalf("start of week = %v, want Sunday June 1", got)
	}
	if got.Hour() != 15 || got.Minute() != 30 {
		t.Fatalf("time of day changed: %v", got)
	}
	sunday := time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
	if !StartOfWeek(sunday).Equal(sunday) {
		t.Fatalf("Sunday input must be returned unchanged")
	}
}

func TestSameDay(t *testing.T) {
	a := time.Date(2025, 6, 2, 23, 59, 0, 0, time.UTC)
	b := time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC)
	if !SameDay(a, b) {
		t.Fatalf("same local day must match")
	}
	if SameDay(a, b.AddDate(0, 0, 1)) {
		t.Fatalf("different days must not match")
	}
	if SameDay(a, b.AddDate(1, 0, 0)) {
		t.Fatalf("same month/day in another year must not match")
	}
}

func TestDayTimelineDefaults(t *testing.T) {
	var labels []string
	for label := range DayTimeline(0, -1, 0) {
		labels = append(labels, label)
	}
	if len(labels) != 33 {
		t.Fatalf("len = %d, want 33 half-hour marks 06:00..22:00", len(labels))
	}
	if labels[0] != "06:00" || labels[1] != "06:30" || labels[len(labels)-1] != "22:00" {
		t.Fatalf("labels = %v..%v", labels[0], labels[len(labels)-1])
	}
}

func TestDayTimelineRestartable(t *testing.T) {
	seq := DayTimeline(60, 8, 10)
	for pass := 0; pass < 2; pass++ {
		var labels []string
		for label := range seq {
			labels = append(labels, label)
		}
		want := []string{"08:00", "09:00", "10:00"}
		if len(labels) != len(want) {
			t.Fatalf("pass %d: labels = %v, want %v", pass, labels, want)
		}
		for i := range want {
			if labels[i] != want[i] {
				t.Fatalf("pass %d: labels[%d] = %s, want %s", pass, i, labels[i], want[i])
			}
		}
	}
}

func TestDayTimelineEarlyBreak(t *testing.T) {
	count := 0
	for range DayTimeline(30, 6, 22) {
		count++
		if count == 3 {
			break
		}
	}
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}
