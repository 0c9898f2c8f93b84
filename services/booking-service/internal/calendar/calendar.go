// Package calendar builds the date grids and time rulers the booking UI
// renders: 6x7 month grids, week strips and the daily time axis.
package calendar

import (
	"fmt"
	"iter"
	"time"
)

// MonthCells is the fixed size of a month grid: six rows of seven days.
const MonthCells = 42

// Cell is one day in a month or week grid.
type Cell struct {
	Date    time.Time
	InMonth bool
	Today   bool
	Weekend bool
}

// StartOfWeek returns the Sunday at or before d, keeping d's time of day.
func StartOfWeek(d time.Time) time.Time {
	return d.AddDate(0, 0, -int(d.Weekday()))
}

func midnight(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// SameDay reports whether a and b fall on the same calendar day. Both are
// read in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// MonthGrid builds the 42-cell grid for the given month: the weeks start on
// Sunday, leading and trailing cells come from the adjacent months and are
// flagged InMonth=false. Out-of-range months normalize by rolling over, so
// month 13 of 2025 is January 2026. now marks the Today cell and supplies
// the location.
func MonthGrid(year int, month time.Month, now time.Time) []Cell {
	first := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	cursor := StartOfWeek(first)

	cells := make([]Cell, 0, MonthCells)
	for len(cells) < MonthCells {
		cells = append(cells, Cell{
			Date:    cursor,
			InMonth: cursor.Month() == first.Month() && cursor.Year() == first.Year(),
			Today:   SameDay(cursor, now),
			Weekend: cursor.Weekday() == time.Sunday || cursor.Weekday() == time.Saturday,
		})
		cursor = cursor.AddDate(0, 0, 1)
	}
	return cells
}

// WeekGrid builds the seven-cell Sunday-first strip containing ref. Every
// cell is InMonth regardless of month boundaries.
func WeekGrid(ref, now time.Time) []Cell {
	cursor := StartOfWeek(midnight(ref))
	cells := make([]Cell, 0, 7)
	for i := 0; i < 7; i++ {
		cells = append(cells, Cell{
			Date:    cursor,
			InMonth: true,
			Today:   SameDay(cursor, now),
			Weekend: cursor.Weekday() == time.Sunday || cursor.Weekday() == time.Saturday,
		})
		cursor = cursor.AddDate(0, 0, 1)
	}
	return cells
}

// DayTimeline yields the "HH:MM" labels of the daily time axis from
// startHour through endHour inclusive, stepMinutes apart. The sequence is
// finite and restartable: each range statement walks it from the top.
// Non-positive or out-of-range arguments fall back to the 06:00..22:00
// half-hour ruler.
func DayTimeline(stepMinutes, startHour, endHour int) iter.Seq[string] {
	if stepMinutes <= 0 {
		stepMinutes = 30
	}
	if startHour < 0 || startHour > 23 {
		startHour = 6
	}
	if endHour <= startHour || endHour > 23 {
		endHour = 22
	}
	return func(yield func(string) bool) {
		for m := startHour * 60; m <= endHour*60; m += stepMinutes {
			if !yield(fmt.Sprintf("%02d:%02d", m/60, m%60)) {
				return
			}
		}
	}
}
