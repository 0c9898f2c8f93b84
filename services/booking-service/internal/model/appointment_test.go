package model

import (
	"testing"
	"time"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[Status][]Status{
		StatusScheduled:  {StatusConfirmed, StatusCancelled},
		StatusConfirmed:  {StatusInProgress, StatusCancelled},
		StatusInProgress: {StatusCompleted},
		StatusCompleted:  {},
		StatusCancelled:  {},
	}
	all := []Status{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted, StatusCancelled}

	for from, nexts := range allowed {
		ok := map[Status]bool{}
		for _, n := range nexts {
			ok[n] = true
		}
		for _, to := range all {
			if got := from.CanTransition(to); got != ok[to] {
				t.Fatalf("%s -> %s = %v, want %v", from, to, got, ok[to])
			}
		}
	}
}

func TestStatusOccupies(t *testing.T) {
	for _, s := range []Status{StatusScheduled, StatusConfirmed, StatusInProgress, StatusCompleted} {
		if !s.Occupies() {
			t.Fatalf("%s must occupy its slot", s)
		}
	}
	if StatusCancelled.Occupies() {
		t.Fatalf("cancelled must free its slot")
	}
}

func TestAppointmentEndAt(t *testing.T) {
	appt := Appointment{
		StartAt:         time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC),
		DurationMinutes: 45,
	}
	want := time.Date(2025, 6, 2, 9, 45, 0, 0, time.UTC)
	if !appt.EndAt().Equal(want) {
		t.Fatalf("EndAt = %v, want %v", appt.EndAt(), want)
	}
}
