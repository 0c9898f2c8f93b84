package model

import "time"

// Status is the appointment lifecycle state.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusConfirmed  Status = "confirmed"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Occupies reports whether the appointment still holds its calendar time.
// Only cancellation frees the slot; completed appointments are in the past
// and keep their interval for history.
func (s Status) Occupies() bool {
	return s != StatusCancelled
}

// CanTransition reports whether next is a legal step from s. The forward
// path is scheduled, confirmed, in_progress, completed; cancellation is
// allowed until service starts.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusScheduled:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusInProgress || next == StatusCancelled
	case StatusInProgress:
		return next == StatusCompleted
	default:
		return false
	}
}

type Appointment struct {
	ID              string
	CompanyID       string
	ProfessionalID  string
	ServiceID       string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	StartAt         time.Time
	DurationMinutes int
	Status          Status
	Note            string
	CancelledAt     *time.Time
	CancelReason    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EndAt derives the exclusive end of the appointment from its own duration.
func (a Appointment) EndAt() time.Time {
	return a.StartAt.Add(time.Duration(a.DurationMinutes) * time.Minute)
}
