package storage

import (
	"context"
	"errors"
	"time"

	"github.com/agendasim/agendasim/libs/db"
	"github.com/agendasim/agendasim/services/booking-service/internal/model"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const appointmentColumns = `id, company_id, professional_id, service_id,
	customer_name, customer_email, customer_phone,
	start_at, duration_minutes, status, COALESCE(note, ''),
	cancelled_at, COALESCE(cancellation_reason, ''), created_at, updated_at`

type BookingRepository struct {
	pool *db.Pool
}

type IdempotencyRecord struct {
	CompanyID       string
	IdempotencyKey  string
	AppointmentID   string
	StatusCode      int
	ResponsePayload []byte
}

func NewBookingRepository(pool *db.Pool) *BookingRepository {
	return &BookingRepository{pool: pool}
}

func (r *BookingRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	return r.pool.Begin(ctx)
}

func (r *BookingRepository) LockIdempotencyKey(ctx context.Context, tx pgx.Tx, companyID, key string) (IdempotencyRecord, bool, error) {
	rec, err := r.selectIdempotencyForUpdate(ctx, tx, companyID, key)
	if err == nil {
		return rec, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return IdempotencyRecord{}, false, err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO booking_idempotency_keys (company_id, idempotency_key)
		VALUES ($1, $2)
		ON CONFLICT (company_id, idempotency_key) DO NOTHING
	`, companyID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}

	rec, err = r.selectIdempotencyForUpdate(ctx, tx, companyID, key)
	if err != nil {
		return IdempotencyRecord{}, false, err
	}
	return rec, false, nil
}

func (r *BookingRepository) FinalizeIdempotency(ctx context.Context, tx pgx.Tx, companyID, key, appointmentID string, statusCode int, response []byte) error {
	_, err := tx.Exec(ctx, `
		UPDATE booking_idempotency_keys
		SET appointment_id = $3,
			status_code = $4,
			response_payload = $5,
			updated_at = now()
		WHERE company_id = $1 AND idempotency_key = $2
	`, companyID, key, appointmentID, statusCode, response)
	return err
}

func (r *BookingRepository) Create(ctx context.Context, tx pgx.Tx, appt *model.Appointment) (string, error) {
	var id string
	err := tx.QueryRow(ctx, `
		INSERT INTO appointments
			(company_id, professional_id, service_id, customer_name, customer_email, customer_phone,
			 start_at, duration_minutes, status, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id
	`, appt.CompanyID, appt.ProfessionalID, appt.ServiceID, appt.CustomerName, appt.CustomerEmail,
		appt.CustomerPhone, appt.StartAt, appt.DurationMinutes, appt.Status, appt.Note).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *BookingRepository) GetAppointmentForUpdate(ctx context.Context, tx pgx.Tx, companyID, appointmentID string) (model.Appointment, error) {
	row := tx.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1 AND company_id = $2
		FOR UPDATE
	`, appointmentID, companyID)
	return scanAppointment(row)
}

// SetStatus advances the lifecycle state. The transition itself is validated
// by the caller under FOR UPDATE.
func (r *BookingRepository) SetStatus(ctx context.Context, tx pgx.Tx, companyID, appointmentID string, status model.Status) (time.Time, error) {
	var updatedAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = $3,
			updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING updated_at
	`, appointmentID, companyID, status).Scan(&updatedAt)
	return updatedAt, err
}

func (r *BookingRepository) CancelAppointment(ctx context.Context, tx pgx.Tx, companyID, appointmentID, reason string) (time.Time, error) {
	var cancelledAt time.Time
	err := tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'cancelled',
			cancelled_at = now(),
			cancellation_reason = $3,
			updated_at = now()
		WHERE id = $1 AND company_id = $2
		RETURNING cancelled_at
	`, appointmentID, companyID, reason).Scan(&cancelledAt)
	return cancelledAt, err
}

// ListActiveAppointments returns the professional's non-cancelled
// appointments whose own duration-derived interval touches [start, end).
func (r *BookingRepository) ListActiveAppointments(ctx context.Context, companyID, professionalID string, start, end time.Time) ([]model.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE company_id = $1
			AND professional_id = $2
			AND status <> 'cancelled'
			AND start_at < $4
			AND start_at + make_interval(mins => duration_minutes) > $3
		ORDER BY start_at ASC
	`, companyID, professionalID, start, end)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

func (r *BookingRepository) ListByCompany(ctx context.Context, companyID string, limit int) ([]model.Appointment, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE company_id = $1
		ORDER BY start_at DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	return collectAppointments(rows)
}

// CountActiveByDay buckets the company's non-cancelled appointments by
// calendar day in the given timezone, for [start, end).
func (r *BookingRepository) CountActiveByDay(ctx context.Context, companyID string, start, end time.Time, timezone string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT to_char(start_at AT TIME ZONE $4, 'YYYY-MM-DD') AS day, COUNT(*)
		FROM appointments
		WHERE company_id = $1
			AND status <> 'cancelled'
			AND start_at >= $2
			AND start_at < $3
		GROUP BY day
	`, companyID, start, end, timezone)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var day string
		var n int
		if err := rows.Scan(&day, &n); err != nil {
			return nil, err
		}
		counts[day] = n
	}
	return counts, rows.Err()
}

func IsConflict(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23P01"
}

func IsNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

func scanAppointment(row pgx.Row) (model.Appointment, error) {
	var appt model.Appointment
	var cancelledAt *time.Time
	err := row.Scan(
		&appt.ID,
		&appt.CompanyID,
		&appt.ProfessionalID,
		&appt.ServiceID,
		&appt.CustomerName,
		&appt.CustomerEmail,
		&appt.CustomerPhone,
		&appt.StartAt,
		&appt.DurationMinutes,
		&appt.Status,
		&appt.Note,
		&cancelledAt,
		&appt.CancelReason,
		&appt.CreatedAt,
		&appt.UpdatedAt,
	)
	if err != nil {
		return model.Appointment{}, err
	}
	appt.CancelledAt = cancelledAt
	return appt, nil
}

func collectAppointments(rows pgx.Rows) ([]model.Appointment, error) {
	defer rows.Close()
	var appts []model.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		appts = append(appts, appt)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return appts, nil
}

func (r *BookingRepository) selectIdempotencyForUpdate(ctx context.Context, tx pgx.Tx, companyID, key string) (IdempotencyRecord, error) {
	var rec IdempotencyRecord
	var responseText string
	err := tx.QueryRow(ctx, `
		SELECT company_id::text,
			idempotency_key,
			COALESCE(appointment_id::text, ''),
			COALESCE(status_code, 0),
			COALESCE(response_payload::text, '')
		FROM booking_idempotency_keys
		WHERE company_id = $1 AND idempotency_key = $2
		FOR UPDATE
	`, companyID, key).Scan(
		&rec.CompanyID,
		&rec.IdempotencyKey,
		&rec.AppointmentID,
		&rec.StatusCode,
		&responseText,
	)
	if err != nil {
		return IdempotencyRecord{}, err
	}
	if responseText != "" {
		rec.ResponsePayload = []byte(responseText)
	}
	return rec, nil
}
