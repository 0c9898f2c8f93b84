package storage

import (
	"context"
	"time"

	"github.com/agendasim/agendasim/libs/db"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type Repository struct {
	pool *db.Pool
}

func NewRepository(pool *db.Pool) *Repository {
	return &Repository{pool: pool}
}

type CompanyProfile struct {
	CompanyID    string
	Name         string
	Slug         string
	Timezone     string
	SlotStepMins int
	OffsetsMins  []int
}

func (r *Repository) GetOrCreateProfile(ctx context.Context, companyID string) (CompanyProfile, error) {
	// Create a default profile if missing (keeps dev UX smooth while other
	// services mature).
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_profiles (company_id)
		VALUES ($1)
		ON CONFLICT (company_id) DO NOTHING
	`, companyID)
	if err != nil {
		return CompanyProfile{}, err
	}

	var p CompanyProfile
	err = r.pool.QueryRow(ctx, `
		SELECT company_id::text, name, COALESCE(booking_slug, ''), timezone, slot_step_minutes, reminder_offsets_minutes
		FROM company_profiles
		WHERE company_id = $1
	`, companyID).Scan(&p.CompanyID, &p.Name, &p.Slug, &p.Timezone, &p.SlotStepMins, &p.OffsetsMins)
	return p, err
}

func (r *Repository) GetProfileBySlug(ctx context.Context, slug string) (CompanyProfile, error) {
	var p CompanyProfile
	err := r.pool.QueryRow(ctx, `
		SELECT company_id::text, name, COALESCE(booking_slug, ''), timezone, slot_step_minutes, reminder_offsets_minutes
		FROM company_profiles
		WHERE booking_slug = $1
	`, slug).Scan(&p.CompanyID, &p.Name, &p.Slug, &p.Timezone, &p.SlotStepMins, &p.OffsetsMins)
	return p, err
}

func (r *Repository) UpdateProfile(ctx context.Context, p CompanyProfile) error {
	if len(p.OffsetsMins) == 0 {
		p.OffsetsMins = []int{1440, 60}
	}
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_profiles (company_id, name, booking_slug, timezone, slot_step_minutes, reminder_offsets_minutes)
		VALUES ($1, $2, NULLIF($3, ''), $4, $5, $6)
		ON CONFLICT (company_id) DO UPDATE
		SET name = EXCLUDED.name,
			booking_slug = EXCLUDED.booking_slug,
			timezone = EXCLUDED.timezone,
			slot_step_minutes = EXCLUDED.slot_step_minutes,
			reminder_offsets_minutes = EXCLUDED.reminder_offsets_minutes,
			updated_at = now()
	`, p.CompanyID, p.Name, p.Slug, p.Timezone, p.SlotStepMins, p.OffsetsMins)
	return err
}

type Service struct {
	ID           string
	CompanyID    string
	Name         string
	DurationMins int
	Price        string
	Description  string
	CreatedAt    time.Time
}

func (r *Repository) CreateService(ctx context.Context, companyID, name string, durationMinutes int, price string, description string) (string, error) {
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO company_services (id, company_id, name, duration_minutes, price, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, id, companyID, name, durationMinutes, price, description)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListServices(ctx context.Context, companyID string, limit int) ([]Service, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, company_id::text, name, duration_minutes, price::text, description, created_at
		FROM company_services
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.CompanyID, &s.Name, &s.DurationMins, &s.Price, &s.Description, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) GetServiceDuration(ctx context.Context, companyID, serviceID string) (int, error) {
	var mins int
	err := r.pool.QueryRow(ctx, `
		SELECT duration_minutes
		FROM company_services
		WHERE company_id = $1 AND id = $2
	`, companyID, serviceID).Scan(&mins)
	return mins, err
}

type Professional struct {
	ID        string
	CompanyID string
	Name      string
	IsActive  bool
}

// CreateProfessional inserts the professional and seeds a weekday office
// grid rule (Mon-Fri 09:00-17:00) so the agenda is bookable out of the box.
func (r *Repository) CreateProfessional(ctx context.Context, companyID, name string, isActive bool) (string, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id string
	err = tx.QueryRow(ctx, `
		INSERT INTO professionals (company_id, name, is_active)
		VALUES ($1, $2, $3)
		RETURNING id::text
	`, companyID, name, isActive).Scan(&id)
	if err != nil {
		return "", err
	}

	// Weekday mask bit 0 = Sunday; Mon-Fri is 0b0111110 = 62.
	if _, err := tx.Exec(ctx, `
		INSERT INTO availability_rules (id, professional_id, kind, weekdays, start_minute, end_minute)
		VALUES ($1, $2, 'grid', 62, 540, 1020)
	`, uuid.NewString(), id); err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListProfessionals(ctx context.Context, companyID string, limit int) ([]Professional, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id::text, company_id::text, name, is_active
		FROM professionals
		WHERE company_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, companyID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Professional
	for rows.Next() {
		var p Professional
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.Name, &p.IsActive); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) GetProfessional(ctx context.Context, companyID, professionalID string) (Professional, error) {
	var p Professional
	err := r.pool.QueryRow(ctx, `
		SELECT id::text, company_id::text, name, is_active
		FROM professionals
		WHERE company_id = $1 AND id = $2
	`, companyID, professionalID).Scan(&p.ID, &p.CompanyID, &p.Name, &p.IsActive)
	return p, err
}

// AvailabilityRule is one stored agenda entry. Grid rules use the weekday
// mask and minute offsets; released and blocked rules use StartAt/EndAt.
type AvailabilityRule struct {
	ID             string
	ProfessionalID string
	Kind           string
	Weekdays       int
	StartMinute    int
	EndMinute      int
	StartAt        *time.Time
	EndAt          *time.Time
	Note           string
	CreatedAt      time.Time
}

func (r *Repository) CreateRule(ctx context.Context, companyID string, rule AvailabilityRule) (string, error) {
	var exists bool
	if err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM professionals WHERE id = $1 AND company_id = $2
		)
	`, rule.ProfessionalID, companyID).Scan(&exists); err != nil {
		return "", err
	}
	if !exists {
		return "", pgx.ErrNoRows
	}

	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO availability_rules (id, professional_id, kind, weekdays, start_minute, end_minute, start_at, end_at, note)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, rule.ProfessionalID, rule.Kind, rule.Weekdays, rule.StartMinute, rule.EndMinute, rule.StartAt, rule.EndAt, rule.Note)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (r *Repository) ListRules(ctx context.Context, companyID, professionalID string) ([]AvailabilityRule, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id::text, a.professional_id::text, a.kind, a.weekdays, a.start_minute, a.end_minute,
			a.start_at, a.end_at, COALESCE(a.note, ''), a.created_at
		FROM availability_rules a
		JOIN professionals p ON p.id = a.professional_id
		WHERE p.company_id = $1 AND a.professional_id = $2
		ORDER BY a.created_at ASC
	`, companyID, professionalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AvailabilityRule
	for rows.Next() {
		var rule AvailabilityRule
		if err := rows.Scan(&rule.ID, &rule.ProfessionalID, &rule.Kind, &rule.Weekdays, &rule.StartMinute, &rule.EndMinute,
			&rule.StartAt, &rule.EndAt, &rule.Note, &rule.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return out, nil
}

func (r *Repository) DeleteRule(ctx context.Context, companyID, ruleID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM availability_rules a
		USING professionals p
		WHERE a.professional_id = p.id
		  AND p.company_id = $1
		  AND a.id = $2
	`, companyID, ruleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
