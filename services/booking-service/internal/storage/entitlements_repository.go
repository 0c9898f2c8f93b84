package storage

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// CompanyEntitlements is the billing-owned limit cache booking consults
// before accepting a new appointment. Rows arrive via subscription events.
type CompanyEntitlements struct {
	CompanyID              string
	Tier                   string
	MaxMonthlyAppointments int
	UpdatedAt              time.Time
}

func (r *BookingRepository) UpsertCompanyEntitlements(ctx context.Context, tx pgx.Tx, ent CompanyEntitlements) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO company_entitlements (company_id, tier, max_monthly_appointments)
		VALUES ($1, $2, $3)
		ON CONFLICT (company_id)
		DO UPDATE SET tier = EXCLUDED.tier,
		              max_monthly_appointments = EXCLUDED.max_monthly_appointments,
		              updated_at = now()
	`, ent.CompanyID, ent.Tier, ent.MaxMonthlyAppointments)
	return err
}

func (r *BookingRepository) GetCompanyEntitlements(ctx context.Context, tx pgx.Tx, companyID string) (CompanyEntitlements, bool, error) {
	var ent CompanyEntitlements
	err := tx.QueryRow(ctx, `
		SELECT company_id::text, tier, max_monthly_appointments, updated_at
		FROM company_entitlements
		WHERE company_id = $1
	`, companyID).Scan(&ent.CompanyID, &ent.Tier, &ent.MaxMonthlyAppointments, &ent.UpdatedAt)
	if err != nil {
		if IsNotFound(err) {
			return CompanyEntitlements{}, false, nil
		}
		return CompanyEntitlements{}, false, err
	}
	return ent, true, nil
}

// CountActiveInRange counts the appointments that consume the monthly quota:
// everything not cancelled with a start inside [startInclusive, endExclusive).
func (r *BookingRepository) CountActiveInRange(ctx context.Context, tx pgx.Tx, companyID string, startInclusive, endExclusive time.Time) (int, error) {
	var cnt int
	err := tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM appointments
		WHERE company_id = $1
		  AND status <> 'cancelled'
		  AND start_at >= $2
		  AND start_at < $3
	`, companyID, startInclusive, endExclusive).Scan(&cnt)
	return cnt, err
}
