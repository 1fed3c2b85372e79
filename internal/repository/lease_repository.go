package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roofline/roofline-backend/internal/model"
)

// LeaseRepo reads lease records.  The auth core only needs enough of
// the lease to certify the payable amount; lease bookkeeping itself
// lives elsewhere.
type LeaseRepo struct{ DB *sql.DB }

func NewLeaseRepo(db *sql.DB) *LeaseRepo { return &LeaseRepo{DB: db} }

// GetByID fetches a lease by id.
func (r *LeaseRepo) GetByID(ctx context.Context, id uint64) (model.Lease, error) {
	var (
		l      model.Lease
		endsAt sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, property_id, apartment_id, tenant_id, rent_cents, late_charge_cents, status, starts_at, ends_at, created_at
		 FROM leases WHERE id=? LIMIT 1`, id).
		Scan(&l.ID, &l.PropertyID, &l.ApartmentID, &l.TenantID, &l.RentCents,
			&l.LateChargeCents, &l.Status, &l.StartsAt, &endsAt, &l.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Lease{}, ErrNotFound
		}
		return model.Lease{}, err
	}
	if endsAt.Valid {
		t := endsAt.Time
		l.EndsAt = &t
	}
	return l, nil
}
