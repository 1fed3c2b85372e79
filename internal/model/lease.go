package model

import "time"

// Lease records a tenancy on an apartment within a managed property.
// Monetary columns are stored as integer cents to keep arithmetic
// exact; rendering as a decimal string happens at the API boundary.
//
// Fields:
//  ID              – primary key identifier.
//  PropertyID      – property the leased apartment belongs to.
//  ApartmentID     – the leased apartment.
//  TenantID        – user holding the lease (role TENANT).
//  RentCents       – monthly rent in cents.
//  LateChargeCents – accumulated late charges in cents.
//  Status          – lease state (ACTIVE, ENDED).
//  StartsAt        – first day of the tenancy.
//  EndsAt          – last day of the tenancy (nullable for open-ended).
//  CreatedAt       – timestamp of creation.
type Lease struct {
	ID              uint64     // leases.id
	PropertyID      uint64     // leases.property_id
	ApartmentID     uint64     // leases.apartment_id
	TenantID        uint64     // leases.tenant_id
	RentCents       int64      // leases.rent_cents
	LateChargeCents int64      // leases.late_charge_cents
	Status          string     // leases.status
	StartsAt        time.Time  // leases.starts_at
	EndsAt          *time.Time // leases.ends_at (nullable)
	CreatedAt       time.Time  // leases.created_at
}

// TotalPayableCents is the authoritative amount currently due on the
// lease: rent plus late charges.  Downstream services must use this
// figure and never a client-supplied amount.
func (l *Lease) TotalPayableCents() int64 {
	return l.RentCents + l.LateChargeCents
}

// Property is a managed building owned by a BUILDING_OWNER and
// operated by a PROPERTY_MANAGER.
type Property struct {
	ID        uint64    // properties.id
	OwnerID   uint64    // properties.owner_id
	ManagerID uint64    // properties.manager_id
	Name      string    // properties.name
	Address   string    // properties.address
	CreatedAt time.Time // properties.created_at
}
