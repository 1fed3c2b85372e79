package model

import "time"

// Role enumerates the account roles understood by the platform.  The
// value stored in the database and embedded in tokens is the raw
// string form; authorization checks compare against these exact
// values, without any prefixing convention.
type Role string

const (
	RoleTenant          Role = "TENANT"
	RolePropertyManager Role = "PROPERTY_MANAGER"
	RoleBuildingOwner   Role = "BUILDING_OWNER"
)

// ValidRole reports whether s names one of the defined roles.
func ValidRole(s string) bool {
	switch Role(s) {
	case RoleTenant, RolePropertyManager, RoleBuildingOwner:
		return true
	}
	return false
}

// AccountStatus enumerates account lifecycle states.  The only
// permitted transitions are PENDING→ACTIVE (once both email and
// phone are verified) and ACTIVE→SUSPENDED/DEACTIVATED by an
// administrator.  Users are never hard-deleted.
type AccountStatus string

const (
	StatusPending     AccountStatus = "PENDING"
	StatusActive      AccountStatus = "ACTIVE"
	StatusSuspended   AccountStatus = "SUSPENDED"
	StatusDeactivated AccountStatus = "DEACTIVATED"
)

// User represents an account record as stored in the `users` table.
// Each field corresponds to a column.  The json tags are omitted
// because these structs are used internally by the repository layer;
// handlers define separate response types with appropriate tags.
//
// Fields:
//  ID                  – primary key identifier of the user.
//  Email               – unique email address, stored lowercase.
//  Phone               – unique phone number in E.164 form.
//  PasswordHash        – bcrypt hashed password.
//  Role                – immutable role assigned at registration.
//  Status              – account lifecycle state.
//  EmailVerified       – whether the email address was confirmed.
//  PhoneVerified       – whether the phone number was confirmed.
//  FailedLoginAttempts – consecutive failed login counter.
//  LockedUntil         – end of the current lockout window (null when unlocked).
//  LastLoginAt         – timestamp of the last successful login (nullable).
//  CreatedAt           – timestamp of creation.
//  UpdatedAt           – timestamp of last update.
type User struct {
	ID                  uint64        // users.id
	Email               string        // users.email
	Phone               string        // users.phone
	PasswordHash        string        // users.password_hash
	Role                Role          // users.role
	Status              AccountStatus // users.status
	EmailVerified       bool          // users.email_verified
	PhoneVerified       bool          // users.phone_verified
	FailedLoginAttempts int           // users.failed_login_attempts
	LockedUntil         *time.Time    // users.locked_until (nullable)
	LastLoginAt         *time.Time    // users.last_login_at (nullable)
	CreatedAt           time.Time     // users.created_at
	UpdatedAt           time.Time     // users.updated_at
}

// Locked reports whether the account is inside an active lockout
// window at the given instant.  Expiry is evaluated lazily; there is
// no background timer clearing the column.
func (u *User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}
