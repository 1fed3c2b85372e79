package auth

import (
	"errors"
	"time"

	"github.com/roofline/roofline-backend/internal/model"
)

// Account-state failures surfaced by the login and refresh paths.
// Invalid identifier and invalid password deliberately collapse into
// ErrInvalidCredentials so callers cannot enumerate accounts.
var (
	// ErrInvalidCredentials indicates the identifier or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountLocked indicates the account is inside its lockout window.
	ErrAccountLocked = errors.New("account temporarily locked")
	// ErrAccountPending indicates the account has not completed verification.
	ErrAccountPending = errors.New("account pending verification")
	// ErrAccountSuspended indicates the account was suspended by an administrator.
	ErrAccountSuspended = errors.New("account suspended")
	// ErrAccountDeactivated indicates the account was deactivated.
	ErrAccountDeactivated = errors.New("account deactivated")
)

// LockoutPolicy fixes how many consecutive failures trigger a lockout
// and for how long.  Values come from configuration so tests can
// shrink them.
type LockoutPolicy struct {
	Threshold int
	Window    time.Duration
}

// LockUntil returns the end of the lockout window to persist when the
// failed-attempt counter has reached attempts, or nil when the
// account should stay unlocked.  attempts is the counter value after
// the increment for the current failure.
func (p LockoutPolicy) LockUntil(attempts int, now time.Time) *time.Time {
	if p.Threshold <= 0 || attempts < p.Threshold {
		return nil
	}
	until := now.Add(p.Window)
	return &until
}

// CheckLoginEligibility gates a login or refresh attempt on the
// account state.  The lock check runs first so a locked account is
// reported as locked regardless of its status; failed-attempt
// tracking itself applies uniformly to every status (a PENDING
// account accumulates failures the same way an ACTIVE one does).
func CheckLoginEligibility(u *model.User, now time.Time) error {
	if u.Locked(now) {
		return ErrAccountLocked
	}
	switch u.Status {
	case model.StatusActive:
		return nil
	case model.StatusPending:
		return ErrAccountPending
	case model.StatusSuspended:
		return ErrAccountSuspended
	case model.StatusDeactivated:
		return ErrAccountDeactivated
	default:
		return ErrAccountDeactivated
	}
}
