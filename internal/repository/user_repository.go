package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/roofline/roofline-backend/internal/auth"
	"github.com/roofline/roofline-backend/internal/model"
)

const userColumns = "id,email,phone,password_hash,role,status,email_verified,phone_verified," +
	"failed_login_attempts,locked_until,last_login_at,created_at,updated_at"

// UserRepo persists account records in the 'users' table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a PENDING user and returns its ID.  The password is
// bcrypt-hashed here so the plaintext never reaches the database
// layer below this call.
func (r *UserRepo) Create(ctx context.Context, email, phone, password string, role model.Role, cost int) (uint64, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	phone = strings.TrimSpace(phone)
	hash, err := auth.HashPassword(password, cost)
	if err != nil {
		return 0, err
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, phone, password_hash, role, status) VALUES (?,?,?,?,?)",
		email, phone, hash, string(role), string(model.StatusPending))
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") {
			if strings.Contains(msg, "phone") {
				return 0, ErrPhoneExists
			}
			return 0, ErrEmailExists
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// GetByIdentifier fetches a user by email or phone.  Identifiers
// containing '@' are treated as emails and normalized to lowercase.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	identifier = strings.TrimSpace(identifier)
	if strings.Contains(identifier, "@") {
		return r.one(ctx, "email=?", strings.ToLower(identifier))
	}
	return r.one(ctx, "phone=?", identifier)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	return r.one(ctx, "id=?", id)
}

func (r *UserRepo) one(ctx context.Context, where string, arg interface{}) (model.User, error) {
	var (
		u           model.User
		role        string
		status      string
		lockedUntil sql.NullTime
		lastLogin   sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg).
		Scan(&u.ID, &u.Email, &u.Phone, &u.PasswordHash, &role, &status,
			&u.EmailVerified, &u.PhoneVerified, &u.FailedLoginAttempts,
			&lockedUntil, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.User{}, ErrNotFound
		}
		return model.User{}, err
	}
	u.Role = model.Role(role)
	u.Status = model.AccountStatus(status)
	if lockedUntil.Valid {
		t := lockedUntil.Time
		u.LockedUntil = &t
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return u, nil
}

// RecordFailedLogin increments the failed-attempt counter in a single
// statement so concurrent attempts never lose updates, and sets the
// lockout window when the caller decided the threshold was reached.
// A nil lockUntil leaves the column untouched.
func (r *UserRepo) RecordFailedLogin(ctx context.Context, userID uint64, lockUntil *time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts = failed_login_attempts + 1, locked_until = IFNULL(?, locked_until) WHERE id=?",
		lockUntil, userID)
	return err
}

// RecordSuccessfulLogin resets the failed-attempt counter, clears any
// lockout and stamps the last-login timestamp.
func (r *UserRepo) RecordSuccessfulLogin(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET failed_login_attempts = 0, locked_until = NULL, last_login_at = NOW() WHERE id=?",
		userID)
	return err
}

// MarkEmailVerified sets the email verification flag.
func (r *UserRepo) MarkEmailVerified(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET email_verified = 1 WHERE id=?", userID)
	return err
}

// MarkPhoneVerified sets the phone verification flag.
func (r *UserRepo) MarkPhoneVerified(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET phone_verified = 1 WHERE id=?", userID)
	return err
}

// ActivateIfVerified flips a PENDING account to ACTIVE once both
// verification flags are set.  The status transition is guarded in
// the statement itself so it can never fire on SUSPENDED or
// DEACTIVATED accounts.
func (r *UserRepo) ActivateIfVerified(ctx context.Context, userID uint64) (bool, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE users SET status=? WHERE id=? AND status=? AND email_verified=1 AND phone_verified=1",
		string(model.StatusActive), userID, string(model.StatusPending))
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
