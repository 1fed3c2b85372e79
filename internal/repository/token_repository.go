package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/roofline/roofline-backend/internal/model"
)

// TokenRepo persists refresh tokens.  The table carries a unique
// index on (user_id, device_id); Upsert relies on it so that a new
// login from a device that already holds a session replaces the old
// row instead of duplicating it.  MySQL serializes the racing writes
// through that constraint, so no application-level locking is needed.
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Upsert stores a refresh token hash for a (user, device) pair,
// superseding any previous token for the same device.
func (r *TokenRepo) Upsert(ctx context.Context, t model.RefreshToken) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO refresh_tokens (user_id, token_hash, device_id, device_type, issued_ip, user_agent, expires_at)
		 VALUES (?,?,?,?,?,?,?)
		 ON DUPLICATE KEY UPDATE
		   token_hash=VALUES(token_hash), device_type=VALUES(device_type),
		   issued_ip=VALUES(issued_ip), user_agent=VALUES(user_agent),
		   expires_at=VALUES(expires_at), revoked_at=NULL, created_at=NOW()`,
		t.UserID, t.TokenHash, t.DeviceID, string(t.DeviceType), t.IssuedIP, t.UserAgent, t.ExpiresAt)
	return err
}

// GetByHash loads a refresh token row by its hash.  Validity (expiry,
// revocation) is the caller's concern; this keeps the read usable for
// idempotent logout, which must succeed on already-revoked tokens.
func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error) {
	var (
		t          model.RefreshToken
		deviceType string
		revokedAt  sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx,
		`SELECT id, user_id, token_hash, device_id, device_type, issued_ip, user_agent, expires_at, revoked_at, created_at
		 FROM refresh_tokens WHERE token_hash=? LIMIT 1`, tokenHash).
		Scan(&t.ID, &t.UserID, &t.TokenHash, &t.DeviceID, &deviceType,
			&t.IssuedIP, &t.UserAgent, &t.ExpiresAt, &revokedAt, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.RefreshToken{}, ErrNotFound
		}
		return model.RefreshToken{}, err
	}
	t.DeviceType = model.DeviceType(deviceType)
	if revokedAt.Valid {
		ts := revokedAt.Time
		t.RevokedAt = &ts
	}
	return t, nil
}

// RevokeByHash marks a single token as revoked.  Revoking an
// already-revoked token is a no-op.
func (r *TokenRepo) RevokeByHash(ctx context.Context, tokenHash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE token_hash=? AND revoked_at IS NULL",
		tokenHash)
	return err
}

// RevokeAllForUser revokes every active token the user holds across
// all devices.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE refresh_tokens SET revoked_at=NOW() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	return err
}
