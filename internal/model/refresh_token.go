package model

import "time"

// DeviceType enumerates the client platforms a refresh token can be
// bound to.  Unknown values sent by clients are normalized to WEB.
type DeviceType string

const (
	DeviceIOS     DeviceType = "IOS"
	DeviceAndroid DeviceType = "ANDROID"
	DeviceWeb     DeviceType = "WEB"
)

// NormalizeDeviceType maps an arbitrary client string onto a known
// device type, defaulting to WEB.
func NormalizeDeviceType(s string) DeviceType {
	switch DeviceType(s) {
	case DeviceIOS, DeviceAndroid, DeviceWeb:
		return DeviceType(s)
	}
	return DeviceWeb
}

// RefreshToken models a row in the `refresh_tokens` table.  The table
// carries a unique index on (user_id, device_id): a new login from
// the same device supersedes the previous row rather than adding a
// second one.  The raw token is never stored; only its SHA-256 hash.
//
// Fields:
//  ID         – primary key identifier.
//  UserID     – owner of the token.
//  TokenHash  – SHA-256 hex digest of the raw token string.
//  DeviceID   – opaque client device identifier.
//  DeviceType – IOS, ANDROID or WEB.
//  IssuedIP   – remote address observed at issuance.
//  UserAgent  – User-Agent header observed at issuance.
//  ExpiresAt  – expiration timestamp.
//  RevokedAt  – when the token was revoked (null if still active).
//  CreatedAt  – timestamp of creation.
type RefreshToken struct {
	ID         uint64     // refresh_tokens.id
	UserID     uint64     // refresh_tokens.user_id
	TokenHash  string     // refresh_tokens.token_hash
	DeviceID   string     // refresh_tokens.device_id
	DeviceType DeviceType // refresh_tokens.device_type
	IssuedIP   string     // refresh_tokens.issued_ip
	UserAgent  string     // refresh_tokens.user_agent
	ExpiresAt  time.Time  // refresh_tokens.expires_at
	RevokedAt  *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt  time.Time  // refresh_tokens.created_at
}

// Valid reports whether the token row is usable at the given instant:
// not revoked and not past its expiry.
func (t *RefreshToken) Valid(now time.Time) bool {
	return t.RevokedAt == nil && now.Before(t.ExpiresAt)
}
