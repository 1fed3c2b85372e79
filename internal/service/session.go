// Package service contains the session manager: the single writer of
// login counters, lockout timestamps and refresh-token rows.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/roofline/roofline-backend/internal/auth"
	"github.com/roofline/roofline-backend/internal/model"
	"github.com/roofline/roofline-backend/internal/repository"
)

// UserStore is the slice of the user repository the session manager
// depends on.
type UserStore interface {
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	RecordFailedLogin(ctx context.Context, userID uint64, lockUntil *time.Time) error
	RecordSuccessfulLogin(ctx context.Context, userID uint64) error
}

// TokenStore is the slice of the refresh-token repository the session
// manager depends on.
type TokenStore interface {
	Upsert(ctx context.Context, t model.RefreshToken) error
	GetByHash(ctx context.Context, tokenHash string) (model.RefreshToken, error)
	RevokeByHash(ctx context.Context, tokenHash string) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Device describes the client a token pair is being issued for.
type Device struct {
	ID        string
	Type      model.DeviceType
	IP        string
	UserAgent string
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	User           model.User
	AccessToken    string
	AccessExpires  time.Time
	RefreshToken   string
	RefreshExpires time.Time
}

// Session orchestrates login, refresh and logout.  All counter and
// refresh-row mutation goes through here so there is exactly one
// writer of that state.
type Session struct {
	users  UserStore
	tokens TokenStore
	codec  *auth.Codec
	policy auth.LockoutPolicy
	now    func() time.Time
}

// NewSession builds a session manager.
func NewSession(users UserStore, tokens TokenStore, codec *auth.Codec, policy auth.LockoutPolicy) *Session {
	return &Session{
		users:  users,
		tokens: tokens,
		codec:  codec,
		policy: policy,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// NewSessionAt is NewSession with an injectable clock for tests.
func NewSessionAt(users UserStore, tokens TokenStore, codec *auth.Codec, policy auth.LockoutPolicy, now func() time.Time) *Session {
	s := NewSession(users, tokens, codec, policy)
	s.now = now
	return s
}

// Login resolves the user by email or phone, gates on lockout and
// account status, verifies the password and mints a token pair bound
// to the device.  An unknown identifier and a wrong password both
// come back as auth.ErrInvalidCredentials so callers cannot probe
// which accounts exist.
func (s *Session) Login(ctx context.Context, identifier, password string, dev Device) (TokenPair, error) {
	u, err := s.users.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, auth.ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	now := s.now()
	if u.Locked(now) {
		return TokenPair{}, auth.ErrAccountLocked
	}

	if !auth.VerifyPassword(u.PasswordHash, password) {
		// Failed-attempt tracking applies to every account status.
		attempts := u.FailedLoginAttempts + 1
		lockUntil := s.policy.LockUntil(attempts, now)
		if err := s.users.RecordFailedLogin(ctx, u.ID, lockUntil); err != nil {
			return TokenPair{}, err
		}
		return TokenPair{}, auth.ErrInvalidCredentials
	}

	if err := auth.CheckLoginEligibility(&u, now); err != nil {
		return TokenPair{}, err
	}

	if err := s.users.RecordSuccessfulLogin(ctx, u.ID); err != nil {
		return TokenPair{}, err
	}

	return s.issuePair(ctx, u, dev)
}

func (s *Session) issuePair(ctx context.Context, u model.User, dev Device) (TokenPair, error) {
	if dev.ID == "" {
		dev.ID = uuid.NewString()
	}
	dev.Type = model.NormalizeDeviceType(string(dev.Type))

	access, accessExp, err := s.codec.IssueAccess(u.ID, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, refreshExp, err := s.codec.IssueRefresh(u.ID, u.Role, dev.ID, dev.Type)
	if err != nil {
		return TokenPair{}, err
	}
	err = s.tokens.Upsert(ctx, model.RefreshToken{
		UserID:     u.ID,
		TokenHash:  auth.HashToken(refresh),
		DeviceID:   dev.ID,
		DeviceType: dev.Type,
		IssuedIP:   dev.IP,
		UserAgent:  dev.UserAgent,
		ExpiresAt:  refreshExp,
	})
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		User:           u,
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   refresh,
		RefreshExpires: refreshExp,
	}, nil
}

// Refresh validates a refresh token (signature, kind, expiry and its
// persisted row) and mints a new access token.  The refresh token
// itself is returned unchanged; this design does not rotate it.
func (s *Session) Refresh(ctx context.Context, rawRefresh string) (TokenPair, error) {
	cl, err := s.codec.ParseRefresh(rawRefresh)
	if err != nil {
		return TokenPair{}, err
	}

	row, err := s.tokens.GetByHash(ctx, auth.HashToken(rawRefresh))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, auth.ErrTokenInvalid
		}
		return TokenPair{}, err
	}
	now := s.now()
	if !row.Valid(now) {
		return TokenPair{}, auth.ErrTokenInvalid
	}

	u, err := s.users.GetByID(ctx, cl.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return TokenPair{}, auth.ErrTokenInvalid
		}
		return TokenPair{}, err
	}
	if err := auth.CheckLoginEligibility(&u, now); err != nil {
		return TokenPair{}, err
	}

	access, accessExp, err := s.codec.IssueAccess(u.ID, u.Role)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		User:           u,
		AccessToken:    access,
		AccessExpires:  accessExp,
		RefreshToken:   rawRefresh,
		RefreshExpires: row.ExpiresAt,
	}, nil
}

// Logout revokes the session behind the given refresh token.  It is
// idempotent: unknown, malformed or already-revoked tokens succeed
// silently.
func (s *Session) Logout(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	return s.tokens.RevokeByHash(ctx, auth.HashToken(rawRefresh))
}

// LogoutAll revokes every session of the user who owns the given
// refresh token, across all devices.  Like Logout it swallows
// invalid-token conditions and only reports storage failures.
func (s *Session) LogoutAll(ctx context.Context, rawRefresh string) error {
	if rawRefresh == "" {
		return nil
	}
	if cl, err := s.codec.ParseRefresh(rawRefresh); err == nil {
		return s.tokens.RevokeAllForUser(ctx, cl.UserID)
	}
	// Signature no longer verifiable (e.g. secret rotation): fall back
	// to the persisted row before giving up.
	row, err := s.tokens.GetByHash(ctx, auth.HashToken(rawRefresh))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, row.UserID)
}
