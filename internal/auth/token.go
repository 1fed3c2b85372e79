// Package auth implements the token codec, password hashing and the
// account lockout policy.  Everything here is pure computation plus
// the jwt/bcrypt primitives; persistence stays in the repository
// layer and orchestration in the service layer.
package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/roofline/roofline-backend/internal/model"
)

// TokenKind discriminates access tokens from refresh tokens.  The
// kind is embedded in every token and checked on every use so that a
// leaked long-lived refresh token cannot be replayed where a
// short-lived access token is expected.
type TokenKind string

const (
	KindAccess  TokenKind = "access"
	KindRefresh TokenKind = "refresh"
)

// Sentinel parse failures.  The API boundary collapses all of them to
// a single invalid-token category; they stay distinct internally for
// logging and for the 401 message selection in the middleware.
var (
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenInvalid   = errors.New("token invalid")
	ErrTokenMalformed = errors.New("token malformed")
)

// TokenConfig carries the signing secret and lifetimes injected at
// construction.  There is no ambient global; tests build their own.
type TokenConfig struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Claims is the decoded payload of a platform token.
type Claims struct {
	UserID     uint64
	Role       model.Role
	Kind       TokenKind
	DeviceID   string
	DeviceType model.DeviceType
	IssuedAt   time.Time
	ExpiresAt  time.Time
}

// IsAccess reports whether the claims belong to an access token.
func (c *Claims) IsAccess() bool { return c.Kind == KindAccess }

// IsRefresh reports whether the claims belong to a refresh token.
func (c *Claims) IsRefresh() bool { return c.Kind == KindRefresh }

// Codec mints and verifies HS256 signed tokens.  The secret is loaded
// once at startup and read-only afterwards.
type Codec struct {
	cfg TokenConfig
	now func() time.Time
}

// NewCodec builds a Codec from the given configuration.
func NewCodec(cfg TokenConfig) *Codec {
	return &Codec{cfg: cfg, now: func() time.Time { return time.Now().UTC() }}
}

// NewCodecAt is NewCodec with an injectable clock, used by tests to
// step past expiries without sleeping.
func NewCodecAt(cfg TokenConfig, now func() time.Time) *Codec {
	return &Codec{cfg: cfg, now: now}
}

// IssueAccess signs a short-lived access token for the user.
func (cd *Codec) IssueAccess(userID uint64, role model.Role) (string, time.Time, error) {
	return cd.issue(userID, role, KindAccess, "", "", cd.cfg.AccessTTL)
}

// IssueRefresh signs a device-bound refresh token for the user.
func (cd *Codec) IssueRefresh(userID uint64, role model.Role, deviceID string, deviceType model.DeviceType) (string, time.Time, error) {
	return cd.issue(userID, role, KindRefresh, deviceID, deviceType, cd.cfg.RefreshTTL)
}

func (cd *Codec) issue(userID uint64, role model.Role, kind TokenKind, deviceID string, deviceType model.DeviceType, ttl time.Duration) (string, time.Time, error) {
	now := cd.now()
	exp := now.Add(ttl)
	claims := jwt.MapClaims{
		"sub":  strconv.FormatUint(userID, 10),
		"role": string(role),
		"typ":  string(kind),
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}
	if deviceID != "" {
		claims["did"] = deviceID
		claims["dty"] = string(deviceType)
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(cd.cfg.Secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

// Parse verifies the signature and expiry of a token and decodes its
// claims.  Expiry is evaluated at parse time against the codec clock,
// never cached.  A token without a recognizable kind claim is
// rejected as malformed.
func (cd *Codec) Parse(raw string) (*Claims, error) {
	tok, err := jwt.Parse(raw,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
			}
			return []byte(cd.cfg.Secret), nil
		},
		jwt.WithTimeFunc(cd.now),
	)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		default:
			return nil, ErrTokenInvalid
		}
	}
	if !tok.Valid {
		return nil, ErrTokenInvalid
	}
	mc, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenMalformed
	}
	return claimsFromMap(mc)
}

// ParseAccess is Parse plus a kind check: refresh tokens are rejected.
func (cd *Codec) ParseAccess(raw string) (*Claims, error) {
	cl, err := cd.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !cl.IsAccess() {
		return nil, ErrTokenInvalid
	}
	return cl, nil
}

// ParseRefresh is Parse plus a kind check: access tokens are rejected.
func (cd *Codec) ParseRefresh(raw string) (*Claims, error) {
	cl, err := cd.Parse(raw)
	if err != nil {
		return nil, err
	}
	if !cl.IsRefresh() {
		return nil, ErrTokenInvalid
	}
	return cl, nil
}

func claimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	sub, _ := mc["sub"].(string)
	uid, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || uid == 0 {
		return nil, ErrTokenMalformed
	}
	kind, _ := mc["typ"].(string)
	if TokenKind(kind) != KindAccess && TokenKind(kind) != KindRefresh {
		return nil, ErrTokenMalformed
	}
	role, _ := mc["role"].(string)
	cl := &Claims{
		UserID: uid,
		Role:   model.Role(role),
		Kind:   TokenKind(kind),
	}
	if did, ok := mc["did"].(string); ok {
		cl.DeviceID = did
	}
	if dty, ok := mc["dty"].(string); ok {
		cl.DeviceType = model.DeviceType(dty)
	}
	if iat, ok := mc["iat"].(float64); ok {
		cl.IssuedAt = time.Unix(int64(iat), 0).UTC()
	}
	if exp, ok := mc["exp"].(float64); ok {
		cl.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return cl, nil
}

// HashToken returns the SHA-256 hex digest of a raw token string.
// Only this digest is persisted, so stolen refresh_tokens rows cannot
// be replayed as sessions.
func HashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
