// Package middleware provides shared request processing: the soft
// authenticator, the role gate and the login rate limiter.
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roofline/roofline-backend/internal/auth"
	"github.com/roofline/roofline-backend/internal/httpx"
	"github.com/roofline/roofline-backend/internal/model"
)

// Principal is the authenticated identity attached to a request after
// successful authorization.
type Principal struct {
	UserID uint64
	Email  string
	Role   model.Role
}

// AuthFailure classifies why a request ended up anonymous.  The soft
// authenticator records it so the enforcement layer can pick a
// precise 401 message without re-parsing the token.
type AuthFailure int

const (
	FailureNone AuthFailure = iota
	FailureMissingToken
	FailureMalformedHeader
	FailureExpiredToken
	FailureInvalidToken
)

const (
	principalKey = "principal"
	failureKey   = "auth_failure"
	userIDKey    = "user_id"
	roleKey      = "role"
)

// UserLoader re-resolves the current account at request time so a
// suspension or lockout applies immediately, not at token expiry.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// PublicPaths is the default allowlist evaluated before any token
// parsing.  Entries ending in "*" match by prefix, everything else by
// exact path.  The profile endpoint is deliberately absent: it is the
// one auth route that requires a valid access token.
func PublicPaths() []string {
	return []string{
		"/healthz",
		"/v1/auth/register",
		"/v1/auth/login",
		"/v1/auth/refresh-token",
		"/v1/auth/logout",
		"/v1/auth/logout-all-devices",
		"/v1/auth/verify-email",
		"/v1/auth/verify-phone",
		"/docs*",
	}
}

func publicMatch(allowlist []string, path string) bool {
	for _, p := range allowlist {
		if strings.HasSuffix(p, "*") {
			if strings.HasPrefix(path, strings.TrimSuffix(p, "*")) {
				return true
			}
		} else if path == p {
			return true
		}
	}
	return false
}

// Authenticate returns the soft authenticator.  It never rejects a
// request: on any validation failure it records the reason, logs it
// and lets the request continue anonymous, so public paths stay
// reachable even with a garbage Authorization header attached.  The
// actual 401 is produced by RequireAuth / RequireRole downstream.
func Authenticate(codec *auth.Codec, users UserLoader, allowlist []string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if publicMatch(allowlist, c.Request().URL.Path) {
				return next(c)
			}

			header := c.Request().Header.Get("Authorization")
			if header == "" {
				c.Set(failureKey, FailureMissingToken)
				return next(c)
			}
			if !strings.HasPrefix(header, "Bearer ") {
				c.Set(failureKey, FailureMalformedHeader)
				return next(c)
			}
			raw := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))

			cl, err := codec.ParseAccess(raw)
			if err != nil {
				switch {
				case err == auth.ErrTokenExpired:
					c.Set(failureKey, FailureExpiredToken)
				default:
					c.Set(failureKey, FailureInvalidToken)
				}
				c.Logger().Debugf("auth: token rejected: %v", err)
				return next(c)
			}

			u, err := users.GetByID(c.Request().Context(), cl.UserID)
			if err != nil {
				c.Set(failureKey, FailureInvalidToken)
				c.Logger().Warnf("auth: principal lookup failed for user %d: %v", cl.UserID, err)
				return next(c)
			}
			if err := auth.CheckLoginEligibility(&u, timeNow()); err != nil {
				c.Set(failureKey, FailureInvalidToken)
				c.Logger().Infof("auth: user %d not eligible: %v", u.ID, err)
				return next(c)
			}

			c.Set(principalKey, Principal{UserID: u.ID, Email: u.Email, Role: u.Role})
			c.Set(userIDKey, strconv.FormatUint(u.ID, 10))
			c.Set(roleKey, string(u.Role))
			return next(c)
		}
	}
}

// CurrentPrincipal returns the authenticated principal of the
// request, if any.
func CurrentPrincipal(c echo.Context) (Principal, bool) {
	p, ok := c.Get(principalKey).(Principal)
	return p, ok
}

// RequireAuth rejects anonymous requests with a 401 whose message
// names the specific problem the soft authenticator recorded.
func RequireAuth() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if _, ok := CurrentPrincipal(c); !ok {
				return httpx.Fail(c, http.StatusUnauthorized, failureMessage(c))
			}
			return next(c)
		}
	}
}

// RequireRole enforces that the authenticated principal holds one of
// the given roles.  The comparison is against the raw enum value; no
// prefixing convention is applied.  Anonymous requests get the same
// 401 as RequireAuth; a wrong role gets a 403.
func RequireRole(roles ...model.Role) echo.MiddlewareFunc {
	allowed := make(map[model.Role]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, ok := CurrentPrincipal(c)
			if !ok {
				return httpx.Fail(c, http.StatusUnauthorized, failureMessage(c))
			}
			if !allowed[p.Role] {
				return httpx.Fail(c, http.StatusForbidden, "insufficient role")
			}
			return next(c)
		}
	}
}

// timeNow is a variable so middleware tests can pin the clock.
var timeNow = func() time.Time { return time.Now().UTC() }

func failureMessage(c echo.Context) string {
	f, _ := c.Get(failureKey).(AuthFailure)
	switch f {
	case FailureMalformedHeader:
		return "malformed authorization header, expected 'Bearer <token>'"
	case FailureExpiredToken:
		return "access token expired"
	case FailureInvalidToken:
		return "invalid access token"
	default:
		return "authentication token is required"
	}
}
