package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roofline/roofline-backend/internal/auth"
	"github.com/roofline/roofline-backend/internal/config"
	"github.com/roofline/roofline-backend/internal/httpx"
	"github.com/roofline/roofline-backend/internal/middleware"
	"github.com/roofline/roofline-backend/internal/model"
	"github.com/roofline/roofline-backend/internal/queue"
	"github.com/roofline/roofline-backend/internal/repository"
	"github.com/roofline/roofline-backend/internal/service"
)

// UserStore is the slice of the user repository the auth endpoints
// depend on.
type UserStore interface {
	Create(ctx context.Context, email, phone, password string, role model.Role, cost int) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.User, error)
	GetByIdentifier(ctx context.Context, identifier string) (model.User, error)
	MarkEmailVerified(ctx context.Context, userID uint64) error
	MarkPhoneVerified(ctx context.Context, userID uint64) error
	ActivateIfVerified(ctx context.Context, userID uint64) (bool, error)
}

// AuthHandler bundles dependencies for the auth endpoints.  Publish
// defaults to the broker publisher and is swappable in tests.
type AuthHandler struct {
	Cfg      config.Config
	Users    UserStore
	Sessions *service.Session
	Verifier service.CodeVerifier
	Publish  func(ctx context.Context, eventType string, payload any) error
}

func NewAuthHandler(cfg config.Config, users UserStore, sessions *service.Session, verifier service.CodeVerifier) *AuthHandler {
	return &AuthHandler{Cfg: cfg, Users: users, Sessions: sessions, Verifier: verifier, Publish: queue.Publish}
}

// ----- DTOs -----

type registerReq struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	Role     string `json:"role"` // TENANT | PROPERTY_MANAGER | BUILDING_OWNER
}
type loginReq struct {
	Identifier string `json:"identifier"` // email or phone
	Password   string `json:"password"`
	DeviceID   string `json:"deviceId"`
	DeviceType string `json:"deviceType"` // IOS | ANDROID | WEB
}
type verifyReq struct {
	Identifier string `json:"identifier"`
	Code       string `json:"code"`
}

type userPart struct {
	ID            uint64 `json:"id"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	Role          string `json:"role"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"emailVerified"`
	PhoneVerified bool   `json:"phoneVerified"`
}
type tokenResp struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresIn    int64    `json:"expiresIn"` // access token lifetime in seconds
	User         userPart `json:"user"`
}

func toUserPart(u model.User) userPart {
	return userPart{
		ID:            u.ID,
		Email:         u.Email,
		Phone:         u.Phone,
		Role:          string(u.Role),
		Status:        string(u.Status),
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
	}
}

func toTokenResp(p service.TokenPair) tokenResp {
	return tokenResp{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		ExpiresIn:    int64(time.Until(p.AccessExpires).Seconds()),
		User:         toUserPart(p.User),
	}
}

// reqCtx bounds every database call made from a handler.
func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), 5*time.Second)
}

// Register creates a PENDING account.  No tokens are issued: the user
// must verify email and phone before the first login.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	var problems []string
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		problems = append(problems, "a valid email is required")
	}
	if req.Phone == "" {
		problems = append(problems, "phone is required")
	}
	if len(req.Password) < 8 {
		problems = append(problems, "password must be at least 8 characters")
	}
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if !model.ValidRole(role) {
		problems = append(problems, "role must be TENANT, PROPERTY_MANAGER or BUILDING_OWNER")
	}
	if len(problems) > 0 {
		return httpx.Fail(c, http.StatusBadRequest, "validation failed", problems...)
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	uid, err := h.Users.Create(ctx, req.Email, req.Phone, req.Password, model.Role(role), h.Cfg.BcryptCost)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrEmailExists):
			return httpx.Fail(c, http.StatusConflict, "email already registered")
		case errors.Is(err, repository.ErrPhoneExists):
			return httpx.Fail(c, http.StatusConflict, "phone already registered")
		}
		c.Logger().Errorf("register: create user: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "could not create account")
	}

	// Best effort: the notification service sends the verification
	// email/SMS. A broker outage must not fail the registration.
	_ = h.Publish(ctx, queue.TypeUserRegistered, queue.UserRegisteredEvent{
		UserID:       uid,
		Email:        req.Email,
		Phone:        req.Phone,
		Role:         role,
		RegisteredAt: time.Now().UTC().Format(time.RFC3339),
	})

	u, err := h.Users.GetByID(ctx, uid)
	if err != nil {
		c.Logger().Errorf("register: reload user: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "could not create account")
	}
	return httpx.OK(c, http.StatusCreated, toUserPart(u), "account created, verification required")
}

// VerifyEmail confirms the email verification code and activates the
// account once both verifications are in.
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	return h.verify(c, func(ctx context.Context, userID uint64) error {
		return h.Users.MarkEmailVerified(ctx, userID)
	})
}

// VerifyPhone confirms the phone verification code and activates the
// account once both verifications are in.
func (h *AuthHandler) VerifyPhone(c echo.Context) error {
	return h.verify(c, func(ctx context.Context, userID uint64) error {
		return h.Users.MarkPhoneVerified(ctx, userID)
	})
}

func (h *AuthHandler) verify(c echo.Context, mark func(context.Context, uint64) error) error {
	var req verifyReq
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Identifier) == "" || strings.TrimSpace(req.Code) == "" {
		return httpx.Fail(c, http.StatusBadRequest, "identifier and code are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByIdentifier(ctx, req.Identifier)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Same answer as a wrong code, no account enumeration.
			return httpx.Fail(c, http.StatusBadRequest, "invalid verification code")
		}
		c.Logger().Errorf("verify: load user: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "verification failed")
	}
	if !h.Verifier.Verify(req.Identifier, req.Code) {
		return httpx.Fail(c, http.StatusBadRequest, "invalid verification code")
	}
	if err := mark(ctx, u.ID); err != nil {
		c.Logger().Errorf("verify: mark verified: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "verification failed")
	}
	activated, err := h.Users.ActivateIfVerified(ctx, u.ID)
	if err != nil {
		c.Logger().Errorf("verify: activate: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "verification failed")
	}

	u, err = h.Users.GetByID(ctx, u.ID)
	if err != nil {
		c.Logger().Errorf("verify: reload user: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "verification failed")
	}
	msg := "verification recorded"
	if activated {
		msg = "account activated"
	}
	return httpx.OK(c, http.StatusOK, toUserPart(u), msg)
}

// Login exchanges credentials for a token pair bound to the device.
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginReq
	if err := c.Bind(&req); err != nil {
		return httpx.Fail(c, http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Identifier) == "" || req.Password == "" {
		return httpx.Fail(c, http.StatusBadRequest, "identifier and password are required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Sessions.Login(ctx, req.Identifier, req.Password, service.Device{
		ID:        strings.TrimSpace(req.DeviceID),
		Type:      model.DeviceType(strings.ToUpper(strings.TrimSpace(req.DeviceType))),
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return h.authError(c, err, "login")
	}
	return httpx.OK(c, http.StatusOK, toTokenResp(pair), "login successful")
}

// Refresh exchanges a valid refresh token for a new access token.
// The refresh token comes back unchanged.
func (h *AuthHandler) Refresh(c echo.Context) error {
	raw := refreshTokenFrom(c)
	if raw == "" {
		return httpx.Fail(c, http.StatusBadRequest, "refreshToken is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	pair, err := h.Sessions.Refresh(ctx, raw)
	if err != nil {
		return h.authError(c, err, "refresh")
	}
	return httpx.OK(c, http.StatusOK, toTokenResp(pair), "token refreshed")
}

// Logout revokes the session behind the given refresh token.  The
// success envelope is returned regardless of token validity.
func (h *AuthHandler) Logout(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.Logout(ctx, refreshTokenFrom(c)); err != nil {
		c.Logger().Errorf("logout: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "logout failed")
	}
	return httpx.OK(c, http.StatusOK, nil, "logged out")
}

// LogoutAll revokes every session of the token's owner, across all
// devices.  Idempotent like Logout.
func (h *AuthHandler) LogoutAll(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	if err := h.Sessions.LogoutAll(ctx, refreshTokenFrom(c)); err != nil {
		c.Logger().Errorf("logout-all: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "logout failed")
	}
	return httpx.OK(c, http.StatusOK, nil, "logged out from all devices")
}

// Profile returns the authenticated principal.
func (h *AuthHandler) Profile(c echo.Context) error {
	p, ok := middleware.CurrentPrincipal(c)
	if !ok {
		// RequireAuth guards this route; reaching here anonymous is a wiring bug.
		return httpx.Fail(c, http.StatusUnauthorized, "authentication token is required")
	}

	ctx, cancel := reqCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, p.UserID)
	if err != nil {
		c.Logger().Errorf("profile: load user: %v", err)
		return httpx.Fail(c, http.StatusInternalServerError, "could not load profile")
	}
	return httpx.OK(c, http.StatusOK, toUserPart(u), "")
}

// refreshTokenFrom reads the refresh token from the query string
// first, then from a JSON body, so both calling conventions work.
func refreshTokenFrom(c echo.Context) string {
	if v := strings.TrimSpace(c.QueryParam("refreshToken")); v != "" {
		return v
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.Bind(&body)
	return strings.TrimSpace(body.RefreshToken)
}

// authError maps session-manager failures onto 400 responses with
// the distinct user-facing messages the API promises.  Anything
// unrecognized is a 500 with no internal detail.
func (h *AuthHandler) authError(c echo.Context, err error, op string) error {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		return httpx.Fail(c, http.StatusBadRequest, "invalid credentials")
	case errors.Is(err, auth.ErrAccountLocked):
		// No unlock time disclosed.
		return httpx.Fail(c, http.StatusBadRequest, "account temporarily locked, try again later")
	case errors.Is(err, auth.ErrAccountPending):
		return httpx.Fail(c, http.StatusBadRequest, "account pending verification")
	case errors.Is(err, auth.ErrAccountSuspended):
		return httpx.Fail(c, http.StatusBadRequest, "account suspended")
	case errors.Is(err, auth.ErrAccountDeactivated):
		return httpx.Fail(c, http.StatusBadRequest, "account deactivated")
	case errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenMalformed):
		return httpx.Fail(c, http.StatusBadRequest, "invalid or expired refresh token")
	}
	c.Logger().Errorf("%s: %v", op, err)
	return httpx.Fail(c, http.StatusInternalServerError, "request failed")
}
