package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofline/roofline-backend/internal/auth"
	"github.com/roofline/roofline-backend/internal/model"
	"github.com/roofline/roofline-backend/internal/repository"
)

// ----- in-memory fakes -----

type fakeUsers struct {
	byID map[uint64]*model.User
}

func newFakeUsers(users ...*model.User) *fakeUsers {
	f := &fakeUsers{byID: map[uint64]*model.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) GetByIdentifier(_ context.Context, identifier string) (model.User, error) {
	for _, u := range f.byID {
		if u.Email == identifier || u.Phone == identifier {
			return *u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) GetByID(_ context.Context, id uint64) (model.User, error) {
	if u, ok := f.byID[id]; ok {
		return *u, nil
	}
	return model.User{}, repository.ErrNotFound
}

func (f *fakeUsers) RecordFailedLogin(_ context.Context, userID uint64, lockUntil *time.Time) error {
	u := f.byID[userID]
	u.FailedLoginAttempts++
	if lockUntil != nil {
		u.LockedUntil = lockUntil
	}
	return nil
}

func (f *fakeUsers) RecordSuccessfulLogin(_ context.Context, userID uint64) error {
	u := f.byID[userID]
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now().UTC()
	u.LastLoginAt = &now
	return nil
}

type fakeTokens struct {
	// keyed by user_id:device_id, mirroring the unique index
	rows map[string]*model.RefreshToken
}

func newFakeTokens() *fakeTokens { return &fakeTokens{rows: map[string]*model.RefreshToken{}} }

func (f *fakeTokens) key(userID uint64, deviceID string) string {
	return fmt.Sprintf("%d:%s", userID, deviceID)
}

func (f *fakeTokens) Upsert(_ context.Context, t model.RefreshToken) error {
	row := t
	f.rows[f.key(t.UserID, t.DeviceID)] = &row
	return nil
}

func (f *fakeTokens) GetByHash(_ context.Context, tokenHash string) (model.RefreshToken, error) {
	for _, row := range f.rows {
		if row.TokenHash == tokenHash {
			return *row, nil
		}
	}
	return model.RefreshToken{}, repository.ErrNotFound
}

func (f *fakeTokens) RevokeByHash(_ context.Context, tokenHash string) error {
	for _, row := range f.rows {
		if row.TokenHash == tokenHash && row.RevokedAt == nil {
			now := time.Now().UTC()
			row.RevokedAt = &now
		}
	}
	return nil
}

func (f *fakeTokens) RevokeAllForUser(_ context.Context, userID uint64) error {
	for _, row := range f.rows {
		if row.UserID == userID && row.RevokedAt == nil {
			now := time.Now().UTC()
			row.RevokedAt = &now
		}
	}
	return nil
}

// ----- fixture -----

const testPassword = "s3cret-pa55"

type fixture struct {
	users  *fakeUsers
	tokens *fakeTokens
	codec  *auth.Codec
	sess   *Session
	now    time.Time
}

func newFixture(t *testing.T, status model.AccountStatus) *fixture {
	t.Helper()
	hash, err := auth.HashPassword(testPassword, 4)
	require.NoError(t, err)

	fx := &fixture{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	clock := func() time.Time { return fx.now }

	fx.users = newFakeUsers(&model.User{
		ID:           1,
		Email:        "tenant@example.com",
		Phone:        "+15550001111",
		PasswordHash: hash,
		Role:         model.RoleTenant,
		Status:       status,
	})
	fx.tokens = newFakeTokens()
	fx.codec = auth.NewCodecAt(auth.TokenConfig{
		Secret:     "session-test-secret-32-bytes-long!!!",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}, clock)
	fx.sess = NewSessionAt(fx.users, fx.tokens, fx.codec,
		auth.LockoutPolicy{Threshold: 5, Window: 30 * time.Minute}, clock)
	return fx
}

func device() Device {
	return Device{ID: "device-1", Type: model.DeviceWeb, IP: "203.0.113.9", UserAgent: "test-agent"}
}

// ----- login -----

func TestLoginSuccess(t *testing.T) {
	fx := newFixture(t, model.StatusActive)

	pair, err := fx.sess.Login(context.Background(), "tenant@example.com", testPassword, device())
	require.NoError(t, err)

	cl, err := fx.codec.Parse(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cl.UserID)
	assert.True(t, cl.IsAccess())
	assert.Equal(t, model.RoleTenant, cl.Role)

	rcl, err := fx.codec.Parse(pair.RefreshToken)
	require.NoError(t, err)
	assert.True(t, rcl.IsRefresh())
	assert.Equal(t, "device-1", rcl.DeviceID)

	// Counters reset and last login stamped.
	u := fx.users.byID[1]
	assert.Zero(t, u.FailedLoginAttempts)
	assert.Nil(t, u.LockedUntil)
	assert.NotNil(t, u.LastLoginAt)
}

func TestLoginByPhone(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	_, err := fx.sess.Login(context.Background(), "+15550001111", testPassword, device())
	assert.NoError(t, err)
}

func TestLoginUnknownIdentifier(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	_, err := fx.sess.Login(context.Background(), "nobody@example.com", testPassword, device())
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestLoginWrongPassword(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	_, err := fx.sess.Login(context.Background(), "tenant@example.com", "wrong", device())
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	assert.Equal(t, 1, fx.users.byID[1].FailedLoginAttempts)
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := fx.sess.Login(ctx, "tenant@example.com", "wrong", device())
		assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}
	require.NotNil(t, fx.users.byID[1].LockedUntil)

	// The correct password is refused while the window is open.
	_, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
	assert.ErrorIs(t, err, auth.ErrAccountLocked)

	// Once the window elapses the lock clears lazily and login succeeds.
	fx.now = fx.now.Add(31 * time.Minute)
	_, err = fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
	assert.NoError(t, err)
	assert.Zero(t, fx.users.byID[1].FailedLoginAttempts)
}

func TestLoginStatusGate(t *testing.T) {
	cases := []struct {
		status model.AccountStatus
		want   error
	}{
		{model.StatusPending, auth.ErrAccountPending},
		{model.StatusSuspended, auth.ErrAccountSuspended},
		{model.StatusDeactivated, auth.ErrAccountDeactivated},
	}
	for _, tc := range cases {
		t.Run(string(tc.status), func(t *testing.T) {
			fx := newFixture(t, tc.status)
			// Correct password, but the account is not ACTIVE.
			_, err := fx.sess.Login(context.Background(), "tenant@example.com", testPassword, device())
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoginSameDeviceKeepsOneRow(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		fx.now = fx.now.Add(time.Minute)
		_, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
		require.NoError(t, err)
	}
	assert.Len(t, fx.tokens.rows, 1)

	// A different device gets its own row.
	other := device()
	other.ID = "device-2"
	_, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, other)
	require.NoError(t, err)
	assert.Len(t, fx.tokens.rows, 2)
}

func TestLoginGeneratesDeviceIDWhenMissing(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	pair, err := fx.sess.Login(context.Background(), "tenant@example.com", testPassword, Device{})
	require.NoError(t, err)

	cl, err := fx.codec.ParseRefresh(pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, cl.DeviceID)
	assert.Equal(t, model.DeviceWeb, cl.DeviceType)
}

// ----- refresh -----

func TestRefreshReturnsNewAccessSameRefresh(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()

	pair, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
	require.NoError(t, err)

	fx.now = fx.now.Add(5 * time.Minute)
	refreshed, err := fx.sess.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)

	assert.NotEqual(t, pair.AccessToken, refreshed.AccessToken)
	assert.Equal(t, pair.RefreshToken, refreshed.RefreshToken, "refresh token must be returned unchanged")

	cl, err := fx.codec.ParseAccess(refreshed.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), cl.UserID)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	pair, err := fx.sess.Login(context.Background(), "tenant@example.com", testPassword, device())
	require.NoError(t, err)

	_, err = fx.sess.Refresh(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestRefreshRejectsRevokedToken(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()
	pair, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
	require.NoError(t, err)

	require.NoError(t, fx.sess.Logout(ctx, pair.RefreshToken))
	_, err = fx.sess.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
}

func TestRefreshRejectsExpiredToken(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()
	pair, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
	require.NoError(t, err)

	fx.now = fx.now.Add(8 * 24 * time.Hour)
	_, err = fx.sess.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenExpired)
}

func TestRefreshRequiresActiveAccount(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()
	pair, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
	require.NoError(t, err)

	fx.users.byID[1].Status = model.StatusSuspended
	_, err = fx.sess.Refresh(ctx, pair.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrAccountSuspended)
}

// ----- logout -----

func TestLogoutIsIdempotent(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()
	pair, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, device())
	require.NoError(t, err)

	assert.NoError(t, fx.sess.Logout(ctx, pair.RefreshToken))
	assert.NoError(t, fx.sess.Logout(ctx, pair.RefreshToken))
	assert.NoError(t, fx.sess.Logout(ctx, "completely-unknown-token"))
	assert.NoError(t, fx.sess.Logout(ctx, ""))
}

func TestLogoutAllRevokesEveryDevice(t *testing.T) {
	fx := newFixture(t, model.StatusActive)
	ctx := context.Background()

	d1 := device()
	d2 := device()
	d2.ID = "device-2"
	pair1, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, d1)
	require.NoError(t, err)
	pair2, err := fx.sess.Login(ctx, "tenant@example.com", testPassword, d2)
	require.NoError(t, err)

	require.NoError(t, fx.sess.LogoutAll(ctx, pair1.RefreshToken))

	_, err = fx.sess.Refresh(ctx, pair1.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)
	_, err = fx.sess.Refresh(ctx, pair2.RefreshToken)
	assert.ErrorIs(t, err, auth.ErrTokenInvalid)

	// Unknown tokens succeed silently here too.
	assert.NoError(t, fx.sess.LogoutAll(ctx, "completely-unknown-token"))
}
