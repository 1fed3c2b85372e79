package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofline/roofline-backend/internal/model"
)

func testConfig() TokenConfig {
	return TokenConfig{
		Secret:     "unit-test-secret-at-least-32-bytes!!",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	cd := NewCodec(testConfig())

	raw, exp, err := cd.IssueAccess(42, model.RoleTenant)
	require.NoError(t, err)
	require.NotEmpty(t, raw)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, time.Minute)

	cl, err := cd.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), cl.UserID)
	assert.Equal(t, model.RoleTenant, cl.Role)
	assert.Equal(t, KindAccess, cl.Kind)
	assert.True(t, cl.IsAccess())
	assert.False(t, cl.IsRefresh())
	assert.Empty(t, cl.DeviceID)
}

func TestRefreshTokenCarriesDevice(t *testing.T) {
	cd := NewCodec(testConfig())

	raw, _, err := cd.IssueRefresh(7, model.RolePropertyManager, "dev-123", model.DeviceAndroid)
	require.NoError(t, err)

	cl, err := cd.ParseRefresh(raw)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), cl.UserID)
	assert.Equal(t, "dev-123", cl.DeviceID)
	assert.Equal(t, model.DeviceAndroid, cl.DeviceType)
	assert.True(t, cl.IsRefresh())
}

func TestKindCrossCheck(t *testing.T) {
	cd := NewCodec(testConfig())

	access, _, err := cd.IssueAccess(1, model.RoleTenant)
	require.NoError(t, err)
	refresh, _, err := cd.IssueRefresh(1, model.RoleTenant, "d1", model.DeviceWeb)
	require.NoError(t, err)

	// A refresh token must never pass where an access token is required.
	_, err = cd.ParseAccess(refresh)
	assert.ErrorIs(t, err, ErrTokenInvalid)

	// And the other way around.
	_, err = cd.ParseRefresh(access)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseExpired(t *testing.T) {
	now := time.Now().UTC()
	clock := func() time.Time { return now }
	cd := NewCodecAt(testConfig(), clock)

	raw, _, err := cd.IssueAccess(5, model.RoleBuildingOwner)
	require.NoError(t, err)

	// Still valid one minute before expiry.
	now = now.Add(14 * time.Minute)
	_, err = cd.Parse(raw)
	require.NoError(t, err)

	// Expired once the clock steps past the TTL.
	now = now.Add(2 * time.Minute)
	_, err = cd.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestParseRejectsTamperedToken(t *testing.T) {
	cd := NewCodec(testConfig())
	raw, _, err := cd.IssueAccess(9, model.RoleTenant)
	require.NoError(t, err)

	other := NewCodec(TokenConfig{
		Secret:     "a-completely-different-signing-secret",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	})
	_, err = other.Parse(raw)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestParseRejectsGarbage(t *testing.T) {
	cd := NewCodec(testConfig())

	_, err := cd.Parse("not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenMalformed)

	_, err = cd.Parse("")
	assert.ErrorIs(t, err, ErrTokenMalformed)
}

func TestHashTokenStable(t *testing.T) {
	h1 := HashToken("abc")
	h2 := HashToken("abc")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
	assert.NotEqual(t, h1, HashToken("abd"))
}
