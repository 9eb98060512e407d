package jwtauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskibarqy/osu-tournament-rating/internal/domain/user"
	"github.com/riskibarqy/osu-tournament-rating/internal/usecase"
)

func newTestVerifier(t *testing.T, clock clockwork.Clock, cacheTTL time.Duration) *Verifier {
	t.Helper()

	v, err := NewVerifier(Config{Key: "test-signing-key", Issuer: "otr-web", CacheTTL: cacheTTL, Clock: clock})
	require.NoError(t, err)
	return v
}

func TestVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	v := newTestVerifier(t, clock, 0)

	playerID := int64(440)
	token, err := v.Issue(user.Principal{UserID: 12, PlayerID: &playerID, Roles: user.NewRoleSet(user.RoleAdmin, user.RoleUser)}, time.Hour)
	require.NoError(t, err)

	principal, err := v.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, int64(12), principal.UserID)
	require.NotNil(t, principal.PlayerID)
	assert.Equal(t, playerID, *principal.PlayerID)
	assert.True(t, principal.Roles.IsPrivileged())
}

func TestVerifier_NormalizesRoleAliases(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	v := newTestVerifier(t, clock, 0)

	claims := Claims{
		Roles: []string{"Verifier"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "3",
			Issuer:    "otr-web",
			ExpiresAt: jwt.NewNumericDate(clock.Now().Add(time.Minute)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-signing-key"))
	require.NoError(t, err)

	principal, err := v.VerifyAccessToken(context.Background(), token)
	require.NoError(t, err)
	assert.True(t, principal.Roles.CanVerify())
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	v := newTestVerifier(t, clock, 0)
	ctx := context.Background()

	_, err := v.VerifyAccessToken(ctx, "   ")
	require.ErrorIs(t, err, usecase.ErrUnauthorized)

	_, err = v.VerifyAccessToken(ctx, "not-a-jwt")
	require.ErrorIs(t, err, usecase.ErrUnauthorized)

	other, err := NewVerifier(Config{Key: "another-key", Issuer: "otr-web", Clock: clock})
	require.NoError(t, err)
	forged, err := other.Issue(user.Principal{UserID: 1}, time.Hour)
	require.NoError(t, err)
	_, err = v.VerifyAccessToken(ctx, forged)
	require.ErrorIs(t, err, usecase.ErrUnauthorized)

	wrongIssuer, err := NewVerifier(Config{Key: "test-signing-key", Issuer: "someone-else", Clock: clock})
	require.NoError(t, err)
	token, err := wrongIssuer.Issue(user.Principal{UserID: 1}, time.Hour)
	require.NoError(t, err)
	_, err = v.VerifyAccessToken(ctx, token)
	require.ErrorIs(t, err, usecase.ErrUnauthorized)

	token, err = v.Issue(user.Principal{UserID: 1}, time.Minute)
	require.NoError(t, err)
	clock.Advance(2 * time.Minute)
	_, err = v.VerifyAccessToken(ctx, token)
	require.ErrorIs(t, err, usecase.ErrUnauthorized)
}

func TestVerifier_CacheHonorsExpiry(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	v := newTestVerifier(t, clock, time.Hour)
	ctx := context.Background()

	token, err := v.Issue(user.Principal{UserID: 5}, time.Minute)
	require.NoError(t, err)

	_, err = v.VerifyAccessToken(ctx, token)
	require.NoError(t, err)
	_, err = v.VerifyAccessToken(ctx, token)
	require.NoError(t, err)

	clock.Advance(2 * time.Minute)
	_, err = v.VerifyAccessToken(ctx, token)
	require.ErrorIs(t, err, usecase.ErrUnauthorized)
}

func TestNewVerifier_RequiresKey(t *testing.T) {
	t.Parallel()

	_, err := NewVerifier(Config{})
	require.Error(t, err)
}
