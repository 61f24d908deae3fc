package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickarena/auction-api/internal/config"
	"github.com/crickarena/auction-api/internal/domain"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
)

func newTestTokenService(ttl time.Duration) TokenService {
	return NewTokenService(config.AuthConfig{
		JWTSecret: "test-secret",
		TokenTTL:  ttl,
	})
}

func TestTokenService_MintVerify(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	claims := &domain.AuthClaims{
		Subject:     "user-1",
		LeagueID:    "league-1",
		FranchiseID: "franchise-1",
		Role:        domain.RoleFranchise,
	}

	token, err := svc.Mint(claims)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, claims, got)
}

func TestTokenService_AdminClaims(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	token, err := svc.Mint(&domain.AuthClaims{
		Subject:  "admin-1",
		LeagueID: "league-1",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)

	got, err := svc.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Empty(t, got.FranchiseID)
}

func TestTokenService_RejectsGarbage(t *testing.T) {
	svc := newTestTokenService(time.Hour)

	_, err := svc.Verify("not-a-token")
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
}

func TestTokenService_RejectsWrongSecret(t *testing.T) {
	minter := NewTokenService(config.AuthConfig{JWTSecret: "secret-a", TokenTTL: time.Hour})
	verifier := NewTokenService(config.AuthConfig{JWTSecret: "secret-b", TokenTTL: time.Hour})

	token, err := minter.Mint(&domain.AuthClaims{Subject: "user-1", LeagueID: "league-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = verifier.Verify(token)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
}

func TestTokenService_RejectsExpired(t *testing.T) {
	svc := newTestTokenService(-time.Minute)

	token, err := svc.Mint(&domain.AuthClaims{Subject: "user-1", LeagueID: "league-1", Role: domain.RoleAdmin})
	require.NoError(t, err)

	_, err = svc.Verify(token)
	require.Error(t, err)
	appErr, ok := apperrors.IsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrorTypeUnauthorized, appErr.Type)
}
