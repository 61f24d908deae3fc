package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crickarena/auction-api/internal/config"
	"github.com/crickarena/auction-api/internal/domain"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
)

type tokenClaims struct {
	LeagueID    string          `json:"league_id"`
	FranchiseID string          `json:"franchise_id,omitempty"`
	Role        domain.UserRole `json:"role"`
	jwt.RegisteredClaims
}

type tokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates an HMAC token service
func NewTokenService(cfg config.AuthConfig) TokenService {
	return &tokenService{
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}
}

// Mint issues a signed token carrying the given claims
func (s *tokenService) Mint(claims *domain.AuthClaims) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		LeagueID:    claims.LeagueID,
		FranchiseID: claims.FranchiseID,
		Role:        claims.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token string and returns its claims
func (s *tokenService) Verify(tokenString string) (*domain.AuthClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &tokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, apperrors.NewUnauthorizedError("invalid or expired token")
	}

	claims, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, apperrors.NewUnauthorizedError("invalid token claims")
	}

	return &domain.AuthClaims{
		Subject:     claims.Subject,
		LeagueID:    claims.LeagueID,
		FranchiseID: claims.FranchiseID,
		Role:        claims.Role,
	}, nil
}
