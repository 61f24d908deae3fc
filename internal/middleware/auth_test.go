package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crickarena/auction-api/internal/config"
	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/internal/service"
	"github.com/crickarena/auction-api/pkg/logger"
)

func newTokens() service.TokenService {
	return service.NewTokenService(config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour})
}

func mint(t *testing.T, tokens service.TokenService, claims *domain.AuthClaims) string {
	t.Helper()
	token, err := tokens.Mint(claims)
	require.NoError(t, err)
	return token
}

func protectedRouter(tokens service.TokenService, guards ...func(http.Handler) http.Handler) *chi.Mux {
	log := logger.NewNop()
	r := chi.NewRouter()
	r.Route("/leagues/{leagueID}", func(r chi.Router) {
		r.Use(Auth(tokens, log))
		for _, guard := range guards {
			r.Use(guard)
		}
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			w.Write([]byte(claims.Subject))
		})
	})
	return r
}

func TestAuth_MissingHeader(t *testing.T) {
	router := protectedRouter(newTokens())

	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_MalformedHeader(t *testing.T) {
	router := protectedRouter(newTokens())

	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	req.Header.Set("Authorization", "Basic abc123")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_InvalidToken(t *testing.T) {
	router := protectedRouter(newTokens())

	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuth_ValidTokenExposesClaims(t *testing.T) {
	tokens := newTokens()
	router := protectedRouter(tokens)

	token := mint(t, tokens, &domain.AuthClaims{Subject: "user-1", LeagueID: "league-1", Role: domain.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-1", rec.Body.String())
}

func TestLeagueScope_RejectsForeignLeague(t *testing.T) {
	tokens := newTokens()
	router := protectedRouter(tokens, LeagueScope(logger.NewNop()))

	token := mint(t, tokens, &domain.AuthClaims{Subject: "user-1", LeagueID: "league-2", Role: domain.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLeagueScope_AllowsOwnLeague(t *testing.T) {
	tokens := newTokens()
	router := protectedRouter(tokens, LeagueScope(logger.NewNop()))

	token := mint(t, tokens, &domain.AuthClaims{Subject: "user-1", LeagueID: "league-1", Role: domain.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireAdmin_RejectsFranchiseToken(t *testing.T) {
	tokens := newTokens()
	router := protectedRouter(tokens, RequireAdmin(logger.NewNop()))

	token := mint(t, tokens, &domain.AuthClaims{
		Subject: "user-1", LeagueID: "league-1", FranchiseID: "franchise-1", Role: domain.RoleFranchise,
	})
	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireAdmin_AllowsAdminToken(t *testing.T) {
	tokens := newTokens()
	router := protectedRouter(tokens, RequireAdmin(logger.NewNop()))

	token := mint(t, tokens, &domain.AuthClaims{Subject: "admin-1", LeagueID: "league-1", Role: domain.RoleAdmin})
	req := httptest.NewRequest(http.MethodGet, "/leagues/league-1/ping", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}
