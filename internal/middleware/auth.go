package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/crickarena/auction-api/internal/domain"
	"github.com/crickarena/auction-api/internal/service"
	apperrors "github.com/crickarena/auction-api/pkg/errors"
	"github.com/crickarena/auction-api/pkg/logger"
)

// ContextKey represents keys used in request context
type ContextKey string

const (
	// ClaimsContextKey is the key for auth claims in context
	ClaimsContextKey ContextKey = "claims"
	// RequestIDContextKey is the key for request ID in context
	RequestIDContextKey ContextKey = "request_id"
)

// Auth validates the Bearer token and stores its claims in the request context
func Auth(tokens service.TokenService, logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeErrorResponse(w, apperrors.NewUnauthorizedError("authorization header is required"), logger)
				return
			}

			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeErrorResponse(w, apperrors.NewUnauthorizedError("invalid authorization header format"), logger)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if token == "" {
				writeErrorResponse(w, apperrors.NewUnauthorizedError("token is required"), logger)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				logger.WithError(err).Debug("token verification failed")
				writeErrorResponse(w, apperrors.NewUnauthorizedError("invalid or expired token"), logger)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// LeagueScope rejects tokens issued for a different league than the one in
// the URL. It must run after Auth on routes carrying a leagueID param.
func LeagueScope(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeErrorResponse(w, apperrors.NewUnauthorizedError("authentication required"), logger)
				return
			}

			leagueID := chi.URLParam(r, "leagueID")
			if leagueID == "" || claims.LeagueID != leagueID {
				writeErrorResponse(w, apperrors.NewForbiddenError("token is not valid for this league"), logger)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin allows only auctioneer tokens through
func RequireAdmin(logger *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeErrorResponse(w, apperrors.NewUnauthorizedError("authentication required"), logger)
				return
			}
			if claims.Role != domain.RoleAdmin {
				writeErrorResponse(w, apperrors.NewForbiddenError("admin access required"), logger)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestID tags each request with a unique ID for log correlation
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.NewString()
			ctx := context.WithValue(r.Context(), RequestIDContextKey, requestID)
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// ClaimsFromContext extracts auth claims placed by the Auth middleware
func ClaimsFromContext(ctx context.Context) (*domain.AuthClaims, bool) {
	claims, ok := ctx.Value(ClaimsContextKey).(*domain.AuthClaims)
	return claims, ok
}

func writeErrorResponse(w http.ResponseWriter, appErr *apperrors.AppError, logger *logger.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode)

	resp := map[string]interface{}{
		"success": false,
		"error": map[string]interface{}{
			"type":      appErr.Type,
			"message":   appErr.Message,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.WithError(err).Error("failed to write error response")
	}
}
