package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// ProfileLoader returns the profile of an authenticated identity, creating it on first use.
type ProfileLoader interface {
	EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*models.Profile, error)
}

// Middleware provides HTTP authentication middleware.
// It is thin and delegates authentication logic to AuthService.
type Middleware struct {
	authService AuthService
	profiles    ProfileLoader
	logger      *zap.Logger
}

// NewMiddleware creates a new auth middleware.
func NewMiddleware(authService AuthService, profiles ProfileLoader, logger *zap.Logger) *Middleware {
	return &Middleware{
		authService: authService,
		profiles:    profiles,
		logger:      logger,
	}
}

// RequireAuth validates the JWT, loads the caller's profile and sets claims,
// token and profile in context. Claims.Roles is replaced by the profile role.
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, token, err := m.authService.ValidateRequest(r)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
			return
		}

		userID, err := uuid.Parse(claims.Subject)
		if err != nil {
			writeAuthError(w, http.StatusBadRequest, "bad_request", "Invalid subject in token")
			return
		}

		profile, err := m.profiles.EnsureProfile(r.Context(), userID, claims.Email, claims.UserMetadata.FullName)
		if err != nil {
			m.logger.Error("Failed to load profile",
				zap.String("user_id", userID.String()),
				zap.Error(err))
			writeAuthError(w, http.StatusInternalServerError, "internal_error", "Failed to load profile")
			return
		}

		claims.Roles = []string{profile.Role}

		ctx := context.WithValue(r.Context(), ClaimsKey, claims)
		ctx = context.WithValue(ctx, TokenKey, token)
		ctx = context.WithValue(ctx, ProfileKey, profile)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole allows the request through when the claims in context carry
// one of roles. Must run after RequireAuth.
func RequireRole(roles ...string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetClaims(r.Context())
			if !ok || claims == nil {
				writeAuthError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			if !claims.HasAnyRole(roles...) {
				writeAuthError(w, http.StatusForbidden, "forbidden", "Insufficient permissions")
				return
			}

			next(w, r)
		}
	}
}

// writeAuthError writes a JSON error body with the given status.
func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   code,
		"message": message,
	})
}
