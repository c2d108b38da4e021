// Package auth validates bearer and cookie JWTs issued by the identity provider
// and gates routes by the caller's profile role.
package auth

import (
	"context"
	"slices"

	"github.com/golang-jwt/jwt/v5"

	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// ClaimsKey is the context key for storing JWT claims.
	ClaimsKey contextKey = "claims"
	// TokenKey is the context key for storing the raw JWT token string.
	TokenKey contextKey = "token"
	// ProfileKey is the context key for storing the caller's profile.
	ProfileKey contextKey = "profile"
)

// UserMetadata is the free-form metadata the identity provider attaches at sign-up.
type UserMetadata struct {
	FullName string `json:"full_name,omitempty"`
}

// Claims represents the JWT claims structure from the identity provider.
// Roles is never trusted from the token; RequireAuth replaces it with the
// role stored on the caller's profile.
type Claims struct {
	jwt.RegisteredClaims
	Email        string       `json:"email,omitempty"`
	Role         string       `json:"role,omitempty"` // Provider role, e.g. "authenticated"
	UserMetadata UserMetadata `json:"user_metadata,omitempty"`
	Roles        []string     `json:"roles,omitempty"`
}

// HasAnyRole reports whether the claims carry one of roles.
func (c *Claims) HasAnyRole(roles ...string) bool {
	for _, r := range c.Roles {
		if slices.Contains(roles, r) {
			return true
		}
	}
	return false
}

// GetClaims retrieves JWT claims from the request context.
// Returns nil and false if claims are not present.
func GetClaims(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*Claims)
	return claims, ok
}

// GetToken retrieves the raw JWT token string from the request context.
// Returns empty string and false if token is not present.
func GetToken(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(TokenKey).(string)
	return token, ok
}

// GetProfile retrieves the caller's profile loaded by RequireAuth.
func GetProfile(ctx context.Context) (*models.Profile, bool) {
	profile, ok := ctx.Value(ProfileKey).(*models.Profile)
	return profile, ok
}
