package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
)

// TokenValidator validates a JWT and returns its claims.
type TokenValidator interface {
	// ValidateToken returns an error if the token is invalid, expired, or
	// signed by an unknown issuer.
	ValidateToken(tokenString string) (*Claims, error)
	// Close releases any resources held by the validator.
	Close()
}

// ValidatorConfig contains configuration for the JWT validator.
type ValidatorConfig struct {
	// EnableVerification controls whether JWT signatures are verified.
	// Set to false for development mode (parses tokens without verification).
	EnableVerification bool
	// HMACSecret verifies HS256 tokens signed with the provider's shared secret.
	HMACSecret string
	// JWKSEndpoints maps issuer URLs to their JWKS endpoint URLs for RS256/ES256 tokens.
	// Only tokens from issuers in this map are accepted for asymmetric algorithms.
	JWKSEndpoints map[string]string
	// Audience, when set, must appear in the token's aud claim.
	Audience string
}

// JWTValidator validates tokens with a shared secret or JWKS public keys.
type JWTValidator struct {
	endpoints map[string]keyfunc.Keyfunc
	config    *ValidatorConfig
	parser    *jwt.Parser
}

// NewJWTValidator creates a validator. If verification is enabled, it fetches
// JWKS from all configured endpoints and fails if any of them cannot be loaded.
func NewJWTValidator(ctx context.Context, config *ValidatorConfig) (*JWTValidator, error) {
	v := &JWTValidator{
		endpoints: make(map[string]keyfunc.Keyfunc),
		config:    config,
	}

	if !config.EnableVerification {
		return v, nil
	}

	if config.HMACSecret == "" && len(config.JWKSEndpoints) == 0 {
		return nil, errors.New("verification enabled without a secret or JWKS endpoint")
	}

	for issuer, jwksURL := range config.JWKSEndpoints {
		jwks, err := keyfunc.NewDefaultCtx(ctx, []string{jwksURL})
		if err != nil {
			return nil, fmt.Errorf("failed to create JWKS client for %s: %w", issuer, err)
		}
		v.endpoints[issuer] = jwks
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"HS256", "RS256", "ES256"}),
		jwt.WithExpirationRequired(),
	}
	if config.Audience != "" {
		opts = append(opts, jwt.WithAudience(config.Audience))
	}
	v.parser = jwt.NewParser(opts...)

	return v, nil
}

// ValidateToken validates a JWT token and returns the claims.
// If verification is disabled, it parses the token without signature validation.
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	if !v.config.EnableVerification {
		return v.parseUnverifiedToken(tokenString)
	}

	token, err := v.parser.ParseWithClaims(tokenString, &Claims{}, v.keyFor)
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// keyFor picks the verification key by signing method and issuer.
func (v *JWTValidator) keyFor(token *jwt.Token) (any, error) {
	switch token.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if v.config.HMACSecret == "" {
			return nil, errors.New("HMAC tokens are not accepted")
		}
		return []byte(v.config.HMACSecret), nil
	case *jwt.SigningMethodRSA, *jwt.SigningMethodECDSA:
		claims, ok := token.Claims.(*Claims)
		if !ok {
			return nil, errors.New("invalid claims type")
		}
		jwks, exists := v.endpoints[claims.Issuer]
		if !exists {
			return nil, fmt.Errorf("unauthorized issuer: %s", claims.Issuer)
		}
		return jwks.Keyfunc(token)
	default:
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
}

// parseUnverifiedToken parses a JWT without verifying the signature.
// Used in development mode when EnableVerification is false.
func (v *JWTValidator) parseUnverifiedToken(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	token, _, err := parser.ParseUnverified(tokenString, &Claims{})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok {
		return nil, errors.New("invalid claims type")
	}

	return claims, nil
}

// Close releases any resources held by the validator.
// Currently a no-op as keyfunc v3 doesn't require explicit cleanup.
func (v *JWTValidator) Close() {}

// Ensure JWTValidator implements TokenValidator at compile time.
var _ TokenValidator = (*JWTValidator)(nil)
