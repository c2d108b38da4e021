package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "super-secret-signing-key-for-tests"

// createTestToken creates a JWT token for testing (unsigned, for dev mode).
func createTestToken(claims *Claims) string {
	header := map[string]string{
		"alg": "none",
		"typ": "JWT",
	}
	headerJSON, _ := json.Marshal(header)
	headerB64 := base64.RawURLEncoding.EncodeToString(headerJSON)

	claimsJSON, _ := json.Marshal(claims)
	claimsB64 := base64.RawURLEncoding.EncodeToString(claimsJSON)

	return headerB64 + "." + claimsB64 + "."
}

func signHS256(t *testing.T, claims *Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func validClaims() *Claims {
	return &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "8d1c2b0e-4a57-4f3e-9a51-0c2f6e9b7d11",
			Issuer:    "https://auth.example.com",
			Audience:  jwt.ClaimStrings{"authenticated"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email:        "asha@example.com",
		Role:         "authenticated",
		UserMetadata: UserMetadata{FullName: "Asha Rao"},
	}
}

func newHMACValidator(t *testing.T) *JWTValidator {
	t.Helper()
	v, err := NewJWTValidator(context.Background(), &ValidatorConfig{
		EnableVerification: true,
		HMACSecret:         testSecret,
		Audience:           "authenticated",
	})
	require.NoError(t, err)
	return v
}

func TestJWTValidator_DevModeParsesWithoutSignature(t *testing.T) {
	v, err := NewJWTValidator(context.Background(), &ValidatorConfig{EnableVerification: false})
	require.NoError(t, err)
	defer v.Close()

	claims, err := v.ValidateToken(createTestToken(validClaims()))
	require.NoError(t, err)

	assert.Equal(t, "8d1c2b0e-4a57-4f3e-9a51-0c2f6e9b7d11", claims.Subject)
	assert.Equal(t, "asha@example.com", claims.Email)
	assert.Equal(t, "Asha Rao", claims.UserMetadata.FullName)
}

func TestJWTValidator_DevModeRejectsGarbage(t *testing.T) {
	v, err := NewJWTValidator(context.Background(), &ValidatorConfig{EnableVerification: false})
	require.NoError(t, err)

	for _, token := range []string{"", "not-a-jwt", "a.b", "!!!.@@@.###"} {
		_, err := v.ValidateToken(token)
		assert.Error(t, err, "token %q", token)
	}
}

func TestNewJWTValidator_RequiresKeyMaterial(t *testing.T) {
	_, err := NewJWTValidator(context.Background(), &ValidatorConfig{EnableVerification: true})
	assert.Error(t, err)
}

func TestJWTValidator_HS256(t *testing.T) {
	v := newHMACValidator(t)

	claims, err := v.ValidateToken(signHS256(t, validClaims(), testSecret))
	require.NoError(t, err)
	assert.Equal(t, "asha@example.com", claims.Email)
}

func TestJWTValidator_HS256WrongSecret(t *testing.T) {
	v := newHMACValidator(t)

	_, err := v.ValidateToken(signHS256(t, validClaims(), "another-secret"))
	assert.Error(t, err)
}

func TestJWTValidator_Expired(t *testing.T) {
	v := newHMACValidator(t)
	claims := validClaims()
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	_, err := v.ValidateToken(signHS256(t, claims, testSecret))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestJWTValidator_MissingExpiry(t *testing.T) {
	v := newHMACValidator(t)
	claims := validClaims()
	claims.ExpiresAt = nil

	_, err := v.ValidateToken(signHS256(t, claims, testSecret))
	assert.Error(t, err)
}

func TestJWTValidator_WrongAudience(t *testing.T) {
	v := newHMACValidator(t)
	claims := validClaims()
	claims.Audience = jwt.ClaimStrings{"someone-else"}

	_, err := v.ValidateToken(signHS256(t, claims, testSecret))
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidAudience)
}

func TestJWTValidator_RS256UnknownIssuer(t *testing.T) {
	v := newHMACValidator(t)

	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	token, err := jwt.NewWithClaims(jwt.SigningMethodRS256, validClaims()).SignedString(key)
	require.NoError(t, err)

	_, err = v.ValidateToken(token)
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "unauthorized issuer"), err.Error())
}

func TestJWTValidator_RejectsNoneAlgorithm(t *testing.T) {
	v := newHMACValidator(t)

	_, err := v.ValidateToken(createTestToken(validClaims()))
	assert.Error(t, err)
}

func TestNewJWTValidator_InvalidEndpoint(t *testing.T) {
	// keyfunc refreshes in the background, so a malformed URL may or may not
	// fail construction. Either way it must not panic.
	_, err := NewJWTValidator(context.Background(), &ValidatorConfig{
		EnableVerification: true,
		JWKSEndpoints:      map[string]string{"https://auth.example.com": "not-a-valid-url"},
	})
	if err != nil {
		assert.Contains(t, err.Error(), "failed to create JWKS client")
	}
}

func TestClaims_HasAnyRole(t *testing.T) {
	c := &Claims{Roles: []string{"user"}}
	assert.True(t, c.HasAnyRole("admin", "user"))
	assert.False(t, c.HasAnyRole("admin"))
	assert.False(t, (&Claims{}).HasAnyRole("admin"))
}
