package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// rbacTestCase defines a reusable RBAC test scenario.
type rbacTestCase struct {
	name           string
	method         string
	path           string
	role           string
	expectedStatus int
}

// setupRBACMux registers every protected route behind auth middleware that
// authenticates as a profile with role.
func setupRBACMux(t *testing.T, role string) *http.ServeMux {
	t.Helper()

	authMiddleware := newTestAuth(uuid.New(), role)
	mux := http.NewServeMux()
	NewCatalogHandler(&mockCatalogService{}, zap.NewNop()).RegisterRoutes(mux, authMiddleware)
	NewProfileHandler(&mockProfileService{roles: map[uuid.UUID]string{}}, zap.NewNop()).RegisterRoutes(mux, authMiddleware)
	NewGenerationsHandler(&mockGenerationService{}, zap.NewNop()).RegisterRoutes(mux, authMiddleware)
	return mux
}

func TestRBAC_AdminRoutes(t *testing.T) {
	id := uuid.NewString()
	tests := []rbacTestCase{
		{"user cannot list all fabrics", http.MethodGet, "/api/admin/fabrics", models.RoleUser, http.StatusForbidden},
		{"admin lists all fabrics", http.MethodGet, "/api/admin/fabrics", models.RoleAdmin, http.StatusOK},
		{"user cannot create fabric", http.MethodPost, "/api/admin/fabrics", models.RoleUser, http.StatusForbidden},
		{"user cannot update fabric", http.MethodPut, "/api/admin/fabrics/" + id, models.RoleUser, http.StatusForbidden},
		{"user cannot delete fabric", http.MethodDelete, "/api/admin/fabrics/" + id, models.RoleUser, http.StatusForbidden},
		{"admin deletes fabric", http.MethodDelete, "/api/admin/fabrics/" + id, models.RoleAdmin, http.StatusNoContent},
		{"user cannot change roles", http.MethodPut, "/api/admin/profiles/" + id + "/role", models.RoleUser, http.StatusForbidden},
		{"user reads own profile", http.MethodGet, "/api/me", models.RoleUser, http.StatusOK},
		{"user lists own generations", http.MethodGet, "/api/generations", models.RoleUser, http.StatusOK},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			mux := setupRBACMux(t, tc.role)

			req := httptest.NewRequest(tc.method, tc.path, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code, "role=%s method=%s path=%s", tc.role, tc.method, tc.path)

			if tc.expectedStatus == http.StatusForbidden {
				var errResp map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &errResp))
				assert.Equal(t, "forbidden", errResp["error"])
				assert.Equal(t, "Insufficient permissions", errResp["message"])
			}
		})
	}
}

func TestRBAC_Unauthenticated(t *testing.T) {
	mux := http.NewServeMux()
	authMiddleware := newUnauthenticated()
	NewCatalogHandler(&mockCatalogService{}, zap.NewNop()).RegisterRoutes(mux, authMiddleware)
	NewProfileHandler(&mockProfileService{}, zap.NewNop()).RegisterRoutes(mux, authMiddleware)
	NewGenerationsHandler(&mockGenerationService{}, zap.NewNop()).RegisterRoutes(mux, authMiddleware)
	NewUploadsHandler(newMockImageStore(), zap.NewNop()).RegisterRoutes(mux, authMiddleware)

	paths := []struct{ method, path string }{
		{http.MethodGet, "/api/admin/fabrics"},
		{http.MethodGet, "/api/me"},
		{http.MethodPost, "/api/generations"},
		{http.MethodGet, "/api/generations"},
		{http.MethodPost, "/api/uploads/photo"},
	}

	for _, p := range paths {
		req := httptest.NewRequest(p.method, p.path, nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", p.method, p.path)
	}
}

// A role claimed in the token is ignored in favor of the stored profile role.
func TestRBAC_TokenRolesIgnored(t *testing.T) {
	claims := &auth.Claims{Roles: []string{models.RoleAdmin}}
	claims.Subject = uuid.NewString()
	authMiddleware := auth.NewMiddleware(&mockAuthService{claims: claims}, &staticProfiles{role: models.RoleUser}, zap.NewNop())

	mux := http.NewServeMux()
	NewCatalogHandler(&mockCatalogService{}, zap.NewNop()).RegisterRoutes(mux, authMiddleware)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/fabrics", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
