package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/auth"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/services"
)

// mockAuthService returns fixed claims, or err when set.
type mockAuthService struct {
	claims *auth.Claims
	token  string
	err    error
}

func (m *mockAuthService) ValidateRequest(r *http.Request) (*auth.Claims, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	copied := *m.claims
	return &copied, m.token, nil
}

// staticProfiles answers EnsureProfile with a profile of the configured role.
type staticProfiles struct {
	role string
}

func (s *staticProfiles) EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*models.Profile, error) {
	return &models.Profile{ID: id, Email: &email, Role: s.role}, nil
}

// newTestAuth builds auth middleware that authenticates every request as
// userID with role.
func newTestAuth(userID uuid.UUID, role string) *auth.Middleware {
	claims := &auth.Claims{Email: "shopper@example.com"}
	claims.Subject = userID.String()
	return auth.NewMiddleware(&mockAuthService{claims: claims, token: "test-token"}, &staticProfiles{role: role}, zap.NewNop())
}

// newUnauthenticated builds auth middleware that rejects every request.
func newUnauthenticated() *auth.Middleware {
	return auth.NewMiddleware(&mockAuthService{err: auth.ErrMissingAuthorization}, &staticProfiles{role: models.RoleUser}, zap.NewNop())
}

// mockCatalogService records the inputs it was called with.
type mockCatalogService struct {
	fabrics   []*models.Fabric
	styles    []*models.KurtiStyle
	err       error
	lastInput services.FabricInput
	lastImage *services.ImageUpload
	imageData []byte
	createdBy uuid.UUID
	deleted   uuid.UUID
}

func (m *mockCatalogService) ListActiveFabrics(ctx context.Context) ([]*models.Fabric, error) {
	return m.fabrics, m.err
}

func (m *mockCatalogService) ListAllFabrics(ctx context.Context) ([]*models.Fabric, error) {
	return m.fabrics, m.err
}

func (m *mockCatalogService) GetFabric(ctx context.Context, id uuid.UUID) (*models.Fabric, error) {
	if m.err != nil {
		return nil, m.err
	}
	for _, f := range m.fabrics {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockCatalogService) CreateFabric(ctx context.Context, input services.FabricInput, image *services.ImageUpload, createdBy uuid.UUID) (*models.Fabric, error) {
	m.record(input, image)
	m.createdBy = createdBy
	if m.err != nil {
		return nil, m.err
	}
	return &models.Fabric{ID: uuid.New(), Name: input.Name, Price: input.Price, IsActive: input.IsActive, CreatedBy: &createdBy}, nil
}

func (m *mockCatalogService) UpdateFabric(ctx context.Context, id uuid.UUID, input services.FabricInput, image *services.ImageUpload) (*models.Fabric, error) {
	m.record(input, image)
	if m.err != nil {
		return nil, m.err
	}
	return &models.Fabric{ID: id, Name: input.Name, IsActive: input.IsActive}, nil
}

func (m *mockCatalogService) DeleteFabric(ctx context.Context, id uuid.UUID) error {
	m.deleted = id
	return m.err
}

func (m *mockCatalogService) ListActiveStyles(ctx context.Context) ([]*models.KurtiStyle, error) {
	return m.styles, m.err
}

func (m *mockCatalogService) GetStyle(ctx context.Context, id uuid.UUID) (*models.KurtiStyle, error) {
	return nil, apperrors.ErrNotFound
}

func (m *mockCatalogService) SeedStyles(ctx context.Context) error {
	return nil
}

func (m *mockCatalogService) record(input services.FabricInput, image *services.ImageUpload) {
	m.lastInput = input
	m.lastImage = image
	if image != nil {
		m.imageData, _ = io.ReadAll(image.Body)
	}
}

var _ services.CatalogService = (*mockCatalogService)(nil)

// mockGenerationService returns canned results.
type mockGenerationService struct {
	generation  *models.Generation
	generations []*models.Generation
	err         error
	lastUser    uuid.UUID
	lastInput   services.CreateGenerationInput
}

func (m *mockGenerationService) Create(ctx context.Context, userID uuid.UUID, input services.CreateGenerationInput) (*models.Generation, error) {
	m.lastUser = userID
	m.lastInput = input
	return m.generation, m.err
}

func (m *mockGenerationService) List(ctx context.Context, userID uuid.UUID) ([]*models.Generation, error) {
	m.lastUser = userID
	return m.generations, m.err
}

func (m *mockGenerationService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Generation, error) {
	m.lastUser = userID
	if m.err != nil {
		return nil, m.err
	}
	if m.generation != nil && m.generation.ID == id && m.generation.UserID == userID {
		return m.generation, nil
	}
	return nil, apperrors.ErrNotFound
}

var _ services.GenerationService = (*mockGenerationService)(nil)

// mockProfileService keeps roles in memory.
type mockProfileService struct {
	roles map[uuid.UUID]string
}

func (m *mockProfileService) EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*models.Profile, error) {
	return &models.Profile{ID: id, Role: models.RoleUser}, nil
}

func (m *mockProfileService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	role, ok := m.roles[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &models.Profile{ID: id, Role: role}, nil
}

func (m *mockProfileService) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	if !models.IsValidRole(role) {
		return apperrors.ErrInvalidRole
	}
	if _, ok := m.roles[id]; !ok {
		return apperrors.ErrNotFound
	}
	m.roles[id] = role
	return nil
}

var _ services.ProfileService = (*mockProfileService)(nil)

// mockImageStore keeps uploaded objects in memory.
type mockImageStore struct {
	objects map[string][]byte
	types   map[string]string
	err     error
}

func newMockImageStore() *mockImageStore {
	return &mockImageStore{objects: make(map[string][]byte), types: make(map[string]string)}
}

func (m *mockImageStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	m.types[key] = contentType
	return m.PublicURL(key), nil
}

func (m *mockImageStore) Delete(ctx context.Context, key string) error {
	delete(m.objects, key)
	return nil
}

func (m *mockImageStore) PublicURL(key string) string {
	return "http://storage.test/fabrics/" + key
}

func (m *mockImageStore) KeyFromURL(publicURL string) string {
	return ""
}

// pngHeader is enough of a PNG for content sniffing.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

// multipartBody builds a multipart form with the given fields and, when
// fileField is non-empty, one file part.
func multipartBody(t *testing.T, fields map[string]string, fileField, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileField != "" {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+filename+`"`)
		if contentType != "" {
			h.Set("Content-Type", contentType)
		}
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}
