package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/storage"
)

// passthroughTx runs fn without a transaction and records whether it was used.
type passthroughTx struct {
	calls int
}

func (p *passthroughTx) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	p.calls++
	return fn(ctx)
}

// mockFabricRepository keeps fabrics in memory.
type mockFabricRepository struct {
	mu        sync.Mutex
	fabrics   map[uuid.UUID]*models.Fabric
	createErr   error
	deleteErr   error
	updateErr   error
	imageURLErr error
	updates     int
}

func newMockFabricRepository(fabrics ...*models.Fabric) *mockFabricRepository {
	m := &mockFabricRepository{fabrics: make(map[uuid.UUID]*models.Fabric)}
	for _, f := range fabrics {
		m.fabrics[f.ID] = f
	}
	return m
}

func (m *mockFabricRepository) Create(ctx context.Context, fabric *models.Fabric) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	fabric.ID = uuid.New()
	copied := *fabric
	m.fabrics[fabric.ID] = &copied
	return nil
}

func (m *mockFabricRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Fabric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fabrics[id]
	if !ok {
		return nil, fmt.Errorf("fabric %s: %w", id, apperrors.ErrNotFound)
	}
	copied := *f
	return &copied, nil
}

func (m *mockFabricRepository) ListActive(ctx context.Context) ([]*models.Fabric, error) {
	all, _ := m.ListAll(ctx)
	active := make([]*models.Fabric, 0, len(all))
	for _, f := range all {
		if f.IsActive {
			active = append(active, f)
		}
	}
	return active, nil
}

func (m *mockFabricRepository) ListAll(ctx context.Context) ([]*models.Fabric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*models.Fabric, 0, len(m.fabrics))
	for _, f := range m.fabrics {
		out = append(out, f)
	}
	return out, nil
}

func (m *mockFabricRepository) Update(ctx context.Context, fabric *models.Fabric) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.fabrics[fabric.ID]; !ok {
		return apperrors.ErrNotFound
	}
	m.updates++
	copied := *fabric
	m.fabrics[fabric.ID] = &copied
	return nil
}

func (m *mockFabricRepository) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	if m.imageURLErr != nil {
		return m.imageURLErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.fabrics[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	f.ImageURL = imageURL
	return nil
}

func (m *mockFabricRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.fabrics, id)
	return nil
}

// mockStyleRepository keeps styles in memory.
type mockStyleRepository struct {
	styles    map[uuid.UUID]*models.KurtiStyle
	upserted  []*models.KurtiStyle
	upsertErr error
}

func newMockStyleRepository(styles ...*models.KurtiStyle) *mockStyleRepository {
	m := &mockStyleRepository{styles: make(map[uuid.UUID]*models.KurtiStyle)}
	for _, s := range styles {
		m.styles[s.ID] = s
	}
	return m
}

func (m *mockStyleRepository) ListActive(ctx context.Context) ([]*models.KurtiStyle, error) {
	out := make([]*models.KurtiStyle, 0, len(m.styles))
	for _, s := range m.styles {
		if s.IsActive {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *mockStyleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.KurtiStyle, error) {
	s, ok := m.styles[id]
	if !ok {
		return nil, fmt.Errorf("style %s: %w", id, apperrors.ErrNotFound)
	}
	return s, nil
}

func (m *mockStyleRepository) GetBySlug(ctx context.Context, slug string) (*models.KurtiStyle, error) {
	for _, s := range m.styles {
		if s.Slug == slug {
			return s, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *mockStyleRepository) Upsert(ctx context.Context, style *models.KurtiStyle) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	style.ID = uuid.New()
	m.upserted = append(m.upserted, style)
	return nil
}

// mockImageStore records uploads in memory and serves URLs under a fixed base.
type mockImageStore struct {
	objects map[string][]byte
	deleted []string
	putErr  error
}

const mockStoreBase = "http://storage.test/fabrics/"

func newMockImageStore() *mockImageStore {
	return &mockImageStore{objects: make(map[string][]byte)}
}

func (m *mockImageStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error) {
	if m.putErr != nil {
		return "", m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[key] = data
	return m.PublicURL(key), nil
}

func (m *mockImageStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *mockImageStore) PublicURL(key string) string {
	return mockStoreBase + key
}

func (m *mockImageStore) KeyFromURL(publicURL string) string {
	if !strings.HasPrefix(publicURL, mockStoreBase) {
		return ""
	}
	return strings.TrimPrefix(publicURL, mockStoreBase)
}

var _ storage.ImageStore = (*mockImageStore)(nil)

// mockGenerationRepository keeps generations in memory.
type mockGenerationRepository struct {
	gens      map[uuid.UUID]*models.Generation
	createErr error
	markErr   error
}

func newMockGenerationRepository() *mockGenerationRepository {
	return &mockGenerationRepository{gens: make(map[uuid.UUID]*models.Generation)}
}

func (m *mockGenerationRepository) Create(ctx context.Context, gen *models.Generation) error {
	if m.createErr != nil {
		return m.createErr
	}
	gen.ID = uuid.New()
	copied := *gen
	m.gens[gen.ID] = &copied
	return nil
}

func (m *mockGenerationRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Generation, error) {
	g, ok := m.gens[id]
	if !ok || g.UserID != userID {
		return nil, apperrors.ErrNotFound
	}
	return g, nil
}

func (m *mockGenerationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Generation, error) {
	out := make([]*models.Generation, 0)
	for _, g := range m.gens {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGenerationRepository) MarkCompleted(ctx context.Context, id uuid.UUID, imageURL, prompt string) error {
	if m.markErr != nil {
		return m.markErr
	}
	g := m.gens[id]
	g.Status = models.GenerationStatusCompleted
	g.GeneratedImageURL = &imageURL
	g.PromptUsed = &prompt
	return nil
}

func (m *mockGenerationRepository) MarkFailed(ctx context.Context, id uuid.UUID, prompt, errMsg string) error {
	if m.markErr != nil {
		return m.markErr
	}
	g := m.gens[id]
	g.Status = models.GenerationStatusFailed
	g.ErrorMessage = &errMsg
	if prompt != "" {
		g.PromptUsed = &prompt
	}
	return nil
}

// stubRelay returns a canned result or error and captures the request.
type stubRelay struct {
	result   *RelayResult
	err      error
	captured *RelayRequest
}

func (s *stubRelay) Generate(ctx context.Context, req RelayRequest) (*RelayResult, error) {
	s.captured = &req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func imageUpload(name, body string) *ImageUpload {
	return &ImageUpload{
		Filename:    name,
		ContentType: "image/png",
		Size:        int64(len(body)),
		Body:        bytes.NewBufferString(body),
	}
}

func strPtr(s string) *string { return &s }
