package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// mockProfileRepository is a configurable mock for testing ProfileService.
type mockProfileRepository struct {
	profile   *models.Profile
	ensureErr error
	updateErr error

	capturedProfile *models.Profile
	capturedRole    string
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	if m.profile == nil {
		return nil, apperrors.ErrNotFound
	}
	return m.profile, nil
}

func (m *mockProfileRepository) EnsureExists(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	m.capturedProfile = profile
	if m.ensureErr != nil {
		return nil, m.ensureErr
	}
	if m.profile != nil {
		return m.profile, nil
	}
	return profile, nil
}

func (m *mockProfileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	m.capturedRole = role
	return m.updateErr
}

func TestProfileService_EnsureProfile_NewUser(t *testing.T) {
	repo := &mockProfileRepository{}
	svc := NewProfileService(repo, zap.NewNop())
	id := uuid.New()

	profile, err := svc.EnsureProfile(context.Background(), id, " asha@example.com ", "")

	require.NoError(t, err)
	assert.Equal(t, id, profile.ID)
	assert.Equal(t, models.RoleUser, repo.capturedProfile.Role)
	require.NotNil(t, repo.capturedProfile.Email)
	assert.Equal(t, "asha@example.com", *repo.capturedProfile.Email)
	assert.Nil(t, repo.capturedProfile.FullName)
}

func TestProfileService_EnsureProfile_KeepsStoredRole(t *testing.T) {
	id := uuid.New()
	repo := &mockProfileRepository{profile: &models.Profile{ID: id, Role: models.RoleAdmin}}
	svc := NewProfileService(repo, zap.NewNop())

	profile, err := svc.EnsureProfile(context.Background(), id, "", "")

	require.NoError(t, err)
	assert.True(t, profile.IsAdmin())
}

func TestProfileService_EnsureProfile_NilID(t *testing.T) {
	svc := NewProfileService(&mockProfileRepository{}, zap.NewNop())

	_, err := svc.EnsureProfile(context.Background(), uuid.Nil, "", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestProfileService_SetRole(t *testing.T) {
	repo := &mockProfileRepository{}
	svc := NewProfileService(repo, zap.NewNop())

	require.NoError(t, svc.SetRole(context.Background(), uuid.New(), models.RoleAdmin))
	assert.Equal(t, models.RoleAdmin, repo.capturedRole)

	err := svc.SetRole(context.Background(), uuid.New(), "owner")
	assert.ErrorIs(t, err, apperrors.ErrInvalidRole)
}
