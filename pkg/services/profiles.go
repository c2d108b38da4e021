package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/repositories"
)

// ProfileService manages application profiles of authenticated identities.
type ProfileService interface {
	// EnsureProfile returns the profile for id, creating it with the user role
	// on first sight. Email and full name refresh stored values when non-empty.
	EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*models.Profile, error)

	GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error)

	// SetRole changes a profile's role. Callers must already be admins.
	SetRole(ctx context.Context, id uuid.UUID, role string) error
}

type profileService struct {
	repo   repositories.ProfileRepository
	logger *zap.Logger
}

// NewProfileService creates a new profile service.
func NewProfileService(repo repositories.ProfileRepository, logger *zap.Logger) ProfileService {
	return &profileService{
		repo:   repo,
		logger: logger.Named("profiles"),
	}
}

func (s *profileService) EnsureProfile(ctx context.Context, id uuid.UUID, email, fullName string) (*models.Profile, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("profile id is required: %w", apperrors.ErrInvalidInput)
	}

	profile := &models.Profile{ID: id, Role: models.RoleUser}
	if v := strings.TrimSpace(email); v != "" {
		profile.Email = &v
	}
	if v := strings.TrimSpace(fullName); v != "" {
		profile.FullName = &v
	}

	stored, err := s.repo.EnsureExists(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	return stored, nil
}

func (s *profileService) GetProfile(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *profileService) SetRole(ctx context.Context, id uuid.UUID, role string) error {
	if !models.IsValidRole(role) {
		return apperrors.ErrInvalidRole
	}

	if err := s.repo.UpdateRole(ctx, id, role); err != nil {
		return err
	}

	s.logger.Info("Changed profile role",
		zap.String("profile_id", id.String()),
		zap.String("role", role))
	return nil
}

// Ensure profileService implements ProfileService at compile time.
var _ ProfileService = (*profileService)(nil)
