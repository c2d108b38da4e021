package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/database"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// ProfileRepository defines the interface for user profile data access.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error)
	// EnsureExists creates the profile with the user role when it is missing
	// and returns the stored row. An existing role is never changed.
	EnsureExists(ctx context.Context, profile *models.Profile) (*models.Profile, error)
	UpdateRole(ctx context.Context, id uuid.UUID, role string) error
}

type profileRepository struct {
	db database.Querier
}

// NewProfileRepository creates a new profile repository.
func NewProfileRepository(db database.Querier) ProfileRepository {
	return &profileRepository{db: db}
}

const profileColumns = `id, full_name, email, role::text, created_at, updated_at`

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("profile %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}
	return profile, nil
}

func (r *profileRepository) EnsureExists(ctx context.Context, profile *models.Profile) (*models.Profile, error) {
	role := profile.Role
	if role == "" {
		role = models.RoleUser
	}

	query := `
		INSERT INTO profiles (id, full_name, email, role)
		VALUES ($1, $2, $3, $4::user_role)
		ON CONFLICT (id) DO UPDATE
		SET email = COALESCE(EXCLUDED.email, profiles.email),
		    full_name = COALESCE(profiles.full_name, EXCLUDED.full_name)
		RETURNING ` + profileColumns

	stored, err := scanProfile(database.Conn(ctx, r.db).QueryRow(ctx, query,
		profile.ID,
		profile.FullName,
		profile.Email,
		role,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to ensure profile: %w", err)
	}
	return stored, nil
}

func (r *profileRepository) UpdateRole(ctx context.Context, id uuid.UUID, role string) error {
	if !models.IsValidRole(role) {
		return fmt.Errorf("role %q: %w", role, apperrors.ErrInvalidRole)
	}

	query := `UPDATE profiles SET role = $1::user_role, updated_at = $2 WHERE id = $3`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, role, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update profile role: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("profile %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func scanProfile(row pgx.Row) (*models.Profile, error) {
	var p models.Profile
	if err := row.Scan(&p.ID, &p.FullName, &p.Email, &p.Role, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// Ensure profileRepository implements ProfileRepository at compile time.
var _ ProfileRepository = (*profileRepository)(nil)
