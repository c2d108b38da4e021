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

// FabricRepository defines the interface for fabric catalog data access.
type FabricRepository interface {
	Create(ctx context.Context, fabric *models.Fabric) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Fabric, error)
	ListActive(ctx context.Context) ([]*models.Fabric, error)
	ListAll(ctx context.Context) ([]*models.Fabric, error)
	Update(ctx context.Context, fabric *models.Fabric) error
	UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error
	// Delete removes a fabric. Returns ErrConflict while generations still reference it.
	Delete(ctx context.Context, id uuid.UUID) error
}

// fabricRepository implements FabricRepository using PostgreSQL.
type fabricRepository struct {
	db database.Querier
}

// NewFabricRepository creates a new fabric repository.
func NewFabricRepository(db database.Querier) FabricRepository {
	return &fabricRepository{db: db}
}

const fabricColumns = `id, name, fabric_type, description, price::float8, image_url, is_active, created_by, created_at, updated_at`

// Create inserts a fabric and fills in its generated ID and timestamps.
func (r *fabricRepository) Create(ctx context.Context, fabric *models.Fabric) error {
	query := `
		INSERT INTO fabrics (name, fabric_type, description, price, image_url, is_active, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.db).QueryRow(ctx, query,
		fabric.Name,
		fabric.FabricType,
		fabric.Description,
		fabric.Price,
		fabric.ImageURL,
		fabric.IsActive,
		fabric.CreatedBy,
	).Scan(&fabric.ID, &fabric.CreatedAt, &fabric.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create fabric: %w", err)
	}

	return nil
}

// GetByID retrieves a fabric by ID.
func (r *fabricRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Fabric, error) {
	query := `SELECT ` + fabricColumns + ` FROM fabrics WHERE id = $1`

	fabric, err := scanFabric(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("fabric %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get fabric: %w", err)
	}

	return fabric, nil
}

// ListActive retrieves active fabrics, newest first.
func (r *fabricRepository) ListActive(ctx context.Context) ([]*models.Fabric, error) {
	query := `
		SELECT ` + fabricColumns + `
		FROM fabrics
		WHERE is_active = true
		ORDER BY created_at DESC`

	return r.list(ctx, query)
}

// ListAll retrieves every fabric, newest first.
func (r *fabricRepository) ListAll(ctx context.Context) ([]*models.Fabric, error) {
	query := `
		SELECT ` + fabricColumns + `
		FROM fabrics
		ORDER BY created_at DESC`

	return r.list(ctx, query)
}

func (r *fabricRepository) list(ctx context.Context, query string, args ...any) ([]*models.Fabric, error) {
	rows, err := database.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fabrics: %w", err)
	}
	defer rows.Close()

	fabrics := make([]*models.Fabric, 0)
	for rows.Next() {
		fabric, err := scanFabric(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan fabric: %w", err)
		}
		fabrics = append(fabrics, fabric)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating fabrics: %w", err)
	}

	return fabrics, nil
}

// Update writes the editable fields of a fabric and bumps updated_at.
func (r *fabricRepository) Update(ctx context.Context, fabric *models.Fabric) error {
	fabric.UpdatedAt = time.Now()

	query := `
		UPDATE fabrics
		SET name = $1, fabric_type = $2, description = $3, price = $4,
		    image_url = $5, is_active = $6, updated_at = $7
		WHERE id = $8`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query,
		fabric.Name,
		fabric.FabricType,
		fabric.Description,
		fabric.Price,
		fabric.ImageURL,
		fabric.IsActive,
		fabric.UpdatedAt,
		fabric.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update fabric: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("fabric %s: %w", fabric.ID, apperrors.ErrNotFound)
	}

	return nil
}

// UpdateImageURL sets the stored image URL of a fabric.
func (r *fabricRepository) UpdateImageURL(ctx context.Context, id uuid.UUID, imageURL string) error {
	query := `UPDATE fabrics SET image_url = $1, updated_at = $2 WHERE id = $3`

	result, err := database.Conn(ctx, r.db).Exec(ctx, query, imageURL, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update fabric image: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("fabric %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

// Delete removes a fabric by ID.
func (r *fabricRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := database.Conn(ctx, r.db).Exec(ctx, `DELETE FROM fabrics WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("fabric %s is referenced by generations: %w", id, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to delete fabric: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("fabric %s: %w", id, apperrors.ErrNotFound)
	}

	return nil
}

func scanFabric(row pgx.Row) (*models.Fabric, error) {
	var f models.Fabric
	err := row.Scan(
		&f.ID,
		&f.Name,
		&f.FabricType,
		&f.Description,
		&f.Price,
		&f.ImageURL,
		&f.IsActive,
		&f.CreatedBy,
		&f.CreatedAt,
		&f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Ensure fabricRepository implements FabricRepository at compile time.
var _ FabricRepository = (*fabricRepository)(nil)
