package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/database"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

// StyleRepository defines the interface for kurti style catalog access.
type StyleRepository interface {
	ListActive(ctx context.Context) ([]*models.KurtiStyle, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.KurtiStyle, error)
	GetBySlug(ctx context.Context, slug string) (*models.KurtiStyle, error)
	// Upsert inserts a style or refreshes the existing row with the same slug.
	Upsert(ctx context.Context, style *models.KurtiStyle) error
}

type styleRepository struct {
	db database.Querier
}

// NewStyleRepository creates a new style repository.
func NewStyleRepository(db database.Querier) StyleRepository {
	return &styleRepository{db: db}
}

const styleColumns = `id, slug, name, description, icon, is_active, created_at`

func (r *styleRepository) ListActive(ctx context.Context) ([]*models.KurtiStyle, error) {
	query := `
		SELECT ` + styleColumns + `
		FROM kurti_styles
		WHERE is_active = true
		ORDER BY name`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	defer rows.Close()

	styles := make([]*models.KurtiStyle, 0)
	for rows.Next() {
		style, err := scanStyle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan style: %w", err)
		}
		styles = append(styles, style)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating styles: %w", err)
	}

	return styles, nil
}

func (r *styleRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.KurtiStyle, error) {
	query := `SELECT ` + styleColumns + ` FROM kurti_styles WHERE id = $1`

	style, err := scanStyle(database.Conn(ctx, r.db).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("style %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get style: %w", err)
	}
	return style, nil
}

func (r *styleRepository) GetBySlug(ctx context.Context, slug string) (*models.KurtiStyle, error) {
	query := `SELECT ` + styleColumns + ` FROM kurti_styles WHERE slug = $1`

	style, err := scanStyle(database.Conn(ctx, r.db).QueryRow(ctx, query, slug))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("style %q: %w", slug, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get style: %w", err)
	}
	return style, nil
}

func (r *styleRepository) Upsert(ctx context.Context, style *models.KurtiStyle) error {
	query := `
		INSERT INTO kurti_styles (slug, name, description, icon, is_active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (slug) DO UPDATE
		SET name = EXCLUDED.name,
		    description = EXCLUDED.description,
		    icon = EXCLUDED.icon,
		    is_active = EXCLUDED.is_active
		RETURNING id, created_at`

	err := database.Conn(ctx, r.db).QueryRow(ctx, query,
		style.Slug,
		style.Name,
		style.Description,
		style.Icon,
		style.IsActive,
	).Scan(&style.ID, &style.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert style %q: %w", style.Slug, err)
	}
	return nil
}

func scanStyle(row pgx.Row) (*models.KurtiStyle, error) {
	var s models.KurtiStyle
	if err := row.Scan(&s.ID, &s.Slug, &s.Name, &s.Description, &s.Icon, &s.IsActive, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// Ensure styleRepository implements StyleRepository at compile time.
var _ StyleRepository = (*styleRepository)(nil)
