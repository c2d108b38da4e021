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

// GenerationRepository defines the interface for generation request access.
type GenerationRepository interface {
	Create(ctx context.Context, gen *models.Generation) error
	// GetForUser returns the generation only when it belongs to userID.
	GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Generation, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Generation, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, imageURL, prompt string) error
	MarkFailed(ctx context.Context, id uuid.UUID, prompt, errMsg string) error
}

type generationRepository struct {
	db database.Querier
}

// NewGenerationRepository creates a new generation repository.
func NewGenerationRepository(db database.Querier) GenerationRepository {
	return &generationRepository{db: db}
}

const generationColumns = `id, user_id, fabric_id, kurti_style_id, user_image_url, generated_image_url,
	status, prompt_used, error_message, created_at, updated_at`

// Create inserts a generation request. Status defaults to processing.
func (r *generationRepository) Create(ctx context.Context, gen *models.Generation) error {
	if gen.Status == "" {
		gen.Status = models.GenerationStatusProcessing
	}

	query := `
		INSERT INTO generations (user_id, fabric_id, kurti_style_id, user_image_url, status, prompt_used)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`

	err := database.Conn(ctx, r.db).QueryRow(ctx, query,
		gen.UserID,
		gen.FabricID,
		gen.KurtiStyleID,
		gen.UserImageURL,
		gen.Status,
		gen.PromptUsed,
	).Scan(&gen.ID, &gen.CreatedAt, &gen.UpdatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("generation references a missing user, fabric or style: %w", apperrors.ErrNotFound)
		}
		return fmt.Errorf("failed to create generation: %w", err)
	}

	return nil
}

func (r *generationRepository) GetForUser(ctx context.Context, id, userID uuid.UUID) (*models.Generation, error) {
	query := `SELECT ` + generationColumns + ` FROM generations WHERE id = $1 AND user_id = $2`

	gen, err := scanGeneration(database.Conn(ctx, r.db).QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("generation %s: %w", id, apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get generation: %w", err)
	}
	return gen, nil
}

func (r *generationRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*models.Generation, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + generationColumns + `
		FROM generations
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	rows, err := database.Conn(ctx, r.db).Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	defer rows.Close()

	generations := make([]*models.Generation, 0)
	for rows.Next() {
		gen, err := scanGeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan generation: %w", err)
		}
		generations = append(generations, gen)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating generations: %w", err)
	}

	return generations, nil
}

func (r *generationRepository) MarkCompleted(ctx context.Context, id uuid.UUID, imageURL, prompt string) error {
	query := `
		UPDATE generations
		SET status = $1, generated_image_url = $2, prompt_used = $3, error_message = NULL, updated_at = $4
		WHERE id = $5`

	return r.exec(ctx, id, query, models.GenerationStatusCompleted, imageURL, prompt, time.Now(), id)
}

func (r *generationRepository) MarkFailed(ctx context.Context, id uuid.UUID, prompt, errMsg string) error {
	query := `
		UPDATE generations
		SET status = $1, prompt_used = NULLIF($2, ''), error_message = $3, updated_at = $4
		WHERE id = $5`

	return r.exec(ctx, id, query, models.GenerationStatusFailed, prompt, errMsg, time.Now(), id)
}

func (r *generationRepository) exec(ctx context.Context, id uuid.UUID, query string, args ...any) error {
	result, err := database.Conn(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update generation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("generation %s: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

func scanGeneration(row pgx.Row) (*models.Generation, error) {
	var g models.Generation
	err := row.Scan(
		&g.ID,
		&g.UserID,
		&g.FabricID,
		&g.KurtiStyleID,
		&g.UserImageURL,
		&g.GeneratedImageURL,
		&g.Status,
		&g.PromptUsed,
		&g.ErrorMessage,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// Ensure generationRepository implements GenerationRepository at compile time.
var _ GenerationRepository = (*generationRepository)(nil)
