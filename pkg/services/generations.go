package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/repositories"
)

// CreateGenerationInput is a user's request to render a fabric in a style.
type CreateGenerationInput struct {
	FabricID     uuid.UUID
	StyleID      uuid.UUID
	UserImageURL string
	Prompt       string
}

// GenerationService runs generation requests and records their outcome.
type GenerationService interface {
	// Create records the request, relays it to the image provider and writes
	// the outcome back. When the relay fails the returned generation is in the
	// failed state and the error is a *RelayError.
	Create(ctx context.Context, userID uuid.UUID, input CreateGenerationInput) (*models.Generation, error)

	// List returns the user's generations, newest first.
	List(ctx context.Context, userID uuid.UUID) ([]*models.Generation, error)

	// Get returns one of the user's generations. Other users' records are ErrNotFound.
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Generation, error)
}

type generationService struct {
	generationRepo repositories.GenerationRepository
	fabricRepo     repositories.FabricRepository
	styleRepo      repositories.StyleRepository
	relay          RelayService
	logger         *zap.Logger
}

// NewGenerationService creates a new generation service.
func NewGenerationService(
	generationRepo repositories.GenerationRepository,
	fabricRepo repositories.FabricRepository,
	styleRepo repositories.StyleRepository,
	relay RelayService,
	logger *zap.Logger,
) GenerationService {
	return &generationService{
		generationRepo: generationRepo,
		fabricRepo:     fabricRepo,
		styleRepo:      styleRepo,
		relay:          relay,
		logger:         logger.Named("generations"),
	}
}

const listGenerationsLimit = 100

func (s *generationService) Create(ctx context.Context, userID uuid.UUID, input CreateGenerationInput) (*models.Generation, error) {
	input.UserImageURL = strings.TrimSpace(input.UserImageURL)
	if input.FabricID == uuid.Nil || input.StyleID == uuid.Nil || input.UserImageURL == "" {
		return nil, fmt.Errorf("fabric, style and photo are required: %w", apperrors.ErrInvalidInput)
	}

	fabric, err := s.fabricRepo.GetByID(ctx, input.FabricID)
	if err != nil {
		return nil, err
	}
	if !fabric.IsActive {
		return nil, fmt.Errorf("fabric %s is not available: %w", fabric.ID, apperrors.ErrNotFound)
	}

	style, err := s.styleRepo.GetByID(ctx, input.StyleID)
	if err != nil {
		return nil, err
	}
	if !style.IsActive {
		return nil, fmt.Errorf("style %s is not available: %w", style.ID, apperrors.ErrNotFound)
	}

	gen := &models.Generation{
		UserID:       userID,
		FabricID:     fabric.ID,
		KurtiStyleID: style.ID,
		UserImageURL: input.UserImageURL,
		Status:       models.GenerationStatusProcessing,
	}
	if err := s.generationRepo.Create(ctx, gen); err != nil {
		return nil, err
	}

	result, relayErr := s.relay.Generate(ctx, RelayRequest{
		FabricImageURL: fabric.ImageURL,
		UserImageURL:   input.UserImageURL,
		KurtiStyle:     style.Name,
		Prompt:         input.Prompt,
	})

	// The outcome is recorded even if the caller went away mid-request.
	writeCtx := context.WithoutCancel(ctx)

	if relayErr != nil {
		var re *RelayError
		message := relayErr.Error()
		prompt := ""
		if errors.As(relayErr, &re) {
			prompt = re.Prompt
		}

		if err := s.generationRepo.MarkFailed(writeCtx, gen.ID, prompt, message); err != nil {
			s.logger.Error("Failed to record generation failure",
				zap.String("generation_id", gen.ID.String()),
				zap.Error(err))
		}

		gen.Status = models.GenerationStatusFailed
		gen.ErrorMessage = &message
		if prompt != "" {
			gen.PromptUsed = &prompt
		}
		return gen, relayErr
	}

	if err := s.generationRepo.MarkCompleted(writeCtx, gen.ID, result.ImageURL, result.Prompt); err != nil {
		return nil, fmt.Errorf("failed to record generation result: %w", err)
	}

	gen.Status = models.GenerationStatusCompleted
	gen.GeneratedImageURL = &result.ImageURL
	gen.PromptUsed = &result.Prompt

	s.logger.Info("Generation completed",
		zap.String("generation_id", gen.ID.String()),
		zap.String("user_id", userID.String()),
		zap.String("style", style.Slug))

	return gen, nil
}

func (s *generationService) List(ctx context.Context, userID uuid.UUID) ([]*models.Generation, error) {
	return s.generationRepo.ListByUser(ctx, userID, listGenerationsLimit)
}

func (s *generationService) Get(ctx context.Context, userID, id uuid.UUID) (*models.Generation, error) {
	return s.generationRepo.GetForUser(ctx, id, userID)
}

// Ensure generationService implements GenerationService at compile time.
var _ GenerationService = (*generationService)(nil)
