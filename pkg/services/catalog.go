package services

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/apperrors"
	"github.com/fabric-fusion/fabric-fusion/pkg/database"
	"github.com/fabric-fusion/fabric-fusion/pkg/logging"
	"github.com/fabric-fusion/fabric-fusion/pkg/models"
	"github.com/fabric-fusion/fabric-fusion/pkg/repositories"
	"github.com/fabric-fusion/fabric-fusion/pkg/storage"
)

// MaxFabricPrice is the exclusive upper bound of a fabric price.
const MaxFabricPrice = 1e8

// FabricInput holds the editable fields of a fabric.
type FabricInput struct {
	Name        string
	FabricType  *string
	Description *string
	Price       *float64
	IsActive    bool
}

// ImageUpload is an image file received from a client.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// CatalogService manages fabrics and kurti styles.
type CatalogService interface {
	// ListActiveFabrics returns the fabrics shown to shoppers, newest first.
	ListActiveFabrics(ctx context.Context) ([]*models.Fabric, error)

	// ListAllFabrics returns every fabric including inactive ones, newest first.
	ListAllFabrics(ctx context.Context) ([]*models.Fabric, error)

	GetFabric(ctx context.Context, id uuid.UUID) (*models.Fabric, error)

	// CreateFabric inserts the fabric and uploads its image in one transaction.
	CreateFabric(ctx context.Context, input FabricInput, image *ImageUpload, createdBy uuid.UUID) (*models.Fabric, error)

	// UpdateFabric replaces the editable fields and, when image is non-nil, the image.
	UpdateFabric(ctx context.Context, id uuid.UUID, input FabricInput, image *ImageUpload) (*models.Fabric, error)

	// DeleteFabric removes the fabric and then, best effort, its stored image.
	DeleteFabric(ctx context.Context, id uuid.UUID) error

	ListActiveStyles(ctx context.Context) ([]*models.KurtiStyle, error)
	GetStyle(ctx context.Context, id uuid.UUID) (*models.KurtiStyle, error)

	// SeedStyles upserts the built-in style catalog by slug.
	SeedStyles(ctx context.Context) error
}

type catalogService struct {
	fabricRepo repositories.FabricRepository
	styleRepo  repositories.StyleRepository
	store      storage.ImageStore
	tx         database.Transactor
	logger     *zap.Logger
}

// NewCatalogService creates a new catalog service.
func NewCatalogService(
	fabricRepo repositories.FabricRepository,
	styleRepo repositories.StyleRepository,
	store storage.ImageStore,
	tx database.Transactor,
	logger *zap.Logger,
) CatalogService {
	return &catalogService{
		fabricRepo: fabricRepo,
		styleRepo:  styleRepo,
		store:      store,
		tx:         tx,
		logger:     logger.Named("catalog"),
	}
}

func (s *catalogService) ListActiveFabrics(ctx context.Context) ([]*models.Fabric, error) {
	fabrics, err := s.fabricRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list active fabrics: %w", err)
	}
	return fabrics, nil
}

func (s *catalogService) ListAllFabrics(ctx context.Context) ([]*models.Fabric, error) {
	fabrics, err := s.fabricRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list fabrics: %w", err)
	}
	return fabrics, nil
}

func (s *catalogService) GetFabric(ctx context.Context, id uuid.UUID) (*models.Fabric, error) {
	return s.fabricRepo.GetByID(ctx, id)
}

func (s *catalogService) CreateFabric(ctx context.Context, input FabricInput, image *ImageUpload, createdBy uuid.UUID) (*models.Fabric, error) {
	if err := validateFabricInput(&input); err != nil {
		return nil, err
	}
	if image == nil {
		return nil, fmt.Errorf("fabric image is required: %w", apperrors.ErrInvalidInput)
	}

	fabric := &models.Fabric{
		Name:        input.Name,
		FabricType:  input.FabricType,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    models.PendingImageURL,
		IsActive:    input.IsActive,
	}
	if createdBy != uuid.Nil {
		fabric.CreatedBy = &createdBy
	}

	var uploadedURL string
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.fabricRepo.Create(ctx, fabric); err != nil {
			return err
		}

		url, err := s.store.Put(ctx, storage.FabricImageKey(fabric.ID, image.Filename), image.Body, image.Size, image.ContentType)
		if err != nil {
			return fmt.Errorf("failed to upload fabric image: %w", err)
		}
		uploadedURL = url

		if err := s.fabricRepo.UpdateImageURL(ctx, fabric.ID, url); err != nil {
			return err
		}
		fabric.ImageURL = url
		return nil
	})
	if err != nil {
		// The row was rolled back, so nothing references the uploaded object.
		if uploadedURL != "" {
			s.removeImage(context.WithoutCancel(ctx), fabric.ID, uploadedURL)
		}
		return nil, err
	}

	s.logger.Info("Created fabric",
		zap.String("fabric_id", fabric.ID.String()),
		zap.String("name", fabric.Name))

	return fabric, nil
}

func (s *catalogService) UpdateFabric(ctx context.Context, id uuid.UUID, input FabricInput, image *ImageUpload) (*models.Fabric, error) {
	if err := validateFabricInput(&input); err != nil {
		return nil, err
	}

	fabric, err := s.fabricRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	oldImageURL := fabric.ImageURL
	fabric.Name = input.Name
	fabric.FabricType = input.FabricType
	fabric.Description = input.Description
	fabric.Price = input.Price
	fabric.IsActive = input.IsActive

	if image != nil {
		url, err := s.store.Put(ctx, storage.FabricImageKey(fabric.ID, image.Filename), image.Body, image.Size, image.ContentType)
		if err != nil {
			return nil, fmt.Errorf("failed to upload fabric image: %w", err)
		}
		fabric.ImageURL = url
	}

	if err := s.fabricRepo.Update(ctx, fabric); err != nil {
		// A same-key upload already replaced the live object and must stay.
		if fabric.ImageURL != oldImageURL {
			s.removeImage(context.WithoutCancel(ctx), fabric.ID, fabric.ImageURL)
		}
		return nil, err
	}

	// A new extension means a new key; the previous object is now orphaned.
	if fabric.ImageURL != oldImageURL {
		s.removeImage(ctx, fabric.ID, oldImageURL)
	}

	return fabric, nil
}

func (s *catalogService) DeleteFabric(ctx context.Context, id uuid.UUID) error {
	fabric, err := s.fabricRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.fabricRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.removeImage(ctx, id, fabric.ImageURL)

	s.logger.Info("Deleted fabric", zap.String("fabric_id", id.String()))
	return nil
}

// removeImage deletes a stored image, logging instead of failing.
func (s *catalogService) removeImage(ctx context.Context, fabricID uuid.UUID, imageURL string) {
	key := s.store.KeyFromURL(imageURL)
	if key == "" {
		return
	}
	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Warn("Failed to delete fabric image",
			zap.String("fabric_id", fabricID.String()),
			zap.String("key", key),
			zap.String("error", logging.SanitizeError(err)))
	}
}

func validateFabricInput(input *FabricInput) error {
	input.Name = strings.TrimSpace(input.Name)
	if input.Name == "" {
		return fmt.Errorf("fabric name is required: %w", apperrors.ErrInvalidInput)
	}
	if input.Price != nil {
		if err := ValidatePrice(*input.Price); err != nil {
			return err
		}
	}
	input.FabricType = trimmedOrNil(input.FabricType)
	input.Description = trimmedOrNil(input.Description)
	return nil
}

// ValidatePrice rejects non-finite, negative and out-of-range prices.
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("price must be a finite number: %w", apperrors.ErrInvalidInput)
	}
	if price < 0 || price >= MaxFabricPrice {
		return fmt.Errorf("price must be between 0 and %.0f: %w", MaxFabricPrice, apperrors.ErrInvalidInput)
	}
	return nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// Ensure catalogService implements CatalogService at compile time.
var _ CatalogService = (*catalogService)(nil)
