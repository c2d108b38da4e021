package services

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/fabric-fusion/fabric-fusion/pkg/models"
)

//go:embed default_styles.yaml
var defaultStylesYAML []byte

type styleSeedFile struct {
	Styles []styleSeed `yaml:"styles"`
}

type styleSeed struct {
	Slug        string `yaml:"slug"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Icon        string `yaml:"icon"`
}

// DefaultStyles parses the embedded style catalog.
func DefaultStyles() ([]*models.KurtiStyle, error) {
	return parseStyleSeeds(defaultStylesYAML)
}

func parseStyleSeeds(data []byte) ([]*models.KurtiStyle, error) {
	var file styleSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse style seeds: %w", err)
	}

	styles := make([]*models.KurtiStyle, 0, len(file.Styles))
	seen := make(map[string]bool, len(file.Styles))
	for _, seed := range file.Styles {
		if seed.Slug == "" || seed.Name == "" {
			return nil, fmt.Errorf("style seed requires slug and name")
		}
		if seen[seed.Slug] {
			return nil, fmt.Errorf("duplicate style slug %q", seed.Slug)
		}
		seen[seed.Slug] = true

		style := &models.KurtiStyle{
			Slug:     seed.Slug,
			Name:     seed.Name,
			IsActive: true,
		}
		if seed.Description != "" {
			desc := seed.Description
			style.Description = &desc
		}
		if seed.Icon != "" {
			icon := seed.Icon
			style.Icon = &icon
		}
		styles = append(styles, style)
	}
	return styles, nil
}

func (s *catalogService) ListActiveStyles(ctx context.Context) ([]*models.KurtiStyle, error) {
	styles, err := s.styleRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list styles: %w", err)
	}
	return styles, nil
}

func (s *catalogService) GetStyle(ctx context.Context, id uuid.UUID) (*models.KurtiStyle, error) {
	return s.styleRepo.GetByID(ctx, id)
}

func (s *catalogService) SeedStyles(ctx context.Context) error {
	styles, err := DefaultStyles()
	if err != nil {
		return err
	}

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		for _, style := range styles {
			if err := s.styleRepo.Upsert(ctx, style); err != nil {
				return fmt.Errorf("failed to seed style %s: %w", style.Slug, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("Seeded kurti styles", zap.Int("count", len(styles)))
	return nil
}
