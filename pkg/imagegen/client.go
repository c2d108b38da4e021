// Package imagegen calls the OpenAI images endpoint.
package imagegen

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/logging"
)

// Generator produces one image for a text prompt.
type Generator interface {
	// GenerateImage returns the URL of the first generated image.
	GenerateImage(ctx context.Context, prompt string) (string, error)
}

// Config holds configuration for creating an image generation client.
type Config struct {
	BaseURL string // e.g. "https://api.openai.com/v1"
	APIKey  string // May be empty; requests then fail with ErrorTypeCredential
	Model   string
	Size    string
	Quality string
	Style   string
}

// Client provides access to the OpenAI images endpoint.
type Client struct {
	client  *openai.Client
	hasKey  bool
	model   string
	size    string
	quality string
	style   string
	logger  *zap.Logger
}

// NewClient creates a new image generation client. Empty fields fall back to
// dall-e-3, 1024x1024, standard quality and natural style.
func NewClient(cfg *Config, logger *zap.Logger) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}

	return &Client{
		client:  openai.NewClientWithConfig(clientConfig),
		hasKey:  strings.TrimSpace(cfg.APIKey) != "",
		model:   orDefault(cfg.Model, openai.CreateImageModelDallE3),
		size:    orDefault(cfg.Size, openai.CreateImageSize1024x1024),
		quality: orDefault(cfg.Quality, openai.CreateImageQualityStandard),
		style:   orDefault(cfg.Style, openai.CreateImageStyleNatural),
		logger:  logger.Named("imagegen"),
	}
}

// GenerateImage sends a single image request and returns the first image URL.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (string, error) {
	if !c.hasKey {
		return "", &Error{Type: ErrorTypeCredential, Message: "API key not configured", Model: c.model}
	}

	c.logger.Debug("Image request",
		zap.String("model", c.model),
		zap.String("size", c.size),
		zap.Int("prompt_len", len(prompt)))

	start := time.Now()

	resp, err := c.client.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt,
		Model:          c.model,
		N:              1,
		Size:           c.size,
		Quality:        c.quality,
		Style:          c.style,
		ResponseFormat: openai.CreateImageResponseFormatURL,
	})
	if err != nil {
		genErr := ClassifyError(err, c.model)
		c.logger.Error("Image request failed",
			zap.Duration("elapsed", time.Since(start)),
			zap.String("type", string(genErr.Type)),
			zap.Int("status", genErr.StatusCode),
			zap.String("error", logging.SanitizeError(err)))
		return "", genErr
	}

	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		c.logger.Warn("Image response carried no URL", zap.Int("images", len(resp.Data)))
		return "", &Error{Type: ErrorTypeNoImage, Message: "no image in response", Model: c.model}
	}

	c.logger.Info("Image request completed", zap.Duration("elapsed", time.Since(start)))

	return resp.Data[0].URL, nil
}

// IsCredentialError reports whether err means no API key is configured.
func IsCredentialError(err error) bool {
	var genErr *Error
	return errors.As(err, &genErr) && genErr.Type == ErrorTypeCredential
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// Ensure Client implements Generator at compile time.
var _ Generator = (*Client)(nil)
