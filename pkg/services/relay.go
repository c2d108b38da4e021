package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fabric-fusion/fabric-fusion/pkg/imagegen"
	"github.com/fabric-fusion/fabric-fusion/pkg/logging"
)

// DefaultPromptAddendum is used when the caller supplies no additional requirements.
const DefaultPromptAddendum = "Make it look elegant and well-fitted."

// Relay failure messages surfaced to callers.
const (
	RelayMsgMissingKey = "OpenAI API key not configured"
	RelayMsgNoImage    = "No image generated"
	relayMsgAPIPrefix  = "OpenAI API error: "
)

// RelayRequest is the input of one generation relay call.
// FabricImageURL and UserImageURL are accepted but the provider receives only the text prompt.
type RelayRequest struct {
	FabricImageURL string `json:"fabricImageUrl"`
	UserImageURL   string `json:"userImageUrl"`
	KurtiStyle     string `json:"kurtiStyle"`
	Prompt         string `json:"prompt,omitempty"`
}

// RelayResult is the outcome of a successful relay call.
type RelayResult struct {
	ImageURL string
	Prompt   string
}

// RelayError is a relay failure carrying the flat message shown to the caller.
type RelayError struct {
	Message string
	// Prompt is set when the failure happened after the prompt was composed.
	Prompt string
	Cause  error
}

func (e *RelayError) Error() string {
	return e.Message
}

func (e *RelayError) Unwrap() error {
	return e.Cause
}

// RelayService forwards a generation request to the image provider.
type RelayService interface {
	Generate(ctx context.Context, req RelayRequest) (*RelayResult, error)
}

type relayService struct {
	generator imagegen.Generator
	logger    *zap.Logger
}

// NewRelayService creates a relay over the given image generator.
func NewRelayService(generator imagegen.Generator, logger *zap.Logger) RelayService {
	return &relayService{
		generator: generator,
		logger:    logger.Named("relay"),
	}
}

// BuildPrompt composes the provider prompt for a style and optional extra requirements.
// A blank prompt counts as absent.
func BuildPrompt(style, prompt string) string {
	addendum := prompt
	if strings.TrimSpace(addendum) == "" {
		addendum = DefaultPromptAddendum
	}
	return fmt.Sprintf(
		"Create a realistic image of a person wearing a %s kurti made from the fabric pattern shown. "+
			"The kurti should preserve the exact fabric design, colors, and patterns. "+
			"The person should look natural and the kurti should fit well. "+
			"Style: %s. Additional requirements: %s",
		style, style, addendum,
	)
}

// Generate composes the prompt and performs exactly one provider call.
// Every failure is returned as *RelayError.
func (s *relayService) Generate(ctx context.Context, req RelayRequest) (*RelayResult, error) {
	prompt := BuildPrompt(req.KurtiStyle, req.Prompt)

	s.logger.Debug("Relaying generation request",
		zap.String("style", req.KurtiStyle),
		zap.Bool("custom_prompt", strings.TrimSpace(req.Prompt) != ""))

	imageURL, err := s.generator.GenerateImage(ctx, prompt)
	if err != nil {
		relayErr := &RelayError{Message: relayMessage(err), Prompt: prompt, Cause: err}
		if imagegen.IsCredentialError(err) {
			s.logger.Error("Image provider key is not configured")
		} else {
			s.logger.Warn("Generation relay failed",
				zap.String("type", string(imagegen.GetErrorType(err))),
				zap.String("error", logging.SanitizeError(err)))
		}
		return nil, relayErr
	}

	return &RelayResult{ImageURL: imageURL, Prompt: prompt}, nil
}

// relayMessage maps a generator error to the caller-facing message.
func relayMessage(err error) string {
	var genErr *imagegen.Error
	if !errors.As(err, &genErr) {
		return logging.SanitizeError(err)
	}

	switch genErr.Type {
	case imagegen.ErrorTypeCredential:
		return RelayMsgMissingKey
	case imagegen.ErrorTypeProvider:
		return relayMsgAPIPrefix + genErr.Message
	case imagegen.ErrorTypeNoImage:
		return RelayMsgNoImage
	default:
		if genErr.Cause != nil {
			return logging.SanitizeError(genErr.Cause)
		}
		return genErr.Message
	}
}

// Ensure relayService implements RelayService at compile time.
var _ RelayService = (*relayService)(nil)
