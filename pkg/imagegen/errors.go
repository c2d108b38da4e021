package imagegen

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// ErrorType classifies image generation failures.
type ErrorType string

const (
	// ErrorTypeCredential means no API key is configured. No request was sent.
	ErrorTypeCredential ErrorType = "credential"
	// ErrorTypeProvider means the provider answered with a non-2xx status.
	ErrorTypeProvider ErrorType = "provider"
	// ErrorTypeNoImage means the provider answered 2xx without an image URL.
	ErrorTypeNoImage ErrorType = "no_image"
	// ErrorTypeTransport means the request never got an HTTP answer.
	ErrorTypeTransport ErrorType = "transport"
)

// UnknownProviderMessage is reported when an error body carries no message.
const UnknownProviderMessage = "Unknown error"

// Error represents a structured image generation error.
type Error struct {
	Type       ErrorType
	Message    string // Provider message for ErrorTypeProvider, description otherwise
	StatusCode int    // HTTP status code if applicable
	Model      string
	Cause      error
}

// Error implements the error interface.
func (e *Error) Error() string {
	parts := []string{string(e.Type)}
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	if e.Model != "" {
		parts = append(parts, fmt.Sprintf("model=%s", e.Model))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// ClassifyError converts an error returned by the OpenAI client into an *Error.
func ClassifyError(err error, model string) *Error {
	if err == nil {
		return nil
	}

	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		msg := strings.TrimSpace(apiErr.Message)
		if msg == "" {
			msg = UnknownProviderMessage
		}
		return &Error{
			Type:       ErrorTypeProvider,
			Message:    msg,
			StatusCode: apiErr.HTTPStatusCode,
			Model:      model,
			Cause:      err,
		}
	}

	// Non-JSON or message-less error body.
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &Error{
			Type:       ErrorTypeProvider,
			Message:    UnknownProviderMessage,
			StatusCode: reqErr.HTTPStatusCode,
			Model:      model,
			Cause:      err,
		}
	}

	return &Error{
		Type:    ErrorTypeTransport,
		Message: "request failed",
		Model:   model,
		Cause:   err,
	}
}

// GetErrorType extracts the ErrorType from an error, or "" if err is not an *Error.
func GetErrorType(err error) ErrorType {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Type
	}
	return ""
}
