package llm

import (
	"context"

	"peerprep/interview/internal/models"
)

// Request is a single prompt sent to a provider.
type Request struct {
	SystemPrompt string
	Prompt       string
	Temperature  float32
	MaxTokens    int
	RequestID    string
}

// defines the interface for LLM providers
type Provider interface {
	GenerateContent(ctx context.Context, req Request) (*models.GenerationResponse, error)
	GetProviderName() string
}

// represents an error from an LLM provider
type ProviderError struct {
	Provider string
	Code     string
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return e.Provider + " error: " + e.Message + " (" + e.Err.Error() + ")"
	}
	return e.Provider + " error: " + e.Message
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Common error codes
const (
	ErrCodeAPIKey       = "invalid_api_key"
	ErrCodeRateLimit    = "rate_limit_exceeded"
	ErrCodeServiceDown  = "service_unavailable"
	ErrCodeInvalidInput = "invalid_input"
	ErrCodeTimeout      = "timeout"
)
