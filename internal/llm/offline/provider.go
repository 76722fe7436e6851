// Package offline registers a provider that never reaches a model, so every
// interviewer call takes its canned fallback. Used for local development and demos.
package offline

import (
	"context"

	"peerprep/interview/internal/llm"
	"peerprep/interview/internal/models"
)

const Name = "offline"

func init() {
	llm.RegisterProvider(Name, func() (llm.Provider, error) {
		return Provider{}, nil
	})
}

type Provider struct{}

func (Provider) GenerateContent(context.Context, llm.Request) (*models.GenerationResponse, error) {
	return nil, &llm.ProviderError{
		Provider: Name,
		Code:     llm.ErrCodeServiceDown,
		Message:  "running in offline mode",
	}
}

func (Provider) GetProviderName() string { return Name }
