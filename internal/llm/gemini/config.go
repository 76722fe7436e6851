package gemini

import (
	"os"
	"strings"
	"time"

	"peerprep/interview/internal/llm"
)

const (
	defaultModel   = "gemini-2.5-flash"
	defaultTimeout = 20 * time.Second
)

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewConfig reads GEMINI_API_KEY (required), GEMINI_MODEL and GEMINI_TIMEOUT.
func NewConfig() (*Config, error) {
	return configFrom(os.Getenv)
}

func configFrom(getenv func(string) string) (*Config, error) {
	cfg := &Config{
		APIKey:  strings.TrimSpace(getenv("GEMINI_API_KEY")),
		Model:   defaultModel,
		Timeout: defaultTimeout,
	}
	if cfg.APIKey == "" {
		return nil, &llm.ProviderError{
			Provider: providerName,
			Code:     llm.ErrCodeAPIKey,
			Message:  "GEMINI_API_KEY environment variable is required",
		}
	}
	if model := strings.TrimSpace(getenv("GEMINI_MODEL")); model != "" {
		cfg.Model = model
	}
	// a bad duration keeps the default
	if d, err := time.ParseDuration(getenv("GEMINI_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	return cfg, nil
}
