// Package llm sends the matching prompt to a chat-completion provider and
// returns the raw answer text. Two providers are supported: OpenAI (default)
// and Gemini.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inclusive-matching-api/internal/domain"

	"go.uber.org/zap"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the provider settings read from the environment.
type Config struct {
	Provider    string
	APIKey      string
	Model       string
	BaseURL     string
	Temperature float64
	MaxTokens   int
	LogUsage    bool
	Timeout     time.Duration
	MaxRetries  int

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string
}

// NewGateway builds the gateway for cfg.Provider. A provider without an API
// key still yields a gateway; every call on it fails with
// domain.ErrLLMNotConfigured so the rest of the API keeps working.
func NewGateway(ctx context.Context, cfg Config, log *zap.Logger) (domain.LLMGateway, error) {
	if log == nil {
		log = zap.NewNop()
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderOpenAI:
		if strings.TrimSpace(cfg.APIKey) == "" {
			log.Warn("OPENAI_API_KEY is not set, matching requests will fail")
			return unconfigured{provider: ProviderOpenAI}, nil
		}
		return newOpenAIGateway(cfg, log), nil
	case ProviderGemini:
		if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
			log.Warn("GEMINI_API_KEY is not set, matching requests will fail")
			return unconfigured{provider: ProviderGemini}, nil
		}
		return newGeminiGateway(ctx, cfg, log)
	default:
		return nil, fmt.Errorf("unknown LLM provider %q", cfg.Provider)
	}
}

type unconfigured struct {
	provider string
}

func (u unconfigured) Complete(ctx context.Context, system, user string) (string, error) {
	if err := checkMessages(system, user); err != nil {
		return "", err
	}
	return "", fmt.Errorf("%w: %s", domain.ErrLLMNotConfigured, u.provider)
}

func checkMessages(system, user string) error {
	if strings.TrimSpace(system) == "" || strings.TrimSpace(user) == "" {
		return domain.ErrLLMInvalidInput
	}
	return nil
}
