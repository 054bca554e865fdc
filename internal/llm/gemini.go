package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"inclusive-matching-api/internal/domain"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const defaultGeminiModel = "gemini-2.5-flash"

type geminiGateway struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
	timeout     time.Duration
	logUsage    bool
	log         *zap.Logger
}

func newGeminiGateway(ctx context.Context, cfg Config, log *zap.Logger) (*geminiGateway, error) {
	clientCfg := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.GeminiAPIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.GeminiBaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.GeminiBaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	model := strings.TrimSpace(cfg.GeminiModel)
	if model == "" {
		model = defaultGeminiModel
	}

	return &geminiGateway{
		client:      client,
		model:       model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
		timeout:     cfg.Timeout,
		logUsage:    cfg.LogUsage,
		log:         log.Named("gemini"),
	}, nil
}

// Complete sends system as the system instruction and user as the only
// content turn, asking for an application/json answer.
func (g *geminiGateway) Complete(ctx context.Context, system, user string) (string, error) {
	if err := checkMessages(system, user); err != nil {
		return "", err
	}

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	temperature := g.temperature
	genCfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temperature,
		ResponseMIMEType:  "application/json",
	}
	if g.maxTokens > 0 {
		genCfg.MaxOutputTokens = g.maxTokens
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(user), genCfg)
	if err != nil {
		g.log.Error("Gemini request failed", zap.String("model", g.model), zap.Error(err))
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUpstream, err)
	}

	if g.logUsage && resp.UsageMetadata != nil {
		g.log.Info("LLM usage",
			zap.String("provider", ProviderGemini),
			zap.String("model", g.model),
			zap.Int32("prompt_tokens", resp.UsageMetadata.PromptTokenCount),
			zap.Int32("completion_tokens", resp.UsageMetadata.CandidatesTokenCount),
			zap.Int32("total_tokens", resp.UsageMetadata.TotalTokenCount),
			zap.Duration("latency", time.Since(start)),
		)
	}

	text := firstCandidateText(resp)
	if text == "" {
		return "", domain.ErrLLMEmptyResponse
	}
	return text, nil
}

func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Text == "" {
			continue
		}
		b.WriteString(part.Text)
	}
	return strings.TrimSpace(b.String())
}
