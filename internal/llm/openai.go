package llm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inclusive-matching-api/internal/domain"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

const defaultOpenAIModel = "gpt-4o-mini"

type openAIGateway struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
	logUsage    bool
	log         *zap.Logger
}

func newOpenAIGateway(cfg Config, log *zap.Logger) *openAIGateway {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}

	return &openAIGateway{
		client:      openai.NewClient(opts...),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		logUsage:    cfg.LogUsage,
		log:         log.Named("openai"),
	}
}

// Complete runs one chat completion in JSON-object mode and returns the
// content of the first choice.
func (g *openAIGateway) Complete(ctx context.Context, system, user string) (string, error) {
	if err := checkMessages(system, user); err != nil {
		return "", err
	}

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Temperature: openai.Float(g.temperature),
	}
	if g.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(g.maxTokens))
	}

	start := time.Now()
	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			g.log.Error("OpenAI request failed",
				zap.String("model", g.model),
				zap.Int("status", apiErr.StatusCode),
				zap.Error(err),
			)
		} else {
			g.log.Error("OpenAI request failed", zap.String("model", g.model), zap.Error(err))
		}
		return "", fmt.Errorf("%w: %v", domain.ErrLLMUpstream, err)
	}

	if g.logUsage {
		g.log.Info("LLM usage",
			zap.String("provider", ProviderOpenAI),
			zap.String("model", resp.Model),
			zap.Int64("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int64("completion_tokens", resp.Usage.CompletionTokens),
			zap.Int64("total_tokens", resp.Usage.TotalTokens),
			zap.Duration("latency", time.Since(start)),
		)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", domain.ErrLLMEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}
