package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/internal/matching"
	"inclusive-matching-api/pkg/apperror"
	"inclusive-matching-api/pkg/logger"
	"inclusive-matching-api/pkg/validation"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// MatchConfig carries the prompt settings that are not part of a request.
type MatchConfig struct {
	Language       string
	OnlineRadiusKm int
}

type matchUsecase struct {
	repo     domain.ProfileRepository
	gateway  domain.LLMGateway
	validate *validator.Validate
	cfg      MatchConfig
	log      *zap.Logger
}

func NewMatchUsecase(repo domain.ProfileRepository, gateway domain.LLMGateway, validate *validator.Validate, cfg MatchConfig, log *zap.Logger) domain.MatchUsecase {
	if validate == nil {
		validate = validation.New()
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &matchUsecase{
		repo:     repo,
		gateway:  gateway,
		validate: validate,
		cfg:      cfg,
		log:      log.Named("match"),
	}
}

// Match ranks candidates for params.TargetID. The LLM is not called when the
// prefilter leaves nobody to rank.
func (u *matchUsecase) Match(ctx context.Context, params domain.MatchParams) (*domain.MatchResult, error) {
	if err := u.validate.Struct(params); err != nil {
		return nil, apperror.Unprocessable("Validation failed", validation.FormatValidationErrors(err))
	}

	target, err := u.repo.GetByID(ctx, params.TargetID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperror.NotFound("Target profile not found")
		}
		return nil, apperror.Internal(err)
	}

	population, err := u.repo.ListCandidates(ctx, matching.NewCandidateFilter(target, params))
	if err != nil {
		return nil, apperror.Internal(err)
	}
	candidates := matching.Prefilter(target, population, params)

	if len(candidates) == 0 {
		u.log.Debug("No candidates after prefilter", zap.Int64("target_id", target.ID))
		return &domain.MatchResult{
			TargetID: params.TargetID,
			Mode:     params.Mode,
			Results:  []domain.MatchEntry{},
		}, nil
	}

	userPrompt, err := matching.BuildUserPrompt(matching.PromptInput{
		Target:         matching.ToCandidatePayload(*target),
		Candidates:     matching.ToCandidatePayloads(candidates),
		Mode:           params.Mode,
		TopK:           params.TopK,
		OnlineRadiusKm: u.cfg.OnlineRadiusKm,
		Language:       u.cfg.Language,
	})
	if err != nil {
		return nil, apperror.Internal(err)
	}

	start := time.Now()
	raw, err := u.gateway.Complete(ctx, matching.SystemPrompt, userPrompt)
	if err != nil {
		u.log.Warn("LLM call failed",
			zap.Int64("target_id", target.ID),
			zap.Int("candidates", len(candidates)),
			zap.Error(err),
		)
		return nil, apperror.BadGateway(fmt.Sprintf("LLM call failed: %v", err), err)
	}

	result, err := matching.ParseMatchResponse(raw, params)
	if err != nil {
		u.log.Warn("Discarding LLM output",
			zap.Int64("target_id", target.ID),
			zap.String("raw", logger.TruncateForLog(raw, 500)),
			zap.Error(err),
		)
		if errors.Is(err, domain.ErrMalformedResponse) {
			return nil, apperror.BadGateway(fmt.Sprintf("LLM returned invalid JSON: %v", err), err)
		}
		return nil, apperror.BadGateway("Matcher returned invalid structure", err)
	}

	u.log.Info("Match completed",
		zap.Int64("target_id", target.ID),
		zap.String("mode", string(params.Mode)),
		zap.Int("candidates", len(candidates)),
		zap.Int("results", len(result.Results)),
		zap.Duration("llm_latency", time.Since(start)),
	)
	return result, nil
}
