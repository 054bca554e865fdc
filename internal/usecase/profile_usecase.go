package usecase

import (
	"context"
	"errors"

	"inclusive-matching-api/internal/domain"
	"inclusive-matching-api/pkg/apperror"
	"inclusive-matching-api/pkg/validation"

	"github.com/go-playground/validator/v10"
)

type profileUsecase struct {
	repo     domain.ProfileRepository
	validate *validator.Validate
}

func NewProfileUsecase(repo domain.ProfileRepository, validate *validator.Validate) domain.ProfileUsecase {
	if validate == nil {
		validate = validation.New()
	}
	return &profileUsecase{repo: repo, validate: validate}
}

func (u *profileUsecase) CreateProfile(ctx context.Context, req *domain.CreateProfileRequest) (*domain.Profile, error) {
	if req == nil {
		return nil, apperror.Unprocessable("Validation failed", []string{"body: field required"})
	}
	if err := u.validate.Struct(req); err != nil {
		return nil, apperror.Unprocessable("Validation failed", validation.FormatValidationErrors(err))
	}

	profile := &domain.Profile{
		ChildAge:  req.ChildAge,
		City:      req.City,
		Strengths: req.Strengths,
		Needs:     req.Needs,
		Notes:     req.Notes,
	}
	if err := u.repo.Create(ctx, profile); err != nil {
		return nil, apperror.Internal(err)
	}
	return profile, nil
}

func (u *profileUsecase) ListProfiles(ctx context.Context) ([]domain.Profile, error) {
	profiles, err := u.repo.List(ctx)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}
	return profiles, nil
}

func (u *profileUsecase) GetProfile(ctx context.Context, id int64) (*domain.Profile, error) {
	profile, err := u.repo.GetByID(ctx, id)
	if err != nil {
		return nil, profileLookupError(err)
	}
	return profile, nil
}

func (u *profileUsecase) DeleteProfile(ctx context.Context, id int64) error {
	if err := u.repo.Delete(ctx, id); err != nil {
		return profileLookupError(err)
	}
	return nil
}

func profileLookupError(err error) error {
	if errors.Is(err, domain.ErrNotFound) {
		return apperror.NotFound("Profile not found")
	}
	return apperror.Internal(err)
}
