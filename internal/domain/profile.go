package domain

import (
	"context"
	"errors"
)

// Common domain errors
var ErrNotFound = errors.New("resource not found")

// Profile is a stored child/family record. ID is assigned by the store and
// never changes; Strengths and Needs hold comma-separated lists.
type Profile struct {
	ID        int64   `json:"id"`
	ChildAge  int     `json:"child_age"`
	City      string  `json:"city"`
	Strengths *string `json:"strengths"`
	Needs     *string `json:"needs"`
	Notes     *string `json:"notes"`
}

// CreateProfileRequest is the body of POST /profiles/.
type CreateProfileRequest struct {
	ChildAge  int     `json:"child_age" validate:"required,gt=0"`
	City      string  `json:"city" validate:"required,not_blank"`
	Strengths *string `json:"strengths"`
	Needs     *string `json:"needs"`
	Notes     *string `json:"notes"`
}

// CandidateFilter narrows the profile population to match candidates.
// MinAge and MaxAge are inclusive. An empty City disables the city rule.
type CandidateFilter struct {
	ExcludeID int64
	MinAge    int
	MaxAge    int
	City      string
	Limit     int
}

type ProfileRepository interface {
	Create(ctx context.Context, profile *Profile) error
	List(ctx context.Context) ([]Profile, error)
	GetByID(ctx context.Context, id int64) (*Profile, error)
	Delete(ctx context.Context, id int64) error
	// ListCandidates returns profiles satisfying filter ordered by id ascending.
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]Profile, error)
}

type ProfileUsecase interface {
	CreateProfile(ctx context.Context, req *CreateProfileRequest) (*Profile, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	GetProfile(ctx context.Context, id int64) (*Profile, error)
	DeleteProfile(ctx context.Context, id int64) error
}
