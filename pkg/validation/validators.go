package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

// MatchModes lists the accepted values of the match_mode tag.
var MatchModes = []string{"similarity", "complementarity", "goal_alignment"}

// New returns a validator with the project's custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	RegisterValidators(v)
	return v
}

// RegisterValidators registers custom validators to the validator instance
func RegisterValidators(v *validator.Validate) {
	_ = v.RegisterValidation("not_blank", NotBlank)
	_ = v.RegisterValidation("match_mode", MatchMode)
}

// NotBlank rejects strings that are empty after trimming whitespace.
func NotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}

// MatchMode accepts only the three supported matching modes.
func MatchMode(fl validator.FieldLevel) bool {
	val := fl.Field().String()
	for _, m := range MatchModes {
		if val == m {
			return true
		}
	}
	return false
}
