package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	ChildAge    int    `validate:"required,gt=0"`
	City        string `validate:"required,not_blank"`
	Mode        string `validate:"match_mode"`
	TopK        int    `validate:"gte=1,lte=20"`
	FavoriteToy string `validate:"max=3"`
}

func TestCustomValidators(t *testing.T) {
	v := New()

	ok := sample{ChildAge: 10, City: "Wonderland", Mode: "similarity", TopK: 5}
	require.NoError(t, v.Struct(ok))

	bad := sample{ChildAge: 0, City: "   ", Mode: "random", TopK: 21, FavoriteToy: "kite-runner"}
	err := v.Struct(bad)
	require.Error(t, err)

	msgs := FormatValidationErrors(err)
	assert.Contains(t, msgs, "child_age: field required")
	assert.Contains(t, msgs, "city: must not be blank")
	assert.Contains(t, msgs, "mode: must be one of: similarity, complementarity, goal_alignment")
	assert.Contains(t, msgs, "top_k: must be less than or equal to 20")
	assert.Contains(t, msgs, "favorite_toy: must be less than or equal to 3")
}

func TestFormatValidationErrorsPassesThroughOtherErrors(t *testing.T) {
	assert.Equal(t, []string{"boom"}, FormatValidationErrors(errors.New("boom")))
}
