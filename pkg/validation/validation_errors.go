package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldLabels maps struct field names to the names clients send on the wire
var FieldLabels = map[string]string{
	// Profile fields
	"ChildAge":  "child_age",
	"City":      "city",
	"Strengths": "strengths",
	"Needs":     "needs",
	"Notes":     "notes",

	// Match parameters
	"TargetID":      "target_id",
	"Mode":          "mode",
	"TopK":          "top_k",
	"SameCity":      "same_city",
	"MaxCandidates": "max_candidates",
}

// FormatValidationErrors converts validator.ValidationErrors to user-friendly messages
func FormatValidationErrors(err error) []string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		// Not a validation error, return generic message
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		messages = append(messages, formatSingleError(e))
	}
	return messages
}

// formatSingleError formats a single validation error to a user-friendly message
func formatSingleError(e validator.FieldError) string {
	label := getFieldLabel(e.Field())
	param := e.Param()

	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s: field required", label)
	case "not_blank":
		return fmt.Sprintf("%s: must not be blank", label)
	case "gt":
		return fmt.Sprintf("%s: must be greater than %s", label, param)
	case "gte", "min":
		return fmt.Sprintf("%s: must be greater than or equal to %s", label, param)
	case "lte", "max":
		return fmt.Sprintf("%s: must be less than or equal to %s", label, param)
	case "match_mode":
		return fmt.Sprintf("%s: must be one of: %s", label, strings.Join(MatchModes, ", "))
	case "oneof":
		return fmt.Sprintf("%s: must be one of: %s", label, strings.ReplaceAll(param, " ", ", "))
	default:
		// Fallback for unknown tags
		return fmt.Sprintf("%s: failed validation (%s)", label, e.Tag())
	}
}

// getFieldLabel returns the wire name for a field
func getFieldLabel(fieldName string) string {
	if label, ok := FieldLabels[fieldName]; ok {
		return label
	}
	return toSnakeCase(fieldName)
}

// toSnakeCase converts CamelCase to snake_case
func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if i > 0 && r >= 'A' && r <= 'Z' {
			result.WriteRune('_')
		}
		result.WriteRune(r)
	}
	return strings.ToLower(result.String())
}
