package matching

import (
	"strings"

	"inclusive-matching-api/internal/domain"
)

// ToCandidatePayload normalizes a stored profile for the prompt.
func ToCandidatePayload(p domain.Profile) domain.CandidatePayload {
	return domain.CandidatePayload{
		ID:                   p.ID,
		Age:                  p.ChildAge,
		City:                 p.City,
		Strengths:            SplitList(p.Strengths),
		Needs:                SplitList(p.Needs),
		Notes:                deref(p.Notes),
		ConnectionPreference: domain.ConnectionPreferenceBoth,
	}
}

// ToCandidatePayloads maps ToCandidatePayload over profiles.
func ToCandidatePayloads(profiles []domain.Profile) []domain.CandidatePayload {
	out := make([]domain.CandidatePayload, 0, len(profiles))
	for _, p := range profiles {
		out = append(out, ToCandidatePayload(p))
	}
	return out
}

// SplitList splits a comma-separated field into trimmed, non-empty items.
// A nil or blank field yields an empty (non-nil) slice.
func SplitList(raw *string) []string {
	items := []string{}
	if raw == nil {
		return items
	}
	for _, part := range strings.Split(*raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
