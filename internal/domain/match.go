package domain

import (
	"context"
	"encoding/json"
	"errors"
)

type MatchMode string

const (
	MatchModeSimilarity      MatchMode = "similarity"
	MatchModeComplementarity MatchMode = "complementarity"
	MatchModeGoalAlignment   MatchMode = "goal_alignment"
)

// ConnectionPreferenceBoth is the only connection preference profiles carry today.
const ConnectionPreferenceBoth = "both"

// LLM gateway failures. All of them surface as 502 to API clients.
var (
	ErrLLMInvalidInput   = errors.New("llm: system and user messages must be non-empty")
	ErrLLMNotConfigured  = errors.New("llm: provider credentials are not configured")
	ErrLLMUpstream       = errors.New("llm: upstream request failed")
	ErrLLMEmptyResponse  = errors.New("llm: provider returned empty content")
	ErrMalformedResponse = errors.New("llm: response is not valid JSON")
	ErrInvalidStructure  = errors.New("llm: response does not match the result schema")
)

// MatchParams are the validated inputs of one matching request.
type MatchParams struct {
	TargetID      int64     `json:"target_id" validate:"required"`
	Mode          MatchMode `json:"mode" validate:"required,match_mode"`
	TopK          int       `json:"top_k" validate:"gte=1,lte=20"`
	SameCity      bool      `json:"same_city"`
	MaxCandidates int       `json:"max_candidates" validate:"gte=1,lte=200"`
}

// CandidatePayload is the normalized view of a Profile sent to the LLM.
type CandidatePayload struct {
	ID                   int64    `json:"id"`
	Age                  int      `json:"age"`
	City                 string   `json:"city"`
	Strengths            []string `json:"strengths"`
	Needs                []string `json:"needs"`
	Notes                string   `json:"notes"`
	ConnectionPreference string   `json:"connection_preference"`
}

// MatchEntry is one ranked candidate as produced by the model. It is kept as a
// generic JSON object so fields beyond the enforced ones pass through untouched.
// Expected keys: candidate_id, overall_score, scores{age_fit, location_fit,
// strengths_overlap, needs_complement, goal_alignment, practicality},
// shared_strengths, complementary_pairs, matched_goals, red_flags, rationale,
// suggested_first_message.
type MatchEntry map[string]any

// Rationale returns the rationale field when it is a string.
func (e MatchEntry) Rationale() string {
	s, _ := e["rationale"].(string)
	return s
}

// MatchResult is the response of POST /ai/match.
type MatchResult struct {
	TargetID int64        `json:"target_id"`
	Mode     MatchMode    `json:"mode"`
	Results  []MatchEntry `json:"results"`
	// Extra holds the other top-level keys of the model's answer.
	Extra map[string]any `json:"-"`
}

// MarshalJSON writes Extra alongside the three fixed keys; the fixed keys win.
func (r MatchResult) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Extra)+3)
	for k, v := range r.Extra {
		out[k] = v
	}
	results := r.Results
	if results == nil {
		results = []MatchEntry{}
	}
	out["target_id"] = r.TargetID
	out["mode"] = r.Mode
	out["results"] = results
	return json.Marshal(out)
}

// LLMGateway sends one system+user exchange to a completion provider and
// returns the raw text of its single answer.
type LLMGateway interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

type MatchUsecase interface {
	Match(ctx context.Context, params MatchParams) (*MatchResult, error)
}
