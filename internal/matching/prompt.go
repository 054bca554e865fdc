package matching

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"

	"inclusive-matching-api/internal/domain"
)

//go:embed system_prompt.md
var systemPrompt string

// SystemPrompt is the fixed instruction block sent as the system message.
var SystemPrompt = "\n" + strings.TrimSpace(systemPrompt) + "\n"

const (
	defaultLanguage       = "en"
	defaultOnlineRadiusKm = 50
)

// RubricDimension is one scoring axis of the rubric and its maximum points.
type RubricDimension struct {
	Name string
	Max  int
}

// Rubric mirrors the scoring block of SystemPrompt; the maxima sum to 100.
var Rubric = []RubricDimension{
	{"age_fit", 20},
	{"location_fit", 15},
	{"strengths_overlap", 15},
	{"needs_complement", 25},
	{"goal_alignment", 15},
	{"practicality", 10},
}

// PromptInput is everything the user message is rendered from.
type PromptInput struct {
	Target         domain.CandidatePayload
	Candidates     []domain.CandidatePayload
	Mode           domain.MatchMode
	TopK           int
	OnlineRadiusKm int
	Language       string
}

type promptParams struct {
	Mode           domain.MatchMode `json:"mode"`
	TopK           int              `json:"top_k"`
	OnlineRadiusKm int              `json:"online_radius_km"`
	Language       string           `json:"language"`
}

const outputSchema = `OUTPUT_JSON_SCHEMA:
{
  "target_id": number,
  "mode": "similarity" | "complementarity" | "goal_alignment",
  "results": [
    {
      "candidate_id": number,
      "overall_score": number,
      "scores": {
        "age_fit": number,
        "location_fit": number,
        "strengths_overlap": number,
        "needs_complement": number,
        "goal_alignment": number,
        "practicality": number
      },
      "shared_strengths": [string],
      "complementary_pairs": [ { "from": "target|candidate", "strength": string, "covers_need": string } ],
      "matched_goals": [string],
      "red_flags": [string],
      "rationale": string,
      "suggested_first_message": string
    }
  ]
}
Return ONLY valid JSON. No extra text.
`

// BuildUserPrompt renders the user message: the language directive, the
// target and candidate payloads, the request parameters, the task list and
// the output schema. It is a pure function of in.
func BuildUserPrompt(in PromptInput) (string, error) {
	language := in.Language
	if language == "" {
		language = defaultLanguage
	}
	radius := in.OnlineRadiusKm
	if radius == 0 {
		radius = defaultOnlineRadiusKm
	}
	candidates := in.Candidates
	if candidates == nil {
		candidates = []domain.CandidatePayload{}
	}

	targetJSON, err := marshalCompact(in.Target)
	if err != nil {
		return "", fmt.Errorf("marshal target payload: %w", err)
	}
	candidatesJSON, err := marshalCompact(candidates)
	if err != nil {
		return "", fmt.Errorf("marshal candidate payloads: %w", err)
	}
	paramsJSON, err := marshalCompact(promptParams{
		Mode:           in.Mode,
		TopK:           in.TopK,
		OnlineRadiusKm: radius,
		Language:       language,
	})
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are given:\n")
	fmt.Fprintf(&b, "LANGUAGE: %q\n", language)
	b.WriteString("TARGET_PROFILE:\n")
	b.WriteString(targetJSON + "\n\n")
	b.WriteString("CANDIDATE_PROFILES:\n")
	b.WriteString(candidatesJSON + "\n\n")
	b.WriteString("PARAMS:\n")
	b.WriteString(paramsJSON + "\n\n")
	b.WriteString("TASK:\n")
	b.WriteString("Use LANGUAGE for all natural-language fields (rationale, suggested_first_message). ")
	b.WriteString("Keep answers concise. Do not use any other language than LANGUAGE.\n")
	b.WriteString("1) Score each candidate by the rubric.\n")
	b.WriteString("2) Return JSON ONLY, following the schema below.\n")
	b.WriteString("3) Do not include any text outside of the JSON object.\n\n")
	b.WriteString(outputSchema)
	return b.String(), nil
}

// marshalCompact encodes v without HTML escaping so non-ASCII and <>&
// reach the model unchanged.
func marshalCompact(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
