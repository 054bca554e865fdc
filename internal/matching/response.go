package matching

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"inclusive-matching-api/internal/domain"
)

// ParseMatchResponse treats raw as untrusted model output and turns it into
// the API result:
//
//  1. parse as JSON (ErrMalformedResponse),
//  2. require an object with a "results" array of objects (ErrInvalidStructure),
//  3. take target_id and mode from params, never from the model, and keep
//     any other top-level keys as they came,
//  4. keep only the first params.TopK results,
//  5. join a list-valued rationale into one space-separated string.
func ParseMatchResponse(raw string, params domain.MatchParams) (*domain.MatchResult, error) {
	dec := json.NewDecoder(strings.NewReader(stripCodeFence(raw)))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedResponse, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: unexpected data after the top-level value", domain.ErrMalformedResponse)
	}

	obj, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: top-level value is not an object", domain.ErrInvalidStructure)
	}
	rawResults, ok := obj["results"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: \"results\" is missing or not an array", domain.ErrInvalidStructure)
	}

	if params.TopK > 0 && len(rawResults) > params.TopK {
		rawResults = rawResults[:params.TopK]
	}

	results := make([]domain.MatchEntry, 0, len(rawResults))
	for i, item := range rawResults {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: results[%d] is not an object", domain.ErrInvalidStructure, i)
		}
		if fragments, isList := entry["rationale"].([]any); isList {
			entry["rationale"] = joinFragments(fragments)
		}
		results = append(results, domain.MatchEntry(entry))
	}

	var extra map[string]any
	for k, v := range obj {
		switch k {
		case "target_id", "mode", "results":
			continue
		}
		if extra == nil {
			extra = make(map[string]any)
		}
		extra[k] = v
	}

	return &domain.MatchResult{
		TargetID: params.TargetID,
		Mode:     params.Mode,
		Results:  results,
		Extra:    extra,
	}, nil
}

// joinFragments joins the non-empty fragments with single spaces.
func joinFragments(fragments []any) string {
	parts := make([]string, 0, len(fragments))
	for _, f := range fragments {
		if isEmptyValue(f) {
			continue
		}
		parts = append(parts, stringify(f))
	}
	return strings.Join(parts, " ")
}

func isEmptyValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case bool:
		return !val
	case json.Number:
		f, err := val.Float64()
		return err == nil && f == 0
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}

func stringify(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

// stripCodeFence removes a surrounding ```json ... ``` wrapper some
// providers add even in JSON mode.
func stripCodeFence(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	if idx := strings.LastIndex(raw, "```"); idx != -1 {
		raw = raw[:idx]
	}
	return strings.TrimSpace(raw)
}
