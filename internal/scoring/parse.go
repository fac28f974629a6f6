package scoring

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/ahogan/jobhunter/internal/job"
)

const maxKeyRequirements = 5

// assessment is the model's verdict on one posting, as extracted from
// its JSON response.
type assessment struct {
	FitScore           int
	GhostJobLikelihood int
	RoleCategory       job.RoleCategory
	Reasoning          string
	KeyRequirements    []string
}

// parseAssessment extracts the structured verdict from a raw model
// response. Models wrap JSON in code fences or prose more often than
// not, so the object is located before parsing, and individual fields
// are coerced from whatever type the model emitted.
func parseAssessment(raw string) (*assessment, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return nil, fmt.Errorf("no JSON object in model response")
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}

	score, ok := coerceInt(data["fit_score"])
	if !ok || score < 1 || score > 100 {
		return nil, fmt.Errorf("fit_score out of range: %v", data["fit_score"])
	}

	ghost, ok := coerceInt(data["ghost_job_likelihood"])
	if !ok || ghost < 0 {
		ghost = 0
	}
	if ghost > 100 {
		ghost = 100
	}

	requirements := coerceStrings(data["key_requirements"])
	if len(requirements) > maxKeyRequirements {
		requirements = requirements[:maxKeyRequirements]
	}

	return &assessment{
		FitScore:           score,
		GhostJobLikelihood: ghost,
		RoleCategory:       job.ParseCategory(coerceString(data["role_category"])),
		Reasoning:          coerceString(data["reasoning"]),
		KeyRequirements:    requirements,
	}, nil
}

// extractJSON returns the first top-level JSON object in raw, stripping
// markdown code fences first.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return ""
	}
	return raw[start : end+1]
}

func coerceInt(v any) (int, bool) {
	switch val := v.(type) {
	case float64:
		return int(val), true
	case int:
		return val, true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return int(f), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return int(f), true
	default:
		return 0, false
	}
}

func coerceString(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func coerceStrings(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s := coerceString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
