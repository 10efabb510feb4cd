package feedback

import (
	"encoding/json"
	"strings"
)

// Fixed fallback strings for fields the model response did not yield.
const (
	defaultFeedback    = "No feedback could be extracted from the AI response."
	defaultSuggestions = "No suggestions could be extracted from the AI response."
	defaultMotivation  = "Keep up the study momentum!"
	sectionNotFound    = "Section not found in the AI response."
)

// parsed is the deterministic three-field result of parseResponse.
type parsed struct {
	Feedback    string
	Suggestions string
	Motivation  string
}

// parseResponse turns raw model output into the three feedback fields.
// Structured JSON is tried first, then labeled-section scanning, and as a
// last resort the whole text becomes the feedback. It never fails: textual
// degradation is always preferred over an error.
func parseResponse(raw string) parsed {
	if p, ok := parseJSON(raw); ok {
		return p
	}
	if p, ok := parseLabeledText(raw); ok {
		return p
	}
	return parsed{
		Feedback:    raw,
		Suggestions: defaultSuggestions,
		Motivation:  defaultMotivation,
	}
}

func parseJSON(raw string) (parsed, bool) {
	cleaned := stripCodeFences(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(cleaned), &obj); err != nil {
		return parsed{}, false
	}
	return parsed{
		Feedback:    stringField(obj, "feedback", defaultFeedback),
		Suggestions: stringField(obj, "suggestions", defaultSuggestions),
		Motivation:  stringField(obj, "motivation", defaultMotivation),
	}, true
}

// stripCodeFences removes markdown ``` wrappers models like to add around
// JSON payloads.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func stringField(obj map[string]any, key, fallback string) string {
	if v, ok := obj[key]; ok {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return fallback
}

// parseLabeledText locates "feedback:", "suggestions:" and "motivation:"
// labels case-insensitively and extracts each value up to the next line
// break. It reports false when none of the labels is present.
func parseLabeledText(raw string) (parsed, bool) {
	feedback, okF := extractSection(raw, "feedback")
	suggestions, okS := extractSection(raw, "suggestions")
	motivation, okM := extractSection(raw, "motivation")
	if !okF && !okS && !okM {
		return parsed{}, false
	}
	return parsed{
		Feedback:    feedback,
		Suggestions: suggestions,
		Motivation:  motivation,
	}, true
}

func extractSection(raw, label string) (string, bool) {
	lower := strings.ToLower(raw)
	start := strings.Index(lower, strings.ToLower(label))
	if start == -1 {
		return sectionNotFound, false
	}
	colon := strings.Index(raw[start:], ":")
	if colon == -1 {
		return sectionNotFound, false
	}
	rest := raw[start+colon+1:]
	if nl := strings.Index(rest, "\n"); nl != -1 {
		rest = rest[:nl]
	}
	return strings.Trim(strings.TrimSpace(rest), `",`), true
}
