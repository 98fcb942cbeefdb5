package llm

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"flowsense/internal/score"
)

// Analysis is the structured result of one summarization call.
type Analysis struct {
	State            string
	Confidence       string
	PrimaryActivity  string
	Summary          string
	WorkScore        int
	DistractionScore int
	NeutralScore     int
	FocusTrend       string
	DistractionTrend string
	Reasoning        string
}

// Parse defaults, used when a field cannot be recovered at all.
const (
	defaultState            = "working"
	defaultConfidence       = "low"
	defaultFocusTrend       = "variable"
	defaultDistractionTrend = "moderate"
	defaultPrimaryActivity  = "Unable to determine primary activity"
	defaultReasoning        = "Analysis incomplete due to parsing error"
	defaultWorkScore        = 50
	defaultDistractionScore = 30
	defaultNeutralScore     = 20
)

// analysisWire separates "missing" from zero while decoding.
type analysisWire struct {
	State            string `json:"current_state"`
	Confidence       string `json:"confidence"`
	PrimaryActivity  string `json:"primary_activity"`
	Summary          string `json:"professional_summary"`
	WorkScore        *int   `json:"work_score"`
	DistractionScore *int   `json:"distraction_score"`
	NeutralScore     *int   `json:"neutral_score"`
	FocusTrend       string `json:"focus_trend"`
	DistractionTrend string `json:"distraction_trend"`
	Reasoning        string `json:"reasoning"`
}

// decorative prefixes some models prepend to the JSON payload
var decorativePrefixes = []string{
	"📊 Activity detected: [",
	"📊 Activity detected:",
	"Activity detected:",
	"[",
}

// Parse converts raw backend text into an Analysis. It never fails:
// the strategies run in order (direct parse, brace-substring parse,
// per-field extraction) and any field still missing gets its default.
func Parse(text string) Analysis {
	cleaned := cleanResponse(text)

	if wire, ok := tryDirectParse(cleaned); ok {
		return normalize(wire)
	}
	if wire, ok := tryBraceParse(cleaned); ok {
		return normalize(wire)
	}
	return normalize(extractFields(cleaned))
}

func cleanResponse(text string) string {
	cleaned := strings.TrimSpace(text)
	for _, prefix := range decorativePrefixes {
		if strings.HasPrefix(cleaned, prefix) {
			cleaned = strings.TrimSpace(strings.TrimPrefix(cleaned, prefix))
			break
		}
	}
	cleaned = strings.TrimSuffix(cleaned, "]")
	return strings.TrimSpace(cleaned)
}

func tryDirectParse(text string) (analysisWire, bool) {
	var wire analysisWire
	if err := json.Unmarshal([]byte(text), &wire); err != nil {
		return analysisWire{}, false
	}
	return wire, true
}

func tryBraceParse(text string) (analysisWire, bool) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return analysisWire{}, false
	}
	return tryDirectParse(text[start : end+1])
}

func extractString(text, field string) string {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*:\s*"([^"]*)"`)
	if m := re.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

func extractNumber(text, field string) *int {
	re := regexp.MustCompile(`"` + regexp.QuoteMeta(field) + `"\s*:\s*"?(\d+)`)
	if m := re.FindStringSubmatch(text); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

// extractFields recovers whatever fields survive in malformed text.
func extractFields(text string) analysisWire {
	return analysisWire{
		State:            extractString(text, "current_state"),
		Confidence:       extractString(text, "confidence"),
		PrimaryActivity:  extractString(text, "primary_activity"),
		Summary:          extractString(text, "professional_summary"),
		WorkScore:        extractNumber(text, "work_score"),
		DistractionScore: extractNumber(text, "distraction_score"),
		NeutralScore:     extractNumber(text, "neutral_score"),
		FocusTrend:       extractString(text, "focus_trend"),
		DistractionTrend: extractString(text, "distraction_trend"),
		Reasoning:        extractString(text, "reasoning"),
	}
}

// normalize fills missing fields with defaults, folds the state onto
// the canonical vocabulary, and rebalances the scores to sum to 100.
func normalize(wire analysisWire) Analysis {
	a := Analysis{
		State:            wire.State,
		Confidence:       wire.Confidence,
		PrimaryActivity:  wire.PrimaryActivity,
		Summary:          wire.Summary,
		FocusTrend:       wire.FocusTrend,
		DistractionTrend: wire.DistractionTrend,
		Reasoning:        wire.Reasoning,
	}

	if a.State == "" {
		a.State = defaultState
	}
	a.State = score.CanonicalState(a.State)

	if a.Confidence == "" {
		a.Confidence = defaultConfidence
	}
	if a.FocusTrend == "" {
		a.FocusTrend = defaultFocusTrend
	}
	if a.DistractionTrend == "" {
		a.DistractionTrend = defaultDistractionTrend
	}
	if a.PrimaryActivity == "" {
		a.PrimaryActivity = defaultPrimaryActivity
	}
	if a.Reasoning == "" {
		a.Reasoning = defaultReasoning
	}

	a.WorkScore = scoreOrDefault(wire.WorkScore, defaultWorkScore)
	a.DistractionScore = scoreOrDefault(wire.DistractionScore, defaultDistractionScore)
	a.NeutralScore = scoreOrDefault(wire.NeutralScore, defaultNeutralScore)
	if a.WorkScore+a.DistractionScore > 100 {
		a.DistractionScore = 100 - a.WorkScore
	}
	a.NeutralScore = 100 - a.WorkScore - a.DistractionScore

	return a
}

func scoreOrDefault(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	if *v < 0 {
		return 0
	}
	if *v > 100 {
		return 100
	}
	return *v
}
