package llm

import (
	"testing"
)

func TestParse_CleanJSON(t *testing.T) {
	text := `{
		"current_state": "productive",
		"confidence": "high",
		"primary_activity": "Writing Go code",
		"professional_summary": "Solid focused hour on the backend.",
		"work_score": 70,
		"distraction_score": 10,
		"neutral_score": 20,
		"focus_trend": "stable",
		"distraction_trend": "low",
		"reasoning": "Dominated by editor time"
	}`

	a := Parse(text)
	if a.State != "productive" {
		t.Errorf("State = %q, want productive", a.State)
	}
	if a.Confidence != "high" {
		t.Errorf("Confidence = %q, want high", a.Confidence)
	}
	if a.WorkScore != 70 || a.DistractionScore != 10 || a.NeutralScore != 20 {
		t.Errorf("scores = %d/%d/%d, want 70/10/20", a.WorkScore, a.DistractionScore, a.NeutralScore)
	}
}

func TestParse_DecoratedJSON(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"activity prefix", `📊 Activity detected: {"current_state": "moderate", "work_score": 60, "distraction_score": 20, "neutral_score": 20}`},
		{"bracket wrapped", `[{"current_state": "moderate", "work_score": 60, "distraction_score": 20, "neutral_score": 20}]`},
		{"prefixed bracket", `📊 Activity detected: [{"current_state": "moderate", "work_score": 60, "distraction_score": 20, "neutral_score": 20}]`},
		{"chatty wrapper", "Sure, here is the analysis you asked for:\n{\"current_state\": \"moderate\", \"work_score\": 60, \"distraction_score\": 20, \"neutral_score\": 20}\nHope that helps!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := Parse(tt.text)
			if a.State != "moderate" {
				t.Errorf("State = %q, want moderate", a.State)
			}
			if a.WorkScore != 60 {
				t.Errorf("WorkScore = %d, want 60", a.WorkScore)
			}
		})
	}
}

func TestParse_FieldExtraction(t *testing.T) {
	// Truncated JSON that neither direct nor brace parse can handle
	text := `{"current_state": "productive", "confidence": "high", "work_score": 80, "distraction_sc`

	a := Parse(text)
	if a.State != "productive" {
		t.Errorf("State = %q, want productive", a.State)
	}
	if a.Confidence != "high" {
		t.Errorf("Confidence = %q, want high", a.Confidence)
	}
	if a.WorkScore != 80 {
		t.Errorf("WorkScore = %d, want 80", a.WorkScore)
	}
}

func TestParse_NeverFails(t *testing.T) {
	inputs := []string{
		"",
		"complete nonsense",
		"{",
		"}{",
		`{"current_state": }`,
		"📊 Activity detected: [",
		"null",
		"[1, 2, 3]",
		string([]byte{0xff, 0xfe}),
	}

	for _, input := range inputs {
		a := Parse(input)
		if a.State == "" || a.Confidence == "" {
			t.Errorf("Parse(%q) left required fields empty: %+v", input, a)
		}
		if a.WorkScore+a.DistractionScore+a.NeutralScore != 100 {
			t.Errorf("Parse(%q) scores sum to %d, want 100", input,
				a.WorkScore+a.DistractionScore+a.NeutralScore)
		}
	}
}

func TestParse_Defaults(t *testing.T) {
	a := Parse("nothing useful here")

	if a.State != "moderate" {
		t.Errorf("State = %q, want moderate (canonicalized from working)", a.State)
	}
	if a.Confidence != "low" {
		t.Errorf("Confidence = %q, want low", a.Confidence)
	}
	if a.FocusTrend != "variable" {
		t.Errorf("FocusTrend = %q, want variable", a.FocusTrend)
	}
	if a.DistractionTrend != "moderate" {
		t.Errorf("DistractionTrend = %q, want moderate", a.DistractionTrend)
	}
	if a.WorkScore != 50 || a.DistractionScore != 30 || a.NeutralScore != 20 {
		t.Errorf("scores = %d/%d/%d, want 50/30/20", a.WorkScore, a.DistractionScore, a.NeutralScore)
	}
	if a.PrimaryActivity == "" || a.Reasoning == "" {
		t.Error("expected default primary activity and reasoning")
	}
}

func TestParse_LegacyStateVocabulary(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"flow", "productive"},
		{"working", "moderate"},
		{"needs_nudge", "unproductive"},
		{"afk", "afk"},
	}
	for _, tt := range tests {
		a := Parse(`{"current_state": "` + tt.raw + `"}`)
		if a.State != tt.want {
			t.Errorf("Parse state %q = %q, want %q", tt.raw, a.State, tt.want)
		}
	}
}

func TestParse_RebalancesScores(t *testing.T) {
	a := Parse(`{"current_state": "productive", "work_score": 90, "distraction_score": 40, "neutral_score": 30}`)
	if a.WorkScore+a.DistractionScore+a.NeutralScore != 100 {
		t.Errorf("scores sum to %d, want 100", a.WorkScore+a.DistractionScore+a.NeutralScore)
	}
	if a.WorkScore != 90 {
		t.Errorf("WorkScore = %d, want 90 preserved", a.WorkScore)
	}
}
