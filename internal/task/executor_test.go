package task

import (
	"strings"
	"testing"
	"time"

	"flowsense/internal/llm"
	"flowsense/internal/score"
	"flowsense/internal/tracker"
)

func TestHourlyFocus(t *testing.T) {
	tests := []struct {
		hour int
		want float64
	}{
		{9, 80},
		{11, 80},
		{12, 60},
		{13, 60},
		{14, 75},
		{16, 75},
		{17, 65},
		{18, 65},
		{19, 55},
		{22, 55},
		{23, 40},
		{3, 40},
		{8, 40},
	}

	for _, tt := range tests {
		if got := hourlyFocus(tt.hour); got != tt.want {
			t.Errorf("hourlyFocus(%d) = %.0f, want %.0f", tt.hour, got, tt.want)
		}
	}
}

func TestGhostState(t *testing.T) {
	tests := []struct {
		focus float64
		want  string
	}{
		{85, score.StateProductive},
		{80, score.StateModerate},
		{75, score.StateModerate},
		{65, score.StateModerate},
		{60, score.StateChilling},
		{55, score.StateChilling},
		{41, score.StateChilling},
		{40, score.StateUnproductive},
		{hourlyFocus(8), score.StateUnproductive},
	}

	for _, tt := range tests {
		if got := ghostState(tt.focus); got != tt.want {
			t.Errorf("ghostState(%.0f) = %q, want %q", tt.focus, got, tt.want)
		}
	}
}

func TestMergeSummary_StateConfidence(t *testing.T) {
	local := score.Result{
		State:              score.StateModerate,
		FocusScore:         62,
		WorkPercent:        55,
		DistractionPercent: 20,
		NeutralPercent:     25,
	}
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

	highConf := llm.Analysis{State: "productive", Confidence: "high", Summary: "Deep in the editor."}
	got := mergeSummary(local, highConf, "1 hour", now)
	if got.State != score.StateProductive {
		t.Errorf("high confidence state = %s, want productive", got.State)
	}
	if got.Text != "Deep in the editor." {
		t.Errorf("text = %q", got.Text)
	}

	lowConf := llm.Analysis{State: "productive", Confidence: "low", Summary: "Maybe working."}
	got = mergeSummary(local, lowConf, "1 hour", now)
	if got.State != score.StateModerate {
		t.Errorf("low confidence state = %s, want local moderate", got.State)
	}

	// Local numeric split always wins
	if got.WorkScore != 55 || got.DistractionScore != 20 || got.NeutralScore != 25 {
		t.Errorf("numeric split not taken from local: %d/%d/%d",
			got.WorkScore, got.DistractionScore, got.NeutralScore)
	}
	if got.FocusScore != 62 {
		t.Errorf("focus = %.0f, want local 62", got.FocusScore)
	}
}

func TestMergeSummary_LegacyStateMapped(t *testing.T) {
	local := score.Result{State: score.StateChilling}
	a := llm.Analysis{State: "flow", Confidence: "high"}
	got := mergeSummary(local, a, "1 hour", time.Now())
	if got.State != score.StateProductive {
		t.Errorf("state = %s, want productive for legacy flow", got.State)
	}
}

func TestHeuristicSummary(t *testing.T) {
	local := score.Result{
		State:              score.StateProductive,
		FocusScore:         78,
		TotalMinutes:       42,
		WorkPercent:        70,
		DistractionPercent: 10,
		NeutralPercent:     20,
	}
	timeline := []llm.TimelineEntry{
		{App: "code", DurationMinutes: 30},
		{App: "chrome", DurationMinutes: 8},
		{App: "slack", DurationMinutes: 4},
	}

	got := heuristicSummary(local, timeline, "1 hour", time.Now())
	if !strings.Contains(got.Text, "42 active minutes") {
		t.Errorf("text missing minutes: %q", got.Text)
	}
	if !strings.Contains(got.Text, "code") {
		t.Errorf("text missing top app: %q", got.Text)
	}
	if got.State != score.StateProductive || got.FocusScore != 78 {
		t.Errorf("heuristic fields not carried: %+v", got)
	}
}

func TestHeuristicSummary_EmptyTimeline(t *testing.T) {
	got := heuristicSummary(score.Result{State: score.StateAFK}, nil, "1 hour", time.Now())
	if got.Text == "" {
		t.Error("expected non-empty text for empty timeline")
	}
	if got.State != score.StateAFK {
		t.Errorf("state = %s, want afk", got.State)
	}
}

func trackedEvent(start time.Time, durationSec float64, app, title string) tracker.Event {
	return tracker.Event{
		Timestamp: start,
		Duration:  durationSec,
		Data:      map[string]any{"app": app, "title": title},
	}
}

func TestPatternContext(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

	// Two and a half hours of continuous work with no break session
	var events []tracker.Event
	for i := 0; i < 30; i++ {
		events = append(events, trackedEvent(base.Add(time.Duration(i)*5*time.Minute), 300, "code", "main.go"))
	}
	now := base.Add(150 * time.Minute)

	frames := map[tracker.Timeframe]*tracker.Snapshot{
		tracker.TimeframeToday: {WindowEvents: events},
	}
	snap := &tracker.Snapshot{WindowEvents: events[len(events)-12:]}

	got := patternContext(frames, snap, "software developer", now)
	if !strings.Contains(got, "OBSERVED PATTERNS:") {
		t.Fatalf("missing header: %q", got)
	}
	if !strings.Contains(got, "Current session:") {
		t.Errorf("missing session line: %q", got)
	}
	if !strings.Contains(got, "Fatigue:") {
		t.Errorf("expected fatigue line after 150 continuous minutes: %q", got)
	}
	if !strings.Contains(got, "Context fit (Software Developer):") {
		t.Errorf("missing context fit line: %q", got)
	}
}

func TestPatternContext_ContextFitReflectsRole(t *testing.T) {
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	snap := &tracker.Snapshot{WindowEvents: []tracker.Event{
		trackedEvent(base, 600, "vscode", "main.go"),
	}}
	frames := map[tracker.Timeframe]*tracker.Snapshot{}

	got := patternContext(frames, snap, "software developer", base.Add(10*time.Minute))
	if !strings.Contains(got, "Excellent alignment") {
		t.Errorf("editor time for a developer should score as excellent: %q", got)
	}
}

func TestPatternContext_QuietWindow(t *testing.T) {
	frames := map[tracker.Timeframe]*tracker.Snapshot{
		tracker.TimeframeToday: {},
	}
	got := patternContext(frames, &tracker.Snapshot{}, "software developer", time.Now())
	if got != "" {
		t.Errorf("expected empty context for no events, got %q", got)
	}
}

func TestSnapshotForPeriod(t *testing.T) {
	frames := map[tracker.Timeframe]*tracker.Snapshot{
		tracker.TimeframeFiveMinutes: {},
		tracker.TimeframeOneHour:     {},
	}

	if got := snapshotForPeriod(frames, 5*time.Minute); got != frames[tracker.TimeframeFiveMinutes] {
		t.Error("5 minute period should use the 5 minute snapshot")
	}
	if got := snapshotForPeriod(frames, time.Hour); got != frames[tracker.TimeframeOneHour] {
		t.Error("1 hour period should use the 1 hour snapshot")
	}
}
