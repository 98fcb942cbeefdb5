package score

import (
	"math"
)

// Canonical current-state values. Older call sites used a second
// vocabulary (flow/working/needs_nudge); CanonicalState folds both onto
// this one.
const (
	StateProductive   = "productive"
	StateModerate     = "moderate"
	StateChilling     = "chilling"
	StateUnproductive = "unproductive"
	StateAFK          = "afk"
)

// CanonicalState maps any known state spelling onto the canonical
// vocabulary. Unknown values fall back to moderate.
func CanonicalState(s string) string {
	switch s {
	case StateProductive, StateModerate, StateChilling, StateUnproductive, StateAFK:
		return s
	case "flow":
		return StateProductive
	case "working":
		return StateModerate
	case "needs_nudge":
		return StateUnproductive
	default:
		return StateModerate
	}
}

// Activity is one categorized slice of time.
type Activity struct {
	App             string
	Category        string
	Score           int
	HasScore        bool
	DurationMinutes float64
}

// Result is the heuristic productivity assessment for one window.
type Result struct {
	State              string
	FocusScore         float64
	WorkPercent        int
	DistractionPercent int
	NeutralPercent     int

	TotalMinutes        float64
	ProductiveMinutes   float64
	ModerateMinutes     float64
	NeutralMinutes      float64
	UnproductiveMinutes float64
	SwitchesPerHour     float64
}

// Compute buckets categorized activity into productive, moderate,
// neutral, and unproductive time, then derives the percentage split,
// the current state, and a 0-100 focus score.
func Compute(activities []Activity, contextSwitches int, elapsedHours float64, uniqueApps int) Result {
	var r Result
	for _, a := range activities {
		switch bucket(a) {
		case StateProductive:
			r.ProductiveMinutes += a.DurationMinutes
		case StateModerate:
			r.ModerateMinutes += a.DurationMinutes
		case StateUnproductive:
			r.UnproductiveMinutes += a.DurationMinutes
		default:
			r.NeutralMinutes += a.DurationMinutes
		}
		r.TotalMinutes += a.DurationMinutes
	}

	if elapsedHours > 0 {
		r.SwitchesPerHour = float64(contextSwitches) / elapsedHours
	}

	if r.TotalMinutes < 0.5 {
		r.State = StateAFK
		r.NeutralPercent = 100
		return r
	}

	r.WorkPercent, r.DistractionPercent, r.NeutralPercent = percentSplit(
		r.ProductiveMinutes+r.ModerateMinutes, r.UnproductiveMinutes, r.TotalMinutes)

	workRatio := (r.ProductiveMinutes + r.ModerateMinutes) / r.TotalMinutes
	unproductiveRatio := r.UnproductiveMinutes / r.TotalMinutes
	distracted := r.SwitchesPerHour > 30

	switch {
	case workRatio > 0.7 && !distracted:
		r.State = StateProductive
	case workRatio > 0.5:
		r.State = StateModerate
	case unproductiveRatio > 0.5 || distracted:
		r.State = StateUnproductive
	default:
		r.State = StateChilling
	}

	r.FocusScore = focusScore(workRatio, r.SwitchesPerHour, uniqueApps)
	return r
}

// bucket assigns one activity to a productivity bucket. An explicit
// score wins over the category.
func bucket(a Activity) string {
	if a.HasScore {
		switch {
		case a.Score >= 80:
			return StateProductive
		case a.Score >= 60:
			return StateModerate
		case a.Score >= 40:
			return "neutral"
		default:
			return StateUnproductive
		}
	}

	switch a.Category {
	case "work", "development":
		return StateProductive
	case "productivity":
		return StateModerate
	case "communication", "system":
		return "neutral"
	case "entertainment":
		return StateUnproductive
	default:
		return "neutral"
	}
}

// percentSplit rounds the work and distraction shares and assigns the
// remainder to neutral so the three always sum to 100.
func percentSplit(workMinutes, distractionMinutes, total float64) (int, int, int) {
	work := int(math.Round(workMinutes / total * 100))
	distraction := int(math.Round(distractionMinutes / total * 100))
	if work > 100 {
		work = 100
	}
	if work+distraction > 100 {
		distraction = 100 - work
	}
	neutral := 100 - work - distraction
	return work, distraction, neutral
}

// focusScore combines the work-time ratio with penalties for context
// switching and app sprawl.
func focusScore(workRatio, switchesPerHour float64, uniqueApps int) float64 {
	score := workRatio * 100

	cappedSwitches := math.Min(switchesPerHour, 60)
	score -= cappedSwitches / 60 * 20

	if uniqueApps > 10 {
		score -= 10
	}

	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
