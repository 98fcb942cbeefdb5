package pattern

import (
	"time"
)

// Fatigue levels and break urgencies.
const (
	FatigueLow      = "low"
	FatigueModerate = "moderate"
	FatigueHigh     = "high"
	FatigueCritical = "critical"

	UrgencyNone        = "none"
	UrgencySuggested   = "suggested"
	UrgencyRecommended = "recommended"
	UrgencyUrgent      = "urgent"
)

// FatigueResult estimates how overdue a break is.
type FatigueResult struct {
	Level                 string
	BreakUrgency          string
	RecommendedAction     string
	TimeSinceBreakMinutes float64
	ContinuousWorkMinutes float64
	FocusDegradation      float64
}

// AnalyzeFatigue derives a fatigue estimate from the session history:
// minutes since the last break, accumulated non-break work, and how far
// recent focus has fallen below the earlier average.
func AnalyzeFatigue(sessions []WorkSession, now time.Time) FatigueResult {
	if len(sessions) == 0 {
		return FatigueResult{
			Level:             FatigueLow,
			BreakUrgency:      UrgencyNone,
			RecommendedAction: "Continue working, you're doing well",
		}
	}

	var lastBreakEnd time.Time
	var continuousWork float64
	for _, s := range sessions {
		if s.Type == SessionBreak {
			if s.End.After(lastBreakEnd) {
				lastBreakEnd = s.End
			}
			continue
		}
		continuousWork += s.DurationMinutes
	}

	reference := lastBreakEnd
	if reference.IsZero() {
		reference = sessions[0].Start
	}
	timeSinceBreak := now.Sub(reference).Minutes()
	if timeSinceBreak < 0 {
		timeSinceBreak = 0
	}

	result := FatigueResult{
		TimeSinceBreakMinutes: timeSinceBreak,
		ContinuousWorkMinutes: continuousWork,
		FocusDegradation:      focusDegradation(sessions),
	}
	result.Level, result.BreakUrgency, result.RecommendedAction = fatigueLevel(result)
	return result
}

// focusDegradation compares the last three sessions against the earlier
// average; only a drop counts.
func focusDegradation(sessions []WorkSession) float64 {
	if len(sessions) < 4 {
		return 0
	}

	split := len(sessions) - 3
	var earlier, recent float64
	for _, s := range sessions[:split] {
		earlier += s.FocusScore
	}
	for _, s := range sessions[split:] {
		recent += s.FocusScore
	}
	earlier /= float64(split)
	recent /= 3

	if d := earlier - recent; d > 0 {
		return d
	}
	return 0
}

// fatigueLevel applies the ordered threshold rules; the first matching
// rule wins. Each rule pairs the level and urgency with a suggested
// action for the user.
func fatigueLevel(r FatigueResult) (string, string, string) {
	t := r.TimeSinceBreakMinutes
	w := r.ContinuousWorkMinutes
	d := r.FocusDegradation

	switch {
	case t < 30:
		return FatigueLow, UrgencyNone, "Continue working, you're doing well"
	case t < 60 && w < 90 && d < 0.2:
		return FatigueLow, UrgencyNone, "Good work rhythm, keep it up"
	case t < 90 && w < 120:
		return FatigueModerate, UrgencySuggested, "Consider a 5-minute break soon"
	case t < 120 && w < 180 && d < 0.3:
		return FatigueModerate, UrgencyRecommended, "You've been working hard, take a 10-minute break"
	case t >= 120:
		return FatigueHigh, UrgencyUrgent, "You need a break now - step away for 15 minutes"
	case w >= 180:
		return FatigueCritical, UrgencyUrgent, "Extended work detected - take a proper break immediately"
	default:
		return FatigueHigh, UrgencyRecommended, "Your focus is declining, time for a refreshing break"
	}
}
