package pattern

import (
	"strings"
	"time"

	"flowsense/internal/tracker"
)

// Distraction classifications.
const (
	ClassQuickCheck  = "quick_check"
	ClassDistraction = "distraction"
	ClassTaskSwitch  = "task_switch"
)

// DistractionEvent records one detour from a primary app.
type DistractionEvent struct {
	Timestamp         time.Time
	FromApp           string
	DistractionApp    string
	DurationSeconds   float64
	ReturnTimeSeconds float64
	Returned          bool
	Classification    string
}

var distractionKeywords = []string{
	"youtube", "reddit", "twitter", "facebook", "instagram",
	"tiktok", "discord", "slack", "whatsapp",
}

func isDistractionApp(app string) bool {
	name := strings.ToLower(app)
	for _, kw := range distractionKeywords {
		if strings.Contains(name, kw) {
			return true
		}
	}
	return false
}

// AnalyzeReturnToTask finds transitions from primary apps into known
// distraction apps and, when the user comes back, how long the detour
// took. Primary apps are the top-3 by accumulated time.
func AnalyzeReturnToTask(events []tracker.Event) []DistractionEvent {
	if len(events) < 2 {
		return nil
	}

	// Distraction apps never count as primary even when they dominate
	// the window; otherwise a long detour would mask itself.
	appTime := make(map[string]float64)
	for _, ev := range events {
		app := strings.ToLower(ev.App())
		if app == "" || isDistractionApp(app) {
			continue
		}
		appTime[app] += ev.Duration
	}
	primary := make(map[string]bool)
	for _, app := range topApps(appTime, 3) {
		primary[app] = true
	}

	var distractions []DistractionEvent
	for i := 0; i < len(events)-1; i++ {
		fromApp := strings.ToLower(events[i].App())
		nextApp := strings.ToLower(events[i+1].App())
		if !primary[fromApp] || !isDistractionApp(nextApp) {
			continue
		}

		d := DistractionEvent{
			Timestamp:       events[i+1].Timestamp,
			FromApp:         fromApp,
			DistractionApp:  nextApp,
			DurationSeconds: events[i+1].Duration,
		}

		for j := i + 2; j < len(events); j++ {
			if primary[strings.ToLower(events[j].App())] {
				d.Returned = true
				d.ReturnTimeSeconds = events[j].Timestamp.Sub(d.Timestamp).Seconds()
				break
			}
		}

		d.Classification = classifyDistraction(d)
		distractions = append(distractions, d)
	}
	return distractions
}

func classifyDistraction(d DistractionEvent) string {
	switch {
	case d.DurationSeconds < 30:
		return ClassQuickCheck
	case d.Returned:
		return ClassDistraction
	default:
		return ClassTaskSwitch
	}
}
