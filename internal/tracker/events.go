package tracker

import (
	"strings"
	"time"
)

// Event is a single raw record from the tracking service. Events are
// immutable once fetched; filtering produces new derived events.
type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Duration  float64        `json:"duration"` // seconds
	Data      map[string]any `json:"data"`
}

// End returns the instant the event stops covering.
func (e Event) End() time.Time {
	return e.Timestamp.Add(time.Duration(e.Duration * float64(time.Second)))
}

// App returns the application identifier, or "" if absent.
func (e Event) App() string {
	return e.stringField("app")
}

// Title returns the window title, or "" if absent.
func (e Event) Title() string {
	return e.stringField("title")
}

// Status returns the idle-watcher status flag ("afk" / "not-afk"), or "".
func (e Event) Status() string {
	return e.stringField("status")
}

func (e Event) stringField(key string) string {
	if e.Data == nil {
		return ""
	}
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}

// Timeframe identifies one of the nested observation windows.
type Timeframe string

const (
	TimeframeFiveMinutes   Timeframe = "5_minutes"
	TimeframeTenMinutes    Timeframe = "10_minutes"
	TimeframeThirtyMinutes Timeframe = "30_minutes"
	TimeframeOneHour       Timeframe = "1_hour"
	TimeframeToday         Timeframe = "today"
)

// Timeframes lists all windows from narrowest to widest.
var Timeframes = []Timeframe{
	TimeframeFiveMinutes,
	TimeframeTenMinutes,
	TimeframeThirtyMinutes,
	TimeframeOneHour,
	TimeframeToday,
}

// Span returns the lookback duration of the timeframe relative to now.
// "today" covers the hours elapsed since midnight, with a one hour floor.
func (t Timeframe) Span(now time.Time) time.Duration {
	switch t {
	case TimeframeFiveMinutes:
		return 5 * time.Minute
	case TimeframeTenMinutes:
		return 10 * time.Minute
	case TimeframeThirtyMinutes:
		return 30 * time.Minute
	case TimeframeOneHour:
		return time.Hour
	case TimeframeToday:
		hours := now.Hour()
		if hours < 1 {
			hours = 1
		}
		return time.Duration(hours) * time.Hour
	}
	return time.Hour
}

// Stats summarizes the window events of one timeframe.
type Stats struct {
	EventCount      int
	UniqueApps      []string
	ActiveMinutes   float64
	ContextSwitches int
}

// Snapshot holds the events and derived stats for one timeframe.
type Snapshot struct {
	Start        time.Time
	End          time.Time
	WindowEvents []Event
	IdleEvents   []Event
	Stats        Stats
}

// ComputeStats derives per-timeframe statistics from window events.
// Events must be in chronological order for switch counting; unique apps
// are compared case-insensitively.
func ComputeStats(events []Event) Stats {
	stats := Stats{EventCount: len(events)}

	seen := make(map[string]bool)
	lastApp := ""
	for _, ev := range events {
		app := strings.ToLower(ev.App())
		if app != "" && !seen[app] {
			seen[app] = true
			stats.UniqueApps = append(stats.UniqueApps, app)
		}
		stats.ActiveMinutes += ev.Duration / 60.0
		if lastApp != "" && app != "" && app != lastApp {
			stats.ContextSwitches++
		}
		if app != "" {
			lastApp = app
		}
	}
	return stats
}
