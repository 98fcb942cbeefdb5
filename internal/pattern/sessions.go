package pattern

import (
	"sort"
	"strings"
	"time"

	"flowsense/internal/tracker"
)

// SessionGap is the silence that closes a work session.
const SessionGap = 300 * time.Second

// Session types.
const (
	SessionDeepWork    = "deep_work"
	SessionShallowWork = "shallow_work"
	SessionBreak       = "break"
	SessionMixed       = "mixed"
)

// WorkSession is a contiguous span of activity bounded by gaps.
type WorkSession struct {
	Start           time.Time
	End             time.Time
	DurationMinutes float64
	PrimaryApps     []string
	FocusScore      float64
	Type            string
}

// DetectSessions segments chronological events into work sessions,
// splitting whenever the gap between one event's end and the next
// event's start exceeds SessionGap.
func DetectSessions(events []tracker.Event) []WorkSession {
	if len(events) == 0 {
		return nil
	}

	sorted := make([]tracker.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var sessions []WorkSession
	current := []tracker.Event{sorted[0]}
	for _, ev := range sorted[1:] {
		prevEnd := current[len(current)-1].End()
		if ev.Timestamp.Sub(prevEnd) > SessionGap {
			sessions = append(sessions, buildSession(current))
			current = nil
		}
		current = append(current, ev)
	}
	sessions = append(sessions, buildSession(current))
	return sessions
}

func buildSession(events []tracker.Event) WorkSession {
	start := events[0].Timestamp
	end := events[len(events)-1].End()

	appTime := make(map[string]float64)
	for _, ev := range events {
		if app := strings.ToLower(ev.App()); app != "" {
			appTime[app] += ev.Duration
		}
	}

	session := WorkSession{
		Start:           start,
		End:             end,
		DurationMinutes: end.Sub(start).Minutes(),
		PrimaryApps:     topApps(appTime, 3),
		FocusScore:      focusFromDiversity(len(appTime)),
	}
	session.Type = classifySession(session)
	return session
}

// focusFromDiversity maps app-count diversity to a 0-1 focus score.
func focusFromDiversity(appCount int) float64 {
	switch {
	case appCount <= 1:
		return 1.0
	case appCount <= 3:
		return 0.8
	case appCount <= 5:
		return 0.6
	default:
		return 0.4
	}
}

func classifySession(s WorkSession) string {
	switch {
	case s.DurationMinutes > 45 && s.FocusScore > 0.7:
		return SessionDeepWork
	case s.DurationMinutes < 15:
		return SessionBreak
	case s.FocusScore > 0.5:
		return SessionShallowWork
	default:
		return SessionMixed
	}
}

// topApps returns up to n apps ordered by accumulated time.
func topApps(appTime map[string]float64, n int) []string {
	type appEntry struct {
		app  string
		time float64
	}
	entries := make([]appEntry, 0, len(appTime))
	for app, t := range appTime {
		entries = append(entries, appEntry{app, t})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].time != entries[j].time {
			return entries[i].time > entries[j].time
		}
		return entries[i].app < entries[j].app
	})

	var apps []string
	for i := 0; i < len(entries) && i < n; i++ {
		apps = append(apps, entries[i].app)
	}
	return apps
}
