package pattern

import (
	"testing"
	"time"

	"flowsense/internal/tracker"
)

func at(minute int) time.Time {
	return time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC).Add(time.Duration(minute) * time.Minute)
}

func appEvent(start time.Time, durationSec float64, app, title string) tracker.Event {
	return tracker.Event{
		Timestamp: start,
		Duration:  durationSec,
		Data:      map[string]any{"app": app, "title": title},
	}
}

func TestDetectSessions_SplitsAtGap(t *testing.T) {
	// A 0-10min, A 10-12min, 6 minute gap, B 18-30min
	events := []tracker.Event{
		appEvent(at(0), 600, "a", ""),
		appEvent(at(10), 120, "a", ""),
		appEvent(at(18), 720, "b", ""),
	}

	sessions := DetectSessions(events)
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if !sessions[0].Start.Equal(at(0)) || !sessions[0].End.Equal(at(12)) {
		t.Errorf("first session = %v-%v, want %v-%v", sessions[0].Start, sessions[0].End, at(0), at(12))
	}
	if !sessions[1].Start.Equal(at(18)) || !sessions[1].End.Equal(at(30)) {
		t.Errorf("second session = %v-%v, want %v-%v", sessions[1].Start, sessions[1].End, at(18), at(30))
	}
}

func TestDetectSessions_GapWithinThresholdStaysOpen(t *testing.T) {
	events := []tracker.Event{
		appEvent(at(0), 60, "a", ""),
		appEvent(at(5), 60, "a", ""), // 4 minute gap stays inside SessionGap
	}
	if got := len(DetectSessions(events)); got != 1 {
		t.Errorf("expected 1 session, got %d", got)
	}
}

func TestDetectSessions_Empty(t *testing.T) {
	if got := DetectSessions(nil); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestSessionFocusAndType(t *testing.T) {
	tests := []struct {
		name      string
		events    []tracker.Event
		wantFocus float64
		wantType  string
	}{
		{
			name: "single app long session is deep work",
			events: []tracker.Event{
				appEvent(at(0), 1800, "code", ""),
				appEvent(at(30), 1800, "code", ""),
			},
			wantFocus: 1.0,
			wantType:  SessionDeepWork,
		},
		{
			name: "short session is a break",
			events: []tracker.Event{
				appEvent(at(0), 300, "spotify", ""),
			},
			wantFocus: 1.0,
			wantType:  SessionBreak,
		},
		{
			name: "three apps over medium span is shallow work",
			events: []tracker.Event{
				appEvent(at(0), 600, "code", ""),
				appEvent(at(10), 600, "browser", ""),
				appEvent(at(20), 600, "slack", ""),
			},
			wantFocus: 0.8,
			wantType:  SessionShallowWork,
		},
		{
			name: "many apps is mixed",
			events: []tracker.Event{
				appEvent(at(0), 180, "a", ""),
				appEvent(at(3), 180, "b", ""),
				appEvent(at(6), 180, "c", ""),
				appEvent(at(9), 180, "d", ""),
				appEvent(at(12), 180, "e", ""),
				appEvent(at(15), 180, "f", ""),
			},
			wantFocus: 0.4,
			wantType:  SessionMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sessions := DetectSessions(tt.events)
			if len(sessions) != 1 {
				t.Fatalf("expected 1 session, got %d", len(sessions))
			}
			if sessions[0].FocusScore != tt.wantFocus {
				t.Errorf("FocusScore = %v, want %v", sessions[0].FocusScore, tt.wantFocus)
			}
			if sessions[0].Type != tt.wantType {
				t.Errorf("Type = %q, want %q", sessions[0].Type, tt.wantType)
			}
		})
	}
}

func TestSessionPrimaryApps(t *testing.T) {
	events := []tracker.Event{
		appEvent(at(0), 1200, "code", ""),
		appEvent(at(20), 600, "browser", ""),
		appEvent(at(30), 300, "slack", ""),
		appEvent(at(35), 60, "spotify", ""),
	}
	sessions := DetectSessions(events)
	if len(sessions) != 1 {
		t.Fatalf("expected 1 session, got %d", len(sessions))
	}
	apps := sessions[0].PrimaryApps
	if len(apps) != 3 {
		t.Fatalf("PrimaryApps = %v, want 3 entries", apps)
	}
	if apps[0] != "code" || apps[1] != "browser" || apps[2] != "slack" {
		t.Errorf("PrimaryApps = %v, want time-weighted order", apps)
	}
}
