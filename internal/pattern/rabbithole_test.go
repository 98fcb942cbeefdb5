package pattern

import (
	"testing"

	"flowsense/internal/tracker"
)

func TestDetectRabbitHole(t *testing.T) {
	t.Run("incoherent browsing flagged", func(t *testing.T) {
		titles := []string{
			"python asyncio tutorial",
			"youtube - cat videos",
			"wikipedia - roman empire",
			"breaking news today",
			"reddit - r/all",
			"gmail inbox",
			"facebook feed",
		}
		result := DetectRabbitHole(browserEvents(titles))

		if !result.IsRabbitHole {
			t.Errorf("expected rabbit hole, coherence = %v", result.Coherence)
		}
		if result.DriftSeverity != DriftSevere && result.DriftSeverity != DriftModerate {
			t.Errorf("DriftSeverity = %q, want moderate or severe", result.DriftSeverity)
		}
		if result.EventCount != len(titles) {
			t.Errorf("EventCount = %d, want %d", result.EventCount, len(titles))
		}
	})

	t.Run("coherent browsing passes", func(t *testing.T) {
		titles := []string{
			"python asyncio tutorial",
			"golang context docs",
			"rust async programming",
			"code review checklist",
			"programming patterns",
			"async await explained",
		}
		result := DetectRabbitHole(browserEvents(titles))

		if result.IsRabbitHole {
			t.Errorf("unexpected rabbit hole, coherence = %v", result.Coherence)
		}
		if result.DriftSeverity != DriftNone {
			t.Errorf("DriftSeverity = %q, want none", result.DriftSeverity)
		}
	})

	t.Run("short sequences never flagged", func(t *testing.T) {
		titles := []string{"youtube", "wikipedia - math", "news", "gmail"}
		result := DetectRabbitHole(browserEvents(titles))
		if result.IsRabbitHole {
			t.Error("four events must not qualify as a rabbit hole")
		}
	})

	t.Run("non-browser events ignored", func(t *testing.T) {
		events := browserEvents([]string{"python docs"})
		events = append(events, appEvent(at(10), 60, "code", "main.go"))
		result := DetectRabbitHole(events)
		if result.EventCount != 1 {
			t.Errorf("EventCount = %d, want 1", result.EventCount)
		}
		if result.Coherence != 1.0 {
			t.Errorf("Coherence = %v, want 1.0 for a single event", result.Coherence)
		}
	})

	t.Run("no events", func(t *testing.T) {
		result := DetectRabbitHole(nil)
		if result.IsRabbitHole || result.Coherence != 1.0 {
			t.Errorf("unexpected result for empty input: %+v", result)
		}
	})
}

func browserEvents(titles []string) []tracker.Event {
	var events []tracker.Event
	for i, title := range titles {
		events = append(events, appEvent(at(i), 60, "chrome", title))
	}
	return events
}

func TestTopicSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"programming", "programming", 1.0},
		{"programming", "documentation", 0.8},
		{"documentation", "programming", 0.8},
		{"programming", "social media", 0.2},
		{"other", "news", 0.2},
	}
	for _, tt := range tests {
		if got := topicSimilarity(tt.a, tt.b); got != tt.want {
			t.Errorf("topicSimilarity(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestExtractTopic(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Python asyncio tutorial", "programming"},
		{"Wikipedia - Roman Empire", "reference"},
		{"YouTube - music mix", "social media"},
		{"World news today", "news"},
		{"Gmail inbox (3)", "email"},
		{"Library documentation", "documentation"},
		{"random page", "other"},
	}
	for _, tt := range tests {
		if got := extractTopic(tt.title); got != tt.want {
			t.Errorf("extractTopic(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}
