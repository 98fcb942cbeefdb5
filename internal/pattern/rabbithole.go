package pattern

import (
	"strings"

	"flowsense/internal/tracker"
)

// Drift severities, from intact focus to full rabbit hole.
const (
	DriftNone     = "none"
	DriftMild     = "mild"
	DriftModerate = "moderate"
	DriftSevere   = "severe"
)

// RabbitHoleResult describes topic coherence across browser activity.
type RabbitHoleResult struct {
	IsRabbitHole  bool
	Coherence     float64
	EventCount    int
	Topics        []string
	DriftSeverity string
}

var browserMarkers = []string{"browser", "chrome", "firefox", "edge"}

func isBrowserApp(app string) bool {
	name := strings.ToLower(app)
	for _, marker := range browserMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// DetectRabbitHole measures topic drift across browser-like events.
// Coherence is the mean pairwise similarity of consecutive page topics;
// a long low-coherence stretch is flagged as a rabbit hole.
func DetectRabbitHole(events []tracker.Event) RabbitHoleResult {
	var topics []string
	for _, ev := range events {
		if isBrowserApp(ev.App()) {
			topics = append(topics, extractTopic(ev.Title()))
		}
	}

	result := RabbitHoleResult{
		Coherence:  1.0,
		EventCount: len(topics),
		Topics:     topics,
	}

	if len(topics) >= 2 {
		var total float64
		for i := 1; i < len(topics); i++ {
			total += topicSimilarity(topics[i-1], topics[i])
		}
		result.Coherence = total / float64(len(topics)-1)
	}

	result.IsRabbitHole = result.Coherence < 0.6 && result.EventCount > 5
	result.DriftSeverity = driftSeverity(result.Coherence)
	return result
}

func driftSeverity(coherence float64) string {
	switch {
	case coherence > 0.8:
		return DriftNone
	case coherence > 0.6:
		return DriftMild
	case coherence > 0.4:
		return DriftModerate
	default:
		return DriftSevere
	}
}

var topicKeywords = []struct {
	Keywords []string
	Topic    string
}{
	{[]string{"python", "programming", "code", "async", "golang", "rust"}, "programming"},
	{[]string{"docs", "documentation", "manual", "reference guide"}, "documentation"},
	{[]string{"wikipedia", "wiki"}, "reference"},
	{[]string{"youtube", "reddit", "twitter", "facebook"}, "social media"},
	{[]string{"news"}, "news"},
	{[]string{"email", "gmail", "inbox"}, "email"},
}

// extractTopic assigns a coarse topic label to a page title.
func extractTopic(title string) string {
	lower := strings.ToLower(title)
	for _, group := range topicKeywords {
		for _, kw := range group.Keywords {
			if strings.Contains(lower, kw) {
				return group.Topic
			}
		}
	}
	return "other"
}

// topicSimilarity scores how related two consecutive topics are.
// Programming and documentation commonly interleave during real work,
// so that pair counts as near-coherent.
func topicSimilarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if (a == "programming" && b == "documentation") || (a == "documentation" && b == "programming") {
		return 0.8
	}
	return 0.2
}
