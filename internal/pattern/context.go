package pattern

import (
	"strings"

	"flowsense/internal/tracker"
)

// ContextAssessment scores how well observed app usage matches the
// user's stated professional context.
type ContextAssessment struct {
	UserRole        string
	ExpectedApps    []string
	DistractionApps []string
	Score           float64
	Assessment      string
}

type roleProfile struct {
	markers     []string
	role        string
	expected    []string
	distracting []string
}

// roleProfiles are matched in order against the user context; the first
// marker hit wins, and the last entry is the fallback.
var roleProfiles = []roleProfile{
	{
		markers:     []string{"social media manager"},
		role:        "Social Media Manager",
		expected:    []string{"twitter", "facebook", "instagram", "linkedin", "hootsuite", "buffer"},
		distracting: []string{"games", "netflix", "youtube"},
	},
	{
		markers:     []string{"developer", "programmer"},
		role:        "Software Developer",
		expected:    []string{"vscode", "code", "terminal", "chrome", "firefox", "slack", "github"},
		distracting: []string{"facebook", "instagram", "tiktok", "games"},
	},
	{
		markers:     []string{"writer", "content"},
		role:        "Content Creator",
		expected:    []string{"word", "docs", "notion", "obsidian", "chrome", "firefox"},
		distracting: []string{"games", "tiktok", "instagram"},
	},
	{
		markers:     []string{"designer"},
		role:        "Designer",
		expected:    []string{"figma", "sketch", "photoshop", "illustrator", "chrome"},
		distracting: []string{"games", "tiktok", "facebook"},
	},
	{
		markers:     nil,
		role:        "General Professional",
		expected:    []string{"chrome", "firefox", "word", "excel", "slack", "teams"},
		distracting: []string{"games", "tiktok", "instagram", "facebook", "youtube"},
	},
}

func profileForContext(userContext string) roleProfile {
	contextLower := strings.ToLower(userContext)
	for _, p := range roleProfiles {
		for _, marker := range p.markers {
			if strings.Contains(contextLower, marker) {
				return p
			}
		}
	}
	return roleProfiles[len(roleProfiles)-1]
}

// AssessContext weighs time in expected apps fully, time in neutral
// apps half, and time in the role's distraction apps not at all. With
// no observed time the score is the neutral 0.5.
func AssessContext(events []tracker.Event, userContext string) ContextAssessment {
	profile := profileForContext(userContext)

	var appropriate, total float64
	for _, ev := range events {
		app := strings.ToLower(ev.App())
		if app == "" {
			continue
		}
		total += ev.Duration

		switch {
		case containsAny(app, profile.expected):
			appropriate += ev.Duration
		case containsAny(app, profile.distracting):
		default:
			appropriate += ev.Duration * 0.5
		}
	}

	score := 0.5
	if total > 0 {
		score = appropriate / total
	}

	return ContextAssessment{
		UserRole:        profile.role,
		ExpectedApps:    profile.expected,
		DistractionApps: profile.distracting,
		Score:           score,
		Assessment:      contextAssessmentText(score),
	}
}

func containsAny(app string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(app, m) {
			return true
		}
	}
	return false
}

func contextAssessmentText(score float64) string {
	switch {
	case score > 0.8:
		return "Excellent alignment with professional context"
	case score > 0.6:
		return "Good alignment with occasional off-task moments"
	case score > 0.4:
		return "Moderate alignment - consider refocusing on core tasks"
	default:
		return "Low alignment - significant time on non-contextual activities"
	}
}
