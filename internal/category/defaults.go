package category

import "strings"

// defaultEntry is a built-in category assignment for a well-known app.
type defaultEntry struct {
	Category    string
	Subcategory string
	Score       int
}

// defaultTable maps lower-cased app identifiers to built-in categories.
// Scores follow the 0-100 productivity scale.
var defaultTable = map[string]defaultEntry{
	// Games
	"steam": {"entertainment", "gaming", 10},
	"cs2":   {"entertainment", "gaming", 0},

	// Development
	"code":            {"development", "ide", 95},
	"devenv":          {"development", "ide", 95},
	"windowsterminal": {"development", "terminal", 85},
	"cmd":             {"development", "terminal", 80},
	"powershell":      {"development", "terminal", 80},

	// Browsers
	"brave":   {"productivity", "browser", 60},
	"chrome":  {"productivity", "browser", 60},
	"firefox": {"productivity", "browser", 60},
	"msedge":  {"productivity", "browser", 60},

	// Communication
	"discord": {"communication", "chat", 40},
	"slack":   {"communication", "chat", 50},
	"teams":   {"communication", "chat", 50},
	"zoom":    {"communication", "meetings", 60},

	// System
	"explorer": {"system", "files", 50},
	"taskmgr":  {"system", "monitoring", 50},
	"settings": {"system", "configuration", 50},

	// Productivity
	"obsidian": {"productivity", "notes", 85},
	"notion":   {"productivity", "notes", 85},
	"todoist":  {"productivity", "tasks", 90},

	// Media
	"spotify": {"entertainment", "music", 30},
	"vlc":     {"entertainment", "video", 20},

	// Office
	"outlook":  {"communication", "email", 70},
	"excel":    {"productivity", "office", 80},
	"winword":  {"productivity", "office", 80},
	"powerpnt": {"productivity", "office", 70},

	"app": {"productivity", "assistant", 70},
}

// keywordRules are coarse fallbacks applied when no table entry matches.
var keywordRules = []struct {
	Keywords []string
	Entry    defaultEntry
}{
	{[]string{"game", "play"}, defaultEntry{"entertainment", "gaming", 10}},
	{[]string{"code", "studio", "ide"}, defaultEntry{"development", "ide", 90}},
	{[]string{"chat", "messenger"}, defaultEntry{"communication", "chat", 40}},
	{[]string{"browser"}, defaultEntry{"productivity", "browser", 60}},
}

// lookupDefault resolves an app name against the built-in table:
// exact match, then substring match, then keyword heuristics.
func lookupDefault(app string) (defaultEntry, bool) {
	name := strings.ToLower(strings.TrimSuffix(app, ".exe"))

	if entry, ok := defaultTable[name]; ok {
		return entry, true
	}

	for key, entry := range defaultTable {
		if strings.Contains(name, key) {
			return entry, true
		}
	}

	for _, rule := range keywordRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(name, kw) {
				return rule.Entry, true
			}
		}
	}

	return defaultEntry{}, false
}
