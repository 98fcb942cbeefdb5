package llm

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"flowsense/internal/score"
	"flowsense/internal/tracker"
)

// TimelineLimit bounds how many recent events a prompt carries.
const TimelineLimit = 30

// SystemPrompt frames every summarization request.
const SystemPrompt = "You are a supportive productivity assistant helping a user stay aware of their focus. " +
	"Analyze the provided activity data and respond with JSON only, no extra commentary."

// TimelineEntry is one categorized event rendered into the prompt.
type TimelineEntry struct {
	Time            time.Time
	App             string
	Title           string
	Category        string
	Score           int
	DurationMinutes float64
}

// ContextSwitch is one app transition rendered into the prompt.
type ContextSwitch struct {
	At           time.Time
	From         string
	FromCategory string
	To           string
	ToCategory   string
}

// PromptInput carries everything the prompt serializes.
type PromptInput struct {
	UserContext  string
	ExtraContext string
	Period       string
	Local        score.Result
	Frames       map[tracker.Timeframe]*tracker.Snapshot
	Timeline     []TimelineEntry
	Switches     []ContextSwitch
}

// BuildPrompt serializes the aggregated state into one structured
// request asking for the fixed JSON schema.
func BuildPrompt(in PromptInput) string {
	var b strings.Builder

	b.WriteString("Analyze the user's computer activity over the last " + in.Period + ".\n\n")

	if in.UserContext != "" || in.ExtraContext != "" {
		b.WriteString("USER CONTEXT:\n")
		if in.UserContext != "" {
			b.WriteString(in.UserContext + "\n")
		}
		if in.ExtraContext != "" {
			b.WriteString(in.ExtraContext + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("LOCAL METRICS:\n")
	fmt.Fprintf(&b, "- Active time: %.1f minutes\n", in.Local.TotalMinutes)
	fmt.Fprintf(&b, "- Work/distraction/neutral split: %d%%/%d%%/%d%%\n",
		in.Local.WorkPercent, in.Local.DistractionPercent, in.Local.NeutralPercent)
	fmt.Fprintf(&b, "- Heuristic state: %s, focus score %.0f\n", in.Local.State, in.Local.FocusScore)
	fmt.Fprintf(&b, "- Context switches per hour: %.1f\n\n", in.Local.SwitchesPerHour)

	if len(in.Frames) > 0 {
		b.WriteString("TIMEFRAME COMPARISON:\n")
		for _, tf := range tracker.Timeframes {
			snap, ok := in.Frames[tf]
			if !ok {
				continue
			}
			fmt.Fprintf(&b, "- %s: %.1f active min, %d apps, %d switches\n",
				tf, snap.Stats.ActiveMinutes, len(snap.Stats.UniqueApps), snap.Stats.ContextSwitches)
		}
		b.WriteString("\n")
	}

	if len(in.Timeline) > 0 {
		b.WriteString("RECENT TIMELINE:\n")
		entries := in.Timeline
		if len(entries) > TimelineLimit {
			entries = entries[len(entries)-TimelineLimit:]
		}
		for _, e := range entries {
			category := e.Category
			if category == "" {
				category = "uncategorized"
			}
			fmt.Fprintf(&b, "• %s - %s [%s, score:%d]", e.Time.Format("15:04:05"), e.App, category, e.Score)
			if e.Title != "" {
				fmt.Fprintf(&b, " → %s", e.Title)
			}
			fmt.Fprintf(&b, " (%.2fmin)\n", e.DurationMinutes)
		}
		b.WriteString("\n")
	}

	if len(in.Switches) > 0 {
		b.WriteString("CONTEXT SWITCHES:\n")
		for _, s := range in.Switches {
			fmt.Fprintf(&b, "- %s: %s [%s] → %s [%s]\n",
				s.At.Format("15:04:05"), s.From, s.FromCategory, s.To, s.ToCategory)
		}
		b.WriteString("\n")
	}

	b.WriteString(`Return JSON exactly in this shape:
{
  "current_state": "productive|moderate|chilling|unproductive|afk",
  "confidence": "high|medium|low",
  "primary_activity": "short description",
  "professional_summary": "2-3 sentence summary addressed to the user",
  "work_score": 0-100,
  "distraction_score": 0-100,
  "neutral_score": 0-100,
  "focus_trend": "improving|stable|declining|variable",
  "distraction_trend": "low|moderate|high",
  "reasoning": "one sentence"
}
The three scores must sum to 100.`)

	return b.String()
}

// BuildTimeline converts categorized snapshot events into prompt
// timeline entries, oldest first.
func BuildTimeline(events []tracker.Event, categoryOf func(app string) (string, int)) []TimelineEntry {
	sorted := make([]tracker.Event, len(events))
	copy(sorted, events)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})

	var timeline []TimelineEntry
	for _, ev := range sorted {
		app := ev.App()
		if app == "" {
			continue
		}
		entry := TimelineEntry{
			Time:            ev.Timestamp,
			App:             app,
			Title:           ev.Title(),
			DurationMinutes: ev.Duration / 60.0,
		}
		if categoryOf != nil {
			entry.Category, entry.Score = categoryOf(app)
		}
		timeline = append(timeline, entry)
	}
	return timeline
}

// DetectSwitches extracts app transitions from a chronological timeline.
func DetectSwitches(timeline []TimelineEntry) []ContextSwitch {
	var switches []ContextSwitch
	for i := 1; i < len(timeline); i++ {
		prev, cur := timeline[i-1], timeline[i]
		if strings.EqualFold(prev.App, cur.App) {
			continue
		}
		switches = append(switches, ContextSwitch{
			At:           cur.Time,
			From:         prev.App,
			FromCategory: prev.Category,
			To:           cur.App,
			ToCategory:   cur.Category,
		})
	}
	return switches
}
