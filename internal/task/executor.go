package task

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"flowsense/internal/category"
	"flowsense/internal/config"
	"flowsense/internal/llm"
	"flowsense/internal/logger"
	"flowsense/internal/pattern"
	"flowsense/internal/score"
	"flowsense/internal/state"
	"flowsense/internal/storage"
	"flowsense/internal/tracker"
)

// Executor runs the per-mode analysis cycles and the background sync
// and rollup jobs. One analysis runs at a time; a tick that arrives
// while a cycle is in flight is skipped.
type Executor struct {
	config        *config.Config
	storage       *storage.SQLiteStorage
	resolver      *category.Resolver
	categorizer   *category.Categorizer
	tracker       *tracker.Client
	aggregator    *tracker.Aggregator
	llm           *llm.Client
	state         *state.AppState
	analysisMutex sync.Mutex
}

func NewExecutor(cfg *config.Config, st *storage.SQLiteStorage, appState *state.AppState) (*Executor, error) {
	trackerClient, err := tracker.NewClient(&cfg.Tracker)
	if err != nil {
		return nil, fmt.Errorf("failed to create tracking client: %w", err)
	}

	resolver := category.NewResolver(st)
	llmClient := llm.NewClient(&cfg.LLM)

	return &Executor{
		config:      cfg,
		storage:     st,
		resolver:    resolver,
		categorizer: category.NewCategorizer(resolver, llmClient),
		tracker:     trackerClient,
		aggregator:  tracker.NewAggregator(trackerClient),
		llm:         llmClient,
		state:       appState,
	}, nil
}

// RunCycle is the scheduler tick. It checks whether the active mode is
// due and, if so, runs its cycle asynchronously so a slow backend never
// blocks the ticker.
func (e *Executor) RunCycle() error {
	mode := e.state.Mode()
	now := time.Now()

	if !e.state.ShouldRun(mode, now) {
		return nil
	}

	if !e.analysisMutex.TryLock() {
		logger.GetLogger().Info("Analysis already in progress, skipping this tick")
		return nil
	}

	e.state.MarkRun(mode, now)

	go func() {
		defer e.analysisMutex.Unlock()
		if err := e.runModeCycle(mode, now); err != nil {
			logger.GetLogger().Warnf("Cycle for mode %s failed: %v", mode, err)
		}
	}()

	return nil
}

func (e *Executor) runModeCycle(mode string, now time.Time) error {
	logger.GetLogger().Infof("Running %s cycle", mode)

	switch mode {
	case config.ModeGhost:
		e.runGhostCycle(now)
		return nil
	case config.ModeChill:
		return e.runAnalysisCycle(mode, now, time.Hour, "1 hour", "")
	case config.ModeCoach:
		extra := ""
		if e.config.Modes.CoachTask != "" {
			extra = "Current task: " + e.config.Modes.CoachTask
		}
		return e.runAnalysisCycle(mode, now, time.Hour, "1 hour", extra)
	case config.ModeStudyBuddy:
		extra := ""
		if e.config.Modes.StudyFocus != "" {
			extra = "[Study Focus: " + e.config.Modes.StudyFocus + "]"
		}
		return e.runAnalysisCycle(mode, now, 5*time.Minute, "5 minutes", extra)
	}
	return fmt.Errorf("unknown mode %q", mode)
}

// runGhostCycle produces a low-touch hourly check-in without touching
// the tracking service or the text backend.
func (e *Executor) runGhostCycle(now time.Time) {
	focus := hourlyFocus(now.Hour())

	summary := &state.Summary{
		Text:             fmt.Sprintf("Quiet check-in at %s. Typical focus for this hour is around %.0f.", now.Format("15:04"), focus),
		FocusScore:       focus,
		Period:           "1 hour",
		State:            ghostState(focus),
		WorkScore:        50,
		DistractionScore: 30,
		NeutralScore:     20,
		UpdatedAt:        now,
	}

	e.state.SetSummary(config.ModeGhost, summary)
	e.persistSummary(config.ModeGhost, summary)
}

// ghostState maps an estimated focus score onto the productivity state
// ladder used for quiet check-ins.
func ghostState(focus float64) string {
	switch {
	case focus > 80:
		return score.StateProductive
	case focus > 60:
		return score.StateModerate
	case focus > 40:
		return score.StateChilling
	default:
		return score.StateUnproductive
	}
}

// hourlyFocus estimates a focus score from the time of day alone, used
// when no activity data is consulted.
func hourlyFocus(hour int) float64 {
	switch {
	case hour >= 9 && hour <= 11:
		return 80
	case hour >= 14 && hour <= 16:
		return 75
	case hour >= 12 && hour <= 13:
		return 60
	case hour >= 17 && hour <= 18:
		return 65
	case hour >= 19 && hour <= 22:
		return 55
	default:
		return 40
	}
}

func (e *Executor) runAnalysisCycle(mode string, now time.Time, period time.Duration, periodLabel, extraContext string) error {
	ctx := context.Background()

	frames, err := e.aggregator.Collect(ctx, now)
	if err != nil {
		return fmt.Errorf("failed to collect activity: %w", err)
	}

	snap := snapshotForPeriod(frames, period)
	if snap == nil {
		return fmt.Errorf("no snapshot for period %s", periodLabel)
	}

	local := e.computeLocal(snap, period)

	timeline := llm.BuildTimeline(snap.WindowEvents, func(app string) (string, int) {
		rec := e.resolver.Resolve(app)
		return rec.Category, rec.Score
	})
	switches := llm.DetectSwitches(timeline)

	patterns := patternContext(frames, snap, e.config.Modes.UserContext, now)
	if patterns != "" {
		if extraContext != "" {
			extraContext += "\n"
		}
		extraContext += patterns
	}

	prompt := llm.BuildPrompt(llm.PromptInput{
		UserContext:  e.config.Modes.UserContext,
		ExtraContext: extraContext,
		Period:       periodLabel,
		Local:        local,
		Frames:       frames,
		Timeline:     timeline,
		Switches:     switches,
	})

	var summary *state.Summary
	response, err := e.llm.Generate(ctx, prompt, llm.SystemPrompt)
	if err != nil {
		logger.GetLogger().Warnf("Generation backend unavailable, using heuristic summary: %v", err)
		summary = heuristicSummary(local, timeline, periodLabel, now)
	} else {
		analysis := llm.Parse(response)
		summary = mergeSummary(local, analysis, periodLabel, now)
	}

	e.state.SetSummary(mode, summary)
	e.persistSummary(mode, summary)

	if mode == config.ModeCoach && e.config.Modes.NotificationsEnabled && summary.State == score.StateUnproductive {
		logger.GetLogger().Warnf("Nudge: %s", summary.Text)
	}

	return nil
}

// patternContext summarizes session, fatigue, context-fit, and drift
// findings as extra prompt context. Sessions and fatigue look at the
// whole day; the other detectors use the current window.
func patternContext(frames map[tracker.Timeframe]*tracker.Snapshot, snap *tracker.Snapshot, userContext string, now time.Time) string {
	var lines []string

	if today := frames[tracker.TimeframeToday]; today != nil {
		sessions := pattern.DetectSessions(today.WindowEvents)
		if len(sessions) > 0 {
			last := sessions[len(sessions)-1]
			lines = append(lines, fmt.Sprintf("Current session: %s, %.0f min, focus %.1f",
				last.Type, last.DurationMinutes, last.FocusScore))
		}
		fatigue := pattern.AnalyzeFatigue(sessions, now)
		if fatigue.BreakUrgency != pattern.UrgencyNone {
			lines = append(lines, fmt.Sprintf("Fatigue: %s (%.0f min since last break, break %s). %s",
				fatigue.Level, fatigue.TimeSinceBreakMinutes, fatigue.BreakUrgency, fatigue.RecommendedAction))
		}
	}

	if len(snap.WindowEvents) > 0 {
		fit := pattern.AssessContext(snap.WindowEvents, userContext)
		lines = append(lines, fmt.Sprintf("Context fit (%s): %.2f. %s",
			fit.UserRole, fit.Score, fit.Assessment))
	}

	if hole := pattern.DetectRabbitHole(snap.WindowEvents); hole.IsRabbitHole {
		lines = append(lines, fmt.Sprintf("Browsing drift: %s (coherence %.2f over %d events)",
			hole.DriftSeverity, hole.Coherence, hole.EventCount))
	}

	distractions := pattern.AnalyzeReturnToTask(snap.WindowEvents)
	unreturned := 0
	for _, d := range distractions {
		if d.Classification == pattern.ClassDistraction {
			unreturned++
		}
	}
	if unreturned > 0 {
		lines = append(lines, fmt.Sprintf("Unreturned distractions this window: %d", unreturned))
	}

	if len(lines) == 0 {
		return ""
	}
	return "OBSERVED PATTERNS:\n" + strings.Join(lines, "\n")
}

func snapshotForPeriod(frames map[tracker.Timeframe]*tracker.Snapshot, period time.Duration) *tracker.Snapshot {
	if period <= 5*time.Minute {
		return frames[tracker.TimeframeFiveMinutes]
	}
	return frames[tracker.TimeframeOneHour]
}

func (e *Executor) computeLocal(snap *tracker.Snapshot, period time.Duration) score.Result {
	activities := make([]score.Activity, 0, len(snap.WindowEvents))
	for _, ev := range snap.WindowEvents {
		app := ev.App()
		if app == "" {
			continue
		}
		rec := e.resolver.Resolve(app)
		activities = append(activities, score.Activity{
			App:             app,
			Category:        rec.Category,
			Score:           rec.Score,
			HasScore:        true,
			DurationMinutes: ev.Duration / 60,
		})
	}
	return score.Compute(activities, snap.Stats.ContextSwitches, period.Hours(), len(snap.Stats.UniqueApps))
}

// mergeSummary combines the parsed analysis with the local heuristics.
// The generated state is trusted only at high confidence; the numeric
// split always comes from the local computation.
func mergeSummary(local score.Result, analysis llm.Analysis, periodLabel string, now time.Time) *state.Summary {
	st := local.State
	if analysis.Confidence == "high" {
		st = score.CanonicalState(analysis.State)
	}

	text := analysis.Summary
	if text == "" {
		text = analysis.PrimaryActivity
	}

	return &state.Summary{
		Text:             text,
		FocusScore:       local.FocusScore,
		Period:           periodLabel,
		State:            st,
		WorkScore:        local.WorkPercent,
		DistractionScore: local.DistractionPercent,
		NeutralScore:     local.NeutralPercent,
		UpdatedAt:        now,
	}
}

// heuristicSummary builds a plain-text summary from the timeline when
// the text backend is unreachable.
func heuristicSummary(local score.Result, timeline []llm.TimelineEntry, periodLabel string, now time.Time) *state.Summary {
	appTime := make(map[string]float64)
	for _, entry := range timeline {
		appTime[entry.App] += entry.DurationMinutes
	}

	apps := make([]string, 0, len(appTime))
	for app := range appTime {
		apps = append(apps, app)
	}
	sort.Slice(apps, func(i, j int) bool {
		if appTime[apps[i]] != appTime[apps[j]] {
			return appTime[apps[i]] > appTime[apps[j]]
		}
		return apps[i] < apps[j]
	})

	text := fmt.Sprintf("Tracked %.0f active minutes over the last %s.", local.TotalMinutes, periodLabel)
	if len(apps) > 0 {
		top := apps
		if len(top) > 3 {
			top = top[:3]
		}
		text += " Mostly in " + strings.Join(top, ", ") + "."
	}

	return &state.Summary{
		Text:             text,
		FocusScore:       local.FocusScore,
		Period:           periodLabel,
		State:            local.State,
		WorkScore:        local.WorkPercent,
		DistractionScore: local.DistractionPercent,
		NeutralScore:     local.NeutralPercent,
		UpdatedAt:        now,
	}
}

// persistSummary writes the summary to storage. A failed write only
// loses history, so it is logged and not propagated.
func (e *Executor) persistSummary(mode string, s *state.Summary) {
	rec := &storage.SummaryRecord{
		ID:               uuid.New().String(),
		CreatedAt:        s.UpdatedAt,
		Mode:             mode,
		Period:           s.Period,
		State:            s.State,
		SummaryText:      s.Text,
		FocusScore:       s.FocusScore,
		WorkScore:        s.WorkScore,
		DistractionScore: s.DistractionScore,
		NeutralScore:     s.NeutralScore,
	}
	if err := e.storage.SaveSummary(rec); err != nil {
		logger.GetLogger().Warnf("Failed to persist %s summary: %v", mode, err)
	}
}

// SyncActivities stores the last hour of active window events and runs
// the batched categorization pass over any pending apps.
func (e *Executor) SyncActivities() error {
	ctx := context.Background()
	now := time.Now()
	start := now.Add(-time.Hour)

	windowEvents, idleEvents, err := e.tracker.FetchRange(ctx, start, now)
	if err != nil {
		return fmt.Errorf("failed to fetch activity for sync: %w", err)
	}

	active := tracker.FilterActive(windowEvents, idleEvents)
	records := make([]storage.ActivityRecord, 0, len(active))
	for _, ev := range active {
		app := ev.App()
		if app == "" {
			continue
		}
		rec := e.resolver.Resolve(app)
		records = append(records, storage.ActivityRecord{
			ID:              uuid.New().String(),
			Timestamp:       ev.Timestamp,
			App:             app,
			Title:           ev.Title(),
			DurationSeconds: ev.Duration,
			Category:        rec.Category,
		})
	}

	if err := e.storage.SaveActivities(records); err != nil {
		return fmt.Errorf("failed to store activities: %w", err)
	}
	logger.GetLogger().Debugf("Synced %d activity records", len(records))

	e.categorizer.Run(ctx)
	return nil
}

// DailyRollup aggregates yesterday's summaries and activities into one
// daily record, then prunes data past the retention window.
func (e *Executor) DailyRollup() error {
	day := time.Now().AddDate(0, 0, -1)
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	summaries, err := e.storage.QuerySummaries(dayStart, dayEnd, "")
	if err != nil {
		return fmt.Errorf("failed to query summaries for rollup: %w", err)
	}

	activities, err := e.storage.QueryActivities(dayStart, dayEnd)
	if err != nil {
		return fmt.Errorf("failed to query activities for rollup: %w", err)
	}

	if len(summaries) == 0 && len(activities) == 0 {
		logger.GetLogger().Infof("No data for %s, skipping daily rollup", dayStart.Format("2006-01-02"))
		return e.cleanup()
	}

	var totalSeconds float64
	for _, a := range activities {
		totalSeconds += a.DurationSeconds
	}

	usages, err := e.storage.TopApps(dayStart, dayEnd, 5)
	if err != nil {
		return fmt.Errorf("failed to query top apps for rollup: %w", err)
	}
	topApps := make([]string, 0, len(usages))
	for _, u := range usages {
		topApps = append(topApps, u.App)
	}

	daily := &storage.DailySummary{
		Date:               dayStart.Format("2006-01-02"),
		TotalActiveMinutes: totalSeconds / 60,
		TopApps:            topApps,
		UpdatedAt:          time.Now(),
	}

	if len(summaries) > 0 {
		var work, distraction, neutral int
		for _, s := range summaries {
			work += s.WorkScore
			distraction += s.DistractionScore
			neutral += s.NeutralScore
		}
		daily.WorkPercent = work / len(summaries)
		daily.DistractionPercent = distraction / len(summaries)
		daily.NeutralPercent = neutral / len(summaries)
		daily.SummaryText = summaries[len(summaries)-1].SummaryText
	}

	if err := e.storage.UpsertDailySummary(daily); err != nil {
		return fmt.Errorf("failed to upsert daily summary: %w", err)
	}
	logger.GetLogger().Infof("Daily rollup stored for %s (%d summaries, %d activities)",
		daily.Date, len(summaries), len(activities))

	return e.cleanup()
}

func (e *Executor) cleanup() error {
	if err := e.storage.CleanupOldRecords(e.config.Storage.RetentionDays); err != nil {
		return fmt.Errorf("failed to cleanup old records: %w", err)
	}
	return nil
}

// Tracker exposes the shared tracking client, used by status checks.
func (e *Executor) Tracker() *tracker.Client {
	return e.tracker
}

// LLM exposes the shared generation client, used by status checks.
func (e *Executor) LLM() *llm.Client {
	return e.llm
}

// Resolver exposes the shared category resolver, used by the category
// commands.
func (e *Executor) Resolver() *category.Resolver {
	return e.resolver
}
