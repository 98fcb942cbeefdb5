package state

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"flowsense/internal/config"
	"flowsense/internal/logger"
)

// Summary is the output of one analysis cycle, held in memory so the CLI
// and notifications can read the latest result per mode.
type Summary struct {
	Text             string
	FocusScore       float64
	Period           string
	State            string
	WorkScore        int
	DistractionScore int
	NeutralScore     int
	UpdatedAt        time.Time
}

// AppState tracks the active mode, per-mode scheduling guards and the
// latest summary per mode. Each field group has its own mutex so mode
// reads never contend with summary writes.
type AppState struct {
	modeMu   sync.RWMutex
	mode     string
	modeFile string

	runMu   sync.Mutex
	lastRun map[string]time.Time

	summaryMu sync.RWMutex
	summaries map[string]*Summary
}

// minRunGap suppresses a re-fire when the same mode ran moments ago,
// e.g. after a manual trigger close to a scheduled minute.
const minRunGap = 60 * time.Second

func New(modeFile string) *AppState {
	s := &AppState{
		mode:      config.ModeCoach,
		modeFile:  modeFile,
		lastRun:   make(map[string]time.Time),
		summaries: make(map[string]*Summary),
	}
	s.loadMode()
	return s
}

func (s *AppState) loadMode() {
	if s.modeFile == "" {
		return
	}
	data, err := os.ReadFile(s.modeFile)
	if err != nil {
		return
	}
	mode := strings.TrimSpace(string(data))
	if config.IsValidMode(mode) {
		s.mode = mode
	} else if mode != "" {
		logger.GetLogger().Warnf("Ignoring invalid persisted mode %q", mode)
	}
}

func (s *AppState) Mode() string {
	s.modeMu.RLock()
	defer s.modeMu.RUnlock()
	return s.mode
}

// SetMode switches the active mode, persists it, and clears the new
// mode's run guard so it fires on its next scheduled minute.
func (s *AppState) SetMode(mode string) error {
	if !config.IsValidMode(mode) {
		return fmt.Errorf("invalid mode %q, valid modes: %s", mode, strings.Join(config.ValidModes, ", "))
	}

	s.modeMu.Lock()
	s.mode = mode
	s.modeMu.Unlock()

	s.runMu.Lock()
	delete(s.lastRun, mode)
	s.runMu.Unlock()

	if s.modeFile != "" {
		if err := os.MkdirAll(filepath.Dir(s.modeFile), 0o755); err != nil {
			return fmt.Errorf("failed to create mode directory: %w", err)
		}
		if err := os.WriteFile(s.modeFile, []byte(mode+"\n"), 0o644); err != nil {
			return fmt.Errorf("failed to persist mode: %w", err)
		}
	}
	return nil
}

// ShouldRun reports whether the given mode's cycle is due at now. Each
// mode has a fixed cadence on the wall clock; a recent run suppresses
// duplicate fires within the same minute.
func (s *AppState) ShouldRun(mode string, now time.Time) bool {
	var due bool
	switch mode {
	case config.ModeGhost, config.ModeChill:
		due = now.Minute() == 0
	case config.ModeStudyBuddy:
		due = now.Minute()%5 == 0
	case config.ModeCoach:
		due = now.Minute()%15 == 0
	default:
		return false
	}
	if !due {
		return false
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	if last, ok := s.lastRun[mode]; ok && now.Sub(last) < minRunGap {
		return false
	}
	return true
}

func (s *AppState) MarkRun(mode string, now time.Time) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	s.lastRun[mode] = now
}

func (s *AppState) SetSummary(mode string, summary *Summary) {
	s.summaryMu.Lock()
	defer s.summaryMu.Unlock()
	s.summaries[mode] = summary
}

// Summary returns the latest summary produced for the given mode, or
// nil when no cycle has completed yet.
func (s *AppState) Summary(mode string) *Summary {
	s.summaryMu.RLock()
	defer s.summaryMu.RUnlock()
	return s.summaries[mode]
}
