package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"flowsense/internal/config"
	"flowsense/internal/logger"
	"flowsense/internal/scheduler"
	"flowsense/internal/state"
	"flowsense/internal/storage"
	"flowsense/internal/task"
)

var configPath string

func NewStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start the activity monitor",
		RunE:  runStart,
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to config file")

	return cmd
}

func runStart(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Storage.EnsureDBPath(); err != nil {
		return fmt.Errorf("failed to create db path: %w", err)
	}

	st, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.Close()

	appState := state.New(cfg.Modes.ModeFile)
	if appState.Mode() != cfg.Modes.Default && !modeFileExists(cfg.Modes.ModeFile) {
		if err := appState.SetMode(cfg.Modes.Default); err != nil {
			logger.GetLogger().Warnf("Failed to apply default mode: %v", err)
		}
	}

	executor, err := task.NewExecutor(cfg, st, appState)
	if err != nil {
		return fmt.Errorf("failed to create executor: %w", err)
	}

	analysisInterval, err := cfg.Modes.GetAnalysisIntervalDuration()
	if err != nil {
		return fmt.Errorf("failed to parse analysis interval: %w", err)
	}
	analysisSched := scheduler.NewFixedRateScheduler(analysisInterval)
	if err := analysisSched.Start(executor.RunCycle); err != nil {
		return fmt.Errorf("failed to start analysis scheduler: %w", err)
	}

	syncInterval, err := cfg.Modes.GetSyncIntervalDuration()
	if err != nil {
		return fmt.Errorf("failed to parse sync interval: %w", err)
	}
	syncSched := scheduler.NewFixedRateScheduler(syncInterval)
	if err := syncSched.Start(executor.SyncActivities); err != nil {
		return fmt.Errorf("failed to start sync scheduler: %w", err)
	}

	dailySched, err := scheduler.NewCronScheduler(cfg.Modes.DailyCron)
	if err != nil {
		return fmt.Errorf("failed to create daily scheduler: %w", err)
	}
	if err := dailySched.Start(executor.DailyRollup); err != nil {
		return fmt.Errorf("failed to start daily scheduler: %w", err)
	}

	logger.GetLogger().Infof("Flowsense started in %s mode. Press Ctrl+C to stop.", appState.Mode())
	logger.GetLogger().Infof("Analysis interval: %s, Sync interval: %s", cfg.Modes.AnalysisInterval, cfg.Modes.SyncInterval)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.GetLogger().Info("Stopping...")
	if err := analysisSched.Stop(); err != nil {
		return fmt.Errorf("failed to stop analysis scheduler: %w", err)
	}
	if err := syncSched.Stop(); err != nil {
		return fmt.Errorf("failed to stop sync scheduler: %w", err)
	}
	if err := dailySched.Stop(); err != nil {
		return fmt.Errorf("failed to stop daily scheduler: %w", err)
	}
	logger.GetLogger().Info("Stopped.")

	return nil
}

func modeFileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}
