package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"flowsense/internal/config"
	"flowsense/internal/llm"
	"flowsense/internal/state"
	"flowsense/internal/storage"
	"flowsense/internal/tracker"
)

var statusConfigPath string

func NewStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show current status, backend health, and today's summaries",
		RunE:  runStatus,
	}
	cmd.Flags().StringVarP(&statusConfigPath, "config", "c", "", "Path to config file")
	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(statusConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Flowsense Status\n")
	fmt.Fprintf(os.Stdout, "================\n\n")

	appState := state.New(cfg.Modes.ModeFile)
	fmt.Fprintf(os.Stdout, "Active mode: %s\n", appState.Mode())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	trackerClient, err := tracker.NewClient(&cfg.Tracker)
	if err != nil {
		return fmt.Errorf("failed to create tracking client: %w", err)
	}
	if err := trackerClient.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stdout, "Tracking service (%s): unreachable (%v)\n", cfg.Tracker.BaseURL(), err)
	} else {
		fmt.Fprintf(os.Stdout, "Tracking service (%s): ok\n", cfg.Tracker.BaseURL())
	}

	llmClient := llm.NewClient(&cfg.LLM)
	if err := llmClient.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stdout, "Generation backend (%s): unreachable (%v)\n", cfg.LLM.BaseURL(), err)
	} else {
		fmt.Fprintf(os.Stdout, "Generation backend (%s): ok, model %s\n", cfg.LLM.BaseURL(), cfg.LLM.Model)
	}

	st, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.Close()

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	summaries, err := st.QuerySummaries(today, today.AddDate(0, 0, 1), "")
	if err != nil {
		return fmt.Errorf("failed to query summaries: %w", err)
	}

	fmt.Fprintf(os.Stdout, "\nToday's summaries: %d\n", len(summaries))
	if len(summaries) > 0 {
		last := summaries[len(summaries)-1]
		fmt.Fprintf(os.Stdout, "Latest (%s, %s): %s\n",
			last.CreatedAt.Format("15:04"), last.State, truncate(last.SummaryText, 80))
	}

	return nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
