package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"flowsense/internal/config"
	"flowsense/internal/storage"
)

var (
	summaryConfigPath string
	summaryDate       string
	summaryMode       string
	summaryDaily      bool
)

func NewSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show stored summaries for a day",
		RunE:  runSummary,
	}

	cmd.Flags().StringVarP(&summaryConfigPath, "config", "c", "", "Path to config file")
	cmd.Flags().StringVarP(&summaryDate, "date", "d", "", "Date to show (YYYY-MM-DD, default today)")
	cmd.Flags().StringVarP(&summaryMode, "mode", "m", "", "Filter by mode")
	cmd.Flags().BoolVar(&summaryDaily, "daily", false, "Show the daily rollup instead of per-cycle summaries")

	return cmd
}

func runSummary(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(summaryConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	day := time.Now()
	if summaryDate != "" {
		day, err = time.Parse("2006-01-02", summaryDate)
		if err != nil {
			return fmt.Errorf("invalid date format, expected YYYY-MM-DD: %w", err)
		}
	}
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())

	st, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.Close()

	if summaryDaily {
		return printDailySummary(st, dayStart.Format("2006-01-02"))
	}

	summaries, err := st.QuerySummaries(dayStart, dayStart.AddDate(0, 0, 1), summaryMode)
	if err != nil {
		return fmt.Errorf("failed to query summaries: %w", err)
	}

	if len(summaries) == 0 {
		fmt.Fprintf(os.Stdout, "No summaries for %s.\n", dayStart.Format("2006-01-02"))
		return nil
	}

	for _, s := range summaries {
		fmt.Fprintf(os.Stdout, "%s [%s] %s (focus %.0f, work %d%%, distraction %d%%)\n  %s\n",
			s.CreatedAt.Format("15:04"), s.Mode, s.State, s.FocusScore,
			s.WorkScore, s.DistractionScore, s.SummaryText)
	}
	return nil
}

func printDailySummary(st *storage.SQLiteStorage, date string) error {
	daily, err := st.GetDailySummary(date)
	if err != nil {
		return fmt.Errorf("failed to get daily summary: %w", err)
	}
	if daily == nil {
		fmt.Fprintf(os.Stdout, "No daily rollup for %s.\n", date)
		return nil
	}

	fmt.Fprintf(os.Stdout, "Daily rollup for %s\n", daily.Date)
	fmt.Fprintf(os.Stdout, "Active minutes: %.0f\n", daily.TotalActiveMinutes)
	fmt.Fprintf(os.Stdout, "Split: work %d%% / distraction %d%% / neutral %d%%\n",
		daily.WorkPercent, daily.DistractionPercent, daily.NeutralPercent)
	if len(daily.TopApps) > 0 {
		fmt.Fprintf(os.Stdout, "Top apps: %v\n", daily.TopApps)
	}
	if daily.SummaryText != "" {
		fmt.Fprintf(os.Stdout, "\n%s\n", daily.SummaryText)
	}
	return nil
}
