package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"flowsense/internal/config"
	"flowsense/internal/storage"
)

var (
	cleanupConfigPath string
	cleanupDays       int
)

func NewCleanupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Prune stored activities and summaries past the retention window",
		RunE:  runCleanup,
	}

	cmd.Flags().StringVarP(&cleanupConfigPath, "config", "c", "", "Path to config file")
	cmd.Flags().IntVar(&cleanupDays, "days", 0, "Retention days (default from config)")

	return cmd
}

func runCleanup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cleanupConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	days := cleanupDays
	if days <= 0 {
		days = cfg.Storage.RetentionDays
	}

	st, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer st.Close()

	if err := st.CleanupOldRecords(days); err != nil {
		return fmt.Errorf("failed to cleanup old records: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Removed records older than %d days.\n", days)
	return nil
}
