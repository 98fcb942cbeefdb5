package cmd

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "flowsense",
		Short: "Flowsense - local productivity companion",
		Long:  "A local daemon that reads window activity from a tracking service and produces adaptive productivity summaries",
	}

	rootCmd.AddCommand(NewStartCmd())
	rootCmd.AddCommand(NewStatusCmd())
	rootCmd.AddCommand(NewDaemonCmd())
	rootCmd.AddCommand(NewModeCmd())
	rootCmd.AddCommand(NewCategoryCmd())
	rootCmd.AddCommand(NewSummaryCmd())
	rootCmd.AddCommand(NewCleanupCmd())

	return rootCmd
}
