package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"flowsense/internal/config"
	"flowsense/internal/state"
)

var modeConfigPath string

func NewModeCmd() *cobra.Command {
	modeCmd := &cobra.Command{
		Use:   "mode",
		Short: "Show or switch the active behavior mode",
	}

	modeCmd.PersistentFlags().StringVarP(&modeConfigPath, "config", "c", "", "Path to config file")

	modeCmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Show the active mode",
		RunE:  runModeGet,
	})
	modeCmd.AddCommand(&cobra.Command{
		Use:   "set <mode>",
		Short: fmt.Sprintf("Switch mode (%s)", strings.Join(config.ValidModes, ", ")),
		Args:  cobra.ExactArgs(1),
		RunE:  runModeSet,
	})

	return modeCmd
}

func runModeGet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(modeConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appState := state.New(cfg.Modes.ModeFile)
	fmt.Fprintln(os.Stdout, appState.Mode())
	return nil
}

func runModeSet(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(modeConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	appState := state.New(cfg.Modes.ModeFile)
	if err := appState.SetMode(args[0]); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Mode set to %s\n", args[0])
	return nil
}
