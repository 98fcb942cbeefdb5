package cmd

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"flowsense/internal/category"
	"flowsense/internal/config"
	"flowsense/internal/storage"
)

var categoryConfigPath string

func NewCategoryCmd() *cobra.Command {
	categoryCmd := &cobra.Command{
		Use:   "category",
		Short: "Inspect and override app categorizations",
	}

	categoryCmd.PersistentFlags().StringVarP(&categoryConfigPath, "config", "c", "", "Path to config file")

	categoryCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List known app categorizations",
		RunE:  runCategoryList,
	})
	categoryCmd.AddCommand(&cobra.Command{
		Use:   "set <app> <category> <score>",
		Short: "Set a user categorization (never overwritten automatically)",
		Args:  cobra.ExactArgs(3),
		RunE:  runCategorySet,
	})

	return categoryCmd
}

func openCategoryStore() (*storage.SQLiteStorage, error) {
	cfg, err := config.Load(categoryConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	st, err := storage.NewSQLiteStorage(cfg.Storage.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return st, nil
}

func runCategoryList(cmd *cobra.Command, args []string) error {
	st, err := openCategoryStore()
	if err != nil {
		return err
	}
	defer st.Close()

	records, err := st.ListCategories()
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintln(os.Stdout, "No categorizations stored yet.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "APP\tCATEGORY\tSUBCATEGORY\tSCORE\tORIGIN")
	for _, rec := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\n", rec.App, rec.Category, rec.Subcategory, rec.Score, rec.Origin)
	}
	return w.Flush()
}

func runCategorySet(cmd *cobra.Command, args []string) error {
	score, err := strconv.Atoi(args[2])
	if err != nil || score < 0 || score > 100 {
		return fmt.Errorf("score must be an integer between 0 and 100")
	}

	st, err := openCategoryStore()
	if err != nil {
		return err
	}
	defer st.Close()

	resolver := category.NewResolver(st)
	if err := resolver.SetUserCategory(args[0], args[1], "", score); err != nil {
		return fmt.Errorf("failed to set category: %w", err)
	}

	fmt.Fprintf(os.Stdout, "Category for %s set to %s (score %d)\n", args[0], args[1], score)
	return nil
}
