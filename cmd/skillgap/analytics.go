package main

import (
	"github.com/jonathan/skill-gap-analyzer/internal/analytics"
	"github.com/jonathan/skill-gap-analyzer/internal/observability"
	"github.com/spf13/cobra"
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print campus-wide readiness analytics",
	Long:  "Read every stored analysis and print the campus analytics JSON served to the admin dashboard.",
	RunE:  runAnalytics,
}

func init() {
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openDatabase(ctx, appConfig.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	result, err := analytics.NewService(store, nil, 0).Refresh(ctx)
	if err != nil {
		return err
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintCampusAnalytics(result)
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
