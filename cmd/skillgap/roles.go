package main

import (
	"github.com/jonathan/skill-gap-analyzer/internal/observability"
	"github.com/spf13/cobra"
)

var rolesCmd = &cobra.Command{
	Use:   "roles",
	Short: "List the career roles in the catalog",
	RunE:  runRoles,
}

func init() {
	rootCmd.AddCommand(rolesCmd)
}

func runRoles(cmd *cobra.Command, _ []string) error {
	roles, err := loadCatalog(appConfig)
	if err != nil {
		return err
	}

	list := roles.Roles()
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintRoles(list)
	}
	return writeJSON(cmd.OutOrStdout(), map[string]any{"roles": list})
}
