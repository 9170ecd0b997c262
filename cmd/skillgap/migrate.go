package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Apply the embedded schema migrations to the database named by DATABASE_URL. SQLite stores are migrated when opened.",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := openDatabase(ctx, appConfig.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	m, ok := store.(migrator)
	if !ok {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")
		return nil
	}

	applied, err := m.Migrate(ctx)
	if err != nil {
		return err
	}
	for _, v := range applied {
		log.Info().Str("version", v).Msg("Applied migration")
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s)\n", len(applied))
	return nil
}
