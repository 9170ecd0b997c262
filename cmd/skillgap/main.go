// Package main provides the entry point for the Skill Gap Analyzer API server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/jonathan/skill-gap-analyzer/internal/config"
	"github.com/jonathan/skill-gap-analyzer/internal/logger"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	appConfig *config.AppConfig
	verbose   bool
)

var rootCmd = &cobra.Command{
	Use:   "skillgap",
	Short: "Skill Gap Analyzer API server and tools",
	Long: "Skill Gap Analyzer compares a student's skills against a career role, produces a readiness " +
		"score with a learning roadmap, and aggregates campus-wide readiness for placement officers.",
	SilenceUsage:      true,
	PersistentPreRunE: initApp,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print a human-readable summary to stderr")
}

// initApp loads configuration and sets up logging before any command runs.
func initApp(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Initialize(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	appConfig = cfg
	return nil
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
