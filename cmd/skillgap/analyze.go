package main

import (
	"fmt"

	"github.com/jonathan/skill-gap-analyzer/internal/analyzer"
	"github.com/jonathan/skill-gap-analyzer/internal/catalog"
	"github.com/jonathan/skill-gap-analyzer/internal/estimator"
	"github.com/jonathan/skill-gap-analyzer/internal/observability"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/spf13/cobra"
)

var (
	analysisRole   string
	analysisSkills string
)

var estimateCmd = &cobra.Command{
	Use:   "estimate",
	Short: "Estimate readiness for a role without calling the AI provider",
	Long:  "Run the deterministic estimator for the given skills and role and print the analysis JSON.",
	RunE:  runEstimate,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a skill gap for a role",
	Long:  "Run the AI analysis for the given skills and role, falling back to the estimator, and print the result JSON.",
	RunE:  runAnalyze,
}

func init() {
	for _, cmd := range []*cobra.Command{estimateCmd, analyzeCmd} {
		cmd.Flags().StringVarP(&analysisRole, "role", "r", "", "Role id or name (see 'skillgap roles')")
		cmd.Flags().StringVarP(&analysisSkills, "skills", "s", "", "Comma-separated list of current skills")
		_ = cmd.MarkFlagRequired("role")
		_ = cmd.MarkFlagRequired("skills")
		rootCmd.AddCommand(cmd)
	}
}

// resolveAnalysisInput loads the catalog and validates the role and skills flags.
func resolveAnalysisInput() (types.RoleCatalogEntry, []string, error) {
	roles, err := loadCatalog(appConfig)
	if err != nil {
		return types.RoleCatalogEntry{}, nil, err
	}
	return resolveRole(roles, analysisRole, analysisSkills)
}

func resolveRole(roles *catalog.Catalog, roleFlag, skillsFlag string) (types.RoleCatalogEntry, []string, error) {
	role, ok := roles.Resolve(roleFlag)
	if !ok {
		return types.RoleCatalogEntry{}, nil, fmt.Errorf("unknown role %q (run 'skillgap roles' to list ids)", roleFlag)
	}
	skills := parseSkills(skillsFlag)
	if len(skills) == 0 {
		return types.RoleCatalogEntry{}, nil, fmt.Errorf("at least one skill is required")
	}
	return role, skills, nil
}

func runEstimate(cmd *cobra.Command, _ []string) error {
	role, skills, err := resolveAnalysisInput()
	if err != nil {
		return err
	}

	result := analyzer.Result{
		Analysis: estimator.Estimate(skills, role),
		Source:   types.SourceFallback,
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintAnalysis(&result.Analysis, result.Source)
	}
	return writeJSON(cmd.OutOrStdout(), result)
}

func runAnalyze(cmd *cobra.Command, _ []string) error {
	role, skills, err := resolveAnalysisInput()
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	memo, err := newCache(ctx, appConfig)
	if err != nil {
		return err
	}
	defer func() { _ = memo.Close() }()

	client, err := newLLMClient(ctx, appConfig)
	if err != nil {
		return err
	}
	if client != nil {
		defer func() { _ = client.Close() }()
	}

	result, err := newAnalyzer(client, memo, appConfig).Analyze(ctx, skills, role)
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	if verbose {
		observability.NewPrinter(cmd.ErrOrStderr()).PrintAnalysis(&result.Analysis, result.Source)
	}
	return writeJSON(cmd.OutOrStdout(), result)
}
