// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to a terminal; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %s │\n", pad(title, boxWidth-4))
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %s │\n", pad(truncate(line, boxWidth-4), boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes, marking the cut with "...".
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-3]) + "..."
}

func pad(s string, n int) string {
	if c := utf8.RuneCountInString(s); c < n {
		return s + strings.Repeat(" ", n-c)
	}
	return s
}

// scoreBar renders a 0-100 score as a 20-cell bar.
func scoreBar(score int) string {
	filled := types.ClampReadiness(score) / 5
	return strings.Repeat("█", filled) + strings.Repeat("░", 20-filled)
}

// writeList writes up to maxItemsToShow items with a trailing "and N more" line.
func writeList(sb *strings.Builder, heading string, items []string) {
	if len(items) == 0 {
		return
	}
	sb.WriteString(heading + ":\n")
	count := min(len(items), maxItemsToShow)
	for _, item := range items[:count] {
		sb.WriteString(fmt.Sprintf("  • %s\n", item))
	}
	if len(items) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(items)-maxItemsToShow))
	}
	sb.WriteString("\n")
}

// PrintAnalysis outputs a human-readable summary of a skill gap analysis.
func (p *Printer) PrintAnalysis(analysis *types.Analysis, source types.AnalysisSource) {
	if analysis == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Role:      %s\n", analysis.CareerRole))
	sb.WriteString(fmt.Sprintf("Readiness: %3d%% %s\n", analysis.ReadinessScore, scoreBar(analysis.ReadinessScore)))
	sb.WriteString(fmt.Sprintf("Source:    %s\n", source))
	if b := analysis.ScoreBreakdown; b != nil {
		sb.WriteString(fmt.Sprintf("Breakdown: technical %d, projects %d, interview %d\n",
			b.TechnicalSkills, b.Projects, b.InterviewReadiness))
	}
	sb.WriteString("\n")

	writeList(&sb, "Matched", analysis.MatchedSkills)

	missing := make([]string, 0, len(analysis.MissingSkills))
	for _, m := range analysis.MissingSkills {
		if m.Reason != "" {
			missing = append(missing, m.Name+" - "+m.Reason)
		} else {
			missing = append(missing, m.Name)
		}
	}
	writeList(&sb, "Missing", missing)

	recommended := make([]string, 0, len(analysis.RecommendedSkills))
	for _, r := range analysis.RecommendedSkills {
		recommended = append(recommended, r.Skill)
	}
	writeList(&sb, "Learn next", recommended)

	if len(analysis.LearningRoadmap) > 0 {
		sb.WriteString("Roadmap:\n")
		for _, phase := range analysis.LearningRoadmap {
			line := phase.Month
			if phase.Title != "" {
				line += ": " + phase.Title
			}
			sb.WriteString(fmt.Sprintf("  %s\n", line))
			if len(phase.Skills) > 0 {
				sb.WriteString(fmt.Sprintf("    %s\n", strings.Join(phase.Skills, ", ")))
			}
		}
	}

	p.printBox("SKILL GAP ANALYSIS", strings.TrimRight(sb.String(), "\n"))
}

// PrintCampusAnalytics outputs the campus-wide readiness summary.
func (p *Printer) PrintCampusAnalytics(a types.CampusAnalytics) {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Students analyzed: %d\n", a.TotalStudents))
	sb.WriteString(fmt.Sprintf("Average readiness: %3d%% %s\n", a.AverageReadiness, scoreBar(a.AverageReadiness)))

	if len(a.TopMissingSkills) > 0 {
		sb.WriteString("\nMost missing skills:\n")
		for i, sc := range a.TopMissingSkills {
			sb.WriteString(fmt.Sprintf("  %2d. %-30s %4d\n", i+1, truncate(sc.Skill, 30), sc.Count))
		}
	}

	if len(a.RoleWiseStats) > 0 {
		sb.WriteString("\nBy role:\n")
		for _, rs := range a.RoleWiseStats {
			sb.WriteString(fmt.Sprintf("  %-28s avg %3d  n=%d\n", truncate(rs.Role, 28), rs.AverageScore, rs.StudentCount))
		}
	}

	p.printBox("CAMPUS ANALYTICS", strings.TrimRight(sb.String(), "\n"))
}

// PrintRoles outputs the catalog roles with their priority skills.
func (p *Printer) PrintRoles(roles []types.RoleCatalogEntry) {
	if len(roles) == 0 {
		return
	}

	var sb strings.Builder
	for i, role := range roles {
		sb.WriteString(fmt.Sprintf("%s (%s)\n", role.RoleName, role.ID))
		sb.WriteString(fmt.Sprintf("  %d skills, priority: %s\n", len(role.RequiredSkills), strings.Join(role.PrioritySkills, ", ")))
		if i < len(roles)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("ROLE CATALOG", strings.TrimRight(sb.String(), "\n"))
}
