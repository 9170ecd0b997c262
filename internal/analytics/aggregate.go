// Package analytics reduces stored analysis records into campus-wide summary statistics.
package analytics

import (
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// TopMissingSkillsLimit caps the number of entries in CampusAnalytics.TopMissingSkills.
const TopMissingSkillsLimit = 10

// Aggregate computes campus analytics over records. It does not modify records and
// returns the same result for the same input regardless of how often it is called.
//
// Scores are averaged per record, not per user: a student with several analyses contributes
// several samples. Averages use round-half-away-from-zero.
func Aggregate(records []types.AnalysisRecord) types.CampusAnalytics {
	if len(records) == 0 {
		return types.EmptyCampusAnalytics()
	}

	users := make(map[uuid.UUID]struct{}, len(records))
	totalScore := 0
	for _, rec := range records {
		users[rec.UserID] = struct{}{}
		totalScore += rec.ReadinessScore
	}

	return types.CampusAnalytics{
		TotalStudents:    len(users),
		AverageReadiness: roundedMean(totalScore, len(records)),
		TopMissingSkills: topMissingSkills(records, TopMissingSkillsLimit),
		RoleWiseStats:    roleWiseStats(records),
	}
}

// topMissingSkills tallies missing skill names across all records. A record listing the same
// skill twice counts it twice. Equal counts keep first-encountered order.
func topMissingSkills(records []types.AnalysisRecord, limit int) []types.SkillCount {
	index := make(map[string]int)
	counts := []types.SkillCount{}

	for _, rec := range records {
		for _, skill := range rec.MissingSkills {
			if i, ok := index[skill.Name]; ok {
				counts[i].Count++
				continue
			}
			index[skill.Name] = len(counts)
			counts = append(counts, types.SkillCount{Skill: skill.Name, Count: 1})
		}
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].Count > counts[j].Count
	})

	if len(counts) > limit {
		counts = counts[:limit]
	}
	return counts
}

type roleTotals struct {
	totalScore int
	count      int
}

// roleWiseStats groups records by career role in first-encountered order.
func roleWiseStats(records []types.AnalysisRecord) []types.RoleStat {
	totals := make(map[string]*roleTotals)
	var order []string

	for _, rec := range records {
		role := rec.CareerRole
		if role == "" {
			role = types.UnknownRole
		}
		t, ok := totals[role]
		if !ok {
			t = &roleTotals{}
			totals[role] = t
			order = append(order, role)
		}
		t.totalScore += rec.ReadinessScore
		t.count++
	}

	stats := make([]types.RoleStat, 0, len(order))
	for _, role := range order {
		t := totals[role]
		stats = append(stats, types.RoleStat{
			Role:         role,
			AverageScore: roundedMean(t.totalScore, t.count),
			StudentCount: t.count,
		})
	}
	return stats
}

func roundedMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}
