// Package estimator produces a deterministic, offline skill gap analysis. It is used when the
// AI analysis is unavailable or returns output that cannot be normalized.
package estimator

import (
	"math"
	"strings"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

const (
	// coverageWeight and priorityWeight sum to 100, so the score needs no clamping.
	coverageWeight = 60.0
	priorityWeight = 40.0

	foundationSkillLimit   = 3
	intermediateMediumCap  = 2
	recommendedSkillsLimit = 5
)

// Estimate compares the student's skills with a role's requirements and builds a readiness
// score and a coarse roadmap. Matching is case-insensitive exact equality: "React.js" does
// not match "React".
func Estimate(studentSkills []string, role types.RoleCatalogEntry) types.Analysis {
	have := make(map[string]struct{}, len(studentSkills))
	for _, s := range studentSkills {
		have[strings.ToLower(s)] = struct{}{}
	}

	matched := []string{}
	missing := []string{}
	for _, req := range role.RequiredSkills {
		if _, ok := have[strings.ToLower(req.Name)]; ok {
			matched = append(matched, req.Name)
		} else {
			missing = append(missing, req.Name)
		}
	}

	highMissing, mediumMissing := missingByPriority(role, missing)

	return types.Analysis{
		CareerRole:        role.RoleName,
		ReadinessScore:    readinessScore(role, matched),
		MatchedSkills:     matched,
		MissingSkills:     toMissingSkills(missing),
		RecommendedSkills: toSkillPriorities(firstN(highMissing, recommendedSkillsLimit)),
		LearningRoadmap:   buildRoadmap(highMissing, mediumMissing),
		QuickWins:         []types.QuickWin{},
		ResumeTips:        []string{},
		LinkedInTips:      []string{},
	}
}

func readinessScore(role types.RoleCatalogEntry, matched []string) int {
	coverage := ratio(len(matched), len(role.RequiredSkills))

	matchedSet := make(map[string]struct{}, len(matched))
	for _, m := range matched {
		matchedSet[strings.ToLower(m)] = struct{}{}
	}
	priorityMatched := 0
	for _, p := range role.PrioritySkills {
		if _, ok := matchedSet[strings.ToLower(p)]; ok {
			priorityMatched++
		}
	}
	priority := ratio(priorityMatched, len(role.PrioritySkills))

	return int(math.Round(coverage*coverageWeight + priority*priorityWeight))
}

// ratio returns 0 for an empty denominator.
func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}

func missingByPriority(role types.RoleCatalogEntry, missing []string) (high, medium []string) {
	for _, name := range missing {
		p, _ := role.PriorityOf(name)
		switch p {
		case types.PriorityHigh:
			high = append(high, name)
		case types.PriorityMedium:
			medium = append(medium, name)
		}
	}
	return high, medium
}

func buildRoadmap(highMissing, mediumMissing []string) []types.RoadmapPhase {
	roadmap := []types.RoadmapPhase{}

	if len(highMissing) > 0 {
		roadmap = append(roadmap, phase(
			"Month 1-2",
			"Core Foundation Skills",
			firstN(highMissing, foundationSkillLimit),
			"Official documentation", "Free YouTube tutorials", "Practice projects",
		))
	}

	if len(highMissing) > foundationSkillLimit || len(mediumMissing) > 0 {
		var skills []string
		if len(highMissing) > foundationSkillLimit {
			skills = append(skills, highMissing[foundationSkillLimit:]...)
		}
		skills = append(skills, firstN(mediumMissing, intermediateMediumCap)...)
		roadmap = append(roadmap, phase(
			"Month 3-4",
			"Intermediate Skills Development",
			skills,
			"Build mini-projects", "Online coding platforms", "Open source contributions",
		))
	}

	roadmap = append(roadmap, phase(
		"Month 5-6",
		"Project Building & Interview Prep",
		[]string{"Portfolio Development", "Interview Skills"},
		"Build 2-3 projects", "LeetCode practice", "Mock interviews",
	))

	return roadmap
}

func phase(month, title string, skills []string, resources ...string) types.RoadmapPhase {
	res := make([]types.Resource, 0, len(resources))
	for _, r := range resources {
		res = append(res, types.Resource{Name: r})
	}
	return types.RoadmapPhase{
		Month:           month,
		Title:           title,
		Goal:            "Focus: " + title,
		Skills:          skills,
		Weeks:           []types.RoadmapWeek{},
		Resources:       res,
		Projects:        []types.Project{},
		MistakesToAvoid: []string{},
		Milestones:      []string{},
	}
}

func firstN(s []string, n int) []string {
	out := make([]string, 0, min(n, len(s)))
	return append(out, s[:min(n, len(s))]...)
}

func toMissingSkills(names []string) []types.MissingSkill {
	out := make([]types.MissingSkill, 0, len(names))
	for _, n := range names {
		out = append(out, types.MissingSkill{Name: n})
	}
	return out
}

func toSkillPriorities(names []string) []types.SkillPriority {
	out := make([]types.SkillPriority, 0, len(names))
	for _, n := range names {
		out = append(out, types.SkillPriority{Skill: n})
	}
	return out
}
