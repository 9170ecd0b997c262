package estimator

import (
	"testing"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frontendRole() types.RoleCatalogEntry {
	return types.RoleCatalogEntry{
		ID:       "frontend-developer",
		RoleName: "Frontend Developer",
		RequiredSkills: []types.RequiredSkill{
			{Name: "HTML", Priority: types.PriorityHigh},
			{Name: "CSS", Priority: types.PriorityHigh},
			{Name: "JavaScript", Priority: types.PriorityHigh},
			{Name: "React", Priority: types.PriorityHigh},
			{Name: "TypeScript", Priority: types.PriorityMedium},
			{Name: "Git", Priority: types.PriorityHigh},
			{Name: "REST APIs", Priority: types.PriorityMedium},
			{Name: "Responsive Design", Priority: types.PriorityHigh},
			{Name: "Tailwind CSS", Priority: types.PriorityMedium},
			{Name: "Testing (Jest)", Priority: types.PriorityLow},
			{Name: "Webpack/Vite", Priority: types.PriorityLow},
			{Name: "Next.js", Priority: types.PriorityMedium},
		},
		PrioritySkills: []string{"HTML", "CSS", "JavaScript", "React", "Git"},
	}
}

func missingNames(a types.Analysis) []string {
	return types.MissingSkillNames(a.MissingSkills)
}

func recommendedNames(a types.Analysis) []string {
	out := []string{}
	for _, r := range a.RecommendedSkills {
		out = append(out, r.Skill)
	}
	return out
}

func TestEstimate_FullMatch(t *testing.T) {
	role := frontendRole()
	skills := []string{"html", "CSS", "javascript", "REACT", "typescript", "git", "rest apis",
		"responsive design", "tailwind css", "testing (jest)", "webpack/vite", "next.js"}

	got := Estimate(skills, role)

	assert.Equal(t, 100, got.ReadinessScore)
	assert.Equal(t, role.RequiredSkillNames(), got.MatchedSkills)
	assert.Empty(t, got.MissingSkills)
	assert.Empty(t, got.RecommendedSkills)
	require.Len(t, got.LearningRoadmap, 1)
	assert.Equal(t, "Month 5-6", got.LearningRoadmap[0].Month)
}

func TestEstimate_NoStudentSkills(t *testing.T) {
	role := frontendRole()

	got := Estimate(nil, role)

	assert.Equal(t, 0, got.ReadinessScore)
	assert.NotNil(t, got.MatchedSkills)
	assert.Empty(t, got.MatchedSkills)
	assert.Equal(t, role.RequiredSkillNames(), missingNames(got))
	assert.Equal(t, "Frontend Developer", got.CareerRole)
}

func TestEstimate_PartialScore(t *testing.T) {
	role := frontendRole()

	// 3/12 coverage and 2/5 priority: 15 + 16 = 31
	got := Estimate([]string{"HTML", "Git", "Testing (Jest)"}, role)

	assert.Equal(t, 31, got.ReadinessScore)
	assert.Equal(t, []string{"HTML", "Git", "Testing (Jest)"}, got.MatchedSkills)
}

func TestEstimate_ScoreRounding(t *testing.T) {
	role := types.RoleCatalogEntry{
		RoleName: "Tiny",
		RequiredSkills: []types.RequiredSkill{
			{Name: "A", Priority: types.PriorityHigh},
			{Name: "B", Priority: types.PriorityLow},
			{Name: "C", Priority: types.PriorityLow},
		},
		PrioritySkills: []string{"A"},
	}

	// 1/3*60 + 1/1*40 = 60
	assert.Equal(t, 60, Estimate([]string{"a"}, role).ReadinessScore)
	// 1/3*60 + 0 = 20
	assert.Equal(t, 20, Estimate([]string{"b"}, role).ReadinessScore)
	// 2/3*60 = 40
	assert.Equal(t, 40, Estimate([]string{"b", "c"}, role).ReadinessScore)
}

func TestEstimate_NoPrioritySkills(t *testing.T) {
	role := frontendRole()
	role.PrioritySkills = nil

	got := Estimate(role.RequiredSkillNames(), role)
	assert.Equal(t, 60, got.ReadinessScore, "without priority skills only the coverage term counts")
}

func TestEstimate_NoRequiredSkills(t *testing.T) {
	role := types.RoleCatalogEntry{RoleName: "Generalist"}

	got := Estimate([]string{"Go"}, role)

	assert.Equal(t, 0, got.ReadinessScore)
	assert.Empty(t, got.MatchedSkills)
	assert.Empty(t, got.MissingSkills)
	require.Len(t, got.LearningRoadmap, 1)
	assert.Equal(t, "Month 5-6", got.LearningRoadmap[0].Month)
}

func TestEstimate_NoFuzzyMatching(t *testing.T) {
	role := types.RoleCatalogEntry{
		RoleName:       "Backend Developer",
		RequiredSkills: []types.RequiredSkill{{Name: "Node.js", Priority: types.PriorityHigh}},
		PrioritySkills: []string{"Node.js"},
	}

	got := Estimate([]string{"NodeJS", " node.js"}, role)
	assert.Empty(t, got.MatchedSkills)
	assert.Equal(t, 0, got.ReadinessScore)
}

func TestEstimate_PhaseInclusion_FourHighNoMedium(t *testing.T) {
	role := types.RoleCatalogEntry{
		RoleName: "Cloud Engineer",
		RequiredSkills: []types.RequiredSkill{
			{Name: "AWS/GCP/Azure", Priority: types.PriorityHigh},
			{Name: "Linux", Priority: types.PriorityHigh},
			{Name: "Networking", Priority: types.PriorityHigh},
			{Name: "Terraform", Priority: types.PriorityHigh},
			{Name: "Cost Optimization", Priority: types.PriorityLow},
		},
		PrioritySkills: []string{"Linux"},
	}

	got := Estimate(nil, role)

	require.Len(t, got.LearningRoadmap, 3)
	assert.Equal(t, "Month 1-2", got.LearningRoadmap[0].Month)
	assert.Equal(t, []string{"AWS/GCP/Azure", "Linux", "Networking"}, got.LearningRoadmap[0].Skills)
	assert.Equal(t, "Month 3-4", got.LearningRoadmap[1].Month)
	assert.Equal(t, []string{"Terraform"}, got.LearningRoadmap[1].Skills)
	assert.Equal(t, "Month 5-6", got.LearningRoadmap[2].Month)
	assert.Equal(t, []string{"Portfolio Development", "Interview Skills"}, got.LearningRoadmap[2].Skills)
}

func TestEstimate_PhaseInclusion_MediumOnly(t *testing.T) {
	role := frontendRole()
	// every high-priority skill is covered
	got := Estimate([]string{"HTML", "CSS", "JavaScript", "React", "Git", "Responsive Design"}, role)

	require.Len(t, got.LearningRoadmap, 2)
	assert.Equal(t, "Month 3-4", got.LearningRoadmap[0].Month)
	assert.Equal(t, []string{"TypeScript", "REST APIs"}, got.LearningRoadmap[0].Skills)
	assert.Empty(t, got.RecommendedSkills)
}

func TestEstimate_PhaseInclusion_FewHighNoMedium(t *testing.T) {
	role := types.RoleCatalogEntry{
		RoleName: "Data Analyst",
		RequiredSkills: []types.RequiredSkill{
			{Name: "Python", Priority: types.PriorityHigh},
			{Name: "SQL", Priority: types.PriorityHigh},
			{Name: "R", Priority: types.PriorityLow},
		},
	}

	got := Estimate(nil, role)

	require.Len(t, got.LearningRoadmap, 2)
	assert.Equal(t, "Month 1-2", got.LearningRoadmap[0].Month)
	assert.Equal(t, "Month 5-6", got.LearningRoadmap[1].Month)
}

func TestEstimate_PhaseTwoMixesHighOverflowAndMedium(t *testing.T) {
	got := Estimate(nil, frontendRole())

	require.Len(t, got.LearningRoadmap, 3)
	assert.Equal(t, []string{"HTML", "CSS", "JavaScript"}, got.LearningRoadmap[0].Skills)
	assert.Equal(t, []string{"React", "Git", "Responsive Design", "TypeScript", "REST APIs"}, got.LearningRoadmap[1].Skills)
}

func TestEstimate_RecommendedSkills(t *testing.T) {
	got := Estimate(nil, frontendRole())
	assert.Equal(t, []string{"HTML", "CSS", "JavaScript", "React", "Git"}, recommendedNames(got))

	got = Estimate([]string{"HTML", "CSS", "JavaScript", "React"}, frontendRole())
	assert.Equal(t, []string{"Git", "Responsive Design"}, recommendedNames(got))
}

func TestEstimate_Idempotent(t *testing.T) {
	role := frontendRole()
	skills := []string{"React", "git", "Docker"}

	first := Estimate(skills, role)
	second := Estimate(skills, role)

	assert.Equal(t, first, second)
	assert.Equal(t, []string{"React", "git", "Docker"}, skills, "input must not be mutated")
	assert.Equal(t, frontendRole(), role)
}
