package db

import (
	"strings"
	"testing"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	assert.Equal(t, "0001_init", migrations[0].Version)
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS users")
	assert.Contains(t, migrations[0].SQL, "CREATE TABLE IF NOT EXISTS skill_analysis")
	assert.Contains(t, migrations[0].SQL, "CHECK (readiness_score BETWEEN 0 AND 100)")

	for i := 1; i < len(migrations); i++ {
		assert.Less(t, migrations[i-1].Version, migrations[i].Version)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "tpo@college.edu", NormalizeEmail("  TPO@College.edu "))
	assert.Equal(t, "", NormalizeEmail(""))
}

func TestEncodeAnalysis_NilListsBecomeEmptyArrays(t *testing.T) {
	cols, err := EncodeAnalysis(&types.AnalysisRecord{})
	require.NoError(t, err)

	for _, col := range [][]byte{cols.Matched, cols.Missing, cols.Recommended, cols.Roadmap} {
		assert.Equal(t, "[]", string(col))
	}
}

func TestAnalysisColumns_RoundTrip(t *testing.T) {
	in := &types.AnalysisRecord{
		MatchedSkills:     []string{"Linux"},
		MissingSkills:     []types.MissingSkill{{Name: "Terraform"}},
		RecommendedSkills: []types.SkillPriority{{Skill: "Terraform", Reason: "IaC"}},
		LearningRoadmap:   []types.RoadmapPhase{{Month: "Month 1-2", Skills: []string{"Terraform"}}},
	}
	cols, err := EncodeAnalysis(in)
	require.NoError(t, err)

	var out types.AnalysisRecord
	require.NoError(t, cols.Decode(&out))
	assert.Equal(t, in.MatchedSkills, out.MatchedSkills)
	assert.Equal(t, in.MissingSkills, out.MissingSkills)
	assert.Equal(t, in.RecommendedSkills, out.RecommendedSkills)
	assert.Equal(t, in.LearningRoadmap, out.LearningRoadmap)
}

func TestAnalysisColumns_DecodeLegacyMissingSkillStrings(t *testing.T) {
	cols := AnalysisColumns{Missing: []byte(`["Docker - needed for deployments", "Kubernetes"]`)}

	var out types.AnalysisRecord
	require.NoError(t, cols.Decode(&out))
	assert.Equal(t, []types.MissingSkill{
		{Name: "Docker", Reason: "needed for deployments"},
		{Name: "Kubernetes"},
	}, out.MissingSkills)
	assert.Equal(t, []string{}, out.MatchedSkills)
}

func TestAnalysisColumns_DecodeError(t *testing.T) {
	var out types.AnalysisRecord
	err := AnalysisColumns{Matched: []byte("{not json")}.Decode(&out)
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to decode column"))
}
