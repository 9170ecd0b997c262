package prompts

import (
	"testing"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisTemplate(t *testing.T) {
	tmpl, err := AnalysisTemplate()
	require.NoError(t, err)
	assert.Equal(t, "analysis.json#skill-gap-analysis", tmpl.Name)
	assert.Equal(t, []string{FieldCareerRole, FieldRoleContext, FieldStudentSkills}, tmpl.Placeholders())
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name     string
		file     string
		key      string
		required []string
		wantErr  string
	}{
		{"missing file", "nonexistent.json", AnalysisKey, nil, "failed to read prompt file"},
		{"missing key", AnalysisFile, "nonexistent-key", nil, "not found"},
		{"missing placeholder", AnalysisFile, AnalysisKey, []string{FieldStudentSkills, FieldCareerRole, FieldRoleContext, "Deadline"}, "missing placeholder {{.Deadline}}"},
		{"unknown placeholder", AnalysisFile, AnalysisKey, []string{FieldStudentSkills, FieldCareerRole}, "unknown placeholder {{.RoleContext}}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.file, tt.key, tt.required...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestTemplate_Render(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		data    map[string]string
		want    string
		wantErr bool
	}{
		{"replaces all", "Role {{.Role}} needs {{.Skill}}; {{.Skill}} first", map[string]string{"Role": "SRE", "Skill": "Linux"}, "Role SRE needs Linux; Linux first", false},
		{"no placeholders", "plain", map[string]string{"Key": "Value"}, "plain", false},
		{"value is not re-expanded", "{{.Role}}", map[string]string{"Role": "{{.Skill}}", "Skill": "x"}, "{{.Skill}}", false},
		{"missing value", "Hello {{.Name}}", map[string]string{}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var required []string
			for _, m := range placeholderPattern.FindAllStringSubmatch(tt.text, -1) {
				required = append(required, m[1])
			}
			tmpl, err := parseTemplate("test", tt.text, required)
			require.NoError(t, err)

			got, err := tmpl.Render(tt.data)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildAnalysisPrompt(t *testing.T) {
	role := types.RoleCatalogEntry{
		ID:          "data-analyst",
		RoleName:    "Data Analyst",
		Description: "Analyze data and generate insights",
		RequiredSkills: []types.RequiredSkill{
			{Name: "SQL", Priority: types.PriorityHigh},
			{Name: "R", Priority: types.PriorityLow},
		},
		PrioritySkills: []string{"SQL"},
	}

	prompt, err := BuildAnalysisPrompt([]string{"Excel", "Python"}, role)
	require.NoError(t, err)

	assert.NotContains(t, prompt, "{{.")
	assert.Contains(t, prompt, "\"Excel\"")
	assert.Contains(t, prompt, "Selected career role:\nData Analyst")
	assert.Contains(t, prompt, `"name": "SQL"`)
	assert.Contains(t, prompt, `"priority": "high"`)
	assert.Contains(t, prompt, `"priority_skills": [`)
	assert.NotContains(t, prompt, "data-analyst", "the role id is internal")
}

func TestBuildAnalysisPrompt_NoSkills(t *testing.T) {
	prompt, err := BuildAnalysisPrompt(nil, types.RoleCatalogEntry{RoleName: "Cloud Engineer"})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Student skills:\n[]")
}
