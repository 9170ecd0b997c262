package prompts

import (
	"encoding/json"
	"strings"
	"sync"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// Prompt file and key for the skill gap analysis template.
const (
	AnalysisFile = "analysis.json"
	AnalysisKey  = "skill-gap-analysis"
)

// Placeholders the analysis template must reference.
const (
	FieldStudentSkills = "StudentSkills"
	FieldCareerRole    = "CareerRole"
	FieldRoleContext   = "RoleContext"
)

var loadAnalysis = sync.OnceValues(func() (Template, error) {
	return Load(AnalysisFile, AnalysisKey, FieldStudentSkills, FieldCareerRole, FieldRoleContext)
})

// AnalysisTemplate returns the embedded analysis prompt. It is loaded and
// checked once per process.
func AnalysisTemplate() (Template, error) {
	return loadAnalysis()
}

// roleContext is the slice of the catalog entry the model needs.
type roleContext struct {
	RoleName       string                `json:"role_name"`
	Description    string                `json:"description,omitempty"`
	RequiredSkills []types.RequiredSkill `json:"required_skills"`
	PrioritySkills []string              `json:"priority_skills"`
}

// BuildAnalysisPrompt renders the skill gap analysis prompt for a student and role.
func BuildAnalysisPrompt(studentSkills []string, role types.RoleCatalogEntry) (string, error) {
	tmpl, err := AnalysisTemplate()
	if err != nil {
		return "", err
	}

	skills := studentSkills
	if skills == nil {
		skills = []string{}
	}
	skillsJSON, err := json.MarshalIndent(skills, "", "  ")
	if err != nil {
		return "", err
	}
	ctxJSON, err := json.MarshalIndent(roleContext{
		RoleName:       role.RoleName,
		Description:    role.Description,
		RequiredSkills: role.RequiredSkills,
		PrioritySkills: role.PrioritySkills,
	}, "", "  ")
	if err != nil {
		return "", err
	}

	prompt, err := tmpl.Render(map[string]string{
		FieldStudentSkills: string(skillsJSON),
		FieldCareerRole:    role.RoleName,
		FieldRoleContext:   string(ctxJSON),
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(prompt), nil
}
