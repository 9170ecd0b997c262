// Package types provides type definitions for structured data used throughout the skill gap analyzer.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Priority is the importance a role places on a required skill.
type Priority string

// Priority levels used by the role catalog.
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Valid reports whether p is one of the known priority levels.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	}
	return false
}

// RequiredSkill is a single skill a role requires, with its priority.
type RequiredSkill struct {
	Name     string   `json:"name" yaml:"name"`
	Priority Priority `json:"priority" yaml:"priority"`
}

// RoleCatalogEntry is static reference data describing a target career role.
// Every value in PrioritySkills must also appear in RequiredSkills.
type RoleCatalogEntry struct {
	ID             string          `json:"id" yaml:"id"`
	RoleName       string          `json:"role_name" yaml:"role_name"`
	Description    string          `json:"description,omitempty" yaml:"description"`
	RequiredSkills []RequiredSkill `json:"required_skills" yaml:"required_skills"`
	PrioritySkills []string        `json:"priority_skills" yaml:"priority_skills"`
}

// RequiredSkillNames returns the names of the required skills in catalog order.
func (r RoleCatalogEntry) RequiredSkillNames() []string {
	names := make([]string, 0, len(r.RequiredSkills))
	for _, s := range r.RequiredSkills {
		names = append(names, s.Name)
	}
	return names
}

// PriorityOf returns the priority of the named required skill (exact name match).
// The second return value is false when the role does not require the skill.
func (r RoleCatalogEntry) PriorityOf(name string) (Priority, bool) {
	for _, s := range r.RequiredSkills {
		if s.Name == name {
			return s.Priority, true
		}
	}
	return "", false
}
