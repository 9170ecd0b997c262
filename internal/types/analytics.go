package types

// UnknownRole is the role bucket for records stored without a career role.
const UnknownRole = "Unknown"

// SkillCount is how many times a skill appeared as missing across analyses.
type SkillCount struct {
	Skill string `json:"skill"`
	Count int    `json:"count"`
}

// RoleStat summarizes readiness for one career role.
type RoleStat struct {
	Role         string `json:"role"`
	AverageScore int    `json:"averageScore"`
	StudentCount int    `json:"studentCount"`
}

// CampusAnalytics is derived from stored analysis records on demand and never persisted.
type CampusAnalytics struct {
	TotalStudents    int          `json:"totalStudents"`
	AverageReadiness int          `json:"averageReadiness"`
	TopMissingSkills []SkillCount `json:"topMissingSkills"`
	RoleWiseStats    []RoleStat   `json:"roleWiseStats"`
}

// EmptyCampusAnalytics is the zero-valued result for an empty record set.
func EmptyCampusAnalytics() CampusAnalytics {
	return CampusAnalytics{
		TopMissingSkills: []SkillCount{},
		RoleWiseStats:    []RoleStat{},
	}
}
