package types

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MinReadinessScore and MaxReadinessScore bound every stored readiness score.
const (
	MinReadinessScore = 0
	MaxReadinessScore = 100
)

// ClampReadiness clamps a readiness score to [MinReadinessScore, MaxReadinessScore].
func ClampReadiness(score int) int {
	return max(MinReadinessScore, min(MaxReadinessScore, score))
}

// AnalysisSource records where an analysis came from.
type AnalysisSource string

// Analysis sources.
const (
	SourceAI       AnalysisSource = "ai"
	SourceFallback AnalysisSource = "fallback"
	SourceCache    AnalysisSource = "cache"
)

// MissingSkill is a skill the student lacks, optionally annotated with why it matters.
// It decodes from either a bare string ("Docker - needed for deployments") or an object.
type MissingSkill struct {
	Name   string `json:"name"`
	Reason string `json:"reason,omitempty"`
}

// reasonSeparator splits "skill - reason" strings produced by the AI service.
const reasonSeparator = " - "

// ParseMissingSkill splits an annotated "name - reason" string.
func ParseMissingSkill(s string) MissingSkill {
	s = strings.TrimSpace(s)
	if name, reason, ok := strings.Cut(s, reasonSeparator); ok {
		return MissingSkill{Name: strings.TrimSpace(name), Reason: strings.TrimSpace(reason)}
	}
	return MissingSkill{Name: s}
}

// UnmarshalJSON accepts a string or an object.
func (m *MissingSkill) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*m = ParseMissingSkill(s)
		return nil
	}
	type plain MissingSkill
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MissingSkill(p)
	return nil
}

// MissingSkillNames projects the names out of a missing-skill list.
func MissingSkillNames(skills []MissingSkill) []string {
	names := make([]string, 0, len(skills))
	for _, s := range skills {
		names = append(names, s.Name)
	}
	return names
}

// SkillPriority is one entry of the recommended learning order.
type SkillPriority struct {
	Skill       string `json:"skill"`
	Reason      string `json:"reason,omitempty"`
	TimeToLearn string `json:"time_to_learn,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
}

// ScoreBreakdown splits the readiness score into sub-scores.
type ScoreBreakdown struct {
	TechnicalSkills    int `json:"technical_skills"`
	Projects           int `json:"projects"`
	InterviewReadiness int `json:"interview_readiness"`
}

// DailyTask is one scheduled block within a roadmap week.
type DailyTask struct {
	Day      string `json:"day,omitempty"`
	Task     string `json:"task"`
	Duration string `json:"duration,omitempty"`
}

// CodingPractice describes the problems to solve in a roadmap week.
type CodingPractice struct {
	Platform   string   `json:"platform,omitempty"`
	Count      int      `json:"count,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Topics     []string `json:"topics"`
	MustSolve  []string `json:"must_solve"`
}

// RoadmapWeek is a single week inside a roadmap phase.
type RoadmapWeek struct {
	Label          string          `json:"label"`
	Theme          string          `json:"theme,omitempty"`
	Tasks          []DailyTask     `json:"tasks"`
	CodingProblems *CodingPractice `json:"coding_problems,omitempty"`
	Checkpoint     string          `json:"checkpoint,omitempty"`
}

// Resource is a learning resource recommended for a phase.
type Resource struct {
	Name     string `json:"name"`
	Type     string `json:"type,omitempty"`
	URL      string `json:"url,omitempty"`
	Why      string `json:"why,omitempty"`
	HowToUse string `json:"how_to_use,omitempty"`
}

// Project is a portfolio project recommended for a phase.
type Project struct {
	Name                   string   `json:"name"`
	Description            string   `json:"description,omitempty"`
	Features               []string `json:"features"`
	TechStack              []string `json:"tech_stack"`
	SkillsPracticed        []string `json:"skills_practiced"`
	TimeRequired           string   `json:"time_required,omitempty"`
	GitHubTips             string   `json:"github_tips,omitempty"`
	InterviewTalkingPoints []string `json:"interview_talking_points"`
	DeployOn               string   `json:"deploy_on,omitempty"`
}

// InterviewQuestion pairs a common question with guidance on answering it.
type InterviewQuestion struct {
	Question    string `json:"question"`
	HowToAnswer string `json:"how_to_answer,omitempty"`
}

// InterviewPrep is the interview preparation block of a phase.
type InterviewPrep struct {
	Summary          string              `json:"summary,omitempty"`
	ConceptsToMaster []string            `json:"concepts_to_master"`
	CommonQuestions  []InterviewQuestion `json:"common_questions"`
	PracticeTip      string              `json:"practice_tip,omitempty"`
}

// DailySchedule suggests how to split study time across the week.
type DailySchedule struct {
	Weekdays string `json:"weekdays,omitempty"`
	Weekends string `json:"weekends,omitempty"`
}

// RoadmapPhase is one multi-week block of the learning roadmap.
type RoadmapPhase struct {
	Month           string         `json:"month"`
	Title           string         `json:"title,omitempty"`
	Goal            string         `json:"goal,omitempty"`
	HoursPerWeek    int            `json:"hours_per_week,omitempty"`
	DailySchedule   *DailySchedule `json:"daily_schedule,omitempty"`
	Skills          []string       `json:"skills"`
	Weeks           []RoadmapWeek  `json:"weeks"`
	Resources       []Resource     `json:"resources"`
	Projects        []Project      `json:"projects"`
	InterviewPrep   *InterviewPrep `json:"interview_prep,omitempty"`
	MistakesToAvoid []string       `json:"mistakes_to_avoid"`
	Milestones      []string       `json:"milestones"`
}

// QuickWin is a short, high-impact task.
type QuickWin struct {
	Task   string `json:"task"`
	Time   string `json:"time,omitempty"`
	Impact string `json:"impact,omitempty"`
}

// Analysis is the canonical skill gap analysis rendered to students. It is produced either by
// normalizing an AI response or by the fallback estimator.
type Analysis struct {
	CareerRole        string          `json:"career_role"`
	ReadinessScore    int             `json:"readiness_score"`
	ScoreBreakdown    *ScoreBreakdown `json:"score_breakdown,omitempty"`
	HonestAssessment  string          `json:"honest_assessment,omitempty"`
	MatchedSkills     []string        `json:"matched_skills"`
	MissingSkills     []MissingSkill  `json:"missing_skills"`
	RecommendedSkills []SkillPriority `json:"recommended_skills"`
	LearningRoadmap   []RoadmapPhase  `json:"learning_roadmap"`
	QuickWins         []QuickWin      `json:"quick_wins"`
	ResumeTips        []string        `json:"resume_tips"`
	LinkedInTips      []string        `json:"linkedin_tips"`
	Motivation        string          `json:"motivation,omitempty"`
	FinalOutcome      string          `json:"final_outcome,omitempty"`
}

// AnalysisRecord is one persisted outcome of a skill gap run. Records are never updated;
// a new analysis produces a new record.
type AnalysisRecord struct {
	ID                uuid.UUID       `json:"id"`
	UserID            uuid.UUID       `json:"user_id"`
	CareerRole        string          `json:"career_role"`
	ReadinessScore    int             `json:"readiness_score"`
	MatchedSkills     []string        `json:"matched_skills"`
	MissingSkills     []MissingSkill  `json:"missing_skills"`
	RecommendedSkills []SkillPriority `json:"recommended_skills"`
	LearningRoadmap   []RoadmapPhase  `json:"learning_roadmap"`
	Source            AnalysisSource  `json:"source"`
	CreatedAt         time.Time       `json:"created_at"`
}

// NewAnalysisRecord builds the payload persisted for an analysis run. The store assigns
// ID and CreatedAt.
func NewAnalysisRecord(userID uuid.UUID, a *Analysis, source AnalysisSource) *AnalysisRecord {
	return &AnalysisRecord{
		UserID:            userID,
		CareerRole:        a.CareerRole,
		ReadinessScore:    ClampReadiness(a.ReadinessScore),
		MatchedSkills:     a.MatchedSkills,
		MissingSkills:     a.MissingSkills,
		RecommendedSkills: a.RecommendedSkills,
		LearningRoadmap:   a.LearningRoadmap,
		Source:            source,
	}
}
