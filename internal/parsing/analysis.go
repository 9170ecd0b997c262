// Package parsing normalizes AI skill gap responses into the canonical types.Analysis.
package parsing

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/jonathan/skill-gap-analyzer/internal/llm"
	"github.com/jonathan/skill-gap-analyzer/internal/schemas"
	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// Variant identifies which of the two known response layouts the AI produced.
type Variant string

const (
	// VariantDetailed carries skill_priority_order, week-by-week phases and final_outcome.
	VariantDetailed Variant = "detailed"
	// VariantBasic carries recommended_skills, phase focus/skills/milestones and final_goal.
	VariantBasic Variant = "basic"
)

// detailedMarkers are top-level fields only the detailed layout emits.
var detailedMarkers = []string{"skill_priority_order", "score_breakdown", "honest_assessment", "final_outcome"}

// fieldDefaults is applied to every absent or null top-level field before decoding.
var fieldDefaults = map[string]json.RawMessage{
	"career_role":          json.RawMessage(`""`),
	"readiness_score":      json.RawMessage(`0`),
	"honest_assessment":    json.RawMessage(`""`),
	"matched_skills":       json.RawMessage(`[]`),
	"missing_skills":       json.RawMessage(`[]`),
	"skill_priority_order": json.RawMessage(`[]`),
	"recommended_skills":   json.RawMessage(`[]`),
	"learning_roadmap":     json.RawMessage(`[]`),
	"quick_wins":           json.RawMessage(`[]`),
	"resume_tips":          json.RawMessage(`[]`),
	"linkedin_tips":        json.RawMessage(`[]`),
	"motivation":           json.RawMessage(`""`),
	"final_outcome":        json.RawMessage(`""`),
	"final_goal":           json.RawMessage(`""`),
}

// wireWeek accepts both "week"/"label", "daily_tasks"/"tasks" and "theme"/"topic".
type wireWeek struct {
	Week           flexLabel             `json:"week"`
	Label          flexLabel             `json:"label"`
	Theme          string                `json:"theme"`
	Topic          string                `json:"topic"`
	DailyTasks     []flexTask            `json:"daily_tasks"`
	Tasks          []flexTask            `json:"tasks"`
	CodingProblems *types.CodingPractice `json:"coding_problems"`
	Checkpoint     string                `json:"checkpoint"`
}

// wirePhase is a roadmap phase as either layout emits it.
type wirePhase struct {
	Month               flexLabel            `json:"month"`
	Title               string               `json:"title"`
	Goal                string               `json:"goal"`
	Theme               string               `json:"theme"`
	Focus               string               `json:"focus"`
	HoursPerWeek        flexInt              `json:"hours_per_week"`
	DailySchedule       *types.DailySchedule `json:"daily_schedule"`
	SkillsCovered       []string             `json:"skills_covered"`
	Skills              []string             `json:"skills"`
	Weeks               []wireWeek           `json:"weeks"`
	Resources           []flexResource       `json:"resources"`
	Projects            []flexProject        `json:"projects"`
	InterviewPrep       flexInterviewPrep    `json:"interview_prep"`
	MistakesToAvoid     []string             `json:"mistakes_to_avoid"`
	Milestones          []string             `json:"milestones"`
	EndOfMonthChecklist []string             `json:"end_of_month_checklist"`
}

// DetailedResponse is the week-by-week layout.
type DetailedResponse struct {
	CareerRole         string                `json:"career_role"`
	ReadinessScore     float64               `json:"readiness_score"`
	ScoreBreakdown     *types.ScoreBreakdown `json:"score_breakdown"`
	HonestAssessment   string                `json:"honest_assessment"`
	MatchedSkills      []string              `json:"matched_skills"`
	MissingSkills      []types.MissingSkill  `json:"missing_skills"`
	SkillPriorityOrder []flexSkillPriority   `json:"skill_priority_order"`
	LearningRoadmap    []wirePhase           `json:"learning_roadmap"`
	QuickWins          []flexQuickWin        `json:"quick_wins"`
	ResumeTips         []string              `json:"resume_tips"`
	LinkedInTips       []string              `json:"linkedin_tips"`
	Motivation         string                `json:"motivation"`
	FinalOutcome       string                `json:"final_outcome"`
}

// BasicResponse is the coarse, month-level layout.
type BasicResponse struct {
	CareerRole        string               `json:"career_role"`
	ReadinessScore    float64              `json:"readiness_score"`
	MatchedSkills     []string             `json:"matched_skills"`
	MissingSkills     []types.MissingSkill `json:"missing_skills"`
	RecommendedSkills []flexSkillPriority  `json:"recommended_skills"`
	LearningRoadmap   []wirePhase          `json:"learning_roadmap"`
	QuickWins         []flexQuickWin       `json:"quick_wins"`
	ResumeTips        []string             `json:"resume_tips"`
	LinkedInTips      []string             `json:"linkedin_tips"`
	Motivation        string               `json:"motivation"`
	FinalGoal         string               `json:"final_goal"`
}

// Response is a decoded AI response. Exactly one of Detailed or Basic is set, as named by Variant.
type Response struct {
	Variant  Variant
	Detailed *DetailedResponse
	Basic    *BasicResponse
}

// ParseAnalysis decodes a raw AI response and normalizes it for role.
func ParseAnalysis(raw string, role types.RoleCatalogEntry) (*types.Analysis, error) {
	resp, err := Decode(raw)
	if err != nil {
		return nil, err
	}
	analysis := Normalize(resp, role)
	return &analysis, nil
}

// Decode strips code fences, fills defaults, validates the document against the analysis
// schema and decodes it into the matching variant.
func Decode(raw string) (*Response, error) {
	text := llm.CleanJSONBlock(raw)
	if text == "" {
		return nil, &ParseError{Message: "empty response"}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil {
		return nil, &ParseError{Message: "response is not a JSON object", Cause: err}
	}
	if fields == nil {
		return nil, &ParseError{Message: "response is null"}
	}

	variant := detectVariant(fields)
	applyDefaults(fields)

	doc, err := json.Marshal(fields)
	if err != nil {
		return nil, &ParseError{Message: "failed to re-encode response", Cause: err}
	}
	if err := schemas.ValidateBytes(schemas.AnalysisResponse, doc); err != nil {
		return nil, &ValidationError{Message: "response does not match analysis schema", Cause: err}
	}

	resp := &Response{Variant: variant}
	switch variant {
	case VariantDetailed:
		resp.Detailed = &DetailedResponse{}
		err = json.Unmarshal(doc, resp.Detailed)
	default:
		resp.Basic = &BasicResponse{}
		err = json.Unmarshal(doc, resp.Basic)
	}
	if err != nil {
		return nil, &ParseError{Message: "failed to decode " + string(variant) + " response", Cause: err}
	}
	return resp, nil
}

func detectVariant(fields map[string]json.RawMessage) Variant {
	for _, key := range detailedMarkers {
		if v, ok := fields[key]; ok && !isNull(v) {
			return VariantDetailed
		}
	}
	return VariantBasic
}

func applyDefaults(fields map[string]json.RawMessage) {
	for key, def := range fieldDefaults {
		if v, ok := fields[key]; !ok || isNull(v) {
			fields[key] = def
		}
	}
}

func isNull(v json.RawMessage) bool {
	return strings.TrimSpace(string(v)) == "null"
}

// Normalize maps either response variant into the canonical analysis. An empty career role
// falls back to the selected role's name; the score is rounded and clamped to [0, 100].
func Normalize(resp *Response, role types.RoleCatalogEntry) types.Analysis {
	var a types.Analysis

	switch {
	case resp.Detailed != nil:
		d := resp.Detailed
		a = types.Analysis{
			CareerRole:        d.CareerRole,
			ReadinessScore:    normalizeScore(d.ReadinessScore),
			ScoreBreakdown:    d.ScoreBreakdown,
			HonestAssessment:  d.HonestAssessment,
			MatchedSkills:     d.MatchedSkills,
			MissingSkills:     d.MissingSkills,
			RecommendedSkills: mapSlice(d.SkillPriorityOrder, toSkillPriority),
			LearningRoadmap:   mapSlice(d.LearningRoadmap, toPhase),
			QuickWins:         mapSlice(d.QuickWins, func(q flexQuickWin) types.QuickWin { return types.QuickWin(q) }),
			ResumeTips:        d.ResumeTips,
			LinkedInTips:      d.LinkedInTips,
			Motivation:        d.Motivation,
			FinalOutcome:      d.FinalOutcome,
		}
	case resp.Basic != nil:
		b := resp.Basic
		a = types.Analysis{
			CareerRole:        b.CareerRole,
			ReadinessScore:    normalizeScore(b.ReadinessScore),
			MatchedSkills:     b.MatchedSkills,
			MissingSkills:     b.MissingSkills,
			RecommendedSkills: mapSlice(b.RecommendedSkills, toSkillPriority),
			LearningRoadmap:   mapSlice(b.LearningRoadmap, toPhase),
			QuickWins:         mapSlice(b.QuickWins, func(q flexQuickWin) types.QuickWin { return types.QuickWin(q) }),
			ResumeTips:        b.ResumeTips,
			LinkedInTips:      b.LinkedInTips,
			Motivation:        b.Motivation,
			FinalOutcome:      b.FinalGoal,
		}
	}

	if strings.TrimSpace(a.CareerRole) == "" {
		a.CareerRole = role.RoleName
	}
	a.MatchedSkills = nonBlank(a.MatchedSkills)
	a.MissingSkills = namedMissingSkills(a.MissingSkills)
	a.ResumeTips = nonNil(a.ResumeTips)
	a.LinkedInTips = nonNil(a.LinkedInTips)
	return a
}

func normalizeScore(score float64) int {
	if math.IsNaN(score) {
		return types.MinReadinessScore
	}
	return types.ClampReadiness(int(math.Round(math.Max(-1, math.Min(101, score)))))
}

func toSkillPriority(p flexSkillPriority) types.SkillPriority {
	return types.SkillPriority(p)
}

func toPhase(p wirePhase) types.RoadmapPhase {
	phase := types.RoadmapPhase{
		Month:           p.Month.format("Month"),
		Title:           firstNonEmpty(p.Title, p.Focus),
		Goal:            firstNonEmpty(p.Goal, p.Theme),
		HoursPerWeek:    int(p.HoursPerWeek),
		DailySchedule:   p.DailySchedule,
		Skills:          nonNil(firstNonNil(p.SkillsCovered, p.Skills)),
		Weeks:           mapSlice(p.Weeks, toWeek),
		Resources:       mapSlice(p.Resources, func(r flexResource) types.Resource { return types.Resource(r) }),
		Projects:        mapSlice(p.Projects, toProject),
		MistakesToAvoid: nonNil(p.MistakesToAvoid),
		Milestones:      nonNil(firstNonNil(p.Milestones, p.EndOfMonthChecklist)),
	}
	if phase.Goal == "" && p.Focus != "" {
		phase.Goal = "Focus: " + p.Focus
	}
	if p.InterviewPrep.set {
		prep := p.InterviewPrep.prep
		phase.InterviewPrep = &types.InterviewPrep{
			Summary:          prep.Summary,
			ConceptsToMaster: nonNil(prep.ConceptsToMaster),
			CommonQuestions: mapSlice(prep.CommonQuestions, func(q flexQuestion) types.InterviewQuestion {
				return types.InterviewQuestion(q)
			}),
			PracticeTip: prep.PracticeTip,
		}
	}
	return phase
}

func toWeek(w wireWeek) types.RoadmapWeek {
	label := w.Week.format("Week")
	if label == "" {
		label = w.Label.format("Week")
	}
	week := types.RoadmapWeek{
		Label:          label,
		Theme:          firstNonEmpty(w.Theme, w.Topic),
		Tasks:          mapSlice(firstNonNil(w.DailyTasks, w.Tasks), func(t flexTask) types.DailyTask { return types.DailyTask(t) }),
		CodingProblems: w.CodingProblems,
		Checkpoint:     w.Checkpoint,
	}
	if week.CodingProblems != nil {
		week.CodingProblems.Topics = nonNil(week.CodingProblems.Topics)
		week.CodingProblems.MustSolve = nonNil(week.CodingProblems.MustSolve)
	}
	return week
}

func toProject(p flexProject) types.Project {
	project := types.Project(p)
	project.Features = nonNil(project.Features)
	project.TechStack = nonNil(project.TechStack)
	project.SkillsPracticed = nonNil(project.SkillsPracticed)
	project.InterviewTalkingPoints = nonNil(project.InterviewTalkingPoints)
	return project
}

// nonBlank trims entries and drops empty ones. It never returns nil.
func nonBlank(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// namedMissingSkills drops entries without a name ("", {} or a bare reason) so they never
// reach storage or the campus tally.
func namedMissingSkills(skills []types.MissingSkill) []types.MissingSkill {
	out := make([]types.MissingSkill, 0, len(skills))
	for _, s := range skills {
		s.Name = strings.TrimSpace(s.Name)
		if s.Name == "" {
			continue
		}
		s.Reason = strings.TrimSpace(s.Reason)
		out = append(out, s)
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// firstNonNil picks the first alternate the response actually set.
func firstNonNil[T any](alternates ...[]T) []T {
	for _, a := range alternates {
		if a != nil {
			return a
		}
	}
	return nil
}
