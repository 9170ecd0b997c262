package parsing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jonathan/skill-gap-analyzer/internal/types"
)

// The AI service is inconsistent about element shapes: the same list may hold plain strings
// in one response and objects in the next. Each flex type below accepts both.

// decodeStringOr decodes data as a JSON string handed to fromString, or as T.
func decodeStringOr[T any](data []byte, fromString func(string) T) (T, error) {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		return fromString(strings.TrimSpace(s)), nil
	}
	var v T
	err := json.Unmarshal(data, &v)
	return v, err
}

// flexLabel is a label that may arrive as a string or a number.
type flexLabel struct {
	text   string
	number int
	isNum  bool
}

func (l *flexLabel) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*l = flexLabel{number: int(n), isNum: true}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("label must be a string or number: %w", err)
	}
	*l = flexLabel{text: strings.TrimSpace(s)}
	return nil
}

// format renders numeric labels with prefix ("Week 3") and string labels as-is.
func (l flexLabel) format(prefix string) string {
	if l.isNum {
		return prefix + " " + strconv.Itoa(l.number)
	}
	return l.text
}

// flexInt accepts a number or a numeric string such as "15" or "10-12" (first number wins).
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*f = flexInt(math.Round(n))
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil
	}
	digits := strings.TrimSpace(s)
	if i := strings.IndexFunc(digits, func(r rune) bool { return r < '0' || r > '9' }); i >= 0 {
		digits = digits[:i]
	}
	if v, err := strconv.Atoi(digits); err == nil {
		*f = flexInt(v)
	}
	return nil
}

type flexSkillPriority types.SkillPriority

func (f *flexSkillPriority) UnmarshalJSON(data []byte) error {
	v, err := decodeStringOr(data, func(s string) types.SkillPriority {
		return types.SkillPriority{Skill: s}
	})
	*f = flexSkillPriority(v)
	return err
}

type flexResource types.Resource

func (f *flexResource) UnmarshalJSON(data []byte) error {
	v, err := decodeStringOr(data, func(s string) types.Resource {
		return types.Resource{Name: s}
	})
	*f = flexResource(v)
	return err
}

type flexProject types.Project

func (f *flexProject) UnmarshalJSON(data []byte) error {
	v, err := decodeStringOr(data, func(s string) types.Project {
		return types.Project{Name: s}
	})
	*f = flexProject(v)
	return err
}

type flexTask types.DailyTask

func (f *flexTask) UnmarshalJSON(data []byte) error {
	v, err := decodeStringOr(data, func(s string) types.DailyTask {
		return types.DailyTask{Task: s}
	})
	*f = flexTask(v)
	return err
}

type flexQuickWin types.QuickWin

func (f *flexQuickWin) UnmarshalJSON(data []byte) error {
	v, err := decodeStringOr(data, func(s string) types.QuickWin {
		return types.QuickWin{Task: s}
	})
	*f = flexQuickWin(v)
	return err
}

type flexQuestion types.InterviewQuestion

func (f *flexQuestion) UnmarshalJSON(data []byte) error {
	v, err := decodeStringOr(data, func(s string) types.InterviewQuestion {
		return types.InterviewQuestion{Question: s}
	})
	*f = flexQuestion(v)
	return err
}

// wireInterviewPrep is the object form of a phase's interview prep block.
type wireInterviewPrep struct {
	Summary          string         `json:"summary"`
	ConceptsToMaster []string       `json:"concepts_to_master"`
	CommonQuestions  []flexQuestion `json:"common_questions"`
	PracticeTip      string         `json:"practice_tip"`
}

// flexInterviewPrep is either a free-text tip or a structured block.
type flexInterviewPrep struct {
	set  bool
	prep wireInterviewPrep
}

func (f *flexInterviewPrep) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	v, err := decodeStringOr(data, func(s string) wireInterviewPrep {
		return wireInterviewPrep{Summary: s}
	})
	if err != nil {
		return err
	}
	*f = flexInterviewPrep{set: true, prep: v}
	return nil
}

// mapSlice converts every element of in, always returning a non-nil slice.
func mapSlice[In, Out any](in []In, fn func(In) Out) []Out {
	out := make([]Out, 0, len(in))
	for _, v := range in {
		out = append(out, fn(v))
	}
	return out
}

// nonNil replaces a nil slice with an empty one so it serializes as [].
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
