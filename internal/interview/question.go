package interview

import (
	"fmt"
	"slices"
	"strings"
)

type Category string

const (
	CategoryTechnical   Category = "technical"
	CategoryBehavioral  Category = "behavioral"
	CategorySituational Category = "situational"
	CategoryGeneral     Category = "general"
)

// Categories lists every known category in display order.
var Categories = []Category{CategoryTechnical, CategoryBehavioral, CategorySituational, CategoryGeneral}

// ParseCategory normalizes s. An empty value maps to CategoryGeneral.
func ParseCategory(s string) (Category, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return CategoryGeneral, nil
	}
	c := Category(s)
	if !slices.Contains(Categories, c) {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

var difficultyAliases = map[string]Difficulty{
	"easy":         DifficultyEasy,
	"beginner":     DifficultyEasy,
	"medium":       DifficultyMedium,
	"intermediate": DifficultyMedium,
	"hard":         DifficultyHard,
	"advanced":     DifficultyHard,
}

// ParseDifficulty accepts both the easy/medium/hard scale and the
// beginner/intermediate/advanced scale. An empty value maps to DifficultyMedium.
func ParseDifficulty(s string) (Difficulty, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DifficultyMedium, nil
	}
	d, ok := difficultyAliases[s]
	if !ok {
		return "", fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Rank orders difficulties from easy to hard. Unknown values rank as medium.
func (d Difficulty) Rank() int {
	switch d {
	case DifficultyEasy:
		return 1
	case DifficultyHard:
		return 3
	default:
		return 2
	}
}

// Question is immutable once it belongs to a session.
type Question struct {
	ID                  string     `json:"id" yaml:"id"`
	Text                string     `json:"text" yaml:"text"`
	Category            Category   `json:"category" yaml:"category"`
	Difficulty          Difficulty `json:"difficulty" yaml:"difficulty"`
	SkillsAssessed      []string   `json:"skills_assessed,omitempty" yaml:"skills_assessed,omitempty"`
	ExpectedAnswerFocus string     `json:"expected_answer_focus,omitempty" yaml:"expected_answer_focus,omitempty"`
	FollowUps           []string   `json:"follow_ups,omitempty" yaml:"follow_ups,omitempty"`
}

func (q Question) clone() Question {
	q.SkillsAssessed = slices.Clone(q.SkillsAssessed)
	q.FollowUps = slices.Clone(q.FollowUps)
	return q
}

func cloneQuestions(questions []Question) []Question {
	if questions == nil {
		return nil
	}
	out := make([]Question, len(questions))
	for i, q := range questions {
		out[i] = q.clone()
	}
	return out
}
