package interview

import (
	"fmt"
	"os"
	"strings"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// RawQuestion is an unvalidated question record. It understands both the
// question bank spelling (question_id, question_text, difficulty) and the
// generator spelling (question, question_type, difficulty_level).
type RawQuestion struct {
	ID                  string   `mapstructure:"question_id" json:"question_id,omitempty"`
	AltID               string   `mapstructure:"id" json:"id,omitempty"`
	Text                string   `mapstructure:"question_text" json:"question_text,omitempty"`
	AltText             string   `mapstructure:"question" json:"question,omitempty"`
	Category            string   `mapstructure:"category" json:"category,omitempty"`
	QuestionType        string   `mapstructure:"question_type" json:"question_type,omitempty"`
	Difficulty          string   `mapstructure:"difficulty" json:"difficulty,omitempty"`
	DifficultyLevel     string   `mapstructure:"difficulty_level" json:"difficulty_level,omitempty"`
	SkillsAssessed      []string `mapstructure:"skills_assessed" json:"skills_assessed,omitempty"`
	ExpectedAnswerFocus string   `mapstructure:"expected_answer_focus" json:"expected_answer_focus,omitempty"`
	FollowUps           []string `mapstructure:"follow_up_suggestions" json:"follow_up_suggestions,omitempty"`
}

func (r RawQuestion) id() string {
	return firstNonEmpty(r.ID, r.AltID)
}

func (r RawQuestion) text() string {
	return firstNonEmpty(r.Text, r.AltText)
}

func (r RawQuestion) category() string {
	return firstNonEmpty(r.Category, r.QuestionType)
}

func (r RawQuestion) difficulty() string {
	return firstNonEmpty(r.Difficulty, r.DifficultyLevel)
}

// DecodeRaw converts loosely typed records (decoded JSON or YAML) into raw
// questions. Scalars are coerced, so numeric ids become strings.
func DecodeRaw(records []map[string]any) ([]RawQuestion, error) {
	out := make([]RawQuestion, 0, len(records))
	for i, record := range records {
		var raw RawQuestion
		decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           &raw,
		})
		if err != nil {
			return nil, fmt.Errorf("create decoder: %w", err)
		}
		if err := decoder.Decode(record); err != nil {
			return nil, fmt.Errorf("decode question #%d: %w", i+1, err)
		}
		out = append(out, raw)
	}
	return out, nil
}

// LoadQuestions validates raw records and returns them as questions in the
// same order. Every problem is reported; the result is all or nothing.
// Records without an id receive a positional one ("q1", "q2", ...), skipping
// ids that other records already carry.
func LoadQuestions(raw []RawQuestion) ([]Question, error) {
	var errs ValidationErrors
	seen := make(map[string]int, len(raw))
	questions := make([]Question, 0, len(raw))

	taken := make(map[string]bool, len(raw))
	for _, r := range raw {
		if id := r.id(); id != "" {
			taken[id] = true
		}
	}

	for i, r := range raw {
		position := i + 1

		id := r.id()
		if id == "" {
			id = freeID(position, taken)
		}
		if first, ok := seen[id]; ok {
			errs = append(errs, fmt.Errorf("%w: %q at #%d already used at #%d", ErrDuplicateQuestionID, id, position, first))
			continue
		}
		seen[id] = position

		text := r.text()
		if text == "" {
			errs = append(errs, fmt.Errorf("%w: %q at #%d has empty text", ErrInvalidQuestion, id, position))
			continue
		}

		category, err := ParseCategory(r.category())
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %q at #%d: %v", ErrInvalidQuestion, id, position, err))
			continue
		}

		difficulty, err := ParseDifficulty(r.difficulty())
		if err != nil {
			errs = append(errs, fmt.Errorf("%w: %q at #%d: %v", ErrInvalidQuestion, id, position, err))
			continue
		}

		questions = append(questions, Question{
			ID:                  id,
			Text:                text,
			Category:            category,
			Difficulty:          difficulty,
			SkillsAssessed:      trimAll(r.SkillsAssessed),
			ExpectedAnswerFocus: strings.TrimSpace(r.ExpectedAnswerFocus),
			FollowUps:           trimAll(r.FollowUps),
		})
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return questions, nil
}

// CheckQuestions reports questions that LoadQuestions would have rejected:
// empty or duplicate ids and empty text.
func CheckQuestions(questions []Question) error {
	var errs ValidationErrors
	seen := make(map[string]int, len(questions))

	for i, q := range questions {
		position := i + 1
		id := strings.TrimSpace(q.ID)
		switch {
		case id == "":
			errs = append(errs, fmt.Errorf("%w: #%d has no id", ErrInvalidQuestion, position))
			continue
		case seen[id] > 0:
			errs = append(errs, fmt.Errorf("%w: %q at #%d already used at #%d", ErrDuplicateQuestionID, id, position, seen[id]))
			continue
		}
		seen[id] = position

		if strings.TrimSpace(q.Text) == "" {
			errs = append(errs, fmt.Errorf("%w: %q at #%d has empty text", ErrInvalidQuestion, id, position))
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// freeID returns the first unused "q<N>" with N starting at position and
// marks it taken.
func freeID(position int, taken map[string]bool) string {
	for n := position; ; n++ {
		id := fmt.Sprintf("q%d", n)
		if !taken[id] {
			taken[id] = true
			return id
		}
	}
}

// ReadBank reads a YAML or JSON question bank. The document is either a list
// of records or a mapping with a "questions" list.
func ReadBank(path string) ([]RawQuestion, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading question bank %q: %w", path, err)
	}

	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing question bank %q: %w", path, err)
	}

	if m, ok := doc.(map[string]any); ok {
		doc = m["questions"]
	}

	items, ok := doc.([]any)
	if !ok {
		return nil, fmt.Errorf("question bank %q: expected a list of questions", path)
	}

	records := make([]map[string]any, 0, len(items))
	for i, item := range items {
		record, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("question bank %q: entry #%d is not a mapping", path, i+1)
		}
		records = append(records, record)
	}

	return DecodeRaw(records)
}

// LoadBank reads and validates a question bank file.
func LoadBank(path string) ([]Question, error) {
	raw, err := ReadBank(path)
	if err != nil {
		return nil, err
	}
	return LoadQuestions(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func trimAll(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
