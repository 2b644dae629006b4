package interview

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestLoadQuestions(t *testing.T) {
	t.Parallel()

	raw := []RawQuestion{
		{ID: "q1", Text: "Tell me about yourself", Category: "Behavioral"},
		{AltText: "Explain REST", QuestionType: "technical", DifficultyLevel: "advanced", SkillsAssessed: []string{" http ", ""}},
		{AltID: "x", Text: "Handle conflict", Category: "situational", Difficulty: "easy", FollowUps: []string{"What then?"}},
	}

	got, err := LoadQuestions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []Question{
		{ID: "q1", Text: "Tell me about yourself", Category: CategoryBehavioral, Difficulty: DifficultyMedium},
		{ID: "q2", Text: "Explain REST", Category: CategoryTechnical, Difficulty: DifficultyHard, SkillsAssessed: []string{"http"}},
		{ID: "x", Text: "Handle conflict", Category: CategorySituational, Difficulty: DifficultyEasy, FollowUps: []string{"What then?"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected questions:\n got: %+v\nwant: %+v", got, want)
	}
}

func TestLoadQuestionsDefaults(t *testing.T) {
	t.Parallel()

	got, err := LoadQuestions([]RawQuestion{{Text: "Anything"}})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].ID != "q1" || got[0].Category != CategoryGeneral || got[0].Difficulty != DifficultyMedium {
		t.Fatalf("unexpected defaults: %+v", got[0])
	}
}

func TestLoadQuestionsGeneratedIDsSkipExplicitOnes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  []RawQuestion
		want []string
	}{
		{
			name: "explicit id later in the list",
			raw:  []RawQuestion{{Text: "A"}, {ID: "q1", Text: "B"}},
			want: []string{"q2", "q1"},
		},
		{
			name: "explicit id earlier in the list",
			raw:  []RawQuestion{{ID: "q2", Text: "A"}, {Text: "B"}},
			want: []string{"q2", "q3"},
		},
		{
			name: "consecutive gaps",
			raw:  []RawQuestion{{Text: "A"}, {Text: "B"}, {ID: "q2", Text: "C"}, {ID: "q3", Text: "D"}},
			want: []string{"q1", "q4", "q2", "q3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadQuestions(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			ids := make([]string, len(got))
			for i, q := range got {
				ids[i] = q.ID
			}
			if !reflect.DeepEqual(ids, tt.want) {
				t.Fatalf("ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestLoadQuestionsRejectsInvalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		raw   []RawQuestion
		want  error
		count int
	}{
		{
			name:  "duplicate id",
			raw:   []RawQuestion{{ID: "a", Text: "one"}, {ID: "a", Text: "two"}},
			want:  ErrDuplicateQuestionID,
			count: 1,
		},
		{
			name:  "empty text",
			raw:   []RawQuestion{{ID: "a", Text: "  "}},
			want:  ErrInvalidQuestion,
			count: 1,
		},
		{
			name:  "unknown category",
			raw:   []RawQuestion{{ID: "a", Text: "one", Category: "trivia"}},
			want:  ErrInvalidQuestion,
			count: 1,
		},
		{
			name:  "unknown difficulty",
			raw:   []RawQuestion{{ID: "a", Text: "one", Difficulty: "extreme"}},
			want:  ErrInvalidQuestion,
			count: 1,
		},
		{
			name: "all problems reported",
			raw: []RawQuestion{
				{ID: "a", Text: ""},
				{ID: "b", Text: "fine"},
				{ID: "b", Text: "dup"},
				{ID: "c", Text: "x", Category: "nope"},
			},
			want:  ErrInvalidQuestion,
			count: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := LoadQuestions(tt.raw)
			if got != nil {
				t.Fatalf("expected no questions on failure, got %+v", got)
			}
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
			if KindOf(err) != KindValidation {
				t.Fatalf("expected validation kind, got %s", KindOf(err))
			}
			var verrs ValidationErrors
			if !errors.As(err, &verrs) || len(verrs) != tt.count {
				t.Fatalf("expected %d validation errors, got %v", tt.count, err)
			}
		})
	}
}

func TestDecodeRawCoercesScalars(t *testing.T) {
	t.Parallel()

	raw, err := DecodeRaw([]map[string]any{
		{"id": 7, "question": "Why Go?", "question_type": "general", "skills_assessed": []any{"go"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	if raw[0].id() != "7" || raw[0].text() != "Why Go?" || raw[0].category() != "general" {
		t.Fatalf("unexpected raw question: %+v", raw[0])
	}
}

func TestReadBank(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"list.yaml": `
- question_id: q1
  question_text: Tell me about yourself
  category: behavioral
- question_id: q2
  question_text: Explain REST
  category: technical
  difficulty: hard
`,
		"mapping.yaml": `
questions:
  - question_id: q1
    question_text: Tell me about yourself
    category: behavioral
  - question_id: q2
    question_text: Explain REST
    category: technical
    difficulty: hard
`,
		"bank.json": `[
  {"question_id": "q1", "question_text": "Tell me about yourself", "category": "behavioral"},
  {"question_id": "q2", "question_text": "Explain REST", "category": "technical", "difficulty": "hard"}
]`,
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			path := filepath.Join(t.TempDir(), name)
			if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
				t.Fatal(err)
			}

			questions, err := LoadBank(path)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(questions) != 2 || questions[1].ID != "q2" || questions[1].Difficulty != DifficultyHard {
				t.Fatalf("unexpected questions: %+v", questions)
			}
		})
	}
}

func TestReadBankErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	scalar := filepath.Join(dir, "scalar.yaml")
	if err := os.WriteFile(scalar, []byte("just text"), 0o600); err != nil {
		t.Fatal(err)
	}
	mixed := filepath.Join(dir, "mixed.yaml")
	if err := os.WriteFile(mixed, []byte("- question_text: ok\n- plain\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.yaml"), scalar, mixed} {
		if _, err := ReadBank(path); err == nil {
			t.Fatalf("expected error for %s", path)
		}
	}
}

func TestParseDifficultyAliases(t *testing.T) {
	t.Parallel()

	tests := map[string]Difficulty{
		"":             DifficultyMedium,
		"Beginner":     DifficultyEasy,
		" easy ":       DifficultyEasy,
		"intermediate": DifficultyMedium,
		"ADVANCED":     DifficultyHard,
	}
	for in, want := range tests {
		got, err := ParseDifficulty(in)
		if err != nil || got != want {
			t.Fatalf("ParseDifficulty(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
}
