package interview

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

var testStart = time.Date(2026, 5, 4, 9, 0, 0, 0, time.UTC)

func scenarioQuestions() []Question {
	return []Question{
		{ID: "q1", Text: "Tell me about yourself", Category: CategoryBehavioral, Difficulty: DifficultyMedium},
		{ID: "q2", Text: "Explain REST", Category: CategoryTechnical, Difficulty: DifficultyMedium, SkillsAssessed: []string{"http"}},
	}
}

func newScenarioSession(t *testing.T) *Session {
	t.Helper()
	s, err := NewSession("s1", "Ana", "Backend Eng", scenarioQuestions(), testStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func assertIndexInvariant(t *testing.T, s *Session) {
	t.Helper()
	if s.CurrentIndex != len(s.Answers) {
		t.Fatalf("current index %d != answers %d", s.CurrentIndex, len(s.Answers))
	}
	if s.CurrentIndex > len(s.Questions) {
		t.Fatalf("current index %d beyond %d questions", s.CurrentIndex, len(s.Questions))
	}
	if (s.Status == StatusCompleted) != s.Completed() {
		t.Fatalf("status %s disagrees with progress %d/%d", s.Status, s.CurrentIndex, len(s.Questions))
	}
}

func TestSessionScenario(t *testing.T) {
	t.Parallel()

	s := newScenarioSession(t)

	next := s.NextQuestion()
	if next.Completed() || next.Question.Question.ID != "q1" || next.Question.Number != 1 || next.Question.Total != 2 {
		t.Fatalf("unexpected first question: %+v", next)
	}

	outcome, err := s.RecordAnswer("q1", "I am...", "", testStart.Add(time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome.Status != OutcomeSuccess || outcome.Next == nil || outcome.Next.Question.ID != "q2" || outcome.Next.Number != 2 {
		t.Fatalf("unexpected outcome: %+v", outcome)
	}
	if s.Status != StatusActive {
		t.Fatalf("session must not complete before the last answer, got %s", s.Status)
	}
	assertIndexInvariant(t, s)

	outcome, err = s.RecordAnswer("q2", "REST is...", "", testStart.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := CompletionSummary{
		TotalQuestions:    2,
		TotalAnswers:      2,
		CategoriesCovered: map[Category]int{CategoryBehavioral: 1, CategoryTechnical: 1},
	}
	if outcome.Status != OutcomeCompleted || !reflect.DeepEqual(*outcome.Summary, want) {
		t.Fatalf("unexpected completion: %+v", outcome)
	}
	if s.Status != StatusCompleted {
		t.Fatalf("expected completed status, got %s", s.Status)
	}
	assertIndexInvariant(t, s)

	if err := s.Pause(testStart); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state when pausing a completed session, got %v", err)
	}
	if _, err := s.RecordAnswer("q2", "again", "", testStart); !errors.Is(err, ErrNoCurrentQuestion) {
		t.Fatalf("expected no current question, got %v", err)
	}
}

func TestNextQuestionIsIdempotent(t *testing.T) {
	t.Parallel()

	s := newScenarioSession(t)
	first := s.NextQuestion()
	second := s.NextQuestion()
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v and %+v", first, second)
	}
	if s.CurrentIndex != 0 {
		t.Fatalf("next question must not advance, index is %d", s.CurrentIndex)
	}

	for _, q := range []string{"q1", "q2"} {
		if _, err := s.RecordAnswer(q, "answer", "", testStart); err != nil {
			t.Fatal(err)
		}
	}
	done1, done2 := s.NextQuestion(), s.NextQuestion()
	if !done1.Completed() || !reflect.DeepEqual(done1, done2) {
		t.Fatalf("expected identical completion summaries, got %+v and %+v", done1, done2)
	}
}

func TestRecordAnswerOutOfOrder(t *testing.T) {
	t.Parallel()

	s := newScenarioSession(t)
	before := s.Clone()

	_, err := s.RecordAnswer("q2", "REST is...", "", testStart)
	if !errors.Is(err, ErrQuestionMismatch) {
		t.Fatalf("expected question mismatch, got %v", err)
	}
	if KindOf(err) != KindOrderingViolation {
		t.Fatalf("expected ordering violation kind, got %s", KindOf(err))
	}
	if !reflect.DeepEqual(before, s) {
		t.Fatal("failed record must leave the session unchanged")
	}
	assertIndexInvariant(t, s)

	if _, err := s.RecordAnswer("unknown", "x", "", testStart); !errors.Is(err, ErrQuestionMismatch) {
		t.Fatalf("expected question mismatch for unknown id, got %v", err)
	}
}

func TestEmptySessionCompletesImmediately(t *testing.T) {
	t.Parallel()

	s, err := NewSession("empty", "Bo", "QA", nil, testStart)
	if err != nil {
		t.Fatal(err)
	}

	next := s.NextQuestion()
	if !next.Completed() || next.Summary.TotalQuestions != 0 || next.Summary.TotalAnswers != 0 {
		t.Fatalf("expected empty completion summary, got %+v", next)
	}
	if s.Status != StatusActive {
		t.Fatalf("completed requires at least one question, got %s", s.Status)
	}
	if _, err := s.RecordAnswer("q1", "x", "", testStart); !errors.Is(err, ErrNoCurrentQuestion) {
		t.Fatalf("expected no current question, got %v", err)
	}
	if got := s.StatusAt(testStart).PercentageComplete; got != 0 {
		t.Fatalf("expected 0%% for empty session, got %v", got)
	}
}

func TestNewSessionRequiresID(t *testing.T) {
	t.Parallel()

	if _, err := NewSession("  ", "Ana", "Dev", nil, testStart); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected error for empty id, got %v", err)
	}
}

func TestPauseResume(t *testing.T) {
	t.Parallel()

	s := newScenarioSession(t)

	if _, err := s.Resume(testStart); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state when resuming active session, got %v", err)
	}
	if err := s.Pause(testStart); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.Pause(testStart); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected invalid state when pausing twice, got %v", err)
	}

	_, err := s.RecordAnswer("q1", "x", "", testStart)
	if !errors.Is(err, ErrSessionPaused) || KindOf(err) != KindInvalidState {
		t.Fatalf("expected paused error, got %v", err)
	}
	if len(s.Answers) != 0 {
		t.Fatal("paused session must not record answers")
	}

	next, err := s.Resume(testStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.Question == nil || next.Question.Question.ID != "q1" || s.Status != StatusActive {
		t.Fatalf("unexpected resume result: %+v (%s)", next, s.Status)
	}
}

func TestAnswerSnapshotsQuestion(t *testing.T) {
	t.Parallel()

	s := newScenarioSession(t)
	if _, err := s.RecordAnswer("q1", " I am... ", " nervous ", testStart); err != nil {
		t.Fatal(err)
	}
	if _, err := s.RecordAnswer("q2", "REST is...", "", testStart); err != nil {
		t.Fatal(err)
	}

	s.Questions[1].SkillsAssessed[0] = "mutated"
	s.Questions[1].Category = CategoryGeneral

	a := s.Answers[1]
	if a.Category != CategoryTechnical || a.Skills[0] != "http" {
		t.Fatalf("answer snapshot changed with question: %+v", a)
	}
	if s.Answers[0].AnswerText != "I am..." || s.Answers[0].Notes != "nervous" {
		t.Fatalf("expected trimmed answer and notes, got %+v", s.Answers[0])
	}
}

func TestStatusAt(t *testing.T) {
	t.Parallel()

	questions := []Question{
		{ID: "a", Text: "A", Category: CategoryGeneral, Difficulty: DifficultyEasy},
		{ID: "b", Text: "B", Category: CategoryGeneral, Difficulty: DifficultyEasy},
		{ID: "c", Text: "C", Category: CategoryGeneral, Difficulty: DifficultyEasy},
		{ID: "d", Text: "D", Category: CategoryGeneral, Difficulty: DifficultyEasy},
	}
	s, err := NewSession("s", "Ana", "Dev", questions, testStart)
	if err != nil {
		t.Fatal(err)
	}

	for k, id := range []string{"a", "b", "c", "d"} {
		view := s.StatusAt(testStart)
		if want := 100 * float64(k) / 4; view.PercentageComplete != want {
			t.Fatalf("after %d answers expected %v%%, got %v", k, want, view.PercentageComplete)
		}
		if view.CurrentQuestion != k+1 || view.AnsweredQuestions != k || view.TotalQuestions != 4 {
			t.Fatalf("unexpected view after %d answers: %+v", k, view)
		}
		if _, err := s.RecordAnswer(id, "x", "", testStart); err != nil {
			t.Fatal(err)
		}
	}

	view := s.StatusAt(testStart.Add(3723 * time.Second))
	if view.PercentageComplete != 100 || view.Status != StatusCompleted || view.ElapsedTime != "1h 2m 3s" {
		t.Fatalf("unexpected final view: %+v", view)
	}
}

func TestFormatElapsed(t *testing.T) {
	t.Parallel()

	tests := map[time.Duration]string{
		0:                             "0s",
		45 * time.Second:              "45s",
		2*time.Minute + 5*time.Second: "2m 5s",
		time.Hour + 3*time.Second:     "1h 0m 3s",
		26*time.Hour + 10*time.Minute: "26h 10m 0s",
		1500 * time.Millisecond:       "1s",
		-5 * time.Second:              "0s",
	}

	for d, want := range tests {
		if got := FormatElapsed(d); got != want {
			t.Fatalf("FormatElapsed(%s) = %q, want %q", d, got, want)
		}
	}
}

func TestCloneIsDeep(t *testing.T) {
	t.Parallel()

	s := newScenarioSession(t)
	if _, err := s.RecordAnswer("q1", "x", "", testStart); err != nil {
		t.Fatal(err)
	}

	c := s.Clone()
	c.Questions[1].SkillsAssessed[0] = "changed"
	c.Answers[0].AnswerText = "changed"

	if s.Questions[1].SkillsAssessed[0] != "http" || s.Answers[0].AnswerText != "x" {
		t.Fatal("clone shares state with the original")
	}
}
