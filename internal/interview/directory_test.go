package interview

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/interview-coach/internal/vacancy"
)

type mapRepo struct {
	mu       sync.Mutex
	sessions map[string]*Session
	putErr   error
	puts     int
}

func newMapRepo() *mapRepo {
	return &mapRepo{sessions: make(map[string]*Session)}
}

func (r *mapRepo) Get(_ context.Context, id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrSessionNotFound, id)
	}
	return s.Clone(), nil
}

func (r *mapRepo) Put(_ context.Context, s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.putErr != nil {
		return r.putErr
	}
	r.puts++
	r.sessions[s.ID] = s.Clone()
	return nil
}

func (r *mapRepo) Remove(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func startScenario(t *testing.T, d *Directory) {
	t.Helper()
	_, err := d.Start(context.Background(), StartParams{
		ID:            "s1",
		CandidateName: "Ana",
		Position:      "Backend Eng",
		Questions:     scenarioQuestions(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDirectoryScenario(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	now := testStart
	d := NewDirectory(newMapRepo(), zap.New(core), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	startScenario(t, d)

	next, err := d.NextQuestion(ctx, "s1")
	if err != nil || next.Question.Question.ID != "q1" || next.Question.CandidateName != "Ana" {
		t.Fatalf("unexpected next question: %+v, %v", next, err)
	}

	if _, err := d.RecordAnswer(ctx, "s1", "q2", "REST is...", ""); !errors.Is(err, ErrQuestionMismatch) {
		t.Fatalf("expected ordering violation, got %v", err)
	}

	now = now.Add(45 * time.Second)
	outcome, err := d.RecordAnswer(ctx, "s1", "q1", "I am...", "")
	if err != nil || outcome.Next.Question.ID != "q2" {
		t.Fatalf("unexpected outcome: %+v, %v", outcome, err)
	}

	view, err := d.Status(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if view.CurrentQuestion != 2 || view.PercentageComplete != 50 || view.ElapsedTime != "45s" {
		t.Fatalf("unexpected status: %+v", view)
	}

	if _, err := d.Transcript(ctx, "s1"); !errors.Is(err, ErrInterviewNotCompleted) {
		t.Fatalf("expected not completed, got %v", err)
	}

	outcome, err = d.RecordAnswer(ctx, "s1", "q2", "REST is...", "")
	if err != nil || outcome.Status != OutcomeCompleted {
		t.Fatalf("unexpected outcome: %+v, %v", outcome, err)
	}

	transcript, err := d.Transcript(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(transcript.Answers) != 2 || transcript.Status != StatusCompleted {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}

	if logs.FilterMessage("answer recorded").Len() != 2 {
		t.Fatalf("expected two answer logs, got %d", logs.FilterMessage("answer recorded").Len())
	}
	started := logs.FilterMessage("session started").All()
	if len(started) != 1 || started[0].ContextMap()["session_id"] != "s1" {
		t.Fatalf("unexpected start log: %+v", started)
	}
}

func TestDirectoryStartRejectsDuplicate(t *testing.T) {
	t.Parallel()

	d := NewDirectory(newMapRepo(), zap.NewNop())
	startScenario(t, d)

	_, err := d.Start(context.Background(), StartParams{ID: "s1", Questions: scenarioQuestions()})
	if !errors.Is(err, ErrDuplicateSession) || KindOf(err) != KindInvalidState {
		t.Fatalf("expected duplicate session, got %v", err)
	}
}

func TestDirectoryStartCopiesVacancy(t *testing.T) {
	t.Parallel()

	info := &vacancy.Info{JobTitle: "Go Engineer", RequiredSkills: []string{"Go"}}
	d := NewDirectory(newMapRepo(), zap.NewNop())

	s, err := d.Start(context.Background(), StartParams{
		ID:                 "v1",
		Questions:          scenarioQuestions(),
		Vacancy:            info,
		EvaluationCriteria: []string{" clarity ", ""},
	})
	if err != nil {
		t.Fatal(err)
	}
	info.RequiredSkills[0] = "changed"

	found, err := d.Find(context.Background(), s.ID)
	if err != nil {
		t.Fatal(err)
	}
	if found.Vacancy.RequiredSkills[0] != "Go" {
		t.Fatal("stored vacancy shares state with the caller")
	}
	if len(found.EvaluationCriteria) != 1 || found.EvaluationCriteria[0] != "clarity" {
		t.Fatalf("unexpected criteria: %v", found.EvaluationCriteria)
	}
}

func TestDirectoryUnknownSession(t *testing.T) {
	t.Parallel()

	d := NewDirectory(newMapRepo(), zap.NewNop())
	ctx := context.Background()

	calls := map[string]func() error{
		"next":       func() error { _, err := d.NextQuestion(ctx, "nope"); return err },
		"answer":     func() error { _, err := d.RecordAnswer(ctx, "nope", "q1", "x", ""); return err },
		"pause":      func() error { return d.Pause(ctx, "nope") },
		"resume":     func() error { _, err := d.Resume(ctx, "nope"); return err },
		"status":     func() error { _, err := d.Status(ctx, "nope"); return err },
		"transcript": func() error { _, err := d.Transcript(ctx, "nope"); return err },
	}
	for name, call := range calls {
		if err := call(); !errors.Is(err, ErrSessionNotFound) || KindOf(err) != KindNotFound {
			t.Fatalf("%s: expected not found, got %v", name, err)
		}
	}
}

func TestDirectoryDefaultQuestions(t *testing.T) {
	t.Parallel()

	repo := newMapRepo()
	d := NewDirectory(repo, zap.NewNop(), WithDefaultQuestions(scenarioQuestions()))
	ctx := context.Background()

	next, err := d.NextQuestion(ctx, "lazy")
	if err != nil || next.Question.Question.ID != "q1" {
		t.Fatalf("unexpected lazy next: %+v, %v", next, err)
	}

	if _, err := d.Status(ctx, "other"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("status must not create sessions, got %v", err)
	}

	if _, err := d.RecordAnswer(ctx, "fresh", "q1", "x", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, err := d.Find(ctx, "fresh")
	if err != nil || len(s.Answers) != 1 {
		t.Fatalf("unexpected lazily created session: %+v, %v", s, err)
	}
}

func TestDirectoryDefaultQuestionsFailedAnswerStoresNothing(t *testing.T) {
	t.Parallel()

	repo := newMapRepo()
	d := NewDirectory(repo, zap.NewNop(), WithDefaultQuestions(scenarioQuestions()))
	ctx := context.Background()

	if _, err := d.RecordAnswer(ctx, "fresh", "q2", "x", ""); !errors.Is(err, ErrQuestionMismatch) {
		t.Fatalf("expected question mismatch, got %v", err)
	}
	if repo.puts != 0 {
		t.Fatalf("failed answer stored %d sessions", repo.puts)
	}
	if _, err := repo.Get(ctx, "fresh"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("failed answer must not create a session, got %v", err)
	}

	if _, err := d.NextQuestion(ctx, "fresh"); err != nil {
		t.Fatal(err)
	}
	if repo.puts != 1 {
		t.Fatalf("NextQuestion stored %d sessions, want 1", repo.puts)
	}
}

func TestDirectoryStartRejectsInvalidQuestions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		questions []Question
		want      error
	}{
		{"empty id", []Question{{ID: " ", Text: "x"}}, ErrInvalidQuestion},
		{"empty text", []Question{{ID: "q1", Text: ""}}, ErrInvalidQuestion},
		{"duplicate id", []Question{{ID: "q1", Text: "a"}, {ID: "q1", Text: "b"}}, ErrDuplicateQuestionID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			repo := newMapRepo()
			d := NewDirectory(repo, zap.NewNop())

			_, err := d.Start(context.Background(), StartParams{ID: "s1", Questions: tt.questions})
			if !errors.Is(err, tt.want) || KindOf(err) != KindValidation {
				t.Fatalf("expected %v validation error, got %v", tt.want, err)
			}
			if repo.puts != 0 {
				t.Fatal("invalid questions must not be stored")
			}
		})
	}
}

func TestDirectoryFailedPutKeepsSession(t *testing.T) {
	t.Parallel()

	repo := newMapRepo()
	d := NewDirectory(repo, zap.NewNop())
	ctx := context.Background()
	startScenario(t, d)

	repo.putErr = errors.New("disk full")
	if _, err := d.RecordAnswer(ctx, "s1", "q1", "x", ""); err == nil {
		t.Fatal("expected store error")
	}
	repo.putErr = nil

	s, err := d.Find(ctx, "s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Answers) != 0 || s.CurrentIndex != 0 {
		t.Fatalf("failed store must not change the session: %+v", s)
	}
}

func TestDirectoryPauseResume(t *testing.T) {
	t.Parallel()

	d := NewDirectory(newMapRepo(), zap.NewNop())
	ctx := context.Background()
	startScenario(t, d)

	if err := d.Pause(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.RecordAnswer(ctx, "s1", "q1", "x", ""); !errors.Is(err, ErrSessionPaused) {
		t.Fatalf("expected paused error, got %v", err)
	}
	view, err := d.Status(ctx, "s1")
	if err != nil || view.Status != StatusPaused {
		t.Fatalf("unexpected status: %+v, %v", view, err)
	}

	next, err := d.Resume(ctx, "s1")
	if err != nil || next.Question.Question.ID != "q1" {
		t.Fatalf("unexpected resume: %+v, %v", next, err)
	}
}

func TestDirectoryRemove(t *testing.T) {
	t.Parallel()

	d := NewDirectory(newMapRepo(), zap.NewNop())
	ctx := context.Background()
	startScenario(t, d)

	if err := d.Remove(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Find(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found after remove, got %v", err)
	}
	if err := d.Remove(ctx, "s1"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected not found when removing twice, got %v", err)
	}
}

func TestDirectoryConcurrentAnswers(t *testing.T) {
	t.Parallel()

	const total = 20
	questions := make([]Question, total)
	for i := range questions {
		questions[i] = Question{ID: fmt.Sprintf("q%d", i+1), Text: "text", Category: CategoryGeneral, Difficulty: DifficultyMedium}
	}

	d := NewDirectory(newMapRepo(), zap.NewNop(), WithClock(fixedClock(testStart)))
	ctx := context.Background()
	if _, err := d.Start(ctx, StartParams{ID: "c", Questions: questions}); err != nil {
		t.Fatal(err)
	}

	// Every goroutine races to answer every question; exactly one wins each.
	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, q := range questions {
				for {
					_, err := d.RecordAnswer(ctx, "c", q.ID, "answer", "")
					if err == nil {
						mu.Lock()
						success++
						mu.Unlock()
						break
					}
					if errors.Is(err, ErrQuestionMismatch) || errors.Is(err, ErrNoCurrentQuestion) {
						next, nerr := d.NextQuestion(ctx, "c")
						if nerr != nil {
							t.Error(nerr)
							return
						}
						if next.Completed() || next.Question.Question.ID != q.ID {
							break
						}
						continue
					}
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Wait()

	if success != total {
		t.Fatalf("expected %d successful answers, got %d", total, success)
	}
	s, err := d.Find(ctx, "c")
	if err != nil {
		t.Fatal(err)
	}
	for i, a := range s.Answers {
		if a.QuestionID != questions[i].ID {
			t.Fatalf("answer %d recorded for %s", i, a.QuestionID)
		}
	}
	if s.Status != StatusCompleted || s.CurrentIndex != len(s.Answers) {
		t.Fatalf("unexpected final session: status %s index %d answers %d", s.Status, s.CurrentIndex, len(s.Answers))
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.locks) != 0 {
		t.Fatalf("expected lock table to drain, %d entries left", len(d.locks))
	}
}
