package interview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/vacancy"
)

// Repository persists sessions. Get must return an error wrapping
// ErrSessionNotFound for unknown ids. Implementations must not retain the
// pointers they are given or hand out shared ones.
type Repository interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	Remove(ctx context.Context, id string) error
}

// Directory serializes every operation on a session id and is the only way
// sessions change. Each mutation is applied to a copy that is stored only
// when the transition succeeds.
type Directory struct {
	repo     Repository
	logger   *zap.Logger
	now      func() time.Time
	fallback []Question

	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu   sync.Mutex
	refs int
}

type Option func(*Directory)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(d *Directory) { d.now = now }
}

// WithDefaultQuestions makes NextQuestion and RecordAnswer create a session
// from questions when the id is unknown. Without it unknown ids fail.
func WithDefaultQuestions(questions []Question) Option {
	return func(d *Directory) { d.fallback = cloneQuestions(questions) }
}

func NewDirectory(repo Repository, logger *zap.Logger, opts ...Option) *Directory {
	if logger == nil {
		logger = zap.NewNop()
	}
	d := &Directory{
		repo:   repo,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		locks:  make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// StartParams describes a new session.
type StartParams struct {
	ID                 string
	CandidateName      string
	Position           string
	Questions          []Question
	Vacancy            *vacancy.Info
	EvaluationCriteria []string
}

// Start creates a session. An existing id is rejected with ErrDuplicateSession.
// Questions are checked with CheckQuestions; LoadQuestions output always passes.
func (d *Directory) Start(ctx context.Context, p StartParams) (*Session, error) {
	if err := CheckQuestions(p.Questions); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(p.ID)
	unlock := d.lock(id)
	defer unlock()

	_, err := d.repo.Get(ctx, id)
	switch {
	case err == nil:
		return nil, &Error{Op: "start", SessionID: id, Err: ErrDuplicateSession}
	case !errors.Is(err, ErrSessionNotFound):
		return nil, fmt.Errorf("start session %q: %w", id, err)
	}

	s, err := NewSession(id, p.CandidateName, p.Position, p.Questions, d.now())
	if err != nil {
		return nil, err
	}
	s.Vacancy = p.Vacancy.Clone()
	s.EvaluationCriteria = trimAll(p.EvaluationCriteria)

	if err := d.repo.Put(ctx, s); err != nil {
		return nil, fmt.Errorf("store session %q: %w", id, err)
	}

	d.logger.Info("session started",
		zap.String("session_id", s.ID),
		zap.String("candidate", s.CandidateName),
		zap.String("position", s.Position),
		zap.Int("questions", len(s.Questions)),
	)

	return s.Clone(), nil
}

// NextQuestion returns the current question or the completion summary.
func (d *Directory) NextQuestion(ctx context.Context, id string) (Next, error) {
	var next Next
	err := d.view(ctx, "next question", id, true, func(s *Session) error {
		next = s.NextQuestion()
		return nil
	})
	return next, err
}

// RecordAnswer records answer for questionID, which must be the current question.
func (d *Directory) RecordAnswer(ctx context.Context, id, questionID, answer, notes string) (AnswerOutcome, error) {
	var outcome AnswerOutcome
	err := d.mutate(ctx, "record answer", id, true, func(s *Session, now time.Time) error {
		var err error
		outcome, err = s.RecordAnswer(questionID, answer, notes, now)
		return err
	})
	if err != nil {
		return AnswerOutcome{}, err
	}

	d.logger.Info("answer recorded",
		zap.String("session_id", id),
		zap.String("question_id", questionID),
		zap.String("outcome", string(outcome.Status)),
	)
	return outcome, nil
}

func (d *Directory) Pause(ctx context.Context, id string) error {
	err := d.mutate(ctx, "pause", id, false, func(s *Session, now time.Time) error {
		return s.Pause(now)
	})
	if err == nil {
		d.logger.Info("session paused", zap.String("session_id", id))
	}
	return err
}

func (d *Directory) Resume(ctx context.Context, id string) (Next, error) {
	var next Next
	err := d.mutate(ctx, "resume", id, false, func(s *Session, now time.Time) error {
		var err error
		next, err = s.Resume(now)
		return err
	})
	if err == nil {
		d.logger.Info("session resumed", zap.String("session_id", id))
	}
	return next, err
}

func (d *Directory) Status(ctx context.Context, id string) (StatusView, error) {
	var view StatusView
	err := d.view(ctx, "status", id, false, func(s *Session) error {
		view = s.StatusAt(d.now())
		return nil
	})
	return view, err
}

// Find returns a copy of the session.
func (d *Directory) Find(ctx context.Context, id string) (*Session, error) {
	var found *Session
	err := d.view(ctx, "find", id, false, func(s *Session) error {
		found = s.Clone()
		return nil
	})
	return found, err
}

// Transcript returns a copy of a completed session. Sessions that still have
// questions left fail with ErrInterviewNotCompleted.
func (d *Directory) Transcript(ctx context.Context, id string) (*Session, error) {
	var found *Session
	err := d.view(ctx, "transcript", id, false, func(s *Session) error {
		if !s.Completed() {
			return &Error{
				Op:        "transcript",
				SessionID: s.ID,
				Err:       ErrInterviewNotCompleted,
				Detail:    fmt.Sprintf("%d of %d answered", len(s.Answers), len(s.Questions)),
			}
		}
		found = s.Clone()
		return nil
	})
	return found, err
}

// Remove deletes a session. Unknown ids fail with ErrSessionNotFound.
func (d *Directory) Remove(ctx context.Context, id string) error {
	unlock := d.lock(id)
	defer unlock()

	if _, _, err := d.load(ctx, "remove", id, false); err != nil {
		return err
	}
	if err := d.repo.Remove(ctx, id); err != nil {
		return fmt.Errorf("remove session %q: %w", id, err)
	}

	d.logger.Info("session removed", zap.String("session_id", id))
	return nil
}

func (d *Directory) view(ctx context.Context, op, id string, allowCreate bool, fn func(*Session) error) error {
	unlock := d.lock(id)
	defer unlock()

	s, created, err := d.load(ctx, op, id, allowCreate)
	if err != nil {
		return err
	}
	if err := fn(s); err != nil {
		return err
	}
	if created {
		return d.store(ctx, op, s, true)
	}
	return nil
}

func (d *Directory) mutate(ctx context.Context, op, id string, allowCreate bool, fn func(*Session, time.Time) error) error {
	unlock := d.lock(id)
	defer unlock()

	s, created, err := d.load(ctx, op, id, allowCreate)
	if err != nil {
		return err
	}

	working := s.Clone()
	if err := fn(working, d.now()); err != nil {
		return err
	}
	return d.store(ctx, op, working, created)
}

// load must be called with the session lock held. A session built from the
// default questions is reported as created and is not stored yet; callers
// store it only once their operation succeeds.
func (d *Directory) load(ctx context.Context, op, id string, allowCreate bool) (*Session, bool, error) {
	s, err := d.repo.Get(ctx, id)
	if err == nil {
		return s, false, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, false, fmt.Errorf("%s: load session %q: %w", op, id, err)
	}
	if !allowCreate || d.fallback == nil {
		return nil, false, &Error{Op: op, SessionID: id, Err: ErrSessionNotFound}
	}

	s, err = NewSession(id, "", "", d.fallback, d.now())
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (d *Directory) store(ctx context.Context, op string, s *Session, created bool) error {
	if err := d.repo.Put(ctx, s); err != nil {
		return fmt.Errorf("%s: store session %q: %w", op, s.ID, err)
	}
	if created {
		d.logger.Info("session created from default questions",
			zap.String("session_id", s.ID),
			zap.Int("questions", len(s.Questions)),
		)
	}
	return nil
}

// lock acquires the per-session mutex and returns its release function.
// The table entry is dropped once no caller holds or waits for it.
func (d *Directory) lock(id string) func() {
	d.mu.Lock()
	l, ok := d.locks[id]
	if !ok {
		l = &sessionLock{}
		d.locks[id] = l
	}
	l.refs++
	d.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		d.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(d.locks, id)
		}
		d.mu.Unlock()
	}
}
