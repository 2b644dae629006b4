package interview

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/spigell/interview-coach/internal/vacancy"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// AnswerRecord is appended once per answered question and never changed.
// Category, difficulty and skills are copied from the question at record time.
type AnswerRecord struct {
	QuestionID string     `json:"question_id"`
	AnswerText string     `json:"answer_text"`
	Notes      string     `json:"notes,omitempty"`
	RecordedAt time.Time  `json:"recorded_at"`
	Category   Category   `json:"category"`
	Difficulty Difficulty `json:"difficulty"`
	Skills     []string   `json:"skills,omitempty"`
}

// Session holds the progress of one candidate through an ordered list of
// questions. CurrentIndex always equals len(Answers).
type Session struct {
	ID                 string         `json:"session_id"`
	CandidateName      string         `json:"candidate_name"`
	Position           string         `json:"position"`
	Status             Status         `json:"status"`
	Questions          []Question     `json:"questions"`
	CurrentIndex       int            `json:"current_index"`
	Answers            []AnswerRecord `json:"answers"`
	StartedAt          time.Time      `json:"started_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	Vacancy            *vacancy.Info  `json:"vacancy,omitempty"`
	EvaluationCriteria []string       `json:"evaluation_criteria,omitempty"`
}

// NewSession creates an active session. An empty question list is allowed and
// completes on the first NextQuestion call.
func NewSession(id, candidate, position string, questions []Question, now time.Time) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, &Error{Op: "start", Err: ErrInvalidState, Detail: "session id is required"}
	}

	return &Session{
		ID:            id,
		CandidateName: strings.TrimSpace(candidate),
		Position:      strings.TrimSpace(position),
		Status:        StatusActive,
		Questions:     cloneQuestions(questions),
		Answers:       []AnswerRecord{},
		StartedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// QuestionView is a question annotated with its 1-based position.
type QuestionView struct {
	Question      Question `json:"question"`
	Number        int      `json:"question_number"`
	Total         int      `json:"total_questions"`
	CandidateName string   `json:"candidate_name,omitempty"`
	Position      string   `json:"position,omitempty"`
}

// CompletionSummary counts categories over recorded answers only.
type CompletionSummary struct {
	TotalQuestions    int              `json:"total_questions"`
	TotalAnswers      int              `json:"total_answers"`
	CategoriesCovered map[Category]int `json:"categories_covered"`
}

// Next is either the current question or, once every question is answered,
// the completion summary.
type Next struct {
	Question *QuestionView     `json:"question,omitempty"`
	Summary  *CompletionSummary `json:"summary,omitempty"`
}

func (n Next) Completed() bool { return n.Summary != nil }

type OutcomeStatus string

const (
	OutcomeSuccess   OutcomeStatus = "success"
	OutcomeCompleted OutcomeStatus = "completed"
)

// AnswerOutcome is returned by a successful RecordAnswer.
type AnswerOutcome struct {
	Status  OutcomeStatus      `json:"status"`
	Next    *QuestionView      `json:"next,omitempty"`
	Summary *CompletionSummary `json:"summary,omitempty"`
}

// StatusView is a read-only projection of session progress.
type StatusView struct {
	SessionID          string    `json:"session_id"`
	CandidateName      string    `json:"candidate_name"`
	Position           string    `json:"position"`
	Status             Status    `json:"status"`
	CurrentQuestion    int       `json:"current_question"`
	TotalQuestions     int       `json:"total_questions"`
	AnsweredQuestions  int       `json:"answered_questions"`
	PercentageComplete float64   `json:"percentage_complete"`
	ElapsedTime        string    `json:"elapsed_time"`
	StartedAt          time.Time `json:"started_at"`
}

// Completed reports whether every question has been answered.
func (s *Session) Completed() bool {
	return len(s.Questions) > 0 && s.CurrentIndex == len(s.Questions)
}

func (s *Session) exhausted() bool {
	return s.CurrentIndex >= len(s.Questions)
}

// NextQuestion returns the question at the current index without advancing.
// Repeated calls return identical values.
func (s *Session) NextQuestion() Next {
	if s.exhausted() {
		summary := s.Summary()
		return Next{Summary: &summary}
	}
	return Next{Question: s.current()}
}

func (s *Session) current() *QuestionView {
	return &QuestionView{
		Question:      s.Questions[s.CurrentIndex].clone(),
		Number:        s.CurrentIndex + 1,
		Total:         len(s.Questions),
		CandidateName: s.CandidateName,
		Position:      s.Position,
	}
}

// RecordAnswer appends an answer for the current question. It fails without
// changing the session when there is nothing left to answer, when the
// session is paused or when questionID is not the current question.
func (s *Session) RecordAnswer(questionID, answer, notes string, now time.Time) (AnswerOutcome, error) {
	const op = "record answer"
	questionID = strings.TrimSpace(questionID)

	if s.exhausted() {
		return AnswerOutcome{}, &Error{Op: op, SessionID: s.ID, QuestionID: questionID, Err: ErrNoCurrentQuestion}
	}
	if s.Status == StatusPaused {
		return AnswerOutcome{}, &Error{Op: op, SessionID: s.ID, QuestionID: questionID, Err: ErrSessionPaused}
	}

	current := s.Questions[s.CurrentIndex]
	if questionID != current.ID {
		return AnswerOutcome{}, &Error{
			Op:         op,
			SessionID:  s.ID,
			QuestionID: questionID,
			Err:        ErrQuestionMismatch,
			Detail:     fmt.Sprintf("expected %q", current.ID),
		}
	}

	s.Answers = append(s.Answers, AnswerRecord{
		QuestionID: current.ID,
		AnswerText: strings.TrimSpace(answer),
		Notes:      strings.TrimSpace(notes),
		RecordedAt: now,
		Category:   current.Category,
		Difficulty: current.Difficulty,
		Skills:     slices.Clone(current.SkillsAssessed),
	})
	s.CurrentIndex++
	s.UpdatedAt = now

	if s.CurrentIndex == len(s.Questions) {
		s.Status = StatusCompleted
		summary := s.Summary()
		return AnswerOutcome{Status: OutcomeCompleted, Summary: &summary}, nil
	}

	return AnswerOutcome{Status: OutcomeSuccess, Next: s.current()}, nil
}

// Pause moves an active session to paused.
func (s *Session) Pause(now time.Time) error {
	if s.Status != StatusActive {
		return &Error{Op: "pause", SessionID: s.ID, Err: ErrInvalidState, Detail: fmt.Sprintf("status is %s", s.Status)}
	}
	s.Status = StatusPaused
	s.UpdatedAt = now
	return nil
}

// Resume moves a paused session back to active and returns the next question.
func (s *Session) Resume(now time.Time) (Next, error) {
	if s.Status != StatusPaused {
		return Next{}, &Error{Op: "resume", SessionID: s.ID, Err: ErrInvalidState, Detail: fmt.Sprintf("status is %s", s.Status)}
	}
	s.Status = StatusActive
	s.UpdatedAt = now
	return s.NextQuestion(), nil
}

// Summary counts answered questions per category.
func (s *Session) Summary() CompletionSummary {
	covered := make(map[Category]int)
	for _, a := range s.Answers {
		covered[a.Category]++
	}
	return CompletionSummary{
		TotalQuestions:    len(s.Questions),
		TotalAnswers:      len(s.Answers),
		CategoriesCovered: covered,
	}
}

// StatusAt projects the session progress as seen at now.
func (s *Session) StatusAt(now time.Time) StatusView {
	total := len(s.Questions)
	answered := len(s.Answers)

	var percentage float64
	if total > 0 {
		percentage = 100 * float64(answered) / float64(total)
	}

	return StatusView{
		SessionID:          s.ID,
		CandidateName:      s.CandidateName,
		Position:           s.Position,
		Status:             s.Status,
		CurrentQuestion:    s.CurrentIndex + 1,
		TotalQuestions:     total,
		AnsweredQuestions:  answered,
		PercentageComplete: percentage,
		ElapsedTime:        FormatElapsed(now.Sub(s.StartedAt)),
		StartedAt:          s.StartedAt,
	}
}

// Clone returns a deep copy that shares no slices with s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	c.Questions = cloneQuestions(s.Questions)
	c.Answers = make([]AnswerRecord, len(s.Answers))
	for i, a := range s.Answers {
		a.Skills = slices.Clone(a.Skills)
		c.Answers[i] = a
	}
	c.EvaluationCriteria = slices.Clone(s.EvaluationCriteria)
	if s.Vacancy != nil {
		c.Vacancy = s.Vacancy.Clone()
	}
	return &c
}

// FormatElapsed renders d as "45s", "2m 5s" or "1h 0m 3s". Larger units are
// omitted while they are zero; seconds are always shown.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	switch {
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		return fmt.Sprintf("%ds", seconds)
	}
}
