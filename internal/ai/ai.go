package ai

import (
	"context"
	"slices"

	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/vacancy"
)

// TextGenerator sends a system instruction and a user message to a language
// model and returns its textual reply.
type TextGenerator interface {
	GenerateContent(ctx context.Context, system, message string) (string, error)
	Model() string
}

// GenerationOptions tune a single kind of model call.
type GenerationOptions struct {
	Temperature     float64
	MaxOutputTokens int
}

// Tunable is implemented by generators that can derive a copy with different
// generation options while sharing the underlying client.
type Tunable interface {
	WithOptions(opts GenerationOptions) TextGenerator
}

// Tune applies opts when gen supports it and returns gen unchanged otherwise.
func Tune(gen TextGenerator, opts GenerationOptions) TextGenerator {
	if t, ok := gen.(Tunable); ok {
		return t.WithOptions(opts)
	}
	return gen
}

// Analyzer extracts structured vacancy data from a job description.
type Analyzer interface {
	Analyze(ctx context.Context, jobDescription string) (*vacancy.Analysis, error)
}

// QuestionGenerator synthesizes interview questions for a vacancy.
type QuestionGenerator interface {
	Generate(ctx context.Context, info *vacancy.Info, c vacancy.Context) (*QuestionSet, error)
}

// Evaluator scores a completed interview.
type Evaluator interface {
	Evaluate(ctx context.Context, t Transcript) (*FeedbackReport, error)
}

// QuestionSet is the unvalidated output of a QuestionGenerator.
type QuestionSet struct {
	Questions          []interview.RawQuestion `json:"questions" mapstructure:"questions"`
	InterviewFocus     map[string]string       `json:"interview_focus" mapstructure:"interview_focus"`
	EvaluationCriteria []string                `json:"evaluation_criteria" mapstructure:"evaluation_criteria"`
}

// Transcript is everything an Evaluator needs about a finished session.
type Transcript struct {
	SessionID          string                   `json:"session_id"`
	CandidateName      string                   `json:"candidate_name"`
	Position           string                   `json:"position"`
	Questions          []interview.Question     `json:"questions"`
	Answers            []interview.AnswerRecord `json:"answers"`
	Vacancy            *vacancy.Info            `json:"vacancy_info"`
	EvaluationCriteria []string                 `json:"evaluation_criteria"`
}

// TranscriptFrom copies the evaluation input out of a session.
func TranscriptFrom(s *interview.Session) Transcript {
	c := s.Clone()
	return Transcript{
		SessionID:          c.ID,
		CandidateName:      c.CandidateName,
		Position:           c.Position,
		Questions:          c.Questions,
		Answers:            c.Answers,
		Vacancy:            c.Vacancy,
		EvaluationCriteria: slices.Clone(c.EvaluationCriteria),
	}
}
