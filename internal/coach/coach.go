package coach

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/selection"
	"github.com/spigell/interview-coach/internal/vacancy"
)

// ErrNotConfigured is returned when an operation needs a model provider that
// was not set up.
var ErrNotConfigured = errors.New("ai provider is not configured")

// Plan is a prepared interview: what the vacancy asks for and the questions
// to ask about it.
type Plan struct {
	Analysis           *vacancy.Analysis    `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Questions          []interview.Question `json:"questions" yaml:"questions"`
	InterviewFocus     map[string]string    `json:"interview_focus,omitempty" yaml:"interview_focus,omitempty"`
	EvaluationCriteria []string             `json:"evaluation_criteria,omitempty" yaml:"evaluation_criteria,omitempty"`
}

// Position is the job title of the analyzed vacancy, if any.
func (p *Plan) Position() string {
	if p.Analysis == nil || p.Analysis.Info == nil {
		return ""
	}
	return p.Analysis.Info.JobTitle
}

// Save writes the plan as YAML.
func (p *Plan) Save(path string) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("encoding plan: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing plan %q: %w", path, err)
	}
	return nil
}

// LoadPlan reads a plan written by Save. Questions are validated again, so a
// hand-edited plan fails the same way a bad question bank does.
func LoadPlan(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan %q: %w", path, err)
	}

	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan %q: %w", path, err)
	}

	raw := make([]interview.RawQuestion, 0, len(p.Questions))
	for _, q := range p.Questions {
		raw = append(raw, interview.RawQuestion{
			ID:                  q.ID,
			Text:                q.Text,
			Category:            string(q.Category),
			Difficulty:          string(q.Difficulty),
			SkillsAssessed:      q.SkillsAssessed,
			ExpectedAnswerFocus: q.ExpectedAnswerFocus,
			FollowUps:           q.FollowUps,
		})
	}
	if p.Questions, err = interview.LoadQuestions(raw); err != nil {
		return nil, fmt.Errorf("plan %q: %w", path, err)
	}
	return &p, nil
}

// Coach ties the model adapters to the session directory.
type Coach struct {
	analyzer  ai.Analyzer
	generator ai.QuestionGenerator
	evaluator ai.Evaluator
	directory *interview.Directory
	selection *selection.Config
	steps     []selection.Filter
	logger    *zap.Logger
}

type Option func(*Coach)

// WithAI sets the model adapters. Any of them may be nil.
func WithAI(analyzer ai.Analyzer, generator ai.QuestionGenerator, evaluator ai.Evaluator) Option {
	return func(c *Coach) {
		c.analyzer = analyzer
		c.generator = generator
		c.evaluator = evaluator
	}
}

// WithSelection sets the selection pipeline applied to generated questions.
func WithSelection(cfg *selection.Config, steps []selection.Filter) Option {
	return func(c *Coach) {
		c.selection = cfg
		c.steps = steps
	}
}

func New(directory *interview.Directory, log *zap.Logger, opts ...Option) *Coach {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Coach{
		directory: directory,
		logger:    log,
		steps:     selection.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coach) Directory() *interview.Directory { return c.directory }

// Analyze extracts vacancy details from a job description.
func (c *Coach) Analyze(ctx context.Context, jobDescription string) (*vacancy.Analysis, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, ai.Input("analyze", errors.New("job description is empty"))
	}
	if c.analyzer == nil {
		return nil, fmt.Errorf("analyze: %w", ErrNotConfigured)
	}
	return c.analyzer.Analyze(ctx, jobDescription)
}

// Prepare analyzes the job description, generates questions for it and runs
// them through the selection pipeline.
func (c *Coach) Prepare(ctx context.Context, jobDescription string) (*Plan, error) {
	if strings.TrimSpace(jobDescription) == "" {
		return nil, ai.Input("prepare", errors.New("job description is empty"))
	}
	if c.generator == nil {
		return nil, fmt.Errorf("prepare: %w", ErrNotConfigured)
	}

	analysis, err := c.Analyze(ctx, jobDescription)
	if err != nil {
		return nil, err
	}

	set, err := c.generator.Generate(ctx, analysis.Info, analysis.Context)
	if err != nil {
		return nil, err
	}

	questions, err := interview.LoadQuestions(set.Questions)
	if err != nil {
		return nil, ai.Upstream("generate", fmt.Errorf("%w: %w", ai.ErrInvalidResponse, err))
	}

	questions, err = c.Select(ctx, questions)
	if err != nil {
		return nil, err
	}

	c.logger.Info("interview plan prepared",
		zap.String("position", analysis.Info.JobTitle),
		zap.Int("questions", len(questions)),
		zap.Int("criteria", len(set.EvaluationCriteria)),
	)

	return &Plan{
		Analysis:           analysis,
		Questions:          questions,
		InterviewFocus:     set.InterviewFocus,
		EvaluationCriteria: set.EvaluationCriteria,
	}, nil
}

// Select runs the configured selection pipeline over questions.
func (c *Coach) Select(ctx context.Context, questions []interview.Question) ([]interview.Question, error) {
	selected, err := selection.Run(ctx, c.selection, selection.Deps{Logger: c.logger}, c.steps, questions)
	if err != nil {
		return nil, fmt.Errorf("selecting questions: %w", err)
	}
	return selected, nil
}

// Begin starts session id for candidate from plan. An empty position falls
// back to the analyzed job title.
func (c *Coach) Begin(ctx context.Context, id, candidate, position string, plan *Plan) (*interview.Session, error) {
	if plan == nil {
		return nil, errors.New("plan is required")
	}
	if strings.TrimSpace(position) == "" {
		position = plan.Position()
	}

	var info *vacancy.Info
	if plan.Analysis != nil {
		info = plan.Analysis.Info
	}

	return c.directory.Start(ctx, interview.StartParams{
		ID:                 id,
		CandidateName:      candidate,
		Position:           position,
		Questions:          plan.Questions,
		Vacancy:            info,
		EvaluationCriteria: plan.EvaluationCriteria,
	})
}

// Feedback evaluates a completed session.
func (c *Coach) Feedback(ctx context.Context, id string) (*ai.FeedbackReport, error) {
	session, err := c.directory.Transcript(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.evaluator == nil {
		return nil, fmt.Errorf("feedback: %w", ErrNotConfigured)
	}

	log := logger.WithSession(c.logger, session.ID, session.CandidateName)
	log.Info("evaluating interview", zap.Int("answers", len(session.Answers)))

	report, err := c.evaluator.Evaluate(ctx, ai.TranscriptFrom(session))
	if err != nil {
		log.Warn("interview evaluation failed", zap.Error(err))
		return nil, err
	}
	return report, nil
}
