package prep

import (
	"context"
	_ "embed"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/vacancy"
)

const (
	feedbackAdapter     = "feedback"
	feedbackTemperature = 0.3
	feedbackMaxTokens   = 4096
	defaultCriteria     = "- Use general interview best practices: clarity, relevance, depth and concrete examples."
)

var (
	//go:embed prompts/feedback_system.md
	feedbackSystemPrompt string
	//go:embed prompts/feedback.md
	feedbackPrompt string
)

// Evaluator scores the answers of a completed interview.
type Evaluator struct {
	caller
}

func NewEvaluator(gen ai.TextGenerator, logger *zap.Logger, maxLogLength int) *Evaluator {
	opts := ai.GenerationOptions{Temperature: feedbackTemperature, MaxOutputTokens: feedbackMaxTokens}
	return &Evaluator{caller: newCaller(feedbackAdapter, gen, opts, logger, maxLogLength)}
}

type answeredQuestion struct {
	QuestionID          string   `json:"question_id"`
	QuestionText        string   `json:"question_text"`
	Category            string   `json:"category"`
	Difficulty          string   `json:"difficulty"`
	SkillsAssessed      []string `json:"skills_assessed,omitempty"`
	ExpectedAnswerFocus string   `json:"expected_answer_focus,omitempty"`
	AnswerText          string   `json:"answer_text"`
	Notes               string   `json:"notes,omitempty"`
}

// Evaluate requires at least one question and one answer. A transcript
// without vacancy details is evaluated against its position title.
func (e *Evaluator) Evaluate(ctx context.Context, t ai.Transcript) (*ai.FeedbackReport, error) {
	switch {
	case len(t.Questions) == 0:
		return nil, ai.Input(feedbackAdapter, errors.New("no questions to evaluate"))
	case len(t.Answers) == 0:
		return nil, ai.Input(feedbackAdapter, errors.New("no answers to evaluate"))
	}

	info := t.Vacancy
	if info == nil {
		if strings.TrimSpace(t.Position) == "" {
			return nil, ai.Input(feedbackAdapter, errors.New("vacancy information is required"))
		}
		info = &vacancy.Info{JobTitle: t.Position}
	}

	answered := pairAnswers(t)
	message := render(feedbackPrompt, map[string]string{
		"CANDIDATE_NAME": orDefault(t.CandidateName, "the candidate"),
		"POSITION":       orDefault(t.Position, info.JobTitle),
		"VACANCY_JSON":   mustJSON(info),
		"CRITERIA":       criteriaList(t.EvaluationCriteria),
		"QA_JSON":        mustJSON(answered),
	})

	raw, err := e.call(ctx, feedbackSystemPrompt, message)
	if err != nil {
		return nil, ai.Upstream(feedbackAdapter, err)
	}

	var report ai.FeedbackReport
	if err := decodeReply(raw, "feedback", &report); err != nil {
		return nil, ai.Upstream(feedbackAdapter, err)
	}

	report.SessionID = t.SessionID
	report.CandidateName = t.CandidateName
	report.Position = t.Position
	fillFromTranscript(&report, answered)

	e.logger.Info("interview feedback generated",
		zap.String("session_id", t.SessionID),
		zap.Float64("total_score", report.OverallPerformance.TotalScore),
		zap.Int("questions", len(report.QuestionFeedback)),
	)
	return &report, nil
}

func pairAnswers(t ai.Transcript) []answeredQuestion {
	byID := make(map[string]int, len(t.Questions))
	for i, q := range t.Questions {
		byID[q.ID] = i
	}

	out := make([]answeredQuestion, 0, len(t.Answers))
	for _, a := range t.Answers {
		item := answeredQuestion{
			QuestionID:     a.QuestionID,
			Category:       string(a.Category),
			Difficulty:     string(a.Difficulty),
			SkillsAssessed: a.Skills,
			AnswerText:     a.AnswerText,
			Notes:          a.Notes,
		}
		if i, ok := byID[a.QuestionID]; ok {
			item.QuestionText = t.Questions[i].Text
			item.ExpectedAnswerFocus = t.Questions[i].ExpectedAnswerFocus
		}
		out = append(out, item)
	}
	return out
}

// fillFromTranscript restores question and answer texts the model left out.
func fillFromTranscript(report *ai.FeedbackReport, answered []answeredQuestion) {
	byID := make(map[string]answeredQuestion, len(answered))
	for _, a := range answered {
		byID[a.QuestionID] = a
	}
	for i := range report.QuestionFeedback {
		qf := &report.QuestionFeedback[i]
		a, ok := byID[qf.QuestionID]
		if !ok {
			continue
		}
		if strings.TrimSpace(qf.QuestionText) == "" {
			qf.QuestionText = a.QuestionText
		}
		if strings.TrimSpace(qf.AnswerText) == "" {
			qf.AnswerText = a.AnswerText
		}
		if strings.TrimSpace(qf.QuestionType) == "" {
			qf.QuestionType = a.Category
		}
		if strings.TrimSpace(qf.DifficultyLevel) == "" {
			qf.DifficultyLevel = a.Difficulty
		}
	}
}

func criteriaList(criteria []string) string {
	var b strings.Builder
	for _, c := range criteria {
		if c = strings.TrimSpace(c); c != "" {
			b.WriteString("- ")
			b.WriteString(c)
			b.WriteString("\n")
		}
	}
	if b.Len() == 0 {
		return defaultCriteria
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func orDefault(value, fallback string) string {
	if value = strings.TrimSpace(value); value != "" {
		return value
	}
	return fallback
}
