package prep

import (
	"context"
	_ "embed"
	"errors"
	"strconv"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/vacancy"
)

const (
	generateAdapter      = "generate"
	generateTemperature  = 0.3
	generateMaxTokens    = 2048
	DefaultQuestionCount = 3
)

var (
	//go:embed prompts/questions_system.md
	questionsSystemPrompt string
	//go:embed prompts/questions.md
	questionsPrompt string
)

// QuestionGenerator asks the model for interview questions about a vacancy.
type QuestionGenerator struct {
	caller
	count int
}

func NewQuestionGenerator(gen ai.TextGenerator, logger *zap.Logger, maxLogLength, count int) *QuestionGenerator {
	if count <= 0 {
		count = DefaultQuestionCount
	}
	opts := ai.GenerationOptions{Temperature: generateTemperature, MaxOutputTokens: generateMaxTokens}
	return &QuestionGenerator{
		caller: newCaller(generateAdapter, gen, opts, logger, maxLogLength),
		count:  count,
	}
}

func (g *QuestionGenerator) Generate(ctx context.Context, info *vacancy.Info, c vacancy.Context) (*ai.QuestionSet, error) {
	if info == nil {
		return nil, ai.Input(generateAdapter, errors.New("vacancy information is required"))
	}

	message := render(questionsPrompt, map[string]string{
		"QUESTION_COUNT": strconv.Itoa(g.count),
		"VACANCY_JSON":   mustJSON(info),
		"CONTEXT_JSON":   mustJSON(c),
	})

	raw, err := g.call(ctx, questionsSystemPrompt, message)
	if err != nil {
		return nil, ai.Upstream(generateAdapter, err)
	}

	var set ai.QuestionSet
	if err := decodeReply(raw, "questions", &set); err != nil {
		return nil, ai.Upstream(generateAdapter, err)
	}

	g.logger.Info("interview questions generated",
		zap.Int("requested", g.count),
		zap.Int("received", len(set.Questions)),
		zap.Int("criteria", len(set.EvaluationCriteria)),
	)
	return &set, nil
}
