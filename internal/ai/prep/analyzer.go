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
	analyzeAdapter     = "analyze"
	analyzeTemperature = 0.1
	analyzeMaxTokens   = 2048
)

var (
	//go:embed prompts/analyze_system.md
	analyzeSystemPrompt string
	//go:embed prompts/analyze.md
	analyzePrompt string
)

// Analyzer turns a free-text job description into vacancy.Info.
type Analyzer struct {
	caller
}

func NewAnalyzer(gen ai.TextGenerator, logger *zap.Logger, maxLogLength int) *Analyzer {
	opts := ai.GenerationOptions{Temperature: analyzeTemperature, MaxOutputTokens: analyzeMaxTokens}
	return &Analyzer{caller: newCaller(analyzeAdapter, gen, opts, logger, maxLogLength)}
}

func (a *Analyzer) Analyze(ctx context.Context, jobDescription string) (*vacancy.Analysis, error) {
	jobDescription = strings.TrimSpace(jobDescription)
	if jobDescription == "" {
		return nil, ai.Input(analyzeAdapter, errors.New("job description is empty"))
	}

	message := render(analyzePrompt, map[string]string{"JOB_DESCRIPTION": jobDescription})
	raw, err := a.call(ctx, analyzeSystemPrompt, message)
	if err != nil {
		return nil, ai.Upstream(analyzeAdapter, err)
	}

	var info vacancy.Info
	if err := decodeReply(raw, "vacancy", &info); err != nil {
		return nil, ai.Upstream(analyzeAdapter, err)
	}

	analysis := vacancy.NewAnalysis(&info)
	a.logger.Info("job description analyzed",
		zap.String("job_title", analysis.Summary.Title),
		zap.String("company", analysis.Summary.Company),
		zap.Strings("key_skills", analysis.Summary.KeySkills),
	)
	return analysis, nil
}
