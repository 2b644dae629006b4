package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/ai/anthropic"
	"github.com/spigell/interview-coach/internal/ai/gemini"
	"github.com/spigell/interview-coach/internal/ai/openai"
	"github.com/spigell/interview-coach/internal/ai/prep"
	"github.com/spigell/interview-coach/internal/coach"
	"github.com/spigell/interview-coach/internal/interview"
	"github.com/spigell/interview-coach/internal/secrets"
	"github.com/spigell/interview-coach/internal/selection"
	"github.com/spigell/interview-coach/internal/store/memory"
	"github.com/spigell/interview-coach/internal/store/sqlite"
)

const (
	providerGemini    = "gemini"
	providerOpenAI    = "openai"
	providerAnthropic = "anthropic"
	providerNone      = "none"
)

var providerKeyEnv = map[string]string{
	providerGemini:    "GEMINI_API_KEY",
	providerOpenAI:    "OPENAI_API_KEY",
	providerAnthropic: "ANTHROPIC_API_KEY",
}

// newTextGenerator builds the configured provider. A nil generator with a nil
// error means AI features are switched off.
func newTextGenerator(ctx context.Context, cfg *AIConfig, logger *zap.Logger) (ai.TextGenerator, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.Provider))
	if provider == "" {
		provider = providerGemini
	}
	if provider == providerNone {
		return nil, nil
	}

	var pc *ProviderConfig
	switch provider {
	case providerGemini:
		pc = cfg.Gemini
	case providerOpenAI:
		pc = cfg.OpenAI
	case providerAnthropic:
		pc = cfg.Anthropic
	default:
		return nil, fmt.Errorf("unsupported ai provider: %s", cfg.Provider)
	}
	if pc == nil {
		pc = &ProviderConfig{}
	}

	apiKey, err := secrets.Load(secrets.Source{
		Name:  provider + " api key",
		Value: pc.APIKey,
		File:  pc.APIKeyFile,
		Env:   providerKeyEnv[provider],
	})
	if err != nil {
		return nil, fmt.Errorf("%w (set ai.%s.api-key-file or %s)", err, provider, providerKeyEnv[provider])
	}

	genLogger := logger.With(zap.Int("ai_retry_attempts", pc.MaxRetries))

	switch provider {
	case providerOpenAI:
		return openai.NewGenerator(apiKey, pc.BaseURL, pc.Model, pc.MaxRetries, genLogger)
	case providerAnthropic:
		return anthropic.NewGenerator(apiKey, pc.Model, pc.MaxRetries, genLogger)
	default:
		return gemini.NewGenerator(ctx, apiKey, pc.Model, pc.MaxRetries, genLogger)
	}
}

// newRepository opens the configured session store. The returned closer is
// never nil.
func newRepository(cfg *StoreConfig) (interview.Repository, *sqlite.Repository, func() error, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "memory":
		return memory.New(), nil, func() error { return nil }, nil
	case "sqlite":
		repo, err := sqlite.Open(cfg.Path, cfg.TTL)
		if err != nil {
			return nil, nil, nil, err
		}
		return repo, repo, repo.Close, nil
	default:
		return nil, nil, nil, fmt.Errorf("unsupported store driver: %s", cfg.Driver)
	}
}

// newCoach wires the directory, the prep adapters and the selection pipeline.
// Without a provider the coach still runs interviews from question banks;
// with optionalAI a provider that fails to initialize is only logged.
func newCoach(ctx context.Context, config *Config, repo interview.Repository, logger *zap.Logger, optionalAI bool, dirOpts ...interview.Option) (*coach.Coach, error) {
	directory := interview.NewDirectory(repo, logger, dirOpts...)
	opts := []coach.Option{
		coach.WithSelection(config.Interview.Selection, selection.Default()),
	}

	gen, err := newTextGenerator(ctx, config.AI, logger)
	if err != nil {
		if !optionalAI {
			return nil, err
		}
		logger.Warn("ai provider unavailable", zap.Error(err))
		gen = nil
	}
	if gen == nil {
		logger.Warn("ai provider disabled; only question banks can be used")
		return coach.New(directory, logger, opts...), nil
	}

	logger.Info("ai provider enabled", zap.String("provider", config.AI.Provider), zap.String("model", gen.Model()))
	maxLog := config.AI.MaxLogLength
	opts = append(opts, coach.WithAI(
		prep.NewAnalyzer(gen, logger, maxLog),
		prep.NewQuestionGenerator(gen, logger, maxLog, config.AI.QuestionCount),
		prep.NewEvaluator(gen, logger, maxLog),
	))
	return coach.New(directory, logger, opts...), nil
}
