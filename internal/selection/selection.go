package selection

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
)

// Filter represents a single selection step applied to questions.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, questions []interview.Question) ([]interview.Question, Step, error)
}

// Deps aggregates dependencies shared across all selection steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a selection step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// Config contains settings consumed by the filters.
type Config struct {
	Categories    []string `mapstructure:"categories"`
	MinDifficulty string   `mapstructure:"min-difficulty"`
	MaxDifficulty string   `mapstructure:"max-difficulty"`
	Shuffle       bool     `mapstructure:"shuffle"`
	Seed          uint64   `mapstructure:"seed"`
	Limit         int      `mapstructure:"limit"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string
	Enabled bool
	Reason  string
	Details map[string]string
}

type statusProvider interface {
	Status() Status
}

// Default returns the standard pipeline in execution order.
func Default() []Filter {
	return []Filter{
		NewDedupe(),
		NewCategories(),
		NewDifficulty(),
		NewShuffle(),
		NewLimit(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run validates every enabled step and then applies them in order. The input
// slice is never modified.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, questions []interview.Question) ([]interview.Question, error) {
	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	current := append([]interview.Question(nil), questions...)
	for _, step := range steps {
		if !step.IsEnabled() {
			logger.Info("selection step disabled", zap.String("name", step.Name()))
			continue
		}

		next, info, err := step.Apply(ctx, deps, current)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		logger.Info("selection step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		current = next
	}

	return current, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}

func keep(questions []interview.Question, pred func(interview.Question) bool) ([]interview.Question, Step) {
	initial := len(questions)
	out := make([]interview.Question, 0, initial)
	for _, q := range questions {
		if pred(q) {
			out = append(out, q)
		}
	}
	return out, Step{Initial: initial, Dropped: initial - len(out), Left: len(out)}
}
