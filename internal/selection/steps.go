package selection

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/interview"
)

// toggle carries the enable state shared by every step.
type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type dedupeFilter struct {
	toggle
}

// NewDedupe creates a filter that drops questions whose text repeats an
// earlier one, ignoring case and surrounding whitespace.
func NewDedupe() Filter {
	return &dedupeFilter{}
}

func (f *dedupeFilter) Name() string { return "dedupe" }

func (f *dedupeFilter) Validate(*Config) error { return nil }

func (f *dedupeFilter) Apply(_ context.Context, deps Deps, questions []interview.Question) ([]interview.Question, Step, error) {
	seen := make(map[string]struct{}, len(questions))
	var dropped []string
	out, step := keep(questions, func(q interview.Question) bool {
		key := strings.ToLower(strings.Join(strings.Fields(q.Text), " "))
		if _, ok := seen[key]; ok {
			dropped = append(dropped, q.ID)
			return false
		}
		seen[key] = struct{}{}
		return true
	})

	if deps.Logger != nil && len(dropped) > 0 {
		deps.Logger.Info("dropping duplicate questions",
			zap.Strings("dropped_questions", dropped),
			zap.Int("questions_left", step.Left),
		)
	}
	return out, step, nil
}

func (f *dedupeFilter) Status() Status {
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason}
}

type categoriesFilter struct {
	toggle
	allowed map[interview.Category]struct{}
	names   []string
}

// NewCategories creates a filter that keeps only the configured categories.
// With no categories configured every question passes.
func NewCategories() Filter {
	return &categoriesFilter{}
}

func (f *categoriesFilter) Name() string { return "categories" }

func (f *categoriesFilter) Validate(cfg *Config) error {
	f.allowed = nil
	f.names = nil
	if cfg == nil || len(cfg.Categories) == 0 {
		return nil
	}

	f.allowed = make(map[interview.Category]struct{}, len(cfg.Categories))
	for _, raw := range cfg.Categories {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		c, err := interview.ParseCategory(raw)
		if err != nil {
			return err
		}
		if _, ok := f.allowed[c]; !ok {
			f.names = append(f.names, string(c))
		}
		f.allowed[c] = struct{}{}
	}
	return nil
}

func (f *categoriesFilter) Apply(_ context.Context, deps Deps, questions []interview.Question) ([]interview.Question, Step, error) {
	if len(f.allowed) == 0 {
		n := len(questions)
		return questions, Step{Initial: n, Left: n}, nil
	}

	out, step := keep(questions, func(q interview.Question) bool {
		_, ok := f.allowed[q.Category]
		return ok
	})

	if deps.Logger != nil && step.Dropped > 0 {
		deps.Logger.Info("dropping questions by category",
			zap.Strings("categories", f.names),
			zap.Int("questions_left", step.Left),
		)
	}
	return out, step, nil
}

func (f *categoriesFilter) Status() Status {
	details := map[string]string{}
	if len(f.names) > 0 {
		details["categories"] = strings.Join(f.names, ",")
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type difficultyFilter struct {
	toggle
	min, max interview.Difficulty
}

// NewDifficulty creates a filter that keeps questions within the configured
// difficulty range. Either bound may be left empty.
func NewDifficulty() Filter {
	return &difficultyFilter{}
}

func (f *difficultyFilter) Name() string { return "difficulty" }

func (f *difficultyFilter) Validate(cfg *Config) error {
	f.min, f.max = "", ""
	if cfg == nil {
		return nil
	}

	var err error
	if strings.TrimSpace(cfg.MinDifficulty) != "" {
		if f.min, err = interview.ParseDifficulty(cfg.MinDifficulty); err != nil {
			return fmt.Errorf("min difficulty: %w", err)
		}
	}
	if strings.TrimSpace(cfg.MaxDifficulty) != "" {
		if f.max, err = interview.ParseDifficulty(cfg.MaxDifficulty); err != nil {
			return fmt.Errorf("max difficulty: %w", err)
		}
	}
	if f.min != "" && f.max != "" && f.min.Rank() > f.max.Rank() {
		return fmt.Errorf("min difficulty %s is harder than max difficulty %s", f.min, f.max)
	}
	return nil
}

func (f *difficultyFilter) Apply(_ context.Context, deps Deps, questions []interview.Question) ([]interview.Question, Step, error) {
	if f.min == "" && f.max == "" {
		n := len(questions)
		return questions, Step{Initial: n, Left: n}, nil
	}

	out, step := keep(questions, func(q interview.Question) bool {
		rank := q.Difficulty.Rank()
		if f.min != "" && rank < f.min.Rank() {
			return false
		}
		if f.max != "" && rank > f.max.Rank() {
			return false
		}
		return true
	})

	if deps.Logger != nil && step.Dropped > 0 {
		deps.Logger.Info("dropping questions by difficulty",
			zap.String("min", string(f.min)),
			zap.String("max", string(f.max)),
			zap.Int("questions_left", step.Left),
		)
	}
	return out, step, nil
}

func (f *difficultyFilter) Status() Status {
	details := map[string]string{}
	if f.min != "" {
		details["min"] = string(f.min)
	}
	if f.max != "" {
		details["max"] = string(f.max)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type shuffleFilter struct {
	toggle
	enabled bool
	seed    uint64
}

// NewShuffle creates a step that reorders questions. The same seed always
// produces the same order; a zero seed picks a random one.
func NewShuffle() Filter {
	return &shuffleFilter{}
}

func (f *shuffleFilter) Name() string { return "shuffle" }

func (f *shuffleFilter) Validate(cfg *Config) error {
	f.enabled = cfg != nil && cfg.Shuffle
	f.seed = 0
	if f.enabled {
		f.seed = cfg.Seed
		if f.seed == 0 {
			f.seed = rand.Uint64()
		}
	}
	return nil
}

func (f *shuffleFilter) Apply(_ context.Context, _ Deps, questions []interview.Question) ([]interview.Question, Step, error) {
	n := len(questions)
	if !f.enabled {
		return questions, Step{Initial: n, Left: n}, nil
	}

	out := append([]interview.Question(nil), questions...)
	r := rand.New(rand.NewPCG(f.seed, f.seed>>1|1))
	r.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out, Step{Initial: n, Left: n}, nil
}

func (f *shuffleFilter) Status() Status {
	details := map[string]string{"shuffle": strconv.FormatBool(f.enabled)}
	if f.enabled {
		details["seed"] = strconv.FormatUint(f.seed, 10)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}

type limitFilter struct {
	toggle
	limit int
}

// NewLimit creates a step that keeps at most the configured number of
// questions. Zero means no limit.
func NewLimit() Filter {
	return &limitFilter{}
}

func (f *limitFilter) Name() string { return "limit" }

func (f *limitFilter) Validate(cfg *Config) error {
	f.limit = 0
	if cfg == nil {
		return nil
	}
	if cfg.Limit < 0 {
		return fmt.Errorf("limit must not be negative, got %d", cfg.Limit)
	}
	f.limit = cfg.Limit
	return nil
}

func (f *limitFilter) Apply(_ context.Context, _ Deps, questions []interview.Question) ([]interview.Question, Step, error) {
	n := len(questions)
	if f.limit == 0 || n <= f.limit {
		return questions, Step{Initial: n, Left: n}, nil
	}
	return questions[:f.limit], Step{Initial: n, Dropped: n - f.limit, Left: f.limit}, nil
}

func (f *limitFilter) Status() Status {
	details := map[string]string{}
	if f.limit > 0 {
		details["limit"] = strconv.Itoa(f.limit)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
