package ai

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/utils"
)

const (
	DefaultAttempts  = 3
	defaultBaseDelay = 2 * time.Second
	defaultMaxDelay  = 30 * time.Second
)

// Retrier repeats a model call while it fails with a TemporaryError. A
// failure announcing a delay longer than MaxDelay is returned immediately.
type Retrier struct {
	// Attempts is the total number of calls, including the first one.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
	// Wait defaults to utils.WaitFor.
	Wait   func(ctx context.Context, d time.Duration) error
	Logger *zap.Logger
}

func (r Retrier) Do(ctx context.Context, call func(ctx context.Context) (string, error)) (string, error) {
	attempts := r.Attempts
	if attempts <= 0 {
		attempts = DefaultAttempts
	}
	maxDelay := r.MaxDelay
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	wait := r.Wait
	if wait == nil {
		wait = utils.WaitFor
	}
	logger := r.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err

		var temp *TemporaryError
		if !errors.As(err, &temp) {
			return "", err
		}
		if attempt == attempts {
			break
		}

		delay := r.backoff(attempt, maxDelay)
		if temp.RetryAfter > 0 {
			if temp.RetryAfter > maxDelay {
				logger.Warn("provider asked to wait longer than allowed, giving up",
					zap.Duration("retry_after", temp.RetryAfter),
					zap.Duration("max_delay", maxDelay),
				)
				return "", err
			}
			delay = temp.RetryAfter
		}

		logger.Warn("temporary model failure, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		if err := wait(ctx, delay); err != nil {
			return "", err
		}
	}

	return "", fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func (r Retrier) backoff(attempt int, maxDelay time.Duration) time.Duration {
	base := r.BaseDelay
	if base <= 0 {
		base = defaultBaseDelay
	}
	delay := base << (attempt - 1)
	if delay <= 0 || delay > maxDelay {
		delay = maxDelay
	}
	jitter := time.Duration(rand.Int64N(int64(delay)/5 + 1))
	return delay + jitter
}

var retryDelayPattern = regexp.MustCompile(`(?i)retry (?:after|in) (\d+(?:\.\d+)?)\s*(?:s\b|sec|second)`)

// ParseRetryDelay extracts delays such as "retry after 60 seconds" or
// "Please retry in 12.5s" from a provider error message.
func ParseRetryDelay(message string) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(message)
	if m == nil {
		return 0
	}
	seconds, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return time.Duration(seconds * float64(time.Second))
}
