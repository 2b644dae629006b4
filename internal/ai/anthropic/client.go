package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/logger"
)

const (
	defaultModel     = "claude-sonnet-4-20250514"
	defaultMaxTokens = 2048
	providerName     = "anthropic"
)

type messenger interface {
	New(ctx context.Context, body anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// Generator implements ai.TextGenerator over the Anthropic Messages API.
type Generator struct {
	messages messenger
	model    string
	retrier  ai.Retrier

	temperature float64
	maxTokens   int64
}

func NewGenerator(apiKey, model string, maxRetries int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("anthropic api key is required")
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	// The SDK retries on its own; ai.Retrier owns the policy here.
	client := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))

	return &Generator{
		messages: &client.Messages,
		model:    model,
		retrier:  ai.Retrier{Attempts: maxRetries, Logger: logger.WithCommonFields(log, providerName, model)},
	}, nil
}

func (g *Generator) WithOptions(opts ai.GenerationOptions) ai.TextGenerator {
	c := *g
	c.temperature = opts.Temperature
	c.maxTokens = int64(opts.MaxOutputTokens)
	return &c
}

func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	maxTokens := g.maxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(message)),
		},
	}
	if system = strings.TrimSpace(system); system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	if g.temperature > 0 {
		params.Temperature = anthropic.Float(g.temperature)
	}

	return g.retrier.Do(ctx, func(ctx context.Context) (string, error) {
		msg, err := g.messages.New(ctx, params)
		if err != nil {
			return "", classify(err)
		}
		return extractText(msg)
	})
}

func (g *Generator) Model() string { return g.model }

func extractText(msg *anthropic.Message) (string, error) {
	var parts []string
	for _, block := range msg.Content {
		if block.Type == "text" {
			if text := strings.TrimSpace(block.Text); text != "" {
				parts = append(parts, text)
			}
		}
	}
	if len(parts) == 0 {
		return "", errors.New("anthropic api returned no text content")
	}
	return strings.Join(parts, "\n"), nil
}

func classify(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("create message: %w", err)
	}

	if apiErr.StatusCode != http.StatusTooManyRequests && apiErr.StatusCode < http.StatusInternalServerError {
		return fmt.Errorf("create message: %w", err)
	}

	return &ai.TemporaryError{
		StatusCode: apiErr.StatusCode,
		RetryAfter: retryAfter(apiErr.Response),
		Err:        err,
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if resp == nil {
		return 0
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(resp.Header.Get("Retry-After")))
	if err != nil || seconds <= 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
