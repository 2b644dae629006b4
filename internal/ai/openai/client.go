package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/logger"
)

const (
	defaultModel = openai.GPT4oMini
	providerName = "openai"
)

type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Generator implements ai.TextGenerator over the OpenAI chat completions API
// and any compatible endpoint configured through baseURL.
type Generator struct {
	client  completer
	model   string
	logger  *zap.Logger
	retrier ai.Retrier

	temperature float32
	maxTokens   int
	jsonOutput  bool
}

func NewGenerator(apiKey, baseURL, model string, maxRetries int, log *zap.Logger) (*Generator, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("openai api key is required")
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
		config.BaseURL = baseURL
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	log = logger.WithCommonFields(log, providerName, model)
	return &Generator{
		client:     openai.NewClientWithConfig(config),
		model:      model,
		logger:     log,
		retrier:    ai.Retrier{Attempts: maxRetries, Logger: log},
		jsonOutput: true,
	}, nil
}

func (g *Generator) WithOptions(opts ai.GenerationOptions) ai.TextGenerator {
	c := *g
	c.temperature = float32(opts.Temperature)
	c.maxTokens = opts.MaxOutputTokens
	return &c
}

func (g *Generator) GenerateContent(ctx context.Context, system, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.New("message must not be empty")
	}

	req := openai.ChatCompletionRequest{
		Model:               g.model,
		Messages:            buildMessages(system, message),
		MaxCompletionTokens: g.maxTokens,
		Temperature:         g.temperature,
	}
	if g.jsonOutput {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	return g.retrier.Do(ctx, func(ctx context.Context) (string, error) {
		resp, err := g.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return "", classify(err)
		}
		if len(resp.Choices) == 0 {
			return "", errors.New("openai api returned no choices")
		}
		content := strings.TrimSpace(resp.Choices[0].Message.Content)
		if content == "" {
			return "", errors.New("openai api returned empty response")
		}
		return content, nil
	})
}

func (g *Generator) Model() string { return g.model }

func buildMessages(system, message string) []openai.ChatCompletionMessage {
	var messages []openai.ChatCompletionMessage
	if system = strings.TrimSpace(system); system != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	return append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: message,
	})
}

func classify(err error) error {
	status := 0
	message := ""

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
		message = apiErr.Message
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	if status == http.StatusTooManyRequests || status >= http.StatusInternalServerError {
		return &ai.TemporaryError{
			StatusCode: status,
			RetryAfter: ai.ParseRetryDelay(message),
			Err:        err,
		}
	}
	return fmt.Errorf("create chat completion: %w", err)
}
