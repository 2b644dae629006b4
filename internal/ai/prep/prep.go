// Package prep implements the analysis, question generation and feedback
// adapters on top of any ai.TextGenerator.
package prep

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/zap"

	"github.com/spigell/interview-coach/internal/ai"
	"github.com/spigell/interview-coach/internal/logger"
	"github.com/spigell/interview-coach/internal/utils"
)

const defaultMaxLogLength = 200

//go:embed schemas/*.json
var schemaFS embed.FS

var schemaCache sync.Map // name -> *jsonschema.Schema

// caller performs one kind of model call and logs previews of the exchange.
type caller struct {
	adapter   string
	generator ai.TextGenerator
	logger    *zap.Logger
	maxLogLen int
}

func newCaller(adapter string, gen ai.TextGenerator, opts ai.GenerationOptions, log *zap.Logger, maxLogLen int) caller {
	if maxLogLen <= 0 {
		maxLogLen = defaultMaxLogLength
	}
	log = logger.WithFields(log, zap.String(logger.FieldAdapter, adapter))
	return caller{
		adapter:   adapter,
		generator: ai.Tune(gen, opts),
		logger:    log,
		maxLogLen: maxLogLen,
	}
}

func (c caller) call(ctx context.Context, system, message string) (string, error) {
	if c.generator == nil {
		return "", fmt.Errorf("%s: no text generator configured", c.adapter)
	}

	c.logger.Debug("model request",
		zap.String(logger.FieldModel, c.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(message)),
		zap.String("prompt_preview", utils.TruncateForLog(message, c.maxLogLen)),
	)

	raw, err := c.generator.GenerateContent(ctx, system, message)
	if err != nil {
		return "", err
	}

	c.logger.Debug("model response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.maxLogLen)),
	)
	return raw, nil
}

// render substitutes {{KEY}} placeholders in a single pass.
func render(template string, values map[string]string) string {
	pairs := make([]string, 0, len(values)*2)
	for key, value := range values {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

func mustJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// decodeReply strips markdown fences from raw, validates the JSON against the
// named schema and decodes it into out.
func decodeReply(raw, schemaName string, out any) error {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return fmt.Errorf("%w: empty reply", ai.ErrInvalidResponse)
	}

	var parsed any
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}

	schema, err := compiledSchema(schemaName)
	if err != nil {
		return err
	}
	if err := schema.Validate(parsed); err != nil {
		return fmt.Errorf("%w: %s reply does not match schema: %v", ai.ErrInvalidResponse, schemaName, err)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		DecodeHook:       mapstructure.DecodeHookFuncKind(boolToWord),
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(parsed); err != nil {
		return fmt.Errorf("%w: %v", ai.ErrInvalidResponse, err)
	}
	return nil
}

func compiledSchema(name string) (*jsonschema.Schema, error) {
	if cached, ok := schemaCache.Load(name); ok {
		return cached.(*jsonschema.Schema), nil
	}

	data, err := schemaFS.ReadFile("schemas/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("read schema %q: %w", name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", name, err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", name, err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", name, err)
	}

	schemaCache.Store(name, compiled)
	return compiled, nil
}

// boolToWord makes flags such as remote_work readable when the target is a string.
func boolToWord(from, to reflect.Kind, data any) (any, error) {
	if from != reflect.Bool || to != reflect.String {
		return data, nil
	}
	if data.(bool) {
		return "yes", nil
	}
	return "no", nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	} else if start := strings.Index(raw, "```json"); start != -1 {
		raw = raw[start+len("```json"):]
		if end := strings.Index(raw, "```"); end != -1 {
			raw = raw[:end]
		}
	}
	raw = strings.TrimSpace(strings.Trim(raw, "`"))

	// Models sometimes wrap the object in prose.
	if !strings.HasPrefix(raw, "{") {
		start := strings.Index(raw, "{")
		end := strings.LastIndex(raw, "}")
		if start != -1 && end > start {
			raw = raw[start : end+1]
		}
	}
	return raw
}
