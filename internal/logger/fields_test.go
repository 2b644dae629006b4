package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  []StringField
		expect map[string]string
	}{
		{
			name:   "trims keys and values",
			input:  []StringField{{Key: "  provider  ", Value: "  Gemini  "}},
			expect: map[string]string{"provider": "Gemini"},
		},
		{
			name: "skips blank values and keys",
			input: []StringField{
				{Key: "ignored", Value: "   "},
				{Key: "   ", Value: "empty key"},
				{Key: "kept", Value: "yes"},
			},
			expect: map[string]string{"kept": "yes"},
		},
		{
			name:   "no input",
			expect: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			fields := StringFields(tt.input...)
			if len(fields) != len(tt.expect) {
				t.Fatalf("expected %d fields, got %d", len(tt.expect), len(fields))
			}
			for _, f := range fields {
				if tt.expect[f.Key] != f.String {
					t.Fatalf("unexpected field %q=%q", f.Key, f.String)
				}
			}
		})
	}
}

func TestWithFieldsNilLogger(t *testing.T) {
	enriched := WithFields(nil, zap.String("baz", "qux"))
	if enriched == nil {
		t.Fatal("expected fallback logger when nil provided")
	}
	enriched.Info("does not panic")
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), "gemini", "gemini-2.5-pro").Info("model call")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	ctx := entries[0].ContextMap()
	if ctx[FieldProvider] != "gemini" {
		t.Fatalf("expected provider field to be gemini, got %q", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "gemini-2.5-pro" {
		t.Fatalf("unexpected model field: %q", ctx[FieldModel])
	}

	if empty := CommonFields("", ""); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithSession(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithSession(zap.New(core), "s1", "").Info("turn")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldSession] != "s1" {
		t.Fatalf("expected session field, got %v", ctx)
	}
	if _, ok := ctx[FieldCandidate]; ok {
		t.Fatalf("expected empty candidate to be omitted, got %v", ctx)
	}
}
