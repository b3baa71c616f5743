package llm

import (
	"context"
	"testing"
)

type nopLLM struct{}

func (nopLLM) Name() string { return "nop" }
func (nopLLM) Generate(context.Context, []Message, map[string]any) (GenerateResult, error) {
	return GenerateResult{Text: "{}"}, nil
}

func TestRegistry(t *testing.T) {
	if err := Register("test-nop", func(context.Context, map[string]any) (LLM, error) { return nopLLM{}, nil }); err != nil {
		t.Fatal(err)
	}
	if err := Register("test-nop", func(context.Context, map[string]any) (LLM, error) { return nopLLM{}, nil }); err == nil {
		t.Fatal("duplicate registration must fail")
	}
	m, err := New(context.Background(), "test-nop", nil)
	if err != nil || m.Name() != "nop" {
		t.Fatalf("m=%v err=%v", m, err)
	}
	if _, err := New(context.Background(), "missing", nil); err == nil {
		t.Fatal("unknown provider must fail")
	}
}

func TestOptionReaders(t *testing.T) {
	opts := map[string]any{OptTemperature: 0.5, OptMaxTokens: 256, OptJSON: true, OptModel: "m"}
	if v, ok := Float(opts, OptTemperature); !ok || v != 0.5 {
		t.Fatalf("temperature=%v", v)
	}
	if v, ok := Int(opts, OptMaxTokens); !ok || v != 256 {
		t.Fatalf("max tokens=%v", v)
	}
	if !Bool(opts, OptJSON) {
		t.Fatal("json flag")
	}
	if v, ok := String(opts, OptModel); !ok || v != "m" {
		t.Fatalf("model=%v", v)
	}
	if _, ok := Float(nil, OptTemperature); ok {
		t.Fatal("nil opts must read as absent")
	}
}
