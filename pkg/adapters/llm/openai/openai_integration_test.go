//go:build integration

package openai

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
)

func TestOpenAIJSONGenerate(t *testing.T) {
	if os.Getenv("OPENAI_API_KEY") == "" {
		t.Skip("OPENAI_API_KEY not set")
	}
	ctx := context.Background()
	m, err := Factory(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: `Reply with JSON {"reasoning": string, "confidence": number}.`},
		{Role: llm.RoleUser, Content: "Is walking daily sustainable?"},
	}
	res, err := m.Generate(ctx, msgs, map[string]any{llm.OptJSON: true, llm.OptTemperature: 0.2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(res.Text, "{") {
		t.Fatalf("expected a JSON object, got %q", res.Text)
	}
}
