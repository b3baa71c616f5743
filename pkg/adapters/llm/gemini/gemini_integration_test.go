//go:build integration

package gemini

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
)

func TestGeminiJSONGenerate(t *testing.T) {
	if os.Getenv("GOOGLE_API_KEY") == "" {
		t.Skip("GOOGLE_API_KEY not set")
	}
	ctx := context.Background()
	m, err := Factory(ctx, map[string]any{})
	if err != nil {
		t.Fatalf("factory: %v", err)
	}
	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: `Reply with JSON {"reasoning": string, "confidence": number}.`},
		{Role: llm.RoleUser, Content: "Is a 10 minute walk a good first habit?"},
	}
	res, err := m.Generate(ctx, msgs, map[string]any{llm.OptJSON: true, llm.OptTemperature: 0.2})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(res.Text), "{") {
		t.Fatalf("expected a JSON object, got %q", res.Text)
	}
}
