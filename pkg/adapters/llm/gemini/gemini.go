package gemini

import (
	"context"
	"fmt"
	"os"
	"strings"

	genai "google.golang.org/genai"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
)

const defaultModel = "gemini-2.5-flash-lite"

type clientWrapper struct {
	client *genai.Client
	model  string
}

func (c *clientWrapper) Name() string { return "gemini" }

func (c *clientWrapper) Generate(ctx context.Context, messages []llm.Message, opts map[string]any) (llm.GenerateResult, error) {
	model := c.model
	if v, ok := llm.String(opts, llm.OptModel); ok {
		model = v
	}

	var (
		system   []string
		contents []*genai.Content
	)
	for _, m := range messages {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			contents = append(contents, &genai.Content{Role: genai.RoleModel, Parts: []*genai.Part{{Text: m.Content}}})
		default:
			contents = append(contents, &genai.Content{Role: genai.RoleUser, Parts: []*genai.Part{{Text: m.Content}}})
		}
	}

	config := &genai.GenerateContentConfig{}
	if len(system) > 0 {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: strings.Join(system, "\n\n")}}}
	}
	if t, ok := llm.Float(opts, llm.OptTemperature); ok {
		config.Temperature = genai.Ptr(float32(t))
	}
	if n, ok := llm.Int(opts, llm.OptMaxTokens); ok && n > 0 {
		config.MaxOutputTokens = int32(n)
	}
	if llm.Bool(opts, llm.OptJSON) {
		config.ResponseMIMEType = "application/json"
	}

	res, err := c.client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return llm.GenerateResult{}, err
	}
	out := llm.GenerateResult{Text: res.Text(), Model: model}
	if u := res.UsageMetadata; u != nil {
		out.PromptTokens = int(u.PromptTokenCount)
		out.OutputTokens = int(u.CandidatesTokenCount)
		out.TotalTokens = int(u.TotalTokenCount)
	}
	return out, nil
}

// Factory creates a Gemini LLM client using GOOGLE_API_KEY by default.
func Factory(ctx context.Context, cfg map[string]any) (llm.LLM, error) { // nolint: revive
	apiKey := os.Getenv("GOOGLE_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: missing API key; set GOOGLE_API_KEY or cfg.api_key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey, Backend: genai.BackendGeminiAPI})
	if err != nil {
		return nil, err
	}
	model := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		model = v
	}
	return &clientWrapper{client: client, model: model}, nil
}

func init() {
	_ = llm.Register("gemini", Factory)
}
