package openai

import (
	"context"
	"fmt"
	"os"

	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
)

const defaultModel = "gpt-4o-mini"

type clientWrapper struct {
	client oa.Client
	model  string
}

func (c *clientWrapper) Name() string { return "openai" }

func (c *clientWrapper) Generate(ctx context.Context, messages []llm.Message, opts map[string]any) (llm.GenerateResult, error) {
	model := c.model
	if v, ok := llm.String(opts, llm.OptModel); ok {
		model = v
	}

	mm := make([]oa.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			mm = append(mm, oa.SystemMessage(m.Content))
		case llm.RoleAssistant:
			mm = append(mm, oa.AssistantMessage(m.Content))
		default:
			mm = append(mm, oa.UserMessage(m.Content))
		}
	}

	params := oa.ChatCompletionNewParams{
		Model:    shared.ChatModel(model),
		Messages: mm,
	}
	if t, ok := llm.Float(opts, llm.OptTemperature); ok {
		params.Temperature = oa.Float(t)
	}
	if n, ok := llm.Int(opts, llm.OptMaxTokens); ok && n > 0 {
		params.MaxCompletionTokens = oa.Int(int64(n))
	}
	if llm.Bool(opts, llm.OptJSON) {
		params.ResponseFormat = oa.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return llm.GenerateResult{}, err
	}
	var out string
	if len(resp.Choices) > 0 {
		out = resp.Choices[0].Message.Content
	}
	usage := resp.Usage
	return llm.GenerateResult{
		Text:         out,
		PromptTokens: int(usage.PromptTokens),
		OutputTokens: int(usage.CompletionTokens),
		TotalTokens:  int(usage.TotalTokens),
		Model:        model,
	}, nil
}

// Factory builds the OpenAI provider. cfg keys: api_key, model, base_url.
func Factory(ctx context.Context, cfg map[string]any) (llm.LLM, error) { // nolint: revive
	_ = ctx
	apiKey := os.Getenv("OPENAI_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, fmt.Errorf("openai: missing API key; set OPENAI_API_KEY or cfg.api_key")
	}
	model := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		model = v
	}
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if v, ok := cfg["base_url"].(string); ok && v != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(v))
	}
	return &clientWrapper{client: oa.NewClient(reqOpts...), model: model}, nil
}

func init() {
	_ = llm.Register("openai", Factory)
}
