package anthropic

import (
	"context"
	"fmt"
	"os"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
)

const (
	defaultModel     = "claude-sonnet-4-5"
	defaultMaxTokens = 4096
)

// The Messages API has no JSON response mode, so JSON requests are steered
// through the system prompt.
const jsonInstruction = "Respond with a single JSON object and nothing else."

type clientWrapper struct {
	client sdk.Client
	model  string
}

func (c *clientWrapper) Name() string { return "anthropic" }

func (c *clientWrapper) Generate(ctx context.Context, messages []llm.Message, opts map[string]any) (llm.GenerateResult, error) {
	model := c.model
	if v, ok := llm.String(opts, llm.OptModel); ok {
		model = v
	}
	maxTokens := defaultMaxTokens
	if n, ok := llm.Int(opts, llm.OptMaxTokens); ok && n > 0 {
		maxTokens = n
	}

	var (
		system []string
		turns  []sdk.MessageParam
	)
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			system = append(system, m.Content)
		case llm.RoleAssistant:
			turns = append(turns, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			turns = append(turns, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}
	if llm.Bool(opts, llm.OptJSON) {
		system = append(system, jsonInstruction)
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(model),
		MaxTokens: int64(maxTokens),
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = []sdk.TextBlockParam{{Text: strings.Join(system, "\n\n")}}
	}
	if t, ok := llm.Float(opts, llm.OptTemperature); ok {
		params.Temperature = sdk.Float(t)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return llm.GenerateResult{}, err
	}
	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	in, out := int(msg.Usage.InputTokens), int(msg.Usage.OutputTokens)
	return llm.GenerateResult{
		Text:         sb.String(),
		PromptTokens: in,
		OutputTokens: out,
		TotalTokens:  in + out,
		Model:        model,
	}, nil
}

// Factory creates an Anthropic client using ANTHROPIC_API_KEY by default.
func Factory(ctx context.Context, cfg map[string]any) (llm.LLM, error) { // nolint: revive
	_ = ctx
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if v, ok := cfg["api_key"].(string); ok && v != "" {
		apiKey = v
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: missing API key; set ANTHROPIC_API_KEY or cfg.api_key")
	}
	model := defaultModel
	if v, ok := cfg["model"].(string); ok && v != "" {
		model = v
	}
	return &clientWrapper{client: sdk.NewClient(option.WithAPIKey(apiKey)), model: model}, nil
}

func init() {
	_ = llm.Register("anthropic", Factory)
}
