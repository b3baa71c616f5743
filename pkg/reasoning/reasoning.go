// Package reasoning is the single door to the language model. Callers send a
// system prompt, a user prompt and a temperature and get back one decoded
// JSON object or an error.
package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/logger"
)

const (
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
)

// Request is one structured completion call.
type Request struct {
	// Agent labels the call in traces and logs.
	Agent        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// Response carries the decoded object plus provider bookkeeping.
type Response struct {
	Object       map[string]any
	Raw          string
	Model        string
	PromptTokens int
	OutputTokens int
}

// Gateway produces a JSON object for a request.
type Gateway interface {
	Complete(ctx context.Context, req Request) (Response, error)
}

// LLMGateway implements Gateway on top of a chat provider.
type LLMGateway struct {
	model     llm.LLM
	timeout   time.Duration
	maxTokens int
	log       *logger.Logger
}

type Option func(*LLMGateway)

// WithTimeout bounds every call. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(g *LLMGateway) {
		if d > 0 {
			g.timeout = d
		}
	}
}

func WithMaxTokens(n int) Option { return func(g *LLMGateway) { g.maxTokens = n } }

func WithLogger(l *logger.Logger) Option {
	return func(g *LLMGateway) {
		if l != nil {
			g.log = l
		}
	}
}

func NewLLMGateway(m llm.LLM, opts ...Option) *LLMGateway {
	g := &LLMGateway{model: m, timeout: DefaultTimeout, log: logger.Nop()}
	for _, o := range opts {
		o(g)
	}
	g.log = g.log.With("component", "reasoning", "provider", m.Name())
	return g
}

func (g *LLMGateway) Complete(ctx context.Context, req Request) (Response, error) {
	ctx, span := otel.Tracer("reasoning").Start(ctx, "reasoning.Complete", trace.WithAttributes(
		attribute.String("agent", req.Agent),
		attribute.String("llm.provider", g.model.Name()),
		attribute.Float64("llm.temperature", req.Temperature),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	msgs := []llm.Message{
		{Role: llm.RoleSystem, Content: req.SystemPrompt},
		{Role: llm.RoleUser, Content: req.UserPrompt},
	}
	opts := map[string]any{llm.OptTemperature: req.Temperature, llm.OptJSON: true}
	if g.maxTokens > 0 {
		opts[llm.OptMaxTokens] = g.maxTokens
	}

	start := time.Now()
	res, err := g.model.Generate(ctx, msgs, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate")
		ectx := map[string]any{"agent": req.Agent, "provider": g.model.Name()}
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			g.log.Warn("reasoning timed out", "agent", req.Agent, "timeout", g.timeout.String())
			return Response{}, errmodel.Network("reasoning_timeout", "reasoning call timed out after "+g.timeout.String(), ectx, err)
		}
		g.log.Warn("reasoning call failed", "agent", req.Agent, "error", err)
		return Response{}, errmodel.Network("reasoning_unavailable", err.Error(), ectx, nil)
	}

	obj, err := DecodeObject(res.Text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode")
		g.log.Warn("reasoning returned non-JSON output", "agent", req.Agent, "bytes", len(res.Text))
		return Response{}, err
	}
	span.SetAttributes(
		attribute.Int("llm.prompt_tokens", res.PromptTokens),
		attribute.Int("llm.output_tokens", res.OutputTokens),
	)
	g.log.Debug("reasoning complete", "agent", req.Agent, "model", res.Model, "elapsed_ms", time.Since(start).Milliseconds())
	return Response{
		Object:       obj,
		Raw:          res.Text,
		Model:        res.Model,
		PromptTokens: res.PromptTokens,
		OutputTokens: res.OutputTokens,
	}, nil
}

// DecodeObject extracts one JSON object from model text. Markdown code fences
// and prose around the outermost braces are tolerated.
func DecodeObject(text string) (map[string]any, error) {
	s := strings.TrimSpace(text)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```")
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:] // drop the language tag line
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	open, end := strings.IndexByte(s, '{'), strings.LastIndexByte(s, '}')
	if open < 0 || end < open {
		return nil, errmodel.Model("invalid_json", "response contains no JSON object", map[string]any{"preview": preview(text)}, nil)
	}
	var obj map[string]any
	if err := json.Unmarshal([]byte(s[open:end+1]), &obj); err != nil {
		return nil, errmodel.Model("invalid_json", "response is not a JSON object", map[string]any{"preview": preview(text)}, err)
	}
	return obj, nil
}

func preview(s string) string {
	if len(s) > 120 {
		return s[:120]
	}
	return s
}

// Disabled is used when no provider is configured. Every call fails with a
// policy error so callers fall back to deterministic behaviour.
type Disabled struct{}

func (Disabled) Complete(context.Context, Request) (Response, error) {
	return Response{}, errmodel.Policy("reasoning_disabled", "no reasoning provider is configured", nil)
}
