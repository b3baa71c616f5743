package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"text/template"
	"time"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/reasoning"
	"github.com/wilhg/wellagent/pkg/wellness"
)

const (
	defaultTemperature = reasoning.DefaultTemperature
	defaultConfidence  = 0.7
)

// Reasoning texts of Outputs that stop before the gateway for lack of state.
const (
	msgNoProfile       = "No wellness profile found"
	msgNoGoalOrProfile = "Goal or profile not found"
)

// normalizer fixes up a decoded action in place. meta is never nil.
type normalizer func(action, meta map[string]any)

// base carries what every agent shares: the reasoning call, schema checks
// and the audit write.
type base struct {
	kind      Kind
	deps      Deps
	log       *logger.Logger
	schema    *jsonschema.Schema
	normalize normalizer
}

func newBase(k Kind, d Deps, schema string, n normalizer) base {
	d = d.withDefaults()
	b := base{kind: k, deps: d, log: d.Log.With("agent", k.String()), normalize: n}
	if schema != "" {
		b.schema = compileSchema(k.String(), schema)
	}
	return b
}

func (b base) Kind() Kind { return b.kind }

// fail builds the failed Output for any error.
func (b base) fail(err error) Output {
	return Output{
		Success:    false,
		Reasoning:  fmt.Sprintf("Error in %s: %v", b.kind, err),
		Action:     map[string]any{},
		Confidence: 0,
	}
}

// missing builds the failed Output for absent upstream state. The message
// is shown as is; store details stay in the log.
func (b base) missing(userID, msg string, err error) Output {
	b.log.Info("precondition not met", "user_id", userID, "reason", msg, "error", err)
	return Output{
		Success:    false,
		Reasoning:  msg,
		Action:     map[string]any{},
		Confidence: 0,
	}
}

func (b base) render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render prompt: %w", err)
	}
	return buf.String(), nil
}

// reason sends prompt to the gateway and turns the reply into an Output.
// An AgentLog row is written before a successful Output is returned; when
// that write fails the Output is downgraded to a failure.
func (b base) reason(ctx context.Context, c Context, prompt string, temperature float64) Output {
	start := time.Now()
	resp, err := b.deps.Gateway.Complete(ctx, reasoning.Request{
		Agent:        b.kind.String(),
		SystemPrompt: b.deps.Prompts.Body(b.kind.String()),
		UserPrompt:   prompt,
		Temperature:  temperature,
	})
	if err != nil {
		b.log.Warn("reasoning failed", "user_id", c.UserID, "error", err)
		return b.fail(err)
	}

	out := Output{
		Success:    true,
		Reasoning:  asString(resp.Object["reasoning"]),
		Action:     asMap(resp.Object["action"]),
		Confidence: confidence(resp.Object["confidence"]),
		Metadata:   asMap(resp.Object["metadata"]),
	}
	if v := violations(b.schema, out.Action); len(v) > 0 {
		out.Metadata["schemaViolations"] = v
		b.log.Info("action failed schema checks", "user_id", c.UserID, "violations", len(v))
	}
	if b.normalize != nil {
		b.normalize(out.Action, out.Metadata)
	}
	if len(out.Metadata) == 0 {
		out.Metadata = nil
	}

	if err := b.audit(ctx, c, prompt, out, time.Since(start)); err != nil {
		b.log.Error("agent log write failed", "user_id", c.UserID, "error", err)
		return b.fail(fmt.Errorf("audit log: %w", err))
	}
	return out
}

func (b base) audit(ctx context.Context, c Context, prompt string, out Output, elapsed time.Duration) error {
	input, err := json.Marshal(map[string]any{"prompt": prompt})
	if err != nil {
		return err
	}
	output, err := json.Marshal(out)
	if err != nil {
		return err
	}
	ms := elapsed.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	_, err = b.deps.Store.AppendAgentLog(ctx, wellness.AgentLog{
		UserID:        c.UserID,
		AgentType:     b.kind.String(),
		Action:        actionLabel(out.Action),
		Input:         string(input),
		Reasoning:     out.Reasoning,
		Output:        string(output),
		ExecutionTime: ms,
		Timestamp:     b.deps.Now(),
	})
	return err
}

func actionLabel(action map[string]any) string {
	if t, ok := action["type"].(string); ok && t != "" {
		return t
	}
	return "reasoning"
}

// confidence reads the model's self-reported confidence. Absent or
// non-numeric values default to 0.7; numbers are clamped to [0,1].
func confidence(v any) float64 {
	f, ok := v.(float64)
	if !ok || math.IsNaN(f) {
		return defaultConfidence
	}
	return clamp01(f)
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

// asMap returns v as an object, or a fresh empty map.
func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok && m != nil {
		return m
	}
	return map[string]any{}
}

func asBool(v any) bool {
	b, _ := v.(bool)
	return b
}

func asNumber(v any) (float64, bool) {
	f, ok := v.(float64)
	return f, ok && !math.IsNaN(f)
}

// setDefault stores def under key when the current value is missing or empty.
func setDefault(m map[string]any, key string, def any) {
	switch v := m[key].(type) {
	case nil:
		m[key] = def
	case string:
		if v == "" {
			m[key] = def
		}
	}
}

// ensureList replaces a missing or non-array value with an empty list.
func ensureList(m map[string]any, keys ...string) {
	for _, k := range keys {
		if _, ok := m[k].([]any); !ok {
			m[k] = []any{}
		}
	}
}

func timeData(data map[string]any, key string) (time.Time, bool) {
	switch v := data[key].(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		t, err := time.Parse(time.RFC3339, v)
		return t, err == nil
	}
	return time.Time{}, false
}

func stringData(data map[string]any, key string) string {
	s, _ := data[key].(string)
	return s
}

func intData(data map[string]any, key string, def int) int {
	switch v := data[key].(type) {
	case int:
		if v > 0 {
			return v
		}
	case float64:
		if v >= 1 {
			return int(v)
		}
	}
	return def
}
