// Package llm defines the provider-neutral chat interface and a registry of
// provider factories. Providers register themselves from init.
package llm

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Message represents a chat message with a role and content.
type Message struct {
	Role    string
	Content string
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Generate option keys understood by every provider.
const (
	OptModel       = "model"       // string, overrides the configured model
	OptTemperature = "temperature" // float64
	OptJSON        = "json"        // bool, request a single JSON object
	OptMaxTokens   = "max_tokens"  // int
)

// GenerateResult contains the model's text output and token usage if available.
type GenerateResult struct {
	Text         string
	PromptTokens int
	OutputTokens int
	TotalTokens  int
	Model        string
}

// LLM defines a minimal chat/text generation interface.
type LLM interface {
	// Name returns provider name (e.g., "openai").
	Name() string
	Generate(ctx context.Context, messages []Message, opts map[string]any) (GenerateResult, error)
}

// Factory constructs an LLM from provider-specific config.
// Common cfg keys: api_key, model.
type Factory func(ctx context.Context, cfg map[string]any) (LLM, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register registers an LLM factory under a provider name.
func Register(name string, f Factory) error {
	if name == "" {
		return fmt.Errorf("llm: empty provider name")
	}
	if f == nil {
		return fmt.Errorf("llm: nil factory for %q", name)
	}
	regMu.Lock()
	defer regMu.Unlock()
	if _, exists := factories[name]; exists {
		return fmt.Errorf("llm: provider %q already registered", name)
	}
	factories[name] = f
	return nil
}

// Resolve gets a registered factory by name.
func Resolve(name string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Providers lists registered provider names in sorted order.
func Providers() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for n := range factories {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// New resolves name and builds the provider.
func New(ctx context.Context, name string, cfg map[string]any) (LLM, error) {
	f, ok := Resolve(name)
	if !ok {
		return nil, fmt.Errorf("llm: unknown provider %q (registered: %v)", name, Providers())
	}
	return f(ctx, cfg)
}

// Float reads a numeric option.
func Float(opts map[string]any, key string) (float64, bool) {
	switch v := opts[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Int reads an integer option.
func Int(opts map[string]any, key string) (int, bool) {
	switch v := opts[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Bool reads a boolean option.
func Bool(opts map[string]any, key string) bool {
	v, _ := opts[key].(bool)
	return v
}

// String reads a non-empty string option.
func String(opts map[string]any, key string) (string, bool) {
	v, ok := opts[key].(string)
	return v, ok && v != ""
}
