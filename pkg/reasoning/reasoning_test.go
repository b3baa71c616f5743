package reasoning

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
	"github.com/wilhg/wellagent/pkg/adapters/llm/fake"
	"github.com/wilhg/wellagent/pkg/errmodel"
)

func TestComplete_SendsPromptsAndDecodes(t *testing.T) {
	f := fake.New(`{"reasoning":"ok","action":{"type":"continue"},"confidence":0.9}`)
	g := NewLLMGateway(f, WithMaxTokens(300))

	res, err := g.Complete(context.Background(), Request{Agent: "adaptation", SystemPrompt: "sys", UserPrompt: "user", Temperature: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Object["reasoning"])
	assert.Equal(t, 0.9, res.Object["confidence"])

	calls := f.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, []llm.Message{{Role: llm.RoleSystem, Content: "sys"}, {Role: llm.RoleUser, Content: "user"}}, calls[0].Messages)
	assert.Equal(t, 0.5, calls[0].Opts[llm.OptTemperature])
	assert.Equal(t, true, calls[0].Opts[llm.OptJSON])
	assert.Equal(t, 300, calls[0].Opts[llm.OptMaxTokens])
}

func TestComplete_Timeout(t *testing.T) {
	g := NewLLMGateway(fake.Blocking(), WithTimeout(20*time.Millisecond))
	_, err := g.Complete(context.Background(), Request{Agent: "monitoring"})
	require.Error(t, err)
	ce := errmodel.From(err)
	assert.Equal(t, errmodel.CategoryNetwork, ce.Category)
	assert.Equal(t, "reasoning_timeout", ce.Code)
}

func TestComplete_ProviderError(t *testing.T) {
	f := fake.New()
	f.Push(fake.Reply{Err: errors.New("rate limited")})
	_, err := NewLLMGateway(f).Complete(context.Background(), Request{})
	ce := errmodel.From(err)
	assert.Equal(t, "reasoning_unavailable", ce.Code)
	assert.Contains(t, ce.Message, "rate limited")
}

func TestComplete_NonJSON(t *testing.T) {
	_, err := NewLLMGateway(fake.New("I cannot help with that")).Complete(context.Background(), Request{})
	ce := errmodel.From(err)
	assert.Equal(t, errmodel.CategoryModel, ce.Category)
	assert.Equal(t, "invalid_json", ce.Code)
}

func TestDecodeObject(t *testing.T) {
	cases := map[string]string{
		"plain":  `{"a":1}`,
		"fenced": "```json\n{\"a\":1}\n```",
		"prose":  "Here you go: {\"a\":1} hope it helps",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			obj, err := DecodeObject(in)
			require.NoError(t, err)
			assert.Equal(t, float64(1), obj["a"])
		})
	}
	_, err := DecodeObject("[1,2]")
	assert.Error(t, err)
}

func TestDisabled(t *testing.T) {
	_, err := Disabled{}.Complete(context.Background(), Request{})
	assert.Equal(t, errmodel.CategoryPolicy, errmodel.From(err).Category)
}
