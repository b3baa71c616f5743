// Package fake provides a scripted LLM suitable for unit tests.
package fake

import (
	"context"
	"errors"
	"sync"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
)

// ErrExhausted is returned once every scripted reply has been consumed.
var ErrExhausted = errors.New("fake llm: no scripted replies left")

// Call records one Generate invocation.
type Call struct {
	Messages []llm.Message
	Opts     map[string]any
}

// Reply is a scripted outcome. A non-nil Err wins over Text.
type Reply struct {
	Text string
	Err  error
}

// LLM replays replies in order.
type LLM struct {
	mu      sync.Mutex
	replies []Reply
	calls   []Call
	block   bool
}

// New returns a fake that answers with the given texts in order.
func New(texts ...string) *LLM {
	f := &LLM{}
	for _, t := range texts {
		f.replies = append(f.replies, Reply{Text: t})
	}
	return f
}

// Blocking returns a fake whose Generate waits for ctx to end.
func Blocking() *LLM { return &LLM{block: true} }

// Push appends more scripted replies.
func (f *LLM) Push(r ...Reply) {
	f.mu.Lock()
	f.replies = append(f.replies, r...)
	f.mu.Unlock()
}

func (f *LLM) Name() string { return "fake" }

func (f *LLM) Generate(ctx context.Context, messages []llm.Message, opts map[string]any) (llm.GenerateResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, Call{Messages: append([]llm.Message(nil), messages...), Opts: opts})
	block := f.block
	var (
		r  Reply
		ok bool
	)
	if len(f.replies) > 0 {
		r, f.replies, ok = f.replies[0], f.replies[1:], true
	}
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return llm.GenerateResult{}, ctx.Err()
	}
	if !ok {
		return llm.GenerateResult{}, ErrExhausted
	}
	if r.Err != nil {
		return llm.GenerateResult{}, r.Err
	}
	n := len(r.Text) / 4
	return llm.GenerateResult{Text: r.Text, OutputTokens: n, TotalTokens: n, Model: "fake"}, nil
}

// Calls returns a copy of the recorded invocations.
func (f *LLM) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}
