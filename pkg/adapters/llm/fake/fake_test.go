package fake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wilhg/wellagent/pkg/adapters/llm"
)

func TestScriptedReplies(t *testing.T) {
	boom := errors.New("boom")
	f := New(`{"a":1}`)
	f.Push(Reply{Err: boom})

	res, err := f.Generate(context.Background(), []llm.Message{{Role: llm.RoleUser, Content: "x"}}, nil)
	if err != nil || res.Text != `{"a":1}` {
		t.Fatalf("res=%+v err=%v", res, err)
	}
	if _, err := f.Generate(context.Background(), nil, nil); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	if _, err := f.Generate(context.Background(), nil, nil); !errors.Is(err, ErrExhausted) {
		t.Fatalf("want exhausted, got %v", err)
	}
	if got := len(f.Calls()); got != 3 {
		t.Fatalf("calls=%d", got)
	}
}

func TestBlockingHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := Blocking().Generate(ctx, nil, nil); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want deadline exceeded, got %v", err)
	}
}
