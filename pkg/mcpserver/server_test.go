package mcpserver

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/orchestrator"
	"github.com/wilhg/wellagent/pkg/wellness"
)

type fakeBackend struct {
	lastAgent string
	lastCtx   agent.Context
}

func (f *fakeBackend) ExecuteAgent(_ context.Context, name string, c agent.Context) (agent.Output, error) {
	f.lastAgent, f.lastCtx = name, c
	if _, ok := agent.ParseKind(name); !ok {
		return agent.Output{}, errmodel.Validation(errmodel.CodeUnknownAgent, "unknown agent type: "+name, nil)
	}
	return agent.Output{Success: true, Reasoning: "fine", Action: map[string]any{"type": "monitoring_report"}, Confidence: 0.8}, nil
}

func (f *fakeBackend) CognitiveCycle(_ context.Context, userID string) (orchestrator.CycleReport, error) {
	return orchestrator.CycleReport{UserID: userID, Skipped: orchestrator.SkipNotRequired}, nil
}

func (f *fakeBackend) DecideAdaptation(_ context.Context, userID, id string, approved bool) (wellness.Adaptation, error) {
	if id != "a1" {
		return wellness.Adaptation{}, errmodel.NotFound("adaptation", id)
	}
	return wellness.Adaptation{ID: id, UserID: userID, UserApproved: &approved}, nil
}

func connect(t *testing.T, b Backend) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	st, ct := mcp.NewInMemoryTransports()
	ss, err := New(b, "test").MCP().Connect(ctx, st, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = ss.Close() })
	cs, err := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "v0"}, nil).Connect(ctx, ct, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func call(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		t.Fatalf("call %s: %v", name, err)
	}
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("content type %T", res.Content[0])
	}
	return tc.Text
}

func TestListTools(t *testing.T) {
	cs := connect(t, &fakeBackend{})
	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	sort.Strings(names)
	if got := strings.Join(names, ","); got != "cognitive_cycle,decide_adaptation,execute_agent" {
		t.Fatalf("tools=%s", got)
	}
}

func TestExecuteAgentTool(t *testing.T) {
	b := &fakeBackend{}
	cs := connect(t, b)

	res := call(t, cs, "execute_agent", map[string]any{
		"agent": "monitoring", "userId": "u1", "timestamp": "2026-05-01T10:00:00Z", "data": map[string]any{"trigger": "manual"},
	})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text(t, res))
	}
	var out agent.Output
	if err := json.Unmarshal([]byte(text(t, res)), &out); err != nil {
		t.Fatal(err)
	}
	if !out.Success || out.Confidence != 0.8 {
		t.Fatalf("output=%+v", out)
	}
	if b.lastCtx.UserID != "u1" || b.lastCtx.Timestamp.Year() != 2026 || b.lastCtx.Data["trigger"] != "manual" {
		t.Fatalf("context=%+v", b.lastCtx)
	}

	res = call(t, cs, "execute_agent", map[string]any{"agent": "astrology", "userId": "u1"})
	if !res.IsError || !strings.Contains(text(t, res), errmodel.CodeUnknownAgent) {
		t.Fatalf("want unknown_agent tool error, got isError=%v %s", res.IsError, text(t, res))
	}
}

func TestCycleAndDecideTools(t *testing.T) {
	cs := connect(t, &fakeBackend{})

	res := call(t, cs, "cognitive_cycle", map[string]any{"userId": "u7"})
	if res.IsError {
		t.Fatalf("unexpected tool error: %s", text(t, res))
	}
	var rep orchestrator.CycleReport
	if err := json.Unmarshal([]byte(text(t, res)), &rep); err != nil {
		t.Fatal(err)
	}
	if rep.UserID != "u7" || rep.Skipped != orchestrator.SkipNotRequired {
		t.Fatalf("report=%+v", rep)
	}

	res = call(t, cs, "decide_adaptation", map[string]any{"userId": "u7", "adaptationId": "nope", "approved": true})
	if !res.IsError || !strings.Contains(text(t, res), errmodel.CodeNotFound) {
		t.Fatalf("want not_found tool error, got isError=%v %s", res.IsError, text(t, res))
	}
}
