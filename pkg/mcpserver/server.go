// Package mcpserver exposes the agents and the cognitive cycle as MCP tools
// so assistants can drive them over stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/errmodel"
	"github.com/wilhg/wellagent/pkg/logger"
	"github.com/wilhg/wellagent/pkg/orchestrator"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// Backend is what the tools call into; *orchestrator.Orchestrator
// satisfies it.
type Backend interface {
	ExecuteAgent(ctx context.Context, name string, c agent.Context) (agent.Output, error)
	CognitiveCycle(ctx context.Context, userID string) (orchestrator.CycleReport, error)
	DecideAdaptation(ctx context.Context, userID, id string, approved bool) (wellness.Adaptation, error)
}

type ExecuteAgentInput struct {
	Agent     string         `json:"agent" jsonschema:"agent name: goal-formulation, planning, monitoring, adaptation, reflection or explainability"`
	UserID    string         `json:"userId" jsonschema:"id of the user the agent acts for"`
	Timestamp string         `json:"timestamp,omitempty" jsonschema:"RFC3339 time of the request, defaults to now"`
	Data      map[string]any `json:"data,omitempty" jsonschema:"agent specific inputs"`
}

type CycleInput struct {
	UserID string `json:"userId" jsonschema:"id of the user to run the cycle for"`
}

type DecideInput struct {
	UserID       string `json:"userId"`
	AdaptationID string `json:"adaptationId"`
	Approved     bool   `json:"approved" jsonschema:"true to apply the proposal, false to reject it"`
}

type Server struct {
	srv *mcp.Server
	b   Backend
	log *logger.Logger
}

type Option func(*Server)

func WithLogger(l *logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.log = l
		}
	}
}

func New(b Backend, version string, opts ...Option) *Server {
	s := &Server{b: b, log: logger.Nop()}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With("component", "mcpserver")
	s.srv = mcp.NewServer(&mcp.Implementation{Name: "wellagent", Version: version}, nil)

	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "execute_agent",
		Description: "Run one wellness agent and return its output: success, reasoning, action, confidence and metadata.",
	}, s.executeAgent)
	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "cognitive_cycle",
		Description: "Observe a user's recent activity, adapt the plan when needed, explain the decision and reflect when due.",
	}, s.cognitiveCycle)
	mcp.AddTool(s.srv, &mcp.Tool{
		Name:        "decide_adaptation",
		Description: "Approve or reject an adaptation that is waiting for the user.",
	}, s.decideAdaptation)
	return s
}

// MCP returns the underlying SDK server, for custom transports.
func (s *Server) MCP() *mcp.Server { return s.srv }

// ServeStdio serves a single client on stdin/stdout until ctx is done or the
// client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.srv.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) executeAgent(ctx context.Context, _ *mcp.CallToolRequest, in ExecuteAgentInput) (*mcp.CallToolResult, any, error) {
	c := agent.Context{UserID: in.UserID, Data: in.Data}
	if in.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, in.Timestamp)
		if err != nil {
			return failure(errmodel.Validation("invalid_timestamp", "timestamp must be RFC3339", map[string]any{"timestamp": in.Timestamp})), nil, nil
		}
		c.Timestamp = ts
	}
	out, err := s.b.ExecuteAgent(ctx, in.Agent, c)
	if err != nil {
		return failure(err), nil, nil
	}
	return result(out, !out.Success), nil, nil
}

func (s *Server) cognitiveCycle(ctx context.Context, _ *mcp.CallToolRequest, in CycleInput) (*mcp.CallToolResult, any, error) {
	if in.UserID == "" {
		return failure(errmodel.Validation("missing_user", "userId is required", nil)), nil, nil
	}
	rep, err := s.b.CognitiveCycle(ctx, in.UserID)
	if err != nil {
		s.log.Warn("cycle failed", "user_id", in.UserID, "error", err)
		return failure(err), nil, nil
	}
	return result(rep, false), nil, nil
}

func (s *Server) decideAdaptation(ctx context.Context, _ *mcp.CallToolRequest, in DecideInput) (*mcp.CallToolResult, any, error) {
	a, err := s.b.DecideAdaptation(ctx, in.UserID, in.AdaptationID, in.Approved)
	if err != nil {
		return failure(err), nil, nil
	}
	return result(a, false), nil, nil
}

func result(v any, isErr bool) *mcp.CallToolResult {
	b, err := json.Marshal(v)
	if err != nil {
		return failure(err)
	}
	return &mcp.CallToolResult{IsError: isErr, Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}
}

// failure reports err to the client as a tool error rather than a protocol
// error, so the model can read and react to it.
func failure(err error) *mcp.CallToolResult {
	e := errmodel.From(err)
	b, _ := json.Marshal(e)
	return &mcp.CallToolResult{IsError: true, Content: []mcp.Content{&mcp.TextContent{Text: string(b)}}}
}
