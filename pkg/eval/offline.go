// Package eval scores agents offline against recorded cases. Each case
// seeds a store, scripts the model reply and states what the agent must
// send and return.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/wilhg/wellagent/pkg/adapters/llm/fake"
	"github.com/wilhg/wellagent/pkg/agent"
	"github.com/wilhg/wellagent/pkg/prompt"
	"github.com/wilhg/wellagent/pkg/reasoning"
	"github.com/wilhg/wellagent/pkg/store/memstore"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// Fixture is one evaluation case.
type Fixture struct {
	Name   string         `json:"name"`
	Agent  string         `json:"agent"`
	UserID string         `json:"userId"`
	Now    time.Time      `json:"now"`
	Data   map[string]any `json:"data"`
	Seed   Seed           `json:"seed"`
	// Reply is the scripted model answer. It is sent verbatim when it is a
	// string and JSON-encoded otherwise.
	Reply  any         `json:"reply"`
	Expect Expectation `json:"expect"`
}

type Seed struct {
	Profile    *wellness.Profile          `json:"profile,omitempty"`
	Goals      []wellness.Goal            `json:"goals,omitempty"`
	Plans      []wellness.Plan            `json:"plans,omitempty"`
	Monitoring []wellness.MonitoringEntry `json:"monitoring,omitempty"`
}

type Expectation struct {
	Success           *bool          `json:"success,omitempty"`
	ActionType        string         `json:"action_type,omitempty"`
	MinConfidence     float64        `json:"min_confidence,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
	PromptContains    []string       `json:"prompt_contains,omitempty"`
	PromptNotContains []string       `json:"prompt_not_contains,omitempty"`
	// ModelCalls, when set, is the exact number of model calls expected.
	ModelCalls *int `json:"model_calls,omitempty"`
}

// Report summarises a run. Score is Passed/Total, or 1 with no cases.
type Report struct {
	Score   float64  `json:"score"`
	Total   int      `json:"total"`
	Passed  int      `json:"passed"`
	Details []string `json:"details,omitempty"`
}

// EvaluateAgentFixtures loads every .json case of dir and runs it against a
// fresh in-memory store. prompts may be nil for the built-in set.
func EvaluateAgentFixtures(ctx context.Context, fsys fs.FS, dir string, prompts *prompt.Store) (Report, error) {
	fixtures, err := loadFixtures(fsys, dir)
	if err != nil {
		return Report{}, err
	}
	if prompts == nil {
		prompts = prompt.Defaults()
	}
	rep := Report{Total: len(fixtures), Score: 1}
	for _, fx := range fixtures {
		problems := runFixture(ctx, fx, prompts)
		if len(problems) == 0 {
			rep.Passed++
			continue
		}
		for _, p := range problems {
			rep.Details = append(rep.Details, fx.Name+": "+p)
		}
	}
	if rep.Total > 0 {
		rep.Score = float64(rep.Passed) / float64(rep.Total)
	}
	return rep, nil
}

func runFixture(ctx context.Context, fx Fixture, prompts *prompt.Store) []string {
	kind, ok := agent.ParseKind(fx.Agent)
	if !ok {
		return []string{"unknown agent " + fx.Agent}
	}
	now := fx.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	st := memstore.New()
	if err := seed(ctx, st, fx.Seed); err != nil {
		return []string{"seed: " + err.Error()}
	}

	model := fake.New()
	if fx.Reply != nil {
		text, ok := fx.Reply.(string)
		if !ok {
			b, err := json.Marshal(fx.Reply)
			if err != nil {
				return []string{"reply: " + err.Error()}
			}
			text = string(b)
		}
		model.Push(fake.Reply{Text: text})
	}
	agents := agent.New(agent.Deps{
		Gateway: reasoning.NewLLMGateway(model),
		Store:   st,
		Prompts: prompts,
		Now:     func() time.Time { return now },
	})
	out := agents[kind].Execute(ctx, agent.Context{UserID: fx.UserID, Timestamp: now, Data: fx.Data})

	var problems []string
	e := fx.Expect
	if e.Success != nil && out.Success != *e.Success {
		problems = append(problems, fmt.Sprintf("success=%v want %v (%s)", out.Success, *e.Success, out.Reasoning))
	}
	if e.ActionType != "" {
		if got, _ := out.Action["type"].(string); got != e.ActionType {
			problems = append(problems, fmt.Sprintf("action type %q want %q", got, e.ActionType))
		}
	}
	if out.Confidence < e.MinConfidence {
		problems = append(problems, fmt.Sprintf("confidence %.2f below %.2f", out.Confidence, e.MinConfidence))
	}
	for _, k := range sortedKeys(e.Metadata) {
		if fmt.Sprint(out.Metadata[k]) != fmt.Sprint(e.Metadata[k]) {
			problems = append(problems, fmt.Sprintf("metadata %s=%v want %v", k, out.Metadata[k], e.Metadata[k]))
		}
	}

	calls := model.Calls()
	if e.ModelCalls != nil && len(calls) != *e.ModelCalls {
		problems = append(problems, fmt.Sprintf("model calls %d want %d", len(calls), *e.ModelCalls))
	}
	var sent strings.Builder
	for _, c := range calls {
		for _, m := range c.Messages {
			sent.WriteString(m.Content)
			sent.WriteByte('\n')
		}
	}
	for _, s := range e.PromptContains {
		if !strings.Contains(sent.String(), s) {
			problems = append(problems, "prompt missing: "+s)
		}
	}
	for _, s := range e.PromptNotContains {
		if strings.Contains(sent.String(), s) {
			problems = append(problems, "prompt unexpectedly contains: "+s)
		}
	}
	return problems
}

func seed(ctx context.Context, st *memstore.Store, s Seed) error {
	if s.Profile != nil {
		if _, err := st.UpsertProfile(ctx, *s.Profile); err != nil {
			return err
		}
	}
	for _, g := range s.Goals {
		if _, err := st.CreateGoal(ctx, g); err != nil {
			return err
		}
	}
	for _, p := range s.Plans {
		if _, err := st.CreateActivePlan(ctx, p); err != nil {
			return err
		}
	}
	for _, m := range s.Monitoring {
		if _, err := st.AppendMonitoring(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

func loadFixtures(fsys fs.FS, dir string) ([]Fixture, error) {
	var out []Fixture
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := fs.ReadFile(fsys, path.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		var fx Fixture
		if err := json.Unmarshal(b, &fx); err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		if fx.Name == "" {
			fx.Name = strings.TrimSuffix(e.Name(), ".json")
		}
		out = append(out, fx)
	}
	return out, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
