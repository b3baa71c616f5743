package eval

import (
	"context"
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

const goalCase = `{
  "name": "goal from intent",
  "agent": "goal-formulation",
  "userId": "u1",
  "now": "2026-03-02T08:00:00Z",
  "data": {"intent": "run 5km"},
  "seed": {"profile": {"userId": "u1", "primaryIntent": "get fit", "availableTime": 45}},
  "reply": {"reasoning": "ok", "action": {"goal": {"title": "Run 5K", "targetValue": 12}}, "confidence": 0.8},
  "expect": {"success": true, "action_type": "create_goal", "min_confidence": 0.75, "prompt_contains": ["run 5km", "45 minutes"], "model_calls": 1}
}`

const planningWithoutGoal = `{
  "agent": "planning",
  "userId": "u1",
  "data": {},
  "expect": {"success": false, "model_calls": 0}
}`

const quietWindow = `{
  "name": "nothing logged",
  "agent": "monitoring",
  "userId": "u2",
  "now": "2026-03-02T08:00:00Z",
  "reply": "{\"reasoning\":\"no data\",\"action\":{},\"confidence\":0.6,\"metadata\":{\"requiresAdaptation\":true}}",
  "expect": {"success": true, "action_type": "monitoring_report", "metadata": {"requiresAdaptation": true, "urgency": "low"}, "prompt_contains": ["No activity has been logged"]}
}`

func TestEvaluateAgentFixtures(t *testing.T) {
	fsys := fstest.MapFS{
		"cases/goal.json":     {Data: []byte(goalCase)},
		"cases/planning.json": {Data: []byte(planningWithoutGoal)},
		"cases/quiet.json":    {Data: []byte(quietWindow)},
		"cases/README.md":     {Data: []byte("ignored")},
	}
	rep, err := EvaluateAgentFixtures(context.Background(), fsys, "cases", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Total != 3 || rep.Passed != 3 || rep.Score != 1 {
		t.Fatalf("report=%+v", rep)
	}
}

func TestEvaluateAgentFixtures_Failures(t *testing.T) {
	wrong := strings.Replace(goalCase, `"action_type": "create_goal"`, `"action_type": "adapt_plan"`, 1)
	fsys := fstest.MapFS{
		"cases/wrong.json":   {Data: []byte(wrong)},
		"cases/unknown.json": {Data: []byte(`{"name":"astro","agent":"astrology"}`)},
	}
	rep, err := EvaluateAgentFixtures(context.Background(), fsys, "cases", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Total != 2 || rep.Passed != 0 || rep.Score != 0 {
		t.Fatalf("report=%+v", rep)
	}
	joined := strings.Join(rep.Details, "\n")
	for _, want := range []string{`goal from intent: action type "create_goal" want "adapt_plan"`, "astro: unknown agent astrology"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("details %q missing %q", joined, want)
		}
	}
}

func TestEvaluateAgentFixtures_EmptyDir(t *testing.T) {
	rep, err := EvaluateAgentFixtures(context.Background(), fstest.MapFS{"cases/x.txt": {Data: []byte("-")}}, "cases", nil)
	if err != nil {
		t.Fatal(err)
	}
	if rep.Score != 1 || rep.Total != 0 {
		t.Fatalf("report=%+v", rep)
	}
	_, err = EvaluateAgentFixtures(context.Background(), fstest.MapFS{}, "missing", nil)
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("err=%v", err)
	}
}
