package agent

import (
	"context"
	"fmt"
)

// Explainability turns a decision into a user-facing explanation. It only
// reads the decision; callers hand it a copy.
type Explainability struct{ base }

func NewExplainability(d Deps) *Explainability {
	return &Explainability{newBase(KindExplainability, d, explanationSchema, normalizeExplanation)}
}

func (a *Explainability) Execute(ctx context.Context, c Context) Output {
	decision, ok := c.Data[DataDecision]
	if !ok || decision == nil {
		return a.fail(fmt.Errorf("decision is required"))
	}
	prompt, err := a.render(explanationPrompt, struct {
		Decision, UserContext any
	}{decision, c.Data[DataUserContext]})
	if err != nil {
		return a.fail(err)
	}
	return a.reason(ctx, c, prompt, defaultTemperature)
}

func normalizeExplanation(action, _ map[string]any) {
	stringList(action, "why", "alternatives")
	setDefault(action, "userControl", "You can accept, reject or change this at any time.")
}
