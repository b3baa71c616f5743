package agent

import (
	"context"
	"fmt"

	"github.com/wilhg/wellagent/pkg/wellness"
)

// Reflection compares intended and actual behaviour over a period.
type Reflection struct{ base }

func NewReflection(d Deps) *Reflection {
	return &Reflection{newBase(KindReflection, d, reflectionSchema, normalizeReflection)}
}

func (a *Reflection) Execute(ctx context.Context, c Context) Output {
	start, ok := timeData(c.Data, DataPeriodStart)
	if !ok {
		return a.fail(fmt.Errorf("periodStart is required"))
	}
	end, ok := timeData(c.Data, DataPeriodEnd)
	if !ok {
		return a.fail(fmt.Errorf("periodEnd is required"))
	}
	if end.Before(start) {
		return a.fail(fmt.Errorf("period ends before it starts"))
	}
	prompt, err := a.render(reflectionPrompt, struct {
		Start, End       string
		Intended, Actual any
		Previous         []string
	}{
		start.Format("2006-01-02"), end.Format("2006-01-02"),
		c.Data[DataIntended], c.Data[DataActual],
		previousSummaries(c.Data[DataPreviousReflections]),
	})
	if err != nil {
		return a.fail(err)
	}
	return a.reason(ctx, c, prompt, defaultTemperature)
}

// previousSummaries accepts pre-rendered strings or stored reflections.
func previousSummaries(v any) []string {
	switch p := v.(type) {
	case []string:
		return p
	case []wellness.Reflection:
		out := make([]string, 0, len(p))
		for _, r := range p {
			out = append(out, SummarizeReflection(r))
		}
		return out
	}
	return nil
}

// SummarizeReflection renders a stored reflection as one prompt line.
func SummarizeReflection(r wellness.Reflection) string {
	return fmt.Sprintf("%s to %s: lessons %v; root causes %v; recommendations %v",
		r.PeriodStart.Format("2006-01-02"), r.PeriodEnd.Format("2006-01-02"),
		r.LessonsLearned, r.RootCauses, r.Recommendations)
}

func normalizeReflection(action, _ map[string]any) {
	setDefault(action, "type", "reflection_report")
	cmp := asMap(action["comparison"])
	if _, ok := asNumber(cmp["variance"]); !ok {
		delete(cmp, "variance")
	}
	action["comparison"] = cmp
	stringList(action, "successFactors", "failureFactors", "externalFactors",
		"patterns", "rootCauses", "lessonsLearned", "recommendations")
	action["heuristicUpdates"] = asMap(action["heuristicUpdates"])
}
