package agent

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

// MonitoringWindowDays is how far back the monitoring agent looks.
const MonitoringWindowDays = 14

// Monitoring reads the recent activity log and reports the trajectory.
// Its metadata.requiresAdaptation gates the adaptation step of a cycle.
type Monitoring struct{ base }

func NewMonitoring(d Deps) *Monitoring {
	return &Monitoring{newBase(KindMonitoring, d, monitoringSchema, normalizeMonitoring)}
}

func (a *Monitoring) Execute(ctx context.Context, c Context) Output {
	now := c.Timestamp
	if now.IsZero() {
		now = a.deps.Now()
	}
	entries, err := a.deps.Store.ListMonitoring(ctx, store.MonitoringQuery{
		UserID:     c.UserID,
		From:       now.AddDate(0, 0, -MonitoringWindowDays),
		Descending: true,
	})
	if err != nil {
		return a.fail(fmt.Errorf("load monitoring data: %w", err))
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, digest(e))
	}
	prompt, err := a.render(monitoringPrompt, struct {
		Days  int
		Lines []string
	}{MonitoringWindowDays, lines})
	if err != nil {
		return a.fail(err)
	}
	return a.reason(ctx, c, prompt, defaultTemperature)
}

func digest(e wellness.MonitoringEntry) string {
	status := "missed"
	if e.Completed {
		status = "completed"
	}
	parts := []string{e.Date.Format("2006-01-02"), e.ActivityType, status}
	for _, kv := range [][2]string{
		{"energy", e.EnergyLevel},
		{"motivation", e.Motivation},
		{"difficulty", e.Difficulty},
	} {
		if kv[1] != "" {
			parts = append(parts, kv[0]+": "+kv[1])
		}
	}
	if e.Notes != "" {
		parts = append(parts, "notes: "+e.Notes)
	}
	return strings.Join(parts, " | ")
}

var trajectories = map[string]bool{"improving": true, "stable": true, "declining": true}

func normalizeMonitoring(action, meta map[string]any) {
	setDefault(action, "type", "monitoring_report")
	if !trajectories[asString(action["trajectory"])] {
		action["trajectory"] = "stable"
	}
	if n, ok := asNumber(action["adherenceScore"]); ok {
		action["adherenceScore"] = clampPercent(n)
	}
	for _, k := range []string{"streakCount", "consecutiveMisses"} {
		if n, ok := asNumber(action[k]); ok && n >= 0 {
			action[k] = math.Floor(n)
		} else {
			delete(action, k)
		}
	}
	signals := asMap(action["signals"])
	for _, k := range []string{"burnoutRisk", "consistencyScore"} {
		if n, ok := asNumber(signals[k]); ok {
			signals[k] = clampPercent(n)
		} else {
			delete(signals, k)
		}
	}
	action["signals"] = signals
	action["deviations"] = normalizeDeviations(action["deviations"])
	stringList(action, "recommendations")

	meta["requiresAdaptation"] = asBool(meta["requiresAdaptation"])
	setDefault(meta, "urgency", "low")
}

// normalizeDeviations keeps object items and gives each a type and impact.
// A bare string is read as the date of a miss.
func normalizeDeviations(v any) []any {
	items, _ := v.([]any)
	out := make([]any, 0, len(items))
	for _, it := range items {
		var d map[string]any
		switch x := it.(type) {
		case map[string]any:
			d = x
		case string:
			d = map[string]any{"date": x}
		default:
			continue
		}
		setDefault(d, "type", "missed")
		setDefault(d, "impact", "medium")
		out = append(out, d)
	}
	return out
}

func clampPercent(f float64) float64 {
	return math.Max(0, math.Min(100, f))
}

// RequiresAdaptation reads the monitoring gate from an Output.
func RequiresAdaptation(o Output) bool {
	return o.Success && asBool(o.Metadata["requiresAdaptation"])
}
