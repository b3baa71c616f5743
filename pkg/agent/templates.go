package agent

import (
	"encoding/json"
	"strings"
	"text/template"
)

var funcs = template.FuncMap{
	"join": func(items []string) string {
		if len(items) == 0 {
			return "none"
		}
		return strings.Join(items, ", ")
	},
	"fallback": func(s, def string) string {
		if strings.TrimSpace(s) == "" {
			return def
		}
		return s
	},
	"json": func(v any) (string, error) {
		b, err := json.MarshalIndent(v, "", "  ")
		return string(b), err
	},
}

func mustTemplate(name, text string) *template.Template {
	return template.Must(template.New(name).Funcs(funcs).Option("missingkey=zero").Parse(text))
}

var goalPrompt = mustTemplate("goal", `Formulate a goal for this person.

Intent: {{.Intent}}
Available time: {{.Profile.AvailableTime}} minutes per day
Energy level: {{fallback (print .Profile.EnergyLevel) "unknown"}}
Current routine: {{fallback .Profile.CurrentRoutine "not described"}}
Barriers: {{join .Profile.Barriers}}
Motivation style: {{fallback (print .Profile.MotivationStyle) "unknown"}}
Preferred activities: {{join .Profile.PreferredActivities}}
Adherence risk: {{fallback (print .Profile.AdherenceRisk) "unknown"}}
Previous attempts that did not last: {{join .Profile.HistoricalFailures}}
{{- if .Extra}}

Additional context:
{{json .Extra}}
{{- end}}
`)

var planPrompt = mustTemplate("plan", `Create a {{.Weeks}}-week plan for this goal.

Goal: {{.Goal.Title}}
Description: {{fallback .Goal.Description "none"}}
Target: {{.Goal.TargetValue}} {{.Goal.Unit}}
Timeline: {{fallback .Goal.TimeBound "open"}}
Allowed misses per week: {{.Goal.AllowedMisses}}

Constraints:
Available time: {{.Profile.AvailableTime}} minutes per day
Energy level: {{fallback (print .Profile.EnergyLevel) "unknown"}}
Barriers: {{join .Profile.Barriers}}
Preferred activities: {{join .Profile.PreferredActivities}}
Planning preference: {{fallback (print .Profile.PlanningPreference) "flexible"}}
`)

var monitoringPrompt = mustTemplate("monitoring", `Review the activity log of the last {{.Days}} days, newest first.
{{if .Lines}}
{{range .Lines}}{{.}}
{{end}}{{else}}
No activity has been logged in this window.
{{end}}
Assess the trajectory over the whole window.
`)

var adaptationPrompt = mustTemplate("adaptation", `Decide whether the plan or goal should change.

Monitoring report:
{{json .Report}}

Current plan:
{{json .Plan}}

Current goal:
{{json .Goal}}

Profile:
{{json .Profile}}
`)

var reflectionPrompt = mustTemplate("reflection", `Reflect on the period {{.Start}} to {{.End}}.

Intended:
{{json .Intended}}

Actual:
{{json .Actual}}
{{- if .Previous}}

Earlier reflections, newest first:
{{range .Previous}}{{.}}
{{end}}{{- end}}
`)

var explanationPrompt = mustTemplate("explanation", `Explain this decision to the person it affects.

Decision:
{{json .Decision}}

About the person:
{{json .UserContext}}
`)
