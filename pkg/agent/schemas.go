package agent

// Action schemas. They describe what a usable action looks like; responses
// that miss them are still normalised, with the violations reported in
// metadata.schemaViolations.

const goalSchema = `{
  "type": "object",
  "required": ["goal"],
  "properties": {
    "type": {"type": "string"},
    "goal": {
      "type": "object",
      "required": ["title", "allowedMisses", "recoveryStrategy", "fallbackGoal"],
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "category": {"type": "string"},
        "specific": {"type": "string"},
        "measurable": {"type": "string"},
        "achievable": {"type": "string"},
        "relevant": {"type": "string"},
        "timeBound": {"type": "string"},
        "targetValue": {"type": "number"},
        "unit": {"type": "string"},
        "allowedMisses": {"type": "integer", "minimum": 0},
        "recoveryStrategy": {"type": "string"},
        "fallbackGoal": {"type": "string"}
      }
    }
  }
}`

const blockSchema = `{
  "type": "object",
  "required": ["week", "activity"],
  "properties": {
    "week": {"type": "integer", "minimum": 1},
    "days": {"type": "array", "items": {"type": "string"}},
    "activity": {"type": "string"},
    "durationMinutes": {"type": "number", "minimum": 0},
    "intensity": {"type": "string"},
    "note": {"type": "string"}
  }
}`

const planSchema = `{
  "type": "object",
  "required": ["plan"],
  "properties": {
    "type": {"type": "string"},
    "plan": {
      "type": "object",
      "required": ["title", "activities"],
      "properties": {
        "title": {"type": "string", "minLength": 1},
        "description": {"type": "string"},
        "strategyType": {"enum": ["gradual", "intensive", "maintenance"]},
        "activities": {"type": "array", "minItems": 1, "items": ` + blockSchema + `},
        "progressionRules": {"type": "array", "items": {"type": "string"}},
        "regressionRules": {"type": "array", "items": {"type": "string"}},
        "fallbackPlan": {"type": "array", "items": ` + blockSchema + `},
        "recoveryPlan": {"type": "array", "items": ` + blockSchema + `},
        "physicalLoad": {"type": "number", "minimum": 0, "maximum": 10},
        "cognitiveLoad": {"type": "number", "minimum": 0, "maximum": 10},
        "sustainabilityScore": {"type": "number", "minimum": 0, "maximum": 10}
      }
    }
  }
}`

const deviationSchema = `{
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"enum": ["missed", "partial", "exceeded"]},
    "date": {"type": "string"},
    "impact": {"enum": ["low", "medium", "high"]}
  }
}`

const monitoringSchema = `{
  "type": "object",
  "properties": {
    "type": {"type": "string"},
    "trajectory": {"enum": ["improving", "stable", "declining"]},
    "adherenceScore": {"type": "number", "minimum": 0, "maximum": 100},
    "streakCount": {"type": "integer", "minimum": 0},
    "consecutiveMisses": {"type": "integer", "minimum": 0},
    "signals": {
      "type": "object",
      "properties": {
        "burnoutRisk": {"type": "number", "minimum": 0, "maximum": 100},
        "motivationLevel": {"enum": ["low", "medium", "high"]},
        "energyTrend": {"enum": ["increasing", "stable", "decreasing"]},
        "consistencyScore": {"type": "number", "minimum": 0, "maximum": 100}
      }
    },
    "deviations": {"type": "array", "items": ` + deviationSchema + `},
    "recommendations": {"type": "array"}
  }
}`

const adaptationSchema = `{
  "type": "object",
  "required": ["type"],
  "properties": {
    "type": {"enum": ["adapt_plan", "adjust_goal", "change_strategy", "pause", "continue"]},
    "autonomous": {"type": "boolean"},
    "changes": {"type": "object"},
    "rationale": {"type": "string"},
    "expectedImpact": {"type": "string"}
  }
}`

const stringArraySchema = `{"type": "array", "items": {"type": "string"}}`

const reflectionSchema = `{
  "type": "object",
  "properties": {
    "type": {"type": "string"},
    "comparison": {"type": "object"},
    "successFactors": ` + stringArraySchema + `,
    "failureFactors": ` + stringArraySchema + `,
    "externalFactors": ` + stringArraySchema + `,
    "patterns": ` + stringArraySchema + `,
    "rootCauses": ` + stringArraySchema + `,
    "lessonsLearned": ` + stringArraySchema + `,
    "heuristicUpdates": {"type": "object"},
    "recommendations": ` + stringArraySchema + `
  }
}`

const explanationSchema = `{
  "type": "object",
  "required": ["title", "summary"],
  "properties": {
    "title": {"type": "string"},
    "summary": {"type": "string"},
    "details": {"type": "string"},
    "why": ` + stringArraySchema + `,
    "userContext": {"type": "string"},
    "alternatives": ` + stringArraySchema + `,
    "uncertainty": {"type": "string"},
    "userControl": {"type": "string"}
  }
}`
