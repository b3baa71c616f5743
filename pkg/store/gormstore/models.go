package gormstore

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"github.com/wilhg/wellagent/pkg/wellness"
)

// Structured fields are stored as JSON columns and only decoded here; the
// rest of the module sees native slices and maps.

type ProfileModel struct {
	ID                  string         `gorm:"primaryKey;type:text"`
	UserID              string         `gorm:"uniqueIndex;type:text;not null"`
	PrimaryIntent       string         `gorm:"type:text"`
	SecondaryIntents    datatypes.JSON
	AvailableTime       int
	EnergyLevel         string `gorm:"type:text"`
	CurrentRoutine      string `gorm:"type:text"`
	Barriers            datatypes.JSON
	MotivationStyle     string `gorm:"type:text"`
	PreferredActivities datatypes.JSON
	AdherenceRisk       string `gorm:"type:text"`
	HistoricalFailures  datatypes.JSON
	PlanningPreference  string `gorm:"type:text"`
	FeedbackFrequency   string `gorm:"type:text"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (ProfileModel) TableName() string { return "wellness_profiles" }

type GoalModel struct {
	ID               string `gorm:"primaryKey;type:text"`
	UserID           string `gorm:"index:goal_user_status;type:text;not null"`
	Title            string `gorm:"type:text"`
	Description      string `gorm:"type:text"`
	Category         string `gorm:"type:text"`
	Status           string `gorm:"index:goal_user_status;type:text;not null"`
	Specific         string `gorm:"type:text"`
	Measurable       string `gorm:"type:text"`
	Achievable       string `gorm:"type:text"`
	Relevant         string `gorm:"type:text"`
	TimeBound        string `gorm:"type:text"`
	BaselineValue    float64
	CurrentValue     float64
	TargetValue      float64
	Unit             string `gorm:"type:text"`
	AllowedMisses    int
	RecoveryStrategy string `gorm:"type:text"`
	FallbackGoal     string `gorm:"type:text"`
	Deadline         *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (GoalModel) TableName() string { return "goals" }

type PlanModel struct {
	ID                  string `gorm:"primaryKey;type:text"`
	GoalID              string `gorm:"index:plan_goal_status;type:text;not null"`
	UserID              string `gorm:"index;type:text;not null"`
	Title               string `gorm:"type:text"`
	Description         string `gorm:"type:text"`
	Status              string `gorm:"index:plan_goal_status;type:text;not null"`
	StrategyType        string `gorm:"type:text"`
	StartDate           time.Time
	EndDate             time.Time
	CurrentWeek         int
	PhysicalLoad        float64
	CognitiveLoad       float64
	SustainabilityScore float64
	Activities          datatypes.JSON
	ProgressionRules    datatypes.JSON
	RegressionRules     datatypes.JSON
	FallbackPlan        datatypes.JSON
	RecoveryPlan        datatypes.JSON
	HasFallback         bool
	Version             int `gorm:"not null;default:1"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (PlanModel) TableName() string { return "plans" }

type MonitoringModel struct {
	ID                string    `gorm:"primaryKey;type:text"`
	UserID            string    `gorm:"index:monitoring_user_date;type:text;not null"`
	Date              time.Time `gorm:"column:entry_date;index:monitoring_user_date;not null"`
	GoalID            string    `gorm:"type:text"`
	PlanID            string    `gorm:"type:text"`
	ActivityType      string    `gorm:"type:text;not null"`
	Completed         bool
	Value             *float64
	Unit              string `gorm:"type:text"`
	EnergyLevel       string `gorm:"type:text"`
	Motivation        string `gorm:"type:text"`
	Difficulty        string `gorm:"type:text"`
	Enjoyment         string `gorm:"type:text"`
	Notes             string `gorm:"type:text"`
	TimeOfDay         string `gorm:"type:text"`
	Location          string `gorm:"type:text"`
	Social            *bool
	StreakCount       int
	ConsecutiveMisses int
	IsDeviation       bool
	DeviationType     string `gorm:"type:text"`
	CreatedAt         time.Time
}

func (MonitoringModel) TableName() string { return "monitoring_data" }

type AdaptationModel struct {
	ID                string `gorm:"primaryKey;type:text"`
	UserID            string `gorm:"index;type:text;not null"`
	GoalID            string `gorm:"type:text"`
	PlanID            string `gorm:"type:text"`
	TriggerType       string `gorm:"type:text"`
	TriggerData       datatypes.JSON
	DetectedIssue     string `gorm:"type:text"`
	AnalysisReasoning string `gorm:"type:text"`
	ActionType        string `gorm:"type:text;not null"`
	ActionDetails     datatypes.JSON
	Autonomous        bool
	Confidence        float64
	ExpectedImpact    string `gorm:"type:text"`
	Explanation       datatypes.JSON
	UserApproved      *bool
	Implemented       bool
	ImplementedAt     *time.Time
	CreatedAt         time.Time
}

func (AdaptationModel) TableName() string { return "adaptations" }

type ReflectionModel struct {
	ID               string    `gorm:"primaryKey;type:text"`
	UserID           string    `gorm:"index:reflection_user_end;type:text;not null"`
	PeriodStart      time.Time `gorm:"not null"`
	PeriodEnd        time.Time `gorm:"index:reflection_user_end;not null"`
	ReflectionType   string    `gorm:"type:text"`
	IntendedBehavior string    `gorm:"type:text"`
	ActualBehavior   string    `gorm:"type:text"`
	Variance         string    `gorm:"type:text"`
	SuccessFactors   datatypes.JSON
	FailureFactors   datatypes.JSON
	ExternalFactors  datatypes.JSON
	Patterns         datatypes.JSON
	RootCauses       datatypes.JSON
	LessonsLearned   datatypes.JSON
	HeuristicUpdates datatypes.JSON
	Recommendations  datatypes.JSON
	ConfidenceScore  float64
	CreatedAt        time.Time
}

func (ReflectionModel) TableName() string { return "reflections" }

type AgentLogModel struct {
	ID            string    `gorm:"primaryKey;type:text"`
	UserID        string    `gorm:"index:agent_log_user_ts;type:text;not null"`
	AgentType     string    `gorm:"index;type:text;not null"`
	Action        string    `gorm:"type:text"`
	Input         string    `gorm:"type:text"`
	Reasoning     string    `gorm:"type:text"`
	Output        string    `gorm:"type:text"`
	ExecutionTime int64
	Timestamp     time.Time `gorm:"column:logged_at;index:agent_log_user_ts;not null"`
}

func (AgentLogModel) TableName() string { return "agent_logs" }

func encode(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		// all encoded values are plain slices and maps of JSON-compatible data
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func decode[T any](j datatypes.JSON) T {
	var out T
	if len(j) == 0 {
		return out
	}
	_ = json.Unmarshal(j, &out)
	return out
}

func profileToModel(p wellness.Profile) ProfileModel {
	return ProfileModel{
		ID: p.ID, UserID: p.UserID, PrimaryIntent: p.PrimaryIntent,
		SecondaryIntents: encode(p.SecondaryIntents), AvailableTime: p.AvailableTime,
		EnergyLevel: string(p.EnergyLevel), CurrentRoutine: p.CurrentRoutine,
		Barriers: encode(p.Barriers), MotivationStyle: string(p.MotivationStyle),
		PreferredActivities: encode(p.PreferredActivities), AdherenceRisk: string(p.AdherenceRisk),
		HistoricalFailures: encode(p.HistoricalFailures), PlanningPreference: string(p.PlanningPreference),
		FeedbackFrequency: string(p.FeedbackFrequency), CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (m ProfileModel) toDomain() wellness.Profile {
	return wellness.Profile{
		ID: m.ID, UserID: m.UserID, PrimaryIntent: m.PrimaryIntent,
		SecondaryIntents: decode[[]string](m.SecondaryIntents), AvailableTime: m.AvailableTime,
		EnergyLevel: wellness.Level(m.EnergyLevel), CurrentRoutine: m.CurrentRoutine,
		Barriers: decode[[]string](m.Barriers), MotivationStyle: wellness.MotivationStyle(m.MotivationStyle),
		PreferredActivities: decode[[]string](m.PreferredActivities), AdherenceRisk: wellness.Level(m.AdherenceRisk),
		HistoricalFailures: decode[[]string](m.HistoricalFailures), PlanningPreference: wellness.PlanningPreference(m.PlanningPreference),
		FeedbackFrequency: wellness.FeedbackFrequency(m.FeedbackFrequency), CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func goalToModel(g wellness.Goal) GoalModel {
	return GoalModel{
		ID: g.ID, UserID: g.UserID, Title: g.Title, Description: g.Description, Category: g.Category,
		Status: string(g.Status), Specific: g.Specific, Measurable: g.Measurable, Achievable: g.Achievable,
		Relevant: g.Relevant, TimeBound: g.TimeBound, BaselineValue: g.BaselineValue, CurrentValue: g.CurrentValue,
		TargetValue: g.TargetValue, Unit: g.Unit, AllowedMisses: g.AllowedMisses, RecoveryStrategy: g.RecoveryStrategy,
		FallbackGoal: g.FallbackGoal, Deadline: g.Deadline, CreatedAt: g.CreatedAt, UpdatedAt: g.UpdatedAt,
	}
}

func (m GoalModel) toDomain() wellness.Goal {
	g := wellness.Goal{
		ID: m.ID, UserID: m.UserID, Title: m.Title, Description: m.Description, Category: m.Category,
		Status: wellness.GoalStatus(m.Status), Specific: m.Specific, Measurable: m.Measurable, Achievable: m.Achievable,
		Relevant: m.Relevant, TimeBound: m.TimeBound, BaselineValue: m.BaselineValue, CurrentValue: m.CurrentValue,
		TargetValue: m.TargetValue, Unit: m.Unit, AllowedMisses: m.AllowedMisses, RecoveryStrategy: m.RecoveryStrategy,
		FallbackGoal: m.FallbackGoal, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC(),
	}
	if m.Deadline != nil {
		d := m.Deadline.UTC()
		g.Deadline = &d
	}
	return g
}

func planToModel(p wellness.Plan) PlanModel {
	return PlanModel{
		ID: p.ID, GoalID: p.GoalID, UserID: p.UserID, Title: p.Title, Description: p.Description,
		Status: string(p.Status), StrategyType: string(p.StrategyType), StartDate: p.StartDate, EndDate: p.EndDate,
		CurrentWeek: p.CurrentWeek, PhysicalLoad: p.PhysicalLoad, CognitiveLoad: p.CognitiveLoad,
		SustainabilityScore: p.SustainabilityScore, Activities: encode(p.Activities),
		ProgressionRules: encode(p.ProgressionRules), RegressionRules: encode(p.RegressionRules),
		FallbackPlan: encode(p.FallbackPlan), RecoveryPlan: encode(p.RecoveryPlan), HasFallback: p.HasFallback,
		Version: p.Version, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt,
	}
}

func (m PlanModel) toDomain() wellness.Plan {
	return wellness.Plan{
		ID: m.ID, GoalID: m.GoalID, UserID: m.UserID, Title: m.Title, Description: m.Description,
		Status: wellness.PlanStatus(m.Status), StrategyType: wellness.Strategy(m.StrategyType),
		StartDate: m.StartDate.UTC(), EndDate: m.EndDate.UTC(), CurrentWeek: m.CurrentWeek,
		PhysicalLoad: m.PhysicalLoad, CognitiveLoad: m.CognitiveLoad, SustainabilityScore: m.SustainabilityScore,
		Activities:       decode[[]wellness.ActivityBlock](m.Activities),
		ProgressionRules: decode[[]string](m.ProgressionRules), RegressionRules: decode[[]string](m.RegressionRules),
		FallbackPlan: decode[[]wellness.ActivityBlock](m.FallbackPlan), RecoveryPlan: decode[[]wellness.ActivityBlock](m.RecoveryPlan),
		HasFallback: m.HasFallback, Version: m.Version, CreatedAt: m.CreatedAt.UTC(), UpdatedAt: m.UpdatedAt.UTC(),
	}
}

func monitoringToModel(e wellness.MonitoringEntry) MonitoringModel {
	return MonitoringModel{
		ID: e.ID, UserID: e.UserID, Date: e.Date.UTC(), GoalID: e.GoalID, PlanID: e.PlanID, ActivityType: e.ActivityType,
		Completed: e.Completed, Value: e.Value, Unit: e.Unit, EnergyLevel: e.EnergyLevel, Motivation: e.Motivation,
		Difficulty: e.Difficulty, Enjoyment: e.Enjoyment, Notes: e.Notes, TimeOfDay: e.TimeOfDay, Location: e.Location,
		Social: e.Social, StreakCount: e.StreakCount, ConsecutiveMisses: e.ConsecutiveMisses, IsDeviation: e.IsDeviation,
		DeviationType: e.DeviationType, CreatedAt: e.CreatedAt,
	}
}

func (m MonitoringModel) toDomain() wellness.MonitoringEntry {
	return wellness.MonitoringEntry{
		ID: m.ID, UserID: m.UserID, Date: m.Date.UTC(), GoalID: m.GoalID, PlanID: m.PlanID, ActivityType: m.ActivityType,
		Completed: m.Completed, Value: m.Value, Unit: m.Unit, EnergyLevel: m.EnergyLevel, Motivation: m.Motivation,
		Difficulty: m.Difficulty, Enjoyment: m.Enjoyment, Notes: m.Notes, TimeOfDay: m.TimeOfDay, Location: m.Location,
		Social: m.Social, StreakCount: m.StreakCount, ConsecutiveMisses: m.ConsecutiveMisses, IsDeviation: m.IsDeviation,
		DeviationType: m.DeviationType, CreatedAt: m.CreatedAt.UTC(),
	}
}

func adaptationToModel(a wellness.Adaptation) AdaptationModel {
	return AdaptationModel{
		ID: a.ID, UserID: a.UserID, GoalID: a.GoalID, PlanID: a.PlanID, TriggerType: a.TriggerType,
		TriggerData: encode(a.TriggerData), DetectedIssue: a.DetectedIssue, AnalysisReasoning: a.AnalysisReasoning,
		ActionType: string(a.ActionType), ActionDetails: encode(a.ActionDetails), Autonomous: a.Autonomous,
		Confidence: a.Confidence, ExpectedImpact: a.ExpectedImpact, Explanation: encode(a.Explanation),
		UserApproved: a.UserApproved, Implemented: a.Implemented, ImplementedAt: a.ImplementedAt, CreatedAt: a.CreatedAt,
	}
}

func (m AdaptationModel) toDomain() wellness.Adaptation {
	a := wellness.Adaptation{
		ID: m.ID, UserID: m.UserID, GoalID: m.GoalID, PlanID: m.PlanID, TriggerType: m.TriggerType,
		TriggerData: decode[map[string]any](m.TriggerData), DetectedIssue: m.DetectedIssue,
		AnalysisReasoning: m.AnalysisReasoning, ActionType: wellness.AdaptationType(m.ActionType),
		ActionDetails: decode[map[string]any](m.ActionDetails), Autonomous: m.Autonomous, Confidence: m.Confidence,
		ExpectedImpact: m.ExpectedImpact, Explanation: decode[map[string]any](m.Explanation),
		UserApproved: m.UserApproved, Implemented: m.Implemented, CreatedAt: m.CreatedAt.UTC(),
	}
	if m.ImplementedAt != nil {
		t := m.ImplementedAt.UTC()
		a.ImplementedAt = &t
	}
	return a
}

func reflectionToModel(r wellness.Reflection) ReflectionModel {
	return ReflectionModel{
		ID: r.ID, UserID: r.UserID, PeriodStart: r.PeriodStart.UTC(), PeriodEnd: r.PeriodEnd.UTC(),
		ReflectionType: r.ReflectionType, IntendedBehavior: r.IntendedBehavior, ActualBehavior: r.ActualBehavior,
		Variance: r.Variance, SuccessFactors: encode(r.SuccessFactors), FailureFactors: encode(r.FailureFactors),
		ExternalFactors: encode(r.ExternalFactors), Patterns: encode(r.Patterns), RootCauses: encode(r.RootCauses),
		LessonsLearned: encode(r.LessonsLearned), HeuristicUpdates: encode(r.HeuristicUpdates),
		Recommendations: encode(r.Recommendations), ConfidenceScore: r.ConfidenceScore, CreatedAt: r.CreatedAt,
	}
}

func (m ReflectionModel) toDomain() wellness.Reflection {
	return wellness.Reflection{
		ID: m.ID, UserID: m.UserID, PeriodStart: m.PeriodStart.UTC(), PeriodEnd: m.PeriodEnd.UTC(),
		ReflectionType: m.ReflectionType, IntendedBehavior: m.IntendedBehavior, ActualBehavior: m.ActualBehavior,
		Variance: m.Variance, SuccessFactors: decode[[]string](m.SuccessFactors),
		FailureFactors: decode[[]string](m.FailureFactors), ExternalFactors: decode[[]string](m.ExternalFactors),
		Patterns: decode[[]string](m.Patterns), RootCauses: decode[[]string](m.RootCauses),
		LessonsLearned: decode[[]string](m.LessonsLearned), HeuristicUpdates: decode[map[string]any](m.HeuristicUpdates),
		Recommendations: decode[[]string](m.Recommendations), ConfidenceScore: m.ConfidenceScore, CreatedAt: m.CreatedAt.UTC(),
	}
}

func agentLogToModel(l wellness.AgentLog) AgentLogModel {
	return AgentLogModel{
		ID: l.ID, UserID: l.UserID, AgentType: l.AgentType, Action: l.Action, Input: l.Input,
		Reasoning: l.Reasoning, Output: l.Output, ExecutionTime: l.ExecutionTime, Timestamp: l.Timestamp.UTC(),
	}
}

func (m AgentLogModel) toDomain() wellness.AgentLog {
	return wellness.AgentLog{
		ID: m.ID, UserID: m.UserID, AgentType: m.AgentType, Action: m.Action, Input: m.Input,
		Reasoning: m.Reasoning, Output: m.Output, ExecutionTime: m.ExecutionTime, Timestamp: m.Timestamp.UTC(),
	}
}
