package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/wilhg/wellagent/pkg/store"
	"github.com/wilhg/wellagent/pkg/wellness"
)

func (s *Store) GetProfile(ctx context.Context, userID string) (wellness.Profile, error) {
	var m ProfileModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&m).Error; err != nil {
		return wellness.Profile{}, mapErr(err, "profile", userID)
	}
	return m.toDomain(), nil
}

// UpsertProfile keeps the profile id and creation time stable across replaces.
func (s *Store) UpsertProfile(ctx context.Context, p wellness.Profile) (wellness.Profile, error) {
	var out wellness.Profile
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prev ProfileModel
		err := tx.Where("user_id = ?", p.UserID).First(&prev).Error
		switch {
		case err == nil:
			p.ID, p.CreatedAt = prev.ID, prev.CreatedAt
		case errors.Is(err, gorm.ErrRecordNotFound):
			p.ID, p.CreatedAt = newID(""), s.now()
		default:
			return err
		}
		p.UpdatedAt = s.now()
		m := profileToModel(p)
		if err := tx.Save(&m).Error; err != nil {
			return err
		}
		out = m.toDomain()
		return nil
	})
	return out, err
}

func (s *Store) ProfileUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&ProfileModel{}).Order("user_id asc").Pluck("user_id", &ids).Error
	return ids, err
}

func (s *Store) CreateGoal(ctx context.Context, g wellness.Goal) (wellness.Goal, error) {
	g.ID = newID(g.ID)
	if g.Status == "" {
		g.Status = wellness.GoalActive
	}
	m := goalToModel(g)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wellness.Goal{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) GetGoal(ctx context.Context, userID, goalID string) (wellness.Goal, error) {
	var m GoalModel
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", goalID, userID).First(&m).Error; err != nil {
		return wellness.Goal{}, mapErr(err, "goal", goalID)
	}
	return m.toDomain(), nil
}

func (s *Store) ActiveGoal(ctx context.Context, userID string) (wellness.Goal, error) {
	var m GoalModel
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND status = ?", userID, string(wellness.GoalActive)).
		Order("created_at desc").First(&m).Error
	if err != nil {
		return wellness.Goal{}, mapErr(err, "active goal", userID)
	}
	return m.toDomain(), nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]wellness.Goal, error) {
	var models []GoalModel
	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at desc").Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]wellness.Goal, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g wellness.Goal) error {
	m := goalToModel(g)
	m.UpdatedAt = s.now()
	res := s.db.WithContext(ctx).Model(&m).
		Where("user_id = ?", g.UserID).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("goal", g.ID)
	}
	return nil
}

func (s *Store) CreateActivePlan(ctx context.Context, p wellness.Plan) (wellness.Plan, error) {
	p.ID = newID(p.ID)
	p.Status = wellness.PlanActive
	if p.Version == 0 {
		p.Version = 1
	}
	var out wellness.Plan
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&PlanModel{}).
			Where("goal_id = ? AND status = ?", p.GoalID, string(wellness.PlanActive)).
			Updates(map[string]any{"status": string(wellness.PlanSuperseded), "updated_at": s.now()}).Error; err != nil {
			return err
		}
		m := planToModel(p)
		if err := tx.Create(&m).Error; err != nil {
			return err
		}
		out = m.toDomain()
		return nil
	})
	return out, err
}

func (s *Store) GetPlan(ctx context.Context, userID, planID string) (wellness.Plan, error) {
	var m PlanModel
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", planID, userID).First(&m).Error; err != nil {
		return wellness.Plan{}, mapErr(err, "plan", planID)
	}
	return m.toDomain(), nil
}

func (s *Store) ActivePlan(ctx context.Context, userID, goalID string) (wellness.Plan, error) {
	q := s.db.WithContext(ctx).Where("user_id = ? AND status = ?", userID, string(wellness.PlanActive))
	if goalID != "" {
		q = q.Where("goal_id = ?", goalID)
	}
	var m PlanModel
	if err := q.Order("created_at desc").First(&m).Error; err != nil {
		return wellness.Plan{}, mapErr(err, "active plan", userID)
	}
	return m.toDomain(), nil
}

func (s *Store) UpdatePlan(ctx context.Context, p wellness.Plan, expectVersion int) error {
	m := planToModel(p)
	m.UpdatedAt = s.now()
	res := s.db.WithContext(ctx).Model(&m).
		Where("user_id = ? AND version = ?", p.UserID, expectVersion).
		Select("*").Omit("id", "created_at").
		Updates(&m)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetPlan(ctx, p.UserID, p.ID); err != nil {
			return err
		}
		return store.ErrStale
	}
	return nil
}

func (s *Store) AppendMonitoring(ctx context.Context, e wellness.MonitoringEntry) (wellness.MonitoringEntry, error) {
	e.ID = newID(e.ID)
	m := monitoringToModel(e)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wellness.MonitoringEntry{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) ListMonitoring(ctx context.Context, q store.MonitoringQuery) ([]wellness.MonitoringEntry, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", q.UserID)
	if q.GoalID != "" {
		tx = tx.Where("goal_id = ?", q.GoalID)
	}
	if !q.From.IsZero() {
		tx = tx.Where("entry_date >= ?", q.From.UTC())
	}
	if !q.Before.IsZero() {
		tx = tx.Where("entry_date < ?", q.Before.UTC())
	}
	if q.Descending {
		tx = tx.Order("entry_date desc, created_at desc")
	} else {
		tx = tx.Order("entry_date asc, created_at asc")
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	var models []MonitoringModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]wellness.MonitoringEntry, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) CreateAdaptation(ctx context.Context, a wellness.Adaptation) (wellness.Adaptation, error) {
	a.ID = newID(a.ID)
	m := adaptationToModel(a)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wellness.Adaptation{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) GetAdaptation(ctx context.Context, userID, id string) (wellness.Adaptation, error) {
	var m AdaptationModel
	if err := s.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&m).Error; err != nil {
		return wellness.Adaptation{}, mapErr(err, "adaptation", id)
	}
	return m.toDomain(), nil
}

// stateClause renders a derived adaptation state as a WHERE condition.
func stateClause(tx *gorm.DB, state wellness.AdaptationState) *gorm.DB {
	switch state {
	case wellness.AdaptationProposed:
		return tx.Where("user_approved IS NULL AND implemented = ?", false)
	case wellness.AdaptationApproved:
		return tx.Where("user_approved = ? AND implemented = ?", true, false)
	case wellness.AdaptationRejected:
		return tx.Where("user_approved = ? AND implemented = ?", false, false)
	case wellness.AdaptationImplemented:
		return tx.Where("implemented = ?", true)
	}
	return tx
}

func (s *Store) TransitionAdaptation(ctx context.Context, a wellness.Adaptation, from wellness.AdaptationState) error {
	tx := s.db.WithContext(ctx).Model(&AdaptationModel{}).Where("id = ? AND user_id = ?", a.ID, a.UserID)
	res := stateClause(tx, from).Updates(map[string]any{
		"user_approved":  a.UserApproved,
		"implemented":    a.Implemented,
		"implemented_at": a.ImplementedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := s.GetAdaptation(ctx, a.UserID, a.ID); err != nil {
			return err
		}
		return store.ErrStale
	}
	return nil
}

func (s *Store) SetExplanation(ctx context.Context, userID, id string, explanation map[string]any) error {
	res := s.db.WithContext(ctx).Model(&AdaptationModel{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("explanation", encode(explanation))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return notFound("adaptation", id)
	}
	return nil
}

func (s *Store) ListAdaptations(ctx context.Context, f store.AdaptationFilter) ([]wellness.Adaptation, error) {
	tx := stateClause(s.db.WithContext(ctx).Where("user_id = ?", f.UserID), f.State).Order("created_at desc")
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	var models []AdaptationModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]wellness.Adaptation, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) CreateReflection(ctx context.Context, r wellness.Reflection) (wellness.Reflection, error) {
	r.ID = newID(r.ID)
	m := reflectionToModel(r)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wellness.Reflection{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) ListReflections(ctx context.Context, userID string, limit int) ([]wellness.Reflection, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", userID).Order("period_end desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	var models []ReflectionModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]wellness.Reflection, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}

func (s *Store) AppendAgentLog(ctx context.Context, l wellness.AgentLog) (wellness.AgentLog, error) {
	l.ID = newID(l.ID)
	if l.Timestamp.IsZero() {
		l.Timestamp = s.now()
	}
	m := agentLogToModel(l)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return wellness.AgentLog{}, err
	}
	return m.toDomain(), nil
}

func (s *Store) ListAgentLogs(ctx context.Context, f store.AgentLogFilter) ([]wellness.AgentLog, error) {
	tx := s.db.WithContext(ctx).Where("user_id = ?", f.UserID)
	if f.AgentType != "" {
		tx = tx.Where("agent_type = ?", f.AgentType)
	}
	tx = tx.Order("logged_at desc")
	if f.Limit > 0 {
		tx = tx.Limit(f.Limit)
	}
	var models []AgentLogModel
	if err := tx.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]wellness.AgentLog, 0, len(models))
	for _, m := range models {
		out = append(out, m.toDomain())
	}
	return out, nil
}
