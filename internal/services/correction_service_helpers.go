package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/teachkit/correction-service/internal/cache"
	"github.com/teachkit/correction-service/internal/events"
	"github.com/teachkit/correction-service/internal/grading"
	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
)

const scoreModelTTL = time.Hour

// ===== READ-MODIFY-WRITE =====

// update wraps one correction mutation in a transaction: load the row, apply
// mutate, persist. The audit side effect runs after commit and never blocks.
func (s *correctionService) update(
	ctx context.Context,
	id uint,
	actorID string,
	action models.AuditActionType,
	eventType events.EventType,
	mutate func(*models.Correction, grading.ScoreModel) error,
) (*CorrectionResponse, error) {
	var updated *models.Correction
	var model grading.ScoreModel
	var old correctionSnapshot

	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		correction, err := tx.Correction().GetByID(ctx, id)
		if err != nil {
			if repositories.IsNotFoundError(err) {
				return ErrCorrectionNotFound
			}
			return fmt.Errorf("failed to get correction: %w", err)
		}

		model, err = s.scoreModelFor(ctx, correction.ActivityID)
		if err != nil {
			return err
		}

		old = snapshot(correction)
		if err := mutate(correction, model); err != nil {
			return err
		}

		if err := tx.Correction().Update(ctx, correction); err != nil {
			return fmt.Errorf("failed to update correction: %w", err)
		}
		updated = correction
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.auditChange(action, actorID, updated, old, eventType)
	return s.buildResponse(updated, model), nil
}

// recompute refreshes the derived grade pair from the stored numeric fields.
// Null points count as all-zero so a penalty change alone still recomputes.
func (s *correctionService) recompute(c *models.Correction, model grading.ScoreModel) error {
	points, err := c.Points()
	if err != nil {
		return fmt.Errorf("corrupt earned points on correction %d: %w", c.ID, err)
	}
	if points == nil {
		points = model.ZeroPoints()
	}

	var bonus, penalty float64
	if c.Bonus != nil {
		bonus = *c.Bonus
	}
	if c.Penalty != nil {
		penalty = *c.Penalty
	}

	result := grading.Compute(points, bonus, penalty, s.floorFor(model.Kind))
	c.Grade = floatPtr(result.Grade)
	c.FinalGrade = floatPtr(result.FinalGrade)
	return nil
}

// floorFor picks the floor constants of the entity family. The two families
// are configured independently even though the values often coincide.
func (s *correctionService) floorFor(kind models.ScoringKind) grading.FloorConfig {
	if kind == models.ScoringVariable {
		return grading.FloorConfig{
			FloorThreshold: s.floors.VariableFloorThreshold,
			FloorValue:     s.floors.VariableFloorValue,
		}
	}
	return grading.FloorConfig{
		FloorThreshold: s.floors.TwoPartFloorThreshold,
		FloorValue:     s.floors.TwoPartFloorValue,
	}
}

// ===== ACTIVITY / SCORE MODEL LOOKUP =====

func (s *correctionService) getActivity(ctx context.Context, id uint) (*models.Activity, error) {
	activity, err := s.repo.Activity().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}
	return activity, nil
}

// scoreModelFor resolves an activity's score model through the cache. The
// model is read on every recompute and only changes with the activity row.
func (s *correctionService) scoreModelFor(ctx context.Context, activityID uint) (grading.ScoreModel, error) {
	var model grading.ScoreModel
	if err := s.cache.Get(ctx, cache.ScoreModelKey(activityID), &model); err == nil {
		return model, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Score model cache read failed", "activity_id", activityID, "error", err)
	}

	activity, err := s.getActivity(ctx, activityID)
	if err != nil {
		return grading.ScoreModel{}, err
	}
	model, err = grading.ModelFromActivity(activity)
	if err != nil {
		return grading.ScoreModel{}, fmt.Errorf("failed to load score model: %w", err)
	}

	if err := s.cache.Set(ctx, cache.ScoreModelKey(activityID), model, scoreModelTTL); err != nil {
		s.logger.Warn("Score model cache write failed", "activity_id", activityID, "error", err)
	}
	return model, nil
}

// ===== CONSTRUCTION =====

// newCorrection builds a fresh ACTIVE row with all-zero points. The deadline
// falls back to the activity's own deadline; the variable family starts with
// an explicit zero bonus, the two-part family carries none.
func (s *correctionService) newCorrection(activity *models.Activity, model grading.ScoreModel, studentID string, deadline, submissionDate *time.Time) (*models.Correction, error) {
	correction := &models.Correction{
		ActivityID:     activity.ID,
		StudentID:      studentID,
		Status:         models.CorrectionActive,
		Penalty:        floatPtr(0),
		Deadline:       deadline,
		SubmissionDate: submissionDate,
		Grade:          floatPtr(0),
		FinalGrade:     floatPtr(0),
	}
	if correction.Deadline == nil {
		correction.Deadline = activity.Deadline
	}
	if model.Kind == models.ScoringVariable {
		correction.Bonus = floatPtr(0)
	}
	if err := correction.SetPoints(model.ZeroPoints()); err != nil {
		return nil, err
	}
	return correction, nil
}

// ===== RESPONSES =====

func (s *correctionService) buildResponse(c *models.Correction, model grading.ScoreModel) *CorrectionResponse {
	resp := &CorrectionResponse{
		ID:             c.ID,
		ActivityID:     c.ActivityID,
		StudentID:      c.StudentID,
		Status:         c.Status,
		Penalty:        c.Penalty,
		Bonus:          c.Bonus,
		Grade:          c.Grade,
		FinalGrade:     c.FinalGrade,
		Deadline:       c.Deadline,
		SubmissionDate: c.SubmissionDate,
		CreatedAt:      c.CreatedAt,
		UpdatedAt:      c.UpdatedAt,
	}

	points, err := c.Points()
	if err != nil {
		s.logger.Error("Corrupt earned points", "correction_id", c.ID, "error", err)
		return resp
	}
	resp.EarnedPoints = points

	if len(points) == model.PartCount() {
		resp.Breakdown = make([]PartScore, len(points))
		for i, part := range model.Parts {
			resp.Breakdown[i] = PartScore{
				Name:      part.Name,
				MaxPoints: part.MaxPoints,
				Earned:    points[i],
			}
		}
	}
	return resp
}

func (s *correctionService) buildListResponse(corrections []*models.Correction, model grading.ScoreModel, total int64, filters repositories.CorrectionFilters) *CorrectionListResponse {
	resp := &CorrectionListResponse{
		Corrections: make([]*CorrectionResponse, 0, len(corrections)),
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}
	for _, c := range corrections {
		resp.Corrections = append(resp.Corrections, s.buildResponse(c, model))
	}
	return resp
}

// ===== AUDIT =====

type correctionSnapshot struct {
	Grade      *float64
	FinalGrade *float64
	Penalty    *float64
	Bonus      *float64
	Status     models.CorrectionStatus
}

func snapshot(c *models.Correction) correctionSnapshot {
	return correctionSnapshot{
		Grade:      c.Grade,
		FinalGrade: c.FinalGrade,
		Penalty:    c.Penalty,
		Bonus:      c.Bonus,
		Status:     c.Status,
	}
}

// auditChange records one mutation with before/after values. Fire-and-forget:
// failures are logged, never surfaced to the caller.
func (s *correctionService) auditChange(action models.AuditActionType, actorID string, c *models.Correction, old correctionSnapshot, eventType events.EventType) {
	metadata := map[string]interface{}{
		"old_grade":       old.Grade,
		"new_grade":       c.Grade,
		"old_final_grade": old.FinalGrade,
		"new_final_grade": c.FinalGrade,
	}
	if old.Status != c.Status {
		metadata["old_status"] = old.Status
		metadata["new_status"] = c.Status
	}

	payload := &events.CorrectionChangedEvent{
		CorrectionID: c.ID,
		ActivityID:   c.ActivityID,
		StudentID:    c.StudentID,
		ActionType:   action,
		ActorID:      actorID,
		OldGrade:     old.Grade,
		NewGrade:     c.Grade,
		OldFinal:     old.FinalGrade,
		NewFinal:     c.FinalGrade,
		OldStatus:    old.Status,
		NewStatus:    c.Status,
		ChangedAt:    time.Now(),
	}
	s.emitAudit(action, actorID, c.ID, metadata, eventType, payload)
}

func (s *correctionService) audit(action models.AuditActionType, actorID string, c *models.Correction, eventType events.EventType, metadata map[string]interface{}) {
	payload := &events.CorrectionChangedEvent{
		CorrectionID: c.ID,
		ActivityID:   c.ActivityID,
		StudentID:    c.StudentID,
		ActionType:   action,
		ActorID:      actorID,
		ChangedAt:    time.Now(),
	}
	s.emitAudit(action, actorID, c.ID, metadata, eventType, payload)
}

func (s *correctionService) auditByID(action models.AuditActionType, actorID string, correctionID, activityID uint, studentID string, eventType events.EventType, metadata map[string]interface{}) {
	payload := &events.CorrectionChangedEvent{
		CorrectionID: correctionID,
		ActivityID:   activityID,
		StudentID:    studentID,
		ActionType:   action,
		ActorID:      actorID,
		ChangedAt:    time.Now(),
	}
	s.emitAudit(action, actorID, correctionID, metadata, eventType, payload)
}

func (s *correctionService) emitAudit(action models.AuditActionType, actorID string, correctionID uint, metadata map[string]interface{}, eventType events.EventType, payload interface{}) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entry := &models.AuditLog{
			ActionType: action,
			UserID:     actorID,
			EntityType: "correction",
			EntityID:   correctionID,
		}
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = raw
		}
		if err := s.repo.AuditLog().Create(ctx, entry); err != nil {
			s.logger.Error("Failed to write audit log", "action", action, "correction_id", correctionID, "error", err)
		}

		if s.publisher != nil {
			event := events.NewAuditEvent(eventType, payload, map[string]interface{}{"actor_id": actorID})
			if err := s.publisher.PublishAuditEvent(ctx, event); err != nil {
				s.logger.Error("Failed to publish audit event", "action", action, "correction_id", correctionID, "error", err)
			}
		}
	}()
}

func floatPtr(f float64) *float64 {
	return &f
}
