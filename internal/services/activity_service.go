package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/teachkit/correction-service/internal/cache"
	"github.com/teachkit/correction-service/internal/events"
	"github.com/teachkit/correction-service/internal/grading"
	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
	"github.com/teachkit/correction-service/internal/validator"
)

type activityService struct {
	repo      repositories.Repository
	cache     cache.CacheService
	publisher events.EventPublisher
	logger    *slog.Logger
	validator *validator.Validator
}

func NewActivityService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
) ActivityService {
	return &activityService{
		repo:      repo,
		cache:     cacheService,
		publisher: publisher,
		logger:    logger,
		validator: v,
	}
}

func (s *activityService) Create(ctx context.Context, req *CreateActivityRequest, actorID string) (*ActivityResponse, error) {
	s.logger.Info("Creating activity", "title", req.Title, "scoring_kind", req.ScoringKind, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	model := grading.ScoreModel{Kind: req.ScoringKind, Parts: req.Parts}
	if req.ScoringKind == models.ScoringTwoPart {
		// The two-part family always uses the canonical part names, whatever
		// the request says.
		if len(req.Parts) != 2 {
			return nil, NewValidationError("parts", "two-part scoring requires exactly 2 parts", len(req.Parts))
		}
		model = grading.TwoPartModel(req.Parts[0].MaxPoints, req.Parts[1].MaxPoints)
	}
	if err := model.Validate(); err != nil {
		return nil, NewValidationError("parts", err.Error(), req.Parts)
	}

	activity := &models.Activity{
		Title:       req.Title,
		Description: req.Description,
		ScoringKind: model.Kind,
		Deadline:    req.Deadline,
		CreatedBy:   actorID,
	}
	if err := activity.SetParts(model.Parts); err != nil {
		return nil, err
	}

	if err := s.repo.Activity().Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}

	s.audit(models.AuditActivityCreated, actorID, activity, events.EventActivityCreated)
	return buildActivityResponse(activity, model), nil
}

func (s *activityService) GetByID(ctx context.Context, id uint) (*ActivityResponse, error) {
	activity, err := s.repo.Activity().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	model, err := grading.ModelFromActivity(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to load score model: %w", err)
	}
	return buildActivityResponse(activity, model), nil
}

// Update changes descriptive fields only. The score scale is immutable once
// set: corrections already carry points indexed against it.
func (s *activityService) Update(ctx context.Context, id uint, req *UpdateActivityRequest, actorID string) (*ActivityResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	activity, err := s.repo.Activity().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	if req.Title != nil {
		activity.Title = *req.Title
	}
	if req.Description != nil {
		activity.Description = req.Description
	}
	if req.Deadline != nil {
		activity.Deadline = req.Deadline
	}

	if err := s.repo.Activity().Update(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	s.invalidate(ctx, id)

	model, err := grading.ModelFromActivity(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to load score model: %w", err)
	}
	return buildActivityResponse(activity, model), nil
}

func (s *activityService) List(ctx context.Context, filters repositories.ActivityFilters) (*ActivityListResponse, error) {
	activities, total, err := s.repo.Activity().List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	resp := &ActivityListResponse{
		Activities: make([]*ActivityResponse, 0, len(activities)),
		Total:      total,
		Limit:      filters.Limit,
		Offset:     filters.Offset,
	}
	for _, a := range activities {
		model, err := grading.ModelFromActivity(a)
		if err != nil {
			s.logger.Error("Corrupt score parts", "activity_id", a.ID, "error", err)
			continue
		}
		resp.Activities = append(resp.Activities, buildActivityResponse(a, model))
	}
	return resp, nil
}

func (s *activityService) Delete(ctx context.Context, id uint, actorID string) error {
	activity, err := s.repo.Activity().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrActivityNotFound
		}
		return fmt.Errorf("failed to get activity: %w", err)
	}

	hasCorrections, err := s.repo.Correction().ExistsForActivity(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check corrections: %w", err)
	}
	if hasCorrections {
		return ErrActivityHasCorrections
	}

	if err := s.repo.Activity().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	s.invalidate(ctx, id)

	s.logger.Info("Activity deleted", "activity_id", id, "actor_id", actorID)
	s.audit(models.AuditActivityDeleted, actorID, activity, events.EventActivityDeleted)
	return nil
}

func (s *activityService) GetGradeStats(ctx context.Context, id uint) (*repositories.ActivityGradeStats, error) {
	if _, err := s.repo.Activity().GetByID(ctx, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrActivityNotFound
		}
		return nil, fmt.Errorf("failed to get activity: %w", err)
	}

	stats, err := s.repo.Correction().GetGradeStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to compute grade stats: %w", err)
	}
	return stats, nil
}

func (s *activityService) invalidate(ctx context.Context, activityID uint) {
	if err := s.cache.Delete(ctx, cache.ScoreModelKey(activityID)); err != nil {
		s.logger.Warn("Score model cache invalidation failed", "activity_id", activityID, "error", err)
	}
}

func (s *activityService) audit(action models.AuditActionType, actorID string, activity *models.Activity, eventType events.EventType) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		entry := &models.AuditLog{
			ActionType: action,
			UserID:     actorID,
			EntityType: "activity",
			EntityID:   activity.ID,
		}
		if raw, err := json.Marshal(map[string]interface{}{"title": activity.Title}); err == nil {
			entry.Metadata = raw
		}
		if err := s.repo.AuditLog().Create(ctx, entry); err != nil {
			s.logger.Error("Failed to write audit log", "action", action, "activity_id", activity.ID, "error", err)
		}

		if s.publisher != nil {
			event := events.NewAuditEvent(eventType, &events.ActivityChangedEvent{
				ActivityID: activity.ID,
				Title:      activity.Title,
				ActionType: action,
				ActorID:    actorID,
				ChangedAt:  time.Now(),
			}, map[string]interface{}{"actor_id": actorID})
			if err := s.publisher.PublishAuditEvent(ctx, event); err != nil {
				s.logger.Error("Failed to publish audit event", "action", action, "activity_id", activity.ID, "error", err)
			}
		}
	}()
}

func buildActivityResponse(a *models.Activity, model grading.ScoreModel) *ActivityResponse {
	return &ActivityResponse{
		ID:          a.ID,
		Title:       a.Title,
		Description: a.Description,
		ScoringKind: a.ScoringKind,
		Parts:       model.Parts,
		TotalPoints: model.Total(),
		Deadline:    a.Deadline,
		CreatedBy:   a.CreatedBy,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}
