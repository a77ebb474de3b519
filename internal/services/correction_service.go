package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/teachkit/correction-service/internal/cache"
	"github.com/teachkit/correction-service/internal/config"
	"github.com/teachkit/correction-service/internal/events"
	"github.com/teachkit/correction-service/internal/grading"
	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
	"github.com/teachkit/correction-service/internal/validator"
)

type correctionService struct {
	repo       repositories.Repository
	cache      cache.CacheService
	publisher  events.EventPublisher
	logger     *slog.Logger
	validator  *validator.Validator
	floors     config.GradingConfig
	latePolicy grading.LatePenaltyPolicy
}

func NewCorrectionService(
	repo repositories.Repository,
	cacheService cache.CacheService,
	publisher events.EventPublisher,
	logger *slog.Logger,
	v *validator.Validator,
	floors config.GradingConfig,
) CorrectionService {
	return &correctionService{
		repo:       repo,
		cache:      cacheService,
		publisher:  publisher,
		logger:     logger,
		validator:  v,
		floors:     floors,
		latePolicy: grading.DefaultLatePenaltyPolicy(),
	}
}

// ===== CREATION =====

func (s *correctionService) Create(ctx context.Context, req *CreateCorrectionRequest, actorID string) (*CorrectionResponse, error) {
	s.logger.Info("Creating correction", "activity_id", req.ActivityID, "student_id", req.StudentID, "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	activity, err := s.getActivity(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	model, err := grading.ModelFromActivity(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to load score model: %w", err)
	}

	if _, err := s.repo.Correction().GetByStudentAndActivity(ctx, req.StudentID, req.ActivityID); err == nil {
		return nil, ErrCorrectionExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check existing correction: %w", err)
	}

	correction, err := s.newCorrection(activity, model, req.StudentID, req.Deadline, req.SubmissionDate)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Correction().Create(ctx, correction); err != nil {
		return nil, fmt.Errorf("failed to create correction: %w", err)
	}

	s.audit(models.AuditCorrectionCreated, actorID, correction, events.EventCorrectionCreated, map[string]interface{}{
		"activity_id": correction.ActivityID,
		"student_id":  correction.StudentID,
	})

	return s.buildResponse(correction, model), nil
}

func (s *correctionService) CreateBatch(ctx context.Context, req *BatchCreateCorrectionsRequest, actorID string) (*BatchCreateResult, error) {
	s.logger.Info("Creating corrections batch", "activity_id", req.ActivityID, "students", len(req.StudentIDs), "actor_id", actorID)

	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	activity, err := s.getActivity(ctx, req.ActivityID)
	if err != nil {
		return nil, err
	}
	model, err := grading.ModelFromActivity(activity)
	if err != nil {
		return nil, fmt.Errorf("failed to load score model: %w", err)
	}

	result := &BatchCreateResult{}

	err = s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		var batch []*models.Correction
		for _, studentID := range req.StudentIDs {
			if _, err := tx.Correction().GetByStudentAndActivity(ctx, studentID, req.ActivityID); err == nil {
				result.Skipped = append(result.Skipped, studentID)
				continue
			} else if !repositories.IsNotFoundError(err) {
				return fmt.Errorf("failed to check existing correction: %w", err)
			}

			correction, err := s.newCorrection(activity, model, studentID, req.Deadline, nil)
			if err != nil {
				return err
			}
			batch = append(batch, correction)
		}

		if len(batch) == 0 {
			return nil
		}
		if err := tx.Correction().CreateBatch(ctx, batch); err != nil {
			return fmt.Errorf("failed to create corrections: %w", err)
		}
		for _, c := range batch {
			result.Created = append(result.Created, s.buildResponse(c, model))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, c := range result.Created {
		s.auditByID(models.AuditCorrectionCreated, actorID, c.ID, c.ActivityID, c.StudentID, events.EventCorrectionCreated, map[string]interface{}{
			"activity_id": c.ActivityID,
			"student_id":  c.StudentID,
			"batch":       true,
		})
	}

	return result, nil
}

// ===== READS =====

func (s *correctionService) GetByID(ctx context.Context, id uint) (*CorrectionResponse, error) {
	correction, err := s.repo.Correction().GetByIDWithActivity(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCorrectionNotFound
		}
		return nil, fmt.Errorf("failed to get correction: %w", err)
	}

	model, err := s.scoreModelFor(ctx, correction.ActivityID)
	if err != nil {
		return nil, err
	}
	return s.buildResponse(correction, model), nil
}

func (s *correctionService) ListByActivity(ctx context.Context, activityID uint, filters repositories.CorrectionFilters) (*CorrectionListResponse, error) {
	if _, err := s.getActivity(ctx, activityID); err != nil {
		return nil, err
	}

	corrections, total, err := s.repo.Correction().ListByActivity(ctx, activityID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}

	model, err := s.scoreModelFor(ctx, activityID)
	if err != nil {
		return nil, err
	}
	return s.buildListResponse(corrections, model, total, filters), nil
}

func (s *correctionService) ListByStudent(ctx context.Context, studentID string, filters repositories.CorrectionFilters) (*CorrectionListResponse, error) {
	corrections, total, err := s.repo.Correction().ListByStudent(ctx, studentID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list corrections: %w", err)
	}

	resp := &CorrectionListResponse{
		Corrections: make([]*CorrectionResponse, 0, len(corrections)),
		Total:       total,
		Limit:       filters.Limit,
		Offset:      filters.Offset,
	}
	for _, c := range corrections {
		model, err := s.scoreModelFor(ctx, c.ActivityID)
		if err != nil {
			return nil, err
		}
		resp.Corrections = append(resp.Corrections, s.buildResponse(c, model))
	}
	return resp, nil
}

// ===== NUMERIC UPDATES =====

func (s *correctionService) UpdateGrade(ctx context.Context, id uint, req *UpdateGradeRequest, actorID string) (*CorrectionResponse, error) {
	if req.Points == nil && req.Penalty == nil {
		return nil, ErrInvalidInput
	}

	return s.update(ctx, id, actorID, models.AuditGradeUpdated, events.EventGradeUpdated, func(c *models.Correction, model grading.ScoreModel) error {
		if req.Points != nil {
			points := grading.Floats(req.Points)
			if len(points) != model.PartCount() {
				return NewValidationError("points", fmt.Sprintf("expected %d values", model.PartCount()), len(points))
			}
			if err := model.CheckPoints(points); err != nil {
				// Stored as given; out-of-range values are legal legacy data.
				s.logger.Warn("Earned points outside scale", "correction_id", c.ID, "detail", err.Error())
			}
			if err := c.SetPoints(points); err != nil {
				return err
			}
		}
		if req.Penalty != nil {
			c.Penalty = floatPtr(req.Penalty.Float())
		}
		return s.recompute(c, model)
	})
}

func (s *correctionService) UpdatePenalty(ctx context.Context, id uint, req *UpdatePenaltyRequest, actorID string) (*CorrectionResponse, error) {
	if req.Penalty == nil {
		return nil, ErrInvalidInput
	}

	return s.update(ctx, id, actorID, models.AuditPenaltyUpdated, events.EventPenaltyUpdated, func(c *models.Correction, model grading.ScoreModel) error {
		c.Penalty = floatPtr(req.Penalty.Float())
		return s.recompute(c, model)
	})
}

func (s *correctionService) UpdateBonus(ctx context.Context, id uint, req *UpdateBonusRequest, actorID string) (*CorrectionResponse, error) {
	if req.Bonus == nil {
		return nil, ErrInvalidInput
	}

	return s.update(ctx, id, actorID, models.AuditBonusUpdated, events.EventBonusUpdated, func(c *models.Correction, model grading.ScoreModel) error {
		if model.Kind != models.ScoringVariable {
			return ErrBonusNotSupported
		}
		c.Bonus = floatPtr(req.Bonus.Float())
		return s.recompute(c, model)
	})
}

// ===== STATUS =====

func (s *correctionService) UpdateStatus(ctx context.Context, id uint, req *UpdateStatusRequest, actorID string) (*CorrectionResponse, error) {
	if req.Status == "" {
		return nil, ErrInvalidInput
	}

	var oldStatus models.CorrectionStatus
	resp, err := s.update(ctx, id, actorID, models.AuditStatusChanged, events.EventStatusChanged, func(c *models.Correction, model grading.ScoreModel) error {
		oldStatus = c.Status
		return grading.ApplyStatus(c, req.Status, model, time.Now())
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Correction status changed", "correction_id", id, "from", oldStatus, "to", req.Status, "actor_id", actorID)
	return resp, nil
}

// ===== DATES =====

func (s *correctionService) UpdateDates(ctx context.Context, id uint, req *UpdateDatesRequest, actorID string) (*CorrectionResponse, error) {
	if req.Deadline == nil && req.SubmissionDate == nil {
		return nil, ErrInvalidInput
	}

	// Dates are plain fields: no penalty or grade is touched here. Applying
	// the lateness suggestion goes through UpdatePenalty.
	return s.update(ctx, id, actorID, models.AuditDatesUpdated, events.EventDatesUpdated, func(c *models.Correction, model grading.ScoreModel) error {
		if req.Deadline != nil {
			c.Deadline = req.Deadline
		}
		if req.SubmissionDate != nil {
			c.SubmissionDate = req.SubmissionDate
		}
		return nil
	})
}

func (s *correctionService) SuggestLatePenalty(ctx context.Context, id uint) (*LatePenaltyResponse, error) {
	correction, err := s.repo.Correction().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrCorrectionNotFound
		}
		return nil, fmt.Errorf("failed to get correction: %w", err)
	}

	resp := &LatePenaltyResponse{
		GraceDays:    s.latePolicy.GraceDays,
		PointsPerDay: s.latePolicy.PointsPerDay,
		MaxPenalty:   s.latePolicy.MaxPenalty,
	}
	if correction.Deadline == nil || correction.SubmissionDate == nil {
		return resp, nil
	}
	resp.DaysLate = s.latePolicy.DaysLate(*correction.Deadline, *correction.SubmissionDate)
	resp.SuggestedPenalty = s.latePolicy.Penalty(*correction.Deadline, *correction.SubmissionDate)
	return resp, nil
}

// ===== DELETE =====

func (s *correctionService) Delete(ctx context.Context, id uint, actorID string) error {
	correction, err := s.repo.Correction().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrCorrectionNotFound
		}
		return fmt.Errorf("failed to get correction: %w", err)
	}

	if err := s.repo.Correction().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete correction: %w", err)
	}

	s.logger.Info("Correction deleted", "correction_id", id, "actor_id", actorID)
	s.audit(models.AuditCorrectionDeleted, actorID, correction, events.EventCorrectionDeleted, map[string]interface{}{
		"activity_id": correction.ActivityID,
		"student_id":  correction.StudentID,
	})
	return nil
}
