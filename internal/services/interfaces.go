package services

import (
	"context"
	"time"

	"github.com/teachkit/correction-service/internal/grading"
	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
)

// ===== CORRECTION DTOS =====

type CreateCorrectionRequest struct {
	ActivityID     uint       `json:"activity_id" validate:"required"`
	StudentID      string     `json:"student_id" validate:"required,max=255"`
	Deadline       *time.Time `json:"deadline"`
	SubmissionDate *time.Time `json:"submission_date"`
}

type BatchCreateCorrectionsRequest struct {
	ActivityID uint       `json:"activity_id" validate:"required"`
	StudentIDs []string   `json:"student_ids" validate:"required,min=1,dive,required,max=255"`
	Deadline   *time.Time `json:"deadline"`
}

// UpdateGradeRequest carries a partial numeric update. Both fields are
// optional, but at least one must be present; numeric values decode
// permissively (strings and garbage coerce to 0, matching the legacy forms).
type UpdateGradeRequest struct {
	Points  []grading.SafeNumber `json:"points"`
	Penalty *grading.SafeNumber  `json:"penalty"`
}

type UpdatePenaltyRequest struct {
	Penalty *grading.SafeNumber `json:"penalty" validate:"required"`
}

type UpdateBonusRequest struct {
	Bonus *grading.SafeNumber `json:"bonus" validate:"required"`
}

type UpdateStatusRequest struct {
	Status models.CorrectionStatus `json:"status" validate:"required"`
}

// UpdateDatesRequest changes the date fields only; penalty and grades are
// left as stored. The lateness suggestion is applied via UpdatePenalty.
type UpdateDatesRequest struct {
	Deadline       *time.Time `json:"deadline"`
	SubmissionDate *time.Time `json:"submission_date"`
}

// ===== CORRECTION RESPONSES =====

type PartScore struct {
	Name      string  `json:"name"`
	MaxPoints float64 `json:"max_points"`
	Earned    float64 `json:"earned"`
}

type CorrectionResponse struct {
	ID         uint   `json:"id"`
	ActivityID uint   `json:"activity_id"`
	StudentID  string `json:"student_id"`

	Status models.CorrectionStatus `json:"status"`

	EarnedPoints []float64   `json:"earned_points,omitempty"`
	Breakdown    []PartScore `json:"breakdown,omitempty"`

	Penalty *float64 `json:"penalty"`
	Bonus   *float64 `json:"bonus,omitempty"`

	Grade      *float64 `json:"grade"`
	FinalGrade *float64 `json:"final_grade"`

	Deadline       *time.Time `json:"deadline"`
	SubmissionDate *time.Time `json:"submission_date"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CorrectionListResponse struct {
	Corrections []*CorrectionResponse `json:"corrections"`
	Total       int64                 `json:"total"`
	Limit       int                   `json:"limit"`
	Offset      int                   `json:"offset"`
}

type BatchCreateResult struct {
	Created []*CorrectionResponse `json:"created"`
	Skipped []string              `json:"skipped,omitempty"` // students already having a correction
}

type LatePenaltyResponse struct {
	DaysLate         int     `json:"days_late"`
	SuggestedPenalty float64 `json:"suggested_penalty"`
	GraceDays        int     `json:"grace_days"`
	PointsPerDay     float64 `json:"points_per_day"`
	MaxPenalty       float64 `json:"max_penalty"`
}

// ===== ACTIVITY DTOS =====

type CreateActivityRequest struct {
	Title       string             `json:"title" validate:"required,min=1,max=200"`
	Description *string            `json:"description" validate:"omitempty,max=1000"`
	ScoringKind models.ScoringKind `json:"scoring_kind" validate:"required,scoring_kind"`
	Parts       []models.ScorePart `json:"parts" validate:"required,min=1,dive"`
	Deadline    *time.Time         `json:"deadline"`
}

type UpdateActivityRequest struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string    `json:"description" validate:"omitempty,max=1000"`
	Deadline    *time.Time `json:"deadline"`
}

type ActivityResponse struct {
	ID          uint               `json:"id"`
	Title       string             `json:"title"`
	Description *string            `json:"description,omitempty"`
	ScoringKind models.ScoringKind `json:"scoring_kind"`
	Parts       []models.ScorePart `json:"parts"`
	TotalPoints float64            `json:"total_points"`
	Deadline    *time.Time         `json:"deadline"`
	CreatedBy   string             `json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

type ActivityListResponse struct {
	Activities []*ActivityResponse `json:"activities"`
	Total      int64               `json:"total"`
	Limit      int                 `json:"limit"`
	Offset     int                 `json:"offset"`
}

// ===== EXPORT DTOS =====

type ExportResult struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
}

// ===== SERVICE INTERFACES =====

type CorrectionService interface {
	Create(ctx context.Context, req *CreateCorrectionRequest, actorID string) (*CorrectionResponse, error)
	CreateBatch(ctx context.Context, req *BatchCreateCorrectionsRequest, actorID string) (*BatchCreateResult, error)
	GetByID(ctx context.Context, id uint) (*CorrectionResponse, error)
	ListByActivity(ctx context.Context, activityID uint, filters repositories.CorrectionFilters) (*CorrectionListResponse, error)
	ListByStudent(ctx context.Context, studentID string, filters repositories.CorrectionFilters) (*CorrectionListResponse, error)

	UpdateGrade(ctx context.Context, id uint, req *UpdateGradeRequest, actorID string) (*CorrectionResponse, error)
	UpdatePenalty(ctx context.Context, id uint, req *UpdatePenaltyRequest, actorID string) (*CorrectionResponse, error)
	UpdateBonus(ctx context.Context, id uint, req *UpdateBonusRequest, actorID string) (*CorrectionResponse, error)
	UpdateStatus(ctx context.Context, id uint, req *UpdateStatusRequest, actorID string) (*CorrectionResponse, error)
	UpdateDates(ctx context.Context, id uint, req *UpdateDatesRequest, actorID string) (*CorrectionResponse, error)

	SuggestLatePenalty(ctx context.Context, id uint) (*LatePenaltyResponse, error)
	Delete(ctx context.Context, id uint, actorID string) error
}

type ActivityService interface {
	Create(ctx context.Context, req *CreateActivityRequest, actorID string) (*ActivityResponse, error)
	GetByID(ctx context.Context, id uint) (*ActivityResponse, error)
	Update(ctx context.Context, id uint, req *UpdateActivityRequest, actorID string) (*ActivityResponse, error)
	List(ctx context.Context, filters repositories.ActivityFilters) (*ActivityListResponse, error)
	Delete(ctx context.Context, id uint, actorID string) error
	GetGradeStats(ctx context.Context, id uint) (*repositories.ActivityGradeStats, error)
}

type ExportService interface {
	ExportActivityCorrections(ctx context.Context, activityID uint, actorID string) (*ExportResult, error)
}
