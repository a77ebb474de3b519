package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/teachkit/correction-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type CorrectionFilters struct {
	Status    *models.CorrectionStatus `json:"status"`
	StudentID *string                  `json:"student_id"`
	DateFrom  *time.Time               `json:"date_from"`
	DateTo    *time.Time               `json:"date_to"`
	Limit     int                      `json:"limit"`
	Offset    int                      `json:"offset"`
	SortBy    string                   `json:"sort_by"`    // "created_at", "student_id", "final_grade"
	SortOrder string                   `json:"sort_order"` // "asc", "desc"
}

type ActivityFilters struct {
	ScoringKind *models.ScoringKind `json:"scoring_kind"`
	CreatedBy   *string             `json:"created_by"`
	DateFrom    *time.Time          `json:"date_from"`
	DateTo      *time.Time          `json:"date_to"`
	Limit       int                 `json:"limit"`
	Offset      int                 `json:"offset"`
	SortBy      string              `json:"sort_by"`
	SortOrder   string              `json:"sort_order"`
}

type AuditLogFilters struct {
	ActionType *models.AuditActionType `json:"action_type"`
	UserID     *string                 `json:"user_id"`
	DateFrom   *time.Time              `json:"date_from"`
	DateTo     *time.Time              `json:"date_to"`
	Limit      int                     `json:"limit"`
	Offset     int                     `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

type ActivityGradeStats struct {
	TotalCorrections  int                              `json:"total_corrections"`
	StatusBreakdown   map[models.CorrectionStatus]int  `json:"status_breakdown"`
	AverageGrade      float64                          `json:"average_grade"`
	AverageFinalGrade float64                          `json:"average_final_grade"`
	GradedCorrections int                              `json:"graded_corrections"`
}

// ===== REPOSITORY INTERFACES =====

// CorrectionRepository is the persistence boundary for correction rows.
type CorrectionRepository interface {
	Create(ctx context.Context, correction *models.Correction) error
	CreateBatch(ctx context.Context, corrections []*models.Correction) error
	GetByID(ctx context.Context, id uint) (*models.Correction, error)
	GetByIDWithActivity(ctx context.Context, id uint) (*models.Correction, error)
	GetByStudentAndActivity(ctx context.Context, studentID string, activityID uint) (*models.Correction, error)
	Update(ctx context.Context, correction *models.Correction) error
	Delete(ctx context.Context, id uint) error

	ListByActivity(ctx context.Context, activityID uint, filters CorrectionFilters) ([]*models.Correction, int64, error)
	ListByStudent(ctx context.Context, studentID string, filters CorrectionFilters) ([]*models.Correction, int64, error)

	GetGradeStats(ctx context.Context, activityID uint) (*ActivityGradeStats, error)
	ExistsForActivity(ctx context.Context, activityID uint) (bool, error)
}

// ActivityRepository is the persistence boundary for activities and their
// score models.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id uint) (*models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters ActivityFilters) ([]*models.Activity, int64, error)
}

// AuditLogRepository persists the audit trail. Append-only.
type AuditLogRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType string, entityID uint, filters AuditLogFilters) ([]*models.AuditLog, int64, error)
}

// Repository aggregates all entity repositories. WithTransaction runs fn
// against a repository bound to a single database transaction; the grading
// read-modify-write pairs always go through it to avoid lost updates.
type Repository interface {
	Correction() CorrectionRepository
	Activity() ActivityRepository
	AuditLog() AuditLogRepository
	WithTransaction(ctx context.Context, fn func(Repository) error) error
}

// IsNotFoundError reports whether err is the store's missing-row error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
