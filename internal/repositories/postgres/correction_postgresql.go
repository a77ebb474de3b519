package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
)

type CorrectionPostgreSQL struct {
	db *gorm.DB
}

func NewCorrectionPostgreSQL(db *gorm.DB) repositories.CorrectionRepository {
	return &CorrectionPostgreSQL{db: db}
}

func (c CorrectionPostgreSQL) Create(ctx context.Context, correction *models.Correction) error {
	return c.db.WithContext(ctx).Create(correction).Error
}

func (c CorrectionPostgreSQL) CreateBatch(ctx context.Context, corrections []*models.Correction) error {
	if len(corrections) == 0 {
		return nil
	}
	return c.db.WithContext(ctx).Create(corrections).Error
}

func (c CorrectionPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Correction, error) {
	var correction models.Correction
	if err := c.db.WithContext(ctx).First(&correction, id).Error; err != nil {
		return nil, err
	}

	return &correction, nil
}

func (c CorrectionPostgreSQL) GetByIDWithActivity(ctx context.Context, id uint) (*models.Correction, error) {
	var correction models.Correction
	if err := c.db.WithContext(ctx).
		Preload("Activity").
		Preload("Student").
		First(&correction, id).Error; err != nil {
		return nil, err
	}
	return &correction, nil
}

func (c CorrectionPostgreSQL) GetByStudentAndActivity(ctx context.Context, studentID string, activityID uint) (*models.Correction, error) {
	var correction models.Correction
	if err := c.db.WithContext(ctx).
		Where("student_id = ? AND activity_id = ?", studentID, activityID).
		First(&correction).Error; err != nil {
		return nil, err
	}

	return &correction, nil
}

func (c CorrectionPostgreSQL) Update(ctx context.Context, correction *models.Correction) error {
	return c.db.WithContext(ctx).Save(correction).Error
}

func (c CorrectionPostgreSQL) Delete(ctx context.Context, id uint) error {
	return c.db.WithContext(ctx).Delete(&models.Correction{}, id).Error
}

func (c CorrectionPostgreSQL) ListByActivity(ctx context.Context, activityID uint, filters repositories.CorrectionFilters) ([]*models.Correction, int64, error) {
	var corrections []*models.Correction
	var total int64

	// apply filter first
	query := c.db.WithContext(ctx).Model(&models.Correction{}).Where("activity_id = ?", activityID)
	query = c.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// then apply pagination and sorting
	query = c.applyPaginationAndSort(query, filters)

	if err := query.Preload("Student").Find(&corrections).Error; err != nil {
		return nil, 0, err
	}

	return corrections, total, nil
}

func (c CorrectionPostgreSQL) ListByStudent(ctx context.Context, studentID string, filters repositories.CorrectionFilters) ([]*models.Correction, int64, error) {
	var corrections []*models.Correction
	var total int64

	query := c.db.WithContext(ctx).Model(&models.Correction{}).Where("student_id = ?", studentID)
	query = c.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = c.applyPaginationAndSort(query, filters)

	if err := query.Preload("Activity").Find(&corrections).Error; err != nil {
		return nil, 0, err
	}

	return corrections, total, nil
}

func (c CorrectionPostgreSQL) GetGradeStats(ctx context.Context, activityID uint) (*repositories.ActivityGradeStats, error) {
	stats := &repositories.ActivityGradeStats{
		StatusBreakdown: make(map[models.CorrectionStatus]int),
	}

	var rows []struct {
		Status models.CorrectionStatus
		Count  int
	}
	if err := c.db.WithContext(ctx).
		Model(&models.Correction{}).
		Select("status, count(*) as count").
		Where("activity_id = ?", activityID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	for _, row := range rows {
		stats.StatusBreakdown[row.Status] = row.Count
		stats.TotalCorrections += row.Count
	}

	var averages struct {
		AvgGrade      *float64
		AvgFinalGrade *float64
		Graded        int
	}
	if err := c.db.WithContext(ctx).
		Model(&models.Correction{}).
		Select("avg(grade) as avg_grade, avg(final_grade) as avg_final_grade, count(grade) as graded").
		Where("activity_id = ? AND grade IS NOT NULL", activityID).
		Scan(&averages).Error; err != nil {
		return nil, err
	}

	if averages.AvgGrade != nil {
		stats.AverageGrade = *averages.AvgGrade
	}
	if averages.AvgFinalGrade != nil {
		stats.AverageFinalGrade = *averages.AvgFinalGrade
	}
	stats.GradedCorrections = averages.Graded

	return stats, nil
}

func (c CorrectionPostgreSQL) ExistsForActivity(ctx context.Context, activityID uint) (bool, error) {
	var count int64
	if err := c.db.WithContext(ctx).
		Model(&models.Correction{}).
		Where("activity_id = ?", activityID).
		Count(&count).Error; err != nil {
		return false, err
	}

	return count > 0, nil
}

func (c CorrectionPostgreSQL) applyFilters(query *gorm.DB, filters repositories.CorrectionFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.StudentID != nil {
		query = query.Where("student_id = ?", *filters.StudentID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (c CorrectionPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.CorrectionFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "student_id", "final_grade", "created_at", "updated_at":
	default:
		sortBy = "created_at"
	}
	order := "asc"
	if filters.SortOrder == "desc" {
		order = "desc"
	}
	query = query.Order(sortBy + " " + order)

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}
	return query
}
