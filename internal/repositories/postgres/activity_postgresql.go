package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
)

type ActivityPostgreSQL struct {
	db *gorm.DB
}

func NewActivityPostgreSQL(db *gorm.DB) repositories.ActivityRepository {
	return &ActivityPostgreSQL{db: db}
}

func (a ActivityPostgreSQL) Create(ctx context.Context, activity *models.Activity) error {
	return a.db.WithContext(ctx).Create(activity).Error
}

func (a ActivityPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Activity, error) {
	var activity models.Activity
	if err := a.db.WithContext(ctx).First(&activity, id).Error; err != nil {
		return nil, err
	}

	return &activity, nil
}

func (a ActivityPostgreSQL) Update(ctx context.Context, activity *models.Activity) error {
	return a.db.WithContext(ctx).Save(activity).Error
}

func (a ActivityPostgreSQL) Delete(ctx context.Context, id uint) error {
	return a.db.WithContext(ctx).Delete(&models.Activity{}, id).Error
}

func (a ActivityPostgreSQL) List(ctx context.Context, filters repositories.ActivityFilters) ([]*models.Activity, int64, error) {
	var activities []*models.Activity
	var total int64

	query := a.db.WithContext(ctx).Model(&models.Activity{})
	query = a.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = a.applyPaginationAndSort(query, filters)

	if err := query.Find(&activities).Error; err != nil {
		return nil, 0, err
	}

	return activities, total, nil
}

func (a ActivityPostgreSQL) applyFilters(query *gorm.DB, filters repositories.ActivityFilters) *gorm.DB {
	if filters.ScoringKind != nil {
		query = query.Where("scoring_kind = ?", *filters.ScoringKind)
	}
	if filters.CreatedBy != nil {
		query = query.Where("created_by = ?", *filters.CreatedBy)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}
	return query
}

func (a ActivityPostgreSQL) applyPaginationAndSort(query *gorm.DB, filters repositories.ActivityFilters) *gorm.DB {
	sortBy := filters.SortBy
	switch sortBy {
	case "title", "created_at", "deadline":
	default:
		sortBy = "created_at"
	}
	order := "desc"
	if filters.SortOrder == "asc" {
		order = "asc"
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
