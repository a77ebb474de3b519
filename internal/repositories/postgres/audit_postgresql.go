package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/teachkit/correction-service/internal/models"
	"github.com/teachkit/correction-service/internal/repositories"
)

type AuditLogPostgreSQL struct {
	db *gorm.DB
}

func NewAuditLogPostgreSQL(db *gorm.DB) repositories.AuditLogRepository {
	return &AuditLogPostgreSQL{db: db}
}

func (a AuditLogPostgreSQL) Create(ctx context.Context, entry *models.AuditLog) error {
	return a.db.WithContext(ctx).Create(entry).Error
}

func (a AuditLogPostgreSQL) ListByEntity(ctx context.Context, entityType string, entityID uint, filters repositories.AuditLogFilters) ([]*models.AuditLog, int64, error) {
	var entries []*models.AuditLog
	var total int64

	query := a.db.WithContext(ctx).
		Model(&models.AuditLog{}).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID)

	if filters.ActionType != nil {
		query = query.Where("action_type = ?", *filters.ActionType)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.DateFrom != nil {
		query = query.Where("created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("created_at <= ?", *filters.DateTo)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = query.Order("created_at desc")
	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
