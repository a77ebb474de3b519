package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/teachkit/correction-service/internal/repositories"
)

type gormRepository struct {
	db         *gorm.DB
	correction repositories.CorrectionRepository
	activity   repositories.ActivityRepository
	auditLog   repositories.AuditLogRepository
}

// NewRepository wires the gorm-backed repositories around one *gorm.DB.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &gormRepository{
		db:         db,
		correction: NewCorrectionPostgreSQL(db),
		activity:   NewActivityPostgreSQL(db),
		auditLog:   NewAuditLogPostgreSQL(db),
	}
}

func (r *gormRepository) Correction() repositories.CorrectionRepository {
	return r.correction
}

func (r *gormRepository) Activity() repositories.ActivityRepository {
	return r.activity
}

func (r *gormRepository) AuditLog() repositories.AuditLogRepository {
	return r.auditLog
}

func (r *gormRepository) WithTransaction(ctx context.Context, fn func(repositories.Repository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
