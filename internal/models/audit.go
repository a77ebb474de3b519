package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditActionType string

const (
	AuditCorrectionCreated AuditActionType = "correction_created"
	AuditCorrectionDeleted AuditActionType = "correction_deleted"
	AuditGradeUpdated      AuditActionType = "grade_updated"
	AuditPenaltyUpdated    AuditActionType = "penalty_updated"
	AuditBonusUpdated      AuditActionType = "bonus_updated"
	AuditStatusChanged     AuditActionType = "status_changed"
	AuditDatesUpdated      AuditActionType = "dates_updated"
	AuditActivityCreated   AuditActionType = "activity_created"
	AuditActivityDeleted   AuditActionType = "activity_deleted"
	AuditDataExported      AuditActionType = "data_exported"
)

// AuditLog records one engine operation. Writes are fire-and-forget: a failed
// audit append never fails the grading operation it describes.
type AuditLog struct {
	ID         uint            `json:"id" gorm:"primaryKey"`
	ActionType AuditActionType `json:"action_type" gorm:"not null;index"`

	UserID string `json:"user_id" gorm:"not null;size:255;index"`

	EntityType string `json:"entity_type" gorm:"size:50;index"` // correction, activity
	EntityID   uint   `json:"entity_id" gorm:"index"`

	// Metadata carries old_*/new_* field snapshots.
	Metadata datatypes.JSON `json:"metadata" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
