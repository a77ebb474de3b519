package events

import (
	"time"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/teachkit/correction-service/internal/models"
)

// EventType represents the audit events emitted by the grading engine
type EventType string

const (
	// Correction events
	EventCorrectionCreated EventType = "correction.created"
	EventCorrectionDeleted EventType = "correction.deleted"
	EventGradeUpdated      EventType = "correction.grade_updated"
	EventPenaltyUpdated    EventType = "correction.penalty_updated"
	EventBonusUpdated      EventType = "correction.bonus_updated"
	EventStatusChanged     EventType = "correction.status_changed"
	EventDatesUpdated      EventType = "correction.dates_updated"

	// Activity events
	EventActivityCreated EventType = "activity.created"
	EventActivityDeleted EventType = "activity.deleted"
	EventDataExported    EventType = "activity.exported"
)

// AuditEvent is the base event structure published for every engine operation
type AuditEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewAuditEvent builds an event with the service envelope filled in.
func NewAuditEvent(eventType EventType, data interface{}, metadata map[string]interface{}) *AuditEvent {
	return &AuditEvent{
		ID:        watermill.NewUUID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "correction-service",
		Version:   "1.0",
		Data:      data,
		Metadata:  metadata,
	}
}

// Audit event payloads

type CorrectionChangedEvent struct {
	CorrectionID uint                    `json:"correction_id"`
	ActivityID   uint                    `json:"activity_id"`
	StudentID    string                  `json:"student_id"`
	ActionType   models.AuditActionType  `json:"action_type"`
	ActorID      string                  `json:"actor_id"`
	OldGrade     *float64                `json:"old_grade,omitempty"`
	NewGrade     *float64                `json:"new_grade,omitempty"`
	OldFinal     *float64                `json:"old_final_grade,omitempty"`
	NewFinal     *float64                `json:"new_final_grade,omitempty"`
	OldStatus    models.CorrectionStatus `json:"old_status,omitempty"`
	NewStatus    models.CorrectionStatus `json:"new_status,omitempty"`
	ChangedAt    time.Time               `json:"changed_at"`
}

type ActivityChangedEvent struct {
	ActivityID uint                   `json:"activity_id"`
	Title      string                 `json:"title"`
	ActionType models.AuditActionType `json:"action_type"`
	ActorID    string                 `json:"actor_id"`
	ChangedAt  time.Time              `json:"changed_at"`
}
