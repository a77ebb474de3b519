package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type CorrectionStatus string

const (
	CorrectionActive       CorrectionStatus = "ACTIVE"
	CorrectionDeactivated  CorrectionStatus = "DEACTIVATED"
	CorrectionAbsent       CorrectionStatus = "ABSENT"
	CorrectionNotSubmitted CorrectionStatus = "NON_RENDU"

	// CorrectionExempt appears in legacy response messages but has no defined
	// numeric side effects; it is recognized and rejected, never persisted.
	CorrectionExempt CorrectionStatus = "DISPENSE"
)

// Correction is one graded submission linking a student to an activity.
// Grade and FinalGrade are derived and always recomputed together; they are
// null only while the correction is DEACTIVATED.
type Correction struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	ActivityID uint   `json:"activity_id" gorm:"not null;index;uniqueIndex:idx_activity_student"`
	StudentID  string `json:"student_id" gorm:"not null;size:255;index;uniqueIndex:idx_activity_student"`

	// EarnedPoints holds the ordered []float64, one entry per score part.
	// Null while DEACTIVATED.
	EarnedPoints datatypes.JSON `json:"earned_points" gorm:"type:jsonb"`

	Penalty *float64 `json:"penalty" validate:"omitempty,min=0"`
	Bonus   *float64 `json:"bonus" validate:"omitempty,min=0"`

	Status CorrectionStatus `json:"status" gorm:"not null;default:ACTIVE;index" validate:"omitempty,correction_status"`

	Deadline       *time.Time `json:"deadline"`
	SubmissionDate *time.Time `json:"submission_date"`

	Grade      *float64 `json:"grade"`
	FinalGrade *float64 `json:"final_grade"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Activity Activity `json:"activity,omitempty" gorm:"foreignKey:ActivityID"`
	Student  User     `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

func (Correction) TableName() string {
	return "corrections"
}

// Points decodes the stored earned points. A null column decodes to nil.
func (c *Correction) Points() ([]float64, error) {
	if len(c.EarnedPoints) == 0 {
		return nil, nil
	}
	var points []float64
	if err := json.Unmarshal(c.EarnedPoints, &points); err != nil {
		return nil, err
	}
	return points, nil
}

// SetPoints encodes earned points for storage. A nil slice clears the column.
func (c *Correction) SetPoints(points []float64) error {
	if points == nil {
		c.EarnedPoints = nil
		return nil
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return err
	}
	c.EarnedPoints = raw
	return nil
}
