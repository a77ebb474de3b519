package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ScoringKind string

const (
	// ScoringTwoPart is the fixed experimental/theoretical two-part scale.
	ScoringTwoPart ScoringKind = "two_part"
	// ScoringVariable allows any number of named parts.
	ScoringVariable ScoringKind = "variable"
)

// ScorePart is one scored component of an activity's scale.
type ScorePart struct {
	Name      string  `json:"name"`
	MaxPoints float64 `json:"max_points"`
}

// Canonical part names of the two-part family.
const (
	PartExperimental = "Expérimental"
	PartTheoretical  = "Théorique"
)

type Activity struct {
	ID          uint        `json:"id" gorm:"primaryKey"`
	Title       string      `json:"title" gorm:"not null;size:200;index" validate:"required,min=1,max=200"`
	Description *string     `json:"description" gorm:"type:text" validate:"omitempty,max=1000"`
	ScoringKind ScoringKind `json:"scoring_kind" gorm:"not null;default:two_part" validate:"omitempty,scoring_kind"`

	// ScoreParts holds the ordered []ScorePart scale. Immutable in practice once
	// corrections reference the activity.
	ScoreParts datatypes.JSON `json:"score_parts" gorm:"type:jsonb;not null"`

	Deadline *time.Time `json:"deadline"`

	CreatedBy string         `json:"created_by" gorm:"not null;size:255;index"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`

	// Relations
	Corrections []Correction `json:"corrections,omitempty" gorm:"foreignKey:ActivityID"`

	// Computed fields (not stored)
	CorrectionCount int     `json:"correction_count" gorm:"-"`
	TotalPoints     float64 `json:"total_points" gorm:"-"`
}

func (Activity) TableName() string {
	return "activities"
}

// Parts decodes the stored scale.
func (a *Activity) Parts() ([]ScorePart, error) {
	var parts []ScorePart
	if len(a.ScoreParts) == 0 {
		return parts, nil
	}
	if err := json.Unmarshal(a.ScoreParts, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

// SetParts encodes the scale for storage.
func (a *Activity) SetParts(parts []ScorePart) error {
	raw, err := json.Marshal(parts)
	if err != nil {
		return err
	}
	a.ScoreParts = raw
	return nil
}
