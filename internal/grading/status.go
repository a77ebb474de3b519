package grading

import (
	"errors"
	"time"

	"github.com/teachkit/correction-service/internal/models"
)

var (
	// ErrInvalidStatus is returned for a status string outside the known set.
	ErrInvalidStatus = errors.New("invalid correction status")
	// ErrStatusNotSupported is returned for DISPENSE, which the legacy system
	// references without ever defining its numeric side effects.
	ErrStatusNotSupported = errors.New("status has no defined transition")
)

// SettableStatuses lists every status a correction can be moved to. The
// machine is total over this set: any of them is reachable from any state.
func SettableStatuses() []models.CorrectionStatus {
	return []models.CorrectionStatus{
		models.CorrectionActive,
		models.CorrectionDeactivated,
		models.CorrectionAbsent,
		models.CorrectionNotSubmitted,
	}
}

// IsSettableStatus reports whether s is a status ApplyStatus accepts.
func IsSettableStatus(s models.CorrectionStatus) bool {
	for _, known := range SettableStatuses() {
		if s == known {
			return true
		}
	}
	return false
}

// ApplyStatus moves the correction to the target status, fully overwriting
// the derived numeric fields for that state. Transitions never partially
// update; applying the same status twice is idempotent.
//
//	ACTIVE      → points all-zero, penalty/bonus 0, submission date = now, grades 0
//	DEACTIVATED → points, penalty, submission date and grades all null
//	ABSENT      → points all-zero, penalty 0, grades 0 (submission date kept)
//	NON_RENDU   → same numeric effect as ABSENT, distinct label for reporting
func ApplyStatus(c *models.Correction, target models.CorrectionStatus, model ScoreModel, now time.Time) error {
	switch target {
	case models.CorrectionActive:
		if err := c.SetPoints(model.ZeroPoints()); err != nil {
			return err
		}
		c.Penalty = floatPtr(0)
		if c.Bonus != nil {
			c.Bonus = floatPtr(0)
		}
		c.SubmissionDate = &now
		c.Grade = floatPtr(0)
		c.FinalGrade = floatPtr(0)

	case models.CorrectionDeactivated:
		if err := c.SetPoints(nil); err != nil {
			return err
		}
		c.Penalty = nil
		c.SubmissionDate = nil
		c.Grade = nil
		c.FinalGrade = nil

	case models.CorrectionAbsent, models.CorrectionNotSubmitted:
		if err := c.SetPoints(model.ZeroPoints()); err != nil {
			return err
		}
		c.Penalty = floatPtr(0)
		c.Grade = floatPtr(0)
		c.FinalGrade = floatPtr(0)

	case models.CorrectionExempt:
		return ErrStatusNotSupported

	default:
		return ErrInvalidStatus
	}

	c.Status = target
	return nil
}

func floatPtr(f float64) *float64 {
	return &f
}
