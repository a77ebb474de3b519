package grading

import (
	"math"
	"time"
)

// LatePenaltyPolicy derives a suggested penalty-in-points from how late a
// submission is. The suggestion is display-only: the persisted penalty is
// whatever the grading endpoint is given, and a manual value always wins.
type LatePenaltyPolicy struct {
	// GraceDays is the number of late days carrying no penalty.
	GraceDays int
	// PointsPerDay is charged for each late day past the grace period.
	PointsPerDay float64
	// MaxPenalty caps the suggestion.
	MaxPenalty float64
}

// DefaultLatePenaltyPolicy matches the historical rule: one grace day, then
// 2 points per day capped at 15.
func DefaultLatePenaltyPolicy() LatePenaltyPolicy {
	return LatePenaltyPolicy{
		GraceDays:    1,
		PointsPerDay: 2,
		MaxPenalty:   15,
	}
}

// DaysLate is the whole-day difference between submission and deadline,
// truncated toward zero. Zero or negative means on time.
func (p LatePenaltyPolicy) DaysLate(deadline, submitted time.Time) int {
	return int(submitted.Sub(deadline).Hours() / 24)
}

// Penalty returns the suggested penalty for the given dates.
func (p LatePenaltyPolicy) Penalty(deadline, submitted time.Time) float64 {
	daysLate := p.DaysLate(deadline, submitted)
	if daysLate <= p.GraceDays {
		return 0
	}
	return math.Min(p.MaxPenalty, float64(daysLate-p.GraceDays)*p.PointsPerDay)
}
