package grading

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLatePenalty_OnTime(t *testing.T) {
	policy := DefaultLatePenaltyPolicy()
	deadline := date(2024, time.January, 1)

	assert.Equal(t, 0.0, policy.Penalty(deadline, deadline))
	assert.Equal(t, 0.0, policy.Penalty(deadline, date(2023, time.December, 30)))
}

func TestLatePenalty_GraceDay(t *testing.T) {
	policy := DefaultLatePenaltyPolicy()

	penalty := policy.Penalty(date(2024, time.January, 1), date(2024, time.January, 2))

	assert.Equal(t, 0.0, penalty)
}

func TestLatePenalty_TwoPointsPerDayPastGrace(t *testing.T) {
	policy := DefaultLatePenaltyPolicy()
	deadline := date(2024, time.January, 1)

	assert.Equal(t, 2.0, policy.Penalty(deadline, date(2024, time.January, 3)))
	assert.Equal(t, 6.0, policy.Penalty(deadline, date(2024, time.January, 5)))
}

func TestLatePenalty_CappedAtFifteen(t *testing.T) {
	policy := DefaultLatePenaltyPolicy()
	deadline := date(2024, time.January, 1)

	assert.Equal(t, 15.0, policy.Penalty(deadline, date(2024, time.February, 1)))
}

func TestLatePenalty_PartialDaysTruncate(t *testing.T) {
	policy := DefaultLatePenaltyPolicy()
	deadline := time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC)

	// 1.75 days late truncates to 1 whole day: still within grace.
	submitted := deadline.Add(42 * time.Hour)
	assert.Equal(t, 1, policy.DaysLate(deadline, submitted))
	assert.Equal(t, 0.0, policy.Penalty(deadline, submitted))
}

func TestLatePenalty_CustomPolicy(t *testing.T) {
	policy := LatePenaltyPolicy{GraceDays: 0, PointsPerDay: 1, MaxPenalty: 3}
	deadline := date(2024, time.January, 1)

	assert.Equal(t, 1.0, policy.Penalty(deadline, date(2024, time.January, 2)))
	assert.Equal(t, 3.0, policy.Penalty(deadline, date(2024, time.January, 10)))
}
