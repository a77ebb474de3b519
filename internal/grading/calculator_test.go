package grading

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompute_BelowThresholdSkipsPenalty(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 5, FloorValue: 5}

	result := Compute([]float64{2, 1}, 0, 3, cfg)

	assert.Equal(t, 3.0, result.Grade)
	assert.Equal(t, 3.0, result.FinalGrade, "a grade already below the floor is never penalized further")
}

func TestCompute_PenaltyWithFloor(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 5, FloorValue: 5}

	result := Compute([]float64{7, 5}, 0, 4, cfg)
	assert.Equal(t, 12.0, result.Grade)
	assert.Equal(t, 8.0, result.FinalGrade)

	// Penalty large enough to hit the floor stops there, not below.
	result = Compute([]float64{7, 5}, 0, 9, cfg)
	assert.Equal(t, 12.0, result.Grade)
	assert.Equal(t, 5.0, result.FinalGrade)
}

func TestCompute_ExactlyAtThresholdIsPenalized(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 5, FloorValue: 5}

	result := Compute([]float64{3, 2}, 0, 2, cfg)

	assert.Equal(t, 5.0, result.Grade)
	assert.Equal(t, 5.0, result.FinalGrade)
}

func TestCompute_VariableFamilyFloorSix(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 6, FloorValue: 6}

	// 5.5 is below the variable family's threshold even though it would be
	// penalized under the two-part constants.
	result := Compute([]float64{2, 2, 1.5}, 0, 2, cfg)
	assert.Equal(t, 5.5, result.Grade)
	assert.Equal(t, 5.5, result.FinalGrade)

	result = Compute([]float64{2, 2, 2}, 0, 2, cfg)
	assert.Equal(t, 6.0, result.Grade)
	assert.Equal(t, 6.0, result.FinalGrade)
}

func TestCompute_BonusAddedBeforeFloorRule(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 6, FloorValue: 6}

	result := Compute([]float64{3, 2}, 2, 1, cfg)

	assert.Equal(t, 7.0, result.Grade)
	assert.Equal(t, 6.0, result.FinalGrade)
}

func TestCompute_GradeNeverNegative(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 5, FloorValue: 5}

	result := Compute([]float64{-5, 2}, 0, 0, cfg)

	assert.Equal(t, 0.0, result.Grade)
	assert.Equal(t, 0.0, result.FinalGrade)
}

func TestCompute_NegativeBonusAndPenaltyCoerceToZero(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 5, FloorValue: 5}

	result := Compute([]float64{6, 4}, -3, -2, cfg)

	assert.Equal(t, 10.0, result.Grade)
	assert.Equal(t, 10.0, result.FinalGrade)
}

func TestCompute_NonFiniteInputsNeverProduceNaN(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 5, FloorValue: 5}

	result := Compute([]float64{math.NaN(), math.Inf(1)}, math.NaN(), math.Inf(-1), cfg)

	assert.False(t, math.IsNaN(result.Grade))
	assert.False(t, math.IsNaN(result.FinalGrade))
	assert.Equal(t, 0.0, result.Grade)
	assert.Equal(t, 0.0, result.FinalGrade)
}

func TestCompute_NoPointsWithBonus(t *testing.T) {
	cfg := FloorConfig{FloorThreshold: 6, FloorValue: 6}

	result := Compute(nil, 3, 0, cfg)

	assert.Equal(t, 3.0, result.Grade)
	assert.Equal(t, 3.0, result.FinalGrade)
}

func TestSafeNumber_Unmarshal(t *testing.T) {
	cases := []struct {
		name string
		json string
		want float64
	}{
		{"plain number", `12.5`, 12.5},
		{"numeric string", `"7.25"`, 7.25},
		{"integer string", `"3"`, 3},
		{"null", `null`, 0},
		{"empty string", `""`, 0},
		{"garbage string", `"abc"`, 0},
		{"boolean", `true`, 0},
		{"negative", `-2`, -2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var n SafeNumber
			err := json.Unmarshal([]byte(tc.json), &n)
			assert.NoError(t, err)
			assert.Equal(t, tc.want, n.Float())
		})
	}
}

func TestSafeNumber_UnmarshalInsideStruct(t *testing.T) {
	var payload struct {
		Penalty SafeNumber   `json:"penalty"`
		Points  []SafeNumber `json:"points"`
	}

	err := json.Unmarshal([]byte(`{"penalty":"4","points":[1,"2.5",null,"x"]}`), &payload)

	assert.NoError(t, err)
	assert.Equal(t, 4.0, payload.Penalty.Float())
	assert.Equal(t, []float64{1, 2.5, 0, 0}, Floats(payload.Points))
}
