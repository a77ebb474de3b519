package grading

import (
	"math"
	"strconv"
	"strings"
)

// FloorConfig carries the two floor-rule constants. They happen to coincide
// numerically in every historical call site but differ across entity families,
// so they stay independent inputs rather than one unified constant.
type FloorConfig struct {
	// FloorThreshold is the raw total below which no penalty is applied at all.
	FloorThreshold float64
	// FloorValue is the minimum final grade once a penalty is applied.
	FloorValue float64
}

// Result holds the two derived fields persisted on a correction.
type Result struct {
	Grade      float64 `json:"grade"`
	FinalGrade float64 `json:"final_grade"`
}

// Compute turns earned points, bonus and penalty into (grade, finalGrade).
//
// rawTotal = max(0, sum(points) + bonus); grade = rawTotal. A raw total below
// the floor threshold is never penalized; otherwise the penalty applies but
// the final grade never drops below the floor value. Outputs are always
// finite: non-finite inputs coerce to 0, negative bonus/penalty to 0.
func Compute(points []float64, bonus, penalty float64, cfg FloorConfig) Result {
	var sum float64
	for _, p := range points {
		sum += Coerce(p)
	}

	bonus = math.Max(0, Coerce(bonus))
	penalty = math.Max(0, Coerce(penalty))

	rawTotal := math.Max(0, sum+bonus)

	result := Result{Grade: rawTotal}
	if rawTotal < cfg.FloorThreshold {
		result.FinalGrade = rawTotal
		return result
	}
	result.FinalGrade = math.Max(rawTotal-penalty, cfg.FloorValue)
	return result
}

// Coerce maps NaN and infinities to 0, keeping every other value as is.
func Coerce(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// SafeNumber is a float64 whose JSON decoding never fails: numbers decode as
// themselves, numeric strings are parsed, and anything else (null, malformed
// strings, objects) decodes to 0. This preserves the permissive
// coerce-to-zero semantics of the legacy grading endpoints.
type SafeNumber float64

func (n *SafeNumber) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		*n = 0
		return nil
	}
	*n = SafeNumber(v)
	return nil
}

// Float returns the coerced float value.
func (n SafeNumber) Float() float64 {
	return Coerce(float64(n))
}

// Floats converts a slice of safe numbers to plain floats.
func Floats(nums []SafeNumber) []float64 {
	out := make([]float64, len(nums))
	for i, n := range nums {
		out[i] = n.Float()
	}
	return out
}
