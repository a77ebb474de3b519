package grading

import (
	"fmt"

	"github.com/teachkit/correction-service/internal/models"
)

// ScoreModel is the per-activity definition of how many parts a correction is
// scored on and each part's maximum points.
type ScoreModel struct {
	Kind  models.ScoringKind
	Parts []models.ScorePart
}

// TwoPartModel builds the fixed experimental/theoretical scale.
func TwoPartModel(experimentalMax, theoreticalMax float64) ScoreModel {
	return ScoreModel{
		Kind: models.ScoringTwoPart,
		Parts: []models.ScorePart{
			{Name: models.PartExperimental, MaxPoints: experimentalMax},
			{Name: models.PartTheoretical, MaxPoints: theoreticalMax},
		},
	}
}

// VariableModel builds an N-part scale.
func VariableModel(parts []models.ScorePart) ScoreModel {
	return ScoreModel{
		Kind:  models.ScoringVariable,
		Parts: parts,
	}
}

// ModelFromActivity decodes the scale stored on an activity row.
func ModelFromActivity(activity *models.Activity) (ScoreModel, error) {
	parts, err := activity.Parts()
	if err != nil {
		return ScoreModel{}, fmt.Errorf("invalid score parts on activity %d: %w", activity.ID, err)
	}
	return ScoreModel{Kind: activity.ScoringKind, Parts: parts}, nil
}

// Total is the sum of all part maxima.
func (m ScoreModel) Total() float64 {
	var total float64
	for _, p := range m.Parts {
		total += p.MaxPoints
	}
	return total
}

// PartCount returns the number of scored parts.
func (m ScoreModel) PartCount() int {
	return len(m.Parts)
}

// Validate checks the scale invariants: at least one part, no negative
// maximum, and exactly two canonically named parts for the two-part family.
func (m ScoreModel) Validate() error {
	if len(m.Parts) == 0 {
		return fmt.Errorf("score model requires at least one part")
	}
	for i, p := range m.Parts {
		if p.MaxPoints < 0 {
			return fmt.Errorf("part %q (index %d) has negative max points", p.Name, i)
		}
	}
	if m.Kind == models.ScoringTwoPart && len(m.Parts) != 2 {
		return fmt.Errorf("two-part scoring requires exactly 2 parts, got %d", len(m.Parts))
	}
	return nil
}

// CheckPoints verifies earned points against the scale. Length mismatches are
// hard errors; out-of-range values are reported so callers can warn, since the
// historical system stored them as given.
func (m ScoreModel) CheckPoints(points []float64) error {
	if len(points) != len(m.Parts) {
		return fmt.Errorf("expected %d point values, got %d", len(m.Parts), len(points))
	}
	for i, p := range points {
		if p < 0 || p > m.Parts[i].MaxPoints {
			return fmt.Errorf("points %v for part %q outside [0, %v]", p, m.Parts[i].Name, m.Parts[i].MaxPoints)
		}
	}
	return nil
}

// ZeroPoints returns an all-zero earned-points slice matching the scale.
func (m ScoreModel) ZeroPoints() []float64 {
	return make([]float64, len(m.Parts))
}
