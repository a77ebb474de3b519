package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teachkit/correction-service/internal/models"
)

func TestTwoPartModel(t *testing.T) {
	model := TwoPartModel(12, 8)

	require.Len(t, model.Parts, 2)
	assert.Equal(t, models.PartExperimental, model.Parts[0].Name)
	assert.Equal(t, models.PartTheoretical, model.Parts[1].Name)
	assert.Equal(t, 20.0, model.Total())
	assert.NoError(t, model.Validate())
}

func TestScoreModel_Validate(t *testing.T) {
	assert.Error(t, ScoreModel{Kind: models.ScoringVariable}.Validate(), "empty scale")

	bad := VariableModel([]models.ScorePart{{Name: "Q1", MaxPoints: -1}})
	assert.Error(t, bad.Validate(), "negative max points")

	wrongArity := ScoreModel{
		Kind:  models.ScoringTwoPart,
		Parts: []models.ScorePart{{Name: "only", MaxPoints: 10}},
	}
	assert.Error(t, wrongArity.Validate())

	ok := VariableModel([]models.ScorePart{
		{Name: "Q1", MaxPoints: 4},
		{Name: "Q2", MaxPoints: 0},
		{Name: "Q3", MaxPoints: 6},
	})
	assert.NoError(t, ok.Validate())
	assert.Equal(t, 10.0, ok.Total())
	assert.Equal(t, 3, ok.PartCount())
}

func TestScoreModel_CheckPoints(t *testing.T) {
	model := TwoPartModel(10, 10)

	assert.NoError(t, model.CheckPoints([]float64{10, 0}))
	assert.Error(t, model.CheckPoints([]float64{5}), "length mismatch")
	assert.Error(t, model.CheckPoints([]float64{11, 0}), "above part maximum")
	assert.Error(t, model.CheckPoints([]float64{-1, 0}), "below zero")
}

func TestScoreModel_ZeroPoints(t *testing.T) {
	model := VariableModel([]models.ScorePart{
		{Name: "Q1", MaxPoints: 4},
		{Name: "Q2", MaxPoints: 6},
	})

	assert.Equal(t, []float64{0, 0}, model.ZeroPoints())
}

func TestModelFromActivity(t *testing.T) {
	activity := &models.Activity{ScoringKind: models.ScoringTwoPart}
	require.NoError(t, activity.SetParts([]models.ScorePart{
		{Name: models.PartExperimental, MaxPoints: 10},
		{Name: models.PartTheoretical, MaxPoints: 10},
	}))

	model, err := ModelFromActivity(activity)

	require.NoError(t, err)
	assert.Equal(t, models.ScoringTwoPart, model.Kind)
	assert.Equal(t, 20.0, model.Total())
}
