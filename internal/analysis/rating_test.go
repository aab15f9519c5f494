package analysis

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRatingInputs(ic1, icIR, ic5, longShort float64, monotonic bool) RatingInputs {
	return RatingInputs{
		Primary:     &ICStats{Horizon: 1, IC: Defined(ic1), ICIR: Defined(icIR)},
		Persistence: &ICStats{Horizon: 5, IC: Defined(ic5)},
		Layering: &LayerResult{
			Horizon:         1,
			LongShortReturn: Defined(longShort),
			Monotonic:       monotonic,
		},
	}
}

func TestComputeRatingFullCredit(t *testing.T) {
	in := makeRatingInputs(0.08, 1.5, 0.03, 0.01, true)

	rating := ComputeRating(in, DefaultWeights())
	assert.InDelta(t, 100.0, rating.Score, 1e-9)
	assert.Equal(t, RatingExcellent, rating.Label)
	require.Len(t, rating.Components, 4)
	for _, c := range rating.Components {
		assert.InDelta(t, 1.0, c.Credit, 1e-9, c.Name)
		assert.False(t, c.Undefined, c.Name)
	}
}

func TestComputeRatingBands(t *testing.T) {
	tests := []struct {
		name   string
		value  float64
		bands  []band
		credit float64
	}{
		{"strong ic", 0.06, icStrengthBands, creditFull},
		{"moderate ic", 0.03, icStrengthBands, creditPartial},
		{"weak ic", 0.01, icStrengthBands, creditMinimal},
		{"negative ic graded by magnitude", -0.06, icStrengthBands, creditFull},
		{"boundary not exceeded", 0.05, icStrengthBands, creditPartial},
		{"stable ir", 1.2, icStabilityBands, creditFull},
		{"moderate ir", 0.7, icStabilityBands, creditPartial},
		{"persistent", 0.025, icPersistenceBands, creditFull},
		{"strong spread", 0.006, layeringBands, creditFull},
		{"thin spread", 0.0005, layeringBands, creditMinimal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.credit, gradeAbs(Defined(tt.value), tt.bands), 1e-9)
		})
	}
}

func TestComputeRatingUndefinedTakesMinimalCredit(t *testing.T) {
	in := RatingInputs{
		Primary:     &ICStats{Horizon: 1},
		Persistence: &ICStats{Horizon: 5},
		Layering:    &LayerResult{Horizon: 1, Monotonic: true},
	}

	rating := ComputeRating(in, DefaultWeights())
	assert.InDelta(t, 20.0, rating.Score, 1e-9)
	assert.Equal(t, RatingPoor, rating.Label)
	for _, c := range rating.Components {
		assert.True(t, c.Undefined, c.Name)
		assert.InDelta(t, creditMinimal, c.Credit, 1e-9, c.Name)
	}
}

func TestComputeRatingNonMonotonicHalvesLayering(t *testing.T) {
	monotone := ComputeRating(makeRatingInputs(0.08, 1.5, 0.03, 0.01, true), DefaultWeights())
	broken := ComputeRating(makeRatingInputs(0.08, 1.5, 0.03, 0.01, false), DefaultWeights())

	assert.InDelta(t, 100.0, monotone.Score, 1e-9)
	assert.InDelta(t, 87.5, broken.Score, 1e-9, "layering credit halved")
	assert.Equal(t, RatingExcellent, broken.Label)
}

func TestComputeRatingCustomWeights(t *testing.T) {
	weights := Weights{ICStrength: 0.7, ICStability: 0.1, ICPersistence: 0.1, Layering: 0.1}
	in := makeRatingInputs(0.08, 0.1, 0.001, 0.0001, true)

	rating := ComputeRating(in, weights)
	// 0.7*1.0 + 0.3*0.2 = 0.76
	assert.InDelta(t, 76.0, rating.Score, 1e-9)
	assert.Equal(t, RatingGood, rating.Label)
}

func TestLabelBoundaries(t *testing.T) {
	assert.Equal(t, RatingExcellent, labelFor(80))
	assert.Equal(t, RatingGood, labelFor(79.999))
	assert.Equal(t, RatingGood, labelFor(60))
	assert.Equal(t, RatingFair, labelFor(59.999))
	assert.Equal(t, RatingFair, labelFor(40))
	assert.Equal(t, RatingPoor, labelFor(39.999))
}
