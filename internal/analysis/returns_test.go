package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stringer07/factor-mining/internal/errors"
)

func TestForwardReturns(t *testing.T) {
	closes := []float64{100, 105, 103, 110, 108, 115}

	returns, err := ForwardReturns(closes, 1)
	require.NoError(t, err)
	require.Len(t, returns, len(closes))

	expected := []float64{0.05, -0.019047, 0.067961, -0.018181, 0.064814}
	for i, want := range expected {
		assert.InDelta(t, want, returns[i], 1e-5, "index %d", i)
	}
	assert.True(t, math.IsNaN(returns[5]), "last entry has no future price")
}

func TestForwardReturnsLongHorizon(t *testing.T) {
	closes := []float64{100, 110, 121}

	returns, err := ForwardReturns(closes, 2)
	require.NoError(t, err)
	assert.InDelta(t, 0.21, returns[0], 1e-9)
	assert.True(t, math.IsNaN(returns[1]))
	assert.True(t, math.IsNaN(returns[2]))

	// 周期不小于序列长度时全部无法计算
	returns, err = ForwardReturns(closes, 3)
	require.NoError(t, err)
	for i, r := range returns {
		assert.True(t, math.IsNaN(r), "index %d", i)
	}
}

func TestForwardReturnsPropagatesNaN(t *testing.T) {
	closes := []float64{100, math.NaN(), 103, 110}

	returns, err := ForwardReturns(closes, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(returns[0]), "future price missing")
	assert.True(t, math.IsNaN(returns[1]), "base price missing")
	assert.InDelta(t, 110.0/103-1, returns[2], 1e-9)
}

func TestForwardReturnsRejectsNonPositivePrices(t *testing.T) {
	_, err := ForwardReturns([]float64{100, -50, 100}, 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeData))

	_, err = ForwardReturns([]float64{100, 0, 100}, 1)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeData))
}

func TestForwardReturnsInvalidInput(t *testing.T) {
	_, err := ForwardReturns([]float64{100, 101}, 0)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))

	_, err = ForwardReturns(nil, 1)
	assert.True(t, errors.IsCode(err, errors.ErrCodeData))
}

func TestMultiHorizonReturns(t *testing.T) {
	closes := []float64{100, 105, 103, 110, 108, 115}

	out, err := MultiHorizonReturns(closes, []int{1, 2, 1})
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.InDelta(t, 0.05, out[1][0], 1e-9)
	assert.InDelta(t, 0.03, out[2][0], 1e-9)
}
