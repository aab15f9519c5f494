package technical

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stringer07/factor-mining/internal/errors"
	"github.com/stringer07/factor-mining/internal/factor"
	"github.com/stringer07/factor-mining/internal/market/kline"
)

func makeKlines(closes ...float64) kline.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(kline.Series, len(closes))
	for i, c := range closes {
		series[i] = kline.Kline{
			Symbol:   "BTCUSDT",
			Interval: kline.Interval1d,
			OpenTime: base.AddDate(0, 0, i),
			Open:     c,
			High:     c,
			Low:      c,
			Close:    c,
			Volume:   1,
		}
	}
	return series
}

func TestMomentum(t *testing.T) {
	klines := makeKlines(100, 102, 104, 106, 108)

	ts, err := Momentum{Period: 2}.Compute(klines)
	require.NoError(t, err)
	require.Len(t, ts.Values, 5)

	assert.True(t, math.IsNaN(ts.Values[0]), "warmup")
	assert.True(t, math.IsNaN(ts.Values[1]), "warmup")
	assert.InDelta(t, 0.04, ts.Values[2], 1e-9)
	assert.InDelta(t, 106.0/102-1, ts.Values[3], 1e-9)
	assert.InDelta(t, 108.0/104-1, ts.Values[4], 1e-9)
}

func TestMomentumNoLookAhead(t *testing.T) {
	short := makeKlines(100, 102, 104, 106)
	long := makeKlines(100, 102, 104, 106, 90, 80)

	tsShort, err := Momentum{Period: 2}.Compute(short)
	require.NoError(t, err)
	tsLong, err := Momentum{Period: 2}.Compute(long)
	require.NoError(t, err)

	for i := range tsShort.Values {
		if math.IsNaN(tsShort.Values[i]) {
			assert.True(t, math.IsNaN(tsLong.Values[i]))
			continue
		}
		assert.Equal(t, tsShort.Values[i], tsLong.Values[i],
			"appending future bars must not change past factor values")
	}
}

func TestReversalNegatesMomentum(t *testing.T) {
	klines := makeKlines(100, 102, 104, 106, 108)

	mom, err := Momentum{Period: 2}.Compute(klines)
	require.NoError(t, err)
	rev, err := Reversal{Period: 2}.Compute(klines)
	require.NoError(t, err)

	for i := range mom.Values {
		if math.IsNaN(mom.Values[i]) {
			assert.True(t, math.IsNaN(rev.Values[i]))
			continue
		}
		assert.InDelta(t, -mom.Values[i], rev.Values[i], 1e-12)
	}
}

func TestRSIMomentumRange(t *testing.T) {
	closes := make([]float64, 60)
	price := 100.0
	for i := range closes {
		if i%3 == 0 {
			price *= 1.02
		} else {
			price *= 0.995
		}
		closes[i] = price
	}
	klines := makeKlines(closes...)

	ts, err := RSIMomentum{Period: 14}.Compute(klines)
	require.NoError(t, err)

	for i := 0; i < 14; i++ {
		assert.True(t, math.IsNaN(ts.Values[i]), "warmup index %d", i)
	}
	for i := 14; i < len(ts.Values); i++ {
		require.False(t, math.IsNaN(ts.Values[i]), "index %d", i)
		assert.GreaterOrEqual(t, ts.Values[i], -50.0)
		assert.LessOrEqual(t, ts.Values[i], 50.0)
	}
}

func TestMACDMomentumWarmup(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}
	klines := makeKlines(closes...)

	f := DefaultMACDMomentum()
	ts, err := f.Compute(klines)
	require.NoError(t, err)

	warmup := f.Slow + f.Signal
	for i := 0; i < warmup; i++ {
		assert.True(t, math.IsNaN(ts.Values[i]), "warmup index %d", i)
	}
	assert.False(t, math.IsNaN(ts.Values[len(ts.Values)-1]))
}

func TestVolatilityPositive(t *testing.T) {
	closes := make([]float64, 40)
	price := 100.0
	for i := range closes {
		if i%2 == 0 {
			price *= 1.03
		} else {
			price *= 0.98
		}
		closes[i] = price
	}
	klines := makeKlines(closes...)

	ts, err := Volatility{Period: 10}.Compute(klines)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		assert.True(t, math.IsNaN(ts.Values[i]), "warmup index %d", i)
	}
	for i := 11; i < len(ts.Values); i++ {
		assert.Greater(t, ts.Values[i], 0.0, "index %d", i)
	}
}

func TestInsufficientKlines(t *testing.T) {
	klines := makeKlines(100, 101)
	_, err := Momentum{Period: 10}.Compute(klines)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInsufficientData))
}

func TestRegisterDefaults(t *testing.T) {
	r := factor.NewRegistry()
	RegisterDefaults(r)
	assert.Equal(t, 7, r.Len())

	for _, name := range []string{"momentum_5", "reversal_5", "rsi_momentum_14", "macd_momentum", "volatility_20"} {
		_, err := r.Get(name)
		assert.NoError(t, err, name)
	}
}
