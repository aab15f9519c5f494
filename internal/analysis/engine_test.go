package analysis

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stringer07/factor-mining/internal/errors"
	"github.com/stringer07/factor-mining/internal/market/kline"
)

// alternatingKlines 构造收益率按奇偶交替的合成K线：偶数期+2%，奇数期-1%
func alternatingKlines(n int) kline.Series {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	series := make(kline.Series, n)
	price := 100.0
	for i := 0; i < n; i++ {
		series[i] = kline.Kline{
			Symbol:   "BTCUSDT",
			Interval: kline.Interval1d,
			OpenTime: base.AddDate(0, 0, i),
			Open:     price,
			High:     price * 1.03,
			Low:      price * 0.98,
			Close:    price,
			Volume:   1000,
		}
		if i%2 == 0 {
			price *= 1.02
		} else {
			price *= 0.99
		}
	}
	return series
}

// antiFactor 与次日收益完全反向的因子
func antiFactor(klines kline.Series) TimeSeries {
	closes := klines.Closes()
	values := make([]float64, len(closes))
	for t := range values {
		if t+1 < len(closes) {
			values[t] = -(closes[t+1]/closes[t] - 1)
		} else {
			values[t] = math.NaN()
		}
	}
	return TimeSeries{Times: klines.Times(), Values: values}
}

func TestEvaluateAntiCorrelatedFactor(t *testing.T) {
	klines := alternatingKlines(120)
	factor := antiFactor(klines)

	ev, err := NewEvaluator(DefaultConfig())
	require.NoError(t, err)

	report, err := ev.Evaluate(factor, klines)
	require.NoError(t, err)
	require.Len(t, report.Horizons, 4)

	primary := report.HorizonResult(1)
	require.NotNil(t, primary)
	require.True(t, primary.IC.IC.Valid)
	assert.InDelta(t, -1.0, primary.IC.IC.Float64, 1e-9, "factor is the negated forward return")
	assert.Equal(t, 119, primary.IC.SampleSize)

	require.NotNil(t, primary.Layers)
	assert.True(t, primary.Layers.Monotonic)
	require.True(t, primary.Layers.LongShortReturn.Valid)
	assert.InDelta(t, -0.03, primary.Layers.LongShortReturn.Float64, 1e-6)

	require.NotNil(t, report.RiskMetrics)
	assert.Greater(t, report.RiskMetrics.SampleSize, 0)
	require.True(t, report.RiskMetrics.MaxDrawdown.Valid)
	assert.LessOrEqual(t, report.RiskMetrics.MaxDrawdown.Float64, 0.0)

	require.NotNil(t, report.Rating)
	assert.GreaterOrEqual(t, report.Rating.Score, 80.0)
	assert.Equal(t, RatingExcellent, report.Rating.Label, "a perfectly predictive factor rates excellent regardless of sign")
}

func TestEvaluateDeterministic(t *testing.T) {
	klines := alternatingKlines(120)
	factor := antiFactor(klines)

	ev, err := NewEvaluator(DefaultConfig())
	require.NoError(t, err)

	first, err := ev.Evaluate(factor, klines)
	require.NoError(t, err)
	second, err := ev.Evaluate(factor, klines)
	require.NoError(t, err)

	firstJSON, err := json.Marshal(first)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestEvaluateNoTimestampOverlap(t *testing.T) {
	klines := alternatingKlines(50)
	factor := antiFactor(klines)
	for i := range factor.Times {
		factor.Times[i] = factor.Times[i].Add(12 * time.Hour)
	}

	ev, err := NewEvaluator(DefaultConfig())
	require.NoError(t, err)

	_, err = ev.Evaluate(factor, klines)
	assert.True(t, errors.IsCode(err, errors.ErrCodeData))
}

func TestEvaluateAllMissingFactor(t *testing.T) {
	klines := alternatingKlines(50)
	values := make([]float64, len(klines))
	for i := range values {
		values[i] = math.NaN()
	}
	factor := TimeSeries{Times: klines.Times(), Values: values}

	ev, err := NewEvaluator(DefaultConfig())
	require.NoError(t, err)

	_, err = ev.Evaluate(factor, klines)
	assert.True(t, errors.IsCode(err, errors.ErrCodeData), "no overlapping valid values")
}

func TestEvaluateAlignedInsufficientData(t *testing.T) {
	cfg := DefaultConfig()
	ev, err := NewEvaluator(cfg)
	require.NoError(t, err)

	// 对齐后没有任何有效样本对
	factor := []float64{math.NaN(), math.NaN(), math.NaN()}
	closes := []float64{100, 101, 102}

	_, err = ev.EvaluateAligned(factor, closes)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInsufficientData))
}

func TestEvaluateAlignedRejectsNonPositiveClose(t *testing.T) {
	ev, err := NewEvaluator(DefaultConfig())
	require.NoError(t, err)

	factor := make([]float64, 30)
	closes := make([]float64, 30)
	for i := range closes {
		factor[i] = float64(i)
		closes[i] = 100 + float64(i)
	}
	closes[10] = -5

	report, err := ev.EvaluateAligned(factor, closes)
	assert.Nil(t, report)
	assert.True(t, errors.IsCode(err, errors.ErrCodeData))
}

func TestEvaluateAlignedLengthMismatch(t *testing.T) {
	ev, err := NewEvaluator(DefaultConfig())
	require.NoError(t, err)

	_, err = ev.EvaluateAligned([]float64{1, 2}, []float64{100})
	assert.True(t, errors.IsCode(err, errors.ErrCodeData))
}

func TestNewEvaluatorRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Quantiles = 1
	_, err := NewEvaluator(cfg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))

	cfg = DefaultConfig()
	cfg.Weights.Layering = 0.5
	_, err = NewEvaluator(cfg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))

	cfg = DefaultConfig()
	cfg.ICMethod = Method("kendall")
	_, err = NewEvaluator(cfg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration))

	cfg = DefaultConfig()
	cfg.Horizons = []int{1, 5, 5, 20}
	_, err = NewEvaluator(cfg)
	assert.True(t, errors.IsCode(err, errors.ErrCodeConfiguration), "duplicate horizons would double-count in the report")
}

func TestPersistenceHorizonFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Horizons = []int{1, 3}
	ev, err := NewEvaluator(cfg)
	require.NoError(t, err)

	klines := alternatingKlines(120)
	report, err := ev.Evaluate(antiFactor(klines), klines)
	require.NoError(t, err)

	// 周期5不存在时持续性取最长周期
	var persistence *ComponentScore
	for i := range report.Rating.Components {
		if report.Rating.Components[i].Name == "ic_persistence" {
			persistence = &report.Rating.Components[i]
		}
	}
	require.NotNil(t, persistence)
	assert.Equal(t, report.HorizonResult(3).IC.IC, persistence.Value)
}
