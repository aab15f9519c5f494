package analysis

import (
	"math"
	"time"

	"github.com/stringer07/factor-mining/internal/errors"
	"github.com/stringer07/factor-mining/internal/market/kline"
)

// TimeSeries 带时间戳的数值序列，时间戳严格递增
type TimeSeries struct {
	Times  []time.Time
	Values []float64
}

// Validate 校验序列结构
func (ts TimeSeries) Validate() error {
	if len(ts.Times) != len(ts.Values) {
		return errors.NewDataError("time series times and values length mismatch", nil).
			WithContext("times_len", len(ts.Times)).
			WithContext("values_len", len(ts.Values))
	}
	for i := 1; i < len(ts.Times); i++ {
		if !ts.Times[i].After(ts.Times[i-1]) {
			return errors.NewDataError("time series timestamps must be strictly increasing", nil).
				WithContext("index", i)
		}
	}
	return nil
}

// AlignToKlines 将因子序列按时间戳对齐到K线轴。K线有而因子缺失的
// 时间点填NaN，因子完全无重叠时返回数据错误。
func AlignToKlines(factor TimeSeries, klines kline.Series) ([]float64, error) {
	if err := factor.Validate(); err != nil {
		return nil, err
	}
	byTime := make(map[int64]float64, len(factor.Times))
	for i, t := range factor.Times {
		byTime[t.UnixNano()] = factor.Values[i]
	}

	aligned := make([]float64, len(klines))
	overlap := 0
	for i, k := range klines {
		if v, ok := byTime[k.OpenTime.UnixNano()]; ok {
			aligned[i] = v
			if !math.IsNaN(v) {
				overlap++
			}
		} else {
			aligned[i] = math.NaN()
		}
	}
	if overlap == 0 {
		return nil, errors.NewDataError("factor series has no timestamp overlap with price series", nil).
			WithContext("factor_len", len(factor.Times)).
			WithContext("kline_len", len(klines))
	}
	return aligned, nil
}

// Evaluator 因子评估引擎。相同输入与配置下输出逐位一致
type Evaluator struct {
	cfg Config
}

// NewEvaluator 创建评估引擎，配置非法时返回配置错误
func NewEvaluator(cfg Config) (*Evaluator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{cfg: cfg}, nil
}

// Config 返回引擎配置副本
func (e *Evaluator) Config() Config {
	return e.cfg
}

// Evaluate 对单个因子执行完整评估：逐周期IC分析与分层回测，
// 主周期多空组合风险指标，以及综合评级。
func (e *Evaluator) Evaluate(factor TimeSeries, klines kline.Series) (*Report, error) {
	if err := klines.Validate(); err != nil {
		return nil, err
	}
	aligned, err := AlignToKlines(factor, klines)
	if err != nil {
		return nil, err
	}
	return e.EvaluateAligned(aligned, klines.Closes())
}

// EvaluateAligned 对已按同一时间轴对齐的因子值与收盘价执行评估
func (e *Evaluator) EvaluateAligned(factor, closes []float64) (*Report, error) {
	if len(factor) != len(closes) {
		return nil, errors.NewDataError("factor and close series length mismatch", nil).
			WithContext("factor_len", len(factor)).
			WithContext("closes_len", len(closes))
	}
	fwd, err := MultiHorizonReturns(closes, e.cfg.Horizons)
	if err != nil {
		return nil, err
	}

	report := &Report{Horizons: make([]*HorizonResult, 0, len(e.cfg.Horizons))}
	anyPairs := false
	for _, h := range e.cfg.Horizons {
		icStats, err := AnalyzeIC(factor, fwd[h], h, e.cfg)
		if err != nil {
			return nil, err
		}
		if icStats.SampleSize > 0 {
			anyPairs = true
		}

		layers, err := LayeredBacktest(factor, fwd[h], h, e.cfg.Quantiles)
		if err != nil && !errors.IsCode(err, errors.ErrCodeInsufficientData) {
			return nil, err
		}

		report.Horizons = append(report.Horizons, &HorizonResult{
			Horizon: h,
			IC:      icStats,
			Layers:  layers,
		})
	}
	if !anyPairs {
		return nil, errors.NewInsufficientDataError("no valid factor/return pairs at any horizon").
			WithContext("horizons", e.cfg.Horizons)
	}

	primary := report.Horizons[0]
	ls := LongShortSeries(factor, fwd[primary.Horizon], e.cfg.Quantiles)
	report.RiskMetrics = ComputeRiskMetrics(ls, e.cfg.PeriodsPerYear)

	report.Rating = ComputeRating(RatingInputs{
		Primary:     primary.IC,
		Persistence: e.persistenceStats(report),
		Layering:    primary.Layers,
	}, e.cfg.Weights)

	return report, nil
}

// persistenceStats 选择持续性参考周期：优先周期5，否则用最长周期
func (e *Evaluator) persistenceStats(report *Report) *ICStats {
	if h := report.HorizonResult(5); h != nil {
		return h.IC
	}
	last := report.Horizons[len(report.Horizons)-1]
	return last.IC
}
