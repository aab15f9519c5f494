package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/stringer07/factor-mining/internal/errors"
)

// layeredPair 分层回测的一个有效样本对
type layeredPair struct {
	order  int // 原始时间顺序，用于稳定并列处理
	factor float64
	ret    float64
}

// LayeredBacktest 按因子值将样本分为等量分位组并统计各组未来收益。
// 并列因子值按原始顺序稳定分组，组间样本数差最多为1。
func LayeredBacktest(factor, returns []float64, horizon int, quantiles int) (*LayerResult, error) {
	if quantiles < 2 {
		return nil, errors.NewConfigurationError("quantiles must be >= 2").
			WithContext("quantiles", quantiles)
	}
	if len(factor) != len(returns) {
		return nil, errors.NewDataError("factor and return series length mismatch", nil).
			WithContext("factor_len", len(factor)).
			WithContext("returns_len", len(returns))
	}

	pairs := make([]layeredPair, 0, len(factor))
	for i := range factor {
		if math.IsNaN(factor[i]) || math.IsNaN(returns[i]) {
			continue
		}
		pairs = append(pairs, layeredPair{order: i, factor: factor[i], ret: returns[i]})
	}
	if len(pairs) == 0 {
		return nil, errors.NewInsufficientDataError("no valid factor/return pairs for layering").
			WithContext("horizon", horizon)
	}

	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].factor < pairs[b].factor })

	n := len(pairs)
	grouped := make([][]float64, quantiles)
	for i, p := range pairs {
		g := i * quantiles / n
		grouped[g] = append(grouped[g], p.ret)
	}

	result := &LayerResult{Horizon: horizon, Groups: make([]GroupStats, quantiles)}
	for g, rets := range grouped {
		gs := GroupStats{Group: g, Count: len(rets)}
		if len(rets) > 0 {
			gs.MeanReturn = Defined(stat.Mean(rets, nil))
		}
		result.Groups[g] = gs
	}

	top := result.Groups[quantiles-1].MeanReturn
	bottom := result.Groups[0].MeanReturn
	if top.Valid && bottom.Valid {
		result.LongShortReturn = Defined(top.Float64 - bottom.Float64)
	}

	result.Monotonic, result.MonotonicityScore = monotonicity(result.Groups)
	return result, nil
}

// monotonicity 检查有效组均值沿分组方向是否单调，并列视为满足。
// 评分为 (上行差数-下行差数)/相邻差总数，落在[-1,1]。
func monotonicity(groups []GroupStats) (bool, NullFloat) {
	means := make([]float64, 0, len(groups))
	for _, g := range groups {
		if g.MeanReturn.Valid {
			means = append(means, g.MeanReturn.Float64)
		}
	}
	if len(means) < 2 {
		return true, Undefined()
	}
	up, down := 0, 0
	for i := 1; i < len(means); i++ {
		switch {
		case means[i] > means[i-1]:
			up++
		case means[i] < means[i-1]:
			down++
		}
	}
	total := len(means) - 1
	score := Defined(float64(up-down) / float64(total))
	monotonic := up == 0 || down == 0
	return monotonic, score
}

// LongShortSeries 构造多空收益序列：最高分位组与最低分位组的未来收益
// 按时间顺序逐位相减，作为风险指标的输入。两组样本数相差最多为1，
// 多出的尾部样本被丢弃。
func LongShortSeries(factor, returns []float64, quantiles int) []float64 {
	pairs := make([]layeredPair, 0, len(factor))
	for i := range factor {
		if math.IsNaN(factor[i]) || math.IsNaN(returns[i]) {
			continue
		}
		pairs = append(pairs, layeredPair{order: i, factor: factor[i], ret: returns[i]})
	}
	if len(pairs) == 0 || quantiles < 2 {
		return nil
	}

	sort.SliceStable(pairs, func(a, b int) bool { return pairs[a].factor < pairs[b].factor })

	n := len(pairs)
	var topPairs, bottomPairs []layeredPair
	for i, p := range pairs {
		switch g := i * quantiles / n; g {
		case 0:
			bottomPairs = append(bottomPairs, p)
		case quantiles - 1:
			topPairs = append(topPairs, p)
		}
	}
	// 组内恢复时间顺序
	sort.Slice(topPairs, func(a, b int) bool { return topPairs[a].order < topPairs[b].order })
	sort.Slice(bottomPairs, func(a, b int) bool { return bottomPairs[a].order < bottomPairs[b].order })

	m := len(topPairs)
	if len(bottomPairs) < m {
		m = len(bottomPairs)
	}
	series := make([]float64, m)
	for i := 0; i < m; i++ {
		series[i] = topPairs[i].ret - bottomPairs[i].ret
	}
	return series
}
