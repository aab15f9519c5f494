package analysis

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/stringer07/factor-mining/internal/errors"
)

// validPairs 提取两个对齐序列中均为有效数值的样本对，保持原始顺序
func validPairs(xs, ys []float64) ([]float64, []float64) {
	fx := make([]float64, 0, len(xs))
	fy := make([]float64, 0, len(ys))
	for i := range xs {
		if math.IsNaN(xs[i]) || math.IsNaN(ys[i]) {
			continue
		}
		fx = append(fx, xs[i])
		fy = append(fy, ys[i])
	}
	return fx, fy
}

// rankAverage 计算平均秩，并列值取秩的平均
func rankAverage(xs []float64) []float64 {
	n := len(xs)
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && xs[idx[j+1]] == xs[idx[i]] {
			j++
		}
		// 并列区间 [i, j]，秩从1开始
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[idx[k]] = avg
		}
		i = j + 1
	}
	return ranks
}

// correlate 按指定方法计算相关系数，方差为零时返回NaN
func correlate(xs, ys []float64, method Method) float64 {
	if method == MethodSpearman {
		xs = rankAverage(xs)
		ys = rankAverage(ys)
	}
	if varianceZero(xs) || varianceZero(ys) {
		return math.NaN()
	}
	return stat.Correlation(xs, ys, nil)
}

func varianceZero(xs []float64) bool {
	for i := 1; i < len(xs); i++ {
		if xs[i] != xs[0] {
			return false
		}
	}
	return true
}

// icPValue 相关系数的双侧t检验p值，自由度 n-2
func icPValue(r float64, n int) NullFloat {
	if n < 3 || math.IsNaN(r) {
		return Undefined()
	}
	if math.Abs(r) >= 1 {
		return Defined(0)
	}
	t := r * math.Sqrt(float64(n-2)/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(n - 2)}
	p := 2 * dist.CDF(-math.Abs(t))
	return Defined(p)
}

// PointIC 计算因子值与前瞻收益率的时点IC及其显著性。
// 仅使用两侧均有效的样本对，有效对数不足时IC为无效值。
func PointIC(factor, returns []float64, method Method, minSamples int) (NullFloat, NullFloat, int, error) {
	if len(factor) != len(returns) {
		return Undefined(), Undefined(), 0, errors.NewDataError(
			fmt.Sprintf("length mismatch: factor %d vs returns %d", len(factor), len(returns)), nil).
			WithContext("factor_len", len(factor)).
			WithContext("returns_len", len(returns))
	}
	fx, fy := validPairs(factor, returns)
	n := len(fx)
	if n < minSamples || n < 2 {
		return Undefined(), Undefined(), n, nil
	}
	r := correlate(fx, fy, method)
	if math.IsNaN(r) {
		return Undefined(), Undefined(), n, nil
	}
	return Defined(r), icPValue(r, n), n, nil
}

// RollingIC 计算滚动IC序列。输出与输入等长，不完整或有效对数不足的
// 窗口为NaN。皮尔逊模式下窗口滑动以增量和实现，整体复杂度O(n)；
// 斯皮尔曼的秩依赖窗口内全部样本，逐窗口重算。
func RollingIC(factor, returns []float64, window int, method Method, minSamples int) []float64 {
	n := len(factor)
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	if n < window {
		return out
	}
	if method == MethodSpearman {
		for end := window - 1; end < n; end++ {
			fx, fy := validPairs(factor[end-window+1:end+1], returns[end-window+1:end+1])
			if len(fx) < minSamples || len(fx) < 2 {
				continue
			}
			out[end] = correlate(fx, fy, MethodSpearman)
		}
		return out
	}

	var cnt int
	var sx, sy, sxx, syy, sxy float64
	add := func(i int) {
		x, y := factor[i], returns[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			return
		}
		cnt++
		sx += x
		sy += y
		sxx += x * x
		syy += y * y
		sxy += x * y
	}
	remove := func(i int) {
		x, y := factor[i], returns[i]
		if math.IsNaN(x) || math.IsNaN(y) {
			return
		}
		cnt--
		sx -= x
		sy -= y
		sxx -= x * x
		syy -= y * y
		sxy -= x * y
	}

	for i := 0; i < window-1; i++ {
		add(i)
	}
	for end := window - 1; end < n; end++ {
		add(end)
		if cnt >= minSamples && cnt >= 2 {
			fc := float64(cnt)
			varX := fc*sxx - sx*sx
			varY := fc*syy - sy*sy
			if varX > 0 && varY > 0 {
				out[end] = (fc*sxy - sx*sy) / math.Sqrt(varX*varY)
			}
		}
		remove(end - window + 1)
	}
	return out
}

// AnalyzeIC 汇总单一持仓周期的IC统计
func AnalyzeIC(factor, returns []float64, horizon int, cfg Config) (*ICStats, error) {
	ic, pval, n, err := PointIC(factor, returns, cfg.ICMethod, cfg.MinSampleSize)
	if err != nil {
		return nil, err
	}
	stats := &ICStats{
		Horizon:    horizon,
		IC:         ic,
		PValue:     pval,
		SampleSize: n,
	}
	stats.RollingIC = RollingIC(factor, returns, cfg.RollingWindow, cfg.ICMethod, cfg.MinSampleSize)

	valid := make([]float64, 0, len(stats.RollingIC))
	for _, v := range stats.RollingIC {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return stats, nil
	}

	mean := stat.Mean(valid, nil)
	stats.ICMean = Defined(mean)

	matched := 0
	for _, v := range valid {
		if sign(v) == sign(mean) {
			matched++
		}
	}
	stats.ICWinRate = Defined(float64(matched) / float64(len(valid)))

	if len(valid) >= 2 {
		sd := math.Sqrt(stat.Variance(valid, nil))
		stats.ICStd = Defined(sd)
		if sd > 0 {
			stats.ICIR = Defined(mean / sd)
		}
	}
	return stats, nil
}

func sign(v float64) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
