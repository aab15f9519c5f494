package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// ComputeRiskMetrics 计算收益序列的风险指标。每个指标仅在其输入退化时
// 单独标记为无效，绝不以零填充：空序列全部无效，单样本序列仍有
// 年化收益与最大回撤。
func ComputeRiskMetrics(returns []float64, periodsPerYear float64) *RiskMetrics {
	clean := make([]float64, 0, len(returns))
	for _, r := range returns {
		if !math.IsNaN(r) {
			clean = append(clean, r)
		}
	}
	m := &RiskMetrics{SampleSize: len(clean)}
	if len(clean) == 0 {
		return m
	}

	mean := stat.Mean(clean, nil)
	m.AnnualizedReturn = Defined(math.Pow(1+mean, periodsPerYear) - 1)

	if len(clean) >= 2 {
		sd := math.Sqrt(stat.Variance(clean, nil))
		m.AnnualizedVolatility = Defined(sd * math.Sqrt(periodsPerYear))
		if m.AnnualizedVolatility.Valid && m.AnnualizedVolatility.Float64 > 0 && m.AnnualizedReturn.Valid {
			m.SharpeRatio = Defined(m.AnnualizedReturn.Float64 / m.AnnualizedVolatility.Float64)
		}
	}

	m.MaxDrawdown = Defined(maxDrawdown(clean))
	if m.AnnualizedReturn.Valid && m.MaxDrawdown.Valid && m.MaxDrawdown.Float64 < 0 {
		m.CalmarRatio = Defined(m.AnnualizedReturn.Float64 / math.Abs(m.MaxDrawdown.Float64))
	}

	wins, losses := 0, 0
	var gainSum, lossSum, downSq float64
	for _, r := range clean {
		switch {
		case r > 0:
			wins++
			gainSum += r
		case r < 0:
			losses++
			lossSum += r
			downSq += r * r
		}
	}
	m.WinRate = Defined(float64(wins) / float64(len(clean)))

	if wins > 0 && losses > 0 {
		avgGain := gainSum / float64(wins)
		avgLoss := math.Abs(lossSum / float64(losses))
		m.ProfitLossRatio = Defined(avgGain / avgLoss)
	}

	if downSq > 0 && m.AnnualizedReturn.Valid {
		downside := math.Sqrt(downSq/float64(len(clean))) * math.Sqrt(periodsPerYear)
		m.SortinoRatio = Defined(m.AnnualizedReturn.Float64 / downside)
	}
	return m
}

// maxDrawdown 复利净值曲线相对历史峰值的最大跌幅，恒为非正数
func maxDrawdown(returns []float64) float64 {
	equity := 1.0
	peak := 1.0
	worst := 0.0
	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if dd := equity/peak - 1; dd < worst {
			worst = dd
		}
	}
	return worst
}
