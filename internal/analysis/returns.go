package analysis

import (
	"fmt"
	"math"

	"github.com/stringer07/factor-mining/internal/errors"
)

// ForwardReturns 计算前瞻收益率序列。
// ret[t] = close[t+h]/close[t] - 1，末尾h个位置无未来价格，置为NaN。
// 输出长度与输入一致，缺失值永不填零。非正价格是数据错误而非缺失，
// 收益率在其上没有定义，必须整体拒绝。
func ForwardReturns(closes []float64, horizon int) ([]float64, error) {
	if horizon < 1 {
		return nil, errors.NewConfigurationError(fmt.Sprintf("horizon must be >= 1, got %d", horizon)).
			WithContext("horizon", horizon)
	}
	if len(closes) == 0 {
		return nil, errors.NewDataError("empty price series", nil)
	}
	for t, c := range closes {
		if !math.IsNaN(c) && c <= 0 {
			return nil, errors.NewDataError("price series contains non-positive close", nil).
				WithContext("index", t).
				WithContext("close", c)
		}
	}
	returns := make([]float64, len(closes))
	for t := range returns {
		if t+horizon >= len(closes) {
			returns[t] = math.NaN()
			continue
		}
		base := closes[t]
		future := closes[t+horizon]
		if math.IsNaN(base) || math.IsNaN(future) {
			returns[t] = math.NaN()
			continue
		}
		returns[t] = future/base - 1
	}
	return returns, nil
}

// MultiHorizonReturns 一次计算多个持仓周期的前瞻收益率
func MultiHorizonReturns(closes []float64, horizons []int) (map[int][]float64, error) {
	out := make(map[int][]float64, len(horizons))
	for _, h := range horizons {
		if _, ok := out[h]; ok {
			continue
		}
		r, err := ForwardReturns(closes, h)
		if err != nil {
			return nil, err
		}
		out[h] = r
	}
	return out, nil
}
