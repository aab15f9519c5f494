// Package technical 基于价格行为的技术类因子
package technical

import (
	"fmt"
	"math"

	talib "github.com/markcheno/go-talib"

	"github.com/stringer07/factor-mining/internal/analysis"
	"github.com/stringer07/factor-mining/internal/errors"
	"github.com/stringer07/factor-mining/internal/factor"
	"github.com/stringer07/factor-mining/internal/market/kline"
)

const categoryTechnical = "technical"

// maskWarmup 指标暖机期内的输出无意义，统一置为NaN
func maskWarmup(values []float64, warmup int) []float64 {
	for i := 0; i < warmup && i < len(values); i++ {
		values[i] = math.NaN()
	}
	return values
}

func requireLength(klines kline.Series, min int) error {
	if len(klines) < min {
		return errors.NewInsufficientDataError(
			fmt.Sprintf("need at least %d klines, got %d", min, len(klines))).
			WithContext("required", min).
			WithContext("actual", len(klines))
	}
	return nil
}

// Momentum N周期动量：close[t]/close[t-N] - 1
type Momentum struct {
	Period int
}

func (f Momentum) Metadata() factor.Metadata {
	return factor.Metadata{
		Name:        fmt.Sprintf("momentum_%d", f.Period),
		Category:    categoryTechnical,
		Description: "trailing price change over the lookback period",
		Params:      map[string]interface{}{"period": f.Period},
	}
}

func (f Momentum) Compute(klines kline.Series) (analysis.TimeSeries, error) {
	if err := requireLength(klines, f.Period+1); err != nil {
		return analysis.TimeSeries{}, err
	}
	closes := klines.Closes()
	values := make([]float64, len(closes))
	for t := range values {
		if t < f.Period {
			values[t] = math.NaN()
			continue
		}
		values[t] = closes[t]/closes[t-f.Period] - 1
	}
	return analysis.TimeSeries{Times: klines.Times(), Values: values}, nil
}

// Reversal N周期反转：动量取负，押注短期超涨回落
type Reversal struct {
	Period int
}

func (f Reversal) Metadata() factor.Metadata {
	return factor.Metadata{
		Name:        fmt.Sprintf("reversal_%d", f.Period),
		Category:    categoryTechnical,
		Description: "negated trailing price change, betting on mean reversion",
		Params:      map[string]interface{}{"period": f.Period},
	}
}

func (f Reversal) Compute(klines kline.Series) (analysis.TimeSeries, error) {
	ts, err := Momentum{Period: f.Period}.Compute(klines)
	if err != nil {
		return analysis.TimeSeries{}, err
	}
	for i := range ts.Values {
		ts.Values[i] = -ts.Values[i]
	}
	return ts, nil
}

// RSIMomentum RSI偏离中轴的幅度：RSI(N) - 50
type RSIMomentum struct {
	Period int
}

func (f RSIMomentum) Metadata() factor.Metadata {
	return factor.Metadata{
		Name:        fmt.Sprintf("rsi_momentum_%d", f.Period),
		Category:    categoryTechnical,
		Description: "RSI displacement from the neutral 50 line",
		Params:      map[string]interface{}{"period": f.Period},
	}
}

func (f RSIMomentum) Compute(klines kline.Series) (analysis.TimeSeries, error) {
	if err := requireLength(klines, f.Period+1); err != nil {
		return analysis.TimeSeries{}, err
	}
	rsi := talib.Rsi(klines.Closes(), f.Period)
	values := maskWarmup(rsi, f.Period)
	for i := range values {
		if !math.IsNaN(values[i]) {
			values[i] -= 50
		}
	}
	return analysis.TimeSeries{Times: klines.Times(), Values: values}, nil
}

// MACDMomentum MACD柱状值，衡量快慢均线的发散速度
type MACDMomentum struct {
	Fast   int
	Slow   int
	Signal int
}

// DefaultMACDMomentum 常用参数 12/26/9
func DefaultMACDMomentum() MACDMomentum {
	return MACDMomentum{Fast: 12, Slow: 26, Signal: 9}
}

func (f MACDMomentum) Metadata() factor.Metadata {
	return factor.Metadata{
		Name:        "macd_momentum",
		Category:    categoryTechnical,
		Description: "MACD histogram, the divergence speed of fast and slow averages",
		Params: map[string]interface{}{
			"fast": f.Fast, "slow": f.Slow, "signal": f.Signal,
		},
	}
}

func (f MACDMomentum) Compute(klines kline.Series) (analysis.TimeSeries, error) {
	warmup := f.Slow + f.Signal
	if err := requireLength(klines, warmup+1); err != nil {
		return analysis.TimeSeries{}, err
	}
	_, _, hist := talib.Macd(klines.Closes(), f.Fast, f.Slow, f.Signal)
	return analysis.TimeSeries{
		Times:  klines.Times(),
		Values: maskWarmup(hist, warmup),
	}, nil
}

// Volatility N周期收益率标准差，低波动异象因子
type Volatility struct {
	Period int
}

func (f Volatility) Metadata() factor.Metadata {
	return factor.Metadata{
		Name:        fmt.Sprintf("volatility_%d", f.Period),
		Category:    categoryTechnical,
		Description: "rolling standard deviation of one-period returns",
		Params:      map[string]interface{}{"period": f.Period},
	}
}

func (f Volatility) Compute(klines kline.Series) (analysis.TimeSeries, error) {
	if err := requireLength(klines, f.Period+1); err != nil {
		return analysis.TimeSeries{}, err
	}
	closes := klines.Closes()
	rets := make([]float64, len(closes))
	rets[0] = 0
	for t := 1; t < len(closes); t++ {
		rets[t] = closes[t]/closes[t-1] - 1
	}
	std := talib.StdDev(rets, f.Period, 1.0)
	// 首个收益率本身无定义，暖机期比指标窗口多一位
	return analysis.TimeSeries{
		Times:  klines.Times(),
		Values: maskWarmup(std, f.Period),
	}, nil
}

// RegisterDefaults 注册默认技术因子集合
func RegisterDefaults(r *factor.Registry) {
	r.Register(Momentum{Period: 5})
	r.Register(Momentum{Period: 10})
	r.Register(Momentum{Period: 20})
	r.Register(Reversal{Period: 5})
	r.Register(RSIMomentum{Period: 14})
	r.Register(DefaultMACDMomentum())
	r.Register(Volatility{Period: 20})
}
