package analysis

import (
	"fmt"
	"math"

	"github.com/stringer07/factor-mining/internal/errors"
)

// Method IC计算方法
type Method string

const (
	MethodPearson  Method = "pearson"  // 皮尔逊相关系数
	MethodSpearman Method = "spearman" // 斯皮尔曼秩相关系数
)

// Weights 综合评级各分项权重，约定总和为1
type Weights struct {
	ICStrength    float64 `json:"ic_strength" yaml:"ic_strength"`
	ICStability   float64 `json:"ic_stability" yaml:"ic_stability"`
	ICPersistence float64 `json:"ic_persistence" yaml:"ic_persistence"`
	Layering      float64 `json:"layering" yaml:"layering"`
}

// DefaultWeights 默认等权
func DefaultWeights() Weights {
	return Weights{ICStrength: 0.25, ICStability: 0.25, ICPersistence: 0.25, Layering: 0.25}
}

// Config 因子评估配置
type Config struct {
	Horizons       []int   `json:"horizons" yaml:"horizons"`                 // 前瞻持仓周期
	Quantiles      int     `json:"quantiles" yaml:"quantiles"`               // 分层组数
	RollingWindow  int     `json:"rolling_window" yaml:"rolling_window"`     // 滚动IC窗口
	MinSampleSize  int     `json:"min_sample_size" yaml:"min_sample_size"`   // IC计算最小样本对数
	PeriodsPerYear float64 `json:"periods_per_year" yaml:"periods_per_year"` // 年化周期数
	ICMethod       Method  `json:"ic_method" yaml:"ic_method"`
	Weights        Weights `json:"weights" yaml:"weights"`
}

// DefaultConfig 默认评估配置
func DefaultConfig() Config {
	return Config{
		Horizons:       []int{1, 5, 10, 20},
		Quantiles:      5,
		RollingWindow:  60,
		MinSampleSize:  10,
		PeriodsPerYear: 365,
		ICMethod:       MethodPearson,
		Weights:        DefaultWeights(),
	}
}

// Validate 校验配置，返回带上下文的配置错误
func (c Config) Validate() error {
	if len(c.Horizons) == 0 {
		return errors.NewConfigurationError("at least one horizon is required")
	}
	seen := make(map[int]bool, len(c.Horizons))
	for _, h := range c.Horizons {
		if h < 1 {
			return errors.NewConfigurationError(fmt.Sprintf("horizon must be >= 1, got %d", h)).
				WithContext("horizon", h)
		}
		if seen[h] {
			return errors.NewConfigurationError(fmt.Sprintf("duplicate horizon %d", h)).
				WithContext("horizon", h)
		}
		seen[h] = true
	}
	if c.Quantiles < 2 {
		return errors.NewConfigurationError(fmt.Sprintf("quantiles must be >= 2, got %d", c.Quantiles)).
			WithContext("quantiles", c.Quantiles)
	}
	if c.RollingWindow < 2 {
		return errors.NewConfigurationError(fmt.Sprintf("rolling window must be >= 2, got %d", c.RollingWindow)).
			WithContext("rolling_window", c.RollingWindow)
	}
	if c.MinSampleSize < 2 {
		return errors.NewConfigurationError(fmt.Sprintf("min sample size must be >= 2, got %d", c.MinSampleSize)).
			WithContext("min_sample_size", c.MinSampleSize)
	}
	if c.PeriodsPerYear <= 0 {
		return errors.NewConfigurationError("periods per year must be positive").
			WithContext("periods_per_year", c.PeriodsPerYear)
	}
	if c.ICMethod != MethodPearson && c.ICMethod != MethodSpearman {
		return errors.NewConfigurationError(fmt.Sprintf("unknown ic method %q", c.ICMethod)).
			WithContext("ic_method", string(c.ICMethod))
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"ic_strength":    w.ICStrength,
		"ic_stability":   w.ICStability,
		"ic_persistence": w.ICPersistence,
		"layering":       w.Layering,
	} {
		if v < 0 {
			return errors.NewConfigurationError("rating weights must be non-negative").
				WithContext("weight", name)
		}
	}
	sum := w.ICStrength + w.ICStability + w.ICPersistence + w.Layering
	if math.Abs(sum-1.0) > 1e-9 {
		return errors.NewConfigurationError(fmt.Sprintf("rating weights must sum to 1, got %g", sum)).
			WithContext("weights_sum", sum)
	}
	return nil
}
