package analysis

import (
	"encoding/json"
	"math"
)

// NullFloat 可空浮点数，用于区分“计算结果为零”与“无法计算”。
// 无效值序列化为JSON null，绝不伪装成数值哨兵。
type NullFloat struct {
	Float64 float64
	Valid   bool
}

// Defined 创建有效值
func Defined(v float64) NullFloat {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Undefined()
	}
	return NullFloat{Float64: v, Valid: true}
}

// Undefined 创建无效值
func Undefined() NullFloat {
	return NullFloat{}
}

// Or 返回有效值，否则返回fallback
func (n NullFloat) Or(fallback float64) float64 {
	if n.Valid {
		return n.Float64
	}
	return fallback
}

// MarshalJSON 实现 json.Marshaler
func (n NullFloat) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(n.Float64)
}

// UnmarshalJSON 实现 json.Unmarshaler
func (n *NullFloat) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*n = Undefined()
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Defined(v)
	return nil
}

// ICStats 单一持仓周期上的IC分析结果
type ICStats struct {
	Horizon    int       `json:"horizon"`     // 前瞻期
	IC         NullFloat `json:"ic"`          // 时点IC
	PValue     NullFloat `json:"p_value"`     // 双侧t检验p值
	SampleSize int       `json:"sample_size"` // 有效样本对数量
	RollingIC  []float64 `json:"-"`           // 滚动IC序列，无效窗口为NaN
	ICMean     NullFloat `json:"ic_mean"`     // 滚动IC均值
	ICStd      NullFloat `json:"ic_std"`      // 滚动IC标准差
	ICIR       NullFloat `json:"ic_ir"`       // IC信息比率 = mean/std
	ICWinRate  NullFloat `json:"ic_win_rate"` // 与滚动IC均值同号的比例
}

// GroupStats 分层回测中单一分位组的统计
type GroupStats struct {
	Group      int       `json:"group"`       // 分组编号 [0, N)
	Count      int       `json:"count"`       // 样本数量
	MeanReturn NullFloat `json:"mean_return"` // 平均未来收益
}

// LayerResult 分层回测结果
type LayerResult struct {
	Horizon           int          `json:"horizon"`
	Groups            []GroupStats `json:"groups"`
	LongShortReturn   NullFloat    `json:"long_short_return"`  // 最高组减最低组
	Monotonic         bool         `json:"monotonic"`          // 组间均值是否单调
	MonotonicityScore NullFloat    `json:"monotonicity_score"` // (正向差-负向差)/总差数
}

// RiskMetrics 收益序列的风险指标
type RiskMetrics struct {
	AnnualizedReturn     NullFloat `json:"annualized_return"`
	AnnualizedVolatility NullFloat `json:"annualized_volatility"`
	SharpeRatio          NullFloat `json:"sharpe_ratio"`
	SortinoRatio         NullFloat `json:"sortino_ratio"`
	CalmarRatio          NullFloat `json:"calmar_ratio"`
	MaxDrawdown          NullFloat `json:"max_drawdown"`
	WinRate              NullFloat `json:"win_rate"`
	ProfitLossRatio      NullFloat `json:"profit_loss_ratio"`
	SampleSize           int       `json:"sample_size"`
}

// RatingLabel 综合评级标签
type RatingLabel string

const (
	RatingExcellent RatingLabel = "excellent"
	RatingGood      RatingLabel = "good"
	RatingFair      RatingLabel = "fair"
	RatingPoor      RatingLabel = "poor"
)

// ComponentScore 单项评分明细
type ComponentScore struct {
	Name      string    `json:"name"`
	Value     NullFloat `json:"value"`  // 参与评分的指标值
	Credit    float64   `json:"credit"` // 档位得分 [0,1]
	Weight    float64   `json:"weight"`
	Undefined bool      `json:"undefined"` // 指标无法计算，按最低档计分
}

// Rating 综合评级结果，始终携带全部分项明细
type Rating struct {
	Score      float64          `json:"score"` // [0,100]
	Label      RatingLabel      `json:"label"`
	Components []ComponentScore `json:"components"`
}

// HorizonResult 单一持仓周期的完整评估输出
type HorizonResult struct {
	Horizon int          `json:"horizon"`
	IC      *ICStats     `json:"ic"`
	Layers  *LayerResult `json:"layers"`
}

// Report 一次因子评估的完整结果。对相同输入可重复生成且逐位一致
type Report struct {
	Horizons    []*HorizonResult `json:"horizons"`
	RiskMetrics *RiskMetrics     `json:"risk_metrics"` // 主周期多空组合的风险指标
	Rating      *Rating          `json:"rating"`
}

// HorizonResult 按持仓周期查找结果，不存在时返回nil
func (r *Report) HorizonResult(horizon int) *HorizonResult {
	for _, h := range r.Horizons {
		if h.Horizon == horizon {
			return h
		}
	}
	return nil
}
