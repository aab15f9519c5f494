package analysis

import "math"

// 档位得分：满档1.0，中档0.6，低档0.2。指标无法计算时按低档计分，
// 缺失信息不奖励也不判零分。
const (
	creditFull    = 1.0
	creditPartial = 0.6
	creditMinimal = 0.2
)

// band 阈值档位，按幅度从高到低匹配
type band struct {
	threshold float64
	credit    float64
}

var (
	icStrengthBands    = []band{{0.05, creditFull}, {0.02, creditPartial}}
	icStabilityBands   = []band{{1.0, creditFull}, {0.5, creditPartial}}
	icPersistenceBands = []band{{0.02, creditFull}, {0.01, creditPartial}}
	layeringBands      = []band{{0.005, creditFull}, {0.001, creditPartial}}
)

// gradeAbs 按指标绝对值匹配档位。方向不影响评级，反向因子同样有效
func gradeAbs(v NullFloat, bands []band) float64 {
	if !v.Valid {
		return creditMinimal
	}
	abs := math.Abs(v.Float64)
	for _, b := range bands {
		if abs > b.threshold {
			return b.credit
		}
	}
	return creditMinimal
}

// RatingInputs 综合评级输入
type RatingInputs struct {
	Primary     *ICStats     // 主持仓周期IC统计
	Persistence *ICStats     // 持续性参考周期IC统计
	Layering    *LayerResult // 主持仓周期分层结果
}

// ComputeRating 将四个维度的表现映射为[0,100]综合评分。
// 分层得分在组间收益不单调时减半。
func ComputeRating(in RatingInputs, weights Weights) *Rating {
	components := make([]ComponentScore, 0, 4)

	add := func(name string, value NullFloat, credit, weight float64) {
		components = append(components, ComponentScore{
			Name:      name,
			Value:     value,
			Credit:    credit,
			Weight:    weight,
			Undefined: !value.Valid,
		})
	}

	var primaryIC, icIR, persistIC, longShort NullFloat
	monotonic := true
	if in.Primary != nil {
		primaryIC = in.Primary.IC
		icIR = in.Primary.ICIR
	}
	if in.Persistence != nil {
		persistIC = in.Persistence.IC
	}
	if in.Layering != nil {
		longShort = in.Layering.LongShortReturn
		monotonic = in.Layering.Monotonic
	}

	add("ic_strength", primaryIC, gradeAbs(primaryIC, icStrengthBands), weights.ICStrength)
	add("ic_stability", icIR, gradeAbs(icIR, icStabilityBands), weights.ICStability)
	add("ic_persistence", persistIC, gradeAbs(persistIC, icPersistenceBands), weights.ICPersistence)

	layerCredit := gradeAbs(longShort, layeringBands)
	if !monotonic {
		layerCredit /= 2
	}
	add("layering", longShort, layerCredit, weights.Layering)

	score := 0.0
	for _, c := range components {
		score += c.Weight * c.Credit
	}
	score *= 100

	return &Rating{
		Score:      score,
		Label:      labelFor(score),
		Components: components,
	}
}

func labelFor(score float64) RatingLabel {
	switch {
	case score >= 80:
		return RatingExcellent
	case score >= 60:
		return RatingGood
	case score >= 40:
		return RatingFair
	default:
		return RatingPoor
	}
}
