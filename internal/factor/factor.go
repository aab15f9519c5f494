package factor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/stringer07/factor-mining/internal/analysis"
	"github.com/stringer07/factor-mining/internal/errors"
	"github.com/stringer07/factor-mining/internal/market/kline"
)

// Metadata 因子元信息
type Metadata struct {
	Name        string                 `json:"name"`
	Category    string                 `json:"category"`
	Description string                 `json:"description"`
	Params      map[string]interface{} `json:"params,omitempty"`
}

// Factor 因子计算接口。实现必须是纯函数：相同K线输入产出相同序列，
// 且任意时点的因子值只依赖该时点及之前的数据。
type Factor interface {
	Metadata() Metadata
	Compute(klines kline.Series) (analysis.TimeSeries, error)
}

// Registry 因子注册表，按名称索引，并发安全
type Registry struct {
	mu      sync.RWMutex
	factors map[string]Factor
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{factors: make(map[string]Factor)}
}

// Register 注册因子，名称重复时覆盖旧实现
func (r *Registry) Register(f Factor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factors[f.Metadata().Name] = f
}

// Get 按名称查找因子
func (r *Registry) Get(name string) (Factor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.factors[name]
	if !ok {
		return nil, errors.NewAppError(errors.ErrCodeFactorNotFound,
			fmt.Sprintf("factor %q is not registered", name), nil).
			WithContext("factor", name)
	}
	return f, nil
}

// List 返回全部因子元信息，按名称排序
func (r *Registry) List() []Metadata {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metadata, 0, len(r.factors))
	for _, f := range r.factors {
		out = append(out, f.Metadata())
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Name < out[b].Name })
	return out
}

// Len 返回已注册因子数量
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.factors)
}
