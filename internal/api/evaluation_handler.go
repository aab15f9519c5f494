package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stringer07/factor-mining/internal/analysis"
	"github.com/stringer07/factor-mining/internal/errors"
	"github.com/stringer07/factor-mining/internal/factor"
	"github.com/stringer07/factor-mining/internal/market/kline"
	"github.com/stringer07/factor-mining/internal/monitoring"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Message string      `json:"message,omitempty"`
}

// EvaluationRequest 因子评估请求。未指定的评估参数沿用服务端默认配置
type EvaluationRequest struct {
	Symbol        string            `json:"symbol" binding:"required"`
	Interval      string            `json:"interval"`
	Factor        string            `json:"factor" binding:"required"`
	Limit         int               `json:"limit"`
	Horizons      []int             `json:"horizons"`
	Quantiles     int               `json:"quantiles"`
	RollingWindow int               `json:"rolling_window"`
	MinSampleSize int               `json:"min_sample_size"`
	ICMethod      string            `json:"ic_method"`
	Weights       *analysis.Weights `json:"weights"`
}

// EvaluationHandler handles factor evaluation API requests
type EvaluationHandler struct {
	source   kline.Source
	registry *factor.Registry
	defaults analysis.Config
	metrics  *monitoring.Metrics
}

// NewEvaluationHandler creates a new evaluation handler
func NewEvaluationHandler(source kline.Source, registry *factor.Registry, defaults analysis.Config, metrics *monitoring.Metrics) *EvaluationHandler {
	return &EvaluationHandler{
		source:   source,
		registry: registry,
		defaults: defaults,
		metrics:  metrics,
	}
}

// mergeConfig 将请求级覆盖合并进默认评估配置
func (h *EvaluationHandler) mergeConfig(req *EvaluationRequest) analysis.Config {
	cfg := h.defaults
	if len(req.Horizons) > 0 {
		cfg.Horizons = req.Horizons
	}
	if req.Quantiles > 0 {
		cfg.Quantiles = req.Quantiles
	}
	if req.RollingWindow > 0 {
		cfg.RollingWindow = req.RollingWindow
	}
	if req.MinSampleSize > 0 {
		cfg.MinSampleSize = req.MinSampleSize
	}
	if req.ICMethod != "" {
		cfg.ICMethod = analysis.Method(req.ICMethod)
	}
	if req.Weights != nil {
		cfg.Weights = *req.Weights
	}
	return cfg
}

// prepare 解析请求，加载K线并计算因子序列
func (h *EvaluationHandler) prepare(c *gin.Context) (*EvaluationRequest, analysis.TimeSeries, kline.Series, *analysis.Evaluator, bool) {
	var req EvaluationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
		return nil, analysis.TimeSeries{}, nil, nil, false
	}
	if req.Interval == "" {
		req.Interval = string(kline.Interval1d)
	}

	evaluator, err := analysis.NewEvaluator(h.mergeConfig(&req))
	if err != nil {
		c.Error(err)
		return nil, analysis.TimeSeries{}, nil, nil, false
	}

	klines, err := h.source.Klines(c.Request.Context(), req.Symbol, kline.Interval(req.Interval), req.Limit)
	if err != nil {
		h.metrics.RecordKlineLoad(req.Symbol, "error")
		c.Error(err)
		return nil, analysis.TimeSeries{}, nil, nil, false
	}
	h.metrics.RecordKlineLoad(req.Symbol, "ok")

	f, err := h.registry.Get(req.Factor)
	if err != nil {
		c.Error(err)
		return nil, analysis.TimeSeries{}, nil, nil, false
	}
	series, err := f.Compute(klines)
	if err != nil {
		c.Error(errors.WrapError(err, errors.ErrCodeFactorCalculation, "factor computation failed").
			WithContext("factor", req.Factor))
		return nil, analysis.TimeSeries{}, nil, nil, false
	}

	return &req, series, klines, evaluator, true
}

// Run executes a full factor evaluation
func (h *EvaluationHandler) Run(c *gin.Context) {
	req, series, klines, evaluator, ok := h.prepare(c)
	if !ok {
		return
	}

	start := time.Now()
	report, err := evaluator.Evaluate(series, klines)
	if err != nil {
		h.metrics.RecordEvaluation(req.Factor, "error", time.Since(start))
		c.Error(err)
		return
	}
	h.metrics.RecordEvaluation(req.Factor, "ok", time.Since(start))

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"symbol":       req.Symbol,
			"interval":     req.Interval,
			"factor":       req.Factor,
			"sample_size":  len(klines),
			"config":       evaluator.Config(),
			"horizons":     report.Horizons,
			"risk_metrics": report.RiskMetrics,
			"rating":       report.Rating,
		},
	})
}

// ICAnalysis returns IC statistics only
func (h *EvaluationHandler) ICAnalysis(c *gin.Context) {
	req, series, klines, evaluator, ok := h.prepare(c)
	if !ok {
		return
	}

	report, err := evaluator.Evaluate(series, klines)
	if err != nil {
		c.Error(err)
		return
	}

	stats := make([]*analysis.ICStats, 0, len(report.Horizons))
	for _, horizon := range report.Horizons {
		stats = append(stats, horizon.IC)
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"symbol": req.Symbol,
			"factor": req.Factor,
			"ic":     stats,
		},
	})
}

// QuantileBacktest returns layered backtest results only
func (h *EvaluationHandler) QuantileBacktest(c *gin.Context) {
	req, series, klines, evaluator, ok := h.prepare(c)
	if !ok {
		return
	}

	report, err := evaluator.Evaluate(series, klines)
	if err != nil {
		c.Error(err)
		return
	}

	layers := make([]*analysis.LayerResult, 0, len(report.Horizons))
	for _, horizon := range report.Horizons {
		if horizon.Layers != nil {
			layers = append(layers, horizon.Layers)
		}
	}
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: gin.H{
			"symbol":       req.Symbol,
			"factor":       req.Factor,
			"layers":       layers,
			"risk_metrics": report.RiskMetrics,
		},
	})
}
