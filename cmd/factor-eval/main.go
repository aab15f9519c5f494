package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/stringer07/factor-mining/internal/analysis"
	"github.com/stringer07/factor-mining/internal/config"
	"github.com/stringer07/factor-mining/internal/factor"
	"github.com/stringer07/factor-mining/internal/factor/technical"
	"github.com/stringer07/factor-mining/internal/market/kline"
)

func main() {
	var (
		configFile = flag.String("config", "configs/config.yaml", "Configuration file path")
		symbol     = flag.String("symbol", "", "Symbol to evaluate, e.g. BTCUSDT")
		interval   = flag.String("interval", "1d", "Kline interval")
		factorName = flag.String("factor", "", "Factor name, see -list")
		all        = flag.Bool("all", false, "Evaluate every registered factor and print a ranking")
		limit      = flag.Int("limit", 0, "Use only the most recent N klines (0 = all)")
		output     = flag.String("output", "text", "Output format (text, json)")
		list       = flag.Bool("list", false, "List registered factors and exit")
	)
	flag.Parse()

	registry := factor.NewRegistry()
	technical.RegisterDefaults(registry)

	if *list {
		for _, meta := range registry.List() {
			fmt.Printf("%-20s %-12s %s\n", meta.Name, meta.Category, meta.Description)
		}
		return
	}
	if *symbol == "" || (*factorName == "" && !*all) {
		flag.Usage()
		os.Exit(2)
	}

	config.LoadEnv()
	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	evaluator, err := analysis.NewEvaluator(cfg.Evaluation.ToAnalysis())
	if err != nil {
		log.Fatalf("Invalid evaluation configuration: %v", err)
	}

	source := kline.NewCSVSource(cfg.Data.CSVDir)
	klines, err := source.Klines(context.Background(), *symbol, kline.Interval(*interval), *limit)
	if err != nil {
		log.Fatalf("Failed to load klines: %v", err)
	}

	if *all {
		evaluateAll(registry, evaluator, klines, *symbol)
		return
	}

	f, err := registry.Get(*factorName)
	if err != nil {
		log.Fatalf("Unknown factor: %v", err)
	}
	series, err := f.Compute(klines)
	if err != nil {
		log.Fatalf("Factor computation failed: %v", err)
	}

	report, err := evaluator.Evaluate(series, klines)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	if *output == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			log.Fatalf("Failed to encode report: %v", err)
		}
		return
	}
	printReport(*symbol, *factorName, len(klines), report)
}

// evaluateAll 逐一评估全部已注册因子并按综合评分排序输出
func evaluateAll(registry *factor.Registry, evaluator *analysis.Evaluator, klines kline.Series, symbol string) {
	type row struct {
		name   string
		score  float64
		label  analysis.RatingLabel
		ic     analysis.NullFloat
		spread analysis.NullFloat
	}

	rows := make([]row, 0, registry.Len())
	for _, meta := range registry.List() {
		f, err := registry.Get(meta.Name)
		if err != nil {
			continue
		}
		series, err := f.Compute(klines)
		if err != nil {
			fmt.Printf("%-20s skipped: %v\n", meta.Name, err)
			continue
		}
		report, err := evaluator.Evaluate(series, klines)
		if err != nil {
			fmt.Printf("%-20s skipped: %v\n", meta.Name, err)
			continue
		}

		r := row{name: meta.Name, score: report.Rating.Score, label: report.Rating.Label}
		if primary := report.Horizons[0]; primary != nil {
			r.ic = primary.IC.IC
			if primary.Layers != nil {
				r.spread = primary.Layers.LongShortReturn
			}
		}
		rows = append(rows, r)
	}

	sort.SliceStable(rows, func(a, b int) bool { return rows[a].score > rows[b].score })

	fmt.Printf("Factor ranking on %s (%d bars)\n\n", symbol, len(klines))
	fmt.Printf("%-20s %-8s %-10s %-10s %s\n", "factor", "score", "rating", "ic", "long-short")
	for _, r := range rows {
		fmt.Printf("%-20s %-8.1f %-10s %-10s %s\n",
			r.name, r.score, r.label, fmtNull(r.ic), fmtNull(r.spread))
	}
}

func printReport(symbol, factorName string, bars int, report *analysis.Report) {
	fmt.Printf("Factor evaluation: %s on %s (%d bars)\n\n", factorName, symbol, bars)

	fmt.Println("IC analysis")
	for _, h := range report.Horizons {
		ic := h.IC
		fmt.Printf("  h=%-3d ic=%s p=%s ir=%s win=%s n=%d\n",
			h.Horizon, fmtNull(ic.IC), fmtNull(ic.PValue), fmtNull(ic.ICIR),
			fmtNull(ic.ICWinRate), ic.SampleSize)
	}

	fmt.Println("\nQuantile layering")
	for _, h := range report.Horizons {
		if h.Layers == nil {
			continue
		}
		fmt.Printf("  h=%-3d long-short=%s monotonic=%v\n",
			h.Horizon, fmtNull(h.Layers.LongShortReturn), h.Layers.Monotonic)
		for _, g := range h.Layers.Groups {
			fmt.Printf("    group %d: n=%-4d mean=%s\n", g.Group, g.Count, fmtNull(g.MeanReturn))
		}
	}

	if m := report.RiskMetrics; m != nil {
		fmt.Println("\nLong-short risk metrics")
		fmt.Printf("  annual return=%s vol=%s sharpe=%s maxdd=%s win=%s\n",
			fmtNull(m.AnnualizedReturn), fmtNull(m.AnnualizedVolatility),
			fmtNull(m.SharpeRatio), fmtNull(m.MaxDrawdown), fmtNull(m.WinRate))
	}

	if r := report.Rating; r != nil {
		fmt.Printf("\nRating: %.1f (%s)\n", r.Score, r.Label)
		for _, c := range r.Components {
			fmt.Printf("  %-15s credit=%.2f weight=%.2f value=%s\n",
				c.Name, c.Credit, c.Weight, fmtNull(c.Value))
		}
	}
}

func fmtNull(v analysis.NullFloat) string {
	if !v.Valid {
		return "n/a"
	}
	return fmt.Sprintf("%.4f", v.Float64)
}
