package kline

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/stringer07/factor-mining/internal/errors"
)

// Source supplies historical klines for a symbol. Live collectors, databases
// and exchange clients all sit behind this interface; the evaluation engine
// itself never fetches data.
type Source interface {
	Klines(ctx context.Context, symbol string, interval Interval, limit int) (Series, error)
}

// CSVSource reads klines from per-symbol CSV files in a directory. File
// naming follows <symbol>_<interval>.csv with columns
// timestamp,open,high,low,close,volume where timestamp is unix seconds.
type CSVSource struct {
	dir string
}

// NewCSVSource creates a CSV-backed kline source
func NewCSVSource(dir string) *CSVSource {
	return &CSVSource{dir: dir}
}

// Klines loads up to limit most recent klines for the symbol
func (s *CSVSource) Klines(ctx context.Context, symbol string, interval Interval, limit int) (Series, error) {
	path := filepath.Join(s.dir, fmt.Sprintf("%s_%s.csv", symbol, interval))

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCodeMarketDataUnavailable,
			"kline file not found", err).WithContext("path", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewAppError(errors.ErrCodeMarketDataInvalid,
			"failed to parse kline file", err).WithContext("path", path)
	}

	series := make(Series, 0, len(records))
	for i, record := range records {
		// Skip a header row if present
		if i == 0 && len(record) > 0 {
			if _, err := strconv.ParseInt(record[0], 10, 64); err != nil {
				continue
			}
		}
		if len(record) < 6 {
			return nil, errors.NewAppError(errors.ErrCodeMarketDataInvalid,
				"kline row has too few columns", nil).
				WithContext("path", path).
				WithContext("row", i)
		}

		k, err := parseRow(symbol, interval, record)
		if err != nil {
			return nil, errors.NewAppError(errors.ErrCodeMarketDataInvalid,
				"failed to parse kline row", err).
				WithContext("path", path).
				WithContext("row", i)
		}
		series = append(series, k)
	}

	if err := series.Validate(); err != nil {
		return nil, err
	}

	if limit > 0 && len(series) > limit {
		series = series[len(series)-limit:]
	}
	return series, nil
}

func parseRow(symbol string, interval Interval, record []string) (Kline, error) {
	ts, err := strconv.ParseInt(record[0], 10, 64)
	if err != nil {
		return Kline{}, fmt.Errorf("timestamp: %w", err)
	}

	values := make([]float64, 5)
	for i := 0; i < 5; i++ {
		values[i], err = strconv.ParseFloat(record[i+1], 64)
		if err != nil {
			return Kline{}, fmt.Errorf("column %d: %w", i+1, err)
		}
	}

	return Kline{
		Symbol:   symbol,
		Interval: interval,
		OpenTime: time.Unix(ts, 0).UTC(),
		Open:     values[0],
		High:     values[1],
		Low:      values[2],
		Close:    values[3],
		Volume:   values[4],
	}, nil
}
