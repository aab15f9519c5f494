package kline

import (
	"time"

	"github.com/stringer07/factor-mining/internal/errors"
)

// Interval represents a candlestick interval
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

// Kline represents a candlestick
type Kline struct {
	Symbol   string    `json:"symbol"`
	Interval Interval  `json:"interval"`
	OpenTime time.Time `json:"open_time"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
}

// Series is an ordered sequence of klines with strictly increasing open times
type Series []Kline

// Validate checks ordering and price sanity. Close prices must be strictly
// positive because downstream return computation divides by them.
func (s Series) Validate() error {
	for i, k := range s {
		if k.Close <= 0 || k.Open <= 0 || k.High <= 0 || k.Low <= 0 {
			return errors.NewDataError("non-positive price in kline series", nil).
				WithContext("index", i).
				WithContext("close", k.Close)
		}
		if i > 0 && !s[i-1].OpenTime.Before(k.OpenTime) {
			return errors.NewDataError("kline timestamps not strictly increasing", nil).
				WithContext("index", i).
				WithContext("prev", s[i-1].OpenTime).
				WithContext("curr", k.OpenTime)
		}
	}
	return nil
}

// Closes extracts the close price column
func (s Series) Closes() []float64 {
	closes := make([]float64, len(s))
	for i, k := range s {
		closes[i] = k.Close
	}
	return closes
}

// Times extracts the open time column
func (s Series) Times() []time.Time {
	times := make([]time.Time, len(s))
	for i, k := range s {
		times[i] = k.OpenTime
	}
	return times
}

// GetIntervalDuration returns the duration of an interval
func GetIntervalDuration(interval Interval) time.Duration {
	switch interval {
	case Interval1m:
		return time.Minute
	case Interval5m:
		return 5 * time.Minute
	case Interval15m:
		return 15 * time.Minute
	case Interval30m:
		return 30 * time.Minute
	case Interval1h:
		return time.Hour
	case Interval4h:
		return 4 * time.Hour
	case Interval1d:
		return 24 * time.Hour
	case Interval1w:
		return 168 * time.Hour
	default:
		return 24 * time.Hour
	}
}

// PeriodsPerYear returns the annualization factor for an interval assuming
// markets that trade around the clock
func PeriodsPerYear(interval Interval) float64 {
	d := GetIntervalDuration(interval)
	return float64(365*24*time.Hour) / float64(d)
}
