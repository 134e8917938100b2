package contracts

import (
	"fmt"
	"time"
)

// Bar represents one day of OHLCV data
type Bar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceSeries is the ordered OHLCV history of one symbol
// ⭐ SSOT: 가격 시계열 타입은 여기서만 정의
type PriceSeries struct {
	Symbol string `json:"symbol"`
	Bars   []Bar  `json:"bars"` // ascending by date
}

// Validate checks the series invariant: dates strictly increasing, no duplicates
func (s *PriceSeries) Validate() error {
	for i := 1; i < len(s.Bars); i++ {
		if !s.Bars[i].Date.After(s.Bars[i-1].Date) {
			return fmt.Errorf("price series %s: dates not strictly increasing at index %d (%s -> %s)",
				s.Symbol, i,
				s.Bars[i-1].Date.Format("2006-01-02"),
				s.Bars[i].Date.Format("2006-01-02"))
		}
	}
	return nil
}

// Empty reports whether the series has no bars
func (s *PriceSeries) Empty() bool {
	return len(s.Bars) == 0
}

// Closes returns the close column
func (s *PriceSeries) Closes() []float64 {
	out := make([]float64, len(s.Bars))
	for i, b := range s.Bars {
		out[i] = b.Close
	}
	return out
}

// LastDate returns the most recent bar date, or the zero time when empty
func (s *PriceSeries) LastDate() time.Time {
	if len(s.Bars) == 0 {
		return time.Time{}
	}
	return s.Bars[len(s.Bars)-1].Date
}
