package contracts

import (
	"sort"
	"time"
)

// FeatureNames is the fixed, ordered feature set of the screener.
// The order is a compatibility surface: trained model artifacts record it
// and the ranking service must serve columns in exactly this order.
var FeatureNames = []string{
	"ret_1d",
	"ret_5d",
	"ret_20d",
	"vol_20d",
	"price_sma20",
	"price_sma50",
	"rsi_14",
}

// FeatureRow is one (date, symbol) row of the feature table
// ⭐ SSOT: 피처 스키마는 여기서만 정의
type FeatureRow struct {
	Date       time.Time `json:"date"`
	Symbol     string    `json:"symbol"`
	Ret1D      float64   `json:"ret_1d"`
	Ret5D      float64   `json:"ret_5d"`
	Ret20D     float64   `json:"ret_20d"`
	Vol20D     float64   `json:"vol_20d"`
	PriceSMA20 float64   `json:"price_sma20"`
	PriceSMA50 float64   `json:"price_sma50"`
	RSI14      float64   `json:"rsi_14"`

	// Target is the forward return over the training horizon.
	// nil for the most recent `horizon` rows, which lack a known future price.
	Target *float64 `json:"target,omitempty"`
}

// Vector returns the feature values in FeatureNames order
func (r *FeatureRow) Vector() []float64 {
	return []float64{r.Ret1D, r.Ret5D, r.Ret20D, r.Vol20D, r.PriceSMA20, r.PriceSMA50, r.RSI14}
}

// FeatureTable is an ordered collection of feature rows across symbols and dates
type FeatureTable struct {
	Rows []FeatureRow `json:"rows"`
}

// TrainingRows returns the rows usable for training (non-null target)
func (t *FeatureTable) TrainingRows() []FeatureRow {
	out := make([]FeatureRow, 0, len(t.Rows))
	for _, r := range t.Rows {
		if r.Target != nil {
			out = append(out, r)
		}
	}
	return out
}

// LatestDate returns the most recent date in the table, or zero time when empty
func (t *FeatureTable) LatestDate() time.Time {
	var latest time.Time
	for _, r := range t.Rows {
		if r.Date.After(latest) {
			latest = r.Date
		}
	}
	return latest
}

// Snapshot returns the rows for a single date, one per symbol, sorted by symbol
func (t *FeatureTable) Snapshot(date time.Time) []FeatureRow {
	var out []FeatureRow
	for _, r := range t.Rows {
		if r.Date.Equal(date) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// DistinctDates returns the sorted distinct dates in the table
func (t *FeatureTable) DistinctDates() []time.Time {
	seen := make(map[time.Time]bool)
	var dates []time.Time
	for _, r := range t.Rows {
		if !seen[r.Date] {
			seen[r.Date] = true
			dates = append(dates, r.Date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
