package features

import (
	"math"

	"github.com/wonny/quantoracle/internal/contracts"
)

// Rolling windows of the feature set. SMA50 is the longest, so the first
// 49 rows of any series can never produce a complete feature row.
const (
	retShort  = 1
	retMed    = 5
	retLong   = 20
	volWindow = 20
	smaShort  = 20
	smaLong   = 50
	rsiPeriod = 14
)

// BuildFeatures computes the per-date feature rows for one symbol.
// Rows where any feature is not computable (warm-up) are dropped.
// Empty or too-short input yields an empty slice, never an error:
// insufficient history is an expected state, not a fault.
// 순수 함수 — 입력이 같으면 출력도 항상 같다.
func BuildFeatures(series *contracts.PriceSeries) []contracts.FeatureRow {
	if series == nil || series.Empty() {
		return nil
	}

	closes := series.Closes()
	n := len(closes)

	ret1 := pctChange(closes, retShort)
	ret5 := pctChange(closes, retMed)
	ret20 := pctChange(closes, retLong)
	vol20 := rollingStd(ret1, volWindow)
	sma20 := rollingMean(closes, smaShort)
	sma50 := rollingMean(closes, smaLong)
	rsi14 := wilderRSI(closes, rsiPeriod)

	var rows []contracts.FeatureRow
	for t := 0; t < n; t++ {
		priceSMA20 := ratioMinusOne(closes[t], sma20[t])
		priceSMA50 := ratioMinusOne(closes[t], sma50[t])

		values := []float64{ret1[t], ret5[t], ret20[t], vol20[t], priceSMA20, priceSMA50, rsi14[t]}
		if !allFinite(values) {
			continue
		}

		rows = append(rows, contracts.FeatureRow{
			Date:       series.Bars[t].Date,
			Symbol:     series.Symbol,
			Ret1D:      ret1[t],
			Ret5D:      ret5[t],
			Ret20D:     ret20[t],
			Vol20D:     vol20[t],
			PriceSMA20: priceSMA20,
			PriceSMA50: priceSMA50,
			RSI14:      rsi14[t],
		})
	}
	return rows
}

// BuildTargets computes the forward return over `horizon` periods:
// target[t] = close[t+horizon]/close[t] - 1. The last `horizon` entries
// are nil because the future close is not yet known.
func BuildTargets(closes []float64, horizon int) []*float64 {
	out := make([]*float64, len(closes))
	if horizon <= 0 {
		return out
	}
	for t := 0; t+horizon < len(closes); t++ {
		if closes[t] == 0 {
			continue
		}
		v := closes[t+horizon]/closes[t] - 1.0
		out[t] = &v
	}
	return out
}

// BuildSymbolRows builds the feature rows for one symbol with targets attached.
// 파이프라인에서 피처 + 타깃을 한 번에 조립할 때 사용
func BuildSymbolRows(series *contracts.PriceSeries, horizon int) []contracts.FeatureRow {
	rows := BuildFeatures(series)
	if len(rows) == 0 {
		return rows
	}

	targets := BuildTargets(series.Closes(), horizon)
	byDate := make(map[int64]*float64, len(targets))
	for i, b := range series.Bars {
		byDate[b.Date.Unix()] = targets[i]
	}
	for i := range rows {
		rows[i].Target = byDate[rows[i].Date.Unix()]
	}
	return rows
}

// pctChange returns v[t]/v[t-k] - 1, NaN where undefined
func pctChange(v []float64, k int) []float64 {
	out := nanSlice(len(v))
	for t := k; t < len(v); t++ {
		if v[t-k] == 0 {
			continue
		}
		out[t] = v[t]/v[t-k] - 1.0
	}
	return out
}

// rollingMean returns the trailing `window` mean, NaN during warm-up
func rollingMean(v []float64, window int) []float64 {
	out := nanSlice(len(v))
	var sum float64
	for t := 0; t < len(v); t++ {
		sum += v[t]
		if t >= window {
			sum -= v[t-window]
		}
		if t >= window-1 {
			out[t] = sum / float64(window)
		}
	}
	return out
}

// rollingStd returns the trailing sample standard deviation over `window`
// observations, NaN when the window contains any undefined value.
func rollingStd(v []float64, window int) []float64 {
	out := nanSlice(len(v))
	for t := window - 1; t < len(v); t++ {
		var sum float64
		ok := true
		for i := t - window + 1; i <= t; i++ {
			if math.IsNaN(v[i]) {
				ok = false
				break
			}
			sum += v[i]
		}
		if !ok {
			continue
		}
		mean := sum / float64(window)
		var ss float64
		for i := t - window + 1; i <= t; i++ {
			d := v[i] - mean
			ss += d * d
		}
		// sample stdev (n-1 denominator)
		out[t] = math.Sqrt(ss / float64(window-1))
	}
	return out
}

// wilderRSI computes Wilder's smoothed RSI: exponential moving averages of
// gains and losses with smoothing factor 1/period, then
// RSI = 100 - 100/(1 + avgGain/avgLoss). Defined after `period` observations.
func wilderRSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if len(closes) < 2 {
		return out
	}

	alpha := 1.0 / float64(period)
	var avgGain, avgLoss float64
	for t := 1; t < len(closes); t++ {
		delta := closes[t] - closes[t-1]
		gain, loss := 0.0, 0.0
		if delta > 0 {
			gain = delta
		} else if delta < 0 {
			loss = -delta
		}

		if t == 1 {
			avgGain = gain
			avgLoss = loss
		} else {
			avgGain = (1-alpha)*avgGain + alpha*gain
			avgLoss = (1-alpha)*avgLoss + alpha*loss
		}

		if t < period {
			continue
		}
		if avgLoss == 0 {
			if avgGain == 0 {
				continue // flat series, RSI undefined
			}
			out[t] = 100.0
			continue
		}
		rs := avgGain / avgLoss
		out[t] = 100.0 - 100.0/(1.0+rs)
	}
	return out
}

func ratioMinusOne(v, base float64) float64 {
	if math.IsNaN(base) || base == 0 {
		return math.NaN()
	}
	return v/base - 1.0
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
