// Package portfolio converts per-symbol predicted-return/risk pairs into
// long/short weights under gross, net, and per-name cap constraints.
//
// Infeasible requests never fail: the book degrades to reduced gross,
// dropped net, or a single-sided allocation.
package portfolio

import (
	"math"
	"sort"

	"github.com/wonny/quantoracle/internal/contracts"
)

// scoreEps guards the risk-adjusted score against exact-zero risk
const scoreEps = 1e-12

// BuildLongShort builds a signed weight map from predicted returns and risk
// proxies. Symbols missing a finite positive risk are silently excluded:
// they are unscoreable, not erroneous.
// ⭐ SSOT: 롱/숏 비중 산출 로직은 여기서만
func BuildLongShort(preds, risks map[string]float64, c contracts.Constraints) contracts.WeightMap {
	type scored struct {
		symbol string
		score  float64
	}

	// 1. eligible universe: present in both maps, finite positive risk
	var universe []scored
	for symbol, mu := range preds {
		risk, ok := risks[symbol]
		if !ok || risk <= 0 || math.IsInf(risk, 0) || math.IsNaN(risk) || math.IsNaN(mu) {
			continue
		}
		// 2. risk-adjusted score; higher is better. One fixed rule, no modes.
		universe = append(universe, scored{symbol, mu / (risk*risk + scoreEps)})
	}
	if len(universe) == 0 {
		return contracts.WeightMap{}
	}

	// 3. rank; symbol tiebreak keeps output deterministic
	sort.Slice(universe, func(i, j int) bool {
		if universe[i].score != universe[j].score {
			return universe[i].score > universe[j].score
		}
		return universe[i].symbol < universe[j].symbol
	})

	longN := max(0, c.LongN)
	shortN := max(0, c.ShortN)

	var longs []scored
	if longN > 0 {
		longs = universe[:min(longN, len(universe))]
	}
	longKeys := make(map[string]bool, len(longs))
	for _, s := range longs {
		longKeys[s.symbol] = true
	}

	var shorts []scored
	if shortN > 0 {
		tail := universe[max(0, len(universe)-shortN):]
		for _, s := range tail {
			// tiny universe: long side wins the overlap
			if !longKeys[s.symbol] {
				shorts = append(shorts, s)
			}
		}
	}

	// 4. per-side gross budgets from the gross/net targets
	var longGross, shortGross float64
	if len(longs) > 0 && len(shorts) > 0 {
		longGross = 0.5 * (c.Gross + c.Net)
		shortGross = 0.5 * (c.Gross - c.Net)
		if longGross < 0 || shortGross < 0 {
			// infeasible net for this gross: keep the dominant side only
			if c.Net >= 0 {
				longGross, shortGross = c.Gross, 0
			} else {
				longGross, shortGross = 0, c.Gross
			}
		}
	} else if len(longs) > 0 {
		longGross = c.Gross
	} else if len(shorts) > 0 {
		shortGross = c.Gross
	}

	allocSide := func(picks []scored, sideGross, sign float64, invert bool) contracts.WeightMap {
		if len(picks) == 0 || sideGross <= 0 {
			return contracts.WeightMap{}
		}

		// 5. spread scores into non-negative proportional weights; the
		// epsilon keeps a zero-spread cohort on a valid uniform split
		lo, hi := picks[0].score, picks[0].score
		for _, p := range picks {
			lo = math.Min(lo, p.score)
			hi = math.Max(hi, p.score)
		}

		w0 := make(contracts.WeightMap, len(picks))
		for _, p := range picks {
			var v float64
			if invert {
				v = hi - p.score // most negative score -> largest short
			} else {
				v = p.score - lo
			}
			w0[p.symbol] = sign * (math.Max(v, 0) + scoreEps)
		}
		return clipAndRenorm(w0, sideGross, c.MaxAbsWeight)
	}

	// 7. merge with sign; summation (not overwrite) on any residual collision
	weights := contracts.WeightMap{}
	for symbol, w := range allocSide(longs, longGross, +1, false) {
		weights[symbol] += w
	}
	for symbol, w := range allocSide(shorts, shortGross, -1, true) {
		weights[symbol] += w
	}

	for symbol, w := range weights {
		if w == 0 {
			delete(weights, symbol)
		}
	}
	return weights
}

// clipAndRenorm allocates absolute exposure proportionally to the
// unconstrained weights while enforcing the per-name cap: names whose
// proportional share exceeds the cap are frozen at the cap and the remaining
// budget is redistributed among the still-free names. Each pass freezes at
// least one more name, so at most len(w) iterations run. When the requested
// gross exceeds cap*count the gross is reduced to the feasible maximum;
// the cap is never exceeded to fill gross.
func clipAndRenorm(w contracts.WeightMap, gross, maxAbs float64) contracts.WeightMap {
	if len(w) == 0 || gross <= 0 || maxAbs <= 0 {
		return contracts.WeightMap{}
	}

	type entry struct {
		symbol string
		sign   float64
		abs    float64
	}

	var items []entry
	var total float64
	for symbol, v := range w {
		if v == 0 || math.IsInf(v, 0) || math.IsNaN(v) {
			continue
		}
		items = append(items, entry{symbol, math.Copysign(1, v), math.Abs(v)})
		total += math.Abs(v)
	}
	if len(items) == 0 || total <= 0 {
		return contracts.WeightMap{}
	}
	sort.Slice(items, func(i, j int) bool { return items[i].symbol < items[j].symbol })

	targetGross := math.Min(gross, maxAbs*float64(len(items)))

	prop := make([]float64, len(items))
	for i, it := range items {
		prop[i] = it.abs / total
	}

	alloc := make([]float64, len(items))
	free := make([]bool, len(items))
	for i := range free {
		free[i] = true
	}

	const tol = 1e-12
	for iter := 0; iter < len(items); iter++ {
		var frozenSum, propSum float64
		freeCount := 0
		for i := range items {
			if free[i] {
				propSum += prop[i]
				freeCount++
			} else {
				frozenSum += alloc[i]
			}
		}
		if freeCount == 0 {
			break
		}

		remaining := targetGross - frozenSum
		if remaining <= tol {
			break
		}

		if propSum <= tol {
			// degenerate proportions: uniform split of what is left
			share := math.Min(maxAbs, remaining/float64(freeCount))
			for i := range items {
				if free[i] {
					alloc[i] = share
				}
			}
			break
		}

		overflowed := false
		for i := range items {
			if !free[i] {
				continue
			}
			cand := remaining * prop[i] / propSum
			if cand > maxAbs+tol {
				alloc[i] = maxAbs
				free[i] = false
				overflowed = true
			} else {
				alloc[i] = cand
			}
		}
		if !overflowed {
			break
		}
	}

	out := contracts.WeightMap{}
	for i, it := range items {
		if alloc[i] > 0 {
			out[it.symbol] = it.sign * alloc[i]
		}
	}
	return out
}
