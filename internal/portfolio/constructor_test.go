package portfolio

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/quantoracle/internal/contracts"
)

func equalRisks(symbols ...string) map[string]float64 {
	risks := make(map[string]float64, len(symbols))
	for _, s := range symbols {
		risks[s] = 0.2
	}
	return risks
}

func TestBuildLongShort_FourSymbolBook(t *testing.T) {
	preds := map[string]float64{
		"A": 0.05,
		"B": 0.03,
		"C": -0.02,
		"D": -0.04,
	}
	c := contracts.Constraints{LongN: 2, ShortN: 2, Gross: 1.0, Net: 0.0, MaxAbsWeight: 0.4}

	w := BuildLongShort(preds, equalRisks("A", "B", "C", "D"), c)
	require.Len(t, w, 4)

	assert.Greater(t, w["A"], 0.0)
	assert.Greater(t, w["B"], 0.0)
	assert.Less(t, w["C"], 0.0)
	assert.Less(t, w["D"], 0.0)

	// stronger signal gets at least as much weight within its side
	assert.GreaterOrEqual(t, w["A"], w["B"])
	assert.GreaterOrEqual(t, math.Abs(w["D"]), math.Abs(w["C"]))

	assert.InDelta(t, 1.0, w.Gross(), 1e-9)
	assert.InDelta(t, 0.0, w.Net(), 1e-9)
	assert.LessOrEqual(t, w.MaxAbs(), c.MaxAbsWeight+1e-9)
}

func TestBuildLongShort_CapBindsGrossShrinks(t *testing.T) {
	preds := map[string]float64{
		"A": 0.05, "B": 0.03,
		"C": -0.02, "D": -0.04,
	}
	c := contracts.Constraints{LongN: 2, ShortN: 2, Gross: 1.0, Net: 0.0, MaxAbsWeight: 0.2}

	w := BuildLongShort(preds, equalRisks("A", "B", "C", "D"), c)
	require.Len(t, w, 4)

	// 0.5 per side is infeasible under a 0.2 cap with 2 names: every name
	// sits at the cap and gross lands at 0.8, not 1.0
	for symbol, v := range w {
		assert.InDelta(t, 0.2, math.Abs(v), 1e-9, "symbol %s", symbol)
	}
	assert.InDelta(t, 0.8, w.Gross(), 1e-9)
	assert.InDelta(t, 0.0, w.Net(), 1e-9)
}

func TestBuildLongShort_NetTiltSplitsGross(t *testing.T) {
	preds := map[string]float64{"A": 0.05, "B": -0.05}
	c := contracts.Constraints{LongN: 1, ShortN: 1, Gross: 1.0, Net: 0.2, MaxAbsWeight: 0.7}

	w := BuildLongShort(preds, equalRisks("A", "B"), c)
	require.Len(t, w, 2)

	assert.InDelta(t, 0.6, w["A"], 1e-9)
	assert.InDelta(t, -0.4, w["B"], 1e-9)
	assert.InDelta(t, 0.2, w.Net(), 1e-9)
}

func TestBuildLongShort_TinyUniverseLongSideWins(t *testing.T) {
	// two names, both requested on both sides: the long side keeps them
	preds := map[string]float64{"A": 0.02, "B": 0.01}
	c := contracts.Constraints{LongN: 2, ShortN: 2, Gross: 1.0, Net: 0.0, MaxAbsWeight: 0.6}

	w := BuildLongShort(preds, equalRisks("A", "B"), c)
	require.Len(t, w, 2)

	assert.Greater(t, w["A"], 0.0)
	assert.Greater(t, w["B"], 0.0)
	// single-sided book gets the full gross
	assert.InDelta(t, 1.0, w.Gross(), 1e-9)
}

func TestBuildLongShort_ShortOnly(t *testing.T) {
	preds := map[string]float64{"A": 0.02, "B": -0.03}
	c := contracts.Constraints{LongN: 0, ShortN: 1, Gross: 0.5, Net: 0.0, MaxAbsWeight: 1.0}

	w := BuildLongShort(preds, equalRisks("A", "B"), c)
	require.Len(t, w, 1)
	assert.InDelta(t, -0.5, w["B"], 1e-9)
}

func TestBuildLongShort_BadRiskExcluded(t *testing.T) {
	preds := map[string]float64{"A": 0.05, "B": 0.04, "C": 0.03}
	risks := map[string]float64{
		"A": 0.2,
		"B": 0.0,          // non-positive
		"C": math.Inf(1),  // non-finite
	}
	c := contracts.Constraints{LongN: 3, ShortN: 0, Gross: 1.0, MaxAbsWeight: 1.0}

	w := BuildLongShort(preds, risks, c)
	require.Len(t, w, 1)
	assert.Contains(t, w, "A")
}

func TestBuildLongShort_EmptyInputs(t *testing.T) {
	c := contracts.DefaultConstraints()
	assert.Empty(t, BuildLongShort(nil, nil, c))
	assert.Empty(t, BuildLongShort(map[string]float64{"A": 0.1}, map[string]float64{}, c))
}

func TestBuildLongShort_Deterministic(t *testing.T) {
	preds := map[string]float64{"A": 0.01, "B": 0.01, "C": 0.01, "D": -0.01, "E": -0.01}
	risks := equalRisks("A", "B", "C", "D", "E")
	c := contracts.Constraints{LongN: 2, ShortN: 2, Gross: 1.0, Net: 0.0, MaxAbsWeight: 0.5}

	first := BuildLongShort(preds, risks, c)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, BuildLongShort(preds, risks, c), "run %d", i)
	}
}

func TestClipAndRenorm_ProportionalNoCap(t *testing.T) {
	w := contracts.WeightMap{"A": 3, "B": 1}
	out := clipAndRenorm(w, 1.0, 1.0)

	assert.InDelta(t, 0.75, out["A"], 1e-9)
	assert.InDelta(t, 0.25, out["B"], 1e-9)
}

func TestClipAndRenorm_CapRedistributes(t *testing.T) {
	// A wants 0.75 but is capped at 0.5; B absorbs the rest up to gross
	w := contracts.WeightMap{"A": 3, "B": 1}
	out := clipAndRenorm(w, 1.0, 0.5)

	assert.InDelta(t, 0.5, out["A"], 1e-9)
	assert.InDelta(t, 0.5, out["B"], 1e-9)
}

func TestClipAndRenorm_GrossReducedWhenInfeasible(t *testing.T) {
	w := contracts.WeightMap{"A": 1, "B": 1, "C": 1}
	out := clipAndRenorm(w, 1.0, 0.1)

	var gross float64
	for _, v := range out {
		assert.LessOrEqual(t, v, 0.1+1e-12)
		gross += math.Abs(v)
	}
	assert.InDelta(t, 0.3, gross, 1e-9)
}

func TestClipAndRenorm_SignsPreserved(t *testing.T) {
	w := contracts.WeightMap{"A": -2, "B": -2}
	out := clipAndRenorm(w, 0.6, 1.0)

	assert.InDelta(t, -0.3, out["A"], 1e-9)
	assert.InDelta(t, -0.3, out["B"], 1e-9)
}

func TestClipAndRenorm_DegenerateInputs(t *testing.T) {
	assert.Empty(t, clipAndRenorm(nil, 1.0, 0.1))
	assert.Empty(t, clipAndRenorm(contracts.WeightMap{"A": 0}, 1.0, 0.1))
	assert.Empty(t, clipAndRenorm(contracts.WeightMap{"A": math.NaN()}, 1.0, 0.1))
	assert.Empty(t, clipAndRenorm(contracts.WeightMap{"A": 1}, 0, 0.1))
	assert.Empty(t, clipAndRenorm(contracts.WeightMap{"A": 1}, 1.0, 0))
}
