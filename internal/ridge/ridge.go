// Package ridge implements closed-form ridge regression with z-score
// normalization. Stateless numerical code: no I/O, no logging.
// NaN/Inf 입력 처리는 호출자 책임 (피처 테이블에서 null 제거 후 호출).
package ridge

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ZScoreFit computes per-column mean and standard deviation of the training
// matrix. Columns with zero variance get sigma forced to 1.0 so that
// downstream division is always safe.
func ZScoreFit(X [][]float64) (mu, sig []float64) {
	if len(X) == 0 {
		return nil, nil
	}

	cols := len(X[0])
	mu = make([]float64, cols)
	sig = make([]float64, cols)

	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		m, s := stat.MeanStdDev(col, nil)
		mu[j] = m
		// population stdev to match the fit-time convention; the exact
		// denominator does not matter as long as apply uses the same sig
		sig[j] = s
		if sig[j] == 0 {
			sig[j] = 1.0
		}
	}
	return mu, sig
}

// ZScoreApply rescales X elementwise: (X - mu) / sig
func ZScoreApply(X [][]float64, mu, sig []float64) [][]float64 {
	out := make([][]float64, len(X))
	for i, row := range X {
		z := make([]float64, len(row))
		for j, v := range row {
			z[j] = (v - mu[j]) / sig[j]
		}
		out[i] = z
	}
	return out
}

// FitRidge solves the closed-form ridge regression
//
//	w = (XᵀX + alpha·I)⁻¹ Xᵀy
//
// alpha > 0 makes the normal-equations matrix positive definite even when X
// is rank deficient, so the Cholesky solve cannot fail for valid input.
func FitRidge(X [][]float64, y []float64, alpha float64) ([]float64, error) {
	rows := len(X)
	if rows == 0 {
		return nil, fmt.Errorf("ridge: empty design matrix")
	}
	if rows != len(y) {
		return nil, fmt.Errorf("ridge: X rows (%d) != y length (%d)", rows, len(y))
	}
	if alpha <= 0 {
		return nil, fmt.Errorf("ridge: alpha must be positive, got %g", alpha)
	}

	cols := len(X[0])
	xm := mat.NewDense(rows, cols, nil)
	for i, row := range X {
		if len(row) != cols {
			return nil, fmt.Errorf("ridge: ragged design matrix at row %d", i)
		}
		xm.SetRow(i, row)
	}
	yv := mat.NewVecDense(rows, y)

	// A = XᵀX + alpha·I
	var xtx mat.SymDense
	xtx.SymOuterK(1, xm.T())
	for j := 0; j < cols; j++ {
		xtx.SetSym(j, j, xtx.At(j, j)+alpha)
	}

	// b = Xᵀy
	b := mat.NewVecDense(cols, nil)
	b.MulVec(xm.T(), yv)

	var chol mat.Cholesky
	if ok := chol.Factorize(&xtx); !ok {
		return nil, fmt.Errorf("ridge: normal equations not positive definite")
	}

	w := mat.NewVecDense(cols, nil)
	if err := chol.SolveVecTo(w, b); err != nil {
		return nil, fmt.Errorf("ridge: solve failed: %w", err)
	}

	out := make([]float64, cols)
	copy(out, w.RawVector().Data)
	return out, nil
}

// Predict computes yhat = X · w
func Predict(X [][]float64, w []float64) []float64 {
	out := make([]float64, len(X))
	for i, row := range X {
		var s float64
		for j, v := range row {
			s += v * w[j]
		}
		out[i] = s
	}
	return out
}
