package contracts

import "math"

// Constraints is the portfolio construction request, supplied per call
// ⭐ SSOT: 포트폴리오 제약조건은 여기서만
type Constraints struct {
	LongN        int     `json:"long_n"`
	ShortN       int     `json:"short_n"`
	Gross        float64 `json:"gross"`          // sum(abs(w))
	Net          float64 `json:"net"`            // sum(w)
	MaxAbsWeight float64 `json:"max_abs_weight"` // per-name cap
}

// DefaultConstraints returns the default long/short book configuration
func DefaultConstraints() Constraints {
	return Constraints{
		LongN:        10,
		ShortN:       10,
		Gross:        1.0,
		Net:          0.0,
		MaxAbsWeight: 0.10,
	}
}

// WeightMap maps symbol to signed portfolio weight
type WeightMap map[string]float64

// Gross returns sum(|w|)
func (w WeightMap) Gross() float64 {
	var g float64
	for _, v := range w {
		g += math.Abs(v)
	}
	return g
}

// Net returns sum(w)
func (w WeightMap) Net() float64 {
	var n float64
	for _, v := range w {
		n += v
	}
	return n
}

// MaxAbs returns max(|w|), 0 when empty
func (w WeightMap) MaxAbs() float64 {
	var m float64
	for _, v := range w {
		if a := math.Abs(v); a > m {
			m = a
		}
	}
	return m
}
