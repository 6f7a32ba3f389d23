package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Summary describes a sample of values. All fields are zero for an empty sample.
type Summary struct {
	Count  int
	Total  float64
	Mean   float64
	Median float64
	Min    float64
	Max    float64
	Std    float64 // 总体标准差
}

func Describe(xs []float64) Summary {
	if len(xs) == 0 {
		return Summary{}
	}
	mean, std := stat.PopMeanStdDev(xs, nil)
	if len(xs) == 1 {
		std = 0
	}
	return Summary{
		Count:  len(xs),
		Total:  floats.Sum(xs),
		Mean:   mean,
		Median: median(xs),
		Min:    floats.Min(xs),
		Max:    floats.Max(xs),
		Std:    std,
	}
}

func median(xs []float64) float64 {
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// Correlation is a Pearson correlation with its two-sided p-value. Defined is
// false when the coefficient cannot be computed (fewer than three samples or
// a constant series); R and P are then zero.
type Correlation struct {
	A, B    string
	R, P    float64
	Defined bool
}

func pearson(a, b string, xs, ys []float64) Correlation {
	c := Correlation{A: a, B: b}
	n := len(xs)
	if n < 3 || n != len(ys) {
		return c
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return c
	}
	c.R, c.Defined = r, true
	if math.Abs(r) >= 1 {
		return c
	}
	df := float64(n - 2)
	t := r * math.Sqrt(df/(1-r*r))
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	c.P = 2 * (1 - dist.CDF(math.Abs(t)))
	return c
}
