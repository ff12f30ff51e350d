package analysis

import (
	"sort"

	"gotrack/domain/stats"

	gstat "gonum.org/v1/gonum/stat"
)

// KolmogorovSmirnov compares the empirical distributions of two samples.
// D is the maximum distance between the empirical CDFs; the p-value is asymptotic.
func KolmogorovSmirnov(a, b []float64) (*stats.KSResult, error) {
	if err := needN("group a", a, 1); err != nil {
		return nil, err
	}
	if err := needN("group b", b, 1); err != nil {
		return nil, err
	}

	x := sortedCopy(a)
	y := sortedCopy(b)
	d := gstat.KolmogorovSmirnov(x, nil, y, nil)

	return &stats.KSResult{
		D:      d,
		PValue: KSPValue(d, len(x), len(y)),
		NA:     len(x),
		NB:     len(y),
	}, nil
}

func sortedCopy(xs []float64) []float64 {
	out := make([]float64, len(xs))
	copy(out, xs)
	sort.Float64s(out)
	return out
}
