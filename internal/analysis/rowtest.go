package analysis

import (
	"math"

	"gotrack/domain/core"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// RowTTest runs a one-sample t-test against zero on every row of m, treating the columns
// as observations. A row without variance gets t = 0 and p = 1.
func RowTTest(m *mat.Dense) (tStats, pValues []float64, err error) {
	rows, cols := m.Dims()
	if cols < 2 {
		return nil, nil, core.NewInsufficientDataError("row observations", cols, 2)
	}

	n := float64(cols)
	ones := make([]float64, cols)
	for i := range ones {
		ones[i] = 1
	}
	var sums mat.VecDense
	sums.MulVec(m, mat.NewVecDense(cols, ones))

	tStats = make([]float64, rows)
	pValues = make([]float64, rows)
	dev := make([]float64, cols)
	df := n - 1
	for r := 0; r < rows; r++ {
		mean := sums.AtVec(r) / n
		copy(dev, m.RawRowView(r))
		floats.AddConst(-mean, dev)
		variance := floats.Dot(dev, dev) / df

		if variance <= 0 {
			tStats[r], pValues[r] = 0, 1
			continue
		}
		t := mean / math.Sqrt(variance/n)
		tStats[r] = t
		pValues[r] = TPValue(t, df)
	}
	return tStats, pValues, nil
}
