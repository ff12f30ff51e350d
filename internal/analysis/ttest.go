package analysis

import (
	"fmt"
	"math"

	"gotrack/domain/core"
	"gotrack/domain/stats"

	"gonum.org/v1/gonum/stat"
)

// WelchTTest compares two independent samples without assuming equal variances.
// a is the typical sample, b the atypical one.
func WelchTTest(a, b []float64) (*stats.TTestResult, error) {
	if err := needN("group a", a, 2); err != nil {
		return nil, err
	}
	if err := needN("group b", b, 2); err != nil {
		return nil, err
	}

	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	qa, qb := va/na, vb/nb
	se := math.Sqrt(qa + qb)
	if se == 0 {
		return nil, fmt.Errorf("%w: both groups are constant", core.ErrDegenerateGroup)
	}

	t := (ma - mb) / se
	df := (qa + qb) * (qa + qb) / (qa*qa/(na-1) + qb*qb/(nb-1))

	return &stats.TTestResult{
		Kind:    stats.TestWelchT,
		T:       t,
		DF:      df,
		PValue:  TPValue(t, df),
		CohensD: cohensD(ma, mb, va, vb, na, nb),
		MeanA:   ma,
		MeanB:   mb,
		NA:      len(a),
		NB:      len(b),
	}, nil
}

// StudentTTest compares two independent samples with a pooled variance
func StudentTTest(a, b []float64) (*stats.TTestResult, error) {
	if err := needN("group a", a, 2); err != nil {
		return nil, err
	}
	if err := needN("group b", b, 2); err != nil {
		return nil, err
	}

	ma, va := stat.MeanVariance(a, nil)
	mb, vb := stat.MeanVariance(b, nil)
	na, nb := float64(len(a)), float64(len(b))

	df := na + nb - 2
	pooled := ((na-1)*va + (nb-1)*vb) / df
	se := math.Sqrt(pooled * (1/na + 1/nb))
	if se == 0 {
		return nil, fmt.Errorf("%w: both groups are constant", core.ErrDegenerateGroup)
	}

	t := (ma - mb) / se
	return &stats.TTestResult{
		Kind:    stats.TestStudentT,
		T:       t,
		DF:      df,
		PValue:  TPValue(t, df),
		CohensD: cohensD(ma, mb, va, vb, na, nb),
		MeanA:   ma,
		MeanB:   mb,
		NA:      len(a),
		NB:      len(b),
	}, nil
}

// PairedTTest tests the mean of a[i]-b[i] against zero. The effect size is Cohen's dz.
func PairedTTest(a, b []float64) (*stats.TTestResult, error) {
	if len(a) != len(b) {
		return nil, fmt.Errorf("paired samples differ in length: %d vs %d", len(a), len(b))
	}
	if err := needN("pairs", a, 2); err != nil {
		return nil, err
	}

	diffs := make([]float64, len(a))
	for i := range a {
		diffs[i] = a[i] - b[i]
	}
	md, sd := stat.MeanStdDev(diffs, nil)
	if sd == 0 {
		return nil, fmt.Errorf("%w: paired differences are constant", core.ErrDegenerateGroup)
	}

	n := float64(len(diffs))
	t := md / (sd / math.Sqrt(n))
	df := n - 1

	return &stats.TTestResult{
		Kind:    stats.TestPairedT,
		T:       t,
		DF:      df,
		PValue:  TPValue(t, df),
		CohensD: md / sd,
		MeanA:   stat.Mean(a, nil),
		MeanB:   stat.Mean(b, nil),
		NA:      len(a),
		NB:      len(b),
	}, nil
}

func cohensD(ma, mb, va, vb, na, nb float64) float64 {
	pooled := math.Sqrt(((na-1)*va + (nb-1)*vb) / (na + nb - 2))
	if pooled == 0 {
		return 0
	}
	return (ma - mb) / pooled
}

func needN(what string, xs []float64, need int) error {
	if len(xs) < need {
		return core.NewInsufficientDataError(what, len(xs), need)
	}
	return nil
}
