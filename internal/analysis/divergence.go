package analysis

import (
	"fmt"
	"sort"

	"gotrack/domain/core"
	"gotrack/domain/stats"

	"gonum.org/v1/gonum/mat"
)

// LongestRun returns the length and start index of the longest stretch of true values.
// The earliest run wins ties; start is -1 when there is none.
func LongestRun(flags []bool) (length, start int) {
	start = -1
	cur, curStart := 0, 0
	for i, f := range flags {
		if !f {
			cur = 0
			continue
		}
		if cur == 0 {
			curStart = i
		}
		cur++
		if cur > length {
			length, start = cur, curStart
		}
	}
	return length, start
}

// Below flags p-values under alpha
func Below(pValues []float64, alpha float64) []bool {
	out := make([]bool, len(pValues))
	for i, p := range pValues {
		out[i] = p < alpha
	}
	return out
}

// DifferenceCurves builds a steps x subjects matrix of atypical minus typical curves,
// one column per subject present in both conditions, in subject order.
func DifferenceCurves(typical, atypical map[core.SubmissionID][]float64) (*mat.Dense, []core.SubmissionID, error) {
	var subjects []core.SubmissionID
	for sub := range typical {
		if _, ok := atypical[sub]; ok {
			subjects = append(subjects, sub)
		}
	}
	if len(subjects) == 0 {
		return nil, nil, core.NewInsufficientDataError("subjects with both conditions", 0, 2)
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })

	steps := len(typical[subjects[0]])
	if steps == 0 {
		return nil, nil, fmt.Errorf("%w: empty curve for subject %s", core.ErrInsufficientData, subjects[0])
	}
	diff := mat.NewDense(steps, len(subjects), nil)
	for c, sub := range subjects {
		typ, atyp := typical[sub], atypical[sub]
		if len(typ) != steps || len(atyp) != steps {
			return nil, nil, fmt.Errorf("subject %s: curve lengths %d/%d, want %d", sub, len(typ), len(atyp), steps)
		}
		for r := 0; r < steps; r++ {
			diff.Set(r, c, atyp[r]-typ[r])
		}
	}
	return diff, subjects, nil
}

// Divergence runs a paired test at every step of the difference curves and locates the
// longest run of steps where the conditions differ at alpha.
func Divergence(diff *mat.Dense, alpha float64) (*stats.DivergenceResult, error) {
	tStats, pValues, err := RowTTest(diff)
	if err != nil {
		return nil, err
	}
	steps, subjects := diff.Dims()
	sig := Below(pValues, alpha)
	length, start := LongestRun(sig)

	result := &stats.DivergenceResult{
		Steps:       steps,
		Subjects:    subjects,
		Alpha:       alpha,
		TStats:      tStats,
		PValues:     pValues,
		Significant: sig,
		LongestRun:  length,
	}
	if start >= 0 {
		result.RunStart = start + 1
	}
	for i, s := range sig {
		if s {
			result.FirstSignificant = i + 1
			break
		}
	}
	return result, nil
}
