package analysis

import (
	"fmt"
	"math"
	"sort"

	"gotrack/domain/core"
	"gotrack/domain/stats"

	"gonum.org/v1/gonum/stat"
)

// Group is one labelled sample entering a one-way ANOVA
type Group struct {
	Label  string
	Values []float64
}

// OneWayANOVA tests whether the group means differ. Empty groups are ignored.
func OneWayANOVA(groups []Group) (*stats.ANOVAResult, error) {
	var used []Group
	total := 0
	for _, g := range groups {
		if len(g.Values) == 0 {
			continue
		}
		used = append(used, g)
		total += len(g.Values)
	}
	if len(used) < 2 {
		return nil, core.NewInsufficientDataError("anova groups", len(used), 2)
	}
	if total <= len(used) {
		return nil, core.NewInsufficientDataError("anova observations", total, len(used)+1)
	}

	grand := 0.0
	for _, g := range used {
		for _, v := range g.Values {
			grand += v
		}
	}
	grand /= float64(total)

	result := &stats.ANOVAResult{Groups: make([]stats.GroupSummary, 0, len(used))}
	ssb, ssw := 0.0, 0.0
	for _, g := range used {
		mean := stat.Mean(g.Values, nil)
		sd := 0.0
		if len(g.Values) > 1 {
			sd = stat.StdDev(g.Values, nil)
		}
		ssb += float64(len(g.Values)) * (mean - grand) * (mean - grand)
		for _, v := range g.Values {
			ssw += (v - mean) * (v - mean)
		}
		result.Groups = append(result.Groups, stats.GroupSummary{Label: g.Label, N: len(g.Values), Mean: mean, SD: sd})
	}
	if ssw == 0 {
		return nil, fmt.Errorf("%w: no within-group variance", core.ErrDegenerateGroup)
	}

	result.DF1 = float64(len(used) - 1)
	result.DF2 = float64(total - len(used))
	result.F = (ssb / result.DF1) / (ssw / result.DF2)
	result.PValue = FPValue(result.F, result.DF1, result.DF2)
	result.EtaSquared = ssb / (ssb + ssw)
	return result, nil
}

// RMData holds per-subject cell means of a two-factor within-subjects design.
// Cells[subject][a][b] is the subject's mean in level a of factor A and level b of factor B;
// NaN or missing entries mark an empty cell.
type RMData struct {
	FactorA string
	FactorB string
	LevelsA int
	LevelsB int
	Cells   map[string][][]float64
}

// Effect names produced by RepeatedMeasuresANOVA
func (d RMData) effectNames() (string, string, string) {
	return d.FactorA, d.FactorB, d.FactorA + ":" + d.FactorB
}

// RepeatedMeasuresANOVA runs a balanced two-way within-subjects ANOVA. Subjects lacking any
// cell are dropped. Each effect is tested against its own subject interaction term.
func RepeatedMeasuresANOVA(d RMData) (*stats.RMANOVAResult, error) {
	a, b := d.LevelsA, d.LevelsB
	if a < 2 || b < 2 {
		return nil, fmt.Errorf("%w: need at least two levels per factor, got %dx%d", core.ErrInsufficientData, a, b)
	}

	subjects := make([]string, 0, len(d.Cells))
	for s := range d.Cells {
		subjects = append(subjects, s)
	}
	sort.Strings(subjects)

	var y [][][]float64
	dropped := 0
	for _, s := range subjects {
		if cells, ok := completeCells(d.Cells[s], a, b); ok {
			y = append(y, cells)
		} else {
			dropped++
		}
	}
	n := len(y)
	if n < 2 {
		return nil, core.NewInsufficientDataError("complete subjects", n, 2)
	}

	// marginal means
	gm := 0.0
	mS := make([]float64, n)
	mA := make([]float64, a)
	mB := make([]float64, b)
	mAB := make([][]float64, a)
	mSA := make([][]float64, n)
	mSB := make([][]float64, n)
	for i := 0; i < a; i++ {
		mAB[i] = make([]float64, b)
	}
	for s := 0; s < n; s++ {
		mSA[s] = make([]float64, a)
		mSB[s] = make([]float64, b)
		for i := 0; i < a; i++ {
			for j := 0; j < b; j++ {
				v := y[s][i][j]
				gm += v
				mS[s] += v
				mA[i] += v
				mB[j] += v
				mAB[i][j] += v
				mSA[s][i] += v
				mSB[s][j] += v
			}
		}
	}
	nf, af, bf := float64(n), float64(a), float64(b)
	gm /= nf * af * bf
	for s := 0; s < n; s++ {
		mS[s] /= af * bf
		for i := 0; i < a; i++ {
			mSA[s][i] /= bf
		}
		for j := 0; j < b; j++ {
			mSB[s][j] /= af
		}
	}
	for i := 0; i < a; i++ {
		mA[i] /= nf * bf
		for j := 0; j < b; j++ {
			mAB[i][j] /= nf
		}
	}
	for j := 0; j < b; j++ {
		mB[j] /= nf * af
	}

	var ssT, ssS, ssA, ssB, ssAB, ssAS, ssBS float64
	for s := 0; s < n; s++ {
		ssS += sq(mS[s] - gm)
		for i := 0; i < a; i++ {
			ssAS += sq(mSA[s][i] - mS[s] - mA[i] + gm)
			for j := 0; j < b; j++ {
				ssT += sq(y[s][i][j] - gm)
			}
		}
		for j := 0; j < b; j++ {
			ssBS += sq(mSB[s][j] - mS[s] - mB[j] + gm)
		}
	}
	ssS *= af * bf
	ssAS *= bf
	ssBS *= af
	for i := 0; i < a; i++ {
		ssA += sq(mA[i] - gm)
		for j := 0; j < b; j++ {
			ssAB += sq(mAB[i][j] - mA[i] - mB[j] + gm)
		}
	}
	ssA *= nf * bf
	ssAB *= nf
	for j := 0; j < b; j++ {
		ssB += sq(mB[j] - gm)
	}
	ssB *= nf * af
	ssABS := ssT - ssS - ssA - ssB - ssAB - ssAS - ssBS
	if ssABS < 0 {
		ssABS = 0
	}

	nameA, nameB, nameAB := d.effectNames()
	dfA, dfB := af-1, bf-1
	terms := []struct {
		name      string
		ss, ssErr float64
		df, dfErr float64
	}{
		{nameA, ssA, ssAS, dfA, dfA * (nf - 1)},
		{nameB, ssB, ssBS, dfB, dfB * (nf - 1)},
		{nameAB, ssAB, ssABS, dfA * dfB, dfA * dfB * (nf - 1)},
	}

	result := &stats.RMANOVAResult{
		FactorA:   d.FactorA,
		FactorB:   d.FactorB,
		Subjects:  n,
		Dropped:   dropped,
		CellMeans: mAB,
	}
	for _, term := range terms {
		if term.ssErr <= 1e-12*math.Max(ssT, 1) {
			return nil, fmt.Errorf("%w: no subject variance in the %s error term", core.ErrDegenerateGroup, term.name)
		}
		f := (term.ss / term.df) / (term.ssErr / term.dfErr)
		result.Effects = append(result.Effects, stats.RMEffect{
			Name:        term.name,
			F:           f,
			DF1:         term.df,
			DF2:         term.dfErr,
			PValue:      FPValue(f, term.df, term.dfErr),
			PartialEta2: term.ss / (term.ss + term.ssErr),
		})
	}
	return result, nil
}

func completeCells(cells [][]float64, a, b int) ([][]float64, bool) {
	if len(cells) < a {
		return nil, false
	}
	for i := 0; i < a; i++ {
		if len(cells[i]) < b {
			return nil, false
		}
		for j := 0; j < b; j++ {
			if math.IsNaN(cells[i][j]) {
				return nil, false
			}
		}
	}
	return cells, true
}

func sq(x float64) float64 { return x * x }
