package analysis

import (
	"fmt"
	"log"
	"math"
	"sort"

	"gotrack/domain/core"
	"gotrack/domain/stats"
	"gotrack/domain/trial"

	"gonum.org/v1/gonum/mat"
	gstat "gonum.org/v1/gonum/stat"
)

// Dataset is the cleaned, normalized input of the test battery
type Dataset struct {
	Trials  []*trial.Trial
	Metrics []trial.Metrics
	Time    map[core.TrialID][]trial.TimePoint
	Space   map[core.TrialID][]trial.SpacePoint
}

// BatteryResult collects every test of one run
type BatteryResult struct {
	Metrics    []stats.MetricTests
	SpaceANOVA *stats.RMANOVAResult
	Divergence *stats.DivergenceResult

	// DiffCurves is the steps x subjects matrix the divergence analysis ran on
	DiffCurves *mat.Dense
	Subjects   []core.SubmissionID
	Warnings   []string
}

// Battery runs the full set of hypothesis tests comparing typical and atypical trials
type Battery struct {
	Alpha float64
	// Metrics to test; defaults to trial.AllMetrics
	Metrics []trial.MetricName
	// DistributionMetrics additionally get KS and bimodality tests
	DistributionMetrics []trial.MetricName
}

// NewBattery creates a battery testing all metrics at alpha
func NewBattery(alpha float64) *Battery {
	return &Battery{
		Alpha:               alpha,
		Metrics:             trial.AllMetrics,
		DistributionMetrics: []trial.MetricName{trial.MetricAUC, trial.MetricMaxDeviation},
	}
}

// Run executes every test. Tests that cannot run on the data are recorded as warnings
// rather than failing the battery.
func (b *Battery) Run(ds *Dataset) *BatteryResult {
	res := &BatteryResult{}

	distribution := make(map[trial.MetricName]bool, len(b.DistributionMetrics))
	for _, m := range b.DistributionMetrics {
		distribution[m] = true
	}

	for _, name := range b.Metrics {
		mt := b.testMetric(ds.Metrics, name, distribution[name])
		for _, s := range mt.Skipped {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", name, s))
		}
		res.Metrics = append(res.Metrics, mt)
	}

	index := indexTrials(ds.Trials)

	rm, err := RepeatedMeasuresANOVA(spaceCells(index, ds.Space))
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("space anova: %v", err))
	} else {
		res.SpaceANOVA = rm
	}

	typ, atyp := subjectCurves(index, ds.Time)
	diff, subjects, err := DifferenceCurves(typ, atyp)
	if err == nil {
		res.DiffCurves, res.Subjects = diff, subjects
		res.Divergence, err = Divergence(diff, b.Alpha)
	}
	if err != nil {
		res.Warnings = append(res.Warnings, fmt.Sprintf("divergence: %v", err))
	}

	log.Printf("[Battery] %d metrics tested, %d warnings", len(res.Metrics), len(res.Warnings))
	return res
}

func (b *Battery) testMetric(metrics []trial.Metrics, name trial.MetricName, distribution bool) stats.MetricTests {
	mt := stats.MetricTests{Metric: name}
	skip := func(test string, err error) {
		mt.Skipped = append(mt.Skipped, fmt.Sprintf("%s skipped: %v", test, err))
	}

	var typ, atyp []float64
	subjectTyp := make(map[core.SubmissionID][]float64)
	subjectAtyp := make(map[core.SubmissionID][]float64)
	perSubject := make(map[core.SubmissionID][]float64)
	cells := make(map[string][]float64)
	for _, m := range metrics {
		v, ok := m.Value(name)
		if !ok || math.IsNaN(v) {
			continue
		}
		switch m.Type {
		case trial.TypeTypical:
			typ = append(typ, v)
			subjectTyp[m.SubmissionID] = append(subjectTyp[m.SubmissionID], v)
		case trial.TypeAtypical:
			atyp = append(atyp, v)
			subjectAtyp[m.SubmissionID] = append(subjectAtyp[m.SubmissionID], v)
		default:
			continue
		}
		perSubject[m.SubmissionID] = append(perSubject[m.SubmissionID], v)
		label := string(m.Type) + "/" + m.Handedness.Label()
		cells[label] = append(cells[label], v)
	}

	if r, err := WelchTTest(typ, atyp); err != nil {
		skip("welch", err)
	} else {
		mt.Welch = r
	}

	meanTyp, meanAtyp := pairedMeans(subjectTyp, subjectAtyp)
	if r, err := PairedTTest(meanTyp, meanAtyp); err != nil {
		skip("paired", err)
	} else {
		mt.Paired = r
	}

	if r, err := OneWayANOVA(sortedGroups(cells)); err != nil {
		skip("anova", err)
	} else {
		mt.ANOVA = r
	}

	if !distribution {
		return mt
	}

	if r, err := KolmogorovSmirnov(typ, atyp); err != nil {
		skip("ks", err)
	} else {
		mt.KS = r
	}

	// bimodality is judged on z-scores within each subject so that individual offsets
	// do not masquerade as a second mode
	zTyp, zAtyp := splitZ(metrics, name, WithinSubjectZ(perSubject))
	for _, g := range []Group{{Label: string(trial.TypeTypical), Values: zTyp}, {Label: string(trial.TypeAtypical), Values: zAtyp}} {
		if r, err := BimodalityCoefficient(g.Label, g.Values); err != nil {
			skip("bimodality "+g.Label, err)
		} else {
			mt.Bimodality = append(mt.Bimodality, *r)
		}
	}
	return mt
}

// splitZ redistributes per-subject z-scores back to conditions, relying on perSubject
// having been filled in metrics order
func splitZ(metrics []trial.Metrics, name trial.MetricName, z map[core.SubmissionID][]float64) (typ, atyp []float64) {
	pos := make(map[core.SubmissionID]int, len(z))
	for _, m := range metrics {
		v, ok := m.Value(name)
		if !ok || math.IsNaN(v) || !m.Type.IsExperimental() {
			continue
		}
		zs, ok := z[m.SubmissionID]
		if !ok {
			continue
		}
		i := pos[m.SubmissionID]
		pos[m.SubmissionID] = i + 1
		if m.Type == trial.TypeTypical {
			typ = append(typ, zs[i])
		} else {
			atyp = append(atyp, zs[i])
		}
	}
	return typ, atyp
}

func pairedMeans(a, b map[core.SubmissionID][]float64) (ma, mb []float64) {
	subjects := make([]core.SubmissionID, 0, len(a))
	for sub := range a {
		if _, ok := b[sub]; ok {
			subjects = append(subjects, sub)
		}
	}
	sort.Slice(subjects, func(i, j int) bool { return subjects[i] < subjects[j] })
	for _, sub := range subjects {
		ma = append(ma, gstat.Mean(a[sub], nil))
		mb = append(mb, gstat.Mean(b[sub], nil))
	}
	return ma, mb
}

func sortedGroups(cells map[string][]float64) []Group {
	labels := make([]string, 0, len(cells))
	for l := range cells {
		labels = append(labels, l)
	}
	sort.Strings(labels)
	groups := make([]Group, 0, len(labels))
	for _, l := range labels {
		groups = append(groups, Group{Label: l, Values: cells[l]})
	}
	return groups
}

func indexTrials(trials []*trial.Trial) map[core.TrialID]*trial.Trial {
	index := make(map[core.TrialID]*trial.Trial, len(trials))
	for _, t := range trials {
		index[t.ID] = t
	}
	return index
}

func conditionLevel(t trial.Type) (int, bool) {
	switch t {
	case trial.TypeTypical:
		return 0, true
	case trial.TypeAtypical:
		return 1, true
	}
	return 0, false
}

// spaceCells averages space-normalized x per subject, condition and bin
func spaceCells(index map[core.TrialID]*trial.Trial, space map[core.TrialID][]trial.SpacePoint) RMData {
	bins := 0
	for _, pts := range space {
		if len(pts) > bins {
			bins = len(pts)
		}
	}

	type acc struct{ sum, n [][]float64 }
	subjects := make(map[string]*acc)
	for id, pts := range space {
		t, ok := index[id]
		if !ok {
			continue
		}
		level, ok := conditionLevel(t.Type())
		if !ok {
			continue
		}
		sub := string(t.Submission())
		a, ok := subjects[sub]
		if !ok {
			a = &acc{sum: grid(2, bins, 0), n: grid(2, bins, 0)}
			subjects[sub] = a
		}
		for _, p := range pts {
			if p.Step < 1 || p.Step > bins {
				continue
			}
			a.sum[level][p.Step-1] += p.X
			a.n[level][p.Step-1]++
		}
	}

	data := RMData{FactorA: "condition", FactorB: "bin", LevelsA: 2, LevelsB: bins, Cells: make(map[string][][]float64, len(subjects))}
	for sub, a := range subjects {
		cells := grid(2, bins, math.NaN())
		for i := range cells {
			for j := range cells[i] {
				if a.n[i][j] > 0 {
					cells[i][j] = a.sum[i][j] / a.n[i][j]
				}
			}
		}
		data.Cells[sub] = cells
	}
	return data
}

// subjectCurves averages time-normalized x per subject and condition
func subjectCurves(index map[core.TrialID]*trial.Trial, tn map[core.TrialID][]trial.TimePoint) (typ, atyp map[core.SubmissionID][]float64) {
	type acc struct {
		sum []float64
		n   int
	}
	sums := [2]map[core.SubmissionID]*acc{{}, {}}
	for id, pts := range tn {
		t, ok := index[id]
		if !ok {
			continue
		}
		level, ok := conditionLevel(t.Type())
		if !ok {
			continue
		}
		a, ok := sums[level][t.Submission()]
		if !ok {
			a = &acc{sum: make([]float64, len(pts))}
			sums[level][t.Submission()] = a
		}
		if len(pts) != len(a.sum) {
			continue
		}
		for i, p := range pts {
			a.sum[i] += p.X
		}
		a.n++
	}

	mean := func(m map[core.SubmissionID]*acc) map[core.SubmissionID][]float64 {
		out := make(map[core.SubmissionID][]float64, len(m))
		for sub, a := range m {
			curve := make([]float64, len(a.sum))
			for i, s := range a.sum {
				curve[i] = s / float64(a.n)
			}
			out[sub] = curve
		}
		return out
	}
	return mean(sums[0]), mean(sums[1])
}

func grid(rows, cols int, fill float64) [][]float64 {
	g := make([][]float64, rows)
	for i := range g {
		g[i] = make([]float64, cols)
		for j := range g[i] {
			g[i][j] = fill
		}
	}
	return g
}
