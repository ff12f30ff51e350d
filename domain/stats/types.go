package stats

import (
	"time"

	"gotrack/domain/core"
	"gotrack/domain/trial"
)

// TestKind names a hypothesis test
type TestKind string

const (
	TestWelchT      TestKind = "welch_t"
	TestStudentT    TestKind = "student_t"
	TestPairedT     TestKind = "paired_t"
	TestOneWayANOVA TestKind = "anova_oneway"
	TestRMANOVA     TestKind = "anova_rm"
	TestKS          TestKind = "ks_two_sample"
	TestBimodality  TestKind = "bimodality"
)

// ============================================================================
// TEST RESULTS
// ============================================================================

// TTestResult is the outcome of a two-sample or paired t-test.
// A is the typical condition, B the atypical one, so a positive T means typical > atypical.
type TTestResult struct {
	Kind    TestKind `json:"kind"`
	T       float64  `json:"t"`
	DF      float64  `json:"df"`
	PValue  float64  `json:"p_value"`
	CohensD float64  `json:"cohens_d"`
	MeanA   float64  `json:"mean_a"`
	MeanB   float64  `json:"mean_b"`
	NA      int      `json:"n_a"`
	NB      int      `json:"n_b"`
}

// GroupSummary describes one group entering an ANOVA
type GroupSummary struct {
	Label string  `json:"label"`
	N     int     `json:"n"`
	Mean  float64 `json:"mean"`
	SD    float64 `json:"sd"`
}

// ANOVAResult is the outcome of a one-way between-subjects ANOVA
type ANOVAResult struct {
	F          float64        `json:"f"`
	DF1        float64        `json:"df1"`
	DF2        float64        `json:"df2"`
	PValue     float64        `json:"p_value"`
	EtaSquared float64        `json:"eta_squared"`
	Groups     []GroupSummary `json:"groups"`
}

// RMEffect is one effect of a repeated-measures ANOVA
type RMEffect struct {
	Name        string  `json:"name"`
	F           float64 `json:"f"`
	DF1         float64 `json:"df1"`
	DF2         float64 `json:"df2"`
	PValue      float64 `json:"p_value"`
	PartialEta2 float64 `json:"partial_eta2"`
}

// RMANOVAResult is a two-factor fully within-subjects ANOVA
type RMANOVAResult struct {
	FactorA   string      `json:"factor_a"`
	FactorB   string      `json:"factor_b"`
	Subjects  int         `json:"subjects"`
	Dropped   int         `json:"dropped"`
	Effects   []RMEffect  `json:"effects"`
	CellMeans [][]float64 `json:"cell_means"`
}

// Effect returns the named effect
func (r *RMANOVAResult) Effect(name string) (RMEffect, bool) {
	for _, e := range r.Effects {
		if e.Name == name {
			return e, true
		}
	}
	return RMEffect{}, false
}

// KSResult is a two-sample Kolmogorov-Smirnov test
type KSResult struct {
	D      float64 `json:"d"`
	PValue float64 `json:"p_value"`
	NA     int     `json:"n_a"`
	NB     int     `json:"n_b"`
}

// BimodalityResult carries the bimodality coefficient of one sample
type BimodalityResult struct {
	Label       string  `json:"label"`
	N           int     `json:"n"`
	Skewness    float64 `json:"skewness"`
	ExKurtosis  float64 `json:"ex_kurtosis"`
	Coefficient float64 `json:"coefficient"`
	Bimodal     bool    `json:"bimodal"`
}

// BimodalityThreshold is the coefficient above which a distribution is considered bimodal.
// It is the exact 5/9 (0.5556) behind the usual "BC > 0.555" rule, the coefficient of a
// uniform distribution.
const BimodalityThreshold = 5.0 / 9.0

// ============================================================================
// DIVERGENCE & BOOTSTRAP
// ============================================================================

// DivergenceResult describes where time-normalized curves of the two conditions differ
type DivergenceResult struct {
	Steps            int       `json:"steps"`
	Subjects         int       `json:"subjects"`
	Alpha            float64   `json:"alpha"`
	TStats           []float64 `json:"t_stats"`
	PValues          []float64 `json:"p_values"`
	Significant      []bool    `json:"significant"`
	LongestRun       int       `json:"longest_run"`
	RunStart         int       `json:"run_start"`         // 1-based step, 0 when no run
	FirstSignificant int       `json:"first_significant"` // 1-based step, 0 when none
}

// BootstrapResult is the null distribution of longest divergence runs
type BootstrapResult struct {
	Draws       int     `json:"draws"`
	Subjects    int     `json:"subjects"`
	Steps       int     `json:"steps"`
	Alpha       float64 `json:"alpha"`
	Phi         float64 `json:"phi"`
	Seed        int64   `json:"seed"`
	NullRuns    []int   `json:"null_runs"`
	NullMean    float64 `json:"null_mean"`
	NullMedian  float64 `json:"null_median"`
	CriticalRun int     `json:"critical_run"`
	ObservedRun int     `json:"observed_run"`
	PValue      float64 `json:"p_value"`
}

// Significant reports whether the observed run is longer than chance allows
func (b *BootstrapResult) Significant() bool {
	return b.ObservedRun > 0 && b.ObservedRun >= b.CriticalRun && b.PValue < b.Alpha
}

// ============================================================================
// REPORT
// ============================================================================

// MetricTests bundles every test run on one kinematic metric
type MetricTests struct {
	Metric     trial.MetricName   `json:"metric"`
	Welch      *TTestResult       `json:"welch,omitempty"`
	Paired     *TTestResult       `json:"paired,omitempty"`
	ANOVA      *ANOVAResult       `json:"anova,omitempty"`
	KS         *KSResult          `json:"ks,omitempty"`
	Bimodality []BimodalityResult `json:"bimodality,omitempty"`
	Skipped    []string           `json:"skipped,omitempty"`
}

// Funnel counts trials surviving each pipeline stage
type Funnel struct {
	Loaded          int            `json:"loaded"`
	Filtered        int            `json:"filtered"`
	FilterDrops     map[string]int `json:"filter_drops"`
	OutlierPasses   int            `json:"outlier_passes"`
	OutliersRemoved int            `json:"outliers_removed"`
	Incorrect       int            `json:"incorrect"`
	Analysed        int            `json:"analysed"`
	Subjects        int            `json:"subjects"`
	Typical         int            `json:"typical"`
	Atypical        int            `json:"atypical"`
}

// AnalysisReport is the complete output of one pipeline run
type AnalysisReport struct {
	RunID       core.RunID        `json:"run_id"`
	Fingerprint core.Hash         `json:"fingerprint"`
	CreatedAt   time.Time         `json:"created_at"`
	Settings    map[string]any    `json:"settings"`
	Funnel      Funnel            `json:"funnel"`
	Metrics     []MetricTests     `json:"metrics"`
	SpaceANOVA  *RMANOVAResult    `json:"space_anova,omitempty"`
	Divergence  *DivergenceResult `json:"divergence,omitempty"`
	Bootstrap   *BootstrapResult  `json:"bootstrap,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// TestRecord is the flattened, storable form of a single test outcome
type TestRecord struct {
	Family     string                 `json:"family" db:"family"`
	Metric     string                 `json:"metric" db:"metric"`
	Test       TestKind               `json:"test" db:"test"`
	Statistic  float64                `json:"statistic" db:"statistic"`
	DF1        float64                `json:"df1" db:"df1"`
	DF2        float64                `json:"df2" db:"df2"`
	PValue     float64                `json:"p_value" db:"p_value"`
	EffectSize float64                `json:"effect_size" db:"effect_size"`
	Detail     map[string]interface{} `json:"detail,omitempty" db:"-"`
}
