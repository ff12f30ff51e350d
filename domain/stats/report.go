package stats

import (
	"fmt"
	"math"
)

// Records flattens the report's tests into storable rows
func (r *AnalysisReport) Records() []TestRecord {
	var out []TestRecord

	for _, mt := range r.Metrics {
		metric := string(mt.Metric)
		if mt.Welch != nil {
			out = append(out, tRecord("metric", metric, mt.Welch))
		}
		if mt.Paired != nil {
			out = append(out, tRecord("metric", metric, mt.Paired))
		}
		if mt.ANOVA != nil {
			out = append(out, TestRecord{
				Family:     "metric",
				Metric:     metric,
				Test:       TestOneWayANOVA,
				Statistic:  mt.ANOVA.F,
				DF1:        mt.ANOVA.DF1,
				DF2:        mt.ANOVA.DF2,
				PValue:     mt.ANOVA.PValue,
				EffectSize: mt.ANOVA.EtaSquared,
				Detail:     map[string]interface{}{"groups": len(mt.ANOVA.Groups)},
			})
		}
		if mt.KS != nil {
			out = append(out, TestRecord{
				Family:     "distribution",
				Metric:     metric,
				Test:       TestKS,
				Statistic:  mt.KS.D,
				PValue:     mt.KS.PValue,
				EffectSize: mt.KS.D,
				Detail:     map[string]interface{}{"n_a": mt.KS.NA, "n_b": mt.KS.NB},
			})
		}
		for _, bc := range mt.Bimodality {
			out = append(out, TestRecord{
				Family:     "distribution",
				Metric:     fmt.Sprintf("%s:%s", metric, bc.Label),
				Test:       TestBimodality,
				Statistic:  bc.Coefficient,
				PValue:     math.NaN(),
				EffectSize: bc.Coefficient,
				Detail:     map[string]interface{}{"bimodal": bc.Bimodal, "n": bc.N},
			})
		}
	}

	if r.SpaceANOVA != nil {
		for _, e := range r.SpaceANOVA.Effects {
			out = append(out, TestRecord{
				Family:     "space",
				Metric:     e.Name,
				Test:       TestRMANOVA,
				Statistic:  e.F,
				DF1:        e.DF1,
				DF2:        e.DF2,
				PValue:     e.PValue,
				EffectSize: e.PartialEta2,
			})
		}
	}

	return out
}

func tRecord(family, metric string, t *TTestResult) TestRecord {
	return TestRecord{
		Family:     family,
		Metric:     metric,
		Test:       t.Kind,
		Statistic:  t.T,
		DF1:        t.DF,
		PValue:     t.PValue,
		EffectSize: t.CohensD,
		Detail: map[string]interface{}{
			"mean_a": t.MeanA,
			"mean_b": t.MeanB,
			"n_a":    t.NA,
			"n_b":    t.NB,
		},
	}
}
