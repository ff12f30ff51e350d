package testkit

import (
	"fmt"
	"math"
	"math/rand"

	"gotrack/domain/core"
	"gotrack/domain/trial"
)

// TrialGeneratorConfig configures the synthetic mouse-tracking generator
type TrialGeneratorConfig struct {
	Subjects           int     `json:"subjects"`
	TrialsPerCondition int     `json:"trials_per_condition"`
	SampleIntervalMs   float64 `json:"sample_interval_ms"`
	MeanRT             float64 `json:"mean_rt"`
	RTJitter           float64 `json:"rt_jitter"`
	AtypicalSlowdown   float64 `json:"atypical_slowdown"`
	TypicalPull        float64 `json:"typical_pull"`  // peak deviation toward the foil, fraction of the horizontal distance
	AtypicalPull       float64 `json:"atypical_pull"` // same for atypical exemplars
	ErrorRate          float64 `json:"error_rate"`
	LeftHandedShare    float64 `json:"left_handed_share"`
	Seed               int64   `json:"seed"`
}

// DefaultTrialConfig returns sensible defaults for synthetic experiments
func DefaultTrialConfig() TrialGeneratorConfig {
	return TrialGeneratorConfig{
		Subjects:           24,
		TrialsPerCondition: 12,
		SampleIntervalMs:   15,
		MeanRT:             1100,
		RTJitter:           180,
		AtypicalSlowdown:   120,
		TypicalPull:        0.05,
		AtypicalPull:       0.3,
		ErrorRate:          0.05,
		LeftHandedShare:    0.1,
		Seed:               42,
	}
}

type exemplar struct {
	animal  string
	correct string
	foil    string
	typ     trial.Type
}

var exemplars = []exemplar{
	{"dog", "mammal", "reptile", trial.TypeTypical},
	{"horse", "mammal", "bird", trial.TypeTypical},
	{"eagle", "bird", "mammal", trial.TypeTypical},
	{"salmon", "fish", "reptile", trial.TypeTypical},
	{"snake", "reptile", "fish", trial.TypeTypical},
	{"whale", "mammal", "fish", trial.TypeAtypical},
	{"bat", "mammal", "bird", trial.TypeAtypical},
	{"penguin", "bird", "fish", trial.TypeAtypical},
	{"eel", "fish", "reptile", trial.TypeAtypical},
	{"platypus", "mammal", "reptile", trial.TypeAtypical},
}

// screen layout in logger pixels, y grows downward
const (
	startX   = 400.0
	startY   = 580.0
	optionDX = 300.0
	optionY  = 80.0
)

// TrialGenerator produces records in the experiment logger's layout
type TrialGenerator struct {
	config TrialGeneratorConfig
	rng    *rand.Rand
}

// NewTrialGenerator creates a new trial generator
func NewTrialGenerator(config TrialGeneratorConfig) *TrialGenerator {
	return &TrialGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate produces every trial of every subject plus the participants table
func (g *TrialGenerator) Generate() ([]trial.Record, []trial.Participant) {
	var records []trial.Record
	participants := make([]trial.Participant, 0, g.config.Subjects)

	for s := 0; s < g.config.Subjects; s++ {
		sub := core.SubmissionID(fmt.Sprintf("%d", 1001+s))
		hand := trial.HandRight
		if g.rng.Float64() < g.config.LeftHandedShare {
			hand = trial.HandLeft
		}
		participants = append(participants, trial.Participant{SubmissionID: sub, Handedness: hand})
		records = append(records, g.generateSubject(sub)...)
	}
	return records, participants
}

// generateSubject interleaves both conditions in a shuffled order
func (g *TrialGenerator) generateSubject(sub core.SubmissionID) []trial.Record {
	types := make([]trial.Type, 0, 2*g.config.TrialsPerCondition)
	for i := 0; i < g.config.TrialsPerCondition; i++ {
		types = append(types, trial.TypeTypical, trial.TypeAtypical)
	}
	g.rng.Shuffle(len(types), func(i, j int) { types[i], types[j] = types[j], types[i] })

	speed := g.rng.NormFloat64() * 100
	records := make([]trial.Record, 0, len(types))
	clock := 1000 + float64(g.rng.Intn(500))
	for n, typ := range types {
		rec := g.generateTrial(sub, n+1, typ, speed, clock)
		clock = rec.Times[len(rec.Times)-1] + 800
		records = append(records, rec)
	}
	return records
}

func (g *TrialGenerator) generateTrial(sub core.SubmissionID, number int, typ trial.Type, speed, clock float64) trial.Record {
	ex := g.pick(typ)
	rec := trial.Record{
		SubmissionID:    sub,
		TrialNumber:     number,
		CorrectCategory: ex.correct,
		Type:            typ,
		Animal:          ex.animal,
	}

	correctLeft := g.rng.Float64() < 0.5
	if correctLeft {
		rec.LeftCategory, rec.RightCategory = ex.correct, ex.foil
	} else {
		rec.LeftCategory, rec.RightCategory = ex.foil, ex.correct
	}

	rec.Answer = ex.correct
	chosenLeft := correctLeft
	if g.rng.Float64() < g.config.ErrorRate {
		rec.Answer = ex.foil
		chosenLeft = !correctLeft
	}

	rt := g.config.MeanRT + speed + g.rng.NormFloat64()*g.config.RTJitter
	pull := g.config.TypicalPull
	if typ == trial.TypeAtypical {
		rt += g.config.AtypicalSlowdown
		pull = g.config.AtypicalPull
	}
	rt = math.Max(rt, 300)
	pull *= 0.5 + g.rng.Float64()
	onset := math.Min(100+g.rng.Float64()*150, rt/2)

	side := 1.0
	if chosenLeft {
		side = -1
	}

	interval := g.config.SampleIntervalMs
	if interval <= 0 {
		interval = 15
	}
	for t := 0.0; ; t += interval {
		if t > rt {
			t = rt
		}
		x, y := position(t, onset, rt, side, pull)
		rec.Times = append(rec.Times, math.Round(clock+t))
		rec.X = append(rec.X, x)
		rec.Y = append(rec.Y, y)
		if t == rt {
			break
		}
	}
	return rec
}

// position follows a smooth-step path from the start to the chosen option,
// bowing toward the other option by pull
func position(t, onset, rt, side, pull float64) (float64, float64) {
	s := 0.0
	if t > onset {
		u := (t - onset) / (rt - onset)
		s = u * u * (3 - 2*u)
	}
	x := startX + side*optionDX*s - side*pull*optionDX*math.Sin(math.Pi*s)
	y := startY - (startY-optionY)*s
	return math.Round(x), math.Round(y)
}

func (g *TrialGenerator) pick(typ trial.Type) exemplar {
	var pool []exemplar
	for _, ex := range exemplars {
		if ex.typ == typ {
			pool = append(pool, ex)
		}
	}
	return pool[g.rng.Intn(len(pool))]
}
