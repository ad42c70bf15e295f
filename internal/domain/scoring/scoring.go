// Package scoring converts survey records into risk assessments.
//
// The weighted score is deterministic; probability and confidence carry a
// random adjustment that models inference uncertainty. The random source, the
// clock and the ID generator are injectable so tests can pin them.
package scoring

import (
	"math"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/okian/childhealth/internal/domain/model"
)

// Score weights. They sum to 1.0; income, water and sanitation are inverted
// because higher values are better for those inputs.
const (
	weightChildAge       = 0.1
	weightIncome         = 0.3
	weightFoodInsecurity = 0.4
	weightWater          = 0.1
	weightSanitation     = 0.1
	scoreCeiling         = 100
)

// Category thresholds on the risk score (half-open intervals).
const (
	mediumThreshold = 30
	highThreshold   = 60
)

// Probability and confidence bounds.
const (
	jitterRange    = 10
	minProbability = 5
	maxProbability = 95
	baseConfidence = 85
	minConfidence  = 75
	maxConfidence  = 98
)

// Advisory notes, chosen solely by risk category.
const (
	NoteLow    = "Child shows low risk indicators. Continue monitoring basic health metrics."
	NoteMedium = "Moderate risk detected. Consider intervention programs and regular follow-ups."
	NoteHigh   = "High risk indicators detected. Immediate intervention recommended. Prioritize nutrition and healthcare access."
)

// RandomSource yields uniformly distributed values in [0, 1).
// *rand.Rand from math/rand and math/rand/v2 both satisfy it.
type RandomSource interface {
	Float64() float64
}

// RandomFunc adapts a plain function to RandomSource.
type RandomFunc func() float64

// Float64 implements RandomSource.
func (f RandomFunc) Float64() float64 { return f() }

// Option applies a configuration option to the Scorer.
type Option func(*Scorer)

// WithRandomSource sets the source of the probability and confidence jitter.
func WithRandomSource(src RandomSource) Option {
	return func(s *Scorer) {
		if src != nil {
			s.rng = src
		}
	}
}

// WithClock sets the function used to stamp CreatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator sets the function used to mint assessment IDs.
func WithIDGenerator(gen func() string) Option {
	return func(s *Scorer) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// Scorer evaluates survey inputs. It holds no mutable state of its own and
// is safe for concurrent use when its random source is.
type Scorer struct {
	rng   RandomSource
	now   func() time.Time
	newID func() string
}

// NewScorer creates a scorer. Defaults: the math/rand/v2 global source,
// time.Now and random UUIDs.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{
		rng:   RandomFunc(rand.Float64),
		now:   time.Now,
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Evaluate scores one survey input. It never fails: out-of-range and
// negative values are scored as given.
func (s *Scorer) Evaluate(in model.SurveyInput) model.RiskAssessment {
	score := RiskScore(in)
	category, note := Classify(score)

	probability := clamp(score+s.rng.Float64()*jitterRange, minProbability, maxProbability)
	confidence := clamp(baseConfidence+s.rng.Float64()*jitterRange, minConfidence, maxConfidence)

	return model.RiskAssessment{
		ID:                 s.newID(),
		ChildAgeMonths:     in.ChildAgeMonths,
		Region:             in.Region,
		RiskCategory:       category,
		ProbabilityPercent: Round1(probability),
		ConfidencePercent:  Round1(confidence),
		AdvisoryNote:       note,
		CreatedAt:          s.now(),
		Input:              in,
	}
}

// RiskScore computes the weighted risk score for an input.
func RiskScore(in model.SurveyInput) float64 {
	return in.ChildAgeMonths*weightChildAge +
		(scoreCeiling-in.HouseholdIncomeScore)*weightIncome +
		in.FoodInsecurityScore*weightFoodInsecurity +
		(scoreCeiling-in.WaterAccessScore)*weightWater +
		(scoreCeiling-in.SanitationAccessScore)*weightSanitation
}

// Classify maps a risk score to its category and advisory note.
func Classify(score float64) (model.RiskCategory, string) {
	switch {
	case score < mediumThreshold:
		return model.RiskLow, NoteLow
	case score < highThreshold:
		return model.RiskMedium, NoteMedium
	default:
		return model.RiskHigh, NoteHigh
	}
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, v))
}
