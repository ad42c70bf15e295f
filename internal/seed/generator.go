package seed

import (
	"math"
	"math/rand/v2"

	"github.com/google/uuid"

	"github.com/okian/childhealth/internal/domain/model"
)

// Household profiles drawn by the generator.
const (
	profileVulnerable = iota
	profileStruggling
	profileAverage
	profileWellOff
	profileWideRange
	profileCount
)

// scoreRange is an inclusive [min, max] range for a 0-100 score.
type scoreRange struct{ min, max float64 }

// profiles set the ranges for higher-is-better scores; food insecurity is
// drawn from the mirrored range.
var profiles = [profileCount]scoreRange{
	profileVulnerable: {0, 30},
	profileStruggling: {20, 55},
	profileAverage:    {40, 75},
	profileWellOff:    {70, 100},
	profileWideRange:  {0, 100},
}

// Generator produces random survey requests.
type Generator struct {
	rng   *rand.Rand
	newID func() string
}

// NewGenerator creates a generator seeded with seed.
func NewGenerator(seed uint64) *Generator {
	return &Generator{
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		newID: uuid.NewString,
	}
}

// Generate returns n surveys.
func (g *Generator) Generate(n int) []Request {
	out := make([]Request, n)
	for i := range out {
		out[i] = g.one()
	}
	return out
}

func (g *Generator) one() Request {
	p := profiles[g.rng.IntN(profileCount)]
	good := func() float64 { return g.between(p.min, p.max) }
	bad := func() float64 { return g.between(100-p.max, 100-p.min) }

	return Request{
		ID:                    g.newID(),
		ChildAgeMonths:        float64(g.rng.IntN(61)),
		HouseholdIncomeScore:  good(),
		FoodInsecurityScore:   bad(),
		WaterAccessScore:      good(),
		SanitationAccessScore: good(),
		EducationLevel:        string(model.EducationLevels[g.rng.IntN(len(model.EducationLevels))]),
		Region:                string(model.Regions[g.rng.IntN(len(model.Regions))]),
		HouseholdSize:         1 + g.rng.IntN(12),
	}
}

// between draws a whole-number score in [lo, hi].
func (g *Generator) between(lo, hi float64) float64 {
	return math.Round(lo + g.rng.Float64()*(hi-lo))
}
