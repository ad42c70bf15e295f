package scoring

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/okian/childhealth/internal/domain/model"
)

// Documented input ranges.
const (
	maxChildAgeMonths = 60
	maxScore          = 100
	minHouseholdSize  = 1
	maxHouseholdSize  = 20
)

// Validate reports every field of in that falls outside its documented range.
// Evaluate does not call it; strict callers opt in. The returned error wraps
// ErrOutOfRange.
func Validate(in model.SurveyInput) error {
	var errs []error

	checkRange := func(name string, v, lo, hi float64) {
		if math.IsNaN(v) || v < lo || v > hi {
			errs = append(errs, fmt.Errorf("%s=%v not in [%v, %v]", name, v, lo, hi))
		}
	}

	checkRange("childAgeMonths", in.ChildAgeMonths, 0, maxChildAgeMonths)
	checkRange("householdIncomeScore", in.HouseholdIncomeScore, 0, maxScore)
	checkRange("foodInsecurityScore", in.FoodInsecurityScore, 0, maxScore)
	checkRange("waterAccessScore", in.WaterAccessScore, 0, maxScore)
	checkRange("sanitationAccessScore", in.SanitationAccessScore, 0, maxScore)

	if in.HouseholdSize < minHouseholdSize || in.HouseholdSize > maxHouseholdSize {
		errs = append(errs, fmt.Errorf("householdSize=%d not in [%d, %d]", in.HouseholdSize, minHouseholdSize, maxHouseholdSize))
	}
	if !slices.Contains(model.EducationLevels, in.EducationLevel) {
		errs = append(errs, fmt.Errorf("educationLevel=%q is not a known level", in.EducationLevel))
	}
	if !slices.Contains(model.Regions, in.Region) {
		errs = append(errs, fmt.Errorf("region=%q is not a known region", in.Region))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrOutOfRange, errors.Join(errs...))
}
