// Package table orders risk assessments for the sortable report table.
package table

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/childhealth/internal/domain/model"
)

// Sentinel kinds for table errors.
var (
	ErrUnknownField = errors.New("unknown sort field")
	ErrUnknownOrder = errors.New("unknown sort order")
)

// Field names a sortable column.
type Field string

// Sortable columns.
const (
	FieldID          Field = "id"
	FieldChildAge    Field = "childAgeMonths"
	FieldRegion      Field = "region"
	FieldCategory    Field = "riskCategory"
	FieldProbability Field = "probabilityPercent"
	FieldConfidence  Field = "confidencePercent"
	FieldCreatedAt   Field = "createdAt"
)

// Order is the sort direction.
type Order string

// Sort directions.
const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

var comparators = map[Field]func(a, b model.RiskAssessment) int{
	FieldID:          func(a, b model.RiskAssessment) int { return cmp.Compare(a.ID, b.ID) },
	FieldChildAge:    func(a, b model.RiskAssessment) int { return cmp.Compare(a.ChildAgeMonths, b.ChildAgeMonths) },
	FieldRegion:      func(a, b model.RiskAssessment) int { return cmp.Compare(a.Region, b.Region) },
	FieldCategory:    func(a, b model.RiskAssessment) int { return cmp.Compare(a.RiskCategory, b.RiskCategory) },
	FieldProbability: func(a, b model.RiskAssessment) int { return cmp.Compare(a.ProbabilityPercent, b.ProbabilityPercent) },
	FieldConfidence:  func(a, b model.RiskAssessment) int { return cmp.Compare(a.ConfidencePercent, b.ConfidencePercent) },
	FieldCreatedAt:   func(a, b model.RiskAssessment) int { return a.CreatedAt.Compare(b.CreatedAt) },
}

// State is the table's current sort column and direction.
type State struct {
	Field Field `json:"field"`
	Order Order `json:"order"`
}

// DefaultState sorts newest first.
func DefaultState() State {
	return State{Field: FieldCreatedAt, Order: Desc}
}

// Toggle returns the state after a header click on field: the active column
// flips direction, any other column becomes active in ascending order.
func (s State) Toggle(field Field) State {
	if s.Field == field {
		if s.Order == Asc {
			return State{Field: field, Order: Desc}
		}
		return State{Field: field, Order: Asc}
	}
	return State{Field: field, Order: Asc}
}

// ParseField validates a column name.
func ParseField(field string) (Field, error) {
	f := Field(strings.TrimSpace(field))
	if _, ok := comparators[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return f, nil
}

// ParseState reads a field and order from query values. Empty values fall
// back to DefaultState.
func ParseState(field, order string) (State, error) {
	s := DefaultState()
	if strings.TrimSpace(field) != "" {
		f, err := ParseField(field)
		if err != nil {
			return State{}, err
		}
		s.Field = f
	}
	switch o := Order(strings.ToLower(strings.TrimSpace(order))); o {
	case "":
	case Asc, Desc:
		s.Order = o
	default:
		return State{}, fmt.Errorf("%w: %q", ErrUnknownOrder, order)
	}
	return s, nil
}

// Sort returns a copy of records ordered by s. Equal rows keep store order.
func Sort(records []model.RiskAssessment, s State) ([]model.RiskAssessment, error) {
	compare, ok := comparators[s.Field]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, s.Field)
	}
	out := slices.Clone(records)
	if out == nil {
		out = []model.RiskAssessment{}
	}
	slices.SortStableFunc(out, func(a, b model.RiskAssessment) int {
		if s.Order == Desc {
			return compare(b, a)
		}
		return compare(a, b)
	})
	return out, nil
}
