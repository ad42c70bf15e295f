// Package aggregate derives dashboard statistics from scored records.
//
// Summarize is a pure function of the record sequence: it keeps no state
// between calls, never reorders the caller's slice and never fails.
package aggregate

import (
	"slices"
	"sort"
	"time"

	"github.com/okian/childhealth/internal/domain/model"
	"github.com/okian/childhealth/internal/domain/scoring"
)

// NotAvailable is reported for insights that have no data.
const NotAvailable = "N/A"

// defaultDateLayout is the en-US short date used to label timeline points.
const defaultDateLayout = "1/2/2006"

// Counts holds per-category record counts.
type Counts struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total returns the sum of all categories.
func (c Counts) Total() int { return c.High + c.Medium + c.Low }

// Of returns the count for one category.
func (c Counts) Of(category model.RiskCategory) int {
	switch category {
	case model.RiskHigh:
		return c.High
	case model.RiskMedium:
		return c.Medium
	case model.RiskLow:
		return c.Low
	default:
		return 0
	}
}

func (c *Counts) add(category model.RiskCategory) {
	switch category {
	case model.RiskHigh:
		c.High++
	case model.RiskMedium:
		c.Medium++
	case model.RiskLow:
		c.Low++
	}
}

// CategoryCount is one slice of the category distribution chart.
type CategoryCount struct {
	Category model.RiskCategory `json:"name"`
	Count    int                `json:"value"`
}

// Breakdown is the per-category count for one group (a region or an
// education level).
type Breakdown struct {
	Name string `json:"name"`
	Counts
}

// TimelinePoint is the number of predictions made on one calendar date.
type TimelinePoint struct {
	Date        string `json:"date"`
	Predictions int    `json:"predictions"`
}

// View is the full set of derived statistics for the current records.
type View struct {
	Total                int             `json:"total"`
	Counts               Counts          `json:"counts"`
	CategoryDistribution []CategoryCount `json:"categoryDistribution"`
	RegionBreakdown      []Breakdown     `json:"regionBreakdown"`
	EducationBreakdown   []Breakdown     `json:"educationBreakdown"`
	Timeline             []TimelinePoint `json:"timeline"`
	MostCommonCategory   string          `json:"mostCommonCategory"`
	AverageProbability   float64         `json:"averageProbability"`
	MostAffectedRegion   string          `json:"mostAffectedRegion"`
}

// Option applies a configuration option to Summarize.
type Option func(*options)

type options struct {
	loc        *time.Location
	dateLayout string
}

// WithLocation sets the time zone used to bucket records by calendar date.
func WithLocation(loc *time.Location) Option {
	return func(o *options) {
		if loc != nil {
			o.loc = loc
		}
	}
}

// WithDateLayout sets the layout used to label timeline dates.
func WithDateLayout(layout string) Option {
	return func(o *options) {
		if layout != "" {
			o.dateLayout = layout
		}
	}
}

// Summarize builds a View from records. An empty sequence yields empty
// slices, zero counts, a zero average and "N/A" insights.
func Summarize(records []model.RiskAssessment, opts ...Option) View {
	o := options{loc: time.Local, dateLayout: defaultDateLayout}
	for _, opt := range opts {
		opt(&o)
	}

	v := View{
		Total:              len(records),
		RegionBreakdown:    groupBy(records, func(r model.RiskAssessment) string { return string(r.Region) }),
		EducationBreakdown: groupBy(records, func(r model.RiskAssessment) string { return string(r.Input.EducationLevel) }),
		Timeline:           timeline(records, o),
	}
	for _, r := range records {
		v.Counts.add(r.RiskCategory)
	}
	v.CategoryDistribution = distribution(v.Counts)
	v.MostCommonCategory = mostCommon(v.CategoryDistribution)
	v.AverageProbability = averageProbability(records)
	v.MostAffectedRegion = mostAffected(v.RegionBreakdown)
	return v
}

// distribution lists non-zero categories in enumeration order.
func distribution(c Counts) []CategoryCount {
	out := make([]CategoryCount, 0, len(model.Categories))
	for _, category := range model.Categories {
		if n := c.Of(category); n > 0 {
			out = append(out, CategoryCount{Category: category, Count: n})
		}
	}
	return out
}

// groupBy buckets records by key, keeping groups in first-seen order.
func groupBy(records []model.RiskAssessment, key func(model.RiskAssessment) string) []Breakdown {
	out := make([]Breakdown, 0)
	index := make(map[string]int)
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, Breakdown{Name: k})
		}
		out[i].add(r.RiskCategory)
	}
	return out
}

// timeline counts records per calendar date in chronological order. It sorts
// a copy so the caller's ordering is left untouched.
func timeline(records []model.RiskAssessment, o options) []TimelinePoint {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b model.RiskAssessment) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})

	out := make([]TimelinePoint, 0)
	index := make(map[string]int)
	for _, r := range sorted {
		date := r.CreatedAt.In(o.loc).Format(o.dateLayout)
		if i, ok := index[date]; ok {
			out[i].Predictions++
			continue
		}
		index[date] = len(out)
		out = append(out, TimelinePoint{Date: date, Predictions: 1})
	}
	return out
}

// mostCommon picks the largest category; ties go to the earlier entry.
func mostCommon(dist []CategoryCount) string {
	if len(dist) == 0 {
		return NotAvailable
	}
	ranked := slices.Clone(dist)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	return string(ranked[0].Category)
}

// mostAffected picks the region with the most records; ties go to the
// first-seen region. A blank region name reports as N/A.
func mostAffected(regions []Breakdown) string {
	if len(regions) == 0 {
		return NotAvailable
	}
	ranked := slices.Clone(regions)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Total() > ranked[j].Total() })
	if ranked[0].Name == "" {
		return NotAvailable
	}
	return ranked[0].Name
}

func averageProbability(records []model.RiskAssessment) float64 {
	if len(records) == 0 {
		return 0
	}
	var sum float64
	for _, r := range records {
		sum += r.ProbabilityPercent
	}
	return scoring.Round1(sum / float64(len(records)))
}
