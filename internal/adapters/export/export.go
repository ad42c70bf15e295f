// Package export renders stored assessments into downloadable files.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/okian/childhealth/internal/domain/model"
)

// Format names an export file format.
type Format string

// Export formats. Only CSV is rendered; PDF is recognised and refused.
const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// DateLayout renders timestamps the way the dashboard shows them.
const DateLayout = "1/2/2006, 3:04:05 PM"

// Header is the fixed CSV header row.
var Header = []string{
	"ID", "Child Age", "Region", "Risk Category", "Probability", "Confidence", "Date",
	"Household Income", "Food Insecurity", "Water Access", "Sanitation Access", "Education Level",
}

// ParseFormat maps a query value onto a Format. Empty means CSV.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Options controls how rows are rendered.
type Options struct {
	Location *time.Location
}

// Option configures an export.
type Option func(*Options)

// WithLocation renders dates in loc instead of time.Local.
func WithLocation(loc *time.Location) Option {
	return func(o *Options) {
		if loc != nil {
			o.Location = loc
		}
	}
}

// Result describes a finished export.
type Result struct {
	FileName    string
	ContentType string
	Records     int
}

// FileName returns the download name for an export made at now.
func FileName(now time.Time, f Format) string {
	return fmt.Sprintf("health-predictions-%d.%s", now.UnixMilli(), f)
}

// ContentType returns the MIME type for f.
func ContentType(f Format) string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Write renders records in format f to w.
func Write(w io.Writer, f Format, records []model.RiskAssessment, opts ...Option) error {
	switch f {
	case FormatCSV:
		return WriteCSV(w, records, opts...)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, f)
	}
}

// WriteCSV writes the header and one row per record, in store order.
// An empty sequence writes nothing and returns ErrNoData.
func WriteCSV(w io.Writer, records []model.RiskAssessment, opts ...Option) error {
	if len(records) == 0 {
		return ErrNoData
	}
	o := Options{Location: time.Local}
	for _, opt := range opts {
		opt(&o)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r, o.Location)); err != nil {
			return fmt.Errorf("write row %s: %w", r.ID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func row(r model.RiskAssessment, loc *time.Location) []string {
	in := r.Input
	return []string{
		r.ID,
		number(r.ChildAgeMonths),
		string(r.Region),
		string(r.RiskCategory),
		number(r.ProbabilityPercent),
		number(r.ConfidencePercent),
		r.CreatedAt.In(loc).Format(DateLayout),
		number(in.HouseholdIncomeScore),
		number(in.FoodInsecurityScore),
		number(in.WaterAccessScore),
		number(in.SanitationAccessScore),
		string(in.EducationLevel),
	}
}

// number prints v in shortest decimal form, without exponent or trailing zeros.
func number(v float64) string {
	return decimal.NewFromFloat(v).String()
}

