// Package seed generates random household surveys and posts them to a
// running service so the dashboard has data to show.
package seed

import "time"

// Config holds configuration for a seeding run.
type Config struct {
	BaseURL string        // Base URL of the service
	Count   int           // Number of surveys to generate
	Workers int           // Maximum concurrent requests
	Timeout time.Duration // HTTP request timeout
	Seed    uint64        // Generator seed; 0 picks one from the clock
	Verbose bool          // Log every submission
}

// Stats holds run statistics.
type Stats struct {
	Generated int
	Created   int
	Duplicate int
	Failed    int
	StartTime time.Time
	EndTime   time.Time
	Duration  time.Duration
}

// Request is the POST /assessments body.
type Request struct {
	ID                    string  `json:"id"`
	ChildAgeMonths        float64 `json:"childAgeMonths"`
	HouseholdIncomeScore  float64 `json:"householdIncomeScore"`
	FoodInsecurityScore   float64 `json:"foodInsecurityScore"`
	WaterAccessScore      float64 `json:"waterAccessScore"`
	SanitationAccessScore float64 `json:"sanitationAccessScore"`
	EducationLevel        string  `json:"educationLevel"`
	Region                string  `json:"region"`
	HouseholdSize         int     `json:"householdSize"`
}

// Insights mirrors the summary fields of GET /analysis.
type Insights struct {
	Total              int     `json:"total"`
	MostCommonCategory string  `json:"mostCommonCategory"`
	AverageProbability float64 `json:"averageProbability"`
	MostAffectedRegion string  `json:"mostAffectedRegion"`
}
