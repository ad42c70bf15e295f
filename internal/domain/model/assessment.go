// Package model contains domain models passed between layers.
package model

import "time"

// RiskCategory is the primary classification output of a risk assessment.
type RiskCategory string

// Risk categories in their conventional enumeration order.
const (
	RiskHigh   RiskCategory = "High"
	RiskMedium RiskCategory = "Medium"
	RiskLow    RiskCategory = "Low"
)

// Categories lists the risk categories in enumeration order (High, Medium, Low).
var Categories = []RiskCategory{RiskHigh, RiskMedium, RiskLow}

// EducationLevel is the highest education level in the household.
type EducationLevel string

// Known education levels.
const (
	EducationNone      EducationLevel = "None"
	EducationPrimary   EducationLevel = "Primary"
	EducationSecondary EducationLevel = "Secondary"
	EducationHigher    EducationLevel = "Higher"
)

// EducationLevels lists the known education levels.
var EducationLevels = []EducationLevel{EducationNone, EducationPrimary, EducationSecondary, EducationHigher}

// Region is the geographic region a household belongs to.
type Region string

// Known regions.
const (
	RegionNorth   Region = "North"
	RegionSouth   Region = "South"
	RegionEast    Region = "East"
	RegionWest    Region = "West"
	RegionCentral Region = "Central"
)

// Regions lists the known regions.
var Regions = []Region{RegionNorth, RegionSouth, RegionEast, RegionWest, RegionCentral}

// SurveyInput is one household/child record submitted by a user.
// Score fields run 0-100; income, water and sanitation are higher-is-better,
// food insecurity is higher-is-worse.
type SurveyInput struct {
	ChildAgeMonths        float64        `json:"childAgeMonths"`
	HouseholdIncomeScore  float64        `json:"householdIncomeScore"`
	FoodInsecurityScore   float64        `json:"foodInsecurityScore"`
	WaterAccessScore      float64        `json:"waterAccessScore"`
	SanitationAccessScore float64        `json:"sanitationAccessScore"`
	EducationLevel        EducationLevel `json:"educationLevel"`
	Region                Region         `json:"region"`
	HouseholdSize         int            `json:"householdSize"`
}

// RiskAssessment is the immutable result of scoring one SurveyInput.
type RiskAssessment struct {
	ID                 string       `json:"id"`
	ChildAgeMonths     float64      `json:"childAgeMonths"`
	Region             Region       `json:"region"`
	RiskCategory       RiskCategory `json:"riskCategory"`
	ProbabilityPercent float64      `json:"probabilityPercent"`
	ConfidencePercent  float64      `json:"confidencePercent"`
	AdvisoryNote       string       `json:"advisoryNote"`
	CreatedAt          time.Time    `json:"createdAt"`
	Input              SurveyInput  `json:"input"`
}

// ActivityType classifies an activity log entry.
type ActivityType string

// Activity log entry types.
const (
	ActivityPrediction ActivityType = "prediction"
	ActivityExport     ActivityType = "export"
	ActivitySystem     ActivityType = "system"
)

// ActivityLog is a human-readable event shown on the overview panel.
type ActivityLog struct {
	ID        string       `json:"id"`
	Action    string       `json:"action"`
	Timestamp time.Time    `json:"timestamp"`
	Type      ActivityType `json:"type"`
}
