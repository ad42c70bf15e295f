package model

// ComponentStatus is one row of the overview health list.
type ComponentStatus struct {
	Name   string `json:"name"`
	Status string `json:"status"`
}

// Overview is the admin panel summary: counts, recent activity and
// component health.
type Overview struct {
	TotalPredictions int               `json:"totalPredictions"`
	HighRisk         int               `json:"highRisk"`
	MediumRisk       int               `json:"mediumRisk"`
	LowRisk          int               `json:"lowRisk"`
	ActivityCount    int               `json:"activityCount"`
	RecentActivity   []ActivityLog     `json:"recentActivity"`
	Health           []ComponentStatus `json:"health"`
}
