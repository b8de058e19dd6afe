// Package types contains common types used across the application
package types

// Assessment is the scored result for one respondent
type Assessment struct {
	ClientName            string   `json:"client_name"`
	TotalScore            int      `json:"total_score"`
	Interpretation        string   `json:"interpretation"`
	Severity              string   `json:"severity"`
	PrimaryImpression     string   `json:"primary_impression"`
	AdditionalImpressions []string `json:"additional_impressions"`
	SuggestedTools        []string `json:"suggested_tools"`
}

// Normalize replaces nil slices with empty ones so they encode as [].
func (a *Assessment) Normalize() {
	if a.AdditionalImpressions == nil {
		a.AdditionalImpressions = []string{}
	}
	if a.SuggestedTools == nil {
		a.SuggestedTools = []string{}
	}
}
