// Package synthetic generates synthetic response sheets with known scores and
// checks a running service against them.
package synthetic

import (
	"errors"
	"time"

	"github.com/okian/phq9/internal/domain/model"
)

var (
	ErrUnhealthy     = errors.New("service unhealthy")
	ErrNoRespondents = errors.New("no respondents")
)

// Config holds configuration for a verification run.
type Config struct {
	BaseURL string        // Base URL of the service
	Workers int           // Number of concurrent workers
	Timeout time.Duration // HTTP request timeout
	Verbose bool          // Log every mismatch as it happens
}

// Respondent is one generated sheet row together with the score the service
// is expected to report for it.
type Respondent struct {
	ClientName     string   `json:"client_name,omitempty"`
	First          string   `json:"first_name,omitempty"`
	Middle         string   `json:"middle_name,omitempty"`
	Last           string   `json:"last_name,omitempty"`
	Suffix         string   `json:"suffix,omitempty"`
	Answers        []string `json:"answers"`
	TotalScore     int      `json:"total_score"`
	Interpretation string   `json:"interpretation"`
}

// Identity returns the lookup identity for the respondent.
func (r Respondent) Identity() model.Identity {
	return model.Identity{
		ClientName: r.ClientName,
		First:      r.First,
		Middle:     r.Middle,
		Last:       r.Last,
		Suffix:     r.Suffix,
	}
}

// Mismatch describes one respondent whose result differed from expectation.
type Mismatch struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Report holds verification statistics.
type Report struct {
	Checked    int           `json:"checked"`
	Matched    int           `json:"matched"`
	Mismatched int           `json:"mismatched"`
	Failed     int           `json:"failed"`
	Mismatches []Mismatch    `json:"mismatches"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
	Duration   time.Duration `json:"duration"`
}

// OK reports whether every respondent matched.
func (r *Report) OK() bool {
	return r.Mismatched == 0 && r.Failed == 0
}
