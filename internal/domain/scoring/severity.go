package scoring

import "fmt"

// Level is the machine-readable severity bucket.
type Level string

// Severity levels in ascending order.
const (
	LevelMinimal          Level = "minimal"
	LevelMild             Level = "mild"
	LevelModerate         Level = "moderate"
	LevelModeratelySevere Level = "moderately_severe"
	LevelSevere           Level = "severe"
)

// MaxScore is the highest total for nine answers of weight 3.
const MaxScore = 27

// Severity is one inclusive score band.
type Severity struct {
	Level Level
	Label string
	Min   int
	Max   int
}

// Interpretation renders the band as "<Label> (<lo>-<hi>)".
func (s Severity) Interpretation() string {
	return fmt.Sprintf("%s (%d-%d)", s.Label, s.Min, s.Max)
}

// Elevated reports whether the band calls for additional commentary.
func (s Severity) Elevated() bool {
	return s.Level != LevelMinimal && s.Level != LevelMild
}

var bands = [...]Severity{
	{Level: LevelMinimal, Label: "Minimal or none", Min: 0, Max: 4},
	{Level: LevelMild, Label: "Mild", Min: 5, Max: 9},
	{Level: LevelModerate, Label: "Moderate", Min: 10, Max: 14},
	{Level: LevelModeratelySevere, Label: "Moderately severe", Min: 15, Max: 19},
	{Level: LevelSevere, Label: "Severe", Min: 20, Max: MaxScore},
}

// Bands returns the severity table in ascending order.
func Bands() []Severity {
	out := make([]Severity, len(bands))
	copy(out, bands[:])
	return out
}

// Classify returns the band whose upper bound is the first one >= score.
// Totals above MaxScore (extra answer columns) stay Severe.
func Classify(score int) Severity {
	for _, b := range bands {
		if score <= b.Max {
			return b
		}
	}
	return bands[len(bands)-1]
}
