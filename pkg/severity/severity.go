// Package severity defines the shared severity scale used by policy results
// and guardrail issues.
package severity

// Severity ranks how serious a policy failure or guardrail issue is.
type Severity string

const (
	Critical Severity = "critical"
	High     Severity = "high"
	Medium   Severity = "medium"
	Low      Severity = "low"
)

// Valid reports whether s is one of the four known severity levels.
func (s Severity) Valid() bool {
	switch s {
	case Critical, High, Medium, Low:
		return true
	}
	return false
}

// Counts tallies issues or failures per severity level.
type Counts struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
}

// Add increments the count for the given severity. Unknown severities are ignored.
func (c *Counts) Add(s Severity) {
	switch s {
	case Critical:
		c.Critical++
	case High:
		c.High++
	case Medium:
		c.Medium++
	case Low:
		c.Low++
	}
}

// Total returns the sum across all levels.
func (c Counts) Total() int {
	return c.Critical + c.High + c.Medium + c.Low
}
