// Package policy provides a lightweight compliance policy engine: named,
// severity-tagged boolean rules evaluated against a caller-supplied context,
// aggregated into a pass/fail verdict with a per-policy evidence trail.
package policy

import (
	"fmt"

	"github.com/ogulcanaydogan/govcore/pkg/severity"
)

// Context is the evaluation context a rule inspects. Callers are responsible
// for populating the keys their registered rules reference; the typed
// accessors default safely when a key is absent or mistyped.
type Context map[string]any

// String returns the string value for key, or "" when absent or not a string.
func (c Context) String(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Bool returns the bool value for key, or false when absent or not a bool.
func (c Context) Bool(key string) bool {
	if v, ok := c[key].(bool); ok {
		return v
	}
	return false
}

// Float returns the numeric value for key, or 0 when absent or not numeric.
func (c Context) Float(key string) float64 {
	switch v := c[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

// Has reports whether key is present with a non-nil value.
func (c Context) Has(key string) bool {
	v, ok := c[key]
	return ok && v != nil
}

// Outcome is the result of evaluating a single rule.
type Outcome struct {
	Pass     bool
	Evidence string
}

// Rule is a pure predicate over an evaluation context. Implementations must
// not mutate the context or touch mutable state outside it: purity is what
// makes policies independently unit-testable. A returned error marks the
// policy failed without aborting the batch.
type Rule interface {
	Evaluate(ctx Context) (Outcome, error)
}

// RuleFunc adapts a plain function to the Rule interface.
type RuleFunc func(ctx Context) (Outcome, error)

// Evaluate implements Rule.
func (f RuleFunc) Evaluate(ctx Context) (Outcome, error) {
	return f(ctx)
}

// Policy is a named, severity-tagged compliance rule.
type Policy struct {
	ID          string
	Description string
	Severity    severity.Severity
	Rule        Rule
}

func (p Policy) validate() error {
	if p.ID == "" {
		return fmt.Errorf("policy id is required")
	}
	if p.Rule == nil {
		return fmt.Errorf("policy %s: rule is required", p.ID)
	}
	if !p.Severity.Valid() {
		return fmt.Errorf("policy %s: invalid severity %q", p.ID, p.Severity)
	}
	return nil
}
