package guardrail

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ogulcanaydogan/govcore/pkg/severity"
)

// IssueType classifies a guardrail finding. The enum is open: custom checks
// may emit their own types.
type IssueType string

const (
	IssueContentSafety      IssueType = "content_safety"
	IssueBiasIndicator      IssueType = "bias_indicator"
	IssueLowConfidence      IssueType = "low_confidence"
	IssueIncompleteAnalysis IssueType = "incomplete_analysis"
	IssueCheckFailure       IssueType = "check_failure"
)

// Issue is a single guardrail finding. The optional fields carry
// type-specific context.
type Issue struct {
	Type          IssueType         `json:"type"`
	Message       string            `json:"message"`
	Severity      severity.Severity `json:"severity"`
	Phrase        string            `json:"phrase,omitempty"`
	Term          string            `json:"term,omitempty"`
	Confidence    float64           `json:"confidence,omitempty"`
	Threshold     float64           `json:"threshold,omitempty"`
	MissingFields []string          `json:"missing_fields,omitempty"`
	Check         string            `json:"check,omitempty"`
}

// Verdict is the aggregate outcome of a guardrail run. Guardrail violations
// are data, not errors: the caller decides whether RequiresHumanReview is a
// hard stop or a soft warning.
type Verdict struct {
	Passed              bool            `json:"passed"`
	Issues              []Issue         `json:"issues"`
	Actions             []string        `json:"actions"`
	SeverityCounts      severity.Counts `json:"severity_counts"`
	RequiresHumanReview bool            `json:"requires_human_review"`
}

// Run evaluates the report against every enabled check and aggregates the
// findings. It returns an error only when the report cannot be serialized
// for text matching; triggered guardrails are never an error.
func (g *Guardrails) Run(report map[string]any) (*Verdict, error) {
	raw, err := json.Marshal(report)
	if err != nil {
		return nil, fmt.Errorf("serializing report for guardrail checks: %w", err)
	}
	text := strings.ToLower(string(raw))

	var issues []Issue
	var actions []string

	if g.cfg.EnableContentSafety {
		found := g.checkContentSafety(text)
		issues = append(issues, found...)
		if len(found) > 0 {
			actions = append(actions, "Flag for content review")
		}
	}

	if g.cfg.EnableBiasDetection {
		found := g.checkBias(text)
		issues = append(issues, found...)
		if len(found) > 0 {
			actions = append(actions, "Review for potential bias")
		}
	}

	if g.cfg.EnableConfidenceCheck {
		found := g.checkConfidence(report)
		issues = append(issues, found...)
		if len(found) > 0 {
			actions = append(actions, "Escalate to human reviewer")
		}
	}

	for _, c := range g.custom {
		found := runCustomCheck(c, report)
		issues = append(issues, found...)
		if len(found) > 0 {
			actions = append(actions, fmt.Sprintf("Review findings from check %q", c.name))
		}
	}

	verdict := &Verdict{
		Passed:  len(issues) == 0,
		Issues:  issues,
		Actions: actions,
	}
	for _, issue := range issues {
		verdict.SeverityCounts.Add(issue.Severity)
	}
	verdict.RequiresHumanReview = !verdict.Passed || verdict.SeverityCounts.Critical > 0

	g.logger.Info("guardrails evaluated",
		"passed", verdict.Passed,
		"issues_found", len(issues),
		"critical", verdict.SeverityCounts.Critical,
		"high", verdict.SeverityCounts.High,
	)

	return verdict, nil
}

// checkContentSafety scans the flattened report for banned phrases.
func (g *Guardrails) checkContentSafety(text string) []Issue {
	var issues []Issue
	for _, phrase := range g.bannedPhrases {
		if strings.Contains(text, phrase) {
			issues = append(issues, Issue{
				Type:     IssueContentSafety,
				Message:  fmt.Sprintf("found banned phrase: %q", phrase),
				Severity: severity.High,
				Phrase:   phrase,
			})
			g.logger.Warn("content safety violation", "phrase", phrase)
		}
	}
	return issues
}

// checkBias scans for protected-attribute terms on word boundaries, so
// "age" does not match inside "language".
func (g *Guardrails) checkBias(text string) []Issue {
	var issues []Issue
	for _, tp := range g.protectedTerms {
		if tp.re.MatchString(text) {
			issues = append(issues, Issue{
				Type:     IssueBiasIndicator,
				Message:  fmt.Sprintf("mentions protected attribute: %q", tp.term),
				Severity: severity.Medium,
				Term:     tp.term,
			})
			g.logger.Info("bias indicator detected", "term", tp.term)
		}
	}
	return issues
}

// checkConfidence validates the confidence score and required report fields.
func (g *Guardrails) checkConfidence(report map[string]any) []Issue {
	var issues []Issue

	confidence := floatField(report, "confidence")
	if confidence < g.cfg.ConfidenceThreshold {
		issues = append(issues, Issue{
			Type:       IssueLowConfidence,
			Message:    fmt.Sprintf("confidence %.0f%% below threshold %.0f%%", confidence*100, g.cfg.ConfidenceThreshold*100),
			Severity:   severity.High,
			Confidence: confidence,
			Threshold:  g.cfg.ConfidenceThreshold,
		})
		g.logger.Warn("low confidence", "confidence", confidence, "threshold", g.cfg.ConfidenceThreshold)
	}

	var missing []string
	for _, field := range requiredFields {
		if _, ok := report[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		issues = append(issues, Issue{
			Type:          IssueIncompleteAnalysis,
			Message:       fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")),
			Severity:      severity.Critical,
			MissingFields: missing,
		})
		g.logger.Error("incomplete analysis", "missing_fields", strings.Join(missing, ", "))
	}

	return issues
}

// runCustomCheck invokes a registered check, converting a panic into a
// single high-severity finding for that check so one bad check cannot abort
// the batch.
func runCustomCheck(c customCheck, report map[string]any) (issues []Issue) {
	defer func() {
		if r := recover(); r != nil {
			issues = []Issue{{
				Type:     IssueCheckFailure,
				Message:  fmt.Sprintf("check %q failed: %v", c.name, r),
				Severity: severity.High,
				Check:    c.name,
			}}
		}
	}()

	found := c.fn(report)
	for i := range found {
		if found[i].Check == "" {
			found[i].Check = c.name
		}
	}
	return found
}

func floatField(report map[string]any, key string) float64 {
	switch v := report[key].(type) {
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
