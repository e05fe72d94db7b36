// Package explain builds structured explanations for analysis decisions:
// why an answer was produced and what evidence supports it.
package explain

import (
	"fmt"
	"time"

	"github.com/ogulcanaydogan/govcore/pkg/severity"
)

// Risk is a single identified risk within an analysis.
type Risk struct {
	Description string            `json:"description"`
	Severity    severity.Severity `json:"severity"`
	Clause      string            `json:"clause,omitempty"`
}

// Input carries the analysis facts an explanation is built from.
type Input struct {
	ContractType      string
	Reasoning         string
	Risks             []Risk
	Confidence        float64
	KeyClauses        []string
	AdditionalContext map[string]any
}

// ConfidenceBreakdown splits the overall confidence across analysis stages.
type ConfidenceBreakdown struct {
	ContractType     float64 `json:"contract_type"`
	RiskAssessment   float64 `json:"risk_assessment"`
	ClauseExtraction float64 `json:"clause_extraction"`
}

// Evidence summarizes the supporting facts behind a decision.
type Evidence struct {
	KeyRisks          []Risk   `json:"key_risks"`
	Clauses           []string `json:"clauses"`
	RiskCount         int      `json:"risk_count"`
	HighSeverityRisks int      `json:"high_severity_risks"`
}

// Explanation is the structured answer to "why was this produced and what
// supports it".
type Explanation struct {
	Summary             string              `json:"summary"`
	ReasoningSteps      []string            `json:"reasoning_steps"`
	ModelReasoning      string              `json:"model_reasoning"`
	ConfidenceBreakdown ConfidenceBreakdown `json:"confidence_breakdown"`
	Evidence            Evidence            `json:"evidence"`
	HumanReviewRequired bool                `json:"human_review_required"`
	CreatedAt           time.Time           `json:"created_at"`
	AdditionalContext   map[string]any      `json:"additional_context,omitempty"`
}

// reviewConfidenceFloor is the confidence below which human review is always
// recommended, independent of risk findings.
const reviewConfidenceFloor = 0.7

// Build assembles an explanation from in. Human review is required when any
// high-severity risk is present or confidence falls below the review floor.
func Build(in Input) *Explanation {
	highRisks := 0
	for _, r := range in.Risks {
		if r.Severity == severity.High || r.Severity == severity.Critical {
			highRisks++
		}
	}

	return &Explanation{
		Summary: fmt.Sprintf("Classified as %s with confidence %.0f%%.", in.ContractType, in.Confidence*100),
		ReasoningSteps: []string{
			"Analyzed clause structure and keywords.",
			fmt.Sprintf("Applied contract taxonomy to classify as %s.", in.ContractType),
			"Evaluated obligations and risk statements.",
			"Compared against compliance policy requirements.",
		},
		ModelReasoning: in.Reasoning,
		ConfidenceBreakdown: ConfidenceBreakdown{
			ContractType:     in.Confidence,
			RiskAssessment:   in.Confidence * 0.9,
			ClauseExtraction: in.Confidence * 0.95,
		},
		Evidence: Evidence{
			KeyRisks:          in.Risks,
			Clauses:           in.KeyClauses,
			RiskCount:         len(in.Risks),
			HighSeverityRisks: highRisks,
		},
		HumanReviewRequired: highRisks > 0 || in.Confidence < reviewConfidenceFloor,
		CreatedAt:           time.Now().UTC(),
		AdditionalContext:   in.AdditionalContext,
	}
}
