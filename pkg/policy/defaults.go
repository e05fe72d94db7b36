package policy

import (
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/govcore/pkg/severity"
)

// DefaultPolicies returns the built-in compliance policy set. Each rule is a
// pure function of the evaluation context and is independently reusable.
func DefaultPolicies() []Policy {
	return []Policy{
		{
			ID:          "GDPR-001",
			Description: "PII must be redacted before export",
			Severity:    severity.Critical,
			Rule: RuleFunc(func(ctx Context) (Outcome, error) {
				detected := ctx.Bool("pii_detected")
				redacted := ctx.Bool("pii_redacted")
				return Outcome{
					Pass:     !detected || redacted,
					Evidence: fmt.Sprintf("PII detected: %v | redacted: %v", detected, redacted),
				}, nil
			}),
		},
		{
			ID:          "SOC2-LOG",
			Description: "All analyses must have trace + audit record",
			Severity:    severity.High,
			Rule: RuleFunc(func(ctx Context) (Outcome, error) {
				traceID := ctx.String("trace_id")
				auditHash := ctx.String("audit_hash")
				logsWritten := ctx.Bool("logs_written")
				return Outcome{
					Pass:     traceID != "" && auditHash != "" && logsWritten,
					Evidence: fmt.Sprintf("trace: %s | audit: %s | logs: %v", traceID, auditHash, logsWritten),
				}, nil
			}),
		},
		{
			ID:          "RISK-007",
			Description: "High-risk items require manual approval",
			Severity:    severity.Medium,
			Rule: RuleFunc(func(ctx Context) (Outcome, error) {
				risk := ctx.String("risk_level")
				approved := ctx.Bool("human_approved")
				return Outcome{
					Pass:     risk != "high" || approved,
					Evidence: fmt.Sprintf("risk: %s | human approved: %v", risk, approved),
				}, nil
			}),
		},
		{
			ID:          "DATA-RET",
			Description: "Data retention policy must be set",
			Severity:    severity.Low,
			Rule: RuleFunc(func(ctx Context) (Outcome, error) {
				if !ctx.Has("retention_days") {
					return Outcome{Pass: false, Evidence: "retention: not set"}, nil
				}
				return Outcome{
					Pass:     true,
					Evidence: fmt.Sprintf("retention: %v days", ctx["retention_days"]),
				}, nil
			}),
		},
		{
			ID:          "AUTH-001",
			Description: "User must be authenticated",
			Severity:    severity.Critical,
			Rule: RuleFunc(func(ctx Context) (Outcome, error) {
				userID := ctx.String("user_id")
				return Outcome{
					Pass:     userID != "",
					Evidence: fmt.Sprintf("user id: %q", userID),
				}, nil
			}),
		},
	}
}

// NewDefaultEngine creates an engine pre-loaded with the default policy set.
func NewDefaultEngine(logger *slog.Logger) *Engine {
	// The default set has unique IDs and valid severities; registration
	// cannot fail.
	e, err := NewEngine(logger, DefaultPolicies()...)
	if err != nil {
		panic(fmt.Sprintf("policy: default policy registration failed: %v", err))
	}
	return e
}
