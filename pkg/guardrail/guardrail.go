// Package guardrail provides defense-in-depth safety checks applied to a
// finished analysis report before release: content safety, bias indicators,
// and confidence thresholds, plus optional caller-registered checks.
// Guardrails complement the policy engine (policy = compliance rules,
// guardrail = content/fairness/confidence heuristics); the two never call
// each other.
package guardrail

import (
	"fmt"
	"log/slog"
	"regexp"
)

// DefaultConfidenceThreshold is the minimum report confidence for
// auto-approval.
const DefaultConfidenceThreshold = 0.6

// DefaultBannedPhrases are harmful content indicators matched as
// case-insensitive substrings of the flattened report.
var DefaultBannedPhrases = []string{
	"always reject",
	"refuse service",
	"terminate without cause",
	"discriminate",
	"exclude based on",
	"deny access to",
}

// DefaultProtectedTerms are protected-attribute terms matched on word
// boundaries, flagged as potential bias indicators.
var DefaultProtectedTerms = []string{
	"gender",
	"religion",
	"race",
	"ethnicity",
	"disability",
	"pregnant",
	"pregnancy",
	"age",
	"sexual orientation",
	"national origin",
	"veteran status",
}

// requiredFields are the top-level keys a complete report must carry.
var requiredFields = []string{"contract_type", "risks", "summary"}

// Config controls which checks run and their thresholds. The zero value is
// not usable; start from DefaultConfig.
type Config struct {
	ConfidenceThreshold   float64
	EnableContentSafety   bool
	EnableBiasDetection   bool
	EnableConfidenceCheck bool

	// ExtraBannedPhrases and ExtraProtectedTerms extend the built-in lists.
	ExtraBannedPhrases  []string
	ExtraProtectedTerms []string
}

// DefaultConfig returns the all-enabled configuration with the default
// confidence threshold.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:   DefaultConfidenceThreshold,
		EnableContentSafety:   true,
		EnableBiasDetection:   true,
		EnableConfidenceCheck: true,
	}
}

// CheckFunc is a caller-registered custom check. It receives the report and
// returns any issues found.
type CheckFunc func(report map[string]any) []Issue

type customCheck struct {
	name string
	fn   CheckFunc
}

// Guardrails evaluates reports against the configured checks. Construct once
// at startup; Run is safe for concurrent use as long as AddCheck does not
// race with it (treat registration as a startup-time phase).
type Guardrails struct {
	cfg            Config
	bannedPhrases  []string
	protectedTerms []*termPattern
	custom         []customCheck
	logger         *slog.Logger
}

type termPattern struct {
	term string
	re   *regexp.Regexp
}

// New creates a Guardrails instance from cfg.
func New(cfg Config, logger *slog.Logger) *Guardrails {
	if logger == nil {
		logger = slog.Default()
	}

	g := &Guardrails{
		cfg:    cfg,
		logger: logger,
	}

	g.bannedPhrases = append(g.bannedPhrases, DefaultBannedPhrases...)
	g.bannedPhrases = append(g.bannedPhrases, cfg.ExtraBannedPhrases...)

	terms := append(append([]string{}, DefaultProtectedTerms...), cfg.ExtraProtectedTerms...)
	for _, term := range terms {
		g.protectedTerms = append(g.protectedTerms, &termPattern{
			term: term,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`),
		})
	}

	return g
}

// NewDefault creates a Guardrails instance with the default configuration.
func NewDefault(logger *slog.Logger) *Guardrails {
	return New(DefaultConfig(), logger)
}

// AddCheck registers a named custom check. Custom checks run after the
// built-in checks and their issues are merged into the same verdict.
func (g *Guardrails) AddCheck(name string, fn CheckFunc) error {
	if name == "" {
		return fmt.Errorf("check name is required")
	}
	if fn == nil {
		return fmt.Errorf("check %s: function is required", name)
	}
	for _, c := range g.custom {
		if c.name == name {
			return fmt.Errorf("check %s: already registered", name)
		}
	}
	g.custom = append(g.custom, customCheck{name: name, fn: fn})
	g.logger.Info("custom guardrail check registered", "check", name)
	return nil
}
