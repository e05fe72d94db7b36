package policy

import (
	"fmt"
	"log/slog"

	"github.com/ogulcanaydogan/govcore/pkg/severity"
)

// Engine evaluates a registered set of policies against a single context.
// Registration is a startup-time, single-threaded phase; once registered,
// the policy set is read-only and Evaluate is safe for concurrent use.
type Engine struct {
	policies []Policy
	ids      map[string]struct{}
	logger   *slog.Logger
}

// NewEngine creates an engine with the given policies. Duplicate policy IDs
// are rejected.
func NewEngine(logger *slog.Logger, policies ...Policy) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		ids:    make(map[string]struct{}),
		logger: logger,
	}
	for _, p := range policies {
		if err := e.AddPolicy(p); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// AddPolicy registers a policy. IDs are unique per engine: registering the
// same ID twice is a misconfiguration and is rejected.
func (e *Engine) AddPolicy(p Policy) error {
	if err := p.validate(); err != nil {
		return err
	}
	if _, dup := e.ids[p.ID]; dup {
		return fmt.Errorf("policy %s: already registered", p.ID)
	}
	e.ids[p.ID] = struct{}{}
	e.policies = append(e.policies, p)
	return nil
}

// Len returns the number of registered policies.
func (e *Engine) Len() int { return len(e.policies) }

// Result is the outcome of a single policy within an evaluation.
type Result struct {
	PolicyID    string            `json:"policy_id"`
	Description string            `json:"description"`
	Pass        bool              `json:"pass"`
	Evidence    string            `json:"evidence"`
	Severity    severity.Severity `json:"severity"`
}

// Evaluation aggregates the outcomes of every registered policy.
type Evaluation struct {
	Passed         bool     `json:"passed"`
	Results        []Result `json:"results"`
	TotalPolicies  int      `json:"total_policies"`
	PoliciesPassed int      `json:"policies_passed"`
	PoliciesFailed int      `json:"policies_failed"`
}

// FailedPolicies returns the results of all failed policies.
func (ev *Evaluation) FailedPolicies() []Result {
	var out []Result
	for _, r := range ev.Results {
		if !r.Pass {
			out = append(out, r)
		}
	}
	return out
}

// CriticalFailures returns the results of failed critical-severity policies.
func (ev *Evaluation) CriticalFailures() []Result {
	var out []Result
	for _, r := range ev.Results {
		if !r.Pass && r.Severity == severity.Critical {
			out = append(out, r)
		}
	}
	return out
}

// Evaluate runs every registered policy against ctx, in registration order.
// A rule error or panic marks that policy failed with the error as evidence;
// it never aborts evaluation of the remaining policies. With no policies
// registered the evaluation trivially passes.
func (e *Engine) Evaluate(ctx Context) *Evaluation {
	ev := &Evaluation{
		Passed:        true,
		Results:       make([]Result, 0, len(e.policies)),
		TotalPolicies: len(e.policies),
	}

	for _, p := range e.policies {
		outcome := evaluateRule(p.Rule, ctx)

		if outcome.Evidence == "" {
			outcome.Evidence = "no evidence provided"
		}

		ev.Results = append(ev.Results, Result{
			PolicyID:    p.ID,
			Description: p.Description,
			Pass:        outcome.Pass,
			Evidence:    outcome.Evidence,
			Severity:    p.Severity,
		})

		if outcome.Pass {
			ev.PoliciesPassed++
		} else {
			ev.PoliciesFailed++
			ev.Passed = false
		}

		e.logger.Info("policy evaluated",
			"policy_id", p.ID,
			"pass", outcome.Pass,
			"severity", string(p.Severity),
		)
	}

	return ev
}

// evaluateRule invokes a single rule, converting errors and panics into a
// failing in-band outcome.
func evaluateRule(rule Rule, ctx Context) (outcome Outcome) {
	defer func() {
		if r := recover(); r != nil {
			outcome = Outcome{Pass: false, Evidence: fmt.Sprintf("evaluation error: %v", r)}
		}
	}()

	out, err := rule.Evaluate(ctx)
	if err != nil {
		return Outcome{Pass: false, Evidence: fmt.Sprintf("evaluation error: %v", err)}
	}
	return out
}
