package policy

import (
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/ogulcanaydogan/govcore/pkg/severity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func passRule() Rule {
	return RuleFunc(func(ctx Context) (Outcome, error) {
		return Outcome{Pass: true, Evidence: "ok"}, nil
	})
}

func failRule(evidence string) Rule {
	return RuleFunc(func(ctx Context) (Outcome, error) {
		return Outcome{Pass: false, Evidence: evidence}, nil
	})
}

func TestEvaluateEmptyEngineTriviallyPasses(t *testing.T) {
	e, err := NewEngine(discardLogger())
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ev := e.Evaluate(Context{})
	if !ev.Passed {
		t.Error("empty engine should trivially pass")
	}
	if ev.TotalPolicies != 0 || ev.PoliciesPassed != 0 || ev.PoliciesFailed != 0 {
		t.Errorf("empty engine counts unexpected: %+v", ev)
	}
	if len(ev.Results) != 0 {
		t.Errorf("empty engine should produce no results, got %d", len(ev.Results))
	}
}

func TestEvaluateAggregates(t *testing.T) {
	e, err := NewEngine(discardLogger(),
		Policy{ID: "P-1", Description: "first", Severity: severity.Low, Rule: passRule()},
		Policy{ID: "P-2", Description: "second", Severity: severity.High, Rule: failRule("broken")},
		Policy{ID: "P-3", Description: "third", Severity: severity.Low, Rule: passRule()},
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ev := e.Evaluate(Context{})
	if ev.Passed {
		t.Error("one failing policy should fail the evaluation")
	}
	if ev.TotalPolicies != 3 || ev.PoliciesPassed != 2 || ev.PoliciesFailed != 1 {
		t.Errorf("counts unexpected: %+v", ev)
	}

	// passed == AND of all per-policy passes
	allPass := true
	for _, r := range ev.Results {
		allPass = allPass && r.Pass
	}
	if ev.Passed != allPass {
		t.Error("Passed should equal the conjunction of per-policy passes")
	}

	// registration order preserved
	wantOrder := []string{"P-1", "P-2", "P-3"}
	for i, r := range ev.Results {
		if r.PolicyID != wantOrder[i] {
			t.Errorf("result %d = %s, want %s", i, r.PolicyID, wantOrder[i])
		}
	}
}

func TestEvaluateFaultIsolation(t *testing.T) {
	errRule := RuleFunc(func(ctx Context) (Outcome, error) {
		return Outcome{}, fmt.Errorf("backend unreachable")
	})

	e, err := NewEngine(discardLogger(),
		Policy{ID: "OK-1", Description: "first", Severity: severity.Low, Rule: passRule()},
		Policy{ID: "BAD", Description: "errors out", Severity: severity.High, Rule: errRule},
		Policy{ID: "OK-2", Description: "third", Severity: severity.Low, Rule: passRule()},
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ev := e.Evaluate(Context{})

	if len(ev.Results) != 3 {
		t.Fatalf("results = %d, want 3 (no aborted batch)", len(ev.Results))
	}
	if ev.PoliciesFailed != 1 {
		t.Errorf("PoliciesFailed = %d, want 1", ev.PoliciesFailed)
	}
	bad := ev.Results[1]
	if bad.Pass {
		t.Error("erroring rule should be recorded as failed")
	}
	if !strings.Contains(bad.Evidence, "evaluation error") || !strings.Contains(bad.Evidence, "backend unreachable") {
		t.Errorf("evidence should describe the error, got %q", bad.Evidence)
	}
}

func TestEvaluateRecoversPanics(t *testing.T) {
	panicRule := RuleFunc(func(ctx Context) (Outcome, error) {
		panic("nil map dereference")
	})

	e, err := NewEngine(discardLogger(),
		Policy{ID: "PANIC", Description: "panics", Severity: severity.Critical, Rule: panicRule},
		Policy{ID: "OK", Description: "fine", Severity: severity.Low, Rule: passRule()},
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ev := e.Evaluate(Context{})
	if len(ev.Results) != 2 {
		t.Fatalf("results = %d, want 2", len(ev.Results))
	}
	if ev.Results[0].Pass {
		t.Error("panicking rule should be recorded as failed")
	}
	if !strings.Contains(ev.Results[0].Evidence, "evaluation error") {
		t.Errorf("evidence should flag the evaluation error, got %q", ev.Results[0].Evidence)
	}
	if !ev.Results[1].Pass {
		t.Error("subsequent policies should still be evaluated")
	}
}

func TestEvaluateDefaultEvidence(t *testing.T) {
	e, err := NewEngine(discardLogger(),
		Policy{ID: "SILENT", Description: "no evidence", Severity: severity.Low, Rule: RuleFunc(func(ctx Context) (Outcome, error) {
			return Outcome{Pass: true}, nil
		})},
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ev := e.Evaluate(Context{})
	if ev.Results[0].Evidence != "no evidence provided" {
		t.Errorf("evidence = %q, want default", ev.Results[0].Evidence)
	}
}

func TestAddPolicyRejectsDuplicateID(t *testing.T) {
	e, err := NewEngine(discardLogger(),
		Policy{ID: "DUP", Description: "first", Severity: severity.Low, Rule: passRule()},
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	err = e.AddPolicy(Policy{ID: "DUP", Description: "second", Severity: severity.Low, Rule: passRule()})
	if err == nil {
		t.Error("duplicate policy ID should be rejected")
	}
	if e.Len() != 1 {
		t.Errorf("engine length = %d, want 1", e.Len())
	}
}

func TestAddPolicyValidates(t *testing.T) {
	e, _ := NewEngine(discardLogger())

	if err := e.AddPolicy(Policy{Description: "no id", Severity: severity.Low, Rule: passRule()}); err == nil {
		t.Error("policy without ID should be rejected")
	}
	if err := e.AddPolicy(Policy{ID: "NO-RULE", Severity: severity.Low}); err == nil {
		t.Error("policy without rule should be rejected")
	}
	if err := e.AddPolicy(Policy{ID: "BAD-SEV", Severity: "urgent", Rule: passRule()}); err == nil {
		t.Error("policy with unknown severity should be rejected")
	}
}

func TestFailedAndCriticalFilters(t *testing.T) {
	e, err := NewEngine(discardLogger(),
		Policy{ID: "CRIT-FAIL", Description: "a", Severity: severity.Critical, Rule: failRule("bad")},
		Policy{ID: "LOW-FAIL", Description: "b", Severity: severity.Low, Rule: failRule("bad")},
		Policy{ID: "CRIT-PASS", Description: "c", Severity: severity.Critical, Rule: passRule()},
	)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}

	ev := e.Evaluate(Context{})

	failed := ev.FailedPolicies()
	if len(failed) != 2 {
		t.Fatalf("FailedPolicies = %d, want 2", len(failed))
	}

	critical := ev.CriticalFailures()
	if len(critical) != 1 || critical[0].PolicyID != "CRIT-FAIL" {
		t.Errorf("CriticalFailures unexpected: %+v", critical)
	}
}

func TestContextAccessors(t *testing.T) {
	ctx := Context{
		"name":    "alice",
		"flag":    true,
		"ratio":   0.75,
		"count":   3,
		"nothing": nil,
	}

	if ctx.String("name") != "alice" || ctx.String("flag") != "" || ctx.String("missing") != "" {
		t.Error("String accessor misbehaved")
	}
	if !ctx.Bool("flag") || ctx.Bool("name") || ctx.Bool("missing") {
		t.Error("Bool accessor misbehaved")
	}
	if ctx.Float("ratio") != 0.75 || ctx.Float("count") != 3 || ctx.Float("name") != 0 {
		t.Error("Float accessor misbehaved")
	}
	if !ctx.Has("name") || ctx.Has("nothing") || ctx.Has("missing") {
		t.Error("Has accessor misbehaved")
	}
}
