package guardrail

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/ogulcanaydogan/govcore/pkg/severity"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// cleanReport is complete, confident, and free of banned or protected terms.
func cleanReport() map[string]any {
	return map[string]any{
		"contract_type": "MSA",
		"risks":         []string{"auto-renewal clause"},
		"summary":       "Standard master service contract with one notable clause.",
		"confidence":    0.95,
	}
}

func issuesOfType(v *Verdict, typ IssueType) []Issue {
	var out []Issue
	for _, i := range v.Issues {
		if i.Type == typ {
			out = append(out, i)
		}
	}
	return out
}

func TestCleanReportPasses(t *testing.T) {
	g := NewDefault(discardLogger())

	v, err := g.Run(cleanReport())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !v.Passed {
		t.Errorf("clean report should pass, issues: %+v", v.Issues)
	}
	if len(v.Issues) != 0 {
		t.Errorf("clean report should have no issues, got %d", len(v.Issues))
	}
	if v.RequiresHumanReview {
		t.Error("clean report should not require human review")
	}
	if len(v.Actions) != 0 {
		t.Errorf("clean report should have no actions, got %v", v.Actions)
	}
}

func TestBannedPhraseTriggersContentSafety(t *testing.T) {
	g := NewDefault(discardLogger())

	report := cleanReport()
	report["summary"] = "The vendor may Terminate Without Cause under clause 4."

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.Passed {
		t.Error("banned phrase should fail the report")
	}
	found := issuesOfType(v, IssueContentSafety)
	if len(found) != 1 {
		t.Fatalf("content_safety issues = %d, want 1", len(found))
	}
	if found[0].Severity != severity.High {
		t.Errorf("content_safety severity = %s, want high", found[0].Severity)
	}
	if found[0].Phrase != "terminate without cause" {
		t.Errorf("phrase = %q, want the banned phrase", found[0].Phrase)
	}
	if !containsAction(v.Actions, "content review") {
		t.Errorf("actions should include content review, got %v", v.Actions)
	}
}

func TestProtectedTermTriggersBiasIndicator(t *testing.T) {
	g := NewDefault(discardLogger())

	report := cleanReport()
	report["summary"] = "Coverage excludes any employee who is pregnant."

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := issuesOfType(v, IssueBiasIndicator)
	if len(found) != 1 {
		t.Fatalf("bias_indicator issues = %d, want 1: %+v", len(found), v.Issues)
	}
	if found[0].Severity != severity.Medium {
		t.Errorf("bias severity = %s, want medium", found[0].Severity)
	}
	if found[0].Term != "pregnant" {
		t.Errorf("term = %q, want pregnant", found[0].Term)
	}
}

func TestBiasMatchesWordBoundariesOnly(t *testing.T) {
	g := NewDefault(discardLogger())

	// "coverage", "damage", and "language" contain "age" but not on a word
	// boundary.
	report := cleanReport()
	report["summary"] = "Damage coverage language is standard."

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if found := issuesOfType(v, IssueBiasIndicator); len(found) != 0 {
		t.Errorf("substring matches should not trigger bias issues: %+v", found)
	}
}

func TestLowConfidenceTriggersIssue(t *testing.T) {
	g := NewDefault(discardLogger())

	report := cleanReport()
	report["confidence"] = 0.4

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := issuesOfType(v, IssueLowConfidence)
	if len(found) != 1 {
		t.Fatalf("low_confidence issues = %d, want 1", len(found))
	}
	if found[0].Severity != severity.High {
		t.Errorf("low_confidence severity = %s, want high", found[0].Severity)
	}
	if found[0].Confidence != 0.4 || found[0].Threshold != DefaultConfidenceThreshold {
		t.Errorf("confidence fields unexpected: %+v", found[0])
	}
	if !containsAction(v.Actions, "human reviewer") {
		t.Errorf("actions should include escalation, got %v", v.Actions)
	}
}

func TestMissingFieldTriggersIncompleteAnalysis(t *testing.T) {
	g := NewDefault(discardLogger())

	report := cleanReport()
	delete(report, "summary")

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := issuesOfType(v, IssueIncompleteAnalysis)
	if len(found) != 1 {
		t.Fatalf("incomplete_analysis issues = %d, want 1", len(found))
	}
	if found[0].Severity != severity.Critical {
		t.Errorf("incomplete severity = %s, want critical", found[0].Severity)
	}
	if len(found[0].MissingFields) != 1 || found[0].MissingFields[0] != "summary" {
		t.Errorf("missing fields = %v, want [summary]", found[0].MissingFields)
	}
	if !v.RequiresHumanReview {
		t.Error("critical issue should require human review")
	}
	if v.SeverityCounts.Critical != 1 {
		t.Errorf("critical count = %d, want 1", v.SeverityCounts.Critical)
	}
}

func TestMissingFieldsAreListedTogether(t *testing.T) {
	g := NewDefault(discardLogger())

	report := map[string]any{"confidence": 0.9}

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := issuesOfType(v, IssueIncompleteAnalysis)
	if len(found) != 1 {
		t.Fatalf("want a single incomplete_analysis issue, got %d", len(found))
	}
	if len(found[0].MissingFields) != 3 {
		t.Errorf("missing fields = %v, want all three", found[0].MissingFields)
	}
}

func TestOneActionPerCategory(t *testing.T) {
	g := NewDefault(discardLogger())

	// Two banned phrases but only one content-review action.
	report := cleanReport()
	report["summary"] = "We may refuse service and deny access to applicants."

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := issuesOfType(v, IssueContentSafety); len(got) < 2 {
		t.Fatalf("expected multiple content issues, got %d", len(got))
	}
	contentActions := 0
	for _, a := range v.Actions {
		if strings.Contains(a, "content review") {
			contentActions++
		}
	}
	if contentActions != 1 {
		t.Errorf("content review actions = %d, want 1", contentActions)
	}
}

func TestDisabledChecksDoNotRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnableContentSafety = false
	cfg.EnableBiasDetection = false
	cfg.EnableConfidenceCheck = false
	g := New(cfg, discardLogger())

	report := map[string]any{
		"summary":    "terminate without cause against pregnant employees",
		"confidence": 0.1,
	}

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !v.Passed {
		t.Errorf("all checks disabled should pass anything, issues: %+v", v.Issues)
	}
}

func TestExtraTermsExtendBuiltins(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExtraBannedPhrases = []string{"proprietary blacklist"}
	cfg.ExtraProtectedTerms = []string{"union membership"}
	g := New(cfg, discardLogger())

	report := cleanReport()
	report["summary"] = "Applies a proprietary blacklist based on union membership."

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(issuesOfType(v, IssueContentSafety)) != 1 {
		t.Error("extra banned phrase should be matched")
	}
	if len(issuesOfType(v, IssueBiasIndicator)) != 1 {
		t.Error("extra protected term should be matched")
	}
}

func TestCustomChecksRunAndMerge(t *testing.T) {
	g := NewDefault(discardLogger())
	err := g.AddCheck("jurisdiction", func(report map[string]any) []Issue {
		if _, ok := report["jurisdiction"]; !ok {
			return []Issue{{
				Type:     "missing_jurisdiction",
				Message:  "report does not name a governing jurisdiction",
				Severity: severity.Medium,
			}}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("AddCheck: %v", err)
	}

	v, err := g.Run(cleanReport())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v.Passed {
		t.Error("custom check issue should fail the verdict")
	}
	if len(v.Issues) != 1 || v.Issues[0].Type != "missing_jurisdiction" {
		t.Fatalf("issues unexpected: %+v", v.Issues)
	}
	if v.Issues[0].Check != "jurisdiction" {
		t.Errorf("issue should carry the check name, got %q", v.Issues[0].Check)
	}
	if !containsAction(v.Actions, "jurisdiction") {
		t.Errorf("actions should reference the check, got %v", v.Actions)
	}
}

func TestCustomCheckPanicIsIsolated(t *testing.T) {
	g := NewDefault(discardLogger())
	if err := g.AddCheck("explodes", func(report map[string]any) []Issue {
		panic("boom")
	}); err != nil {
		t.Fatalf("AddCheck: %v", err)
	}

	v, err := g.Run(cleanReport())
	if err != nil {
		t.Fatalf("Run should not propagate check panics: %v", err)
	}
	found := issuesOfType(v, IssueCheckFailure)
	if len(found) != 1 {
		t.Fatalf("check_failure issues = %d, want 1", len(found))
	}
	if found[0].Check != "explodes" {
		t.Errorf("failure should name the check, got %q", found[0].Check)
	}
}

func TestAddCheckValidates(t *testing.T) {
	g := NewDefault(discardLogger())
	if err := g.AddCheck("", func(map[string]any) []Issue { return nil }); err == nil {
		t.Error("empty check name should be rejected")
	}
	if err := g.AddCheck("nil-fn", nil); err == nil {
		t.Error("nil check function should be rejected")
	}
	if err := g.AddCheck("dup", func(map[string]any) []Issue { return nil }); err != nil {
		t.Fatalf("AddCheck: %v", err)
	}
	if err := g.AddCheck("dup", func(map[string]any) []Issue { return nil }); err == nil {
		t.Error("duplicate check name should be rejected")
	}
}

func TestRunRejectsNonSerializableReport(t *testing.T) {
	g := NewDefault(discardLogger())
	if _, err := g.Run(map[string]any{"ch": make(chan int)}); err == nil {
		t.Error("non-serializable report should fail Run")
	}
}

func TestSeverityCountsTally(t *testing.T) {
	g := NewDefault(discardLogger())

	report := map[string]any{
		"contract_type": "MSA",
		"risks":         []string{},
		// missing summary -> critical; banned phrase -> high; protected term -> medium
		"confidence": 0.9,
		"notes":      "may discriminate based on religion",
	}

	v, err := g.Run(report)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	counts := v.SeverityCounts
	if counts.Critical != 1 {
		t.Errorf("critical = %d, want 1", counts.Critical)
	}
	if counts.High != 1 {
		t.Errorf("high = %d, want 1", counts.High)
	}
	if counts.Medium != 1 {
		t.Errorf("medium = %d, want 1", counts.Medium)
	}
	if counts.Total() != len(v.Issues) {
		t.Errorf("counts total = %d, issues = %d", counts.Total(), len(v.Issues))
	}
}

func containsAction(actions []string, substr string) bool {
	for _, a := range actions {
		if strings.Contains(a, substr) {
			return true
		}
	}
	return false
}
