package template

import (
	"errors"
	"fmt"
	"testing"

	"github.com/clarityai/clarity-go/internal/rule"
)

const helpTemplate = `
name: help-rubric
description: rewards helpful, well-sized answers
rules:
  - type: contains_phrase
    weight: 2.0
    params:
      phrase: help
  - type: word_count
    weight: 1.0
    params:
      min_words: 3
      max_words: 10
`

func loadHelpTemplate(t *testing.T) *Template {
	t.Helper()
	tpl, err := Load([]byte(helpTemplate), rule.Default())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	return tpl
}

func TestWeightedAverageScenario(t *testing.T) {
	tpl := loadHelpTemplate(t)

	// 5 words, contains "help": both rules hit, overall (2*1 + 1*1)/3 = 1.0.
	got, err := tpl.Evaluate("I can help you now")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 1.0 {
		t.Fatalf("expected 1.0, got %f", got)
	}

	// 1 word, no phrase: both rules miss, overall 0.0 (a real score, not an error).
	got, err = tpl.Evaluate("no")
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if got != 0.0 {
		t.Fatalf("expected 0.0, got %f", got)
	}
}

func TestZeroRuleTemplateIsUnscorable(t *testing.T) {
	tpl, err := FromDocument(Document{Name: "empty"}, rule.Default())
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	_, err = tpl.Evaluate("any text")
	if !errors.Is(err, ErrUnscorable) {
		t.Fatalf("expected ErrUnscorable, got %v", err)
	}

	b := tpl.EvaluateDetailed("any text")
	if b.Defined {
		t.Fatal("breakdown must be undefined for a zero-rule template")
	}
}

func TestEvaluateMatchesDetailedOverall(t *testing.T) {
	tpl := loadHelpTemplate(t)

	for _, text := range []string{"I can help you now", "no", "", "a longer helpful answer with several words"} {
		got, err := tpl.Evaluate(text)
		if err != nil {
			t.Fatalf("Evaluate(%q): %v", text, err)
		}
		b := tpl.EvaluateDetailed(text)
		if !b.Defined {
			t.Fatalf("breakdown undefined for %q", text)
		}
		if got != b.Overall {
			t.Fatalf("Evaluate %f != breakdown overall %f for %q", got, b.Overall, text)
		}
	}
}

func TestOverallWithinBounds(t *testing.T) {
	tpl := loadHelpTemplate(t)

	texts := []string{"", "help", "one two three help words here", "x y z"}
	for _, text := range texts {
		b := tpl.EvaluateDetailed(text)
		if b.Defined && (b.Overall < 0 || b.Overall > 1) {
			t.Fatalf("overall %f out of [0,1] for %q", b.Overall, text)
		}
	}
}

func TestOrderInvariance(t *testing.T) {
	reversed := `
name: help-rubric
rules:
  - type: word_count
    weight: 1.0
    params:
      min_words: 3
      max_words: 10
  - type: contains_phrase
    weight: 2.0
    params:
      phrase: help
`
	a := loadHelpTemplate(t)
	b, err := Load([]byte(reversed), rule.Default())
	if err != nil {
		t.Fatalf("Load reversed: %v", err)
	}

	for _, text := range []string{"I can help you now", "no", "short help"} {
		sa, _ := a.Evaluate(text)
		sb, _ := b.Evaluate(text)
		if sa != sb {
			t.Fatalf("order changed the score for %q: %f vs %f", text, sa, sb)
		}
	}
}

func TestDeterminism(t *testing.T) {
	tpl := loadHelpTemplate(t)
	text := "please help me with a clear answer"

	first, _ := tpl.Evaluate(text)
	for i := 0; i < 10; i++ {
		again, _ := tpl.Evaluate(text)
		if again != first {
			t.Fatalf("evaluation %d differs: %f vs %f", i, again, first)
		}
	}
}

func TestFailingRuleIsIsolated(t *testing.T) {
	rule.Default().Register("always_errors", func(params map[string]any) (rule.Rule, error) {
		return erroringRule{}, nil
	})

	doc := Document{
		Name: "partial",
		Rules: []RuleDoc{
			{Type: "always_errors", Weight: 5.0},
			{Type: "contains_phrase", Weight: 1.0, Params: map[string]any{"phrase": "help"}},
		},
	}
	tpl, err := FromDocument(doc, rule.Default())
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	b := tpl.EvaluateDetailed("I can help")
	if !b.Defined {
		t.Fatal("one failing rule must not make the template unscorable")
	}
	// Failing rule's weight is excluded: overall comes from contains_phrase alone.
	if b.Overall != 1.0 {
		t.Fatalf("expected 1.0 from the surviving rule, got %f", b.Overall)
	}
	if b.TotalWeight != 1.0 {
		t.Fatalf("failing rule's weight must be excluded, total %f", b.TotalWeight)
	}
	if b.Rules[0].Err == "" {
		t.Fatal("failing rule must be flagged in the breakdown")
	}
	if b.Rules[0].Weighted != 0 {
		t.Fatalf("failing rule must contribute zero, got %f", b.Rules[0].Weighted)
	}
}

func TestAllRulesFailingIsUnscorable(t *testing.T) {
	rule.Default().Register("always_errors2", func(params map[string]any) (rule.Rule, error) {
		return erroringRule{}, nil
	})

	doc := Document{
		Name:  "doomed",
		Rules: []RuleDoc{{Type: "always_errors2", Weight: 1.0}},
	}
	tpl, err := FromDocument(doc, rule.Default())
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}

	if _, err := tpl.Evaluate("text"); !errors.Is(err, ErrUnscorable) {
		t.Fatalf("expected ErrUnscorable when every rule fails, got %v", err)
	}
}

type erroringRule struct{}

func (erroringRule) Type() string { return "always_errors" }
func (erroringRule) Evaluate(text string) (float64, error) {
	return 0, fmt.Errorf("optional dependency missing")
}
