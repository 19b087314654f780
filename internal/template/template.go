package template

import (
	"errors"

	"github.com/clarityai/clarity-go/internal/rule"
)

// #region errors
// ErrUnscorable is returned when no rule evaluated successfully (including the
// zero-rule template). It is distinct from a legitimate 0.0 score; callers
// must never report it as a real low score.
var ErrUnscorable = errors.New("template produced no defined score")

// #endregion errors

// #region types
// WeightedRule pairs a constructed rule with its configured weight. Identity
// is structural (type + params); many rules of the same type may coexist with
// different params.
type WeightedRule struct {
	Type   string
	Weight float64
	Params map[string]any

	impl rule.Rule
}

// Template is an ordered, weighted collection of rules that aggregates to one
// score. Templates are immutable value objects: loading the same document
// twice yields two independent, equal-by-value templates, and edits in
// surrounding tooling produce a new Template rather than mutating one.
type Template struct {
	Name        string
	Description string
	Rules       []WeightedRule
}

// #endregion types

// #region breakdown
// RuleScore is one rule's contribution to a breakdown. A rule that failed at
// evaluation carries Err and contributes zero weight to the total.
type RuleScore struct {
	Type     string  `json:"rule_type"`
	Weight   float64 `json:"weight"`
	Raw      float64 `json:"raw_score"`
	Weighted float64 `json:"weighted_score"`
	Err      string  `json:"error,omitempty"`
}

// Breakdown is the detailed result of one evaluation call, produced fresh per
// call and never mutated. Defined is false when no rule evaluated
// successfully; Overall is meaningless in that case.
type Breakdown struct {
	Overall     float64     `json:"overall"`
	Defined     bool        `json:"defined"`
	TotalWeight float64     `json:"total_weight"`
	Rules       []RuleScore `json:"rule_scores"`
}

// #endregion breakdown

// #region evaluate
// Evaluate scores text as the weighted average over rules that evaluated
// successfully. Returns ErrUnscorable when no rule succeeded.
func (t *Template) Evaluate(text string) (float64, error) {
	b := t.EvaluateDetailed(text)
	if !b.Defined {
		return 0, ErrUnscorable
	}
	return b.Overall, nil
}

// EvaluateDetailed scores text and reports each rule's contribution. A rule
// error degrades that rule to a zero-weighted error entry instead of aborting
// the call. The total weight is computed fresh on every call.
func (t *Template) EvaluateDetailed(text string) Breakdown {
	scores := make([]RuleScore, 0, len(t.Rules))
	var weightedSum, totalWeight float64

	for _, wr := range t.Rules {
		raw, err := wr.impl.Evaluate(text)
		if err != nil {
			scores = append(scores, RuleScore{
				Type:   wr.Type,
				Weight: wr.Weight,
				Err:    err.Error(),
			})
			continue
		}
		raw = clamp01(raw)
		scores = append(scores, RuleScore{
			Type:     wr.Type,
			Weight:   wr.Weight,
			Raw:      raw,
			Weighted: raw * wr.Weight,
		})
		weightedSum += raw * wr.Weight
		totalWeight += wr.Weight
	}

	if totalWeight == 0 {
		return Breakdown{Defined: false, Rules: scores}
	}
	return Breakdown{
		Overall:     weightedSum / totalWeight,
		Defined:     true,
		TotalWeight: totalWeight,
		Rules:       scores,
	}
}

// #endregion evaluate

// #region clamp
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// #endregion clamp
