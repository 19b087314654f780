package rule

import (
	"context"
	"errors"
)

// #region rule-interface
// Rule is a single named text-evaluation strategy. Evaluate returns a score
// clamped to [0,1]. Implementations must be deterministic and side-effect-free,
// and must not fail on unexpected-but-well-formed input (empty text, very long
// text, non-ASCII text); those score as "no match" instead. An error from
// Evaluate is reserved for external dependencies (e.g. an unreachable model
// server) and is isolated by the template, never fatal to a scoring call.
type Rule interface {
	Type() string
	Evaluate(text string) (float64, error)
}

// #endregion rule-interface

// #region embedder
// Embedder produces a vector embedding for text. The embedding_sim rule uses
// it; the policy client satisfies this interface.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// #endregion embedder

// #region errors
// ErrUnknownRuleType is returned when constructing a rule whose type name has
// no registered constructor.
var ErrUnknownRuleType = errors.New("unknown rule type")

// #endregion errors

// #region clamp
// clamp01 bounds a score to [0,1].
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
