package reward

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/clarityai/clarity-go/internal/template"
)

// #region adapter
// Adapter turns a template's score into a training reward. Rewards stay in
// [0,1], which is already a stable range for the policy-gradient step; an
// unscorable text (empty rubric, every rule failed) becomes reward 0.0 so it
// is never mistaken for a high reward.
type Adapter struct {
	tpl         *template.Template
	parallelism int
}

// NewAdapter creates an adapter over an immutable template. parallelism bounds
// concurrent scoring within a batch; values < 1 mean sequential.
func NewAdapter(tpl *template.Template, parallelism int) *Adapter {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Adapter{tpl: tpl, parallelism: parallelism}
}

// #endregion adapter

// #region score-one
// ScoreOne computes the reward for a single text.
func (a *Adapter) ScoreOne(text string) float64 {
	score, err := a.tpl.Evaluate(text)
	if err != nil {
		return 0.0
	}
	return clamp01(score)
}

// #endregion score-one

// #region score-batch
// Score computes rewards for a batch of generated texts. Items are scored
// independently and order is preserved; the template is immutable, so
// concurrent scoring cannot change any output value.
func (a *Adapter) Score(ctx context.Context, texts []string) []float64 {
	rewards := make([]float64, len(texts))
	if len(texts) == 0 {
		return rewards
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(a.parallelism)
	for i, text := range texts {
		i, text := i, text
		g.Go(func() error {
			rewards[i] = a.ScoreOne(text)
			return nil
		})
	}
	g.Wait()
	return rewards
}

// #endregion score-batch

// #region helpers
func clamp01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

// Mean returns the arithmetic mean of rewards, or 0 for an empty batch.
func Mean(rewards []float64) float64 {
	if len(rewards) == 0 {
		return 0
	}
	var sum float64
	for _, r := range rewards {
		sum += r
	}
	return sum / float64(len(rewards))
}

// #endregion helpers
