package rule

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"
)

// #region register
// RegisterEmbeddingSim adds the embedding_sim rule type to a registry, bound
// to the given embedder. The type is only available when a model server is
// configured, which is why it is not part of the built-in set.
func RegisterEmbeddingSim(reg *Registry, embedder Embedder, timeout time.Duration) {
	reg.Register("embedding_sim", func(params map[string]any) (Rule, error) {
		target, ok := stringParam(params, "target")
		if !ok || target == "" {
			return nil, fmt.Errorf("missing required param %q", "target")
		}
		return &embeddingSim{
			target:   target,
			embedder: embedder,
			timeout:  timeout,
		}, nil
	})
}

// #endregion register

// #region embedding-sim
// embeddingSim scores cosine similarity between the text's embedding and the
// configured target's embedding, mapped to [0,1]. The target embedding is
// fetched once and cached. Embed failures surface as evaluation errors so the
// template can isolate them as zero-weighted entries.
type embeddingSim struct {
	target   string
	embedder Embedder
	timeout  time.Duration

	mu        sync.Mutex
	targetEmb []float64
}

func (r *embeddingSim) Type() string { return "embedding_sim" }

func (r *embeddingSim) Evaluate(text string) (float64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	targetEmb, err := r.targetEmbedding(ctx)
	if err != nil {
		return 0, fmt.Errorf("embed target: %w", err)
	}
	textEmb, err := r.embedder.Embed(ctx, text)
	if err != nil {
		return 0, fmt.Errorf("embed text: %w", err)
	}

	// Cosine in [-1,1] mapped to [0,1].
	cos := cosineSimilarity(targetEmb, textEmb)
	return clamp01((cos + 1) / 2), nil
}

func (r *embeddingSim) targetEmbedding(ctx context.Context) ([]float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.targetEmb != nil {
		return r.targetEmb, nil
	}
	emb, err := r.embedder.Embed(ctx, r.target)
	if err != nil {
		return nil, err
	}
	r.targetEmb = emb
	return emb, nil
}

// #endregion embedding-sim

// #region cosine
// cosineSimilarity computes the cosine of two vectors; mismatched or
// zero-norm inputs score 0.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// #endregion cosine
