package policy

// #region generation
// GenerationParams controls sampling on the policy service.
type GenerationParams struct {
	MaxNewTokens int     `json:"max_new_tokens"`
	Temperature  float64 `json:"temperature"`
	TopK         int     `json:"top_k"`
	TopP         float64 `json:"top_p"`
}

// Generation is one sampled continuation with the service's mean token
// entropy, kept for run diagnostics.
type Generation struct {
	Text    string  `json:"text"`
	Entropy float64 `json:"entropy"`
}

// #endregion generation

// #region update
// UpdateItem is one (generation, reward) pair consumed by a policy-update
// step.
type UpdateItem struct {
	Prompt     string  `json:"prompt"`
	Completion string  `json:"completion"`
	Reward     float64 `json:"reward"`
}

// UpdateStats reports the optimizer step the service applied.
type UpdateStats struct {
	Loss     float64 `json:"loss"`
	GradNorm float64 `json:"grad_norm"`
}

// #endregion update
