package policy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// #region client
// Client wraps the HTTP connection to the Python policy service, which owns
// the model weights, tokenizer, and optimizer. The controller side stays
// model-agnostic: it only moves prompts, completions, and rewards.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a client for the policy service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 5 * time.Minute},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
	}
}

// #endregion client

// #region load-model
// LoadModel asks the service to load the given model and tokenizer. Called
// once during trainer initialization; failure aborts the run before any step.
func (c *Client) LoadModel(ctx context.Context, model string) error {
	req := struct {
		Model string `json:"model"`
	}{Model: model}
	var resp struct {
		Model string `json:"model"`
	}
	if err := c.post(ctx, "/v1/model/load", req, &resp); err != nil {
		return fmt.Errorf("load model %s: %w", model, err)
	}
	return nil
}

// #endregion load-model

// #region generate
// Generate samples one continuation per prompt from the current policy.
// The response preserves prompt order.
func (c *Client) Generate(ctx context.Context, prompts []string, params GenerationParams) ([]Generation, error) {
	req := struct {
		Prompts []string `json:"prompts"`
		GenerationParams
	}{Prompts: prompts, GenerationParams: params}

	var resp struct {
		Generations []Generation `json:"generations"`
	}
	if err := c.post(ctx, "/v1/generate", req, &resp); err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if len(resp.Generations) != len(prompts) {
		return nil, fmt.Errorf("generate: got %d generations for %d prompts",
			len(resp.Generations), len(prompts))
	}
	return resp.Generations, nil
}

// #endregion generate

// #region apply-update
// ApplyUpdate applies one policy-gradient step from a batch of
// (prompt, completion, reward) items.
func (c *Client) ApplyUpdate(ctx context.Context, items []UpdateItem, learningRate float64) (UpdateStats, error) {
	req := struct {
		Items        []UpdateItem `json:"items"`
		LearningRate float64      `json:"learning_rate"`
	}{Items: items, LearningRate: learningRate}

	var stats UpdateStats
	if err := c.post(ctx, "/v1/update", req, &stats); err != nil {
		return UpdateStats{}, fmt.Errorf("apply update: %w", err)
	}
	return stats, nil
}

// #endregion apply-update

// #region checkpoint
// SaveCheckpoint persists the current policy weights to path on the service
// host and returns the path written.
func (c *Client) SaveCheckpoint(ctx context.Context, path string) (string, error) {
	req := struct {
		Path string `json:"path"`
	}{Path: path}
	var resp struct {
		Path string `json:"path"`
	}
	if err := c.post(ctx, "/v1/checkpoint", req, &resp); err != nil {
		return "", fmt.Errorf("save checkpoint: %w", err)
	}
	return resp.Path, nil
}

// #endregion checkpoint

// #region embed
// Embed returns the service's embedding for text. Satisfies rule.Embedder for
// the embedding_sim rule type.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	req := struct {
		Text string `json:"text"`
	}{Text: text}
	var resp struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := c.post(ctx, "/v1/embed", req, &resp); err != nil {
		return nil, fmt.Errorf("embed: %w", err)
	}
	return resp.Embedding, nil
}

// #endregion embed

// #region post
// post sends a JSON request and decodes a JSON response, surfacing non-2xx
// statuses with the response body for diagnosis.
func (c *Client) post(ctx context.Context, path string, reqBody, respBody any) error {
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("policy service call failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("policy service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if respBody == nil {
		return nil
	}
	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// #endregion post
