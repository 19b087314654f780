package trainer

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/clarityai/clarity-go/internal/ledger"
	"github.com/clarityai/clarity-go/internal/policy"
	"github.com/clarityai/clarity-go/internal/reward"
	"github.com/clarityai/clarity-go/internal/template"
)

// #region collaborators
// PolicyClient is the slice of the policy service the trainer drives.
type PolicyClient interface {
	LoadModel(ctx context.Context, model string) error
	Generate(ctx context.Context, prompts []string, params policy.GenerationParams) ([]policy.Generation, error)
	ApplyUpdate(ctx context.Context, items []policy.UpdateItem, learningRate float64) (policy.UpdateStats, error)
	SaveCheckpoint(ctx context.Context, path string) (string, error)
}

// RunStore persists run record snapshots. Append must be idempotent by run
// id. The trainer takes the store as an injected collaborator so tests can
// substitute an in-memory one.
type RunStore interface {
	Append(rec ledger.RunRecord) error
}

// #endregion collaborators

// #region trainer
// Trainer runs the generate, score, update loop against a policy model.
// Steps are strictly sequential: each update depends on the previous step's
// parameters. There is no step-level retry, since a corrupted optimizer state
// cannot safely resume, and no early stopping: a successful run always
// executes the configured step count.
type Trainer struct {
	cfg     Config
	tpl     *template.Template
	policy  PolicyClient
	store   RunStore
	adapter *reward.Adapter
	prompts []string
	state   State
}

// New wires a trainer. The config is validated here, before anything is
// loaded or persisted.
func New(cfg Config, tpl *template.Template, client PolicyClient, store RunStore, prompts []string) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, fmt.Errorf("trainer requires a template")
	}
	if len(prompts) == 0 {
		prompts = DefaultPrompts()
	}
	return &Trainer{
		cfg:     cfg,
		tpl:     tpl,
		policy:  client,
		store:   store,
		adapter: reward.NewAdapter(tpl, cfg.BatchSize),
		prompts: prompts,
		state:   StateIdle,
	}, nil
}

// State reports the trainer's current lifecycle state.
func (t *Trainer) State() State {
	return t.state
}

// #endregion trainer

// #region run-id
// newRunID mints a time-derived id with run-scoped randomness, unique even
// for two runs started the same instant.
func newRunID(now time.Time) string {
	return fmt.Sprintf("run_%s_%s", now.Format("20060102_150405"), uuid.NewString()[:8])
}

// #endregion run-id

// #region run
// Run executes the full training loop and returns the terminal run record.
// Initialization failures (model not found) are reported synchronously and
// leave no "running" record behind. A failure inside a step aborts the whole
// run with the partial reward history preserved for diagnosis.
func (t *Trainer) Run(ctx context.Context) (ledger.RunRecord, error) {
	t.state = StateInitializing

	if err := t.policy.LoadModel(ctx, t.cfg.Model); err != nil {
		t.state = StateFailed
		return ledger.RunRecord{}, fmt.Errorf("initialize: %w", err)
	}

	now := time.Now().UTC()
	rec := ledger.RunRecord{
		RunID:        newRunID(now),
		Status:       ledger.StatusRunning,
		Model:        t.cfg.Model,
		TemplateName: t.tpl.Name,
		ConfigJSON:   t.cfg.JSON(),
		StepRewards:  []float64{},
		StartedAt:    now,
	}
	t.appendSnapshot(rec)

	log.Printf("[TRAIN] %s: model=%s template=%s steps=%d batch=%d",
		rec.RunID, t.cfg.Model, t.tpl.Name, t.cfg.Steps, t.cfg.BatchSize)

	t.state = StateRunning
	params := policy.GenerationParams{
		MaxNewTokens: t.cfg.MaxNewTokens,
		Temperature:  t.cfg.Temperature,
		TopK:         t.cfg.TopK,
		TopP:         t.cfg.TopP,
	}

	for step := 1; step <= t.cfg.Steps; step++ {
		// Early termination happens at step granularity only.
		if err := ctx.Err(); err != nil {
			return t.fail(rec, step, err)
		}

		prompts := promptBatch(t.prompts, t.cfg.BatchSize, step-1)
		gens, err := t.policy.Generate(ctx, prompts, params)
		if err != nil {
			return t.fail(rec, step, err)
		}

		texts := make([]string, len(gens))
		for i, g := range gens {
			texts[i] = g.Text
		}
		rewards := t.adapter.Score(ctx, texts)

		items := make([]policy.UpdateItem, len(gens))
		for i := range gens {
			items[i] = policy.UpdateItem{
				Prompt:     prompts[i],
				Completion: gens[i].Text,
				Reward:     rewards[i],
			}
		}
		stats, err := t.policy.ApplyUpdate(ctx, items, t.cfg.LearningRate)
		if err != nil {
			return t.fail(rec, step, err)
		}

		meanReward := reward.Mean(rewards)
		rec.StepRewards = append(rec.StepRewards, meanReward)
		log.Printf("[TRAIN] %s: step %d/%d reward=%.4f loss=%.4f",
			rec.RunID, step, t.cfg.Steps, meanReward, stats.Loss)

		t.appendSnapshot(rec)

		if t.cfg.SaveEvery > 0 && step%t.cfg.SaveEvery == 0 {
			path := filepath.Join(t.cfg.OutputDir, rec.RunID, fmt.Sprintf("checkpoint-%d", step))
			if _, err := t.policy.SaveCheckpoint(ctx, path); err != nil {
				return t.fail(rec, step, err)
			}
			log.Printf("[TRAIN] %s: checkpoint %s", rec.RunID, path)
		}
	}

	finalPath := filepath.Join(t.cfg.OutputDir, rec.RunID, "final")
	artifact, err := t.policy.SaveCheckpoint(ctx, finalPath)
	if err != nil {
		return t.fail(rec, t.cfg.Steps, err)
	}

	rec.Status = ledger.StatusCompleted
	rec.CompletedAt = time.Now().UTC()
	rec.ArtifactPath = artifact
	if err := t.store.Append(rec); err != nil {
		t.state = StateFailed
		return rec, fmt.Errorf("persist final record: %w", err)
	}

	t.state = StateCompleted
	log.Printf("[TRAIN] %s: completed, mean reward %.4f, artifact %s",
		rec.RunID, rec.MeanReward(), rec.ArtifactPath)
	return rec, nil
}

// #endregion run

// #region failure
// fail finalizes the record with the failing step number and the reward
// history accumulated so far.
func (t *Trainer) fail(rec ledger.RunRecord, step int, cause error) (ledger.RunRecord, error) {
	rec.Status = ledger.StatusFailed
	rec.FailureReason = fmt.Sprintf("step %d: %v", step, cause)
	rec.CompletedAt = time.Now().UTC()
	t.appendSnapshot(rec)

	t.state = StateFailed
	log.Printf("[TRAIN] %s: failed at step %d after %d rewarded steps: %v",
		rec.RunID, step, len(rec.StepRewards), cause)
	return rec, fmt.Errorf("training run %s failed at step %d: %w", rec.RunID, step, cause)
}

// appendSnapshot persists an in-progress snapshot. Snapshot persistence is
// for crash recoverability, not correctness, so a write failure here is
// logged rather than fatal.
func (t *Trainer) appendSnapshot(rec ledger.RunRecord) {
	if err := t.store.Append(rec); err != nil {
		log.Printf("[TRAIN] %s: ledger snapshot failed: %v", rec.RunID, err)
	}
}

// #endregion failure
