package trainer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/clarityai/clarity-go/internal/ledger"
	"github.com/clarityai/clarity-go/internal/policy"
	"github.com/clarityai/clarity-go/internal/rule"
	"github.com/clarityai/clarity-go/internal/template"
)

// memStore is an in-memory RunStore keeping the latest snapshot per run id.
type memStore struct {
	snapshots map[string]ledger.RunRecord
	appends   int
}

func newMemStore() *memStore {
	return &memStore{snapshots: make(map[string]ledger.RunRecord)}
}

func (m *memStore) Append(rec ledger.RunRecord) error {
	cp := rec
	cp.StepRewards = append([]float64(nil), rec.StepRewards...)
	m.snapshots[rec.RunID] = cp
	m.appends++
	return nil
}

func (m *memStore) only(t *testing.T) ledger.RunRecord {
	t.Helper()
	if len(m.snapshots) != 1 {
		t.Fatalf("expected exactly 1 run in store, got %d", len(m.snapshots))
	}
	for _, rec := range m.snapshots {
		return rec
	}
	return ledger.RunRecord{}
}

// fakePolicy scripts the policy service for tests.
type fakePolicy struct {
	loadErr      error
	generateText string
	updateCalls  int
	failUpdateAt int // 1-based update call that fails, 0 = never
	checkpoints  []string
}

func (f *fakePolicy) LoadModel(ctx context.Context, model string) error {
	return f.loadErr
}

func (f *fakePolicy) Generate(ctx context.Context, prompts []string, params policy.GenerationParams) ([]policy.Generation, error) {
	gens := make([]policy.Generation, len(prompts))
	for i := range prompts {
		gens[i] = policy.Generation{Text: f.generateText, Entropy: 0.5}
	}
	return gens, nil
}

func (f *fakePolicy) ApplyUpdate(ctx context.Context, items []policy.UpdateItem, lr float64) (policy.UpdateStats, error) {
	f.updateCalls++
	if f.failUpdateAt > 0 && f.updateCalls == f.failUpdateAt {
		return policy.UpdateStats{}, fmt.Errorf("loss is NaN")
	}
	return policy.UpdateStats{Loss: 0.2, GradNorm: 1.0}, nil
}

func (f *fakePolicy) SaveCheckpoint(ctx context.Context, path string) (string, error) {
	f.checkpoints = append(f.checkpoints, path)
	return path, nil
}

func helpTemplate(t *testing.T) *template.Template {
	t.Helper()
	doc := template.Document{
		Name: "help-rubric",
		Rules: []template.RuleDoc{
			{Type: "contains_phrase", Weight: 2.0, Params: map[string]any{"phrase": "help"}},
			{Type: "word_count", Weight: 1.0, Params: map[string]any{"min_words": 3, "max_words": 10}},
		},
	}
	tpl, err := template.FromDocument(doc, rule.Default())
	if err != nil {
		t.Fatalf("FromDocument: %v", err)
	}
	return tpl
}

func testConfig(steps int) Config {
	cfg := DefaultConfig()
	cfg.TemplatePath = "templates/help.yaml"
	cfg.Steps = steps
	cfg.BatchSize = 4
	cfg.SaveEvery = 2
	return cfg
}

func TestSuccessfulRunStepCountInvariant(t *testing.T) {
	store := newMemStore()
	pol := &fakePolicy{generateText: "I can help you now"}

	tr, err := New(testConfig(3), helpTemplate(t), pol, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec, err := tr.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if tr.State() != StateCompleted {
		t.Fatalf("expected completed state, got %s", tr.State())
	}
	if rec.Status != ledger.StatusCompleted {
		t.Fatalf("expected completed record, got %s", rec.Status)
	}
	if len(rec.StepRewards) != 3 {
		t.Fatalf("a successful run must have exactly steps entries: got %d", len(rec.StepRewards))
	}
	// Every generation scores 1.0 against the rubric.
	for i, r := range rec.StepRewards {
		if r != 1.0 {
			t.Fatalf("step %d: expected reward 1.0, got %f", i+1, r)
		}
	}
	if rec.CompletedAt.IsZero() {
		t.Fatal("completed run must carry completed_at")
	}
	if !strings.HasSuffix(rec.ArtifactPath, "final") {
		t.Fatalf("artifact path must point at the final checkpoint: %s", rec.ArtifactPath)
	}
}

func TestCheckpointInterval(t *testing.T) {
	store := newMemStore()
	pol := &fakePolicy{generateText: "help help help"}

	tr, err := New(testConfig(4), helpTemplate(t), pol, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tr.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	// SaveEvery=2 over 4 steps: checkpoint-2, checkpoint-4, final.
	if len(pol.checkpoints) != 3 {
		t.Fatalf("expected 3 checkpoints, got %v", pol.checkpoints)
	}
	if !strings.HasSuffix(pol.checkpoints[0], "checkpoint-2") {
		t.Fatalf("unexpected first checkpoint %s", pol.checkpoints[0])
	}
}

func TestStepFailureAbortsRunPreservingRewards(t *testing.T) {
	store := newMemStore()
	pol := &fakePolicy{generateText: "I can help you now", failUpdateAt: 2}

	tr, err := New(testConfig(3), helpTemplate(t), pol, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	rec, err := tr.Run(context.Background())
	if err == nil {
		t.Fatal("expected run failure")
	}
	if tr.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", tr.State())
	}
	if rec.Status != ledger.StatusFailed {
		t.Fatalf("expected failed record, got %s", rec.Status)
	}
	// Failed during step 2: exactly step 1's reward survives.
	if len(rec.StepRewards) != 1 {
		t.Fatalf("expected 1 preserved reward, got %d", len(rec.StepRewards))
	}
	if !strings.Contains(rec.FailureReason, "step 2") {
		t.Fatalf("failure reason must name the step: %s", rec.FailureReason)
	}

	stored := store.only(t)
	if stored.Status != ledger.StatusFailed || len(stored.StepRewards) != 1 {
		t.Fatalf("persisted record must match terminal state: %+v", stored)
	}
}

func TestInitFailureLeavesNoRunningRecord(t *testing.T) {
	store := newMemStore()
	pol := &fakePolicy{loadErr: fmt.Errorf("model not found")}

	tr, err := New(testConfig(3), helpTemplate(t), pol, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if _, err := tr.Run(context.Background()); err == nil {
		t.Fatal("expected synchronous init failure")
	}
	if tr.State() != StateFailed {
		t.Fatalf("expected failed state, got %s", tr.State())
	}
	if store.appends != 0 {
		t.Fatalf("init failure must not persist any record, got %d appends", store.appends)
	}
}

func TestConfigValidation(t *testing.T) {
	bad := testConfig(0) // steps must be > 0
	if _, err := New(bad, helpTemplate(t), &fakePolicy{}, newMemStore(), nil); err == nil {
		t.Fatal("expected config validation error for steps=0")
	}

	bad = testConfig(3)
	bad.LearningRate = 0
	if _, err := New(bad, helpTemplate(t), &fakePolicy{}, newMemStore(), nil); err == nil {
		t.Fatal("expected config validation error for learning_rate=0")
	}

	bad = testConfig(3)
	bad.BatchSize = -1
	if _, err := New(bad, helpTemplate(t), &fakePolicy{}, newMemStore(), nil); err == nil {
		t.Fatal("expected config validation error for batch_size<0")
	}
}

func TestConfigJSONCapturesPromptsPath(t *testing.T) {
	cfg := testConfig(3)
	cfg.PromptsPath = "prompts/help.txt"

	if !strings.Contains(cfg.JSON(), `"prompts_path":"prompts/help.txt"`) {
		t.Fatalf("config provenance must record the prompts source: %s", cfg.JSON())
	}

	// The built-in prompt set leaves no path behind.
	cfg.PromptsPath = ""
	if strings.Contains(cfg.JSON(), "prompts_path") {
		t.Fatalf("empty prompts path must be omitted: %s", cfg.JSON())
	}
}

func TestCancellationBetweenSteps(t *testing.T) {
	store := newMemStore()
	pol := &fakePolicy{generateText: "help me out here"}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tr, err := New(testConfig(5), helpTemplate(t), pol, store, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	rec, err := tr.Run(ctx)
	if err == nil {
		t.Fatal("expected failure for canceled context")
	}
	if rec.Status != ledger.StatusFailed {
		t.Fatalf("expected failed record, got %s", rec.Status)
	}
	if len(rec.StepRewards) != 0 {
		t.Fatalf("no step completed, rewards must be empty: %v", rec.StepRewards)
	}
}

func TestRunIDsUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		store := newMemStore()
		pol := &fakePolicy{generateText: "help now please"}
		tr, err := New(testConfig(1), helpTemplate(t), pol, store, nil)
		if err != nil {
			t.Fatalf("New: %v", err)
		}
		rec, err := tr.Run(context.Background())
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if seen[rec.RunID] {
			t.Fatalf("duplicate run id %s", rec.RunID)
		}
		seen[rec.RunID] = true
	}
}

func TestPromptBatchCycles(t *testing.T) {
	prompts := []string{"a", "b", "c"}
	batch := promptBatch(prompts, 4, 0)
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if batch[i] != want[i] {
			t.Fatalf("batch[%d] = %s, want %s", i, batch[i], want[i])
		}
	}
	// Next step starts where the previous left off.
	batch = promptBatch(prompts, 4, 1)
	if batch[0] != "b" {
		t.Fatalf("step 1 must rotate the start, got %s", batch[0])
	}
}
