package rule

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestUnknownRuleTypeFailsConstruction(t *testing.T) {
	_, err := Default().New("no_such_rule", nil)
	if err == nil {
		t.Fatal("expected error for unknown rule type")
	}
	if !errors.Is(err, ErrUnknownRuleType) {
		t.Fatalf("expected ErrUnknownRuleType, got %v", err)
	}
}

func TestRegisterExtensionType(t *testing.T) {
	reg := NewRegistry()
	reg.Register("always_half", func(params map[string]any) (Rule, error) {
		return fixedRule{score: 0.5}, nil
	})

	r, err := reg.New("always_half", nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	s, _ := r.Evaluate("anything")
	if s != 0.5 {
		t.Fatalf("expected 0.5, got %f", s)
	}
}

func TestDefaultRegistryTypes(t *testing.T) {
	types := Default().Types()
	want := map[string]bool{
		"contains_phrase":    false,
		"regex_match":        false,
		"word_count":         false,
		"cosine_sim":         false,
		"sentiment_positive": false,
		"readability":        false,
		"argument_structure": false,
		"domain_expertise":   false,
		"citation_quality":   false,
	}
	for _, name := range types {
		if _, ok := want[name]; ok {
			want[name] = true
		}
	}
	for name, seen := range want {
		if !seen {
			t.Fatalf("built-in type %s not registered", name)
		}
	}
}

type fixedRule struct {
	score float64
}

func (r fixedRule) Type() string                          { return "fixed" }
func (r fixedRule) Evaluate(text string) (float64, error) { return r.score, nil }

type fakeEmbedder struct {
	vectors map[string][]float64
	fail    bool
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if f.fail {
		return nil, fmt.Errorf("embed server unreachable")
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float64{1, 0, 0}, nil
}

func TestEmbeddingSimIdenticalTarget(t *testing.T) {
	emb := &fakeEmbedder{vectors: map[string][]float64{
		"reference": {0, 1, 0},
		"same":      {0, 1, 0},
		"opposite":  {0, -1, 0},
	}}
	reg := NewRegistry()
	RegisterEmbeddingSim(reg, emb, 5*time.Second)

	r, err := reg.New("embedding_sim", map[string]any{"target": "reference"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if s, _ := r.Evaluate("same"); s != 1.0 {
		t.Fatalf("identical embedding must score 1.0, got %f", s)
	}
	if s, _ := r.Evaluate("opposite"); s != 0.0 {
		t.Fatalf("opposite embedding must score 0.0, got %f", s)
	}
}

func TestEmbeddingSimSurfacesServerError(t *testing.T) {
	reg := NewRegistry()
	RegisterEmbeddingSim(reg, &fakeEmbedder{fail: true}, time.Second)

	r, err := reg.New("embedding_sim", map[string]any{"target": "reference"})
	if err != nil {
		t.Fatalf("construction must succeed; server problems are evaluation-time: %v", err)
	}
	if _, err := r.Evaluate("text"); err == nil {
		t.Fatal("expected evaluation error when embed server is down")
	}
}
