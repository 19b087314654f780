package fixture

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/clarityai/clarity-go/internal/template"
)

// #region fixture-types

// Fixture is the top-level JSON structure for a golden scoring fixture: a
// template plus texts with their expected scores.
type Fixture struct {
	Description string          `json:"description"`
	Template    FixtureTemplate `json:"template"`
	Cases       []FixtureCase   `json:"cases"`
}

// FixtureTemplate mirrors template.Document with JSON tags.
type FixtureTemplate struct {
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	Rules       []FixtureRule `json:"rules"`
}

// FixtureRule mirrors template.RuleDoc with JSON tags.
type FixtureRule struct {
	Type   string         `json:"type"`
	Weight float64        `json:"weight"`
	Params map[string]any `json:"params,omitempty"`
}

// FixtureCase is one text with its expected outcome.
type FixtureCase struct {
	Name             string  `json:"name"`
	Text             string  `json:"text"`
	ExpectedOverall  float64 `json:"expected_overall"`
	ExpectUnscorable bool    `json:"expect_unscorable,omitempty"`
}

// #endregion fixture-types

// #region fixture-loader

// LoadFixture reads and parses a JSON fixture file.
func LoadFixture(path string) (*Fixture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture %s: %w", path, err)
	}
	var f Fixture
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixture %s: %w", path, err)
	}
	if len(f.Cases) == 0 {
		return nil, fmt.Errorf("fixture %s has no cases", path)
	}
	return &f, nil
}

// ToDocument converts the fixture's template to the serializer's document
// form, so the harness builds it through the real loading path.
func (t *FixtureTemplate) ToDocument() template.Document {
	doc := template.Document{
		Name:        t.Name,
		Description: t.Description,
		Rules:       make([]template.RuleDoc, 0, len(t.Rules)),
	}
	for _, r := range t.Rules {
		doc.Rules = append(doc.Rules, template.RuleDoc{
			Type:   r.Type,
			Weight: r.Weight,
			Params: r.Params,
		})
	}
	return doc
}

// #endregion fixture-loader
