package template

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/clarityai/clarity-go/internal/rule"
)

// #region document
// Document is the stable YAML contract for template configuration: top-level
// name, description, and an ordered rules list of {type, weight, params}.
type Document struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description,omitempty"`
	Rules       []RuleDoc `yaml:"rules"`
}

// RuleDoc is one rule entry in a template document.
type RuleDoc struct {
	Type   string         `yaml:"type"`
	Weight float64        `yaml:"weight"`
	Params map[string]any `yaml:"params,omitempty"`
}

// #endregion document

// #region load-error
// Problem describes one invalid rule entry (or a template-level violation,
// with Index -1).
type Problem struct {
	Index  int
	Type   string
	Reason string
}

// LoadError aggregates every violation found while loading a template, so a
// template author can fix the whole document without re-running. A load never
// yields a partial template.
type LoadError struct {
	TemplateName string
	Problems     []Problem
}

func (e *LoadError) Error() string {
	var b strings.Builder
	name := e.TemplateName
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "template %s: %d problem(s)", name, len(e.Problems))
	for _, p := range e.Problems {
		if p.Index < 0 {
			fmt.Fprintf(&b, "; %s", p.Reason)
			continue
		}
		fmt.Fprintf(&b, "; rule %d (%s): %s", p.Index, p.Type, p.Reason)
	}
	return b.String()
}

// #endregion load-error

// #region from-document
// FromDocument validates a document and constructs a Template, building each
// rule through the registry. All violations are aggregated into a single
// LoadError.
func FromDocument(doc Document, reg *rule.Registry) (*Template, error) {
	var problems []Problem

	if strings.TrimSpace(doc.Name) == "" {
		problems = append(problems, Problem{Index: -1, Reason: "template has no name"})
	}

	rules := make([]WeightedRule, 0, len(doc.Rules))
	for i, rd := range doc.Rules {
		if strings.TrimSpace(rd.Type) == "" {
			problems = append(problems, Problem{Index: i, Type: rd.Type, Reason: "missing rule type"})
			continue
		}
		if rd.Weight <= 0 {
			problems = append(problems, Problem{
				Index: i, Type: rd.Type,
				Reason: fmt.Sprintf("weight must be > 0, got %g", rd.Weight),
			})
			continue
		}
		impl, err := reg.New(rd.Type, rd.Params)
		if err != nil {
			problems = append(problems, Problem{Index: i, Type: rd.Type, Reason: err.Error()})
			continue
		}
		rules = append(rules, WeightedRule{
			Type:   rd.Type,
			Weight: rd.Weight,
			Params: rd.Params,
			impl:   impl,
		})
	}

	if len(problems) > 0 {
		return nil, &LoadError{TemplateName: doc.Name, Problems: problems}
	}
	return &Template{
		Name:        doc.Name,
		Description: doc.Description,
		Rules:       rules,
	}, nil
}

// #endregion from-document

// #region load-dump
// Load parses a YAML template document and constructs a Template against the
// given registry.
func Load(data []byte, reg *rule.Registry) (*Template, error) {
	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse template document: %w", err)
	}
	return FromDocument(doc, reg)
}

// LoadFile reads and loads a template from a YAML file.
func LoadFile(path string, reg *rule.Registry) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template %s: %w", path, err)
	}
	t, err := Load(data, reg)
	if err != nil {
		return nil, fmt.Errorf("load template %s: %w", path, err)
	}
	return t, nil
}

// ToDocument converts a Template back to its document form.
func (t *Template) ToDocument() Document {
	doc := Document{
		Name:        t.Name,
		Description: t.Description,
		Rules:       make([]RuleDoc, 0, len(t.Rules)),
	}
	for _, wr := range t.Rules {
		doc.Rules = append(doc.Rules, RuleDoc{
			Type:   wr.Type,
			Weight: wr.Weight,
			Params: wr.Params,
		})
	}
	return doc
}

// Dump serializes a Template to YAML. Load(Dump(t)) is value-equal to t for
// any valid template.
func Dump(t *Template) ([]byte, error) {
	data, err := yaml.Marshal(t.ToDocument())
	if err != nil {
		return nil, fmt.Errorf("marshal template: %w", err)
	}
	return data, nil
}

// #endregion load-dump
