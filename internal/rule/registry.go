package rule

import (
	"fmt"
	"sort"
	"sync"
)

// #region constructor-type
// Constructor builds a rule from its params mapping. Structural problems
// (missing phrase, invalid pattern, min>max) must fail here, at construction,
// so that template loading fails fast.
type Constructor func(params map[string]any) (Rule, error)

// #endregion constructor-type

// #region registry
// Registry maps rule type names to constructors. It is append-only: types may
// be added by extension code at startup but are never removed for the life of
// the process.
type Registry struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{constructors: make(map[string]Constructor)}
}

// Register adds a constructor under the given type name. Re-registering an
// existing name replaces the constructor; callers that need append-only
// semantics should pick fresh names.
func (r *Registry) Register(typeName string, c Constructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.constructors[typeName] = c
}

// New constructs a rule of the given type from params. An unregistered type
// name is a construction-time failure, never a silent default.
func (r *Registry) New(typeName string, params map[string]any) (Rule, error) {
	r.mu.RLock()
	c, ok := r.constructors[typeName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRuleType, typeName)
	}
	rule, err := c(params)
	if err != nil {
		return nil, fmt.Errorf("construct %s: %w", typeName, err)
	}
	return rule, nil
}

// Types returns the registered type names, sorted.
func (r *Registry) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.constructors))
	for name := range r.constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// #endregion registry

// #region default-registry
// defaultRegistry holds the built-in rule types, populated before any template
// is loaded.
var defaultRegistry = NewRegistry()

func init() {
	defaultRegistry.Register("contains_phrase", newContainsPhrase)
	defaultRegistry.Register("regex_match", newRegexMatch)
	defaultRegistry.Register("word_count", newWordCount)
	defaultRegistry.Register("cosine_sim", newCosineSim)
	defaultRegistry.Register("sentiment_positive", newSentimentPositive)
	defaultRegistry.Register("readability", newReadability)
	defaultRegistry.Register("argument_structure", newArgumentStructure)
	defaultRegistry.Register("domain_expertise", newDomainExpertise)
	defaultRegistry.Register("citation_quality", newCitationQuality)
}

// Default returns the process-wide registry of built-in rule types.
func Default() *Registry {
	return defaultRegistry
}

// #endregion default-registry
