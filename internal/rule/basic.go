package rule

import (
	"fmt"
	"math"
	"regexp"
	"strings"
)

// #region param-helpers
// stringParam reads a string-valued parameter.
func stringParam(params map[string]any, key string) (string, bool) {
	v, ok := params[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// floatParam reads a numeric parameter, accepting the integer and float types
// that YAML and JSON decoders produce.
func floatParam(params map[string]any, key string) (float64, bool) {
	v, ok := params[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// stringListParam reads a list-of-strings parameter, accepting both []string
// and the []any that YAML and JSON decoders produce.
func stringListParam(params map[string]any, key string) ([]string, bool) {
	v, ok := params[key]
	if !ok {
		return nil, false
	}
	switch list := v.(type) {
	case []string:
		return list, true
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			s, ok := item.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// intParam reads an integer parameter; fractional values are rejected rather
// than truncated.
func intParam(params map[string]any, key string) (int, bool, error) {
	v, ok := floatParam(params, key)
	if !ok {
		if _, present := params[key]; present {
			return 0, false, fmt.Errorf("param %q must be a number", key)
		}
		return 0, false, nil
	}
	if v != math.Trunc(v) {
		return 0, false, fmt.Errorf("param %q must be an integer, got %g", key, v)
	}
	return int(v), true, nil
}

// #endregion param-helpers

// #region contains-phrase
// containsPhrase scores 1.0 when the configured phrase appears anywhere in the
// text, case-insensitively.
type containsPhrase struct {
	phrase string
}

func newContainsPhrase(params map[string]any) (Rule, error) {
	phrase, ok := stringParam(params, "phrase")
	if !ok || phrase == "" {
		return nil, fmt.Errorf("missing required param %q", "phrase")
	}
	return &containsPhrase{phrase: strings.ToLower(phrase)}, nil
}

func (r *containsPhrase) Type() string { return "contains_phrase" }

func (r *containsPhrase) Evaluate(text string) (float64, error) {
	if strings.Contains(strings.ToLower(text), r.phrase) {
		return 1.0, nil
	}
	return 0.0, nil
}

// #endregion contains-phrase

// #region regex-match
// regexMatch scores 1.0 when the configured pattern matches anywhere in the
// text. Patterns are compiled case-insensitive; an invalid pattern fails at
// construction.
type regexMatch struct {
	re *regexp.Regexp
}

func newRegexMatch(params map[string]any) (Rule, error) {
	pattern, ok := stringParam(params, "pattern")
	if !ok || pattern == "" {
		return nil, fmt.Errorf("missing required param %q", "pattern")
	}
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &regexMatch{re: re}, nil
}

func (r *regexMatch) Type() string { return "regex_match" }

func (r *regexMatch) Evaluate(text string) (float64, error) {
	if r.re.MatchString(text) {
		return 1.0, nil
	}
	return 0.0, nil
}

// #endregion regex-match

// #region word-count
// wordCount scores 1.0 when the whitespace-tokenized word count falls inside
// [min, max] inclusive. Boundary values are inside the accepted range.
type wordCount struct {
	min int
	max int // math.MaxInt when unbounded
}

func newWordCount(params map[string]any) (Rule, error) {
	minWords, ok, err := intParam(params, "min_words")
	if err != nil {
		return nil, err
	}
	if !ok {
		minWords = 0
	}

	maxWords, ok, err := intParam(params, "max_words")
	if err != nil {
		return nil, err
	}
	if !ok {
		maxWords = math.MaxInt
	}

	if minWords < 0 {
		return nil, fmt.Errorf("min_words must be >= 0, got %d", minWords)
	}
	if maxWords < minWords {
		return nil, fmt.Errorf("max_words %d < min_words %d", maxWords, minWords)
	}
	return &wordCount{min: minWords, max: maxWords}, nil
}

func (r *wordCount) Type() string { return "word_count" }

func (r *wordCount) Evaluate(text string) (float64, error) {
	n := len(strings.Fields(text))
	if n >= r.min && n <= r.max {
		return 1.0, nil
	}
	return 0.0, nil
}

// #endregion word-count

// #region cosine-sim
// cosineSim measures lexical unigram overlap against a configured target
// string: the count of target tokens present in the text divided by the
// target token count, clamped to [0,1]. Identical token sets score 1.0,
// disjoint vocabularies score 0.0.
type cosineSim struct {
	target      string
	targetWords map[string]struct{}
}

func newCosineSim(params map[string]any) (Rule, error) {
	target, ok := stringParam(params, "target")
	if !ok || target == "" {
		return nil, fmt.Errorf("missing required param %q", "target")
	}
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(target)) {
		words[w] = struct{}{}
	}
	return &cosineSim{target: target, targetWords: words}, nil
}

func (r *cosineSim) Type() string { return "cosine_sim" }

func (r *cosineSim) Evaluate(text string) (float64, error) {
	if len(r.targetWords) == 0 {
		return 0.0, nil
	}
	overlap := 0
	seen := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if _, dup := seen[w]; dup {
			continue
		}
		seen[w] = struct{}{}
		if _, ok := r.targetWords[w]; ok {
			overlap++
		}
	}
	return clamp01(float64(overlap) / float64(len(r.targetWords))), nil
}

// #endregion cosine-sim
