package rule

import (
	"fmt"
	"strings"
	"unicode"
)

// #region readability
// readability scores proximity of the text's Flesch-Kincaid grade level to a
// configured target grade. Within tolerance the score decays gently from 1.0;
// beyond tolerance it drops 0.1 per grade from 0.7. Empty text scores 0.0.
type readability struct {
	targetGrade float64
	tolerance   float64
}

func newReadability(params map[string]any) (Rule, error) {
	target := 8.0
	if v, ok := floatParam(params, "target_grade"); ok {
		target = v
	}
	tolerance := 2.0
	if v, ok := floatParam(params, "tolerance"); ok {
		tolerance = v
	}
	if tolerance <= 0 {
		return nil, fmt.Errorf("tolerance must be > 0, got %g", tolerance)
	}
	return &readability{targetGrade: target, tolerance: tolerance}, nil
}

func (r *readability) Type() string { return "readability" }

func (r *readability) Evaluate(text string) (float64, error) {
	words := strings.Fields(text)
	if len(words) == 0 {
		return 0.0, nil
	}

	sentences := countSentences(text)
	syllables := 0
	for _, w := range words {
		syllables += countSyllables(w)
	}

	grade := 0.39*float64(len(words))/float64(sentences) +
		11.8*float64(syllables)/float64(len(words)) - 15.59
	if grade < 0 {
		grade = 0
	}

	diff := grade - r.targetGrade
	if diff < 0 {
		diff = -diff
	}
	if diff <= r.tolerance {
		return clamp01(1.0 - (diff/r.tolerance)*0.3), nil
	}
	return clamp01(0.7 - (diff-r.tolerance)*0.1), nil
}

// #endregion readability

// #region text-helpers
// countSentences counts terminal punctuation runs; a text without any counts
// as one sentence.
func countSentences(text string) int {
	n := 0
	inTerminal := false
	for _, r := range text {
		switch r {
		case '.', '!', '?':
			if !inTerminal {
				n++
				inTerminal = true
			}
		default:
			inTerminal = false
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// countSyllables approximates syllables as vowel groups, dropping one for a
// trailing silent 'e', with a floor of one per word.
func countSyllables(word string) int {
	word = strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if word == "" {
		return 1
	}

	isVowel := func(r rune) bool {
		return strings.ContainsRune("aeiouy", r)
	}

	groups := 0
	prevVowel := false
	for _, r := range word {
		v := isVowel(r)
		if v && !prevVowel {
			groups++
		}
		prevVowel = v
	}
	if strings.HasSuffix(word, "e") && !strings.HasSuffix(word, "le") && groups > 1 {
		groups--
	}
	if groups < 1 {
		groups = 1
	}
	return groups
}

// #endregion text-helpers
