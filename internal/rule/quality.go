package rule

import (
	"fmt"
	"regexp"
	"strings"
)

// #region argument-structure
// argumentStructure scores argumentative scaffolding by marker presence:
// claim markers contribute 0.3, evidence markers 0.4, counter-argument
// markers 0.3, plus a 0.1 bonus when both a claim and evidence appear.
type argumentStructure struct{}

var (
	claimMarkers    = []string{"therefore", "thus", "hence", "consequently", "as a result"}
	evidenceMarkers = []string{"because", "since", "given that", "due to", "for example", "such as"}
	counterMarkers  = []string{"however", "but", "although", "despite", "on the other hand"}
)

func newArgumentStructure(params map[string]any) (Rule, error) {
	return &argumentStructure{}, nil
}

func (r *argumentStructure) Type() string { return "argument_structure" }

func (r *argumentStructure) Evaluate(text string) (float64, error) {
	lower := strings.ToLower(text)
	hasAny := func(markers []string) bool {
		for _, m := range markers {
			if strings.Contains(lower, m) {
				return true
			}
		}
		return false
	}

	score := 0.0
	claims := hasAny(claimMarkers)
	evidence := hasAny(evidenceMarkers)
	if claims {
		score += 0.3
	}
	if evidence {
		score += 0.4
	}
	if hasAny(counterMarkers) {
		score += 0.3
	}
	if claims && evidence {
		score += 0.1
	}
	return clamp01(score), nil
}

// #endregion argument-structure

// #region domain-expertise
// domainExpertise scores use of configured expertise terms, combining term
// density (found terms per word, scaled by 10) and coverage (share of the
// configured terms found): min(1, (density*10 + coverage) / 2).
type domainExpertise struct {
	terms []string // lowercase
}

func newDomainExpertise(params map[string]any) (Rule, error) {
	terms, ok := stringListParam(params, "expertise_terms")
	if !ok || len(terms) == 0 {
		return nil, fmt.Errorf("missing required param %q", "expertise_terms")
	}
	lowered := make([]string, len(terms))
	for i, t := range terms {
		lowered[i] = strings.ToLower(t)
	}
	return &domainExpertise{terms: lowered}, nil
}

func (r *domainExpertise) Type() string { return "domain_expertise" }

func (r *domainExpertise) Evaluate(text string) (float64, error) {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0.0, nil
	}
	lower := strings.ToLower(text)
	found := 0
	for _, term := range r.terms {
		if strings.Contains(lower, term) {
			found++
		}
	}
	density := float64(found) / float64(words)
	coverage := float64(found) / float64(len(r.terms))
	return clamp01((density*10 + coverage) / 2), nil
}

// #endregion domain-expertise

// #region citation-quality
// citationQuality scores source support by citation density. Recognized
// citation forms: parenthetical author-year, bracketed numerals, URLs, and
// DOIs. No citations score 0.0; below 1 citation per 100 words scores 0.3,
// below 5 per 100 scores 0.7, denser scores 1.0.
type citationQuality struct{}

var citationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\([A-Za-z]+,?\s+\d{4}\)`),
	regexp.MustCompile(`\[[0-9]+\]`),
	regexp.MustCompile(`https?://\S+`),
	regexp.MustCompile(`doi:\s*\S+`),
}

func newCitationQuality(params map[string]any) (Rule, error) {
	return &citationQuality{}, nil
}

func (r *citationQuality) Type() string { return "citation_quality" }

func (r *citationQuality) Evaluate(text string) (float64, error) {
	citations := 0
	for _, re := range citationPatterns {
		citations += len(re.FindAllString(text, -1))
	}
	words := len(strings.Fields(text))
	if citations == 0 || words == 0 {
		return 0.0, nil
	}

	density := float64(citations) / float64(words)
	switch {
	case density < 0.01:
		return 0.3, nil
	case density < 0.05:
		return 0.7, nil
	}
	return 1.0, nil
}

// #endregion citation-quality
