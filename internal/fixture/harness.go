package fixture

import (
	"errors"
	"fmt"
	"math"

	"github.com/clarityai/clarity-go/internal/rule"
	"github.com/clarityai/clarity-go/internal/template"
)

// #region result-types

// CaseResult is the outcome of replaying one fixture case.
type CaseResult struct {
	Name   string
	Passed bool
	Got    float64
	Want   float64
	Reason string
}

// Result is the outcome of replaying a whole fixture.
type Result struct {
	Passed bool
	Cases  []CaseResult
}

// #endregion result-types

// #region harness

// DefaultEpsilon is the score comparison tolerance.
const DefaultEpsilon = 1e-9

// Run replays a fixture: the template is built through the real registry and
// validation path, then every case is scored twice: once to compare against
// the expected value and once to verify determinism.
func Run(f *Fixture, reg *rule.Registry, epsilon float64) (Result, error) {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}

	tpl, err := template.FromDocument(f.Template.ToDocument(), reg)
	if err != nil {
		return Result{}, fmt.Errorf("build fixture template: %w", err)
	}

	result := Result{Passed: true}
	for _, c := range f.Cases {
		cr := runCase(tpl, c, epsilon)
		if !cr.Passed {
			result.Passed = false
		}
		result.Cases = append(result.Cases, cr)
	}
	return result, nil
}

func runCase(tpl *template.Template, c FixtureCase, epsilon float64) CaseResult {
	cr := CaseResult{Name: c.Name, Want: c.ExpectedOverall}

	got, err := tpl.Evaluate(c.Text)
	if c.ExpectUnscorable {
		if errors.Is(err, template.ErrUnscorable) {
			cr.Passed = true
			cr.Reason = "unscorable as expected"
		} else {
			cr.Got = got
			cr.Reason = fmt.Sprintf("expected unscorable, got %.6f", got)
		}
		return cr
	}
	if err != nil {
		cr.Reason = fmt.Sprintf("unexpected error: %v", err)
		return cr
	}
	cr.Got = got

	again, err := tpl.Evaluate(c.Text)
	if err != nil || again != got {
		cr.Reason = fmt.Sprintf("non-deterministic score: %.6f then %.6f", got, again)
		return cr
	}

	if math.Abs(got-c.ExpectedOverall) > epsilon {
		cr.Reason = fmt.Sprintf("score %.6f differs from expected %.6f", got, c.ExpectedOverall)
		return cr
	}

	cr.Passed = true
	return cr
}

// #endregion harness
