package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/clarityai/clarity-go/internal/fixture"
	"github.com/clarityai/clarity-go/internal/policy"
	"github.com/clarityai/clarity-go/internal/rule"
)

// #region main

func main() {
	fixturePath := flag.String("fixture", "", "path to golden scoring fixture JSON")
	epsilon := flag.Float64("epsilon", fixture.DefaultEpsilon, "score comparison tolerance")
	flag.Parse()

	if *fixturePath == "" {
		fmt.Fprintln(os.Stderr, "usage: replay --fixture path/to/fixture.json [--epsilon 1e-9]")
		os.Exit(2)
	}

	if addr := os.Getenv("POLICY_ADDR"); addr != "" {
		rule.RegisterEmbeddingSim(rule.Default(), policy.NewClient(addr), 30*time.Second)
	}

	f, err := fixture.LoadFixture(*fixturePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	result, err := fixture.Run(f, rule.Default(), *epsilon)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if f.Description != "" {
		fmt.Printf("%s\n\n", f.Description)
	}
	for _, c := range result.Cases {
		mark := "PASS"
		if !c.Passed {
			mark = "FAIL"
		}
		if c.Reason != "" {
			fmt.Printf("  [%s] %-30s %s\n", mark, c.Name, c.Reason)
		} else {
			fmt.Printf("  [%s] %-30s got %.6f\n", mark, c.Name, c.Got)
		}
	}

	if !result.Passed {
		fmt.Printf("\nfixture FAILED\n")
		os.Exit(1)
	}
	fmt.Printf("\nfixture passed (%d cases)\n", len(result.Cases))
}

// #endregion main
