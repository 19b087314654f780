package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/clarityai/clarity-go/internal/policy"
	"github.com/clarityai/clarity-go/internal/rule"
	"github.com/clarityai/clarity-go/internal/template"
)

// #region main

func main() {
	templatePath := flag.String("template", "", "path to template YAML")
	text := flag.String("text", "", "text to score")
	file := flag.String("file", "", "file containing text to score (- for stdin)")
	detailed := flag.Bool("detailed", false, "show per-rule breakdown")
	jsonOut := flag.Bool("json", false, "output as JSON")
	flag.Parse()

	if *templatePath == "" || (*text == "" && *file == "") {
		fmt.Fprintln(os.Stderr, "usage: score --template rubric.yaml --text \"...\" [--detailed] [--json]")
		fmt.Fprintln(os.Stderr, "       score --template rubric.yaml --file answer.txt")
		os.Exit(2)
	}

	// The embedding_sim rule type is available when a policy service is
	// configured.
	if addr := os.Getenv("POLICY_ADDR"); addr != "" {
		rule.RegisterEmbeddingSim(rule.Default(), policy.NewClient(addr), 30*time.Second)
	}

	tpl, err := template.LoadFile(*templatePath, rule.Default())
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	input, err := readInput(*text, *file)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	breakdown := tpl.EvaluateDetailed(input)

	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(breakdown); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		if !breakdown.Defined {
			os.Exit(1)
		}
		return
	}

	if !breakdown.Defined {
		fmt.Fprintf(os.Stderr, "cannot score: %v\n", template.ErrUnscorable)
		os.Exit(1)
	}

	if *detailed {
		printBreakdown(tpl.Name, breakdown)
	} else {
		fmt.Printf("%.4f\n", breakdown.Overall)
	}
}

// #endregion main

// #region input

// readInput resolves the text to score from --text, a file, or stdin.
func readInput(text, file string) (string, error) {
	if text != "" {
		return text, nil
	}
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", file, err)
	}
	return string(data), nil
}

// #endregion input

// #region output

func printBreakdown(name string, b template.Breakdown) {
	fmt.Printf("Template:  %s\n", name)
	fmt.Printf("Overall:   %.4f (total weight %.2f)\n\n", b.Overall, b.TotalWeight)
	fmt.Printf("%-22s  %8s  %8s  %9s  %s\n", "RULE", "WEIGHT", "RAW", "WEIGHTED", "ERROR")
	for _, rs := range b.Rules {
		if rs.Err != "" {
			fmt.Printf("%-22s  %8.2f  %8s  %9s  %s\n", rs.Type, rs.Weight, "n/a", "n/a", rs.Err)
			continue
		}
		fmt.Printf("%-22s  %8.2f  %8.4f  %9.4f\n", rs.Type, rs.Weight, rs.Raw, rs.Weighted)
	}
}

// #endregion output
