package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/clarityai/clarity-go/internal/ledger"
	"github.com/clarityai/clarity-go/internal/policy"
	"github.com/clarityai/clarity-go/internal/rule"
	"github.com/clarityai/clarity-go/internal/template"
	"github.com/clarityai/clarity-go/internal/trainer"
)

// #region main

func main() {
	defaults := trainer.DefaultConfig()

	templatePath := flag.String("template", "", "path to template YAML (required)")
	model := flag.String("model", defaults.Model, "model identifier for the policy service")
	steps := flag.Int("steps", defaults.Steps, "number of training steps")
	learningRate := flag.Float64("lr", defaults.LearningRate, "learning rate")
	batchSize := flag.Int("batch-size", defaults.BatchSize, "generations per step")
	maxNewTokens := flag.Int("max-new-tokens", defaults.MaxNewTokens, "tokens to sample per generation")
	temperature := flag.Float64("temperature", defaults.Temperature, "sampling temperature")
	topK := flag.Int("top-k", defaults.TopK, "top-k sampling")
	topP := flag.Float64("top-p", defaults.TopP, "top-p sampling")
	saveEvery := flag.Int("save-every", defaults.SaveEvery, "checkpoint interval in steps (0 disables)")
	outputDir := flag.String("output", defaults.OutputDir, "output directory for run artifacts")
	promptsPath := flag.String("prompts", "", "file with one training prompt per line")
	policyAddr := flag.String("policy-addr", envOr("POLICY_ADDR", "http://localhost:8000"), "policy service address")
	dbPath := flag.String("db", envOr("CLARITY_DB", "clarity_runs.db"), "path to the run ledger database")
	flag.Parse()

	if *templatePath == "" {
		fmt.Fprintln(os.Stderr, "usage: trainer --template rubric.yaml [--model id] [--steps N] ...")
		os.Exit(2)
	}

	cfg := trainer.Config{
		Model:        *model,
		TemplatePath: *templatePath,
		PromptsPath:  *promptsPath,
		Steps:        *steps,
		LearningRate: *learningRate,
		BatchSize:    *batchSize,
		MaxNewTokens: *maxNewTokens,
		Temperature:  *temperature,
		TopK:         *topK,
		TopP:         *topP,
		SaveEvery:    *saveEvery,
		OutputDir:    *outputDir,
	}

	client := policy.NewClient(*policyAddr)
	rule.RegisterEmbeddingSim(rule.Default(), client, 30*time.Second)

	tpl, err := template.LoadFile(*templatePath, rule.Default())
	if err != nil {
		log.Fatalf("failed to load template: %v", err)
	}

	store, err := ledger.NewStore(*dbPath)
	if err != nil {
		log.Fatalf("failed to open ledger: %v", err)
	}
	defer store.Close()

	var prompts []string
	if *promptsPath != "" {
		prompts, err = trainer.LoadPrompts(*promptsPath)
		if err != nil {
			log.Fatalf("failed to load prompts: %v", err)
		}
	}

	tr, err := trainer.New(cfg, tpl, client, store, prompts)
	if err != nil {
		log.Fatalf("failed to configure trainer: %v", err)
	}

	rec, err := tr.Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "run failed: %v\n", err)
		if rec.RunID != "" {
			printSummary(rec)
		}
		os.Exit(1)
	}
	printSummary(rec)
}

// #endregion main

// #region summary

func printSummary(rec ledger.RunRecord) {
	fmt.Printf("\nRun:       %s\n", rec.RunID)
	fmt.Printf("Status:    %s\n", rec.Status)
	fmt.Printf("Steps:     %d\n", len(rec.StepRewards))
	fmt.Printf("Mean:      %.4f\n", rec.MeanReward())
	fmt.Printf("Final:     %.4f\n", rec.FinalReward())
	if rec.ArtifactPath != "" {
		fmt.Printf("Artifact:  %s\n", rec.ArtifactPath)
	}
	if rec.FailureReason != "" {
		fmt.Printf("Failure:   %s\n", rec.FailureReason)
	}
}

// #endregion summary

// #region helpers

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
