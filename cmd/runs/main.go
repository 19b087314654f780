package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/clarityai/clarity-go/internal/ledger"
)

// #region main

func main() {
	dbPath := flag.String("db", envOr("CLARITY_DB", "clarity_runs.db"), "path to the run ledger database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	store, err := ledger.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		if err := runDetailMode(store, *runID, *jsonOut); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if err := runListMode(store, *last, *jsonOut); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID    string  `json:"run_id"`
	Status   string  `json:"status"`
	Model    string  `json:"model"`
	Template string  `json:"template"`
	Steps    int     `json:"steps"`
	Mean     float64 `json:"mean_reward"`
	Final    float64 `json:"final_reward"`
	Started  string  `json:"started_at"`
}

func runListMode(store *ledger.Store, last int, jsonOut bool) error {
	runs, err := store.List()
	if err != nil {
		return err
	}
	if len(runs) > last {
		runs = runs[:last]
	}

	rows := make([]listRow, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, listRow{
			RunID:    r.RunID,
			Status:   string(r.Status),
			Model:    r.Model,
			Template: r.TemplateName,
			Steps:    len(r.StepRewards),
			Mean:     r.MeanReward(),
			Final:    r.FinalReward(),
			Started:  r.StartedAt.Format("2006-01-02T15:04:05Z"),
		})
	}

	if jsonOut {
		return printJSON(rows)
	}

	if len(rows) == 0 {
		fmt.Println("no runs recorded")
		return nil
	}
	fmt.Printf("%-28s  %-10s  %5s  %6s  %6s  %-20s  %s\n",
		"RUN ID", "STATUS", "STEPS", "MEAN", "FINAL", "TEMPLATE", "STARTED")
	for _, r := range rows {
		fmt.Printf("%-28s  %-10s  %5d  %6.4f  %6.4f  %-20s  %s\n",
			r.RunID, r.Status, r.Steps, r.Mean, r.Final, r.Template, r.Started)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID         string    `json:"run_id"`
	Status        string    `json:"status"`
	Model         string    `json:"model"`
	Template      string    `json:"template"`
	Started       string    `json:"started_at"`
	Completed     string    `json:"completed_at,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	ArtifactPath  string    `json:"artifact_path,omitempty"`
	StepRewards   []float64 `json:"step_rewards"`
	Config        any       `json:"config"`
}

func runDetailMode(store *ledger.Store, runID string, jsonOut bool) error {
	rec, err := store.Get(runID)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:         rec.RunID,
		Status:        string(rec.Status),
		Model:         rec.Model,
		Template:      rec.TemplateName,
		Started:       rec.StartedAt.Format("2006-01-02T15:04:05Z"),
		FailureReason: rec.FailureReason,
		ArtifactPath:  rec.ArtifactPath,
		StepRewards:   rec.StepRewards,
	}
	if !rec.CompletedAt.IsZero() {
		out.Completed = rec.CompletedAt.Format("2006-01-02T15:04:05Z")
	}
	var cfg map[string]any
	if err := json.Unmarshal([]byte(rec.ConfigJSON), &cfg); err == nil {
		out.Config = cfg
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:       %s\n", out.RunID)
	fmt.Printf("Status:    %s\n", out.Status)
	fmt.Printf("Model:     %s\n", out.Model)
	fmt.Printf("Template:  %s\n", out.Template)
	fmt.Printf("Started:   %s\n", out.Started)
	if out.Completed != "" {
		fmt.Printf("Completed: %s\n", out.Completed)
	}
	if out.FailureReason != "" {
		fmt.Printf("Failure:   %s\n", out.FailureReason)
	}
	if out.ArtifactPath != "" {
		fmt.Printf("Artifact:  %s\n", out.ArtifactPath)
	}

	fmt.Printf("\nStep rewards (%d, mean %.4f):\n", len(rec.StepRewards), rec.MeanReward())
	for i, r := range rec.StepRewards {
		fmt.Printf("  %4d  %.4f\n", i+1, r)
	}
	return nil
}

// #endregion detail-mode

// #region helpers

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
