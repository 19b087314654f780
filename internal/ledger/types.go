package ledger

import "time"

// #region status
// Status is the lifecycle state of a training run as persisted in the ledger.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// #endregion status

// #region run-record
// RunRecord is the append-only audit record of one training run. The trainer
// owns the record for the run's lifetime; the ledger only persists snapshots
// and never mutates a record it did not create.
type RunRecord struct {
	RunID         string
	Status        Status
	Model         string
	TemplateName  string
	ConfigJSON    string    // serialized trainer config for provenance
	StepRewards   []float64 // mean batch reward per completed step, in order
	StartedAt     time.Time
	CompletedAt   time.Time // zero until the run reaches a terminal state
	FailureReason string
	ArtifactPath  string
}

// MeanReward returns the mean of the recorded step rewards, or 0 when no step
// completed.
func (r *RunRecord) MeanReward() float64 {
	if len(r.StepRewards) == 0 {
		return 0
	}
	var sum float64
	for _, v := range r.StepRewards {
		sum += v
	}
	return sum / float64(len(r.StepRewards))
}

// FinalReward returns the last recorded step reward, or 0 when no step
// completed.
func (r *RunRecord) FinalReward() float64 {
	if len(r.StepRewards) == 0 {
		return 0
	}
	return r.StepRewards[len(r.StepRewards)-1]
}

// #endregion run-record
