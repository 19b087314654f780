package trainer

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// #region state
// State is the trainer's lifecycle state machine:
// Idle -> Initializing -> Running -> Completed | Failed.
type State string

const (
	StateIdle         State = "idle"
	StateInitializing State = "initializing"
	StateRunning      State = "running"
	StateCompleted    State = "completed"
	StateFailed       State = "failed"
)

// #endregion state

// #region config
// Config holds everything one training run needs. Constructed once per run
// and immutable for the run's duration.
type Config struct {
	Model        string  `json:"model" validate:"required"`
	TemplatePath string  `json:"template_path" validate:"required"`
	PromptsPath  string  `json:"prompts_path,omitempty"` // empty means the built-in prompt set
	Steps        int     `json:"steps" validate:"gt=0"`
	LearningRate float64 `json:"learning_rate" validate:"gt=0"`
	BatchSize    int     `json:"batch_size" validate:"gt=0"`
	MaxNewTokens int     `json:"max_new_tokens" validate:"gt=0"`
	Temperature  float64 `json:"temperature" validate:"gte=0"`
	TopK         int     `json:"top_k" validate:"gte=0"`
	TopP         float64 `json:"top_p" validate:"gte=0,lte=1"`
	SaveEvery    int     `json:"save_every" validate:"gte=0"` // checkpoint interval in steps, 0 disables
	OutputDir    string  `json:"output_dir" validate:"required"`
}

// DefaultConfig returns the standard run hyperparameters.
func DefaultConfig() Config {
	return Config{
		Model:        "microsoft/DialoGPT-small",
		Steps:        20,
		LearningRate: 1.41e-5,
		BatchSize:    16,
		MaxNewTokens: 50,
		Temperature:  0.7,
		TopK:         50,
		TopP:         0.95,
		SaveEvery:    5,
		OutputDir:    "runs",
	}
}

var validate = validator.New()

// Validate checks the config before any model or template is touched.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid training config: %w", err)
	}
	return nil
}

// JSON serializes the config for run provenance.
func (c *Config) JSON() string {
	data, err := json.Marshal(c)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// #endregion config
