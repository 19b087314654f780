package trainer

import (
	"fmt"
	"os"
	"strings"
)

// #region default-prompts
// defaultPrompts seed generation when no prompts file is supplied. Open-ended
// instruction stems work across rubrics.
var defaultPrompts = []string{
	"Write a helpful explanation about",
	"Provide clear guidance on",
	"Give me advice about",
	"Explain in simple terms",
	"Help me understand",
	"What is the best way to",
	"Can you clarify",
	"Please describe how to",
}

// DefaultPrompts returns a copy of the built-in prompt set.
func DefaultPrompts() []string {
	out := make([]string, len(defaultPrompts))
	copy(out, defaultPrompts)
	return out
}

// #endregion default-prompts

// #region load-prompts
// LoadPrompts reads one prompt per non-empty line from path.
func LoadPrompts(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts %s: %w", path, err)
	}
	var prompts []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			prompts = append(prompts, line)
		}
	}
	if len(prompts) == 0 {
		return nil, fmt.Errorf("prompts file %s is empty", path)
	}
	return prompts, nil
}

// #endregion load-prompts

// #region batch
// promptBatch cycles through prompts to fill a batch of size n, offset so
// successive steps rotate the starting prompt.
func promptBatch(prompts []string, n, step int) []string {
	batch := make([]string, n)
	for i := 0; i < n; i++ {
		batch[i] = prompts[(step*n+i)%len(prompts)]
	}
	return batch
}

// #endregion batch
