package pipeline

import (
	"encoding/json"
	"fmt"
	"os"
)

// LoadConfig reads the pipeline document from disk. A missing or unparsable
// document is an error; keys absent inside a present document default to a
// disabled, empty stage.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pipeline config: %w", err)
	}

	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse pipeline config: %w", err)
	}

	return &config, nil
}
