package cfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/linnemanlabs/screener/internal/triage"
)

// LoadThresholds returns the default thresholds overlaid with the YAML file
// at path, then with any turn limit set in c. An empty path skips the file.
// Unknown keys and out-of-range values are errors.
func (c *Config) LoadThresholds(path string) (triage.Thresholds, error) {
	th := triage.DefaultThresholds()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return th, fmt.Errorf("read thresholds file: %w", err)
		}
		if err := decodeThresholds(data, &th); err != nil {
			return th, fmt.Errorf("parse thresholds file %s: %w", path, err)
		}
	}
	// zero leaves the file's value
	if c.MinTurns > 0 {
		th.Trigger.MinTurns = c.MinTurns
	}
	if c.MaxTurns > 0 {
		th.Trigger.MaxTurns = c.MaxTurns
	}
	if err := th.Validate(); err != nil {
		return th, fmt.Errorf("invalid thresholds: %w", err)
	}
	return th, nil
}

func decodeThresholds(data []byte, th *triage.Thresholds) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(th); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}
