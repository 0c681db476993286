package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseSearchYAML parses a Search from YAML bytes, applies defaults and validates it.
// Unknown keys are rejected.
func ParseSearchYAML(data []byte) (*Search, error) {
	var cfg Search
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse search yaml: empty document")
		}
		if strings.Contains(err.Error(), "not found in type") {
			return nil, fmt.Errorf("failed to parse search yaml: %w: %v", ErrUnknownKey, err)
		}
		return nil, fmt.Errorf("failed to parse search yaml: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateSearch(&cfg); err != nil {
		return nil, fmt.Errorf("invalid search config: %w", err)
	}

	return &cfg, nil
}

// ParseSearchYAMLString parses a Search from a YAML string.
func ParseSearchYAMLString(yamlText string) (*Search, error) {
	return ParseSearchYAML([]byte(yamlText))
}
