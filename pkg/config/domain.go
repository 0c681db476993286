package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Domain is an integer domain written either as a list of values, a single value, or
// a half-open range mapping {start, stop, step}. Step defaults to 1.
type Domain struct {
	Values []int64
	Range  *Range
}

// Range is the half-open integer range [Start, Stop) stepping by Step
type Range struct {
	Start int64 `yaml:"start"`
	Stop  int64 `yaml:"stop"`
	Step  int64 `yaml:"step"`
}

// IsZero reports whether the domain was left unset
func (d Domain) IsZero() bool {
	return len(d.Values) == 0 && d.Range == nil
}

// UnmarshalYAML decodes the list, scalar and mapping forms
func (d *Domain) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var v int64
		if err := node.Decode(&v); err != nil {
			return fmt.Errorf("line %d: domain value: %w", node.Line, err)
		}
		d.Values = []int64{v}
	case yaml.SequenceNode:
		var values []int64
		if err := node.Decode(&values); err != nil {
			return fmt.Errorf("line %d: domain values: %w", node.Line, err)
		}
		d.Values = values
	case yaml.MappingNode:
		r := Range{Step: 1}
		for i := 0; i+1 < len(node.Content); i += 2 {
			key, val := node.Content[i], node.Content[i+1]
			var target *int64
			switch key.Value {
			case "start":
				target = &r.Start
			case "stop":
				target = &r.Stop
			case "step":
				target = &r.Step
			default:
				return fmt.Errorf("line %d: %w %q in range", key.Line, ErrUnknownKey, key.Value)
			}
			if err := val.Decode(target); err != nil {
				return fmt.Errorf("line %d: range %s: %w", val.Line, key.Value, err)
			}
		}
		d.Range = &r
	default:
		return fmt.Errorf("line %d: domain must be a value, a list or a range mapping", node.Line)
	}
	return nil
}

// MarshalYAML writes the domain back in the form it was read
func (d Domain) MarshalYAML() (interface{}, error) {
	if d.Range != nil {
		return d.Range, nil
	}
	return d.Values, nil
}
