package spec

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes and validates a spec tree, e.g.
//
//	name: step
//	fields:
//	  - {name: action, dtype: float32, shape: [3]}
//	  - name: observation
//	    fields:
//	      - {name: lidar, dtype: float32, shape: [5]}
//	      - {name: camera, dtype: float32, shape: [3, 2]}
func ParseYAML(data []byte) (Spec, error) {
	var s Spec
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Spec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if err := s.Validate(); err != nil {
		return Spec{}, err
	}
	return s, nil
}

// LoadFile reads a YAML spec from path.
func LoadFile(path string) (Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read spec file: %w", err)
	}
	return ParseYAML(data)
}

// MarshalYAML renders s back to YAML.
func MarshalYAML(s Spec) ([]byte, error) {
	return yaml.Marshal(s)
}
