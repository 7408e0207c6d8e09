package appspec

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v2"

	"github.com/specguard/sentinel/pkg/shared/files"
)

// LoadFile reads a serialized AppSpec document produced by the DSL pipeline.
func LoadFile(path string) (*AppSpec, error) {
	if err := files.ValidatePath(path); err != nil {
		return nil, fmt.Errorf("invalid appspec path: %w", err)
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open appspec %q: %w", path, err)
	}
	defer file.Close()

	var spec AppSpec
	d := yaml.NewDecoder(file)
	if err := d.Decode(&spec); err != nil {
		return nil, fmt.Errorf("failed to decode appspec %q: %w", path, err)
	}

	if spec.Name == "" {
		return nil, fmt.Errorf("appspec %q has no name", path)
	}

	return &spec, nil
}
