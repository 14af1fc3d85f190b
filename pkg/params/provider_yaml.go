package params

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v2"
)

// YAMLProvider stores named parameter sets in a single YAML file.
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML parameter provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

func (y *YAMLProvider) readAll() (map[string]Parameters, error) {
	sets := make(map[string]Parameters)

	data, err := os.ReadFile(y.filename)
	if err != nil {
		if os.IsNotExist(err) {
			return sets, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, &sets); err != nil {
		return nil, fmt.Errorf("failed to parse params file %s: %w", y.filename, err)
	}
	return sets, nil
}

// Load retrieves the parameter set stored under name
func (y *YAMLProvider) Load(name string) (Parameters, error) {
	sets, err := y.readAll()
	if err != nil {
		return Parameters{}, err
	}
	p, ok := sets[name]
	if !ok {
		return Parameters{}, fmt.Errorf("no parameter set named %q in %s", name, y.filename)
	}
	return p, nil
}

// Save stores the parameter set under name
func (y *YAMLProvider) Save(name string, p Parameters) error {
	if err := p.Validate(); err != nil {
		return err
	}

	sets, err := y.readAll()
	if err != nil {
		return err
	}
	sets[name] = p

	data, err := yaml.Marshal(sets)
	if err != nil {
		return err
	}
	return os.WriteFile(y.filename, data, 0o644)
}

// List returns the names of all stored parameter sets
func (y *YAMLProvider) List() ([]string, error) {
	sets, err := y.readAll()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(sets))
	for name := range sets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Close is a no-op for the YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
