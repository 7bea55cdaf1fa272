package registry

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/evlq/internal/contracts"
)

// File is the on-disk layout of a contracts YAML file
type File struct {
	Contracts []contracts.DataContract `yaml:"contracts"`
}

// LoadYAML reads contracts from a YAML file.
// Unknown keys fail the load so typos never silently drop a rule.
func LoadYAML(path string) ([]contracts.DataContract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read contracts file: %w", err)
	}
	return ParseYAML(data)
}

// ParseYAML decodes contracts from YAML bytes and checks each one
func ParseYAML(data []byte) ([]contracts.DataContract, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode contracts: %w", err)
	}

	for _, c := range f.Contracts {
		if err := Check(c); err != nil {
			return nil, err
		}
	}
	return f.Contracts, nil
}

// RegisterFile loads a YAML file and registers every contract in it
func (r *Registry) RegisterFile(path string) (int, error) {
	loaded, err := LoadYAML(path)
	if err != nil {
		return 0, err
	}

	for i, c := range loaded {
		if err := r.Register(c); err != nil {
			return i, err
		}
	}
	return len(loaded), nil
}
