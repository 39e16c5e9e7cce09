package config

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/mydarah/bot/models"
)

//go:embed lookups.yaml
var defaultLookups []byte

// LoadLookups reads the hospital→state and state→colour tables.
// An empty path loads the copy embedded in the binary.
func LoadLookups(path string) (*models.Lookups, error) {
	data := defaultLookups
	if path != "" {
		file, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read lookups file: %w", err)
		}
		data = file
	}
	return ParseLookups(data)
}

// ParseLookups decodes and validates lookup tables from YAML.
func ParseLookups(data []byte) (*models.Lookups, error) {
	var lookups models.Lookups
	if err := yaml.Unmarshal(data, &lookups); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lookups: %w", err)
	}
	if err := validator.New().Struct(&lookups); err != nil {
		return nil, fmt.Errorf("invalid lookups: %w", err)
	}
	lookups.Normalize()

	// Every state a hospital maps to needs a colour, or the legend would be incomplete.
	for hospital, state := range lookups.HospitalStates {
		if _, ok := lookups.ColorOf(state); !ok {
			return nil, fmt.Errorf("invalid lookups: state %q of %q has no colour", state, hospital)
		}
	}
	return &lookups, nil
}
