package models

import (
	"fmt"
	"sort"

	"github.com/mydarah/bot/constants"
	"github.com/mydarah/bot/utils"
)

// StateColor pairs a state with the named colour used for its hospitals.
type StateColor struct {
	State string `yaml:"state" validate:"required"`
	Color string `yaml:"color" validate:"required"`
}

// Lookups holds the static reference tables the per-hospital report depends on.
type Lookups struct {
	HospitalStates map[string]string `yaml:"hospital_states" validate:"required,min=1"`
	StateColors    []StateColor      `yaml:"state_colors" validate:"required,min=1,dive"`
}

// StateOf resolves a hospital name to its state.
func (l *Lookups) StateOf(hospital string) (string, error) {
	if l != nil {
		if state, ok := l.HospitalStates[utils.NormalizeName(hospital)]; ok {
			return state, nil
		}
	}
	return "", fmt.Errorf("hospital %q has no state mapping: %w", hospital, constants.ErrUnmappedEntity)
}

// ColorOf returns the colour name configured for a state.
func (l *Lookups) ColorOf(state string) (string, bool) {
	if l == nil {
		return "", false
	}
	for _, sc := range l.StateColors {
		if sc.State == state {
			return sc.Color, true
		}
	}
	return "", false
}

// Normalize rewrites hospital keys so lookups ignore stray whitespace.
func (l *Lookups) Normalize() {
	normalized := make(map[string]string, len(l.HospitalStates))
	for hospital, state := range l.HospitalStates {
		normalized[utils.NormalizeName(hospital)] = utils.NormalizeName(state)
	}
	l.HospitalStates = normalized
}

// Unmapped returns the sorted distinct hospitals that have no state mapping.
func (l *Lookups) Unmapped(hospitals []string) []string {
	seen := make(map[string]struct{})
	var missing []string
	for _, h := range hospitals {
		if _, err := l.StateOf(h); err == nil {
			continue
		}
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		missing = append(missing, h)
	}
	sort.Strings(missing)
	return missing
}
