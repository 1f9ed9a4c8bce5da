package harmonize

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tonalworks/cadenza/rules"
)

// ParseProfile decodes a YAML rule profile and verifies that every
// hard tag resolves against the registry.
func ParseProfile(data []byte) (rules.Profile, error) {
	var p rules.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return rules.Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	if p.Name == "" {
		return rules.Profile{}, fmt.Errorf("parse profile: missing name")
	}
	if _, err := p.Checker(); err != nil {
		return rules.Profile{}, fmt.Errorf("parse profile: %w", err)
	}
	return p, nil
}

// LoadProfile resolves a profile by built-in name first, then as a
// YAML file path.
func LoadProfile(nameOrPath string) (rules.Profile, error) {
	if p, ok := rules.ProfileFor(nameOrPath); ok {
		return p, nil
	}
	data, err := os.ReadFile(nameOrPath)
	if err != nil {
		return rules.Profile{}, fmt.Errorf("load profile: %w", err)
	}
	return ParseProfile(data)
}
