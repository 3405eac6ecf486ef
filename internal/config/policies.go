package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SourceAuthorityOverride is one per-domain authority weight from the
// source-authority file. LoadPolicies parses it; no component applies the
// weight to an extracted fact's confidence.
type SourceAuthorityOverride struct {
	Domain          string  `yaml:"domain"`
	AuthorityWeight float64 `yaml:"authority_weight"`
	Notes           string  `yaml:"notes,omitempty"`
}

// DomainPolicy is one host's rate-limit override.
type DomainPolicy struct {
	Domain            string  `yaml:"domain"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	Concurrent        int     `yaml:"concurrent"`
}

// ModelRoutingEntry assigns a task role to an LLM tier.
type ModelRoutingEntry struct {
	Task string `yaml:"task"`
	Tier string `yaml:"tier"`
}

// RiskCategoryDefinition documents one member of the risk-category closed
// set, read from config for display purposes; the set itself stays closed
// in pkg/domain regardless of what this file lists.
type RiskCategoryDefinition struct {
	Category    string `yaml:"category"`
	Description string `yaml:"description"`
}

// Policies is the parsed form of every file referenced by PolicyPaths.
type Policies struct {
	SourceAuthority []SourceAuthorityOverride
	DomainPolicies  []DomainPolicy
	ModelRouting    []ModelRoutingEntry
	RiskCategories  []RiskCategoryDefinition
}

// LoadPolicies reads every non-empty path in paths, tolerating missing
// files for any single category (a deployment may only want to override
// one of the four).
func LoadPolicies(paths PolicyPaths) (*Policies, error) {
	p := &Policies{}

	if paths.SourceAuthority != "" {
		if err := loadYAMLList(paths.SourceAuthority, &p.SourceAuthority); err != nil {
			return nil, fmt.Errorf("load source authority policy: %w", err)
		}
	}
	if paths.DomainPolicies != "" {
		if err := loadYAMLList(paths.DomainPolicies, &p.DomainPolicies); err != nil {
			return nil, fmt.Errorf("load domain policy: %w", err)
		}
	}
	if paths.ModelRouting != "" {
		if err := loadYAMLList(paths.ModelRouting, &p.ModelRouting); err != nil {
			return nil, fmt.Errorf("load model routing policy: %w", err)
		}
		for _, entry := range p.ModelRouting {
			if !validTier[entry.Tier] {
				return nil, fmt.Errorf("model routing policy: task %q names unknown tier %q", entry.Task, entry.Tier)
			}
		}
	}
	if paths.RiskCategories != "" {
		if err := loadYAMLList(paths.RiskCategories, &p.RiskCategories); err != nil {
			return nil, fmt.Errorf("load risk category policy: %w", err)
		}
	}
	return p, nil
}

func loadYAMLList(path string, target interface{}) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, target)
}
