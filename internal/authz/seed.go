package authz

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SeedEntry provisions one page rule.
type SeedEntry struct {
	URL    string `yaml:"url"`
	Status Status `yaml:"status"`
}

// SeedConfig is the top-level YAML seed document.
type SeedConfig struct {
	Pages []SeedEntry `yaml:"pages"`
}

// LoadSeed reads and validates a YAML seed file. Only explicit
// classifications may be seeded.
func LoadSeed(path string) (*SeedConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed config: %w", err)
	}
	var cfg SeedConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("seed config: %w", err)
	}
	for i, p := range cfg.Pages {
		if p.URL == "" {
			return nil, fmt.Errorf("seed config: page[%d] missing url", i)
		}
		if p.Status != StatusWhitelisted && p.Status != StatusBlacklisted {
			return nil, fmt.Errorf("seed config: page[%d] (%s) invalid status %q", i, p.URL, p.Status)
		}
	}
	return &cfg, nil
}
