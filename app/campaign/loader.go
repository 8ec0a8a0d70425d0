package campaign

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads and validates a campaign configuration file.
func Load(path string) (*Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read campaign file: %w", err)
	}

	var c Campaign
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse campaign YAML: %w", err)
	}

	if c.Name == "" {
		fileName := filepath.Base(path)
		c.Name = strings.TrimSuffix(fileName, filepath.Ext(fileName))
	}

	setDefaults(&c)

	if err := validate(&c); err != nil {
		return nil, fmt.Errorf("invalid campaign %s: %w", path, err)
	}

	return &c, nil
}

func setDefaults(c *Campaign) {
	if c.Settings.MaxResultsPerKeyword == 0 {
		c.Settings.MaxResultsPerKeyword = 500
	}
	if c.Settings.EnrichmentCap == 0 {
		c.Settings.EnrichmentCap = 50
	}
}

func validate(c *Campaign) error {
	if len(c.Keywords) == 0 {
		return fmt.Errorf("at least one keyword is required")
	}
	if len(c.Credentials) == 0 {
		return fmt.Errorf("at least one API credential is required")
	}
	for i, kw := range c.Keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("keyword at index %d is empty", i)
		}
	}
	for i, key := range c.Credentials {
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("credential at index %d is empty", i)
		}
	}
	if c.Settings.MaxResultsPerKeyword < 0 {
		return fmt.Errorf("max_results_per_keyword must be non-negative")
	}
	if c.Settings.EnrichmentCap < 0 {
		return fmt.Errorf("enrichment_cap must be non-negative")
	}
	return nil
}
