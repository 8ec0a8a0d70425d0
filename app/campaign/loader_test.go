package campaign

import (
	"os"
	"path/filepath"
	"testing"
)

func writeCampaign(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "crypto.yml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write campaign file: %v", err)
	}
	return path
}

func TestLoad_Valid(t *testing.T) {
	path := writeCampaign(t, `
keywords:
  - bitcoin trading
  - crypto news
credentials:
  - key-one
  - key-two
settings:
  max_results_per_keyword: 200
  enrichment_cap: 25
  activity_probe: true
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if c.Name != "crypto" {
		t.Errorf("Expected name derived from filename 'crypto', got %q", c.Name)
	}
	if len(c.Keywords) != 2 {
		t.Errorf("Expected 2 keywords, got %d", len(c.Keywords))
	}
	if c.Settings.MaxResultsPerKeyword != 200 {
		t.Errorf("Expected max_results_per_keyword 200, got %d", c.Settings.MaxResultsPerKeyword)
	}
	if !c.Settings.ActivityProbe {
		t.Error("Expected activity_probe to be true")
	}
}

func TestLoad_Defaults(t *testing.T) {
	path := writeCampaign(t, `
keywords: [defi]
credentials: [key-one]
`)

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if c.Settings.MaxResultsPerKeyword != 500 {
		t.Errorf("Expected default max_results_per_keyword 500, got %d", c.Settings.MaxResultsPerKeyword)
	}
	if c.Settings.EnrichmentCap != 50 {
		t.Errorf("Expected default enrichment_cap 50, got %d", c.Settings.EnrichmentCap)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"no keywords", "credentials: [key-one]"},
		{"no credentials", "keywords: [defi]"},
		{"empty keyword", "keywords: ['  ']\ncredentials: [key-one]"},
		{"empty credential", "keywords: [defi]\ncredentials: ['']"},
		{"negative cap", "keywords: [defi]\ncredentials: [k]\nsettings:\n  enrichment_cap: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCampaign(t, tt.content)
			if _, err := Load(path); err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
		t.Error("Expected error for missing campaign file")
	}
}
