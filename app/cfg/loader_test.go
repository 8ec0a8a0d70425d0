package cfg

import (
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Error("GetVersion should never return empty string")
	}
}

func TestGetPanicsWithoutLoad(t *testing.T) {
	saved := globalCfg
	globalCfg = nil
	defer func() {
		globalCfg = saved
		if r := recover(); r == nil {
			t.Error("Get should panic when configuration is not loaded")
		}
	}()
	Get()
}

func TestConfigFields(t *testing.T) {
	cfg := &Cfg{
		DBPath:             "./test.db",
		LegacyStateFile:    "./state.json",
		LegacyChannelsFile: "./channels.txt",
		CampaignFile:       "./campaign.yml",
		Port:               "8080",
		APIAccessKey:       "test-key",
		MaxRetries:         3,
		RetryDelay:         1500,
		PageDelay:          500,
		UserAgent:          "Test Agent",
		Timezone:           "UTC",
		Debug:              true,
		Version:            "test-version",
	}

	if cfg.DBPath != "./test.db" {
		t.Errorf("Expected DBPath './test.db', got %s", cfg.DBPath)
	}
	if cfg.MaxRetries != 3 {
		t.Errorf("Expected MaxRetries 3, got %d", cfg.MaxRetries)
	}
}

func TestApplyTimezone(t *testing.T) {
	if err := applyTimezone("UTC"); err != nil {
		t.Errorf("applyTimezone(UTC) returned error: %v", err)
	}
	if err := applyTimezone("Not/AZone"); err == nil {
		t.Error("applyTimezone with invalid zone should return error")
	}
}
