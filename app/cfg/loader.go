package cfg

import (
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	if Version == "" {
		return "unknown"
	}
	return Version
}

type rawCfg struct {
	// Storage configuration
	DBPath             string `long:"db-path" env:"DB_PATH" default:"./channel-comb.db" description:"Path to the SQLite database file"`
	LegacyStateFile    string `long:"legacy-state-file" env:"LEGACY_STATE_FILE" default:"./state.json" description:"Legacy harvester state file (best-effort compatibility layer)"`
	LegacyChannelsFile string `long:"legacy-channels-file" env:"LEGACY_CHANNELS_FILE" default:"./channels.txt" description:"Legacy harvester channel list file (best-effort compatibility layer)"`

	// Application configuration
	CampaignFile string `long:"campaign-file" env:"CAMPAIGN_FILE" default:"./campaign.yml" description:"Campaign configuration file (keywords, credentials, caps)"`
	Port         string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	APIAccessKey string `long:"api-key" env:"API_ACCESS_KEY" description:"API access key for mutating endpoints (optional)"`

	// Remote API behavior
	MaxRetries int `long:"max-retries" env:"MAX_RETRIES" default:"3" description:"Retry ceiling for transient remote errors"`
	RetryDelay int `long:"retry-delay" env:"RETRY_DELAY" default:"1500" description:"Initial retry delay in milliseconds"`
	PageDelay  int `long:"page-delay" env:"PAGE_DELAY" default:"500" description:"Delay between search result pages in milliseconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Channel Comb/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		DBPath:             raw.DBPath,
		LegacyStateFile:    raw.LegacyStateFile,
		LegacyChannelsFile: raw.LegacyChannelsFile,
		CampaignFile:       raw.CampaignFile,
		Port:               raw.Port,
		APIAccessKey:       raw.APIAccessKey,
		MaxRetries:         raw.MaxRetries,
		RetryDelay:         raw.RetryDelay,
		PageDelay:          raw.PageDelay,
		UserAgent:          raw.UserAgent,
		Timezone:           raw.Timezone,
		Debug:              raw.Debug,
		Version:            GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
