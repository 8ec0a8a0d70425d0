package cfg

type Cfg struct {
	// Storage configuration
	DBPath             string
	LegacyStateFile    string
	LegacyChannelsFile string

	// Application configuration
	CampaignFile string
	Port         string
	APIAccessKey string

	// Remote API behavior
	MaxRetries int
	RetryDelay int // milliseconds
	PageDelay  int // milliseconds between search pages

	// Application metadata
	UserAgent string
	Timezone  string
	Debug     bool
	Version   string
}
