package campaign

// Campaign describes one discovery run: what to search for, which
// credentials to spend, and how hard to push the remote API.
type Campaign struct {
	Name        string   `yaml:"name"`
	Keywords    []string `yaml:"keywords"`
	Credentials []string `yaml:"credentials"`
	Settings    Settings `yaml:"settings"`
}

type Settings struct {
	MaxResultsPerKeyword int  `yaml:"max_results_per_keyword"`
	EnrichmentCap        int  `yaml:"enrichment_cap"`
	ActivityProbe        bool `yaml:"activity_probe"` // fetch uploads feed during enrichment
}
