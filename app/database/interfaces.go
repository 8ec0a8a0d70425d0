package database

// ChannelStore is the surface the crawler, enrichment worker, and archive
// manager operate through. Implemented by Store.
type ChannelStore interface {
	RecordKeywordHit(id, url, name, keyword string) (newChannel bool, newHit bool, err error)
	Upsert(ch Channel) error
	UpdateEnrichment(id string, e Enrichment) error
	Get(id string) (*Channel, error)
	List(opts ListOptions) ([]Channel, error)
	Snapshot() ([]Channel, error)
	Move(ids []string, from, to Partition) error
}

// CredentialStore persists credential pool state across runs.
type CredentialStore interface {
	ResetCredentials(keys []string) error
	MarkCredentialExhausted(key string) error
	ListCredentials() ([]Credential, error)
}

// ExportStore remembers the most recent export set.
type ExportStore interface {
	SaveExportSet(ids []string) error
	LastExportSet() ([]string, error)
}

// ScanStateStore carries the legacy per-keyword pagination state so an
// interrupted campaign resumes where it stopped.
type ScanStateStore interface {
	LoadScanState() (map[string]KeywordState, error)
	SaveScanState(state map[string]KeywordState)
}

// StatsStore backs the status endpoint.
type StatsStore interface {
	GetStats() (active, archived, enriched int, err error)
	GetKeywordTallies() (map[string]int, error)
}
