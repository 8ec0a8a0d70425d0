package database

import (
	"fmt"
	"log/slog"
	"strings"
)

// Store is the write-through facade over the primary SQLite layer and the
// legacy flat-file layer. Every mutation must succeed on the primary
// (retried once); the legacy mirror is best-effort and its failures are
// only logged. Reads are always served from the primary.
type Store struct {
	channels    *ChannelRepository
	credentials *CredentialRepository
	exports     *ExportRepository
	legacy      *LegacyStore
}

func NewStore(db *DB, legacy *LegacyStore) *Store {
	return &Store{
		channels:    NewChannelRepository(db),
		credentials: NewCredentialRepository(db),
		exports:     NewExportRepository(db),
		legacy:      legacy,
	}
}

// ImportLegacy seeds an empty primary from the legacy channel list, once,
// at startup. Migrated rows carry no keyword attribution, so their hit
// count starts at zero and enrichment is pending.
func (s *Store) ImportLegacy() (int, error) {
	count, err := s.channels.GetChannelCount()
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	urls, err := s.legacy.LoadChannels()
	if err != nil {
		return 0, fmt.Errorf("failed to read legacy channel list: %w", err)
	}

	imported := 0
	for _, url := range urls {
		id := channelIDFromURL(url)
		if id == "" {
			slog.Warn("Skipping unrecognized legacy channel URL", "url", url)
			continue
		}
		if err := s.channels.Upsert(Channel{ID: id, URL: url, Partition: PartitionActive}); err != nil {
			return imported, fmt.Errorf("failed to import legacy channel %s: %w", id, err)
		}
		imported++
	}

	if imported > 0 {
		slog.Info("Imported channels from legacy layer", "count", imported)
	}
	return imported, nil
}

func (s *Store) RecordKeywordHit(id, url, name, keyword string) (bool, bool, error) {
	var newChannel, newHit bool
	err := s.retryOnce("record keyword hit", func() error {
		var err error
		newChannel, newHit, err = s.channels.RecordKeywordHit(id, url, name, keyword)
		return err
	})
	return newChannel, newHit, err
}

func (s *Store) Upsert(ch Channel) error {
	return s.retryOnce("upsert channel", func() error {
		return s.channels.Upsert(ch)
	})
}

func (s *Store) UpdateEnrichment(id string, e Enrichment) error {
	return s.retryOnce("update enrichment", func() error {
		return s.channels.UpdateEnrichment(id, e)
	})
}

func (s *Store) Get(id string) (*Channel, error) {
	return s.channels.Get(id)
}

func (s *Store) List(opts ListOptions) ([]Channel, error) {
	return s.channels.List(opts)
}

func (s *Store) Snapshot() ([]Channel, error) {
	return s.channels.Snapshot()
}

func (s *Store) Move(ids []string, from, to Partition) error {
	return s.retryOnce("move channels", func() error {
		return s.channels.Move(ids, from, to)
	})
}

func (s *Store) ResetCredentials(keys []string) error {
	return s.credentials.Replace(keys)
}

func (s *Store) MarkCredentialExhausted(key string) error {
	return s.credentials.SetStatus(key, "exhausted")
}

func (s *Store) ListCredentials() ([]Credential, error) {
	return s.credentials.List()
}

func (s *Store) SaveExportSet(ids []string) error {
	return s.exports.SaveSet(ids)
}

func (s *Store) LastExportSet() ([]string, error) {
	return s.exports.LastSet()
}

func (s *Store) LoadScanState() (map[string]KeywordState, error) {
	return s.legacy.LoadState()
}

// SaveScanState persists pagination progress to the legacy layer only.
// Failures here never surface: the primary does not depend on it.
func (s *Store) SaveScanState(state map[string]KeywordState) {
	if err := s.legacy.SaveState(state); err != nil {
		slog.Warn("Legacy state write failed", "error", err)
	}
}

// SyncLegacy rewrites the legacy channel list from the primary. Called at
// page granularity by the crawler, mirroring the cadence of the original
// harvester. Legacy failures are logged, never surfaced.
func (s *Store) SyncLegacy() {
	channels, err := s.channels.Snapshot()
	if err != nil {
		slog.Warn("Legacy sync skipped, snapshot failed", "error", err)
		return
	}

	urls := make([]string, 0, len(channels))
	for _, ch := range channels {
		if ch.URL != "" {
			urls = append(urls, ch.URL)
		}
	}
	if err := s.legacy.SaveChannels(urls); err != nil {
		slog.Warn("Legacy channel list write failed", "error", err)
	}
}

func (s *Store) GetStats() (int, int, int, error) {
	return s.channels.GetStats()
}

func (s *Store) GetKeywordTallies() (map[string]int, error) {
	return s.channels.GetKeywordTallies()
}

// retryOnce runs a primary-layer write, retrying a single time before the
// failure is surfaced to the caller.
func (s *Store) retryOnce(op string, fn func() error) error {
	err := fn()
	if err == nil {
		return nil
	}
	slog.Warn("Primary storage write failed, retrying once", "operation", op, "error", err)
	if err := fn(); err != nil {
		return fmt.Errorf("%s failed after retry: %w", op, err)
	}
	return nil
}

func channelIDFromURL(url string) string {
	const marker = "/channel/"
	idx := strings.LastIndex(url, marker)
	if idx < 0 {
		return ""
	}
	id := strings.TrimSuffix(url[idx+len(marker):], "/")
	if id == "" || strings.ContainsAny(id, "/?#") {
		return ""
	}
	return id
}

var _ ChannelStore = (*Store)(nil)
var _ CredentialStore = (*Store)(nil)
var _ ExportStore = (*Store)(nil)
var _ ScanStateStore = (*Store)(nil)
var _ StatsStore = (*Store)(nil)
