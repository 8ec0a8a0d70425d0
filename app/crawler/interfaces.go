package crawler

import (
	"context"

	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/youtube"
)

// SearchClient is the slice of the remote API the crawler needs.
type SearchClient interface {
	Search(ctx context.Context, apiKey, keyword, pageToken string) (*youtube.SearchPage, error)
}

// Store is the slice of the storage facade the crawler writes through.
type Store interface {
	RecordKeywordHit(id, url, name, keyword string) (newChannel bool, newHit bool, err error)
	MarkCredentialExhausted(key string) error
	LoadScanState() (map[string]database.KeywordState, error)
	SaveScanState(state map[string]database.KeywordState)
	SyncLegacy()
}
