package enrich

import (
	"context"
	"time"

	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/youtube"
)

// DetailClient is the slice of the remote API the worker needs.
type DetailClient interface {
	ChannelDetails(ctx context.Context, apiKey string, ids []string) ([]youtube.ChannelDetail, error)
}

// Store is the slice of the storage facade the worker reads candidates from
// and writes enrichment results through.
type Store interface {
	List(opts database.ListOptions) ([]database.Channel, error)
	UpdateEnrichment(id string, e database.Enrichment) error
	MarkCredentialExhausted(key string) error
}

// ActivityProbe reports the most recent upload time for a channel, or nil
// when the channel has no observable uploads.
type ActivityProbe interface {
	LastUpload(ctx context.Context, channelID string) (*time.Time, error)
}
