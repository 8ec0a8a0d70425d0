package enrich

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
)

const uploadsFeedURL = "https://www.youtube.com/feeds/videos.xml?channel_id="

// FeedProbe reads a channel's public uploads feed to find the most recent
// upload time. The feed costs no API quota, so it runs outside the
// credential pool entirely.
type FeedProbe struct {
	parser  *gofeed.Parser
	feedURL string
}

func NewFeedProbe(httpClient *http.Client, userAgent string) *FeedProbe {
	parser := gofeed.NewParser()
	parser.Client = httpClient
	parser.UserAgent = userAgent
	return &FeedProbe{parser: parser, feedURL: uploadsFeedURL}
}

// SetFeedURL overrides the uploads feed endpoint. Used by tests.
func (f *FeedProbe) SetFeedURL(feedURL string) {
	f.feedURL = feedURL
}

// LastUpload returns the newest entry timestamp in the channel's uploads
// feed, or nil when the feed is empty.
func (f *FeedProbe) LastUpload(ctx context.Context, channelID string) (*time.Time, error) {
	feed, err := f.parser.ParseURLWithContext(f.feedURL+channelID, ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch uploads feed: %w", err)
	}

	var latest *time.Time
	for _, item := range feed.Items {
		ts := item.PublishedParsed
		if ts == nil {
			ts = item.UpdatedParsed
		}
		if ts == nil {
			continue
		}
		if latest == nil || ts.After(*latest) {
			latest = ts
		}
	}
	return latest, nil
}

var _ ActivityProbe = (*FeedProbe)(nil)
