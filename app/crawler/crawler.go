package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/lysyi3m/channel-comb/app/credentials"
	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/youtube"
)

// Crawler drains a keyword list against the search API, writing
// deduplicated channel discoveries through the store. One page is in
// flight at a time, so a credential's quota is never double-charged.
type Crawler struct {
	client SearchClient
	pool   *credentials.Pool
	store  Store

	maxRetries int
	retryDelay time.Duration
	pageDelay  time.Duration

	mu      sync.Mutex
	session Session
	notify  Notifier
}

func NewCrawler(client SearchClient, pool *credentials.Pool, store Store,
	maxRetries int, retryDelay, pageDelay time.Duration) *Crawler {
	return &Crawler{
		client:     client,
		pool:       pool,
		store:      store,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
		pageDelay:  pageDelay,
		session:    Session{State: StateIdle},
	}
}

// Subscribe registers the session-change notifier. The crawler publishes
// a session copy on every transition and counter update.
func (c *Crawler) Subscribe(notify Notifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.notify = notify
}

// Session returns a copy of the current session state.
func (c *Crawler) Session() Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Reset returns an errored or completed session to idle.
func (c *Crawler) Reset() {
	c.update(func(s *Session) {
		*s = Session{State: StateIdle}
	})
}

// Run executes a scan over the keywords in operator order. Per-keyword
// failures are isolated; only pool-wide credential exhaustion errors the
// whole run. A context cancellation lets the in-flight page commit, then
// stops before the next page starts.
func (c *Crawler) Run(ctx context.Context, keywords []string, maxPerKeyword int) error {
	c.update(func(s *Session) {
		s.State = StateRunning
		s.Message = ""
	})

	state, err := c.store.LoadScanState()
	if err != nil {
		slog.Warn("Could not load scan state, starting fresh", "error", err)
		state = map[string]database.KeywordState{}
	}

	// Resume only while the campaign is in progress. Once every requested
	// keyword has completed, the next run starts a fresh pass instead of
	// finishing instantly with nothing to do.
	if allCompleted(keywords, state) {
		slog.Info("All keywords completed previously, starting fresh pass")
		for _, keyword := range keywords {
			delete(state, keyword)
		}
		c.store.SaveScanState(state)
	}

	for _, keyword := range keywords {
		if ctx.Err() != nil {
			return c.finishStopped()
		}

		kwState := state[keyword]
		if kwState.Completed {
			slog.Debug("Keyword already completed, skipping", "keyword", keyword)
			continue
		}

		c.update(func(s *Session) { s.CurrentKeyword = keyword })

		if err := c.processKeyword(ctx, keyword, maxPerKeyword, state); err != nil {
			if errors.Is(err, credentials.ErrAllExhausted) {
				c.update(func(s *Session) {
					s.State = StateErrored
					s.Message = "all API credentials are exhausted"
				})
				return err
			}
			if errors.Is(err, context.Canceled) {
				return c.finishStopped()
			}
			// Unrecoverable for this keyword only; siblings continue.
			slog.Error("Keyword aborted", "keyword", keyword, "error", err)
		}
	}

	c.update(func(s *Session) {
		s.State = StateCompleted
		s.CurrentKeyword = ""
	})
	return nil
}

func (c *Crawler) processKeyword(ctx context.Context, keyword string, maxPerKeyword int,
	state map[string]database.KeywordState) error {

	kwState := state[keyword]

	apiKey, err := c.pool.Next()
	if err != nil {
		return err
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		page, newKey, err := c.fetchPage(ctx, apiKey, keyword, kwState.LastPageToken)
		if err != nil {
			return err
		}
		apiKey = newKey

		c.ingestPage(keyword, page)

		kwState.FetchedCount += len(page.Items)
		kwState.LastPageToken = page.NextPageToken
		if kwState.FetchedCount >= maxPerKeyword || page.NextPageToken == "" {
			kwState.Completed = true
		}
		state[keyword] = kwState
		c.store.SaveScanState(state)
		c.store.SyncLegacy()

		slog.Info("Page processed", "keyword", keyword,
			"fetched", kwState.FetchedCount, "completed", kwState.Completed)

		if kwState.Completed {
			return nil
		}

		// Politeness delay between pages.
		select {
		case <-time.After(c.pageDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// fetchPage retrieves one search page, rotating credentials on quota
// exhaustion and backing off on transient errors. The same page token is
// retried across rotations: no page is skipped or silently dropped.
func (c *Crawler) fetchPage(ctx context.Context, apiKey, keyword, pageToken string) (*youtube.SearchPage, string, error) {
	attempts := 0
	for {
		page, err := c.client.Search(ctx, apiKey, keyword, pageToken)
		if err == nil {
			return page, apiKey, nil
		}

		if errors.Is(err, youtube.ErrQuotaExceeded) {
			c.pool.MarkExhausted(apiKey)
			if err := c.store.MarkCredentialExhausted(apiKey); err != nil {
				slog.Warn("Could not persist credential state", "error", err)
			}
			next, poolErr := c.pool.Next()
			if poolErr != nil {
				return nil, apiKey, poolErr
			}
			slog.Info("Rotated to next credential", "keyword", keyword)
			apiKey = next
			continue
		}

		if youtube.IsTransient(err) {
			attempts++
			if attempts > c.maxRetries {
				return nil, apiKey, fmt.Errorf("retry ceiling reached: %w", err)
			}
			wait := c.retryDelay * time.Duration(1<<(attempts-1))
			slog.Warn("Transient error, backing off", "keyword", keyword,
				"attempt", attempts, "wait", wait.String(), "error", err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, apiKey, ctx.Err()
			}
			continue
		}

		return nil, apiKey, err
	}
}

// ingestPage commits one page of results. Per-record storage failures are
// logged and skipped; they never abort the page.
func (c *Crawler) ingestPage(keyword string, page *youtube.SearchPage) {
	newChannels := 0
	for _, item := range page.Items {
		newChannel, _, err := c.store.RecordKeywordHit(
			item.ChannelID, youtube.ChannelURL(item.ChannelID), item.ChannelTitle, keyword)
		if err != nil {
			slog.Error("Failed to record channel", "channel", item.ChannelID, "error", err)
			continue
		}
		if newChannel {
			newChannels++
		}
	}

	processed := len(page.Items)
	c.update(func(s *Session) {
		s.VideosProcessed += processed
		s.UniqueChannels += newChannels
	})
}

func allCompleted(keywords []string, state map[string]database.KeywordState) bool {
	if len(keywords) == 0 {
		return false
	}
	for _, keyword := range keywords {
		if !state[keyword].Completed {
			return false
		}
	}
	return true
}

func (c *Crawler) finishStopped() error {
	c.update(func(s *Session) {
		s.State = StateCompleted
		s.CurrentKeyword = ""
		s.Message = "stopped by operator"
	})
	return nil
}

func (c *Crawler) update(fn func(*Session)) {
	c.mu.Lock()
	fn(&c.session)
	snapshot := c.session
	notify := c.notify
	c.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
}
