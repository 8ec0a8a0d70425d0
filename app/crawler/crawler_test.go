package crawler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lysyi3m/channel-comb/app/credentials"
	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/youtube"
)

type fakeClient struct {
	search func(apiKey, keyword, pageToken string) (*youtube.SearchPage, error)
	calls  int
}

func (f *fakeClient) Search(_ context.Context, apiKey, keyword, pageToken string) (*youtube.SearchPage, error) {
	f.calls++
	return f.search(apiKey, keyword, pageToken)
}

type fakeStore struct {
	channels  map[string]int // id -> hit count
	hits      map[string]bool
	exhausted []string
	state     map[string]database.KeywordState
	hitErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		channels: map[string]int{},
		hits:     map[string]bool{},
		state:    map[string]database.KeywordState{},
	}
}

func (f *fakeStore) RecordKeywordHit(id, url, name, keyword string) (bool, bool, error) {
	if f.hitErr != nil {
		return false, false, f.hitErr
	}
	_, existed := f.channels[id]
	key := id + "|" + keyword
	newHit := !f.hits[key]
	f.hits[key] = true
	if newHit {
		f.channels[id]++
	} else if !existed {
		f.channels[id] = 0
	}
	return !existed, newHit, nil
}

func (f *fakeStore) MarkCredentialExhausted(key string) error {
	f.exhausted = append(f.exhausted, key)
	return nil
}

func (f *fakeStore) LoadScanState() (map[string]database.KeywordState, error) {
	out := map[string]database.KeywordState{}
	for k, v := range f.state {
		out[k] = v
	}
	return out, nil
}

func (f *fakeStore) SaveScanState(state map[string]database.KeywordState) {
	f.state = map[string]database.KeywordState{}
	for k, v := range state {
		f.state[k] = v
	}
}

func (f *fakeStore) SyncLegacy() {}

func newTestCrawler(client SearchClient, pool *credentials.Pool, store Store) *Crawler {
	return NewCrawler(client, pool, store, 2, time.Millisecond, 0)
}

func page(next string, ids ...string) *youtube.SearchPage {
	p := &youtube.SearchPage{NextPageToken: next}
	for _, id := range ids {
		p.Items = append(p.Items, youtube.SearchItem{ChannelID: id, ChannelTitle: "ch-" + id})
	}
	return p
}

func TestRun_DiscoversAndDeduplicates(t *testing.T) {
	client := &fakeClient{search: func(_, keyword, token string) (*youtube.SearchPage, error) {
		switch keyword + "/" + token {
		case "bitcoin/":
			return page("p2", "UC1", "UC2"), nil
		case "bitcoin/p2":
			return page("", "UC2", "UC3"), nil
		case "defi/":
			return page("", "UC1"), nil
		}
		t.Fatalf("Unexpected request %s/%s", keyword, token)
		return nil, nil
	}}
	store := newFakeStore()
	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)

	if err := c.Run(context.Background(), []string{"bitcoin", "defi"}, 100); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	s := c.Session()
	if s.State != StateCompleted {
		t.Errorf("Expected completed session, got %s", s.State)
	}
	if s.VideosProcessed != 5 {
		t.Errorf("Expected 5 videos processed, got %d", s.VideosProcessed)
	}
	if s.UniqueChannels != 3 {
		t.Errorf("Expected 3 unique channels, got %d", s.UniqueChannels)
	}

	// UC1 matched both keywords, UC2 matched bitcoin on two pages (one hit).
	if store.channels["UC1"] != 2 {
		t.Errorf("Expected UC1 hit count 2, got %d", store.channels["UC1"])
	}
	if store.channels["UC2"] != 1 {
		t.Errorf("Expected UC2 hit count 1, got %d", store.channels["UC2"])
	}
}

func TestRun_RerunIsIdempotent(t *testing.T) {
	client := &fakeClient{search: func(_, _, _ string) (*youtube.SearchPage, error) {
		return page("", "UC1"), nil
	}}
	store := newFakeStore()

	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c.Run(context.Background(), []string{"bitcoin"}, 100); err != nil {
		t.Fatalf("First run returned error: %v", err)
	}

	// Second run over an unchanged result set: the fresh pass re-fetches
	// every keyword, but dedup keeps hit counts from double-counting.
	c2 := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c2.Run(context.Background(), []string{"bitcoin"}, 100); err != nil {
		t.Fatalf("Second run returned error: %v", err)
	}

	if store.channels["UC1"] != 1 {
		t.Errorf("Expected hit count to stay 1 after re-run, got %d", store.channels["UC1"])
	}
}

func TestRun_SkipsCompletedKeyword(t *testing.T) {
	client := &fakeClient{search: func(_, keyword, _ string) (*youtube.SearchPage, error) {
		if keyword == "bitcoin" {
			t.Error("Completed keyword must not be fetched while the campaign resumes")
		}
		return page("", "UC1"), nil
	}}
	store := newFakeStore()
	store.state["bitcoin"] = database.KeywordState{Completed: true}

	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c.Run(context.Background(), []string{"bitcoin", "defi"}, 100); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if got := c.Session().State; got != StateCompleted {
		t.Errorf("Expected completed, got %s", got)
	}
	if client.calls != 1 {
		t.Errorf("Expected only the pending keyword fetched, got %d calls", client.calls)
	}
}

func TestRun_FreshPassAfterAllKeywordsCompleted(t *testing.T) {
	client := &fakeClient{search: func(_, _, _ string) (*youtube.SearchPage, error) {
		return page("", "UC1"), nil
	}}
	store := newFakeStore()
	store.state["bitcoin"] = database.KeywordState{Completed: true, FetchedCount: 50}
	store.state["defi"] = database.KeywordState{Completed: true, FetchedCount: 50}

	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c.Run(context.Background(), []string{"bitcoin", "defi"}, 100); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// With nothing left to resume, the run must not degrade into a no-op.
	if client.calls != 2 {
		t.Errorf("Expected both keywords re-fetched on a fresh pass, got %d calls", client.calls)
	}
	if store.channels["UC1"] == 0 {
		t.Error("Fresh pass should have recorded discoveries")
	}
	for _, keyword := range []string{"bitcoin", "defi"} {
		st := store.state[keyword]
		if !st.Completed || st.FetchedCount != 1 {
			t.Errorf("Expected %s state rebuilt by the fresh pass, got %+v", keyword, st)
		}
	}
}

func TestRun_QuotaRotationRetriesSamePage(t *testing.T) {
	var tokensSeen []string
	client := &fakeClient{search: func(apiKey, _, token string) (*youtube.SearchPage, error) {
		tokensSeen = append(tokensSeen, apiKey+"/"+token)
		if apiKey == "dead" {
			return nil, youtube.ErrQuotaExceeded
		}
		return page("", "UC1"), nil
	}}
	store := newFakeStore()
	pool := credentials.NewPool([]string{"dead", "live"})

	c := newTestCrawler(client, pool, store)
	if err := c.Run(context.Background(), []string{"bitcoin"}, 100); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(tokensSeen) != 2 || tokensSeen[0] != "dead/" || tokensSeen[1] != "live/" {
		t.Errorf("Expected same page retried on new credential, got %v", tokensSeen)
	}
	if len(store.exhausted) != 1 || store.exhausted[0] != "dead" {
		t.Errorf("Expected 'dead' persisted as exhausted, got %v", store.exhausted)
	}
}

func TestRun_AllCredentialsExhausted(t *testing.T) {
	client := &fakeClient{search: func(apiKey, _, token string) (*youtube.SearchPage, error) {
		if token == "" {
			return page("p2", "UC1"), nil
		}
		return nil, youtube.ErrQuotaExceeded
	}}
	store := newFakeStore()

	c := newTestCrawler(client, credentials.NewPool([]string{"only"}), store)
	err := c.Run(context.Background(), []string{"bitcoin"}, 100)
	if !errors.Is(err, credentials.ErrAllExhausted) {
		t.Fatalf("Expected ErrAllExhausted, got %v", err)
	}

	s := c.Session()
	if s.State != StateErrored {
		t.Errorf("Expected errored session, got %s", s.State)
	}

	// Zero silent loss: the page ingested before exhaustion persists.
	if store.channels["UC1"] != 1 {
		t.Errorf("Expected UC1 persisted before exhaustion, got hits %d", store.channels["UC1"])
	}
	if st := store.state["bitcoin"]; st.FetchedCount != 1 {
		t.Errorf("Expected fetched count 1 persisted, got %+v", st)
	}
}

func TestRun_TransientErrorRetries(t *testing.T) {
	failures := 2
	client := &fakeClient{search: func(_, _, _ string) (*youtube.SearchPage, error) {
		if failures > 0 {
			failures--
			return nil, &youtube.StatusError{Code: 503}
		}
		return page("", "UC1"), nil
	}}
	store := newFakeStore()

	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c.Run(context.Background(), []string{"bitcoin"}, 100); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if client.calls != 3 {
		t.Errorf("Expected 3 attempts (2 failures + success), got %d", client.calls)
	}
	if c.Session().State != StateCompleted {
		t.Errorf("Expected completed after retries, got %s", c.Session().State)
	}
}

func TestRun_RetryCeilingAbortsKeywordOnly(t *testing.T) {
	client := &fakeClient{search: func(_, keyword, _ string) (*youtube.SearchPage, error) {
		if keyword == "cursed" {
			return nil, &youtube.StatusError{Code: 503}
		}
		return page("", "UC9"), nil
	}}
	store := newFakeStore()

	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c.Run(context.Background(), []string{"cursed", "fine"}, 100); err != nil {
		t.Fatalf("Run must isolate per-keyword failure, got error: %v", err)
	}

	if c.Session().State != StateCompleted {
		t.Errorf("Expected completed run, got %s", c.Session().State)
	}
	if store.channels["UC9"] != 1 {
		t.Error("Sibling keyword should still have been processed")
	}
}

func TestRun_MaxPerKeywordCap(t *testing.T) {
	client := &fakeClient{search: func(_, _, token string) (*youtube.SearchPage, error) {
		// Endless pagination: the cap must stop it.
		return page("more", "UC"+token), nil
	}}
	store := newFakeStore()

	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c.Run(context.Background(), []string{"bitcoin"}, 2); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if client.calls != 2 {
		t.Errorf("Expected pagination to stop at cap after 2 pages, got %d calls", client.calls)
	}
	if st := store.state["bitcoin"]; !st.Completed {
		t.Error("Keyword should be marked completed once cap is reached")
	}
}

func TestRun_StopRequestEndsRun(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &fakeClient{search: func(_, _, _ string) (*youtube.SearchPage, error) {
		cancel() // operator presses stop while the page is in flight
		return page("more", "UC1"), nil
	}}
	store := newFakeStore()

	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)
	if err := c.Run(ctx, []string{"bitcoin"}, 100); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	// The in-flight page still committed; no new page started.
	if store.channels["UC1"] != 1 {
		t.Error("In-flight page result must be committed on stop")
	}
	if client.calls != 1 {
		t.Errorf("Expected no new page after stop, got %d calls", client.calls)
	}

	s := c.Session()
	if s.State != StateCompleted || s.Message == "" {
		t.Errorf("Expected completed-with-message session, got %+v", s)
	}
}

func TestSubscribe_NotifiesOnChanges(t *testing.T) {
	client := &fakeClient{search: func(_, _, _ string) (*youtube.SearchPage, error) {
		return page("", "UC1"), nil
	}}
	store := newFakeStore()
	c := newTestCrawler(client, credentials.NewPool([]string{"key"}), store)

	var states []State
	c.Subscribe(func(s Session) { states = append(states, s.State) })

	if err := c.Run(context.Background(), []string{"bitcoin"}, 100); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}

	if len(states) < 2 {
		t.Fatalf("Expected at least running and completed notifications, got %v", states)
	}
	if states[0] != StateRunning {
		t.Errorf("Expected first notification running, got %s", states[0])
	}
	if states[len(states)-1] != StateCompleted {
		t.Errorf("Expected last notification completed, got %s", states[len(states)-1])
	}
}

func TestReset_ReturnsToIdle(t *testing.T) {
	c := newTestCrawler(&fakeClient{search: func(_, _, _ string) (*youtube.SearchPage, error) {
		return nil, youtube.ErrQuotaExceeded
	}}, credentials.NewPool([]string{"key"}), newFakeStore())

	c.Run(context.Background(), []string{"bitcoin"}, 100)
	if c.Session().State != StateErrored {
		t.Fatalf("Expected errored session, got %s", c.Session().State)
	}

	c.Reset()
	s := c.Session()
	if s.State != StateIdle || s.VideosProcessed != 0 {
		t.Errorf("Expected pristine idle session, got %+v", s)
	}
}
