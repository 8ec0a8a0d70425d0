package youtube

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	// PageSize is the fixed page size for keyword search requests.
	PageSize = 50
	// MaxBatchSize is the maximum number of channel identifiers accepted
	// by a single detail request.
	MaxBatchSize = 50

	defaultBaseURL = "https://www.googleapis.com/youtube/v3"
)

var linkRE = regexp.MustCompile(`https?://[^\s<>"']+`)

// Client talks to the YouTube Data API v3. It is stateless with respect to
// credentials: the caller supplies the API key per request so the
// credential pool keeps full control over rotation.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

func NewClient(httpClient *http.Client, userAgent string) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL:    defaultBaseURL,
		httpClient: httpClient,
		userAgent:  userAgent,
	}
}

// SetBaseURL overrides the API endpoint. Used by tests.
func (c *Client) SetBaseURL(baseURL string) {
	c.baseURL = strings.TrimSuffix(baseURL, "/")
}

// Search fetches one page of video search results for a keyword. An empty
// pageToken requests the first page.
func (c *Client) Search(ctx context.Context, apiKey, keyword, pageToken string) (*SearchPage, error) {
	params := url.Values{}
	params.Set("part", "snippet")
	params.Set("type", "video")
	params.Set("q", keyword)
	params.Set("maxResults", strconv.Itoa(PageSize))
	params.Set("key", apiKey)
	if pageToken != "" {
		params.Set("pageToken", pageToken)
	}

	body, err := c.get(ctx, "/search", params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	page := &SearchPage{NextPageToken: resp.NextPageToken}
	for _, item := range resp.Items {
		if item.Snippet.ChannelID == "" {
			continue
		}
		page.Items = append(page.Items, SearchItem{
			ChannelID:    item.Snippet.ChannelID,
			ChannelTitle: item.Snippet.ChannelTitle,
		})
	}

	return page, nil
}

// ChannelDetails fetches detail records for up to MaxBatchSize channels.
// The API silently drops identifiers it cannot resolve, so the returned
// slice may be shorter than the request; callers handle the gap
// per-identifier.
func (c *Client) ChannelDetails(ctx context.Context, apiKey string, ids []string) ([]ChannelDetail, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > MaxBatchSize {
		return nil, fmt.Errorf("batch of %d exceeds maximum of %d identifiers", len(ids), MaxBatchSize)
	}

	params := url.Values{}
	params.Set("part", "snippet,statistics")
	params.Set("id", strings.Join(ids, ","))
	params.Set("maxResults", strconv.Itoa(MaxBatchSize))
	params.Set("key", apiKey)

	body, err := c.get(ctx, "/channels", params)
	if err != nil {
		return nil, err
	}

	var resp channelsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse channels response: %w", err)
	}

	details := make([]ChannelDetail, 0, len(resp.Items))
	for _, item := range resp.Items {
		detail := ChannelDetail{
			ID:          item.ID,
			Title:       item.Snippet.Title,
			Language:    item.Snippet.DefaultLanguage,
			Description: item.Snippet.Description,
			Links:       extractLinks(item.Snippet.Description),
		}
		if !item.Statistics.HiddenSubscriberCount && item.Statistics.SubscriberCount != "" {
			if count, err := strconv.ParseInt(item.Statistics.SubscriberCount, 10, 64); err == nil {
				detail.SubscriberCount = count
				detail.SubscriberKnown = true
			}
		}
		details = append(details, detail)
	}

	return details, nil
}

// ChannelURL returns the canonical channel URL for an identifier.
func ChannelURL(id string) string {
	return "https://www.youtube.com/channel/" + id
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classifyError(resp.StatusCode, body)
	}

	return body, nil
}

// classifyError separates quota exhaustion from other failures. The API
// reports quota problems as 403 with a structured reason, which is the
// only signal the credential pool acts on.
func (c *Client) classifyError(status int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil {
		if status == http.StatusForbidden {
			for _, e := range errResp.Error.Errors {
				if e.Reason == "quotaExceeded" || e.Reason == "dailyLimitExceeded" {
					return ErrQuotaExceeded
				}
			}
		}
		return &StatusError{Code: status, Message: errResp.Error.Message}
	}
	return &StatusError{Code: status}
}

// extractLinks pulls outbound URLs from a channel description, dropping
// duplicates while preserving first-seen order.
func extractLinks(description string) []string {
	matches := linkRE.FindAllString(description, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	links := make([]string, 0, len(matches))
	for _, m := range matches {
		m = strings.TrimRight(m, ".,;:)")
		if seen[m] {
			continue
		}
		seen[m] = true
		links = append(links, m)
	}
	return links
}
