package youtube

// SearchItem is one video observed in a search result page. Only the
// owning channel matters for discovery.
type SearchItem struct {
	ChannelID    string
	ChannelTitle string
}

// SearchPage is one page of keyword search results.
type SearchPage struct {
	Items         []SearchItem
	NextPageToken string
}

// ChannelDetail is the enrichment payload for one channel.
type ChannelDetail struct {
	ID              string
	Title           string
	SubscriberCount int64
	SubscriberKnown bool // statistics.hiddenSubscriberCount hides the count
	Language        string
	Description     string
	Links           []string
}

// Wire types for the Data API v3 JSON payloads.

type searchResponse struct {
	Items         []searchResponseItem `json:"items"`
	NextPageToken string               `json:"nextPageToken"`
}

type searchResponseItem struct {
	Snippet struct {
		ChannelID    string `json:"channelId"`
		ChannelTitle string `json:"channelTitle"`
	} `json:"snippet"`
}

type channelsResponse struct {
	Items []channelsResponseItem `json:"items"`
}

type channelsResponseItem struct {
	ID      string `json:"id"`
	Snippet struct {
		Title           string `json:"title"`
		Description     string `json:"description"`
		DefaultLanguage string `json:"defaultLanguage"`
	} `json:"snippet"`
	Statistics struct {
		SubscriberCount       string `json:"subscriberCount"`
		HiddenSubscriberCount bool   `json:"hiddenSubscriberCount"`
	} `json:"statistics"`
}

type errorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Errors  []struct {
			Reason string `json:"reason"`
		} `json:"errors"`
	} `json:"error"`
}
