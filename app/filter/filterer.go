// Package filter narrows channel snapshots for review and export. Filtering
// is pure: it never touches storage, and applying the same criteria twice
// yields the same result.
package filter

import (
	"strings"

	"github.com/lysyi3m/channel-comb/app/database"
)

// LanguageUnknown selects channels whose language could not be detected.
const LanguageUnknown = "unknown"

// Criteria is a conjunctive set of filters; zero values disable the
// corresponding filter.
type Criteria struct {
	// Languages keeps channels whose detected language is in the set.
	// LanguageUnknown is a valid member.
	Languages []string
	// MinSubscribers and MaxSubscribers bound the subscriber count
	// inclusively; nil leaves the corresponding side unbounded. Channels
	// with an unknown count never match a bounded filter.
	MinSubscribers *int64
	MaxSubscribers *int64
	// UniqueEmail keeps only channels with an email, one per address: the
	// earliest-discovered channel wins.
	UniqueEmail bool
	// MessengerOnly keeps channels with a messaging contact.
	MessengerOnly bool
	// Query is a case-insensitive substring match across name, identifier,
	// email and language.
	Query string
}

// Apply returns the channels matching every criterion, preserving input
// order.
func Apply(channels []database.Channel, c Criteria) []database.Channel {
	out := make([]database.Channel, 0, len(channels))
	for _, ch := range channels {
		if matches(ch, c) {
			out = append(out, ch)
		}
	}

	if c.UniqueEmail {
		out = dedupeByEmail(out)
	}
	return out
}

func matches(ch database.Channel, c Criteria) bool {
	if len(c.Languages) > 0 && !containsFold(c.Languages, languageOf(ch)) {
		return false
	}

	if c.MinSubscribers != nil || c.MaxSubscribers != nil {
		if ch.Subscribers == nil {
			return false
		}
		if c.MinSubscribers != nil && *ch.Subscribers < *c.MinSubscribers {
			return false
		}
		if c.MaxSubscribers != nil && *ch.Subscribers > *c.MaxSubscribers {
			return false
		}
	}

	if c.UniqueEmail && ch.Email == "" {
		return false
	}

	if c.MessengerOnly && ch.Messenger == "" {
		return false
	}

	if c.Query != "" {
		q := strings.ToLower(c.Query)
		haystack := strings.ToLower(ch.Name + " " + ch.ID + " " + ch.Email + " " + ch.Language)
		if !strings.Contains(haystack, q) {
			return false
		}
	}

	return true
}

// dedupeByEmail keeps one channel per email address, preferring the
// earliest-discovered one. Input order is preserved for the survivors.
func dedupeByEmail(channels []database.Channel) []database.Channel {
	earliest := make(map[string]int64, len(channels))
	for _, ch := range channels {
		key := strings.ToLower(ch.Email)
		if at, ok := earliest[key]; !ok || ch.DiscoveredAt < at {
			earliest[key] = ch.DiscoveredAt
		}
	}

	out := make([]database.Channel, 0, len(channels))
	taken := make(map[string]bool, len(earliest))
	for _, ch := range channels {
		key := strings.ToLower(ch.Email)
		if taken[key] || ch.DiscoveredAt != earliest[key] {
			continue
		}
		taken[key] = true
		out = append(out, ch)
	}
	return out
}

func languageOf(ch database.Channel) string {
	if ch.Language == "" {
		return LanguageUnknown
	}
	return ch.Language
}

func containsFold(set []string, value string) bool {
	for _, s := range set {
		if strings.EqualFold(s, value) {
			return true
		}
	}
	return false
}
