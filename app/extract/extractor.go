// Package extract holds the pure contact-detection functions used during
// enrichment. Nothing here performs I/O and absence of a match is not an
// error: callers receive empty strings for fields that were not found.
package extract

import (
	"regexp"
	"strings"
)

var (
	emailRE = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

	// Messaging platform URLs recognized in descriptions and outbound links.
	messengerURLRE = regexp.MustCompile(`(?i)https?://(?:www\.)?(?:t\.me|telegram\.me|wa\.me|api\.whatsapp\.com|chat\.whatsapp\.com|discord\.gg|discord\.com/invite|signal\.me)/[^\s<>"']+`)

	// Bare messenger handles, e.g. "telegram: @cryptotrader" or "tg @deals".
	messengerHandleRE = regexp.MustCompile(`(?i)(?:telegram|tg|whatsapp|discord)\s*[:\-]?\s*@([a-zA-Z0-9_]{4,32})`)
)

// Contacts is the result of a contact-detection pass.
type Contacts struct {
	Email     string
	Messenger string
}

// Run scans a channel description and its outbound links for contact
// information. The first syntactically valid email in the description wins;
// for messengers a full URL (from either source) is preferred over a bare
// handle found in the text.
func Run(description string, links []string) Contacts {
	return Contacts{
		Email:     Email(description),
		Messenger: Messenger(description, links),
	}
}

// Email returns the first syntactically valid email address in the text,
// or an empty string.
func Email(text string) string {
	match := emailRE.FindString(text)
	if match == "" {
		return ""
	}
	// A trailing dot belongs to the sentence, not the domain.
	return strings.TrimRight(match, ".")
}

// Messenger returns the first messaging-platform URL found in the
// description or the outbound links, falling back to a bare handle in the
// description. Empty string when nothing matches.
func Messenger(description string, links []string) string {
	if url := messengerURLRE.FindString(description); url != "" {
		return strings.TrimRight(url, ".,;:)")
	}

	for _, link := range links {
		if url := messengerURLRE.FindString(link); url != "" {
			return strings.TrimRight(url, ".,;:)")
		}
	}

	if m := messengerHandleRE.FindStringSubmatch(description); len(m) == 2 {
		return "@" + m[1]
	}

	return ""
}
