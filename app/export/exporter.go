// Package export renders channel views as CSV and remembers which channels
// were part of the last export so they can be archived as a set afterwards.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lysyi3m/channel-comb/app/database"
)

// Store is the slice of the storage facade the exporter records export
// sets through.
type Store interface {
	SaveExportSet(ids []string) error
}

var header = []string{
	"channel_id", "url", "name", "subscribers", "language",
	"email", "messenger", "crypto_hits", "links",
}

// Exporter writes channel views as CSV and persists the identifiers of
// every export so a later archive pass can target exactly that set.
type Exporter struct {
	store Store
}

func NewExporter(store Store) *Exporter {
	return &Exporter{store: store}
}

// Write renders the channels to w in their given order and records the set
// as the most recent export. Nothing is recorded if rendering fails.
func (e *Exporter) Write(w io.Writer, channels []database.Channel) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	ids := make([]string, 0, len(channels))
	for _, ch := range channels {
		if err := cw.Write(record(ch)); err != nil {
			return fmt.Errorf("failed to write CSV row for %s: %w", ch.ID, err)
		}
		ids = append(ids, ch.ID)
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}

	if err := e.store.SaveExportSet(ids); err != nil {
		return fmt.Errorf("failed to record export set: %w", err)
	}
	return nil
}

func record(ch database.Channel) []string {
	subscribers := ""
	if ch.Subscribers != nil {
		subscribers = strconv.FormatInt(*ch.Subscribers, 10)
	}
	return []string{
		ch.ID,
		ch.URL,
		ch.Name,
		subscribers,
		ch.Language,
		ch.Email,
		ch.Messenger,
		strconv.Itoa(ch.CryptoHits),
		strings.Join(ch.Links, "|"),
	}
}
