package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// ChannelRepository handles primary-layer operations on channel records.
type ChannelRepository struct {
	db *DB
}

func NewChannelRepository(db *DB) *ChannelRepository {
	return &ChannelRepository{db: db}
}

// RecordKeywordHit registers that keyword matched the channel. Unknown
// identifiers are inserted as fresh active records; the crypto-hit counter
// is incremented only the first time this keyword matches this channel, so
// re-running a keyword against an unchanged result set never double-counts.
func (r *ChannelRepository) RecordKeywordHit(id, url, name, keyword string) (newChannel bool, newHit bool, err error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO channels (id, url, name, crypto_hits, "partition", discovered_at)
		VALUES (?, ?, ?, 0, 'active', ?)
		ON CONFLICT(id) DO NOTHING
	`, id, url, name, time.Now().UnixNano())
	if err != nil {
		return false, false, fmt.Errorf("failed to insert channel: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		newChannel = true
	}

	res, err = tx.Exec(`
		INSERT OR IGNORE INTO channel_keywords (channel_id, keyword)
		VALUES (?, ?)
	`, id, keyword)
	if err != nil {
		return false, false, fmt.Errorf("failed to record keyword hit: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		newHit = true
		if _, err := tx.Exec(`UPDATE channels SET crypto_hits = crypto_hits + 1 WHERE id = ?`, id); err != nil {
			return false, false, fmt.Errorf("failed to increment hit count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, false, fmt.Errorf("failed to commit keyword hit: %w", err)
	}
	return newChannel, newHit, nil
}

// Upsert inserts or merges a full record by identifier: crypto-hit counts
// are summed, enrichment fields follow last-writer-wins.
func (r *ChannelRepository) Upsert(ch Channel) error {
	links, err := marshalLinks(ch.Links)
	if err != nil {
		return err
	}
	if ch.Partition == "" {
		ch.Partition = PartitionActive
	}
	if ch.DiscoveredAt == 0 {
		ch.DiscoveredAt = time.Now().UnixNano()
	}

	_, err = r.db.Exec(`
		INSERT INTO channels (
			id, url, name, subscribers, language, email, messenger,
			crypto_hits, links, enriched, "partition", last_upload_at, discovered_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			url = excluded.url,
			name = excluded.name,
			subscribers = excluded.subscribers,
			language = excluded.language,
			email = excluded.email,
			messenger = excluded.messenger,
			crypto_hits = channels.crypto_hits + excluded.crypto_hits,
			links = excluded.links,
			enriched = excluded.enriched,
			last_upload_at = excluded.last_upload_at
	`, ch.ID, ch.URL, ch.Name, ch.Subscribers, ch.Language, ch.Email, ch.Messenger,
		ch.CryptoHits, links, ch.Enriched, string(ch.Partition), timePtrToUnix(ch.LastUploadAt), ch.DiscoveredAt)
	if err != nil {
		return fmt.Errorf("failed to upsert channel: %w", err)
	}
	return nil
}

// UpdateEnrichment applies the result of an enrichment pass and marks the
// record enriched.
func (r *ChannelRepository) UpdateEnrichment(id string, e Enrichment) error {
	links, err := marshalLinks(e.Links)
	if err != nil {
		return err
	}

	res, err := r.db.Exec(`
		UPDATE channels
		SET name = ?, subscribers = ?, language = ?, email = ?, messenger = ?,
		    links = ?, last_upload_at = ?, enriched = 1
		WHERE id = ?
	`, e.Name, e.Subscribers, e.Language, e.Email, e.Messenger, links,
		timePtrToUnix(e.LastUploadAt), id)
	if err != nil {
		return fmt.Errorf("failed to update enrichment: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("channel %s not found", id)
	}
	return nil
}

// Get returns the record for an identifier, or nil when unknown.
func (r *ChannelRepository) Get(id string) (*Channel, error) {
	row := r.db.QueryRow(selectColumns+` FROM channels WHERE id = ?`, id)
	ch, err := scanChannel(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	return ch, nil
}

// List returns channels matching the options in discovery order.
func (r *ChannelRepository) List(opts ListOptions) ([]Channel, error) {
	builder := sq.Select(
		"id", "url", "name", "subscribers", "language", "email", "messenger",
		"crypto_hits", "links", "enriched", `"partition"`, "last_upload_at", "discovered_at",
	).From("channels").OrderBy("discovered_at ASC")

	if opts.Partition != "" {
		builder = builder.Where(sq.Eq{`"partition"`: string(opts.Partition)})
	}
	if opts.OnlyUnenriched {
		builder = builder.Where(sq.Eq{"enriched": false})
	}
	if opts.Limit > 0 {
		builder = builder.Limit(uint64(opts.Limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list channels: %w", err)
	}
	defer rows.Close()

	return collectChannels(rows)
}

// Snapshot returns a consistent point-in-time copy of every record in both
// partitions, ordered by discovery.
func (r *ChannelRepository) Snapshot() ([]Channel, error) {
	rows, err := r.db.Query(selectColumns + ` FROM channels ORDER BY discovered_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot channels: %w", err)
	}
	defer rows.Close()

	return collectChannels(rows)
}

// Move transfers the listed identifiers between partitions atomically:
// if any identifier is missing from the source partition the whole call
// fails and nothing moves.
func (r *ChannelRepository) Move(ids []string, from, to Partition) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	moved := 0
	for _, id := range ids {
		res, err := tx.Exec(`
			UPDATE channels SET "partition" = ? WHERE id = ? AND "partition" = ?
		`, string(to), id, string(from))
		if err != nil {
			return fmt.Errorf("failed to move channel %s: %w", id, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check move of channel %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("channel %s is not in partition %s, aborting move", id, from)
		}
		moved += int(n)
	}

	if moved != len(ids) {
		return fmt.Errorf("moved %d of %d channels, aborting", moved, len(ids))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit move: %w", err)
	}
	return nil
}

// GetStats returns per-partition totals and the enriched count.
func (r *ChannelRepository) GetStats() (active, archived, enriched int, err error) {
	err = r.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN "partition" = 'active' THEN 1 END),
			COUNT(CASE WHEN "partition" = 'archived' THEN 1 END),
			COUNT(CASE WHEN enriched = 1 THEN 1 END)
		FROM channels
	`).Scan(&active, &archived, &enriched)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("failed to get channel stats: %w", err)
	}
	return active, archived, enriched, nil
}

// GetKeywordTallies returns how many channels each keyword has matched.
func (r *ChannelRepository) GetKeywordTallies() (map[string]int, error) {
	rows, err := r.db.Query(`SELECT keyword, COUNT(*) FROM channel_keywords GROUP BY keyword`)
	if err != nil {
		return nil, fmt.Errorf("failed to get keyword tallies: %w", err)
	}
	defer rows.Close()

	tallies := make(map[string]int)
	for rows.Next() {
		var keyword string
		var count int
		if err := rows.Scan(&keyword, &count); err != nil {
			return nil, fmt.Errorf("failed to scan keyword tally: %w", err)
		}
		tallies[keyword] = count
	}
	return tallies, rows.Err()
}

// GetChannelCount returns the total number of records in both partitions.
func (r *ChannelRepository) GetChannelCount() (int, error) {
	var count int
	if err := r.db.QueryRow(`SELECT COUNT(*) FROM channels`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count channels: %w", err)
	}
	return count, nil
}

const selectColumns = `SELECT id, url, name, subscribers, language, email, messenger,
	crypto_hits, links, enriched, "partition", last_upload_at, discovered_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChannel(row rowScanner) (*Channel, error) {
	var ch Channel
	var subscribers sql.NullInt64
	var links string
	var partition string
	var lastUpload sql.NullInt64

	err := row.Scan(&ch.ID, &ch.URL, &ch.Name, &subscribers, &ch.Language,
		&ch.Email, &ch.Messenger, &ch.CryptoHits, &links, &ch.Enriched,
		&partition, &lastUpload, &ch.DiscoveredAt)
	if err != nil {
		return nil, err
	}

	if subscribers.Valid {
		ch.Subscribers = &subscribers.Int64
	}
	ch.Partition = Partition(partition)
	if lastUpload.Valid {
		t := time.Unix(0, lastUpload.Int64).UTC()
		ch.LastUploadAt = &t
	}
	if err := json.Unmarshal([]byte(links), &ch.Links); err != nil {
		return nil, fmt.Errorf("failed to decode links for %s: %w", ch.ID, err)
	}

	return &ch, nil
}

func collectChannels(rows *sql.Rows) ([]Channel, error) {
	var channels []Channel
	for rows.Next() {
		ch, err := scanChannel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan channel: %w", err)
		}
		channels = append(channels, *ch)
	}
	return channels, rows.Err()
}

func marshalLinks(links []string) (string, error) {
	if links == nil {
		links = []string{}
	}
	data, err := json.Marshal(links)
	if err != nil {
		return "", fmt.Errorf("failed to encode links: %w", err)
	}
	return string(data), nil
}

func timePtrToUnix(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UnixNano()
}
