package database

import (
	"time"
)

type Partition string

const (
	PartitionActive   Partition = "active"
	PartitionArchived Partition = "archived"
)

// Channel is one discovered creator channel. The identifier is globally
// unique across both partitions; a record moves between partitions but is
// never duplicated.
type Channel struct {
	ID           string
	URL          string
	Name         string
	Subscribers  *int64 // nil when unknown or hidden
	Language     string
	Email        string
	Messenger    string
	CryptoHits   int
	Links        []string // insertion order, duplicates removed
	Enriched     bool
	Partition    Partition
	LastUploadAt *time.Time
	DiscoveredAt int64 // monotonic sequence for stable ordering
}

// Enrichment carries the fields updated by an enrichment pass. Last writer
// wins for all of them.
type Enrichment struct {
	Name         string
	Subscribers  *int64
	Language     string
	Email        string
	Messenger    string
	Links        []string
	LastUploadAt *time.Time
}

// Credential is a persisted API key with its sticky quota state.
type Credential struct {
	Key    string
	Status string
}

// ListOptions narrows a channel listing.
type ListOptions struct {
	Partition      Partition
	OnlyUnenriched bool
	Limit          int
}
