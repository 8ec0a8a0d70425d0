package api

import (
	"github.com/lysyi3m/channel-comb/app/archive"
	"github.com/lysyi3m/channel-comb/app/campaign"
	"github.com/lysyi3m/channel-comb/app/crawler"
	"github.com/lysyi3m/channel-comb/app/credentials"
	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/export"
	"github.com/lysyi3m/channel-comb/app/tasks"
)

// Store is the storage surface the handlers read from. Implemented by
// database.Store.
type Store interface {
	database.ChannelStore
	database.CredentialStore
	database.StatsStore
}

var _ Store = (*database.Store)(nil)

type Handler struct {
	store     Store
	campaign  *campaign.Campaign
	pool      *credentials.Pool
	crawler   *crawler.Crawler
	exporter  *export.Exporter
	archiver  *archive.Manager
	scheduler tasks.TaskSchedulerInterface
	scanner   ScanTaskFactory
	enricher  EnrichTaskFactory
}

// EnrichTaskFactory builds an enrichment task for the scheduler. The
// handler does not construct workers itself; main wires the factory.
type EnrichTaskFactory func(limit int) tasks.TaskInterface

// ScanTaskFactory builds a scan task over the campaign's keywords.
type ScanTaskFactory func() tasks.TaskInterface
