package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/channel-comb/app/crawler"
)

type ScanTask struct {
	Task
	crawler       *crawler.Crawler
	keywords      []string
	maxPerKeyword int
}

func NewScanTask(campaignName string, c *crawler.Crawler, keywords []string, maxPerKeyword int) *ScanTask {
	task := NewTask(TaskTypeScan, campaignName)
	// Re-running an exhausted scan only burns quota on the same failure.
	task.MaxRetries = 0

	return &ScanTask{
		Task:          task,
		crawler:       c,
		keywords:      keywords,
		maxPerKeyword: maxPerKeyword,
	}
}

func (t *ScanTask) Execute(ctx context.Context) error {
	if err := t.crawler.Run(ctx, t.keywords, t.maxPerKeyword); err != nil {
		return err
	}

	session := t.crawler.Session()
	slog.Info("Task completed",
		"type", "Scan",
		"campaign", t.CampaignName,
		"duration", t.GetDuration(),
		"videos_processed", session.VideosProcessed,
		"unique_channels", session.UniqueChannels)

	return nil
}
