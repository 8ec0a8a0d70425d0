package tasks

import (
	"context"
	"log/slog"

	"github.com/lysyi3m/channel-comb/app/enrich"
)

type EnrichTask struct {
	Task
	worker *enrich.Worker
	limit  int
}

func NewEnrichTask(campaignName string, worker *enrich.Worker, limit int) *EnrichTask {
	return &EnrichTask{
		Task:   NewTask(TaskTypeEnrich, campaignName),
		worker: worker,
		limit:  limit,
	}
}

func (t *EnrichTask) Execute(ctx context.Context) error {
	res, err := t.worker.Run(ctx, t.limit)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "Enrich",
		"campaign", t.CampaignName,
		"duration", t.GetDuration(),
		"eligible", res.Eligible,
		"enriched", res.Enriched,
		"failed", res.Failed)

	return nil
}
