package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/text/language"

	"github.com/lysyi3m/channel-comb/app/credentials"
	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/extract"
	"github.com/lysyi3m/channel-comb/app/youtube"
)

// Worker fills in the detail fields of discovered channels: display name,
// subscriber count, language, contacts and outbound links. Channels are
// fetched in batches; a batch that fails outright degrades to per-identifier
// requests so one bad record cannot block its neighbors.
type Worker struct {
	client DetailClient
	pool   *credentials.Pool
	store  Store
	probe  ActivityProbe // nil disables the uploads-feed probe

	maxRetries int
	retryDelay time.Duration
}

// Result summarizes one enrichment run. Failed records stay unenriched and
// become eligible again on the next run.
type Result struct {
	Eligible int
	Enriched int
	Failed   int
}

func NewWorker(client DetailClient, pool *credentials.Pool, store Store, probe ActivityProbe,
	maxRetries int, retryDelay time.Duration) *Worker {
	return &Worker{
		client:     client,
		pool:       pool,
		store:      store,
		probe:      probe,
		maxRetries: maxRetries,
		retryDelay: retryDelay,
	}
}

// Run enriches up to limit unenriched active channels, oldest discovery
// first. A limit of zero means no cap. Partial progress always persists:
// credential exhaustion or cancellation returns whatever was already
// committed alongside the error.
func (w *Worker) Run(ctx context.Context, limit int) (Result, error) {
	var res Result

	channels, err := w.store.List(database.ListOptions{
		Partition:      database.PartitionActive,
		OnlyUnenriched: true,
		Limit:          limit,
	})
	if err != nil {
		return res, fmt.Errorf("failed to list enrichment candidates: %w", err)
	}
	res.Eligible = len(channels)
	if len(channels) == 0 {
		slog.Info("No channels awaiting enrichment")
		return res, nil
	}

	apiKey, err := w.pool.Next()
	if err != nil {
		return res, err
	}

	for start := 0; start < len(channels); start += youtube.MaxBatchSize {
		if ctx.Err() != nil {
			return res, nil
		}

		batch := channels[start:min(start+youtube.MaxBatchSize, len(channels))]
		ids := make([]string, len(batch))
		for i, ch := range batch {
			ids[i] = ch.ID
		}

		details, key, err := w.fetchDetails(ctx, apiKey, ids)
		apiKey = key
		if err != nil && !errors.Is(err, credentials.ErrAllExhausted) && !errors.Is(err, context.Canceled) {
			slog.Warn("Batch detail fetch failed, retrying per identifier",
				"size", len(ids), "error", err)
			details, apiKey, err = w.fetchIndividually(ctx, apiKey, ids)
		}

		byID := make(map[string]youtube.ChannelDetail, len(details))
		for _, d := range details {
			byID[d.ID] = d
		}

		// Exhaustion or cancellation leaves the rest of the batch
		// unattempted, not failed; those records stay eligible as-is.
		aborted := err != nil

		for _, ch := range batch {
			detail, ok := byID[ch.ID]
			if !ok {
				if !aborted {
					res.Failed++
				}
				continue
			}
			if applyErr := w.apply(ctx, ch, detail); applyErr != nil {
				slog.Error("Failed to persist enrichment", "channel", ch.ID, "error", applyErr)
				res.Failed++
				continue
			}
			res.Enriched++
		}

		if err != nil {
			if errors.Is(err, credentials.ErrAllExhausted) {
				return res, err
			}
			return res, nil // canceled; in-flight work is committed
		}
	}

	slog.Info("Enrichment run finished",
		"eligible", res.Eligible, "enriched", res.Enriched, "failed", res.Failed)
	return res, nil
}

// fetchDetails retrieves one batch of channel details, rotating credentials
// on quota exhaustion and backing off on transient errors. The same batch is
// retried across rotations.
func (w *Worker) fetchDetails(ctx context.Context, apiKey string, ids []string) ([]youtube.ChannelDetail, string, error) {
	attempts := 0
	for {
		details, err := w.client.ChannelDetails(ctx, apiKey, ids)
		if err == nil {
			return details, apiKey, nil
		}

		if errors.Is(err, youtube.ErrQuotaExceeded) {
			w.pool.MarkExhausted(apiKey)
			if err := w.store.MarkCredentialExhausted(apiKey); err != nil {
				slog.Warn("Could not persist credential state", "error", err)
			}
			next, poolErr := w.pool.Next()
			if poolErr != nil {
				return nil, apiKey, poolErr
			}
			slog.Info("Rotated to next credential", "batch", len(ids))
			apiKey = next
			continue
		}

		if youtube.IsTransient(err) {
			attempts++
			if attempts > w.maxRetries {
				return nil, apiKey, fmt.Errorf("retry ceiling reached: %w", err)
			}
			wait := w.retryDelay * time.Duration(1<<(attempts-1))
			slog.Warn("Transient error, backing off",
				"attempt", attempts, "wait", wait.String(), "error", err)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return nil, apiKey, ctx.Err()
			}
			continue
		}

		return nil, apiKey, err
	}
}

// fetchIndividually is the degraded path after a batch failure: each
// identifier gets one solo request, so a single malformed record only costs
// itself. Credential exhaustion and cancellation still abort the pass.
func (w *Worker) fetchIndividually(ctx context.Context, apiKey string, ids []string) ([]youtube.ChannelDetail, string, error) {
	var out []youtube.ChannelDetail
	for _, id := range ids {
		details, key, err := w.fetchDetails(ctx, apiKey, []string{id})
		apiKey = key
		if err != nil {
			if errors.Is(err, credentials.ErrAllExhausted) || errors.Is(err, context.Canceled) {
				return out, apiKey, err
			}
			slog.Warn("Channel detail fetch failed, leaving unenriched", "channel", id, "error", err)
			continue
		}
		out = append(out, details...)
	}
	return out, apiKey, nil
}

func (w *Worker) apply(ctx context.Context, ch database.Channel, detail youtube.ChannelDetail) error {
	contacts := extract.Run(detail.Description, detail.Links)

	e := database.Enrichment{
		Name:      detail.Title,
		Language:  normalizeLanguage(detail.Language),
		Email:     contacts.Email,
		Messenger: contacts.Messenger,
		Links:     detail.Links,
	}
	if e.Name == "" {
		e.Name = ch.Name
	}
	if detail.SubscriberKnown {
		count := detail.SubscriberCount
		e.Subscribers = &count
	}

	if w.probe != nil {
		last, err := w.probe.LastUpload(ctx, ch.ID)
		if err != nil {
			slog.Debug("Activity probe failed", "channel", ch.ID, "error", err)
		} else {
			e.LastUploadAt = last
		}
	}

	return w.store.UpdateEnrichment(ch.ID, e)
}

// normalizeLanguage reduces a BCP 47 tag to its base language ("en-US"
// becomes "en"). Unparseable or empty input yields an empty string, which
// downstream layers present as unknown.
func normalizeLanguage(raw string) string {
	tag, err := language.Parse(raw)
	if err != nil {
		return ""
	}
	base, conf := tag.Base()
	if conf == language.No {
		return ""
	}
	return base.String()
}
