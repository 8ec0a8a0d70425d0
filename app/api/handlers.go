package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lysyi3m/channel-comb/app/archive"
	"github.com/lysyi3m/channel-comb/app/campaign"
	"github.com/lysyi3m/channel-comb/app/crawler"
	"github.com/lysyi3m/channel-comb/app/credentials"
	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/export"
	"github.com/lysyi3m/channel-comb/app/filter"
	"github.com/lysyi3m/channel-comb/app/tasks"
)

func NewHandler(store Store, camp *campaign.Campaign, pool *credentials.Pool,
	crw *crawler.Crawler, exporter *export.Exporter, archiver *archive.Manager,
	scheduler tasks.TaskSchedulerInterface, scanner ScanTaskFactory, enricher EnrichTaskFactory) *Handler {
	return &Handler{
		store:     store,
		campaign:  camp,
		pool:      pool,
		crawler:   crw,
		exporter:  exporter,
		archiver:  archiver,
		scheduler: scheduler,
		scanner:   scanner,
		enricher:  enricher,
	}
}

func (h *Handler) GetHealth(c *gin.Context) {
	health := map[string]interface{}{
		"timestamp": time.Now().In(time.Local).Format(time.RFC3339),
	}

	if active, archived, enriched, err := h.store.GetStats(); err == nil {
		health["channels"] = active + archived
		health["enriched"] = enriched
	}

	health["campaign"] = h.campaign.Name
	health["credentials_available"] = h.pool.Available()

	c.JSON(http.StatusOK, health)
}

func (h *Handler) GetStats(c *gin.Context) {
	active, archived, enriched, err := h.store.GetStats()
	if err != nil {
		slog.Error("Database error", "operation", "get_stats", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	stats := map[string]interface{}{
		"campaign": h.campaign.Name,
		"channels": map[string]interface{}{
			"active":   active,
			"archived": archived,
			"enriched": enriched,
		},
		"scan": sessionInfo(h.crawler.Session()),
	}

	if tallies, err := h.store.GetKeywordTallies(); err == nil {
		stats["keywords"] = tallies
	}

	creds := make([]map[string]interface{}, 0)
	for i, entry := range h.pool.Entries() {
		creds = append(creds, map[string]interface{}{
			"index":  i,
			"status": string(entry.Status),
		})
	}
	stats["credentials"] = creds

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) APIListChannels(c *gin.Context) {
	channels, err := h.filteredChannels(c)
	if err != nil {
		slog.Error("Database error", "operation", "list_channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	views := make([]map[string]interface{}, 0, len(channels))
	for _, ch := range channels {
		views = append(views, channelInfo(ch))
	}

	c.JSON(http.StatusOK, map[string]interface{}{
		"channels": views,
		"total":    len(views),
	})
}

func (h *Handler) APIExportChannels(c *gin.Context) {
	channels, err := h.filteredChannels(c)
	if err != nil {
		slog.Error("Database error", "operation", "export_channels", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", "attachment; filename=channels.csv")
	c.Header("X-Channel-Count", strconv.Itoa(len(channels)))
	c.Status(http.StatusOK)

	if err := h.exporter.Write(c.Writer, channels); err != nil {
		// Headers are already out; all we can do is log.
		slog.Error("CSV export failed", "error", err)
	}
}

func (h *Handler) APIStartScan(c *gin.Context) {
	session := h.crawler.Session()
	if session.State == crawler.StateRunning {
		c.JSON(http.StatusConflict, gin.H{"error": "A scan is already running"})
		return
	}

	// A fresh credential set clears sticky exhaustion from the previous run.
	var body struct {
		Credentials []string `json:"credentials"`
	}
	if err := c.ShouldBindJSON(&body); err == nil && len(body.Credentials) > 0 {
		h.pool.Reset(body.Credentials)
		if err := h.store.ResetCredentials(body.Credentials); err != nil {
			slog.Error("Database error", "operation", "reset_credentials", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
			return
		}
	}

	if session.State != crawler.StateIdle {
		h.crawler.Reset()
	}

	task := h.scanner()
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing scan task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue scan task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success":  true,
		"message":  "Scan enqueued",
		"campaign": h.campaign.Name,
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func (h *Handler) APIStopScan(c *gin.Context) {
	if !h.scheduler.Cancel(tasks.TaskTypeScan) {
		c.JSON(http.StatusNotFound, gin.H{"error": "No scan is running"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Stop requested; the in-flight page will finish first",
	})
}

func (h *Handler) APIGetScanStatus(c *gin.Context) {
	status := sessionInfo(h.crawler.Session())
	status["credentials_available"] = h.pool.Available()
	c.JSON(http.StatusOK, status)
}

func (h *Handler) APIStartEnrichment(c *gin.Context) {
	limit := h.campaign.Settings.EnrichmentCap
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit parameter"})
			return
		}
		limit = parsed
	}

	task := h.enricher(limit)
	if err := h.scheduler.EnqueueTask(task); err != nil {
		slog.Error("Error enqueueing enrich task", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to enqueue enrich task",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"success": true,
		"message": "Enrichment enqueued",
		"limit":   limit,
		"task": gin.H{
			"id":   task.GetID(),
			"type": task.GetType(),
		},
	})
}

func (h *Handler) APIArchiveFiltered(c *gin.Context) {
	channels, err := h.filteredChannels(c)
	if err != nil {
		slog.Error("Database error", "operation", "archive_filtered", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Database error"})
		return
	}

	moved, err := h.archiver.ArchiveChannels(channels)
	if err != nil {
		slog.Error("Archive failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to archive channels",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "archived": moved})
}

func (h *Handler) APIArchiveExported(c *gin.Context) {
	moved, err := h.archiver.ArchiveLastExported()
	if err != nil {
		slog.Error("Archive failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to archive exported channels",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "archived": moved})
}

// filteredChannels lists the requested partition and applies the filter
// criteria from the query string.
func (h *Handler) filteredChannels(c *gin.Context) ([]database.Channel, error) {
	partition := database.PartitionActive
	if c.Query("partition") == string(database.PartitionArchived) {
		partition = database.PartitionArchived
	}

	channels, err := h.store.List(database.ListOptions{Partition: partition})
	if err != nil {
		return nil, err
	}

	return filter.Apply(channels, parseCriteria(c)), nil
}

func parseCriteria(c *gin.Context) filter.Criteria {
	criteria := filter.Criteria{
		UniqueEmail:   c.Query("unique_email") == "true",
		MessengerOnly: c.Query("messenger_only") == "true",
		Query:         c.Query("q"),
	}

	if raw := c.Query("languages"); raw != "" {
		for _, lang := range strings.Split(raw, ",") {
			if lang = strings.TrimSpace(lang); lang != "" {
				criteria.Languages = append(criteria.Languages, lang)
			}
		}
	}
	if raw := c.Query("min_subscribers"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			criteria.MinSubscribers = &v
		}
	}
	if raw := c.Query("max_subscribers"); raw != "" {
		if v, err := strconv.ParseInt(raw, 10, 64); err == nil {
			criteria.MaxSubscribers = &v
		}
	}

	return criteria
}

func sessionInfo(s crawler.Session) map[string]interface{} {
	info := map[string]interface{}{
		"state":            string(s.State),
		"videos_processed": s.VideosProcessed,
		"unique_channels":  s.UniqueChannels,
	}
	if s.CurrentKeyword != "" {
		info["current_keyword"] = s.CurrentKeyword
	}
	if s.Message != "" {
		info["message"] = s.Message
	}
	return info
}

func channelInfo(ch database.Channel) map[string]interface{} {
	info := map[string]interface{}{
		"id":          ch.ID,
		"url":         ch.URL,
		"name":        ch.Name,
		"language":    ch.Language,
		"email":       ch.Email,
		"messenger":   ch.Messenger,
		"crypto_hits": ch.CryptoHits,
		"links":       ch.Links,
		"enriched":    ch.Enriched,
		"partition":   string(ch.Partition),
	}
	if ch.Subscribers != nil {
		info["subscribers"] = *ch.Subscribers
	}
	if ch.LastUploadAt != nil {
		info["last_upload_at"] = ch.LastUploadAt.Format(time.RFC3339)
	}
	return info
}
