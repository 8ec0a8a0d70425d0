package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/channel-comb/app/api"
	"github.com/lysyi3m/channel-comb/app/archive"
	"github.com/lysyi3m/channel-comb/app/campaign"
	"github.com/lysyi3m/channel-comb/app/cfg"
	"github.com/lysyi3m/channel-comb/app/crawler"
	"github.com/lysyi3m/channel-comb/app/credentials"
	"github.com/lysyi3m/channel-comb/app/database"
	"github.com/lysyi3m/channel-comb/app/enrich"
	"github.com/lysyi3m/channel-comb/app/export"
	"github.com/lysyi3m/channel-comb/app/tasks"
	"github.com/lysyi3m/channel-comb/app/youtube"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	setupLogger(appCfg.Debug)
	slog.Info("Starting Channel Comb", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "schema_version", version, "dirty", dirty)

	legacy := database.NewLegacyStore(appCfg.LegacyStateFile, appCfg.LegacyChannelsFile)
	store := database.NewStore(db, legacy)

	if imported, err := store.ImportLegacy(); err != nil {
		slog.Error("Failed to import legacy channel list", "error", err)
		os.Exit(1)
	} else if imported > 0 {
		slog.Info("Legacy channel list imported", "count", imported)
	}

	camp, err := campaign.Load(appCfg.CampaignFile)
	if err != nil {
		slog.Error("Failed to load campaign", "file", appCfg.CampaignFile, "error", err)
		os.Exit(1)
	}
	slog.Info("Campaign loaded", "name", camp.Name,
		"keywords", len(camp.Keywords), "credentials", len(camp.Credentials))

	pool := credentials.NewPool(camp.Credentials)
	if err := restoreCredentialState(store, pool, camp.Credentials); err != nil {
		slog.Error("Failed to restore credential state", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	client := youtube.NewClient(httpClient, appCfg.UserAgent)

	retryDelay := time.Duration(appCfg.RetryDelay) * time.Millisecond
	pageDelay := time.Duration(appCfg.PageDelay) * time.Millisecond

	crw := crawler.NewCrawler(client, pool, store, appCfg.MaxRetries, retryDelay, pageDelay)

	var probe enrich.ActivityProbe
	if camp.Settings.ActivityProbe {
		probe = enrich.NewFeedProbe(httpClient, appCfg.UserAgent)
	}
	worker := enrich.NewWorker(client, pool, store, probe, appCfg.MaxRetries, retryDelay)

	exporter := export.NewExporter(store)
	archiver := archive.NewManager(store)

	scheduler := tasks.NewScheduler()
	scheduler.Start()
	defer scheduler.Stop()

	scanner := func() tasks.TaskInterface {
		return tasks.NewScanTask(camp.Name, crw, camp.Keywords, camp.Settings.MaxResultsPerKeyword)
	}
	enricher := func(limit int) tasks.TaskInterface {
		return tasks.NewEnrichTask(camp.Name, worker, limit)
	}

	handler := api.NewHandler(store, camp, pool, crw, exporter, archiver, scheduler, scanner, enricher)
	server := api.NewServer(handler, appCfg.APIAccessKey, appCfg.Version)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	// Scheduler is stopped via defer; an in-flight scan commits its page
	// state first, so the next start resumes where this one ended.
	slog.Info("Shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// restoreCredentialState carries sticky quota exhaustion across restarts.
// A campaign credential unknown to the database is registered as available;
// one recorded as exhausted stays exhausted until the operator resets the
// pool through the API.
func restoreCredentialState(store *database.Store, pool *credentials.Pool, keys []string) error {
	persisted, err := store.ListCredentials()
	if err != nil {
		return err
	}

	known := make(map[string]string, len(persisted))
	for _, cred := range persisted {
		known[cred.Key] = cred.Status
	}

	fresh := false
	for _, key := range keys {
		if _, ok := known[key]; !ok {
			fresh = true
			break
		}
	}
	if fresh || len(persisted) == 0 {
		// New key set: start clean and persist it.
		return store.ResetCredentials(keys)
	}

	for _, key := range keys {
		if known[key] == string(credentials.StatusExhausted) {
			pool.MarkExhausted(key)
		}
	}
	return nil
}
