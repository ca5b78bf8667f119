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

	"github.com/lysyi3m/blog-comb/app/api"
	"github.com/lysyi3m/blog-comb/app/cfg"
	"github.com/lysyi3m/blog-comb/app/database"
	"github.com/lysyi3m/blog-comb/app/feed"
	"github.com/lysyi3m/blog-comb/app/session"
	"github.com/lysyi3m/blog-comb/app/source"
	"github.com/lysyi3m/blog-comb/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	setupLogger(appCfg.Debug)

	slog.Info("Starting Blog Comb server", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		fatal("Failed to connect to database", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		fatal("Failed to run migrations", err)
	}
	slog.Info("Database ready", "path", appCfg.DBPath, "migration_version", version, "dirty", dirty)

	viewCache := feed.NewViewCache(appCfg.ViewsDir)
	if err := viewCache.Run(); err != nil {
		fatal("Failed to load views", err)
	}
	slog.Info("Views loaded", "dir", appCfg.ViewsDir, "count", viewCache.GetViewCount())

	store, closeStore := newSessionStore(appCfg)
	defer closeStore()

	httpClient := &http.Client{Timeout: appCfg.RequestTimeout}
	client := source.NewClient(appCfg.APIBaseURL, httpClient, appCfg.UserAgent)

	snapshotRepo := database.NewSnapshotRepository(db)
	catalog := database.NewCatalog(snapshotRepo)
	hub := api.NewHub()

	scheduler := tasks.NewScheduler(snapshotRepo, client, hub)
	scheduler.Start()
	slog.Info("Background scheduler started", "workers", appCfg.WorkerCount, "interval", appCfg.SchedulerInterval, "refresh_interval", appCfg.RefreshInterval)

	handler := api.NewHandler(catalog, snapshotRepo, client, session.NewActions(store), viewCache, scheduler, hub)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port, "upstream", appCfg.APIBaseURL)
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

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}

	scheduler.Stop()
	slog.Info("Blog Comb server shutdown complete")
}

func setupLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))
}

// newSessionStore uses Redis when configured and process memory otherwise.
func newSessionStore(appCfg *cfg.Cfg) (session.Store, func()) {
	if appCfg.RedisURL == "" {
		slog.Info("Session store: memory", "ttl", appCfg.SessionTTL)
		return session.NewMemoryStore(appCfg.SessionTTL), func() {}
	}

	store, err := session.NewRedisStore(appCfg.RedisURL, appCfg.SessionTTL)
	if err != nil {
		fatal("Failed to connect to Redis", err)
	}
	slog.Info("Session store: redis", "ttl", appCfg.SessionTTL)
	return store, func() { _ = store.Close() }
}

func fatal(msg string, err error) {
	slog.Error(msg, "error", err)
	os.Exit(1)
}
