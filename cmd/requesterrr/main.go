package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/requesterrr/requesterrr/internal/api"
	"github.com/requesterrr/requesterrr/internal/config"
	"github.com/requesterrr/requesterrr/internal/database"
	"github.com/requesterrr/requesterrr/internal/downloads"
	"github.com/requesterrr/requesterrr/internal/ledger"
	"github.com/requesterrr/requesterrr/internal/logger"
	"github.com/requesterrr/requesterrr/internal/metadata"
	"github.com/requesterrr/requesterrr/internal/metadata/imdb"
	"github.com/requesterrr/requesterrr/internal/metadata/tmdb"
	"github.com/requesterrr/requesterrr/internal/notification/plex"
	"github.com/requesterrr/requesterrr/internal/request"
	"github.com/requesterrr/requesterrr/internal/scheduler"
	"github.com/requesterrr/requesterrr/internal/scheduler/tasks"
)

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Path:   cfg.Logging.Path,
	})
	defer log.Close()

	log.Info().
		Int("port", cfg.Server.Port).
		Str("logLevel", cfg.Logging.Level).
		Msg("Starting requesterrr")

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	store := ledger.NewStore(db.Conn(), log.Logger)

	// Metadata providers and the resolver over them.
	tmdbClient := tmdb.NewClient(cfg.TMDB, log.Logger)
	if !tmdbClient.IsConfigured() {
		log.Warn().Msg("TMDB API key is not set, search and resolution will fail")
	}
	imdbClient := imdb.NewClient(cfg.IMDB, log.Logger)
	resolver := metadata.NewResolver(tmdbClient, imdbClient, log.Logger)

	// Acquisition gateways and the dispatcher.
	radarrClient := request.NewRadarrClient(cfg.Radarr, log.Logger)
	sonarrClient := request.NewSonarrClient(cfg.Sonarr, log.Logger)
	dispatcher := request.NewDispatcher(resolver, radarrClient, sonarrClient, store, log.Logger)

	// Completion pipeline over the download queue.
	qbitClient := downloads.NewQBittorrentClient(cfg.QBittorrent, log.Logger)
	plexClient := plex.NewClient(cfg.Plex, log.Logger)
	pipeline := downloads.NewPipeline(qbitClient, plexClient, store, log.Logger)

	sched, err := scheduler.New(log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create scheduler")
	}
	if err := tasks.RegisterCompletionTask(sched, pipeline, cfg.Scheduler, log.Logger); err != nil {
		log.Fatal().Err(err).Msg("Failed to register completion task")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := api.NewServer(cfg, resolver, dispatcher, store, sched, log.Logger)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("Scheduler shutdown failed")
	}
}
