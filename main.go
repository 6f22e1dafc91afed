package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"cngcrm-backend/config"
	"cngcrm-backend/routes"
	"cngcrm-backend/services"
	"cngcrm-backend/store"
)

func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("No .env file found")
	}
	settings := config.Load()

	remoteDB, err := config.OpenRemote(settings.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to remote database")
	}

	gw, err := store.NewPostgresGateway(remoteDB, settings.PollInterval, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize gateway")
	}

	var cache store.Cache
	var queue store.QueueStore
	if settings.CachePath != "" {
		cacheDB, err := config.OpenCache(settings.CachePath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", settings.CachePath).Msg("Failed to open cache database")
		}
		sq, err := store.NewSQLiteCache(cacheDB)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to migrate cache database")
		}
		cache, queue = sq, sq
	} else {
		mem := store.NewMemoryCache()
		cache, queue = mem, mem
		logger.Warn().Msg("CACHE_PATH empty, snapshot and queue will not survive restarts")
	}

	st := store.New(gw, cache, queue, store.Options{
		CacheTTL: settings.CacheTTL,
		Logger:   logger,
	})
	if err := st.Bootstrap(context.Background()); err != nil {
		logger.Fatal().Err(err).Msg("Failed to bootstrap unified store")
	}
	defer st.Close()

	reminders := services.NewReminderService(st, settings, logger)
	if err := reminders.StartScheduler(); err != nil {
		logger.Fatal().Err(err).Msg("Failed to start reminder scheduler")
	}
	defer reminders.StopScheduler()

	r := routes.SetupRouter(st, reminders, settings, logger)

	server := &http.Server{Addr: ":" + settings.Port, Handler: r}
	go func() {
		logger.Info().Str("port", settings.Port).Msg("Server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("Forced shutdown")
	}
}
