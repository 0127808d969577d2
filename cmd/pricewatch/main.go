package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/maltedev/price-tracker/internal/api"
	"github.com/maltedev/price-tracker/internal/cache"
	"github.com/maltedev/price-tracker/internal/config"
	"github.com/maltedev/price-tracker/internal/database"
	"github.com/maltedev/price-tracker/internal/fetch"
	"github.com/maltedev/price-tracker/internal/logger"
	"github.com/maltedev/price-tracker/internal/models"
	"github.com/maltedev/price-tracker/internal/parser"
	"github.com/maltedev/price-tracker/internal/shopping"
	"github.com/maltedev/price-tracker/internal/tracker"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	db, err := database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		MaxConns: cfg.Database.MaxConns,
	})
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Error("failed to apply schema", "error", err)
		os.Exit(1)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}

	var fetcher fetch.Fetcher = fetch.NewUnlockerClient(cfg.Unlocker, log)
	if cfg.Cache.Enabled {
		fetcher = fetch.NewCachedFetcher(fetcher, cache.NewHTMLCache(redisClient, cfg.Cache.TTL), log)
	}

	defaultPlatforms := make([]models.Platform, 0, len(cfg.Shopping.DefaultPlatforms))
	for _, name := range cfg.Shopping.DefaultPlatforms {
		if p := models.ParsePlatform(name); p.IsSupported() {
			defaultPlatforms = append(defaultPlatforms, p)
		} else {
			log.Warn("ignoring unknown default platform", "platform", name)
		}
	}

	shoppingService := shopping.NewService(fetcher, parser.NewScraper(), shopping.Options{
		Concurrency:      cfg.Shopping.Concurrency,
		DefaultPlatforms: defaultPlatforms,
	}, log)

	updater := tracker.NewUpdater(db, shoppingService, tracker.Options{
		Concurrency:     cfg.Tracker.Concurrency,
		UpdateBatchSize: cfg.Tracker.UpdateBatchSize,
		BatchDelay:      cfg.Tracker.BatchDelay,
	}, log)

	var background sync.WaitGroup

	if cfg.Relay.Enabled {
		relay := database.NewRelay(db, redisClient, log, database.RelayConfig{
			PollInterval: cfg.Relay.PollInterval,
			BatchSize:    cfg.Relay.BatchSize,
			MaxStreamLen: cfg.Relay.MaxStreamLen,
		})
		background.Add(1)
		go func() {
			defer background.Done()
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("relay stopped with error", "error", err)
			}
		}()
	}

	if cfg.Tracker.WorkerEnabled {
		background.Add(1)
		go func() {
			defer background.Done()
			if err := updater.StartWorker(ctx, cfg.Tracker.Interval); err != nil {
				log.Error("price update worker failed", "error", err)
			}
		}()
	}

	handlers := api.NewHandlers(shoppingService, db, updater, db, log)
	router := api.NewRouter(handlers, api.RouterConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.RequestTimeout,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		log.Error("failed to listen", "addr", server.Addr, "error", err)
		os.Exit(1)
	}

	log.Info("server starting", "port", cfg.Server.Port, "html_cache", cfg.Cache.Enabled)
	serveErr := serve(ctx, server, ln, cfg.Server.ShutdownTimeout, log)

	// The relay and worker stop on the same signal; wait for them before the
	// deferred database and Redis closes run.
	stop()
	background.Wait()

	if serveErr != nil {
		log.Error("server failed", "error", serveErr)
		os.Exit(1)
	}
	log.Info("server stopped")
}
