// main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/inngest/inngestgo"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/getcito/ai-monitor/internal/api"
	"github.com/getcito/ai-monitor/internal/cache"
	"github.com/getcito/ai-monitor/internal/config"
	"github.com/getcito/ai-monitor/internal/store"
	"github.com/getcito/ai-monitor/services"
	"github.com/getcito/ai-monitor/workflows"
)

func main() {
	if err := godotenv.Load(); err != nil {
		if err := godotenv.Load("dev.env"); err != nil {
			logrus.Info("No .env or dev.env file loaded, using environment variables")
		} else {
			logrus.Info("Loaded dev.env file for local development")
		}
	} else {
		logrus.Info("Loaded .env file")
	}

	cfg := config.Load()

	logrus.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "development" {
		logrus.SetFormatter(&logrus.TextFormatter{})
		logrus.SetLevel(logrus.DebugLevel)
	}

	logrus.WithFields(logrus.Fields{
		"environment": cfg.Environment,
		"port":        cfg.Port,
		"db_host":     cfg.Database.Host,
		"db_name":     cfg.Database.Name,
	}).Info("Starting AI Monitor service")

	ctx := context.Background()
	st, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	defer st.Close()
	if err := st.EnsureSchema(ctx); err != nil {
		logrus.Fatalf("Failed to ensure database schema: %v", err)
	}
	logrus.Info("Database ready")

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		// The cache is an optimization; run uncached rather than refuse to start.
		logrus.WithError(err).Warn("Redis unreachable, snapshot caching disabled")
		rdb = nil
	}
	snapshots := cache.New(rdb, time.Duration(cfg.CacheTTLSeconds)*time.Second)

	providers := []services.AIProvider{
		services.NewChatGPTProvider(cfg),
		services.NewPerplexityProvider(cfg),
		services.NewAIOverviewProvider(cfg),
	}
	sessionRunner := services.NewSessionRunnerService(st, providers)
	analyticsService := services.NewAnalyticsService(st, snapshots)
	exportService := services.NewExportService()

	if cfg.Environment == "development" || cfg.Environment == "" {
		os.Unsetenv("INNGEST_SIGNING_KEY")
		cfg.InngestSigningKey = ""
		logrus.Info("Running in development mode - signing key verification disabled")
	}

	client, err := inngestgo.NewClient(
		inngestgo.ClientOpts{
			AppID:    "ai-monitor",
			EventKey: inngestgo.StrPtr(cfg.InngestEventKey),
			Env:      inngestgo.StrPtr(cfg.Environment),
		},
	)
	if err != nil {
		logrus.Fatalf("Failed to create Inngest client: %v", err)
	}

	sessionProcessor := workflows.NewSessionProcessor(sessionRunner, analyticsService)
	sessionProcessor.SetClient(client)
	sessionProcessor.ProcessSession()

	scheduledProcessor := workflows.NewScheduledProcessor(st)
	scheduledProcessor.SetClient(client)
	scheduledProcessor.DailyBrandProcessor()

	logrus.Info("Workflows registered")

	server := api.NewServer(st, analyticsService, exportService, client)
	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      server.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	logrus.WithField("port", cfg.Port).Info("HTTP server listening")
	if err := httpServer.ListenAndServe(); err != nil {
		logrus.Fatal(err)
	}
}
