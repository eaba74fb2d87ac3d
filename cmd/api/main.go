package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/steemfans/wallet-engine/internal/api"
	"github.com/steemfans/wallet-engine/internal/chain"
	"github.com/steemfans/wallet-engine/internal/curation"
	"github.com/steemfans/wallet-engine/internal/engine"
	"github.com/steemfans/wallet-engine/internal/events"
	"github.com/steemfans/wallet-engine/internal/history"
	"github.com/steemfans/wallet-engine/internal/models"
	"github.com/steemfans/wallet-engine/internal/storage"
	"github.com/steemfans/wallet-engine/internal/telegram"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	config, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	chainClient := chain.NewClient(config.Steem.APIURL)

	conversion := engine.NewConversionEngine(
		chainClient,
		time.Duration(config.Engine.CacheTTLSeconds)*time.Second,
		logger,
	)
	votes := engine.NewVoteValueCalculator(conversion, chainClient)
	formatter := history.NewFormatter(conversion)

	// Progress events fan out to subscribers; Telegram joins when enabled.
	bus := events.NewBus()
	var sink events.Sink = bus
	if config.Telegram.Enabled && config.Telegram.BotToken != "" && config.Telegram.ChannelID != "" {
		notifier := telegram.NewNotifier(telegram.NewClient(config.Telegram.BotToken, config.Telegram.ChannelID), logger)
		sink = events.SinkFunc(func(event events.Event) {
			bus.Publish(event)
			notifier.Publish(event)
		})
	}

	analyzer := curation.NewAnalyzer(chainClient, conversion, votes, sink, curation.Limits{
		PageSize:      uint32(config.Analyzer.PageSize),
		FanOut:        config.Analyzer.FanOut,
		MaxOperations: config.Analyzer.MaxOperations,
		MaxDuration:   time.Duration(config.Analyzer.MaxDurationSeconds) * time.Second,
	}, logger)

	var archive *storage.MongoDB
	if config.MongoDB.URI != "" {
		archive, err = storage.NewMongoDB(config.MongoDB.URI, config.MongoDB.Database)
		if err != nil {
			logger.Fatal("failed to initialize MongoDB", zap.Error(err))
		}
		defer archive.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := archive.CreateIndexes(ctx); err != nil {
			logger.Warn("failed to create indexes", zap.Error(err))
		}
		cancel()
	}

	handler := api.NewHandler(chainClient, formatter, votes, analyzer, archive, logger)
	router := api.SetupRoutes(handler)

	addr := fmt.Sprintf("%s:%s", config.API.Host, config.API.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("API server starting", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", zap.Error(err))
	}

	logger.Info("server exited")
}

func loadConfig(path string) (*models.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config models.Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &config, nil
}
