package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/steemfans/wallet-engine/internal/chain"
	"github.com/steemfans/wallet-engine/internal/curation"
	"github.com/steemfans/wallet-engine/internal/engine"
	"github.com/steemfans/wallet-engine/internal/events"
	"github.com/steemfans/wallet-engine/internal/models"
	"github.com/steemfans/wallet-engine/internal/telegram"
)

func main() {
	account := flag.String("account", "", "Account name to analyze")
	days := flag.Int("days", 7, "Window size in days")
	configPath := flag.String("config", "configs/config.yaml", "Path to configuration file")
	notify := flag.Bool("notify", false, "Send the summary to Telegram when configured")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *account == "" {
		logger.Fatal("account name is required (use -account flag)")
	}
	if *days < 1 {
		logger.Fatal("window must be at least one day (use -days flag)")
	}

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

	var sink events.Sink = events.NopSink{}
	if *notify && config.Telegram.Enabled && config.Telegram.BotToken != "" && config.Telegram.ChannelID != "" {
		sink = telegram.NewNotifier(telegram.NewClient(config.Telegram.BotToken, config.Telegram.ChannelID), logger)
	}

	analyzer := curation.NewAnalyzer(chainClient, conversion, votes, sink, curation.Limits{
		PageSize:      uint32(config.Analyzer.PageSize),
		FanOut:        config.Analyzer.FanOut,
		MaxOperations: config.Analyzer.MaxOperations,
		MaxDuration:   time.Duration(config.Analyzer.MaxDurationSeconds) * time.Second,
	}, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := analyzer.Analyze(ctx, *account, *days)
	if err != nil {
		var noResults *curation.NoResultsError
		if errors.As(err, &noResults) {
			fmt.Printf("No curation rewards for %s between %s and %s\n",
				noResults.Account,
				noResults.WindowStart.Format("2006-01-02"),
				noResults.WindowEnd.Format("2006-01-02"))
			return
		}
		logger.Fatal("analysis failed", zap.Error(err))
	}

	printReport(report)
}

func printReport(report *curation.Report) {
	s := report.Summary
	fmt.Printf("Curation report for %s (last %d days)\n", s.Account, s.WindowDays)
	fmt.Printf("  votes:            %d\n", s.TotalVotes)
	fmt.Printf("  total reward:     %s\n", s.TotalReward)
	fmt.Printf("  mean efficiency:  %s%%\n", s.MeanEfficiency.StringFixed(2))
	fmt.Printf("  peak reward:      %s (%s)\n", s.PeakReward, s.PeakRewardPost)
	fmt.Printf("  best efficiency:  %s%% (%s)\n", s.BestEfficiency.StringFixed(2), s.BestPost)
	fmt.Printf("  APR:              %s%%\n", s.APR.StringFixed(2))
	if report.Truncated {
		fmt.Printf("  note: partial result, scan stopped at its safety ceiling after %d operations\n", report.OperationsScanned)
	}

	fmt.Println("\nPer-vote results:")
	for _, v := range report.Votes {
		fmt.Printf("  %-50s %s realized, %s expected, %s%% efficient, voted at +%dmin\n",
			v.Post, v.RealizedReward, v.ExpectedReward, v.Efficiency.StringFixed(1), v.VoteAgeMinutes)
	}
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
