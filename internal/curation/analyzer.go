package curation

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/steemfans/wallet-engine/internal/chain"
	"github.com/steemfans/wallet-engine/internal/engine"
	"github.com/steemfans/wallet-engine/internal/events"
)

const opCurationReward = "curation_reward"

// HistoryChain is the read-only chain surface the analyzer consumes.
type HistoryChain interface {
	GetAccount(ctx context.Context, name string) (*chain.Account, error)
	GetAccountHistory(ctx context.Context, account string, from int64, limit uint32) ([]chain.HistoryEntry, error)
	GetContent(ctx context.Context, author, permlink string) (*chain.Content, error)
	GetActiveVotes(ctx context.Context, author, permlink string) ([]chain.ActiveVote, error)
}

// Limits bound a scan. MaxOperations and MaxDuration are mandatory safety
// valves: zero values fall back to the defaults rather than meaning
// unlimited. Cancellation beyond that belongs to the caller's context.
type Limits struct {
	PageSize      uint32
	FanOut        int
	MaxOperations int
	MaxDuration   time.Duration
}

// DefaultLimits are sized so a busy account's week still scans in one call.
var DefaultLimits = Limits{
	PageSize:      1000,
	FanOut:        10,
	MaxOperations: 20000,
	MaxDuration:   60 * time.Second,
}

func (l Limits) withDefaults() Limits {
	if l.PageSize == 0 {
		l.PageSize = DefaultLimits.PageSize
	}
	if l.FanOut <= 0 {
		l.FanOut = DefaultLimits.FanOut
	}
	if l.MaxOperations <= 0 {
		l.MaxOperations = DefaultLimits.MaxOperations
	}
	if l.MaxDuration <= 0 {
		l.MaxDuration = DefaultLimits.MaxDuration
	}
	return l
}

// Analyzer walks an account's operation log backward, isolates curation
// rewards inside the window and resolves each to its originating vote.
type Analyzer struct {
	chain      HistoryChain
	conversion *engine.ConversionEngine
	votes      *engine.VoteValueCalculator
	sink       events.Sink
	limits     Limits
	logger     *zap.Logger
	now        func() time.Time
}

// NewAnalyzer wires the analyzer. sink may be nil when nobody listens.
func NewAnalyzer(chainClient HistoryChain, conversion *engine.ConversionEngine, votes *engine.VoteValueCalculator, sink events.Sink, limits Limits, logger *zap.Logger) *Analyzer {
	if sink == nil {
		sink = events.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{
		chain:      chainClient,
		conversion: conversion,
		votes:      votes,
		sink:       sink,
		limits:     limits.withDefaults(),
		logger:     logger,
		now:        time.Now,
	}
}

// curationRewardPayload is the condenser payload of a curation_reward op.
type curationRewardPayload struct {
	Curator         string      `json:"curator"`
	Reward          chain.Asset `json:"reward"`
	CommentAuthor   string      `json:"comment_author"`
	CommentPermlink string      `json:"comment_permlink"`
}

type rewardEvent struct {
	payload curationRewardPayload
	at      time.Time
}

// Analyze scans username's history over the trailing window. A window with no
// curation rewards yields a *NoResultsError; hitting a safety ceiling yields
// a partial report with Truncated set.
func (a *Analyzer) Analyze(ctx context.Context, username string, windowDays int) (*Report, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("window must be positive, got %d days", windowDays)
	}

	now := a.now().UTC()
	cutoff := now.AddDate(0, 0, -windowDays)
	deadline := time.Now().Add(a.limits.MaxDuration)

	events.Emit(a.sink, events.CurationStarted, events.ScanStartedEvent{
		Account:    username,
		WindowDays: windowDays,
	})

	rewards, scanned, truncated, err := a.collectRewards(ctx, username, cutoff, deadline)
	if err != nil {
		events.Emit(a.sink, events.CurationError, events.ScanErrorEvent{
			Account: username,
			Reason:  err.Error(),
		})
		return nil, err
	}

	if len(rewards) == 0 {
		noResults := &NoResultsError{Account: username, WindowStart: cutoff, WindowEnd: now}
		events.Emit(a.sink, events.CurationCompleted, events.ScanCompletedEvent{
			Account:   username,
			Truncated: truncated,
		})
		return nil, noResults
	}

	account, err := a.chain.GetAccount(ctx, username)
	if err != nil {
		events.Emit(a.sink, events.CurationError, events.ScanErrorEvent{
			Account: username,
			Reason:  err.Error(),
		})
		return nil, err
	}

	// Rewards were found; an empty result set here means the scan broke, not
	// that the window was empty.
	results := a.resolveRewards(ctx, username, account.EffectiveVestingShares(), rewards)
	if len(results) == 0 {
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("resolved none of %d curation rewards for %s", len(rewards), username)
		}
		events.Emit(a.sink, events.CurationError, events.ScanErrorEvent{
			Account: username,
			Reason:  err.Error(),
		})
		return nil, err
	}

	report, err := a.aggregate(ctx, username, windowDays, account, results)
	if err != nil {
		return nil, err
	}
	report.Truncated = truncated
	report.OperationsScanned = scanned
	report.GeneratedAt = now

	events.Emit(a.sink, events.CurationCompleted, events.ScanCompletedEvent{
		Account:   username,
		Summary:   report.Summary,
		Truncated: truncated,
	})
	return report, nil
}

// collectRewards pages backward in descending-sequence batches. Paging stops
// on a short page (history exhausted), a page older than the cutoff, or a
// safety ceiling. Page fetches are strictly sequential: each stopping
// decision needs the previous page's oldest timestamp.
func (a *Analyzer) collectRewards(ctx context.Context, username string, cutoff time.Time, deadline time.Time) ([]rewardEvent, int, bool, error) {
	var (
		rewards   []rewardEvent
		scanned   int
		truncated bool
	)

	from := int64(-1)
	for {
		if err := ctx.Err(); err != nil {
			return nil, scanned, false, err
		}

		limit := a.limits.PageSize
		if from >= 0 && from+1 < int64(limit) {
			limit = uint32(from + 1)
		}

		page, err := a.chain.GetAccountHistory(ctx, username, from, limit)
		if err != nil {
			return nil, scanned, false, err
		}
		if len(page) == 0 {
			break
		}

		// Entries arrive in ascending sequence order; walk newest first.
		pastCutoff := false
		for i := len(page) - 1; i >= 0; i-- {
			entry := page[i]
			if entry.Timestamp.Before(cutoff) {
				pastCutoff = true
				break
			}
			scanned++
			if entry.Op.Type != opCurationReward {
				continue
			}

			var payload curationRewardPayload
			if err := json.Unmarshal(entry.Op.Payload, &payload); err != nil {
				return nil, scanned, false, fmt.Errorf("malformed curation_reward payload at seq %d: %w", entry.Sequence, err)
			}
			rewards = append(rewards, rewardEvent{payload: payload, at: entry.Timestamp.Time})
		}

		events.Emit(a.sink, events.CurationProgress, events.ScanProgressEvent{
			Account:           username,
			OperationsScanned: scanned,
			RewardsFound:      len(rewards),
		})

		if pastCutoff {
			break
		}
		if uint32(len(page)) < limit {
			// Short page, history exhausted.
			break
		}

		oldest := page[0].Sequence
		if oldest == 0 {
			break
		}
		from = oldest - 1

		if scanned >= a.limits.MaxOperations || time.Now().After(deadline) {
			truncated = true
			a.logger.Warn("history scan hit safety ceiling",
				zap.String("account", username),
				zap.Int("operations_scanned", scanned))
			break
		}
	}

	return rewards, scanned, truncated, nil
}

// resolveRewards resolves each reward to its originating vote with a bounded
// fan-out. Resolutions are independent round trips; order of completion does
// not matter. Individual failures are logged and skipped rather than failing
// the whole scan.
func (a *Analyzer) resolveRewards(ctx context.Context, username string, effectiveVests decimal.Decimal, rewards []rewardEvent) []VoteResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results []VoteResult
	)
	sem := make(chan struct{}, a.limits.FanOut)

	for _, event := range rewards {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(event rewardEvent) {
			defer wg.Done()
			defer func() { <-sem }()

			result, err := a.resolveOne(ctx, username, effectiveVests, event)
			if err != nil {
				a.logger.Warn("failed to resolve curation reward",
					zap.String("account", username),
					zap.String("post", event.payload.CommentAuthor+"/"+event.payload.CommentPermlink),
					zap.Error(err))
				return
			}
			mu.Lock()
			results = append(results, *result)
			mu.Unlock()
		}(event)
	}
	wg.Wait()

	return results
}

// resolveOne fetches the rewarded post and its vote list, finds the
// account's vote and computes realized vs expected reward.
func (a *Analyzer) resolveOne(ctx context.Context, username string, effectiveVests decimal.Decimal, event rewardEvent) (*VoteResult, error) {
	author := event.payload.CommentAuthor
	permlink := event.payload.CommentPermlink

	content, err := a.chain.GetContent(ctx, author, permlink)
	if err != nil {
		return nil, err
	}
	votes, err := a.chain.GetActiveVotes(ctx, author, permlink)
	if err != nil {
		return nil, err
	}

	var vote *chain.ActiveVote
	for i := range votes {
		if votes[i].Voter == username {
			vote = &votes[i]
			break
		}
	}
	if vote == nil {
		return nil, fmt.Errorf("no vote by %s on @%s/%s", username, author, permlink)
	}

	realized, err := a.conversion.VestsToSteem(ctx, event.payload.Reward.Amount)
	if err != nil {
		return nil, err
	}

	votePercent := vote.Percent / 100
	expected, err := a.votes.EstimateVoteValue(ctx, votePercent, effectiveVests, engine.FullVotingPower)
	if err != nil {
		return nil, err
	}

	efficiency := decimal.Zero
	if !expected.Steem.Amount.IsZero() {
		efficiency = realized.Amount.Div(expected.Steem.Amount).Mul(decimal.NewFromInt(100))
	}

	voteAge := int(vote.Time.Sub(content.Created.Time).Minutes())

	return &VoteResult{
		Post:           "@" + author + "/" + permlink,
		RealizedReward: realized,
		ExpectedReward: expected.Steem,
		Efficiency:     efficiency,
		VotePercent:    votePercent,
		VoteTime:       vote.Time.Time,
		VoteAgeMinutes: voteAge,
	}, nil
}

// aggregate folds per-vote results into the summary, including the
// annualized rate projected from the window's total reward against the
// account's whole effective stake.
func (a *Analyzer) aggregate(ctx context.Context, username string, windowDays int, account *chain.Account, results []VoteResult) (*Report, error) {
	total := decimal.Zero
	effSum := decimal.Zero
	peak := results[0]
	best := results[0]
	for _, r := range results {
		total = total.Add(r.RealizedReward.Amount)
		effSum = effSum.Add(r.Efficiency)
		if r.RealizedReward.Amount.GreaterThan(peak.RealizedReward.Amount) {
			peak = r
		}
		if r.Efficiency.GreaterThan(best.Efficiency) {
			best = r
		}
	}
	mean := effSum.Div(decimal.NewFromInt(int64(len(results))))

	stake, err := a.conversion.VestsToSteem(ctx, account.EffectiveVestingShares())
	if err != nil {
		return nil, err
	}

	apr := decimal.Zero
	if !stake.Amount.IsZero() {
		windowWeeks := decimal.NewFromInt(int64(windowDays)).Div(decimal.NewFromInt(7))
		annualized := total.Mul(decimal.NewFromInt(52)).Div(windowWeeks)
		apr = annualized.Div(stake.Amount).Mul(decimal.NewFromInt(100))
	}

	return &Report{
		Summary: Summary{
			Account:        username,
			WindowDays:     windowDays,
			TotalVotes:     len(results),
			TotalReward:    chain.NewAsset(total, chain.SymbolSteem),
			MeanEfficiency: mean,
			PeakReward:     peak.RealizedReward,
			PeakRewardPost: peak.Post,
			BestPost:       best.Post,
			BestEfficiency: best.Efficiency,
			APR:            apr,
		},
		Votes: results,
	}, nil
}
