package curation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/steemfans/wallet-engine/internal/chain"
)

// NoResultsError is the valid-empty outcome: the scan completed but the
// window contained no curation rewards. It carries the requested window so
// callers can tell "nothing happened" from "the scan broke".
type NoResultsError struct {
	Account     string
	WindowStart time.Time
	WindowEnd   time.Time
}

func (e *NoResultsError) Error() string {
	return fmt.Sprintf("no curation rewards for %s between %s and %s",
		e.Account,
		e.WindowStart.Format(time.RFC3339),
		e.WindowEnd.Format(time.RFC3339))
}

// VoteResult is one resolved curation reward and the vote that earned it.
type VoteResult struct {
	Post           string          `json:"post" bson:"post"`
	RealizedReward chain.Asset     `json:"realizedReward" bson:"realized_reward"`
	ExpectedReward chain.Asset     `json:"expectedReward" bson:"expected_reward"`
	Efficiency     decimal.Decimal `json:"efficiencyPercent" bson:"efficiency_percent"`
	VotePercent    int             `json:"votePercent" bson:"vote_percent"`
	VoteTime       time.Time       `json:"voteTime" bson:"vote_time"`
	VoteAgeMinutes int             `json:"voteAgeMinutes" bson:"vote_age_minutes"`
}

// Summary aggregates a finished analysis.
type Summary struct {
	Account        string          `json:"account" bson:"account"`
	WindowDays     int             `json:"windowDays" bson:"window_days"`
	TotalVotes     int             `json:"totalVotes" bson:"total_votes"`
	TotalReward    chain.Asset     `json:"totalReward" bson:"total_reward"`
	MeanEfficiency decimal.Decimal `json:"meanEfficiencyPercent" bson:"mean_efficiency_percent"`
	PeakReward     chain.Asset     `json:"peakReward" bson:"peak_reward"`
	PeakRewardPost string          `json:"peakRewardPost" bson:"peak_reward_post"`
	BestPost       string          `json:"mostEfficientPost" bson:"most_efficient_post"`
	BestEfficiency decimal.Decimal `json:"mostEfficientPercent" bson:"most_efficient_percent"`
	APR            decimal.Decimal `json:"aprPercent" bson:"apr_percent"`
}

// Report is the full outcome of one analyze call. Truncated is set when a
// safety ceiling cut the scan short and the figures cover only the portion
// scanned.
type Report struct {
	Summary           Summary      `json:"summary" bson:"summary"`
	Votes             []VoteResult `json:"votes" bson:"votes"`
	Truncated         bool         `json:"truncated" bson:"truncated"`
	OperationsScanned int          `json:"operationsScanned" bson:"operations_scanned"`
	GeneratedAt       time.Time    `json:"generatedAt" bson:"generated_at"`
}
