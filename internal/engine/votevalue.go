package engine

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/steemfans/wallet-engine/internal/chain"
)

// FullVotingPower is the basis-point value of a fully recharged account.
const FullVotingPower = 10000

// RewardPoolReader is the chain surface the calculator needs on top of the
// conversion engine's.
type RewardPoolReader interface {
	GetRewardFund(ctx context.Context, name string) (*chain.RewardFund, error)
	GetCurrentMedianHistoryPrice(ctx context.Context) (*chain.Price, error)
}

// VoteValue is the monetary worth of a single vote, carried in both the
// native token and its SBD equivalent at the median feed price.
type VoteValue struct {
	Steem chain.Asset `json:"steem"`
	SBD   chain.Asset `json:"sbd"`
}

// VoteValueCalculator replicates the chain's reward-pool vote value formula.
type VoteValueCalculator struct {
	conversion *ConversionEngine
	pool       RewardPoolReader
}

// NewVoteValueCalculator builds a calculator on top of the conversion engine.
func NewVoteValueCalculator(conversion *ConversionEngine, pool RewardPoolReader) *VoteValueCalculator {
	return &VoteValueCalculator{conversion: conversion, pool: pool}
}

// EstimateVoteValue computes the value of a vote at votePercent in [-100,100]
// cast with effectiveVests stake and the given voting power in basis points.
// A zero percent is worth exactly zero; the sign of the percent never affects
// the magnitude.
func (c *VoteValueCalculator) EstimateVoteValue(ctx context.Context, votePercent int, effectiveVests decimal.Decimal, votingPowerBP int) (VoteValue, error) {
	if votePercent < -100 || votePercent > 100 {
		return VoteValue{}, fmt.Errorf("vote percent %d out of range [-100,100]", votePercent)
	}
	if votingPowerBP <= 0 {
		votingPowerBP = FullVotingPower
	}

	if votePercent == 0 {
		return VoteValue{
			Steem: chain.NewAsset(decimal.Zero, chain.SymbolSteem),
			SBD:   chain.NewAsset(decimal.Zero, chain.SymbolSBD),
		}, nil
	}

	stake, err := c.conversion.VestsToSteem(ctx, effectiveVests)
	if err != nil {
		return VoteValue{}, err
	}

	fund, err := c.pool.GetRewardFund(ctx, "post")
	if err != nil {
		return VoteValue{}, err
	}
	recentClaims, err := fund.RecentClaimsDecimal()
	if err != nil {
		return VoteValue{}, err
	}
	if recentClaims.IsZero() {
		return VoteValue{}, &InvariantError{Reason: "reward fund recent_claims is zero"}
	}

	price, err := c.pool.GetCurrentMedianHistoryPrice(ctx)
	if err != nil {
		return VoteValue{}, err
	}
	if price.Quote.Amount.IsZero() {
		return VoteValue{}, &InvariantError{Reason: "median price quote is zero"}
	}

	// Chain semantics: weight is the percent in hundredths of a percent and
	// the used power follows the integer formula (vp * weight / 10000 + 49) / 50.
	weight := votePercent * 100
	if weight < 0 {
		weight = -weight
	}
	power := (votingPowerBP*weight/10000 + 49) / 50

	poolShare := fund.RewardBalance.Amount.Div(recentClaims)
	steemValue := stake.Amount.
		Mul(decimal.NewFromInt(int64(power))).
		Mul(decimal.NewFromInt(100)).
		Mul(poolShare)

	sbdValue := steemValue.Mul(price.Base.Amount.Div(price.Quote.Amount))

	return VoteValue{
		Steem: chain.NewAsset(steemValue, chain.SymbolSteem),
		SBD:   chain.NewAsset(sbdValue, chain.SymbolSBD),
	}, nil
}
