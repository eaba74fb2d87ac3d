package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/steemfans/wallet-engine/internal/chain"
)

// VESTS carry six decimal places on the chain; conversions round to match.
const vestsPrecision = 6

// GlobalPropsReader is the read-only chain surface the conversion engine
// depends on.
type GlobalPropsReader interface {
	GetDynamicGlobalProperties(ctx context.Context) (*chain.DynamicGlobalProperties, error)
}

// ConversionEngine converts between VESTS and their STEEM (spendable power)
// equivalent using the live network ratio. Each public call reflects chain
// state no older than the configured TTL; with a zero TTL every call fetches
// fresh properties.
type ConversionEngine struct {
	props  GlobalPropsReader
	ttl    time.Duration
	logger *zap.Logger

	mu       sync.Mutex
	snapshot *chain.DynamicGlobalProperties
	fetched  time.Time
	memo     map[string]decimal.Decimal
}

// NewConversionEngine builds an engine around the given chain reader. ttl
// bounds how stale a cached snapshot may be; the memo table is scoped to this
// instance and flushed whenever the snapshot refreshes.
func NewConversionEngine(props GlobalPropsReader, ttl time.Duration, logger *zap.Logger) *ConversionEngine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConversionEngine{
		props:  props,
		ttl:    ttl,
		logger: logger,
		memo:   make(map[string]decimal.Decimal),
	}
}

// globalProps returns a snapshot no older than the TTL, fetching when needed.
func (e *ConversionEngine) globalProps(ctx context.Context) (*chain.DynamicGlobalProperties, error) {
	e.mu.Lock()
	if e.snapshot != nil && (e.ttl > 0 && time.Since(e.fetched) < e.ttl) {
		snap := e.snapshot
		e.mu.Unlock()
		return snap, nil
	}
	e.mu.Unlock()

	snap, err := e.props.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.snapshot = snap
	e.fetched = time.Now()
	// The ratio moved, cached conversions no longer apply.
	e.memo = make(map[string]decimal.Decimal)
	e.mu.Unlock()

	return snap, nil
}

// ratio computes totalVestingFundSteem / totalVestingShares for the snapshot.
func ratio(props *chain.DynamicGlobalProperties) (decimal.Decimal, error) {
	fund := props.TotalVestingFundSteem.Amount
	shares := props.TotalVestingShares.Amount
	if shares.Sign() <= 0 || fund.Sign() <= 0 {
		return decimal.Decimal{}, &InvariantError{
			Reason: fmt.Sprintf("non-positive vesting totals: fund=%s shares=%s", fund, shares),
		}
	}
	return fund.Div(shares), nil
}

// VestsToSteem converts a VESTS amount to its STEEM equivalent at the current
// network ratio. Negative input is rejected; failures are surfaced, never
// silently mapped to zero.
func (e *ConversionEngine) VestsToSteem(ctx context.Context, vests decimal.Decimal) (chain.Asset, error) {
	if vests.Sign() < 0 {
		return chain.Asset{}, fmt.Errorf("negative vests amount %s", vests)
	}

	key := vests.String()
	e.mu.Lock()
	if cached, ok := e.memo[key]; ok {
		e.mu.Unlock()
		return chain.NewAsset(cached, chain.SymbolSteem), nil
	}
	e.mu.Unlock()

	props, err := e.globalProps(ctx)
	if err != nil {
		return chain.Asset{}, err
	}
	r, err := ratio(props)
	if err != nil {
		return chain.Asset{}, err
	}

	steem := vests.Mul(r)

	e.mu.Lock()
	e.memo[key] = steem
	e.mu.Unlock()

	return chain.NewAsset(steem, chain.SymbolSteem), nil
}

// SteemToVests converts a STEEM amount to VESTS using the reciprocal ratio,
// rounded to the chain's six-decimal stake precision.
func (e *ConversionEngine) SteemToVests(ctx context.Context, steem decimal.Decimal) (chain.Asset, error) {
	if steem.Sign() < 0 {
		return chain.Asset{}, fmt.Errorf("negative steem amount %s", steem)
	}

	props, err := e.globalProps(ctx)
	if err != nil {
		return chain.Asset{}, err
	}
	r, err := ratio(props)
	if err != nil {
		return chain.Asset{}, err
	}

	vests := steem.Div(r).Round(vestsPrecision)
	return chain.NewAsset(vests, chain.SymbolVests), nil
}
