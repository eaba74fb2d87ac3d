package chain

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Time wraps time.Time to accept the chain's zone-less timestamp format.
type Time struct {
	time.Time
}

const chainTimeLayout = "2006-01-02T15:04:05"

// UnmarshalJSON parses "2006-01-02T15:04:05" (chain format, implicitly UTC)
// and falls back to RFC3339.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := time.Parse(chainTimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("malformed chain timestamp %q", s)
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// MarshalJSON renders the chain format.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(chainTimeLayout) + `"`), nil
}

// DynamicGlobalProperties is the chain-wide snapshot used for unit conversion
// and transaction reference blocks. Immutable per fetch.
type DynamicGlobalProperties struct {
	HeadBlockNumber          int64  `json:"head_block_number"`
	HeadBlockID              string `json:"head_block_id"`
	Time                     Time   `json:"time"`
	LastIrreversibleBlockNum int64  `json:"last_irreversible_block_num"`
	TotalVestingFundSteem    Asset  `json:"total_vesting_fund_steem"`
	TotalVestingShares       Asset  `json:"total_vesting_shares"`
}

// RewardFund is the chain's post reward pool state.
type RewardFund struct {
	Name          string `json:"name"`
	RewardBalance Asset  `json:"reward_balance"`
	RecentClaims  string `json:"recent_claims"`
	LastUpdate    Time   `json:"last_update"`
}

// RecentClaimsDecimal parses the fund's recent_claims counter, which the
// chain serializes as a decimal string too large for int64.
func (f *RewardFund) RecentClaimsDecimal() (decimal.Decimal, error) {
	d, err := decimal.NewFromString(f.RecentClaims)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("malformed recent_claims %q: %w", f.RecentClaims, err)
	}
	return d, nil
}

// Price is the median STEEM/SBD price feed.
type Price struct {
	Base  Asset `json:"base"`
	Quote Asset `json:"quote"`
}

// Account carries the balance and stake fields this engine reads.
type Account struct {
	Name                   string `json:"name"`
	Balance                Asset  `json:"balance"`
	SBDBalance             Asset  `json:"sbd_balance"`
	VestingShares          Asset  `json:"vesting_shares"`
	DelegatedVestingShares Asset  `json:"delegated_vesting_shares"`
	ReceivedVestingShares  Asset  `json:"received_vesting_shares"`
	RewardSteemBalance     Asset  `json:"reward_steem_balance"`
	RewardSBDBalance       Asset  `json:"reward_sbd_balance"`
	RewardVestingBalance   Asset  `json:"reward_vesting_balance"`
	VotingPower            int    `json:"voting_power"`
}

// EffectiveVestingShares is own stake plus received delegations minus
// outbound delegations, the stake that actually backs a vote.
func (a *Account) EffectiveVestingShares() decimal.Decimal {
	return a.VestingShares.Amount.
		Add(a.ReceivedVestingShares.Amount).
		Sub(a.DelegatedVestingShares.Amount)
}

// RawOperation is a historical operation in the chain's [type, payload] form.
type RawOperation struct {
	Type    string
	Payload json.RawMessage
}

// UnmarshalJSON decodes the two-element array encoding.
func (op *RawOperation) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("malformed operation tuple: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("malformed operation tuple: %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &op.Type); err != nil {
		return fmt.Errorf("malformed operation type: %w", err)
	}
	op.Payload = pair[1]
	return nil
}

// MarshalJSON re-encodes the [type, payload] form.
func (op RawOperation) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{op.Type, op.Payload})
}

// HistoryEntry is one element of an account's operation log: the account-local
// sequence id plus the operation envelope.
type HistoryEntry struct {
	Sequence  int64
	TrxID     string
	Block     int64
	Timestamp Time
	Op        RawOperation
}

type historyEnvelope struct {
	TrxID     string       `json:"trx_id"`
	Block     int64        `json:"block"`
	Timestamp Time         `json:"timestamp"`
	Op        RawOperation `json:"op"`
}

// UnmarshalJSON decodes the [sequence, envelope] pair used by
// condenser_api.get_account_history.
func (e *HistoryEntry) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("malformed history entry: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("malformed history entry: %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &e.Sequence); err != nil {
		return fmt.Errorf("malformed history sequence: %w", err)
	}
	var env historyEnvelope
	if err := json.Unmarshal(pair[1], &env); err != nil {
		return fmt.Errorf("malformed history envelope: %w", err)
	}
	e.TrxID = env.TrxID
	e.Block = env.Block
	e.Timestamp = env.Timestamp
	e.Op = env.Op
	return nil
}

// Content is the subset of a post's fields needed to resolve a vote.
type Content struct {
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Created  Time   `json:"created"`
}

// ActiveVote is one entry of a post's active vote list.
type ActiveVote struct {
	Voter   string `json:"voter"`
	Percent int    `json:"percent"`
	Time    Time   `json:"time"`
}

// BroadcastResult is the chain's answer to a synchronous broadcast.
type BroadcastResult struct {
	ID       string `json:"id"`
	BlockNum int64  `json:"block_num"`
	TrxNum   int    `json:"trx_num"`
	Expired  bool   `json:"expired"`
}
