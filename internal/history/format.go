package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/steemfans/wallet-engine/internal/chain"
	"github.com/steemfans/wallet-engine/internal/engine"
)

const displayDateLayout = "Jan 2, 2006 15:04"

// FormattedTransaction is a derived view over one historical operation,
// rebuilt on every format pass and never mutated in place.
type FormattedTransaction struct {
	ID            int64     `json:"id"`
	Kind          Kind      `json:"-"`
	Type          string    `json:"type"`
	Icon          string    `json:"icon"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	ByIdentity    bool      `json:"byIdentity"`
	OnIdentity    bool      `json:"onIdentity"`
	Timestamp     time.Time `json:"timestamp"`
	FormattedDate string    `json:"formattedDate"`
}

// Formatter normalizes raw history entries for a given identity. The
// conversion engine renders VESTS payloads as their SP equivalent; when it is
// absent or the network lookup fails the raw VESTS string is shown instead.
type Formatter struct {
	conversion *engine.ConversionEngine
}

// NewFormatter creates a formatter. conversion may be nil.
func NewFormatter(conversion *engine.ConversionEngine) *Formatter {
	return &Formatter{conversion: conversion}
}

// Format classifies and describes one history entry relative to username.
// Unknown operation kinds classify as neither by nor on the identity.
func (f *Formatter) Format(ctx context.Context, entry chain.HistoryEntry, username string) FormattedTransaction {
	kind := KindOf(entry.Op.Type)
	tx := FormattedTransaction{
		ID:            entry.Sequence,
		Kind:          kind,
		Type:          entry.Op.Type,
		Icon:          kind.Icon(),
		Title:         kind.Title(),
		Timestamp:     entry.Timestamp.Time,
		FormattedDate: entry.Timestamp.Format(displayDateLayout),
	}
	f.describe(ctx, &tx, kind, entry.Op.Payload, username)
	return tx
}

// FormatAll formats a whole page of history entries.
func (f *Formatter) FormatAll(ctx context.Context, entries []chain.HistoryEntry, username string) []FormattedTransaction {
	out := make([]FormattedTransaction, 0, len(entries))
	for _, entry := range entries {
		out = append(out, f.Format(ctx, entry, username))
	}
	return out
}

// spEquivalent renders a VESTS asset string as SP when a converter is
// available, falling back to the raw string.
func (f *Formatter) spEquivalent(ctx context.Context, raw string) string {
	if f.conversion == nil {
		return raw
	}
	asset, err := chain.ParseAsset(raw)
	if err != nil || asset.Symbol != chain.SymbolVests {
		return raw
	}
	sp, err := f.conversion.VestsToSteem(ctx, asset.Amount)
	if err != nil {
		return raw
	}
	return sp.Amount.StringFixed(3) + " SP"
}

// describe fills the by/on classification and the human description. Each
// known kind has its own predicate over the payload fields.
func (f *Formatter) describe(ctx context.Context, tx *FormattedTransaction, kind Kind, payload json.RawMessage, username string) {
	switch kind {
	case KindTransfer, KindTransferToSavings, KindTransferFromSavings:
		var p struct {
			From   string `json:"from"`
			To     string `json:"to"`
			Amount string `json:"amount"`
			Memo   string `json:"memo"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.From == username
		tx.OnIdentity = p.To == username
		tx.Description = fmt.Sprintf("%s sent %s to %s", p.From, p.Amount, p.To)

	case KindTransferToVesting:
		var p struct {
			From   string `json:"from"`
			To     string `json:"to"`
			Amount string `json:"amount"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		to := p.To
		if to == "" {
			to = p.From
		}
		tx.ByIdentity = p.From == username
		tx.OnIdentity = to == username
		tx.Description = fmt.Sprintf("%s powered up %s to %s", p.From, p.Amount, to)

	case KindWithdrawVesting:
		var p struct {
			Account       string `json:"account"`
			VestingShares string `json:"vesting_shares"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Account == username
		tx.OnIdentity = p.Account == username
		tx.Description = fmt.Sprintf("%s started powering down %s", p.Account, f.spEquivalent(ctx, p.VestingShares))

	case KindDelegateVestingShares:
		var p struct {
			Delegator     string `json:"delegator"`
			Delegatee     string `json:"delegatee"`
			VestingShares string `json:"vesting_shares"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Delegator == username
		tx.OnIdentity = p.Delegatee == username
		tx.Description = fmt.Sprintf("%s delegated %s to %s", p.Delegator, f.spEquivalent(ctx, p.VestingShares), p.Delegatee)

	case KindClaimRewardBalance:
		var p struct {
			Account     string `json:"account"`
			RewardSteem string `json:"reward_steem"`
			RewardSBD   string `json:"reward_sbd"`
			RewardVests string `json:"reward_vests"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Account == username
		tx.OnIdentity = p.Account == username
		tx.Description = fmt.Sprintf("%s claimed %s, %s and %s", p.Account, p.RewardSteem, p.RewardSBD, f.spEquivalent(ctx, p.RewardVests))

	case KindVote:
		var p struct {
			Voter    string `json:"voter"`
			Author   string `json:"author"`
			Permlink string `json:"permlink"`
			Weight   int    `json:"weight"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Voter == username
		tx.OnIdentity = p.Author == username
		tx.Description = fmt.Sprintf("%s voted %d%% on @%s/%s", p.Voter, p.Weight/100, p.Author, p.Permlink)

	case KindComment:
		var p struct {
			Author       string `json:"author"`
			Permlink     string `json:"permlink"`
			ParentAuthor string `json:"parent_author"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Author == username
		tx.OnIdentity = p.ParentAuthor == username
		if p.ParentAuthor == "" {
			tx.Description = fmt.Sprintf("%s published @%s/%s", p.Author, p.Author, p.Permlink)
		} else {
			tx.Description = fmt.Sprintf("%s replied to %s", p.Author, p.ParentAuthor)
		}

	case KindCurationReward:
		var p struct {
			Curator         string `json:"curator"`
			Reward          string `json:"reward"`
			CommentAuthor   string `json:"comment_author"`
			CommentPermlink string `json:"comment_permlink"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.OnIdentity = p.Curator == username
		tx.Description = fmt.Sprintf("%s earned %s for curating @%s/%s", p.Curator, f.spEquivalent(ctx, p.Reward), p.CommentAuthor, p.CommentPermlink)

	case KindAuthorReward:
		var p struct {
			Author        string `json:"author"`
			Permlink      string `json:"permlink"`
			SBDPayout     string `json:"sbd_payout"`
			SteemPayout   string `json:"steem_payout"`
			VestingPayout string `json:"vesting_payout"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.OnIdentity = p.Author == username
		tx.Description = fmt.Sprintf("%s earned %s, %s and %s for @%s/%s",
			p.Author, p.SBDPayout, p.SteemPayout, f.spEquivalent(ctx, p.VestingPayout), p.Author, p.Permlink)

	case KindCommentBenefactorReward:
		var p struct {
			Benefactor string `json:"benefactor"`
			Author     string `json:"author"`
			Permlink   string `json:"permlink"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.OnIdentity = p.Benefactor == username
		tx.Description = fmt.Sprintf("%s received a benefactor reward from @%s/%s", p.Benefactor, p.Author, p.Permlink)

	case KindProducerReward:
		var p struct {
			Producer      string `json:"producer"`
			VestingShares string `json:"vesting_shares"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.OnIdentity = p.Producer == username
		tx.Description = fmt.Sprintf("%s earned %s for block production", p.Producer, f.spEquivalent(ctx, p.VestingShares))

	case KindInterest:
		var p struct {
			Owner    string `json:"owner"`
			Interest string `json:"interest"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.OnIdentity = p.Owner == username
		tx.Description = fmt.Sprintf("%s received %s interest", p.Owner, p.Interest)

	case KindAccountUpdate:
		var p struct {
			Account string `json:"account"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Account == username
		tx.OnIdentity = p.Account == username
		tx.Description = fmt.Sprintf("%s updated their account", p.Account)

	case KindAccountWitnessVote:
		var p struct {
			Account string `json:"account"`
			Witness string `json:"witness"`
			Approve bool   `json:"approve"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Account == username
		tx.OnIdentity = p.Witness == username
		verb := "approved"
		if !p.Approve {
			verb = "unapproved"
		}
		tx.Description = fmt.Sprintf("%s %s witness %s", p.Account, verb, p.Witness)

	case KindWitnessUpdate:
		var p struct {
			Owner string `json:"owner"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Owner == username
		tx.OnIdentity = p.Owner == username
		tx.Description = fmt.Sprintf("%s updated their witness", p.Owner)

	case KindCustomJSON:
		var p struct {
			ID                   string   `json:"id"`
			RequiredAuths        []string `json:"required_auths"`
			RequiredPostingAuths []string `json:"required_posting_auths"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		for _, auth := range append(p.RequiredAuths, p.RequiredPostingAuths...) {
			if auth == username {
				tx.ByIdentity = true
				tx.OnIdentity = true
				break
			}
		}
		tx.Description = fmt.Sprintf("custom operation %q", p.ID)

	case KindFillVestingWithdraw:
		var p struct {
			FromAccount string `json:"from_account"`
			ToAccount   string `json:"to_account"`
			Deposited   string `json:"deposited"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.FromAccount == username
		tx.OnIdentity = p.ToAccount == username
		tx.Description = fmt.Sprintf("power down released %s to %s", p.Deposited, p.ToAccount)

	case KindFillOrder:
		var p struct {
			CurrentOwner string `json:"current_owner"`
			OpenOwner    string `json:"open_owner"`
			CurrentPays  string `json:"current_pays"`
			OpenPays     string `json:"open_pays"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.CurrentOwner == username
		tx.OnIdentity = p.OpenOwner == username
		tx.Description = fmt.Sprintf("order filled: %s for %s", p.CurrentPays, p.OpenPays)

	case KindLimitOrderCreate:
		var p struct {
			Owner        string `json:"owner"`
			AmountToSell string `json:"amount_to_sell"`
			MinToReceive string `json:"min_to_receive"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Owner == username
		tx.OnIdentity = p.Owner == username
		tx.Description = fmt.Sprintf("%s offered %s for %s", p.Owner, p.AmountToSell, p.MinToReceive)

	case KindLimitOrderCancel:
		var p struct {
			Owner   string `json:"owner"`
			OrderID int64  `json:"orderid"`
		}
		if json.Unmarshal(payload, &p) != nil {
			return
		}
		tx.ByIdentity = p.Owner == username
		tx.OnIdentity = p.Owner == username
		tx.Description = fmt.Sprintf("%s cancelled order %d", p.Owner, p.OrderID)

	default:
		// Unknown kinds classify as neither by nor on the identity.
		tx.Description = "unrecognized operation"
	}
}
