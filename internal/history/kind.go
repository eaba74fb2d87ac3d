package history

// Kind is a tagged variant over the known condenser operation types. Tags not
// listed here map to KindUnknown instead of falling through silently.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransfer
	KindTransferToVesting
	KindWithdrawVesting
	KindDelegateVestingShares
	KindClaimRewardBalance
	KindVote
	KindComment
	KindCurationReward
	KindAuthorReward
	KindCommentBenefactorReward
	KindProducerReward
	KindInterest
	KindAccountUpdate
	KindAccountWitnessVote
	KindWitnessUpdate
	KindCustomJSON
	KindTransferToSavings
	KindTransferFromSavings
	KindFillVestingWithdraw
	KindFillOrder
	KindLimitOrderCreate
	KindLimitOrderCancel
)

var kindTags = map[Kind]string{
	KindTransfer:                "transfer",
	KindTransferToVesting:       "transfer_to_vesting",
	KindWithdrawVesting:         "withdraw_vesting",
	KindDelegateVestingShares:   "delegate_vesting_shares",
	KindClaimRewardBalance:      "claim_reward_balance",
	KindVote:                    "vote",
	KindComment:                 "comment",
	KindCurationReward:          "curation_reward",
	KindAuthorReward:            "author_reward",
	KindCommentBenefactorReward: "comment_benefactor_reward",
	KindProducerReward:          "producer_reward",
	KindInterest:                "interest",
	KindAccountUpdate:           "account_update",
	KindAccountWitnessVote:      "account_witness_vote",
	KindWitnessUpdate:           "witness_update",
	KindCustomJSON:              "custom_json",
	KindTransferToSavings:       "transfer_to_savings",
	KindTransferFromSavings:     "transfer_from_savings",
	KindFillVestingWithdraw:     "fill_vesting_withdraw",
	KindFillOrder:               "fill_order",
	KindLimitOrderCreate:        "limit_order_create",
	KindLimitOrderCancel:        "limit_order_cancel",
}

var tagKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindTags))
	for kind, tag := range kindTags {
		m[tag] = kind
	}
	return m
}()

// KindOf maps a condenser type tag to its variant.
func KindOf(tag string) Kind {
	if kind, ok := tagKinds[tag]; ok {
		return kind
	}
	return KindUnknown
}

// String returns the condenser type tag.
func (k Kind) String() string {
	if tag, ok := kindTags[k]; ok {
		return tag
	}
	return "unknown"
}

// Icon returns the descriptor the UI layer renders for this kind.
func (k Kind) Icon() string {
	switch k {
	case KindTransfer, KindTransferToSavings, KindTransferFromSavings:
		return "transfer"
	case KindTransferToVesting:
		return "power-up"
	case KindWithdrawVesting, KindFillVestingWithdraw:
		return "power-down"
	case KindDelegateVestingShares:
		return "delegation"
	case KindClaimRewardBalance, KindCurationReward, KindAuthorReward,
		KindCommentBenefactorReward, KindProducerReward, KindInterest:
		return "reward"
	case KindVote:
		return "vote"
	case KindComment:
		return "comment"
	case KindAccountUpdate, KindWitnessUpdate:
		return "account"
	case KindAccountWitnessVote:
		return "witness"
	case KindCustomJSON:
		return "custom"
	case KindFillOrder, KindLimitOrderCreate, KindLimitOrderCancel:
		return "market"
	default:
		return "operation"
	}
}

// Title returns the human label for this kind.
func (k Kind) Title() string {
	switch k {
	case KindTransfer:
		return "Transfer"
	case KindTransferToVesting:
		return "Power Up"
	case KindWithdrawVesting:
		return "Power Down"
	case KindDelegateVestingShares:
		return "Delegation"
	case KindClaimRewardBalance:
		return "Claim Rewards"
	case KindVote:
		return "Vote"
	case KindComment:
		return "Comment"
	case KindCurationReward:
		return "Curation Reward"
	case KindAuthorReward:
		return "Author Reward"
	case KindCommentBenefactorReward:
		return "Benefactor Reward"
	case KindProducerReward:
		return "Producer Reward"
	case KindInterest:
		return "Interest"
	case KindAccountUpdate:
		return "Account Update"
	case KindAccountWitnessVote:
		return "Witness Vote"
	case KindWitnessUpdate:
		return "Witness Update"
	case KindCustomJSON:
		return "Custom Operation"
	case KindTransferToSavings:
		return "Transfer to Savings"
	case KindTransferFromSavings:
		return "Transfer from Savings"
	case KindFillVestingWithdraw:
		return "Power Down Release"
	case KindFillOrder:
		return "Order Filled"
	case KindLimitOrderCreate:
		return "Limit Order"
	case KindLimitOrderCancel:
		return "Order Cancelled"
	default:
		return "Operation"
	}
}
