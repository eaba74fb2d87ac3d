package signing

// Operation type tags for the mutating operations this wallet dispatches.
const (
	OpVote                  = "vote"
	OpTransfer              = "transfer"
	OpTransferToVesting     = "transfer_to_vesting"
	OpWithdrawVesting       = "withdraw_vesting"
	OpDelegateVestingShares = "delegate_vesting_shares"
	OpClaimRewardBalance    = "claim_reward_balance"
)

// Intent is one operation to sign and broadcast, in condenser payload shape.
type Intent struct {
	Type string
	Body any
}

// VoteBody is the payload of a vote operation. Weight is in basis points.
type VoteBody struct {
	Voter    string `json:"voter"`
	Author   string `json:"author"`
	Permlink string `json:"permlink"`
	Weight   int16  `json:"weight"`
}

// TransferBody is the payload of a transfer operation. Amount is a
// chain-formatted asset string such as "1.000 STEEM".
type TransferBody struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
	Memo   string `json:"memo"`
}

// TransferToVestingBody powers STEEM up into VESTS.
type TransferToVestingBody struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// WithdrawVestingBody starts a power down.
type WithdrawVestingBody struct {
	Account       string `json:"account"`
	VestingShares string `json:"vesting_shares"`
}

// DelegateVestingSharesBody delegates stake to another account.
type DelegateVestingSharesBody struct {
	Delegator     string `json:"delegator"`
	Delegatee     string `json:"delegatee"`
	VestingShares string `json:"vesting_shares"`
}

// ClaimRewardBalanceBody claims pending author/curation rewards.
type ClaimRewardBalanceBody struct {
	Account     string `json:"account"`
	RewardSteem string `json:"reward_steem"`
	RewardSBD   string `json:"reward_sbd"`
	RewardVests string `json:"reward_vests"`
}

// effectiveAuthority applies the claim_reward_balance rule: reward claims
// only ever need posting authority, so a batch made up entirely of claims is
// never escalated to active signing even when the caller asks for it.
func effectiveAuthority(intents []Intent, requested AuthorityLevel) AuthorityLevel {
	if len(intents) == 0 {
		return requested
	}
	for _, intent := range intents {
		if intent.Type != OpClaimRewardBalance {
			return requested
		}
	}
	return AuthorityPosting
}
