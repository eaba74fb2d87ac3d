package signing

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/steemit/steemutil/protocol"
	"github.com/steemit/steemutil/transaction"
	"github.com/steemit/steemutil/wif"

	"github.com/steemfans/wallet-engine/internal/chain"
)

// txExpiry is how far past the head block time a signed transaction stays
// valid.
const txExpiry = 30 * time.Second

// BroadcastChain is the chain surface the local signer needs: a reference
// block for TaPoS and the synchronous broadcast endpoint.
type BroadcastChain interface {
	GetDynamicGlobalProperties(ctx context.Context) (*chain.DynamicGlobalProperties, error)
	BroadcastTransactionSynchronous(ctx context.Context, tx interface{}) (*chain.BroadcastResult, error)
}

// LocalKeySigner assembles, signs and submits condenser transactions with a
// WIF key held by the session store.
type LocalKeySigner struct {
	chain BroadcastChain
}

// NewLocalKeySigner creates a signer over the given chain client.
func NewLocalKeySigner(chainClient BroadcastChain) *LocalKeySigner {
	return &LocalKeySigner{chain: chainClient}
}

// BroadcastWithKey signs the intent batch with wifKey and submits it.
func (s *LocalKeySigner) BroadcastWithKey(ctx context.Context, wifKey string, intents []Intent) (*chain.BroadcastResult, error) {
	key := &wif.PrivateKey{}
	if err := key.FromWif(wifKey); err != nil {
		return nil, fmt.Errorf("invalid signing key: %w", err)
	}

	props, err := s.chain.GetDynamicGlobalProperties(ctx)
	if err != nil {
		return nil, err
	}

	refBlockPrefix, err := refPrefixFromBlockID(props.HeadBlockID)
	if err != nil {
		return nil, err
	}
	expiration := props.Time.Add(txExpiry)

	tx := transaction.NewSignedTransaction(&transaction.Transaction{
		RefBlockNum:    protocol.UInt16(props.HeadBlockNumber & 0xFFFF),
		RefBlockPrefix: protocol.UInt32(refBlockPrefix),
		Expiration:     &protocol.Time{Time: &expiration},
	})

	for _, intent := range intents {
		op, err := intentToOperation(intent)
		if err != nil {
			return nil, err
		}
		tx.PushOperation(op)
	}

	if err := tx.Sign([]*wif.PrivateKey{key}, transaction.SteemChain); err != nil {
		return nil, fmt.Errorf("failed to sign transaction: %w", err)
	}

	return s.chain.BroadcastTransactionSynchronous(ctx, tx.Transaction)
}

// refPrefixFromBlockID extracts the TaPoS prefix: bytes 4..8 of the head
// block id, little-endian.
func refPrefixFromBlockID(blockID string) (uint32, error) {
	raw, err := hex.DecodeString(blockID)
	if err != nil || len(raw) < 8 {
		return 0, fmt.Errorf("malformed head block id %q", blockID)
	}
	return binary.LittleEndian.Uint32(raw[4:8]), nil
}

// intentToOperation maps an intent onto its steemutil protocol operation.
func intentToOperation(intent Intent) (protocol.Operation, error) {
	switch intent.Type {
	case OpVote:
		body, ok := intent.Body.(VoteBody)
		if !ok {
			return nil, fmt.Errorf("vote intent carries %T", intent.Body)
		}
		return &protocol.VoteOperation{
			Voter:    body.Voter,
			Author:   body.Author,
			Permlink: body.Permlink,
			Weight:   protocol.Int16(body.Weight),
		}, nil
	case OpTransfer:
		body, ok := intent.Body.(TransferBody)
		if !ok {
			return nil, fmt.Errorf("transfer intent carries %T", intent.Body)
		}
		return &protocol.TransferOperation{
			From:   body.From,
			To:     body.To,
			Amount: body.Amount,
			Memo:   body.Memo,
		}, nil
	case OpTransferToVesting:
		body, ok := intent.Body.(TransferToVestingBody)
		if !ok {
			return nil, fmt.Errorf("transfer_to_vesting intent carries %T", intent.Body)
		}
		return &protocol.TransferToVestingOperation{
			From:   body.From,
			To:     body.To,
			Amount: body.Amount,
		}, nil
	case OpWithdrawVesting:
		body, ok := intent.Body.(WithdrawVestingBody)
		if !ok {
			return nil, fmt.Errorf("withdraw_vesting intent carries %T", intent.Body)
		}
		return &protocol.WithdrawVestingOperation{
			Account:       body.Account,
			VestingShares: body.VestingShares,
		}, nil
	case OpDelegateVestingShares:
		body, ok := intent.Body.(DelegateVestingSharesBody)
		if !ok {
			return nil, fmt.Errorf("delegate_vesting_shares intent carries %T", intent.Body)
		}
		return &protocol.DelegateVestingSharesOperation{
			Delegator:     body.Delegator,
			Delegatee:     body.Delegatee,
			VestingShares: body.VestingShares,
		}, nil
	case OpClaimRewardBalance:
		body, ok := intent.Body.(ClaimRewardBalanceBody)
		if !ok {
			return nil, fmt.Errorf("claim_reward_balance intent carries %T", intent.Body)
		}
		return &protocol.ClaimRewardBalanceOperation{
			Account:     body.Account,
			RewardSteem: body.RewardSteem,
			RewardSBD:   body.RewardSBD,
			RewardVests: body.RewardVests,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported operation type %q", intent.Type)
	}
}
