package history

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/steemfans/wallet-engine/internal/chain"
)

func entry(seq int64, opType, payload string, at time.Time) chain.HistoryEntry {
	return chain.HistoryEntry{
		Sequence:  seq,
		Timestamp: chain.Time{Time: at},
		Op: chain.RawOperation{
			Type:    opType,
			Payload: json.RawMessage(payload),
		},
	}
}

var when = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

func TestFormatTransferDirections(t *testing.T) {
	f := NewFormatter(nil)

	sent := f.Format(context.Background(), entry(1, "transfer",
		`{"from":"alice","to":"bob","amount":"1.000 STEEM","memo":""}`, when), "alice")
	assert.True(t, sent.ByIdentity)
	assert.False(t, sent.OnIdentity)
	assert.Equal(t, KindTransfer, sent.Kind)
	assert.Equal(t, "alice sent 1.000 STEEM to bob", sent.Description)

	received := f.Format(context.Background(), entry(2, "transfer",
		`{"from":"bob","to":"alice","amount":"1.000 STEEM","memo":""}`, when), "alice")
	assert.False(t, received.ByIdentity)
	assert.True(t, received.OnIdentity)

	selfTransfer := f.Format(context.Background(), entry(3, "transfer",
		`{"from":"alice","to":"alice","amount":"1.000 STEEM","memo":""}`, when), "alice")
	assert.True(t, selfTransfer.ByIdentity)
	assert.True(t, selfTransfer.OnIdentity)
}

func TestFormatVoteDirections(t *testing.T) {
	f := NewFormatter(nil)

	voted := f.Format(context.Background(), entry(1, "vote",
		`{"voter":"alice","author":"bob","permlink":"post","weight":10000}`, when), "alice")
	assert.True(t, voted.ByIdentity)
	assert.False(t, voted.OnIdentity)
	assert.Equal(t, "alice voted 100% on @bob/post", voted.Description)

	votedOn := f.Format(context.Background(), entry(2, "vote",
		`{"voter":"bob","author":"alice","permlink":"post","weight":5000}`, when), "alice")
	assert.False(t, votedOn.ByIdentity)
	assert.True(t, votedOn.OnIdentity)
}

func TestFormatDelegation(t *testing.T) {
	f := NewFormatter(nil)

	tx := f.Format(context.Background(), entry(1, "delegate_vesting_shares",
		`{"delegator":"alice","delegatee":"bob","vesting_shares":"1000.000000 VESTS"}`, when), "bob")
	assert.False(t, tx.ByIdentity)
	assert.True(t, tx.OnIdentity)
	assert.Equal(t, KindDelegateVestingShares, tx.Kind)
	// Without a converter the raw VESTS string is shown.
	assert.Contains(t, tx.Description, "1000.000000 VESTS")
}

func TestFormatCurationReward(t *testing.T) {
	f := NewFormatter(nil)

	tx := f.Format(context.Background(), entry(1, "curation_reward",
		`{"curator":"alice","reward":"20.000000 VESTS","comment_author":"bob","comment_permlink":"post"}`, when), "alice")
	assert.False(t, tx.ByIdentity)
	assert.True(t, tx.OnIdentity)
	assert.Equal(t, "reward", tx.Icon)
}

func TestFormatUnknownKind(t *testing.T) {
	f := NewFormatter(nil)

	tx := f.Format(context.Background(), entry(1, "some_future_operation", `{"whatever":1}`, when), "alice")
	assert.Equal(t, KindUnknown, tx.Kind)
	assert.False(t, tx.ByIdentity)
	assert.False(t, tx.OnIdentity)
}

func TestFormatCarriesTimestamp(t *testing.T) {
	f := NewFormatter(nil)

	tx := f.Format(context.Background(), entry(7, "transfer",
		`{"from":"a","to":"b","amount":"1.000 STEEM","memo":""}`, when), "a")
	assert.Equal(t, int64(7), tx.ID)
	assert.Equal(t, when, tx.Timestamp)
	assert.Equal(t, "Mar 1, 2024 09:30", tx.FormattedDate)
}

func TestKindRoundTrip(t *testing.T) {
	for kind, tag := range kindTags {
		assert.Equal(t, kind, KindOf(tag))
		assert.Equal(t, tag, kind.String())
	}
	assert.Equal(t, KindUnknown, KindOf("definitely_not_real"))
}
