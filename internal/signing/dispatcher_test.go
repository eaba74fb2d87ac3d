package signing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steemfans/wallet-engine/internal/chain"
)

type fakeSession struct {
	identity Identity
	present  bool
	keys     map[AuthorityLevel]string
	expired  []string
}

func (s *fakeSession) CurrentIdentity(ctx context.Context) (Identity, bool) {
	return s.identity, s.present
}

func (s *fakeSession) StoredKey(ctx context.Context, username string, level AuthorityLevel) (string, bool) {
	key, ok := s.keys[level]
	return key, ok
}

func (s *fakeSession) NotifySessionExpired(username string) {
	s.expired = append(s.expired, username)
}

type fakeExternal struct {
	result      *chain.BroadcastResult
	err         error
	calls       int
	lastLevel   AuthorityLevel
	lastIntents []Intent
}

func (e *fakeExternal) Broadcast(ctx context.Context, username string, intents []Intent, level AuthorityLevel) (*chain.BroadcastResult, error) {
	e.calls++
	e.lastLevel = level
	e.lastIntents = intents
	if e.err != nil {
		return nil, e.err
	}
	return e.result, nil
}

type fakeLocal struct {
	result  *chain.BroadcastResult
	err     error
	calls   int
	lastWif string
}

func (l *fakeLocal) BroadcastWithKey(ctx context.Context, wifKey string, intents []Intent) (*chain.BroadcastResult, error) {
	l.calls++
	l.lastWif = wifKey
	if l.err != nil {
		return nil, l.err
	}
	return l.result, nil
}

func transferIntent() Intent {
	return Intent{Type: OpTransfer, Body: TransferBody{
		From:   "alice",
		To:     "bob",
		Amount: "1.000 STEEM",
	}}
}

func claimIntent() Intent {
	return Intent{Type: OpClaimRewardBalance, Body: ClaimRewardBalanceBody{
		Account:     "alice",
		RewardSteem: "0.000 STEEM",
		RewardSBD:   "0.000 SBD",
		RewardVests: "10.000000 VESTS",
	}}
}

func TestBroadcastNotAuthenticated(t *testing.T) {
	session := &fakeSession{present: false}
	external := &fakeExternal{}
	local := &fakeLocal{}
	d := NewDispatcher(session, external, local, nil)

	_, err := d.Broadcast(context.Background(), []Intent{transferIntent()}, AuthorityActive, nil)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Len(t, session.expired, 1, "missing identity must raise the re-auth signal")
	assert.Zero(t, external.calls)
	assert.Zero(t, local.calls)
}

func TestBroadcastExternalCancelled(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodExternalSigner},
		present:  true,
	}
	external := &fakeExternal{err: errors.New("Keychain: user canceled the request")}
	local := &fakeLocal{result: &chain.BroadcastResult{ID: "deadbeef"}}
	d := NewDispatcher(session, external, local, nil)

	_, err := d.Broadcast(context.Background(), []Intent{transferIntent()}, AuthorityActive, nil)
	assert.True(t, IsCancelled(err), "want cancelled, got %v", err)
	// Once on the external path there is never a local-key fallback.
	assert.Zero(t, local.calls)
}

func TestBroadcastExternalFailed(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodExternalSigner},
		present:  true,
	}
	external := &fakeExternal{err: errors.New("missing required active authority")}
	local := &fakeLocal{result: &chain.BroadcastResult{ID: "deadbeef"}}
	d := NewDispatcher(session, external, local, nil)

	_, err := d.Broadcast(context.Background(), []Intent{transferIntent()}, AuthorityActive, nil)
	require.Error(t, err)
	assert.False(t, IsCancelled(err))

	var failed *FailedError
	assert.True(t, errors.As(err, &failed))
	assert.Zero(t, local.calls)
}

func TestBroadcastSpecializedHandlerPreferred(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodExternalSigner},
		present:  true,
	}
	external := &fakeExternal{result: &chain.BroadcastResult{ID: "generic"}}
	d := NewDispatcher(session, external, &fakeLocal{}, nil)

	specialized := func(ctx context.Context, username string, level AuthorityLevel) (*chain.BroadcastResult, error) {
		return &chain.BroadcastResult{ID: "specialized"}, nil
	}

	result, err := d.Broadcast(context.Background(), []Intent{transferIntent()}, AuthorityActive, specialized)
	require.NoError(t, err)
	assert.Equal(t, "specialized", result.ID)
	assert.Zero(t, external.calls)
}

func TestBroadcastClaimNeverEscalates(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodExternalSigner},
		present:  true,
	}
	external := &fakeExternal{result: &chain.BroadcastResult{ID: "ok"}}
	d := NewDispatcher(session, external, &fakeLocal{}, nil)

	_, err := d.Broadcast(context.Background(), []Intent{claimIntent()}, AuthorityActive, nil)
	require.NoError(t, err)
	assert.Equal(t, AuthorityPosting, external.lastLevel)
}

func TestBroadcastMixedBatchKeepsRequestedLevel(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodExternalSigner},
		present:  true,
	}
	external := &fakeExternal{result: &chain.BroadcastResult{ID: "ok"}}
	d := NewDispatcher(session, external, &fakeLocal{}, nil)

	_, err := d.Broadcast(context.Background(), []Intent{claimIntent(), transferIntent()}, AuthorityActive, nil)
	require.NoError(t, err)
	assert.Equal(t, AuthorityActive, external.lastLevel)
}

func TestBroadcastLocalKeyMissing(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodLocalKey},
		present:  true,
		keys:     map[AuthorityLevel]string{},
	}
	local := &fakeLocal{}
	d := NewDispatcher(session, &fakeExternal{}, local, nil)

	_, err := d.Broadcast(context.Background(), []Intent{transferIntent()}, AuthorityActive, nil)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, []string{"alice"}, session.expired)
	assert.Zero(t, local.calls)
}

func TestBroadcastLocalKeySuccess(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodLocalKey},
		present:  true,
		keys:     map[AuthorityLevel]string{AuthorityActive: "5Jwif"},
	}
	local := &fakeLocal{result: &chain.BroadcastResult{ID: "abc123", BlockNum: 42}}
	d := NewDispatcher(session, &fakeExternal{}, local, nil)

	result, err := d.Broadcast(context.Background(), []Intent{transferIntent()}, AuthorityActive, nil)
	require.NoError(t, err)
	assert.Equal(t, "abc123", result.ID)
	assert.Equal(t, "5Jwif", local.lastWif)
	assert.Equal(t, 1, local.calls)
}

func TestBroadcastEmptyBatch(t *testing.T) {
	session := &fakeSession{
		identity: Identity{Username: "alice", Method: MethodLocalKey},
		present:  true,
	}
	d := NewDispatcher(session, &fakeExternal{}, &fakeLocal{}, nil)

	_, err := d.Broadcast(context.Background(), nil, AuthorityPosting, nil)
	assert.Error(t, err)
}

func TestClassifyRejectionPhrases(t *testing.T) {
	cases := []struct {
		reason    string
		cancelled bool
	}{
		{"user canceled", true},
		{"The user cancelled this transaction", true},
		{"request was canceled by timeout", true},
		{"user_cancel", true},
		{"missing posting authority", false},
		{"bandwidth exceeded", false},
	}
	for _, tc := range cases {
		err := classifyRejection(tc.reason)
		assert.Equal(t, tc.cancelled, IsCancelled(err), "reason %q", tc.reason)
	}
}
