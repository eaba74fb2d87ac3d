package signing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/steemfans/wallet-engine/internal/chain"
)

// ExternalSigner is the browser-extension-like signing provider. A rejection
// is reported as an error whose message carries the provider's reason; the
// dispatcher classifies it as cancelled or failed.
type ExternalSigner interface {
	Broadcast(ctx context.Context, username string, intents []Intent, level AuthorityLevel) (*chain.BroadcastResult, error)
}

// KeyBroadcaster signs a batch with a locally held WIF and submits it to the
// chain's broadcast endpoint.
type KeyBroadcaster interface {
	BroadcastWithKey(ctx context.Context, wifKey string, intents []Intent) (*chain.BroadcastResult, error)
}

// SpecializedHandler is a caller-supplied external-signer path with
// higher-fidelity UX for a common operation. It is only consulted on the
// external-signer path.
type SpecializedHandler func(ctx context.Context, username string, level AuthorityLevel) (*chain.BroadcastResult, error)

// Dispatcher routes a broadcast request through whichever credential holder
// the current identity designates. It holds no state between calls; exactly
// one signing path is taken per call and there are no automatic retries.
type Dispatcher struct {
	session  Session
	external ExternalSigner
	local    KeyBroadcaster
	logger   *zap.Logger
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(session Session, external ExternalSigner, local KeyBroadcaster, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		session:  session,
		external: external,
		local:    local,
		logger:   logger,
	}
}

// Broadcast signs and submits the intent batch at the requested authority
// level. specialized may be nil. The terminal outcome is exactly one of:
// a broadcast result, a *CancelledError, or a typed failure.
func (d *Dispatcher) Broadcast(ctx context.Context, intents []Intent, level AuthorityLevel, specialized SpecializedHandler) (*chain.BroadcastResult, error) {
	if len(intents) == 0 {
		return nil, &FailedError{Reason: "empty operation batch"}
	}

	identity, ok := d.session.CurrentIdentity(ctx)
	if !ok || identity.Username == "" {
		d.session.NotifySessionExpired(identity.Username)
		return nil, ErrNotAuthenticated
	}

	level = effectiveAuthority(intents, level)

	switch identity.Method {
	case MethodExternalSigner:
		return d.broadcastExternal(ctx, identity, intents, level, specialized)
	case MethodLocalKey:
		return d.broadcastLocal(ctx, identity, intents, level)
	default:
		return nil, &FailedError{Reason: fmt.Sprintf("unknown signing method for %s", identity.Username)}
	}
}

// broadcastExternal runs the external-signer path. Once here the dispatcher
// never falls back to local-key signing: a rejection is terminal and is
// classified as cancelled or failed from the provider's reason.
func (d *Dispatcher) broadcastExternal(ctx context.Context, identity Identity, intents []Intent, level AuthorityLevel, specialized SpecializedHandler) (*chain.BroadcastResult, error) {
	var (
		result *chain.BroadcastResult
		err    error
	)
	if specialized != nil {
		result, err = specialized(ctx, identity.Username, level)
	} else {
		result, err = d.external.Broadcast(ctx, identity.Username, intents, level)
	}
	if err != nil {
		classified := classifyRejection(err.Error())
		if IsCancelled(classified) {
			d.logger.Debug("external signer cancelled by user",
				zap.String("account", identity.Username))
		} else {
			d.logger.Warn("external signer rejected broadcast",
				zap.String("account", identity.Username),
				zap.Error(err))
		}
		return nil, classified
	}

	d.logger.Info("broadcast accepted via external signer",
		zap.String("account", identity.Username),
		zap.String("trx_id", result.ID),
		zap.Int("operations", len(intents)))
	return result, nil
}

// broadcastLocal resolves the stored key for the authority level, signs and
// submits directly. A missing or expired key raises the session-expiry signal
// and terminates the call.
func (d *Dispatcher) broadcastLocal(ctx context.Context, identity Identity, intents []Intent, level AuthorityLevel) (*chain.BroadcastResult, error) {
	wifKey, ok := d.session.StoredKey(ctx, identity.Username, level)
	if !ok || wifKey == "" {
		d.session.NotifySessionExpired(identity.Username)
		return nil, ErrSessionExpired
	}

	result, err := d.local.BroadcastWithKey(ctx, wifKey, intents)
	if err != nil {
		d.logger.Warn("local key broadcast rejected",
			zap.String("account", identity.Username),
			zap.Error(err))
		return nil, &FailedError{Reason: "broadcast rejected", Err: err}
	}

	d.logger.Info("broadcast accepted via local key",
		zap.String("account", identity.Username),
		zap.String("trx_id", result.ID),
		zap.Int("operations", len(intents)))
	return result, nil
}
