package signing

import "context"

// SigningMethod describes which credential holder can sign for an identity.
type SigningMethod int

const (
	// MethodUnknown is the zero value; broadcasting with it fails.
	MethodUnknown SigningMethod = iota
	// MethodExternalSigner delegates signing to a browser-extension-like
	// provider that never exposes the private key.
	MethodExternalSigner
	// MethodLocalKey signs with a key held by the session store.
	MethodLocalKey
)

// AuthorityLevel is the credential tier a chain operation requires.
type AuthorityLevel string

const (
	AuthorityPosting AuthorityLevel = "posting"
	AuthorityActive  AuthorityLevel = "active"
)

// Identity is the current user as the auth collaborator reports it. The
// dispatcher reads it once per call and never caches it.
type Identity struct {
	Username string
	Method   SigningMethod
}

// Session is the auth/session collaborator. StoredKey returns the WIF for the
// given authority level, or false when it is absent or expired.
// NotifySessionExpired asks the collaborator to re-authenticate the user; the
// dispatcher raises it and moves on.
type Session interface {
	CurrentIdentity(ctx context.Context) (Identity, bool)
	StoredKey(ctx context.Context, username string, level AuthorityLevel) (string, bool)
	NotifySessionExpired(username string)
}
