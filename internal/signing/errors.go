package signing

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotAuthenticated means no identity was present when a broadcast was
// requested. Fatal for the call.
var ErrNotAuthenticated = errors.New("not authenticated")

// ErrSessionExpired means the stored credential for the required authority
// level is missing or expired. The session collaborator has been signaled to
// re-authenticate. Fatal for the call.
var ErrSessionExpired = errors.New("session expired")

// CancelledError means the user declined the operation in the external
// signer. Not a defect; callers should treat it quietly.
type CancelledError struct {
	Reason string
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("signing cancelled: %s", e.Reason)
}

// FailedError means the signer or the chain rejected the operation. The
// reason is surfaced to the caller; the dispatcher never retries.
type FailedError struct {
	Reason string
	Err    error
}

func (e *FailedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("signing failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("signing failed: %s", e.Reason)
}

func (e *FailedError) Unwrap() error { return e.Err }

// IsCancelled reports whether err represents a user cancellation.
func IsCancelled(err error) bool {
	var cancelled *CancelledError
	return errors.As(err, &cancelled)
}

// cancellationPhrases are the rejection fragments external signers are known
// to produce when the user declines, as opposed to a real failure.
var cancellationPhrases = []string{
	"user canceled",
	"user cancelled",
	"canceled by user",
	"cancelled by user",
	"user rejected",
	"user_cancel",
	"request was canceled",
}

// classifyRejection maps an external signer rejection to Cancelled or Failed
// by inspecting the reason against the known cancellation phrases.
func classifyRejection(reason string) error {
	lowered := strings.ToLower(reason)
	for _, phrase := range cancellationPhrases {
		if strings.Contains(lowered, phrase) {
			return &CancelledError{Reason: reason}
		}
	}
	return &FailedError{Reason: reason}
}
