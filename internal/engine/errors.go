package engine

import "fmt"

// InvariantError reports chain state that should be impossible, such as a
// zero recent-claims denominator in the reward pool. It is a defect signal,
// not a retryable condition.
type InvariantError struct {
	Reason string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("chain invariant violated: %s", e.Reason)
}
