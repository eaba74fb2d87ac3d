package events

import "time"

// Event types emitted during long-running scans.
const (
	CurationStarted   = "curation.started"
	CurationProgress  = "curation.progress"
	CurationCompleted = "curation.completed"
	CurationError     = "curation.error"
)

// Event is the envelope published to sinks.
type Event struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// ScanStartedEvent announces a history scan.
type ScanStartedEvent struct {
	Account    string `json:"account"`
	WindowDays int    `json:"windowDays"`
}

// ScanProgressEvent reports how many operations have been examined so far.
type ScanProgressEvent struct {
	Account           string `json:"account"`
	OperationsScanned int    `json:"operationsScanned"`
	RewardsFound      int    `json:"rewardsFound"`
}

// ScanCompletedEvent carries the finished summary.
type ScanCompletedEvent struct {
	Account   string `json:"account"`
	Summary   any    `json:"summary"`
	Truncated bool   `json:"truncated"`
}

// ScanErrorEvent reports a failed scan.
type ScanErrorEvent struct {
	Account string `json:"account"`
	Reason  string `json:"reason"`
}
