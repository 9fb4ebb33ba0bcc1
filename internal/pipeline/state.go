package pipeline

import (
	"errors"
	"time"

	"audiosurv/internal/alerts"
	"audiosurv/internal/gateway"
)

// State is the position of a submission in the saga.
type State string

const (
	StateSubmitted       State = "submitted"
	StateTierOneComplete State = "tier_one_complete"
	StateTierTwoComplete State = "tier_two_complete"
	StateFailed          State = "failed"
)

// Terminal reports whether no further transitions follow.
func (s State) Terminal() bool {
	return s == StateTierTwoComplete || s == StateFailed
}

// ErrAlertVanished reports that the preliminary alert was gone when tier two
// tried to complete it.
var ErrAlertVanished = errors.New("preliminary alert vanished before completion")

// Submission is one audio clip to assess.
type Submission struct {
	Audio    []byte
	MimeType string
	Filename string
}

// Result is the outcome of a submission.
type Result struct {
	State   State
	TempID  string
	FinalID string
	// Alert is the final alert on success, or the preliminary alert when the
	// submission failed after tier one.
	Alert alerts.Alert
	Err   error
}

// Event describes one state transition.
type Event struct {
	SubmissionID string
	Filename     string
	MimeType     string
	From         State
	To           State
	// Tier is the tier that just finished or failed. Empty for StateSubmitted.
	Tier     gateway.Tier
	Alert    alerts.Alert
	Err      error
	Duration time.Duration
	At       time.Time
}

// Observer receives transitions synchronously on the submitting goroutine.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) { f(e) }

// Store is the subset of the alert store the pipeline mutates.
type Store interface {
	Insert(alert alerts.Alert) error
	Patch(id string, patch alerts.AlertPatch) bool
	Discard(id string) bool
}
