package domain

import (
	"fmt"
	"strings"
)

// CommitPhase identifies a stage of storing pending changes.
type CommitPhase string

const (
	// PhaseDelete removes unregistered settings from the backend.
	PhaseDelete CommitPhase = "delete"
	// PhaseInsert registers new settings in the backend.
	PhaseInsert CommitPhase = "insert"
	// PhaseUpdate writes changed values of existing settings.
	PhaseUpdate CommitPhase = "update"
	// PhaseFlush asks the backend to persist what it has buffered.
	PhaseFlush CommitPhase = "flush"
)

// Concurrency tells the write-back cache which commit phases may issue backend calls concurrently.
type Concurrency struct {
	Register   bool
	Unregister bool
	Update     bool
}

// FullConcurrency allows every phase to run concurrently.
var FullConcurrency = Concurrency{Register: true, Unregister: true, Update: true}

// Allows reports whether phase may run concurrently under this policy.
func (c Concurrency) Allows(phase CommitPhase) bool {
	switch phase {
	case PhaseDelete:
		return c.Unregister
	case PhaseInsert:
		return c.Register
	case PhaseUpdate:
		return c.Update
	default:
		return false
	}
}

// CommitError reports a store that failed part-way.
// Flushed lists the keys whose backend calls succeeded before the failure; Pending lists the
// keys that still carry unstored intents. Pending intents are kept, so the store can be retried.
type CommitError struct {
	Phase   CommitPhase
	Flushed []string
	Pending []string
	Err     error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s: phase %s failed (flushed: [%s], pending: [%s]): %v",
		ErrCommitFailed.Error(), e.Phase,
		strings.Join(e.Flushed, ", "), strings.Join(e.Pending, ", "), e.Err)
}

// Unwrap exposes both ErrCommitFailed and the backend cause to errors.Is and errors.As.
func (e *CommitError) Unwrap() []error {
	return []error{ErrCommitFailed, e.Err}
}
