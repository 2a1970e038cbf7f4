package segment

import (
	"errors"
	"fmt"
)

// Sentinel errors for the store and enrichment contracts.
var (
	// ErrStoreUnavailable means a store location could not be read or
	// written. Fatal: the run aborts.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrNotFound means an operation referenced a segment id absent
	// from the store. This indicates an integration bug, not a normal
	// runtime condition.
	ErrNotFound = errors.New("segment not found")

	// ErrUnrecognizedTimeFormat means an effort time string matched
	// none of the known leaderboard formats.
	ErrUnrecognizedTimeFormat = errors.New("unrecognized time format")
)

// CallKind labels which external collaborator an ExternalCallError
// came from.
type CallKind string

// External call kinds.
const (
	CallDiscovery   CallKind = "discovery"
	CallDetail      CallKind = "detail"
	CallLeaderboard CallKind = "leaderboard"
)

// ExternalCallError wraps a failed discovery, detail, or leaderboard
// call after retries are exhausted. Failures of this kind skip the
// affected id or region and never abort sibling work.
type ExternalCallError struct {
	Kind CallKind
	Err  error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Kind, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}
