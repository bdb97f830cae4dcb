package core

import "errors"

// Sentinel errors callers branch on. Wrapped with fmt.Errorf("...: %w", err)
// at package boundaries elsewhere in this package.
var (
	// ErrUnknownScheduler reports an unrecognized scheduler name.
	// NewScheduler panics on such a name rather than returning it.
	ErrUnknownScheduler = errors.New("core: unknown scheduler type")

	// ErrEmptyPlan is returned (and logged, not fatal) when a scheduling
	// round produces a zero-length plan.
	ErrEmptyPlan = errors.New("core: scheduler produced an empty plan")

	// ErrNoBlocks is surfaced by an AppAdapter when a requested query has
	// no blocks available; the sender logs and continues.
	ErrNoBlocks = errors.New("core: no blocks available for query")

	// ErrSessionClosed reports a closed session. The loops' Run methods
	// return no error; they simply exit once the kill flag is observed.
	ErrSessionClosed = errors.New("core: session closed")
)
