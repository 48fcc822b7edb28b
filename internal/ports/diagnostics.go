package ports

import "context"

// SessionOp names the session store operation that failed.
type SessionOp string

const (
	SessionOpLoad  SessionOp = "load"
	SessionOpSave  SessionOp = "save"
	SessionOpClear SessionOp = "clear"
)

// SessionFailure describes a recovered session storage failure.
// The session transition it accompanies has already been committed or degraded.
type SessionFailure struct {
	Op     SessionOp
	Status string // load status ("corrupt", "inconsistent", "unavailable") or "error" for writes
	Key    string
	Err    error
}

// Diagnostics receives recovered failures that are never surfaced to the user.
type Diagnostics interface {
	ReportSessionFailure(ctx context.Context, f SessionFailure)
}
