package core

import (
	"errors"
	"fmt"
)

// Fault is one category of the error taxonomy shared by the executor, the
// store and the service. Faults are attached to errors via Errorf/Wrap and
// recovered with FaultOf, so callers can branch on category without string
// matching.
type Fault string

const (
	// FaultRouting marks a step that failed to produce a usable route hint.
	// Resolved by defaulting to the fallback label, never fatal.
	FaultRouting Fault = "routing"
	// FaultCollaborator marks a failed or unparseable external call. Captured
	// into the state as a visible error marker; the turn continues or
	// terminates gracefully depending on the step.
	FaultCollaborator Fault = "collaborator"
	// FaultEncoding marks a value not representable in the canonical
	// encoding. Triggers the binary-safe fallback path; only a failure of the
	// binary encoding itself is fatal.
	FaultEncoding Fault = "encoding"
	// FaultPersistence marks a failed document write or read. Propagated to
	// the caller; already-applied in-memory mutations are kept.
	FaultPersistence Fault = "persistence"
	// FaultChunkGap marks a chunk document missing at read time. Logged;
	// reconstruction proceeds with a gap.
	FaultChunkGap Fault = "chunk_gap"
)

type faultError struct {
	fault Fault
	err   error
}

func (e *faultError) Error() string { return fmt.Sprintf("%s: %s", e.fault, e.err.Error()) }
func (e *faultError) Unwrap() error { return e.err }

// Errorf creates a new error tagged with the given fault category.
func Errorf(fault Fault, format string, args ...any) error {
	return &faultError{fault: fault, err: fmt.Errorf(format, args...)}
}

// Wrap tags an existing error with a fault category. A nil err yields nil.
func Wrap(fault Fault, err error) error {
	if err == nil {
		return nil
	}
	return &faultError{fault: fault, err: err}
}

// FaultOf extracts the fault category of err, or "" when the error carries
// none.
func FaultOf(err error) Fault {
	var fe *faultError
	if errors.As(err, &fe) {
		return fe.fault
	}
	return ""
}
