package cma

import "fmt"

// InvalidStateError reports that the optimizer state has become numerically
// unusable (non-positive or non-finite step size, covariance no longer PSD).
// It is fatal to this engine instance: the caller's recovery strategy is to
// reconstruct from the last valid checkpoint, typically with an adjusted
// initial step size.
type InvalidStateError struct {
	Reason string
}

func (e *InvalidStateError) Error() string {
	return "cma: invalid optimizer state: " + e.Reason
}

func (e *InvalidStateError) Is(target error) bool {
	_, ok := target.(*InvalidStateError)
	return ok
}

// SnapshotError reports a snapshot that cannot be restored: a required field
// is missing or field dimensions are inconsistent with each other.
type SnapshotError struct {
	Field  string
	Reason string
}

func (e *SnapshotError) Error() string {
	return fmt.Sprintf("cma: bad snapshot: %s %s", e.Field, e.Reason)
}

func (e *SnapshotError) Is(target error) bool {
	_, ok := target.(*SnapshotError)
	return ok
}
