package pipeline

import "errors"

// ErrSeedUnavailable means the economic source, which defines the county
// set, could not be loaded. No snapshot can be built without it.
var ErrSeedUnavailable = errors.New("seed source unavailable")

// ErrSuperseded is returned by a run abandoned because a newer run was triggered.
var ErrSuperseded = errors.New("run superseded by a newer trigger")

// FatalError marks a build failure that leaves the previous snapshot in place.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string { return "fatal build error: " + e.Err.Error() }

func (e *FatalError) Unwrap() error { return e.Err }
