package telemetry

import "fmt"

// PersistenceError reports a telemetry write failure. Callers are expected
// to log it and continue; telemetry loss never fails a user-visible run.
type PersistenceError struct {
	Op   string
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("telemetry %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
