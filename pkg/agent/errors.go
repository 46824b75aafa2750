package agent

import "fmt"

// ValidationError reports a malformed AgentConfig field. It is raised before
// any network activity and the caller can recover by correcting the input.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid config field %q: %s", e.Field, e.Reason)
}

// ConfigurationError reports a missing credential or capability discovered at
// build time. It is fatal for that build attempt and recoverable by fixing
// the environment or configuration.
type ConfigurationError struct {
	Missing string
	Reason  string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing %s: %s", e.Missing, e.Reason)
}

// ExecutionError reports a provider failure mid-stream. It carries the text
// accumulated before the failure so the run can be finalized as aborted
// instead of losing state.
type ExecutionError struct {
	Partial string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("provider stream failed: %v", e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}
