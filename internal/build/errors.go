// errors.go - Structured errors for compiler process failures
package build

import "fmt"

// Failure reasons carried by Failed events.
const (
	ReasonInvalid    = "INVALID_REQUEST"
	ReasonGeneration = "GENERATION_FAILED"
	ReasonSpawn      = "SPAWN_FAILED"
	ReasonExit       = "NON_ZERO_EXIT"
	ReasonTerminated = "TERMINATED"
	ReasonNoArtifact = "NO_ARTIFACT"
	ReasonWrite      = "WRITE_FAILED"
	ReasonPanic      = "PANIC"
)

// ProcessError describes why the compiler did not produce an artifact.
type ProcessError struct {
	Reason   string
	ExitCode *int
	Err      error
}

// Error implements the error interface
func (e *ProcessError) Error() string {
	switch {
	case e.ExitCode != nil && e.Err != nil:
		return fmt.Sprintf("%s (exit code %d): %v", e.Reason, *e.ExitCode, e.Err)
	case e.ExitCode != nil:
		return fmt.Sprintf("%s (exit code %d)", e.Reason, *e.ExitCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Reason, e.Err)
	}
	return e.Reason
}

func (e *ProcessError) Unwrap() error {
	return e.Err
}

// NewSpawnError creates an error for a compiler that could not be started
func NewSpawnError(cause error) *ProcessError {
	return &ProcessError{Reason: ReasonSpawn, Err: cause}
}

// NewExitError creates an error for a compiler that exited non-zero
func NewExitError(code int) *ProcessError {
	return &ProcessError{Reason: ReasonExit, ExitCode: &code}
}

// NewTerminatedError creates an error for a compiler killed by a signal
func NewTerminatedError(cause error) *ProcessError {
	return &ProcessError{Reason: ReasonTerminated, Err: cause}
}
