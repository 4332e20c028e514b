package encoder

import "fmt"

// ToolNotFoundError reports that the external encoder executable could
// not be located. It is an actionable configuration problem for the
// caller, not a transient failure.
type ToolNotFoundError struct {
	Tool string
	Err  error
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("encoder tool %q was not found", e.Tool)
}

func (e *ToolNotFoundError) Unwrap() error {
	return e.Err
}

// ProcessSpawnError reports that the external encoder process could not
// be started for a reason other than a missing executable, such as
// permissions or resource exhaustion.
type ProcessSpawnError struct {
	Tool string
	Err  error
}

func (e *ProcessSpawnError) Error() string {
	return fmt.Sprintf("failed to start encoder process %q: %v", e.Tool, e.Err)
}

func (e *ProcessSpawnError) Unwrap() error {
	return e.Err
}

// ConversionFailedError reports that the external encoder process
// started but exited abnormally or produced no usable output. Stderr
// carries the process's diagnostic output when available.
type ConversionFailedError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ConversionFailedError) Error() string {
	msg := fmt.Sprintf("encoder process %q failed", e.Tool)
	if e.ExitCode != 0 {
		msg = fmt.Sprintf("%s with exit code %d", msg, e.ExitCode)
	}
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	if e.Stderr == "" && e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *ConversionFailedError) Unwrap() error {
	return e.Err
}
