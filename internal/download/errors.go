package download

import "fmt"

// RunSetupError reports input that cannot be run at all. It is returned
// before any track changes status.
type RunSetupError struct {
	Reason string
	Err    error
}

func (e *RunSetupError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid run: %s: %v", e.Reason, e.Err)
	}
	return "invalid run: " + e.Reason
}

func (e *RunSetupError) Unwrap() error {
	return e.Err
}

// WriteError reports that a track could not be stored at the destination.
type WriteError struct {
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %v", e.Name, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
