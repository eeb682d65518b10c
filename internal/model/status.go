package model

import "fmt"

// ClipStatus is the state of a track during a batch run.
//
// Transitions are Pending -> Processing -> {Succeeded, Failed}, or
// Pending -> Skipped when an existing file is kept. The numeric values are
// part of the JSON API and must not be reordered.
type ClipStatus int

const (
	// StatusPending means the track has not been dispatched yet.
	StatusPending ClipStatus = iota

	// StatusProcessing means the track is being fetched, tagged or written.
	StatusProcessing

	// StatusSkipped means an existing output was kept.
	StatusSkipped

	// StatusSucceeded means the track was written.
	StatusSucceeded

	// StatusFailed means the track could not be fetched, tagged or written.
	StatusFailed
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusProcessing: "processing",
	StatusSkipped:    "skipped",
	StatusSucceeded:  "succeeded",
	StatusFailed:     "failed",
}

func (s ClipStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return fmt.Sprintf("ClipStatus(%d)", int(s))
	}
	return statusNames[s]
}

// IsTerminal reports whether no further transition can follow s.
func (s ClipStatus) IsTerminal() bool {
	return s == StatusSkipped || s == StatusSucceeded || s == StatusFailed
}

// ParseClipStatus returns the status named by s.
func ParseClipStatus(s string) (ClipStatus, error) {
	for i, name := range statusNames {
		if name == s {
			return ClipStatus(i), nil
		}
	}
	return StatusPending, fmt.Errorf("unknown clip status %q", s)
}
