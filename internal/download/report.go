package download

import "github.com/handiism/suno-downloader/internal/model"

// Outcome is the result of one track in a run.
type Outcome struct {
	Track *model.Track

	// Status is always terminal once Run returns.
	Status model.ClipStatus

	// FileName is the resolved name the track was (or would have been)
	// written under, extension included.
	FileName string

	// Size is the number of bytes written for a succeeded track.
	Size int

	// Reason explains a skip.
	Reason string

	// Err is the cause of a failure: a *http.FetchError, *audio.TagEmbedError,
	// *WriteError, or the context error of a canceled run.
	Err error
}

// Report aggregates the outcomes of a run.
type Report struct {
	// Outcomes in input order.
	Outcomes []Outcome

	Succeeded int
	Skipped   int
	Failed    int

	// Archive is the zip holding every succeeded track, set in archive mode
	// only.
	Archive []byte
}

// Total returns the number of tracks in the run.
func (r *Report) Total() int {
	return len(r.Outcomes)
}

// Failures returns the failed outcomes in input order.
func (r *Report) Failures() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if o.Status == model.StatusFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// SucceededFileNames returns the file names of succeeded tracks in input
// order.
func (r *Report) SucceededFileNames() []string {
	names := make([]string, 0, r.Succeeded)
	for _, o := range r.Outcomes {
		if o.Status == model.StatusSucceeded {
			names = append(names, o.FileName)
		}
	}
	return names
}

func (r *Report) tally() {
	r.Succeeded, r.Skipped, r.Failed = 0, 0, 0
	for _, o := range r.Outcomes {
		switch o.Status {
		case model.StatusSucceeded:
			r.Succeeded++
		case model.StatusSkipped:
			r.Skipped++
		case model.StatusFailed:
			r.Failed++
		}
	}
}

// FilterFailed returns the tracks that failed in r, in input order, ready to
// be passed to a new run.
func FilterFailed(r *Report) []*model.Track {
	if r == nil {
		return nil
	}
	var tracks []*model.Track
	for _, o := range r.Outcomes {
		if o.Status == model.StatusFailed {
			tracks = append(tracks, o.Track)
		}
	}
	return tracks
}
