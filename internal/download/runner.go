package download

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/handiism/suno-downloader/internal/archive"
	"github.com/handiism/suno-downloader/internal/model"
)

// Fetcher retrieves a remote resource into memory.
type Fetcher interface {
	DownloadBytes(ctx context.Context, url string) ([]byte, error)
}

// Embedder writes metadata into audio data.
type Embedder interface {
	Embed(audio []byte, title string, trackNumber int, cover []byte) ([]byte, error)
}

// Destination stores finished tracks.
type Destination interface {
	Exists(ctx context.Context, name string) (bool, error)
	Write(ctx context.Context, name string, data []byte) error
}

// CoverFunc prepares downloaded cover art for embedding.
type CoverFunc func(ctx context.Context, data []byte) ([]byte, error)

// Observer is notified of every status transition. It is called from the
// goroutine running the track and must be safe for concurrent use.
type Observer interface {
	OnStatusChange(trackID string, status model.ClipStatus)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(trackID string, status model.ClipStatus)

// OnStatusChange calls f.
func (f ObserverFunc) OnStatusChange(trackID string, status model.ClipStatus) {
	f(trackID, status)
}

// MultiObserver fans transitions out to several observers in order.
type MultiObserver []Observer

// OnStatusChange notifies every non-nil observer.
func (m MultiObserver) OnStatusChange(trackID string, status model.ClipStatus) {
	for _, o := range m {
		if o != nil {
			o.OnStatusChange(trackID, status)
		}
	}
}

// Runner downloads a batch of tracks with bounded concurrency.
//
// Each track is fetched, tagged and written independently: a failing track
// is recorded in the Report and never cancels its siblings.
type Runner struct {
	fetcher    Fetcher
	embedder   Embedder
	cover      CoverFunc
	logger     *log.Logger
	onProgress func(ProgressEvent)
}

// NewRunner creates a Runner. cover, logger and onProgress may be nil.
func NewRunner(fetcher Fetcher, embedder Embedder, cover CoverFunc, logger *log.Logger, onProgress func(ProgressEvent)) *Runner {
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
	}
	return &Runner{
		fetcher:    fetcher,
		embedder:   embedder,
		cover:      cover,
		logger:     logger,
		onProgress: onProgress,
	}
}

// WithEmbedder returns a copy of r that tags with e.
func (r *Runner) WithEmbedder(e Embedder) *Runner {
	c := *r
	c.embedder = e
	return &c
}

// task is one planned unit of work.
type task struct {
	track *model.Track
	name  string
}

// Run downloads tracks according to cfg.
//
// At most cfg.Concurrency tracks are in flight; they are dispatched in input
// order and a slot is reused as soon as a track finishes. Every track emits
// Processing followed by a terminal status, or Skipped alone when the file
// exists and overwriting is off. Run returns once every track is terminal.
//
// Invalid input is rejected with a *RunSetupError before any transition.
// In archive mode dest is ignored and the Report carries the zip.
func (r *Runner) Run(ctx context.Context, tracks []*model.Track, cfg model.RunConfig, dest Destination, obs Observer) (*Report, error) {
	if err := validate(tracks, cfg, dest); err != nil {
		return nil, err
	}

	report := &Report{Outcomes: make([]Outcome, len(tracks))}
	if len(tracks) == 0 {
		return report, nil
	}
	if obs == nil {
		obs = MultiObserver(nil)
	}

	var collector *archive.Collector
	if cfg.ArchiveMode {
		collector = archive.NewCollector()
		dest = collector
	}

	tasks := plan(tracks, cfg.FileNameTemplate)

	var g errgroup.Group
	g.SetLimit(cfg.Concurrency)

	for i := range tasks {
		t := tasks[i]
		out := &report.Outcomes[i]
		g.Go(func() error {
			r.runTask(ctx, t, cfg, dest, obs, out)
			return nil // Continue with other tracks
		})
	}
	_ = g.Wait()

	report.tally()

	if cfg.ArchiveMode {
		data, err := archive.Assemble(collector.Entries(report.SucceededFileNames()))
		if err != nil {
			return report, fmt.Errorf("assemble archive: %w", err)
		}
		report.Archive = data
	}

	return report, nil
}

func (r *Runner) runTask(ctx context.Context, t task, cfg model.RunConfig, dest Destination, obs Observer, out *Outcome) {
	id := t.track.ID
	out.Track = t.track
	out.FileName = t.name

	if !cfg.OverwriteExisting {
		exists, err := dest.Exists(ctx, t.name)
		if err != nil {
			r.logger.Warn("existence check failed", "track", id, "file", t.name, "err", err)
		}
		if exists {
			out.Status = model.StatusSkipped
			out.Reason = "file already exists"
			obs.OnStatusChange(id, model.StatusSkipped)
			r.progress(ProgressEvent{Message: fmt.Sprintf("Skipping existing: %s", t.name), Level: LevelVerbose})
			return
		}
	}

	obs.OnStatusChange(id, model.StatusProcessing)

	data, err := r.process(ctx, t.track, cfg)
	if err == nil {
		if werr := dest.Write(ctx, t.name, data); werr != nil {
			err = &WriteError{Name: t.name, Err: werr}
		}
	}

	if err != nil {
		out.Status = model.StatusFailed
		out.Err = err
		r.logger.Error("track failed", "track", id, "file", t.name, "err", err)
		obs.OnStatusChange(id, model.StatusFailed)
		r.progress(ProgressEvent{Message: fmt.Sprintf("Error downloading %s: %v", t.track.Title, err), Level: LevelError})
		return
	}

	out.Status = model.StatusSucceeded
	out.Size = len(data)
	r.logger.Debug("track written", "track", id, "file", t.name, "bytes", len(data))
	obs.OnStatusChange(id, model.StatusSucceeded)
	r.progress(ProgressEvent{Message: fmt.Sprintf("Downloaded: %s", t.name), Level: LevelVerbose})
}

// process fetches and tags one track. Artwork problems are logged and the
// track is tagged without a cover.
func (r *Runner) process(ctx context.Context, track *model.Track, cfg model.RunConfig) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	audioData, err := r.fetcher.DownloadBytes(ctx, track.AudioURL)
	if err != nil {
		return nil, err
	}

	var cover []byte
	if cfg.EmbedArtwork {
		if u := track.ArtworkURL(cfg.UseLargeImages); u != "" {
			cover = r.fetchCover(ctx, track, u)
		}
	}

	return r.embedder.Embed(audioData, track.Title, track.Number, cover)
}

func (r *Runner) fetchCover(ctx context.Context, track *model.Track, url string) []byte {
	cover, err := r.fetcher.DownloadBytes(ctx, url)
	if err != nil {
		r.logger.Warn("cover art unavailable", "track", track.ID, "err", err)
		r.progress(ProgressEvent{Message: fmt.Sprintf("No cover art for %s: %v", track.Title, err), Level: LevelWarning})
		return nil
	}
	if r.cover == nil {
		return cover
	}

	prepared, err := r.cover(ctx, cover)
	if err != nil {
		r.logger.Warn("cover art not processed", "track", track.ID, "err", err)
		return cover
	}
	return prepared
}

func (r *Runner) progress(event ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(event)
	}
}

func validate(tracks []*model.Track, cfg model.RunConfig, dest Destination) error {
	if err := cfg.Validate(); err != nil {
		return &RunSetupError{Reason: "configuration", Err: err}
	}
	if !cfg.ArchiveMode && dest == nil {
		return &RunSetupError{Reason: "no destination"}
	}

	seen := make(map[string]struct{}, len(tracks))
	for i, t := range tracks {
		switch {
		case t == nil:
			return &RunSetupError{Reason: fmt.Sprintf("track %d is nil", i)}
		case strings.TrimSpace(t.ID) == "":
			return &RunSetupError{Reason: fmt.Sprintf("track %d has no id", i)}
		case strings.TrimSpace(t.AudioURL) == "":
			return &RunSetupError{Reason: fmt.Sprintf("track %s has no audio URL", t.ID)}
		}
		if _, dup := seen[t.ID]; dup {
			return &RunSetupError{Reason: fmt.Sprintf("duplicate track %s", t.ID)}
		}
		seen[t.ID] = struct{}{}
	}
	return nil
}

// plan resolves a unique file name for every track. A name already taken
// earlier in the run gets the track id appended.
func plan(tracks []*model.Track, template string) []task {
	tasks := make([]task, len(tracks))
	used := make(map[string]struct{}, len(tracks))

	for i, track := range tracks {
		base := model.ResolveFileName(template, track.Number, track.Title, track.ID)
		name := base
		if _, taken := used[strings.ToLower(name)]; taken {
			name = fmt.Sprintf("%s (%s)", base, model.SanitizeFileName(track.ID))
			for n := 2; ; n++ {
				if _, taken := used[strings.ToLower(name)]; !taken {
					break
				}
				name = fmt.Sprintf("%s (%s %d)", base, model.SanitizeFileName(track.ID), n)
			}
		}
		used[strings.ToLower(name)] = struct{}{}
		tasks[i] = task{track: track, name: name + model.FileExtension}
	}
	return tasks
}
