package download

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	dlhttp "github.com/handiism/suno-downloader/internal/http"
	"github.com/handiism/suno-downloader/internal/model"
)

// fakeFetcher serves canned bodies by URL and records how often it was hit.
type fakeFetcher struct {
	mu     sync.Mutex
	bodies map[string][]byte
	calls  int

	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32
}

func (f *fakeFetcher) DownloadBytes(ctx context.Context, url string) ([]byte, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls++
	body, ok := f.bodies[url]
	f.mu.Unlock()

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if !ok {
		return nil, &dlhttp.FetchError{URL: url, StatusCode: 404}
	}
	return body, nil
}

func (f *fakeFetcher) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fakeEmbedder prefixes the audio with the title so tests can see tagging happened.
type fakeEmbedder struct {
	mu     sync.Mutex
	covers map[string][]byte
}

func (e *fakeEmbedder) Embed(audio []byte, title string, trackNumber int, cover []byte) ([]byte, error) {
	e.mu.Lock()
	if e.covers == nil {
		e.covers = make(map[string][]byte)
	}
	e.covers[title] = cover
	e.mu.Unlock()
	return append([]byte(fmt.Sprintf("TAG:%s:%d|", title, trackNumber)), audio...), nil
}

// memDest is an in-memory Destination.
type memDest struct {
	mu       sync.Mutex
	files    map[string][]byte
	existing map[string]bool
	failOn   string
}

func newMemDest() *memDest {
	return &memDest{files: make(map[string][]byte), existing: make(map[string]bool)}
}

func (d *memDest) Exists(_ context.Context, name string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.existing[name], nil
}

func (d *memDest) Write(_ context.Context, name string, data []byte) error {
	if name == d.failOn {
		return errors.New("disk full")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.files[name] = data
	return nil
}

func (d *memDest) Names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	names := make([]string, 0, len(d.files))
	for n := range d.files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// recorder collects status transitions per track.
type recorder struct {
	mu      sync.Mutex
	history map[string][]model.ClipStatus
}

func (r *recorder) OnStatusChange(id string, status model.ClipStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.history == nil {
		r.history = make(map[string][]model.ClipStatus)
	}
	r.history[id] = append(r.history[id], status)
}

func (r *recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, h := range r.history {
		n += len(h)
	}
	return n
}

func makeTracks(n int) ([]*model.Track, map[string][]byte) {
	tracks := make([]*model.Track, n)
	bodies := make(map[string][]byte)
	for i := range tracks {
		id := fmt.Sprintf("clip-%d", i+1)
		tracks[i] = &model.Track{
			ID:       id,
			Number:   i + 1,
			Title:    fmt.Sprintf("Song %d", i+1),
			AudioURL: "https://cdn.example/" + id + ".mp3",
		}
		bodies[tracks[i].AudioURL] = []byte("audio-" + id)
	}
	return tracks, bodies
}

func testConfig(concurrency int) model.RunConfig {
	cfg := model.DefaultRunConfig()
	cfg.Concurrency = concurrency
	cfg.EmbedArtwork = false
	return cfg
}

func TestRunner_DownloadsAllTracks(t *testing.T) {
	tracks, bodies := makeTracks(3)
	fetcher := &fakeFetcher{bodies: bodies}
	dest := newMemDest()
	rec := &recorder{}

	runner := NewRunner(fetcher, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(context.Background(), tracks, testConfig(5), dest, rec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if report.Succeeded != 3 || report.Failed != 0 || report.Skipped != 0 {
		t.Errorf("report = %+v", report)
	}
	want := []string{"01 - Song 1.mp3", "02 - Song 2.mp3", "03 - Song 3.mp3"}
	if got := dest.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("written = %v, want %v", got, want)
	}
	if got := string(dest.files["02 - Song 2.mp3"]); got != "TAG:Song 2:2|audio-clip-2" {
		t.Errorf("content = %q", got)
	}

	for _, tr := range tracks {
		h := rec.history[tr.ID]
		if len(h) != 2 || h[0] != model.StatusProcessing || h[1] != model.StatusSucceeded {
			t.Errorf("history of %s = %v", tr.ID, h)
		}
	}
}

func TestRunner_FailedTrackDoesNotStopOthers(t *testing.T) {
	tracks, bodies := makeTracks(3)
	delete(bodies, tracks[1].AudioURL)

	dest := newMemDest()
	rec := &recorder{}
	runner := NewRunner(&fakeFetcher{bodies: bodies}, &fakeEmbedder{}, nil, nil, nil)

	report, err := runner.Run(context.Background(), tracks, testConfig(2), dest, rec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded != 2 || report.Failed != 1 {
		t.Fatalf("report = %+v", report)
	}

	out := report.Outcomes[1]
	var fe *dlhttp.FetchError
	if !errors.As(out.Err, &fe) || !fe.NotFound() {
		t.Errorf("Outcome.Err = %v, want 404 FetchError", out.Err)
	}
	if h := rec.history[tracks[1].ID]; h[len(h)-1] != model.StatusFailed {
		t.Errorf("history = %v", h)
	}
	if len(dest.Names()) != 2 {
		t.Errorf("written = %v", dest.Names())
	}
}

// processingGauge tracks how many tracks sit between Processing and a
// terminal status, and the order in which they started.
type processingGauge struct {
	mu      sync.Mutex
	current  int
	max      int
	finished int
	started  []string

	// finishedAt records how many tracks had finished when a track started.
	finishedAt map[string]int
}

func (g *processingGauge) OnStatusChange(id string, status model.ClipStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch {
	case status == model.StatusProcessing:
		if g.finishedAt == nil {
			g.finishedAt = make(map[string]int)
		}
		g.finishedAt[id] = g.finished
		g.current++
		g.started = append(g.started, id)
		if g.current > g.max {
			g.max = g.current
		}
	case status.IsTerminal() && status != model.StatusSkipped:
		g.current--
		g.finished++
	}
}

func TestRunner_ConcurrencyLimit(t *testing.T) {
	tests := []struct {
		name  string
		count int
		limit int
	}{
		{name: "five tracks limit two", count: 5, limit: 2},
		{name: "eight tracks limit three", count: 8, limit: 3},
		{name: "serial", count: 4, limit: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracks, bodies := makeTracks(tt.count)
			fetcher := &fakeFetcher{bodies: bodies, delay: 20 * time.Millisecond}
			gauge := &processingGauge{}

			runner := NewRunner(fetcher, &fakeEmbedder{}, nil, nil, nil)
			report, err := runner.Run(context.Background(), tracks, testConfig(tt.limit), newMemDest(), gauge)
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			if report.Succeeded != tt.count {
				t.Fatalf("Succeeded = %d, want %d", report.Succeeded, tt.count)
			}
			if gauge.max > tt.limit {
				t.Errorf("max processing = %d, want <= %d", gauge.max, tt.limit)
			}
			if gauge.current != 0 {
				t.Errorf("still processing after Run = %d", gauge.current)
			}
			if got := fetcher.maxSeen.Load(); int(got) > tt.limit {
				t.Errorf("max fetches in flight = %d, want <= %d", got, tt.limit)
			}
			if len(gauge.started) != tt.count {
				t.Fatalf("started %d tracks, want %d", len(gauge.started), tt.count)
			}

			// Dispatch follows input order: track i only gets a slot once
			// i+1-limit earlier tracks have released theirs.
			for i, tr := range tracks {
				if need := i + 1 - tt.limit; gauge.finishedAt[tr.ID] < need {
					t.Errorf("track %d started after %d finished, want >= %d", i, gauge.finishedAt[tr.ID], need)
				}
			}
			if tt.limit == 1 {
				for i, tr := range tracks {
					if gauge.started[i] != tr.ID {
						t.Errorf("start order = %v, want input order", gauge.started)
						break
					}
				}
			}
		})
	}
}

func TestRunner_SkipsExistingFiles(t *testing.T) {
	tracks, bodies := makeTracks(2)
	fetcher := &fakeFetcher{bodies: bodies}
	dest := newMemDest()
	dest.existing["01 - Song 1.mp3"] = true
	dest.existing["02 - Song 2.mp3"] = true
	rec := &recorder{}

	runner := NewRunner(fetcher, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(context.Background(), tracks, testConfig(2), dest, rec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Skipped != 2 {
		t.Errorf("Skipped = %d, want 2", report.Skipped)
	}
	if fetcher.Calls() != 0 {
		t.Errorf("fetcher called %d times, want 0", fetcher.Calls())
	}
	for _, tr := range tracks {
		if h := rec.history[tr.ID]; len(h) != 1 || h[0] != model.StatusSkipped {
			t.Errorf("history of %s = %v", tr.ID, h)
		}
	}
}

func TestRunner_OverwriteIgnoresExisting(t *testing.T) {
	tracks, bodies := makeTracks(1)
	dest := newMemDest()
	dest.existing["01 - Song 1.mp3"] = true

	cfg := testConfig(1)
	cfg.OverwriteExisting = true

	runner := NewRunner(&fakeFetcher{bodies: bodies}, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(context.Background(), tracks, cfg, dest, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestRunner_WriteError(t *testing.T) {
	tracks, bodies := makeTracks(1)
	dest := newMemDest()
	dest.failOn = "01 - Song 1.mp3"

	runner := NewRunner(&fakeFetcher{bodies: bodies}, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(context.Background(), tracks, testConfig(1), dest, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	var we *WriteError
	if !errors.As(report.Outcomes[0].Err, &we) || we.Name != "01 - Song 1.mp3" {
		t.Errorf("Outcome.Err = %v, want WriteError", report.Outcomes[0].Err)
	}
}

func TestRunner_ArchiveMode(t *testing.T) {
	tracks, bodies := makeTracks(3)
	delete(bodies, tracks[2].AudioURL)

	cfg := testConfig(3)
	cfg.ArchiveMode = true

	runner := NewRunner(&fakeFetcher{bodies: bodies}, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(context.Background(), tracks, cfg, nil, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Archive) == 0 {
		t.Fatal("no archive produced")
	}

	zr, err := zip.NewReader(bytes.NewReader(report.Archive), int64(len(report.Archive)))
	if err != nil {
		t.Fatalf("zip.NewReader: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{"01 - Song 1.mp3", "02 - Song 2.mp3"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("archive entries = %v, want %v", names, want)
	}

	rc, err := zr.File[0].Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if string(data) != "TAG:Song 1:1|audio-clip-1" {
		t.Errorf("entry content = %q", data)
	}
}

func TestRunner_ArtworkFailureDegrades(t *testing.T) {
	tracks, bodies := makeTracks(2)
	tracks[0].ImageURL = "https://cdn.example/cover-ok.png"
	tracks[1].ImageURL = "https://cdn.example/cover-missing.png"
	bodies[tracks[0].ImageURL] = []byte("png")

	cfg := testConfig(2)
	cfg.EmbedArtwork = true

	embedder := &fakeEmbedder{}
	cover := func(_ context.Context, data []byte) ([]byte, error) {
		return append([]byte("resized-"), data...), nil
	}

	runner := NewRunner(&fakeFetcher{bodies: bodies}, embedder, cover, nil, nil)
	report, err := runner.Run(context.Background(), tracks, cfg, newMemDest(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("report = %+v", report)
	}
	if got := string(embedder.covers["Song 1"]); got != "resized-png" {
		t.Errorf("cover of Song 1 = %q", got)
	}
	if embedder.covers["Song 2"] != nil {
		t.Errorf("cover of Song 2 = %q, want none", embedder.covers["Song 2"])
	}
}

func TestRunner_SetupErrors(t *testing.T) {
	tracks, _ := makeTracks(2)
	dup := []*model.Track{tracks[0], tracks[0]}
	noURL := []*model.Track{{ID: "x", Title: "x"}}

	badCfg := testConfig(0)

	tests := []struct {
		name   string
		tracks []*model.Track
		cfg    model.RunConfig
		dest   Destination
	}{
		{"duplicate ids", dup, testConfig(1), newMemDest()},
		{"missing audio url", noURL, testConfig(1), newMemDest()},
		{"nil track", []*model.Track{nil}, testConfig(1), newMemDest()},
		{"zero concurrency", tracks, badCfg, newMemDest()},
		{"no destination", tracks, testConfig(1), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			runner := NewRunner(&fakeFetcher{}, &fakeEmbedder{}, nil, nil, nil)
			_, err := runner.Run(context.Background(), tt.tracks, tt.cfg, tt.dest, rec)

			var se *RunSetupError
			if !errors.As(err, &se) {
				t.Fatalf("Run() error = %v, want RunSetupError", err)
			}
			if rec.Count() != 0 {
				t.Errorf("observer called %d times, want 0", rec.Count())
			}
		})
	}
}

func TestRunner_EmptyInput(t *testing.T) {
	runner := NewRunner(&fakeFetcher{}, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(context.Background(), nil, testConfig(1), newMemDest(), nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Total() != 0 {
		t.Errorf("Total = %d", report.Total())
	}
}

func TestRunner_CanceledContext(t *testing.T) {
	tracks, bodies := makeTracks(3)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	runner := NewRunner(&fakeFetcher{bodies: bodies}, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(ctx, tracks, testConfig(1), newMemDest(), rec)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Failed != 3 {
		t.Errorf("Failed = %d, want 3", report.Failed)
	}
	for _, o := range report.Outcomes {
		if !errors.Is(o.Err, context.Canceled) {
			t.Errorf("Err = %v, want context.Canceled", o.Err)
		}
	}
}

func TestRunner_NameCollisions(t *testing.T) {
	tracks := []*model.Track{
		{ID: "aaa", Number: 1, Title: "Same", AudioURL: "u1"},
		{ID: "bbb", Number: 1, Title: "Same", AudioURL: "u2"},
	}
	bodies := map[string][]byte{"u1": []byte("1"), "u2": []byte("2")}

	cfg := testConfig(2)
	cfg.FileNameTemplate = "{name}"

	dest := newMemDest()
	runner := NewRunner(&fakeFetcher{bodies: bodies}, &fakeEmbedder{}, nil, nil, nil)
	report, err := runner.Run(context.Background(), tracks, cfg, dest, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded != 2 {
		t.Fatalf("report = %+v", report)
	}

	want := []string{"Same (bbb).mp3", "Same.mp3"}
	if got := dest.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("written = %v, want %v", got, want)
	}
}

func TestFilterFailed(t *testing.T) {
	a, b, c := &model.Track{ID: "a"}, &model.Track{ID: "b"}, &model.Track{ID: "c"}
	report := &Report{Outcomes: []Outcome{
		{Track: a, Status: model.StatusFailed},
		{Track: b, Status: model.StatusSucceeded},
		{Track: c, Status: model.StatusFailed},
	}}

	got := FilterFailed(report)
	if len(got) != 2 || got[0] != a || got[1] != c {
		t.Errorf("FilterFailed() = %v", got)
	}
	if FilterFailed(nil) != nil {
		t.Error("FilterFailed(nil) should be nil")
	}
}
