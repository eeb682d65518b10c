package download

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/handiism/suno-downloader/internal/audio"
	"github.com/handiism/suno-downloader/internal/config"
	"github.com/handiism/suno-downloader/internal/http"
	ioutils "github.com/handiism/suno-downloader/internal/io"
	"github.com/handiism/suno-downloader/internal/model"
	"github.com/handiism/suno-downloader/internal/suno"
)

// ProgressLevel indicates the severity/type of a progress message.
type ProgressLevel int

const (
	LevelInfo ProgressLevel = iota
	LevelVerbose
	LevelWarning
	LevelError
	LevelSuccess
)

// ProgressEvent represents a human-readable download progress update.
type ProgressEvent struct {
	Message string
	Level   ProgressLevel
}

// Manager wires the downloader together from Settings: the HTTP client, the
// Suno resolver, the tagger and the batch Runner.
type Manager struct {
	settings     *config.Settings
	httpClient   *http.Client
	suno         *suno.Client
	tagger       *audio.Tagger
	playlist     *audio.PlaylistCreator
	imageService *ioutils.ImageService
	runner       *Runner
	logger       *log.Logger

	// latest holds the counters of the most recently started run.
	latest atomic.Pointer[runCounters]

	onProgress func(ProgressEvent)
}

// NewManager creates a new download Manager.
func NewManager(settings *config.Settings, logger *log.Logger, onProgress func(ProgressEvent)) *Manager {
	httpClient := http.NewClient(settings.UserAgent, settings.HTTPTimeout())

	tagCfg := audio.DefaultTagConfig()
	if settings.WriteAlbumTag {
		tagCfg.Album = audio.TagModify
	}

	m := &Manager{
		settings:   settings,
		httpClient: httpClient,
		suno: suno.NewClient(httpClient,
			suno.WithBaseURL(settings.APIBaseURL),
			suno.WithRateLimit(settings.RequestsPerSecond, 2),
		),
		tagger:       audio.NewTagger(tagCfg),
		playlist:     audio.NewPlaylistCreator(settings.PlaylistFormatValue(), settings.M3UExtended),
		imageService: ioutils.NewImageService(),
		logger:       logger,
		onProgress:   onProgress,
	}
	m.runner = NewRunner(httpClient, m.tagger, m.prepareCover, logger, onProgress)
	return m
}

// Settings returns the settings the manager was built from.
func (m *Manager) Settings() *config.Settings {
	return m.settings
}

// Resolve turns a playlist or song link into a playlist. A song link yields
// a playlist holding that single track, numbered 1.
func (m *Manager) Resolve(ctx context.Context, link string) (*model.Playlist, error) {
	if id, err := suno.ParsePlaylistID(link); err == nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Fetching playlist %s", id), Level: LevelVerbose})
		playlist, err := m.suno.GetPlaylist(ctx, id)
		if err != nil {
			return nil, err
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Found playlist: %s (%d tracks)", playlist.DisplayName(), len(playlist.Tracks)), Level: LevelInfo})
		return playlist, nil
	}

	id, err := suno.ParseSongID(link)
	if err != nil {
		return nil, errors.Join(suno.ErrInvalidPlaylistID, err)
	}
	track, err := m.suno.GetClip(ctx, id)
	if err != nil {
		return nil, err
	}
	track.Number = 1
	m.progress(ProgressEvent{Message: fmt.Sprintf("Found song: %s", track.Title), Level: LevelInfo})
	return &model.Playlist{ID: id, Name: track.Title, ImageURL: track.ImageURL, Tracks: []*model.Track{track}}, nil
}

// Suno returns the client used to resolve links.
func (m *Manager) Suno() *suno.Client {
	return m.suno
}

// Run downloads tracks through the manager's Runner. A non-empty album is
// written into the TALB frame when Settings.WriteAlbumTag is set.
// GetProgress follows the most recent run.
func (m *Manager) Run(ctx context.Context, album string, tracks []*model.Track, cfg model.RunConfig, dest Destination, obs Observer) (*Report, error) {
	runner := m.runner
	if album != "" {
		runner = runner.WithEmbedder(m.tagger.WithAlbum(album))
	}
	return m.run(ctx, runner, tracks, cfg, dest, obs)
}

// DownloadResult describes what DownloadPlaylist wrote.
type DownloadResult struct {
	Report *Report

	// Dir is the directory tracks were written to.
	Dir string

	// ArchivePath is set in archive mode.
	ArchivePath string

	// PlaylistPath is set when a playlist file was created.
	PlaylistPath string
}

// DownloadPlaylist downloads tracks of playlist into the directory derived
// from Settings.DownloadsPath. In archive mode a single zip is written next
// to that directory instead.
func (m *Manager) DownloadPlaylist(ctx context.Context, playlist *model.Playlist, tracks []*model.Track, archive bool, obs Observer) (*DownloadResult, error) {
	cfg := m.settings.ToRunConfig(archive)
	dir := m.settings.PlaylistDir(playlist.DisplayName())
	store := ioutils.NewDirStore(dir)

	report, err := m.Run(ctx, playlist.DisplayName(), tracks, cfg, store, obs)
	if err != nil {
		return nil, err
	}
	result := &DownloadResult{Report: report, Dir: dir}

	if archive {
		result.ArchivePath = dir + ".zip"
		if err := ioutils.EnsureDir(filepath.Dir(result.ArchivePath)); err != nil {
			return result, err
		}
		if err := ioutils.WriteFile(ctx, result.ArchivePath, report.Archive); err != nil {
			return result, fmt.Errorf("write archive: %w", err)
		}
		m.progress(ProgressEvent{Message: fmt.Sprintf("Created archive %s", filepath.Base(result.ArchivePath)), Level: LevelSuccess})
	} else if m.settings.CreatePlaylist {
		result.PlaylistPath = m.writePlaylist(ctx, playlist, report, store)
	}

	if report.Failed == 0 {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Successfully downloaded playlist: %s", playlist.DisplayName()), Level: LevelSuccess})
	} else {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Finished %s, %d tracks failed", playlist.DisplayName(), report.Failed), Level: LevelWarning})
	}
	return result, nil
}

// Single fetches and tags one track and returns its file name and data. It
// is the single-file counterpart of Run and shares its pipeline.
func (m *Manager) Single(ctx context.Context, track *model.Track, cfg model.RunConfig) (string, []byte, error) {
	if track == nil || track.AudioURL == "" {
		return "", nil, &RunSetupError{Reason: "track has no audio URL"}
	}
	if err := cfg.Validate(); err != nil {
		return "", nil, &RunSetupError{Reason: "configuration", Err: err}
	}

	name := model.ResolveFileName(cfg.FileNameTemplate, track.Number, track.Title, track.ID) + model.FileExtension
	data, err := m.runner.process(ctx, track, cfg)
	if err != nil {
		return name, nil, err
	}
	return name, data, nil
}

type runCounters struct {
	total int32
	done  atomic.Int32
}

// GetProgress returns the number of finished and total tracks of the
// most recently started run. Runs that overlap keep separate counters, so
// an older run finishing late does not move the numbers.
func (m *Manager) GetProgress() (filesDone, filesTotal int32) {
	c := m.latest.Load()
	if c == nil {
		return 0, 0
	}
	return c.done.Load(), c.total
}

func (m *Manager) run(ctx context.Context, runner *Runner, tracks []*model.Track, cfg model.RunConfig, dest Destination, obs Observer) (*Report, error) {
	counters := &runCounters{total: int32(len(tracks))}
	m.latest.Store(counters)

	counter := ObserverFunc(func(_ string, status model.ClipStatus) {
		if status.IsTerminal() {
			counters.done.Add(1)
		}
	})

	return runner.Run(ctx, tracks, cfg, dest, MultiObserver{counter, obs})
}

func (m *Manager) writePlaylist(ctx context.Context, playlist *model.Playlist, report *Report, store *ioutils.DirStore) string {
	var (
		tracks []*model.Track
		names  []string
	)
	for _, o := range report.Outcomes {
		if o.Status == model.StatusSucceeded || o.Status == model.StatusSkipped {
			tracks = append(tracks, o.Track)
			names = append(names, o.FileName)
		}
	}
	if len(tracks) == 0 {
		return ""
	}

	name := model.SanitizeFileName(playlist.DisplayName()) + m.playlist.Extension()
	content := m.playlist.CreatePlaylist(playlist.DisplayName(), audio.EntriesFor(tracks, names))
	if err := store.Write(ctx, name, []byte(content)); err != nil {
		m.progress(ProgressEvent{Message: fmt.Sprintf("Error creating playlist: %v", err), Level: LevelWarning})
		return ""
	}

	m.progress(ProgressEvent{Message: fmt.Sprintf("Created playlist for %s", playlist.DisplayName()), Level: LevelSuccess})
	path, _ := store.Path(name)
	return path
}

func (m *Manager) prepareCover(ctx context.Context, data []byte) ([]byte, error) {
	return m.imageService.PrepareCover(ctx, data, ioutils.CoverOptions{
		Resize:        m.settings.CoverArtInTagsResize,
		MaxSize:       m.settings.CoverArtInTagsMaxSize,
		ConvertToJPEG: m.settings.ConvertCoverArtToJPG,
	})
}

func (m *Manager) progress(event ProgressEvent) {
	if m.onProgress != nil {
		m.onProgress(event)
	}
}
