// Package tui provides a Bubble Tea terminal user interface for suno-downloader.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/suno-downloader/internal/config"
	"github.com/handiism/suno-downloader/internal/download"
	"github.com/handiism/suno-downloader/internal/logging"
	"github.com/handiism/suno-downloader/internal/model"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)

	playlistStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F8B500"))
)

// maxVisibleTracks bounds the track list while downloading.
const maxVisibleTracks = 12

// State represents the current UI state.
type State int

const (
	StateInput State = iota
	StateInitializing
	StateDownloading
	StateComplete
	StateError
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   download.ProgressLevel
}

// Model is the Bubble Tea model for the TUI.
type Model struct {
	state     State
	textInput textinput.Model
	spinner   spinner.Model
	progress  progress.Model
	settings  *config.Settings
	logs      []LogEntry
	err       error

	// Download context
	ctx    context.Context
	cancel context.CancelFunc

	manager  *download.Manager
	playlist *model.Playlist
	tracks   []*model.Track
	statuses map[string]model.ClipStatus
	result   *download.DownloadResult

	// events carries progress and status updates from download goroutines.
	events chan tea.Msg

	// Download progress
	totalFiles      int32
	downloadedFiles int32

	// Options
	createPlaylist bool
	archive        bool
	overwrite      bool
	verbose        bool

	width  int
	height int
}

// NewModel creates a new TUI model using settings.
func NewModel(settings *config.Settings) Model {
	if settings == nil {
		settings = config.DefaultSettings()
	}

	ti := textinput.New()
	ti.Placeholder = "https://suno.com/playlist/..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 60

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(context.Background())

	return Model{
		state:          StateInput,
		textInput:      ti,
		spinner:        sp,
		progress:       prog,
		settings:       settings,
		logs:           make([]LogEntry, 0),
		statuses:       make(map[string]model.ClipStatus),
		events:         make(chan tea.Msg, 256),
		ctx:            ctx,
		cancel:         cancel,
		createPlaylist: settings.CreatePlaylist,
		overwrite:      settings.OverwriteFiles,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForEvent())
}

// Message types
type (
	// ProgressMsg is sent when download progress updates.
	ProgressMsg struct {
		Event download.ProgressEvent
	}

	// StatusMsg is sent when a track changes status.
	StatusMsg struct {
		TrackID string
		Status  model.ClipStatus
	}

	// InitDoneMsg is sent when the link has been resolved.
	InitDoneMsg struct {
		Playlist *model.Playlist
		Manager  *download.Manager
		Err      error
	}

	// DownloadDoneMsg is sent when a run finishes.
	DownloadDoneMsg struct {
		Result *download.DownloadResult
		Err    error
	}

	// TickMsg is for periodic progress updates.
	TickMsg struct{}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progress.Width = msg.Width - 20
		if m.progress.Width > 80 {
			m.progress.Width = 80
		}
		if m.progress.Width < 20 {
			m.progress.Width = 20
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.cancel()
			return m, tea.Quit

		case "esc":
			if m.state == StateInput {
				return m, tea.Quit
			}
			if m.state == StateDownloading || m.state == StateInitializing {
				m.cancel()
				m.state = StateError
				m.err = fmt.Errorf("cancelled by user")
			}

		case "enter":
			if m.state == StateInput && strings.TrimSpace(m.textInput.Value()) != "" {
				m.state = StateInitializing
				return m, tea.Batch(m.initializeDownload(), m.spinner.Tick)
			}

		case "alt+p":
			if m.state == StateInput {
				m.createPlaylist = !m.createPlaylist
				return m, nil
			}

		case "alt+z":
			if m.state == StateInput {
				m.archive = !m.archive
				return m, nil
			}

		case "alt+o":
			if m.state == StateInput {
				m.overwrite = !m.overwrite
				return m, nil
			}

		case "alt+v":
			if m.state == StateInput {
				m.verbose = !m.verbose
				return m, nil
			}

		case "q":
			if m.state == StateComplete || m.state == StateError {
				return m, tea.Quit
			}

		case "f":
			if m.state == StateComplete && m.result != nil && !m.archive {
				failed := download.FilterFailed(m.result.Report)
				if len(failed) > 0 {
					m.tracks = failed
					for _, t := range failed {
						m.statuses[t.ID] = model.StatusPending
					}
					m.logs = nil
					m.result = nil
					m.downloadedFiles, m.totalFiles = 0, int32(len(failed))
					m.state = StateDownloading
					return m, tea.Batch(m.startDownload(), m.tickProgress(), m.spinner.Tick)
				}
			}

		case "r":
			if m.state == StateComplete || m.state == StateError {
				// Reset for new download
				m.state = StateInput
				m.logs = nil
				m.err = nil
				m.downloadedFiles = 0
				m.totalFiles = 0
				m.manager = nil
				m.playlist = nil
				m.tracks = nil
				m.result = nil
				m.statuses = make(map[string]model.ClipStatus)
				m.ctx, m.cancel = context.WithCancel(context.Background())
				m.textInput.SetValue("")
				m.textInput.Focus()
				return m, nil
			}
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case ProgressMsg:
		cmds = append(cmds, m.waitForEvent())
		// Filter verbose messages if not in verbose mode
		if msg.Event.Level == download.LevelVerbose && !m.verbose {
			break
		}
		m.logs = append(m.logs, LogEntry{
			Message: msg.Event.Message,
			Level:   msg.Event.Level,
		})
		// Keep only last 8 logs
		if len(m.logs) > 8 {
			m.logs = m.logs[len(m.logs)-8:]
		}

	case StatusMsg:
		m.statuses[msg.TrackID] = msg.Status
		cmds = append(cmds, m.waitForEvent())

	case InitDoneMsg:
		if msg.Err != nil {
			m.state = StateError
			m.err = msg.Err
		} else {
			m.playlist = msg.Playlist
			m.tracks = msg.Playlist.Tracks
			m.manager = msg.Manager
			m.totalFiles = int32(len(m.tracks))
			m.state = StateDownloading
			for _, t := range m.tracks {
				m.statuses[t.ID] = model.StatusPending
			}
			// Start the actual download and tick for progress updates
			cmds = append(cmds, m.startDownload(), m.tickProgress())
		}

	case DownloadDoneMsg:
		if m.state != StateDownloading {
			break
		}
		if msg.Result != nil {
			m.result = msg.Result
			for _, o := range msg.Result.Report.Outcomes {
				m.statuses[o.Track.ID] = o.Status
			}
		}
		if msg.Err != nil && m.ctx.Err() == nil {
			m.state = StateError
			m.err = msg.Err
		} else if m.ctx.Err() != nil {
			m.state = StateError
			m.err = fmt.Errorf("cancelled by user")
		} else {
			m.state = StateComplete
		}

	case TickMsg:
		// Update progress from manager
		if m.manager != nil && m.state == StateDownloading {
			files, totalFiles := m.manager.GetProgress()
			m.downloadedFiles = files
			m.totalFiles = totalFiles

			// Calculate percentage and animate progress bar
			var percent float64
			if totalFiles > 0 {
				percent = float64(files) / float64(totalFiles)
			}
			progressCmd := m.progress.SetPercent(percent)
			cmds = append(cmds, progressCmd, m.tickProgress())
		}

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	// Update text input
	if m.state == StateInput {
		var cmd tea.Cmd
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// tickProgress returns a command to tick progress updates.
func (m Model) tickProgress() tea.Cmd {
	return tea.Tick(200*time.Millisecond, func(_ time.Time) tea.Msg {
		return TickMsg{}
	})
}

// waitForEvent returns a command delivering the next message sent by a
// download goroutine.
func (m Model) waitForEvent() tea.Cmd {
	events := m.events
	return func() tea.Msg {
		return <-events
	}
}

// send queues msg for the UI without blocking the download.
func (m Model) send(msg tea.Msg) {
	select {
	case m.events <- msg:
	default:
		// UI is behind, drop the update.
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("🎵 Suno Downloader"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Download playlists and songs from Suno"))
	b.WriteString("\n\n")

	switch m.state {
	case StateInput:
		b.WriteString(m.viewInput())
	case StateInitializing:
		b.WriteString(m.viewInitializing())
	case StateDownloading:
		b.WriteString(m.viewDownloading())
	case StateComplete:
		b.WriteString(m.viewComplete())
	case StateError:
		b.WriteString(m.viewError())
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(m.getHelpText()))

	return b.String()
}

func checkbox(on bool) string {
	if on {
		return "[×]"
	}
	return "[ ]"
}

func (m Model) viewInput() string {
	var b strings.Builder

	b.WriteString(subtitleStyle.Render("Enter Suno playlist or song URL:"))
	b.WriteString("\n\n")
	b.WriteString(m.textInput.View())
	b.WriteString("\n\n")

	b.WriteString(infoStyle.Render("Options:"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s Create playlist file (alt+p)\n", checkbox(m.createPlaylist)))
	b.WriteString(fmt.Sprintf("  %s Zip archive (alt+z)\n", checkbox(m.archive)))
	b.WriteString(fmt.Sprintf("  %s Overwrite existing files (alt+o)\n", checkbox(m.overwrite)))
	b.WriteString(fmt.Sprintf("  %s Verbose/debug output (alt+v)\n", checkbox(m.verbose)))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Download path: %s", m.settings.DownloadsPath)))
	b.WriteString("\n")

	return b.String()
}

func (m Model) viewInitializing() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render("Fetching playlist info..."))
	b.WriteString("\n\n")

	// Show logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewDownloading() string {
	var b strings.Builder

	if m.playlist != nil {
		b.WriteString(playlistStyle.Render(fmt.Sprintf("♪ %s", m.playlist.DisplayName())))
		b.WriteString("\n\n")
	}

	// Progress bar
	var percent float64
	if m.totalFiles > 0 {
		percent = float64(m.downloadedFiles) / float64(m.totalFiles)
	}
	b.WriteString(m.progress.ViewAs(percent))
	b.WriteString("\n")

	b.WriteString(infoStyle.Render(fmt.Sprintf("Tracks: %d/%d", m.downloadedFiles, m.totalFiles)))
	b.WriteString("\n\n")

	b.WriteString(m.renderTracks())
	b.WriteString("\n")

	// Logs
	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewComplete() string {
	var b strings.Builder

	report := m.result.Report
	summary := fmt.Sprintf(
		"✨ Download Complete!\n\n"+
			"Playlist: %s\n"+
			"Downloaded: %d\n"+
			"Skipped: %d\n"+
			"Failed: %d",
		m.playlist.DisplayName(),
		report.Succeeded,
		report.Skipped,
		report.Failed,
	)
	switch {
	case m.result.ArchivePath != "":
		summary += "\n\nArchive: " + m.result.ArchivePath
	case m.result.Dir != "":
		summary += "\n\nSaved to: " + m.result.Dir
	}
	b.WriteString(boxStyle.Render(summary))
	b.WriteString("\n")

	for _, o := range report.Failures() {
		b.WriteString(errorStyle.Render(fmt.Sprintf("✗ %s: %v", o.FileName, o.Err)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) viewError() string {
	var b strings.Builder

	b.WriteString(errorStyle.Render("❌ Error occurred:"))
	b.WriteString("\n\n")
	if m.err != nil {
		b.WriteString(fmt.Sprintf("  %s", m.err.Error()))
	}

	return b.String()
}

// renderTracks lists the tracks of the current run, scrolled so the first
// unfinished track is visible.
func (m Model) renderTracks() string {
	var b strings.Builder

	start := 0
	for i, t := range m.tracks {
		if !m.statuses[t.ID].IsTerminal() {
			start = i
			break
		}
	}
	start = max(0, min(start-2, len(m.tracks)-maxVisibleTracks))
	end := min(len(m.tracks), start+maxVisibleTracks)

	for _, t := range m.tracks[start:end] {
		status := m.statuses[t.ID]
		line := fmt.Sprintf("%02d %s", t.Number, t.Title)
		switch status {
		case model.StatusProcessing:
			b.WriteString(m.spinner.View() + " " + line)
		case model.StatusSucceeded:
			b.WriteString(successStyle.Render("✓ " + line))
		case model.StatusSkipped:
			b.WriteString(dimStyle.Render("↷ " + line + " (exists)"))
		case model.StatusFailed:
			b.WriteString(errorStyle.Render("✗ " + line))
		default:
			b.WriteString(dimStyle.Render("· " + line))
		}
		b.WriteString("\n")
	}
	if rest := len(m.tracks) - end; rest > 0 {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  … %d more", rest)))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case download.LevelError:
			style = errorStyle
			prefix = "✗"
		case download.LevelWarning:
			style = warningStyle
			prefix = "!"
		case download.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case download.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

func (m Model) getHelpText() string {
	switch m.state {
	case StateInput:
		return "enter: start • alt+p: playlist • alt+z: zip • alt+o: overwrite • alt+v: verbose • esc: quit"
	case StateInitializing, StateDownloading:
		return "esc: cancel"
	case StateComplete:
		if m.result != nil && m.result.Report.Failed > 0 && !m.archive {
			return "f: retry failed • r: new download • q: quit"
		}
		return "r: new download • q: quit"
	case StateError:
		return "r: new download • q: quit"
	}
	return ""
}

// initializeDownload resolves the link and creates the manager.
func (m *Model) initializeDownload() tea.Cmd {
	link := strings.TrimSpace(m.textInput.Value())

	// Apply options
	settings := *m.settings
	settings.CreatePlaylist = m.createPlaylist
	settings.OverwriteFiles = m.overwrite

	ctx := m.ctx
	send := m.send

	return func() tea.Msg {
		// The screen belongs to the UI; problems surface as progress events.
		manager := download.NewManager(&settings, logging.Discard(), func(event download.ProgressEvent) {
			send(ProgressMsg{Event: event})
		})

		playlist, err := manager.Resolve(ctx, link)
		if err != nil {
			return InitDoneMsg{Err: err}
		}
		return InitDoneMsg{Playlist: playlist, Manager: manager}
	}
}

// startDownload runs the current track list in the background.
func (m *Model) startDownload() tea.Cmd {
	manager, playlist, tracks := m.manager, m.playlist, m.tracks
	archive := m.archive
	ctx := m.ctx
	send := m.send

	return func() tea.Msg {
		if manager == nil {
			return DownloadDoneMsg{Err: fmt.Errorf("no manager")}
		}

		obs := download.ObserverFunc(func(trackID string, status model.ClipStatus) {
			send(StatusMsg{TrackID: trackID, Status: status})
		})
		result, err := manager.DownloadPlaylist(ctx, playlist, tracks, archive, obs)
		return DownloadDoneMsg{Result: result, Err: err}
	}
}

// Run starts the TUI application with settings.
func Run(settings *config.Settings) error {
	p := tea.NewProgram(NewModel(settings), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
