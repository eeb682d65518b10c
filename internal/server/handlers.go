package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/handiism/suno-downloader/internal/download"
	dlhttp "github.com/handiism/suno-downloader/internal/http"
	"github.com/handiism/suno-downloader/internal/model"
	"github.com/handiism/suno-downloader/internal/progress"
	"github.com/handiism/suno-downloader/internal/suno"
)

const maxPlaylistBody = 8 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// upstreamStatus maps a fetch failure to the status returned to the client.
// Upstream HTTP errors are passed through.
func upstreamStatus(err error) int {
	var fe *dlhttp.FetchError
	switch {
	case errors.As(err, &fe) && fe.StatusCode != 0:
		return fe.StatusCode
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

func writeAttachment(w http.ResponseWriter, contentType, fileName string, data []byte) {
	h := w.Header()
	h.Set("Content-Type", contentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": fileName}))
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"subscribers": s.hub.Len(),
	})
}

func playlistID(r *http.Request) (string, bool) {
	id := r.PathValue("id")
	return id, id != "" && id != "liked"
}

func (s *Server) handlePlaylistPage(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid playlist ID. Only specific playlist IDs are supported.")
		return
	}
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	resp, err := s.manager.Suno().GetPlaylistPage(r.Context(), id, page)
	if err != nil {
		s.logger.Warn("playlist page fetch failed", "playlist", id, "page", page, "err", err)
		status := upstreamStatus(err)
		writeError(w, status, "Failed to fetch playlist data: "+http.StatusText(status))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// clipView is a playlist track as listed to the web client.
type clipView struct {
	*model.Track
	Status model.ClipStatus `json:"status"`
}

type playlistInfo struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

type playlistAllResponse struct {
	Playlist playlistInfo `json:"playlist"`
	Clips    []clipView   `json:"clips"`
}

func (s *Server) handlePlaylistAll(w http.ResponseWriter, r *http.Request) {
	id, ok := playlistID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid playlist ID. Only specific playlist IDs are supported.")
		return
	}

	playlist, err := s.manager.Suno().GetPlaylist(r.Context(), id)
	if err != nil {
		s.logger.Warn("playlist fetch failed", "playlist", id, "err", err)
		status := upstreamStatus(err)
		writeError(w, status, "Failed to fetch playlist data: "+http.StatusText(status))
		return
	}

	resp := playlistAllResponse{
		Playlist: playlistInfo{Name: playlist.Name, Image: playlist.ImageURL},
		Clips:    make([]clipView, len(playlist.Tracks)),
	}
	for i, t := range playlist.Tracks {
		resp.Clips[i] = clipView{Track: t, Status: model.StatusPending}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSong(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	audioURL, title := q.Get("audioUrl"), q.Get("title")
	if audioURL == "" || title == "" {
		writeError(w, http.StatusBadRequest, "Missing required parameters")
		return
	}

	number, _ := strconv.Atoi(q.Get("trackNumber"))
	track := &model.Track{
		ID:       "song",
		Number:   max(number, 0),
		Title:    title,
		AudioURL: audioURL,
		ImageURL: q.Get("imageUrl"),
	}

	template := "{name}"
	if track.Number > 0 {
		template = model.DefaultFileNameTemplate
	}
	cfg := model.RunConfig{
		FileNameTemplate: template,
		EmbedArtwork:     q.Get("embedImage") == "true",
		Concurrency:      1,
	}

	s.sendTrack(w, r, track, cfg, "Failed to download song")
}

func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	id, err := suno.ParseSongID(r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Track ID is required")
		return
	}

	track, err := s.manager.Suno().GetClip(r.Context(), id)
	if err != nil {
		s.logger.Warn("clip fetch failed", "clip", id, "err", err)
		status := upstreamStatus(err)
		writeError(w, status, "Failed to fetch track data: "+http.StatusText(status))
		return
	}

	cfg := model.RunConfig{
		FileNameTemplate: "{name}",
		EmbedArtwork:     true,
		UseLargeImages:   s.manager.Settings().UseLargeImages,
		Concurrency:      1,
	}
	s.sendTrack(w, r, track, cfg, "Failed to download track")
}

func (s *Server) sendTrack(w http.ResponseWriter, r *http.Request, track *model.Track, cfg model.RunConfig, failure string) {
	name, data, err := s.manager.Single(r.Context(), track, cfg)
	if err != nil {
		s.logger.Error("single download failed", "title", track.Title, "err", err)
		var fe *dlhttp.FetchError
		if errors.As(err, &fe) {
			writeError(w, http.StatusBadGateway, failure)
			return
		}
		writeError(w, http.StatusInternalServerError, failure)
		return
	}
	writeAttachment(w, "audio/mpeg", name, data)
}

// flexBool decodes either a JSON boolean or the strings "true"/"false".
type flexBool struct {
	set   bool
	value bool
}

func (b *flexBool) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch t := v.(type) {
	case bool:
		b.set, b.value = true, t
	case string:
		b.set, b.value = true, strings.EqualFold(t, "true")
	default:
		return fmt.Errorf("expected boolean, got %s", data)
	}
	return nil
}

type playlistDownloadRequest struct {
	Playlist   *playlistInfo  `json:"playlist"`
	Clips      []*model.Track `json:"clips"`
	EmbedImage flexBool       `json:"embedImage"`
	SessionID  string         `json:"sessionId"`
}

func (req *playlistDownloadRequest) session(r *http.Request) string {
	if req.SessionID != "" {
		return req.SessionID
	}
	if id := r.Header.Get("X-Session-ID"); id != "" {
		return id
	}
	return r.URL.Query().Get("session")
}

func (s *Server) handlePlaylistDownload(w http.ResponseWriter, r *http.Request) {
	var req playlistDownloadRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPlaylistBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid playlist data")
		return
	}
	if req.Playlist == nil || len(req.Clips) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid playlist data")
		return
	}

	settings := s.manager.Settings()
	cfg := s.visitors.Get(visitorID(w, r)).RunConfig(settings.MaxConcurrentTracksDownload)
	cfg.ArchiveMode = true
	cfg.UseLargeImages = settings.UseLargeImages
	if req.EmbedImage.set {
		cfg.EmbedArtwork = req.EmbedImage.value
	}

	var obs download.Observer
	if session := req.session(r); session != "" {
		tracker := progress.NewTracker(s.hub, session, len(req.Clips))
		defer tracker.Finish()
		obs = tracker
	}

	name := model.SanitizeFileName(req.Playlist.Name)
	if name == "" {
		name = "playlist"
	}

	report, err := s.manager.Run(r.Context(), req.Playlist.Name, req.Clips, cfg, nil, obs)
	if err != nil {
		var se *download.RunSetupError
		if errors.As(err, &se) {
			writeError(w, http.StatusBadRequest, "Invalid playlist data: "+se.Reason)
			return
		}
		s.logger.Error("playlist download failed", "playlist", name, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to download playlist")
		return
	}

	s.logger.Info("playlist assembled",
		"playlist", name,
		"succeeded", report.Succeeded,
		"skipped", report.Skipped,
		"failed", report.Failed,
	)

	h := w.Header()
	h.Set("X-Download-Succeeded", strconv.Itoa(report.Succeeded))
	h.Set("X-Download-Skipped", strconv.Itoa(report.Skipped))
	h.Set("X-Download-Failed", strconv.Itoa(report.Failed))
	writeAttachment(w, "application/zip", name+".zip", report.Archive)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	session := r.PathValue("sessionId")
	if session == "" {
		writeError(w, http.StatusBadRequest, "Session ID is required")
		return
	}
	progress.ServeSSE(w, r, s.hub, session)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	writeJSON(w, http.StatusOK, s.visitors.Get(id))
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var update settingsUpdate
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid settings")
		return
	}

	id := visitorID(w, r)
	settings := update.apply(s.visitors.Get(id))
	s.visitors.Put(id, settings)
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleResetSettings(w http.ResponseWriter, r *http.Request) {
	id := visitorID(w, r)
	settings := DefaultVisitorSettings()
	s.visitors.Put(id, settings)
	writeJSON(w, http.StatusOK, settings)
}
