package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/handiism/suno-downloader/internal/model"
)

// PlaylistPlaceholder in DownloadsPath is replaced by the playlist name.
const PlaylistPlaceholder = "{playlist}"

// Settings holds all configuration options.
type Settings struct {
	// Download settings
	DownloadsPath               string `json:"downloads_path" toml:"downloads_path"`
	MaxConcurrentTracksDownload int    `json:"max_concurrent_tracks" toml:"max_concurrent_tracks"`
	OverwriteFiles              bool   `json:"overwrite_files" toml:"overwrite_files"`

	// File naming
	FileNameFormat string `json:"file_name_format" toml:"file_name_format"`

	// Cover art settings
	SaveCoverArtInTags    bool `json:"save_cover_art_in_tags" toml:"save_cover_art_in_tags"`
	UseLargeImages        bool `json:"use_large_images" toml:"use_large_images"`
	CoverArtInTagsResize  bool `json:"cover_art_in_tags_resize" toml:"cover_art_in_tags_resize"`
	CoverArtInTagsMaxSize int  `json:"cover_art_in_tags_max_size" toml:"cover_art_in_tags_max_size"`
	ConvertCoverArtToJPG  bool `json:"convert_cover_art_to_jpg" toml:"convert_cover_art_to_jpg"`

	// Tag settings
	WriteAlbumTag bool `json:"write_album_tag" toml:"write_album_tag"`

	// Playlist settings
	CreatePlaylist bool   `json:"create_playlist" toml:"create_playlist"`
	PlaylistFormat string `json:"playlist_format" toml:"playlist_format"` // m3u, pls, wpl, zpl
	M3UExtended    bool   `json:"m3u_extended" toml:"m3u_extended"`

	// Upstream API settings
	APIBaseURL         string  `json:"api_base_url" toml:"api_base_url"`
	RequestsPerSecond  float64 `json:"requests_per_second" toml:"requests_per_second"`
	HTTPTimeoutSeconds int     `json:"http_timeout_seconds" toml:"http_timeout_seconds"`
	UserAgent          string  `json:"user_agent" toml:"user_agent"`

	// Server settings
	ListenAddress string `json:"listen_address" toml:"listen_address"`

	// Logging
	LogLevel string `json:"log_level" toml:"log_level"`
}

// DefaultSettings returns settings with default values.
func DefaultSettings() *Settings {
	homeDir, _ := os.UserHomeDir()
	return &Settings{
		DownloadsPath:               filepath.Join(homeDir, "Music", "Suno", PlaylistPlaceholder),
		MaxConcurrentTracksDownload: 5,
		OverwriteFiles:              false,

		FileNameFormat: model.DefaultFileNameTemplate,

		SaveCoverArtInTags:    true,
		UseLargeImages:        false,
		CoverArtInTagsResize:  true,
		CoverArtInTagsMaxSize: 1000,
		ConvertCoverArtToJPG:  false,

		WriteAlbumTag: true,

		CreatePlaylist: false,
		PlaylistFormat: "m3u",
		M3UExtended:    true,

		APIBaseURL:         "https://studio-api.prod.suno.com/api",
		RequestsPerSecond:  5,
		HTTPTimeoutSeconds: 120,
		UserAgent:          "suno-downloader",

		ListenAddress: ":3000",

		LogLevel: "info",
	}
}

// Load reads settings from a JSON or TOML file, chosen by extension.
//
// Missing files yield the defaults. Keys absent from the file keep their
// default values.
func Load(path string) (*Settings, error) {
	settings := DefaultSettings()
	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if isTOML(path) {
		if err := toml.Unmarshal(data, settings); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	} else if err := json.Unmarshal(data, settings); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// Save writes settings to a JSON or TOML file, chosen by extension.
func (s *Settings) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	var (
		data []byte
		err  error
	)
	if isTOML(path) {
		data, err = toml.Marshal(s)
	} else {
		data, err = json.MarshalIndent(s, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports settings that cannot be used.
func (s *Settings) Validate() error {
	if s.MaxConcurrentTracksDownload < 1 {
		return fmt.Errorf("%w: max_concurrent_tracks must be at least 1", model.ErrInvalidConfig)
	}
	if strings.TrimSpace(s.FileNameFormat) == "" {
		return fmt.Errorf("%w: file_name_format is empty", model.ErrInvalidConfig)
	}
	if _, err := model.ParsePlaylistFormat(s.PlaylistFormat); err != nil {
		return fmt.Errorf("%w: %v", model.ErrInvalidConfig, err)
	}
	return nil
}

// ToRunConfig converts settings to a RunConfig.
func (s *Settings) ToRunConfig(archive bool) model.RunConfig {
	return model.RunConfig{
		FileNameTemplate:  s.FileNameFormat,
		OverwriteExisting: s.OverwriteFiles,
		EmbedArtwork:      s.SaveCoverArtInTags,
		UseLargeImages:    s.UseLargeImages,
		Concurrency:       s.MaxConcurrentTracksDownload,
		ArchiveMode:       archive,
	}
}

// PlaylistFormatValue returns the parsed playlist format, M3U when invalid.
func (s *Settings) PlaylistFormatValue() model.PlaylistFormat {
	pf, _ := model.ParsePlaylistFormat(s.PlaylistFormat)
	return pf
}

// HTTPTimeout returns the per-request timeout.
func (s *Settings) HTTPTimeout() time.Duration {
	return time.Duration(s.HTTPTimeoutSeconds) * time.Second
}

// PlaylistDir returns DownloadsPath with the playlist name filled in.
func (s *Settings) PlaylistDir(playlistName string) string {
	name := model.SanitizeFileName(playlistName)
	if name == "" {
		name = "playlist"
	}
	return strings.ReplaceAll(s.DownloadsPath, PlaylistPlaceholder, name)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}
