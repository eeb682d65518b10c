package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/handiism/suno-downloader/internal/model"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.MaxConcurrentTracksDownload != 5 || settings.FileNameFormat != model.DefaultFileNameTemplate {
		t.Errorf("unexpected defaults %+v", settings)
	}
}

func TestLoad_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
max_concurrent_tracks = 2
file_name_format = "{name}"
overwrite_files = true
playlist_format = "pls"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	cfg := settings.ToRunConfig(true)
	if cfg.Concurrency != 2 || cfg.FileNameTemplate != "{name}" || !cfg.OverwriteExisting || !cfg.ArchiveMode {
		t.Errorf("ToRunConfig() = %+v", cfg)
	}
	if !cfg.EmbedArtwork {
		t.Error("unset keys should keep their defaults")
	}
	if settings.PlaylistFormatValue() != model.PlaylistFormatPLS {
		t.Errorf("PlaylistFormatValue() = %v", settings.PlaylistFormatValue())
	}
}

func TestLoad_JSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"save_cover_art_in_tags": false, "log_level": "debug"}`), 0644); err != nil {
		t.Fatal(err)
	}

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if settings.SaveCoverArtInTags || settings.LogLevel != "debug" {
		t.Errorf("JSON values not applied: %+v", settings)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := map[string]string{
		"zero.json":   `{"max_concurrent_tracks": 0}`,
		"format.toml": `playlist_format = "xspf"`,
		"broken.json": `{`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name)
			os.WriteFile(path, []byte(content), 0644)

			if _, err := Load(path); err == nil {
				t.Error("Load() succeeded, want error")
			}
		})
	}

	path := filepath.Join(dir, "zero.json")
	if _, err := Load(path); !errors.Is(err, model.ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestSave_RoundTrip(t *testing.T) {
	for _, name := range []string{"settings.json", "settings.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			settings := DefaultSettings()
			settings.MaxConcurrentTracksDownload = 9
			settings.DownloadsPath = "/music/{playlist}"

			if err := settings.Save(path); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if *loaded != *settings {
				t.Errorf("loaded %+v, want %+v", loaded, settings)
			}
		})
	}
}

func TestSettings_PlaylistDir(t *testing.T) {
	settings := DefaultSettings()
	settings.DownloadsPath = filepath.Join("music", PlaylistPlaceholder)

	if got := settings.PlaylistDir("Road: Trip"); got != filepath.Join("music", "Road Trip") {
		t.Errorf("PlaylistDir() = %q", got)
	}
	if got := settings.PlaylistDir("???"); got != filepath.Join("music", "playlist") {
		t.Errorf("PlaylistDir() = %q", got)
	}
}
