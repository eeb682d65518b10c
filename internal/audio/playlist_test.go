package audio

import (
	"strings"
	"testing"

	"github.com/handiism/suno-downloader/internal/model"
)

func TestPlaylistCreator_M3U(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatM3U, false)

	content := creator.CreatePlaylist("Test Playlist", testEntries())

	if content != "01 - track1.mp3\n02 - track2.mp3\n" {
		t.Errorf("unexpected M3U content:\n%s", content)
	}
}

func TestPlaylistCreator_M3UExtended(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatM3U, true)

	content := creator.CreatePlaylist("Test Playlist", testEntries())

	if !strings.HasPrefix(content, "#EXTM3U") {
		t.Error("Extended M3U should start with #EXTM3U")
	}
	if !strings.Contains(content, "#EXTINF:180,track1") {
		t.Error("Extended M3U should contain #EXTINF with duration and title")
	}
}

func TestPlaylistCreator_PLS(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatPLS, false)

	content := creator.CreatePlaylist("Test Playlist", testEntries())

	if !strings.HasPrefix(content, "[playlist]") {
		t.Error("PLS should start with [playlist]")
	}
	if !strings.Contains(content, "File1=01 - track1.mp3") {
		t.Error("PLS should contain File1=")
	}
	if !strings.Contains(content, "NumberOfEntries=2") {
		t.Error("PLS should contain NumberOfEntries")
	}
}

func TestPlaylistCreator_WPL(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatWPL, false)

	content := creator.CreatePlaylist("Test Playlist", testEntries())

	if !strings.Contains(content, "<?wpl") {
		t.Error("WPL should contain XML declaration")
	}
	if !strings.Contains(content, "<media src=") {
		t.Error("WPL should contain media elements")
	}
}

func TestPlaylistCreator_ZPL(t *testing.T) {
	creator := NewPlaylistCreator(model.PlaylistFormatZPL, false)

	content := creator.CreatePlaylist("Test Playlist", testEntries())

	if !strings.Contains(content, "<?zpl") {
		t.Error("ZPL should contain XML declaration")
	}
	if !strings.Contains(content, `duration="180000"`) {
		t.Error("ZPL should contain durations in milliseconds")
	}
	if creator.Extension() != ".zpl" {
		t.Errorf("Extension() = %q", creator.Extension())
	}
}

func TestPlaylistCreator_XMLEscape(t *testing.T) {
	entries := []PlaylistEntry{{FileName: "01 - a.mp3", Title: `Track & "Quote"`, Duration: 180}}

	creator := NewPlaylistCreator(model.PlaylistFormatZPL, false)
	content := creator.CreatePlaylist("Mix <Special>", entries)

	if !strings.Contains(content, "Track &amp; &quot;Quote&quot;") {
		t.Error("ZPL should escape & and quotes")
	}
	if strings.Contains(content, "<Special>") {
		t.Error("ZPL should escape < and >")
	}
}

func TestEntriesFor(t *testing.T) {
	tracks := []*model.Track{
		{ID: "a", Number: 1, Title: "track1", Duration: 180},
		{ID: "b", Number: 2, Title: "track2", Duration: 200},
	}

	entries := EntriesFor(tracks, []string{"one.mp3"})

	if len(entries) != 1 || entries[0].FileName != "one.mp3" || entries[0].Title != "track1" {
		t.Errorf("EntriesFor() = %+v", entries)
	}
}

func testEntries() []PlaylistEntry {
	return []PlaylistEntry{
		{FileName: "01 - track1.mp3", Title: "track1", Duration: 180},
		{FileName: "02 - track2.mp3", Title: "track2", Duration: 200},
	}
}
