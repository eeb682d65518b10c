package audio

import (
	"bytes"
	"errors"
	"testing"

	"github.com/bogem/id3v2"
)

// fakeMP3 returns a minimal byte stream starting with an MPEG frame header.
func fakeMP3() []byte {
	b := []byte{0xFF, 0xFB, 0x90, 0x64}
	return append(b, make([]byte, 413)...)
}

// fakePNG returns enough of a PNG for content sniffing.
func fakePNG() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 32)...)
}

func parseTag(t *testing.T, data []byte) *id3v2.Tag {
	t.Helper()
	tag, err := id3v2.ParseReader(bytes.NewReader(data), id3v2.Options{Parse: true})
	if err != nil {
		t.Fatalf("ParseReader: %v", err)
	}
	return tag
}

func TestTagger_EmbedTextAndCover(t *testing.T) {
	tagger := NewTagger(nil)
	mp3 := fakeMP3()

	out, err := tagger.Embed(mp3, "My Song", 3, fakePNG())
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if !bytes.HasSuffix(out, mp3) {
		t.Error("audio frames were not preserved")
	}

	tag := parseTag(t, out)
	if got := tag.Title(); got != "My Song" {
		t.Errorf("Title = %q, want %q", got, "My Song")
	}
	if got := tag.GetTextFrame("TRCK").Text; got != "3" {
		t.Errorf("TRCK = %q, want %q", got, "3")
	}

	pics := tag.GetFrames(tag.CommonID("Attached picture"))
	if len(pics) != 1 {
		t.Fatalf("got %d pictures, want 1", len(pics))
	}
	pic, ok := pics[0].(id3v2.PictureFrame)
	if !ok || pic.MimeType != "image/png" || pic.PictureType != id3v2.PTFrontCover {
		t.Errorf("unexpected picture frame %+v", pics[0])
	}
}

func TestTagger_EmbedWithoutCover(t *testing.T) {
	out, err := NewTagger(nil).Embed(fakeMP3(), "Title Only", 1, nil)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	tag := parseTag(t, out)
	if tag.Title() != "Title Only" {
		t.Errorf("Title = %q", tag.Title())
	}
	if n := len(tag.GetFrames(tag.CommonID("Attached picture"))); n != 0 {
		t.Errorf("got %d pictures, want 0", n)
	}
}

func TestTagger_IgnoresNonImageCover(t *testing.T) {
	out, err := NewTagger(nil).Embed(fakeMP3(), "Song", 1, []byte("<html>not found</html>"))
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	tag := parseTag(t, out)
	if n := len(tag.GetFrames(tag.CommonID("Attached picture"))); n != 0 {
		t.Errorf("got %d pictures, want 0", n)
	}
}

func TestTagger_ReEmbedReplacesFrames(t *testing.T) {
	tagger := NewTagger(nil)
	mp3 := fakeMP3()

	first, err := tagger.Embed(mp3, "Old", 1, fakePNG())
	if err != nil {
		t.Fatalf("first Embed() error = %v", err)
	}
	second, err := tagger.Embed(first, "New", 2, fakePNG())
	if err != nil {
		t.Fatalf("second Embed() error = %v", err)
	}

	tag := parseTag(t, second)
	if tag.Title() != "New" {
		t.Errorf("Title = %q, want %q", tag.Title(), "New")
	}
	if n := len(tag.GetFrames("TRCK")); n != 1 {
		t.Errorf("got %d TRCK frames, want 1", n)
	}
	if n := len(tag.GetFrames(tag.CommonID("Attached picture"))); n != 1 {
		t.Errorf("got %d pictures, want 1", n)
	}
	if !bytes.HasSuffix(second, mp3) {
		t.Error("audio frames were not preserved")
	}
}

func TestTagger_NothingToWrite(t *testing.T) {
	mp3 := fakeMP3()

	out, err := NewTagger(nil).Embed(mp3, "", 0, nil)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}
	if !bytes.Equal(out, mp3) {
		t.Error("expected input to be returned unchanged")
	}
}

func TestTagger_MalformedAudio(t *testing.T) {
	tests := []struct {
		name  string
		input []byte
	}{
		{"empty", nil},
		{"html page", []byte("<!doctype html><html></html>")},
		{"truncated header", []byte("ID3\x04\x00")},
		{"tag larger than input", []byte("ID3\x04\x00\x00\x00\x00\x10\x00abc")},
		{"invalid size byte", []byte("ID3\x04\x00\x00\x80\x00\x00\x00")},
		{"tag without audio", []byte("ID3\x04\x00\x00\x00\x00\x00\x00")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTagger(nil).Embed(tt.input, "Song", 1, nil)

			var embedErr *TagEmbedError
			if !errors.As(err, &embedErr) {
				t.Fatalf("Embed() error = %v, want *TagEmbedError", err)
			}
			if !errors.Is(err, ErrMalformedAudio) {
				t.Errorf("error %v does not wrap ErrMalformedAudio", err)
			}
		})
	}
}

func TestTagger_Album(t *testing.T) {
	cfg := DefaultTagConfig()
	cfg.Album = TagModify

	out, err := NewTagger(cfg).WithAlbum("Road Trip").Embed(fakeMP3(), "Song", 1, nil)
	if err != nil {
		t.Fatalf("Embed() error = %v", err)
	}

	if got := parseTag(t, out).Album(); got != "Road Trip" {
		t.Errorf("Album = %q, want %q", got, "Road Trip")
	}
}
