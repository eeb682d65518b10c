package audio

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bogem/id3v2"
)

// ErrMalformedAudio is wrapped by TagEmbedError when the input is not an
// MPEG audio stream.
var ErrMalformedAudio = errors.New("malformed audio")

// TagEmbedError reports that tags could not be embedded into an audio blob.
type TagEmbedError struct {
	Err error
}

func (e *TagEmbedError) Error() string {
	return "embed tags: " + e.Err.Error()
}

func (e *TagEmbedError) Unwrap() error {
	return e.Err
}

// TagEditAction defines how to handle individual ID3 tags.
type TagEditAction int

const (
	// TagModify writes the value supplied to Embed.
	TagModify TagEditAction = iota

	// TagEmpty removes the frame.
	TagEmpty

	// TagDoNotModify leaves the existing frame unchanged.
	TagDoNotModify
)

// TagConfig holds tagging configuration for each ID3 field.
//
// Example:
//
//	cfg := &TagConfig{
//	    TrackTitle:  TagModify,      // Title from the playlist
//	    TrackNumber: TagModify,      // Playlist position
//	    Comments:    TagEmpty,       // Clear any existing comments
//	}
type TagConfig struct {
	// TrackTitle controls the TIT2 (Title) frame.
	TrackTitle TagEditAction

	// TrackNumber controls the TRCK (Track number) frame.
	TrackNumber TagEditAction

	// Album controls the TALB (Album title) frame.
	Album TagEditAction

	// Comments controls the COMM (Comments) frame.
	Comments TagEditAction
}

// DefaultTagConfig returns the default tag configuration.
//
// Title and track number are written, album and comments are left as they
// are.
func DefaultTagConfig() *TagConfig {
	return &TagConfig{
		TrackTitle:  TagModify,
		TrackNumber: TagModify,
		Album:       TagDoNotModify,
		Comments:    TagDoNotModify,
	}
}

// Tagger embeds ID3 tags into in-memory MP3 data.
//
// Example:
//
//	tagger := NewTagger(DefaultTagConfig())
//	tagged, err := tagger.Embed(mp3, "Song Title", 3, coverJPEG)
//	if err != nil {
//	    var embedErr *TagEmbedError
//	    errors.As(err, &embedErr) // not an MP3
//	}
type Tagger struct {
	config *TagConfig
	album  string
}

// NewTagger creates a new Tagger with the given configuration.
//
// If config is nil, DefaultTagConfig() is used.
func NewTagger(config *TagConfig) *Tagger {
	if config == nil {
		config = DefaultTagConfig()
	}
	return &Tagger{config: config}
}

// WithAlbum returns a copy of t that writes album into the TALB frame when
// TagConfig.Album is TagModify.
func (t *Tagger) WithAlbum(album string) *Tagger {
	c := *t
	c.album = album
	return &c
}

// Embed returns a copy of audio with the given metadata written into its
// ID3v2 tag. Existing frames are preserved unless replaced.
//
// The title is written when non-empty, the track number when positive. A
// cover that is not a recognizable image is ignored, so the result always
// carries at least the text frames. Audio that is not an MPEG stream yields
// a *TagEmbedError.
func (t *Tagger) Embed(audio []byte, title string, trackNumber int, cover []byte) ([]byte, error) {
	tagSize, err := id3Size(audio)
	if err != nil {
		return nil, &TagEmbedError{Err: err}
	}

	body := audio[tagSize:]
	if !hasFrameSync(body) {
		return nil, &TagEmbedError{Err: fmt.Errorf("%w: no MPEG frame sync", ErrMalformedAudio)}
	}

	mime := coverMimeType(cover)
	if title == "" && trackNumber <= 0 && mime == "" && t.album == "" && t.config.Comments != TagEmpty {
		return audio, nil
	}

	tag := id3v2.NewEmptyTag()
	if tagSize > 0 {
		tag, err = id3v2.ParseReader(bytes.NewReader(audio[:tagSize]), id3v2.Options{Parse: true})
		if err != nil {
			return nil, &TagEmbedError{Err: fmt.Errorf("%w: %v", ErrMalformedAudio, err)}
		}
	}

	enc := textEncoding(tag)
	t.updateStringTags(tag, enc, title, trackNumber)
	if mime != "" {
		updateArtwork(tag, enc, mime, cover)
	}

	var buf bytes.Buffer
	buf.Grow(len(body) + len(cover) + 1024)
	if _, err := tag.WriteTo(&buf); err != nil {
		return nil, &TagEmbedError{Err: err}
	}
	buf.Write(body)

	return buf.Bytes(), nil
}

// updateStringTags updates text-based ID3 frames based on configuration.
func (t *Tagger) updateStringTags(tag *id3v2.Tag, enc id3v2.Encoding, title string, trackNumber int) {
	// Track Title (TIT2)
	switch t.config.TrackTitle {
	case TagEmpty:
		tag.DeleteFrames(tag.CommonID("Title/Songname/Content description"))
	case TagModify:
		if title != "" {
			tag.DeleteFrames(tag.CommonID("Title/Songname/Content description"))
			tag.AddTextFrame(tag.CommonID("Title/Songname/Content description"), enc, title)
		}
	}

	// Track Number (TRCK)
	switch t.config.TrackNumber {
	case TagEmpty:
		tag.DeleteFrames("TRCK")
	case TagModify:
		if trackNumber > 0 {
			tag.DeleteFrames("TRCK")
			tag.AddTextFrame("TRCK", enc, strconv.Itoa(trackNumber))
		}
	}

	// Album (TALB)
	switch t.config.Album {
	case TagEmpty:
		tag.DeleteFrames("TALB")
	case TagModify:
		if t.album != "" {
			tag.DeleteFrames("TALB")
			tag.AddTextFrame("TALB", enc, t.album)
		}
	}

	if t.config.Comments == TagEmpty {
		tag.DeleteFrames(tag.CommonID("Comments"))
	}
}

// updateArtwork embeds cover art as the only attached picture frame.
func updateArtwork(tag *id3v2.Tag, enc id3v2.Encoding, mime string, artwork []byte) {
	tag.DeleteFrames(tag.CommonID("Attached picture"))

	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    enc,
		MimeType:    mime,
		PictureType: id3v2.PTFrontCover,
		Description: "Cover",
		Picture:     artwork,
	})
}

// textEncoding picks UTF-8 for ID3v2.4 and UTF-16 for older tags, which do
// not support UTF-8.
func textEncoding(tag *id3v2.Tag) id3v2.Encoding {
	if tag.Version() == 4 {
		return id3v2.EncodingUTF8
	}
	return id3v2.EncodingUTF16
}

// coverMimeType returns the image MIME type of data, or "" when data is
// empty or not an image.
func coverMimeType(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return ""
	}
	return mime
}

// id3Size returns the length in bytes of the ID3v2 tag at the start of data,
// or 0 when there is none.
func id3Size(data []byte) (int, error) {
	if len(data) == 0 {
		return 0, fmt.Errorf("%w: empty input", ErrMalformedAudio)
	}
	if len(data) < 3 || string(data[:3]) != "ID3" {
		return 0, nil
	}
	if len(data) < 10 {
		return 0, fmt.Errorf("%w: truncated ID3 header", ErrMalformedAudio)
	}

	size := 0
	for _, b := range data[6:10] {
		if b >= 0x80 {
			return 0, fmt.Errorf("%w: invalid ID3 size", ErrMalformedAudio)
		}
		size = size<<7 | int(b)
	}

	total := 10 + size
	if data[5]&0x10 != 0 {
		total += 10
	}
	if total > len(data) {
		return 0, fmt.Errorf("%w: ID3 tag exceeds input", ErrMalformedAudio)
	}
	return total, nil
}

func hasFrameSync(b []byte) bool {
	return len(b) >= 2 && b[0] == 0xFF && b[1]&0xE0 == 0xE0
}
