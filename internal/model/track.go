package model

import "strings"

// FileExtension is appended to every resolved track file name.
const FileExtension = ".mp3"

// Track represents a single clip within a playlist.
//
// Track contains the metadata needed to download and tag one song:
//   - ID identifying the clip upstream (unique within a playlist)
//   - Number and Title for file naming and ID3 tagging
//   - AudioURL for the MP3 itself
//   - ImageURL / ImageLargeURL for the cover art
//
// The JSON field names match the shape served by the playlist API.
type Track struct {
	// ID is the upstream clip identifier.
	ID string `json:"id"`

	// Number is the 1-based position of the track in its playlist.
	Number int `json:"no"`

	// Title is the track title.
	Title string `json:"title"`

	// Duration is the track length in seconds.
	Duration float64 `json:"duration"`

	// Tags is the free-text style descriptor. It is shown to users only and
	// never written into the audio file.
	Tags string `json:"tags"`

	// ModelVersion is the generator version that produced the clip.
	ModelVersion string `json:"model_version"`

	// AudioURL is the URL to download the MP3 file from.
	AudioURL string `json:"audio_url"`

	// VideoURL is the URL of the rendered video, if any.
	VideoURL string `json:"video_url,omitempty"`

	// ImageURL is the URL of the cover art. Empty means no artwork.
	ImageURL string `json:"image_url,omitempty"`

	// ImageLargeURL is a higher resolution variant of ImageURL.
	ImageLargeURL string `json:"image_large_url,omitempty"`
}

// HasArtwork returns true if the track has cover art available for download.
func (t *Track) HasArtwork() bool {
	return t.ImageURL != "" || t.ImageLargeURL != ""
}

// ArtworkURL returns the cover art URL to use, preferring the large variant
// when large is set and one is available.
func (t *Track) ArtworkURL(large bool) string {
	if large && t.ImageLargeURL != "" {
		return t.ImageLargeURL
	}
	if t.ImageURL != "" {
		return t.ImageURL
	}
	return t.ImageLargeURL
}

// FileName returns the resolved file name for the track, extension included.
func (t *Track) FileName(template string) string {
	return ResolveFileName(template, t.Number, t.Title, t.ID) + FileExtension
}

// Playlist is an ordered collection of tracks.
type Playlist struct {
	// ID is the upstream playlist identifier.
	ID string `json:"id,omitempty"`

	// Name is the playlist display name.
	Name string `json:"name"`

	// ImageURL is the playlist cover.
	ImageURL string `json:"image"`

	// Tracks in playlist order, numbered from 1.
	Tracks []*Track `json:"-"`
}

// DisplayName returns the playlist name, or "playlist" when it is blank.
func (p *Playlist) DisplayName() string {
	if name := strings.TrimSpace(p.Name); name != "" {
		return name
	}
	return "playlist"
}

// TotalDuration returns the summed duration of all tracks in seconds.
func (p *Playlist) TotalDuration() float64 {
	var total float64
	for _, t := range p.Tracks {
		total += t.Duration
	}
	return total
}
