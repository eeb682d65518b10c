package dto

import "github.com/handiism/suno-downloader/internal/model"

// JSONPlaylistPage represents one page of a playlist from the Suno API.
// An empty PlaylistClips marks the end of the playlist.
type JSONPlaylistPage struct {
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	Description     string             `json:"description,omitempty"`
	ImageURL        string             `json:"image_url"`
	NumTotalResults int                `json:"num_total_results,omitempty"`
	CurrentPage     int                `json:"current_page,omitempty"`
	PlaylistClips   []JSONPlaylistClip `json:"playlist_clips"`
}

// JSONPlaylistClip wraps a clip inside a playlist page.
type JSONPlaylistClip struct {
	Clip          JSONClip `json:"clip"`
	RelativeIndex float64  `json:"relative_index,omitempty"`
}

// ToPlaylist converts the page header to a model.Playlist without tracks.
func (jp *JSONPlaylistPage) ToPlaylist() *model.Playlist {
	return &model.Playlist{
		ID:       jp.ID,
		Name:     jp.Name,
		ImageURL: jp.ImageURL,
	}
}
