package dto

import (
	"strings"

	"github.com/handiism/suno-downloader/internal/model"
)

// JSONClip represents a clip as returned by the Suno API.
type JSONClip struct {
	ID                string           `json:"id"`
	Title             string           `json:"title"`
	Status            string           `json:"status,omitempty"`
	AudioURL          string           `json:"audio_url"`
	VideoURL          string           `json:"video_url,omitempty"`
	ImageURL          string           `json:"image_url,omitempty"`
	ImageLargeURL     string           `json:"image_large_url,omitempty"`
	MajorModelVersion string           `json:"major_model_version,omitempty"`
	Metadata          JSONClipMetadata `json:"metadata"`
}

// JSONClipMetadata holds the generation details of a clip.
type JSONClipMetadata struct {
	// Duration is null while a clip is still being generated.
	Duration *float64 `json:"duration"`
	Tags     string   `json:"tags"`
}

// ToTrack converts JSONClip to a model.Track at the given playlist position.
func (jc *JSONClip) ToTrack(number int) *model.Track {
	var duration float64
	if jc.Metadata.Duration != nil {
		duration = *jc.Metadata.Duration
	}

	return &model.Track{
		ID:            jc.ID,
		Number:        number,
		Title:         strings.TrimSpace(jc.Title),
		Duration:      duration,
		Tags:          jc.Metadata.Tags,
		ModelVersion:  jc.MajorModelVersion,
		AudioURL:      jc.AudioURL,
		VideoURL:      jc.VideoURL,
		ImageURL:      jc.ImageURL,
		ImageLargeURL: jc.ImageLargeURL,
	}
}
