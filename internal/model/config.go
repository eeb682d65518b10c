package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is returned by RunConfig.Validate.
var ErrInvalidConfig = errors.New("invalid run configuration")

// DefaultFileNameTemplate is the naming template used when none is configured.
const DefaultFileNameTemplate = "{trackno} - {name}"

// RunConfig holds the settings of one batch run. It is supplied by the caller
// when the run starts and never modified while it is in progress.
type RunConfig struct {
	// FileNameTemplate is passed to ResolveFileName for every track.
	FileNameTemplate string

	// OverwriteExisting replaces files that already exist at the destination.
	// When false such tracks are skipped without being fetched.
	OverwriteExisting bool

	// EmbedArtwork fetches the cover art and stores it in the ID3 tag.
	EmbedArtwork bool

	// UseLargeImages prefers the large cover variant when embedding.
	UseLargeImages bool

	// Concurrency is the maximum number of tracks in flight at once.
	Concurrency int

	// ArchiveMode collects all tracks into a single zip archive instead of
	// writing them to the destination.
	ArchiveMode bool
}

// DefaultRunConfig returns the configuration used by the web client.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		FileNameTemplate: DefaultFileNameTemplate,
		EmbedArtwork:     true,
		Concurrency:      5,
	}
}

// Validate checks the configuration before a run starts.
func (c RunConfig) Validate() error {
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be at least 1, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if strings.TrimSpace(c.FileNameTemplate) == "" {
		return fmt.Errorf("%w: empty file name template", ErrInvalidConfig)
	}
	return nil
}
