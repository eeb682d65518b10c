// Package download provides the download orchestration logic for
// fetching Suno playlists and songs.
//
// # Runner
//
// The Runner processes a batch of tracks:
//
//  1. Resolve a unique file name per track from the template
//  2. Skip tracks whose file already exists (unless overwriting)
//  3. Download the audio and, optionally, the cover art
//  4. Tag the MP3 with ID3 metadata
//  5. Write it to a Destination, or collect it into a zip archive
//
// Every status transition is reported to an Observer, which is how the
// server feeds its progress stream. A failed track never stops the others.
//
// # Manager
//
// The Manager builds a Runner from config.Settings and adds link
// resolution, playlist files and archive output:
//
//	manager := download.NewManager(settings, logger, func(event download.ProgressEvent) {
//	    fmt.Println(event.Message)
//	})
//
//	playlist, err := manager.Resolve(ctx, "https://suno.com/playlist/<id>")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := manager.DownloadPlaylist(ctx, playlist, playlist.Tracks, false, nil)
//
// # Concurrency
//
// settings.MaxConcurrentTracksDownload bounds how many tracks are in flight.
//
// # Retrying
//
// FilterFailed returns the failed tracks of a Report so they can be passed
// to another run.
package download
