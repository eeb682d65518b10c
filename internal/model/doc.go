// Package model defines the core data structures used throughout
// the suno-downloader application.
//
// # Track
//
// Track describes one clip of a resolved playlist. Tracks are created by the
// playlist resolver and never modified afterwards:
//
//	track := &model.Track{ID: "c0ffee", Number: 3, Title: "My Song", AudioURL: mp3URL}
//
// # Status
//
// ClipStatus is the per-track state of a batch run. A track starts as
// StatusPending and ends in exactly one of StatusSkipped, StatusSucceeded or
// StatusFailed.
//
// # File Names
//
// ResolveFileName turns a naming template into a safe file name:
//
//	model.ResolveFileName("{trackno} - {name}", 3, "My: Song?", "c0ffee")
//	// "03 - My Song"
//
// Available placeholders: {trackno}, {name}
package model
