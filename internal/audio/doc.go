// Package audio provides audio manipulation services including
// ID3 tag embedding and playlist generation.
//
// # ID3 Tagging
//
// Use the Tagger to embed tags into MP3 data held in memory:
//
//	tagger := audio.NewTagger(audio.DefaultTagConfig())
//	tagged, err := tagger.Embed(mp3, "Song Title", 3, coverBytes)
//
// The tagger writes:
//   - Track Title (TIT2)
//   - Track Number (TRCK)
//   - Cover Art (APIC, front cover)
//
// Input that is not MPEG audio yields a *TagEmbedError.
//
// # Playlist Generation
//
// Generate playlists in various formats:
//
//	creator := audio.NewPlaylistCreator(model.PlaylistFormatM3U, true) // extended M3U
//	content := creator.CreatePlaylist("Road Trip", entries)
//
// Supported formats:
//   - M3U (with optional extended info)
//   - PLS
//   - WPL (Windows Media Player)
//   - ZPL (Zune Media Player)
package audio
