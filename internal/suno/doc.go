// Package suno resolves Suno playlist and song links into tracks.
//
// # Links
//
//	id, err := suno.ParsePlaylistID("https://suno.com/playlist/4a1b")
//
// # Playlists
//
// Playlists are served in pages. GetPlaylist walks them until an empty page
// and numbers the clips sequentially:
//
//	client := suno.NewClient(http.NewClient("", 0))
//	playlist, err := client.GetPlaylist(ctx, id)
//
// Errors from the API are *http.FetchError values wrapped with context, so
// callers can map upstream status codes with errors.As.
package suno
