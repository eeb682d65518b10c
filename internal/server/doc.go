// Package server exposes the downloader over HTTP for the web client.
//
// # Routes
//
// Playlist lookups proxy the Suno API. Downloads are tagged on the fly:
// single songs are returned as MP3 and whole playlists as a zip archive
// assembled in memory. While a playlist is being assembled the client can
// follow its progress over Server-Sent Events at
// /api/download/progress/{sessionId}, using the session id it sent with
// the download request.
//
// # Visitor settings
//
// Naming template, overwrite and artwork preferences are kept per visitor
// in memory, keyed by the "sid" cookie. Entries expire after a day without
// use.
//
// # Middleware
//
// [Middleware] wraps handlers in reverse order (last added executes first).
// Every route is served through request logging, panic recovery and CORS.
package server
