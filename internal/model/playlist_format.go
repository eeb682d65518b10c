package model

import (
	"fmt"
	"strings"
)

// PlaylistFormat represents supported playlist file formats.
type PlaylistFormat int

const (
	// PlaylistFormatM3U creates .m3u playlist files (most widely supported).
	PlaylistFormatM3U PlaylistFormat = iota

	// PlaylistFormatPLS creates .pls playlist files (used by Winamp).
	PlaylistFormatPLS

	// PlaylistFormatWPL creates .wpl playlist files (Windows Media Player).
	PlaylistFormatWPL

	// PlaylistFormatZPL creates .zpl playlist files (Zune Media Player).
	PlaylistFormatZPL
)

// Extension returns the file extension for the playlist format, including the dot.
func (pf PlaylistFormat) Extension() string {
	switch pf {
	case PlaylistFormatPLS:
		return ".pls"
	case PlaylistFormatWPL:
		return ".wpl"
	case PlaylistFormatZPL:
		return ".zpl"
	default:
		return ".m3u"
	}
}

// ParsePlaylistFormat maps a name such as "m3u" or ".pls" to a format.
func ParsePlaylistFormat(s string) (PlaylistFormat, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), ".") {
	case "", "m3u":
		return PlaylistFormatM3U, nil
	case "pls":
		return PlaylistFormatPLS, nil
	case "wpl":
		return PlaylistFormatWPL, nil
	case "zpl":
		return PlaylistFormatZPL, nil
	default:
		return PlaylistFormatM3U, fmt.Errorf("unknown playlist format %q", s)
	}
}
