package suno

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrInvalidPlaylistID is returned for links that do not name a specific
// playlist. The "liked" pseudo playlist requires authentication and is
// rejected as well.
var ErrInvalidPlaylistID = errors.New("invalid playlist ID")

// ErrInvalidSongID is returned for links that do not name a song.
var ErrInvalidSongID = errors.New("invalid song ID")

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// ParsePlaylistID extracts the playlist ID from a link such as
// https://suno.com/playlist/<id>. A bare ID is accepted as is.
//
// Example:
//
//	id, err := ParsePlaylistID("https://suno.com/playlist/4a1b?sh=x") // "4a1b"
func ParsePlaylistID(link string) (string, error) {
	id, err := extractID(link, "playlist")
	if err != nil || id == "liked" {
		return "", fmt.Errorf("%w: %q", ErrInvalidPlaylistID, link)
	}
	return id, nil
}

// ParseSongID extracts the clip ID from a link such as
// https://suno.com/song/<id>. A bare ID is accepted as is.
func ParseSongID(link string) (string, error) {
	id, err := extractID(link, "song")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSongID, link)
	}
	return id, nil
}

// IsPlaylistLink reports whether link points at a playlist page.
func IsPlaylistLink(link string) bool {
	return strings.Contains(link, "suno.com/playlist/")
}

func extractID(link, kind string) (string, error) {
	link = strings.TrimSpace(link)
	if idPattern.MatchString(link) {
		return link, nil
	}

	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		// Accept "suno.com/playlist/<id>" without a scheme.
		u, err = url.Parse("https://" + link)
		if err != nil {
			return "", err
		}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host != "suno.com" && host != "app.suno.ai" && host != "suno.ai" {
		return "", fmt.Errorf("unsupported host %q", u.Hostname())
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) != 2 || parts[0] != kind || !idPattern.MatchString(parts[1]) {
		return "", fmt.Errorf("not a %s link", kind)
	}
	return parts[1], nil
}
