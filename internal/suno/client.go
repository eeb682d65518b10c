package suno

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/time/rate"

	dlhttp "github.com/handiism/suno-downloader/internal/http"
	"github.com/handiism/suno-downloader/internal/model"
	"github.com/handiism/suno-downloader/internal/suno/dto"
)

// DefaultBaseURL is the Suno studio API root.
const DefaultBaseURL = "https://studio-api.prod.suno.com/api"

// DefaultMaxPages bounds pagination so a misbehaving upstream cannot keep
// GetPlaylist looping forever.
const DefaultMaxPages = 500

// Client resolves playlists and clips through the Suno API.
//
// Requests are paced by a token bucket shared by all calls on the client.
//
// Example usage:
//
//	client := NewClient(dlhttp.NewClient("", 0), WithRateLimit(4, 2))
//
//	playlist, err := client.GetPlaylist(ctx, id)
//	for _, track := range playlist.Tracks {
//	    fmt.Printf("%02d %s\n", track.Number, track.Title)
//	}
type Client struct {
	http     *dlhttp.Client
	baseURL  string
	limiter  *rate.Limiter
	maxPages int
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL points the client at another API root, e.g. a test server.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithRateLimit allows rps requests per second with the given burst.
// A non-positive rps disables pacing.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// WithMaxPages sets the pagination bound of GetPlaylist.
func WithMaxPages(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.maxPages = n
		}
	}
}

// NewClient creates a new Client using httpClient for transport.
func NewClient(httpClient *dlhttp.Client, opts ...Option) *Client {
	c := &Client{
		http:     httpClient,
		baseURL:  DefaultBaseURL,
		limiter:  rate.NewLimiter(rate.Limit(5), 2),
		maxPages: DefaultMaxPages,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetPlaylistPage fetches one page of a playlist. Pages start at 1.
func (c *Client) GetPlaylistPage(ctx context.Context, id string, page int) (*dto.JSONPlaylistPage, error) {
	if id == "" || id == "liked" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPlaylistID, id)
	}
	if page < 1 {
		page = 1
	}

	u := fmt.Sprintf("%s/playlist/%s/?page=%d", c.baseURL, url.PathEscape(id), page)

	var resp dto.JSONPlaylistPage
	if err := c.getJSON(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("get playlist %s page %d: %w", id, page, err)
	}
	return &resp, nil
}

// GetPlaylist fetches every page of a playlist and returns the clips in
// order, numbered 1..N across pages.
//
// Pagination stops at the first empty page. Name and cover are taken from
// the last non-empty page.
func (c *Client) GetPlaylist(ctx context.Context, id string) (*model.Playlist, error) {
	playlist := &model.Playlist{ID: id}
	number := 1

	for page := 1; ; page++ {
		if page > c.maxPages {
			return nil, fmt.Errorf("get playlist %s: more than %d pages", id, c.maxPages)
		}

		resp, err := c.GetPlaylistPage(ctx, id, page)
		if err != nil {
			return nil, err
		}
		if len(resp.PlaylistClips) == 0 {
			break
		}

		playlist.Name = resp.Name
		playlist.ImageURL = resp.ImageURL
		for _, pc := range resp.PlaylistClips {
			playlist.Tracks = append(playlist.Tracks, pc.Clip.ToTrack(number))
			number++
		}
	}

	return playlist, nil
}

// GetClip fetches a single clip. The returned track has Number 0.
func (c *Client) GetClip(ctx context.Context, id string) (*model.Track, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidSongID)
	}

	u := fmt.Sprintf("%s/clip/%s/", c.baseURL, url.PathEscape(id))

	var clip dto.JSONClip
	if err := c.getJSON(ctx, u, &clip); err != nil {
		return nil, fmt.Errorf("get clip %s: %w", id, err)
	}
	return clip.ToTrack(0), nil
}

func (c *Client) getJSON(ctx context.Context, u string, v any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	return c.http.GetJSON(ctx, u, v)
}
