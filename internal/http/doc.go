// Package http provides the HTTP client used to fetch playlist data, audio
// and cover art.
//
// The Client in this package handles:
//   - User-Agent headers
//   - Timeout handling
//   - In-memory downloads
//   - JSON API responses
//
// # Basic Usage
//
//	client := http.NewClient("", 0)
//
//	// Fetch an MP3
//	data, err := client.DownloadBytes(ctx, mp3URL)
//
// # Errors
//
// All failures are reported as *FetchError. A non-2xx response sets
// StatusCode; a transport failure leaves it 0 and wraps the cause:
//
//	var fe *http.FetchError
//	if errors.As(err, &fe) && fe.NotFound() {
//	    // the resource is gone
//	}
package http
