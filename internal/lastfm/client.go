// Package lastfm is a minimal client for the scrobbler's recent-tracks
// API. The upstream is an opaque HTTP collaborator: a single GET per call,
// no retries, and failures surface verbatim so handlers can mirror the
// upstream status and body.
package lastfm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// UpstreamError is returned when the scrobbler API responds with a
// non-200 status. Body holds the raw response text.
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream responded %d", e.Status)
}

// MalformedError is returned when the upstream responded 200 but the
// payload is missing the expected recenttracks.track shape. Payload holds
// the decoded body for the caller to echo.
type MalformedError struct {
	Payload any
}

func (e *MalformedError) Error() string {
	return "upstream payload missing expected shape"
}

// Track is one scrobbled track as reported upstream.
type Track struct {
	Artist     string
	Name       string
	Album      string
	URL        string
	Image      string
	NowPlaying bool
}

// Client calls the recent-tracks endpoint with a fixed set of query
// parameters taken from configuration.
type Client struct {
	requestURL string
	httpClient *http.Client
}

// New builds a Client for baseURL with the given static query params.
// httpClient may be nil, in which case a 10 second timeout client is used.
func New(baseURL string, params map[string]string, httpClient *http.Client) *Client {
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	requestURL := baseURL
	if enc := q.Encode(); enc != "" {
		requestURL += "?" + enc
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{requestURL: requestURL, httpClient: httpClient}
}

// Wire types. The scrobbler nests text content under "#text" keys and
// flags the in-progress track with a string-valued @attr.nowplaying.
type wireResponse struct {
	RecentTracks *struct {
		Track []wireTrack `json:"track"`
	} `json:"recenttracks"`
}

type wireTrack struct {
	Artist struct {
		Text string `json:"#text"`
	} `json:"artist"`
	Album struct {
		Text string `json:"#text"`
	} `json:"album"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Image []struct {
		Text string `json:"#text"`
		Size string `json:"size"`
	} `json:"image"`
	Attr *struct {
		NowPlaying string `json:"nowplaying"`
	} `json:"@attr"`
}

// RecentTracks fetches the user's recent tracks, newest first. The first
// element is flagged NowPlaying when a track is in progress. Errors are
// *UpstreamError, *MalformedError, or a plain transport error.
func (c *Client) RecentTracks(ctx context.Context) ([]Track, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send upstream request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &UpstreamError{Status: resp.StatusCode, Body: string(body)}
	}

	// Decode generically first so a shape failure can echo the payload.
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &MalformedError{Payload: string(body)}
	}

	var parsed wireResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, &MalformedError{Payload: payload}
	}
	if parsed.RecentTracks == nil || parsed.RecentTracks.Track == nil {
		return nil, &MalformedError{Payload: payload}
	}

	tracks := make([]Track, 0, len(parsed.RecentTracks.Track))
	for _, wt := range parsed.RecentTracks.Track {
		t := Track{
			Artist: wt.Artist.Text,
			Name:   wt.Name,
			Album:  wt.Album.Text,
			URL:    wt.URL,
		}
		// The last image entry is the largest size offered.
		if n := len(wt.Image); n > 0 {
			t.Image = wt.Image[n-1].Text
		}
		if wt.Attr != nil && wt.Attr.NowPlaying == "true" {
			t.NowPlaying = true
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}
