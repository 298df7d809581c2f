package lastfm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

const recentTracksFixture = `{
  "recenttracks": {
    "track": [
      {
        "artist": {"#text": "Boards of Canada"},
        "album": {"#text": "Music Has the Right to Children"},
        "name": "Roygbiv",
        "url": "https://example.org/track/roygbiv",
        "image": [
          {"#text": "small.png", "size": "small"},
          {"#text": "large.png", "size": "extralarge"}
        ],
        "@attr": {"nowplaying": "true"}
      },
      {
        "artist": {"#text": "Aphex Twin"},
        "album": {"#text": "Selected Ambient Works 85-92"},
        "name": "Xtal",
        "url": "https://example.org/track/xtal",
        "image": [{"#text": "xtal.png", "size": "large"}]
      }
    ]
  }
}`

func fixtureServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("format"); got != "json" {
			t.Errorf("missing static query param, format=%q", got)
		}
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testParams() map[string]string {
	return map[string]string{"method": "user.getrecenttracks", "format": "json"}
}

func TestRecentTracksParsesFixture(t *testing.T) {
	srv := fixtureServer(t, http.StatusOK, recentTracksFixture)
	c := New(srv.URL, testParams(), srv.Client())

	tracks, err := c.RecentTracks(context.Background())
	if err != nil {
		t.Fatalf("RecentTracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("got %d tracks, want 2", len(tracks))
	}

	first := tracks[0]
	if first.Artist != "Boards of Canada" || first.Name != "Roygbiv" {
		t.Errorf("unexpected first track: %+v", first)
	}
	if first.Image != "large.png" {
		t.Errorf("image should be the last (largest) entry, got %q", first.Image)
	}
	if !first.NowPlaying {
		t.Error("first track should be flagged now playing")
	}
	if tracks[1].NowPlaying {
		t.Error("second track should not be flagged now playing")
	}
}

func TestRecentTracksUpstreamError(t *testing.T) {
	srv := fixtureServer(t, http.StatusBadGateway, "upstream exploded")
	c := New(srv.URL, testParams(), srv.Client())

	_, err := c.RecentTracks(context.Background())
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected *UpstreamError, got %v", err)
	}
	if ue.Status != http.StatusBadGateway {
		t.Errorf("status: got %d, want 502", ue.Status)
	}
	if ue.Body != "upstream exploded" {
		t.Errorf("body: got %q", ue.Body)
	}
}

func TestRecentTracksMalformedPayload(t *testing.T) {
	cases := map[string]string{
		"missing recenttracks": `{"error": 6, "message": "User not found"}`,
		"missing track":        `{"recenttracks": {"@attr": {}}}`,
		"not json":             `<html>surprise</html>`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := fixtureServer(t, http.StatusOK, body)
			c := New(srv.URL, testParams(), srv.Client())

			_, err := c.RecentTracks(context.Background())
			var me *MalformedError
			if !errors.As(err, &me) {
				t.Fatalf("expected *MalformedError, got %v", err)
			}
			if me.Payload == nil {
				t.Error("malformed error should carry the raw payload")
			}
		})
	}
}

func TestRecentTracksTransportError(t *testing.T) {
	srv := fixtureServer(t, http.StatusOK, recentTracksFixture)
	srv.Close() // force a connection failure
	c := New(srv.URL, testParams(), nil)

	_, err := c.RecentTracks(context.Background())
	if err == nil {
		t.Fatal("expected transport error")
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		t.Error("transport failure must not be an UpstreamError")
	}
}
