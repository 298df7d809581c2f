package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/zachlagden/zlapi/internal/lastfm"
	"github.com/zachlagden/zlapi/internal/model"
)

// ActivityHandler proxies the scrobbler's recent-tracks feed.
type ActivityHandler struct {
	lfm *lastfm.Client
}

// NewActivityHandler builds an ActivityHandler over the given client.
func NewActivityHandler(lfm *lastfm.Client) *ActivityHandler {
	return &ActivityHandler{lfm: lfm}
}

// fetch calls upstream and maps the three failure kinds onto the envelope
// contract. what names the data for the message templates ("now playing",
// "recent tracks"). Returns ok=false after writing a response.
func (h *ActivityHandler) fetch(w http.ResponseWriter, r *http.Request, what string) ([]lastfm.Track, bool) {
	tracks, err := h.lfm.RecentTracks(r.Context())
	if err == nil {
		return tracks, true
	}

	var ue *lastfm.UpstreamError
	if errors.As(err, &ue) {
		writeEnvelope(w, ue.Status, model.Envelope{
			OK:      false,
			Status:  ue.Status,
			Message: fmt.Sprintf("Failed to get %s data from LastFM while sending request. Response from the API is in the data key.", what),
			Data:    ue.Body,
		})
		return nil, false
	}

	var me *lastfm.MalformedError
	if errors.As(err, &me) {
		writeEnvelope(w, http.StatusInternalServerError, model.Envelope{
			OK:      false,
			Status:  http.StatusInternalServerError,
			Message: fmt.Sprintf("Failed to get %s data from LastFM. Response from the API is in the data key.", what),
			Data:    me.Payload,
		})
		return nil, false
	}

	writeInternalError(w, fmt.Sprintf("Failed to get %s data from LastFM", what), err)
	return nil, false
}

func toTrackModel(t lastfm.Track) model.Track {
	return model.Track{
		Artist: t.Artist,
		Name:   t.Name,
		Album:  t.Album,
		URL:    t.URL,
		Image:  t.Image,
	}
}

// NowPlaying returns the track currently playing, if any. When nothing is
// playing the body keeps ok:true with data:null while the transport
// status is 404 — the original service's convention, preserved for
// client compatibility.
func (h *ActivityHandler) NowPlaying(w http.ResponseWriter, r *http.Request) {
	tracks, ok := h.fetch(w, r, "now playing")
	if !ok {
		return
	}

	if len(tracks) == 0 || !tracks[0].NowPlaying {
		writeEnvelope(w, http.StatusNotFound, model.Envelope{
			OK:      true,
			Status:  http.StatusOK,
			Message: "No track is currently playing",
			Data:    model.NullData,
		})
		return
	}

	writeSuccess(w, "Successfully fetched now playing data.", toTrackModel(tracks[0]))
}

// RecentTracks returns the most recently scrobbled tracks, newest first,
// truncated to the optional non-negative limit parameter.
func (h *ActivityHandler) RecentTracks(w http.ResponseWriter, r *http.Request) {
	limit := -1
	if queryString(r, "limit") != "" {
		n, err := queryIntInRange(r, "limit", 0, 0, 1<<30)
		if err != nil {
			writeValidationError(w, "The limit must be a non-negative integer")
			return
		}
		limit = n
	}

	tracks, ok := h.fetch(w, r, "recent tracks")
	if !ok {
		return
	}

	if limit >= 0 && limit < len(tracks) {
		tracks = tracks[:limit]
	}

	out := make([]model.Track, len(tracks))
	for i, t := range tracks {
		out[i] = toTrackModel(t)
	}
	writeSuccess(w, "Successfully fetched recent tracks data.", out)
}
