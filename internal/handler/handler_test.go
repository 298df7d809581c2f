package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zachlagden/zlapi/internal/keystore"
	"github.com/zachlagden/zlapi/internal/model"
)

func TestQueryIntInRange(t *testing.T) {
	cases := []struct {
		query   string
		def     int
		min     int
		max     int
		want    int
		wantErr bool
	}{
		{"", 10, 1, 100, 10, false},
		{"?size=5", 10, 1, 100, 5, false},
		{"?size=1", 10, 1, 100, 1, false},
		{"?size=100", 10, 1, 100, 100, false},
		{"?size=0", 10, 1, 100, 0, true},
		{"?size=101", 10, 1, 100, 0, true},
		{"?size=abc", 10, 1, 100, 0, true},
		{"?size=5.5", 10, 1, 100, 0, true},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", "/x"+tc.query, nil)
		got, err := queryIntInRange(r, "size", tc.def, tc.min, tc.max)
		if (err != nil) != tc.wantErr {
			t.Errorf("query %q: err = %v, wantErr = %v", tc.query, err, tc.wantErr)
			continue
		}
		if err == nil && got != tc.want {
			t.Errorf("query %q: got %d, want %d", tc.query, got, tc.want)
		}
	}
}

func TestQueryIntInRangeErrorMessage(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?border=0", nil)
	_, err := queryIntInRange(r, "border", 4, 1, 10)
	if err == nil {
		t.Fatal("expected error")
	}
	want := "The border must be an integer between 1 and 10"
	if err.Error() != want {
		t.Errorf("message = %q, want %q", err.Error(), want)
	}
}

func TestEnumHelpers(t *testing.T) {
	allowed := []string{"code39", "ean13"}
	if !inSet("code39", allowed) {
		t.Error("code39 should be allowed")
	}
	if inSet("CODE39", allowed) {
		t.Error("matching is exact, CODE39 should be rejected")
	}
	if got := enumMessage("barcode_type", allowed); got != "The barcode_type must be one of code39, ean13" {
		t.Errorf("message = %q", got)
	}
}

func TestWriteEnvelopeDivergentStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	writeEnvelope(rr, http.StatusNotFound, model.Envelope{
		OK:      true,
		Status:  http.StatusOK,
		Message: "No track is currently playing",
		Data:    model.NullData,
	})

	if rr.Code != http.StatusNotFound {
		t.Errorf("transport status = %d, want 404", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, `"ok":true`) || !strings.Contains(body, `"status":200`) {
		t.Errorf("body does not keep the envelope status independent: %s", body)
	}
	if !strings.Contains(body, `"data":null`) {
		t.Errorf("explicit null data missing: %s", body)
	}
}

func TestWriteSuccessOmitsEmptyFields(t *testing.T) {
	rr := httptest.NewRecorder()
	writeSuccess(rr, "done", map[string]string{"a": "b"})

	body := rr.Body.String()
	for _, absent := range []string{`"error"`, `"base64"`} {
		if strings.Contains(body, absent) {
			t.Errorf("field %s should be omitted: %s", absent, body)
		}
	}
}

func TestWriteImageHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	writeImage(rr, "image/png", "qr.png", []byte{1, 2, 3})

	if got := rr.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rr.Header().Get("Content-Disposition"); got != `inline; filename="qr.png"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if got := rr.Header().Get("Content-Length"); got != "3" {
		t.Errorf("Content-Length = %q", got)
	}
}

// ---------------------------------------------------------------------------
// System handler
// ---------------------------------------------------------------------------

func newSystemHandler(t *testing.T) (*SystemHandler, *keystore.Store) {
	t.Helper()
	store, err := keystore.Open(filepath.Join(t.TempDir(), "api_keys.json"))
	if err != nil {
		t.Fatalf("keystore.Open: %v", err)
	}
	return NewSystemHandler(store), store
}

func TestCreateKeyEmptyBody(t *testing.T) {
	h, store := newSystemHandler(t)

	rr := httptest.NewRecorder()
	h.CreateKey(rr, httptest.NewRequest("POST", "/system/api-key", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rr.Code, rr.Body.String())
	}
	if store.Len() != 1 {
		t.Errorf("store length = %d, want 1", store.Len())
	}

	var env struct {
		Data keystore.Record `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("body: %v", err)
	}
	if env.Data.CreatedBy != keystore.DefaultCreatedBy {
		t.Errorf("created_by = %q, want default attribution", env.Data.CreatedBy)
	}
}

func TestCreateKeyMalformedBody(t *testing.T) {
	h, store := newSystemHandler(t)

	rr := httptest.NewRecorder()
	h.CreateKey(rr, httptest.NewRequest("POST", "/system/api-key",
		strings.NewReader(`{"created_by":`)))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
	if store.Len() != 0 {
		t.Errorf("malformed request must not issue a key")
	}
}

func TestListKeysShape(t *testing.T) {
	h, store := newSystemHandler(t)
	if _, err := store.Issue("alice"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Issue("bob"); err != nil {
		t.Fatal(err)
	}

	rr := httptest.NewRecorder()
	h.ListKeys(rr, httptest.NewRequest("GET", "/system/api-key", nil))

	var env struct {
		OK   bool              `json:"ok"`
		Data []keystore.Record `json:"data"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("body: %v", err)
	}
	if !env.OK || len(env.Data) != 2 {
		t.Fatalf("unexpected listing: %+v", env)
	}
	for _, rec := range env.Data {
		if !strings.HasPrefix(rec.Key, keystore.KeyPrefix) || rec.Created == "" {
			t.Errorf("record %+v incomplete", rec)
		}
	}
}
