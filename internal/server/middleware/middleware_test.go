package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/zachlagden/zlapi/internal/keystore"
	"github.com/zachlagden/zlapi/internal/service"
)

const testMaster = "master-key-for-middleware-tests"

func newAuth(t *testing.T) (*service.Authenticator, *keystore.Store) {
	t.Helper()
	store, err := keystore.Open(filepath.Join(t.TempDir(), "api_keys.json"))
	if err != nil {
		t.Fatalf("keystore.Open: %v", err)
	}
	return service.NewAuthenticator(store, testMaster), store
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func assertInvalidKeyEnvelope(t *testing.T, rr *httptest.ResponseRecorder) {
	t.Helper()
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rr.Code)
	}
	var env struct {
		OK      bool   `json:"ok"`
		Status  int    `json:"status"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &env); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if env.OK || env.Status != 401 || env.Message != "Invalid API key" {
		t.Errorf("unexpected envelope: %+v", env)
	}
}

// ---------------------------------------------------------------------------
// RequireKey / RequireMaster
// ---------------------------------------------------------------------------

func TestRequireKeyRejectsMissingCredential(t *testing.T) {
	auth, _ := newAuth(t)
	h := RequireKey(auth)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))
	assertInvalidKeyEnvelope(t, rr)
}

func TestRequireKeyRejectsUnknownCredential(t *testing.T) {
	auth, _ := newAuth(t)
	h := RequireKey(auth)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/x?api_key=ZLAPI-bogus", nil))
	assertInvalidKeyEnvelope(t, rr)
}

func TestRequireKeyAcceptsIssuedKeyAndMaster(t *testing.T) {
	auth, store := newAuth(t)
	rec, err := store.Issue("mw-test")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	h := RequireKey(auth)(okHandler())

	for _, key := range []string{rec.Key, testMaster} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/x?api_key="+key, nil))
		if rr.Code != http.StatusOK {
			t.Errorf("key %q: status = %d, want 200", key, rr.Code)
		}
	}
}

func TestRequireMasterRejectsIssuedKey(t *testing.T) {
	auth, store := newAuth(t)
	rec, err := store.Issue("mw-test")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	h := RequireMaster(auth)(okHandler())

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/x?api_key="+rec.Key, nil))
	assertInvalidKeyEnvelope(t, rr)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/x?api_key="+testMaster, nil))
	if rr.Code != http.StatusOK {
		t.Errorf("master: status = %d, want 200", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// RequestID
// ---------------------------------------------------------------------------

func TestRequestIDGenerated(t *testing.T) {
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRequestID(r.Context()) == "" {
			t.Error("expected request ID in context")
		}
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/x", nil))
	if id := rr.Header().Get("X-Request-ID"); len(id) != 36 {
		t.Errorf("X-Request-ID = %q, want a UUID", id)
	}
}

func TestRequestIDPreserved(t *testing.T) {
	h := RequestID(okHandler())
	req := httptest.NewRequest("GET", "/x", nil)
	req.Header.Set("X-Request-ID", "client-id-1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got != "client-id-1" {
		t.Errorf("X-Request-ID = %q, want client-id-1", got)
	}
}

func TestGetRequestIDBareContext(t *testing.T) {
	if id := GetRequestID(context.Background()); id != "" {
		t.Errorf("got %q, want empty", id)
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func TestRateLimitByAPIKey(t *testing.T) {
	h := RateLimit(2, time.Minute)(okHandler())

	for i := 0; i < 2; i++ {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest("GET", "/x?api_key=limited", nil))
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rr.Code)
		}
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/x?api_key=limited", nil))
	if rr.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rr.Code)
	}

	// A different identity is unaffected.
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/x?api_key=other", nil))
	if rr.Code != http.StatusOK {
		t.Errorf("other identity: status = %d, want 200", rr.Code)
	}
}

func TestRequestIdentityPrecedence(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?api_key=the-key", nil)
	r.RemoteAddr = "203.0.113.9:4444"
	if id, _ := requestIdentity(r); id != "the-key" {
		t.Errorf("identity = %q, want api_key value", id)
	}

	r = httptest.NewRequest("GET", "/x", nil)
	r.RemoteAddr = "203.0.113.9:4444"
	if id, _ := requestIdentity(r); id != "203.0.113.9" {
		t.Errorf("identity = %q, want remote host", id)
	}

	r = httptest.NewRequest("GET", "/x", nil)
	r.RemoteAddr = ""
	r.Header.Set("Cf-Connecting-Ip", "198.51.100.7")
	if id, _ := requestIdentity(r); id != "198.51.100.7" {
		t.Errorf("identity = %q, want forwarded address", id)
	}
}
