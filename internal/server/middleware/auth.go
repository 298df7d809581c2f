package middleware

import (
	"net/http"

	"github.com/zachlagden/zlapi/internal/service"
)

// RequireKey returns a middleware that rejects requests whose api_key
// query parameter is absent or matches neither an issued key nor the
// master credential. The rejection body is the canonical 401 envelope.
func RequireKey(auth *service.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.Authenticate(r.URL.Query().Get("api_key")) {
				writeInvalidKey(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMaster returns a middleware for privileged routes. Only the
// master credential passes; issued API keys are rejected with the same
// envelope so the response does not reveal which check failed.
func RequireMaster(auth *service.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.IsMaster(r.URL.Query().Get("api_key")) {
				writeInvalidKey(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// writeInvalidKey emits the canonical unauthenticated envelope. The JSON
// is built by hand to avoid an import cycle with the handler package.
func writeInvalidKey(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	w.Write([]byte(`{"ok":false,"status":401,"message":"Invalid API key"}` + "\n"))
}
