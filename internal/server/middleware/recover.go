package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
)

// Recover converts a handler panic into the 500 envelope instead of an
// unhandled fault, so a single bad request never affects the process or
// leaks a stack trace to the caller.
func Recover(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("panic recovered",
					"panic", fmt.Sprint(rec),
					"path", r.URL.Path,
					"request_id", GetRequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"ok":false,"status":500,"message":"Internal server error"}` + "\n"))
			}()
			next.ServeHTTP(w, r)
		})
	}
}
