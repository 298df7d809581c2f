package middleware

import (
	"net"
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// RateLimit returns a middleware limiting each request identity to the
// given number of requests per window. Stack two of these for the
// hour/day pair.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window, httprate.WithKeyFuncs(requestIdentity))
}

// requestIdentity derives the rate-limit key: the api_key query parameter
// when present, else the caller's network address, else the trusted
// proxy-forwarded header. This precedence must stay in agreement with how
// the authenticator reads credentials.
func requestIdentity(r *http.Request) (string, error) {
	if key := r.URL.Query().Get("api_key"); key != "" {
		return key, nil
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil && host != "" {
		return host, nil
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr, nil
	}
	return r.Header.Get("Cf-Connecting-Ip"), nil
}
