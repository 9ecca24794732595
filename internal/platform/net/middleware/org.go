package middleware

import (
	"net/http"
	"strings"

	pnet "sigscore/internal/platform/net"
)

// Org copies the X-Org-ID header onto the request context so repos and
// loggers can scope work per organization. Session mechanics live upstream;
// by the time requests reach this service the header is trusted.
func Org() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if org := strings.TrimSpace(r.Header.Get("X-Org-ID")); org != "" {
				r = r.WithContext(pnet.WithRequest(r.Context(), "", org))
			}
			next.ServeHTTP(w, r)
		})
	}
}
