package restapi

import (
	"net"
	"net/http"
	"strings"

	"github.com/naevatec/ov2-ha-recorder-sub001/internal/auth"
)

// basicAuth returns middleware enforcing the single shared Basic Auth
// credential pair required by every /api/sessions endpoint except the
// health probe.
func basicAuth(creds auth.Credentials) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !auth.AuthorizeRequest(r, creds) {
				w.Header().Set("WWW-Authenticate", `Basic realm="ha-recorder"`)
				respondError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// clientIP infers the caller's address per §6: X-Forwarded-For (first
// token), then X-Real-IP, then the socket peer.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xr := r.Header.Get("X-Real-IP"); xr != "" {
		return xr
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return r.RemoteAddr
}
