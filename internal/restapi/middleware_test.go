package restapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIPPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	r.RemoteAddr = "10.0.0.1:4000"

	if got := clientIP(r); got != "203.0.113.9" {
		t.Errorf("clientIP() = %q, want 203.0.113.9", got)
	}
}

func TestClientIPFallsBackToRealIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("X-Real-IP", "198.51.100.2")
	r.RemoteAddr = "10.0.0.1:4000"

	if got := clientIP(r); got != "198.51.100.2" {
		t.Errorf("clientIP() = %q, want 198.51.100.2", got)
	}
}

func TestClientIPFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "10.0.0.1:4000"

	if got := clientIP(r); got != "10.0.0.1" {
		t.Errorf("clientIP() = %q, want 10.0.0.1", got)
	}
}
