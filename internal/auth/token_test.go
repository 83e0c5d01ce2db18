package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractBasicAuth(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/api/sessions", nil)
	r.SetBasicAuth("recorder", "s3cr3t")

	user, pass, ok := ExtractBasicAuth(r)
	if !ok {
		t.Fatal("ExtractBasicAuth() ok = false, want true")
	}
	if user != "recorder" || pass != "s3cr3t" {
		t.Fatalf("ExtractBasicAuth() = %q/%q, want recorder/s3cr3t", user, pass)
	}
}

func TestExtractBasicAuth_Missing(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "http://example.local/api/sessions", nil)
	if _, _, ok := ExtractBasicAuth(r); ok {
		t.Fatal("ExtractBasicAuth() ok = true, want false for missing header")
	}
}

func TestAuthorizeBasicAuth(t *testing.T) {
	expected := Credentials{Username: "recorder", Password: "s3cr3t"}

	if !AuthorizeBasicAuth(Credentials{Username: "recorder", Password: "s3cr3t"}, expected) {
		t.Fatal("AuthorizeBasicAuth should accept exact match")
	}
	if AuthorizeBasicAuth(Credentials{Username: "recorder", Password: "wrong"}, expected) {
		t.Fatal("AuthorizeBasicAuth should reject wrong password")
	}
	if AuthorizeBasicAuth(Credentials{Username: "other", Password: "s3cr3t"}, expected) {
		t.Fatal("AuthorizeBasicAuth should reject wrong username")
	}
	if AuthorizeBasicAuth(Credentials{}, expected) {
		t.Fatal("AuthorizeBasicAuth should reject empty credentials")
	}
}

func TestAuthorizeRequest(t *testing.T) {
	expected := Credentials{Username: "recorder", Password: "s3cr3t"}

	r := httptest.NewRequest(http.MethodGet, "http://example.local/api/sessions", nil)
	r.SetBasicAuth("recorder", "s3cr3t")
	if !AuthorizeRequest(r, expected) {
		t.Fatal("AuthorizeRequest should accept matching Basic Auth header")
	}

	bad := httptest.NewRequest(http.MethodGet, "http://example.local/api/sessions", nil)
	bad.SetBasicAuth("recorder", "wrong")
	if AuthorizeRequest(bad, expected) {
		t.Fatal("AuthorizeRequest should reject mismatching credentials")
	}

	missing := httptest.NewRequest(http.MethodGet, "http://example.local/api/sessions", nil)
	if AuthorizeRequest(missing, expected) {
		t.Fatal("AuthorizeRequest should reject request with no Authorization header")
	}
}
