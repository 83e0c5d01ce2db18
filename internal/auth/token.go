package auth

import (
	"crypto/subtle"
	"net/http"
)

// Credentials holds the single shared Basic Auth username/password pair
// used to authenticate every call into the controller's REST surface.
type Credentials struct {
	Username string
	Password string
}

// ExtractBasicAuth pulls the username/password pair off the request's
// Authorization header. ok is false if the header is missing or malformed.
func ExtractBasicAuth(r *http.Request) (username, password string, ok bool) {
	return r.BasicAuth()
}

// AuthorizeBasicAuth compares got against expected using constant-time
// comparisons on both fields, so a partial username match cannot be used to
// probe the password length or content.
func AuthorizeBasicAuth(got, expected Credentials) bool {
	userOK := subtle.ConstantTimeCompare([]byte(got.Username), []byte(expected.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(got.Password), []byte(expected.Password)) == 1
	return userOK && passOK
}

// AuthorizeRequest extracts Basic Auth credentials from r and validates them
// against expected. Returns false if the header is absent or the
// credentials don't match.
func AuthorizeRequest(r *http.Request, expected Credentials) bool {
	if r == nil {
		return false
	}
	username, password, ok := ExtractBasicAuth(r)
	if !ok {
		return false
	}
	return AuthorizeBasicAuth(Credentials{Username: username, Password: password}, expected)
}
