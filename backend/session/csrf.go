package session

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
)

// CSRFToken returns the session's token, minting one on first use so a
// token always exists before any form is rendered.
func CSRFToken(r *http.Request, w http.ResponseWriter) string {
	s := current(r)
	token, _ := s.Values["csrf_token"].(string)
	if token == "" {
		token = newToken()
		s.Values["csrf_token"] = token
		s.Save(r, w)
	}
	return token
}

// RegenerateCSRF replaces the token after a successful mutating action or
// a failed validation, invalidating the old value.
func RegenerateCSRF(r *http.Request, w http.ResponseWriter) string {
	s := current(r)
	token := newToken()
	s.Values["csrf_token"] = token
	s.Save(r, w)
	return token
}

// ValidateCSRF accepts a submitted token only if both it and the session
// token are non-empty and equal under constant-time comparison.
func ValidateCSRF(r *http.Request, submitted string) bool {
	token, _ := current(r).Values["csrf_token"].(string)
	if token == "" || submitted == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(submitted)) == 1
}

func newToken() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}
