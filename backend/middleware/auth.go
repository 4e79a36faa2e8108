package middleware

import (
	"net/http"

	"intelligencedev/backend/session"
)

// RequireAuth redirects anonymous visitors to the login page.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := session.CurrentUserID(r); !ok {
			http.Redirect(w, r, "/login", http.StatusSeeOther)
			return
		}
		next(w, r)
	}
}
