package handlers

import (
	"net/http"

	"intelligencedev/backend/auth"
	"intelligencedev/backend/mailer"
	"intelligencedev/backend/metrics"
	"intelligencedev/backend/models"
	"intelligencedev/backend/session"
)

// Collaborators are wired in main. Mail may be nil when the transport is
// configured as "none"; the verification code is then surfaced on the
// verify page instead of being emailed.
var (
	Auth    *auth.Service
	Mail    mailer.Mailer
	Metrics *metrics.Service
)

// Message shown when a POST arrives with a stale or missing CSRF token.
const msgSessionExpired = "Your session has expired. Please try again."

// currentUser resolves the session principal to a user projection.
var currentUser = func(r *http.Request) *models.User {
	id, ok := session.CurrentUserID(r)
	if !ok {
		return nil
	}
	user, err := Auth.GetUserByID(r.Context(), id)
	if err != nil {
		return nil
	}
	return user
}
