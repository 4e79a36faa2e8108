package handlers

import (
	"net/http"

	"intelligencedev/backend/session"
	"intelligencedev/frontend/templates"
)

func HomePage(w http.ResponseWriter, r *http.Request) {
	templates.Home(w, templates.HomeData{
		GlobalErrors: session.ConsumeGlobalErrors(r, w),
		User:         currentUser(r),
		Metrics:      Metrics.Hero(r.Context()),
	})
}

func ProfilePage(w http.ResponseWriter, r *http.Request) {
	user := currentUser(r)
	if user == nil {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	templates.Profile(w, templates.ProfileData{
		CSRFToken:    session.CSRFToken(r, w),
		GlobalErrors: session.ConsumeGlobalErrors(r, w),
		User:         user,
	})
}
