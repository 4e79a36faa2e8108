package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"intelligencedev/backend/auth"
	"intelligencedev/backend/mailer"
	"intelligencedev/backend/session"
	"intelligencedev/frontend/templates"
)

func LoginPage(w http.ResponseWriter, r *http.Request) {
	templates.Login(w, templates.LoginData{
		CSRFToken:    session.CSRFToken(r, w),
		GlobalErrors: session.ConsumeGlobalErrors(r, w),
	})
}

func Login(w http.ResponseWriter, r *http.Request) {
	identifier := strings.TrimSpace(r.FormValue("identifier"))
	password := r.FormValue("password")

	if !session.ValidateCSRF(r, r.FormValue("csrf_token")) {
		templates.Login(w, templates.LoginData{
			CSRFToken:  session.RegenerateCSRF(r, w),
			Errors:     []string{msgSessionExpired},
			Identifier: identifier,
		})
		return
	}

	res := Auth.Authenticate(r.Context(), identifier, password)
	if !res.Success {
		slog.Warn("login failed", "source", "auth", "identifier", identifier)
		templates.Login(w, templates.LoginData{
			CSRFToken:  session.CSRFToken(r, w),
			Errors:     res.Errors,
			Identifier: identifier,
		})
		return
	}

	if err := session.SignIn(r, w, res.UserID); err != nil {
		slog.Error("session sign-in failed", "source", "auth", "error", err.Error())
		templates.Login(w, templates.LoginData{
			CSRFToken:  session.CSRFToken(r, w),
			Errors:     []string{auth.MsgInternal},
			Identifier: identifier,
		})
		return
	}

	slog.Info("user logged in", "source", "auth", "user_id", res.UserID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func RegisterPage(w http.ResponseWriter, r *http.Request) {
	templates.Register(w, templates.RegisterData{
		CSRFToken:    session.CSRFToken(r, w),
		GlobalErrors: session.ConsumeGlobalErrors(r, w),
	})
}

func Register(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")

	if !session.ValidateCSRF(r, r.FormValue("csrf_token")) {
		templates.Register(w, templates.RegisterData{
			CSRFToken: session.RegenerateCSRF(r, w),
			Errors:    []string{msgSessionExpired},
			Username:  username,
			Email:     email,
		})
		return
	}

	res := Auth.Register(r.Context(), username, email, password)
	if !res.Success {
		slog.Warn("registration failed", "source", "auth", "username", username, "email", email)
		templates.Register(w, templates.RegisterData{
			CSRFToken: session.CSRFToken(r, w),
			Errors:    res.Errors,
			Username:  res.Username,
			Email:     res.Email,
		})
		return
	}

	// Registration is not atomic with delivery: if the code cannot be
	// sent, the account is rolled back so it is not orphaned behind an
	// unreachable mailbox.
	if Mail != nil {
		if err := Mail.SendVerificationEmail(r.Context(), res.Email, res.Username, res.VerificationCode); err != nil {
			var terr *mailer.TransportError
			if errors.As(err, &terr) {
				slog.Error("verification email delivery failed", "source", "mail", "error", terr.Error())
			} else {
				slog.Error("verification email delivery failed", "source", "mail", "error", err.Error())
			}
			if derr := Auth.DeleteUserByID(r.Context(), res.UserID); derr != nil {
				slog.Error("registration rollback failed", "source", "auth", "user_id", res.UserID, "error", derr.Error())
			}
			templates.Register(w, templates.RegisterData{
				CSRFToken: session.CSRFToken(r, w),
				Errors:    []string{auth.MsgInternal},
				Username:  res.Username,
				Email:     res.Email,
			})
			return
		}
	} else {
		session.SetPendingVerification(r, w, session.PendingVerification{
			UserID: res.UserID,
			Email:  res.Email,
			Code:   res.VerificationCode,
		})
	}

	slog.Info("user registered", "source", "auth", "user_id", res.UserID, "email", res.Email)
	session.RegenerateCSRF(r, w)
	http.Redirect(w, r, "/verify", http.StatusSeeOther)
}

func Logout(w http.ResponseWriter, r *http.Request) {
	if !session.ValidateCSRF(r, r.FormValue("csrf_token")) {
		session.RegenerateCSRF(r, w)
		session.AddGlobalError(r, w, msgSessionExpired)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	userID, _ := session.CurrentUserID(r)
	if err := session.SignOut(r, w); err != nil {
		slog.Error("session sign-out failed", "source", "auth", "error", err.Error())
	}
	slog.Info("user logged out", "source", "auth", "user_id", userID)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
