package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"intelligencedev/backend/auth"
	"intelligencedev/backend/session"
	"intelligencedev/frontend/templates"
)

func VerifyPage(w http.ResponseWriter, r *http.Request) {
	data := templates.VerifyData{
		CSRFToken:    session.CSRFToken(r, w),
		GlobalErrors: session.ConsumeGlobalErrors(r, w),
	}
	if pending, ok := session.GetPendingVerification(r); ok {
		data.Pending = &pending
		data.Email = pending.Email
		data.ResendEmail = pending.Email
	}
	templates.Verify(w, data)
}

// Verify handles both form actions on the verification page: "verify"
// checks a submitted code, "resend" rotates it.
func Verify(w http.ResponseWriter, r *http.Request) {
	action := r.FormValue("action")
	if action == "" {
		action = "verify"
	}

	data := templates.VerifyData{}
	if pending, ok := session.GetPendingVerification(r); ok {
		data.Pending = &pending
	}

	if action == "resend" {
		data.ResendEmail = strings.TrimSpace(r.FormValue("resend_email"))
	} else {
		data.Email = strings.TrimSpace(r.FormValue("email"))
		data.Code = strings.TrimSpace(r.FormValue("code"))
		data.ResendEmail = data.Email
	}

	if !session.ValidateCSRF(r, r.FormValue("csrf_token")) {
		data.CSRFToken = session.RegenerateCSRF(r, w)
		if action == "resend" {
			data.ResendErrors = []string{msgSessionExpired}
		} else {
			data.Errors = []string{msgSessionExpired}
		}
		templates.Verify(w, data)
		return
	}

	if action == "resend" {
		verifyResend(w, r, &data)
	} else {
		verifyCode(w, r, &data)
	}
	templates.Verify(w, data)
}

func verifyCode(w http.ResponseWriter, r *http.Request, data *templates.VerifyData) {
	email := data.Email
	// Older clients post a numeric user id instead of an email; map it at
	// the boundary so the service only ever sees email addressing.
	if email == "" {
		if id, err := strconv.ParseUint(r.FormValue("user_id"), 10, 32); err == nil {
			if user, err := Auth.GetUserByID(r.Context(), uint(id)); err == nil && user != nil {
				email = user.Email
			}
		}
	}
	if email == "" {
		if data.Pending != nil {
			email = data.Pending.Email
		}
	}

	res := Auth.VerifyEmail(r.Context(), email, data.Code)
	if !res.Success {
		data.CSRFToken = session.CSRFToken(r, w)
		data.Errors = res.Errors
		return
	}

	session.ClearPendingVerification(r, w)
	data.Pending = nil
	data.Success = true
	data.Email = ""
	data.Code = ""
	data.ResendEmail = ""
	data.CSRFToken = session.RegenerateCSRF(r, w)
}

func verifyResend(w http.ResponseWriter, r *http.Request, data *templates.VerifyData) {
	res := Auth.ResendVerificationCode(r.Context(), data.ResendEmail)
	if !res.Success {
		data.CSRFToken = session.CSRFToken(r, w)
		data.ResendErrors = res.Errors
		return
	}

	if Mail != nil {
		if err := Mail.SendVerificationEmail(r.Context(), res.Email, res.Username, res.VerificationCode); err != nil {
			slog.Error("verification email delivery failed", "source", "mail", "error", err.Error())
			data.CSRFToken = session.CSRFToken(r, w)
			data.ResendErrors = []string{auth.MsgInternal}
			return
		}
		slog.Info("verification code resent", "source", "auth", "user_id", res.UserID)
	} else {
		// No transport: show the fresh code inline, as after registration.
		pending := session.PendingVerification{UserID: res.UserID, Email: res.Email, Code: res.VerificationCode}
		session.SetPendingVerification(r, w, pending)
		data.Pending = &pending
		data.ResentCode = res.VerificationCode
	}

	data.CSRFToken = session.RegenerateCSRF(r, w)
}
