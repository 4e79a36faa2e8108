package session

import (
	"encoding/gob"
	"errors"
	"net/http"

	"intelligencedev/backend/config"

	"github.com/gorilla/sessions"
)

const cookieName = "session"

// Store keeps session state server-side, keyed by the identifier in the
// cookie. The filesystem backend defaults to os.TempDir.
var Store *sessions.FilesystemStore

// PendingVerification is stashed in the session after a registration whose
// code could not be emailed, so the verify page can show it inline.
type PendingVerification struct {
	UserID uint
	Email  string
	Code   string
}

func init() {
	gob.Register([]string{})
	gob.Register(PendingVerification{})
}

// Init configures the session store from config. The secret must be set
// and long enough to be useful.
func Init() error {
	secret := config.C.Session.Secret
	if secret == "" {
		return errors.New("session secret is empty (set SESSION_SECRET or session.secret)")
	}
	if len(secret) < 32 {
		return errors.New("session secret must be at least 32 characters")
	}

	Store = sessions.NewFilesystemStore("", []byte(secret))
	Store.MaxLength(8192)
	Store.Options = defaultOptions()
	return nil
}

func defaultOptions() *sessions.Options {
	return &sessions.Options{
		Path:     "/",
		MaxAge:   int(config.C.Session.Timeout.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   config.C.TLS.Enabled,
	}
}

func current(r *http.Request) *sessions.Session {
	s, _ := Store.Get(r, cookieName)
	return s
}

// CurrentUserID returns the authenticated principal, if any.
func CurrentUserID(r *http.Request) (uint, bool) {
	id, ok := current(r).Values["user_id"].(uint)
	return id, ok
}

// SignIn rotates the session identifier before storing the principal, so a
// pre-login session ID fixed by an attacker is never promoted.
func SignIn(r *http.Request, w http.ResponseWriter, userID uint) error {
	s := current(r)
	s.Values["user_id"] = userID
	s.Values["csrf_token"] = newToken()
	return renew(r, w, s)
}

// SignOut clears all session state, drops the server-side record and
// starts a fresh session with a fresh CSRF token.
func SignOut(r *http.Request, w http.ResponseWriter) error {
	s := current(r)
	if s.ID != "" {
		s.Options.MaxAge = -1
		s.Values = make(map[any]any)
		if err := s.Save(r, w); err != nil {
			return err
		}
	}

	s.ID = ""
	s.Options = defaultOptions()
	s.Values = map[any]any{"csrf_token": newToken()}
	return s.Save(r, w)
}

// renew destroys the server-side record for the current identifier and
// re-saves the values under a new one minted by the store.
func renew(r *http.Request, w http.ResponseWriter, s *sessions.Session) error {
	values := make(map[any]any, len(s.Values))
	for k, v := range s.Values {
		values[k] = v
	}

	if s.ID != "" {
		s.Options.MaxAge = -1
		s.Values = make(map[any]any)
		if err := s.Save(r, w); err != nil {
			return err
		}
	}

	s.ID = ""
	s.Options = defaultOptions()
	s.Values = values
	return s.Save(r, w)
}

// AddGlobalError queues a one-shot message shown on the next rendered page.
func AddGlobalError(r *http.Request, w http.ResponseWriter, message string) {
	s := current(r)
	existing, _ := s.Values["global_errors"].([]string)
	for _, m := range existing {
		if m == message {
			return
		}
	}
	s.Values["global_errors"] = append(existing, message)
	s.Save(r, w)
}

// ConsumeGlobalErrors returns queued messages and clears them.
func ConsumeGlobalErrors(r *http.Request, w http.ResponseWriter) []string {
	s := current(r)
	errs, _ := s.Values["global_errors"].([]string)
	if len(errs) > 0 {
		delete(s.Values, "global_errors")
		s.Save(r, w)
	}
	return errs
}

// SetPendingVerification records the account awaiting verification.
func SetPendingVerification(r *http.Request, w http.ResponseWriter, p PendingVerification) {
	s := current(r)
	s.Values["pending_verification"] = p
	s.Save(r, w)
}

// GetPendingVerification returns the pending record, if any.
func GetPendingVerification(r *http.Request) (PendingVerification, bool) {
	p, ok := current(r).Values["pending_verification"].(PendingVerification)
	if !ok || p.UserID == 0 {
		return PendingVerification{}, false
	}
	return p, true
}

// ClearPendingVerification drops the pending record.
func ClearPendingVerification(r *http.Request, w http.ResponseWriter) {
	s := current(r)
	if _, ok := s.Values["pending_verification"]; ok {
		delete(s.Values, "pending_verification")
		s.Save(r, w)
	}
}
