package session

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"intelligencedev/backend/config"

	"github.com/gorilla/sessions"
)

var tokenPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

func setupStore(t *testing.T) {
	t.Helper()
	config.C.Session.Secret = strings.Repeat("s", 32)
	config.C.Session.Timeout = time.Hour
	config.C.TLS.Enabled = false
	Store = sessions.NewFilesystemStore(t.TempDir(), []byte(config.C.Session.Secret))
	Store.MaxLength(8192)
	Store.Options = defaultOptions()
}

// sessionCookie returns the last session cookie written to the recorder.
// Rotation writes an expiring cookie first, so the last one is live.
func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == cookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected a session cookie to be issued")
	}
	return cookie
}

func requestWithCookie(cookie *http.Cookie) *http.Request {
	r := httptest.NewRequest("GET", "/", nil)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r
}

func TestInit_ValidatesSecret(t *testing.T) {
	config.C.Session.Secret = ""
	if err := Init(); err == nil {
		t.Error("Empty secret must be rejected")
	}

	config.C.Session.Secret = "tooshort"
	if err := Init(); err == nil {
		t.Error("Short secret must be rejected")
	}

	config.C.Session.Secret = strings.Repeat("s", 32)
	config.C.Session.Timeout = time.Hour
	if err := Init(); err != nil {
		t.Fatalf("Valid secret rejected: %v", err)
	}
	if Store == nil {
		t.Fatal("Expected the store to be configured")
	}
	if !Store.Options.HttpOnly {
		t.Error("Session cookie must be HttpOnly")
	}
	if Store.Options.SameSite != http.SameSiteLaxMode {
		t.Error("Session cookie must default to SameSite=Lax")
	}
}

func TestCSRFToken_MintedOnFirstUse(t *testing.T) {
	setupStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	token := CSRFToken(r, rec)
	if !tokenPattern.MatchString(token) {
		t.Fatalf("Expected a 64-char hex token, got %q", token)
	}

	// A later request with the same cookie sees the same token.
	r2 := requestWithCookie(sessionCookie(t, rec))
	if got := CSRFToken(r2, httptest.NewRecorder()); got != token {
		t.Errorf("Token changed across requests: %q vs %q", got, token)
	}
}

func TestValidateCSRF(t *testing.T) {
	setupStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	token := CSRFToken(r, rec)

	if !ValidateCSRF(r, token) {
		t.Error("The session's own token must validate")
	}
	if ValidateCSRF(r, "") {
		t.Error("An empty submission must not validate")
	}
	if ValidateCSRF(r, strings.Repeat("0", 64)) {
		t.Error("A mismatched token must not validate")
	}

	// A session with no token yet rejects everything.
	fresh := httptest.NewRequest("GET", "/other", nil)
	if ValidateCSRF(fresh, token) {
		t.Error("A tokenless session must not validate any submission")
	}
}

func TestRegenerateCSRF_InvalidatesOldToken(t *testing.T) {
	setupStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	old := CSRFToken(r, rec)

	fresh := RegenerateCSRF(r, rec)
	if fresh == old {
		t.Fatal("Regeneration must produce a different token")
	}
	if ValidateCSRF(r, old) {
		t.Error("The old token must no longer validate")
	}
	if !ValidateCSRF(r, fresh) {
		t.Error("The fresh token must validate")
	}
}

func TestSignIn_RotatesSessionID(t *testing.T) {
	setupStore(t)

	// Establish an anonymous session first.
	r1 := httptest.NewRequest("GET", "/", nil)
	rec1 := httptest.NewRecorder()
	CSRFToken(r1, rec1)
	before := sessionCookie(t, rec1)

	r2 := requestWithCookie(before)
	rec2 := httptest.NewRecorder()
	if err := SignIn(r2, rec2, 42); err != nil {
		t.Fatal(err)
	}
	after := sessionCookie(t, rec2)
	if after.Value == before.Value {
		t.Error("Session identifier must change on sign-in")
	}

	// The new session carries the principal.
	r3 := requestWithCookie(after)
	if id, ok := CurrentUserID(r3); !ok || id != 42 {
		t.Errorf("Expected user 42 on the new session, got %d %v", id, ok)
	}

	// The pre-login identifier is dead.
	r4 := requestWithCookie(before)
	if _, ok := CurrentUserID(r4); ok {
		t.Error("The pre-login session must not be promoted")
	}
}

func TestSignOut_ClearsSession(t *testing.T) {
	setupStore(t)

	r1 := httptest.NewRequest("GET", "/", nil)
	rec1 := httptest.NewRecorder()
	if err := SignIn(r1, rec1, 42); err != nil {
		t.Fatal(err)
	}
	signedIn := sessionCookie(t, rec1)

	r2 := requestWithCookie(signedIn)
	rec2 := httptest.NewRecorder()
	if err := SignOut(r2, rec2); err != nil {
		t.Fatal(err)
	}
	signedOut := sessionCookie(t, rec2)
	if signedOut.Value == signedIn.Value {
		t.Error("Session identifier must change on sign-out")
	}

	r3 := requestWithCookie(signedOut)
	if _, ok := CurrentUserID(r3); ok {
		t.Error("No principal expected after sign-out")
	}
	// A fresh CSRF token is already present for the next form.
	if token := CSRFToken(r3, httptest.NewRecorder()); !tokenPattern.MatchString(token) {
		t.Errorf("Expected a fresh token after sign-out, got %q", token)
	}
}

func TestGlobalErrors_OneShotAndDeduplicated(t *testing.T) {
	setupStore(t)

	r := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()

	AddGlobalError(r, rec, "session expired")
	AddGlobalError(r, rec, "session expired")
	AddGlobalError(r, rec, "something else")

	errs := ConsumeGlobalErrors(r, rec)
	if len(errs) != 2 {
		t.Fatalf("Expected two distinct messages, got %v", errs)
	}

	if again := ConsumeGlobalErrors(r, rec); len(again) != 0 {
		t.Errorf("Messages must be consumed once, got %v", again)
	}
}

func TestPendingVerification_RoundTrip(t *testing.T) {
	setupStore(t)

	r1 := httptest.NewRequest("GET", "/", nil)
	rec1 := httptest.NewRecorder()
	SetPendingVerification(r1, rec1, PendingVerification{UserID: 7, Email: "alice@example.com", Code: "123456"})

	r2 := requestWithCookie(sessionCookie(t, rec1))
	pending, ok := GetPendingVerification(r2)
	if !ok {
		t.Fatal("Expected the pending record to survive the cookie round trip")
	}
	if pending.UserID != 7 || pending.Email != "alice@example.com" || pending.Code != "123456" {
		t.Errorf("Unexpected pending record: %+v", pending)
	}

	rec2 := httptest.NewRecorder()
	ClearPendingVerification(r2, rec2)

	r3 := requestWithCookie(sessionCookie(t, rec2))
	if _, ok := GetPendingVerification(r3); ok {
		t.Error("Expected the pending record to be cleared")
	}
}
