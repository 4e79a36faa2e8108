package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"intelligencedev/backend/config"
	"intelligencedev/backend/session"
)

func TestRequireAuth(t *testing.T) {
	config.C.Session.Secret = strings.Repeat("s", 32)
	config.C.Session.Timeout = time.Hour
	config.C.TLS.Enabled = false
	if err := session.Init(); err != nil {
		t.Fatal(err)
	}

	called := false
	handler := RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	// Anonymous request is redirected.
	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest("GET", "/profile", nil))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/login" {
		t.Fatalf("Expected redirect to /login, got %d %s", rec.Code, rec.Header().Get("Location"))
	}
	if called {
		t.Fatal("Handler must not run for anonymous visitors")
	}

	// A signed-in session passes through.
	signIn := httptest.NewRequest("GET", "/", nil)
	signInRec := httptest.NewRecorder()
	if err := session.SignIn(signIn, signInRec, 42); err != nil {
		t.Fatal(err)
	}
	var cookie *http.Cookie
	for _, c := range signInRec.Result().Cookies() {
		if c.Name == "session" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("Expected a session cookie")
	}

	req := httptest.NewRequest("GET", "/profile", nil)
	req.AddCookie(cookie)
	rec = httptest.NewRecorder()
	handler(rec, req)
	if !called || rec.Code != http.StatusOK {
		t.Errorf("Expected the handler to run for a signed-in session, got %d", rec.Code)
	}
}
