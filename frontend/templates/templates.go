package templates

import (
	"embed"
	"html/template"
	"io"

	"intelligencedev/backend/metrics"
	"intelligencedev/backend/models"
	"intelligencedev/backend/session"
)

//go:embed *.html
var files embed.FS

var pages = template.Must(template.ParseFS(files, "*.html"))

type HomeData struct {
	GlobalErrors []string
	User         *models.User
	Metrics      metrics.HeroMetrics
}

type LoginData struct {
	CSRFToken    string
	GlobalErrors []string
	Errors       []string
	Identifier   string
}

type RegisterData struct {
	CSRFToken    string
	GlobalErrors []string
	Errors       []string
	Username     string
	Email        string
	Success      bool
}

type VerifyData struct {
	CSRFToken    string
	GlobalErrors []string
	Errors       []string
	ResendErrors []string
	Email        string
	Code         string
	ResendEmail  string
	Success      bool
	ResentCode   string
	Pending      *session.PendingVerification
}

type ProfileData struct {
	CSRFToken    string
	GlobalErrors []string
	User         *models.User
}

func Home(w io.Writer, d HomeData) error {
	return pages.ExecuteTemplate(w, "home.html", d)
}

func Login(w io.Writer, d LoginData) error {
	return pages.ExecuteTemplate(w, "login.html", d)
}

func Register(w io.Writer, d RegisterData) error {
	return pages.ExecuteTemplate(w, "register.html", d)
}

func Verify(w io.Writer, d VerifyData) error {
	return pages.ExecuteTemplate(w, "verify.html", d)
}

func Profile(w io.Writer, d ProfileData) error {
	return pages.ExecuteTemplate(w, "profile.html", d)
}
