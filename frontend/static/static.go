// Package static serves the site's embedded assets.
package static

import (
	"embed"
	"net/http"
)

//go:embed style.css
var files embed.FS

// Handler serves the embedded assets from the site root, so the
// stylesheet is reachable at /style.css.
func Handler() http.Handler {
	return http.FileServer(http.FS(files))
}
