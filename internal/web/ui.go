package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var staticFS embed.FS

// uiHandler serves the embedded single-page UI.
func uiHandler() http.Handler {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		// The tree is compiled in; a missing subdirectory is a build defect.
		panic(err)
	}
	return http.FileServer(http.FS(sub))
}
