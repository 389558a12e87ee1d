package server

import (
	"io/fs"
	"net/http"
	"strings"
)

// spaFileServer serves static files from assets and falls back to index.html
// for paths that are not real files, so client-side routes like
// /servers/lobby load the dashboard.
func spaFileServer(assets fs.FS) http.Handler {
	fileServer := http.FileServerFS(assets)

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/")
		if path == "" {
			path = "index.html"
		}

		if _, err := fs.Stat(assets, path); err != nil {
			r.URL.Path = "/"
		}

		fileServer.ServeHTTP(w, r)
	})
}
