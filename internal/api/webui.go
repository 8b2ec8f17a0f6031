// Copyright (c) 2026 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

package api

import (
	"embed"
	"io/fs"
	"net/http"
	"strings"
)

//go:embed all:web
var uiFS embed.FS

// uiHandler serves the embedded web UI with correct caching + CSP.
// It is self-contained: embed + serving live together in api.
func uiHandler(csp string) http.Handler {
	subFS, err := fs.Sub(uiFS, "web")
	var fileServer http.Handler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "UI not available", http.StatusInternalServerError)
	})
	if err == nil {
		fileServer = http.FileServer(http.FS(subFS))
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Security-Policy", csp)

		// index.html must revalidate so a redeploy shows up immediately.
		// The other assets are unhashed, so a day with revalidation is
		// as far as caching can safely go.
		path := r.URL.Path
		if path == "/" || path == "/index.html" || path == "" || !strings.Contains(path, ".") {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
			w.Header().Set("Pragma", "no-cache")
			w.Header().Set("Expires", "0")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=86400")
		}

		fileServer.ServeHTTP(w, r)
	})
}
