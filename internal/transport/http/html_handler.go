package http

import (
	"html/template"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"usdataexplorer/pkg/contracts"
)

var landingPage = template.Must(template.New("landing").Parse(`<!DOCTYPE html>
<html>
<head>
    <title>US Data Explorer</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 40px; }
        code { background: #f4f4f4; padding: 2px 4px; }
    </style>
</head>
<body>
    <h1>US Data Explorer {{.Version}}</h1>
    <p>No web client is installed. The API is available at:</p>
    <ul>
    {{range .Links}}<li><a href="{{.}}"><code>{{.}}</code></a></li>
    {{end}}</ul>
</body>
</html>
`))

var landingLinks = []string{
	"/api/health",
	"/api/version",
	"/api/datasets",
	"/api/elections/president/years",
	"/api/ev/overview",
	"/api/border/overview",
	"/metrics",
}

// ServeMainApp serves the web client's index.html, or a landing page listing
// the API when no client is installed
func ServeMainApp(webDir string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		indexPath := filepath.Join(webDir, "index.html")
		if _, err := os.Stat(indexPath); err == nil {
			w.Header().Set("Cache-Control", "no-cache")
			http.ServeFile(w, r, indexPath)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		data := struct {
			Version string
			Links   []string
		}{contracts.Version, landingLinks}
		if err := landingPage.Execute(w, data); err != nil {
			http.Error(w, "Error rendering page", http.StatusInternalServerError)
		}
	}
}

// StaticFiles serves webDir/static under the route's prefix. Directory
// listings are not exposed.
func StaticFiles(webDir string) http.Handler {
	fs := http.FileServer(http.Dir(filepath.Join(webDir, "static")))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		rctx := chi.RouteContext(r.Context())
		prefix := strings.TrimSuffix(rctx.RoutePattern(), "/*")
		http.StripPrefix(prefix, fs).ServeHTTP(w, r)
	})
}
