package http

import (
	"io/fs"
	"net/http"
	"strings"
)

// handleStatic serves the embedded front-end. Paths that do not match an
// asset fall back to index.html so client-side routes deep-link correctly.
func (h *Handler) handleStatic(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	if name == "" {
		name = "index.html"
	}
	if _, err := fs.Stat(h.static, name); err != nil {
		name = "index.html"
	}
	http.ServeFileFS(w, r, h.static, name)
}
