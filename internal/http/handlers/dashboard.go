package handlers

import (
	"embed"
	"io"
	"net/http"
)

//go:embed static/dashboard.html
var dashboardFS embed.FS

// Dashboard handles GET /dashboard: a single static page with no
// server-side logic beyond serving the embedded asset. It opens its own
// WebSocket connection to /ws/events in the browser.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	f, err := dashboardFS.Open("static/dashboard.html")
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	rs, ok := f.(io.ReadSeeker)
	if !ok {
		http.Error(w, "embedded file is not seekable", http.StatusInternalServerError)
		return
	}

	http.ServeContent(w, r, stat.Name(), stat.ModTime(), rs)
}
