package handler

import "net/http"

// HandleRoot is the liveness banner at GET /.
func HandleRoot(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("BookFinder API is alive!"))
}

// HandleHealthz is the probe endpoint at GET /healthz.
func HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
