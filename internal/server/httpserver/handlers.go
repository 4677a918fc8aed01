package httpserver

import (
	"encoding/json"
	"net/http"
	"strconv"

	"git.home.luguber.info/inful/grup/internal/render"
)

// handleRoot serves the current snapshot. The snapshot is read once, so the
// body and version header always belong to the same commit even if the
// watcher publishes mid-request.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
		http.NotFound(w, r)
		return
	}

	snap := s.state.Snapshot()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set(VersionHeader, strconv.FormatUint(snap.Version, 10))
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write([]byte(snap.HTML))
	}
}

// updatesResponse is the staleness-check payload.
type updatesResponse struct {
	Version uint64 `json:"version"`
}

// handleUpdates answers the client's poll: 200 with the new version when the
// document moved past since, 404 when there is nothing new. A missing or
// malformed since parameter counts as 0, so the first poll after any commit
// is always answered with "changed".
func (s *Server) handleUpdates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	since, err := strconv.ParseUint(r.URL.Query().Get("since"), 10, 64)
	if err != nil {
		since = 0
	}

	current := s.state.Snapshot().Version
	if since >= current {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set(VersionHeader, strconv.FormatUint(current, 10))
	_ = json.NewEncoder(w).Encode(updatesResponse{Version: current})
}

func (s *Server) handleStylesheet(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodGet {
		_, _ = w.Write(render.Stylesheet())
	}
}

// healthzResponse reports document and render health for operators.
type healthzResponse struct {
	Status    string `json:"status"`
	Version   uint64 `json:"version"`
	Path      string `json:"path"`
	LastError string `json:"last_error,omitempty"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	snap := s.state.Snapshot()
	resp := healthzResponse{
		Status:  "ok",
		Version: snap.Version,
		Path:    s.state.Path(),
	}
	if !snap.OK() {
		resp.Status = "degraded"
		resp.LastError = snap.LastError
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
