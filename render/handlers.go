package render

import (
	"encoding/json"
	"net/http"

	"cadenza/client"
	"cadenza/fault"
)

// Handler exposes the controller's transport controls over HTTP.
type Handler struct {
	controller *Controller
}

// NewHandler wraps a controller.
func NewHandler(controller *Controller) *Handler {
	return &Handler{controller: controller}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PingHandler answers liveness checks.
func (h *Handler) PingHandler(w http.ResponseWriter, r *http.Request) {
	writeOK(w)
}

// BindRequest identifies the media server and the leased session to bind.
type BindRequest struct {
	ServerURL string `json:"serverUrl"`
	SessionID string `json:"sessionId"`
	Token     string `json:"token"`
}

// BindHandler resolves the catalog/session pair and binds the controller.
func (h *Handler) BindHandler(w http.ResponseWriter, r *http.Request) {
	var req BindRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fault.WriteHTTP(w, fault.New(fault.BadReference, "invalid request body"))
		return
	}
	if req.ServerURL == "" || req.SessionID == "" {
		fault.WriteHTTP(w, fault.New(fault.BadReference, "serverUrl and sessionId are required"))
		return
	}

	catalog := client.NewCatalogClient(req.ServerURL)
	session := client.NewSessionClient(req.ServerURL, req.SessionID, req.Token)
	if err := h.controller.Bind(catalog, session); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// UnbindHandler unbinds the media server. Always succeeds.
func (h *Handler) UnbindHandler(w http.ResponseWriter, r *http.Request) {
	h.controller.Unbind()
	writeOK(w)
}

// LoadTrackRequest names the track to load.
type LoadTrackRequest struct {
	TrackID string `json:"trackId"`
}

// LoadTrackHandler makes a track current.
func (h *Handler) LoadTrackHandler(w http.ResponseWriter, r *http.Request) {
	var req LoadTrackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fault.WriteHTTP(w, fault.New(fault.BadReference, "invalid request body"))
		return
	}
	if err := h.controller.LoadTrack(req.TrackID); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// LoadPlaylistRequest names the playlist to load.
type LoadPlaylistRequest struct {
	PlaylistID string `json:"playlistId"`
}

// LoadPlaylistHandler loads a playlist and positions on its first track.
func (h *Handler) LoadPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	var req LoadPlaylistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fault.WriteHTTP(w, fault.New(fault.BadReference, "invalid request body"))
		return
	}
	if err := h.controller.LoadPlaylist(req.PlaylistID); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// CurrentTrackHandler returns the current track, or 204 when none is loaded.
func (h *Handler) CurrentTrackHandler(w http.ResponseWriter, r *http.Request) {
	track := h.controller.CurrentTrack()
	if track == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// StatusHandler reports the derived playback status.
func (h *Handler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.controller.Status())
}

// PlayHandler starts or resumes playback.
func (h *Handler) PlayHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Play(); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// PauseHandler pauses playback.
func (h *Handler) PauseHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Pause(); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// StopHandler stops playback.
func (h *Handler) StopHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Stop(); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// NextHandler advances within the loaded playlist.
func (h *Handler) NextHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Next(); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// PreviousHandler goes back through history.
func (h *Handler) PreviousHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.Previous(); err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeOK(w)
}

// RepeatRequest carries the repeat flag.
type RepeatRequest struct {
	Repeat bool `json:"repeat"`
}

// SetRepeatHandler toggles repeat mode.
func (h *Handler) SetRepeatHandler(w http.ResponseWriter, r *http.Request) {
	var req RepeatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fault.WriteHTTP(w, fault.New(fault.BadReference, "invalid request body"))
		return
	}
	h.controller.SetRepeat(req.Repeat)
	writeOK(w)
}
