package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"cadenza/catalog"
	"cadenza/config"
	"cadenza/core/auth"
	"cadenza/fault"
	"cadenza/logger"
	"cadenza/session"
)

// APIHandler serves the catalog, auth and session surfaces.
type APIHandler struct {
	library  *catalog.Library
	sessions *session.Registry
	cfg      *config.Config
}

// NewAPIHandler creates the handler set for a loaded library.
func NewAPIHandler(library *catalog.Library, sessions *session.Registry, cfg *config.Config) *APIHandler {
	return &APIHandler{library: library, sessions: sessions, cfg: cfg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// PingHandler answers liveness checks from binding renders.
func (h *APIHandler) PingHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetTracksHandler lists every track in the catalog.
func (h *APIHandler) GetTracksHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library.AllTracks())
}

// GetTrackHandler fetches one track by id.
func (h *APIHandler) GetTrackHandler(w http.ResponseWriter, r *http.Request) {
	track, err := h.library.Track(mux.Vars(r)["id"])
	if err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, track)
}

// GetPlaylistsHandler lists every playlist.
func (h *APIHandler) GetPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.library.AllPlaylists())
}

// GetPlaylistHandler fetches one playlist by id.
func (h *APIHandler) GetPlaylistHandler(w http.ResponseWriter, r *http.Request) {
	playlist, err := h.library.Playlist(mux.Vars(r)["id"])
	if err != nil {
		fault.WriteHTTP(w, err)
		return
	}
	writeJSON(w, http.StatusOK, playlist)
}

// AuthRequest is the authentication request body.
type AuthRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthenticateHandler verifies credentials and mints a streaming session
// scoped to the authenticated user, registered under a fresh address and
// guarded by a bearer token.
func (h *APIHandler) AuthenticateHandler(w http.ResponseWriter, r *http.Request) {
	var req AuthRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fault.WriteHTTP(w, fault.New(fault.BadIdentity, "invalid request body"))
		return
	}
	if req.Username == "" || req.Password == "" {
		fault.WriteHTTP(w, fault.New(fault.AuthFailed, "username and password are required"))
		return
	}

	user, err := h.library.Authenticate(req.Username, req.Password)
	if err != nil {
		fault.WriteHTTP(w, err)
		return
	}

	sess := session.New(user, h.library)
	sessionID := h.sessions.Add(sess)

	token, err := auth.GenerateSessionToken(sessionID, user.Username, h.cfg.TokenSecret)
	if err != nil {
		h.sessions.Remove(sessionID)
		logger.Error("failed to mint session token", logger.ErrorField(err))
		fault.WriteHTTP(w, err)
		return
	}

	logger.Info("user authenticated", logger.String("username", user.Username))
	writeJSON(w, http.StatusCreated, map[string]any{
		"sessionId": sessionID,
		"token":     token,
		"user":      user,
	})
}
